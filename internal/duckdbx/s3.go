// Copyright (C) 2025 Sanders Data, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package duckdbx

import (
	"context"
	"fmt"
	"strings"
)

// EnsureRemoteAccess loads the httpfs extension so the engine can read
// s3:// and https:// locations, and seeds an AWS credential-chain secret
// scoped to the given region. Idempotent; callers invoke it once before
// the first remote read rather than relying on side effects inside the
// query call.
func (d *DB) EnsureRemoteAccess(ctx context.Context, region string) error {
	d.s3Once.Do(func() {
		d.s3Err = d.setupRemoteAccess(ctx, region)
	})
	return d.s3Err
}

func (d *DB) setupRemoteAccess(ctx context.Context, region string) error {
	ddlMu.Lock()
	defer ddlMu.Unlock()

	// LOAD first; INSTALL only when the extension is not already present
	// (air-gapped images bake it in).
	if _, err := d.conn.ExecContext(ctx, "LOAD httpfs;"); err != nil {
		if _, err := d.conn.ExecContext(ctx, "INSTALL httpfs;"); err != nil {
			return fmt.Errorf("INSTALL httpfs: %w", err)
		}
		if _, err := d.conn.ExecContext(ctx, "LOAD httpfs;"); err != nil {
			return fmt.Errorf("LOAD httpfs: %w", err)
		}
	}

	if region == "" {
		region = "us-east-1"
	}

	// The credential_chain provider resolves the same way the AWS SDK
	// does: env vars, task role, instance profile.
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "CREATE OR REPLACE SECRET scp_s3 (\n")
	_, _ = fmt.Fprintf(&b, "  TYPE S3,\n")
	_, _ = fmt.Fprintf(&b, "  PROVIDER credential_chain,\n")
	_, _ = fmt.Fprintf(&b, "  REGION '%s'\n", escapeSingle(region))
	_, _ = fmt.Fprintf(&b, ");")

	if _, err := d.conn.ExecContext(ctx, b.String()); err != nil {
		return fmt.Errorf("create s3 secret: %w", err)
	}
	return nil
}
