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

package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sandersdata/customer-platform/config"
	"github.com/sandersdata/customer-platform/internal/cloudstorage"
	"github.com/sandersdata/customer-platform/internal/duckdbx"
	"github.com/sandersdata/customer-platform/internal/logctx"
	"github.com/sandersdata/customer-platform/internal/runner"
)

// DefaultSourceURL is a public mirror of one month of NYC TLC yellow
// taxi trips. Swap via TLC_SOURCE_URL for any other parquet mirror.
const DefaultSourceURL = "https://d37ci6vzurychx.cloudfront.net/trip-data/yellow_tripdata_2023-01.parquet"

// sampleRowLimit keeps the stored partition small for demo and cost
// control.
const sampleRowLimit = 200_000

// IngestSample downloads a public TLC parquet file, truncates it, and
// lands it as the raw partition the feature jobs read. One-shot seeding
// job, not scheduled.
type IngestSample struct {
	cfg       *config.Config
	db        *duckdbx.DB
	storage   cloudstorage.Client
	sourceURL string
}

func NewIngestSample(cfg *config.Config, db *duckdbx.DB, storage cloudstorage.Client, sourceURL string) *IngestSample {
	if sourceURL == "" {
		sourceURL = DefaultSourceURL
	}
	return &IngestSample{cfg: cfg, db: db, storage: storage, sourceURL: sourceURL}
}

func (j *IngestSample) Name() string { return "ingest-tlc-sample" }

func (j *IngestSample) Run(ctx context.Context) (runner.Result, error) {
	ll := logctx.FromContext(ctx)
	ll.Info("Ingesting TLC parquet", "source", j.sourceURL)

	// httpfs covers the https:// source read too.
	if err := j.db.EnsureRemoteAccess(ctx, j.cfg.AWSRegion); err != nil {
		return runner.Result{}, err
	}

	td, err := os.MkdirTemp("", "scp-ingest-")
	if err != nil {
		return runner.Result{}, fmt.Errorf("create ingest temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(td) }()
	local := filepath.Join(td, "tlc_small.parquet")

	// COPY targets cannot be parameterized in DuckDB.
	q := fmt.Sprintf(
		"COPY (SELECT * FROM read_parquet(%s) LIMIT %d) TO %s (FORMAT PARQUET, COMPRESSION SNAPPY);",
		duckdbx.QuoteLiteral(j.sourceURL), sampleRowLimit, duckdbx.QuoteLiteral(local))
	if _, err := j.db.ExecContext(ctx, q); err != nil {
		return runner.Result{}, fmt.Errorf("copy sample from %s: %w", j.sourceURL, err)
	}

	var rows int
	if err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM read_parquet(?)", local).Scan(&rows); err != nil {
		return runner.Result{}, fmt.Errorf("count sample rows: %w", err)
	}

	key := fmt.Sprintf("%s/dataset=yellow/year=2023/month=01/tlc_small.parquet", j.cfg.S3PrefixRaw)
	if err := j.storage.UploadObject(ctx, j.cfg.S3Bucket, key, local); err != nil {
		return runner.Result{}, err
	}

	ll.Info("Ingest complete", "bucket", j.cfg.S3Bucket, "key", key, "rows", rows)
	return runner.Result{Rows: rows}, nil
}
