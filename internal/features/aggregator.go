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

package features

import (
	"context"
	"fmt"

	"github.com/sandersdata/customer-platform/internal/duckdbx"
	"github.com/sandersdata/customer-platform/internal/logctx"
)

// Aggregator loads one raw partition and computes per-customer daily
// aggregates with DuckDB. The location may be a local path or an s3://
// URI; remote access must have been established via
// duckdbx.DB.EnsureRemoteAccess before Compute is called.
type Aggregator struct {
	db      *duckdbx.DB
	variant Variant
}

func NewAggregator(db *duckdbx.DB, variant Variant) *Aggregator {
	return &Aggregator{db: db, variant: variant}
}

// Compute returns one Row per customer found in the partition, stamped
// with the given date. Rows with a null VendorID are dropped before
// grouping: unattributable trips never become feature records. The
// result is ordered by customer id so a rerun over the same partition
// serializes to an identical snapshot. Zero groups is a valid result,
// not an error.
func (a *Aggregator) Compute(ctx context.Context, location, date string) ([]Row, error) {
	ll := logctx.FromContext(ctx)
	ll.Info("Aggregating raw partition", "location", location, "variant", a.variant.Name)

	source := "read_parquet(?)"
	if a.variant.RowLimit > 0 {
		source = fmt.Sprintf("(SELECT * FROM read_parquet(?) LIMIT %d)", a.variant.RowLimit)
	}

	// VendorID stands in for the customer id in the TLC dataset.
	q := fmt.Sprintf(`
		SELECT
		  CAST(VendorID AS VARCHAR) AS customer_id,
		  COUNT(*) AS trip_count_1d,
		  AVG(%s) AS avg_fare_1d,
		  AVG(trip_distance) AS avg_distance_1d
		FROM %s
		WHERE VendorID IS NOT NULL
		GROUP BY 1
		ORDER BY 1`, quoteIdent(a.variant.FareColumn), source)

	rows, err := a.db.QueryContext(ctx, q, location)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", location, err)
	}
	defer func() { _ = rows.Close() }()

	var out []Row
	for rows.Next() {
		r := Row{Date: date}
		if err := rows.Scan(&r.CustomerID, &r.TripCount1D, &r.AvgFare1D, &r.AvgDistance1D); err != nil {
			return nil, fmt.Errorf("scan feature row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read feature rows: %w", err)
	}

	ll.Info("Aggregation complete", "customers", len(out))
	return out, nil
}

func quoteIdent(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			out = append(out, '"')
		}
		out = append(out, s[i])
	}
	out = append(out, '"')
	return string(out)
}
