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
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandersdata/customer-platform/internal/duckdbx"
)

// tripRow mirrors the raw TLC partition columns the aggregator touches.
type tripRow struct {
	VendorID     *int64  `parquet:"VendorID,optional"`
	FareAmount   float64 `parquet:"fare_amount"`
	TotalAmount  float64 `parquet:"total_amount"`
	TripDistance float64 `parquet:"trip_distance"`
}

func vendor(id int64) *int64 { return &id }

func writeTrips(t *testing.T, rows []tripRow) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trips.parquet")

	f, err := os.Create(path)
	require.NoError(t, err)
	w := parquet.NewGenericWriter[tripRow](f, parquet.Compression(&parquet.Snappy))
	if len(rows) > 0 {
		_, err = w.Write(rows)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func openDB(t *testing.T) *duckdbx.DB {
	t.Helper()
	db, err := duckdbx.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// the reference scenario: three trips for vendor 1, two for vendor 2
func sampleTrips() []tripRow {
	return []tripRow{
		{VendorID: vendor(1), FareAmount: 10, TotalAmount: 12, TripDistance: 1},
		{VendorID: vendor(1), FareAmount: 20, TotalAmount: 22, TripDistance: 2},
		{VendorID: vendor(1), FareAmount: 30, TotalAmount: 32, TripDistance: 3},
		{VendorID: vendor(2), FareAmount: 5, TotalAmount: 6, TripDistance: 0.5},
		{VendorID: vendor(2), FareAmount: 15, TotalAmount: 16, TripDistance: 1.5},
	}
}

func TestAggregator_Compute(t *testing.T) {
	path := writeTrips(t, sampleTrips())
	agg := NewAggregator(openDB(t), DefaultVariant)

	rows, err := agg.Compute(context.Background(), path, "2026-02-04")
	require.NoError(t, err)

	require.Equal(t, []Row{
		{CustomerID: "1", Date: "2026-02-04", TripCount1D: 3, AvgFare1D: 20, AvgDistance1D: 2},
		{CustomerID: "2", Date: "2026-02-04", TripCount1D: 2, AvgFare1D: 10, AvgDistance1D: 1},
	}, rows)
}

func TestAggregator_Compute_Deterministic(t *testing.T) {
	path := writeTrips(t, sampleTrips())
	agg := NewAggregator(openDB(t), DefaultVariant)

	first, err := agg.Compute(context.Background(), path, "2026-02-04")
	require.NoError(t, err)
	second, err := agg.Compute(context.Background(), path, "2026-02-04")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAggregator_Compute_NullKeysDropped(t *testing.T) {
	trips := append(sampleTrips(),
		// unattributable trips must not become records and must not
		// bleed into other vendors' aggregates
		tripRow{VendorID: nil, FareAmount: 1000, TripDistance: 99},
		tripRow{VendorID: nil, FareAmount: 2000, TripDistance: 99},
	)
	path := writeTrips(t, trips)
	agg := NewAggregator(openDB(t), DefaultVariant)

	rows, err := agg.Compute(context.Background(), path, "2026-02-04")
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0].CustomerID)
	assert.Equal(t, float64(20), rows[0].AvgFare1D)
	assert.Equal(t, "2", rows[1].CustomerID)
	assert.Equal(t, float64(10), rows[1].AvgFare1D)
}

func TestAggregator_Compute_EmptyPartition(t *testing.T) {
	path := writeTrips(t, nil)
	agg := NewAggregator(openDB(t), DefaultVariant)

	rows, err := agg.Compute(context.Background(), path, "2026-02-04")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAggregator_Compute_AllNullPartition(t *testing.T) {
	path := writeTrips(t, []tripRow{
		{VendorID: nil, FareAmount: 10, TripDistance: 1},
		{VendorID: nil, FareAmount: 20, TripDistance: 2},
	})
	agg := NewAggregator(openDB(t), DefaultVariant)

	rows, err := agg.Compute(context.Background(), path, "2026-02-04")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAggregator_Compute_MediumVariant(t *testing.T) {
	path := writeTrips(t, sampleTrips())
	agg := NewAggregator(openDB(t), MediumVariant)

	rows, err := agg.Compute(context.Background(), path, "2026-02-04")
	require.NoError(t, err)

	// medium averages total_amount instead of fare_amount
	require.Len(t, rows, 2)
	assert.Equal(t, float64(22), rows[0].AvgFare1D)
	assert.Equal(t, float64((6+16)/2.0), rows[1].AvgFare1D)
}

func TestAggregator_Compute_MediumVariantRowLimit(t *testing.T) {
	trips := make([]tripRow, 1500)
	for i := range trips {
		trips[i] = tripRow{VendorID: vendor(1), FareAmount: 10, TripDistance: 1}
	}
	path := writeTrips(t, trips)
	agg := NewAggregator(openDB(t), MediumVariant)

	rows, err := agg.Compute(context.Background(), path, "2026-02-04")
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, int64(1000), rows[0].TripCount1D)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"fare_amount"`, quoteIdent("fare_amount"))
	assert.Equal(t, `"odd""name"`, quoteIdent(`odd"name`))
}
