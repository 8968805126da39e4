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

// Package features computes per-customer daily aggregates from one raw
// TLC trip partition and persists them as a parquet snapshot plus
// per-customer point records.
package features

import (
	"errors"
	"fmt"
)

// ErrInputNotFound means the raw partition location does not resolve to
// readable data. Fatal; the orchestrator decides whether to retry.
var ErrInputNotFound = errors.New("raw partition not found")

// Row is one customer's aggregates for one date. (customer_id, date) is
// the natural key in both stores; reruns for the same date overwrite.
type Row struct {
	CustomerID    string  `parquet:"customer_id,snappy"`
	Date          string  `parquet:"date,snappy"`
	TripCount1D   int64   `parquet:"trip_count_1d"`
	AvgFare1D     float64 `parquet:"avg_fare_1d"`
	AvgDistance1D float64 `parquet:"avg_distance_1d"`
}

// Variant selects which cut of the raw partition a job aggregates.
// The medium variant caps the input and averages the total amount
// instead of the base fare.
type Variant struct {
	// Name tags logs and the job identity.
	Name string
	// FareColumn is the raw column averaged into avg_fare_1d.
	FareColumn string
	// RowLimit caps the rows read from the partition (0 = all).
	RowLimit int
	// DatasetTag is stored on point records as dataset_size when set.
	DatasetTag string
	// snapshotKeyFormat receives the features prefix and the date.
	snapshotKeyFormat string
}

var (
	DefaultVariant = Variant{
		Name:              "default",
		FareColumn:        "fare_amount",
		snapshotKeyFormat: "%s/date=%s/features.parquet",
	}

	MediumVariant = Variant{
		Name:              "medium",
		FareColumn:        "total_amount",
		RowLimit:          1000,
		DatasetTag:        "medium_1000",
		snapshotKeyFormat: "%s/daily/date=%s/features_medium.parquet",
	}
)

// SnapshotKey returns the date-partitioned object key for the variant's
// snapshot. The layout is a persisted contract other systems depend on.
func (v Variant) SnapshotKey(featuresPrefix, date string) string {
	return fmt.Sprintf(v.snapshotKeyFormat, featuresPrefix, date)
}
