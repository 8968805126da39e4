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
	"os"

	"github.com/parquet-go/parquet-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/sandersdata/customer-platform/internal/logctx"
)

var (
	snapshotWrites metric.Int64Counter
	upsertedRows   metric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/sandersdata/customer-platform/internal/features")

	var err error
	snapshotWrites, err = meter.Int64Counter(
		"scp.features.snapshot.writes",
		metric.WithDescription("Number of feature snapshot objects written"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create snapshot.writes counter: %w", err))
	}

	upsertedRows, err = meter.Int64Counter(
		"scp.features.upserts",
		metric.WithDescription("Number of feature records upserted to the point-lookup store"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create upserts counter: %w", err))
	}
}

// SnapshotStore is the slice of the object-store gateway the persister
// needs. Satisfied by cloudstorage.Client.
type SnapshotStore interface {
	UploadObject(ctx context.Context, bucket, key, sourceFilename string) error
}

// RecordStore upserts point-lookup records. Satisfied by
// featurestore.Store.
type RecordStore interface {
	UpsertDailyFeatures(ctx context.Context, rows []Row, datasetTag string) error
}

// PersistResult reports what one Persist call materialized.
type PersistResult struct {
	// NoWork is set when there were no rows; nothing was written.
	NoWork bool
	// SnapshotKey is the object key the snapshot was written to.
	SnapshotKey string
	// Upserts is the number of point records written.
	Upserts int
}

// Persister materializes an aggregation result: first the full parquet
// snapshot, then one upserted record per customer. The ordering is a
// contract: consumers that only trust the snapshot see a stable
// artifact even if the upserts later fail.
type Persister struct {
	snapshots SnapshotStore
	records   RecordStore
	bucket    string
	prefix    string
	variant   Variant
}

func NewPersister(snapshots SnapshotStore, records RecordStore, bucket, featuresPrefix string, variant Variant) *Persister {
	return &Persister{
		snapshots: snapshots,
		records:   records,
		bucket:    bucket,
		prefix:    featuresPrefix,
		variant:   variant,
	}
}

// Persist writes the snapshot and then upserts each row. Empty input
// skips both stages and reports NoWork; an empty snapshot or zero
// upserts must never be reported as success-with-work.
//
// Both stages are idempotent: the snapshot overwrites the same key and
// the upserts are keyed by (customer_id, date), so a rerun after a
// partial failure repairs the remainder.
func (p *Persister) Persist(ctx context.Context, rows []Row, date string) (PersistResult, error) {
	ll := logctx.FromContext(ctx)

	if len(rows) == 0 {
		return PersistResult{NoWork: true}, nil
	}

	key := p.variant.SnapshotKey(p.prefix, date)
	if err := p.writeSnapshot(ctx, rows, key); err != nil {
		return PersistResult{}, err
	}
	snapshotWrites.Add(ctx, 1, metric.WithAttributes(
		attribute.String("variant", p.variant.Name),
	))
	ll.Info("Wrote feature snapshot", "bucket", p.bucket, "key", key, "rows", len(rows))

	if err := p.records.UpsertDailyFeatures(ctx, rows, p.variant.DatasetTag); err != nil {
		// The snapshot for this date is already in place; a rerun only
		// needs to repair the point records.
		return PersistResult{SnapshotKey: key}, fmt.Errorf("upsert daily features: %w", err)
	}
	upsertedRows.Add(ctx, int64(len(rows)), metric.WithAttributes(
		attribute.String("variant", p.variant.Name),
	))
	ll.Info("Upserted feature records", "rows", len(rows))

	return PersistResult{SnapshotKey: key, Upserts: len(rows)}, nil
}

func (p *Persister) writeSnapshot(ctx context.Context, rows []Row, key string) error {
	f, err := os.CreateTemp("", "features-*.parquet")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer func() { _ = os.Remove(f.Name()) }()

	if err := WriteSnapshotFile(f.Name(), rows); err != nil {
		_ = f.Close()
		return err
	}
	_ = f.Close()

	if err := p.snapshots.UploadObject(ctx, p.bucket, key, f.Name()); err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}
	return nil
}

// WriteSnapshotFile serializes rows as one snappy-compressed parquet
// file at path, replacing whatever is there.
func WriteSnapshotFile(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}

	writer := parquet.NewGenericWriter[Row](f, parquet.Compression(&parquet.Snappy))
	if _, err := writer.Write(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write snapshot rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("close snapshot writer: %w", err)
	}
	return f.Close()
}

// ReadSnapshotFile loads a snapshot written by WriteSnapshotFile.
func ReadSnapshotFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat snapshot file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open snapshot parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer func() { _ = reader.Close() }()

	out := make([]Row, reader.NumRows())
	if len(out) == 0 {
		return nil, nil
	}
	n, err := reader.Read(out)
	if err != nil && n < len(out) {
		return nil, fmt.Errorf("read snapshot rows: %w", err)
	}
	return out[:n], nil
}
