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

// Package jobs contains the concrete batch jobs the scheduler invokes:
// the daily feature pipeline (resolve date, aggregate, persist) and the
// sample-data ingest.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sandersdata/customer-platform/config"
	"github.com/sandersdata/customer-platform/internal/cloudstorage"
	"github.com/sandersdata/customer-platform/internal/duckdbx"
	"github.com/sandersdata/customer-platform/internal/features"
	"github.com/sandersdata/customer-platform/internal/logctx"
	"github.com/sandersdata/customer-platform/internal/partition"
	"github.com/sandersdata/customer-platform/internal/runner"
)

// aggregator and persister are the two pipeline stages a feature job
// drives. Satisfied by features.Aggregator and features.Persister.
type aggregator interface {
	Compute(ctx context.Context, location, date string) ([]features.Row, error)
}

type persister interface {
	Persist(ctx context.Context, rows []features.Row, date string) (features.PersistResult, error)
}

// objectChecker is the slice of the object-store gateway used to verify
// a remote partition exists before aggregation.
type objectChecker interface {
	ObjectExists(ctx context.Context, bucket, key string) (bool, error)
}

// DailyFeatures computes per-customer aggregates for one date from one
// raw TLC partition and persists them to both stores. The variant picks
// the fare column, input cap, and snapshot layout.
type DailyFeatures struct {
	cfg           *config.Config
	db            *duckdbx.DB
	storage       objectChecker
	aggregator    aggregator
	persister     persister
	variant       features.Variant
	scheduledTime string
	dataPath      string
}

// NewDailyFeatures wires a feature job. scheduledTime is the raw
// scheduler-supplied timestamp (may be empty or malformed); dataPath
// overrides the raw partition location when non-empty.
func NewDailyFeatures(
	cfg *config.Config,
	db *duckdbx.DB,
	storage objectChecker,
	agg aggregator,
	pers persister,
	variant features.Variant,
	scheduledTime string,
	dataPath string,
) *DailyFeatures {
	if dataPath == "" {
		dataPath = cfg.DefaultRawDataPath()
	}
	return &DailyFeatures{
		cfg:           cfg,
		db:            db,
		storage:       storage,
		aggregator:    agg,
		persister:     pers,
		variant:       variant,
		scheduledTime: scheduledTime,
		dataPath:      dataPath,
	}
}

func (j *DailyFeatures) Name() string {
	if j.variant.Name != "" && j.variant.Name != "default" {
		return "daily-features-" + j.variant.Name
	}
	return "daily-features"
}

func (j *DailyFeatures) Run(ctx context.Context) (runner.Result, error) {
	date := partition.ResolveDate(j.scheduledTime)
	ctx = logctx.With(ctx, "date", date)
	ll := logctx.FromContext(ctx)

	ll.Info("Running daily features", "location", j.dataPath, "variant", j.variant.Name)

	if err := j.ensureInput(ctx); err != nil {
		return runner.Result{Date: date}, err
	}

	rows, err := j.aggregator.Compute(ctx, j.dataPath, date)
	if err != nil {
		return runner.Result{Date: date}, err
	}

	res, err := j.persister.Persist(ctx, rows, date)
	if err != nil {
		return runner.Result{Date: date}, err
	}

	return runner.Result{NoWork: res.NoWork, Date: date, Rows: len(rows)}, nil
}

// ensureInput verifies the raw partition resolves to readable data and,
// for remote locations, establishes the engine's S3 access first.
func (j *DailyFeatures) ensureInput(ctx context.Context) error {
	if cloudstorage.IsS3URI(j.dataPath) {
		bucket, key, err := cloudstorage.ParseS3URI(j.dataPath)
		if err != nil {
			return fmt.Errorf("%w: %s", features.ErrInputNotFound, j.dataPath)
		}
		if err := j.db.EnsureRemoteAccess(ctx, j.cfg.AWSRegion); err != nil {
			return err
		}
		exists, err := j.storage.ObjectExists(ctx, bucket, key)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s", features.ErrInputNotFound, j.dataPath)
		}
		return nil
	}

	if _, err := os.Stat(j.dataPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", features.ErrInputNotFound, j.dataPath)
		}
		return fmt.Errorf("stat raw partition %s: %w", j.dataPath, err)
	}
	return nil
}
