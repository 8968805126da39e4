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

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandersdata/customer-platform/config"
	"github.com/sandersdata/customer-platform/internal/awsclient"
	"github.com/sandersdata/customer-platform/internal/cloudstorage"
	"github.com/sandersdata/customer-platform/internal/duckdbx"
	"github.com/sandersdata/customer-platform/internal/features"
	"github.com/sandersdata/customer-platform/internal/featurestore"
	"github.com/sandersdata/customer-platform/internal/jobs"
	"github.com/sandersdata/customer-platform/internal/runner"
)

func init() {
	cmd := &cobra.Command{
		Use:   "daily-features",
		Short: "Compute per-customer daily feature aggregates for one date",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDailyFeatures("scp-daily-features", features.DefaultVariant)
		},
	}
	rootCmd.AddCommand(cmd)

	medium := &cobra.Command{
		Use:   "daily-features-medium",
		Short: "Compute daily features over a 1000-row cut of the partition",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDailyFeatures("scp-daily-features-medium", features.MediumVariant)
		},
	}
	rootCmd.AddCommand(medium)
}

func runDailyFeatures(servicename string, variant features.Variant) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	doneCtx, doneFx, err := setupTelemetry(servicename, cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	defer func() {
		if err := doneFx(); err != nil {
			slog.Error("Error shutting down telemetry", slog.Any("error", err))
		}
	}()

	mgr, err := awsclient.NewManager(doneCtx, awsclient.WithAssumeRoleSessionName(servicename))
	if err != nil {
		return fmt.Errorf("failed to create AWS client manager: %w", err)
	}

	storage, err := cloudstorage.NewClient(doneCtx, mgr, awsclient.WithRegion(cfg.AWSRegion))
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}

	ddb, err := mgr.GetDynamoDB(doneCtx, awsclient.WithDynamoDBRegion(cfg.AWSRegion))
	if err != nil {
		return fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	store := featurestore.New(ddb, cfg.DDBTableDailyFeatures)

	db, err := duckdbx.Open(doneCtx)
	if err != nil {
		return fmt.Errorf("failed to open query engine: %w", err)
	}
	defer func() { _ = db.Close() }()

	agg := features.NewAggregator(db, variant)
	pers := features.NewPersister(storage, store, cfg.S3Bucket, cfg.S3PrefixFeatures, variant)
	job := jobs.NewDailyFeatures(cfg, db, storage, agg, pers, variant,
		os.Getenv("SCHEDULED_TIME"), os.Getenv("TLC_DATA_PATH"))

	_, err = runner.Run(doneCtx, job)
	return err
}
