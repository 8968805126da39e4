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
	"github.com/sandersdata/customer-platform/internal/jobs"
	"github.com/sandersdata/customer-platform/internal/runner"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest-tlc-sample",
		Short: "Seed the raw prefix with a truncated public TLC partition",
		RunE: func(_ *cobra.Command, _ []string) error {
			servicename := "scp-ingest-tlc-sample"

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

			db, err := duckdbx.Open(doneCtx)
			if err != nil {
				return fmt.Errorf("failed to open query engine: %w", err)
			}
			defer func() { _ = db.Close() }()

			job := jobs.NewIngestSample(cfg, db, storage, os.Getenv("TLC_SOURCE_URL"))

			_, err = runner.Run(doneCtx, job)
			return err
		},
	}

	rootCmd.AddCommand(cmd)
}
