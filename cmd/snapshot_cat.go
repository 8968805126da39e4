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
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandersdata/customer-platform/config"
	"github.com/sandersdata/customer-platform/internal/awsclient"
	"github.com/sandersdata/customer-platform/internal/cloudstorage"
	"github.com/sandersdata/customer-platform/internal/features"
	"github.com/sandersdata/customer-platform/internal/partition"
)

// Operational check for the snapshot side: pull one date's snapshot and
// dump its rows.
func init() {
	var (
		date   string
		medium bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot-cat",
		Short: "Download one date's feature snapshot and print its rows",
		RunE: func(_ *cobra.Command, _ []string) error {
			if date == "" {
				date = partition.ResolveDate(os.Getenv("SCHEDULED_TIME"))
			}
			variant := features.DefaultVariant
			if medium {
				variant = features.MediumVariant
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, cancel := handleSignals(context.Background())
			defer cancel()

			mgr, err := awsclient.NewManager(ctx)
			if err != nil {
				return fmt.Errorf("failed to create AWS client manager: %w", err)
			}
			storage, err := cloudstorage.NewClient(ctx, mgr, awsclient.WithRegion(cfg.AWSRegion))
			if err != nil {
				return fmt.Errorf("failed to create storage client: %w", err)
			}

			key := variant.SnapshotKey(cfg.S3PrefixFeatures, date)
			local, _, notFound, err := storage.DownloadObject(ctx, os.TempDir(), cfg.S3Bucket, key)
			if err != nil {
				return err
			}
			if notFound {
				keys, lerr := storage.ListObjects(ctx, cfg.S3Bucket, cfg.S3PrefixFeatures)
				if lerr != nil {
					return fmt.Errorf("no snapshot at s3://%s/%s", cfg.S3Bucket, key)
				}
				return fmt.Errorf("no snapshot at s3://%s/%s (%d objects under %s/)",
					cfg.S3Bucket, key, len(keys), cfg.S3PrefixFeatures)
			}
			defer func() { _ = os.Remove(local) }()

			rows, err := features.ReadSnapshotFile(local)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			for _, row := range rows {
				if err := enc.Encode(row); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "snapshot date (default: resolved processing date)")
	cmd.Flags().BoolVar(&medium, "medium", false, "read the medium-variant snapshot")

	rootCmd.AddCommand(cmd)
}
