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
	"github.com/sandersdata/customer-platform/internal/featurestore"
	"github.com/sandersdata/customer-platform/internal/partition"
)

// Operational check for the point-lookup side: fetch one record the way
// a consumer would.
func init() {
	var date string

	cmd := &cobra.Command{
		Use:   "lookup <customer_id>",
		Short: "Fetch one daily feature record from the point-lookup store",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if date == "" {
				date = partition.ResolveDate(os.Getenv("SCHEDULED_TIME"))
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
			ddb, err := mgr.GetDynamoDB(ctx, awsclient.WithDynamoDBRegion(cfg.AWSRegion))
			if err != nil {
				return fmt.Errorf("failed to create DynamoDB client: %w", err)
			}

			store := featurestore.New(ddb, cfg.DDBTableDailyFeatures)
			rec, err := store.GetDailyFeatures(ctx, args[0], date)
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("no record for customer_id=%s date=%s", args[0], date)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "record date (default: resolved processing date)")

	rootCmd.AddCommand(cmd)
}
