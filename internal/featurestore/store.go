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

// Package featurestore is the key-value half of the storage gateway:
// per-customer daily feature records in DynamoDB, keyed by
// (customer_id, date).
package featurestore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/sandersdata/customer-platform/internal/features"
)

var putCount metric.Int64Counter

func init() {
	meter := otel.Meter("github.com/sandersdata/customer-platform/internal/featurestore")

	var err error
	putCount, err = meter.Int64Counter(
		"scp.featurestore.puts",
		metric.WithDescription("Number of DynamoDB PutItem calls"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create puts counter: %w", err))
	}
}

// Store writes and reads daily feature records. Each write is an
// independent idempotent PutItem; there is no batching and no internal
// retry, the external orchestrator owns retry policy.
type Store struct {
	client *dynamodb.Client
	table  string
}

func New(client *dynamodb.Client, table string) *Store {
	return &Store{client: client, table: table}
}

// UpsertDailyFeatures puts one item per row. A failure partway leaves a
// partially-updated date; acceptable because a rerun repairs the rest.
func (s *Store) UpsertDailyFeatures(ctx context.Context, rows []features.Row, datasetTag string) error {
	for _, row := range rows {
		_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.table),
			Item:      itemForRow(row, datasetTag),
		})
		if err != nil {
			return fmt.Errorf("put item %s/%s: %w", row.CustomerID, row.Date, err)
		}
		putCount.Add(ctx, 1, metric.WithAttributes(
			attribute.String("table", s.table),
		))
	}
	return nil
}

// itemForRow converts a feature row to DynamoDB attributes. The float
// aggregates go through decimal's shortest-representation conversion so
// a mean of 12.345 is stored as the number 12.345, not a binary-float
// approximation.
func itemForRow(row features.Row, datasetTag string) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"customer_id":     &types.AttributeValueMemberS{Value: row.CustomerID},
		"date":            &types.AttributeValueMemberS{Value: row.Date},
		"trip_count_1d":   &types.AttributeValueMemberN{Value: strconv.FormatInt(row.TripCount1D, 10)},
		"avg_fare_1d":     &types.AttributeValueMemberN{Value: decimalString(row.AvgFare1D)},
		"avg_distance_1d": &types.AttributeValueMemberN{Value: decimalString(row.AvgDistance1D)},
	}
	if datasetTag != "" {
		item["dataset_size"] = &types.AttributeValueMemberS{Value: datasetTag}
	}
	return item
}

func decimalString(f float64) string {
	return decimal.NewFromFloat(f).String()
}

// DailyFeatures is the point-lookup view of one record.
type DailyFeatures struct {
	CustomerID    string  `dynamodbav:"customer_id"`
	Date          string  `dynamodbav:"date"`
	TripCount1D   int64   `dynamodbav:"trip_count_1d"`
	AvgFare1D     float64 `dynamodbav:"avg_fare_1d"`
	AvgDistance1D float64 `dynamodbav:"avg_distance_1d"`
	DatasetSize   string  `dynamodbav:"dataset_size"`
}

// GetDailyFeatures looks up one record by its composite key. Returns
// (nil, nil) when the record does not exist.
func (s *Store) GetDailyFeatures(ctx context.Context, customerID, date string) (*DailyFeatures, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"customer_id": &types.AttributeValueMemberS{Value: customerID},
			"date":        &types.AttributeValueMemberS{Value: date},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item %s/%s: %w", customerID, date, err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var rec DailyFeatures
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item %s/%s: %w", customerID, date, err)
	}
	return &rec, nil
}
