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

package featurestore

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandersdata/customer-platform/internal/features"
)

func numAttr(t *testing.T, item map[string]types.AttributeValue, name string) string {
	t.Helper()
	av, ok := item[name].(*types.AttributeValueMemberN)
	require.True(t, ok, "attribute %s must be a number", name)
	return av.Value
}

func strAttr(t *testing.T, item map[string]types.AttributeValue, name string) string {
	t.Helper()
	av, ok := item[name].(*types.AttributeValueMemberS)
	require.True(t, ok, "attribute %s must be a string", name)
	return av.Value
}

func TestItemForRow(t *testing.T) {
	row := features.Row{
		CustomerID:    "1",
		Date:          "2026-02-04",
		TripCount1D:   3,
		AvgFare1D:     20,
		AvgDistance1D: 2,
	}

	item := itemForRow(row, "")

	assert.Equal(t, "1", strAttr(t, item, "customer_id"))
	assert.Equal(t, "2026-02-04", strAttr(t, item, "date"))
	assert.Equal(t, "3", numAttr(t, item, "trip_count_1d"))
	assert.Equal(t, "20", numAttr(t, item, "avg_fare_1d"))
	assert.Equal(t, "2", numAttr(t, item, "avg_distance_1d"))
	_, tagged := item["dataset_size"]
	assert.False(t, tagged, "dataset_size must be absent without a tag")
}

func TestItemForRow_DatasetTag(t *testing.T) {
	item := itemForRow(features.Row{CustomerID: "2", Date: "2026-02-04"}, "medium_1000")
	assert.Equal(t, "medium_1000", strAttr(t, item, "dataset_size"))
}

func TestItemForRow_ExactDecimal(t *testing.T) {
	// A float mean must round-trip as the exact decimal the operator
	// expects, not a binary approximation like 12.34999999.
	row := features.Row{
		CustomerID:    "7",
		Date:          "2026-02-04",
		AvgFare1D:     12.345,
		AvgDistance1D: 0.1,
	}

	item := itemForRow(row, "")

	assert.Equal(t, "12.345", numAttr(t, item, "avg_fare_1d"))
	assert.Equal(t, "0.1", numAttr(t, item, "avg_distance_1d"))
}

func TestDecimalString(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{12.345, "12.345"},
		{20, "20"},
		{0.5, "0.5"},
		{-3.25, "-3.25"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, decimalString(tt.in))
	}
}
