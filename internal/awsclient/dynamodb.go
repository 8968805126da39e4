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

package awsclient

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type dynamoConfig struct {
	RoleARN  string
	Region   string
	Endpoint string
}

// DynamoDBOption is a functional option for GetDynamoDB.
type DynamoDBOption func(*dynamoConfig)

// WithDynamoDBRole sets the IAM Role ARN to assume (empty = no assume).
func WithDynamoDBRole(roleARN string) DynamoDBOption {
	return func(c *dynamoConfig) {
		c.RoleARN = roleARN
	}
}

// WithDynamoDBRegion overrides the AWS region for this client.
func WithDynamoDBRegion(region string) DynamoDBOption {
	return func(c *dynamoConfig) {
		c.Region = region
	}
}

// WithDynamoDBEndpoint forces a custom endpoint (eg DynamoDB Local).
func WithDynamoDBEndpoint(url string) DynamoDBOption {
	return func(c *dynamoConfig) {
		c.Endpoint = url
	}
}

func (m *Manager) GetDynamoDB(ctx context.Context, opts ...DynamoDBOption) (*dynamodb.Client, error) {
	dc := dynamoConfig{
		Region: m.baseCfg.Region,
	}
	for _, o := range opts {
		o(&dc)
	}

	cfg := m.baseCfg.Copy()
	cfg.Region = dc.Region
	cfg.Credentials = m.credentialsFor(dc.Region, dc.RoleARN)

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if dc.Endpoint != "" {
			o.BaseEndpoint = aws.String(dc.Endpoint)
		}
	})

	return client, nil
}
