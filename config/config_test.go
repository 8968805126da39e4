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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, env, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, env+".yaml"), []byte(content), 0644))
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "dev", `
aws_region: us-east-1
s3_bucket: scp-dev
s3_prefix_raw: raw
s3_prefix_features: features
ddb_table_daily_features: scp_daily_features_dev
`)
	t.Setenv("SCP_CONFIG_DIR", dir)
	t.Setenv("SCP_ENV", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "us-east-1", cfg.AWSRegion)
	assert.Equal(t, "scp-dev", cfg.S3Bucket)
	assert.Equal(t, "scp_daily_features_dev", cfg.DDBTableDailyFeatures)
}

func TestLoad_EnvSelectsFile(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "stg", `
aws_region: us-west-2
s3_bucket: scp-stg
ddb_table_daily_features: scp_daily_features_stg
`)
	t.Setenv("SCP_CONFIG_DIR", dir)
	t.Setenv("SCP_ENV", "stg")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "stg", cfg.Env)
	assert.Equal(t, "scp-stg", cfg.S3Bucket)
	// prefixes default when the file omits them
	assert.Equal(t, "raw", cfg.S3PrefixRaw)
	assert.Equal(t, "features", cfg.S3PrefixFeatures)
}

func TestLoad_EnvVarOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "dev", `
aws_region: us-east-1
s3_bucket: scp-dev
ddb_table_daily_features: scp_daily_features_dev
`)
	t.Setenv("SCP_CONFIG_DIR", dir)
	t.Setenv("SCP_ENV", "dev")
	t.Setenv("SCP_S3_BUCKET", "scp-override")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "scp-override", cfg.S3Bucket)
}

func TestLoad_NoFileEnvOnly(t *testing.T) {
	t.Setenv("SCP_CONFIG_DIR", t.TempDir())
	t.Setenv("SCP_ENV", "prod")
	t.Setenv("SCP_AWS_REGION", "eu-west-1")
	t.Setenv("SCP_S3_BUCKET", "scp-prod")
	t.Setenv("SCP_DDB_TABLE_DAILY_FEATURES", "scp_daily_features_prod")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.AWSRegion)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("SCP_CONFIG_DIR", t.TempDir())
	t.Setenv("SCP_ENV", "dev")
	t.Setenv("SCP_AWS_REGION", "")
	t.Setenv("SCP_S3_BUCKET", "")
	t.Setenv("SCP_DDB_TABLE_DAILY_FEATURES", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required config")
}

func TestDefaultRawDataPath(t *testing.T) {
	cfg := &Config{S3Bucket: "scp-dev", S3PrefixRaw: "raw"}
	assert.Equal(t, "s3://scp-dev/raw/nyc_tlc/tlc_small.parquet", cfg.DefaultRawDataPath())
}
