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

// Package config supplies the small immutable settings record every job
// needs: environment name, AWS resource names, and storage prefixes.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the per-environment settings. Values come from an
// environment-specific YAML file overridden by SCP_* environment
// variables ("s3_bucket" becomes "SCP_S3_BUCKET").
type Config struct {
	Env                   string `mapstructure:"env"`
	AWSRegion             string `mapstructure:"aws_region"`
	S3Bucket              string `mapstructure:"s3_bucket"`
	S3PrefixRaw           string `mapstructure:"s3_prefix_raw"`
	S3PrefixFeatures      string `mapstructure:"s3_prefix_features"`
	DDBTableDailyFeatures string `mapstructure:"ddb_table_daily_features"`
}

// Load reads the YAML file named after SCP_ENV (dev when unset) from
// SCP_CONFIG_DIR (./configs when unset), applies SCP_* environment
// overrides, and validates the result. A missing file is fine as long
// as the environment supplies the required settings.
func Load() (*Config, error) {
	env := strings.ToLower(os.Getenv("SCP_ENV"))
	if env == "" {
		env = "dev"
	}

	dir := os.Getenv("SCP_CONFIG_DIR")
	if dir == "" {
		dir = "configs"
	}

	cfg := &Config{Env: env}

	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("SCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	v.SetDefault("s3_prefix_raw", "raw")
	v.SetDefault("s3_prefix_features", "features")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s/%s.yaml: %w", dir, env, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Env = env

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings no job can run without. Failing here
// happens before any I/O.
func (c *Config) Validate() error {
	var missing []string
	if c.AWSRegion == "" {
		missing = append(missing, "aws_region")
	}
	if c.S3Bucket == "" {
		missing = append(missing, "s3_bucket")
	}
	if c.DDBTableDailyFeatures == "" {
		missing = append(missing, "ddb_table_daily_features")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

// DefaultRawDataPath is where the ingest job lands the sample partition
// and where the feature jobs read from unless TLC_DATA_PATH overrides.
func (c *Config) DefaultRawDataPath() string {
	return fmt.Sprintf("s3://%s/%s/nyc_tlc/tlc_small.parquet", c.S3Bucket, c.S3PrefixRaw)
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
