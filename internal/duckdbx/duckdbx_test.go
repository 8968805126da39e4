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

package duckdbx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndQuery(t *testing.T) {
	ctx := context.Background()

	db, err := Open(ctx)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var n int
	err = db.QueryRowContext(ctx, "SELECT 40 + 2").Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestOpen_MemoryLimitApplied(t *testing.T) {
	ctx := context.Background()

	db, err := Open(ctx, WithMemoryLimitMB(256))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var value string
	err = db.QueryRowContext(ctx,
		"SELECT current_setting('memory_limit')").Scan(&value)
	require.NoError(t, err)
	assert.Contains(t, value, "256")
}

func TestOpen_TempDirectoryApplied(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db, err := Open(ctx, WithTempDirectory(dir))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var value string
	err = db.QueryRowContext(ctx,
		"SELECT current_setting('temp_directory')").Scan(&value)
	require.NoError(t, err)
	assert.Equal(t, dir, value)
}

func TestEscapeSingle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"it's", "it''s"},
		{"'';--", "'''';--"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeSingle(tt.in))
	}
}

func TestEnvInt64(t *testing.T) {
	t.Setenv("SCP_TEST_INT", "123")
	assert.Equal(t, int64(123), envInt64("SCP_TEST_INT", 7))
	assert.Equal(t, int64(7), envInt64("SCP_TEST_INT_MISSING", 7))

	t.Setenv("SCP_TEST_INT", "junk")
	assert.Equal(t, int64(7), envInt64("SCP_TEST_INT", 7))
}
