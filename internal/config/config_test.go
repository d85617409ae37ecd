package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	require.NoError(t, Load(t.TempDir()))

	assert.Equal(t, 8080, GetInt("server.port"))
	assert.Equal(t, "data/hexfront.db", GetString("db.path"))
	assert.Equal(t, 24, GetInt("map.width"))
	assert.Equal(t, 18, GetInt("map.height"))
	assert.Equal(t, int64(0), GetInt64("map.seed"))
	assert.Equal(t, 60, GetInt("idempotency.ttlMinutes"))
	assert.Equal(t, "info", GetString("logLevel"))
}
