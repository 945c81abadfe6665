package config

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/pension-engine/generic"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "pension.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Metrics)
	assert.Empty(t, cfg.CORSOrigins)

	owner, err := cfg.OwnerID()
	require.NoError(t, err)
	assert.Nil(t, owner)
}

func TestLoad_FromEnv(t *testing.T) {
	id := generic.DeriveAccountID("owner")
	t.Setenv("PENSION_ADDR", ":9090")
	t.Setenv("PENSION_DB", ":memory:")
	t.Setenv("PENSION_OWNER", id.String())
	t.Setenv("PENSION_LOG_FORMAT", "json")
	t.Setenv("PENSION_CORS_ORIGINS", "http://a.example,http://b.example")
	t.Setenv("PENSION_METRICS", "false")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOrigins)
	assert.False(t, cfg.Metrics)

	owner, err := cfg.OwnerID()
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, id, *owner)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value, want string
	}{
		{"owner", "PENSION_OWNER", "0xnothex", "owner"},
		{"level", "PENSION_LOG_LEVEL", "loud", "log level"},
		{"format", "PENSION_LOG_FORMAT", "xml", "log format"},
		{"bool", "PENSION_METRICS", "maybe", "parse env:"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	cfg := Server{LogLevel: "debug", LogFormat: "json"}
	var buf bytes.Buffer

	logger, err := cfg.NewLogger(&buf)
	require.NoError(t, err)
	logger.Debug("hello", "k", "v")

	assert.True(t, strings.HasPrefix(buf.String(), "{"))
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}
