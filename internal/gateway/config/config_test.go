package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "localhost:8090", cfg.PredictorAddr)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.AuthEnabled())
	assert.Equal(t, ":8080", cfg.HTTPAddress())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_port: 9000
predictor_addr: predictor:8090
request_timeout: 3s
cors_origins: [https://clinic.example]
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("RETRY_INITIAL", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.HTTPPort)
	assert.Equal(t, "predictor:8090", cfg.PredictorAddr)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryInitial)
	assert.Equal(t, []string{"https://clinic.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.AuthEnabled())
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	cfg.PredictorAddr = ""
	cfg.RetryMaxTries = 0
	cfg.RateLimit = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "predictor_addr")
	assert.Contains(t, err.Error(), "retry_max_tries")
	assert.Contains(t, err.Error(), "rate_limit")
}
