package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 45*time.Second, cfg.RenderTimeout)
	assert.Equal(t, 3*time.Second, cfg.RenderWait)
	assert.Equal(t, 750*time.Millisecond, cfg.RequestDelay)
	assert.Equal(t, 2*time.Second, cfg.BatchDelay)
	assert.Equal(t, 20*time.Minute, cfg.MaxExecutionTime)
	assert.Equal(t, "http://localhost:8191/v1", cfg.BypassURL)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.NotEmpty(t, cfg.UserAgent)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("RENDER_TIMEOUT_MS", "10000")
	t.Setenv("REQUEST_DELAY_MS", "250")
	t.Setenv("BYPASS_URL", "http://solver:9000/v1")
	t.Setenv("WEBHOOK_URL", "https://hooks.example/epin")

	cfg := Load()

	assert.Equal(t, 10*time.Second, cfg.RenderTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.RequestDelay)
	assert.Equal(t, "http://solver:9000/v1", cfg.BypassURL)
	assert.Equal(t, "https://hooks.example/epin", cfg.WebhookURL)
}

func TestLoadIgnoresGarbageNumbers(t *testing.T) {
	t.Setenv("RENDER_TIMEOUT_MS", "not-a-number")
	cfg := Load()
	assert.Equal(t, 45*time.Second, cfg.RenderTimeout)
}

func TestSetterClamps(t *testing.T) {
	cfg := Load()

	cfg.SetRequestDelay(time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, cfg.RequestDelay)
	cfg.SetRequestDelay(time.Hour)
	assert.Equal(t, 10*time.Second, cfg.RequestDelay)
	cfg.SetRequestDelay(500 * time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, cfg.RequestDelay)

	cfg.SetBatchDelay(-time.Second)
	assert.Equal(t, time.Duration(0), cfg.BatchDelay)
	cfg.SetBatchDelay(5 * time.Minute)
	assert.Equal(t, time.Minute, cfg.BatchDelay)

	cfg.SetMaxExecutionTime(time.Second)
	assert.Equal(t, time.Minute, cfg.MaxExecutionTime)
	cfg.SetMaxExecutionTime(5 * time.Hour)
	assert.Equal(t, 2*time.Hour, cfg.MaxExecutionTime)
}

func TestValidate(t *testing.T) {
	cfg := Load()
	require.NoError(t, cfg.Validate())

	cfg.RenderTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.BypassURL = "://bad"
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.WebhookURL = "not-a-url"
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.BypassURL = ""
	cfg.WebhookURL = ""
	assert.NoError(t, cfg.Validate())
}
