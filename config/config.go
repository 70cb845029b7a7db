// Package config holds application-level configuration loaded from the
// environment with sane defaults.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds all tunables for one process.
type Config struct {
	// Rendering strategy
	RenderTimeout time.Duration // navigation timeout (network-idle attempt)
	RenderWait    time.Duration // extra settle wait after a missed wait condition

	// Pacing
	RequestDelay     time.Duration // short fixed delay between consecutive URLs
	BatchDelay       time.Duration // pause before a follow-up batch
	MaxExecutionTime time.Duration // hard cap for one batch run

	// Bypass-proxy service
	BypassURL     string
	BypassSession string
	BypassTimeout time.Duration

	// Downstream delivery
	WebhookURL string

	// HTTP shell
	ListenAddr string

	UserAgent string // empty selects a random browser user agent
	Verbose   bool
}

// Load reads configuration from environment variables or falls back to
// defaults.
func Load() *Config {
	return &Config{
		RenderTimeout:    getEnvDuration("RENDER_TIMEOUT_MS", 45000),
		RenderWait:       getEnvDuration("RENDER_WAIT_MS", 3000),
		RequestDelay:     getEnvDuration("REQUEST_DELAY_MS", 750),
		BatchDelay:       getEnvDuration("BATCH_DELAY_MS", 2000),
		MaxExecutionTime: getEnvDuration("MAX_EXECUTION_TIME_MS", 20*60*1000),
		BypassURL:        getEnv("BYPASS_URL", "http://localhost:8191/v1"),
		BypassSession:    getEnv("BYPASS_SESSION", "epin-scraper"),
		BypassTimeout:    getEnvDuration("BYPASS_TIMEOUT_MS", 120000),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
		ListenAddr:       getEnv("LISTEN_ADDR", ":8080"),
		UserAgent:        getEnv("USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	}
}

// SetRequestDelay clamps the inter-URL delay to [100ms, 10s].
func (c *Config) SetRequestDelay(d time.Duration) {
	c.RequestDelay = clamp(d, 100*time.Millisecond, 10*time.Second)
}

// SetBatchDelay clamps the batch delay to [0, 60s].
func (c *Config) SetBatchDelay(d time.Duration) {
	c.BatchDelay = clamp(d, 0, time.Minute)
}

// SetMaxExecutionTime clamps the batch runtime cap to [1m, 2h].
func (c *Config) SetMaxExecutionTime(d time.Duration) {
	c.MaxExecutionTime = clamp(d, time.Minute, 2*time.Hour)
}

// Validate ensures the configuration values are coherent.
func (c *Config) Validate() error {
	if c.RenderTimeout <= 0 {
		return fmt.Errorf("render timeout must be positive")
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("request delay cannot be negative")
	}
	if c.MaxExecutionTime <= 0 {
		return fmt.Errorf("max execution time must be positive")
	}
	if c.BypassURL != "" {
		parsed, err := url.Parse(c.BypassURL)
		if err != nil || parsed.Host == "" {
			return fmt.Errorf("invalid bypass service URL %q", c.BypassURL)
		}
	}
	if c.WebhookURL != "" {
		parsed, err := url.Parse(c.WebhookURL)
		if err != nil || parsed.Host == "" {
			return fmt.Errorf("invalid webhook URL %q", c.WebhookURL)
		}
	}
	return nil
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvDuration(key string, defaultMs int) time.Duration {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return time.Duration(n) * time.Millisecond
		}
	}
	return time.Duration(defaultMs) * time.Millisecond
}
