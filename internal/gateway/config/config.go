// Package config loads gatewayd settings from an optional YAML file and
// environment variables. Environment variables win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/heartcheck/heartcheck/pkg/tlsutil"
)

// Config holds all configuration for the API gateway.
type Config struct {
	HTTPPort  int    `yaml:"http_port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	PredictorAddr string         `yaml:"predictor_addr"`
	PredictorTLS  tlsutil.Config `yaml:"predictor_tls"`

	// RequestTimeout bounds one upstream call including retries. Retrains
	// get RetrainTimeout instead.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RetrainTimeout time.Duration `yaml:"retrain_timeout"`
	RetryMaxTries  int           `yaml:"retry_max_tries"`
	RetryInitial   time.Duration `yaml:"retry_initial"`

	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	RateLimit   int      `yaml:"rate_limit"` // requests per second per client
	CORSOrigins []string `yaml:"cors_origins"`

	// Retrain routes require an admin or operator token when either is set.
	JWTSecret        string `yaml:"jwt_secret"`
	JWTPublicKeyFile string `yaml:"jwt_public_key_file"`
	JWTIssuer        string `yaml:"jwt_issuer"`
}

func defaults() Config {
	return Config{
		HTTPPort:       8080,
		LogLevel:       "info",
		LogFormat:      "json",
		PredictorAddr:  "localhost:8090",
		RequestTimeout: 10 * time.Second,
		RetrainTimeout: 5 * time.Minute,
		RetryMaxTries:  4,
		RetryInitial:   100 * time.Millisecond,
		MaxUploadBytes: 32 << 20,
		RateLimit:      100,
		CORSOrigins:    []string{"*"},
		JWTIssuer:      "heartcheck",
	}
}

// Load reads CONFIG_FILE (when set) over the defaults, then applies
// environment overrides.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.HTTPPort = getEnvInt("HTTP_PORT", cfg.HTTPPort)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	cfg.PredictorAddr = getEnv("PREDICTOR_ADDR", cfg.PredictorAddr)
	cfg.PredictorTLS.Enabled = getEnvBool("PREDICTOR_TLS", cfg.PredictorTLS.Enabled)
	cfg.PredictorTLS.CAFile = getEnv("PREDICTOR_TLS_CA_FILE", cfg.PredictorTLS.CAFile)

	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RetrainTimeout = getEnvDuration("RETRAIN_TIMEOUT", cfg.RetrainTimeout)
	cfg.RetryMaxTries = getEnvInt("RETRY_MAX_TRIES", cfg.RetryMaxTries)
	cfg.RetryInitial = getEnvDuration("RETRY_INITIAL", cfg.RetryInitial)
	cfg.MaxUploadBytes = int64(getEnvInt("MAX_UPLOAD_BYTES", int(cfg.MaxUploadBytes)))

	cfg.RateLimit = getEnvInt("RATE_LIMIT", cfg.RateLimit)
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTPublicKeyFile = getEnv("JWT_PUBLIC_KEY_FILE", cfg.JWTPublicKeyFile)
	cfg.JWTIssuer = getEnv("JWT_ISSUER", cfg.JWTIssuer)

	return &cfg, cfg.Validate()
}

// Validate rejects settings the gateway cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort <= 0 {
		errs = append(errs, fmt.Errorf("http_port %d is invalid", c.HTTPPort))
	}
	if c.PredictorAddr == "" {
		errs = append(errs, errors.New("predictor_addr is required"))
	}
	if c.RequestTimeout <= 0 || c.RetrainTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if c.RetryMaxTries < 1 {
		errs = append(errs, errors.New("retry_max_tries must be at least 1"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("max_upload_bytes must be positive"))
	}
	if c.RateLimit <= 0 {
		errs = append(errs, errors.New("rate_limit must be positive"))
	}
	return errors.Join(errs...)
}

// AuthEnabled reports whether retrain routes require a token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != "" || c.JWTPublicKeyFile != ""
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
