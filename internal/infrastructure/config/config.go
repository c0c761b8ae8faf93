// Package config loads predictord settings from an optional YAML file and
// environment variables. Environment variables win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/heartcheck/heartcheck/internal/domain/valueobject"
	pkgkafka "github.com/heartcheck/heartcheck/pkg/kafka"
	pg "github.com/heartcheck/heartcheck/pkg/postgres"
	"github.com/heartcheck/heartcheck/pkg/tlsutil"
)

// Config holds all configuration for the prediction service.
type Config struct {
	GRPCPort    string `yaml:"grpc_port"`
	HTTPPort    string `yaml:"http_port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`

	ArtifactDir    string `yaml:"artifact_dir"`
	WatchArtifacts bool   `yaml:"watch_artifacts"`

	ModelKind         string `yaml:"model_kind"`
	CategoricalPolicy string `yaml:"categorical_policy"`
	MaxDatasetBytes   int64  `yaml:"max_dataset_bytes"`

	Postgres      pg.Config `yaml:"postgres"`
	MigrationsDir string    `yaml:"migrations_dir"`

	Kafka         pkgkafka.Config `yaml:"kafka"`
	TrainingTopic string          `yaml:"training_topic"`
	AlertsTopic   string          `yaml:"alerts_topic"`

	TLS tlsutil.Config `yaml:"tls"`

	// Retrain RPCs require an admin or operator token when either is set.
	JWTSecret        string `yaml:"jwt_secret"`
	JWTPublicKeyFile string `yaml:"jwt_public_key_file"`
	JWTIssuer        string `yaml:"jwt_issuer"`

	OTLPEndpoint     string  `yaml:"otlp_endpoint"`
	TraceSampleRatio float64 `yaml:"trace_sample_ratio"`
}

func defaults() Config {
	return Config{
		GRPCPort:          "8090",
		HTTPPort:          "9090",
		Environment:       "development",
		LogLevel:          "info",
		LogFormat:         "json",
		ArtifactDir:       "./artifacts",
		WatchArtifacts:    true,
		ModelKind:         valueobject.ModelKindLogistic.String(),
		CategoricalPolicy: valueobject.CategoricalPolicyReuse.String(),
		MaxDatasetBytes:   32 << 20,
		Postgres:          pg.Config{Port: 5432, SSLMode: "disable", MaxConns: 10},
		Kafka:             pkgkafka.Config{ConsumerGroup: "heartcheck-predictord"},
		TrainingTopic:     "heartcheck.training",
		AlertsTopic:       "heartcheck.alerts",
		JWTIssuer:         "heartcheck",
		TraceSampleRatio:  1,
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

	cfg.GRPCPort = getEnv("GRPC_PORT", cfg.GRPCPort)
	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	cfg.ArtifactDir = getEnv("ARTIFACT_DIR", cfg.ArtifactDir)
	cfg.WatchArtifacts = getEnvBool("WATCH_ARTIFACTS", cfg.WatchArtifacts)
	cfg.ModelKind = getEnv("MODEL_KIND", cfg.ModelKind)
	cfg.CategoricalPolicy = getEnv("CATEGORICAL_POLICY", cfg.CategoricalPolicy)
	cfg.MaxDatasetBytes = int64(getEnvInt("MAX_DATASET_BYTES", int(cfg.MaxDatasetBytes)))

	cfg.Postgres.Host = getEnv("DB_HOST", cfg.Postgres.Host)
	cfg.Postgres.Port = getEnvInt("DB_PORT", cfg.Postgres.Port)
	cfg.Postgres.User = getEnv("DB_USER", cfg.Postgres.User)
	cfg.Postgres.Password = getEnv("DB_PASSWORD", cfg.Postgres.Password)
	cfg.Postgres.Database = getEnv("DB_NAME", cfg.Postgres.Database)
	cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", cfg.Postgres.SSLMode)
	cfg.MigrationsDir = getEnv("MIGRATIONS_DIR", cfg.MigrationsDir)

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.Kafka.Brokers = splitList(brokers)
	}
	cfg.Kafka.ConsumerGroup = getEnv("KAFKA_CONSUMER_GROUP", cfg.Kafka.ConsumerGroup)
	cfg.TrainingTopic = getEnv("KAFKA_TRAINING_TOPIC", cfg.TrainingTopic)
	cfg.AlertsTopic = getEnv("KAFKA_ALERTS_TOPIC", cfg.AlertsTopic)

	cfg.TLS.CertFile = getEnv("TLS_CERT_FILE", cfg.TLS.CertFile)
	cfg.TLS.KeyFile = getEnv("TLS_KEY_FILE", cfg.TLS.KeyFile)
	cfg.TLS.CAFile = getEnv("TLS_CA_FILE", cfg.TLS.CAFile)

	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTPublicKeyFile = getEnv("JWT_PUBLIC_KEY_FILE", cfg.JWTPublicKeyFile)
	cfg.JWTIssuer = getEnv("JWT_ISSUER", cfg.JWTIssuer)

	cfg.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)
	cfg.TraceSampleRatio = getEnvFloat("OTEL_TRACE_SAMPLE_RATIO", cfg.TraceSampleRatio)

	return &cfg, cfg.Validate()
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.GRPCPort == "" || c.HTTPPort == "" {
		errs = append(errs, errors.New("grpc and http ports are required"))
	}
	if c.ArtifactDir == "" {
		errs = append(errs, errors.New("artifact_dir is required"))
	}
	if _, err := valueobject.ModelKindFromString(c.ModelKind); err != nil {
		errs = append(errs, err)
	}
	if _, err := valueobject.CategoricalPolicyFromString(c.CategoricalPolicy); err != nil {
		errs = append(errs, err)
	}
	if c.MaxDatasetBytes <= 0 {
		errs = append(errs, errors.New("max_dataset_bytes must be positive"))
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		errs = append(errs, fmt.Errorf("trace_sample_ratio %v is outside [0, 1]", c.TraceSampleRatio))
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		errs = append(errs, errors.New("tls cert_file and key_file must be set together"))
	}
	if c.Kafka.Enabled() && c.TrainingTopic == "" {
		errs = append(errs, errors.New("training_topic is required when kafka is enabled"))
	}
	return errors.Join(errs...)
}

// ModelKindValue returns the parsed model kind. Call after Validate.
func (c *Config) ModelKindValue() valueobject.ModelKind {
	k, _ := valueobject.ModelKindFromString(c.ModelKind)
	return k
}

// PolicyValue returns the parsed categorical policy. Call after Validate.
func (c *Config) PolicyValue() valueobject.CategoricalPolicy {
	p, _ := valueobject.CategoricalPolicyFromString(c.CategoricalPolicy)
	return p
}

// AuthEnabled reports whether retrain calls require a token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != "" || c.JWTPublicKeyFile != ""
}

// GRPCAddress returns the full gRPC listen address.
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf(":%s", c.GRPCPort)
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
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
