package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendFile     = "file"
	BackendS3       = "s3"
	BackendPostgres = "postgres"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	PredictPort string `mapstructure:"PREDICT_PORT"`
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	StoreBackend       string `mapstructure:"STORE_BACKEND"`
	StorePath          string `mapstructure:"STORE_PATH"`
	StoreS3Bucket      string `mapstructure:"STORE_S3_BUCKET"`
	StoreS3Key         string `mapstructure:"STORE_S3_KEY"`
	StoreDocument      string `mapstructure:"STORE_DOCUMENT"`
	StoreEncryptionKey string `mapstructure:"STORE_ENCRYPTION_KEY"`
	DatabaseURL        string `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32  `mapstructure:"DB_MIN_CONNS"`

	ModelPath        string `mapstructure:"MODEL_PATH"`
	PredictionLogDSN string `mapstructure:"PREDICTION_LOG_DSN"`

	EventSink    string   `mapstructure:"EVENT_SINK"`
	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string   `mapstructure:"KAFKA_TOPIC"`
	SQSQueueName string   `mapstructure:"SQS_QUEUE_NAME"`

	AuthSigningKey string `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer     string `mapstructure:"AUTH_ISSUER"`

	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit      string        `mapstructure:"BODY_LIMIT"`
	TLSEnabled     bool          `mapstructure:"TLS_ENABLED"`
	TLSCertFile    string        `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile     string        `mapstructure:"TLS_KEY_FILE"`
}

var defaults = map[string]interface{}{
	"PORT":             "8000",
	"PREDICT_PORT":     "8001",
	"ENV":              "development",
	"LOG_LEVEL":        "info",
	"STORE_BACKEND":    BackendFile,
	"STORE_PATH":       "patients.json",
	"STORE_S3_KEY":     "patients.json",
	"STORE_DOCUMENT":   "default",
	"DB_MAX_CONNS":     10,
	"DB_MIN_CONNS":     1,
	"MODEL_PATH":       "models/premium_model.yaml",
	"EVENT_SINK":       "none",
	"KAFKA_TOPIC":      "pdms-events",
	"AUTH_ISSUER":      "pdms",
	"CORS_ORIGINS":     "*",
	"RATE_LIMIT_RPS":   20,
	"RATE_LIMIT_BURST": 40,
	"REQUEST_TIMEOUT":  "30s",
	"BODY_LIMIT":       "1M",
}

var keys = []string{
	"PORT", "PREDICT_PORT", "ENV", "LOG_LEVEL",
	"STORE_BACKEND", "STORE_PATH", "STORE_S3_BUCKET", "STORE_S3_KEY", "STORE_DOCUMENT", "STORE_ENCRYPTION_KEY",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"MODEL_PATH", "PREDICTION_LOG_DSN",
	"EVENT_SINK", "KAFKA_BROKERS", "KAFKA_TOPIC", "SQS_QUEUE_NAME",
	"AUTH_SIGNING_KEY", "AUTH_ISSUER",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT", "BODY_LIMIT",
	"TLS_ENABLED", "TLS_CERT_FILE", "TLS_KEY_FILE",
}

// Load reads .env (if present) and the environment. The environment wins.
func Load() (*Config, error) {
	return LoadFile(".env")
}

func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	// Bind explicitly so Unmarshal sees keys that only exist in the environment.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// A missing .env is fine; an unreadable or malformed one is not.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.KafkaBrokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.EventSink = strings.ToLower(strings.TrimSpace(cfg.EventSink))

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AuthEnabled reports whether write endpoints require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.AuthSigningKey != ""
}

// Validate checks the settings needed by the record service.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendFile:
		if c.StorePath == "" {
			return fmt.Errorf("STORE_PATH is required for the file backend")
		}
	case BackendS3:
		if c.StoreS3Bucket == "" || c.StoreS3Key == "" {
			return fmt.Errorf("STORE_S3_BUCKET and STORE_S3_KEY are required for the s3 backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
		if c.StoreDocument == "" {
			return fmt.Errorf("STORE_DOCUMENT is required for the postgres backend")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q, %q or %q, got %q", BackendFile, BackendS3, BackendPostgres, c.StoreBackend)
	}

	if c.StoreEncryptionKey != "" {
		key, err := hex.DecodeString(c.StoreEncryptionKey)
		if err != nil {
			return fmt.Errorf("STORE_ENCRYPTION_KEY is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return fmt.Errorf("STORE_ENCRYPTION_KEY must be 32 bytes (64 hex chars), got %d bytes", len(key))
		}
	}

	if c.IsProduction() && !c.AuthEnabled() {
		return fmt.Errorf("AUTH_SIGNING_KEY is required in production")
	}
	if c.AuthEnabled() && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 characters")
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must not be negative")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if err := c.validateEvents(); err != nil {
		return err
	}
	return c.validateTLS()
}

// ValidatePredict checks the settings needed by the scoring service.
func (c *Config) ValidatePredict() error {
	if c.ModelPath == "" {
		return fmt.Errorf("MODEL_PATH is required")
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	return c.validateTLS()
}

func (c *Config) validateEvents() error {
	switch c.EventSink {
	case "", "none", "log":
	case "kafka":
		if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
			return fmt.Errorf("KAFKA_BROKERS and KAFKA_TOPIC are required when EVENT_SINK is kafka")
		}
	case "sqs":
		if c.SQSQueueName == "" {
			return fmt.Errorf("SQS_QUEUE_NAME is required when EVENT_SINK is sqs")
		}
	default:
		return fmt.Errorf("EVENT_SINK must be none, log, kafka or sqs, got %q", c.EventSink)
	}
	return nil
}

func (c *Config) validateTLS() error {
	if !c.TLSEnabled {
		return nil
	}
	if c.TLSCertFile == "" {
		return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
	}
	if c.TLSKeyFile == "" {
		return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
	}
	return nil
}
