package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// DefaultFeedURL is the public NeoWs feed endpoint.
const DefaultFeedURL = "https://api.nasa.gov/neo/rest/v1/feed"

// ErrMissingAPIKey is returned when a command that calls NeoWs runs without a key.
var ErrMissingAPIKey = errors.New("NASA_API_KEY is required")

// Config holds all settings, populated from environment variables.
type Config struct {
	NASAAPIKey      string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// NeoWs endpoint, set by LoadFeed.
	FeedURL     string
	HTTPTimeout time.Duration

	// Optional Kafka sink; disabled when no brokers are set.
	KafkaBrokers []string
	KafkaTopic   string

	// Optional Prometheus Pushgateway; disabled when empty.
	PushgatewayURL string
}

// LoadDotEnv reads a .env file into the environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		NASAAPIKey:      os.Getenv("NASA_API_KEY"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "neo-close-approaches"),
		PushgatewayURL:  os.Getenv("PUSHGATEWAY_URL"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// LoadFeed reads the NeoWs settings that only the fetch step uses: the key,
// the endpoint and the request timeout. Load leaves them unchecked so the
// risk step never fails on them.
func (c *Config) LoadFeed() error {
	if err := c.RequireAPIKey(); err != nil {
		return err
	}

	feedURL := sharedcfg.EnvOrDefault("NEO_FEED_URL", DefaultFeedURL)
	if u, err := url.Parse(feedURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid NEO_FEED_URL %q", feedURL)
	}
	httpTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("NEO_HTTP_TIMEOUT", "30s"))
	if err != nil || httpTimeout <= 0 {
		return errors.New("invalid NEO_HTTP_TIMEOUT")
	}

	c.FeedURL = feedURL
	c.HTTPTimeout = httpTimeout
	return nil
}

// RequireAPIKey reports ErrMissingAPIKey when no NeoWs key is configured.
func (c *Config) RequireAPIKey() error {
	if c.NASAAPIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// KafkaEnabled reports whether records should also be published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// PushEnabled reports whether run metrics should be pushed at the end of a step.
func (c *Config) PushEnabled() bool {
	return c.PushgatewayURL != ""
}
