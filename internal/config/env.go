package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/boom-astro/babamul/internal/domain"
)

// Environment variables.
const (
	EnvKafkaUsername  = "BABAMUL_KAFKA_USERNAME"
	EnvKafkaPassword  = "BABAMUL_KAFKA_PASSWORD"
	EnvServer         = "BABAMUL_SERVER"
	EnvGroupID        = "BABAMUL_GROUP_ID"
	EnvOffset         = "BABAMUL_OFFSET"
	EnvPollTimeout    = "BABAMUL_POLL_TIMEOUT"
	EnvEnvironment    = "BABAMUL_ENV"
	EnvAPIURL         = "BABAMUL_API_URL"
	EnvAPIToken       = "BABAMUL_API_TOKEN"
	EnvToken          = "BABAMUL_TOKEN"
	EnvAPITimeout     = "BABAMUL_API_TIMEOUT"
	EnvBulkConcurrent = "BABAMUL_BULK_CONCURRENCY"
	EnvBulkBatchSize  = "BABAMUL_BULK_BATCH_SIZE"
	EnvPostgresDSN    = "BABAMUL_POSTGRES_DSN"
	EnvPostgresConns  = "BABAMUL_POSTGRES_MAX_CONNS"
)

var envNames = map[string]string{
	"Username": EnvKafkaUsername,
	"Password": EnvKafkaPassword,
	"BaseURL":  EnvAPIURL,
	"DSN":      EnvPostgresDSN,
}

// LoadDotenv loads variables from the given .env files (default ".env").
// Missing files are ignored; variables already set are kept.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: load %s: %v", domain.ErrConfiguration, p, err)
		}
	}
	return nil
}

// StreamFromEnv builds and validates a StreamConfig from the environment.
func StreamFromEnv() (StreamConfig, error) {
	cfg := StreamConfig{
		Username: getenv(EnvKafkaUsername),
		Password: getenv(EnvKafkaPassword),
		Server:   getenv(EnvServer),
		GroupID:  getenv(EnvGroupID),
		Offset:   strings.ToLower(getenv(EnvOffset)),
	}
	var err error
	if cfg.Timeout, err = durationEnv(EnvPollTimeout, 0); err != nil {
		return cfg, err
	}
	cfg = cfg.WithDefaults()
	return cfg, cfg.Validate()
}

// APIFromEnv builds and validates an APIConfig from the environment.
// BABAMUL_API_URL wins over BABAMUL_ENV; BABAMUL_API_TOKEN wins over BABAMUL_TOKEN.
func APIFromEnv() (APIConfig, error) {
	cfg := APIConfig{BaseURL: getenv(EnvAPIURL)}
	if cfg.BaseURL == "" {
		url, err := BaseURLFor(getenv(EnvEnvironment))
		if err != nil {
			return cfg, err
		}
		cfg.BaseURL = url
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	cfg.Token = getenv(EnvAPIToken)
	if cfg.Token == "" {
		cfg.Token = getenv(EnvToken)
	}

	var err error
	if cfg.Timeout, err = durationEnv(EnvAPITimeout, DefaultRequestTimeout); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// BulkFromEnv builds and validates a BulkConfig from the environment.
func BulkFromEnv() (BulkConfig, error) {
	cfg := DefaultBulkConfig()
	var err error
	if cfg.Concurrency, err = intEnv(EnvBulkConcurrent, cfg.Concurrency); err != nil {
		return cfg, err
	}
	if cfg.BatchSize, err = intEnv(EnvBulkBatchSize, cfg.BatchSize); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// PostgresFromEnv builds and validates a PostgresConfig from the environment.
func PostgresFromEnv() (PostgresConfig, error) {
	cfg := NewPostgresConfig(getenv(EnvPostgresDSN))
	conns, err := intEnv(EnvPostgresConns, int(cfg.MaxConns))
	if err != nil {
		return cfg, err
	}
	cfg.MaxConns = int32(conns)
	return cfg, cfg.Validate()
}

// BaseURLFor maps an environment name to the REST base URL. Empty means production.
func BaseURLFor(env string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "production", "prod":
		return ProductionAPIURL, nil
	case "local", "dev":
		return LocalAPIURL, nil
	}
	return "", fmt.Errorf("%w: unknown %s %q (want production or local)", domain.ErrConfiguration, EnvEnvironment, env)
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Bare numbers are seconds.
		secs, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return 0, fmt.Errorf("%w: invalid %s: %v", domain.ErrConfiguration, key, err)
		}
		d = time.Duration(secs * float64(time.Second))
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s: %v", domain.ErrConfiguration, key, err)
	}
	return n, nil
}
