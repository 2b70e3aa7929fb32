// Package config holds the explicit configuration structs of the stream
// consumer, the REST client and the bulk fan-out. Environment variables are
// read only by the *FromEnv helpers, which commands call once at startup.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/boom-astro/babamul/internal/domain"
)

// Kafka servers.
const (
	DefaultServer = "kaboom.caltech.edu:9093"
	BackupServer  = "babamul.umn.edu:9093"
)

// REST base URLs by environment name.
const (
	ProductionAPIURL = "https://babamul.caltech.edu/api"
	LocalAPIURL      = "http://localhost:4000"
)

// Offsets a new consumer group may start from.
const (
	OffsetLatest   = "latest"
	OffsetEarliest = "earliest"
)

// SASL mechanisms supported by the broker.
const (
	MechanismScramSHA512 = "SCRAM-SHA-512"
	MechanismScramSHA256 = "SCRAM-SHA-256"
	MechanismPlain       = "PLAIN"
)

// Defaults.
const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultConcurrency    = 4
	DefaultBatchSize      = 100
	MinConcurrency        = 1
	MaxConcurrency        = 12
	MaxBatchSize          = 1000
	DefaultPostgresConns  = 4
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// StreamConfig configures the Kafka consumer.
type StreamConfig struct {
	Username  string        `validate:"required"`
	Password  string        `validate:"required"`
	Server    string        `validate:"required"` // comma-separated host:port list
	GroupID   string        // defaults to <username>-<uuid>
	Offset    string        `validate:"oneof=latest earliest"`
	Mechanism string        `validate:"oneof=SCRAM-SHA-512 SCRAM-SHA-256 PLAIN"`
	Timeout   time.Duration `validate:"gte=0"` // poll timeout, 0 waits forever
	Plaintext bool          // disables TLS, for local brokers
}

// NewStreamConfig returns a config for the default server with the given credentials.
func NewStreamConfig(username, password string) StreamConfig {
	return StreamConfig{
		Username: username,
		Password: password,
	}.WithDefaults()
}

// WithDefaults fills the unset fields. A missing group id becomes <username>-<uuid>.
func (c StreamConfig) WithDefaults() StreamConfig {
	if c.Server == "" {
		c.Server = DefaultServer
	}
	if c.Offset == "" {
		c.Offset = OffsetLatest
	}
	if c.Mechanism == "" {
		c.Mechanism = MechanismScramSHA512
	}
	if c.GroupID == "" && c.Username != "" {
		c.GroupID = c.Username + "-" + uuid.NewString()
	}
	return c
}

// Brokers splits Server into broker addresses.
func (c StreamConfig) Brokers() []string {
	var out []string
	for _, s := range strings.Split(c.Server, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the config. Errors wrap domain.ErrConfiguration.
func (c StreamConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return configError(err)
	}
	if err := validate.Var(c.Brokers(), "min=1,dive,hostname_port"); err != nil {
		return fmt.Errorf("%w: server %q must be a comma-separated host:port list", domain.ErrConfiguration, c.Server)
	}
	return nil
}

// APIConfig configures the REST client.
type APIConfig struct {
	BaseURL string        `validate:"required,url"`
	Token   string        ``
	Timeout time.Duration `validate:"gte=0"`
}

// NewAPIConfig returns a config for the production API.
func NewAPIConfig(token string) APIConfig {
	return APIConfig{
		BaseURL: ProductionAPIURL,
		Token:   token,
		Timeout: DefaultRequestTimeout,
	}
}

// Validate checks the config. Errors wrap domain.ErrConfiguration.
func (c APIConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return configError(err)
	}
	return nil
}

// BulkConfig bounds the bulk fan-out of the REST client.
type BulkConfig struct {
	Concurrency int `validate:"min=1,max=12"`   // in-flight requests
	BatchSize   int `validate:"min=1,max=1000"` // object ids per request
}

// DefaultBulkConfig returns the default fan-out bounds.
func DefaultBulkConfig() BulkConfig {
	return BulkConfig{
		Concurrency: DefaultConcurrency,
		BatchSize:   DefaultBatchSize,
	}
}

// Validate checks the config. Errors wrap domain.ErrConfiguration.
func (c BulkConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return configError(err)
	}
	return nil
}

// PostgresConfig configures the alert archive pool.
type PostgresConfig struct {
	DSN            string        `validate:"required"`
	MaxConns       int32         `validate:"gte=1"`
	ConnectTimeout time.Duration `validate:"gte=0"` // 0 leaves the driver default
}

// NewPostgresConfig returns a config for dsn with the default pool size.
func NewPostgresConfig(dsn string) PostgresConfig {
	return PostgresConfig{DSN: dsn}.WithDefaults()
}

// WithDefaults fills the unset fields.
func (c PostgresConfig) WithDefaults() PostgresConfig {
	if c.MaxConns == 0 {
		c.MaxConns = DefaultPostgresConns
	}
	return c
}

// Validate checks the config. URL DSNs must use the postgres or postgresql
// scheme; keyword/value DSNs are passed through. Errors wrap domain.ErrConfiguration.
func (c PostgresConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return configError(err)
	}
	if i := strings.Index(c.DSN, "://"); i >= 0 {
		if scheme := c.DSN[:i]; scheme != "postgres" && scheme != "postgresql" {
			return fmt.Errorf("%w: postgres dsn has scheme %q", domain.ErrConfiguration, scheme)
		}
	} else if !strings.Contains(c.DSN, "=") {
		return fmt.Errorf("%w: postgres dsn is neither a URL nor key=value pairs", domain.ErrConfiguration)
	}
	return nil
}

func configError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrConfiguration, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if env, ok := envNames[fe.Field()]; ok {
			return fmt.Sprintf("%s is required (set %s)", strings.ToLower(fe.Field()), env)
		}
		return strings.ToLower(fe.Field()) + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", strings.ToLower(fe.Field()), fe.Param(), fe.Value())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s, got %v", strings.ToLower(fe.Field()), fe.Param(), fe.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s, got %v", strings.ToLower(fe.Field()), fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("%s must be a URL, got %v", strings.ToLower(fe.Field()), fe.Value())
	}
	return fmt.Sprintf("%s failed %s validation", strings.ToLower(fe.Field()), fe.Tag())
}
