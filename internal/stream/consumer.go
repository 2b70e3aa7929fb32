// Package stream consumes Babamul alert topics from Kafka.
//
// Messages are decoded from Avro, validated, and turned into unified alerts
// whose survey is inferred from the topic they were read from.
package stream

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/boom-astro/babamul/internal/alert"
	"github.com/boom-astro/babamul/internal/config"
	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/observability"
)

// Reader settings.
const (
	DialTimeout    = 10 * time.Second
	MaxPollWait    = 500 * time.Millisecond
	CommitInterval = time.Second
	MaxMessageSize = 10e6
)

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads alerts from one or more topics. It is not safe for concurrent use.
type Consumer struct {
	reader  MessageReader
	decoder Decoder
	topics  []string
	groupID string
	timeout time.Duration
	fetcher alert.Fetcher
	logger  zerolog.Logger
}

// Option configures Consumer.
type Option func(*Consumer)

// WithReader replaces the Kafka reader.
func WithReader(r MessageReader) Option {
	return func(c *Consumer) {
		c.reader = r
	}
}

// WithDecoder replaces the default OCF decoder.
func WithDecoder(d Decoder) Option {
	return func(c *Consumer) {
		c.decoder = d
	}
}

// WithFetcher binds consumed alerts to f for lazy photometry, cutouts and cross-matches.
func WithFetcher(f alert.Fetcher) Option {
	return func(c *Consumer) {
		c.fetcher = f
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Consumer) {
		c.logger = l
	}
}

// NewConsumer validates cfg and subscribes to topics.
func NewConsumer(cfg config.StreamConfig, topics []string, opts ...Option) (*Consumer, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("%w: at least one topic is required", domain.ErrConfiguration)
	}
	for _, t := range topics {
		if _, err := ParseTopic(t); err != nil {
			return nil, err
		}
	}

	c := &Consumer{
		decoder: NewOCFDecoder(),
		topics:  topics,
		groupID: cfg.GroupID,
		timeout: cfg.Timeout,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.reader == nil {
		readerCfg, err := NewReaderConfig(cfg, topics)
		if err != nil {
			return nil, err
		}
		c.reader = kafka.NewReader(readerCfg)
	}

	c.logger.Info().
		Strs("brokers", cfg.Brokers()).
		Strs("topics", topics).
		Str("group_id", cfg.GroupID).
		Str("offset", cfg.Offset).
		Dur("timeout", cfg.Timeout).
		Msg("kafka consumer started")
	return c, nil
}

// NewReaderConfig builds the kafka-go reader configuration for cfg.
func NewReaderConfig(cfg config.StreamConfig, topics []string) (kafka.ReaderConfig, error) {
	mech, err := saslMechanism(cfg)
	if err != nil {
		return kafka.ReaderConfig{}, err
	}
	dialer := &kafka.Dialer{
		Timeout:       DialTimeout,
		DualStack:     true,
		SASLMechanism: mech,
	}
	if !cfg.Plaintext {
		dialer.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	start := kafka.LastOffset
	if cfg.Offset == config.OffsetEarliest {
		start = kafka.FirstOffset
	}

	return kafka.ReaderConfig{
		Brokers:        cfg.Brokers(),
		GroupID:        cfg.GroupID,
		GroupTopics:    topics,
		Dialer:         dialer,
		MinBytes:       1,
		MaxBytes:       MaxMessageSize,
		MaxWait:        MaxPollWait,
		CommitInterval: CommitInterval,
		StartOffset:    start,
	}, nil
}

func saslMechanism(cfg config.StreamConfig) (sasl.Mechanism, error) {
	switch cfg.Mechanism {
	case config.MechanismPlain:
		return plain.Mechanism{Username: cfg.Username, Password: cfg.Password}, nil
	case config.MechanismScramSHA256:
		return scramMechanism(scram.SHA256, cfg)
	default:
		return scramMechanism(scram.SHA512, cfg)
	}
}

func scramMechanism(algo scram.Algorithm, cfg config.StreamConfig) (sasl.Mechanism, error) {
	m, err := scram.Mechanism(algo, cfg.Username, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: sasl: %v", domain.ErrConfiguration, err)
	}
	return m, nil
}

// Topics returns the subscribed topics.
func (c *Consumer) Topics() []string {
	return c.topics
}

// GroupID returns the consumer group id.
func (c *Consumer) GroupID() string {
	return c.groupID
}

// Poll returns the next alert. With a timeout configured, it returns
// domain.ErrNoMessage when none arrives in time. A message that fails to
// decode is committed and reported as a *domain.DeserializationError so the
// caller can skip it.
func (c *Consumer) Poll(ctx context.Context) (alert.Alert, error) {
	fetchCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	msg, err := c.reader.FetchMessage(fetchCtx)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			observability.RecordPollTimeout()
			return nil, domain.ErrNoMessage
		}
		return nil, fmt.Errorf("%w: fetch message: %v", domain.ErrConnection, err)
	}

	a, decodeErr := c.decode(msg)
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Warn().Err(err).Str("topic", msg.Topic).Int64("offset", msg.Offset).Msg("commit failed")
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return a, nil
}

func (c *Consumer) decode(msg kafka.Message) (alert.Alert, error) {
	survey, err := SurveyFromTopic(msg.Topic)
	if err != nil {
		return nil, c.decodeFailure(msg, "topic", &domain.DeserializationError{Reason: err.Error()})
	}

	rec, err := c.decoder.Decode(msg.Value)
	if err != nil {
		return nil, c.decodeFailure(msg, "avro", err)
	}

	opts := []alert.Option{alert.WithTopic(msg.Topic)}
	if c.fetcher != nil {
		opts = append(opts, alert.WithFetcher(c.fetcher))
	}
	a, err := alert.Decode(survey, rec, opts...)
	if err != nil {
		return nil, c.decodeFailure(msg, "schema", err)
	}

	observability.RecordAlertConsumed(survey.String())
	return a, nil
}

func (c *Consumer) decodeFailure(msg kafka.Message, stage string, err error) error {
	observability.RecordDecodeError(msg.Topic, stage)
	c.logger.Warn().
		Str("topic", msg.Topic).
		Int("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Str("stage", stage).
		Err(err).
		Msg("failed to decode alert")
	return fmt.Errorf("%s[%d]@%d: %w", msg.Topic, msg.Partition, msg.Offset, err)
}

// Alerts iterates over consumed alerts until ctx is done, the poll timeout
// elapses, or the reader fails. Decode failures are yielded and iteration
// continues; other errors are yielded once and end it.
func (c *Consumer) Alerts(ctx context.Context) iter.Seq2[alert.Alert, error] {
	return func(yield func(alert.Alert, error) bool) {
		for {
			a, err := c.Poll(ctx)
			switch {
			case err == nil:
				if !yield(a, nil) {
					return
				}
			case errors.Is(err, domain.ErrNoMessage), ctx.Err() != nil:
				return
			case errors.Is(err, domain.ErrDeserialization):
				if !yield(nil, err) {
					return
				}
			default:
				yield(nil, err)
				return
			}
		}
	}
}

// Handler processes one alert.
type Handler func(ctx context.Context, a alert.Alert) error

// Run feeds alerts to h until ctx is done or the poll timeout elapses.
// Decode failures are logged and skipped. A handler error stops Run and is returned.
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	for a, err := range c.Alerts(ctx) {
		if err != nil {
			if errors.Is(err, domain.ErrDeserialization) {
				continue
			}
			return err
		}
		if err := h(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the reader.
func (c *Consumer) Close() error {
	c.logger.Info().Strs("topics", c.topics).Msg("closing kafka consumer")
	if err := c.reader.Close(); err != nil {
		c.logger.Error().Err(err).Msg("error closing kafka consumer")
		return err
	}
	return nil
}
