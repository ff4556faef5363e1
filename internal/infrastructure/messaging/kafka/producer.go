// Package kafka publishes plexnet events with segmentio/kafka-go.
package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/plexnet/pkg/errors"
)

var ErrProducerClosed = errors.Default(errors.ErrCodeCatalogClosed).WithDetail("kafka producer is closed")

// ProducerConfig holds configuration for the Producer.
type ProducerConfig struct {
	Brokers         []string
	Topic           string
	Acks            string
	MaxRetries      int
	BatchSize       int
	BatchTimeout    time.Duration
	MaxMessageBytes int
	WriteTimeout    time.Duration
}

// Message is one record to publish on the producer's topic.
type Message struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// BatchItemError reports one failed message of a batch.  Index is -1 when
// the whole batch failed at once.
type BatchItemError struct {
	Index int
	Error error
}

// BatchResult summarizes a PublishBatch call.
type BatchResult struct {
	Succeeded int
	Failed    int
	Errors    []BatchItemError
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer manages message production.
type Producer struct {
	writer WriterInterface
	config ProducerConfig
	logger logging.Logger
	closed atomic.Bool
	sent   atomic.Int64
	failed atomic.Int64
}

func applyDefaults(cfg *ProducerConfig) {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.MaxMessageBytes == 0 {
		cfg.MaxMessageBytes = 1024 * 1024
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
}

// NewProducer creates a Producer writing to cfg.Topic.
func NewProducer(cfg ProducerConfig, logger logging.Logger) (*Producer, error) {
	if err := ValidateProducerConfig(cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	var requiredAcks kafka.RequiredAcks
	switch cfg.Acks {
	case "none":
		requiredAcks = kafka.RequireNone
	case "all":
		requiredAcks = kafka.RequireAll
	default:
		requiredAcks = kafka.RequireOne
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxRetries + 1,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: requiredAcks,
	}
	return NewProducerWithWriter(writer, cfg, logger), nil
}

// NewProducerWithWriter builds a Producer on an existing writer.
func NewProducerWithWriter(writer WriterInterface, cfg ProducerConfig, logger logging.Logger) *Producer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	applyDefaults(&cfg)
	return &Producer{writer: writer, config: cfg, logger: logger.Named("kafka")}
}

// Topic returns the topic messages are published on.
func (p *Producer) Topic() string { return p.config.Topic }

// Sent returns the number of messages written successfully.
func (p *Producer) Sent() int64 { return p.sent.Load() }

// Failed returns the number of messages that could not be written.
func (p *Producer) Failed() int64 { return p.failed.Load() }

func (p *Producer) check(msg Message) error {
	if len(msg.Value) == 0 {
		return errors.New(errors.ErrCodeValidation, "message value required")
	}
	if len(msg.Value) > p.config.MaxMessageBytes {
		return errors.New(errors.ErrCodeValidation, "message too large").
			WithDetailf("%d bytes, limit %d", len(msg.Value), p.config.MaxMessageBytes)
	}
	return nil
}

// Publish publishes a single message.
func (p *Producer) Publish(ctx context.Context, msg Message) error {
	res, err := p.PublishBatch(ctx, []Message{msg})
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		return errors.Wrap(res.Errors[0].Error, errors.ErrCodeCatalogWrite, "publish failed")
	}
	return nil
}

// PublishBatch writes msgs in one call.  Per-message failures are reported
// in the result; err is reserved for a closed producer or invalid input.
func (p *Producer) PublishBatch(ctx context.Context, msgs []Message) (*BatchResult, error) {
	if p.closed.Load() {
		return nil, ErrProducerClosed
	}
	if len(msgs) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "messages empty")
	}

	kMsgs := make([]kafka.Message, len(msgs))
	for i, msg := range msgs {
		if err := p.check(msg); err != nil {
			return nil, err
		}
		kMsgs[i] = toKafkaMessage(msg)
	}

	result := &BatchResult{}
	err := p.writer.WriteMessages(ctx, kMsgs...)
	switch writeErrs, ok := err.(kafka.WriteErrors); {
	case err == nil:
		result.Succeeded = len(msgs)
	case ok:
		for i, we := range writeErrs {
			if we != nil {
				result.Failed++
				result.Errors = append(result.Errors, BatchItemError{Index: i, Error: we})
			} else {
				result.Succeeded++
			}
		}
	default:
		result.Failed = len(msgs)
		result.Errors = append(result.Errors, BatchItemError{Index: -1, Error: err})
	}

	p.sent.Add(int64(result.Succeeded))
	p.failed.Add(int64(result.Failed))
	p.logger.Debug("Batch published",
		logging.String("topic", p.config.Topic),
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed))
	return result, nil
}

// Close closes the producer.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}

func toKafkaMessage(msg Message) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return kafka.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
		Time:    ts,
	}
}

func ValidateProducerConfig(cfg ProducerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "brokers required")
	}
	if cfg.Topic == "" {
		return errors.New(errors.ErrCodeValidation, "topic required")
	}
	if cfg.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "max retries must be >= 0")
	}
	return nil
}
