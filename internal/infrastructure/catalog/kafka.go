package catalog

import (
	"context"

	"github.com/turtacn/plexnet/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/plexnet/pkg/errors"
)

// Publisher is the subset of the kafka producer the catalog uses.
type Publisher interface {
	PublishBatch(ctx context.Context, msgs []kafka.Message) (*kafka.BatchResult, error)
	Close() error
}

// KafkaCatalog publishes one species.created event per record, keyed by
// canonical name so every event of a species lands on the same partition.
type KafkaCatalog struct {
	pub       Publisher
	batchSize int
	logger    logging.Logger
}

// NewKafkaCatalog creates a catalog publishing through pub in batches of at
// most batchSize messages.
func NewKafkaCatalog(pub Publisher, batchSize int, logger logging.Logger) *KafkaCatalog {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &KafkaCatalog{pub: pub, batchSize: batchSize, logger: logger.Named("catalog.kafka")}
}

func (c *KafkaCatalog) Name() string { return SinkKafka }

func (c *KafkaCatalog) Export(ctx context.Context, records []Record) error {
	msgs := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		env, err := kafka.NewEventEnvelope(kafka.EventSpeciesCreated, r.ModelID, r)
		if err != nil {
			return err
		}
		msg, err := env.ToMessage(r.Name)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	for start := 0; start < len(msgs); start += c.batchSize {
		end := start + c.batchSize
		if end > len(msgs) {
			end = len(msgs)
		}
		res, err := c.pub.PublishBatch(ctx, msgs[start:end])
		if err != nil {
			return err
		}
		if res.Failed > 0 {
			first := res.Errors[0]
			c.logger.Warn("species events not delivered",
				logging.Int("failed", res.Failed),
				logging.Int("succeeded", res.Succeeded),
				logging.Err(first.Error))
			return errors.Wrap(first.Error, errors.ErrCodeCatalogWrite, "kafka export failed").
				WithDetailf("%d of %d events failed", res.Failed, end-start)
		}
	}
	c.logger.Debug("species events published", logging.Int("records", len(records)))
	return nil
}

func (c *KafkaCatalog) Close() error { return c.pub.Close() }
