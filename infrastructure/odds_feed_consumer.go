package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookmaker/domain/entities"
	"bookmaker/domain/interfaces"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// FeedUpsertHandler applies a decoded feed record
type FeedUpsertHandler interface {
	HandleFeedUpsert(ctx context.Context, upsert interfaces.FeedEventUpsert) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OddsFeedConsumer reads normalized odds records from Kafka and upserts them.
// Offsets are committed after handling, so a crash replays the last batch.
type OddsFeedConsumer struct {
	reader   messageReader
	handler  FeedUpsertHandler
	validate *validator.Validate

	// OnError is called with the failing stage: read, decode, handle or commit
	OnError func(stage string)
}

// NewKafkaReader builds a consumer-group reader with manual commits
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
}

// NewOddsFeedConsumer creates a consumer over reader
func NewOddsFeedConsumer(reader messageReader, handler FeedUpsertHandler) *OddsFeedConsumer {
	return &OddsFeedConsumer{
		reader:   reader,
		handler:  handler,
		validate: validator.New(),
	}
}

// Run consumes until ctx is canceled
func (c *OddsFeedConsumer) Run(ctx context.Context) error {
	log.Info("Odds feed consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.WithError(err).Warn("Kafka fetch failed")
			c.fail("read")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}

		c.process(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.WithError(err).Warn("Failed to commit odds feed offset")
			c.fail("commit")
		}
	}
}

// process handles a single message. Failures are logged and the message is
// still committed so one bad record cannot stall the partition.
func (c *OddsFeedConsumer) process(ctx context.Context, msg kafka.Message) {
	fields := log.Fields{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	}

	upsert, err := c.decode(msg.Value)
	if err != nil {
		log.WithFields(fields).WithError(err).Warn("Skipping malformed odds feed message")
		c.fail("decode")
		return
	}

	if err := c.handler.HandleFeedUpsert(ctx, upsert); err != nil {
		log.WithFields(fields).WithField("externalId", upsert.ExternalID).WithError(err).Error("Failed to apply odds feed upsert")
		c.fail("handle")
		return
	}
}

func (c *OddsFeedConsumer) decode(data []byte) (interfaces.FeedEventUpsert, error) {
	var upsert interfaces.FeedEventUpsert
	if err := json.Unmarshal(data, &upsert); err != nil {
		return upsert, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := c.validate.Struct(upsert); err != nil {
		return upsert, fmt.Errorf("invalid feed record: %w", err)
	}
	for _, opt := range upsert.Options {
		if !entities.RoundMoney(opt.Odd).GreaterThan(entities.OneOdd) {
			return upsert, fmt.Errorf("invalid feed record: odd %s for %q must be greater than 1.00", opt.Odd, opt.Name)
		}
	}
	return upsert, nil
}

func (c *OddsFeedConsumer) fail(stage string) {
	if c.OnError != nil {
		c.OnError(stage)
	}
}

// Close closes the underlying reader
func (c *OddsFeedConsumer) Close() error {
	return c.reader.Close()
}
