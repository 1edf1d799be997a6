// Package consumer reads raw GSI payloads off the Kafka stream and feeds
// them into the ingest path.
//
// Commits are manual and per-partition monotonic: when a handler fails for
// a record, no later offset on that partition is committed, so the record
// is redelivered after restart instead of being skipped.
package consumer

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/okian/castassist/pkg/logger"
)

// Handler processes one raw record value. A returned error blocks offset
// commits on the record's partition for the rest of the poll batch.
type Handler func(ctx context.Context, value []byte) error

// Consumer is a single-topic Kafka consumer with manual commits.
type Consumer struct {
	client  *kgo.Client
	topic   string
	handler Handler
	log     logger.Logger
}

// New creates a Consumer subscribed to one topic.
func New(brokers []string, groupID, clientID, topic string, handler Handler) (*Consumer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ClientID(clientID),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
		kgo.BlockRebalanceOnPoll(),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Consumer{
		client:  client,
		topic:   topic,
		handler: handler,
		log:     logger.Get().Named("consumer"),
	}, nil
}

// Run polls for records until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			fetches := c.client.PollFetches(ctx)
			if errs := fetches.Errors(); len(errs) > 0 {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				for _, fetchErr := range errs {
					c.log.Error(ctx, "poll error",
						logger.String("topic", fetchErr.Topic),
						logger.Error(fetchErr.Err),
					)
				}
				continue
			}

			records := make([]*kgo.Record, 0)
			iter := fetches.RecordIter()
			for !iter.Done() {
				records = append(records, iter.Next())
			}

			commitRecords := c.processRecords(ctx, records)
			if len(commitRecords) > 0 {
				if err := c.client.CommitRecords(ctx, commitRecords...); err != nil {
					c.log.Error(ctx, "failed to commit records", logger.Error(err))
				}
			}
		}
	}
}

// processRecords runs the handler over a poll batch and returns, per
// partition, the last record whose offset is safe to commit.
func (c *Consumer) processRecords(ctx context.Context, records []*kgo.Record) []*kgo.Record {
	blocked := make(map[int32]bool)
	lastSuccess := make(map[int32]*kgo.Record)

	for _, record := range records {
		if blocked[record.Partition] {
			// A prior record on this partition failed. Later offsets must
			// not be committed or the failed record would be skipped on
			// restart.
			continue
		}

		if err := c.handler(ctx, record.Value); err != nil {
			c.log.Error(ctx, "handler failed, partition blocked until restart",
				logger.Int("partition", int(record.Partition)),
				logger.Int64("offset", record.Offset),
				logger.Error(err),
			)
			blocked[record.Partition] = true
			continue
		}

		lastSuccess[record.Partition] = record
	}

	if len(lastSuccess) == 0 {
		return nil
	}

	commitRecords := make([]*kgo.Record, 0, len(lastSuccess))
	for _, record := range lastSuccess {
		commitRecords = append(commitRecords, record)
	}
	return commitRecords
}

// HealthCheck pings the broker.
func (c *Consumer) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx); err != nil {
		return fmt.Errorf("kafka ping: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (c *Consumer) Close() {
	c.client.Close()
}
