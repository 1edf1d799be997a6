package testevents

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/castassist/pkg/logger"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	producerLinger       = 10 * time.Millisecond
	producerBatchMax     = 1000000 // 1MB
	defaultPublishWindow = 5 * time.Second
)

// Producer publishes raw payloads to a Kafka topic.
type Producer struct {
	client *kgo.Client
	topic  string
}

// NewProducer creates a Kafka producer for the test topic.
func NewProducer(brokers []string, clientID, topic string) (*Producer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProducerLinger(producerLinger),
		kgo.ProducerBatchMaxBytes(producerBatchMax),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &Producer{client: client, topic: topic}, nil
}

// Publish writes a single payload synchronously so failures are visible
// per message rather than on close.
func (p *Producer) Publish(ctx context.Context, payload []byte) error {
	record := &kgo.Record{
		Topic: p.topic,
		Value: payload,
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishWindow)
	defer cancel()

	results := p.client.ProduceSync(publishCtx, record)
	if err := results.FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", p.topic, err)
	}

	return nil
}

// HealthCheck verifies the brokers are reachable.
func (p *Producer) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx); err != nil {
		return fmt.Errorf("kafka ping: %w", err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (p *Producer) Close() {
	if p.client != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), defaultPublishWindow)
		defer cancel()
		if err := p.client.Flush(flushCtx); err != nil {
			logger.Get().Warn(flushCtx, "failed to flush producer", logger.Error(err))
		}
		p.client.Close()
	}
}
