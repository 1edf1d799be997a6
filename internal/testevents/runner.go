package testevents

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/castassist/pkg/logger"
)

const percentageMultiplier = 100

// Run executes the complete publish test: health check, payload
// generation, and concurrent publishing to the ingest topic.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting castassist event test",
		logger.Any("brokers", config.Brokers),
		logger.String("topic", config.Topic),
		logger.Int("events", config.NumEvents),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	producer, err := NewProducer(config.Brokers, "castassist-test-events", config.Topic)
	if err != nil {
		return fmt.Errorf("producer setup failed: %w", err)
	}
	defer producer.Close()

	// Step 1: Check broker health
	healthCtx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()
	if err := producer.HealthCheck(healthCtx); err != nil {
		return fmt.Errorf("broker health check failed: %w", err)
	}
	logger.Get().Info(ctx, "brokers are reachable")

	// Step 2: Generate payloads
	payloads, err := generatePayloads(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("payload generation failed: %w", err)
	}

	// Step 3: Publish payloads concurrently
	if err := publishPayloads(ctx, config, producer, payloads, stats); err != nil {
		return fmt.Errorf("payload publishing failed: %w", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// publishPayloads fans the payloads out over a fixed worker pool.
func publishPayloads(ctx context.Context, config *Config, producer *Producer, payloads [][]byte, stats *Stats) error {
	logger.Get().Info(ctx, "publishing payloads", logger.Int("count", len(payloads)), logger.Int("workers", config.Workers))

	jobs := make(chan []byte, config.Workers)

	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for payload := range jobs {
				err := producer.Publish(ctx, payload)

				mu.Lock()
				if err != nil {
					stats.EventsFailed++
					if config.Verbose {
						logger.Get().Warn(ctx, "publish failed", logger.Error(err))
					}
				} else {
					stats.EventsPublished++
				}
				mu.Unlock()
			}
		}()
	}

	for _, payload := range payloads {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return fmt.Errorf("context cancelled during publishing: %w", ctx.Err())
		case jobs <- payload:
		}
	}
	close(jobs)
	wg.Wait()

	if stats.EventsFailed > 0 {
		logger.Get().Warn(ctx, "some payloads failed to publish", logger.Int("failed", stats.EventsFailed))
	}

	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, eventsPerSecond float64

	if stats.EventsGenerated > 0 {
		successRate = float64(stats.EventsPublished) / float64(stats.EventsGenerated) * percentageMultiplier
	}

	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsPublished) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("eventsPublished", stats.EventsPublished),
		logger.Int("eventsFailed", stats.EventsFailed),
		logger.Int("duplicatesAdded", stats.DuplicatesAdded),
		logger.Int("malformedAdded", stats.MalformedAdded),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}
