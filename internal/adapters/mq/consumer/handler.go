package consumer

import (
	"context"

	"github.com/okian/castassist/internal/adapters/mq/queue"
	"github.com/okian/castassist/internal/domain/dedupe"
	"github.com/okian/castassist/pkg/logger"
	"github.com/okian/castassist/pkg/metrics"
)

// NewIngestHandler builds the standard ingest path: count, dedupe, enqueue.
//
// A full queue drops the payload rather than erroring, so the consumer
// keeps draining the broker under burst load; the payload's hash is
// unrecorded so a redelivery can still get through later. Duplicates are
// suppressed silently.
func NewIngestHandler(ded dedupe.Deduper, q queue.Queue) Handler {
	log := logger.Get().Named("ingest")

	return func(ctx context.Context, value []byte) error {
		metrics.RecordEventReceived()

		hash := dedupe.Hash(value)
		if ded.SeenAndRecord(ctx, hash) {
			metrics.RecordEventDuplicate()
			return nil
		}

		if !q.Enqueue(ctx, queue.Message(value)) {
			ded.Unrecord(ctx, hash)
			metrics.RecordEventDropped()
			log.Warn(ctx, "queue full, payload dropped",
				logger.Int("bytes", len(value)),
			)
		}
		return nil
	}
}
