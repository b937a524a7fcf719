// Package worker runs the ingestion consumers. One goroutine per partition
// queue; each delivery goes through the ingestor and comes back as a verdict
// for the broker.
package worker

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"txhistory/internal/amqp"
	"txhistory/internal/cache"
	"txhistory/internal/metrics"
	"txhistory/internal/services"
)

// Applier applies one parsed event to the store.
type Applier interface {
	Apply(ctx context.Context, event *amqp.TransactionEvent) error
}

// Consumer is the slice of the AMQP client the worker needs.
type Consumer interface {
	Partitions() int
	ConsumePartition(ctx context.Context, partition, prefetch int, handler amqp.Handler) error
}

// IngestWorker consumes all partition queues and applies events. A delivery
// that keeps failing is retried up to maxAttempts times and then rejected
// without requeue, which dead-letters it into the quarantine queue. Attempt
// counts are tracked per body checksum, so the bound survives redeliveries.
type IngestWorker struct {
	consumer    Consumer
	applier     Applier
	collector   *metrics.Collector
	attempts    *cache.LRUCache[int]
	maxAttempts int
	prefetch    int
}

func NewIngestWorker(consumer Consumer, applier Applier, collector *metrics.Collector, attempts *cache.LRUCache[int], maxAttempts, prefetch int) *IngestWorker {
	return &IngestWorker{
		consumer:    consumer,
		applier:     applier,
		collector:   collector,
		attempts:    attempts,
		maxAttempts: maxAttempts,
		prefetch:    prefetch,
	}
}

// Run consumes every partition until ctx is cancelled. The first consumer
// error tears down the group; cancellation is a clean stop.
func (w *IngestWorker) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	for p := 0; p < w.consumer.Partitions(); p++ {
		partition := p
		group.Go(func() error {
			err := w.consumer.ConsumePartition(ctx, partition, w.prefetch, w.HandleDelivery)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return group.Wait()
}

// HandleDelivery decides the fate of one delivery body.
func (w *IngestWorker) HandleDelivery(ctx context.Context, body []byte, redelivered bool) amqp.Verdict {
	event, err := amqp.TransactionEventFromJSON(body)
	if err != nil {
		slog.WarnContext(ctx, "Failed to parse event payload", "error", err)
		return w.failed(ctx, body, "")
	}

	if err := w.applier.Apply(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to apply event",
			"transaction_id", event.TransactionID,
			"event_type", event.EventType,
			"redelivered", redelivered,
			"error", err)
		return w.failed(ctx, body, event.TransactionID)
	}

	w.attempts.Delete(bodyKey(body))
	return amqp.Ack
}

// failed counts one more attempt for this body and picks between redelivery
// and quarantine.
func (w *IngestWorker) failed(ctx context.Context, body []byte, transactionID string) amqp.Verdict {
	key := bodyKey(body)
	seen, _ := w.attempts.Get(key)
	seen++
	w.attempts.Set(key, seen)

	if seen >= w.maxAttempts {
		w.attempts.Delete(key)
		slog.ErrorContext(ctx, "Quarantining event after exhausting retries",
			"transaction_id", transactionID,
			"attempts", seen)
		if w.collector != nil {
			w.collector.EventQuarantined()
		}
		return amqp.Quarantine
	}

	if w.collector != nil {
		w.collector.EventRequeued()
	}
	return amqp.Requeue
}

func bodyKey(body []byte) string {
	h := fnv.New64a()
	h.Write(body)
	return fmt.Sprintf("%x", h.Sum64())
}

var _ Applier = (*services.Ingestor)(nil)
