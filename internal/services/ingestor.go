// Package services holds the two core engines: the event ingestor that
// reconciles the transaction store against the upstream event stream, and the
// query service that builds currency-normalized month statements.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"txhistory/internal/amqp"
	"txhistory/internal/core"
	"txhistory/internal/metrics"
	"txhistory/internal/storage"
)

// TransactionStore is the persistence contract the engines need. SQLite
// implements it in production, the memory store in tests.
type TransactionStore interface {
	Upsert(ctx context.Context, t core.Transaction) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	QueryPage(ctx context.Context, f storage.Filter, pageIndex, pageSize int) ([]core.Transaction, int64, error)
	QueryAll(ctx context.Context, f storage.Filter) ([]core.Transaction, error)
}

// ErrInvalidEvent marks an event that parsed but does not map to a valid
// transaction. Redelivery cannot fix it; the worker retries a bounded number
// of times and then quarantines it so a human sees the producer bug.
var ErrInvalidEvent = fmt.Errorf("invalid transaction event")

// Ingestor applies transaction change events to the store. It keeps no state
// of its own: replaying an event produces the same store state as applying it
// once, which is what makes at-least-once delivery safe.
type Ingestor struct {
	store     TransactionStore
	collector *metrics.Collector
}

func NewIngestor(store TransactionStore, collector *metrics.Collector) *Ingestor {
	return &Ingestor{store: store, collector: collector}
}

// Apply processes one event. CREATE and UPDATE both upsert, so a replayed
// CREATE is a no-op and an UPDATE for a never-seen id acts as an implicit
// create. DELETE of an absent id succeeds silently. A nil return means the
// event may be acknowledged; an error means it must not be.
func (i *Ingestor) Apply(ctx context.Context, event *amqp.TransactionEvent) error {
	eventType := strings.ToUpper(event.EventType)

	switch eventType {
	case amqp.EventTypeCreate, amqp.EventTypeUpdate:
		if err := i.upsert(ctx, event); err != nil {
			return err
		}
	case amqp.EventTypeDelete:
		if err := i.store.Delete(ctx, event.TransactionID); err != nil {
			return fmt.Errorf("apply delete: %w", err)
		}
		slog.InfoContext(ctx, "Transaction deleted",
			"transaction_id", event.TransactionID)
	default:
		// Dropped but acknowledged: no redelivery can fix an unrecognized type.
		slog.WarnContext(ctx, "Unknown event type, dropping event",
			"event_type", event.EventType,
			"transaction_id", event.TransactionID)
		if i.collector != nil {
			i.collector.UnknownEventType()
		}
		return nil
	}

	if i.collector != nil {
		i.collector.EventProcessed(eventType)
	}
	return nil
}

func (i *Ingestor) upsert(ctx context.Context, event *amqp.TransactionEvent) error {
	valueDate, err := core.ParseDate(event.ValueDate)
	if err != nil {
		return fmt.Errorf("%w: value date %q: %v", ErrInvalidEvent, event.ValueDate, err)
	}

	t := core.Transaction{
		ID:          event.TransactionID,
		Amount:      event.Amount,
		Currency:    event.Currency,
		AccountIBAN: event.AccountIBAN,
		ValueDate:   valueDate,
		Description: event.Description,
		CustomerID:  event.CustomerID,
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	exists, err := i.store.Exists(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("check transaction: %w", err)
	}

	if err := i.store.Upsert(ctx, t); err != nil {
		return fmt.Errorf("apply upsert: %w", err)
	}

	action := "created"
	if exists {
		action = "updated"
	}
	slog.InfoContext(ctx, "Transaction "+action,
		"transaction_id", t.ID,
		"customer_id", t.CustomerID,
		"event_type", event.EventType)

	return nil
}
