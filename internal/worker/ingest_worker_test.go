package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"txhistory/internal/amqp"
	"txhistory/internal/cache"
)

type stubApplier struct {
	err    error
	events []*amqp.TransactionEvent
}

func (s *stubApplier) Apply(ctx context.Context, event *amqp.TransactionEvent) error {
	s.events = append(s.events, event)
	return s.err
}

func newTestWorker(applier Applier, maxAttempts int) *IngestWorker {
	return NewIngestWorker(nil, applier, nil, cache.NewLRUCache[int](16, time.Minute), maxAttempts, 1)
}

func eventBody(t *testing.T, id string) []byte {
	t.Helper()
	event := &amqp.TransactionEvent{
		TransactionID: id,
		Amount:        decimal.RequireFromString("100.50"),
		Currency:      "GBP",
		AccountIBAN:   "DE89370400440532013000",
		ValueDate:     "2023-10-01",
		Description:   "Online payment",
		CustomerID:    "P-0123456789",
		EventType:     amqp.EventTypeCreate,
		Timestamp:     "2023-10-01T10:00:00Z",
	}
	body, err := event.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	return body
}

func TestHandleDeliveryAcksOnSuccess(t *testing.T) {
	applier := &stubApplier{}
	w := newTestWorker(applier, 5)

	if v := w.HandleDelivery(context.Background(), eventBody(t, "T1"), false); v != amqp.Ack {
		t.Fatalf("expected Ack, got %v", v)
	}
	if len(applier.events) != 1 || applier.events[0].TransactionID != "T1" {
		t.Fatalf("applier saw %+v", applier.events)
	}
}

func TestHandleDeliveryRequeuesOnApplyError(t *testing.T) {
	applier := &stubApplier{err: errors.New("storage unavailable")}
	w := newTestWorker(applier, 5)

	if v := w.HandleDelivery(context.Background(), eventBody(t, "T1"), false); v != amqp.Requeue {
		t.Fatalf("expected Requeue, got %v", v)
	}
}

func TestHandleDeliveryQuarantinesAfterMaxAttempts(t *testing.T) {
	applier := &stubApplier{err: errors.New("storage unavailable")}
	w := newTestWorker(applier, 3)
	body := eventBody(t, "T1")

	for i := 0; i < 2; i++ {
		if v := w.HandleDelivery(context.Background(), body, i > 0); v != amqp.Requeue {
			t.Fatalf("attempt %d: expected Requeue, got %v", i+1, v)
		}
	}
	if v := w.HandleDelivery(context.Background(), body, true); v != amqp.Quarantine {
		t.Fatalf("expected Quarantine on final attempt, got %v", v)
	}

	// The attempt record is gone, so a fresh redelivery starts over.
	if v := w.HandleDelivery(context.Background(), body, true); v != amqp.Requeue {
		t.Fatalf("expected counter reset after quarantine, got %v", v)
	}
}

func TestHandleDeliveryMalformedPayloadBounded(t *testing.T) {
	applier := &stubApplier{}
	w := newTestWorker(applier, 2)
	body := []byte("{not json")

	if v := w.HandleDelivery(context.Background(), body, false); v != amqp.Requeue {
		t.Fatalf("expected Requeue for malformed payload, got %v", v)
	}
	if v := w.HandleDelivery(context.Background(), body, true); v != amqp.Quarantine {
		t.Fatalf("expected Quarantine after retry budget, got %v", v)
	}
	if len(applier.events) != 0 {
		t.Fatal("malformed payload must not reach the applier")
	}
}

func TestHandleDeliverySuccessResetsAttempts(t *testing.T) {
	applier := &stubApplier{err: errors.New("storage unavailable")}
	w := newTestWorker(applier, 3)
	body := eventBody(t, "T1")

	w.HandleDelivery(context.Background(), body, false)
	w.HandleDelivery(context.Background(), body, true)

	applier.err = nil
	if v := w.HandleDelivery(context.Background(), body, true); v != amqp.Ack {
		t.Fatalf("expected Ack once the store recovers, got %v", v)
	}

	// The counter was cleared on success; a later failure starts at one.
	applier.err = errors.New("storage unavailable")
	if v := w.HandleDelivery(context.Background(), body, true); v != amqp.Requeue {
		t.Fatalf("expected Requeue with a fresh counter, got %v", v)
	}
}

func TestHandleDeliveryDistinctBodiesTrackedSeparately(t *testing.T) {
	applier := &stubApplier{err: errors.New("storage unavailable")}
	w := newTestWorker(applier, 2)

	if v := w.HandleDelivery(context.Background(), eventBody(t, "T1"), false); v != amqp.Requeue {
		t.Fatalf("T1: expected Requeue, got %v", v)
	}
	// T2's first failure must not inherit T1's count.
	if v := w.HandleDelivery(context.Background(), eventBody(t, "T2"), false); v != amqp.Requeue {
		t.Fatalf("T2: expected Requeue, got %v", v)
	}
}
