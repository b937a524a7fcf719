package amqp

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/shopspring/decimal"
)

// Event types understood by the ingestor. CREATE and UPDATE both map to an
// upsert; anything else is dropped with a warning.
const (
	EventTypeCreate = "CREATE"
	EventTypeUpdate = "UPDATE"
	EventTypeDelete = "DELETE"
)

// TransactionEvent is one change event from the upstream producer. Amount
// arrives as either a JSON number or a decimal string; decimal.Decimal
// accepts both.
type TransactionEvent struct {
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	AccountIBAN   string          `json:"accountIban"`
	ValueDate     string          `json:"valueDate"`
	Description   string          `json:"description"`
	CustomerID    string          `json:"customerId"`
	EventType     string          `json:"eventType"`
	Timestamp     string          `json:"timestamp"`
}

// NewTransactionEvent builds an event stamped with the current time.
func NewTransactionEvent(eventType, transactionID string) *TransactionEvent {
	return &TransactionEvent{
		TransactionID: transactionID,
		EventType:     eventType,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON parses an event. A payload that fails here must
// not be acknowledged by the consumer.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal transaction event: %w", err)
	}
	if e.TransactionID == "" {
		return nil, fmt.Errorf("transaction event missing transactionId")
	}
	if e.EventType == "" {
		return nil, fmt.Errorf("transaction event missing eventType")
	}
	return &e, nil
}

// Partition maps a transaction id onto one of n partitions. All events for
// the same id land on the same partition, which is what keeps
// CREATE/UPDATE/DELETE for one id ordered.
func Partition(transactionID string, n int) int {
	h := fnv.New32a()
	h.Write([]byte(transactionID))
	return int(h.Sum32() % uint32(n))
}
