// Publishes a handful of demo transaction events so a local stack has data
// to serve. Not meant for production.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"txhistory/internal/amqp"
	"txhistory/internal/config"
	"txhistory/internal/log"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentAMQP)
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueuePrefix, cfg.PartitionCount)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, sample := range sampleEvents() {
		if err := client.PublishTransactionEvent(ctx, sample); err != nil {
			logger.Error("Failed to publish event",
				"transaction_id", sample.TransactionID,
				"error", err)
			os.Exit(1)
		}
	}

	logger.Info("Demo events published", "count", len(sampleEvents()))
}

func sampleEvents() []*amqp.TransactionEvent {
	type sample struct {
		id, currency, amount, valueDate, description string
	}
	samples := []sample{
		{"89d3c179-abcd-465b-b9ee-e2d5f6cfe146", "GBP", "100.50", "2023-10-01", "Online payment"},
		{"90e4d280-bcde-476c-a0ff-f3e6a7b0fe57", "USD", "-75.25", "2023-10-02", "Card purchase"},
		{"01f5e391-cdef-487d-b1aa-a4f7b8c1af68", "EUR", "1200.00", "2023-10-03", "Salary"},
		{"12a6f402-defa-498e-c2bb-b5a8c9d2ba79", "CHF", "-42.80", "2023-10-05", "Grocery store"},
		{"23b7a513-efab-409f-d3cc-c6b9d0e3cb80", "JPY", "-15000", "2023-10-07", "Travel booking"},
	}

	events := make([]*amqp.TransactionEvent, len(samples))
	for i, s := range samples {
		event := amqp.NewTransactionEvent(amqp.EventTypeCreate, s.id)
		event.Amount = decimal.RequireFromString(s.amount)
		event.Currency = s.currency
		event.AccountIBAN = "CH9300762011623852957"
		event.ValueDate = s.valueDate
		event.Description = s.description
		event.CustomerID = "P-0123456789"
		events[i] = event
	}
	return events
}
