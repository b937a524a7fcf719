// Package amqp carries transaction change events over RabbitMQ. The stream is
// split into partition queues so each worker owns a disjoint slice of ids;
// deliveries the worker gives up on are dead-lettered to a quarantine queue.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Verdict tells the consume loop what to do with a delivery.
type Verdict int

const (
	// Ack marks the event durably processed.
	Ack Verdict = iota
	// Requeue leaves the event for redelivery (parse or persistence failure).
	Requeue
	// Quarantine rejects without requeue; the broker dead-letters the
	// delivery to the quarantine queue.
	Quarantine
)

// Handler decides the fate of one delivery body.
type Handler func(ctx context.Context, body []byte, redelivered bool) Verdict

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queuePrefix  string
	partitions   int
}

func NewClient(url, exchangeName, queuePrefix string, partitions int) (*Client, error) {
	if partitions < 1 {
		return nil, fmt.Errorf("partitions must be at least 1, got %d", partitions)
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queuePrefix:  queuePrefix,
		partitions:   partitions,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	return client, nil
}

// Partitions returns the number of partition queues.
func (c *Client) Partitions() int {
	return c.partitions
}

// PartitionQueue returns the queue name of one partition.
func (c *Client) PartitionQueue(partition int) string {
	return fmt.Sprintf("%s.p%d", c.queuePrefix, partition)
}

// QuarantineQueue returns the dead-letter target for poisoned events.
func (c *Client) QuarantineQueue() string {
	return c.queuePrefix + ".quarantine"
}

func (c *Client) quarantineExchange() string {
	return c.exchangeName + ".dlx"
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Quarantine side: fanout exchange plus one durable queue.
	if err := c.channel.ExchangeDeclare(
		c.quarantineExchange(), "fanout", true, false, false, false, nil,
	); err != nil {
		return fmt.Errorf("declare quarantine exchange: %w", err)
	}
	if _, err := c.channel.QueueDeclare(
		c.QuarantineQueue(), true, false, false, false, nil,
	); err != nil {
		return fmt.Errorf("declare quarantine queue: %w", err)
	}
	if err := c.channel.QueueBind(
		c.QuarantineQueue(), "", c.quarantineExchange(), false, nil,
	); err != nil {
		return fmt.Errorf("bind quarantine queue: %w", err)
	}

	// One durable queue per partition, dead-lettering into quarantine.
	for p := 0; p < c.partitions; p++ {
		queue := c.PartitionQueue(p)
		if _, err := c.channel.QueueDeclare(
			queue, true, false, false, false,
			amqp091.Table{"x-dead-letter-exchange": c.quarantineExchange()},
		); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		if err := c.channel.QueueBind(
			queue, routingKey(p), c.exchangeName, false, nil,
		); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return nil
}

func routingKey(partition int) string {
	return fmt.Sprintf("p%d", partition)
}

// PublishTransactionEvent publishes an event onto its id's partition.
func (c *Client) PublishTransactionEvent(ctx context.Context, event *TransactionEvent) error {
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	partition := Partition(event.TransactionID, c.partitions)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		routingKey(partition),
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	slog.InfoContext(ctx, "Published transaction event",
		"transaction_id", event.TransactionID,
		"event_type", event.EventType,
		"partition", partition)

	return nil
}

// ConsumePartition consumes one partition queue until ctx is cancelled,
// applying the handler's verdict to every delivery. Acknowledgment is manual:
// nothing is acked until the handler says so.
func (c *Client) ConsumePartition(ctx context.Context, partition, prefetch int, handler Handler) error {
	channel, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("open partition channel: %w", err)
	}
	defer channel.Close()

	if err := channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	queue := c.PartitionQueue(partition)
	msgs, err := channel.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack (we want manual ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("start consuming %s: %w", queue, err)
	}

	slog.InfoContext(ctx, "Started consuming transaction events",
		"queue", queue,
		"partition", partition)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping consumption", "queue", queue, "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed for %s", queue)
			}

			switch handler(ctx, delivery.Body, delivery.Redelivered) {
			case Ack:
				if err := delivery.Ack(false); err != nil {
					slog.ErrorContext(ctx, "Failed to ack delivery", "queue", queue, "error", err)
				}
			case Requeue:
				if err := delivery.Nack(false, true); err != nil {
					slog.ErrorContext(ctx, "Failed to nack delivery", "queue", queue, "error", err)
				}
			case Quarantine:
				if err := delivery.Nack(false, false); err != nil {
					slog.ErrorContext(ctx, "Failed to quarantine delivery", "queue", queue, "error", err)
				}
			}
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
