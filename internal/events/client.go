// Package events carries committed ledger changes over AMQP to the
// background audit worker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	KindEntriesPosted = "entries_posted"
	KindMonthClosed   = "month_closed"
)

// envelope wraps every published message with its kind so one queue
// serves both event types.
type envelope struct {
	Kind string          `json:"kind"`
	Body json.RawMessage `json:"body"`
}

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
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
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
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

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishEntriesPosted publishes an entries-posted event.
func (c *Client) PublishEntriesPosted(ctx context.Context, monthID string, entryIDs []int64) error {
	body, err := NewEntriesPostedMessage(monthID, entryIDs).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, KindEntriesPosted, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published entries-posted event",
		"month_id", monthID,
		"entries", len(entryIDs),
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// PublishMonthClosed publishes a month-closed event.
func (c *Client) PublishMonthClosed(ctx context.Context, monthID string) error {
	body, err := NewMonthClosedMessage(monthID).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, KindMonthClosed, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published month-closed event",
		"month_id", monthID,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

func (c *Client) publish(ctx context.Context, kind string, body []byte) error {
	wrapped, err := json.Marshal(envelope{Kind: kind, Body: body})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         wrapped,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Handlers dispatches consumed events by kind. A nil handler drops the
// corresponding kind with an ack.
type Handlers struct {
	EntriesPosted func(ctx context.Context, msg *EntriesPostedMessage) error
	MonthClosed   func(ctx context.Context, msg *MonthClosedMessage) error
}

// Consume runs the manual-ack consume loop until the context ends. A
// handler error requeues the delivery; an undecodable message is
// rejected without requeue.
func (c *Client) Consume(ctx context.Context, handlers Handlers) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming ledger events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping event consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			if err := c.dispatch(ctx, delivery.Body, handlers); err != nil {
				if errUndecodable, ok := err.(*decodeError); ok {
					slog.ErrorContext(ctx, "Failed to decode event", "error", errUndecodable.err)
					delivery.Nack(false, false) // reject and don't requeue
					continue
				}
				slog.ErrorContext(ctx, "Failed to handle event", "error", err)
				delivery.Nack(false, true) // reject and requeue
				continue
			}
			delivery.Ack(false)
		}
	}
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return e.err.Error() }

func (c *Client) dispatch(ctx context.Context, body []byte, handlers Handlers) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &decodeError{err: err}
	}

	switch env.Kind {
	case KindEntriesPosted:
		msg, err := EntriesPostedMessageFromJSON(env.Body)
		if err != nil {
			return &decodeError{err: err}
		}
		if handlers.EntriesPosted == nil {
			return nil
		}
		return handlers.EntriesPosted(ctx, msg)
	case KindMonthClosed:
		msg, err := MonthClosedMessageFromJSON(env.Body)
		if err != nil {
			return &decodeError{err: err}
		}
		if handlers.MonthClosed == nil {
			return nil
		}
		return handlers.MonthClosed(ctx, msg)
	default:
		return &decodeError{err: fmt.Errorf("unknown event kind %q", env.Kind)}
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

// exponentialBackoff returns the reconnect delay for an attempt,
// capped at 30 seconds.
func exponentialBackoff(attempt int) time.Duration {
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second || backoff <= 0 {
		backoff = 30 * time.Second
	}
	return backoff
}

// isConnectionError reports whether the error looks like a broken AMQP
// connection worth reconnecting over.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range []string{
		"connection refused",
		"connection closed",
		"unexpected EOF",
		"broken pipe",
		"use of closed network connection",
		"channel/connection is not open",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// ConsumeWithReconnect keeps the consume loop alive across broken
// connections, redialing with exponential backoff.
func ConsumeWithReconnect(ctx context.Context, url, exchangeName, queueName string, handlers Handlers) error {
	attempt := 0
	for {
		client, err := NewClient(url, exchangeName, queueName)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			delay := exponentialBackoff(attempt)
			attempt++
			slog.ErrorContext(ctx, "AMQP connect failed, retrying",
				"error", err, "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}
		attempt = 0

		err = client.Consume(ctx, handlers)
		client.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}
		slog.WarnContext(ctx, "AMQP connection lost, reconnecting", "error", err)
	}
}
