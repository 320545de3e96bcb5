package amqp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	applog "cofre/internal/log"
)

var logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentAMQP)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures = 5
	openTimeout = 30 * time.Second
)

// amqpConnection and amqpChannel are the slices of the amqp091 API the
// client stores. Interfaces here keep the reconnect bookkeeping testable
// without a broker.
type amqpConnection interface {
	Close() error
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Close() error
}

// Client wraps an AMQP connection with a small circuit breaker so a broker
// outage degrades publishing instead of stalling request handlers.
type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    amqpConnection
	channel amqpChannel

	failureCount int64
	state        int32
	// lastFailureNano is read and written concurrently with the other
	// breaker fields, so it gets the same atomic treatment.
	lastFailureNano int64
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.connect(); err != nil {
		return nil, err
	}

	return client, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.swapConnection(conn, channel)
	return nil
}

// swapConnection installs a fresh conn/channel pair and closes the stale
// one, so repeated broker flaps do not leak sockets. Closing happens
// outside the lock; a Close error on a dead connection carries no
// information.
func (c *Client) swapConnection(conn amqpConnection, channel amqpChannel) {
	c.mu.Lock()
	staleConn, staleChannel := c.conn, c.channel
	c.conn = conn
	c.channel = channel
	c.mu.Unlock()

	if staleChannel != nil {
		staleChannel.Close()
	}
	if staleConn != nil {
		staleConn.Close()
	}
}

func setup(channel *amqp091.Channel, exchangeName, queueName string) error {
	err := channel.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key equals the queue name on a direct exchange
	err = channel.QueueBind(queueName, queueName, exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishRecordChange publishes a record-change message. The circuit
// breaker rejects fast while the broker is known unreachable; connection
// errors trigger one reconnect attempt per call.
func (c *Client) PublishRecordChange(ctx context.Context, recordType, recordID, operation string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.isCircuitOpen() {
		return fmt.Errorf("publish record change: circuit breaker is open")
	}

	msg := NewRecordChangeMessage(recordType, recordID, operation)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = c.publish(ctx, body)
	if err != nil && isConnectionError(err) {
		c.recordFailure()
		if rerr := c.connect(); rerr != nil {
			return fmt.Errorf("publish message: %w", err)
		}
		err = c.publish(ctx, body)
	}
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("publish message: %w", err)
	}

	c.recordSuccess()

	logger.InfoContext(ctx, "Published record change message",
		applog.FieldRecordType, recordType,
		applog.FieldRecordID, recordID,
		applog.FieldOperation, operation,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

func (c *Client) publish(ctx context.Context, body []byte) error {
	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil {
		return fmt.Errorf("connection closed")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// ConsumeRecordChanges delivers messages to handler with manual acks. A
// handler error requeues the message; an unparseable body is dropped.
func (c *Client) ConsumeRecordChanges(ctx context.Context, handler func(*RecordChangeMessage) error) error {
	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil {
		return fmt.Errorf("connection closed")
	}

	msgs, err := channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	logger.InfoContext(ctx, "Started consuming record change messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := RecordChangeMessageFromJSON(delivery.Body)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to unmarshal message", applog.FieldError, err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(msg); err != nil {
				logger.ErrorContext(ctx, "Failed to handle message",
					applog.FieldError, err,
					applog.FieldRecordType, msg.RecordType,
					applog.FieldRecordID, msg.RecordID)
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
		}
	}
}

// ConsumeLoop keeps the consumer alive across broker restarts, redialing
// with exponential backoff. It returns only when ctx is done.
func (c *Client) ConsumeLoop(ctx context.Context, handler func(*RecordChangeMessage) error) error {
	attempt := 0
	for {
		err := c.ConsumeRecordChanges(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		attempt++
		wait := exponentialBackoff(attempt)
		logger.WarnContext(ctx, "Consumer disconnected, reconnecting",
			"attempt", attempt,
			"backoff", wait,
			applog.FieldError, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if err := c.connect(); err != nil {
			logger.ErrorContext(ctx, "Reconnect failed", "attempt", attempt, applog.FieldError, err)
			continue
		}
		attempt = 0
	}
}

func (c *Client) isCircuitOpen() bool {
	state := atomic.LoadInt32(&c.state)
	if state != StateOpen {
		return false
	}
	lastFailure := time.Unix(0, atomic.LoadInt64(&c.lastFailureNano))
	if time.Since(lastFailure) > openTimeout {
		atomic.StoreInt32(&c.state, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	atomic.StoreInt64(&c.lastFailureNano, time.Now().UnixNano())
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func exponentialBackoff(attempt int) time.Duration {
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		return 30 * time.Second
	}
	return backoff
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "broken pipe")
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
