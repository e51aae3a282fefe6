package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/streadway/amqp"

	"github.com/ideuxs/toumai-admin/models"
)

// Publisher represents a RabbitMQ publisher instance. It feeds committed
// moderation decisions to downstream consumers (analytics, the mobile
// backend); delivery is best-effort.
type Publisher struct {
	mu         sync.Mutex
	amqpURL    string
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

// NewPublisher creates a new RabbitMQ publisher instance.
func NewPublisher(amqpURL, exchangeName, routingKey string) (*Publisher, error) {
	// Create connection with timeout context (best-effort; streadway doesn't accept ctx)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	p := &Publisher{
		amqpURL:    amqpURL,
		exchange:   exchangeName,
		routingKey: routingKey,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connectLocked(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// RecordModerationEvent publishes a moderation event to the exchange.
// Implements the controller's event sink contract.
func (p *Publisher) RecordModerationEvent(ctx context.Context, ev models.ModerationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal moderation event: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}

	return p.publish(ctx, p.routingKey, publishing)
}

// Close closes the publisher connection and channel.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error

	if p.channel != nil {
		if channelErr := p.channel.Close(); channelErr != nil {
			log.WithError(channelErr).Warn("Failed to close channel")
			err = channelErr
		}
	}

	if p.conn != nil {
		if connErr := p.conn.Close(); connErr != nil {
			log.WithError(connErr).Warn("Failed to close connection")
			if err == nil {
				err = connErr
			}
		}
	}

	return err
}

// IsConnected indicates whether the publisher currently has an open
// connection and channel.
func (p *Publisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn != nil && !p.conn.IsClosed() && p.channel != nil
}

func (p *Publisher) connectLocked(ctx context.Context) error {
	conn, err := amqp.Dial(p.amqpURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	select {
	case <-ctx.Done():
		ch.Close()
		conn.Close()
		return fmt.Errorf("context timeout while creating publisher: %w", ctx.Err())
	default:
	}

	p.conn = conn
	p.channel = ch
	return nil
}

func (p *Publisher) closeLocked() {
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func isConnClosedErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp.ErrClosed) {
		return true
	}
	if strings.Contains(err.Error(), "channel/connection is not open") {
		return true
	}
	return false
}

func (p *Publisher) publish(ctx context.Context, routingKey string, publishing amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() || p.channel == nil {
		p.closeLocked()
		if err := p.connectLocked(ctx); err != nil {
			return err
		}
	}

	err := p.channel.Publish(p.exchange, routingKey, false, false, publishing)
	if err != nil && isConnClosedErr(err) {
		p.closeLocked()
		if connErr := p.connectLocked(ctx); connErr != nil {
			return fmt.Errorf("failed to publish message: %w (reconnect failed: %v)", err, connErr)
		}
		err = p.channel.Publish(p.exchange, routingKey, false, false, publishing)
	}
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("context timeout while publishing message: %w", ctx.Err())
	default:
	}
	return nil
}
