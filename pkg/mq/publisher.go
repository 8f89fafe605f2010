package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"projecthub/pkg/otel"
	"projecthub/pkg/trace"
)

// Publisher 断线后在下一次 Publish 时按退避间隔重连
type Publisher struct {
	url      string
	exchange string
	logger   *zap.Logger
	now      func() time.Time

	mu          sync.Mutex // amqp channel 不是并发安全的
	conn        *amqp091.Connection
	channel     *amqp091.Channel
	failures    int
	nextAttempt time.Time
}

func NewPublisher(url, exchange string, logger *zap.Logger) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, ch, err := dialExchange(url, exchange)
	if err != nil {
		return nil, err
	}
	watchClose(conn, logger)

	return &Publisher{
		url:      url,
		exchange: exchange,
		logger:   logger,
		now:      time.Now,
		conn:     conn,
		channel:  ch,
	}, nil
}

func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
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

// IsConnected checks if the publisher connection is still alive
func (p *Publisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectedLocked()
}

func (p *Publisher) connectedLocked() bool {
	return p.conn != nil && p.channel != nil && !p.conn.IsClosed() && !p.channel.IsClosed()
}

// ensureChannel 必须持有 mu
func (p *Publisher) ensureChannel() error {
	if p.connectedLocked() {
		return nil
	}
	p.closeLocked()

	now := p.now()
	if now.Before(p.nextAttempt) {
		return fmt.Errorf("%w, next reconnect at %s", ErrNotConnected, p.nextAttempt.Format(time.RFC3339))
	}

	conn, ch, err := dialExchange(p.url, p.exchange)
	if err != nil {
		p.failures++
		p.nextAttempt = now.Add(reconnectDelay(p.failures))
		p.logger.Warn("RabbitMQ reconnect failed",
			zap.Int("failures", p.failures),
			zap.Time("next_attempt", p.nextAttempt),
			zap.Error(err),
		)
		return err
	}
	watchClose(conn, p.logger)

	p.logger.Info("RabbitMQ reconnected", zap.Int("failed_attempts", p.failures))
	p.conn, p.channel = conn, ch
	p.failures = 0
	p.nextAttempt = time.Time{}
	return nil
}

// Publish publishes an event to the exchange with the given routing key.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", routingKey, err)
	}

	ctx, span := otel.PublishSpan(ctx, p.exchange, routingKey)
	defer span.End()

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Headers:      amqp091.Table{},
	}
	if traceID := trace.FromContext(ctx); traceID != "" {
		msg.Headers[trace.HeaderName] = traceID
	}
	otel.InjectMessage(ctx, msg.Headers)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureChannel(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	if err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}
