package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"projecthub/pkg/otel"
	"projecthub/pkg/trace"
)

type MessageHandler func(ctx context.Context, routingKey string, data json.RawMessage) error

// Subscriber 订阅交换机上的事件。队列是独占的、断开即删除，只接收订阅之后的消息
type Subscriber struct {
	channel  *amqp091.Channel
	queue    amqp091.Queue
	pattern  string
	exchange string
	conn     *amqp091.Connection
	logger   *zap.Logger
}

// NewSubscriber pattern 使用 topic 通配符，例如 notification.# 或 #
func NewSubscriber(url, exchange, pattern string, logger *zap.Logger) (*Subscriber, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, ch, err := dialExchange(url, exchange)
	if err != nil {
		return nil, err
	}

	q, err := ch.QueueDeclare(
		"",
		false, // durable
		true,  // auto delete
		true,  // exclusive
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, pattern, exchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	logger.Info("Subscriber initialized",
		zap.String("pattern", pattern),
		zap.String("queue", q.Name),
		zap.String("exchange", exchange),
	)

	return &Subscriber{
		conn:     conn,
		channel:  ch,
		queue:    q,
		pattern:  pattern,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (s *Subscriber) Close() {
	if s.channel != nil {
		_ = s.channel.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

// Consume 阻塞直到 ctx 取消或连接断开
func (s *Subscriber) Consume(ctx context.Context, handler MessageHandler) error {
	deliveries, err := s.channel.ConsumeWithContext(
		ctx,
		s.queue.Name,
		"",
		false, // 手动ack
		true,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			s.handle(ctx, msg, handler)
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, msg amqp091.Delivery, handler MessageHandler) {
	if traceID, ok := msg.Headers[trace.HeaderName].(string); ok {
		ctx = trace.WithContext(ctx, traceID)
	}
	ctx, span := otel.ConsumeSpan(ctx, msg.Headers, s.exchange, msg.RoutingKey)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Handler panic recovered",
				zap.String("routing_key", msg.RoutingKey),
				zap.Any("panic", r),
			)
			_ = msg.Nack(false, false)
		}
	}()

	if err := handler(ctx, msg.RoutingKey, msg.Body); err != nil {
		// 独占队列重新入队只会反复失败，直接丢弃
		s.logger.Warn("Handler error, dropping message",
			zap.String("routing_key", msg.RoutingKey),
			zap.Error(err),
		)
		_ = msg.Nack(false, false)
		return
	}

	if err := msg.Ack(false); err != nil {
		s.logger.Error("Failed to ack message",
			zap.String("routing_key", msg.RoutingKey),
			zap.Error(err),
		)
	}
}
