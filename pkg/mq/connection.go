package mq

import (
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	DefaultExchange = "projecthub.events"

	minReconnectDelay = time.Second
	maxReconnectDelay = 30 * time.Second
)

// ErrNotConnected 连接已断开且还没到下一次重连时间
var ErrNotConnected = errors.New("rabbitmq connection is down")

// NewConnection creates a new RabbitMQ connection.
func NewConnection(url string) (*amqp091.Connection, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// DeclareExchange declares the durable topic exchange the watcher announces on.
func DeclareExchange(ch *amqp091.Channel, name string) error {
	return ch.ExchangeDeclare(
		name,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}

// dialExchange 连接、打开 channel 并声明交换机，任一步失败都会关闭已打开的资源
func dialExchange(url, exchange string) (*amqp091.Connection, *amqp091.Channel, error) {
	conn, err := NewConnection(url)
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := DeclareExchange(ch, exchange); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return conn, ch, nil
}

// reconnectDelay 连续失败 n 次后的等待时间：1s 起翻倍，最多 30s
func reconnectDelay(failures int) time.Duration {
	if failures <= 0 {
		return 0
	}
	d := minReconnectDelay
	for i := 1; i < failures && d < maxReconnectDelay; i++ {
		d *= 2
	}
	return min(d, maxReconnectDelay)
}

// watchClose 连接被 broker 关闭时记录日志；重连在下一次发布时进行
func watchClose(conn *amqp091.Connection, logger *zap.Logger) {
	closed := conn.NotifyClose(make(chan *amqp091.Error, 1))
	go func() {
		if err, ok := <-closed; ok && err != nil {
			logger.Warn("RabbitMQ connection closed",
				zap.Int("code", err.Code),
				zap.String("reason", err.Reason),
			)
		}
	}()
}
