package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/amanifadhili/encubation-management-system-sub001/config"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
)

// 拓扑：事件统一走 topic 交换机，按 routing key 绑定到各自的队列
const (
	EventsExchange = "events.topic"

	CompletionChangedRoutingKey = "profile.completion.changed"
	CompletionChangedQueue      = "profile.completion.changed"
)

var (
	conn   *amqp.Connection
	connMu sync.RWMutex
)

func Init() error {
	c, err := amqp.Dial(config.Cfg.GetRabbitMQURL())
	if err != nil {
		return fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}

	if err := declareTopology(c); err != nil {
		_ = c.Close()
		return err
	}

	connMu.Lock()
	conn = c
	connMu.Unlock()

	logger.Logger.Info("RabbitMQ initialized successfully",
		zap.String("exchange", EventsExchange),
	)
	return nil
}

func declareTopology(c *amqp.Connection) error {
	ch, err := c.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(EventsExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", EventsExchange, err)
	}

	if _, err := ch.QueueDeclare(CompletionChangedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", CompletionChangedQueue, err)
	}

	if err := ch.QueueBind(CompletionChangedQueue, CompletionChangedRoutingKey, EventsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", CompletionChangedQueue, err)
	}
	return nil
}

// Connection 返回当前连接，未初始化时为 nil
func Connection() *amqp.Connection {
	connMu.RLock()
	defer connMu.RUnlock()
	return conn
}

// Close 先关闭发布 channel 再关闭连接
func Close(ctx context.Context) error {
	closePublisher()

	connMu.Lock()
	defer connMu.Unlock()
	if conn == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		conn = nil
		return err
	}
}
