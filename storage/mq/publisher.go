package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
	mqtrace "github.com/amanifadhili/encubation-management-system-sub001/pkg/mq"
)

// ErrNotConfirmed broker 对消息回复了 nack
var ErrNotConfirmed = errors.New("rabbitmq: publish not confirmed by broker")

// confirmChannel 进程内共享的发布 channel，处于 confirm 模式；关闭后下次发布时重建
type confirmChannel struct {
	mu sync.Mutex
	ch *amqp.Channel
}

var publisher confirmChannel

func (p *confirmChannel) get() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	c := Connection()
	if c == nil {
		return nil, errors.New("rabbitmq: connection is not initialized")
	}
	ch, err := c.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publish channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}

	closed := ch.NotifyClose(make(chan *amqp.Error, 1))
	go p.forget(ch, closed)

	p.ch = ch
	logger.Logger.Info("Publisher channel opened", zap.String("component", "rabbitmq"))
	return ch, nil
}

func (p *confirmChannel) forget(ch *amqp.Channel, closed <-chan *amqp.Error) {
	reason := <-closed

	p.mu.Lock()
	if p.ch == ch {
		p.ch = nil
	}
	p.mu.Unlock()

	if reason != nil {
		logger.Logger.Warn("Publisher channel closed",
			zap.String("component", "rabbitmq"),
			zap.String("reason", reason.Reason),
		)
	}
}

func (p *confirmChannel) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
}

func closePublisher() {
	publisher.close()
}

// newPublishing 持久化 JSON 消息，消息头带上当前链路上下文
func newPublishing(ctx context.Context, messageID string, body interface{}) (amqp.Publishing, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal message: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    messageID,
		Headers:      mqtrace.InjectHeaders(ctx, nil),
		Body:         payload,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}, nil
}

// PublishMessage 发布消息并等待 broker 确认
func PublishMessage(ctx context.Context, exchange, routingKey, messageID string, body interface{}) (err error) {
	ctx, finish := mqtrace.StartPublishSpan(ctx, exchange, routingKey)
	defer func() { finish(err) }()

	msg, err := newPublishing(ctx, messageID, body)
	if err != nil {
		return err
	}
	ch, err := publisher.get()
	if err != nil {
		return err
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, exchange, routingKey, false, false, msg)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", exchange, err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("wait for confirm: %w", err)
	}
	if !acked {
		return ErrNotConfirmed
	}
	return nil
}
