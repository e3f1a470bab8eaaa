package mq

import (
	"context"
	stderrors "errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/amanifadhili/encubation-management-system-sub001/pkg/errors"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
	mqtrace "github.com/amanifadhili/encubation-management-system-sub001/pkg/mq"
)

type MessageHandler func(ctx context.Context, body []byte) error

type ConsumeOptions struct {
	Queue         string
	ConsumerTag   string
	PrefetchCount int
	Handler       MessageHandler
}

// Consume 阻塞消费直到 ctx 结束或 channel 关闭。
// 处理成功 ack；SkipMessageError ack 后丢弃；其它错误 nack 并重新入队
func Consume(ctx context.Context, opts ConsumeOptions) error {
	c := Connection()
	if c == nil {
		return fmt.Errorf("RabbitMQ connection is nil")
	}

	ch, err := c.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if opts.PrefetchCount > 0 {
		if err := ch.Qos(opts.PrefetchCount, 0, false); err != nil {
			return fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	msgs, err := ch.Consume(
		opts.Queue,
		opts.ConsumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logger.Logger.Info("Started consuming messages",
		zap.String("queue", opts.Queue),
		zap.String("consumer_tag", opts.ConsumerTag),
		zap.Int("prefetch_count", opts.PrefetchCount),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", opts.Queue)
			}
			handle(ctx, opts, msg)
		}
	}
}

func handle(ctx context.Context, opts ConsumeOptions, msg amqp.Delivery) {
	msgCtx, finish := mqtrace.StartProcessSpan(ctx, opts.Queue, msg)
	err := opts.Handler(msgCtx, msg.Body)

	var skip *errors.SkipMessageError
	switch {
	case err == nil:
		finish(nil)
		_ = msg.Ack(false)
	case stderrors.As(err, &skip):
		finish(nil)
		logger.Logger.Info("Message skipped",
			zap.String("queue", opts.Queue),
			zap.String("reason", skip.Reason),
		)
		_ = msg.Ack(false)
	default:
		finish(err)
		logger.Logger.Error("Failed to process message",
			zap.String("queue", opts.Queue),
			zap.String("consumer_tag", opts.ConsumerTag),
			zap.Error(err),
		)
		_ = msg.Nack(false, true)
	}
}
