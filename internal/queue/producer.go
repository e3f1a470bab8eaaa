package queue

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
	"github.com/amanifadhili/encubation-management-system-sub001/storage/mq"
)

type publishFunc func(ctx context.Context, exchange, routingKey, messageID string, body interface{}) error

// Producer 资料事件发布，实现 service.CompletionPublisher
type Producer struct {
	publish publishFunc
}

// NewProducer 使用 storage/mq 的共享连接
func NewProducer() *Producer {
	return &Producer{publish: mq.PublishMessage}
}

// PublishCompletionChanged 发布完成度变化事件，MessageID 为空时生成
func (p *Producer) PublishCompletionChanged(ctx context.Context, msg model.CompletionChangedMessage) error {
	if msg.MessageID == "" {
		msg.MessageID = "cc_" + uuid.NewString()
	}

	err := p.publish(ctx, mq.EventsExchange, mq.CompletionChangedRoutingKey, msg.MessageID, msg)
	if err != nil {
		logger.Logger.Error("Failed to publish completion changed message",
			zap.String("message_id", msg.MessageID),
			zap.String("owner_id", msg.OwnerID),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Published completion changed message",
		zap.String("message_id", msg.MessageID),
		zap.String("owner_id", msg.OwnerID),
		zap.Int("percentage", msg.Percentage),
	)
	return nil
}
