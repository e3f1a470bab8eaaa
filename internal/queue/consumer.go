package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/errors"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/metrics"
	"github.com/amanifadhili/encubation-management-system-sub001/storage/mq"
)

// CompletionReader 用于在消息处理时读取资料当前完成度，生产实现为 service.ProfileService
type CompletionReader interface {
	Completion(ctx context.Context, owner string) (model.Completion, error)
}

// CompletionWriter 完成度缓存，生产实现为 cache.CompletionCache
type CompletionWriter interface {
	Set(ctx context.Context, owner string, completion model.Completion) error
}

// MessageMarker 幂等标记，生产实现为 cache.MessageMarker
type MessageMarker interface {
	TryMarkProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error)
	MarkProcessed(ctx context.Context, messageID string, ttl time.Duration) error
	Unmark(ctx context.Context, messageID string) error
}

// CompletionChangedHandler 刷新功能门禁使用的完成度缓存
type CompletionChangedHandler struct {
	profiles CompletionReader
	cache    CompletionWriter
	marker   MessageMarker
	metrics  *metrics.OTelMetrics
}

func NewCompletionChangedHandler(profiles CompletionReader, cache CompletionWriter, marker MessageMarker, m *metrics.OTelMetrics) *CompletionChangedHandler {
	return &CompletionChangedHandler{profiles: profiles, cache: cache, marker: marker, metrics: m}
}

// Handle 缓存写入以资料的当前完成度为准，而不是消息里的值，乱序投递也不会写回旧值
func (h *CompletionChangedHandler) Handle(ctx context.Context, body []byte) error {
	var msg model.CompletionChangedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return &errors.SkipMessageError{Reason: fmt.Sprintf("malformed completion changed message: %v", err)}
	}
	if msg.MessageID == "" || msg.OwnerID == "" {
		return &errors.SkipMessageError{Reason: "completion changed message without id or owner"}
	}

	first, err := h.marker.TryMarkProcessing(ctx, msg.MessageID, 24*time.Hour)
	if err != nil {
		logger.Logger.Warn("Failed to check message processed status",
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)
	} else if !first {
		logger.Logger.Info("Message already processed or being processed, skipping",
			zap.String("message_id", msg.MessageID),
		)
		return &errors.SkipMessageError{Reason: fmt.Sprintf("message %s already processed", msg.MessageID)}
	}

	completion, err := h.profiles.Completion(ctx, msg.OwnerID)
	if err == nil {
		err = h.cache.Set(ctx, msg.OwnerID, completion)
	}
	if err != nil {
		if uerr := h.marker.Unmark(ctx, msg.MessageID); uerr != nil {
			logger.Logger.Warn("Failed to unmark message",
				zap.String("message_id", msg.MessageID),
				zap.Error(uerr),
			)
		}
		return fmt.Errorf("failed to refresh completion cache: %w", err)
	}

	h.metrics.RecordCompletionChanged(ctx, completion.Percentage)
	if completion.Percentage == 100 && msg.PreviousPercentage < 100 {
		logger.Logger.Info("Profile completed",
			zap.String("owner_id", msg.OwnerID),
			zap.String("profile_id", msg.ProfileID),
		)
	}

	if err := h.marker.MarkProcessed(ctx, msg.MessageID, 48*time.Hour); err != nil {
		logger.Logger.Warn("Failed to mark message as processed",
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)
	}
	return nil
}

// StartCompletionChangedConsumer 阻塞直到 ctx 结束
func StartCompletionChangedConsumer(ctx context.Context, h *CompletionChangedHandler) error {
	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         mq.CompletionChangedQueue,
		ConsumerTag:   "completion_changed_consumer",
		PrefetchCount: 10,
		Handler:       h.Handle,
	})
}
