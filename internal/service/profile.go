package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/onboarding"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/repository"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/validation"
	pkgerrors "github.com/amanifadhili/encubation-management-system-sub001/pkg/errors"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/snowflake"
)

// ProfileStore 资料持久化，生产实现为 repository.ProfileRepository
type ProfileStore interface {
	GetByOwner(ctx context.Context, owner string) (*model.Profile, error)
	Create(ctx context.Context, p *model.Profile) (*model.Profile, error)
	UpdateLocked(ctx context.Context, owner string, fn repository.UpdateFunc) (*model.Profile, error)
}

// CompletionPublisher 完成度变化事件的发布方
type CompletionPublisher interface {
	PublishCompletionChanged(ctx context.Context, msg model.CompletionChangedMessage) error
}

// ProfileService 资料服务：资料的唯一数据源，客户端提交的数据在这里重新校验
type ProfileService struct {
	store     ProfileStore
	events    CompletionPublisher
	validator *validation.Validator
	now       func() time.Time
}

type ProfileOption func(*ProfileService)

func WithProfileValidator(v *validation.Validator) ProfileOption {
	return func(s *ProfileService) {
		s.validator = v
	}
}

func WithProfileClock(now func() time.Time) ProfileOption {
	return func(s *ProfileService) {
		s.now = now
	}
}

// NewProfileService events 为 nil 时不发布事件
func NewProfileService(store ProfileStore, events CompletionPublisher, opts ...ProfileOption) *ProfileService {
	s := &ProfileService{
		store:     store,
		events:    events,
		validator: validation.New(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate 首次访问时创建空资料
func (s *ProfileService) GetOrCreate(ctx context.Context, owner string) (*model.Profile, error) {
	if owner == "" {
		return nil, pkgerrors.InvalidUserID
	}

	p, err := s.store.GetByOwner(ctx, owner)
	if err == nil {
		return p, nil
	}
	if !stderrors.Is(err, pkgerrors.ProfileNotFound) {
		return nil, err
	}

	publicID, err := snowflake.NextPublicID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate profile id: %w", err)
	}

	created, err := s.store.Create(ctx, &model.Profile{PublicID: publicID, OwnerID: owner})
	if err != nil {
		return nil, err
	}

	logger.Logger.Info("Profile created",
		zap.String("owner_id", owner),
		zap.String("public_id", created.PublicID),
	)
	return created, nil
}

// Completion 资料不存在时视为全部未完成
func (s *ProfileService) Completion(ctx context.Context, owner string) (model.Completion, error) {
	p, err := s.store.GetByOwner(ctx, owner)
	if stderrors.Is(err, pkgerrors.ProfileNotFound) {
		return model.Completion{}, nil
	}
	if err != nil {
		return model.Completion{}, err
	}
	return onboarding.Derive(p), nil
}

// SubmitPhase 校验并写入一个阶段中本次提交涉及的字段，返回更新后的资料
func (s *ProfileService) SubmitPhase(ctx context.Context, owner string, phase model.Phase, fields model.FieldSet) (*model.Profile, error) {
	if !phase.Valid() {
		return nil, pkgerrors.PhaseInvalid
	}

	results := s.validator.ValidatePhase(phase, fields)
	if validation.Failed(results) {
		return nil, &validation.Error{Results: validation.Invalid(results)}
	}

	if _, err := s.GetOrCreate(ctx, owner); err != nil {
		return nil, err
	}

	var previous int
	updated, err := s.store.UpdateLocked(ctx, owner, func(p *model.Profile) ([]string, error) {
		if onboarding.NewNavigation(onboarding.Derive(p), nil).IsLocked(phase) {
			return nil, pkgerrors.PhaseLocked
		}
		previous = p.CompletionPercentage

		if err := p.Apply(fields); err != nil {
			return nil, pkgerrors.InvalidRequest.WithMessage(err.Error())
		}
		if phase == model.Phase1 && !p.PhaseValues(model.Phase1).Has(model.FieldPhone) {
			return nil, pkgerrors.PhoneRequired
		}

		p.CompletionPercentage = onboarding.Percentage(onboarding.Derive(p))

		columns := make([]string, 0, len(fields)+2)
		for _, id := range fields.IDs() {
			columns = append(columns, string(id))
		}
		return append(columns, "completion_percentage", "updated_at"), nil
	})
	if err != nil {
		return nil, err
	}

	logger.Logger.Info("Profile phase saved",
		zap.String("owner_id", owner),
		zap.String("phase", phase.Key()),
		zap.Int("fields", len(fields)),
		zap.Int("completion_percentage", updated.CompletionPercentage),
	)

	if updated.CompletionPercentage != previous {
		s.publish(ctx, updated, phase, previous)
	}
	return updated, nil
}

// publish 尽力而为，失败只记录日志
func (s *ProfileService) publish(ctx context.Context, p *model.Profile, phase model.Phase, previous int) {
	if s.events == nil {
		return
	}

	msg := model.CompletionChangedMessage{
		OwnerID:            p.OwnerID,
		ProfileID:          p.PublicID,
		Phase:              phase,
		PreviousPercentage: previous,
		Percentage:         p.CompletionPercentage,
		OccurredAt:         s.now().UTC().Format(time.RFC3339),
	}
	if err := s.events.PublishCompletionChanged(ctx, msg); err != nil {
		logger.Logger.Warn("Failed to publish completion change",
			zap.String("owner_id", p.OwnerID),
			zap.Int("percentage", p.CompletionPercentage),
			zap.Error(err),
		)
	}
}
