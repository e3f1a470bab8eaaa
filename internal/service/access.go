package service

import (
	"context"
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/cache"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	pkgerrors "github.com/amanifadhili/encubation-management-system-sub001/pkg/errors"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
)

// Feature 受资料完成度控制的功能
type Feature string

const (
	FeatureDashboard Feature = "dashboard"
	FeatureMessaging Feature = "messaging"
	FeatureProjects  Feature = "projects"
)

// Features 固定顺序
var Features = []Feature{FeatureDashboard, FeatureMessaging, FeatureProjects}

// 解锁所需的最低完成度
var featureThresholds = map[Feature]int{
	FeatureDashboard: 0,
	FeatureMessaging: 67,
	FeatureProjects:  100,
}

func ParseFeature(raw string) (Feature, error) {
	f := Feature(raw)
	if _, ok := featureThresholds[f]; !ok {
		return "", pkgerrors.FeatureUnknown
	}
	return f, nil
}

// Access 单个功能的开放情况
type Access struct {
	Feature    Feature `json:"feature"`
	Unlocked   bool    `json:"unlocked"`
	Required   int     `json:"required_percentage"`
	Percentage int     `json:"percentage"`
}

// CompletionCache 完成度缓存，生产实现为 cache.CompletionCache
type CompletionCache interface {
	Get(ctx context.Context, owner string) (model.Completion, bool, error)
	Set(ctx context.Context, owner string, completion model.Completion) error
}

// CompletionSource 缓存未命中时的回源
type CompletionSource interface {
	Completion(ctx context.Context, owner string) (model.Completion, error)
}

type AccessService struct {
	cache  CompletionCache
	source CompletionSource
}

// NewAccessService completionCache 可以为 nil
func NewAccessService(completionCache CompletionCache, source CompletionSource) *AccessService {
	return &AccessService{cache: completionCache, source: source}
}

// Check 单个功能
func (s *AccessService) Check(ctx context.Context, owner string, feature Feature) (Access, error) {
	threshold, ok := featureThresholds[feature]
	if !ok {
		return Access{}, pkgerrors.FeatureUnknown
	}

	completion, err := s.completion(ctx, owner)
	if err != nil {
		return Access{}, err
	}
	return access(feature, threshold, completion.Percentage), nil
}

// List 全部功能
func (s *AccessService) List(ctx context.Context, owner string) ([]Access, error) {
	completion, err := s.completion(ctx, owner)
	if err != nil {
		return nil, err
	}

	out := make([]Access, 0, len(Features))
	for _, f := range Features {
		out = append(out, access(f, featureThresholds[f], completion.Percentage))
	}
	return out, nil
}

func access(feature Feature, threshold, percentage int) Access {
	return Access{
		Feature:    feature,
		Unlocked:   percentage >= threshold,
		Required:   threshold,
		Percentage: percentage,
	}
}

// completion 缓存优先；缓存异常不影响结果，只回源
func (s *AccessService) completion(ctx context.Context, owner string) (model.Completion, error) {
	if s.cache != nil {
		c, hit, err := s.cache.Get(ctx, owner)
		switch {
		case err == nil && hit:
			return c, nil
		case err != nil && !stderrors.Is(err, cache.ErrBreakerOpen):
			logger.Logger.Warn("Completion cache read failed, falling back to profile",
				zap.String("owner_id", owner),
				zap.Error(err),
			)
		}
	}

	c, err := s.source.Completion(ctx, owner)
	if err != nil {
		return model.Completion{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, owner, c); err != nil && !stderrors.Is(err, cache.ErrBreakerOpen) {
			logger.Logger.Warn("Failed to refresh completion cache",
				zap.String("owner_id", owner),
				zap.Error(err),
			)
		}
	}
	return c, nil
}
