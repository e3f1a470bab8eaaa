package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics 资料引导相关指标集合，方法对 nil 接收者安全
type OTelMetrics struct {
	// 阶段提交结果
	PhaseSubmissionTotal metric.Int64Counter
	// 远端网关调用耗时
	GatewayDuration metric.Float64Histogram
	// 草稿存储失败（被吞掉的错误）
	DraftFailureTotal metric.Int64Counter
	// 完成度变化事件
	CompletionChangedTotal metric.Int64Counter
}

var (
	// 全局指标实例
	metrics *OTelMetrics
)

// InitMetrics 基于全局 MeterProvider 创建指标；未配置导出器时为 noop 实现
func InitMetrics() error {
	m, err := New(otel.Meter("incubation.onboarding"))
	if err != nil {
		return err
	}
	metrics = m
	return nil
}

// New 使用指定 meter 创建指标集合
func New(meter metric.Meter) (*OTelMetrics, error) {
	var err error
	m := &OTelMetrics{}

	m.PhaseSubmissionTotal, err = meter.Int64Counter(
		"onboarding_phase_submissions_total",
		metric.WithDescription("Phase submissions by phase and outcome"),
		metric.WithUnit("{submission}"),
	)
	if err != nil {
		return nil, err
	}

	m.GatewayDuration, err = meter.Float64Histogram(
		"onboarding_gateway_duration_seconds",
		metric.WithDescription("Time spent waiting for the profile service"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, err
	}

	m.DraftFailureTotal, err = meter.Int64Counter(
		"onboarding_draft_failures_total",
		metric.WithDescription("Draft store operations that failed and were ignored"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	m.CompletionChangedTotal, err = meter.Int64Counter(
		"onboarding_completion_changed_total",
		metric.WithDescription("Profile completion percentage changes"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// GetMetrics 获取全局指标实例，未初始化时返回 nil
func GetMetrics() *OTelMetrics {
	return metrics
}

// RecordOutcome 记录一次阶段提交的结果
func (m *OTelMetrics) RecordOutcome(ctx context.Context, phase, outcome string) {
	if m == nil {
		return
	}
	m.PhaseSubmissionTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("phase", phase),
		attribute.String("outcome", outcome),
	))
}

// RecordGatewayCall 记录网关调用耗时
func (m *OTelMetrics) RecordGatewayCall(ctx context.Context, phase string, duration time.Duration, ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failed"
	}
	m.GatewayDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("phase", phase),
		attribute.String("status", status),
	))
}

// RecordDraftFailure 记录草稿存储失败
func (m *OTelMetrics) RecordDraftFailure(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.DraftFailureTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
	))
}

// RecordCompletionChanged 记录完成度变化
func (m *OTelMetrics) RecordCompletionChanged(ctx context.Context, percentage int) {
	if m == nil {
		return
	}
	m.CompletionChangedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("percentage", percentage),
	))
}
