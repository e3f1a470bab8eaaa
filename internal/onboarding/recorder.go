package onboarding

import (
	"context"
	"time"
)

// Recorder 引导流程的指标出口，*metrics.OTelMetrics 实现了该接口
type Recorder interface {
	RecordOutcome(ctx context.Context, phase, outcome string)
	RecordGatewayCall(ctx context.Context, phase string, duration time.Duration, ok bool)
	RecordDraftFailure(ctx context.Context, op string)
}

// NopRecorder 不记录任何指标
type NopRecorder struct{}

func (NopRecorder) RecordOutcome(context.Context, string, string) {}
func (NopRecorder) RecordGatewayCall(context.Context, string, time.Duration, bool) {}
func (NopRecorder) RecordDraftFailure(context.Context, string) {}
