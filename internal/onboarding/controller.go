// Package onboarding 资料分阶段填写流程：状态控制器、完成度推导、阶段导航与草稿
package onboarding

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/validation"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/errors"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
)

// Gateway 远端资料服务的边界，只做传输不做校验
type Gateway interface {
	FetchProfile(ctx context.Context) (*model.Profile, error)
	FetchCompletion(ctx context.Context) (model.Completion, error)
	SubmitPhase(ctx context.Context, phase model.Phase, fields model.FieldSet) (*model.Profile, error)
}

// ErrControllerClosed 控制器已关闭
var ErrControllerClosed = stderrors.New("onboarding controller is closed")

// prerequisites 提交前必须具备的字段。Phase1 的身份信息没有手机号时先存草稿
var prerequisites = map[model.Phase][]model.FieldID{
	model.Phase1: {model.FieldPhone},
}

// Controller 资料与完成度的唯一写入方。快照由 mu 保护，网关调用期间不持有 mu
type Controller struct {
	gateway   Gateway
	drafts    *DraftStore
	validator *validation.Validator
	recorder  Recorder

	mu         sync.RWMutex
	profile    *model.Profile
	completion model.Completion
	drafted    map[model.Phase]bool
	inflight   map[model.Phase]bool
	closed     bool

	// draftMu 串行化草稿写入与提交成功后的清理，保证阶段完成后不会再被自动保存覆盖
	draftMu sync.Mutex
}

type Option func(*Controller)

// WithValidator 替换默认校验器（测试中注入固定时钟）
func WithValidator(v *validation.Validator) Option {
	return func(c *Controller) {
		c.validator = v
	}
}

// WithRecorder 注入指标
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		if r != nil {
			c.recorder = r
		}
	}
}

// NewController 创建控制器，使用前需要 LoadProfile
func NewController(gateway Gateway, drafts *DraftStore, opts ...Option) *Controller {
	c := &Controller{
		gateway:   gateway,
		drafts:    drafts,
		validator: validation.New(),
		recorder:  NopRecorder{},
		drafted:   make(map[model.Phase]bool),
		inflight:  make(map[model.Phase]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadProfile 拉取远端资料并重算完成度；失败时保留原有状态
func (c *Controller) LoadProfile(ctx context.Context) error {
	if c.isClosed() {
		return ErrControllerClosed
	}

	profile, err := c.gateway.FetchProfile(ctx)
	if err != nil {
		logger.Logger.Warn("Failed to load profile",
			zap.String("owner_id", c.drafts.Owner()),
			zap.Error(err),
		)
		return fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return fmt.Errorf("load profile: %w", errors.ProfileNotFound)
	}

	drafted := make(map[model.Phase]bool)
	for _, phase := range model.Sequence {
		if c.drafts.Load(ctx, phase) != nil {
			drafted[phase] = true
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = profile.Clone()
	c.drafted = drafted
	c.recomputeLocked()
	return nil
}

// RecomputeCompletion 从当前快照重新推导完成度。曾经完成的阶段不会因此回退
func (c *Controller) RecomputeCompletion() model.Completion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recomputeLocked()
}

func (c *Controller) recomputeLocked() model.Completion {
	derived := Derive(c.profile)
	if lost := regressed(c.completion, derived); len(lost) > 0 {
		phases := make([]string, 0, len(lost))
		for _, phase := range lost {
			phases = append(phases, phase.Key())
		}
		logger.Logger.Warn("Profile snapshot lost completed phases, keeping them complete",
			zap.String("owner_id", c.drafts.Owner()),
			zap.Strings("phases", phases),
		)
	}
	c.completion = latch(c.completion, derived)
	return c.completion
}

// Profile 当前资料的副本；未加载时为 nil
func (c *Controller) Profile() *model.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profile.Clone()
}

// Completion 当前完成度
func (c *Controller) Completion() model.Completion {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.completion
}

// Navigation 当前导航快照
func (c *Controller) Navigation() Navigation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return NewNavigation(c.completion, c.drafted)
}

// Draft 读取阶段草稿
func (c *Controller) Draft(ctx context.Context, phase model.Phase) model.FieldSet {
	if !phase.Valid() {
		return nil
	}
	return c.drafts.Load(ctx, phase)
}

func (c *Controller) UpdatePhase1(ctx context.Context, fields model.FieldSet) Outcome {
	return c.UpdatePhase(ctx, model.Phase1, fields)
}

func (c *Controller) UpdatePhase2(ctx context.Context, fields model.FieldSet) Outcome {
	return c.UpdatePhase(ctx, model.Phase2, fields)
}

func (c *Controller) UpdatePhase3(ctx context.Context, fields model.FieldSet) Outcome {
	return c.UpdatePhase(ctx, model.Phase3, fields)
}

func (c *Controller) UpdatePhase5(ctx context.Context, fields model.FieldSet) Outcome {
	return c.UpdatePhase(ctx, model.Phase5, fields)
}

// UpdatePhase 校验并提交一个阶段的数据。
// 校验失败不会调用网关；缺少前置字段时写入草稿并返回 Deferred；网关失败时状态不变。
func (c *Controller) UpdatePhase(ctx context.Context, phase model.Phase, fields model.FieldSet) Outcome {
	out := c.updatePhase(ctx, phase, fields)
	c.recorder.RecordOutcome(ctx, phase.Key(), string(out.Kind))
	return out
}

func (c *Controller) updatePhase(ctx context.Context, phase model.Phase, fields model.FieldSet) Outcome {
	if !phase.Valid() {
		return rejected(phase, errors.PhaseInvalid, model.Completion{})
	}

	c.mu.RLock()
	closed := c.closed
	profile := c.profile.Clone()
	completion := c.completion
	locked := NewNavigation(c.completion, c.drafted).IsLocked(phase)
	c.mu.RUnlock()

	switch {
	case closed:
		return failed(phase, errors.Internal.WithMessage(ErrControllerClosed.Error()), completion)
	case profile == nil:
		return failed(phase, errors.ProfileNotFound.WithMessage("Profile has not been loaded"), completion)
	case locked:
		return rejected(phase, errors.PhaseLocked, completion)
	}

	if results := c.validator.ValidatePhase(phase, fields); validation.Failed(results) {
		return invalidOutcome(phase, validation.Invalid(results), errors.ValidationFailed.Message, errors.ValidationFailed, completion)
	}

	if !c.acquire(phase) {
		return Outcome{
			Phase:      phase,
			Kind:       OutcomeBusy,
			Message:    errors.PhaseSubmissionInProgress.Message,
			Completion: completion,
			err:        errors.PhaseSubmissionInProgress,
		}
	}
	defer c.release(phase)

	payload := c.drafts.Load(ctx, phase).Overlay(fields)
	if missing := fillPrerequisites(phase, payload, profile); len(missing) > 0 {
		return c.deferPhase(ctx, phase, payload, missing)
	}

	// 草稿中的值未经过校验，合并后整体再校验一次
	if results := c.validator.ValidatePhase(phase, payload); validation.Failed(results) {
		return invalidOutcome(phase, validation.Invalid(results), errors.ValidationFailed.Message, errors.ValidationFailed, completion)
	}

	start := time.Now()
	updated, err := c.gateway.SubmitPhase(ctx, phase, payload)
	if err == nil && updated == nil {
		err = stderrors.New("profile service returned an empty profile")
	}
	c.recorder.RecordGatewayCall(ctx, phase.Key(), time.Since(start), err == nil)
	if err != nil {
		logger.Logger.Warn("Phase submission failed",
			zap.String("owner_id", c.drafts.Owner()),
			zap.String("phase", phase.Key()),
			zap.Error(err),
		)
		if results := remoteResults(err); len(results) > 0 {
			return invalidOutcome(phase, results, err.Error(), err, completion)
		}
		return failed(phase, submissionError(err), completion)
	}

	c.draftMu.Lock()
	c.mu.Lock()
	c.profile.CopyPhase(updated, phase)
	c.profile.CompletionPercentage = updated.CompletionPercentage
	delete(c.drafted, phase)
	completion = c.recomputeLocked()
	c.mu.Unlock()
	c.drafts.Clear(ctx, phase)
	c.draftMu.Unlock()

	out := Outcome{Phase: phase, Kind: OutcomeSubmitted, Completion: completion}
	if completion.Done(phase) {
		if next, ok := NextPhaseAfter(phase); ok {
			out.Next = &next
		}
	}
	return out
}

func (c *Controller) deferPhase(ctx context.Context, phase model.Phase, payload model.FieldSet, missing []model.FieldID) Outcome {
	c.draftMu.Lock()
	c.drafts.Save(ctx, phase, payload)
	c.mu.Lock()
	c.drafted[phase] = true
	completion := c.completion
	c.mu.Unlock()
	c.draftMu.Unlock()

	fields := make([]string, 0, len(missing))
	for _, id := range missing {
		fields = append(fields, string(id))
	}
	logger.Logger.Info("Phase submission deferred",
		zap.String("owner_id", c.drafts.Owner()),
		zap.String("phase", phase.Key()),
		zap.Strings("missing", fields),
	)

	out := Outcome{
		Phase:      phase,
		Kind:       OutcomeDeferred,
		Message:    errors.PhaseDeferred.Message,
		Missing:    missing,
		Completion: completion,
	}
	// 调用方应前进到缺失字段所在的分组继续填写
	if table, ok := validation.TableFor(phase); ok {
		if section, ok := table.SectionOf(missing[0]); ok {
			out.Section = section.Name
		}
	}
	return out
}

// SaveDraft 合并写入阶段草稿（自动保存入口）。阶段已完成或不在流程内时不做任何事，返回 false
func (c *Controller) SaveDraft(ctx context.Context, phase model.Phase, fields model.FieldSet) bool {
	if !phase.Valid() || len(fields) == 0 {
		return false
	}

	c.draftMu.Lock()
	defer c.draftMu.Unlock()

	c.mu.RLock()
	skip := c.closed || c.completion.Done(phase)
	c.mu.RUnlock()
	if skip {
		return false
	}

	merged := c.drafts.Load(ctx, phase).Overlay(fields).Compact()
	if len(merged) == 0 {
		return false
	}
	c.drafts.Save(ctx, phase, merged)

	c.mu.Lock()
	c.drafted[phase] = true
	c.mu.Unlock()
	return true
}

// Close 结束控制器生命周期，之后的提交与草稿写入都会被拒绝
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Controller) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Controller) acquire(phase model.Phase) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[phase] {
		return false
	}
	c.inflight[phase] = true
	return true
}

func (c *Controller) release(phase model.Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, phase)
}

// fillPrerequisites 提交数据缺少前置字段时，用资料中已有的值补齐（连同该字段所在分组），
// 返回仍然缺失的字段
func fillPrerequisites(phase model.Phase, payload model.FieldSet, profile *model.Profile) []model.FieldID {
	table, _ := validation.TableFor(phase)

	var missing []model.FieldID
	for _, id := range prerequisites[phase] {
		if payload.Has(id) {
			continue
		}
		if len(profile.Value(id)) == 0 {
			missing = append(missing, id)
			continue
		}
		section, ok := table.SectionOf(id)
		if !ok {
			payload[id] = profile.Value(id)
			continue
		}
		for _, f := range section.Fields {
			if _, present := payload[f]; !present {
				if values := profile.Value(f); len(values) > 0 {
					payload[f] = values
				}
			}
		}
	}
	return missing
}

// fieldResulter 带逐字段校验结果的错误，如 *validation.Error 与 *gateway.Failure
type fieldResulter interface {
	FieldResults() []validation.Result
}

// remoteResults 资料服务拒绝提交时给出的无效字段
func remoteResults(err error) []validation.Result {
	var fr fieldResulter
	if !stderrors.As(err, &fr) {
		return nil
	}
	return validation.Invalid(fr.FieldResults())
}

func submissionError(err error) error {
	var def errors.Definition
	if stderrors.As(err, &def) {
		return def
	}
	return errors.PhaseSubmissionFailed.WithMessage(err.Error())
}
