package handler

import (
	"context"
	stderrors "errors"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/cache"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/gateway"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/model/dto"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/onboarding"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/errors"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/response"
)

// OnboardingHandler 网页端的引导流程。每个请求创建一个绑定当前用户的控制器，
// 草稿放在 Redis，同一用户同一阶段的提交由分布式锁串行化
type OnboardingHandler struct {
	profiles gateway.ProfileBackend
	drafts   onboarding.DraftBackend
	locker   *cache.Locker
	recorder onboarding.Recorder
}

// NewOnboardingHandler locker 为 nil 时只依赖控制器内的进行中检查
func NewOnboardingHandler(profiles gateway.ProfileBackend, drafts onboarding.DraftBackend, locker *cache.Locker, recorder onboarding.Recorder) *OnboardingHandler {
	if recorder == nil {
		recorder = onboarding.NopRecorder{}
	}
	return &OnboardingHandler{
		profiles: profiles,
		drafts:   drafts,
		locker:   locker,
		recorder: recorder,
	}
}

func (h *OnboardingHandler) draftStore(owner string) *onboarding.DraftStore {
	return onboarding.NewDraftStore(h.drafts, owner, h.recorder)
}

// controller 创建并加载控制器，调用方负责 Close
func (h *OnboardingHandler) controller(ctx context.Context, owner string) (*onboarding.Controller, error) {
	ctrl := onboarding.NewController(
		gateway.NewLocalGateway(h.profiles, owner),
		h.draftStore(owner),
		onboarding.WithRecorder(h.recorder),
	)
	if err := ctrl.LoadProfile(ctx); err != nil {
		ctrl.Close()
		return nil, err
	}
	return ctrl, nil
}

// GetProgress 获取当前用户的引导进度
// GET /v1/onboarding/progress
func (h *OnboardingHandler) GetProgress(ctx context.Context, c *app.RequestContext) {
	owner, ok := ownerOf(ctx, c)
	if !ok {
		return
	}

	ctrl, err := h.controller(ctx, owner)
	if err != nil {
		renderError(ctx, c, err)
		return
	}
	defer ctrl.Close()

	response.Success(ctx, c, ctrl.Navigation().Progress())
}

// SubmitPhase 提交一个阶段。缺少前置字段时存为草稿并返回 202
// POST /v1/onboarding/phases/:phase
func (h *OnboardingHandler) SubmitPhase(ctx context.Context, c *app.RequestContext) {
	owner, ok := ownerOf(ctx, c)
	if !ok {
		return
	}
	phase, ok := phaseOf(ctx, c)
	if !ok {
		return
	}

	var req dto.SubmitPhaseRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	unlock, ok := h.lock(ctx, c, owner, phase)
	if !ok {
		return
	}
	defer unlock()

	ctrl, err := h.controller(ctx, owner)
	if err != nil {
		renderError(ctx, c, err)
		return
	}
	defer ctrl.Close()

	out := ctrl.UpdatePhase(ctx, phase, req.Fields)
	data := dto.NewPhaseOutcomeData(out, ctrl.Navigation())

	switch out.Kind {
	case onboarding.OutcomeSubmitted:
		response.Success(ctx, c, data)
	case onboarding.OutcomeDeferred:
		response.Accepted(ctx, c, data, map[string]interface{}{
			"code": errors.PhaseDeferred.Code,
		})
	case onboarding.OutcomeInvalid:
		details := map[string]interface{}{"progress": data.Progress}
		if stderrors.Is(out.Err(), errors.ValidationFailed) {
			details["fields"] = out.Results
		}
		response.ErrorWithDetails(ctx, c, out.Err(), details)
	default:
		response.Error(ctx, c, out.Err())
	}
}

// lock 获取提交锁；锁已被持有时写入 409。Redis 不可用时放行，行级锁仍然保证写入安全
func (h *OnboardingHandler) lock(ctx context.Context, c *app.RequestContext, owner string, phase model.Phase) (func(), bool) {
	if h.locker == nil {
		return func() {}, true
	}

	lock, err := h.locker.TryLockSubmission(ctx, owner, phase)
	if err != nil {
		logger.Logger.Warn("Failed to acquire submission lock, continuing without it",
			zap.String("owner_id", owner),
			zap.String("phase", phase.Key()),
			zap.Error(err),
		)
		return func() {}, true
	}
	if lock == nil {
		response.Error(ctx, c, errors.PhaseSubmissionInProgress)
		return nil, false
	}

	return func() {
		if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			logger.Logger.Warn("Failed to release submission lock",
				zap.String("owner_id", owner),
				zap.String("phase", phase.Key()),
				zap.Error(err),
			)
		}
	}, true
}

// GetDraft 读取阶段草稿
// GET /v1/onboarding/drafts/:phase
func (h *OnboardingHandler) GetDraft(ctx context.Context, c *app.RequestContext) {
	owner, ok := ownerOf(ctx, c)
	if !ok {
		return
	}
	phase, ok := phaseOf(ctx, c)
	if !ok {
		return
	}

	fields := h.draftStore(owner).Load(ctx, phase)
	if fields == nil {
		response.Error(ctx, c, errors.DraftNotFound)
		return
	}
	response.Success(ctx, c, dto.DraftData{Phase: phase, Key: phase.Key(), Fields: fields})
}

// SaveDraft 自动保存入口，合并写入草稿。阶段已完成时不写入，meta.saved 为 false
// PUT /v1/onboarding/drafts/:phase
func (h *OnboardingHandler) SaveDraft(ctx context.Context, c *app.RequestContext) {
	owner, ok := ownerOf(ctx, c)
	if !ok {
		return
	}
	phase, ok := phaseOf(ctx, c)
	if !ok {
		return
	}

	var req dto.SaveDraftRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	ctrl, err := h.controller(ctx, owner)
	if err != nil {
		renderError(ctx, c, err)
		return
	}
	defer ctrl.Close()

	saved := ctrl.SaveDraft(ctx, phase, req.Fields)
	response.SuccessWithMeta(ctx, c, dto.DraftData{
		Phase:  phase,
		Key:    phase.Key(),
		Fields: ctrl.Draft(ctx, phase),
	}, map[string]interface{}{
		"saved": saved,
	})
}
