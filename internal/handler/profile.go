package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/gateway"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/model/dto"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/response"
)

// ProfileHandler 资料服务接口，供门户前端与 cmd/onboard 的 HTTP 网关调用
type ProfileHandler struct {
	profiles gateway.ProfileBackend
}

func NewProfileHandler(profiles gateway.ProfileBackend) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GetProfile 获取当前用户资料，首次访问时创建空资料
// GET /v1/profile
func (h *ProfileHandler) GetProfile(ctx context.Context, c *app.RequestContext) {
	owner, ok := ownerOf(ctx, c)
	if !ok {
		return
	}

	profile, err := h.profiles.GetOrCreate(ctx, owner)
	if err != nil {
		renderError(ctx, c, err)
		return
	}
	response.Success(ctx, c, profile)
}

// GetCompletion 获取当前用户的阶段完成情况
// GET /v1/profile/completion
func (h *ProfileHandler) GetCompletion(ctx context.Context, c *app.RequestContext) {
	owner, ok := ownerOf(ctx, c)
	if !ok {
		return
	}

	completion, err := h.profiles.Completion(ctx, owner)
	if err != nil {
		renderError(ctx, c, err)
		return
	}
	response.Success(ctx, c, completion)
}

// SubmitPhase 保存一个阶段的字段；服务端按同一套规则重新校验
// PUT /v1/profile/phases/:phase
func (h *ProfileHandler) SubmitPhase(ctx context.Context, c *app.RequestContext) {
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

	profile, err := h.profiles.SubmitPhase(ctx, owner, phase, req.Fields)
	if err != nil {
		renderError(ctx, c, err)
		return
	}
	response.Success(ctx, c, profile)
}
