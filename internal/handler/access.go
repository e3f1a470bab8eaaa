package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/service"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/errors"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/response"
)

// AccessChecker 功能开放判定，生产实现为 service.AccessService
type AccessChecker interface {
	Check(ctx context.Context, owner string, feature service.Feature) (service.Access, error)
	List(ctx context.Context, owner string) ([]service.Access, error)
}

type AccessHandler struct {
	access AccessChecker
}

func NewAccessHandler(access AccessChecker) *AccessHandler {
	return &AccessHandler{access: access}
}

// ListAccess 列出所有受完成度控制的功能
// GET /v1/access
func (h *AccessHandler) ListAccess(ctx context.Context, c *app.RequestContext) {
	owner, ok := ownerOf(ctx, c)
	if !ok {
		return
	}

	list, err := h.access.List(ctx, owner)
	if err != nil {
		renderError(ctx, c, err)
		return
	}
	response.Success(ctx, c, list)
}

// CheckAccess 判断单个功能是否开放，未开放时返回 403 并附带所需完成度
// GET /v1/access/:feature
func (h *AccessHandler) CheckAccess(ctx context.Context, c *app.RequestContext) {
	owner, ok := ownerOf(ctx, c)
	if !ok {
		return
	}
	feature, err := service.ParseFeature(c.Param("feature"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	access, err := h.access.Check(ctx, owner, feature)
	if err != nil {
		renderError(ctx, c, err)
		return
	}
	if !access.Unlocked {
		response.ErrorWithDetails(ctx, c, errors.FeatureLocked, map[string]interface{}{
			"feature":             access.Feature,
			"required_percentage": access.Required,
			"percentage":          access.Percentage,
		})
		return
	}
	response.Success(ctx, c, access)
}
