// Package handler 资料引导的 HTTP 接口
package handler

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.uber.org/zap"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/middleware"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/validation"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/errors"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/response"
)

// ownerOf 取出 token 中的 uid；缺失时直接写入 401
func ownerOf(ctx context.Context, c *app.RequestContext) (string, bool) {
	owner, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return "", false
	}
	return owner, true
}

// phaseOf 解析路径中的 :phase，不在流程内时写入 400
func phaseOf(ctx context.Context, c *app.RequestContext) (model.Phase, bool) {
	phase, err := model.ParsePhase(c.Param("phase"))
	if err != nil {
		response.Error(ctx, c, errors.PhaseInvalid.WithMessage(err.Error()))
		return 0, false
	}
	return phase, true
}

// renderError 校验错误带上逐字段结果；未归类的内部错误只记录日志，不把细节返回给调用方
func renderError(ctx context.Context, c *app.RequestContext, err error) {
	var verr *validation.Error
	if stderrors.As(err, &verr) {
		response.ErrorWithDetails(ctx, c, errors.ValidationFailed.WithMessage(verr.Error()), map[string]interface{}{
			"fields": verr.Results,
		})
		return
	}

	var def errors.Definition
	if stderrors.As(err, &def) {
		response.Error(ctx, c, err)
		return
	}

	logger.Logger.Error("Request failed",
		zap.String("path", string(c.Path())),
		zap.Error(err),
	)
	response.Error(ctx, c, errors.Internal)
}

// Health 存活探针
// GET /healthz
func Health(ctx context.Context, c *app.RequestContext) {
	response.Success(ctx, c, map[string]string{"status": "ok"})
}

// Ready 就绪探针，check 失败时返回 503
// GET /readyz
func Ready(check func(ctx context.Context) error) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := check(checkCtx); err != nil {
			logger.Logger.Warn("Readiness check failed", zap.Error(err))
			c.JSON(consts.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		response.Success(ctx, c, map[string]string{"status": "ready"})
	}
}
