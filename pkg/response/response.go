package response

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/amanifadhili/encubation-management-system-sub001/pkg/errors"
)

// ErrorResponse 统一的错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Details map[string]interface{} `json:"details,omitempty"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
}

// SuccessResponse 统一的成功响应格式
type SuccessResponse struct {
	Data interface{}            `json:"data"`
	Meta map[string]interface{} `json:"meta,omitempty"`
}

func errorToHTTPStatus(err error) int {
	var def errors.Definition
	if !stderrors.As(err, &def) {
		return http.StatusInternalServerError
	}

	// 根据错误码映射 HTTP 状态码
	switch def.Code {
	case errors.TooManyRequests.Code:
		return http.StatusTooManyRequests // 429
	case errors.InvalidRequest.Code, errors.InvalidUserID.Code,
		errors.PhaseInvalid.Code, errors.FeatureUnknown.Code:
		return http.StatusBadRequest // 400
	case errors.Unauthorized.Code:
		return http.StatusUnauthorized // 401
	case errors.FeatureLocked.Code:
		return http.StatusForbidden // 403
	case errors.ProfileNotFound.Code, errors.DraftNotFound.Code:
		return http.StatusNotFound // 404
	case errors.PhaseLocked.Code, errors.PhaseSubmissionInProgress.Code:
		return http.StatusConflict // 409
	case errors.ValidationFailed.Code, errors.PhoneRequired.Code:
		return http.StatusUnprocessableEntity // 422
	case errors.PhaseSubmissionFailed.Code:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}

func toDetail(err error, details map[string]interface{}) ErrorDetail {
	var def errors.Definition
	if stderrors.As(err, &def) {
		return ErrorDetail{Code: def.Code, Message: def.Message, Details: details}
	}
	return ErrorDetail{Code: errors.Internal.Code, Message: err.Error(), Details: details}
}

// Error 返回错误响应
func Error(ctx context.Context, c *app.RequestContext, err error) {
	c.JSON(errorToHTTPStatus(err), ErrorResponse{Error: toDetail(err, nil)})
}

func ErrorWithDetails(ctx context.Context, c *app.RequestContext, err error, details map[string]interface{}) {
	c.JSON(errorToHTTPStatus(err), ErrorResponse{Error: toDetail(err, details)})
}

func Success(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
	})
}

func SuccessWithMeta(ctx context.Context, c *app.RequestContext, data interface{}, meta map[string]interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

// Accepted 返回 202，用于已保存为草稿但尚未提交的请求
func Accepted(ctx context.Context, c *app.RequestContext, data interface{}, meta map[string]interface{}) {
	c.JSON(http.StatusAccepted, SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

func BindError(ctx context.Context, c *app.RequestContext, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    errors.InvalidRequest.Code,
			Message: err.Error(),
		},
	})
}

// NoContent 返回 204 No Content（用于 DELETE 等操作）
func NoContent(ctx context.Context, c *app.RequestContext) {
	c.Status(http.StatusNoContent)
}
