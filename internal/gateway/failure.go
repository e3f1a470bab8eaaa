// Package gateway onboarding.Gateway 的实现：远端资料服务的 HTTP 客户端与进程内调用
package gateway

import (
	"fmt"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/validation"
)

// CodeUnavailable 请求没有拿到资料服务的响应
const CodeUnavailable = "PROFILE_SERVICE_UNAVAILABLE"

// Failure 资料服务返回的失败，Message 原样展示给用户；Fields 为资料服务给出的逐字段校验结果
type Failure struct {
	Status  int
	Code    string
	Message string
	Fields  []validation.Result
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return f.Message
	}
	return fmt.Sprintf("profile service returned HTTP %d", f.Status)
}

// FieldResults 资料服务拒绝的字段，非校验类失败时为空
func (f *Failure) FieldResults() []validation.Result {
	return f.Fields
}
