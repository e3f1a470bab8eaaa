package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
)

// /v1 只有读取、提交阶段（POST/PUT）与写草稿三类请求，鉴权只走 Bearer token
var (
	corsMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}, ", ")
	corsHeaders = strings.Join([]string{"Authorization", "Content-Type", "Accept", "X-Request-ID"}, ", ")
	corsExposed = strings.Join([]string{rateLimitHeader, rateRemainingHeader, rateResetHeader}, ", ")
)

// CORSMiddleware 门户前端与 API 不同源。allowed 为空时接受任意来源；
// 来源不在名单内时不写 CORS 头，由浏览器拦截。预检请求直接返回 204
func CORSMiddleware(allowed ...string) app.HandlerFunc {
	origins := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins[o] = struct{}{}
		}
	}

	return func(ctx context.Context, c *app.RequestContext) {
		origin := string(c.GetHeader("Origin"))
		_, listed := origins[origin]
		if origin != "" && (len(origins) == 0 || listed) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", corsMethods)
			c.Header("Access-Control-Allow-Headers", corsHeaders)
			c.Header("Access-Control-Expose-Headers", corsExposed)
			c.Header("Access-Control-Max-Age", "600")
		}
		c.Header("Vary", "Origin")

		if string(c.Method()) == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next(ctx)
	}
}
