package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/jwt"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/amanifadhili/encubation-management-system-sub001/pkg/errors"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/response"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/token"
)

const (
	IdentityKey = token.IdentityKey
)

var (
	authMiddleware *jwt.HertzJWTMiddleware
)

func initAuthMiddleware() error {
	// 与 token 包共享密钥和过期配置
	sharedGenerator := token.GetGenerator()
	if sharedGenerator == nil {
		return fmt.Errorf("token generator not initialized, call token.Init() first")
	}

	mw, err := jwt.New(&jwt.HertzJWTMiddleware{
		Realm:       "incubation portal",
		Key:         sharedGenerator.Key,
		Timeout:     sharedGenerator.Timeout,
		MaxRefresh:  sharedGenerator.MaxRefresh,
		IdentityKey: sharedGenerator.IdentityKey,
		TimeFunc:    sharedGenerator.TimeFunc,

		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			uid, err := token.UserIDFromClaims(jwt.ExtractClaims(ctx, c))
			if err != nil {
				return nil
			}
			trace.SpanFromContext(ctx).SetAttributes(attribute.String("enduser.id", uid))
			return uid
		},

		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			def := errors.Unauthorized.WithMessage(message)
			if code == http.StatusForbidden {
				def = errors.Unauthorized.WithMessage("Token does not identify a user")
			}
			response.Error(ctx, c, def)
		},

		// 没有 uid 的 token 视为未授权
		Authorizator: func(data interface{}, ctx context.Context, c *app.RequestContext) bool {
			uid, ok := data.(string)
			return ok && uid != ""
		},

		TokenLookup:   "header: Authorization, query: token",
		TokenHeadName: "Bearer",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize auth middleware: %w", err)
	}

	authMiddleware = mw
	return nil
}

func AuthMiddleware() app.HandlerFunc {
	if authMiddleware == nil {
		panic("AuthMiddleware not initialized, call Init() first")
	}
	return authMiddleware.MiddlewareFunc()
}

// GetUserID 从请求上下文中获取资料所有者 ID（token 中的 uid）
func GetUserID(ctx context.Context, c *app.RequestContext) (string, bool) {
	userID, exists := c.Get(IdentityKey)
	if !exists {
		return "", false
	}

	id, ok := userID.(string)
	if !ok || id == "" {
		return "", false
	}

	return id, true
}
