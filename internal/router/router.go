package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	goredis "github.com/redis/go-redis/v9"

	"github.com/amanifadhili/encubation-management-system-sub001/config"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/handler"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/middleware"
)

// Handlers 路由依赖的处理器
type Handlers struct {
	Profile    *handler.ProfileHandler
	Onboarding *handler.OnboardingHandler
	Access     *handler.AccessHandler
}

// Register 注册全部路由。tracing 为 hertztracing 的服务端中间件，ready 为就绪检查，二者都可以为 nil
func Register(h *server.Hertz, hs Handlers, redis goredis.Cmdable, tracing app.HandlerFunc, ready func(ctx context.Context) error) {
	if tracing != nil {
		h.Use(tracing)
	}
	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware(config.Cfg.CORSAllowedOrigins...))
	h.Use(middleware.MetricsMiddleware())

	h.GET("/healthz", handler.Health)
	if ready != nil {
		h.GET("/readyz", handler.Ready(ready))
	}

	v1 := h.Group("/v1")
	v1.Use(middleware.AuthMiddleware())
	v1.Use(middleware.GeneralRateLimitMiddleware(redis))

	// 资料服务
	profile := v1.Group("/profile")
	{
		profile.GET("", hs.Profile.GetProfile)
		profile.GET("/completion", hs.Profile.GetCompletion)
		profile.PUT("/phases/:phase", middleware.SubmissionRateLimitMiddleware(redis), hs.Profile.SubmitPhase)
	}

	// 引导流程
	flow := v1.Group("/onboarding")
	{
		flow.GET("/progress", hs.Onboarding.GetProgress)
		flow.POST("/phases/:phase", middleware.SubmissionRateLimitMiddleware(redis), hs.Onboarding.SubmitPhase)
		flow.GET("/drafts/:phase", hs.Onboarding.GetDraft)
		flow.PUT("/drafts/:phase", middleware.AutosaveRateLimitMiddleware(redis), hs.Onboarding.SaveDraft)
	}

	// 功能开放
	access := v1.Group("/access")
	{
		access.GET("", hs.Access.ListAccess)
		access.GET("/:feature", hs.Access.CheckAccess)
	}
}
