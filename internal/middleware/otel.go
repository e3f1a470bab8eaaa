package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// httpMetrics HTTP 服务端指标，InitMetrics 之前为 nil，中间件只做透传
type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	reqSize  metric.Int64Histogram
	respSize metric.Int64Histogram
	active   metric.Int64UpDownCounter
}

var serverMetrics *httpMetrics

// toValidUTF8 统一清洗用户可控字符串，防止非法 UTF-8 触发指标序列化失败
func toValidUTF8(val string) string {
	return strings.ToValidUTF8(val, "")
}

// InitMetrics 初始化 HTTP 指标
func InitMetrics(meter metric.Meter) error {
	m := &httpMetrics{}
	var err error

	if m.requests, err = meter.Int64Counter(
		"http.server.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return err
	}

	if m.duration, err = meter.Float64Histogram(
		"http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	); err != nil {
		return err
	}

	if m.reqSize, err = meter.Int64Histogram(
		"http.server.request.size",
		metric.WithDescription("HTTP request size"),
		metric.WithUnit("By"),
	); err != nil {
		return err
	}

	if m.respSize, err = meter.Int64Histogram(
		"http.server.response.size",
		metric.WithDescription("HTTP response size"),
		metric.WithUnit("By"),
	); err != nil {
		return err
	}

	if m.active, err = meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return err
	}

	serverMetrics = m
	return nil
}

// MetricsMiddleware 记录请求数、耗时与大小。span 由 hertztracing 的服务端中间件创建，
// 这里只补充资料所有者等业务属性
func MetricsMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		m := serverMetrics
		if m == nil {
			c.Next(ctx)
			return
		}

		start := time.Now()
		m.active.Add(ctx, 1)
		defer m.active.Add(ctx, -1)

		c.Next(ctx)

		// 路由模板而不是原始路径，避免 owner/phase 放大指标基数
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		labels := metric.WithAttributes(
			semconv.HTTPMethod(toValidUTF8(string(c.Method()))),
			semconv.HTTPRoute(route),
			semconv.HTTPStatusCode(c.Response.StatusCode()),
			attribute.Bool("authenticated", isAuthenticated(ctx, c)),
		)

		m.requests.Add(ctx, 1, labels)
		m.duration.Record(ctx, time.Since(start).Seconds(), labels)
		if size := int64(c.Request.Header.ContentLength()); size > 0 {
			m.reqSize.Record(ctx, size, labels)
		}
		if size := int64(len(c.Response.Body())); size > 0 {
			m.respSize.Record(ctx, size, labels)
		}
	}
}

func isAuthenticated(ctx context.Context, c *app.RequestContext) bool {
	_, ok := GetUserID(ctx, c)
	return ok
}

// NewServerTracerConfig 创建 Hertz Server 的追踪配置
// 返回用于初始化 Hertz server 的配置选项和追踪中间件
func NewServerTracerConfig(opts ...hertztracing.Option) (config.Option, app.HandlerFunc) {
	tracer, cfg := hertztracing.NewServerTracer(opts...)
	return tracer, hertztracing.ServerMiddleware(cfg)
}
