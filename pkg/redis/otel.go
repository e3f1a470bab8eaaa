// Package redis go-redis 的链路与指标 Hook
package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const maxKeyLen = 100

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// TracingHook 每条命令或每个 pipeline 一个 span，并记录次数与耗时。
// 全局 provider 未配置导出器时为 noop
type TracingHook struct {
	tracer   trace.Tracer
	base     []attribute.KeyValue
	commands metric.Int64Counter
	duration metric.Float64Histogram
}

func NewTracingHook(serviceName string, db int) *TracingHook {
	scope := serviceName + ".redis"
	meter := otel.Meter(scope)

	h := &TracingHook{
		tracer: otel.Tracer(scope),
		base:   []attribute.KeyValue{semconv.DBSystemRedis, semconv.DBRedisDBIndex(db)},
	}
	h.commands, _ = meter.Int64Counter("redis.commands.total",
		metric.WithDescription("Redis commands executed"),
		metric.WithUnit("{command}"),
	)
	h.duration, _ = meter.Float64Histogram("redis.command.duration",
		metric.WithDescription("Redis command latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	)
	return h
}

func (h *TracingHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *TracingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		attrs := []attribute.KeyValue{semconv.DBOperation(cmd.Name())}
		if key := keyOf(cmd.Args()); key != "" {
			attrs = append(attrs, attribute.String("redis.key", key))
		}
		return h.observe(ctx, cmd.Name(), attrs, func(ctx context.Context) error {
			return next(ctx, cmd)
		})
	}
}

func (h *TracingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		names := make([]string, len(cmds))
		for i, cmd := range cmds {
			names[i] = cmd.Name()
		}
		attrs := []attribute.KeyValue{
			attribute.Int("redis.pipeline.count", len(cmds)),
			attribute.StringSlice("redis.pipeline.commands", names),
		}
		return h.observe(ctx, "pipeline", attrs, func(ctx context.Context) error {
			return next(ctx, cmds)
		})
	}
}

func (h *TracingHook) observe(ctx context.Context, op string, attrs []attribute.KeyValue, run func(context.Context) error) error {
	ctx, span := h.tracer.Start(ctx, "redis."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(h.base...),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	start := time.Now()
	err := run(ctx)
	status := statusOf(err)
	if status == "error" {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}

	labels := metric.WithAttributes(
		attribute.String("redis.command", op),
		attribute.String("redis.status", status),
	)
	if h.commands != nil {
		h.commands.Add(ctx, 1, labels)
	}
	if h.duration != nil {
		h.duration.Record(ctx, time.Since(start).Seconds(), labels)
	}
	return err
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, redis.Nil):
		return "not_found"
	default:
		return "error"
	}
}

// keyOf 取命令的第一个键。草稿、锁等键中带有用户标识，只保留前三段
func keyOf(args []interface{}) string {
	if len(args) < 2 {
		return ""
	}
	key, ok := args[1].(string)
	if !ok || !strings.Contains(key, ":") {
		return ""
	}
	if parts := strings.SplitN(key, ":", 4); len(parts) == 4 {
		return strings.Join(parts[:3], ":") + ":***"
	}
	if len(key) > maxKeyLen {
		return key[:maxKeyLen] + "..."
	}
	return key
}
