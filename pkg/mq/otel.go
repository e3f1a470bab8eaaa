package mq

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "incubation.rabbitmq"

// MessageHeaderCarrier 把 amqp 消息头适配为 propagation.TextMapCarrier
type MessageHeaderCarrier struct {
	Headers amqp.Table
}

func (m *MessageHeaderCarrier) Get(key string) string {
	if val, ok := m.Headers[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func (m *MessageHeaderCarrier) Set(key, value string) {
	if m.Headers == nil {
		m.Headers = make(amqp.Table)
	}
	m.Headers[key] = value
}

func (m *MessageHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(m.Headers))
	for k := range m.Headers {
		keys = append(keys, k)
	}
	return keys
}

// InjectHeaders 把当前链路上下文写入消息头，返回新的消息头
func InjectHeaders(ctx context.Context, headers amqp.Table) amqp.Table {
	carrier := &MessageHeaderCarrier{Headers: make(amqp.Table, len(headers))}
	for k, v := range headers {
		carrier.Headers[k] = v
	}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.Headers
}

// ExtractContext 从消息头恢复链路上下文
func ExtractContext(ctx context.Context, headers amqp.Table) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, &MessageHeaderCarrier{Headers: headers})
}

// StartPublishSpan 开始一次发布的 span，返回的 finish 负责结束 span 并记录指标
func StartPublishSpan(ctx context.Context, exchange, routingKey string) (context.Context, func(error)) {
	return startSpan(ctx, "rabbitmq.publish "+routingKey, "publish", trace.SpanKindProducer,
		attribute.String("messaging.rabbitmq.exchange", exchange),
		attribute.String("messaging.rabbitmq.destination.routing_key", routingKey),
	)
}

// StartProcessSpan 开始一条消息处理的 span，父 span 来自消息头
func StartProcessSpan(ctx context.Context, queue string, msg amqp.Delivery) (context.Context, func(error)) {
	ctx = ExtractContext(ctx, msg.Headers)
	return startSpan(ctx, "rabbitmq.process "+queue, "process", trace.SpanKindConsumer,
		attribute.String("messaging.rabbitmq.queue", queue),
		attribute.String("messaging.message.id", msg.MessageId),
		attribute.String("messaging.rabbitmq.destination.routing_key", msg.RoutingKey),
	)
}

func startSpan(ctx context.Context, name, operation string, kind trace.SpanKind, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	attrs = append(attrs, attribute.String("messaging.system", "rabbitmq"), attribute.String("messaging.operation", operation))
	ctx, span := otel.Tracer(instrumentation).Start(ctx, name, trace.WithSpanKind(kind), trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, func(err error) {
		status := "success"
		if err != nil {
			status = "error"
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		}
		span.End()
		recordMessage(ctx, operation, status, time.Since(start))
	}
}

func recordMessage(ctx context.Context, operation, status string, d time.Duration) {
	meter := otel.Meter(instrumentation)
	labels := metric.WithAttributes(
		attribute.String("messaging.operation", operation),
		attribute.String("messaging.status", status),
	)
	if total, err := meter.Int64Counter("mq.messages.total",
		metric.WithDescription("Total number of RabbitMQ messages"),
		metric.WithUnit("{message}"),
	); err == nil {
		total.Add(ctx, 1, labels)
	}
	if hist, err := meter.Float64Histogram("mq.message.duration",
		metric.WithDescription("RabbitMQ publish and processing duration"),
		metric.WithUnit("s"),
	); err == nil {
		hist.Record(ctx, d.Seconds(), labels)
	}
}
