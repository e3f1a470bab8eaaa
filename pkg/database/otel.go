package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	spanKey  = "otel:span"
	startKey = "otel:start_time"
)

// PluginConfig 插件配置
type PluginConfig struct {
	ServiceName   string
	EnableMetrics bool
	MaxSQLLength  int
}

// DefaultPluginConfig 默认配置；SQL 只记录语句模板，不记录参数
func DefaultPluginConfig() PluginConfig {
	return PluginConfig{
		ServiceName:   "incubation-portal",
		EnableMetrics: true,
		MaxSQLLength:  500,
	}
}

// OTELPlugin GORM OpenTelemetry 插件
type OTELPlugin struct {
	tracer   trace.Tracer
	config   PluginConfig
	queries  metric.Int64Counter
	duration metric.Float64Histogram
}

func NewOTELPlugin(config PluginConfig) *OTELPlugin {
	if config.ServiceName == "" {
		config.ServiceName = DefaultPluginConfig().ServiceName
	}

	meter := otel.Meter(config.ServiceName + ".gorm")
	queries, _ := meter.Int64Counter(
		"db.queries.total",
		metric.WithDescription("Total number of database queries"),
		metric.WithUnit("{query}"),
	)
	duration, _ := meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Database query duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)

	return &OTELPlugin{
		tracer:   otel.Tracer(config.ServiceName + ".gorm"),
		config:   config,
		queries:  queries,
		duration: duration,
	}
}

func (p *OTELPlugin) Name() string {
	return "otel_plugin"
}

// Initialize 在 gorm 的各类回调前后挂载 span
func (p *OTELPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after); err != nil {
		return err
	}
	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("otel:before_row", p.before); err != nil {
		return err
	}
	return cb.Row().After("gorm:row").Register("otel:after_row", p.after)
}

func (p *OTELPlugin) before(db *gorm.DB) {
	ctx, span := p.tracer.Start(db.Statement.Context, "db."+tableName(db),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemPostgreSQL,
			attribute.String("db.table", tableName(db)),
		),
	)
	db.InstanceSet(startKey, time.Now())
	db.InstanceSet(spanKey, span)
	db.Statement.Context = ctx
}

func (p *OTELPlugin) after(db *gorm.DB) {
	v, ok := db.InstanceGet(spanKey)
	if !ok {
		return
	}
	span, ok := v.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	operation := operationName(db.Statement.SQL.String())
	span.SetName(operation)
	span.SetAttributes(
		semconv.DBStatement(p.truncate(db.Statement.SQL.String())),
		attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
	)

	status := "success"
	switch {
	case db.Error == nil:
	case errors.Is(db.Error, gorm.ErrRecordNotFound):
		status = "not_found"
	default:
		status = "error"
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if !p.config.EnableMetrics {
		return
	}
	var elapsed float64
	if start, ok := db.InstanceGet(startKey); ok {
		if t, ok := start.(time.Time); ok {
			elapsed = time.Since(t).Seconds()
		}
	}
	p.record(db.Statement.Context, operation, status, elapsed)
}

func (p *OTELPlugin) record(ctx context.Context, operation, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("db.operation", operation),
		attribute.String("db.status", status),
	)
	if p.queries != nil {
		p.queries.Add(ctx, 1, attrs)
	}
	if p.duration != nil {
		p.duration.Record(ctx, seconds, attrs)
	}
}

func (p *OTELPlugin) truncate(sql string) string {
	if p.config.MaxSQLLength > 0 && len(sql) > p.config.MaxSQLLength {
		return sql[:p.config.MaxSQLLength] + "..."
	}
	return sql
}

func tableName(db *gorm.DB) string {
	if db.Statement.Table != "" {
		return db.Statement.Table
	}
	return "unknown"
}

func operationName(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	switch {
	case sql == "":
		return "db.unknown"
	case strings.HasPrefix(sql, "SELECT"):
		return "db.select"
	case strings.HasPrefix(sql, "INSERT"):
		return "db.insert"
	case strings.HasPrefix(sql, "UPDATE"):
		return "db.update"
	case strings.HasPrefix(sql, "DELETE"):
		return "db.delete"
	default:
		return "db.query"
	}
}

// WithDefaultOTELPlugin 为 db 注册默认配置的插件
func WithDefaultOTELPlugin(db *gorm.DB, serviceName string) error {
	config := DefaultPluginConfig()
	config.ServiceName = serviceName
	return db.Use(NewOTELPlugin(config))
}
