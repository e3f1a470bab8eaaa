package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Cfg 进程启动时从 .env 与环境变量解析
var Cfg Config

type Config struct {
	// 服务配置
	ServerPort  string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"incubation-portal"`

	// PostgreSQL 配置
	PostgreSQLHost     string `env:"POSTGRESQL_HOST" envDefault:"localhost"`
	PostgreSQLPort     string `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgreSQLUser     string `env:"POSTGRESQL_USER" envDefault:"postgres"`
	PostgreSQLPassword string `env:"POSTGRESQL_PASSWORD" envDefault:"postgres"`
	PostgreSQLDatabase string `env:"POSTGRESQL_DATABASE" envDefault:"incubation"`
	PostgreSQLSchema   string `env:"POSTGRESQL_SCHEMA" envDefault:"public"`
	PostgreSQLSSLMode  string `env:"POSTGRESQL_SSLMODE" envDefault:"disable"`
	PostgreSQLMaxIdle  int    `env:"POSTGRESQL_MAX_IDLE" envDefault:"30"`
	PostgreSQLMaxOpen  int    `env:"POSTGRESQL_MAX_OPEN" envDefault:"200"`

	// 只读副本 DSN，逗号分隔，为空时不启用读写分离
	PostgreSQLReplicas []string `env:"POSTGRESQL_REPLICAS" envSeparator:","`

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"incub"`

	// RabbitMQ 配置
	RabbitMQAddr     string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost    string `env:"RABBITMQ_VHOST" envDefault:"/"`

	// JWT 配置
	JWTSecret        string `env:"JWT_SECRET"` // server/worker 必填
	JWTExpireMinutes int    `env:"JWT_EXPIRE_MINUTES" envDefault:"30"`
	JWTRefreshDays   int    `env:"JWT_REFRESH_DAYS" envDefault:"7"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// 链路追踪配置，endpoint 为空时不启用
	OTLPEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TracingSampler float64 `env:"TRACING_SAMPLER" envDefault:"0.1"`
	ServiceVersion string  `env:"SERVICE_VERSION" envDefault:"dev"`

	// 允许跨域访问的门户前端来源，逗号分隔，为空时接受任意来源
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// 速率限制开关，各路由的窗口在中间件内定义
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`

	// 资料引导配置
	DraftTTL          time.Duration `env:"ONBOARDING_DRAFT_TTL" envDefault:"720h"`
	AutosaveInterval  time.Duration `env:"ONBOARDING_AUTOSAVE_INTERVAL" envDefault:"3s"`
	SubmissionLockTTL time.Duration `env:"ONBOARDING_SUBMISSION_LOCK_TTL" envDefault:"30s"`

	// 客户端（cmd/onboard）配置
	ProfileServiceURL string        `env:"PROFILE_SERVICE_URL" envDefault:"http://localhost:8888"`
	PortalToken       string        `env:"PORTAL_TOKEN"`
	GatewayTimeout    time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"10s"`
	DraftDir          string        `env:"DRAFT_DIR" envDefault:".incubation/drafts"`
}

var errJWTSecretRequired = errors.New("JWT_SECRET is required")

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: no .env file loaded (%v), reading process environment only", err)
	}

	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}
}

// Validate 校验服务端必填配置，仅 server 与 worker 调用；客户端不需要 JWT 密钥
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errJWTSecretRequired)
	}
	if c.DraftTTL <= 0 {
		errs = append(errs, fmt.Errorf("ONBOARDING_DRAFT_TTL must be positive, got %s", c.DraftTTL))
	}
	if c.SubmissionLockTTL <= 0 {
		errs = append(errs, fmt.Errorf("ONBOARDING_SUBMISSION_LOCK_TTL must be positive, got %s", c.SubmissionLockTTL))
	}
	if c.JWTExpireMinutes <= 0 {
		errs = append(errs, fmt.Errorf("JWT_EXPIRE_MINUTES must be positive, got %d", c.JWTExpireMinutes))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if c.OTLPEndpoint == "" {
		log.Printf("WARN: OTEL_EXPORTER_OTLP_ENDPOINT is not set, tracing export is disabled")
	}
	return nil
}

// GetDSN postgres 的 key=value 形式 DSN
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		c.PostgreSQLHost, c.PostgreSQLPort, c.PostgreSQLUser, c.PostgreSQLPassword,
		c.PostgreSQLDatabase, c.PostgreSQLSSLMode, c.PostgreSQLSchema)
}

// GetRabbitMQURL 用户名与密码会做转义
func (c *Config) GetRabbitMQURL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.RabbitMQUsername, c.RabbitMQPassword),
		Host:   net.JoinHostPort(c.RabbitMQAddr, c.RabbitMQPort),
		Path:   c.RabbitMQVhost,
	}
	return u.String()
}

// GatewayBaseURL 返回去掉末尾斜杠的资料服务地址
func (c *Config) GatewayBaseURL() string {
	return strings.TrimRight(c.ProfileServiceURL, "/")
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
