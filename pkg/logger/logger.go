// Package logger 全局 zap 日志。服务端桥接到 hertz hlog，终端客户端写 stderr
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzap "github.com/hertz-contrib/logger/zap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/amanifadhili/encubation-management-system-sub001/config"
)

var (
	// Logger 在 Init 之前为 Nop，测试与库代码可以直接使用
	Logger   = zap.NewNop()
	logClose io.Closer
)

// Init 初始化服务端日志，并桥接到 hertz 的 hlog
func Init() {
	level := zap.NewAtomicLevelAt(ParseLevel(config.Cfg.LoggerLevel))

	hzLogger := hertzzap.NewLogger(
		hertzzap.WithCoreEnc(newEncoder(isTextFormat())),
		hertzzap.WithCoreWs(newWriteSyncer(config.Cfg.LoggerOutputPath)),
		hertzzap.WithCoreLevel(level),
		hertzzap.WithZapOptions(
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
			zap.Fields(
				zap.String("service", config.Cfg.ServiceName),
				zap.String("environment", config.Cfg.Environment),
			),
		),
	)
	hlog.SetLogger(hzLogger)
	hlog.SetLevel(hlogLevel(level.Level()))

	Logger = hzLogger.Logger()
	Logger.Info("Logger initialized",
		zap.Stringer("level", level.Level()),
		zap.String("format", config.Cfg.LoggerFormat),
		zap.String("output", config.Cfg.LoggerOutputPath),
	)
}

// InitConsole 终端客户端使用：日志写 stderr，避免与命令输出混在一起
func InitConsole(level string) {
	Logger = zap.New(zapcore.NewCore(
		newEncoder(true),
		zapcore.Lock(zapcore.AddSync(os.Stderr)),
		ParseLevel(level),
	))
}

// Sync 刷新缓冲并关闭日志文件
func Sync() {
	_ = Logger.Sync()
	if logClose != nil {
		_ = logClose.Close()
		logClose = nil
	}
}

// ParseLevel 大小写不敏感，无法识别时为 info
func ParseLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func isTextFormat() bool {
	return config.Cfg.IsDevelopment() || strings.EqualFold(config.Cfg.LoggerFormat, "text")
}

func newEncoder(text bool) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder

	if text {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// newWriteSyncer 支持 stdout、stderr 或文件路径
func newWriteSyncer(path string) zapcore.WriteSyncer {
	switch strings.ToLower(path) {
	case "", "stdout":
		return zapcore.Lock(zapcore.AddSync(os.Stdout))
	case "stderr":
		return zapcore.Lock(zapcore.AddSync(os.Stderr))
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		panic("failed to open log file: " + err.Error())
	}
	logClose = file
	return zapcore.AddSync(file)
}

func hlogLevel(level zapcore.Level) hlog.Level {
	switch {
	case level <= zapcore.DebugLevel:
		return hlog.LevelDebug
	case level == zapcore.InfoLevel:
		return hlog.LevelInfo
	case level == zapcore.WarnLevel:
		return hlog.LevelWarn
	case level == zapcore.ErrorLevel:
		return hlog.LevelError
	default:
		return hlog.LevelFatal
	}
}
