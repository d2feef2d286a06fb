// Package logger 基于zap的结构化日志初始化
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config 日志配置（与config.LogConfig字段一一对应，避免pkg依赖internal）
type Config struct {
	Level        string // debug | info | warn | error
	Format       string // console | json
	Output       string // stdout | stderr | /path/to/file
	EnableCaller bool
}

// New 创建zap Logger
// 设计说明：
// 1. json格式用于生产环境（便于ELK等采集），console格式用于本地开发
// 2. 时间统一使用ISO8601
// 3. 只在Error及以上级别附带堆栈
// 返回值flush用于程序退出前刷新缓冲区
func New(cfg Config, fields ...zap.Field) (*zap.Logger, func() error, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(defaultString(cfg.Level, "info")))
	if err != nil {
		return nil, nil, fmt.Errorf("无效的日志级别 %q: %w", cfg.Level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	if cfg.Format != "json" {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	}
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.LevelKey = "lvl"
	encoderCfg.MessageKey = "msg"
	encoderCfg.CallerKey = "caller"
	encoderCfg.StacktraceKey = "stacktrace"

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	sink, closeSink, err := openSink(cfg.Output)
	if err != nil {
		return nil, nil, err
	}

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}

	log := zap.New(zapcore.NewCore(encoder, sink, level), opts...).With(fields...)

	flush := func() error {
		// stdout/stderr 在部分平台Sync会返回EINVAL，忽略
		_ = log.Sync()
		return closeSink()
	}
	return log, flush, nil
}

// openSink 打开日志输出目标
func openSink(output string) (zapcore.WriteSyncer, func() error, error) {
	noop := func() error { return nil }
	switch output {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), noop, nil
	case "stderr":
		return zapcore.Lock(os.Stderr), noop, nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	return zapcore.AddSync(f), f.Close, nil
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
