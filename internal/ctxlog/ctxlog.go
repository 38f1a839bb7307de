// Package ctxlog 通过 context.Context 传递 slog.Logger。
package ctxlog

import (
	"context"
	"io"
	"log/slog"
)

// key 为未导出类型，避免与其它包的 context key 冲突。
type key struct{}

var loggerKey = key{}

// New 创建命令行使用的文本日志器，只有 verbose 时才输出 Debug 级别。
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard 返回丢弃全部记录的日志器。
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithLogger 返回携带 logger 的新 context。
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext 取出 context 中的日志器，没有时返回 slog.Default()。
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
