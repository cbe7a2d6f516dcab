// Package logger provides context-aware structured logging for the
// ingestion service. Output is JSON on stdout, optionally mirrored to an
// OTLP collector through the otelslog bridge.
package logger

import (
	"context"
	"log/slog"
	"os"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	OperationKey ContextKey = "operation"
	SourceKey    ContextKey = "source"
)

// ContextLogger wraps slog with service identity and context field
// propagation.
type ContextLogger struct {
	logger      *slog.Logger
	serviceName string
}

type Config struct {
	Level       string
	ServiceName string
	EnableOTel  bool
}

func LoadConfigFromEnv() *Config {
	return &Config{
		Level:       getEnvOrDefault("LOG_LEVEL", "info"),
		ServiceName: getEnvOrDefault("SERVICE_NAME", "harvester"),
		EnableOTel:  getEnvOrDefault("LOG_ENABLE_OTEL", "false") == "true",
	}
}

func New(cfg *Config) *ContextLogger {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	if cfg.EnableOTel {
		handler = newMultiHandler(handler, cfg.ServiceName)
	}

	return &ContextLogger{
		logger:      slog.New(handler).With("service", cfg.ServiceName),
		serviceName: cfg.ServiceName,
	}
}

// WithContext returns an slog.Logger carrying any request id, operation and
// source fields present on the context.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	logger := cl.logger

	var fields []any
	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		fields = append(fields, "request_id", requestID)
	}
	if operation := ctx.Value(OperationKey); operation != nil {
		fields = append(fields, "operation", operation)
	}
	if source := ctx.Value(SourceKey); source != nil {
		fields = append(fields, "source", source)
	}
	if len(fields) > 0 {
		logger = logger.With(fields...)
	}

	return logger
}

// Logger returns the underlying slog.Logger for components that carry their
// own logger reference.
func (cl *ContextLogger) Logger() *slog.Logger {
	return cl.logger
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, OperationKey, operation)
}

func WithSource(ctx context.Context, sourceName string) context.Context {
	return context.WithValue(ctx, SourceKey, sourceName)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
