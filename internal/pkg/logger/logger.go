// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContextKey represents keys for context values picked up by the logging
// pipeline. Middleware stores request metadata under these keys so every
// log line inside a request carries them without explicit args.
type ContextKey string

const (
	ContextKeyRequestID   ContextKey = "request_id"
	ContextKeyUserID      ContextKey = "user_id"
	ContextKeySessionID   ContextKey = "session_id"
	ContextKeyTraceID     ContextKey = "trace_id"
	ContextKeySpanID      ContextKey = "span_id"
	ContextKeyClientIP    ContextKey = "client_ip"
	ContextKeyUserAgent   ContextKey = "user_agent"
	ContextKeyMethod      ContextKey = "method"
	ContextKeyPath        ContextKey = "path"
	ContextKeyStatusCode  ContextKey = "status_code"
	ContextKeyDuration    ContextKey = "duration_ms"
	ContextKeyEnvironment ContextKey = "environment"
	ContextKeyService     ContextKey = "service"
	ContextKeyVersion     ContextKey = "version"
)

// Config holds logger configuration
type Config struct {
	Level          string
	Format         string
	Output         string
	AddSource      bool
	EnableSampling bool
	SampleRate     float64
	ServiceName    string
	ServiceVersion string
	Environment    string
	Elasticsearch  *ELKConfig
}

// SetupLogger builds the process-wide slog logger. Format is "json" for
// production aggregation or "text" for local development; anything else
// falls back to json.
func SetupLogger(level string, format string) *slog.Logger {
	cfg := &Config{
		Level:          level,
		Format:         format,
		Output:         "stdout",
		AddSource:      true,
		ServiceName:    os.Getenv("SERVICE_NAME"),
		ServiceVersion: os.Getenv("SERVICE_VERSION"),
		Environment:    os.Getenv("APP_ENV"),
	}
	if url := os.Getenv("ELASTICSEARCH_URL"); url != "" {
		cfg.Elasticsearch = &ELKConfig{URL: url}
	}
	return New(cfg)
}

// New builds a logger from explicit config. The handler chain is, outermost
// first: sanitization, optional sampling, context enrichment, then the
// format handler (plus the Elasticsearch shipper when configured).
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = &Config{Level: "info", Format: "json", Output: "stdout"}
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			return normalizeAttr(cfg, a)
		},
	}

	writer := newWriter(cfg.Output)

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = NewPrettyTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}

	if cfg.Elasticsearch != nil {
		handler = NewMultiHandler(handler, NewELKHandler(*cfg.Elasticsearch, opts))
	}

	handler = NewContextHandler(handler)
	if cfg.EnableSampling && cfg.SampleRate > 0 && cfg.SampleRate < 1.0 {
		handler = NewSamplingHandler(handler, cfg.SampleRate)
	}
	handler = NewSanitizationHandler(handler)

	var attrs []slog.Attr
	if cfg.ServiceName != "" {
		attrs = append(attrs, slog.String("service", cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, slog.String("version", cfg.ServiceVersion))
	}
	if cfg.Environment != "" {
		attrs = append(attrs, slog.String("env", cfg.Environment))
	}
	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newWriter(output string) io.Writer {
	switch {
	case output == "stderr":
		return os.Stderr
	case strings.HasPrefix(output, "file:"):
		name := strings.TrimPrefix(output, "file:")
		if f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			return f
		}
		return os.Stdout
	default:
		return os.Stdout
	}
}

// requestContextKeys are the keys the context handler copies onto records
var requestContextKeys = []ContextKey{
	ContextKeyRequestID,
	ContextKeyUserID,
	ContextKeySessionID,
	ContextKeyTraceID,
	ContextKeySpanID,
	ContextKeyClientIP,
	ContextKeyUserAgent,
	ContextKeyMethod,
	ContextKeyPath,
	ContextKeyStatusCode,
	ContextKeyDuration,
}

func extractContextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	for _, key := range requestContextKeys {
		val := ctx.Value(key)
		if val == nil {
			continue
		}
		keyStr := string(key)
		switch v := val.(type) {
		case string:
			if v != "" {
				attrs = append(attrs, slog.String(keyStr, v))
			}
		case int:
			attrs = append(attrs, slog.Int(keyStr, v))
		case int64:
			attrs = append(attrs, slog.Int64(keyStr, v))
		case time.Duration:
			attrs = append(attrs, slog.Duration(keyStr, v))
		case time.Time:
			attrs = append(attrs, slog.Time(keyStr, v))
		case uuid.UUID:
			attrs = append(attrs, slog.String(keyStr, v.String()))
		default:
			attrs = append(attrs, slog.Any(keyStr, v))
		}
	}
	return attrs
}

// normalizeAttr rewrites a few attributes for log aggregators: RFC3339
// timestamps, "severity" instead of "level" in json mode, and *_ms duration
// keys rendered as float milliseconds.
func normalizeAttr(cfg *Config, a slog.Attr) slog.Attr {
	switch {
	case a.Key == slog.TimeKey:
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.Format(time.RFC3339Nano))
		}
	case a.Key == slog.LevelKey && cfg.Format != "text":
		a.Key = "severity"
	case strings.HasSuffix(a.Key, "_ms"):
		if d, ok := a.Value.Any().(time.Duration); ok {
			a.Value = slog.Float64Value(float64(d.Milliseconds()))
		}
	}
	return a
}
