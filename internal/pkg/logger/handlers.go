// internal/pkg/logger/handlers.go
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ContextHandler copies request metadata from the context onto each record
type ContextHandler struct {
	next slog.Handler
}

// NewContextHandler creates a handler that enriches logs with context values
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	attrs := extractContextAttrs(ctx)
	if len(attrs) == 0 {
		return h.next.Handle(ctx, record)
	}

	enriched := record.Clone()
	enriched.AddAttrs(attrs...)
	return h.next.Handle(ctx, enriched)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}

// SamplingHandler drops a share of debug/info records under load. Warnings
// and errors always pass.
type SamplingHandler struct {
	next       slog.Handler
	sampleRate float64
	mu         sync.Mutex
	rng        *rand.Rand
}

// NewSamplingHandler creates a handler that samples low-severity logs
func NewSamplingHandler(next slog.Handler, sampleRate float64) *SamplingHandler {
	return &SamplingHandler{
		next:       next,
		sampleRate: sampleRate,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (h *SamplingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= slog.LevelWarn {
		return h.next.Enabled(ctx, level)
	}

	h.mu.Lock()
	keep := h.rng.Float64() < h.sampleRate
	h.mu.Unlock()

	return keep && h.next.Enabled(ctx, level)
}

func (h *SamplingHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(slog.Float64("sample_rate", h.sampleRate))
	return h.next.Handle(ctx, record)
}

func (h *SamplingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SamplingHandler{next: h.next.WithAttrs(attrs), sampleRate: h.sampleRate, rng: h.rng}
}

func (h *SamplingHandler) WithGroup(name string) slog.Handler {
	return &SamplingHandler{next: h.next.WithGroup(name), sampleRate: h.sampleRate, rng: h.rng}
}

// SanitizationHandler masks credentials and personal data before records
// reach any output. Customer phone numbers and emails pass through sale and
// prescription payloads, so value-level masking matters as much as key names.
type SanitizationHandler struct {
	next          slog.Handler
	valuePatterns []*regexp.Regexp
	secretKeys    []string
}

// NewSanitizationHandler creates a handler that sanitizes sensitive data
func NewSanitizationHandler(next slog.Handler) *SanitizationHandler {
	return &SanitizationHandler{
		next: next,
		valuePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(password|pwd|secret|token|jwt|bearer|api[-_]?key)\s*[:=]\s*["']?([^"'\s]+)`),
			regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
			regexp.MustCompile(`\+?\d{2,3}[-\s]?\d{5}[-\s]?\d{5}\b`),
			regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`),
		},
		secretKeys: []string{
			"password", "pwd", "secret", "token", "jwt", "api_key",
			"access_key", "card_number", "customer_phone", "customer_email",
		},
	}
}

func (h *SanitizationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SanitizationHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, h.maskString(record.Message), record.PC)

	record.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(h.maskAttr(a))
		return true
	})

	return h.next.Handle(ctx, clean)
}

func (h *SanitizationHandler) maskAttr(attr slog.Attr) slog.Attr {
	lowerKey := strings.ToLower(attr.Key)
	for _, secret := range h.secretKeys {
		if strings.Contains(lowerKey, secret) {
			attr.Value = slog.StringValue("***")
			return attr
		}
	}

	if s, ok := attr.Value.Any().(string); ok {
		attr.Value = slog.StringValue(h.maskString(s))
	}
	return attr
}

func (h *SanitizationHandler) maskString(s string) string {
	for _, pattern := range h.valuePatterns {
		s = pattern.ReplaceAllString(s, "***")
	}
	return s
}

func (h *SanitizationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SanitizationHandler{next: h.next.WithAttrs(attrs), valuePatterns: h.valuePatterns, secretKeys: h.secretKeys}
}

func (h *SanitizationHandler) WithGroup(name string) slog.Handler {
	return &SanitizationHandler{next: h.next.WithGroup(name), valuePatterns: h.valuePatterns, secretKeys: h.secretKeys}
}

// MultiHandler fans records out to several destinations
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler creates a handler that sends to multiple destinations
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: next}
}

func (h *MultiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &MultiHandler{handlers: next}
}

// PrettyTextHandler renders colored single-line output for development
type PrettyTextHandler struct {
	*slog.TextHandler
	mu sync.Mutex
	w  io.Writer
}

// NewPrettyTextHandler creates a pretty text handler
func NewPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyTextHandler {
	return &PrettyTextHandler{
		TextHandler: slog.NewTextHandler(w, opts),
		w:           w,
	}
}

const colorReset = "\033[0m"

func (h *PrettyTextHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	fmt.Fprintf(h.w, "%s %s%-5s%s %s",
		r.Time.Format("15:04:05.000"),
		levelColor(r.Level),
		r.Level.String(),
		colorReset,
		r.Message,
	)

	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(h.w, " \033[36m%s=%v%s", a.Key, a.Value, colorReset)
		return true
	})

	fmt.Fprintln(h.w)
	return nil
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "\033[31m"
	case level >= slog.LevelWarn:
		return "\033[33m"
	case level >= slog.LevelInfo:
		return "\033[34m"
	default:
		return "\033[37m"
	}
}
