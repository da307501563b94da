// internal/pkg/logger/elk.go
package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

// ELKConfig holds Elasticsearch shipping configuration
type ELKConfig struct {
	URL           string        `json:"url"`
	IndexPattern  string        `json:"index_pattern"`
	Username      string        `json:"username"`
	Password      string        `json:"password"`
	BatchSize     int           `json:"batch_size"`
	FlushInterval time.Duration `json:"flush_interval"`
}

// ELKHandler ships records to Elasticsearch via the bulk API. Records are
// buffered and flushed on size or interval; shipping failures are reported
// to stderr and never propagate to the caller.
type ELKHandler struct {
	shipper *esShipper
	inner   slog.Handler
}

// esShipper holds the buffer shared by all WithAttrs/WithGroup clones
type esShipper struct {
	client *http.Client
	config ELKConfig

	mu     sync.Mutex
	buffer []esDocument
}

type esDocument struct {
	Timestamp time.Time      `json:"@timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// NewELKHandler creates a handler that ships records to Elasticsearch
func NewELKHandler(cfg ELKConfig, opts *slog.HandlerOptions) *ELKHandler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.IndexPattern == "" {
		cfg.IndexPattern = "pharmacy-logs"
	}

	s := &esShipper{
		client: &http.Client{Timeout: 10 * time.Second},
		config: cfg,
		buffer: make([]esDocument, 0, cfg.BatchSize),
	}
	go s.flushLoop()

	return &ELKHandler{
		shipper: s,
		inner:   slog.NewJSONHandler(io.Discard, opts),
	}
}

func (h *ELKHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ELKHandler) Handle(ctx context.Context, record slog.Record) error {
	doc := esDocument{
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
		Fields:    make(map[string]any, record.NumAttrs()),
	}

	record.Attrs(func(a slog.Attr) bool {
		if a.Key == "error" || a.Key == "err" {
			doc.Error = fmt.Sprint(a.Value.Any())
			return true
		}
		doc.Fields[a.Key] = a.Value.Any()
		return true
	})

	s := h.shipper
	s.mu.Lock()
	s.buffer = append(s.buffer, doc)
	full := len(s.buffer) >= s.config.BatchSize
	s.mu.Unlock()

	if full {
		go s.flush()
	}
	return nil
}

func (s *esShipper) flushLoop() {
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	for range ticker.C {
		s.flush()
	}
}

func (s *esShipper) flush() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	docs := make([]esDocument, len(s.buffer))
	copy(docs, s.buffer)
	s.buffer = s.buffer[:0]
	s.mu.Unlock()

	s.ship(docs)
}

// ship posts one bulk request. Index names carry the day so retention can
// be handled by deleting old indices.
func (s *esShipper) ship(docs []esDocument) {
	index := fmt.Sprintf("%s-%s", s.config.IndexPattern, time.Now().Format("2006.01.02"))

	var body bytes.Buffer
	for _, doc := range docs {
		meta, _ := json.Marshal(map[string]any{"index": map[string]string{"_index": index}})
		body.Write(meta)
		body.WriteByte('\n')

		payload, _ := json.Marshal(doc)
		body.Write(payload)
		body.WriteByte('\n')
	}

	req, err := http.NewRequest(http.MethodPost, s.config.URL+"/_bulk", &body)
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	if s.config.Username != "" {
		req.SetBasicAuth(s.config.Username, s.config.Password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "elk: failed to ship %d log entries: %v\n", len(docs), err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		fmt.Fprintf(os.Stderr, "elk: bulk request returned status %d\n", resp.StatusCode)
	}
}

func (h *ELKHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ELKHandler{shipper: h.shipper, inner: h.inner.WithAttrs(attrs)}
}

func (h *ELKHandler) WithGroup(name string) slog.Handler {
	return &ELKHandler{shipper: h.shipper, inner: h.inner.WithGroup(name)}
}
