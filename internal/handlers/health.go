// internal/handlers/health.go
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/medtrack/pharmacy-be/internal/adapters/db"
	"github.com/medtrack/pharmacy-be/internal/pkg/config"
)

// HealthHandler reports liveness and readiness of the API and its
// dependencies. The asynq inspector is optional; the worker queues are
// reported only when one is wired in.
type HealthHandler struct {
	db        *db.Database
	redis     *redis.Client
	asynq     *asynq.Inspector
	config    *config.Config
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(
	database *db.Database,
	redisClient *redis.Client,
	asynqInspector *asynq.Inspector,
	cfg *config.Config,
	logger *slog.Logger,
) *HealthHandler {
	return &HealthHandler{
		db:        database,
		redis:     redisClient,
		asynq:     asynqInspector,
		config:    cfg,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
	}
}

// HealthStatus is the full health report for /health
type HealthStatus struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ServiceInfo `json:"services"`
	Runtime     RuntimeInfo            `json:"runtime"`
}

// ServiceInfo is the probe result for one dependency
type ServiceInfo struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ResponseTime string                 `json:"response_time,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// RuntimeInfo carries Go runtime counters for the health report
type RuntimeInfo struct {
	GoVersion     string `json:"go_version"`
	Goroutines    int    `json:"goroutines"`
	NumCPU        int    `json:"num_cpu"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
	NumGC         uint32 `json:"num_gc"`
}

// Health handles GET /health. Any unhealthy dependency degrades the overall
// status and flips the response to 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthStatus{
		Status:      "healthy",
		Version:     h.config.App.Version,
		Environment: h.config.App.Environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now(),
		Services:    make(map[string]ServiceInfo),
		Runtime:     collectRuntimeInfo(),
	}

	checks := []struct {
		name  string
		probe func(context.Context) ServiceInfo
	}{
		{"database", h.checkDatabase},
		{"redis", h.checkRedis},
	}
	if h.asynq != nil {
		checks = append(checks, struct {
			name  string
			probe func(context.Context) ServiceInfo
		}{"queues", h.checkQueues})
	}

	for _, c := range checks {
		info := c.probe(ctx)
		health.Services[c.name] = info
		if info.Status != "healthy" {
			health.Status = "degraded"
		}
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}
	h.writeReport(ctx, w, statusCode, health)
}

// Readiness handles GET /ready. Only the hard dependencies gate readiness;
// a stalled worker queue should not take the API out of rotation.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := true
	details := make(map[string]string)

	if err := h.db.Ping(ctx); err != nil {
		ready = false
		details["database"] = "not ready"
	} else {
		details["database"] = "ready"
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		ready = false
		details["redis"] = "not ready"
	} else {
		details["redis"] = "ready"
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}
	h.writeReport(ctx, w, statusCode, map[string]interface{}{
		"ready":   ready,
		"details": details,
	})
}

func (h *HealthHandler) writeReport(ctx context.Context, w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode health response",
			slog.String("error", err.Error()))
	}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{Status: "healthy"}

	if err := h.db.Ping(ctx); err != nil {
		info.Status = "unhealthy"
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "database health check failed",
			slog.String("error", err.Error()))
		return info
	}

	info.Details = h.db.Health(ctx)
	info.ResponseTime = time.Since(start).String()
	return info
}

func (h *HealthHandler) checkRedis(ctx context.Context) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{Status: "healthy"}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		info.Status = "unhealthy"
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "redis health check failed",
			slog.String("error", err.Error()))
		return info
	}

	poolStats := h.redis.PoolStats()
	info.Details = map[string]interface{}{
		"total_conns": poolStats.TotalConns,
		"idle_conns":  poolStats.IdleConns,
		"stale_conns": poolStats.StaleConns,
	}
	info.ResponseTime = time.Since(start).String()
	return info
}

// checkQueues summarizes the asynq queues the worker consumes. An empty
// server list means intake and sweep jobs are piling up unprocessed.
func (h *HealthHandler) checkQueues(ctx context.Context) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{Status: "healthy"}

	queues, err := h.asynq.Queues()
	if err != nil {
		info.Status = "unhealthy"
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "queue health check failed",
			slog.String("error", err.Error()))
		return info
	}

	queueStats := make(map[string]interface{}, len(queues))
	var pending, active int
	for _, queue := range queues {
		qi, err := h.asynq.GetQueueInfo(queue)
		if err != nil {
			continue
		}
		pending += qi.Pending
		active += qi.Active
		queueStats[queue] = map[string]interface{}{
			"size":    qi.Size,
			"active":  qi.Active,
			"pending": qi.Pending,
			"retry":   qi.Retry,
		}
	}

	info.Details = map[string]interface{}{
		"queues":        queueStats,
		"total_pending": pending,
		"total_active":  active,
	}

	servers, err := h.asynq.Servers()
	if err == nil {
		info.Details["workers"] = len(servers)
		if len(servers) == 0 {
			info.Message = "no workers connected"
		}
	}

	info.ResponseTime = time.Since(start).String()
	return info
}

func collectRuntimeInfo() RuntimeInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeInfo{
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		MemoryAllocMB: memStats.Alloc / 1024 / 1024,
		NumGC:         memStats.NumGC,
	}
}
