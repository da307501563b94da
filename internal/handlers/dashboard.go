// internal/handlers/dashboard.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medtrack/pharmacy-be/internal/adapters/db"
	redis_a "github.com/medtrack/pharmacy-be/internal/adapters/redis_adapter"
	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

const dashboardCacheTTL = 5 * time.Minute

// DashboardHandler handles dashboard operations
type DashboardHandler struct {
	db            *db.Database
	notifications ports.NotificationRepository
	cache         ports.CacheRepository
	logger        *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(database *db.Database, notifications ports.NotificationRepository, cache ports.CacheRepository, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		db:            database,
		notifications: notifications,
		cache:         cache,
		logger:        logger.With(slog.String("handler", "dashboard")),
	}
}

// GetStats handles GET /api/v1/dashboard/stats
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cacheKey := redis_a.BuildKey(redis_a.PrefixDashboard, "stats")
	var stats DashboardStats

	err := h.cache.GetOrSet(ctx, cacheKey, &stats, func() (interface{}, error) {
		return h.loadStats(ctx)
	}, dashboardCacheTTL)

	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load dashboard stats",
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to load dashboard stats")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, stats)
}

// GetAlerts handles GET /api/v1/dashboard/alerts
func (h *DashboardHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cacheKey := redis_a.BuildKey(redis_a.PrefixAlerts, "summary")
	var alerts AlertsData

	err := h.cache.GetOrSet(ctx, cacheKey, &alerts, func() (interface{}, error) {
		return h.loadAlerts(ctx)
	}, dashboardCacheTTL)

	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load alerts",
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to load alerts")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, alerts)
}

// MarkNotificationRead handles PUT /api/v1/notifications/{id}/read
func (h *DashboardHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid notification ID format")
		return
	}

	if err := h.notifications.MarkRead(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "failed to mark notification read",
			slog.String("notification_id", id.String()),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	if err := h.cache.DeletePattern(ctx, string(redis_a.PrefixAlerts)+":*"); err != nil {
		h.logger.WarnContext(ctx, "failed to invalidate alerts cache",
			slog.String("error", err.Error()))
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]string{
		"message": "Notification marked as read",
		"id":      id.String(),
	})
}

func (h *DashboardHandler) loadStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		Timestamp: time.Now(),
	}

	inventoryQuery := `
		SELECT
			COUNT(*) as total_medicines,
			COALESCE(SUM(price * quantity), 0) as inventory_value,
			COUNT(*) FILTER (WHERE status = 'in-stock') as in_stock,
			COUNT(*) FILTER (WHERE status = 'low-stock') as low_stock,
			COUNT(*) FILTER (WHERE status = 'expiring-soon') as expiring_soon,
			COUNT(*) FILTER (WHERE status = 'expired') as expired
		FROM medicines
		WHERE deleted_at IS NULL
	`
	err := h.db.QueryRow(ctx, inventoryQuery).Scan(
		&stats.Inventory.TotalMedicines,
		&stats.Inventory.InventoryValue,
		&stats.Inventory.InStock,
		&stats.Inventory.LowStock,
		&stats.Inventory.ExpiringSoon,
		&stats.Inventory.Expired,
	)
	if err != nil {
		return nil, err
	}

	salesQuery := `
		SELECT
			COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE) as today_count,
			COALESCE(SUM(total) FILTER (WHERE created_at >= CURRENT_DATE), 0) as today_revenue,
			COUNT(*) FILTER (WHERE created_at >= date_trunc('month', CURRENT_DATE)) as month_count,
			COALESCE(SUM(total) FILTER (WHERE created_at >= date_trunc('month', CURRENT_DATE)), 0) as month_revenue
		FROM sales
		WHERE payment_status <> 'refunded'
	`
	err = h.db.QueryRow(ctx, salesQuery).Scan(
		&stats.Sales.TodayCount,
		&stats.Sales.TodayRevenue,
		&stats.Sales.MonthCount,
		&stats.Sales.MonthRevenue,
	)
	if err != nil {
		return nil, err
	}

	prescriptionQuery := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending') as pending,
			COUNT(*) FILTER (WHERE status = 'partially-dispensed') as partial,
			COUNT(*) FILTER (WHERE status = 'dispensed' AND dispensed_at >= CURRENT_DATE) as dispensed_today
		FROM prescriptions
	`
	err = h.db.QueryRow(ctx, prescriptionQuery).Scan(
		&stats.Prescriptions.Pending,
		&stats.Prescriptions.PartiallyDispensed,
		&stats.Prescriptions.DispensedToday,
	)
	if err != nil {
		return nil, err
	}

	recentQuery := `
		SELECT id, customer_name, total, payment_status, created_at
		FROM sales
		ORDER BY created_at DESC
		LIMIT 10
	`
	rows, err := h.db.Query(ctx, recentQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var sale RecentSale
		if err := rows.Scan(&sale.ID, &sale.CustomerName, &sale.Total, &sale.PaymentStatus, &sale.CreatedAt); err != nil {
			continue
		}
		stats.RecentSales = append(stats.RecentSales, sale)
	}

	return stats, nil
}

func (h *DashboardHandler) loadAlerts(ctx context.Context) (*AlertsData, error) {
	alerts := &AlertsData{
		Timestamp: time.Now(),
	}

	query := `
		SELECT id, name, batch, quantity, par_level, expiry_date, status
		FROM medicines
		WHERE deleted_at IS NULL
		  AND status IN ('low-stock', 'expiring-soon', 'expired')
		ORDER BY
			CASE status
				WHEN 'expired' THEN 0
				WHEN 'expiring-soon' THEN 1
				ELSE 2
			END,
			expiry_date ASC
		LIMIT 100
	`
	rows, err := h.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item AlertItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Batch, &item.Quantity,
			&item.ParLevel, &item.ExpiryDate, &item.Status); err != nil {
			h.logger.WarnContext(ctx, "failed to scan alert row", slog.Any("error", err))
			continue
		}
		switch item.Status {
		case string(domain.StatusExpired):
			alerts.Expired = append(alerts.Expired, item)
		case string(domain.StatusExpiringSoon):
			alerts.ExpiringSoon = append(alerts.ExpiringSoon, item)
		case string(domain.StatusLowStock):
			alerts.LowStock = append(alerts.LowStock, item)
		}
	}

	notifications, err := h.notifications.FindUnread(ctx, 50)
	if err != nil {
		return nil, err
	}
	alerts.Notifications = notifications

	alerts.Counts = AlertCounts{
		Expired:      len(alerts.Expired),
		ExpiringSoon: len(alerts.ExpiringSoon),
		LowStock:     len(alerts.LowStock),
		Unread:       len(notifications),
	}

	return alerts, nil
}

// Type definitions

type DashboardStats struct {
	Inventory     InventorySummary    `json:"inventory"`
	Sales         SalesSummary        `json:"sales"`
	Prescriptions PrescriptionSummary `json:"prescriptions"`
	RecentSales   []RecentSale        `json:"recent_sales"`
	Timestamp     time.Time           `json:"timestamp"`
}

type InventorySummary struct {
	TotalMedicines int64           `json:"total_medicines"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
	InStock        int64           `json:"in_stock"`
	LowStock       int64           `json:"low_stock"`
	ExpiringSoon   int64           `json:"expiring_soon"`
	Expired        int64           `json:"expired"`
}

type SalesSummary struct {
	TodayCount   int64           `json:"today_count"`
	TodayRevenue decimal.Decimal `json:"today_revenue"`
	MonthCount   int64           `json:"month_count"`
	MonthRevenue decimal.Decimal `json:"month_revenue"`
}

type PrescriptionSummary struct {
	Pending            int64 `json:"pending"`
	PartiallyDispensed int64 `json:"partially_dispensed"`
	DispensedToday     int64 `json:"dispensed_today"`
}

type RecentSale struct {
	ID            uuid.UUID       `json:"id"`
	CustomerName  string          `json:"customer_name"`
	Total         decimal.Decimal `json:"total"`
	PaymentStatus string          `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
}

type AlertsData struct {
	Counts        AlertCounts            `json:"counts"`
	Expired       []AlertItem            `json:"expired"`
	ExpiringSoon  []AlertItem            `json:"expiring_soon"`
	LowStock      []AlertItem            `json:"low_stock"`
	Notifications []*domain.Notification `json:"notifications"`
	Timestamp     time.Time              `json:"timestamp"`
}

type AlertCounts struct {
	Expired      int `json:"expired"`
	ExpiringSoon int `json:"expiring_soon"`
	LowStock     int `json:"low_stock"`
	Unread       int `json:"unread"`
}

type AlertItem struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Batch      string    `json:"batch"`
	Quantity   int       `json:"quantity"`
	ParLevel   int       `json:"par_level"`
	ExpiryDate time.Time `json:"expiry_date"`
	Status     string    `json:"status"`
}
