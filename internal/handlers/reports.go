// internal/handlers/reports.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/medtrack/pharmacy-be/internal/adapters/db"
	redis_a "github.com/medtrack/pharmacy-be/internal/adapters/redis_adapter"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

const reportsCacheTTL = 15 * time.Minute

// ReportHandler handles aggregated reporting queries
type ReportHandler struct {
	db     *db.Database
	cache  ports.CacheRepository
	logger *slog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(database *db.Database, cache ports.CacheRepository, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		db:     database,
		cache:  cache,
		logger: logger.With(slog.String("handler", "report")),
	}
}

// SalesReport handles GET /api/v1/reports/sales
func (h *ReportHandler) SalesReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days := parsePositiveInt(r.URL.Query().Get("days"), 30)
	if days > 365 {
		days = 365
	}

	cacheKey := redis_a.BuildKey(redis_a.PrefixReports, "sales", time.Now().Format("2006-01-02"), strconv.Itoa(days))
	var report SalesReport

	err := h.cache.GetOrSet(ctx, cacheKey, &report, func() (interface{}, error) {
		return h.loadSalesReport(ctx, days)
	}, reportsCacheTTL)

	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load sales report",
			slog.Int("days", days),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to load sales report")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, report)
}

// InventoryReport handles GET /api/v1/reports/inventory
func (h *ReportHandler) InventoryReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cacheKey := redis_a.BuildKey(redis_a.PrefixReports, "inventory", time.Now().Format("2006-01-02"))
	var report InventoryReport

	err := h.cache.GetOrSet(ctx, cacheKey, &report, func() (interface{}, error) {
		return h.loadInventoryReport(ctx)
	}, reportsCacheTTL)

	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load inventory report",
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to load inventory report")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, report)
}

func (h *ReportHandler) loadSalesReport(ctx context.Context, days int) (*SalesReport, error) {
	report := &SalesReport{
		PeriodDays:  days,
		GeneratedAt: time.Now(),
	}

	summaryQuery := `
		SELECT
			COUNT(*) as sale_count,
			COALESCE(SUM(subtotal), 0) as subtotal,
			COALESCE(SUM(discount), 0) as discount,
			COALESCE(SUM(tax), 0) as tax,
			COALESCE(SUM(total), 0) as revenue
		FROM sales
		WHERE payment_status <> 'refunded'
		  AND created_at >= CURRENT_DATE - $1::int
	`
	err := h.db.QueryRow(ctx, summaryQuery, days).Scan(
		&report.Summary.SaleCount,
		&report.Summary.Subtotal,
		&report.Summary.Discount,
		&report.Summary.Tax,
		&report.Summary.Revenue,
	)
	if err != nil {
		return nil, err
	}

	dailyQuery := `
		SELECT
			created_at::date as day,
			COUNT(*) as sale_count,
			COALESCE(SUM(total), 0) as revenue
		FROM sales
		WHERE payment_status <> 'refunded'
		  AND created_at >= CURRENT_DATE - $1::int
		GROUP BY created_at::date
		ORDER BY day DESC
	`
	rows, err := h.db.Query(ctx, dailyQuery, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var day DailySales
		if err := rows.Scan(&day.Date, &day.SaleCount, &day.Revenue); err != nil {
			continue
		}
		report.Daily = append(report.Daily, day)
	}

	methodQuery := `
		SELECT payment_method, COUNT(*) as sale_count, COALESCE(SUM(total), 0) as revenue
		FROM sales
		WHERE payment_status <> 'refunded'
		  AND created_at >= CURRENT_DATE - $1::int
		GROUP BY payment_method
		ORDER BY revenue DESC
	`
	methodRows, err := h.db.Query(ctx, methodQuery, days)
	if err != nil {
		return nil, err
	}
	defer methodRows.Close()

	for methodRows.Next() {
		var method PaymentMethodSales
		if err := methodRows.Scan(&method.Method, &method.SaleCount, &method.Revenue); err != nil {
			continue
		}
		report.ByPaymentMethod = append(report.ByPaymentMethod, method)
	}

	topQuery := `
		SELECT si.medicine_name, SUM(si.quantity) as units, COALESCE(SUM(si.total), 0) as revenue
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE s.payment_status <> 'refunded'
		  AND s.created_at >= CURRENT_DATE - $1::int
		GROUP BY si.medicine_name
		ORDER BY units DESC
		LIMIT 10
	`
	topRows, err := h.db.Query(ctx, topQuery, days)
	if err != nil {
		return nil, err
	}
	defer topRows.Close()

	for topRows.Next() {
		var top TopMedicine
		if err := topRows.Scan(&top.MedicineName, &top.Units, &top.Revenue); err != nil {
			continue
		}
		report.TopMedicines = append(report.TopMedicines, top)
	}

	return report, nil
}

func (h *ReportHandler) loadInventoryReport(ctx context.Context) (*InventoryReport, error) {
	report := &InventoryReport{
		GeneratedAt: time.Now(),
	}

	summaryQuery := `
		SELECT
			COUNT(*) as total_medicines,
			COALESCE(SUM(quantity), 0) as total_units,
			COALESCE(SUM(price * quantity), 0) as total_value
		FROM medicines
		WHERE deleted_at IS NULL
	`
	err := h.db.QueryRow(ctx, summaryQuery).Scan(
		&report.Summary.TotalMedicines,
		&report.Summary.TotalUnits,
		&report.Summary.TotalValue,
	)
	if err != nil {
		return nil, err
	}

	statusQuery := `
		SELECT status, COUNT(*) as count, COALESCE(SUM(price * quantity), 0) as value
		FROM medicines
		WHERE deleted_at IS NULL
		GROUP BY status
		ORDER BY count DESC
	`
	rows, err := h.db.Query(ctx, statusQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status StatusBreakdown
		if err := rows.Scan(&status.Status, &status.Count, &status.Value); err != nil {
			continue
		}
		report.ByStatus = append(report.ByStatus, status)
	}

	categoryQuery := `
		SELECT
			COALESCE(c.name, 'Uncategorized') as category,
			COUNT(*) as count,
			COALESCE(SUM(m.price * m.quantity), 0) as value
		FROM medicines m
		LEFT JOIN categories c ON c.id = m.category_id
		WHERE m.deleted_at IS NULL
		GROUP BY c.name
		ORDER BY value DESC
	`
	catRows, err := h.db.Query(ctx, categoryQuery)
	if err != nil {
		return nil, err
	}
	defer catRows.Close()

	for catRows.Next() {
		var cat CategoryValue
		if err := catRows.Scan(&cat.Category, &cat.Count, &cat.Value); err != nil {
			continue
		}
		report.ByCategory = append(report.ByCategory, cat)
	}

	expiryQuery := `
		SELECT
			CASE
				WHEN expiry_date <= NOW() THEN 'expired'
				WHEN expiry_date <= NOW() + INTERVAL '30 days' THEN '30_days'
				WHEN expiry_date <= NOW() + INTERVAL '90 days' THEN '90_days'
				ELSE 'later'
			END as bucket,
			COUNT(*) as count,
			COALESCE(SUM(price * quantity), 0) as value
		FROM medicines
		WHERE deleted_at IS NULL
		GROUP BY bucket
	`
	expRows, err := h.db.Query(ctx, expiryQuery)
	if err != nil {
		return nil, err
	}
	defer expRows.Close()

	for expRows.Next() {
		var bucket ExpiryBucket
		if err := expRows.Scan(&bucket.Bucket, &bucket.Count, &bucket.Value); err != nil {
			continue
		}
		report.ExpiryBuckets = append(report.ExpiryBuckets, bucket)
	}

	return report, nil
}

// Type definitions

type SalesReport struct {
	PeriodDays      int                  `json:"period_days"`
	Summary         SalesReportSummary   `json:"summary"`
	Daily           []DailySales         `json:"daily"`
	ByPaymentMethod []PaymentMethodSales `json:"by_payment_method"`
	TopMedicines    []TopMedicine        `json:"top_medicines"`
	GeneratedAt     time.Time            `json:"generated_at"`
}

type SalesReportSummary struct {
	SaleCount int64           `json:"sale_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	Tax       decimal.Decimal `json:"tax"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type DailySales struct {
	Date      time.Time       `json:"date"`
	SaleCount int64           `json:"sale_count"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type PaymentMethodSales struct {
	Method    string          `json:"method"`
	SaleCount int64           `json:"sale_count"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type TopMedicine struct {
	MedicineName string          `json:"medicine_name"`
	Units        int64           `json:"units"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type InventoryReport struct {
	Summary       InventoryReportSummary `json:"summary"`
	ByStatus      []StatusBreakdown      `json:"by_status"`
	ByCategory    []CategoryValue        `json:"by_category"`
	ExpiryBuckets []ExpiryBucket         `json:"expiry_buckets"`
	GeneratedAt   time.Time              `json:"generated_at"`
}

type InventoryReportSummary struct {
	TotalMedicines int64           `json:"total_medicines"`
	TotalUnits     int64           `json:"total_units"`
	TotalValue     decimal.Decimal `json:"total_value"`
}

type StatusBreakdown struct {
	Status string          `json:"status"`
	Count  int64           `json:"count"`
	Value  decimal.Decimal `json:"value"`
}

type CategoryValue struct {
	Category string          `json:"category"`
	Count    int64           `json:"count"`
	Value    decimal.Decimal `json:"value"`
}

type ExpiryBucket struct {
	Bucket string          `json:"bucket"`
	Count  int64           `json:"count"`
	Value  decimal.Decimal `json:"value"`
}
