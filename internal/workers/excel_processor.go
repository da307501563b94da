// internal/workers/excel_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// ExcelProcessor imports medicine batches from stock spreadsheets
type ExcelProcessor struct {
	service ports.MedicineService
	tracker *JobTracker
	logger  *slog.Logger
}

// NewExcelProcessor creates a new Excel processor
func NewExcelProcessor(service ports.MedicineService, tracker *JobTracker, logger *slog.Logger) *ExcelProcessor {
	return &ExcelProcessor{
		service: service,
		tracker: tracker,
		logger:  logger.With(slog.String("processor", "excel")),
	}
}

// Spreadsheet column layout. The first row is a header and is skipped.
const (
	colName = iota
	colBatch
	colExpiry
	colQuantity
	colParLevel
	colPrice
	colMRP
	colCategoryID
	colSupplierID
	colManufacturer
	colForm
	colDosage
)

// ProcessExcel handles an intake:excel task
func (p *ExcelProcessor) ProcessExcel(ctx context.Context, t *asynq.Task) error {
	var payload ExcelJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	p.logger.InfoContext(ctx, "processing stock spreadsheet",
		slog.String("job_id", payload.JobID),
		slog.String("file_path", payload.FilePath))

	p.tracker.Processing(ctx, payload.JobID)

	file, err := xlsx.OpenFile(payload.FilePath)
	if err != nil {
		p.tracker.Failed(ctx, payload.JobID, fmt.Sprintf("failed to open spreadsheet: %v", err))
		return fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	if len(file.Sheets) == 0 {
		p.tracker.Failed(ctx, payload.JobID, "spreadsheet has no sheets")
		return fmt.Errorf("spreadsheet %s has no sheets", payload.FilePath)
	}

	var medicines []domain.Medicine
	var errs []string
	rowIdx := 0

	sheet := file.Sheets[0]
	err = sheet.ForEachRow(func(r *xlsx.Row) error {
		if rowIdx == 0 {
			rowIdx++
			return nil
		}
		rowIdx++

		m, err := parseMedicineRow(r)
		if err != nil {
			errs = append(errs, fmt.Sprintf("row %d: %v", rowIdx, err))
			return nil
		}
		medicines = append(medicines, *m)
		return nil
	})
	if err != nil {
		p.tracker.Failed(ctx, payload.JobID, fmt.Sprintf("failed to read rows: %v", err))
		return fmt.Errorf("failed to read rows: %w", err)
	}

	if len(medicines) > 0 {
		if err := p.service.SaveMedicines(ctx, medicines); err != nil {
			p.tracker.Failed(ctx, payload.JobID, fmt.Sprintf("failed to save medicines: %v", err))
			return fmt.Errorf("failed to save medicines: %w", err)
		}
	}

	p.tracker.Completed(ctx, payload.JobID, len(medicines), len(errs), errs)

	if strings.HasPrefix(payload.FilePath, os.TempDir()) {
		_ = os.Remove(payload.FilePath)
	}

	p.logger.InfoContext(ctx, "spreadsheet processing completed",
		slog.String("job_id", payload.JobID),
		slog.Int("created", len(medicines)),
		slog.Int("skipped", len(errs)))

	return nil
}

func parseMedicineRow(r *xlsx.Row) (*domain.Medicine, error) {
	get := func(i int) string {
		c := r.GetCell(i)
		if c == nil {
			return ""
		}
		return strings.TrimSpace(c.String())
	}

	name := get(colName)
	if name == "" {
		return nil, fmt.Errorf("name is empty")
	}

	expiry, ok := parseExpiry(get(colExpiry))
	if !ok {
		return nil, fmt.Errorf("invalid expiry date %q", get(colExpiry))
	}

	quantity, err := strconv.Atoi(get(colQuantity))
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q", get(colQuantity))
	}

	parLevel := 0
	if raw := get(colParLevel); raw != "" {
		if parLevel, err = strconv.Atoi(raw); err != nil {
			return nil, fmt.Errorf("invalid par level %q", raw)
		}
	}

	price, err := decimal.NewFromString(strings.TrimPrefix(get(colPrice), "$"))
	if err != nil {
		return nil, fmt.Errorf("invalid price %q", get(colPrice))
	}

	mrp := price
	if raw := get(colMRP); raw != "" {
		if mrp, err = decimal.NewFromString(strings.TrimPrefix(raw, "$")); err != nil {
			return nil, fmt.Errorf("invalid mrp %q", raw)
		}
	}

	categoryID, err := uuid.Parse(get(colCategoryID))
	if err != nil {
		return nil, fmt.Errorf("invalid category_id %q", get(colCategoryID))
	}
	supplierID, err := uuid.Parse(get(colSupplierID))
	if err != nil {
		return nil, fmt.Errorf("invalid supplier_id %q", get(colSupplierID))
	}

	m := &domain.Medicine{
		Name:         name,
		Batch:        get(colBatch),
		ExpiryDate:   expiry,
		Quantity:     quantity,
		ParLevel:     parLevel,
		Price:        price,
		MRP:          mrp,
		CategoryID:   categoryID,
		SupplierID:   supplierID,
		Manufacturer: get(colManufacturer),
		Form:         domain.MedicineForm(strings.ToLower(get(colForm))),
		Dosage:       get(colDosage),
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
