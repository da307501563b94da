// internal/workers/invoice_processor.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"

	"github.com/medtrack/pharmacy-be/internal/adapters/storage"
	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// InvoiceProcessor turns supplier invoice PDFs into medicine batches
type InvoiceProcessor struct {
	service ports.MedicineService
	storage storage.StorageClient
	tracker *JobTracker
	logger  *slog.Logger
}

// NewInvoiceProcessor creates a new invoice processor
func NewInvoiceProcessor(service ports.MedicineService, st storage.StorageClient, tracker *JobTracker, logger *slog.Logger) *InvoiceProcessor {
	return &InvoiceProcessor{
		service: service,
		storage: st,
		tracker: tracker,
		logger:  logger.With(slog.String("processor", "invoice")),
	}
}

// ProcessInvoice handles an intake:invoice_pdf task
func (p *InvoiceProcessor) ProcessInvoice(ctx context.Context, t *asynq.Task) error {
	var payload InvoiceJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	p.logger.InfoContext(ctx, "processing invoice PDF",
		slog.String("job_id", payload.JobID),
		slog.String("s3_key", payload.S3Key),
		slog.String("invoice_number", payload.InvoiceNumber))

	p.tracker.Processing(ctx, payload.JobID)

	data, err := p.storage.Download(ctx, payload.S3Key)
	if err != nil {
		p.tracker.Failed(ctx, payload.JobID, fmt.Sprintf("failed to fetch invoice: %v", err))
		return fmt.Errorf("failed to download %s: %w", payload.S3Key, err)
	}

	lines, err := extractPDFLines(data)
	if err != nil {
		p.tracker.Failed(ctx, payload.JobID, fmt.Sprintf("failed to read PDF: %v", err))
		return fmt.Errorf("failed to read PDF: %w", err)
	}

	rows := parseInvoiceLines(lines)
	if len(rows) == 0 {
		p.tracker.Failed(ctx, payload.JobID, "no medicine lines found in invoice")
		return fmt.Errorf("no medicine lines found in %s", payload.S3Key)
	}

	medicines := make([]domain.Medicine, 0, len(rows))
	var errs []string
	for _, row := range rows {
		m := domain.Medicine{
			Name:       row.name,
			Batch:      row.batch,
			ExpiryDate: row.expiry,
			Quantity:   row.quantity,
			Price:      row.price,
			MRP:        row.price,
			CategoryID: payload.CategoryID,
			SupplierID: payload.SupplierID,
		}
		if err := m.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", row.name, err))
			continue
		}
		medicines = append(medicines, m)
	}

	if len(medicines) > 0 {
		if err := p.service.SaveMedicines(ctx, medicines); err != nil {
			p.tracker.Failed(ctx, payload.JobID, fmt.Sprintf("failed to save medicines: %v", err))
			return fmt.Errorf("failed to save medicines: %w", err)
		}
	}

	p.tracker.Completed(ctx, payload.JobID, len(medicines), len(errs), errs)

	p.logger.InfoContext(ctx, "invoice processing completed",
		slog.String("job_id", payload.JobID),
		slog.Int("created", len(medicines)),
		slog.Int("skipped", len(errs)))

	return nil
}

func extractPDFLines(data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var lines []string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		lines = append(lines, strings.Split(text, "\n")...)
	}
	return lines, nil
}

type invoiceRow struct {
	name     string
	batch    string
	expiry   time.Time
	quantity int
	price    decimal.Decimal
}

var (
	invoiceHeaderRe = regexp.MustCompile(`(?i)(ITEM.*BATCH.*QTY|DESCRIPTION.*EXP.*RATE)`)
	invoiceFooterRe = regexp.MustCompile(`(?i)(SUB\s*TOTAL|GRAND\s*TOTAL|AMOUNT IN WORDS|CGST|SGST)`)

	// NAME BATCH EXPIRY QTY RATE, e.g.
	// "Paracetamol 500mg  PCM2401  07/2027  200  12.50"
	invoiceLineRe = regexp.MustCompile(
		`^(.+?)\s+([A-Z0-9][A-Z0-9-]{2,})\s+(\d{2}/\d{4}|\d{4}-\d{2}(?:-\d{2})?)\s+(\d+)\s+(\d[\d,]*(?:\.\d+)?)\s*$`)
)

// parseInvoiceLines scans extracted text for medicine rows. The items section
// starts after the column header and ends at the totals footer; anything that
// does not match the row shape is skipped.
func parseInvoiceLines(lines []string) []invoiceRow {
	start := 0
	for i, line := range lines {
		if invoiceHeaderRe.MatchString(line) {
			start = i + 1
			break
		}
	}

	var rows []invoiceRow
	for i := start; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if invoiceFooterRe.MatchString(line) {
			break
		}

		m := invoiceLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		expiry, ok := parseExpiry(m[3])
		if !ok {
			continue
		}
		quantity, err := strconv.Atoi(m[4])
		if err != nil || quantity <= 0 {
			continue
		}
		price, err := decimal.NewFromString(strings.ReplaceAll(m[5], ",", ""))
		if err != nil {
			continue
		}

		rows = append(rows, invoiceRow{
			name:     strings.TrimSpace(m[1]),
			batch:    m[2],
			expiry:   expiry,
			quantity: quantity,
			price:    price,
		})
	}
	return rows
}

// parseExpiry accepts MM/YYYY, YYYY-MM and YYYY-MM-DD. Month-only forms
// resolve to the last day of that month, matching how expiry is printed on
// medicine packaging.
func parseExpiry(raw string) (time.Time, bool) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("01/2006", raw); err == nil {
		return t.AddDate(0, 1, -1), true
	}
	if t, err := time.Parse("2006-01", raw); err == nil {
		return t.AddDate(0, 1, -1), true
	}
	return time.Time{}, false
}
