// test/benchmarks/helpers.go
package benchmarks

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
)

// mockInvoiceParser mirrors the shape of the worker-side invoice text parser
// so its hot path can be benchmarked without a real PDF.
type mockInvoiceParser struct {
	lineRe *regexp.Regexp
}

type parsedInvoiceLine struct {
	Name     string
	Batch    string
	Quantity int
	Price    decimal.Decimal
}

func newBenchmarkParser() *mockInvoiceParser {
	return &mockInvoiceParser{
		// NAME BATCH EXPIRY QTY RATE
		lineRe: regexp.MustCompile(
			`^(.+?)\s+([A-Z0-9][A-Z0-9-]{2,})\s+(\d{2}/\d{4})\s+(\d+)\s+(\d[\d,]*(?:\.\d+)?)\s*$`),
	}
}

// ParseLines scans invoice text lines for medicine rows, skipping anything
// that does not match the row shape.
func (p *mockInvoiceParser) ParseLines(lines []string) []parsedInvoiceLine {
	var rows []parsedInvoiceLine
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := p.lineRe.FindStringSubmatch(line)
		if m == nil {
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

		rows = append(rows, parsedInvoiceLine{
			Name:     strings.TrimSpace(m[1]),
			Batch:    m[2],
			Quantity: quantity,
			Price:    price,
		})
	}
	return rows
}

// ClassifyForm guesses the dosage form from a medicine name
func (p *mockInvoiceParser) ClassifyForm(name string) domain.MedicineForm {
	nameLower := strings.ToLower(name)

	switch {
	case strings.Contains(nameLower, "syrup") || strings.Contains(nameLower, "suspension"):
		return domain.FormSyrup
	case strings.Contains(nameLower, "injection") || strings.Contains(nameLower, "vial"):
		return domain.FormInjection
	case strings.Contains(nameLower, "capsule"):
		return domain.FormCapsule
	case strings.Contains(nameLower, "cream") || strings.Contains(nameLower, "ointment") || strings.Contains(nameLower, "gel"):
		return domain.FormCream
	case strings.Contains(nameLower, "drops"):
		return domain.FormDrops
	case strings.Contains(nameLower, "inhaler"):
		return domain.FormInhaler
	case strings.Contains(nameLower, "tablet") || strings.Contains(nameLower, "mg"):
		return domain.FormTablet
	default:
		return domain.FormOther
	}
}

// createInvoiceLines generates simulated supplier invoice text for benchmarks
func createInvoiceLines(numRows int) []string {
	lines := []string{
		"TAX INVOICE #INV-2026-0042",
		"MediSupply Co, GSTIN 29ABCDE1234F1Z5",
		"ITEM          BATCH     EXP      QTY   RATE",
		"=============================================",
	}

	itemNames := []string{
		"Paracetamol 650mg",
		"Amoxicillin 500mg Capsule",
		"Cetirizine 10mg",
		"Ambroxol Cough Syrup 100ml",
		"Insulin Glargine Injection",
		"Salbutamol Inhaler 100mcg",
		"Diclofenac Gel 30g",
		"Ciprofloxacin Eye Drops",
		"Metformin 500mg",
		"Azithromycin 250mg",
	}

	for i := 0; i < numRows; i++ {
		name := itemNames[i%len(itemNames)]
		lines = append(lines, fmt.Sprintf("%s  BN%04d  %02d/2027  %d  %.2f",
			name, i+1, i%12+1, 50+i%200, 8.50+float64(i%40)))
	}

	lines = append(lines, "SUB TOTAL  48,250.00", "CGST 6%  2,895.00")
	return lines
}
