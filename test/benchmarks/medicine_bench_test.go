package benchmarks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medtrack/pharmacy-be/internal/adapters/db"
	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
	"github.com/medtrack/pharmacy-be/internal/core/services"
	"github.com/medtrack/pharmacy-be/test/helpers"
)

func BenchmarkMedicineOperations(b *testing.B) {
	// Setup
	testDB := helpers.SetupTestDB(&testing.T{})
	defer testDB.Database.Close()

	repo := db.NewMedicineRepository(testDB.Database, helpers.TestLogger())
	service := services.NewMedicineService(repo, helpers.TestLogger())
	ctx := context.Background()

	b.Run("Create", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			m := helpers.CreateTestMedicine(func(m *domain.Medicine) {
				m.Name = fmt.Sprintf("Benchmark Medicine %d", i)
				m.Batch = fmt.Sprintf("BENCH-%d", i)
			})
			_ = service.SaveMedicine(ctx, m)
		}
	})

	// Pre-create medicines for read benchmarks
	var ids []uuid.UUID
	for i := 0; i < 100; i++ {
		m := helpers.CreateTestMedicine(func(m *domain.Medicine) {
			m.Batch = fmt.Sprintf("READ-%d", i)
		})
		_ = service.SaveMedicine(ctx, m)
		ids = append(ids, m.ID)
	}

	b.Run("Read", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			id := ids[i%len(ids)]
			_, _ = service.GetByID(ctx, id)
		}
	})

	b.Run("List", func(b *testing.B) {
		params := ports.MedicineListParams{
			Page:     1,
			PageSize: 50,
		}

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = service.List(ctx, params)
		}
	})

	b.Run("Search", func(b *testing.B) {
		params := ports.MedicineListParams{
			Search:   "amoxicillin",
			Page:     1,
			PageSize: 50,
		}

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = service.List(ctx, params)
		}
	})

	b.Run("BatchCreate", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			ms := make([]domain.Medicine, 100)
			for j := range ms {
				ms[j] = *helpers.CreateTestMedicine(func(m *domain.Medicine) {
					m.Batch = fmt.Sprintf("BATCH-%d-%d", i, j)
				})
			}
			_ = service.SaveMedicines(ctx, ms)
		}
	})
}

func BenchmarkInvoiceParsing(b *testing.B) {
	parser := newBenchmarkParser()
	lines := createInvoiceLines(100)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = parser.ParseLines(lines)
	}
}

func BenchmarkFormClassification(b *testing.B) {
	parser := newBenchmarkParser()
	names := []string{
		"Ambroxol Cough Syrup 100ml",
		"Insulin Glargine Injection",
		"Amoxicillin 500mg Capsule",
		"Diclofenac Gel 30g",
		"Salbutamol Inhaler 100mcg",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		name := names[i%len(names)]
		parser.ClassifyForm(name)
	}
}

func BenchmarkStatusDerivation(b *testing.B) {
	now := time.Now()
	expiries := []time.Time{
		now.AddDate(-1, 0, 0),
		now.AddDate(0, 0, 15),
		now.AddDate(1, 0, 0),
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		domain.DeriveStatus(i%150, 20, expiries[i%len(expiries)], now)
	}
}

// Memory allocation benchmarks
func BenchmarkMemoryAllocation(b *testing.B) {
	b.Run("Medicine", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = &domain.Medicine{
				ID:       uuid.New(),
				Name:     "Paracetamol 650mg",
				Batch:    "PCM-001",
				Quantity: 100,
				Price:    decimal.NewFromFloat(12.50),
			}
		}
	})

	b.Run("ListResult", func(b *testing.B) {
		ms := make([]*domain.Medicine, 100)
		for i := range ms {
			ms[i] = helpers.CreateTestMedicine()
		}

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = &ports.MedicineListResult{
				Items:      ms,
				Page:       1,
				PageSize:   50,
				TotalCount: 100,
				TotalPages: 2,
			}
		}
	})
}
