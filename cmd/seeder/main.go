// cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
)

type seedCategory struct {
	ID          uuid.UUID
	Name        string
	Description string
}

type seedSupplier struct {
	ID            uuid.UUID
	Name          string
	ContactPerson string
	Phone         string
	Email         string
	GSTIN         string
}

type medicineTemplate struct {
	Name         string
	Category     string
	Manufacturer string
	Dosage       string
	Form         domain.MedicineForm
	Price        float64
	MRP          float64
	RxRequired   bool
}

var categories = []seedCategory{
	{Name: "Antibiotics", Description: "Antibacterial medicines"},
	{Name: "Analgesics", Description: "Pain relief and fever reducers"},
	{Name: "Antacids", Description: "Acidity and digestive medicines"},
	{Name: "Antihistamines", Description: "Allergy relief medicines"},
	{Name: "Cardiovascular", Description: "Blood pressure and heart medicines"},
	{Name: "Diabetes Care", Description: "Glucose control medicines"},
	{Name: "Dermatology", Description: "Skin treatment creams and ointments"},
	{Name: "Vitamins & Supplements", Description: "Nutritional supplements"},
	{Name: "Respiratory", Description: "Cough, cold and asthma medicines"},
	{Name: "First Aid", Description: "Wound care and dressings"},
}

var suppliers = []seedSupplier{
	{Name: "MedSupply Distributors", ContactPerson: "Rohit Sharma", Phone: "98200-11001", Email: "orders@medsupply.example", GSTIN: "27AABCM1234A1Z5"},
	{Name: "PharmaDirect Wholesale", ContactPerson: "Kavita Rao", Phone: "98200-11002", Email: "sales@pharmadirect.example", GSTIN: "27AABCP5678B1Z3"},
	{Name: "Wellness Pharma Traders", ContactPerson: "Arjun Mehta", Phone: "98200-11003", Email: "supply@wellnesspharma.example", GSTIN: "27AABCW9012C1Z1"},
	{Name: "CareFirst Medico", ContactPerson: "Neha Kulkarni", Phone: "98200-11004", Email: "orders@carefirst.example", GSTIN: "27AABCC3456D1Z9"},
}

var medicineTemplates = []medicineTemplate{
	{"Amoxicillin 500mg", "Antibiotics", "Cipla", "500mg", domain.FormCapsule, 4.80, 6.00, true},
	{"Azithromycin 250mg", "Antibiotics", "Sun Pharma", "250mg", domain.FormTablet, 11.20, 14.00, true},
	{"Ciprofloxacin 500mg", "Antibiotics", "Dr. Reddy's", "500mg", domain.FormTablet, 6.40, 8.00, true},
	{"Paracetamol 500mg", "Analgesics", "GSK", "500mg", domain.FormTablet, 0.80, 1.00, false},
	{"Ibuprofen 400mg", "Analgesics", "Abbott", "400mg", domain.FormTablet, 1.60, 2.00, false},
	{"Diclofenac Gel", "Analgesics", "Novartis", "1%", domain.FormCream, 88.00, 110.00, false},
	{"Omeprazole 20mg", "Antacids", "Dr. Reddy's", "20mg", domain.FormCapsule, 3.20, 4.00, false},
	{"Ranitidine 150mg", "Antacids", "Zydus", "150mg", domain.FormTablet, 1.20, 1.50, false},
	{"Cetirizine 10mg", "Antihistamines", "Cipla", "10mg", domain.FormTablet, 1.00, 1.25, false},
	{"Loratadine 10mg", "Antihistamines", "Sun Pharma", "10mg", domain.FormTablet, 2.40, 3.00, false},
	{"Amlodipine 5mg", "Cardiovascular", "Pfizer", "5mg", domain.FormTablet, 2.80, 3.50, true},
	{"Atenolol 50mg", "Cardiovascular", "Zydus", "50mg", domain.FormTablet, 2.00, 2.50, true},
	{"Atorvastatin 10mg", "Cardiovascular", "Ranbaxy", "10mg", domain.FormTablet, 5.60, 7.00, true},
	{"Metformin 500mg", "Diabetes Care", "USV", "500mg", domain.FormTablet, 1.60, 2.00, true},
	{"Glimepiride 2mg", "Diabetes Care", "Sanofi", "2mg", domain.FormTablet, 4.00, 5.00, true},
	{"Insulin Glargine", "Diabetes Care", "Sanofi", "100IU/ml", domain.FormInjection, 520.00, 650.00, true},
	{"Clotrimazole Cream", "Dermatology", "Bayer", "1%", domain.FormCream, 64.00, 80.00, false},
	{"Hydrocortisone Cream", "Dermatology", "GSK", "0.5%", domain.FormCream, 52.00, 65.00, false},
	{"Vitamin D3 60K", "Vitamins & Supplements", "Abbott", "60000IU", domain.FormCapsule, 28.00, 35.00, false},
	{"Multivitamin Syrup", "Vitamins & Supplements", "Pfizer", "200ml", domain.FormSyrup, 96.00, 120.00, false},
	{"B-Complex Forte", "Vitamins & Supplements", "Merck", "", domain.FormTablet, 2.40, 3.00, false},
	{"Salbutamol Inhaler", "Respiratory", "Cipla", "100mcg", domain.FormInhaler, 136.00, 170.00, true},
	{"Dextromethorphan Syrup", "Respiratory", "Abbott", "100ml", domain.FormSyrup, 76.00, 95.00, false},
	{"Montelukast 10mg", "Respiratory", "MSD", "10mg", domain.FormTablet, 9.60, 12.00, true},
	{"Povidone Iodine Solution", "First Aid", "Win-Medicare", "10%", domain.FormDrops, 72.00, 90.00, false},
	{"Adhesive Bandages", "First Aid", "J&J", "", domain.FormOther, 40.00, 50.00, false},
}

func main() {
	var (
		batchesPerMedicine = flag.Int("batches", 2, "Stock batches to create per medicine")
		logLevel           = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun             = flag.Bool("dry-run", false, "Preview changes without modifying database")
		truncate           = flag.Bool("truncate", false, "Clear existing reference and stock data first")
		seed               = flag.Int64("seed", 0, "Random seed (0 uses current time)")
	)
	flag.Parse()

	var slogLevel slog.Level
	switch *logLevel {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
	slog.SetDefault(logger)

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	dbURL := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("DB_USER", "pharmacy"),
		getEnv("DB_PASSWORD", "pharmacy_dev_2025"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "pharmacy_inventory"),
		getEnv("DB_SSL_MODE", "disable"),
	)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *truncate && !*dryRun {
		logger.Info("truncating existing data")
		_, err := pool.Exec(ctx, `TRUNCATE sale_items, sales, prescription_items, prescriptions,
			notifications, medicines, suppliers, categories`)
		if err != nil {
			logger.Error("failed to truncate", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	now := time.Now()
	for i := range categories {
		categories[i].ID = uuid.New()
	}
	for i := range suppliers {
		suppliers[i].ID = uuid.New()
	}
	categoryByName := make(map[string]uuid.UUID, len(categories))
	for _, c := range categories {
		categoryByName[c.Name] = c.ID
	}

	medicines := buildMedicines(rng, categoryByName, now, *batchesPerMedicine)

	if *dryRun {
		fmt.Printf("[DRY RUN] would insert %d categories, %d suppliers, %d medicine batches\n",
			len(categories), len(suppliers), len(medicines))
		byStatus := map[domain.MedicineStatus]int{}
		for _, m := range medicines {
			byStatus[m.Status]++
		}
		for status, count := range byStatus {
			fmt.Printf("  %-15s %d\n", status, count)
		}
		return
	}

	if err := insertReferenceData(ctx, pool, now); err != nil {
		logger.Error("failed to insert reference data", slog.String("error", err.Error()))
		os.Exit(1)
	}

	inserted, err := insertMedicines(ctx, pool, medicines)
	if err != nil {
		logger.Error("failed to insert medicines", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("SEEDING SUMMARY")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Categories:       %d\n", len(categories))
	fmt.Printf("Suppliers:        %d\n", len(suppliers))
	fmt.Printf("Medicine batches: %d\n", inserted)

	logger.Info("seed operation completed",
		slog.Int("categories", len(categories)),
		slog.Int("suppliers", len(suppliers)),
		slog.Int64("medicines", inserted))
}

// buildMedicines expands each template into stock batches with varied
// quantities and expiry dates so every derived status shows up in the data.
func buildMedicines(rng *rand.Rand, categoryByName map[string]uuid.UUID, now time.Time, batches int) []domain.Medicine {
	var medicines []domain.Medicine

	for i, tpl := range medicineTemplates {
		categoryID := categoryByName[tpl.Category]
		supplierID := suppliers[i%len(suppliers)].ID

		for b := 0; b < batches; b++ {
			parLevel := 10 + rng.Intn(30)

			var quantity int
			var expiry time.Time
			switch rng.Intn(6) {
			case 0: // at or below par
				quantity = rng.Intn(parLevel + 1)
				expiry = now.AddDate(1, rng.Intn(12), 0)
			case 1: // expiring within the alert window
				quantity = parLevel + 10 + rng.Intn(100)
				expiry = now.AddDate(0, 0, 1+rng.Intn(29))
			case 2: // already expired or depleted
				if rng.Intn(2) == 0 {
					quantity = 0
					expiry = now.AddDate(1, 0, 0)
				} else {
					quantity = 5 + rng.Intn(50)
					expiry = now.AddDate(0, 0, -1-rng.Intn(90))
				}
			default: // healthy stock
				quantity = parLevel + 10 + rng.Intn(200)
				expiry = now.AddDate(1, rng.Intn(24), 0)
			}

			m := domain.Medicine{
				ID:                   uuid.New(),
				Name:                 tpl.Name,
				CategoryID:           categoryID,
				SupplierID:           supplierID,
				Batch:                fmt.Sprintf("%s%02d%02d", batchPrefix(tpl.Name), (b+1)*7%100, i+1),
				ExpiryDate:           expiry,
				Quantity:             quantity,
				Price:                decimal.NewFromFloat(tpl.Price),
				MRP:                  decimal.NewFromFloat(tpl.MRP),
				ParLevel:             parLevel,
				Manufacturer:         tpl.Manufacturer,
				Dosage:               tpl.Dosage,
				Form:                 tpl.Form,
				PrescriptionRequired: tpl.RxRequired,
				CreatedAt:            now,
				UpdatedAt:            now,
			}
			m.Status = domain.DeriveStatus(m.Quantity, m.ParLevel, m.ExpiryDate, now)
			medicines = append(medicines, m)
		}
	}

	return medicines
}

func batchPrefix(name string) string {
	var sb strings.Builder
	for _, word := range strings.Fields(name) {
		sb.WriteByte(word[0])
	}
	return strings.ToUpper(sb.String())
}

func insertReferenceData(ctx context.Context, pool *pgxpool.Pool, now time.Time) error {
	for _, c := range categories {
		_, err := pool.Exec(ctx, `
			INSERT INTO categories (id, name, description, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (name) DO NOTHING`,
			c.ID, c.Name, c.Description, now)
		if err != nil {
			return fmt.Errorf("insert category %s: %w", c.Name, err)
		}
	}

	for _, s := range suppliers {
		_, err := pool.Exec(ctx, `
			INSERT INTO suppliers (id, name, contact_person, phone, email, gstin, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
			s.ID, s.Name, s.ContactPerson, s.Phone, s.Email, s.GSTIN, now)
		if err != nil {
			return fmt.Errorf("insert supplier %s: %w", s.Name, err)
		}
	}

	return nil
}

func insertMedicines(ctx context.Context, pool *pgxpool.Pool, medicines []domain.Medicine) (int64, error) {
	rows := make([][]any, 0, len(medicines))
	for _, m := range medicines {
		rows = append(rows, []any{
			m.ID, m.Name, m.CategoryID, m.SupplierID, m.Batch, m.ExpiryDate,
			m.Quantity, m.Price, m.MRP, m.ParLevel, string(m.Status),
			m.Description, m.Manufacturer, m.Dosage, string(m.Form),
			m.PrescriptionRequired, m.Barcode, strings.Join(m.Tags, ","),
			m.CreatedAt, m.UpdatedAt,
		})
	}

	return pool.CopyFrom(ctx,
		pgx.Identifier{"medicines"},
		[]string{
			"id", "name", "category_id", "supplier_id", "batch", "expiry_date",
			"quantity", "price", "mrp", "par_level", "status",
			"description", "manufacturer", "dosage", "form",
			"prescription_required", "barcode", "tags",
			"created_at", "updated_at",
		},
		pgx.CopyFromRows(rows),
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
