// test/helpers/helpers.go
package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/medtrack/pharmacy-be/internal/adapters/db"
	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/pkg/config"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	if testing.Verbose() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// SetupTestDB creates a PostgreSQL container for integration tests
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_pharmacy",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_pharmacy",
		SSLMode:            "disable",
		MaxConnections:     5,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     time.Second * 10,
		StatementCacheMode: "describe",
		EnableQueryLogging: testing.Verbose(),
	}

	// Wait for database to be ready
	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")

	ctx := context.Background()
	migrationConfig := &db.MigrationConfig{
		DatabaseURL: fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
			dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port,
			dbConfig.Database, dbConfig.SSLMode),
		SourcePath: "../../migrations",
		TableName:  "schema_migrations",
		SchemaName: "public",
	}

	err = db.RunMigrationsWithRetry(ctx, migrationConfig, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates a mock Redis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// SetupMockDB creates a mock database for unit testing
func SetupMockDB(t *testing.T) (sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock DB")

	t.Cleanup(func() {
		db.Close()
	})

	return mock, db
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "test-api",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:               "localhost",
			Port:               "5432",
			User:               "test",
			Password:           "test",
			Name:               "test_pharmacy",
			SSLMode:            "disable",
			MaxConnections:     10,
			MinConnections:     2,
			EnableQueryLogging: true,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			DB:       0,
			TTL:      time.Hour,
			PoolSize: 10,
		},
		FileProcessing: config.FileProcessingConfig{
			PDFMaxSizeMB:      50,
			ExcelMaxSizeMB:    100,
			ProcessingTimeout: 5 * time.Minute,
			TempDir:           "/tmp",
		},
		Security: config.SecurityConfig{
			JWTSecret:         "test-secret",
			JWTExpiration:     24 * time.Hour,
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			SecureHeaders:     false,
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

// CreateTestMedicine creates a test medicine with healthy stock and a far
// expiry date, so its derived status is in-stock unless overridden.
func CreateTestMedicine(overrides ...func(*domain.Medicine)) *domain.Medicine {
	now := time.Now()
	m := &domain.Medicine{
		ID:                   uuid.New(),
		Name:                 "Amoxicillin 500mg",
		CategoryID:           uuid.New(),
		SupplierID:           uuid.New(),
		Batch:                "BATCH-001",
		ExpiryDate:           now.AddDate(1, 0, 0),
		Quantity:             100,
		Price:                decimal.NewFromFloat(5.50),
		MRP:                  decimal.NewFromFloat(7.25),
		ParLevel:             20,
		Description:          "Broad-spectrum antibiotic capsules",
		Manufacturer:         "Test Pharma Ltd",
		Dosage:               "500mg",
		Form:                 domain.FormCapsule,
		PrescriptionRequired: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	m.Status = domain.DeriveStatus(m.Quantity, m.ParLevel, m.ExpiryDate, now)

	for _, override := range overrides {
		override(m)
	}

	return m
}

// CreateTestMedicines creates multiple test medicines
func CreateTestMedicines(count int) []domain.Medicine {
	forms := []domain.MedicineForm{
		domain.FormTablet,
		domain.FormCapsule,
		domain.FormSyrup,
		domain.FormInjection,
		domain.FormCream,
	}

	ms := make([]domain.Medicine, count)
	for i := 0; i < count; i++ {
		ms[i] = *CreateTestMedicine(func(m *domain.Medicine) {
			m.Name = fmt.Sprintf("Test Medicine %d", i+1)
			m.Batch = fmt.Sprintf("BATCH-%03d", i+1)
			m.Form = forms[i%len(forms)]
			m.Quantity = 50 + i*10
			m.Price = decimal.NewFromFloat(float64(2 + i))
		})
	}

	return ms
}

// CreateTestSale creates a stored test sale with one line
func CreateTestSale(overrides ...func(*domain.Sale)) *domain.Sale {
	now := time.Now()
	sale := &domain.Sale{
		ID: uuid.New(),
		Items: []domain.SaleItem{
			{
				MedicineID:   uuid.New(),
				MedicineName: "Amoxicillin 500mg",
				Batch:        "BATCH-001",
				Quantity:     2,
				Price:        decimal.NewFromFloat(5.50),
				Total:        decimal.NewFromFloat(11.00),
			},
		},
		Customer: domain.Customer{
			Name:  "Jane Walker",
			Phone: "555-0101",
		},
		Subtotal:      decimal.NewFromFloat(11.00),
		Discount:      decimal.Zero,
		Tax:           decimal.Zero,
		Total:         decimal.NewFromFloat(11.00),
		PaymentMethod: domain.PaymentCash,
		PaymentStatus: domain.PaymentCompleted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for _, override := range overrides {
		override(sale)
	}

	return sale
}

// CreateTestPrescription creates a pending test prescription with one line
func CreateTestPrescription(overrides ...func(*domain.Prescription)) *domain.Prescription {
	now := time.Now()
	p := &domain.Prescription{
		ID:                 uuid.New(),
		PrescriptionNumber: "RX000042",
		Customer: domain.Customer{
			Name:  "Jane Walker",
			Phone: "555-0101",
		},
		Doctor: domain.Doctor{
			Name:    "Dr. Amara Osei",
			License: "MD-88120",
		},
		Items: []domain.PrescriptionItem{
			{
				MedicineID:   uuid.New(),
				MedicineName: "Amoxicillin 500mg",
				Dosage:       "500mg",
				Quantity:     10,
				Dispensed:    0,
				Instructions: "Take one capsule three times daily after meals",
			},
		},
		Diagnosis:  "Bacterial sinusitis",
		Status:     domain.PrescriptionPending,
		Priority:   domain.PriorityNormal,
		ValidUntil: now.AddDate(0, 1, 0),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	for _, override := range overrides {
		override(p)
	}

	return p
}

// CompareMedicines compares the caller-controlled fields of two medicines
func CompareMedicines(t *testing.T, expected, actual *domain.Medicine) {
	t.Helper()

	require.Equal(t, expected.Name, actual.Name)
	require.Equal(t, expected.Batch, actual.Batch)
	require.Equal(t, expected.Quantity, actual.Quantity)
	require.Equal(t, expected.ParLevel, actual.ParLevel)
	require.Equal(t, expected.Form, actual.Form)
	require.Equal(t, expected.PrescriptionRequired, actual.PrescriptionRequired)
	require.True(t, expected.Price.Equal(actual.Price))
	require.True(t, expected.MRP.Equal(actual.MRP))
	require.WithinDuration(t, expected.ExpiryDate, actual.ExpiryDate, time.Second)
}

// LoadFixture loads a test fixture file
func LoadFixture(t *testing.T, filename string) []byte {
	t.Helper()

	path := fmt.Sprintf("../../test/fixtures/%s", filename)
	data, err := os.ReadFile(path)
	require.NoError(t, err, "Failed to load fixture: %s", filename)

	return data
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}

// TruncateAllTables truncates all tables in the test database
func TruncateAllTables(t *testing.T, db *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	tables := []string{
		"notifications",
		"prescription_items",
		"prescriptions",
		"sale_items",
		"sales",
		"medicines",
		"suppliers",
		"categories",
	}

	for _, table := range tables {
		_, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "Failed to truncate table: %s", table)
	}
}

// SeedTestMedicines seeds the database with test medicines
func SeedTestMedicines(t *testing.T, db *pgxpool.Pool, ms []domain.Medicine) {
	t.Helper()

	ctx := context.Background()

	for _, m := range ms {
		query := `
			INSERT INTO medicines (
				id, name, category_id, supplier_id, batch, expiry_date,
				quantity, price, mrp, par_level, status, description,
				manufacturer, dosage, form, prescription_required,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		`

		_, err := db.Exec(ctx, query,
			m.ID, m.Name, m.CategoryID, m.SupplierID, m.Batch, m.ExpiryDate,
			m.Quantity, m.Price, m.MRP, m.ParLevel, m.Status, m.Description,
			m.Manufacturer, m.Dosage, m.Form, m.PrescriptionRequired,
			m.CreatedAt, m.UpdatedAt,
		)
		require.NoError(t, err, "Failed to seed test medicine")
	}
}

// CreateTempFile creates a temporary file for testing
func CreateTempFile(t *testing.T, content []byte, extension string) string {
	t.Helper()

	file, err := os.CreateTemp("", fmt.Sprintf("test-*%s", extension))
	require.NoError(t, err, "Failed to create temp file")

	_, err = file.Write(content)
	require.NoError(t, err, "Failed to write to temp file")

	file.Close()

	t.Cleanup(func() {
		os.Remove(file.Name())
	})

	return file.Name()
}
