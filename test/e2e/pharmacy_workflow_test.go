//go:build e2e

// test/e2e/pharmacy_workflow_test.go
package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/medtrack/pharmacy-be/internal/adapters/db"
	redis_a "github.com/medtrack/pharmacy-be/internal/adapters/redis_adapter"
	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/services"
	"github.com/medtrack/pharmacy-be/internal/handlers"
	"github.com/medtrack/pharmacy-be/test/helpers"
)

// PharmacyWorkflowSuite exercises the API end to end against a real Postgres
// (dockertest) and miniredis, with the same wiring as cmd/api minus the asynq
// intake routes.
type PharmacyWorkflowSuite struct {
	suite.Suite
	server *httptest.Server
	testDB *helpers.TestDB
	redis  *helpers.TestRedis
}

func TestPharmacyWorkflowSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping e2e tests in short mode")
	}
	suite.Run(t, new(PharmacyWorkflowSuite))
}

func (s *PharmacyWorkflowSuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.redis = helpers.SetupTestRedis(s.T())

	logger := helpers.TestLogger()
	cache := redis_a.NewCache(s.redis.Client, time.Hour, logger)

	medicineRepo := db.NewMedicineRepository(s.testDB.Database, logger)
	saleRepo := db.NewSaleRepository(s.testDB.Database, logger)
	prescriptionRepo := db.NewPrescriptionRepository(s.testDB.Database, logger)
	categoryRepo := db.NewCategoryRepository(s.testDB.Database, logger)
	supplierRepo := db.NewSupplierRepository(s.testDB.Database, logger)
	notificationRepo := db.NewNotificationRepository(s.testDB.Database, logger)
	txManager := db.NewTxManager(s.testDB.Database, logger)

	medicineService := services.NewMedicineService(medicineRepo, logger)
	saleService := services.NewSaleService(txManager, saleRepo, logger)
	prescriptionService := services.NewPrescriptionService(txManager, prescriptionRepo, logger)

	medicineHandler := handlers.NewMedicineHandler(medicineService, cache, logger)
	saleHandler := handlers.NewSaleHandler(saleService, cache, logger)
	prescriptionHandler := handlers.NewPrescriptionHandler(prescriptionService, cache, logger)
	referenceHandler := handlers.NewReferenceHandler(categoryRepo, supplierRepo, logger)
	dashboardHandler := handlers.NewDashboardHandler(s.testDB.Database, notificationRepo, cache, logger)
	reportHandler := handlers.NewReportHandler(s.testDB.Database, cache, logger)

	const apiV1 = "/api/v1"
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+apiV1+"/medicines", medicineHandler.ListMedicines)
	mux.HandleFunc("POST "+apiV1+"/medicines", medicineHandler.CreateMedicine)
	mux.HandleFunc("POST "+apiV1+"/medicines/batch", medicineHandler.CreateMedicineBatch)
	mux.HandleFunc("GET "+apiV1+"/medicines/status/{status}", medicineHandler.MedicinesByStatus)
	mux.HandleFunc("GET "+apiV1+"/medicines/expiring/{days}", medicineHandler.ExpiringMedicines)
	mux.HandleFunc("GET "+apiV1+"/medicines/{id}", medicineHandler.GetMedicine)
	mux.HandleFunc("PUT "+apiV1+"/medicines/{id}", medicineHandler.UpdateMedicine)
	mux.HandleFunc("DELETE "+apiV1+"/medicines/{id}", medicineHandler.DeleteMedicine)

	mux.HandleFunc("GET "+apiV1+"/sales", saleHandler.ListSales)
	mux.HandleFunc("POST "+apiV1+"/sales", saleHandler.CreateSale)
	mux.HandleFunc("GET "+apiV1+"/sales/{id}", saleHandler.GetSale)
	mux.HandleFunc("PUT "+apiV1+"/sales/{id}", saleHandler.UpdateSale)
	mux.HandleFunc("DELETE "+apiV1+"/sales/{id}", saleHandler.DeleteSale)

	mux.HandleFunc("GET "+apiV1+"/prescriptions", prescriptionHandler.ListPrescriptions)
	mux.HandleFunc("POST "+apiV1+"/prescriptions", prescriptionHandler.CreatePrescription)
	mux.HandleFunc("GET "+apiV1+"/prescriptions/{id}", prescriptionHandler.GetPrescription)
	mux.HandleFunc("DELETE "+apiV1+"/prescriptions/{id}", prescriptionHandler.DeletePrescription)
	mux.HandleFunc("POST "+apiV1+"/prescriptions/{id}/dispense", prescriptionHandler.Dispense)
	mux.HandleFunc("POST "+apiV1+"/prescriptions/{id}/cancel", prescriptionHandler.CancelPrescription)

	mux.HandleFunc("GET "+apiV1+"/categories", referenceHandler.ListCategories)
	mux.HandleFunc("POST "+apiV1+"/categories", referenceHandler.CreateCategory)
	mux.HandleFunc("GET "+apiV1+"/suppliers", referenceHandler.ListSuppliers)
	mux.HandleFunc("POST "+apiV1+"/suppliers", referenceHandler.CreateSupplier)

	mux.HandleFunc("GET "+apiV1+"/dashboard/stats", dashboardHandler.GetStats)
	mux.HandleFunc("GET "+apiV1+"/dashboard/alerts", dashboardHandler.GetAlerts)
	mux.HandleFunc("GET "+apiV1+"/reports/sales", reportHandler.SalesReport)
	mux.HandleFunc("GET "+apiV1+"/reports/inventory", reportHandler.InventoryReport)

	s.server = httptest.NewServer(mux)
}

func (s *PharmacyWorkflowSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
}

func (s *PharmacyWorkflowSuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
	s.redis.Server.FlushAll()
}

// makeRequest sends a JSON request to the test server and returns the
// response with its fully read body.
func (s *PharmacyWorkflowSuite) makeRequest(method, path string, body interface{}) (*http.Response, []byte) {
	s.T().Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	resp.Body.Close()

	return resp, raw
}

func (s *PharmacyWorkflowSuite) decode(raw []byte, out interface{}) {
	s.T().Helper()
	s.Require().NoError(json.Unmarshal(raw, out), "response body: %s", raw)
}

// createMedicine creates a medicine through the API and returns the stored
// representation. Category and supplier are soft references, so fresh UUIDs
// are enough.
func (s *PharmacyWorkflowSuite) createMedicine(name string, quantity, parLevel int, expiry time.Time) *domain.Medicine {
	s.T().Helper()

	req := handlers.MedicineRequest{
		Name:       name,
		CategoryID: uuid.New(),
		SupplierID: uuid.New(),
		Batch:      "E2E-001",
		ExpiryDate: expiry,
		Quantity:   quantity,
		Price:      decimal.NewFromFloat(12.50),
		MRP:        decimal.NewFromFloat(18.00),
		ParLevel:   parLevel,
		Form:       "tablet",
	}

	resp, raw := s.makeRequest(http.MethodPost, "/api/v1/medicines", req)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, "body: %s", raw)

	var medicine domain.Medicine
	s.decode(raw, &medicine)
	s.Require().NotEqual(uuid.Nil, medicine.ID)
	return &medicine
}

func (s *PharmacyWorkflowSuite) getMedicine(id uuid.UUID) *domain.Medicine {
	s.T().Helper()

	resp, raw := s.makeRequest(http.MethodGet, "/api/v1/medicines/"+id.String(), nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode, "body: %s", raw)

	var medicine domain.Medicine
	s.decode(raw, &medicine)
	return &medicine
}

func (s *PharmacyWorkflowSuite) TestMedicineLifecycle() {
	farExpiry := time.Now().AddDate(1, 0, 0)

	// Reference data round-trips through its own endpoints.
	resp, raw := s.makeRequest(http.MethodPost, "/api/v1/categories", domain.Category{Name: "Antibiotics"})
	s.Require().Equal(http.StatusCreated, resp.StatusCode, "body: %s", raw)
	resp, raw = s.makeRequest(http.MethodPost, "/api/v1/suppliers", domain.Supplier{Name: "MediSupply Co", GSTIN: "29ABCDE1234F1Z5"})
	s.Require().Equal(http.StatusCreated, resp.StatusCode, "body: %s", raw)

	created := s.createMedicine("Amoxicillin 500mg", 100, 20, farExpiry)
	s.Equal(domain.StatusInStock, created.Status)

	fetched := s.getMedicine(created.ID)
	s.Equal("Amoxicillin 500mg", fetched.Name)
	s.Equal(100, fetched.Quantity)

	// Dropping the quantity to the par level flips the derived status.
	update := handlers.MedicineRequest{
		Name:       fetched.Name,
		CategoryID: fetched.CategoryID,
		SupplierID: fetched.SupplierID,
		Batch:      fetched.Batch,
		ExpiryDate: fetched.ExpiryDate,
		Quantity:   20,
		Price:      fetched.Price,
		MRP:        fetched.MRP,
		ParLevel:   fetched.ParLevel,
		Form:       string(fetched.Form),
	}
	resp, raw = s.makeRequest(http.MethodPut, "/api/v1/medicines/"+created.ID.String(), update)
	s.Require().Equal(http.StatusOK, resp.StatusCode, "body: %s", raw)

	var updated domain.Medicine
	s.decode(raw, &updated)
	s.Equal(domain.StatusLowStock, updated.Status)

	resp, raw = s.makeRequest(http.MethodGet, "/api/v1/medicines?search=amoxicillin", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var list struct {
		Items []*domain.Medicine `json:"items"`
		Total int64              `json:"total_count"`
	}
	s.decode(raw, &list)
	s.Equal(int64(1), list.Total)

	resp, raw = s.makeRequest(http.MethodGet, "/api/v1/medicines/status/low-stock", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var byStatus struct {
		Count int                `json:"count"`
		Items []*domain.Medicine `json:"items"`
	}
	s.decode(raw, &byStatus)
	s.Equal(1, byStatus.Count)

	// Soft delete hides the medicine from reads.
	resp, _ = s.makeRequest(http.MethodDelete, "/api/v1/medicines/"+created.ID.String(), nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	resp, _ = s.makeRequest(http.MethodGet, "/api/v1/medicines/"+created.ID.String(), nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *PharmacyWorkflowSuite) TestCheckoutDecrementsAndDeleteRestoresStock() {
	medicine := s.createMedicine("Paracetamol 650mg", 50, 10, time.Now().AddDate(1, 0, 0))

	saleReq := handlers.CreateSaleRequest{
		Items: []handlers.SaleItemRequest{
			{MedicineID: medicine.ID, Quantity: 3, Price: decimal.NewFromFloat(12.50)},
		},
		Customer:      domain.Customer{Name: "Ravi Menon", Phone: "+91-9876500001"},
		PaymentMethod: "upi",
	}
	resp, raw := s.makeRequest(http.MethodPost, "/api/v1/sales", saleReq)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, "body: %s", raw)

	var sale domain.Sale
	s.decode(raw, &sale)
	s.Require().Len(sale.Items, 1)
	s.Equal("Paracetamol 650mg", sale.Items[0].MedicineName)
	s.True(sale.Subtotal.Equal(decimal.NewFromFloat(37.50)), "subtotal was %s", sale.Subtotal)
	s.Equal(domain.PaymentCompleted, sale.PaymentStatus)

	s.Equal(47, s.getMedicine(medicine.ID).Quantity)

	// Refund metadata update leaves the lines untouched.
	resp, raw = s.makeRequest(http.MethodPut, "/api/v1/sales/"+sale.ID.String(),
		handlers.UpdateSaleRequest{PaymentStatus: "refunded", Notes: "customer returned the strip"})
	s.Require().Equal(http.StatusOK, resp.StatusCode, "body: %s", raw)
	var refunded domain.Sale
	s.decode(raw, &refunded)
	s.Equal(domain.PaymentRefunded, refunded.PaymentStatus)
	s.Equal(47, s.getMedicine(medicine.ID).Quantity)

	// Deleting the sale puts the sold units back.
	resp, _ = s.makeRequest(http.MethodDelete, "/api/v1/sales/"+sale.ID.String(), nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(50, s.getMedicine(medicine.ID).Quantity)

	resp, _ = s.makeRequest(http.MethodGet, "/api/v1/sales/"+sale.ID.String(), nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *PharmacyWorkflowSuite) TestCheckoutRejectsInsufficientStock() {
	medicine := s.createMedicine("Insulin Glargine", 1, 0, time.Now().AddDate(0, 6, 0))

	saleReq := handlers.CreateSaleRequest{
		Items: []handlers.SaleItemRequest{
			{MedicineID: medicine.ID, Quantity: 2, Price: decimal.NewFromFloat(450)},
		},
		Customer: domain.Customer{Name: "Meera Pillai", Phone: "+91-9876500002"},
	}
	resp, raw := s.makeRequest(http.MethodPost, "/api/v1/sales", saleReq)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(string(raw), "insufficient stock")

	// Nothing was reserved for the rejected checkout.
	s.Equal(1, s.getMedicine(medicine.ID).Quantity)
}

func (s *PharmacyWorkflowSuite) TestPrescriptionDispenseWorkflow() {
	medicine := s.createMedicine("Azithromycin 250mg", 100, 10, time.Now().AddDate(1, 0, 0))

	rxReq := handlers.PrescriptionRequest{
		Customer: domain.Customer{Name: "Anand Krishnan", Phone: "+91-9876500003"},
		Doctor:   domain.Doctor{Name: "Dr. Amara Osei", License: "KMC-44821"},
		Items: []handlers.PrescriptionItemRequest{
			{MedicineID: medicine.ID, Dosage: "250mg", Quantity: 10, Instructions: "After meals"},
		},
		Diagnosis:  "Upper respiratory tract infection",
		ValidUntil: time.Now().AddDate(0, 1, 0),
	}
	resp, raw := s.makeRequest(http.MethodPost, "/api/v1/prescriptions", rxReq)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, "body: %s", raw)

	var rx domain.Prescription
	s.decode(raw, &rx)
	s.NotEmpty(rx.PrescriptionNumber)
	s.Equal(domain.PrescriptionPending, rx.Status)

	dispense := func(quantity int) (*http.Response, []byte) {
		return s.makeRequest(http.MethodPost,
			"/api/v1/prescriptions/"+rx.ID.String()+"/dispense",
			handlers.DispenseRequest{MedicineID: medicine.ID, Quantity: quantity})
	}

	resp, raw = dispense(4)
	s.Require().Equal(http.StatusOK, resp.StatusCode, "body: %s", raw)
	var partial domain.Prescription
	s.decode(raw, &partial)
	s.Equal(domain.PrescriptionPartiallyDispensed, partial.Status)
	s.Equal(4, partial.Items[0].Dispensed)
	s.Equal(96, s.getMedicine(medicine.ID).Quantity)

	// Over-dispensing the remainder is refused and changes nothing.
	resp, raw = dispense(7)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(string(raw), "cannot dispense more than remaining quantity")
	s.Equal(96, s.getMedicine(medicine.ID).Quantity)

	resp, raw = dispense(6)
	s.Require().Equal(http.StatusOK, resp.StatusCode, "body: %s", raw)
	var full domain.Prescription
	s.decode(raw, &full)
	s.Equal(domain.PrescriptionDispensed, full.Status)
	s.NotNil(full.DispensedAt)
	s.Equal(90, s.getMedicine(medicine.ID).Quantity)
}

func (s *PharmacyWorkflowSuite) TestCancelledPrescriptionRefusesDispensing() {
	medicine := s.createMedicine("Metformin 500mg", 60, 10, time.Now().AddDate(1, 0, 0))

	rxReq := handlers.PrescriptionRequest{
		Customer: domain.Customer{Name: "Sunita Rao", Phone: "+91-9876500004"},
		Doctor:   domain.Doctor{Name: "Dr. Leena Thomas", License: "KMC-51932"},
		Items: []handlers.PrescriptionItemRequest{
			{MedicineID: medicine.ID, Dosage: "500mg", Quantity: 30, Instructions: "With breakfast"},
		},
		Diagnosis:  "Type 2 diabetes",
		ValidUntil: time.Now().AddDate(0, 3, 0),
	}
	resp, raw := s.makeRequest(http.MethodPost, "/api/v1/prescriptions", rxReq)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, "body: %s", raw)
	var rx domain.Prescription
	s.decode(raw, &rx)

	resp, raw = s.makeRequest(http.MethodPost, "/api/v1/prescriptions/"+rx.ID.String()+"/cancel", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode, "body: %s", raw)
	var cancelled domain.Prescription
	s.decode(raw, &cancelled)
	s.Equal(domain.PrescriptionCancelled, cancelled.Status)

	resp, _ = s.makeRequest(http.MethodPost,
		"/api/v1/prescriptions/"+rx.ID.String()+"/dispense",
		handlers.DispenseRequest{MedicineID: medicine.ID, Quantity: 5})
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal(60, s.getMedicine(medicine.ID).Quantity)
}

func (s *PharmacyWorkflowSuite) TestDashboardAndReports() {
	now := time.Now()
	s.createMedicine("Cetirizine 10mg", 200, 20, now.AddDate(1, 0, 0))
	s.createMedicine("Vitamin D3 60K", 5, 10, now.AddDate(1, 0, 0))
	s.createMedicine("Expired Cough Syrup", 15, 5, now.AddDate(0, 0, -10))

	sellable := s.createMedicine("Ibuprofen 400mg", 80, 10, now.AddDate(1, 0, 0))
	saleReq := handlers.CreateSaleRequest{
		Items: []handlers.SaleItemRequest{
			{MedicineID: sellable.ID, Quantity: 2, Price: decimal.NewFromFloat(8)},
		},
		Customer: domain.Customer{Name: "Walk-in", Phone: "+91-9876500005"},
	}
	resp, raw := s.makeRequest(http.MethodPost, "/api/v1/sales", saleReq)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, "body: %s", raw)

	resp, raw = s.makeRequest(http.MethodGet, "/api/v1/dashboard/stats", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode, "body: %s", raw)
	var stats handlers.DashboardStats
	s.decode(raw, &stats)
	s.Equal(int64(4), stats.Inventory.TotalMedicines)
	s.Equal(int64(1), stats.Inventory.LowStock)
	s.Equal(int64(1), stats.Inventory.Expired)
	s.Equal(int64(1), stats.Sales.TodayCount)
	s.Len(stats.RecentSales, 1)

	resp, raw = s.makeRequest(http.MethodGet, "/api/v1/dashboard/alerts", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode, "body: %s", raw)
	var alerts handlers.AlertsData
	s.decode(raw, &alerts)
	s.Equal(1, alerts.Counts.LowStock)
	s.Equal(1, alerts.Counts.Expired)
	s.Require().Len(alerts.Expired, 1)
	s.Equal("Expired Cough Syrup", alerts.Expired[0].Name)

	for _, path := range []string{"/api/v1/reports/sales", "/api/v1/reports/inventory"} {
		resp, raw = s.makeRequest(http.MethodGet, path, nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode, "%s body: %s", path, raw)
	}

	// The expiring endpoint only counts batches still ahead of their date.
	resp, raw = s.makeRequest(http.MethodGet, "/api/v1/medicines/expiring/400", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var expiring struct {
		WithinDays int `json:"within_days"`
		Count      int `json:"count"`
	}
	s.decode(raw, &expiring)
	s.Equal(400, expiring.WithinDays)
	s.Equal(4, expiring.Count)
}
