// internal/handlers/medicine_handler_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
	"github.com/medtrack/pharmacy-be/internal/handlers"
	"github.com/medtrack/pharmacy-be/test/helpers"
	"github.com/medtrack/pharmacy-be/test/mocks"
)

func newMedicineHandler(t *testing.T, ctrl *gomock.Controller) (*handlers.MedicineHandler, *mocks.MockMedicineService, *mocks.MockCacheRepository) {
	t.Helper()
	mockService := mocks.NewMockMedicineService(ctrl)
	mockCache := mocks.NewMockCacheRepository(ctrl)
	// Cache invalidation is best-effort and not what these tests assert on.
	mockCache.EXPECT().DeletePattern(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	return handlers.NewMedicineHandler(mockService, mockCache, helpers.TestLogger()), mockService, mockCache
}

func TestMedicineHandler_GetMedicine(t *testing.T) {
	testMedicine := helpers.CreateTestMedicine()

	tests := []struct {
		name           string
		medicineID     string
		setupMocks     func(*mocks.MockMedicineService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:       "successfully_retrieves_medicine",
			medicineID: testMedicine.ID.String(),
			setupMocks: func(m *mocks.MockMedicineService) {
				m.EXPECT().
					GetByID(gomock.Any(), testMedicine.ID).
					Return(testMedicine, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response domain.Medicine
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, testMedicine.ID, response.ID)
				assert.Equal(t, testMedicine.Name, response.Name)
				assert.Equal(t, domain.StatusInStock, response.Status)
			},
		},
		{
			name:           "invalid_uuid_format",
			medicineID:     "not-a-uuid",
			setupMocks:     func(m *mocks.MockMedicineService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "Invalid medicine ID format", response["error"])
			},
		},
		{
			name:       "medicine_not_found",
			medicineID: testMedicine.ID.String(),
			setupMocks: func(m *mocks.MockMedicineService) {
				m.EXPECT().
					GetByID(gomock.Any(), testMedicine.ID).
					Return(nil, domain.NewNotFoundError("medicine", testMedicine.ID))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:       "service_error",
			medicineID: testMedicine.ID.String(),
			setupMocks: func(m *mocks.MockMedicineService) {
				m.EXPECT().
					GetByID(gomock.Any(), testMedicine.ID).
					Return(nil, errors.New("database connection failed"))
			},
			expectedStatus: http.StatusInternalServerError,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "Internal server error", response["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			handler, mockService, _ := newMedicineHandler(t, ctrl)
			tt.setupMocks(mockService)

			req := httptest.NewRequest("GET", "/api/v1/medicines/"+tt.medicineID, nil)
			req.SetPathValue("id", tt.medicineID)
			w := httptest.NewRecorder()

			handler.GetMedicine(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestMedicineHandler_ListMedicines(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    map[string]string
		setupMocks     func(*testing.T, *mocks.MockMedicineService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name: "successfully_lists_with_pagination",
			queryParams: map[string]string{
				"page":  "2",
				"limit": "10",
			},
			setupMocks: func(t *testing.T, m *mocks.MockMedicineService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.MedicineListParams) (*ports.MedicineListResult, error) {
						assert.Equal(t, 2, params.Page)
						assert.Equal(t, 10, params.PageSize)
						return &ports.MedicineListResult{
							Items:      []*domain.Medicine{helpers.CreateTestMedicine()},
							Page:       2,
							PageSize:   10,
							TotalCount: 11,
							TotalPages: 2,
						}, nil
					})
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response ports.MedicineListResult
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Len(t, response.Items, 1)
				assert.Equal(t, int64(11), response.TotalCount)
			},
		},
		{
			name: "filters_by_status_and_search",
			queryParams: map[string]string{
				"status": "low-stock",
				"search": "amoxicillin",
			},
			setupMocks: func(t *testing.T, m *mocks.MockMedicineService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.MedicineListParams) (*ports.MedicineListResult, error) {
						assert.Equal(t, "low-stock", params.Status)
						assert.Equal(t, "amoxicillin", params.Search)
						return &ports.MedicineListResult{Items: []*domain.Medicine{}, Page: 1, PageSize: 50}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "caps_page_size_at_100",
			queryParams: map[string]string{
				"page":  "0",
				"limit": "500",
			},
			setupMocks: func(t *testing.T, m *mocks.MockMedicineService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.MedicineListParams) (*ports.MedicineListResult, error) {
						assert.Equal(t, 1, params.Page)
						assert.Equal(t, 100, params.PageSize)
						return &ports.MedicineListResult{Items: []*domain.Medicine{}, Page: 1, PageSize: 100}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "service_error",
			queryParams: map[string]string{},
			setupMocks: func(t *testing.T, m *mocks.MockMedicineService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			handler, mockService, _ := newMedicineHandler(t, ctrl)
			tt.setupMocks(t, mockService)

			req := httptest.NewRequest("GET", "/api/v1/medicines", nil)
			q := req.URL.Query()
			for k, v := range tt.queryParams {
				q.Add(k, v)
			}
			req.URL.RawQuery = q.Encode()
			w := httptest.NewRecorder()

			handler.ListMedicines(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestMedicineHandler_CreateMedicine(t *testing.T) {
	categoryID := uuid.New()
	supplierID := uuid.New()

	validRequest := handlers.MedicineRequest{
		Name:       "Paracetamol 500mg",
		CategoryID: categoryID,
		SupplierID: supplierID,
		Batch:      "PCM-2401",
		ExpiryDate: time.Now().AddDate(1, 0, 0),
		Quantity:   200,
		Price:      decimal.NewFromFloat(2.50),
		MRP:        decimal.NewFromFloat(3.00),
		ParLevel:   30,
	}

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMocks     func(*testing.T, *mocks.MockMedicineService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:        "successfully_creates_medicine",
			requestBody: validRequest,
			setupMocks: func(t *testing.T, m *mocks.MockMedicineService) {
				m.EXPECT().
					SaveMedicine(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, medicine *domain.Medicine) error {
						assert.Equal(t, "Paracetamol 500mg", medicine.Name)
						assert.Equal(t, "PCM-2401", medicine.Batch)
						medicine.ID = uuid.New()
						medicine.Status = domain.StatusInStock
						return nil
					})
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body []byte) {
				var response domain.Medicine
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "Paracetamol 500mg", response.Name)
				assert.Equal(t, domain.StatusInStock, response.Status)
			},
		},
		{
			name:           "invalid_json_body",
			requestBody:    "not json",
			setupMocks:     func(t *testing.T, m *mocks.MockMedicineService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "Invalid request body", response["error"])
			},
		},
		{
			name: "validation_error_from_service",
			requestBody: handlers.MedicineRequest{
				Name: "Missing everything else",
			},
			setupMocks: func(t *testing.T, m *mocks.MockMedicineService) {
				m.EXPECT().
					SaveMedicine(gomock.Any(), gomock.Any()).
					Return(domain.NewValidationError("batch", "is required"))
			},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "batch: is required", response["error"])
			},
		},
		{
			name:        "service_error",
			requestBody: validRequest,
			setupMocks: func(t *testing.T, m *mocks.MockMedicineService) {
				m.EXPECT().
					SaveMedicine(gomock.Any(), gomock.Any()).
					Return(errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			handler, mockService, _ := newMedicineHandler(t, ctrl)
			tt.setupMocks(t, mockService)

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest("POST", "/api/v1/medicines", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateMedicine(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestMedicineHandler_CreateMedicineBatch(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMocks     func(*testing.T, *mocks.MockMedicineService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name: "successfully_creates_batch",
			requestBody: []handlers.MedicineRequest{
				{Name: "Medicine A", Batch: "A-1", Quantity: 10},
				{Name: "Medicine B", Batch: "B-1", Quantity: 20},
			},
			setupMocks: func(t *testing.T, m *mocks.MockMedicineService) {
				m.EXPECT().
					SaveMedicines(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, ms []domain.Medicine) error {
						assert.Len(t, ms, 2)
						return nil
					})
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]interface{}
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, float64(2), response["created"])
			},
		},
		{
			name:           "empty_batch",
			requestBody:    []handlers.MedicineRequest{},
			setupMocks:     func(t *testing.T, m *mocks.MockMedicineService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "At least one medicine is required", response["error"])
			},
		},
		{
			name:           "invalid_json_body",
			requestBody:    "not json",
			setupMocks:     func(t *testing.T, m *mocks.MockMedicineService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			handler, mockService, _ := newMedicineHandler(t, ctrl)
			tt.setupMocks(t, mockService)

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest("POST", "/api/v1/medicines/batch", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateMedicineBatch(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestMedicineHandler_UpdateMedicine(t *testing.T) {
	testID := uuid.New()

	tests := []struct {
		name           string
		medicineID     string
		requestBody    interface{}
		setupMocks     func(*mocks.MockMedicineService)
		expectedStatus int
	}{
		{
			name:       "successfully_updates_medicine",
			medicineID: testID.String(),
			requestBody: handlers.MedicineRequest{
				Name:       "Updated Name",
				CategoryID: uuid.New(),
				SupplierID: uuid.New(),
				Batch:      "B-2",
				ExpiryDate: time.Now().AddDate(0, 6, 0),
				Quantity:   50,
				Price:      decimal.NewFromFloat(4.00),
				MRP:        decimal.NewFromFloat(5.00),
			},
			setupMocks: func(m *mocks.MockMedicineService) {
				m.EXPECT().
					UpdateMedicine(gomock.Any(), testID, gomock.Any()).
					Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid_uuid",
			medicineID:     "not-a-uuid",
			requestBody:    handlers.MedicineRequest{},
			setupMocks:     func(m *mocks.MockMedicineService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "medicine_not_found",
			medicineID:  testID.String(),
			requestBody: handlers.MedicineRequest{Name: "Test"},
			setupMocks: func(m *mocks.MockMedicineService) {
				m.EXPECT().
					UpdateMedicine(gomock.Any(), testID, gomock.Any()).
					Return(domain.NewNotFoundError("medicine", testID))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "concurrency_conflict",
			medicineID:  testID.String(),
			requestBody: handlers.MedicineRequest{Name: "Test"},
			setupMocks: func(m *mocks.MockMedicineService) {
				m.EXPECT().
					UpdateMedicine(gomock.Any(), testID, gomock.Any()).
					Return(domain.ErrConcurrencyConflict)
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			handler, mockService, _ := newMedicineHandler(t, ctrl)
			tt.setupMocks(mockService)

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest("PUT", "/api/v1/medicines/"+tt.medicineID, bytes.NewReader(body))
			req.SetPathValue("id", tt.medicineID)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.UpdateMedicine(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestMedicineHandler_DeleteMedicine(t *testing.T) {
	testID := uuid.New()

	tests := []struct {
		name           string
		medicineID     string
		permanent      bool
		setupMocks     func(*mocks.MockMedicineService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:       "successfully_soft_deletes",
			medicineID: testID.String(),
			permanent:  false,
			setupMocks: func(m *mocks.MockMedicineService) {
				m.EXPECT().
					DeleteMedicine(gomock.Any(), testID, false).
					Return(nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]interface{}
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "Medicine deleted successfully", response["message"])
				assert.False(t, response["permanent"].(bool))
			},
		},
		{
			name:       "successfully_permanently_deletes",
			medicineID: testID.String(),
			permanent:  true,
			setupMocks: func(m *mocks.MockMedicineService) {
				m.EXPECT().
					DeleteMedicine(gomock.Any(), testID, true).
					Return(nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]interface{}
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.True(t, response["permanent"].(bool))
			},
		},
		{
			name:           "invalid_uuid",
			medicineID:     "not-a-uuid",
			setupMocks:     func(m *mocks.MockMedicineService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:       "medicine_not_found",
			medicineID: testID.String(),
			setupMocks: func(m *mocks.MockMedicineService) {
				m.EXPECT().
					DeleteMedicine(gomock.Any(), testID, false).
					Return(domain.NewNotFoundError("medicine", testID))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			handler, mockService, _ := newMedicineHandler(t, ctrl)
			tt.setupMocks(mockService)

			url := "/api/v1/medicines/" + tt.medicineID
			if tt.permanent {
				url += "?permanent=true"
			}
			req := httptest.NewRequest("DELETE", url, nil)
			req.SetPathValue("id", tt.medicineID)
			w := httptest.NewRecorder()

			handler.DeleteMedicine(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestMedicineHandler_MedicinesByStatus(t *testing.T) {
	tests := []struct {
		name           string
		status         string
		setupMocks     func(*mocks.MockMedicineService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:   "lists_low_stock_medicines",
			status: "low-stock",
			setupMocks: func(m *mocks.MockMedicineService) {
				low := helpers.CreateTestMedicine(func(med *domain.Medicine) {
					med.Quantity = 5
					med.Status = domain.StatusLowStock
				})
				m.EXPECT().
					GetByStatus(gomock.Any(), domain.StatusLowStock).
					Return([]*domain.Medicine{low}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]interface{}
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "low-stock", response["status"])
				assert.Equal(t, float64(1), response["count"])
			},
		},
		{
			name:           "rejects_unknown_status",
			status:         "on-fire",
			setupMocks:     func(m *mocks.MockMedicineService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "Unknown status", response["error"])
			},
		},
		{
			name:   "service_error",
			status: "expired",
			setupMocks: func(m *mocks.MockMedicineService) {
				m.EXPECT().
					GetByStatus(gomock.Any(), domain.StatusExpired).
					Return(nil, errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			handler, mockService, _ := newMedicineHandler(t, ctrl)
			tt.setupMocks(mockService)

			req := httptest.NewRequest("GET", "/api/v1/medicines/status/"+tt.status, nil)
			req.SetPathValue("status", tt.status)
			w := httptest.NewRecorder()

			handler.MedicinesByStatus(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestMedicineHandler_ExpiringMedicines(t *testing.T) {
	tests := []struct {
		name           string
		days           string
		setupMocks     func(*mocks.MockMedicineService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name: "lists_medicines_expiring_within_window",
			days: "30",
			setupMocks: func(m *mocks.MockMedicineService) {
				expiring := helpers.CreateTestMedicine(func(med *domain.Medicine) {
					med.ExpiryDate = time.Now().AddDate(0, 0, 14)
					med.Status = domain.StatusExpiringSoon
				})
				m.EXPECT().
					GetExpiring(gomock.Any(), 30).
					Return([]*domain.Medicine{expiring}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]interface{}
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, float64(30), response["within_days"])
				assert.Equal(t, float64(1), response["count"])
			},
		},
		{
			name:           "rejects_non_numeric_days",
			days:           "soon",
			setupMocks:     func(m *mocks.MockMedicineService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "rejects_zero_days",
			days:           "0",
			setupMocks:     func(m *mocks.MockMedicineService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			handler, mockService, _ := newMedicineHandler(t, ctrl)
			tt.setupMocks(mockService)

			req := httptest.NewRequest("GET", "/api/v1/medicines/expiring/"+tt.days, nil)
			req.SetPathValue("days", tt.days)
			w := httptest.NewRecorder()

			handler.ExpiringMedicines(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}
