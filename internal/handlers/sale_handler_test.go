// internal/handlers/sale_handler_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

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

func newSaleHandler(t *testing.T, ctrl *gomock.Controller) (*handlers.SaleHandler, *mocks.MockSaleService) {
	t.Helper()
	mockService := mocks.NewMockSaleService(ctrl)
	mockCache := mocks.NewMockCacheRepository(ctrl)
	mockCache.EXPECT().DeletePattern(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	return handlers.NewSaleHandler(mockService, mockCache, helpers.TestLogger()), mockService
}

func TestSaleHandler_CreateSale(t *testing.T) {
	medicineID := uuid.New()

	validRequest := handlers.CreateSaleRequest{
		Items: []handlers.SaleItemRequest{
			{MedicineID: medicineID, Quantity: 2, Price: decimal.NewFromFloat(5.50)},
		},
		Customer:      domain.Customer{Name: "Jane Walker", Phone: "555-0101"},
		PaymentMethod: "cash",
	}

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMocks     func(*testing.T, *mocks.MockSaleService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:        "successfully_creates_sale",
			requestBody: validRequest,
			setupMocks: func(t *testing.T, m *mocks.MockSaleService) {
				m.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, input ports.CreateSaleInput) (*domain.Sale, error) {
						require.Len(t, input.Items, 1)
						assert.Equal(t, medicineID, input.Items[0].MedicineID)
						assert.Equal(t, 2, input.Items[0].Quantity)
						assert.Equal(t, "Jane Walker", input.Customer.Name)
						return helpers.CreateTestSale(func(s *domain.Sale) {
							s.Items[0].MedicineID = medicineID
						}), nil
					})
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body []byte) {
				var response domain.Sale
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, medicineID, response.Items[0].MedicineID)
				assert.Equal(t, domain.PaymentCompleted, response.PaymentStatus)
			},
		},
		{
			name:           "invalid_json_body",
			requestBody:    "not json",
			setupMocks:     func(t *testing.T, m *mocks.MockSaleService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "Invalid request body", response["error"])
			},
		},
		{
			name:        "insufficient_stock",
			requestBody: validRequest,
			setupMocks: func(t *testing.T, m *mocks.MockSaleService) {
				m.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					Return(nil, &domain.InsufficientStockError{
						MedicineID:   medicineID,
						MedicineName: "Amoxicillin 500mg",
						Requested:    2,
						Available:    1,
					})
			},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Contains(t, response["error"], "insufficient stock")
				assert.Contains(t, response["error"], "requested 2, available 1")
			},
		},
		{
			name:        "unknown_medicine",
			requestBody: validRequest,
			setupMocks: func(t *testing.T, m *mocks.MockSaleService) {
				m.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					Return(nil, domain.NewNotFoundError("medicine", medicineID))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "concurrency_conflict_after_retries",
			requestBody: validRequest,
			setupMocks: func(t *testing.T, m *mocks.MockSaleService) {
				m.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					Return(nil, domain.ErrConcurrencyConflict)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:        "service_error",
			requestBody: validRequest,
			setupMocks: func(t *testing.T, m *mocks.MockSaleService) {
				m.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			handler, mockService := newSaleHandler(t, ctrl)
			tt.setupMocks(t, mockService)

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest("POST", "/api/v1/sales", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateSale(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestSaleHandler_GetSale(t *testing.T) {
	testSale := helpers.CreateTestSale()

	tests := []struct {
		name           string
		saleID         string
		setupMocks     func(*mocks.MockSaleService)
		expectedStatus int
	}{
		{
			name:   "successfully_retrieves_sale",
			saleID: testSale.ID.String(),
			setupMocks: func(m *mocks.MockSaleService) {
				m.EXPECT().
					GetByID(gomock.Any(), testSale.ID).
					Return(testSale, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid_uuid",
			saleID:         "not-a-uuid",
			setupMocks:     func(m *mocks.MockSaleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "sale_not_found",
			saleID: testSale.ID.String(),
			setupMocks: func(m *mocks.MockSaleService) {
				m.EXPECT().
					GetByID(gomock.Any(), testSale.ID).
					Return(nil, domain.NewNotFoundError("sale", testSale.ID))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			handler, mockService := newSaleHandler(t, ctrl)
			tt.setupMocks(mockService)

			req := httptest.NewRequest("GET", "/api/v1/sales/"+tt.saleID, nil)
			req.SetPathValue("id", tt.saleID)
			w := httptest.NewRecorder()

			handler.GetSale(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestSaleHandler_ListSales(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    map[string]string
		setupMocks     func(*testing.T, *mocks.MockSaleService)
		expectedStatus int
	}{
		{
			name: "filters_by_customer_and_payment_status",
			queryParams: map[string]string{
				"customer":       "jane",
				"payment_status": "completed",
			},
			setupMocks: func(t *testing.T, m *mocks.MockSaleService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.SaleListParams) (*ports.SaleListResult, error) {
						assert.Equal(t, "jane", params.Customer)
						assert.Equal(t, "completed", params.PaymentStatus)
						return &ports.SaleListResult{Items: []*domain.Sale{}, Page: 1, PageSize: 50}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "parses_date_range",
			queryParams: map[string]string{
				"start_date": "2026-08-01T00:00:00Z",
				"end_date":   "2026-08-31T23:59:59Z",
			},
			setupMocks: func(t *testing.T, m *mocks.MockSaleService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.SaleListParams) (*ports.SaleListResult, error) {
						require.NotNil(t, params.StartDate)
						require.NotNil(t, params.EndDate)
						assert.Equal(t, 2026, params.StartDate.Year())
						return &ports.SaleListResult{Items: []*domain.Sale{}, Page: 1, PageSize: 50}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "ignores_malformed_dates",
			queryParams: map[string]string{
				"start_date": "yesterday",
			},
			setupMocks: func(t *testing.T, m *mocks.MockSaleService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.SaleListParams) (*ports.SaleListResult, error) {
						assert.Nil(t, params.StartDate)
						return &ports.SaleListResult{Items: []*domain.Sale{}, Page: 1, PageSize: 50}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "service_error",
			queryParams: map[string]string{},
			setupMocks: func(t *testing.T, m *mocks.MockSaleService) {
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

			handler, mockService := newSaleHandler(t, ctrl)
			tt.setupMocks(t, mockService)

			req := httptest.NewRequest("GET", "/api/v1/sales", nil)
			q := req.URL.Query()
			for k, v := range tt.queryParams {
				q.Add(k, v)
			}
			req.URL.RawQuery = q.Encode()
			w := httptest.NewRecorder()

			handler.ListSales(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestSaleHandler_UpdateSale(t *testing.T) {
	testSale := helpers.CreateTestSale()

	tests := []struct {
		name           string
		saleID         string
		requestBody    interface{}
		setupMocks     func(*mocks.MockSaleService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:   "marks_sale_refunded",
			saleID: testSale.ID.String(),
			requestBody: handlers.UpdateSaleRequest{
				PaymentStatus: "refunded",
				Notes:         "customer returned the order",
			},
			setupMocks: func(m *mocks.MockSaleService) {
				refunded := helpers.CreateTestSale(func(s *domain.Sale) {
					s.ID = testSale.ID
					s.PaymentStatus = domain.PaymentRefunded
				})
				m.EXPECT().
					UpdateMeta(gomock.Any(), testSale.ID, domain.PaymentRefunded, "customer returned the order").
					Return(refunded, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response domain.Sale
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, domain.PaymentRefunded, response.PaymentStatus)
			},
		},
		{
			name:   "invalid_payment_status",
			saleID: testSale.ID.String(),
			requestBody: handlers.UpdateSaleRequest{
				PaymentStatus: "maybe",
			},
			setupMocks: func(m *mocks.MockSaleService) {
				m.EXPECT().
					UpdateMeta(gomock.Any(), testSale.ID, domain.PaymentStatus("maybe"), "").
					Return(nil, domain.NewValidationError("payment_status", "unknown value"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid_uuid",
			saleID:         "not-a-uuid",
			requestBody:    handlers.UpdateSaleRequest{},
			setupMocks:     func(m *mocks.MockSaleService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			handler, mockService := newSaleHandler(t, ctrl)
			tt.setupMocks(mockService)

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest("PUT", "/api/v1/sales/"+tt.saleID, bytes.NewReader(body))
			req.SetPathValue("id", tt.saleID)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.UpdateSale(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestSaleHandler_DeleteSale(t *testing.T) {
	testID := uuid.New()

	tests := []struct {
		name           string
		saleID         string
		setupMocks     func(*mocks.MockSaleService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:   "successfully_deletes_and_restores_stock",
			saleID: testID.String(),
			setupMocks: func(m *mocks.MockSaleService) {
				m.EXPECT().
					DeleteSale(gomock.Any(), testID).
					Return(nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "Sale deleted and stock restored", response["message"])
				assert.Equal(t, testID.String(), response["id"])
			},
		},
		{
			name:           "invalid_uuid",
			saleID:         "not-a-uuid",
			setupMocks:     func(m *mocks.MockSaleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "sale_not_found",
			saleID: testID.String(),
			setupMocks: func(m *mocks.MockSaleService) {
				m.EXPECT().
					DeleteSale(gomock.Any(), testID).
					Return(domain.NewNotFoundError("sale", testID))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			handler, mockService := newSaleHandler(t, ctrl)
			tt.setupMocks(mockService)

			req := httptest.NewRequest("DELETE", "/api/v1/sales/"+tt.saleID, nil)
			req.SetPathValue("id", tt.saleID)
			w := httptest.NewRecorder()

			handler.DeleteSale(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}
