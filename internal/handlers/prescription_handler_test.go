// internal/handlers/prescription_handler_test.go
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
	"github.com/medtrack/pharmacy-be/internal/handlers"
	"github.com/medtrack/pharmacy-be/test/helpers"
	"github.com/medtrack/pharmacy-be/test/mocks"
)

func newPrescriptionHandler(t *testing.T, ctrl *gomock.Controller) (*handlers.PrescriptionHandler, *mocks.MockPrescriptionService) {
	t.Helper()
	mockService := mocks.NewMockPrescriptionService(ctrl)
	mockCache := mocks.NewMockCacheRepository(ctrl)
	mockCache.EXPECT().DeletePattern(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	return handlers.NewPrescriptionHandler(mockService, mockCache, helpers.TestLogger()), mockService
}

func TestPrescriptionHandler_CreatePrescription(t *testing.T) {
	medicineID := uuid.New()

	validRequest := handlers.PrescriptionRequest{
		Customer: domain.Customer{Name: "Jane Walker", Phone: "555-0101"},
		Doctor:   domain.Doctor{Name: "Dr. Amara Osei", License: "MD-88120"},
		Items: []handlers.PrescriptionItemRequest{
			{
				MedicineID:   medicineID,
				Dosage:       "500mg",
				Quantity:     10,
				Instructions: "Take one capsule three times daily",
			},
		},
		Diagnosis:  "Bacterial sinusitis",
		ValidUntil: time.Now().AddDate(0, 1, 0),
	}

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMocks     func(*testing.T, *mocks.MockPrescriptionService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:        "successfully_creates_prescription",
			requestBody: validRequest,
			setupMocks: func(t *testing.T, m *mocks.MockPrescriptionService) {
				m.EXPECT().
					CreatePrescription(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, p *domain.Prescription) error {
						require.Len(t, p.Items, 1)
						assert.Equal(t, medicineID, p.Items[0].MedicineID)
						assert.Equal(t, 0, p.Items[0].Dispensed)
						p.ID = uuid.New()
						p.PrescriptionNumber = "RX000007"
						p.Status = domain.PrescriptionPending
						return nil
					})
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body []byte) {
				var response domain.Prescription
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "RX000007", response.PrescriptionNumber)
				assert.Equal(t, domain.PrescriptionPending, response.Status)
			},
		},
		{
			name:           "invalid_json_body",
			requestBody:    "not json",
			setupMocks:     func(t *testing.T, m *mocks.MockPrescriptionService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "validation_error_from_service",
			requestBody: handlers.PrescriptionRequest{},
			setupMocks: func(t *testing.T, m *mocks.MockPrescriptionService) {
				m.EXPECT().
					CreatePrescription(gomock.Any(), gomock.Any()).
					Return(domain.NewValidationError("items", "at least one item is required"))
			},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "items: at least one item is required", response["error"])
			},
		},
		{
			name:        "service_error",
			requestBody: validRequest,
			setupMocks: func(t *testing.T, m *mocks.MockPrescriptionService) {
				m.EXPECT().
					CreatePrescription(gomock.Any(), gomock.Any()).
					Return(errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			handler, mockService := newPrescriptionHandler(t, ctrl)
			tt.setupMocks(t, mockService)

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest("POST", "/api/v1/prescriptions", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreatePrescription(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestPrescriptionHandler_ListPrescriptions(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    map[string]string
		setupMocks     func(*testing.T, *mocks.MockPrescriptionService)
		expectedStatus int
	}{
		{
			name: "filters_by_status_and_priority",
			queryParams: map[string]string{
				"status":   "pending",
				"priority": "urgent",
			},
			setupMocks: func(t *testing.T, m *mocks.MockPrescriptionService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.PrescriptionListParams) (*ports.PrescriptionListResult, error) {
						assert.Equal(t, "pending", params.Status)
						assert.Equal(t, "urgent", params.Priority)
						return &ports.PrescriptionListResult{Items: []*domain.Prescription{}, Page: 1, PageSize: 50}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "filters_by_doctor",
			queryParams: map[string]string{
				"doctor": "osei",
			},
			setupMocks: func(t *testing.T, m *mocks.MockPrescriptionService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.PrescriptionListParams) (*ports.PrescriptionListResult, error) {
						assert.Equal(t, "osei", params.Doctor)
						return &ports.PrescriptionListResult{Items: []*domain.Prescription{}, Page: 1, PageSize: 50}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "service_error",
			queryParams: map[string]string{},
			setupMocks: func(t *testing.T, m *mocks.MockPrescriptionService) {
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

			handler, mockService := newPrescriptionHandler(t, ctrl)
			tt.setupMocks(t, mockService)

			req := httptest.NewRequest("GET", "/api/v1/prescriptions", nil)
			q := req.URL.Query()
			for k, v := range tt.queryParams {
				q.Add(k, v)
			}
			req.URL.RawQuery = q.Encode()
			w := httptest.NewRecorder()

			handler.ListPrescriptions(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestPrescriptionHandler_Dispense(t *testing.T) {
	prescriptionID := uuid.New()
	medicineID := uuid.New()

	tests := []struct {
		name           string
		prescriptionID string
		requestBody    interface{}
		setupMocks     func(*testing.T, *mocks.MockPrescriptionService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:           "successfully_dispenses_partial_quantity",
			prescriptionID: prescriptionID.String(),
			requestBody:    handlers.DispenseRequest{MedicineID: medicineID, Quantity: 4},
			setupMocks: func(t *testing.T, m *mocks.MockPrescriptionService) {
				updated := helpers.CreateTestPrescription(func(p *domain.Prescription) {
					p.ID = prescriptionID
					p.Items[0].MedicineID = medicineID
					p.Items[0].Dispensed = 4
					p.Status = domain.PrescriptionPartiallyDispensed
				})
				m.EXPECT().
					Dispense(gomock.Any(), ports.DispenseInput{
						PrescriptionID: prescriptionID,
						MedicineID:     medicineID,
						Quantity:       4,
					}).
					Return(updated, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response domain.Prescription
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, domain.PrescriptionPartiallyDispensed, response.Status)
				assert.Equal(t, 4, response.Items[0].Dispensed)
			},
		},
		{
			name:           "rejects_quantity_over_remaining",
			prescriptionID: prescriptionID.String(),
			requestBody:    handlers.DispenseRequest{MedicineID: medicineID, Quantity: 50},
			setupMocks: func(t *testing.T, m *mocks.MockPrescriptionService) {
				m.EXPECT().
					Dispense(gomock.Any(), gomock.Any()).
					Return(nil, &domain.ExceedsPrescribedError{
						PrescriptionID: prescriptionID,
						MedicineID:     medicineID,
						Requested:      50,
						Remaining:      10,
					})
			},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Contains(t, response["error"], "cannot dispense more than remaining quantity")
			},
		},
		{
			name:           "rejects_dispense_on_cancelled_prescription",
			prescriptionID: prescriptionID.String(),
			requestBody:    handlers.DispenseRequest{MedicineID: medicineID, Quantity: 1},
			setupMocks: func(t *testing.T, m *mocks.MockPrescriptionService) {
				m.EXPECT().
					Dispense(gomock.Any(), gomock.Any()).
					Return(nil, domain.ErrPrescriptionCancelled)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "insufficient_stock",
			prescriptionID: prescriptionID.String(),
			requestBody:    handlers.DispenseRequest{MedicineID: medicineID, Quantity: 4},
			setupMocks: func(t *testing.T, m *mocks.MockPrescriptionService) {
				m.EXPECT().
					Dispense(gomock.Any(), gomock.Any()).
					Return(nil, &domain.InsufficientStockError{
						MedicineID:   medicineID,
						MedicineName: "Amoxicillin 500mg",
						Requested:    4,
						Available:    2,
					})
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid_uuid",
			prescriptionID: "not-a-uuid",
			requestBody:    handlers.DispenseRequest{},
			setupMocks:     func(t *testing.T, m *mocks.MockPrescriptionService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			handler, mockService := newPrescriptionHandler(t, ctrl)
			tt.setupMocks(t, mockService)

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest("POST", "/api/v1/prescriptions/"+tt.prescriptionID+"/dispense", bytes.NewReader(body))
			req.SetPathValue("id", tt.prescriptionID)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.Dispense(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestPrescriptionHandler_CancelPrescription(t *testing.T) {
	prescriptionID := uuid.New()

	tests := []struct {
		name           string
		prescriptionID string
		setupMocks     func(*mocks.MockPrescriptionService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:           "successfully_cancels_prescription",
			prescriptionID: prescriptionID.String(),
			setupMocks: func(m *mocks.MockPrescriptionService) {
				cancelled := helpers.CreateTestPrescription(func(p *domain.Prescription) {
					p.ID = prescriptionID
					p.Status = domain.PrescriptionCancelled
				})
				m.EXPECT().
					Cancel(gomock.Any(), prescriptionID).
					Return(cancelled, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response domain.Prescription
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, domain.PrescriptionCancelled, response.Status)
			},
		},
		{
			name:           "prescription_not_found",
			prescriptionID: prescriptionID.String(),
			setupMocks: func(m *mocks.MockPrescriptionService) {
				m.EXPECT().
					Cancel(gomock.Any(), prescriptionID).
					Return(nil, domain.NewNotFoundError("prescription", prescriptionID))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid_uuid",
			prescriptionID: "not-a-uuid",
			setupMocks:     func(m *mocks.MockPrescriptionService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			handler, mockService := newPrescriptionHandler(t, ctrl)
			tt.setupMocks(mockService)

			req := httptest.NewRequest("POST", "/api/v1/prescriptions/"+tt.prescriptionID+"/cancel", nil)
			req.SetPathValue("id", tt.prescriptionID)
			w := httptest.NewRecorder()

			handler.CancelPrescription(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestPrescriptionHandler_DeletePrescription(t *testing.T) {
	prescriptionID := uuid.New()

	tests := []struct {
		name           string
		prescriptionID string
		setupMocks     func(*mocks.MockPrescriptionService)
		expectedStatus int
	}{
		{
			name:           "successfully_deletes_prescription",
			prescriptionID: prescriptionID.String(),
			setupMocks: func(m *mocks.MockPrescriptionService) {
				m.EXPECT().
					Delete(gomock.Any(), prescriptionID).
					Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "prescription_not_found",
			prescriptionID: prescriptionID.String(),
			setupMocks: func(m *mocks.MockPrescriptionService) {
				m.EXPECT().
					Delete(gomock.Any(), prescriptionID).
					Return(domain.NewNotFoundError("prescription", prescriptionID))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid_uuid",
			prescriptionID: "not-a-uuid",
			setupMocks:     func(m *mocks.MockPrescriptionService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			handler, mockService := newPrescriptionHandler(t, ctrl)
			tt.setupMocks(mockService)

			req := httptest.NewRequest("DELETE", "/api/v1/prescriptions/"+tt.prescriptionID, nil)
			req.SetPathValue("id", tt.prescriptionID)
			w := httptest.NewRecorder()

			handler.DeletePrescription(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}
