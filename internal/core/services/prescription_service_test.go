// internal/core/services/prescription_service_test.go
package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
	"github.com/medtrack/pharmacy-be/internal/core/services"
	"github.com/medtrack/pharmacy-be/test/helpers"
	"github.com/medtrack/pharmacy-be/test/mocks"
)

func TestPrescriptionService_CreatePrescription(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	med := helpers.CreateTestMedicine(func(m *domain.Medicine) {
		m.Name = "Cefixime 200mg"
	})

	txm := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockInventoryTx(ctrl)
	passthroughTx(txm, tx)

	tx.EXPECT().GetMedicineForUpdate(gomock.Any(), med.ID).Return(med, nil)
	tx.EXPECT().NextPrescriptionSeq(gomock.Any()).Return(int64(42), nil)

	var inserted *domain.Prescription
	tx.EXPECT().
		InsertPrescription(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p *domain.Prescription) error {
			inserted = p
			return nil
		})

	// Caller tries to smuggle in pre-dispensed lines and a stale medicine
	// name; the counts must be zeroed and the name re-snapshotted.
	p := helpers.CreateTestPrescription(func(p *domain.Prescription) {
		p.PrescriptionNumber = ""
		p.Items[0].MedicineID = med.ID
		p.Items[0].MedicineName = "stale name"
		p.Items[0].Dispensed = 5
	})

	svc := services.NewPrescriptionService(txm, mocks.NewMockPrescriptionRepository(ctrl), helpers.TestLogger())
	require.NoError(t, svc.CreatePrescription(context.Background(), p))

	require.NotNil(t, inserted)
	assert.Equal(t, "RX000042", inserted.PrescriptionNumber)
	assert.Equal(t, 0, inserted.Items[0].Dispensed)
	assert.Equal(t, "Cefixime 200mg", inserted.Items[0].MedicineName)
	assert.Equal(t, domain.PrescriptionPending, inserted.Status)
}

func TestPrescriptionService_CreatePrescription_UnknownMedicine(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	p := helpers.CreateTestPrescription(func(p *domain.Prescription) {
		p.PrescriptionNumber = ""
	})
	danglingID := p.Items[0].MedicineID

	txm := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockInventoryTx(ctrl)
	passthroughTx(txm, tx)

	// Resolution fails before a number is reserved or anything is written.
	tx.EXPECT().
		GetMedicineForUpdate(gomock.Any(), danglingID).
		Return(nil, domain.NewNotFoundError("medicine", danglingID))

	svc := services.NewPrescriptionService(txm, mocks.NewMockPrescriptionRepository(ctrl), helpers.TestLogger())
	err := svc.CreatePrescription(context.Background(), p)

	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, danglingID, nf.ID)
}

func TestPrescriptionService_CreatePrescription_Validation(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*domain.Prescription)
		errorContains string
	}{
		{
			name:          "missing_customer_name",
			mutate:        func(p *domain.Prescription) { p.Customer.Name = "" },
			errorContains: "customer name is required",
		},
		{
			name:          "missing_doctor_license",
			mutate:        func(p *domain.Prescription) { p.Doctor.License = "" },
			errorContains: "doctor license is required",
		},
		{
			name:          "no_items",
			mutate:        func(p *domain.Prescription) { p.Items = nil },
			errorContains: "at least one medicine is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// No transaction expectation: invalid input is rejected up front.
			txm := mocks.NewMockTransactionManager(ctrl)
			svc := services.NewPrescriptionService(txm, mocks.NewMockPrescriptionRepository(ctrl), helpers.TestLogger())

			p := helpers.CreateTestPrescription(tt.mutate)
			err := svc.CreatePrescription(context.Background(), p)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestPrescriptionService_Dispense_Partial(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	med := helpers.CreateTestMedicine(func(m *domain.Medicine) {
		m.Quantity = 50
		m.ParLevel = 5
	})
	p := helpers.CreateTestPrescription(func(p *domain.Prescription) {
		p.Items[0].MedicineID = med.ID
		p.Items[0].Quantity = 10
		p.Items[0].Dispensed = 3
	})

	txm := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockInventoryTx(ctrl)
	passthroughTx(txm, tx)

	tx.EXPECT().GetPrescriptionForUpdate(gomock.Any(), p.ID).Return(p, nil)
	tx.EXPECT().GetMedicineForUpdate(gomock.Any(), med.ID).Return(med, nil)
	tx.EXPECT().
		UpdateMedicineStock(gomock.Any(), med.ID, 46, domain.StatusInStock).
		Return(nil)

	var saved *domain.Prescription
	tx.EXPECT().
		UpdatePrescriptionDispense(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p *domain.Prescription) error {
			saved = p
			return nil
		})

	svc := services.NewPrescriptionService(txm, mocks.NewMockPrescriptionRepository(ctrl), helpers.TestLogger())
	result, err := svc.Dispense(context.Background(), ports.DispenseInput{
		PrescriptionID: p.ID,
		MedicineID:     med.ID,
		Quantity:       4,
	})

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 7, saved.Items[0].Dispensed)
	assert.Equal(t, domain.PrescriptionPartiallyDispensed, saved.Status)
	assert.Nil(t, saved.DispensedAt)
	assert.Equal(t, saved, result)
}

func TestPrescriptionService_Dispense_CompletesPrescription(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	med := helpers.CreateTestMedicine(func(m *domain.Medicine) {
		m.Quantity = 50
		m.ParLevel = 5
	})
	p := helpers.CreateTestPrescription(func(p *domain.Prescription) {
		p.Status = domain.PrescriptionPartiallyDispensed
		p.Items[0].MedicineID = med.ID
		p.Items[0].Quantity = 10
		p.Items[0].Dispensed = 7
	})

	txm := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockInventoryTx(ctrl)
	passthroughTx(txm, tx)

	tx.EXPECT().GetPrescriptionForUpdate(gomock.Any(), p.ID).Return(p, nil)
	tx.EXPECT().GetMedicineForUpdate(gomock.Any(), med.ID).Return(med, nil)
	tx.EXPECT().
		UpdateMedicineStock(gomock.Any(), med.ID, 47, domain.StatusInStock).
		Return(nil)
	tx.EXPECT().UpdatePrescriptionDispense(gomock.Any(), gomock.Any()).Return(nil)

	svc := services.NewPrescriptionService(txm, mocks.NewMockPrescriptionRepository(ctrl), helpers.TestLogger())
	result, err := svc.Dispense(context.Background(), ports.DispenseInput{
		PrescriptionID: p.ID,
		MedicineID:     med.ID,
		Quantity:       3,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.PrescriptionDispensed, result.Status)
	require.NotNil(t, result.DispensedAt)
	assert.Equal(t, 10, result.Items[0].Dispensed)
}

func TestPrescriptionService_Dispense_ExceedsRemaining(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	medID := uuid.New()
	p := helpers.CreateTestPrescription(func(p *domain.Prescription) {
		p.Items[0].MedicineID = medID
		p.Items[0].Quantity = 10
		p.Items[0].Dispensed = 7
	})

	txm := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockInventoryTx(ctrl)
	passthroughTx(txm, tx)

	// The prescribed-bound check fails before the medicine is even locked.
	tx.EXPECT().GetPrescriptionForUpdate(gomock.Any(), p.ID).Return(p, nil)

	svc := services.NewPrescriptionService(txm, mocks.NewMockPrescriptionRepository(ctrl), helpers.TestLogger())
	_, err := svc.Dispense(context.Background(), ports.DispenseInput{
		PrescriptionID: p.ID,
		MedicineID:     medID,
		Quantity:       4,
	})

	require.Error(t, err)
	var epe *domain.ExceedsPrescribedError
	require.ErrorAs(t, err, &epe)
	assert.Equal(t, 4, epe.Requested)
	assert.Equal(t, 3, epe.Remaining)
	assert.Contains(t, err.Error(), "remaining 3")

	// The prescription line must be untouched after the failed attempt.
	assert.Equal(t, 7, p.Items[0].Dispensed)
}

func TestPrescriptionService_Dispense_InsufficientStock(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	med := helpers.CreateTestMedicine(func(m *domain.Medicine) {
		m.Quantity = 2
	})
	p := helpers.CreateTestPrescription(func(p *domain.Prescription) {
		p.Items[0].MedicineID = med.ID
		p.Items[0].Quantity = 10
	})

	txm := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockInventoryTx(ctrl)
	passthroughTx(txm, tx)

	tx.EXPECT().GetPrescriptionForUpdate(gomock.Any(), p.ID).Return(p, nil)
	tx.EXPECT().GetMedicineForUpdate(gomock.Any(), med.ID).Return(med, nil)

	svc := services.NewPrescriptionService(txm, mocks.NewMockPrescriptionRepository(ctrl), helpers.TestLogger())
	_, err := svc.Dispense(context.Background(), ports.DispenseInput{
		PrescriptionID: p.ID,
		MedicineID:     med.ID,
		Quantity:       5,
	})

	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 2, ise.Available)
	assert.Equal(t, 0, p.Items[0].Dispensed)
}

func TestPrescriptionService_Dispense_CancelledPrescription(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	p := helpers.CreateTestPrescription(func(p *domain.Prescription) {
		p.Status = domain.PrescriptionCancelled
	})

	txm := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockInventoryTx(ctrl)
	passthroughTx(txm, tx)

	tx.EXPECT().GetPrescriptionForUpdate(gomock.Any(), p.ID).Return(p, nil)

	svc := services.NewPrescriptionService(txm, mocks.NewMockPrescriptionRepository(ctrl), helpers.TestLogger())
	_, err := svc.Dispense(context.Background(), ports.DispenseInput{
		PrescriptionID: p.ID,
		MedicineID:     p.Items[0].MedicineID,
		Quantity:       1,
	})

	require.ErrorIs(t, err, domain.ErrPrescriptionCancelled)
}

func TestPrescriptionService_Dispense_UnknownLine(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	p := helpers.CreateTestPrescription()
	otherMed := uuid.New()

	txm := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockInventoryTx(ctrl)
	passthroughTx(txm, tx)

	tx.EXPECT().GetPrescriptionForUpdate(gomock.Any(), p.ID).Return(p, nil)

	svc := services.NewPrescriptionService(txm, mocks.NewMockPrescriptionRepository(ctrl), helpers.TestLogger())
	_, err := svc.Dispense(context.Background(), ports.DispenseInput{
		PrescriptionID: p.ID,
		MedicineID:     otherMed,
		Quantity:       1,
	})

	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestPrescriptionService_Dispense_RejectsNonPositiveQuantity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txm := mocks.NewMockTransactionManager(ctrl)
	svc := services.NewPrescriptionService(txm, mocks.NewMockPrescriptionRepository(ctrl), helpers.TestLogger())

	_, err := svc.Dispense(context.Background(), ports.DispenseInput{
		PrescriptionID: uuid.New(),
		MedicineID:     uuid.New(),
		Quantity:       0,
	})

	require.Error(t, err)
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestPrescriptionService_UpdateMeta_RejectsCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	p := helpers.CreateTestPrescription(func(p *domain.Prescription) {
		p.Status = domain.PrescriptionCancelled
	})

	repo := mocks.NewMockPrescriptionRepository(ctrl)
	repo.EXPECT().FindByID(gomock.Any(), p.ID).Return(p, nil)

	svc := services.NewPrescriptionService(mocks.NewMockTransactionManager(ctrl), repo, helpers.TestLogger())
	err := svc.UpdateMeta(context.Background(), p)

	require.ErrorIs(t, err, domain.ErrPrescriptionCancelled)
}

func TestPrescriptionService_Cancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	p := helpers.CreateTestPrescription(func(p *domain.Prescription) {
		p.Status = domain.PrescriptionCancelled
	})

	repo := mocks.NewMockPrescriptionRepository(ctrl)
	repo.EXPECT().Cancel(gomock.Any(), p.ID).Return(p, nil)

	svc := services.NewPrescriptionService(mocks.NewMockTransactionManager(ctrl), repo, helpers.TestLogger())
	got, err := svc.Cancel(context.Background(), p.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.PrescriptionCancelled, got.Status)
}
