package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuskit/college-admin-api/internal/models"
	appErrors "github.com/campuskit/college-admin-api/pkg/errors"
)

type stubPaymentEnrollments struct {
	enrollment *models.Enrollment
	err        error
}

func (s *stubPaymentEnrollments) FindByID(context.Context, string) (*models.Enrollment, error) {
	return s.enrollment, s.err
}

type stubPaymentLedger struct {
	recorded  *models.PaymentApplication
	recordErr error
}

func (s *stubPaymentLedger) Record(_ context.Context, app models.PaymentApplication) (*models.PaymentTransaction, error) {
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	s.recorded = &app
	txn := app.Transaction
	txn.ID = "txn-1"
	return &txn, nil
}

func (s *stubPaymentLedger) List(context.Context, models.PaymentFilter) ([]models.PaymentTransaction, int, error) {
	return nil, 0, nil
}

type stubDocumentFees struct {
	pending float64
	err     error
}

func (s *stubDocumentFees) SumPendingFees(context.Context, string) (float64, error) {
	return s.pending, s.err
}

func verifiedEnrollment() *models.Enrollment {
	return &models.Enrollment{
		ID:               "enroll-1",
		StudentID:        "student-1",
		Status:           models.EnrollmentStatusVerified,
		TotalFee:         10000,
		AmountPaid:       0,
		RemainingBalance: 10000,
		PaymentStatus:    models.PaymentStatusUnpaid,
	}
}

func TestRecordCounterPaymentPartial(t *testing.T) {
	ledger := &stubPaymentLedger{}
	svc := NewPaymentService(&stubPaymentEnrollments{enrollment: verifiedEnrollment()}, ledger, &stubDocumentFees{}, nil, zap.NewNop(), "")

	result, err := svc.RecordCounterPayment(context.Background(), CounterPaymentRequest{
		EnrollmentID:  "enroll-1",
		AmountPaid:    4000,
		PaymentMethod: "cash",
	}, "cashier-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPartial, result.PaymentStatus)
	assert.Equal(t, 6000.0, result.RemainingBalance)
	assert.Equal(t, models.EnrollmentStatusOfficiallyEnrolled, result.EnrollmentStatus)
	assert.False(t, result.DocumentsProcessing)

	require.NotNil(t, ledger.recorded)
	assert.Equal(t, 4000.0, ledger.recorded.AmountPaid)
	require.NotNil(t, ledger.recorded.EnrollmentStatus)
	assert.Equal(t, models.EnrollmentStatusOfficiallyEnrolled, *ledger.recorded.EnrollmentStatus)
	require.NotNil(t, ledger.recorded.Transaction.ReceivedBy)
	assert.Equal(t, "cashier-1", *ledger.recorded.Transaction.ReceivedBy)
}

func TestRecordCounterPaymentFullyPaid(t *testing.T) {
	enrollment := verifiedEnrollment()
	enrollment.Status = models.EnrollmentStatusOfficiallyEnrolled
	enrollment.AmountPaid = 6000
	enrollment.RemainingBalance = 4000
	ledger := &stubPaymentLedger{}
	svc := NewPaymentService(&stubPaymentEnrollments{enrollment: enrollment}, ledger, &stubDocumentFees{}, nil, zap.NewNop(), "")

	result, err := svc.RecordCounterPayment(context.Background(), CounterPaymentRequest{
		EnrollmentID:  "enroll-1",
		AmountPaid:    4000,
		PaymentMethod: "cash",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFullyPaid, result.PaymentStatus)
	assert.Zero(t, result.RemainingBalance)
	assert.Equal(t, models.EnrollmentStatusOfficiallyEnrolled, result.EnrollmentStatus)
	assert.Nil(t, ledger.recorded.EnrollmentStatus)
	assert.Nil(t, ledger.recorded.Transaction.ReceivedBy)
}

func TestRecordCounterPaymentMarksDocumentsProcessing(t *testing.T) {
	enrollment := verifiedEnrollment()
	enrollment.TotalFee = 10200
	enrollment.RemainingBalance = 10200
	ledger := &stubPaymentLedger{}
	svc := NewPaymentService(&stubPaymentEnrollments{enrollment: enrollment}, ledger, &stubDocumentFees{pending: 200}, nil, zap.NewNop(), "")

	result, err := svc.RecordCounterPayment(context.Background(), CounterPaymentRequest{
		EnrollmentID:  "enroll-1",
		AmountPaid:    500,
		PaymentMethod: "gcash",
	}, "")
	require.NoError(t, err)
	assert.True(t, result.DocumentsProcessing)
	assert.True(t, ledger.recorded.MarkDocumentsProcessing)
}

func TestRecordCounterPaymentGeneratesReference(t *testing.T) {
	ledger := &stubPaymentLedger{}
	svc := NewPaymentService(&stubPaymentEnrollments{enrollment: verifiedEnrollment()}, ledger, &stubDocumentFees{}, nil, zap.NewNop(), "OR")

	result, err := svc.RecordCounterPayment(context.Background(), CounterPaymentRequest{
		EnrollmentID:  "enroll-1",
		AmountPaid:    100,
		PaymentMethod: "cash",
	}, "")
	require.NoError(t, err)
	prefix := fmt.Sprintf("OR-%s-", time.Now().UTC().Format("20060102"))
	assert.Regexp(t, "^"+prefix+`\d{4}$`, result.ReferenceNumber)
}

func TestRecordCounterPaymentKeepsClientReference(t *testing.T) {
	ledger := &stubPaymentLedger{}
	svc := NewPaymentService(&stubPaymentEnrollments{enrollment: verifiedEnrollment()}, ledger, &stubDocumentFees{}, nil, zap.NewNop(), "")

	result, err := svc.RecordCounterPayment(context.Background(), CounterPaymentRequest{
		EnrollmentID:    "enroll-1",
		AmountPaid:      100,
		PaymentMethod:   "bank",
		ReferenceNumber: "BANK-0042",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "BANK-0042", result.ReferenceNumber)
}

func TestRecordCounterPaymentRejectsNonPositiveAmount(t *testing.T) {
	svc := NewPaymentService(&stubPaymentEnrollments{}, &stubPaymentLedger{}, &stubDocumentFees{}, nil, zap.NewNop(), "")

	_, err := svc.RecordCounterPayment(context.Background(), CounterPaymentRequest{
		EnrollmentID:  "enroll-1",
		AmountPaid:    -25,
		PaymentMethod: "cash",
	}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRecordCounterPaymentEnrollmentNotFound(t *testing.T) {
	svc := NewPaymentService(&stubPaymentEnrollments{err: sql.ErrNoRows}, &stubPaymentLedger{}, &stubDocumentFees{}, nil, zap.NewNop(), "")

	_, err := svc.RecordCounterPayment(context.Background(), CounterPaymentRequest{
		EnrollmentID:  "missing",
		AmountPaid:    100,
		PaymentMethod: "cash",
	}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
