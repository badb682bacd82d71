package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuskit/college-admin-api/internal/models"
	appErrors "github.com/campuskit/college-admin-api/pkg/errors"
)

type paymentEnrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
}

type paymentLedger interface {
	Record(ctx context.Context, app models.PaymentApplication) (*models.PaymentTransaction, error)
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentTransaction, int, error)
}

type documentFeeReader interface {
	SumPendingFees(ctx context.Context, enrollmentID string) (float64, error)
}

// CounterPaymentRequest records a payment taken at the cashier counter.
type CounterPaymentRequest struct {
	EnrollmentID    string  `json:"enrollment_id" validate:"required"`
	AmountPaid      float64 `json:"amount_paid" validate:"required,gt=0"`
	PaymentMethod   string  `json:"payment_method" validate:"required"`
	ReferenceNumber string  `json:"reference_number"`
	Remarks         string  `json:"remarks"`
}

// PaymentService applies payments against enrollments and keeps the ledger.
type PaymentService struct {
	enrollments     paymentEnrollmentReader
	ledger          paymentLedger
	documents       documentFeeReader
	validator       *validator.Validate
	logger          *zap.Logger
	referencePrefix string
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(enrollments paymentEnrollmentReader, ledger paymentLedger, documents documentFeeReader, validate *validator.Validate, logger *zap.Logger, referencePrefix string) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if referencePrefix == "" {
		referencePrefix = "PAY"
	}
	return &PaymentService{
		enrollments:     enrollments,
		ledger:          ledger,
		documents:       documents,
		validator:       validate,
		logger:          logger,
		referencePrefix: referencePrefix,
	}
}

// RecordCounterPayment applies a payment and recomputes the derived
// enrollment fields. The balance write, status writes, ledger insert and
// document rollover commit or roll back together.
func (s *PaymentService) RecordCounterPayment(ctx context.Context, req CounterPaymentRequest, receivedBy string) (*models.PaymentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if req.AmountPaid <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidAmount, "")
	}

	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	prevBalance := enrollment.RemainingBalance
	newBalance := prevBalance - req.AmountPaid
	newAmountPaid := enrollment.AmountPaid + req.AmountPaid

	paymentStatus := models.PaymentStatusUnpaid
	switch {
	case newBalance <= 0:
		paymentStatus = models.PaymentStatusFullyPaid
	case newBalance < prevBalance:
		paymentStatus = models.PaymentStatusPartial
	}

	var promoteTo *models.EnrollmentStatus
	enrollmentStatus := enrollment.Status
	if enrollment.Status == models.EnrollmentStatusVerified {
		promoted := models.EnrollmentStatusOfficiallyEnrolled
		promoteTo = &promoted
		enrollmentStatus = promoted
	}

	markDocs := false
	pendingFees, err := s.documents.SumPendingFees(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to total document fees")
	}
	if pendingFees > 0 && newAmountPaid >= pendingFees {
		markDocs = true
	}

	reference := req.ReferenceNumber
	if reference == "" {
		reference, err = s.generateReference()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate reference number")
		}
	}

	var receiver *string
	if receivedBy != "" {
		receiver = &receivedBy
	}

	app := models.PaymentApplication{
		EnrollmentID:            enrollment.ID,
		AmountPaid:              newAmountPaid,
		RemainingBalance:        newBalance,
		PaymentStatus:           paymentStatus,
		EnrollmentStatus:        promoteTo,
		MarkDocumentsProcessing: markDocs,
		Transaction: models.PaymentTransaction{
			EnrollmentID:    enrollment.ID,
			StudentID:       enrollment.StudentID,
			Amount:          req.AmountPaid,
			Method:          req.PaymentMethod,
			ReferenceNumber: reference,
			Remarks:         req.Remarks,
			StatusSnapshot:  paymentStatus,
			ReceivedBy:      receiver,
		},
	}

	txn, err := s.ledger.Record(ctx, app)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	s.logger.Info("counter payment recorded",
		zap.String("enrollment_id", enrollment.ID),
		zap.Float64("amount", req.AmountPaid),
		zap.String("reference", reference),
		zap.String("payment_status", string(paymentStatus)),
	)

	return &models.PaymentResult{
		TransactionID:       txn.ID,
		ReferenceNumber:     reference,
		PaymentStatus:       paymentStatus,
		EnrollmentStatus:    enrollmentStatus,
		RemainingBalance:    newBalance,
		DocumentsProcessing: markDocs,
	}, nil
}

// ListLedger returns ledger rows for finance review.
func (s *PaymentService) ListLedger(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentTransaction, int, error) {
	transactions, total, err := s.ledger.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return transactions, total, nil
}

// generateReference builds a date-stamped reference with a random 4-digit
// suffix. Uniqueness is best effort; the ledger keeps the transaction id as
// the real key.
func (s *PaymentService) generateReference() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%04d", s.referencePrefix, time.Now().UTC().Format("20060102"), n.Int64()), nil
}
