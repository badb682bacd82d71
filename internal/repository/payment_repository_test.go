package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/college-admin-api/internal/models"
)

func newPaymentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPaymentRepositoryRecordFullApplication(t *testing.T) {
	db, mock, cleanup := newPaymentMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	promoted := models.EnrollmentStatusOfficiallyEnrolled

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE enrollments SET amount_paid = $2, remaining_balance = $3, payment_status = $4, updated_at = NOW() WHERE id = $1`)).
		WithArgs("enroll-1", 4000.0, 6000.0, models.PaymentStatusPartial).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE enrollments SET status = $2, updated_at = NOW() WHERE id = $1`)).
		WithArgs("enroll-1", promoted).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payment_transactions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE document_requests SET status = $2, updated_at = NOW() WHERE enrollment_id = $1 AND status = $3`)).
		WithArgs("enroll-1", models.DocumentStatusProcessing, models.DocumentStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	txn, err := repo.Record(context.Background(), models.PaymentApplication{
		EnrollmentID:            "enroll-1",
		AmountPaid:              4000,
		RemainingBalance:        6000,
		PaymentStatus:           models.PaymentStatusPartial,
		EnrollmentStatus:        &promoted,
		MarkDocumentsProcessing: true,
		Transaction: models.PaymentTransaction{
			EnrollmentID:    "enroll-1",
			StudentID:       "student-1",
			Amount:          4000,
			Method:          "cash",
			ReferenceNumber: "PAY-20250901-1234",
			StatusSnapshot:  models.PaymentStatusPartial,
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, txn.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryRecordSkipsOptionalWrites(t *testing.T) {
	db, mock, cleanup := newPaymentMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE enrollments SET amount_paid = $2, remaining_balance = $3, payment_status = $4, updated_at = NOW() WHERE id = $1`)).
		WithArgs("enroll-1", 10000.0, 0.0, models.PaymentStatusFullyPaid).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payment_transactions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	_, err := repo.Record(context.Background(), models.PaymentApplication{
		EnrollmentID:     "enroll-1",
		AmountPaid:       10000,
		RemainingBalance: 0,
		PaymentStatus:    models.PaymentStatusFullyPaid,
		Transaction: models.PaymentTransaction{
			EnrollmentID: "enroll-1",
			StudentID:    "student-1",
			Amount:       10000,
			Method:       "cash",
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryRecordRollsBackOnLedgerFailure(t *testing.T) {
	db, mock, cleanup := newPaymentMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE enrollments SET amount_paid").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payment_transactions").
		WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	_, err := repo.Record(context.Background(), models.PaymentApplication{
		EnrollmentID:     "enroll-1",
		AmountPaid:       500,
		RemainingBalance: 9500,
		PaymentStatus:    models.PaymentStatusPartial,
		Transaction:      models.PaymentTransaction{EnrollmentID: "enroll-1", StudentID: "student-1", Amount: 500},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryList(t *testing.T) {
	db, mock, cleanup := newPaymentMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "enrollment_id", "student_id", "amount", "method", "reference_number", "remarks", "status_snapshot", "received_by", "created_at"}).
		AddRow("txn-1", "enroll-1", "student-1", 4000.0, "cash", "PAY-20250901-0001", "", models.PaymentStatusPartial, nil, time.Now())
	mock.ExpectQuery("SELECT pt.id, pt.enrollment_id").
		WithArgs("enroll-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM payment_transactions pt WHERE pt.enrollment_id = $1")).
		WithArgs("enroll-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	transactions, total, err := repo.List(context.Background(), models.PaymentFilter{EnrollmentID: "enroll-1"})
	require.NoError(t, err)
	assert.Len(t, transactions, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
