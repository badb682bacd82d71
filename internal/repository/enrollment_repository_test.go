package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/college-admin-api/internal/models"
)

func newEnrollmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func enrollmentDetailRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "student_id", "program_id", "term_id", "year_level", "semester", "block", "status",
		"total_fee", "amount_paid", "remaining_balance", "payment_status", "created_at", "updated_at",
		"student_name", "student_number", "program_code", "school_year",
	}).AddRow("enroll-1", "student-1", "prog-1", "term-1", 1, 1, "A", models.EnrollmentStatusPending,
		10350.0, 0.0, 10350.0, models.PaymentStatusUnpaid, now, now,
		"Juan Dela Cruz", "2026-00012", "BSIT", "2026-2027")
}

func TestEnrollmentRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`e.term_id = $1 AND e.status = $2 AND (LOWER(s.full_name) LIKE $3 OR s.student_number LIKE $3) ORDER BY e.created_at DESC LIMIT 20 OFFSET 0`)).
		WithArgs("term-1", models.EnrollmentStatusPending, "%dela%").
		WillReturnRows(enrollmentDetailRows())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM enrollments e`)).
		WithArgs("term-1", models.EnrollmentStatusPending, "%dela%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	enrollments, total, err := repo.List(context.Background(), models.EnrollmentFilter{
		TermID: "term-1",
		Status: string(models.EnrollmentStatusPending),
		Search: "Dela",
	})
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Juan Dela Cruz", enrollments[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListRejectsUnknownSort(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY e.created_at DESC LIMIT 5 OFFSET 5`)).
		WillReturnRows(enrollmentDetailRows())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*)`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

	_, total, err := repo.List(context.Background(), models.EnrollmentFilter{
		Page:     2,
		PageSize: 5,
		SortBy:   "total_fee; DROP TABLE enrollments",
	})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindActiveByStudentAndTermSkipsRejected(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE student_id = $1 AND term_id = $2 AND status <> $3 LIMIT 1`)).
		WithArgs("student-1", "term-1", models.EnrollmentStatusRejected).
		WillReturnError(sql.ErrNoRows)

	enrollment, err := repo.FindActiveByStudentAndTerm(context.Background(), "student-1", "term-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Nil(t, enrollment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateGeneratesID(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	enrollment := &models.Enrollment{
		StudentID:        "student-1",
		ProgramID:        "prog-1",
		TermID:           "term-1",
		YearLevel:        1,
		Semester:         1,
		Block:            "A",
		Status:           models.EnrollmentStatusPending,
		TotalFee:         10350,
		RemainingBalance: 10350,
		PaymentStatus:    models.PaymentStatusUnpaid,
	}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	assert.NotEmpty(t, enrollment.ID)
	assert.False(t, enrollment.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE enrollments SET status = $2, updated_at = NOW() WHERE id = $1`)).
		WithArgs("enroll-1", models.EnrollmentStatusForPayment).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "enroll-1", models.EnrollmentStatusForPayment))
	assert.NoError(t, mock.ExpectationsWereMet())
}
