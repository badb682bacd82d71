package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuskit/college-admin-api/internal/models"
)

// PaymentRepository persists the payment ledger and applies payment effects.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Record applies a payment in one transaction: the enrollment balance and
// status writes, the append-only ledger insert, and the document request
// rollover. Any failure rolls back all of them.
func (r *PaymentRepository) Record(ctx context.Context, app models.PaymentApplication) (*models.PaymentTransaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin payment tx: %w", err)
	}

	const updateEnrollment = `UPDATE enrollments SET amount_paid = $2, remaining_balance = $3, payment_status = $4, updated_at = NOW() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateEnrollment, app.EnrollmentID, app.AmountPaid, app.RemainingBalance, app.PaymentStatus); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("apply payment to enrollment: %w", err)
	}

	if app.EnrollmentStatus != nil {
		const promote = `UPDATE enrollments SET status = $2, updated_at = NOW() WHERE id = $1`
		if _, err := tx.ExecContext(ctx, promote, app.EnrollmentID, *app.EnrollmentStatus); err != nil {
			tx.Rollback() //nolint:errcheck
			return nil, fmt.Errorf("promote enrollment status: %w", err)
		}
	}

	txn := app.Transaction
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	const insertTxn = `INSERT INTO payment_transactions (id, enrollment_id, student_id, amount, method, reference_number, remarks, status_snapshot, received_by, created_at)
		VALUES (:id, :enrollment_id, :student_id, :amount, :method, :reference_number, :remarks, :status_snapshot, :received_by, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertTxn, txn); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("insert payment transaction: %w", err)
	}

	if app.MarkDocumentsProcessing {
		const rollDocs = `UPDATE document_requests SET status = $2, updated_at = NOW() WHERE enrollment_id = $1 AND status = $3`
		if _, err := tx.ExecContext(ctx, rollDocs, app.EnrollmentID, models.DocumentStatusProcessing, models.DocumentStatusPending); err != nil {
			tx.Rollback() //nolint:errcheck
			return nil, fmt.Errorf("mark document requests processing: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit payment: %w", err)
	}
	return &txn, nil
}

// List returns ledger rows filtered by enrollment, student or date range.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentTransaction, int, error) {
	base := `FROM payment_transactions pt`
	var conditions []string
	var args []interface{}

	if filter.EnrollmentID != "" {
		conditions = append(conditions, fmt.Sprintf("pt.enrollment_id = $%d", len(args)+1))
		args = append(args, filter.EnrollmentID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("pt.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("pt.created_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("pt.created_at < $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT pt.id, pt.enrollment_id, pt.student_id, pt.amount, pt.method, pt.reference_number, pt.remarks, pt.status_snapshot, pt.received_by, pt.created_at
        %s ORDER BY pt.created_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var transactions []models.PaymentTransaction
	if err := r.db.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payment transactions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payment transactions: %w", err)
	}
	return transactions, total, nil
}
