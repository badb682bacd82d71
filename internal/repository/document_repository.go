package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuskit/college-admin-api/internal/models"
)

// DocumentRepository persists document requests.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// CreateWithFee inserts a request and folds its price into the owning
// enrollment's total fee and balance in one transaction.
func (r *DocumentRepository) CreateWithFee(ctx context.Context, request *models.DocumentRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.RequestedAt.IsZero() {
		request.RequestedAt = now
	}
	request.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin document tx: %w", err)
	}

	const insert = `INSERT INTO document_requests (id, student_id, enrollment_id, document_type, price, status, requested_at, updated_at)
		VALUES (:id, :student_id, :enrollment_id, :document_type, :price, :status, :requested_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, request); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert document request: %w", err)
	}

	const addFee = `UPDATE enrollments SET total_fee = total_fee + $2, remaining_balance = remaining_balance + $2, updated_at = NOW() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, addFee, request.EnrollmentID, request.Price); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("add document fee: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit document request: %w", err)
	}
	return nil
}

// FindByID returns a document request.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.DocumentRequest, error) {
	const query = `SELECT id, student_id, enrollment_id, document_type, price, status, file_path, requested_at, updated_at
        FROM document_requests WHERE id = $1`
	var request models.DocumentRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// ListByStudent returns a student's document requests.
func (r *DocumentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.DocumentRequest, error) {
	const query = `SELECT id, student_id, enrollment_id, document_type, price, status, file_path, requested_at, updated_at
        FROM document_requests WHERE student_id = $1 ORDER BY requested_at DESC`
	var requests []models.DocumentRequest
	if err := r.db.SelectContext(ctx, &requests, query, studentID); err != nil {
		return nil, fmt.Errorf("list document requests: %w", err)
	}
	return requests, nil
}

// ListByStatus returns requests in a status with student context.
func (r *DocumentRepository) ListByStatus(ctx context.Context, status models.DocumentStatus) ([]models.DocumentRequestDetail, error) {
	const query = `SELECT dr.id, dr.student_id, dr.enrollment_id, dr.document_type, dr.price, dr.status, dr.file_path, dr.requested_at, dr.updated_at,
        st.full_name AS student_name, st.student_number
        FROM document_requests dr
        JOIN students st ON st.id = dr.student_id
        WHERE dr.status = $1 ORDER BY dr.requested_at ASC`
	var requests []models.DocumentRequestDetail
	if err := r.db.SelectContext(ctx, &requests, query, status); err != nil {
		return nil, fmt.Errorf("list document requests by status: %w", err)
	}
	return requests, nil
}

// ListByEnrollmentAndStatus returns an enrollment's requests in a status.
func (r *DocumentRepository) ListByEnrollmentAndStatus(ctx context.Context, enrollmentID string, status models.DocumentStatus) ([]models.DocumentRequest, error) {
	const query = `SELECT id, student_id, enrollment_id, document_type, price, status, file_path, requested_at, updated_at
        FROM document_requests WHERE enrollment_id = $1 AND status = $2 ORDER BY requested_at ASC`
	var requests []models.DocumentRequest
	if err := r.db.SelectContext(ctx, &requests, query, enrollmentID, status); err != nil {
		return nil, fmt.Errorf("list document requests by enrollment: %w", err)
	}
	return requests, nil
}

// SumPendingFees totals the price of pending requests for an enrollment.
func (r *DocumentRepository) SumPendingFees(ctx context.Context, enrollmentID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(price), 0) FROM document_requests WHERE enrollment_id = $1 AND status = $2`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, enrollmentID, models.DocumentStatusPending); err != nil {
		return 0, fmt.Errorf("sum pending document fees: %w", err)
	}
	return total, nil
}

// UpdateStatus moves a request to a new lifecycle status.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	const query = `UPDATE document_requests SET status = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}

// SetFile records the rendered document path and marks it ready.
func (r *DocumentRepository) SetFile(ctx context.Context, id, filePath string) error {
	const query = `UPDATE document_requests SET file_path = $2, status = $3, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, filePath, models.DocumentStatusReady); err != nil {
		return fmt.Errorf("set document file: %w", err)
	}
	return nil
}
