package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campuskit/college-admin-api/internal/models"
)

// DashboardRepository runs reporting aggregations.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// EnrollmentStatusCounts groups enrollments by workflow status for a term.
func (r *DashboardRepository) EnrollmentStatusCounts(ctx context.Context, termID string) ([]models.EnrollmentStatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM enrollments WHERE term_id = $1 GROUP BY status ORDER BY status`
	var counts []models.EnrollmentStatusCount
	if err := r.db.SelectContext(ctx, &counts, query, termID); err != nil {
		return nil, fmt.Errorf("enrollment status counts: %w", err)
	}
	return counts, nil
}

// ProgramEnrollmentCounts groups officially enrolled students per program.
func (r *DashboardRepository) ProgramEnrollmentCounts(ctx context.Context, termID string) ([]models.ProgramEnrollmentCount, error) {
	const query = `SELECT e.program_id, p.code AS program_code, COUNT(*) AS count
        FROM enrollments e
        JOIN programs p ON p.id = e.program_id
        WHERE e.term_id = $1 AND e.status = $2
        GROUP BY e.program_id, p.code ORDER BY p.code`
	var counts []models.ProgramEnrollmentCount
	if err := r.db.SelectContext(ctx, &counts, query, termID, models.EnrollmentStatusOfficiallyEnrolled); err != nil {
		return nil, fmt.Errorf("program enrollment counts: %w", err)
	}
	return counts, nil
}

// CollectionsBetween aggregates the payment ledger over a half-open range.
func (r *DashboardRepository) CollectionsBetween(ctx context.Context, from, to time.Time) (*models.CollectionsSummary, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) AS total, COUNT(*) AS transactions
        FROM payment_transactions WHERE created_at >= $1 AND created_at < $2`
	var summary models.CollectionsSummary
	if err := r.db.GetContext(ctx, &summary, query, from, to); err != nil {
		return nil, fmt.Errorf("collections summary: %w", err)
	}
	return &summary, nil
}
