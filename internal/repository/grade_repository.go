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

// GradeRepository persists grades and applies approval transitions.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// ListByCourse returns grades for a program-course with student context.
func (r *GradeRepository) ListByCourse(ctx context.Context, pcID string) ([]models.GradeDetail, error) {
	const query = `
SELECT g.id, g.student_id, g.pc_id, g.final_grade, g.approval_status, g.ph_approved_at, g.dean_approved_at, g.created_at, g.updated_at,
       st.full_name AS student_name, st.student_number, pc.course_code, pc.course_title
FROM grades g
JOIN students st ON st.id = g.student_id
JOIN program_courses pc ON pc.id = g.pc_id
WHERE g.pc_id = $1
ORDER BY st.full_name ASC`
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, pcID); err != nil {
		return nil, fmt.Errorf("list grades by course: %w", err)
	}
	return grades, nil
}

// ListByStudent returns a student's grades across courses. Only grades that
// finished the approval chain carry a visible final grade for students; the
// caller decides whether to mask earlier stages.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error) {
	const query = `
SELECT g.id, g.student_id, g.pc_id, g.final_grade, g.approval_status, g.ph_approved_at, g.dean_approved_at, g.created_at, g.updated_at,
       st.full_name AS student_name, st.student_number, pc.course_code, pc.course_title
FROM grades g
JOIN students st ON st.id = g.student_id
JOIN program_courses pc ON pc.id = g.pc_id
WHERE g.student_id = $1
ORDER BY pc.year_level ASC, pc.semester ASC, pc.course_code ASC`
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, studentID); err != nil {
		return nil, fmt.Errorf("list grades by student: %w", err)
	}
	return grades, nil
}

// UpsertMany writes a grade sheet in one transaction so a failure mid-sheet
// leaves no rows behind. The conflict guard keeps instructors from editing
// grades already in the approval chain.
func (r *GradeRepository) UpsertMany(ctx context.Context, grades []*models.Grade) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin grade upsert: %w", err)
	}

	now := time.Now().UTC()
	const query = `INSERT INTO grades (id, student_id, pc_id, final_grade, approval_status, created_at, updated_at)
        VALUES (:id, :student_id, :pc_id, :final_grade, :approval_status, :created_at, :updated_at)
        ON CONFLICT (student_id, pc_id)
        DO UPDATE SET final_grade = EXCLUDED.final_grade, updated_at = EXCLUDED.updated_at
        WHERE grades.approval_status = 'pending'`
	for _, grade := range grades {
		if grade.ID == "" {
			grade.ID = uuid.NewString()
		}
		if grade.CreatedAt.IsZero() {
			grade.CreatedAt = now
		}
		grade.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, grade); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert grade: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grade upsert: %w", err)
	}
	return nil
}

// UpdateApprovalByCourse applies a transition to every grade of a
// program-course currently in the transition's prior state. Returns the
// number of rows that actually moved.
func (r *GradeRepository) UpdateApprovalByCourse(ctx context.Context, pcID string, t models.ApprovalTransition) (int64, error) {
	query := fmt.Sprintf("UPDATE grades SET %s WHERE pc_id = $2", transitionSetClause(t))
	args := []interface{}{t.To, pcID}
	if t.From != "" {
		query += " AND approval_status = $3"
		args = append(args, t.From)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update approval by course: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check approval rows: %w", err)
	}
	return affected, nil
}

// UpdateApprovalByAssignment applies a transition narrowed to students
// enrolled in the assignment's program/year/semester/block cohort, so
// parallel sections sharing a program-course never bleed into each other.
func (r *GradeRepository) UpdateApprovalByAssignment(ctx context.Context, a *models.CourseAssignmentDetail, t models.ApprovalTransition) (int64, error) {
	query := fmt.Sprintf(`UPDATE grades SET %s
WHERE pc_id = $2 AND student_id IN (
    SELECT e.student_id FROM enrollments e
    WHERE e.program_id = $3 AND e.year_level = $4 AND e.semester = $5 AND e.block = $6
)`, transitionSetClause(t))
	args := []interface{}{t.To, a.ProgramCourseID, a.ProgramID, a.YearLevel, a.Semester, a.Section}
	if t.From != "" {
		query += " AND approval_status = $7"
		args = append(args, t.From)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update approval by assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check approval rows: %w", err)
	}
	return affected, nil
}

func transitionSetClause(t models.ApprovalTransition) string {
	parts := []string{"approval_status = $1", "updated_at = NOW()"}
	if t.StampPH {
		parts = append(parts, "ph_approved_at = NOW()")
	}
	if t.StampDean {
		parts = append(parts, "dean_approved_at = NOW()")
	}
	if t.ClearStamps {
		parts = append(parts, "ph_approved_at = NULL", "dean_approved_at = NULL")
	}
	return strings.Join(parts, ", ")
}
