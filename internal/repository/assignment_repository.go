package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuskit/college-admin-api/internal/models"
)

// AssignmentRepository persists instructor course assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `ca.id, ca.pc_id, ca.instructor_id, ca.section, ca.day, ca.start_time, ca.end_time, ca.room, ca.created_at`

// FindDetailByID returns an assignment joined with course and instructor context.
func (r *AssignmentRepository) FindDetailByID(ctx context.Context, id string) (*models.CourseAssignmentDetail, error) {
	const query = `
SELECT ca.id, ca.pc_id, ca.instructor_id, ca.section, ca.day, ca.start_time, ca.end_time, ca.room, ca.created_at,
       pc.course_code, pc.course_title, pc.program_id, pc.year_level, pc.semester, u.full_name AS instructor_name
FROM course_assignments ca
JOIN program_courses pc ON pc.id = ca.pc_id
JOIN users u ON u.id = ca.instructor_id
WHERE ca.id = $1`
	var detail models.CourseAssignmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByInstructor returns assignments owned by an instructor.
func (r *AssignmentRepository) ListByInstructor(ctx context.Context, instructorID string) ([]models.CourseAssignmentDetail, error) {
	const query = `
SELECT ca.id, ca.pc_id, ca.instructor_id, ca.section, ca.day, ca.start_time, ca.end_time, ca.room, ca.created_at,
       pc.course_code, pc.course_title, pc.program_id, pc.year_level, pc.semester, u.full_name AS instructor_name
FROM course_assignments ca
JOIN program_courses pc ON pc.id = ca.pc_id
JOIN users u ON u.id = ca.instructor_id
WHERE ca.instructor_id = $1
ORDER BY ca.day ASC, ca.start_time ASC`
	var assignments []models.CourseAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, instructorID); err != nil {
		return nil, fmt.Errorf("list assignments by instructor: %w", err)
	}
	return assignments, nil
}

// FindDuplicate looks for an identical course+section+day+time slot.
func (r *AssignmentRepository) FindDuplicate(ctx context.Context, pcID, section, day, startTime, endTime string) (*models.CourseAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_assignments ca
WHERE ca.pc_id = $1 AND ca.section = $2 AND ca.day = $3 AND ca.start_time = $4 AND ca.end_time = $5 LIMIT 1`, assignmentColumns)
	return r.findOne(ctx, query, pcID, section, day, startTime, endTime)
}

// FindInstructorOverlap looks for an assignment of the instructor on the
// same day whose interval overlaps [startTime, endTime). Touching
// boundaries do not overlap.
func (r *AssignmentRepository) FindInstructorOverlap(ctx context.Context, instructorID, day, startTime, endTime string) (*models.CourseAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_assignments ca
WHERE ca.instructor_id = $1 AND ca.day = $2 AND ca.start_time < $4 AND ca.end_time > $3 LIMIT 1`, assignmentColumns)
	return r.findOne(ctx, query, instructorID, day, startTime, endTime)
}

// FindSectionSlot looks for the same course+section+day scheduled at a
// different time.
func (r *AssignmentRepository) FindSectionSlot(ctx context.Context, pcID, section, day, startTime, endTime string) (*models.CourseAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_assignments ca
WHERE ca.pc_id = $1 AND ca.section = $2 AND ca.day = $3 AND (ca.start_time <> $4 OR ca.end_time <> $5) LIMIT 1`, assignmentColumns)
	return r.findOne(ctx, query, pcID, section, day, startTime, endTime)
}

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.CourseAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO course_assignments (id, pc_id, instructor_id, section, day, start_time, end_time, room, created_at)
		VALUES (:id, :pc_id, :instructor_id, :section, :day, :start_time, :end_time, :room, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM course_assignments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *AssignmentRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.CourseAssignment, error) {
	var assignment models.CourseAssignment
	if err := r.db.GetContext(ctx, &assignment, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &assignment, nil
}
