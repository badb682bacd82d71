package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campuskit/college-admin-api/internal/models"
)

// ProgramCourseRepository reads program-course offerings.
type ProgramCourseRepository struct {
	db *sqlx.DB
}

// NewProgramCourseRepository constructs the repository.
func NewProgramCourseRepository(db *sqlx.DB) *ProgramCourseRepository {
	return &ProgramCourseRepository{db: db}
}

// FindByID returns a program-course by identifier.
func (r *ProgramCourseRepository) FindByID(ctx context.Context, id string) (*models.ProgramCourse, error) {
	const query = `SELECT id, program_id, course_code, course_title, year_level, semester, units, created_at FROM program_courses WHERE id = $1`
	var pc models.ProgramCourse
	if err := r.db.GetContext(ctx, &pc, query, id); err != nil {
		return nil, err
	}
	return &pc, nil
}

// ListByProgram returns offerings for a program, optionally scoped to a
// year level and semester.
func (r *ProgramCourseRepository) ListByProgram(ctx context.Context, programID string, yearLevel, semester int) ([]models.ProgramCourse, error) {
	query := `SELECT id, program_id, course_code, course_title, year_level, semester, units, created_at FROM program_courses WHERE program_id = $1`
	args := []interface{}{programID}
	if yearLevel > 0 {
		query += fmt.Sprintf(" AND year_level = $%d", len(args)+1)
		args = append(args, yearLevel)
	}
	if semester > 0 {
		query += fmt.Sprintf(" AND semester = $%d", len(args)+1)
		args = append(args, semester)
	}
	query += " ORDER BY year_level ASC, semester ASC, course_code ASC"

	var courses []models.ProgramCourse
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list program courses: %w", err)
	}
	return courses, nil
}

// SumUnits totals the units offered for a program/year/semester, used when
// assessing tuition.
func (r *ProgramCourseRepository) SumUnits(ctx context.Context, programID string, yearLevel, semester int) (int, error) {
	const query = `SELECT COALESCE(SUM(units), 0) FROM program_courses WHERE program_id = $1 AND year_level = $2 AND semester = $3`
	var units int
	if err := r.db.GetContext(ctx, &units, query, programID, yearLevel, semester); err != nil {
		return 0, fmt.Errorf("sum program course units: %w", err)
	}
	return units, nil
}
