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

func newAssignmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func assignmentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "pc_id", "instructor_id", "section", "day", "start_time", "end_time", "room", "created_at"}).
		AddRow("assign-1", "pc-1", "inst-1", "A", "Monday", "08:00", "09:30", "RM-204", time.Now())
}

func TestAssignmentRepositoryFindInstructorOverlapHalfOpenInterval(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`ca.instructor_id = $1 AND ca.day = $2 AND ca.start_time < $4 AND ca.end_time > $3 LIMIT 1`)).
		WithArgs("inst-1", "Monday", "09:00", "10:30").
		WillReturnRows(assignmentRows())

	found, err := repo.FindInstructorOverlap(context.Background(), "inst-1", "Monday", "09:00", "10:30")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "assign-1", found.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindOneNilOnNoRows(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("SELECT .+ FROM course_assignments ca").
		WithArgs("pc-1", "A", "Monday", "08:00", "09:30").
		WillReturnError(sql.ErrNoRows)

	found, err := repo.FindDuplicate(context.Background(), "pc-1", "A", "Monday", "08:00", "09:30")
	require.NoError(t, err)
	assert.Nil(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindSectionSlotDifferentTime(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`(ca.start_time <> $4 OR ca.end_time <> $5) LIMIT 1`)).
		WithArgs("pc-1", "A", "Monday", "10:00", "11:30").
		WillReturnRows(assignmentRows())

	found, err := repo.FindSectionSlot(context.Background(), "pc-1", "A", "Monday", "10:00", "11:30")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "08:00", found.StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreateGeneratesID(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO course_assignments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assignment := &models.CourseAssignment{
		ProgramCourseID: "pc-1",
		InstructorID:    "inst-1",
		Section:         "A",
		Day:             "Monday",
		StartTime:       "08:00",
		EndTime:         "09:30",
		Room:            "RM-204",
	}
	require.NoError(t, repo.Create(context.Background(), assignment))
	assert.NotEmpty(t, assignment.ID)
	assert.False(t, assignment.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeleteMissingRow(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM course_assignments WHERE id = $1`)).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
