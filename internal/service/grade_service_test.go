package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuskit/college-admin-api/internal/models"
	appErrors "github.com/campuskit/college-admin-api/pkg/errors"
)

type stubGradeRepo struct {
	byCourse  []models.GradeDetail
	byStudent []models.GradeDetail
	upserted  []*models.Grade
	upsertErr error
}

func (s *stubGradeRepo) ListByCourse(context.Context, string) ([]models.GradeDetail, error) {
	return s.byCourse, nil
}

func (s *stubGradeRepo) ListByStudent(context.Context, string) ([]models.GradeDetail, error) {
	return s.byStudent, nil
}

func (s *stubGradeRepo) UpsertMany(_ context.Context, grades []*models.Grade) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = append(s.upserted, grades...)
	return nil
}

func gradeSheet() SubmitGradesRequest {
	return SubmitGradesRequest{
		AssignmentID: "assign-1",
		Grades: []SubmitGradeRequest{
			{StudentID: "student-1", FinalGrade: 1.25},
			{StudentID: "student-2", FinalGrade: 2.75},
		},
	}
}

func TestSubmitUpsertsPendingGrades(t *testing.T) {
	grades := &stubGradeRepo{}
	assignments := &stubAssignmentReader{detail: &models.CourseAssignmentDetail{
		CourseAssignment: models.CourseAssignment{ID: "assign-1", ProgramCourseID: "pc-1", InstructorID: "inst-1"},
	}}
	svc := NewGradeService(grades, assignments, &stubStudents{}, nil, zap.NewNop())

	require.NoError(t, svc.Submit(context.Background(), gradeSheet(), "inst-1"))
	require.Len(t, grades.upserted, 2)
	assert.Equal(t, "pc-1", grades.upserted[0].ProgramCourseID)
	assert.Equal(t, models.GradeStatusPending, grades.upserted[0].ApprovalStatus)
	require.NotNil(t, grades.upserted[1].FinalGrade)
	assert.Equal(t, 2.75, *grades.upserted[1].FinalGrade)
}

func TestSubmitFailedSheetWritesNothing(t *testing.T) {
	grades := &stubGradeRepo{upsertErr: errors.New("write failed")}
	assignments := &stubAssignmentReader{detail: &models.CourseAssignmentDetail{
		CourseAssignment: models.CourseAssignment{ID: "assign-1", ProgramCourseID: "pc-1", InstructorID: "inst-1"},
	}}
	svc := NewGradeService(grades, assignments, &stubStudents{}, nil, zap.NewNop())

	err := svc.Submit(context.Background(), gradeSheet(), "inst-1")
	require.Error(t, err)
	assert.Empty(t, grades.upserted)
}

func TestSubmitRejectsForeignAssignment(t *testing.T) {
	assignments := &stubAssignmentReader{detail: &models.CourseAssignmentDetail{
		CourseAssignment: models.CourseAssignment{ID: "assign-1", InstructorID: "inst-2"},
	}}
	svc := NewGradeService(&stubGradeRepo{}, assignments, &stubStudents{}, nil, zap.NewNop())

	err := svc.Submit(context.Background(), gradeSheet(), "inst-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSubmitValidatesGradeRange(t *testing.T) {
	svc := NewGradeService(&stubGradeRepo{}, &stubAssignmentReader{}, &stubStudents{}, nil, zap.NewNop())

	sheet := gradeSheet()
	sheet.Grades[0].FinalGrade = 6.0
	err := svc.Submit(context.Background(), sheet, "inst-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubmitRequiresEntries(t *testing.T) {
	svc := NewGradeService(&stubGradeRepo{}, &stubAssignmentReader{}, &stubStudents{}, nil, zap.NewNop())

	err := svc.Submit(context.Background(), SubmitGradesRequest{AssignmentID: "assign-1"}, "inst-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestListForStudentUserMasksUnapprovedGrades(t *testing.T) {
	approved := 1.5
	pending := 2.0
	grades := &stubGradeRepo{byStudent: []models.GradeDetail{
		{Grade: models.Grade{FinalGrade: &approved, ApprovalStatus: models.GradeStatusRegApproved}},
		{Grade: models.Grade{FinalGrade: &pending, ApprovalStatus: models.GradeStatusPending}},
		{Grade: models.Grade{FinalGrade: &pending, ApprovalStatus: models.GradeStatusDeanApproved}},
	}}
	students := &stubStudents{student: &models.Student{ID: "student-1"}}
	svc := NewGradeService(grades, &stubAssignmentReader{}, students, nil, zap.NewNop())

	result, err := svc.ListForStudentUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, result, 3)
	require.NotNil(t, result[0].FinalGrade)
	assert.Equal(t, 1.5, *result[0].FinalGrade)
	assert.Nil(t, result[1].FinalGrade)
	assert.Nil(t, result[2].FinalGrade)
}
