package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuskit/college-admin-api/internal/models"
	appErrors "github.com/campuskit/college-admin-api/pkg/errors"
)

type stubApprovalGrades struct {
	courseTransition     models.ApprovalTransition
	assignmentTransition models.ApprovalTransition
	updated              int64
	err                  error
}

func (s *stubApprovalGrades) UpdateApprovalByCourse(_ context.Context, _ string, t models.ApprovalTransition) (int64, error) {
	s.courseTransition = t
	return s.updated, s.err
}

func (s *stubApprovalGrades) UpdateApprovalByAssignment(_ context.Context, _ *models.CourseAssignmentDetail, t models.ApprovalTransition) (int64, error) {
	s.assignmentTransition = t
	return s.updated, s.err
}

type stubAssignmentReader struct {
	detail *models.CourseAssignmentDetail
	err    error
}

func (s *stubAssignmentReader) FindDetailByID(context.Context, string) (*models.CourseAssignmentDetail, error) {
	return s.detail, s.err
}

type stubProgramCourseReader struct {
	course *models.ProgramCourse
	err    error
}

func (s *stubProgramCourseReader) FindByID(context.Context, string) (*models.ProgramCourse, error) {
	return s.course, s.err
}

func TestResolveActionFoldsLegacyAlias(t *testing.T) {
	action, transition, err := ResolveAction("final_approve")
	require.NoError(t, err)
	assert.Equal(t, ActionRegistrarApprove, action)
	assert.Equal(t, models.GradeStatusDeanApproved, transition.From)
	assert.Equal(t, models.GradeStatusRegApproved, transition.To)
}

func TestResolveActionUnknown(t *testing.T) {
	_, _, err := ResolveAction("supersede")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestApproveClassGradesByCourse(t *testing.T) {
	grades := &stubApprovalGrades{updated: 7}
	courses := &stubProgramCourseReader{course: &models.ProgramCourse{ID: "pc-1"}}
	svc := NewApprovalService(grades, &stubAssignmentReader{}, courses, nil, zap.NewNop())

	result, err := svc.ApproveClassGrades(context.Background(), ApproveClassGradesRequest{
		ProgramCourseID: "pc-1",
		Action:          "ph_approve",
	})
	require.NoError(t, err)
	assert.Equal(t, ActionPHApprove, result.Action)
	assert.Equal(t, int64(7), result.Updated)
	assert.Equal(t, models.GradeStatusPending, grades.courseTransition.From)
	assert.True(t, grades.courseTransition.StampPH)
}

func TestApproveClassGradesByAssignmentScope(t *testing.T) {
	grades := &stubApprovalGrades{updated: 3}
	assignments := &stubAssignmentReader{detail: &models.CourseAssignmentDetail{
		CourseAssignment: models.CourseAssignment{ID: "assign-1", ProgramCourseID: "pc-1", Section: "A"},
	}}
	svc := NewApprovalService(grades, assignments, &stubProgramCourseReader{}, nil, zap.NewNop())

	result, err := svc.ApproveClassGrades(context.Background(), ApproveClassGradesRequest{
		AssignmentID: "assign-1",
		Action:       "dean_approve",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Updated)
	assert.Equal(t, models.GradeStatusPHApproved, grades.assignmentTransition.From)
	assert.True(t, grades.assignmentTransition.StampDean)
}

func TestApproveClassGradesAssignmentNotFound(t *testing.T) {
	svc := NewApprovalService(&stubApprovalGrades{}, &stubAssignmentReader{err: sql.ErrNoRows}, &stubProgramCourseReader{}, nil, zap.NewNop())

	_, err := svc.ApproveClassGrades(context.Background(), ApproveClassGradesRequest{
		AssignmentID: "missing",
		Action:       "ph_approve",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestApproveClassGradesIdempotentRerun(t *testing.T) {
	grades := &stubApprovalGrades{updated: 0}
	courses := &stubProgramCourseReader{course: &models.ProgramCourse{ID: "pc-1"}}
	svc := NewApprovalService(grades, &stubAssignmentReader{}, courses, nil, zap.NewNop())

	result, err := svc.ApproveClassGrades(context.Background(), ApproveClassGradesRequest{
		ProgramCourseID: "pc-1",
		Action:          "registrar_approve",
	})
	require.NoError(t, err)
	assert.Zero(t, result.Updated)
}

func TestApproveClassGradesRejectClearsStamps(t *testing.T) {
	grades := &stubApprovalGrades{updated: 4}
	courses := &stubProgramCourseReader{course: &models.ProgramCourse{ID: "pc-1"}}
	svc := NewApprovalService(grades, &stubAssignmentReader{}, courses, nil, zap.NewNop())

	_, err := svc.ApproveClassGrades(context.Background(), ApproveClassGradesRequest{
		ProgramCourseID: "pc-1",
		Action:          "reject",
	})
	require.NoError(t, err)
	assert.Empty(t, grades.courseTransition.From)
	assert.Equal(t, models.GradeStatusPending, grades.courseTransition.To)
	assert.True(t, grades.courseTransition.ClearStamps)
}

func TestApproveClassGradesRequiresTarget(t *testing.T) {
	svc := NewApprovalService(&stubApprovalGrades{}, &stubAssignmentReader{}, &stubProgramCourseReader{}, nil, zap.NewNop())

	_, err := svc.ApproveClassGrades(context.Background(), ApproveClassGradesRequest{Action: "ph_approve"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
