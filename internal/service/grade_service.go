package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuskit/college-admin-api/internal/models"
	appErrors "github.com/campuskit/college-admin-api/pkg/errors"
)

type gradeRepo interface {
	ListByCourse(ctx context.Context, pcID string) ([]models.GradeDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error)
	UpsertMany(ctx context.Context, grades []*models.Grade) error
}

// SubmitGradeRequest carries one final grade entry. Grades use the 1.0-5.0
// scale where 1.0 is highest and 3.0 is the passing threshold.
type SubmitGradeRequest struct {
	StudentID  string  `json:"student_id" validate:"required"`
	FinalGrade float64 `json:"final_grade" validate:"required,min=1,max=5"`
}

// SubmitGradesRequest is an instructor's grade sheet for an assignment.
type SubmitGradesRequest struct {
	AssignmentID string               `json:"assignment_id" validate:"required"`
	Grades       []SubmitGradeRequest `json:"grades" validate:"required,min=1,dive"`
}

// GradeService handles grade entry and per-role grade views.
type GradeService struct {
	grades      gradeRepo
	assignments assignmentReader
	students    studentReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs a GradeService.
func NewGradeService(grades gradeRepo, assignments assignmentReader, students studentReader, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{grades: grades, assignments: assignments, students: students, validator: validate, logger: logger}
}

// Submit upserts the instructor's grade sheet. Rows already past pending in
// the approval chain are left untouched by the upsert guard; entry is not an
// error in that case, the stale rows simply keep their approved value.
func (s *GradeService) Submit(ctx context.Context, req SubmitGradesRequest, instructorID string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade sheet")
	}

	assignment, err := s.assignments.FindDetailByID(ctx, req.AssignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if assignment.InstructorID != instructorID {
		return appErrors.Clone(appErrors.ErrForbidden, "assignment belongs to another instructor")
	}

	records := make([]*models.Grade, 0, len(req.Grades))
	for _, entry := range req.Grades {
		grade := entry.FinalGrade
		records = append(records, &models.Grade{
			StudentID:       entry.StudentID,
			ProgramCourseID: assignment.ProgramCourseID,
			FinalGrade:      &grade,
			ApprovalStatus:  models.GradeStatusPending,
		})
	}
	if err := s.grades.UpsertMany(ctx, records); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grade sheet")
	}

	s.logger.Info("grade sheet submitted",
		zap.String("assignment_id", req.AssignmentID),
		zap.String("instructor_id", instructorID),
		zap.Int("entries", len(req.Grades)),
	)
	return nil
}

// ListByCourse returns the grade sheet of a program-course for review roles.
func (s *GradeService) ListByCourse(ctx context.Context, pcID string) ([]models.GradeDetail, error) {
	grades, err := s.grades.ListByCourse(ctx, pcID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// ListForStudentUser returns the caller's own grades. Values still in the
// approval chain are masked so students only ever see registrar-approved
// grades.
func (s *GradeService) ListForStudentUser(ctx context.Context, userID string) ([]models.GradeDetail, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	grades, err := s.grades.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	for i := range grades {
		if grades[i].ApprovalStatus != models.GradeStatusRegApproved {
			grades[i].FinalGrade = nil
		}
	}
	return grades, nil
}
