package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuskit/college-admin-api/internal/models"
	appErrors "github.com/campuskit/college-admin-api/pkg/errors"
)

type enrollmentRepo interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindActiveByStudentAndTerm(ctx context.Context, studentID, termID string) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

type unitSummer interface {
	SumUnits(ctx context.Context, programID string, yearLevel, semester int) (int, error)
}

// enrollmentTransitions lists which review statuses each workflow status may
// move to. Registration itself is not a transition; it creates the row in
// Pending (or Pending TOR for transferees).
var enrollmentTransitions = map[models.EnrollmentStatus][]models.EnrollmentStatus{
	models.EnrollmentStatusPending:    {models.EnrollmentStatusForPayment, models.EnrollmentStatusRejected},
	models.EnrollmentStatusPendingTOR: {models.EnrollmentStatusPending, models.EnrollmentStatusRejected},
	models.EnrollmentStatusForPayment: {models.EnrollmentStatusVerified, models.EnrollmentStatusRejected},
	models.EnrollmentStatusVerified:   {models.EnrollmentStatusOfficiallyEnrolled, models.EnrollmentStatusRejected},
}

// RegisterEnrollmentRequest is a student's registration for a term.
type RegisterEnrollmentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	ProgramID string `json:"program_id" validate:"required"`
	TermID    string `json:"term_id" validate:"required"`
	YearLevel int    `json:"year_level" validate:"required,min=1,max=6"`
	Semester  int    `json:"semester" validate:"required,min=1,max=3"`
	Block     string `json:"block" validate:"required"`
}

// UpdateEnrollmentStatusRequest moves an enrollment along the review workflow.
type UpdateEnrollmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// EnrollmentService owns the registration and review workflow.
type EnrollmentService struct {
	enrollments    enrollmentRepo
	students       studentReader
	courses        unitSummer
	validator      *validator.Validate
	logger         *zap.Logger
	tuitionPerUnit float64
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(enrollments enrollmentRepo, students studentReader, courses unitSummer, validate *validator.Validate, logger *zap.Logger, tuitionPerUnit float64) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		enrollments:    enrollments,
		students:       students,
		courses:        courses,
		validator:      validate,
		logger:         logger,
		tuitionPerUnit: tuitionPerUnit,
	}
}

// Register creates an enrollment for a term. The total fee is assessed from
// the program's curriculum units for the requested year level and semester.
// Transferees start in Pending TOR until their records arrive.
func (s *EnrollmentService) Register(ctx context.Context, req RegisterEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	existing, err := s.enrollments.FindActiveByStudentAndTerm(ctx, req.StudentID, req.TermID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollment")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already has an enrollment for this term")
	}

	units, err := s.courses.SumUnits(ctx, req.ProgramID, req.YearLevel, req.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assess tuition")
	}
	if units == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no curriculum courses for the requested year level and semester")
	}
	totalFee := float64(units) * s.tuitionPerUnit

	status := models.EnrollmentStatusPending
	if student.Transferee {
		status = models.EnrollmentStatusPendingTOR
	}

	enrollment := &models.Enrollment{
		StudentID:        req.StudentID,
		ProgramID:        req.ProgramID,
		TermID:           req.TermID,
		YearLevel:        req.YearLevel,
		Semester:         req.Semester,
		Block:            req.Block,
		Status:           status,
		TotalFee:         totalFee,
		AmountPaid:       0,
		RemainingBalance: totalFee,
		PaymentStatus:    models.PaymentStatusUnpaid,
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.logger.Info("enrollment registered",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("student_id", enrollment.StudentID),
		zap.String("status", string(enrollment.Status)),
		zap.Float64("total_fee", enrollment.TotalFee),
	)
	return enrollment, nil
}

// UpdateStatus applies a review transition. Moves not listed in the
// transition table are rejected without touching the row.
func (s *EnrollmentService) UpdateStatus(ctx context.Context, id string, req UpdateEnrollmentStatusRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	enrollment, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	target := models.EnrollmentStatus(req.Status)
	if !transitionAllowed(enrollment.Status, target) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move enrollment from %s to %s", enrollment.Status, req.Status))
	}

	if err := s.enrollments.UpdateStatus(ctx, id, target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment status")
	}

	enrollment.Status = target
	s.logger.Info("enrollment status updated",
		zap.String("enrollment_id", id),
		zap.String("status", string(target)),
	)
	return enrollment, nil
}

// List returns enrollments matching the filter, with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// FindForStudentUser resolves the caller's student record and returns their
// enrollments. Used by the student dashboard.
func (s *EnrollmentService) FindForStudentUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	enrollments, _, err := s.enrollments.List(ctx, models.EnrollmentFilter{StudentID: student.ID, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

func transitionAllowed(from, to models.EnrollmentStatus) bool {
	for _, allowed := range enrollmentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
