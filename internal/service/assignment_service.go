package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuskit/college-admin-api/internal/models"
	appErrors "github.com/campuskit/college-admin-api/pkg/errors"
)

type assignmentRepo interface {
	FindDetailByID(ctx context.Context, id string) (*models.CourseAssignmentDetail, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]models.CourseAssignmentDetail, error)
	FindDuplicate(ctx context.Context, pcID, section, day, startTime, endTime string) (*models.CourseAssignment, error)
	FindInstructorOverlap(ctx context.Context, instructorID, day, startTime, endTime string) (*models.CourseAssignment, error)
	FindSectionSlot(ctx context.Context, pcID, section, day, startTime, endTime string) (*models.CourseAssignment, error)
	Create(ctx context.Context, assignment *models.CourseAssignment) error
	Delete(ctx context.Context, id string) error
}

type instructorReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AssignInstructorRequest binds a course offering to an instructor slot.
type AssignInstructorRequest struct {
	ProgramCourseID string `json:"course_id" validate:"required"`
	InstructorID    string `json:"instructor_id" validate:"required"`
	Section         string `json:"section" validate:"required"`
	Day             string `json:"day" validate:"required"`
	StartTime       string `json:"start_time" validate:"required"`
	EndTime         string `json:"end_time" validate:"required"`
	Room            string `json:"room"`
}

var validDays = map[string]struct{}{
	"Monday": {}, "Tuesday": {}, "Wednesday": {}, "Thursday": {},
	"Friday": {}, "Saturday": {}, "Sunday": {},
}

// AssignmentService guards course assignments against double bookings.
type AssignmentService struct {
	assignments assignmentRepo
	courses     programCourseReader
	users       instructorReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(assignments assignmentRepo, courses programCourseReader, users instructorReader, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{assignments: assignments, courses: courses, users: users, validator: validate, logger: logger}
}

// ListByInstructor returns an instructor's assignments with course context.
func (s *AssignmentService) ListByInstructor(ctx context.Context, instructorID string) ([]models.CourseAssignmentDetail, error) {
	assignments, err := s.assignments.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Assign runs the duplicate, instructor-overlap and section-slot checks in
// order and inserts the assignment only when all three pass. The overlap
// test treats intervals as half-open, so back-to-back slots do not clash.
func (s *AssignmentService) Assign(ctx context.Context, req AssignInstructorRequest) (*models.CourseAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if err := s.validateSlot(req); err != nil {
		return nil, err
	}

	if _, err := s.courses.FindByID(ctx, req.ProgramCourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	instructor, err := s.users.FindByID(ctx, req.InstructorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if instructor.Role != models.RoleInstructor {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user is not an instructor")
	}

	duplicate, err := s.assignments.FindDuplicate(ctx, req.ProgramCourseID, req.Section, req.Day, req.StartTime, req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check duplicates")
	}
	if duplicate != nil {
		return nil, s.conflictError("DUPLICATE", fmt.Sprintf("schedule for %s section %s on %s %s-%s already exists", req.ProgramCourseID, req.Section, req.Day, req.StartTime, req.EndTime), duplicate)
	}

	overlap, err := s.assignments.FindInstructorOverlap(ctx, req.InstructorID, req.Day, req.StartTime, req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check instructor schedule")
	}
	if overlap != nil {
		return nil, s.conflictError("INSTRUCTOR", fmt.Sprintf("instructor already teaches %s %s-%s", overlap.Day, overlap.StartTime, overlap.EndTime), overlap)
	}

	slot, err := s.assignments.FindSectionSlot(ctx, req.ProgramCourseID, req.Section, req.Day, req.StartTime, req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section slot")
	}
	if slot != nil {
		return nil, s.conflictError("SECTION", fmt.Sprintf("section %s already has this course scheduled on %s at %s-%s", req.Section, slot.Day, slot.StartTime, slot.EndTime), slot)
	}

	assignment := &models.CourseAssignment{
		ProgramCourseID: req.ProgramCourseID,
		InstructorID:    req.InstructorID,
		Section:         req.Section,
		Day:             req.Day,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Room:            req.Room,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	s.logger.Info("course assignment created",
		zap.String("pc_id", assignment.ProgramCourseID),
		zap.String("instructor_id", assignment.InstructorID),
		zap.String("slot", fmt.Sprintf("%s %s-%s", assignment.Day, assignment.StartTime, assignment.EndTime)),
	)
	return assignment, nil
}

// Remove deletes an assignment.
func (s *AssignmentService) Remove(ctx context.Context, id string) error {
	if err := s.assignments.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

func (s *AssignmentService) validateSlot(req AssignInstructorRequest) error {
	if _, ok := validDays[req.Day]; !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", req.Day))
	}
	start, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "start_time must be HH:MM")
	}
	end, err := time.Parse("15:04", req.EndTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "end_time must be HH:MM")
	}
	if !start.Before(end) {
		return appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}
	return nil
}

func (s *AssignmentService) conflictError(dimension, message string, existing *models.CourseAssignment) error {
	detail := &models.AssignmentConflictError{
		Type:    dimension,
		Message: message,
		Conflict: models.AssignmentConflict{
			AssignmentID: existing.ID,
			InstructorID: existing.InstructorID,
			Section:      existing.Section,
			Day:          existing.Day,
			StartTime:    existing.StartTime,
			EndTime:      existing.EndTime,
			Dimension:    dimension,
		},
	}
	return appErrors.Wrap(detail, appErrors.ErrScheduleConflict.Code, appErrors.ErrScheduleConflict.Status, message)
}
