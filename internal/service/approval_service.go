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

type approvalGradeRepo interface {
	UpdateApprovalByCourse(ctx context.Context, pcID string, t models.ApprovalTransition) (int64, error)
	UpdateApprovalByAssignment(ctx context.Context, a *models.CourseAssignmentDetail, t models.ApprovalTransition) (int64, error)
}

type assignmentReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.CourseAssignmentDetail, error)
}

type programCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.ProgramCourse, error)
}

// ApprovalAction names one step of the grade approval chain.
type ApprovalAction string

const (
	ActionPHApprove        ApprovalAction = "ph_approve"
	ActionDeanApprove      ApprovalAction = "dean_approve"
	ActionRegistrarApprove ApprovalAction = "registrar_approve"
	// ActionFinalApprove is a legacy alias for registrar_approve kept for
	// older clients; the grades table has no terminal "final" column.
	ActionFinalApprove ApprovalAction = "final_approve"
	ActionReject       ApprovalAction = "reject"
)

// approvalTransitions is the grade approval state machine: each action maps
// to the prior state it may act on and the state it produces. An empty From
// means the action applies regardless of current state.
var approvalTransitions = map[ApprovalAction]models.ApprovalTransition{
	ActionPHApprove: {
		From:    models.GradeStatusPending,
		To:      models.GradeStatusPHApproved,
		StampPH: true,
	},
	ActionDeanApprove: {
		From:      models.GradeStatusPHApproved,
		To:        models.GradeStatusDeanApproved,
		StampDean: true,
	},
	ActionRegistrarApprove: {
		From: models.GradeStatusDeanApproved,
		To:   models.GradeStatusRegApproved,
	},
	ActionReject: {
		To:          models.GradeStatusPending,
		ClearStamps: true,
	},
}

// ApproveClassGradesRequest targets either a whole program-course or one
// class assignment.
type ApproveClassGradesRequest struct {
	ProgramCourseID string `json:"pc_id"`
	AssignmentID    string `json:"assignment_id"`
	Action          string `json:"action" validate:"required"`
}

// ApproveClassGradesResult reports how many grade rows moved.
type ApproveClassGradesResult struct {
	Action  ApprovalAction `json:"action"`
	Updated int64          `json:"updated"`
}

// ApprovalService advances class grades through the approval chain.
type ApprovalService struct {
	grades      approvalGradeRepo
	assignments assignmentReader
	courses     programCourseReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewApprovalService constructs an ApprovalService.
func NewApprovalService(grades approvalGradeRepo, assignments assignmentReader, courses programCourseReader, validate *validator.Validate, logger *zap.Logger) *ApprovalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{grades: grades, assignments: assignments, courses: courses, validator: validate, logger: logger}
}

// ResolveAction normalises an action string, folding the legacy alias.
func ResolveAction(raw string) (ApprovalAction, models.ApprovalTransition, error) {
	action := ApprovalAction(raw)
	if action == ActionFinalApprove {
		action = ActionRegistrarApprove
	}
	transition, ok := approvalTransitions[action]
	if !ok {
		return "", models.ApprovalTransition{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown approval action %q", raw))
	}
	return action, transition, nil
}

// ApproveClassGrades applies an approval action to every grade of the
// targeted scope that sits in the transition's prior state. Rows in any
// other state are left untouched; the count of moved rows is the success
// signal, so an idempotent re-run reports zero.
func (s *ApprovalService) ApproveClassGrades(ctx context.Context, req ApproveClassGradesRequest) (*ApproveClassGradesResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}
	if req.ProgramCourseID == "" && req.AssignmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "pc_id or assignment_id required")
	}

	action, transition, err := ResolveAction(req.Action)
	if err != nil {
		return nil, err
	}

	var updated int64
	if req.AssignmentID != "" {
		assignment, err := s.assignments.FindDetailByID(ctx, req.AssignmentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
		}
		updated, err = s.grades.UpdateApprovalByAssignment(ctx, assignment, transition)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply approval")
		}
	} else {
		if _, err := s.courses.FindByID(ctx, req.ProgramCourseID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "program course not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program course")
		}
		updated, err = s.grades.UpdateApprovalByCourse(ctx, req.ProgramCourseID, transition)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply approval")
		}
	}

	s.logger.Info("class grades approval applied",
		zap.String("action", string(action)),
		zap.String("pc_id", req.ProgramCourseID),
		zap.String("assignment_id", req.AssignmentID),
		zap.Int64("updated", updated),
	)

	return &ApproveClassGradesResult{Action: action, Updated: updated}, nil
}
