package models

import "time"

// GradeApprovalStatus tracks where a grade sits in the approval chain.
type GradeApprovalStatus string

const (
	GradeStatusPending      GradeApprovalStatus = "pending"
	GradeStatusPHApproved   GradeApprovalStatus = "ph_approved"
	GradeStatusDeanApproved GradeApprovalStatus = "dean_approved"
	GradeStatusRegApproved  GradeApprovalStatus = "reg_approved"
)

// Grade is one final grade per (student, program-course) pair.
// The grades table carries stage timestamps for the program head and dean
// approvals; the registrar stage flips approval_status only.
type Grade struct {
	ID              string              `db:"id" json:"id"`
	StudentID       string              `db:"student_id" json:"student_id"`
	ProgramCourseID string              `db:"pc_id" json:"pc_id"`
	FinalGrade      *float64            `db:"final_grade" json:"final_grade,omitempty"`
	ApprovalStatus  GradeApprovalStatus `db:"approval_status" json:"approval_status"`
	PHApprovedAt    *time.Time          `db:"ph_approved_at" json:"ph_approved_at,omitempty"`
	DeanApprovedAt  *time.Time          `db:"dean_approved_at" json:"dean_approved_at,omitempty"`
	CreatedAt       time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time           `db:"updated_at" json:"updated_at"`
}

// GradeDetail joins a grade with student and course context for class lists.
type GradeDetail struct {
	Grade
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
	CourseCode    string `db:"course_code" json:"course_code"`
	CourseTitle   string `db:"course_title" json:"course_title"`
}

// GradeFilter captures listing criteria for grades.
type GradeFilter struct {
	StudentID       string
	ProgramCourseID string
	AssignmentID    string
	ApprovalStatus  string
}

// ApprovalScope narrows an approval action to either a whole program-course
// or a single class assignment's program/year/semester/block cohort.
type ApprovalScope struct {
	ProgramCourseID string
	AssignmentID    string
}

// ApprovalTransition is one row of the grade approval transition table:
// the required prior state (empty means any), the state to move to, and
// which stage timestamps to stamp or clear alongside the status change.
type ApprovalTransition struct {
	From        GradeApprovalStatus
	To          GradeApprovalStatus
	StampPH     bool
	StampDean   bool
	ClearStamps bool
}
