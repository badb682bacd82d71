package models

import "time"

// CourseAssignment binds a program-course to an instructor, section and
// weekly time slot. Times are stored as "HH:MM" 24-hour strings.
type CourseAssignment struct {
	ID              string    `db:"id" json:"id"`
	ProgramCourseID string    `db:"pc_id" json:"pc_id"`
	InstructorID    string    `db:"instructor_id" json:"instructor_id"`
	Section         string    `db:"section" json:"section"`
	Day             string    `db:"day" json:"day"`
	StartTime       string    `db:"start_time" json:"start_time"`
	EndTime         string    `db:"end_time" json:"end_time"`
	Room            string    `db:"room" json:"room"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// CourseAssignmentDetail joins an assignment with course and instructor context.
type CourseAssignmentDetail struct {
	CourseAssignment
	CourseCode     string `db:"course_code" json:"course_code"`
	CourseTitle    string `db:"course_title" json:"course_title"`
	ProgramID      string `db:"program_id" json:"program_id"`
	YearLevel      int    `db:"year_level" json:"year_level"`
	Semester       int    `db:"semester" json:"semester"`
	InstructorName string `db:"instructor_name" json:"instructor_name"`
}

// AssignmentConflict describes the existing slot an insert collided with.
type AssignmentConflict struct {
	AssignmentID string `json:"assignment_id"`
	InstructorID string `json:"instructor_id"`
	Section      string `json:"section"`
	Day          string `json:"day"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Dimension    string `json:"dimension"`
}

// AssignmentConflictError carries a human-readable conflict explanation.
type AssignmentConflictError struct {
	Type     string             `json:"type"`
	Message  string             `json:"message"`
	Conflict AssignmentConflict `json:"conflict"`
}

// Error implements the error interface.
func (e *AssignmentConflictError) Error() string {
	return e.Message
}
