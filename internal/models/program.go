package models

import "time"

// Program represents a degree program offered by the college.
type Program struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	DeanID    *string   `db:"dean_id" json:"dean_id,omitempty"`
	HeadID    *string   `db:"head_id" json:"head_id,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ProgramCourse is a course offering scoped to a program, year level and semester.
type ProgramCourse struct {
	ID          string    `db:"id" json:"id"`
	ProgramID   string    `db:"program_id" json:"program_id"`
	CourseCode  string    `db:"course_code" json:"course_code"`
	CourseTitle string    `db:"course_title" json:"course_title"`
	YearLevel   int       `db:"year_level" json:"year_level"`
	Semester    int       `db:"semester" json:"semester"`
	Units       int       `db:"units" json:"units"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Term identifies a school year and semester pair.
type Term struct {
	ID         string    `db:"id" json:"id"`
	SchoolYear string    `db:"school_year" json:"school_year"`
	Semester   int       `db:"semester" json:"semester"`
	Active     bool      `db:"active" json:"active"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	EndDate    time.Time `db:"end_date" json:"end_date"`
}
