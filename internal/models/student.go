package models

import "time"

// Student is the registrar record behind a STUDENT user account.
type Student struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	StudentNumber string    `db:"student_number" json:"student_number"`
	FullName      string    `db:"full_name" json:"full_name"`
	ProgramID     string    `db:"program_id" json:"program_id"`
	YearLevel     int       `db:"year_level" json:"year_level"`
	Transferee    bool      `db:"transferee" json:"transferee"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
