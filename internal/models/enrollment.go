package models

import "time"

// EnrollmentStatus tracks the registration workflow of a student for a term.
type EnrollmentStatus string

const (
	EnrollmentStatusPending            EnrollmentStatus = "Pending"
	EnrollmentStatusForPayment         EnrollmentStatus = "For Payment"
	EnrollmentStatusVerified           EnrollmentStatus = "Verified"
	EnrollmentStatusOfficiallyEnrolled EnrollmentStatus = "Officially Enrolled"
	EnrollmentStatusRejected           EnrollmentStatus = "Rejected"
	EnrollmentStatusPendingTOR         EnrollmentStatus = "Pending TOR"
)

// PaymentStatus reflects how much of the assessed fee has been settled.
type PaymentStatus string

const (
	PaymentStatusUnpaid    PaymentStatus = "Unpaid"
	PaymentStatusPartial   PaymentStatus = "Partial"
	PaymentStatusFullyPaid PaymentStatus = "Fully Paid"
)

// Enrollment represents one student registration for a term.
// remaining_balance is always total_fee minus amount_paid, with document
// fees folded into total_fee when requested.
type Enrollment struct {
	ID               string           `db:"id" json:"id"`
	StudentID        string           `db:"student_id" json:"student_id"`
	ProgramID        string           `db:"program_id" json:"program_id"`
	TermID           string           `db:"term_id" json:"term_id"`
	YearLevel        int              `db:"year_level" json:"year_level"`
	Semester         int              `db:"semester" json:"semester"`
	Block            string           `db:"block" json:"block"`
	Status           EnrollmentStatus `db:"status" json:"status"`
	TotalFee         float64          `db:"total_fee" json:"total_fee"`
	AmountPaid       float64          `db:"amount_paid" json:"amount_paid"`
	RemainingBalance float64          `db:"remaining_balance" json:"remaining_balance"`
	PaymentStatus    PaymentStatus    `db:"payment_status" json:"payment_status"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail joins enrollment rows with student and program context.
type EnrollmentDetail struct {
	Enrollment
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
	ProgramCode   string `db:"program_code" json:"program_code"`
	SchoolYear    string `db:"school_year" json:"school_year"`
}

// EnrollmentFilter captures listing criteria for enrollments.
type EnrollmentFilter struct {
	StudentID string
	ProgramID string
	TermID    string
	Status    string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
