package models

import "time"

// EnrollmentStatusCount is one slice of the enrollment status breakdown.
type EnrollmentStatusCount struct {
	Status EnrollmentStatus `db:"status" json:"status"`
	Count  int              `db:"count" json:"count"`
}

// ProgramEnrollmentCount is the per-program enrollment breakdown.
type ProgramEnrollmentCount struct {
	ProgramID   string `db:"program_id" json:"program_id"`
	ProgramCode string `db:"program_code" json:"program_code"`
	Count       int    `db:"count" json:"count"`
}

// CollectionsSummary aggregates the payment ledger over a date range.
type CollectionsSummary struct {
	Total        float64 `db:"total" json:"total"`
	Transactions int     `db:"transactions" json:"transactions"`
}

// DashboardSummary is the registrar/finance overview payload.
type DashboardSummary struct {
	TermID        string                   `json:"term_id"`
	StatusCounts  []EnrollmentStatusCount  `json:"status_counts"`
	ProgramCounts []ProgramEnrollmentCount `json:"program_counts"`
	Collections   CollectionsSummary       `json:"collections"`
	GeneratedAt   time.Time                `json:"generated_at"`
}
