package models

import "time"

// DocumentStatus tracks the lifecycle of a document request.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "Pending"
	DocumentStatusProcessing DocumentStatus = "Processing"
	DocumentStatusReady      DocumentStatus = "Ready for Pickup"
	DocumentStatusReleased   DocumentStatus = "Released"
)

// DocumentRequest is a student's request for a registrar document.
// Its price is folded into the owning enrollment's total fee.
type DocumentRequest struct {
	ID           string         `db:"id" json:"id"`
	StudentID    string         `db:"student_id" json:"student_id"`
	EnrollmentID string         `db:"enrollment_id" json:"enrollment_id"`
	DocumentType string         `db:"document_type" json:"document_type"`
	Price        float64        `db:"price" json:"price"`
	Status       DocumentStatus `db:"status" json:"status"`
	FilePath     *string        `db:"file_path" json:"file_path,omitempty"`
	RequestedAt  time.Time      `db:"requested_at" json:"requested_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// DocumentRequestDetail joins a request with student context.
type DocumentRequestDetail struct {
	DocumentRequest
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
}
