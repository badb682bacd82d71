package models

import "time"

// PaymentTransaction is an append-only ledger row recorded per payment event.
// Rows are never mutated after insert.
type PaymentTransaction struct {
	ID              string        `db:"id" json:"id"`
	EnrollmentID    string        `db:"enrollment_id" json:"enrollment_id"`
	StudentID       string        `db:"student_id" json:"student_id"`
	Amount          float64       `db:"amount" json:"amount"`
	Method          string        `db:"method" json:"method"`
	ReferenceNumber string        `db:"reference_number" json:"reference_number"`
	Remarks         string        `db:"remarks" json:"remarks"`
	StatusSnapshot  PaymentStatus `db:"status_snapshot" json:"status_snapshot"`
	ReceivedBy      *string       `db:"received_by" json:"received_by,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
}

// PaymentResult summarises the outcome of recording a payment.
// DocumentsProcessing tells the caller pending document requests rolled to
// Processing so their render jobs can be enqueued.
type PaymentResult struct {
	TransactionID       string           `json:"transaction_id"`
	ReferenceNumber     string           `json:"reference_number"`
	PaymentStatus       PaymentStatus    `json:"payment_status"`
	EnrollmentStatus    EnrollmentStatus `json:"enrollment_status"`
	RemainingBalance    float64          `json:"remaining_balance"`
	DocumentsProcessing bool             `json:"documents_processing"`
}

// PaymentApplication carries the precomputed effects of one payment so the
// repository can apply them as a single atomic unit: the enrollment balance
// write, the optional enrollment status promotion, the ledger insert, and
// the document request rollover.
type PaymentApplication struct {
	EnrollmentID            string
	AmountPaid              float64
	RemainingBalance        float64
	PaymentStatus           PaymentStatus
	EnrollmentStatus        *EnrollmentStatus
	MarkDocumentsProcessing bool
	Transaction             PaymentTransaction
}

// PaymentFilter captures listing criteria for the ledger.
type PaymentFilter struct {
	EnrollmentID string
	StudentID    string
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
}
