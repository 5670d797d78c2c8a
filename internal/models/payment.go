package models

import "time"

// PaymentStatus represents the review state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// ReviewTransitionAllowed reports whether an admin review may move a payment
// from one status to another. Review moves pending payments only, one way.
func ReviewTransitionAllowed(from, to PaymentStatus) bool {
	if from != PaymentStatusPending {
		return false
	}
	return to == PaymentStatusApproved || to == PaymentStatusRejected
}

// Payment represents a course payment submitted by a student for review.
type Payment struct {
	ID              string        `db:"id" json:"id"`
	StudentID       string        `db:"student_id" json:"student"`
	CourseID        string        `db:"course_id" json:"course"`
	Amount          float64       `db:"amount" json:"amount"`
	Currency        string        `db:"currency" json:"currency"`
	Status          PaymentStatus `db:"status" json:"status"`
	Provider        string        `db:"provider" json:"provider"`
	TransactionID   string        `db:"transaction_id" json:"transactionId"`
	ScreenshotURL   string        `db:"screenshot_url" json:"screenshotUrl"`
	RejectionReason string        `db:"rejection_reason" json:"rejectionReason,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// PaymentDetail enriches a payment with student and course context for the
// admin review queue.
type PaymentDetail struct {
	Payment
	StudentName string `db:"student_name" json:"student_name"`
	CourseTitle string `db:"course_title" json:"course_title"`
}

// PaymentFilter provides filters for listing payments.
type PaymentFilter struct {
	StudentID string
	CourseID  string
	Status    PaymentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
