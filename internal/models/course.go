package models

import "time"

// CourseApproval represents the moderation state of a course listing.
type CourseApproval string

const (
	CourseApprovalPending  CourseApproval = "pending"
	CourseApprovalApproved CourseApproval = "approved"
	CourseApprovalRejected CourseApproval = "rejected"
)

// Course represents a tutoring course offered by a tutor.
type Course struct {
	ID             string         `db:"id" json:"id"`
	Title          string         `db:"title" json:"title"`
	Subject        string         `db:"subject" json:"subject"`
	Price          float64        `db:"price" json:"price"`
	DurationWeeks  int            `db:"duration_weeks" json:"durationInWeeks"`
	TutorID        string         `db:"tutor_id" json:"teacher"`
	ApprovalStatus CourseApproval `db:"approval_status" json:"approvalStatus"`
	Published      bool           `db:"published" json:"isPublished"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// CourseDetail enriches a course with tutor identity.
type CourseDetail struct {
	Course
	TutorName  string `db:"tutor_name" json:"tutor_name"`
	TutorEmail string `db:"tutor_email" json:"tutor_email"`
}

// CourseFilter provides filters for listing courses.
type CourseFilter struct {
	Subject   string
	TutorID   string
	Approval  CourseApproval
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
