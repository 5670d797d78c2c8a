package models

import "time"

// EnrollmentStatus represents the lifecycle of a course enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusPending  EnrollmentStatus = "pending"
	EnrollmentStatusActive   EnrollmentStatus = "active"
	EnrollmentStatusRejected EnrollmentStatus = "rejected_by_admin"
)

// EnrollmentTransitionAllowed reports whether an enrollment may move between
// statuses. Pending enrollments resolve one way.
func EnrollmentTransitionAllowed(from, to EnrollmentStatus) bool {
	if from != EnrollmentStatusPending {
		return false
	}
	return to == EnrollmentStatusActive || to == EnrollmentStatusRejected
}

// Enrollment captures a student's registration to a course.
type Enrollment struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student"`
	CourseID  string           `db:"course_id" json:"course"`
	Status    EnrollmentStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches an enrollment with student and course info.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
	CourseTitle string `db:"course_title" json:"course_title"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	CourseID  string
	Status    EnrollmentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
