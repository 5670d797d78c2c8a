package models

import "time"

// SessionMode describes how a tutoring session is delivered.
type SessionMode string

const (
	SessionModeOnline  SessionMode = "online"
	SessionModeOffline SessionMode = "offline"
	SessionModeHybrid  SessionMode = "hybrid"
)

// SessionStatus represents the lifecycle of a scheduled session.
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// SessionTransitionAllowed reports whether a session may move between
// statuses. Only scheduled sessions progress; completion and cancellation
// are terminal. Deletion is allowed from any state.
func SessionTransitionAllowed(from, to SessionStatus) bool {
	if from != SessionStatusScheduled {
		return false
	}
	return to == SessionStatusCompleted || to == SessionStatusCancelled
}

// Session represents an admin-scheduled tutoring session.
type Session struct {
	ID              string        `db:"id" json:"id"`
	StudentID       string        `db:"student_id" json:"student"`
	CourseID        string        `db:"course_id" json:"course"`
	ScheduledAt     time.Time     `db:"scheduled_at" json:"scheduledAt"`
	DurationMinutes int           `db:"duration_minutes" json:"durationMinutes"`
	Mode            SessionMode   `db:"mode" json:"mode"`
	Notes           string        `db:"notes" json:"notes"`
	Status          SessionStatus `db:"status" json:"status"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// SessionDetail enriches a session with student and course names.
type SessionDetail struct {
	Session
	StudentName string `db:"student_name" json:"student_name"`
	CourseTitle string `db:"course_title" json:"course_title"`
}

// SessionFilter provides filters for listing sessions.
type SessionFilter struct {
	StudentID string
	CourseID  string
	Status    SessionStatus
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
