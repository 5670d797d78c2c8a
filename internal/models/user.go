package models

import "time"

// UserRole represents the available roles on the platform.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTutor   UserRole = "tutor"
	RoleStudent UserRole = "student"
)

// StudentLifecycle is the single derived lifecycle state for a student,
// computed once at the data-access boundary. Blocked is an orthogonal flag
// on the user record, not a lifecycle state.
type StudentLifecycle string

const (
	LifecycleRequested StudentLifecycle = "requested"
	LifecycleAccepted  StudentLifecycle = "accepted"
	LifecycleEnrolled  StudentLifecycle = "enrolled"
)

// User represents a platform account: student, tutor or admin.
type User struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	Phone        string     `db:"phone" json:"phone"`
	Role         UserRole   `db:"role" json:"role"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Approved     bool       `db:"approved" json:"isApproved"`
	Blocked      bool       `db:"blocked" json:"isBlocked"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentDetail enriches a student user with the derived lifecycle state and
// enrollment context.
type StudentDetail struct {
	User
	Lifecycle     StudentLifecycle `db:"lifecycle" json:"lifecycle"`
	ActiveCourses int              `db:"active_courses" json:"active_courses"`
	PaidPayments  int              `db:"paid_payments" json:"paid_payments"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Approved  *bool
	Blocked   *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
