package adminpanel

import "strings"

// CourseRecord is the raw course shape the backend returns.
type CourseRecord struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Subject        string  `json:"subject"`
	Price          float64 `json:"price"`
	DurationWeeks  int     `json:"durationInWeeks"`
	TeacherID      string  `json:"teacher"`
	ApprovalStatus string  `json:"approvalStatus,omitempty"`
	IsPublished    bool    `json:"isPublished"`
}

// Display labels for course approval state.
const (
	CourseLabelApproved = "Approved"
	CourseLabelRejected = "Rejected"
	CourseLabelPending  = "Pending Admin"
)

// CourseApprovalState resolves the effective approval state. An explicit
// approvalStatus wins over the published flag.
func CourseApprovalState(c CourseRecord) string {
	if s := strings.ToLower(strings.TrimSpace(c.ApprovalStatus)); s != "" {
		return s
	}
	if c.IsPublished {
		return "approved"
	}
	return "pending"
}

// CourseDisplayLabel maps the resolved approval state to its display label.
func CourseDisplayLabel(c CourseRecord) string {
	switch CourseApprovalState(c) {
	case "approved":
		return CourseLabelApproved
	case "rejected":
		return CourseLabelRejected
	default:
		return CourseLabelPending
	}
}

// Student badge labels, in precedence order.
const (
	BadgeBlocked  = "Blocked"
	BadgeEnrolled = "Enrolled"
	BadgeRequest  = "Request"
	BadgeActive   = "Active"
)

// StudentBadge picks the single display badge for a student. First matching
// rule wins: Blocked, then Enrolled, then Request, then Active.
func StudentBadge(u UserRecord) string {
	switch {
	case u.IsBlocked:
		return BadgeBlocked
	case isEnrolled(u):
		return BadgeEnrolled
	case IsStudentPendingApproval(u):
		return BadgeRequest
	default:
		return BadgeActive
	}
}

// StudentBuckets groups students for summary counts. Buckets are not
// exclusive: a student may appear in several.
type StudentBuckets struct {
	Requests []UserRecord
	Accepted []UserRecord
	Enrolled []UserRecord
}

// BucketStudents distributes students across the summary buckets.
func BucketStudents(students []UserRecord) StudentBuckets {
	var buckets StudentBuckets
	for _, s := range students {
		pending := IsStudentPendingApproval(s)
		if pending {
			buckets.Requests = append(buckets.Requests, s)
		}
		if !s.IsBlocked && !pending {
			buckets.Accepted = append(buckets.Accepted, s)
		}
		if strings.EqualFold(s.PaymentStatus, "paid") ||
			strings.EqualFold(s.Status, "enrolled") ||
			s.IsEnrolled {
			buckets.Enrolled = append(buckets.Enrolled, s)
		}
	}
	return buckets
}

// isEnrolled matches the badge rule only: paid payment or the explicit flag.
func isEnrolled(u UserRecord) bool {
	return strings.EqualFold(u.PaymentStatus, "paid") || u.IsEnrolled
}
