package adminpanel

import "strings"

// Reasons returned by ReasonUserLooksFake.
const (
	ReasonInvalidName  = "Invalid name"
	ReasonInvalidEmail = "Invalid email"
	ReasonInvalidPhone = "Invalid phone"
)

// fakeKeywords are substrings that mark a name or email as implausible.
var fakeKeywords = []string{"fake", "dummy", "test", "unknown", "temp", "example", "sample"}

// UserRecord is the raw user shape the backend returns. The lifecycle is
// encoded redundantly across several optional fields; the classifiers below
// resolve it with fixed precedence.
type UserRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Role          string `json:"role"`
	IsApproved    *bool  `json:"isApproved,omitempty"`
	IsBlocked     bool   `json:"isBlocked"`
	Status        string `json:"status,omitempty"`
	RequestStatus string `json:"requestStatus,omitempty"`
	PaymentStatus string `json:"paymentStatus,omitempty"`
	IsEnrolled    bool   `json:"isEnrolled,omitempty"`
}

// ReasonUserLooksFake evaluates plausibility rules in order and returns the
// first matching reason, or "" for a plausible record.
func ReasonUserLooksFake(u UserRecord) string {
	name := strings.ToLower(strings.TrimSpace(u.Name))
	if name == "" || containsFakeKeyword(name) {
		return ReasonInvalidName
	}

	email := strings.ToLower(strings.TrimSpace(u.Email))
	if email == "" || !strings.Contains(email, "@") || containsFakeKeyword(email) {
		return ReasonInvalidEmail
	}

	digits := digitsOnly(u.Phone)
	if len(digits) < 8 || allSameDigit(digits) {
		return ReasonInvalidPhone
	}

	return ""
}

// IsFakeUser reports whether the record fails any plausibility rule.
func IsFakeUser(u UserRecord) bool {
	return ReasonUserLooksFake(u) != ""
}

// CanApproveTeacher gates teacher approval: not already approved and not fake.
func CanApproveTeacher(u UserRecord) bool {
	approved := u.IsApproved != nil && *u.IsApproved
	return !approved && !IsFakeUser(u)
}

// CanApproveStudent gates student approval: pending and not fake.
func CanApproveStudent(u UserRecord) bool {
	return IsStudentPendingApproval(u) && !IsFakeUser(u)
}

// IsStudentPendingApproval resolves the overlapping raw fields into a single
// pending verdict. An absent isApproved field is not pending; only an
// explicit false counts.
func IsStudentPendingApproval(u UserRecord) bool {
	if strings.EqualFold(strings.TrimSpace(u.RequestStatus), "pending") {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(u.Status), "requested") {
		return true
	}
	return u.IsApproved != nil && !*u.IsApproved
}

func containsFakeKeyword(s string) bool {
	for _, kw := range fakeKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allSameDigit(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}
