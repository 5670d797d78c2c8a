package adminpanel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func plausibleUser() UserRecord {
	return UserRecord{
		ID:    "u1",
		Name:  "Maria Santos",
		Email: "maria.santos@gmail.com",
		Phone: "9876543210",
		Role:  "student",
	}
}

func TestReasonUserLooksFakeRuleOrder(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*UserRecord)
		want   string
	}{
		{"plausible", func(u *UserRecord) {}, ""},
		{"missing name", func(u *UserRecord) { u.Name = "" }, ReasonInvalidName},
		{"whitespace name", func(u *UserRecord) { u.Name = "   " }, ReasonInvalidName},
		{"keyword in name", func(u *UserRecord) { u.Name = "Test User" }, ReasonInvalidName},
		{"keyword case-insensitive", func(u *UserRecord) { u.Name = "DUMMY account" }, ReasonInvalidName},
		{"temp name", func(u *UserRecord) { u.Name = "Temporary Guy" }, ReasonInvalidName},
		{"missing email", func(u *UserRecord) { u.Email = "" }, ReasonInvalidEmail},
		{"email without at", func(u *UserRecord) { u.Email = "maria.gmail.com" }, ReasonInvalidEmail},
		{"keyword in email", func(u *UserRecord) { u.Email = "fake@test.com" }, ReasonInvalidEmail},
		{"empty phone", func(u *UserRecord) { u.Phone = "" }, ReasonInvalidPhone},
		{"short phone", func(u *UserRecord) { u.Phone = "12345" }, ReasonInvalidPhone},
		{"repeated digits", func(u *UserRecord) { u.Phone = "0000000000" }, ReasonInvalidPhone},
		{"repeated with separators", func(u *UserRecord) { u.Phone = "22-22-22-22" }, ReasonInvalidPhone},
		{"valid with separators", func(u *UserRecord) { u.Phone = "+1 (987) 654-3210" }, ""},
		{"name beats email", func(u *UserRecord) {
			u.Name = "Fake Person"
			u.Email = "also-fake"
		}, ReasonInvalidName},
		{"email beats phone", func(u *UserRecord) {
			u.Email = "no-at-sign"
			u.Phone = "111"
		}, ReasonInvalidEmail},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := plausibleUser()
			tc.mutate(&u)
			reason := ReasonUserLooksFake(u)
			assert.Equal(t, tc.want, reason)
			assert.Equal(t, reason != "", IsFakeUser(u))
		})
	}
}

func TestReasonIsFromFixedSet(t *testing.T) {
	valid := map[string]struct{}{
		"": {}, ReasonInvalidName: {}, ReasonInvalidEmail: {}, ReasonInvalidPhone: {},
	}
	users := []UserRecord{
		plausibleUser(),
		{},
		{Name: "x", Email: "y", Phone: "z"},
		{Name: "Sample Co", Email: "real@real.com", Phone: "9876543210"},
	}
	for _, u := range users {
		_, ok := valid[ReasonUserLooksFake(u)]
		assert.True(t, ok)
	}
}

func TestIsStudentPendingApproval(t *testing.T) {
	assert.True(t, IsStudentPendingApproval(UserRecord{RequestStatus: "pending"}))
	assert.True(t, IsStudentPendingApproval(UserRecord{RequestStatus: " PENDING "}))
	assert.True(t, IsStudentPendingApproval(UserRecord{Status: "requested"}))
	assert.True(t, IsStudentPendingApproval(UserRecord{IsApproved: boolPtr(false)}))

	// absence of the isApproved field is not pending
	assert.False(t, IsStudentPendingApproval(UserRecord{}))
	assert.False(t, IsStudentPendingApproval(UserRecord{IsApproved: boolPtr(true)}))
	assert.False(t, IsStudentPendingApproval(UserRecord{Status: "active"}))
}

func TestCanApproveStudentGuardDominance(t *testing.T) {
	pendingFake := plausibleUser()
	pendingFake.RequestStatus = "pending"
	pendingFake.Email = "fake@test.com"
	assert.True(t, IsStudentPendingApproval(pendingFake))
	assert.False(t, CanApproveStudent(pendingFake), "fake guard dominates pending state")

	pendingReal := plausibleUser()
	pendingReal.RequestStatus = "pending"
	assert.True(t, CanApproveStudent(pendingReal))

	notPending := plausibleUser()
	assert.False(t, CanApproveStudent(notPending))
}

func TestCanApproveTeacher(t *testing.T) {
	teacher := plausibleUser()
	teacher.Role = "teacher"
	assert.True(t, CanApproveTeacher(teacher), "unspecified approval counts as not approved")

	teacher.IsApproved = boolPtr(false)
	assert.True(t, CanApproveTeacher(teacher))

	teacher.IsApproved = boolPtr(true)
	assert.False(t, CanApproveTeacher(teacher))

	fakeTeacher := plausibleUser()
	fakeTeacher.Name = "Test Teacher"
	assert.False(t, CanApproveTeacher(fakeTeacher))
}
