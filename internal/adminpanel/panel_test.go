package adminpanel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a scriptable admin API: each route key is "METHOD path",
// the value is a canned response. Unknown routes answer 404 like a server
// build that does not expose them.
type fakeBackend struct {
	mu       sync.Mutex
	routes   map[string]fakeResponse
	requests []string
}

type fakeResponse struct {
	status int
	body   string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{routes: map[string]fakeResponse{}}
}

func (b *fakeBackend) on(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = fakeResponse{status: status, body: body}
}

func (b *fakeBackend) onList(path, body string) {
	b.on(http.MethodGet, path, http.StatusOK, `{"success":true,"data":`+body+`}`)
}

func (b *fakeBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.requests = append(b.requests, key)
		resp, ok := b.routes[key]
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"message":"route not found"}`))
			return
		}
		w.WriteHeader(resp.status)
		_, _ = w.Write([]byte(resp.body))
	})
}

func (b *fakeBackend) calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.requests))
	copy(out, b.requests)
	return out
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func emptyLists(b *fakeBackend) {
	b.onList("/admin/students", `[]`)
	b.onList("/admin/teachers", `[]`)
	b.onList("/admin/courses", `[]`)
	b.onList("/admin/payments", `[]`)
	b.onList("/admin/enrollments", `[]`)
	b.onList("/admin/sessions", `[]`)
}

func newPanelFixture(t *testing.T, backend *fakeBackend, confirm ConfirmFunc) *Panel {
	t.Helper()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	store := newTestStore(t)
	require.NoError(t, store.SetToken("jwt-1"))
	client := NewClient(store, ClientConfig{BaseURL: server.URL})
	return NewPanel(client, confirm, nil)
}

const okBody = `{"success":true,"data":null}`

func TestPerformActionFakeGuardMakesNoNetworkCall(t *testing.T) {
	backend := newFakeBackend()
	panel := newPanelFixture(t, backend, nil)

	teacher := UserRecord{
		ID:    "t1",
		Name:  "Real Name",
		Email: "fake@test.com",
		Phone: "9876543210",
		Role:  "teacher",
	}

	panel.PerformAction(context.Background(), teacher, ActionApprove)

	assert.Equal(t, "Cannot approve fake teacher record: Invalid email.", panel.Error())
	assert.Zero(t, backend.callCount(), "guard rejection must not reach the network")
	assert.Empty(t, panel.ActionInFlightID())
}

func TestPerformActionFakeGuardDoesNotBlockDelete(t *testing.T) {
	backend := newFakeBackend()
	emptyLists(backend)
	backend.on(http.MethodDelete, "/admin/delete-user/t1", http.StatusOK, okBody)
	panel := newPanelFixture(t, backend, nil)

	fake := UserRecord{ID: "t1", Name: "Test Account", Role: "teacher"}
	panel.PerformAction(context.Background(), fake, ActionDelete)

	assert.Empty(t, panel.Error())
	assert.Contains(t, backend.calls(), "DELETE /admin/delete-user/t1")
}

func TestPerformActionApproveStudentFallsBackThroughCandidates(t *testing.T) {
	backend := newFakeBackend()
	emptyLists(backend)
	// only the third candidate name exists on this server build
	backend.on(http.MethodPut, "/admin/approve-user/s1", http.StatusOK, okBody)
	panel := newPanelFixture(t, backend, nil)

	student := UserRecord{
		ID: "s1", Name: "Maria Santos", Email: "maria@gmail.com",
		Phone: "9876543210", Role: "student", RequestStatus: "pending",
	}
	panel.PerformAction(context.Background(), student, ActionApprove)

	assert.Empty(t, panel.Error())
	assert.Equal(t, "Approved Maria Santos.", panel.Message())
	assert.Empty(t, panel.ActionInFlightID())

	calls := backend.calls()
	require.GreaterOrEqual(t, len(calls), 3)
	assert.Equal(t, "PUT /admin/approve-student/s1", calls[0])
	assert.Equal(t, "PUT /admin/students/approve/s1", calls[1])
	assert.Equal(t, "PUT /admin/approve-user/s1", calls[2])
}

func TestPerformActionTerminalErrorStopsTrial(t *testing.T) {
	backend := newFakeBackend()
	backend.on(http.MethodPut, "/admin/approve-student/s1", http.StatusInternalServerError,
		`{"success":false,"message":"replica set unavailable"}`)
	panel := newPanelFixture(t, backend, nil)

	student := UserRecord{
		ID: "s1", Name: "Maria Santos", Email: "maria@gmail.com",
		Phone: "9876543210", Role: "student",
	}
	panel.PerformAction(context.Background(), student, ActionApprove)

	assert.Equal(t, "replica set unavailable", panel.Error())
	assert.Empty(t, panel.ActionInFlightID(), "marker released after failure")
	assert.Equal(t, []string{"PUT /admin/approve-student/s1"}, backend.calls(),
		"no further candidates after a terminal error")
}

func TestPerformActionAllCandidatesMissing(t *testing.T) {
	backend := newFakeBackend()
	panel := newPanelFixture(t, backend, nil)

	student := UserRecord{
		ID: "s1", Name: "Maria Santos", Email: "maria@gmail.com",
		Phone: "9876543210", Role: "student",
	}
	panel.PerformAction(context.Background(), student, ActionApprove)

	assert.Equal(t, ErrNotAvailable.Error(), panel.Error())
	assert.Empty(t, panel.ActionInFlightID())
	assert.Len(t, backend.calls(), 3, "all candidates tried")
}

func TestPerformActionMarkerClearedOnSuccess(t *testing.T) {
	backend := newFakeBackend()
	emptyLists(backend)
	backend.on(http.MethodPut, "/admin/block-user/s1", http.StatusOK, okBody)
	panel := newPanelFixture(t, backend, nil)

	student := UserRecord{ID: "s1", Name: "Maria", Role: "student"}
	panel.PerformAction(context.Background(), student, ActionBlock)

	assert.Empty(t, panel.ActionInFlightID())
	assert.Equal(t, "Blocked Maria.", panel.Message())
}

type panickyTransport struct{}

func (panickyTransport) RoundTrip(*http.Request) (*http.Response, error) {
	panic("transport exploded")
}

func TestPerformActionMarkerClearedOnPanic(t *testing.T) {
	store := newTestStore(t)
	client := NewClient(store, ClientConfig{
		BaseURL:   "http://unreachable.test",
		Transport: panickyTransport{},
	})
	panel := NewPanel(client, nil, nil)

	student := UserRecord{ID: "s1", Name: "Maria", Role: "student"}
	func() {
		defer func() {
			require.NotNil(t, recover(), "expected the transport panic to propagate")
		}()
		panel.PerformAction(context.Background(), student, ActionDelete)
	}()

	assert.Empty(t, panel.ActionInFlightID(), "marker released even when the action panics")
}

func TestClearAllDataDeclinedMakesNoCalls(t *testing.T) {
	backend := newFakeBackend()
	declined := func(prompt string) bool { return false }
	panel := newPanelFixture(t, backend, declined)
	panel.students = []UserRecord{{ID: "s1"}}
	panel.sessions = []SessionRecord{{ID: "sess-1"}}

	panel.ClearAllData(context.Background())

	assert.Zero(t, backend.callCount())
	assert.Len(t, panel.Students(), 1, "lists unchanged after declined confirm")
	assert.Len(t, panel.Sessions(), 1)
	assert.Empty(t, panel.Error())
	assert.Empty(t, panel.Message())
}

func TestClearAllDataBulkEndpoints(t *testing.T) {
	backend := newFakeBackend()
	emptyLists(backend)
	backend.on(http.MethodDelete, "/admin/sessions", http.StatusOK, okBody)
	backend.on(http.MethodDelete, "/admin/students/clear", http.StatusOK, okBody)
	accepted := func(prompt string) bool { return true }
	panel := newPanelFixture(t, backend, accepted)

	panel.ClearAllData(context.Background())

	assert.Empty(t, panel.Error())
	assert.Equal(t, "All session and student data cleared.", panel.Message())
	assert.Contains(t, backend.calls(), "DELETE /admin/sessions")
	assert.Contains(t, backend.calls(), "DELETE /admin/students/clear")
}

func TestClearAllDataPerItemFallback(t *testing.T) {
	backend := newFakeBackend()
	emptyLists(backend)
	// no bulk endpoints; per-item deletes where one student delete fails
	backend.on(http.MethodDelete, "/admin/sessions/sess-1", http.StatusOK, okBody)
	backend.on(http.MethodDelete, "/admin/delete-user/s1", http.StatusOK, okBody)
	backend.on(http.MethodDelete, "/admin/delete-user/s2", http.StatusInternalServerError,
		`{"success":false,"message":"busy"}`)
	backend.on(http.MethodDelete, "/admin/delete-user/s3", http.StatusOK, okBody)
	accepted := func(prompt string) bool { return true }
	panel := newPanelFixture(t, backend, accepted)
	panel.sessions = []SessionRecord{{ID: "sess-1"}}
	panel.students = []UserRecord{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}}

	panel.ClearAllData(context.Background())

	calls := backend.calls()
	assert.Contains(t, calls, "DELETE /admin/sessions/sess-1")
	assert.Contains(t, calls, "DELETE /admin/delete-user/s1")
	assert.Contains(t, calls, "DELETE /admin/delete-user/s2")
	assert.Contains(t, calls, "DELETE /admin/delete-user/s3",
		"one failed delete does not abort the remaining deletes")
	assert.Equal(t, "All session and student data cleared.", panel.Message())
}

func TestClearAllDataStudentFailureStillRefreshes(t *testing.T) {
	backend := newFakeBackend()
	emptyLists(backend)
	backend.on(http.MethodDelete, "/admin/sessions", http.StatusOK, okBody)
	backend.on(http.MethodDelete, "/admin/students/clear", http.StatusInternalServerError,
		`{"success":false,"message":"users table locked"}`)
	accepted := func(prompt string) bool { return true }
	panel := newPanelFixture(t, backend, accepted)
	panel.sessions = []SessionRecord{{ID: "sess-1"}}

	panel.ClearAllData(context.Background())

	assert.Equal(t, "users table locked", panel.Error())
	assert.Empty(t, panel.Message())
	assert.Empty(t, panel.Sessions(),
		"lists resync after the partial wipe instead of keeping deleted sessions")
	assert.Contains(t, backend.calls(), "GET /admin/sessions")
}

func TestRefreshAllLoadsPayoutSettings(t *testing.T) {
	backend := newFakeBackend()
	emptyLists(backend)
	backend.onList("/admin/payout-settings",
		`[{"id":"po-1","tutor":"t1","tutor_name":"Ravi Kumar","method":"upi","accountIdentifier":"ravi@upi","commissionPercent":12.5}]`)
	panel := newPanelFixture(t, backend, nil)

	panel.RefreshAll(context.Background())

	require.Len(t, panel.PayoutSettings(), 1)
	assert.Equal(t, "upi", panel.PayoutSettings()[0].Method)
	assert.Equal(t, 12.5, panel.PayoutSettings()[0].CommissionPercent)
	assert.Empty(t, panel.Error())
}

func TestRefreshAllPartialSuccess(t *testing.T) {
	backend := newFakeBackend()
	emptyLists(backend)
	backend.onList("/admin/students", `[{"id":"s1","name":"Maria"}]`)
	backend.on(http.MethodGet, "/admin/courses", http.StatusInternalServerError,
		`{"success":false,"message":"course index offline"}`)
	panel := newPanelFixture(t, backend, nil)

	panel.RefreshAll(context.Background())

	assert.False(t, panel.Loading())
	require.Len(t, panel.Students(), 1, "successful fetches still populate")
	assert.Equal(t, "course index offline", panel.Error())
}

func TestRefreshAllSessionFallbackPath(t *testing.T) {
	backend := newFakeBackend()
	emptyLists(backend)
	// this build only answers the legacy session-data name
	backend.mu.Lock()
	delete(backend.routes, "GET /admin/sessions")
	backend.mu.Unlock()
	backend.onList("/admin/session-data", `[{"_id":"legacy-1","student":"s1","status":"scheduled","startTime":"2026-09-10T10:00:00Z"}]`)
	panel := newPanelFixture(t, backend, nil)

	panel.RefreshAll(context.Background())

	require.Len(t, panel.Sessions(), 1)
	assert.Equal(t, "legacy-1", panel.Sessions()[0].Key())
	assert.Equal(t, "2026-09-10T10:00:00Z", panel.Sessions()[0].Start())
	assert.Empty(t, panel.Error(), "missing session endpoints are not page errors")
}

func TestScheduleSessionValidationSkipsNetwork(t *testing.T) {
	backend := newFakeBackend()
	panel := newPanelFixture(t, backend, nil)

	panel.ScheduleSession(context.Background(), SessionInput{CourseID: "c1"})

	assert.Equal(t, "student is required", panel.Error())
	assert.Zero(t, backend.callCount())
	assert.Empty(t, panel.ActionInFlightID())
}

func TestScheduleSessionUsesFallbackCreatePath(t *testing.T) {
	backend := newFakeBackend()
	emptyLists(backend)
	backend.on(http.MethodPost, "/admin/session-data", http.StatusCreated, okBody)
	panel := newPanelFixture(t, backend, nil)

	panel.ScheduleSession(context.Background(), SessionInput{
		StudentID:       "s1",
		CourseID:        "c1",
		ScheduledAt:     "2026-09-10T10:00:00Z",
		DurationMinutes: 60,
		Mode:            "online",
	})

	assert.Empty(t, panel.Error())
	assert.Equal(t, "Session scheduled.", panel.Message())
	calls := backend.calls()
	assert.Equal(t, "POST /admin/sessions", calls[0])
	assert.Equal(t, "POST /admin/session-data", calls[1])
}
