package adminpanel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Action is a moderation action an admin can take on a user record.
type Action string

const (
	ActionApprove Action = "approve"
	ActionBlock   Action = "block"
	ActionUnblock Action = "unblock"
	ActionDelete  Action = "delete"
)

// ErrNotAvailable is surfaced when every candidate endpoint for an action is
// missing on the connected server build.
var ErrNotAvailable = errors.New("action not available on this server")

// PaymentRecord is the raw payment shape the backend returns.
type PaymentRecord struct {
	ID              string  `json:"id"`
	StudentID       string  `json:"student"`
	CourseID        string  `json:"course"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	Status          string  `json:"status"`
	TransactionID   string  `json:"transactionId"`
	ScreenshotURL   string  `json:"screenshotUrl"`
	RejectionReason string  `json:"rejectionReason,omitempty"`
}

// PayoutRecord is the raw tutor payout setting shape the backend returns.
type PayoutRecord struct {
	ID                string  `json:"id"`
	TutorID           string  `json:"tutor"`
	TutorName         string  `json:"tutor_name,omitempty"`
	Method            string  `json:"method"`
	AccountName       string  `json:"accountName"`
	AccountIdentifier string  `json:"accountIdentifier"`
	CommissionPercent float64 `json:"commissionPercent"`
}

// EnrollmentRecord is the raw enrollment shape the backend returns.
type EnrollmentRecord struct {
	ID        string `json:"id"`
	StudentID string `json:"student"`
	CourseID  string `json:"course"`
	Status    string `json:"status"`
}

// SessionRecord is the raw session shape. Older server builds answer with a
// document-store `_id` and `startTime` instead of `id` and `scheduledAt`.
type SessionRecord struct {
	ID              string `json:"id,omitempty"`
	MongoID         string `json:"_id,omitempty"`
	StudentID       string `json:"student"`
	CourseID        string `json:"course"`
	ScheduledAt     string `json:"scheduledAt,omitempty"`
	StartTime       string `json:"startTime,omitempty"`
	DurationMinutes int    `json:"durationMinutes"`
	Mode            string `json:"mode"`
	Notes           string `json:"notes,omitempty"`
	Status          string `json:"status"`
}

// Key returns whichever identifier the server populated.
func (s SessionRecord) Key() string {
	if s.ID != "" {
		return s.ID
	}
	return s.MongoID
}

// Start returns whichever schedule field the server populated.
func (s SessionRecord) Start() string {
	if s.ScheduledAt != "" {
		return s.ScheduledAt
	}
	return s.StartTime
}

// SessionInput is the payload for scheduling or rescheduling a session.
type SessionInput struct {
	StudentID       string `json:"student"`
	CourseID        string `json:"course"`
	ScheduledAt     string `json:"scheduledAt"`
	DurationMinutes int    `json:"durationMinutes"`
	Mode            string `json:"mode"`
	Notes           string `json:"notes,omitempty"`
}

// Validate rejects a session payload before it reaches the network.
func (in SessionInput) Validate() error {
	switch {
	case in.StudentID == "":
		return errors.New("student is required")
	case in.CourseID == "":
		return errors.New("course is required")
	case in.ScheduledAt == "":
		return errors.New("schedule time is required")
	case in.DurationMinutes <= 0:
		return errors.New("duration must be positive")
	default:
		return nil
	}
}

// ConfirmFunc asks the admin to confirm a destructive operation. Returning
// false aborts the operation with no state change.
type ConfirmFunc func(prompt string) bool

// Panel owns one page's worth of admin state: the entity lists, the loading
// flag, the single in-flight action marker and the error/success messages.
type Panel struct {
	client  *Client
	confirm ConfirmFunc
	logger  *zap.Logger

	mu               sync.Mutex
	students         []UserRecord
	teachers         []UserRecord
	courses          []CourseRecord
	payments         []PaymentRecord
	enrollments      []EnrollmentRecord
	payoutSettings   []PayoutRecord
	sessions         []SessionRecord
	loading          bool
	actionInFlightID string
	errMsg           string
	message          string
}

// NewPanel builds a Panel on top of the HTTP adapter.
func NewPanel(client *Client, confirm ConfirmFunc, logger *zap.Logger) *Panel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Panel{client: client, confirm: confirm, logger: logger}
}

// Students returns the current student list.
func (p *Panel) Students() []UserRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.students
}

// Teachers returns the current teacher list.
func (p *Panel) Teachers() []UserRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.teachers
}

// Courses returns the current course list.
func (p *Panel) Courses() []CourseRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.courses
}

// Payments returns the current payment list.
func (p *Panel) Payments() []PaymentRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payments
}

// Enrollments returns the current enrollment list.
func (p *Panel) Enrollments() []EnrollmentRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enrollments
}

// PayoutSettings returns the current tutor payout setting list.
func (p *Panel) PayoutSettings() []PayoutRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payoutSettings
}

// Sessions returns the current session list.
func (p *Panel) Sessions() []SessionRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions
}

// Loading reports whether a refresh is running.
func (p *Panel) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// ActionInFlightID returns the entity id of the outstanding action, or "".
func (p *Panel) ActionInFlightID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.actionInFlightID
}

// Error returns the page error message, or "".
func (p *Panel) Error() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errMsg
}

// Message returns the page success message, or "".
func (p *Panel) Message() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.message
}

// RefreshAll re-fetches every entity list in parallel. A failing fetch
// records the page error but does not discard lists that did load.
func (p *Panel) RefreshAll(ctx context.Context) {
	p.mu.Lock()
	p.errMsg = ""
	p.mu.Unlock()
	p.refreshLists(ctx)
}

// refreshLists performs the fetches without touching the page error, so a
// caller that just recorded a failure can still resync the lists.
func (p *Panel) refreshLists(ctx context.Context) {
	p.mu.Lock()
	p.loading = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.loading = false
		p.mu.Unlock()
	}()

	var wg sync.WaitGroup
	fetch := func(fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil && !IsMissingEndpoint(err) {
				p.setError(errorText(err, "Failed to load data."))
			}
		}()
	}

	fetch(func() error {
		var students []UserRecord
		if err := p.client.Get(ctx, "/admin/students", &students); err != nil {
			return err
		}
		p.mu.Lock()
		p.students = students
		p.mu.Unlock()
		return nil
	})
	fetch(func() error {
		var teachers []UserRecord
		if err := p.client.Get(ctx, "/admin/teachers", &teachers); err != nil {
			return err
		}
		p.mu.Lock()
		p.teachers = teachers
		p.mu.Unlock()
		return nil
	})
	fetch(func() error {
		var courses []CourseRecord
		if err := p.client.Get(ctx, "/admin/courses", &courses); err != nil {
			return err
		}
		p.mu.Lock()
		p.courses = courses
		p.mu.Unlock()
		return nil
	})
	fetch(func() error {
		var payments []PaymentRecord
		if err := p.client.Get(ctx, "/admin/payments", &payments); err != nil {
			return err
		}
		p.mu.Lock()
		p.payments = payments
		p.mu.Unlock()
		return nil
	})
	fetch(func() error {
		var enrollments []EnrollmentRecord
		if err := p.client.Get(ctx, "/admin/enrollments", &enrollments); err != nil {
			return err
		}
		p.mu.Lock()
		p.enrollments = enrollments
		p.mu.Unlock()
		return nil
	})
	fetch(func() error {
		var settings []PayoutRecord
		if err := p.client.Get(ctx, "/admin/payout-settings", &settings); err != nil {
			return err
		}
		p.mu.Lock()
		p.payoutSettings = settings
		p.mu.Unlock()
		return nil
	})
	fetch(func() error {
		var sessions []SessionRecord
		result := TryEndpoints(sessionReadPaths, func(path string) error {
			return p.client.Get(ctx, path, &sessions)
		})
		if result.TerminalErr != nil {
			return result.TerminalErr
		}
		if result.Succeeded {
			p.mu.Lock()
			p.sessions = sessions
			p.mu.Unlock()
		}
		return nil
	})

	wg.Wait()
}

// PerformAction runs one moderation action against a user record. Approval
// of a record the classifier flags as fake is rejected before any network
// call. The in-flight marker is released on every exit path.
func (p *Panel) PerformAction(ctx context.Context, user UserRecord, action Action) {
	if action == ActionApprove {
		if reason := ReasonUserLooksFake(user); reason != "" {
			p.setError(fmt.Sprintf("Cannot approve fake %s record: %s.", user.Role, reason))
			return
		}
	}

	p.mu.Lock()
	p.actionInFlightID = user.ID
	p.errMsg = ""
	p.message = ""
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.actionInFlightID = ""
		p.mu.Unlock()
	}()

	if err := p.applyUserAction(ctx, user, action); err != nil {
		p.setError(errorText(err, fmt.Sprintf("Failed to %s user.", action)))
		return
	}

	p.RefreshAll(ctx)
	p.setMessage(successText(user, action))
}

func (p *Panel) applyUserAction(ctx context.Context, user UserRecord, action Action) error {
	switch action {
	case ActionApprove:
		if user.Role == "student" {
			result := TryEndpoints(expandPaths(approveStudentPaths, user.ID), func(path string) error {
				return p.client.Put(ctx, path, nil, nil)
			})
			if result.TerminalErr != nil {
				return result.TerminalErr
			}
			if !result.Succeeded {
				return ErrNotAvailable
			}
			return nil
		}
		return p.client.Put(ctx, "/admin/approve-teacher/"+user.ID, nil, nil)
	case ActionBlock:
		return p.client.Put(ctx, "/admin/block-user/"+user.ID, map[string]bool{"isBlocked": true}, nil)
	case ActionUnblock:
		return p.client.Put(ctx, "/admin/block-user/"+user.ID, map[string]bool{"isBlocked": false}, nil)
	case ActionDelete:
		return p.client.Delete(ctx, "/admin/delete-user/"+user.ID, nil)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

// ScheduleSession creates a session through the endpoint trial.
func (p *Panel) ScheduleSession(ctx context.Context, in SessionInput) {
	if err := in.Validate(); err != nil {
		p.setError(err.Error())
		return
	}
	p.runSessionAction(ctx, "new", sessionCreatePaths, func(path string) error {
		return p.client.Post(ctx, path, in, nil)
	}, "Session scheduled.")
}

// UpdateSession reschedules an existing session.
func (p *Panel) UpdateSession(ctx context.Context, id string, in SessionInput) {
	if err := in.Validate(); err != nil {
		p.setError(err.Error())
		return
	}
	p.runSessionAction(ctx, id, expandPaths(sessionUpdatePaths, id), func(path string) error {
		return p.client.Put(ctx, path, in, nil)
	}, "Session updated.")
}

// DeleteSession removes a session.
func (p *Panel) DeleteSession(ctx context.Context, id string) {
	p.runSessionAction(ctx, id, expandPaths(sessionDeletePaths, id), func(path string) error {
		return p.client.Delete(ctx, path, nil)
	}, "Session deleted.")
}

func (p *Panel) runSessionAction(ctx context.Context, id string, candidates []string, invoke func(path string) error, successMsg string) {
	p.mu.Lock()
	p.actionInFlightID = id
	p.errMsg = ""
	p.message = ""
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.actionInFlightID = ""
		p.mu.Unlock()
	}()

	result := TryEndpoints(candidates, invoke)
	if result.TerminalErr != nil {
		p.setError(errorText(result.TerminalErr, "Session action failed."))
		return
	}
	if !result.Succeeded {
		p.setError(ErrNotAvailable.Error())
		return
	}

	p.RefreshAll(ctx)
	p.setMessage(successMsg)
}

// ClearAllData wipes sessions and students after an interactive
// confirmation. Declining aborts with no state change and no network call.
// When no bulk endpoint exists, falls back to best-effort per-item deletes.
func (p *Panel) ClearAllData(ctx context.Context) {
	if p.confirm == nil || !p.confirm("This permanently deletes all session and student data. Continue?") {
		return
	}

	p.mu.Lock()
	p.errMsg = ""
	p.message = ""
	sessions := p.sessions
	students := p.students
	p.mu.Unlock()

	bulkSessions := TryEndpoints(clearSessionPaths, func(path string) error {
		return p.client.Delete(ctx, path, nil)
	})
	if bulkSessions.TerminalErr != nil {
		p.setError(errorText(bulkSessions.TerminalErr, "Failed to clear sessions."))
		return
	}
	if !bulkSessions.Succeeded {
		for _, s := range sessions {
			result := TryEndpoints(expandPaths(sessionDeletePaths, s.Key()), func(path string) error {
				return p.client.Delete(ctx, path, nil)
			})
			if result.TerminalErr != nil {
				p.logger.Warn("failed to delete session", zap.String("session_id", s.Key()), zap.Error(result.TerminalErr))
			}
		}
	}

	bulkStudents := TryEndpoints(clearStudentPaths, func(path string) error {
		return p.client.Delete(ctx, path, nil)
	})
	if bulkStudents.TerminalErr != nil {
		p.setError(errorText(bulkStudents.TerminalErr, "Failed to clear students."))
		// Sessions are already gone at this point; refresh so the lists
		// reflect the partial wipe instead of the pre-clear state.
		p.refreshLists(ctx)
		return
	}
	if !bulkStudents.Succeeded {
		for _, s := range students {
			if err := p.client.Delete(ctx, "/admin/delete-user/"+s.ID, nil); err != nil {
				p.logger.Warn("failed to delete student", zap.String("student_id", s.ID), zap.Error(err))
			}
		}
	}

	p.RefreshAll(ctx)
	p.setMessage("All session and student data cleared.")
}

func (p *Panel) setError(msg string) {
	p.mu.Lock()
	p.errMsg = msg
	p.mu.Unlock()
}

func (p *Panel) setMessage(msg string) {
	p.mu.Lock()
	p.message = msg
	p.mu.Unlock()
}

func errorText(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrNotAvailable) {
		return ErrNotAvailable.Error()
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}

func successText(user UserRecord, action Action) string {
	name := user.Name
	if name == "" {
		name = user.ID
	}
	switch action {
	case ActionApprove:
		return fmt.Sprintf("Approved %s.", name)
	case ActionBlock:
		return fmt.Sprintf("Blocked %s.", name)
	case ActionUnblock:
		return fmt.Sprintf("Unblocked %s.", name)
	case ActionDelete:
		return fmt.Sprintf("Deleted %s.", name)
	default:
		return "Done."
	}
}
