package adminpanel

import "fmt"

// Candidate endpoint lists for actions whose authoritative path varies
// between deployed server builds. Ordering encodes "most likely correct
// name first".
var (
	sessionReadPaths = []string{
		"/admin/sessions",
		"/admin/session-data",
		"/sessions",
	}
	sessionCreatePaths = []string{
		"/admin/sessions",
		"/admin/session-data",
	}
	sessionUpdatePaths = []string{
		"/admin/sessions/%s",
		"/admin/session-data/%s",
	}
	sessionDeletePaths = []string{
		"/admin/sessions/%s",
		"/admin/session-data/%s",
	}
	clearSessionPaths = []string{
		"/admin/sessions",
		"/admin/session-data",
	}
	clearStudentPaths = []string{
		"/admin/students/clear",
		"/admin/clear-students",
		"/admin/students",
	}
	approveStudentPaths = []string{
		"/admin/approve-student/%s",
		"/admin/students/approve/%s",
		"/admin/approve-user/%s",
	}
)

// ProbeResult reports the outcome of an endpoint trial.
type ProbeResult struct {
	// Succeeded is true when some candidate accepted the call.
	Succeeded bool
	// TerminalErr is the failure that stopped the trial early, nil when the
	// trial succeeded or every candidate was merely missing.
	TerminalErr error
}

// TryEndpoints invokes each candidate path in order. A missing-endpoint
// failure (404/405) moves on to the next candidate; any other failure stops
// the trial and is reported as terminal. Exhausting every candidate without
// a success yields a failed result with no terminal error, which callers
// surface as "action not available".
func TryEndpoints(candidates []string, invoke func(path string) error) ProbeResult {
	for _, path := range candidates {
		err := invoke(path)
		if err == nil {
			return ProbeResult{Succeeded: true}
		}
		if IsMissingEndpoint(err) {
			continue
		}
		return ProbeResult{TerminalErr: err}
	}
	return ProbeResult{}
}

// expandPaths fills one %s slot in each template.
func expandPaths(templates []string, id string) []string {
	out := make([]string, len(templates))
	for i, tpl := range templates {
		out[i] = fmt.Sprintf(tpl, id)
	}
	return out
}
