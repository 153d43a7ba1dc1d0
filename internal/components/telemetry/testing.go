package telemetry

import (
	"strings"
	"sync"
)

// Report is a single call made against TestAPI.
type Report struct {
	Kind   string
	ID     string
	Params []any
}

// TestAPI records every report it receives so tests can assert on them.
type TestAPI struct {
	mu      sync.Mutex
	reports []Report
}

func (t *TestAPI) push(kind, id string, params []any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reports = append(t.reports, Report{Kind: kind, ID: id, Params: params})
}

func (t *TestAPI) ReportBroken(id string, params ...any) {
	t.push("broken", id, params)
}

func (t *TestAPI) ReportWarning(id string, params ...any) {
	t.push("warning", id, params)
}

func (t *TestAPI) ReportDebug(msg string, params ...any) {
	t.push("debug", msg, params)
}

func (t *TestAPI) ReportCount(id string, count int64) {
	t.push("count", id, []any{count})
}

// Reports returns the reports of the given kind whose id ends with `suffix`.
func (t *TestAPI) Reports(kind, suffix string) []Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Report
	for _, r := range t.reports {
		if r.Kind == kind && strings.HasSuffix(r.ID, suffix) {
			out = append(out, r)
		}
	}
	return out
}
