package site

import (
	"time"

	"github.com/google/uuid"
)

// Issue is a single per-document problem recorded during a build.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Report captures the outcome of one build run.
//
// Report fields never leak into the rendered output tree; rebuilding an
// unchanged content store stays byte-identical even though every report
// carries a fresh id and timestamps.
type Report struct {
	ID        string        `json:"id"`
	Trigger   string        `json:"trigger"` // "cli", "watch", "schedule"
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Pages     int           `json:"pages"`
	Issues    []Issue       `json:"issues,omitempty"`
}

func newReport(trigger string) *Report {
	return &Report{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		StartedAt: time.Now(),
	}
}

func (r *Report) addIssue(path string, err error) {
	r.Issues = append(r.Issues, Issue{Path: path, Message: err.Error()})
}

// HasIssues reports whether any document failed. Skip-and-report policy:
// issues make the build exit non-zero but do not abort it.
func (r *Report) HasIssues() bool { return len(r.Issues) > 0 }
