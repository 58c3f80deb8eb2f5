package events

import "time"

// ContentChanged is published by the filesystem watcher for every relevant
// change under a watched directory.
type ContentChanged struct {
	Path string
	Op   string
	At   time.Time
}

// BuildRequested asks the debouncer for a rebuild. Many of these may
// coalesce into a single BuildNow.
type BuildRequested struct {
	Reason      string // "watch", "schedule", "manual"
	Path        string // triggering file, when known
	RequestedAt time.Time
}

// BuildNow instructs the build worker to run exactly one build.
type BuildNow struct {
	TriggeredAt   time.Time
	RequestCount  int    // how many BuildRequested events were coalesced
	LastReason    string
	DebounceCause string // "quiet", "max_delay", "after_running"
}

// BuildCompleted reports a finished build to interested parties
// (livereload hub, history store, metrics).
type BuildCompleted struct {
	BuildID    string
	Trigger    string
	StartedAt  time.Time
	Duration   time.Duration
	Pages      int
	IssueCount int
	Sum        string // snapshot content hash; empty when the build errored
	Err        string // non-empty when the build failed outright
}
