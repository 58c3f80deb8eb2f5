package daemon

import (
	"context"
	"sync"
	"time"

	berrors "git.home.luguber.info/inful/blogsmith/internal/errors"
	"git.home.luguber.info/inful/blogsmith/internal/events"
)

// DebouncerConfig tunes rebuild coalescing.
type DebouncerConfig struct {
	// QuietWindow is how long the content store must be quiet before a
	// rebuild fires.
	QuietWindow time.Duration
	// MaxDelay caps postponement: a steady stream of saves cannot defer the
	// rebuild forever.
	MaxDelay time.Duration

	// BuildRunning reports whether a build is currently in flight. While
	// true the debouncer queues exactly one follow-up instead of emitting.
	BuildRunning func() bool

	// PollInterval controls completion polling once a follow-up is queued.
	PollInterval time.Duration
}

// Debouncer coalesces bursts of BuildRequested events into single BuildNow
// events.
//
// Invariants:
//   - N requests within the quiet window emit exactly one BuildNow.
//   - emission cannot be postponed past MaxDelay from the first request.
//   - builds never overlap: while one runs, at most one follow-up is queued.
//
// Run it as a single goroutine.
type Debouncer struct {
	bus *events.Bus
	cfg DebouncerConfig

	mu              sync.Mutex
	pending         bool
	pendingAfterRun bool
	firstRequestAt  time.Time
	lastReason      string
	requestCount    int

	readyOnce sync.Once
	ready     chan struct{}
}

func NewDebouncer(bus *events.Bus, cfg DebouncerConfig) (*Debouncer, error) {
	if bus == nil {
		return nil, berrors.Internal("debouncer requires a bus")
	}
	if cfg.QuietWindow <= 0 {
		return nil, berrors.Internal("quiet window must be > 0")
	}
	if cfg.MaxDelay < cfg.QuietWindow {
		return nil, berrors.Internal("max delay must be >= quiet window")
	}
	if cfg.BuildRunning == nil {
		cfg.BuildRunning = func() bool { return false }
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	return &Debouncer{bus: bus, cfg: cfg, ready: make(chan struct{})}, nil
}

// Ready is closed once Run has subscribed; tests use it to sequence startup.
func (d *Debouncer) Ready() <-chan struct{} { return d.ready }

func (d *Debouncer) Run(ctx context.Context) error {
	reqCh, unsubscribe := events.Subscribe[events.BuildRequested](d.bus, 64)
	defer unsubscribe()

	d.readyOnce.Do(func() { close(d.ready) })

	quiet := newStoppedTimer()
	max := newStoppedTimer()
	poll := newStoppedTimer()
	defer quiet.Stop()
	defer max.Stop()
	defer poll.Stop()

	var quietC, maxC, pollC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case req, ok := <-reqCh:
			if !ok {
				return nil
			}
			first := d.noteRequest(req)
			resetTimer(quiet, d.cfg.QuietWindow)
			quietC = quiet.C
			if first {
				resetTimer(max, d.cfg.MaxDelay)
				maxC = max.C
			}

		case <-quietC:
			if d.tryEmit(ctx, "quiet") {
				quietC, maxC = nil, nil
			}

		case <-maxC:
			if d.tryEmit(ctx, "max_delay") {
				quietC, maxC = nil, nil
			}

		case <-pollC:
			if d.tryEmit(ctx, "after_running") {
				pollC, quietC, maxC = nil, nil, nil
				continue
			}
			resetTimer(poll, d.cfg.PollInterval)
			pollC = poll.C
		}

		if d.hasFollowUp() && pollC == nil {
			resetTimer(poll, d.cfg.PollInterval)
			pollC = poll.C
		}
	}
}

// noteRequest records a request and reports whether it opened a new burst.
func (d *Debouncer) noteRequest(req events.BuildRequested) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	at := req.RequestedAt
	if at.IsZero() {
		at = time.Now()
	}
	first := !d.pending
	if first {
		d.pending = true
		d.firstRequestAt = at
		d.requestCount = 0
	}
	d.lastReason = req.Reason
	d.requestCount++
	return first
}

func (d *Debouncer) hasFollowUp() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pendingAfterRun
}

// tryEmit publishes BuildNow unless a build is running, in which case the
// emission is deferred until completion polling sees the build finish.
func (d *Debouncer) tryEmit(ctx context.Context, cause string) bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return true
	}
	if d.cfg.BuildRunning() {
		d.pendingAfterRun = true
		d.mu.Unlock()
		return false
	}
	evt := events.BuildNow{
		TriggeredAt:   time.Now(),
		RequestCount:  d.requestCount,
		LastReason:    d.lastReason,
		DebounceCause: cause,
	}
	d.pending = false
	d.pendingAfterRun = false
	d.mu.Unlock()

	_ = d.bus.Publish(ctx, evt)
	return true
}

// newStoppedTimer returns a timer that will not fire until reset.
func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	stopTimer(t)
	return t
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, after time.Duration) {
	stopTimer(t)
	t.Reset(after)
}
