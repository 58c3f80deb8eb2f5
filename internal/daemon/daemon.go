// Package daemon implements the watch-rebuild-serve loop.
//
// Staleness policy: while a rebuild is in flight, HTTP requests are served
// from the previous complete snapshot (stale-until-rebuild). The swap to
// the new tree is a single atomic pointer store after the build fully
// succeeds, so clients never observe a torn output tree.
package daemon

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/blogsmith/internal/config"
	"git.home.luguber.info/inful/blogsmith/internal/events"
	"git.home.luguber.info/inful/blogsmith/internal/history"
	"git.home.luguber.info/inful/blogsmith/internal/metrics"
	"git.home.luguber.info/inful/blogsmith/internal/site"
)

// Daemon wires the watcher, debouncer, builder, history store and HTTP
// server together around the event bus.
type Daemon struct {
	cfg      *config.Config
	opts     site.Options
	bus      *events.Bus
	server   *Server
	recorder *metrics.Recorder
	store    *history.Store // may be nil

	building atomic.Bool
}

func New(cfg *config.Config, opts site.Options, store *history.Store) *Daemon {
	recorder := metrics.NewRecorder()
	return &Daemon{
		cfg:      cfg,
		opts:     opts,
		bus:      events.NewBus(),
		server:   NewServer(recorder, store),
		recorder: recorder,
		store:    store,
	}
}

// Run performs the initial build and serves until ctx is canceled. The
// initial build is allowed to fail with content issues: the server comes up
// with whatever rendered and recovers on the next change.
func (d *Daemon) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer d.bus.Close()

	// Subscriptions go in before any producer starts so nothing is dropped;
	// the history recorder must also see the startup build.
	buildNow, unsubBuildNow := events.Subscribe[events.BuildNow](d.bus, 4)
	defer unsubBuildNow()
	changes, unsubChanges := events.Subscribe[events.ContentChanged](d.bus, 64)
	defer unsubChanges()
	completed, unsubCompleted := events.Subscribe[events.BuildCompleted](d.bus, 8)
	defer unsubCompleted()
	go d.recordCompleted(runCtx, completed)

	d.runBuild(runCtx, "startup")

	if err := d.server.Start(runCtx, d.cfg.Serve.Port); err != nil {
		return err
	}

	watcher, err := NewWatcher(d.bus, d.cfg.WatchDirs())
	if err != nil {
		return err
	}
	debouncer, err := NewDebouncer(d.bus, DebouncerConfig{
		QuietWindow:  d.cfg.Serve.QuietWindow,
		MaxDelay:     d.cfg.Serve.MaxDelay,
		BuildRunning: d.building.Load,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() { errCh <- debouncer.Run(runCtx) }()
	select {
	case <-debouncer.Ready():
	case <-runCtx.Done():
		return d.shutdown()
	}

	go d.forwardContentChanges(runCtx, changes)
	go func() { errCh <- watcher.Run(runCtx) }()

	scheduler, err := d.startScheduler(runCtx)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() { _ = scheduler.Shutdown() }()
	}

	for {
		select {
		case <-runCtx.Done():
			return d.shutdown()
		case err := <-errCh:
			if err != nil {
				return err
			}
		case evt, ok := <-buildNow:
			if !ok {
				return d.shutdown()
			}
			d.recorder.RebuildTriggered(evt.LastReason)
			slog.Info("rebuild triggered",
				"coalesced_requests", evt.RequestCount,
				"reason", evt.LastReason,
				"cause", evt.DebounceCause)
			d.runBuild(runCtx, evt.LastReason)
		}
	}
}

// forwardContentChanges turns watcher change events into build requests for
// the debouncer.
func (d *Daemon) forwardContentChanges(ctx context.Context, changes <-chan events.ContentChanged) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			_ = d.bus.Publish(ctx, events.BuildRequested{
				Reason:      "watch",
				Path:        change.Path,
				RequestedAt: change.At,
			})
		}
	}
}

// startScheduler sets up the periodic republish job so future-dated posts
// go live once their date passes. Disabled when republish_every is zero.
func (d *Daemon) startScheduler(ctx context.Context) (gocron.Scheduler, error) {
	interval := d.cfg.Serve.RepublishEvery
	if interval <= 0 {
		return nil, nil
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			_ = d.bus.Publish(ctx, events.BuildRequested{Reason: "schedule", RequestedAt: time.Now()})
		}),
	)
	if err != nil {
		return nil, err
	}
	scheduler.Start()
	slog.Info("scheduled republish enabled", "every", interval)
	return scheduler, nil
}

// runBuild executes one build, publishes the snapshot on success and emits
// a BuildCompleted event either way. Build failures are logged, not fatal:
// the server keeps serving the previous snapshot and the next change
// retries.
func (d *Daemon) runBuild(ctx context.Context, trigger string) {
	d.building.Store(true)
	defer d.building.Store(false)

	builder, err := site.NewBuilder(d.cfg)
	if err != nil {
		// Theme errors are recoverable in serve mode: the user is probably
		// mid-edit on a layout.
		slog.Error("build failed", "trigger", trigger, "error", err)
		d.recorder.ObserveBuild(0, 0, false, true)
		_ = d.bus.Publish(ctx, events.BuildCompleted{
			Trigger:   trigger,
			StartedAt: time.Now(),
			Err:       err.Error(),
		})
		return
	}

	snap, report, err := builder.Build(ctx, trigger, d.opts)
	if err != nil {
		slog.Error("build failed", "trigger", trigger, "error", err)
		d.recorder.ObserveBuild(report.Duration, 0, false, true)
		_ = d.bus.Publish(ctx, events.BuildCompleted{
			BuildID:    report.ID,
			Trigger:    trigger,
			StartedAt:  report.StartedAt,
			Duration:   report.Duration,
			IssueCount: len(report.Issues),
			Err:        err.Error(),
		})
		return
	}

	d.server.Publish(snap)
	d.recorder.ObserveBuild(report.Duration, report.Pages, report.HasIssues(), false)

	if err := site.WriteTree(snap, d.cfg.Output.Directory, d.cfg.Output.Clean); err != nil {
		slog.Warn("write output tree", "error", err)
	}

	_ = d.bus.Publish(ctx, events.BuildCompleted{
		BuildID:    report.ID,
		Trigger:    trigger,
		StartedAt:  report.StartedAt,
		Duration:   report.Duration,
		Pages:      report.Pages,
		IssueCount: len(report.Issues),
		Sum:        snap.Sum(),
	})
}

// recordCompleted appends every build outcome, failed ones included, to the
// history store.
func (d *Daemon) recordCompleted(ctx context.Context, completed <-chan events.BuildCompleted) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-completed:
			if !ok {
				return
			}
			if d.store == nil {
				continue
			}
			rec := history.Record{
				BuildID:   evt.BuildID,
				Trigger:   evt.Trigger,
				StartedAt: evt.StartedAt,
				Duration:  evt.Duration,
				Pages:     evt.Pages,
				Issues:    evt.IssueCount,
				Err:       evt.Err,
			}
			if err := d.store.Append(ctx, rec); err != nil {
				slog.Warn("record build history", "error", err)
			}
		}
	}
}

// Server exposes the HTTP server, primarily for tests.
func (d *Daemon) Server() *Server { return d.server }

func (d *Daemon) shutdown() error {
	slog.Info("shutting down dev server")
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.server.Stop(stopCtx)
}
