package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"path"
	"sync/atomic"
	"time"

	berrors "git.home.luguber.info/inful/blogsmith/internal/errors"
	"git.home.luguber.info/inful/blogsmith/internal/history"
	"git.home.luguber.info/inful/blogsmith/internal/metrics"
	"git.home.luguber.info/inful/blogsmith/internal/site"
)

// Server serves the current output tree snapshot plus the dev endpoints.
//
// The snapshot is held behind an atomic pointer: Publish swaps the whole
// tree at once, so a request served during a rebuild sees either the
// complete old site or the complete new site, never a mixture. Until a
// rebuild finishes, requests are served stale from the previous snapshot.
type Server struct {
	snapshot   atomic.Pointer[site.Snapshot]
	livereload *LiveReloadHub
	recorder   *metrics.Recorder
	store      *history.Store // may be nil
	httpServer *http.Server
}

func NewServer(recorder *metrics.Recorder, store *history.Store) *Server {
	s := &Server{
		livereload: NewLiveReloadHub(recorder),
		recorder:   recorder,
		store:      store,
	}
	s.snapshot.Store(site.NewSnapshot(map[string][]byte{}))
	return s
}

// Publish atomically swaps in a new snapshot and notifies livereload
// clients.
func (s *Server) Publish(snap *site.Snapshot) {
	s.snapshot.Store(snap)
	s.livereload.Broadcast(snap.Sum())
}

// Current returns the snapshot requests are being served from.
func (s *Server) Current() *site.Snapshot {
	return s.snapshot.Load()
}

// Start binds the port and begins serving. Binding synchronously means a
// taken port fails fast with an environment error instead of surfacing
// later inside the serve goroutine.
func (s *Server) Start(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/livereload", s.livereload)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", s.recorder.Handler())
	mux.HandleFunc("/api/builds", s.handleBuilds)
	mux.HandleFunc("/", s.handleSite)

	addr := fmt.Sprintf(":%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return berrors.EnvironmentWrap(err, "bind port "+addr)
	}

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			slog.Error("http server stopped", "error", err)
		}
	}()
	slog.Info("dev server listening", "url", fmt.Sprintf("http://localhost:%d", port))
	return nil
}

// Stop drains connections and shuts the livereload hub down.
func (s *Server) Stop(ctx context.Context) error {
	s.livereload.Shutdown()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.snapshot.Load()
	resolved, data, ok := snap.Resolve(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	ctype := mime.TypeByExtension(path.Ext(resolved))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", ctype)

	// Dev-only reload script: injected at serve time so the on-disk output
	// tree stays byte-identical to a plain `build`.
	if path.Ext(resolved) == ".html" {
		data = injectLiveReload(data)
	}
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := s.snapshot.Load()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"pages":  snap.Len(),
		"sum":    snap.Sum(),
	})
}

func (s *Server) handleBuilds(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "build history disabled", http.StatusNotFound)
		return
	}
	records, err := s.store.Recent(r.Context(), 20)
	if err != nil {
		slog.Error("query build history", "error", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(records)
}

var bodyClose = []byte("</body>")

// injectLiveReload splices the reload script in before </body>, falling
// back to appending when the page has no body tag.
func injectLiveReload(page []byte) []byte {
	idx := bytes.LastIndex(page, bodyClose)
	if idx < 0 {
		return append(append([]byte{}, page...), []byte(liveReloadScript)...)
	}
	out := make([]byte, 0, len(page)+len(liveReloadScript))
	out = append(out, page[:idx]...)
	out = append(out, []byte(liveReloadScript)...)
	out = append(out, page[idx:]...)
	return out
}
