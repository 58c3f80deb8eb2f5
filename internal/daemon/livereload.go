package daemon

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/blogsmith/internal/metrics"
)

// LiveReloadHub manages SSE clients. After each successful rebuild the hub
// broadcasts the new snapshot content hash; the injected script reloads the
// page when the hash changes, so no-op rebuilds do not reload browsers.
type LiveReloadHub struct {
	mu       sync.Mutex
	nextID   int
	clients  map[int]*lrClient
	closed   bool
	lastSum  string
	recorder *metrics.Recorder
}

type lrClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

func NewLiveReloadHub(recorder *metrics.Recorder) *LiveReloadHub {
	return &LiveReloadHub{clients: map[int]*lrClient{}, recorder: recorder}
}

// ServeHTTP implements the /livereload SSE endpoint.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	client := &lrClient{id: h.nextID, ch: make(chan string, 8), done: make(chan struct{})}
	h.nextID++
	h.clients[client.id] = client
	current := h.lastSum
	count := len(h.clients)
	h.mu.Unlock()

	if h.recorder != nil {
		h.recorder.SetLivereloadClients(count)
	}
	defer h.remove(client.id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	bw := bufio.NewWriter(w)
	writeEvent := func(data string) bool {
		if _, err := bw.WriteString(data); err != nil {
			slog.Debug("livereload write", "error", err)
			return false
		}
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !writeEvent(": connected\n\n") {
		return
	}
	if current != "" && !writeEvent("data: {\"sum\":\""+current+"\"}\n\n") {
		return
	}

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			if !writeEvent(": ping\n\n") {
				return
			}
		case sum := <-client.ch:
			if !writeEvent("data: {\"sum\":\"" + sum + "\"}\n\n") {
				return
			}
		}
	}
}

func (h *LiveReloadHub) remove(id int) {
	h.mu.Lock()
	var count int
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
	count = len(h.clients)
	h.mu.Unlock()
	if h.recorder != nil {
		h.recorder.SetLivereloadClients(count)
	}
}

// Broadcast notifies all clients of a new snapshot sum. Clients whose
// buffers are full are dropped; their browsers will reconnect.
func (h *LiveReloadHub) Broadcast(sum string) {
	h.mu.Lock()
	if h.closed || sum == "" || sum == h.lastSum {
		h.mu.Unlock()
		return
	}
	h.lastSum = sum
	targets := make([]*lrClient, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		select {
		case c.ch <- sum:
		default:
			h.remove(c.id)
		}
	}
	slog.Debug("livereload broadcast", "sum", sum, "clients", len(targets))
}

// Shutdown disconnects all clients and rejects new ones.
func (h *LiveReloadHub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*lrClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
}

// liveReloadScript is injected into served HTML pages. It reloads when the
// broadcast sum differs from the one observed at page load.
const liveReloadScript = `<script>(() => {
  if (window.__BLOGSMITH_LR__) return;
  window.__BLOGSMITH_LR__ = true;
  function connect() {
    const es = new EventSource('/livereload');
    let current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (current === null) { current = p.sum; return; }
        if (p.sum && p.sum !== current) location.reload();
      } catch (_) {}
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();</script>`
