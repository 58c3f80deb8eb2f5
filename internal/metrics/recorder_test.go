package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecorderExposesMetrics(t *testing.T) {
	r := NewRecorder()
	r.ObserveBuild(120*time.Millisecond, 42, false, false)
	r.ObserveBuild(80*time.Millisecond, 40, true, false)
	r.RebuildTriggered("watch")
	r.SetLivereloadClients(2)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	require.Contains(t, body, `blogsmith_build_outcomes_total{outcome="success"} 1`)
	require.Contains(t, body, `blogsmith_build_outcomes_total{outcome="warning"} 1`)
	require.Contains(t, body, "blogsmith_pages_rendered 40")
	require.Contains(t, body, `blogsmith_rebuild_triggers_total{reason="watch"} 1`)
	require.Contains(t, body, "blogsmith_livereload_clients 2")
}

func TestRecorderFailedBuildKeepsPagesGauge(t *testing.T) {
	r := NewRecorder()
	r.ObserveBuild(time.Millisecond, 10, false, false)
	r.ObserveBuild(time.Millisecond, 0, false, true)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Contains(t, rec.Body.String(), "blogsmith_pages_rendered 10")
	require.Contains(t, rec.Body.String(), `blogsmith_build_outcomes_total{outcome="failed"} 1`)
}
