package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"prepai/interview/internal/call"
)

func TestCallListenerTracksLifecycle(t *testing.T) {
	var l CallListener
	started := testutil.ToFloat64(callsStarted)
	active := testutil.ToFloat64(activeCalls)
	ended := testutil.ToFloat64(callsFinished.WithLabelValues(string(call.FinishUserEnded)))

	l.StatusChanged("i", call.StatusInactive, call.StatusConnecting, "")
	l.StatusChanged("i", call.StatusConnecting, call.StatusActive, "")
	if got := testutil.ToFloat64(activeCalls); got != active+1 {
		t.Fatalf("expected active calls %v, got %v", active+1, got)
	}

	l.StatusChanged("i", call.StatusActive, call.StatusFinished, call.FinishUserEnded)

	if got := testutil.ToFloat64(callsStarted); got != started+1 {
		t.Fatalf("expected started %v, got %v", started+1, got)
	}
	if got := testutil.ToFloat64(activeCalls); got != active {
		t.Fatalf("expected active calls back to %v, got %v", active, got)
	}
	if got := testutil.ToFloat64(callsFinished.WithLabelValues(string(call.FinishUserEnded))); got != ended+1 {
		t.Fatalf("expected finished %v, got %v", ended+1, got)
	}
}

func TestCallListenerAbortedConnectLeavesGauge(t *testing.T) {
	var l CallListener
	active := testutil.ToFloat64(activeCalls)

	l.StatusChanged("i", call.StatusInactive, call.StatusConnecting, "")
	l.StatusChanged("i", call.StatusConnecting, call.StatusInactive, "")

	if got := testutil.ToFloat64(activeCalls); got != active {
		t.Fatalf("expected active calls %v, got %v", active, got)
	}
}

func TestCallListenerCountsFeedbackOutcomes(t *testing.T) {
	var l CallListener
	before := testutil.ToFloat64(feedbackRequests.WithLabelValues(string(call.FeedbackFailed)))

	l.FeedbackCompleted("i", call.FeedbackFailed)

	if got := testutil.ToFloat64(feedbackRequests.WithLabelValues(string(call.FeedbackFailed))); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}
}

func TestMiddlewareRecordsRequests(t *testing.T) {
	handler := Middleware("interview")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status to pass through, got %d", rec.Code)
	}

	got := testutil.ToFloat64(httpRequests.WithLabelValues("interview", http.MethodGet, "/healthz", "418"))
	if got < 1 {
		t.Fatalf("expected request to be counted, got %v", got)
	}

	mrec := httptest.NewRecorder()
	Handler().ServeHTTP(mrec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(mrec.Body)
	if !strings.Contains(string(body), "interview_http_requests_total") {
		t.Fatalf("expected metrics output to include request counter")
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware("interview"))
	r.Get("/agents/{agentID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/agents/abc", nil))

	got := testutil.ToFloat64(httpRequests.WithLabelValues("interview", http.MethodGet, "/agents/{agentID}", "200"))
	if got < 1 {
		t.Fatalf("expected request to be labelled by route pattern, got %v", got)
	}
}

func TestRegisterAgentGauge(t *testing.T) {
	live := 3
	gauge := RegisterAgentGauge(func() int { return live })
	if got := testutil.ToFloat64(gauge); got != 3 {
		t.Fatalf("expected 3 agents, got %v", got)
	}
	live = 1
	if got := testutil.ToFloat64(gauge); got != 1 {
		t.Fatalf("expected gauge to follow the registry, got %v", got)
	}
}
