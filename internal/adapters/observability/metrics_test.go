package observability_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rentmatch/internal/adapters/observability"
)

func TestRegistryExposesCounters(t *testing.T) {
	reg := observability.InitRegistry()

	observability.ObserveHTTP("/v1/properties", http.MethodGet, 200, 5*time.Millisecond)
	observability.ObserveFilter("matched")
	observability.ObserveDecision("like")
	observability.ObserveNegotiation("created")
	observability.ObserveTransition("pending", "approved")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	want := map[string]bool{
		"rentmatch_http_requests_total":           false,
		"rentmatch_filter_applications_total":     false,
		"rentmatch_session_decisions_total":       false,
		"rentmatch_negotiation_events_total":      false,
		"rentmatch_negotiation_transitions_total": false,
	}
	for _, f := range families {
		if _, ok := want[f.GetName()]; ok {
			want[f.GetName()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("metric %s not gathered", name)
		}
	}
}

func TestMetricsHandlerServesText(t *testing.T) {
	reg := observability.InitRegistry()
	observability.ObserveCache("redis", "hit")

	rr := httptest.NewRecorder()
	observability.MetricsHandler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "rentmatch_cache_events_total") {
		t.Fatalf("metrics output missing cache counter:\n%s", rr.Body.String())
	}
}
