package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(SitesPublishedTotal.WithLabelValues("fs"))
	SitesPublishedTotal.WithLabelValues("fs").Inc()
	if got := testutil.ToFloat64(SitesPublishedTotal.WithLabelValues("fs")); got != before+1 {
		t.Errorf("sites_published_total = %v, want %v", got, before+1)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	GenerationsTotal.WithLabelValues(OutcomeStub).Inc()
	SiteNotFoundTotal.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, name := range []string{"generations_total", "sites_not_found_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
