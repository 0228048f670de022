package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRouteAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/clients/:clientId", func(c *gin.Context) {
		c.String(http.StatusOK, "profiel")
	})
	r.GET("/leeg", func(c *gin.Context) {
		c.Status(http.StatusNoContent) // no body, size stays -1
	})

	baseRoute := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/clients/:clientId", "200"))
	baseMiss := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/niet-bestaand", "404"))

	for _, p := range []string{"/clients/abc", "/clients/def", "/niet-bestaand", "/leeg"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
	}

	// matched requests aggregate under the route pattern, not the raw URL
	got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/clients/:clientId", "200"))
	if got != baseRoute+2 {
		t.Fatalf("route counter = %v, want %v", got, baseRoute+2)
	}
	// unmatched requests fall back to the raw path
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/niet-bestaand", "404")); got != baseMiss+1 {
		t.Fatalf("404 counter = %v, want %v", got, baseMiss+1)
	}
	// gauge returns to zero once requests complete
	if inflight := testutil.ToFloat64(httpInflight); inflight != 0 {
		t.Fatalf("inflight = %v", inflight)
	}
}

func TestObserveCoachStream_CountsOutcomes(t *testing.T) {
	base := testutil.ToFloat64(coachStreams.WithLabelValues(StreamOutcomeTimeout))

	ObserveCoachStream(StreamOutcomeTimeout)
	ObserveCoachStream(StreamOutcomeTimeout)
	ObserveCoachStream(StreamOutcomeOK)

	if got := testutil.ToFloat64(coachStreams.WithLabelValues(StreamOutcomeTimeout)); got != base+2 {
		t.Fatalf("timeout counter = %v, want %v", got, base+2)
	}
}
