package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func redactRouter(opts RedactOptions) *gin.Engine {
	r := gin.New()
	r.Use(RedactingLogger(opts))
	r.GET("/clients", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/broken", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return r
}

func TestRedactingLogger_ScrubsQueryPII(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)
	r := redactRouter(RedactOptions{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/clients?email=anna.jansen@praktijk.nl&tel=%2B31%20612345678&ref=7b0c2c44-9d3e-4a6b-8f1e-2d5a9c3b1e0f", nil)
	r.ServeHTTP(w, req)

	logs := buf.String()
	if strings.Contains(logs, "anna.jansen@praktijk.nl") {
		t.Fatalf("email leaked:\n%s", logs)
	}
	if strings.Contains(logs, "612345678") {
		t.Fatalf("phone leaked:\n%s", logs)
	}
	if strings.Contains(logs, "7b0c2c44-9d3e-4a6b-8f1e-2d5a9c3b1e0f") {
		t.Fatalf("uuid leaked:\n%s", logs)
	}
	for _, marker := range []string{"[REDACTED:email]", "[REDACTED:phone]", "[REDACTED:id]"} {
		if !strings.Contains(logs, marker) {
			t.Fatalf("missing %s marker:\n%s", marker, logs)
		}
	}
}

func TestRedactingLogger_MasksSensitiveHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)
	r := redactRouter(RedactOptions{MaskHeaders: []string{" X-Api-Key "}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/clients", nil)
	req.Header.Set("Authorization", "Bearer geheim-token")
	req.Header.Set("Cookie", SessionCookieName+"=sessiewaarde")
	req.Header.Set("X-Api-Key", "sleutel-123")
	req.Header.Set("Accept", "application/json")
	r.ServeHTTP(w, req)

	logs := buf.String()
	for _, secret := range []string{"geheim-token", "sessiewaarde", "sleutel-123"} {
		if strings.Contains(logs, secret) {
			t.Fatalf("secret %q leaked:\n%s", secret, logs)
		}
	}
	if !strings.Contains(logs, "[REDACTED]") {
		t.Fatalf("mask markers missing:\n%s", logs)
	}
	// benign headers pass through
	if !strings.Contains(logs, "application/json") {
		t.Fatalf("accept header scrubbed unexpectedly:\n%s", logs)
	}
}

func TestRedactingLogger_SeverityFollowsStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)
	r := redactRouter(RedactOptions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/clients", nil))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/onbekend", nil))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/broken", nil))

	logs := buf.String()
	if !strings.Contains(logs, `"level":"info"`) {
		t.Fatalf("info log missing:\n%s", logs)
	}
	if !strings.Contains(logs, `"level":"warn"`) {
		t.Fatalf("warn log missing for 404:\n%s", logs)
	}
	if !strings.Contains(logs, `"level":"error"`) {
		t.Fatalf("error log missing for 500:\n%s", logs)
	}
	if !strings.Contains(logs, `"message":"http_request"`) {
		t.Fatalf("log message name changed:\n%s", logs)
	}
}
