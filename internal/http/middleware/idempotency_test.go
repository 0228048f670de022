package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func idemRouter(opts IdempotencyOptions, lookup IdempotencyLookup, probe gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.POST("/coach/:clientId", IdempotencyValidator(opts, lookup), probe)
	return r
}

func TestIdempotencyValidator_AbsentHeaderIsNoOp(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := idemRouter(IdempotencyOptions{}, nil, func(c *gin.Context) {
		if _, ok := GetIdempotencyKey(c); ok {
			t.Errorf("key present without header")
		}
		if IsReplay(c) {
			t.Errorf("replay flagged without header")
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/coach/c1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("no header -> %d", w.Code)
	}
}

func TestIdempotencyValidator_RejectsBadKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := idemRouter(IdempotencyOptions{MaxLen: 16}, nil, func(c *gin.Context) {
		t.Errorf("handler must not run on invalid key")
	})

	for name, key := range map[string]string{
		"illegal chars": "spaties niet ok",
		"too long":      strings.Repeat("a", 17),
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/coach/c1", nil)
		req.Header.Set(HeaderIdempotencyKey, key)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s -> %d", name, w.Code)
		}
		if !strings.Contains(w.Body.String(), "bad_idempotency_key") {
			t.Fatalf("%s body: %s", name, w.Body.String())
		}
	}
}

func TestIdempotencyValidator_StashesKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := idemRouter(IdempotencyOptions{}, nil, func(c *gin.Context) {
		key, ok := GetIdempotencyKey(c)
		if !ok || key != "retry-1.2~ok" {
			t.Errorf("stashed key = %q ok=%v", key, ok)
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/coach/c1", nil)
	req.Header.Set(HeaderIdempotencyKey, "retry-1.2~ok")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid key -> %d", w.Code)
	}
}

func TestIdempotencyValidator_ReplayMarksRateBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var looked struct{ uid, clientID, key string }
	lookup := func(ctx context.Context, userID, clientID, key string, now time.Time) (bool, error) {
		looked.uid, looked.clientID, looked.key = userID, clientID, key
		return true, nil
	}
	r := gin.New()
	r.POST("/coach/:clientId",
		func(c *gin.Context) { c.Set("userID", "u-7"); c.Next() },
		IdempotencyValidator(IdempotencyOptions{}, lookup),
		func(c *gin.Context) {
			if !IsReplay(c) {
				t.Errorf("replay not flagged")
			}
			if !IsRateBypass(c) {
				t.Errorf("rate bypass not flagged")
			}
			c.Status(http.StatusOK)
		},
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/coach/client-9", nil)
	req.Header.Set(HeaderIdempotencyKey, "key-9")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("replay -> %d", w.Code)
	}
	if looked.uid != "u-7" || looked.clientID != "client-9" || looked.key != "key-9" {
		t.Fatalf("lookup args: %+v", looked)
	}
}

func TestIdempotencyValidator_LookupMissDoesNotFlag(t *testing.T) {
	gin.SetMode(gin.TestMode)
	lookup := func(ctx context.Context, userID, clientID, key string, now time.Time) (bool, error) {
		return false, nil
	}
	r := idemRouter(IdempotencyOptions{}, lookup, func(c *gin.Context) {
		if IsReplay(c) || IsRateBypass(c) {
			t.Errorf("flags set on lookup miss")
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/coach/c1", nil)
	req.Header.Set(HeaderIdempotencyKey, "fresh-key")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("miss -> %d", w.Code)
	}
}
