package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mwierda/coachhub-backend/internal/domain"
)

func newAuthDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.AuthSession{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedSession(t *testing.T, db *gorm.DB, role string, expires time.Time) (userID, token string) {
	t.Helper()
	u := &domain.User{ID: uuid.NewString(), Email: uuid.NewString() + "@praktijk.nl", Name: "Test", Role: role}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token = uuid.NewString()
	s := &domain.AuthSession{Token: token, UserID: u.ID, ExpiresAt: expires}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return u.ID, token
}

func authRouter(db *gorm.DB, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := append([]gin.HandlerFunc{Auth(db)}, extra...)
	r.GET("/whoami", append(chain, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserIDFrom(c), "role": RoleFrom(c)})
	})...)
	return r
}

func TestAuth_MissingCookie_401(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newAuthDB(t)
	r := authRouter(db)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no cookie -> %d", w.Code)
	}
}

func TestAuth_UnknownAndExpiredTokens_401(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newAuthDB(t)
	_, expired := seedSession(t, db, domain.RoleCoach, time.Now().UTC().Add(-time.Minute))
	r := authRouter(db)

	for name, token := range map[string]string{
		"unknown": uuid.NewString(),
		"expired": expired,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s token -> %d", name, w.Code)
		}
	}
}

func TestAuth_ValidSession_SetsIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newAuthDB(t)
	userID, token := seedSession(t, db, domain.RoleCoach, time.Now().UTC().Add(time.Hour))
	r := authRouter(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("valid session -> %d body=%s", w.Code, w.Body.String())
	}
	want := fmt.Sprintf(`{"role":"COACH","user":"%s"}`, userID)
	if w.Body.String() != want {
		t.Fatalf("identity = %s, want %s", w.Body.String(), want)
	}
}

func TestRequireAdmin_RoleGate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newAuthDB(t)
	_, coachToken := seedSession(t, db, domain.RoleCoach, time.Now().UTC().Add(time.Hour))
	_, adminToken := seedSession(t, db, domain.RoleAdmin, time.Now().UTC().Add(time.Hour))
	r := authRouter(db, RequireAdmin())

	// coach -> 403 with the shared Dutch message
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: coachToken})
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("coach -> %d", w.Code)
	}

	// admin passes
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: adminToken})
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("admin -> %d", w.Code)
	}
}

func TestIdentityHelpers_DefaultEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if UserIDFrom(c) != "" || RoleFrom(c) != "" {
		t.Fatalf("expected empty identity without Auth")
	}
	c.Set("userID", 12) // wrong type is treated as absent
	if UserIDFrom(c) != "" {
		t.Fatalf("non-string user id must yield empty")
	}
}
