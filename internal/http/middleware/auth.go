// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the session cookie to an authenticated user. The
// authentication protocol itself (sign-in, token issuance) lives outside this
// service; requests arrive with an opaque session token that the middleware
// maps to a user row. Identity and role are stashed in the Gin context for
// handlers and the rate limiter.
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mwierda/coachhub-backend/internal/domain"
	"github.com/mwierda/coachhub-backend/internal/repo"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "session_token"

// Context keys for the authenticated identity.
const (
	ctxKeyUserID   = "userID"
	ctxKeyUserRole = "userRole"
)

const msgUnauthorized = "Niet geautoriseerd"

// Auth resolves the session cookie to a user and rejects requests without a
// valid, unexpired session with 401. Expired and unknown tokens are treated
// identically.
func Auth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			unauthorized(c, http.StatusUnauthorized)
			return
		}

		user, err := repo.GetUserBySessionToken(c.Request.Context(), db, token, time.Now().UTC())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "internal_error",
				"message":    "internal server error",
			})
			return
		}
		if user == nil {
			unauthorized(c, http.StatusUnauthorized)
			return
		}

		c.Set(ctxKeyUserID, user.ID)
		c.Set(ctxKeyUserRole, user.Role)
		c.Next()
	}
}

// RequireAdmin rejects non-ADMIN users with 403. Must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if RoleFrom(c) != domain.RoleAdmin {
			unauthorized(c, http.StatusForbidden)
			return
		}
		c.Next()
	}
}

// UserIDFrom returns the authenticated user's ID, or "" when Auth did not run.
func UserIDFrom(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// RoleFrom returns the authenticated user's role, or "" when Auth did not run.
func RoleFrom(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserRole); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// unauthorized writes the standard envelope with the Dutch auth message.
// Both 401 (no identity) and 403 (wrong role) share the same body, matching
// what the frontend displays.
func unauthorized(c *gin.Context, status int) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       codeFor(status),
		"message":    msgUnauthorized,
	})
}

func codeFor(status int) string {
	if status == http.StatusForbidden {
		return "forbidden"
	}
	return "unauthorized"
}
