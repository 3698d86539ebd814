package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/socialclone/go-social-backend/internal/auth/session"
)

const (
	CtxUserID = "user_id"
)

// RequireSession gates routes on the process-wide session: this is a
// single-session client daemon, so "who is signed in" comes from the
// tracker, not per-request credentials.
func RequireSession(tracker *session.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := tracker.Current()
		if sess == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not signed in"})
			c.Abort()
			return
		}

		c.Set(CtxUserID, sess.User.UID)
		c.Next()
	}
}
