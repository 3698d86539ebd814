package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialclone/go-social-backend/internal/auth/domain"
	"github.com/socialclone/go-social-backend/internal/auth/session"
)

func TestRequireSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tracker := session.NewTracker()
	r := gin.New()
	r.Use(RequireSession(tracker))
	r.GET("/gated", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(CtxUserID)})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gated", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tracker.Set(&domain.Session{User: domain.User{UID: "u1"}})

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gated", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u1"`)

	tracker.Set(nil)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gated", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code, "signing out closes the gate immediately")
}
