package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/socialclone/go-social-backend/internal/auth"
	"github.com/socialclone/go-social-backend/internal/auth/domain"
)

type Handler struct {
	svc *auth.Service
}

func New(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) signUp(c *gin.Context) {
	var req signUpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "email and password are required"})
		return
	}

	sess, err := h.svc.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "user": sess.User})
}

func (h *Handler) signIn(c *gin.Context) {
	var req signInReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "email and password are required"})
		return
	}

	sess, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": sess.User})
}

func (h *Handler) signOut(c *gin.Context) {
	h.svc.SignOut(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) me(c *gin.Context) {
	sess := h.svc.Tracker().Current()
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not signed in"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": sess.User})
}

func (h *Handler) updatePhoto(c *gin.Context) {
	var req updatePhotoReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.PhotoURL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "photo_url is required"})
		return
	}

	user, err := h.svc.UpdateProfilePhoto(c.Request.Context(), strings.TrimSpace(req.PhotoURL))
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

func writeAuthError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrUnauthenticated) {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not signed in"})
		return
	}
	if perr, ok := domain.AsProviderError(err); ok {
		c.JSON(statusForKind(perr.Kind), gin.H{"ok": false, "error": perr.Message()})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "auth provider unavailable"})
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidCredentials:
		return http.StatusUnauthorized
	case domain.KindAccountDisabled:
		return http.StatusForbidden
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindEmailExists:
		return http.StatusConflict
	case domain.KindWeakPassword, domain.KindInvalidEmail:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
