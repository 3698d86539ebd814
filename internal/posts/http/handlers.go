package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	authdomain "github.com/socialclone/go-social-backend/internal/auth/domain"
	"github.com/socialclone/go-social-backend/internal/posts/domain"
	"github.com/socialclone/go-social-backend/internal/posts/service"
	"github.com/socialclone/go-social-backend/internal/store"
)

type Handler struct {
	svc *service.PostService
}

func New(svc *service.PostService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) create(c *gin.Context) {
	var req createPostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	id, err := h.svc.CreatePost(c.Request.Context(), req.Caption, req.ImageURL)
	if err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "id": id})
}

func (h *Handler) toggleLike(c *gin.Context) {
	postID := c.Param("id")
	if postID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "post id is required"})
		return
	}

	liked, err := h.svc.ToggleLike(c.Request.Context(), postID)
	if err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "liked": liked})
}

func (h *Handler) addComment(c *gin.Context) {
	postID := c.Param("id")
	if postID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "post id is required"})
		return
	}

	var req addCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	id, err := h.svc.AddComment(c.Request.Context(), postID, req.Text)
	if err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "id": id})
}

func writeMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authdomain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not signed in"})
	case errors.Is(err, domain.ErrMissingImage), errors.Is(err, domain.ErrEmptyComment):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, store.ErrWriteFailed):
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "remote write failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
