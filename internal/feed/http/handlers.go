package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/socialclone/go-social-backend/internal/feed"
)

type Handler struct {
	sub *feed.Subscriber
}

func New(sub *feed.Subscriber) *Handler {
	return &Handler{sub: sub}
}

func (h *Handler) getFeed(c *gin.Context) {
	posts, err := h.sub.CurrentPosts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "failed to load feed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "posts": posts})
}

func (h *Handler) getComments(c *gin.Context) {
	postID := c.Param("id")
	if postID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "post id is required"})
		return
	}

	comments, err := h.sub.CurrentComments(c.Request.Context(), postID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "failed to load comments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "comments": comments})
}
