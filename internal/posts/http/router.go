package http

import "github.com/gin-gonic/gin"

// Register mounts the mutation routes on the given group. The group is
// expected to carry the session middleware.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("", h.create)
	g.POST("/:id/like", h.toggleLike)
	g.POST("/:id/comments", h.addComment)
}
