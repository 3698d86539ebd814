package http

import "github.com/gin-gonic/gin"

// Register mounts the read-side routes: one-shot snapshots and the
// live SSE streams.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/feed", h.getFeed)
	g.GET("/feed/stream", h.StreamFeed)
	g.GET("/posts/:id/comments", h.getComments)
	g.GET("/posts/:id/comments/stream", h.StreamComments)
	g.GET("/posts/:id/likes/stream", h.StreamLikes)
}
