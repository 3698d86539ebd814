package http

import "github.com/gin-gonic/gin"

// Register mounts the auth routes on the given group.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("/signup", h.signUp)
	g.POST("/signin", h.signIn)
	g.POST("/signout", h.signOut)
	g.GET("/me", h.me)
	g.PUT("/me/photo", h.updatePhoto)
}
