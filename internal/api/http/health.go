package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/socialclone/go-social-backend/internal/store"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Store     string    `json:"store,omitempty"`
}

type HealthHandler struct {
	serviceName string
	version     string
	store       store.Store
}

func NewHealthHandler(serviceName, version string, st store.Store) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		store:       st,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	storeStatus := "disabled"
	if h.store != nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		// An absent path is still a healthy round-trip.
		if _, err := h.store.Get(pingCtx, "posts"); err == nil || errors.Is(err, store.ErrNotFound) {
			storeStatus = "up"
		} else {
			storeStatus = "down"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Store:     storeStatus,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
