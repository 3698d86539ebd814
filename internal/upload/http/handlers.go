package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/socialclone/go-social-backend/internal/upload"
)

type Handler struct {
	gateway *upload.Gateway
}

func New(gateway *upload.Gateway) *Handler {
	return &Handler{gateway: gateway}
}

// Register mounts the upload route on the given group.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("", h.uploadImage)
}

func (h *Handler) uploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "an image file is required"})
		return
	}
	defer file.Close()

	// Read one byte past the limit so oversized files are detected
	// without buffering them whole.
	data, err := io.ReadAll(io.LimitReader(file, h.gateway.MaxBytes()+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "failed to read file"})
		return
	}

	url, err := h.gateway.Upload(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeUploadError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "url": url})
}

func writeUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, upload.ErrMisconfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "image hosting is not configured"})
	case errors.Is(err, upload.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"ok": false, "error": "file is too large"})
	case errors.Is(err, upload.ErrUnsupportedType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"ok": false, "error": "unsupported file type"})
	case errors.Is(err, upload.ErrUploadFailed):
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "image host rejected the upload"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
