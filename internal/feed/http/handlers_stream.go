package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const keepAliveInterval = 15 * time.Second

// StreamFeed streams the projected feed over Server-Sent Events. Every
// remote change delivers the entire feed again; the browser replaces
// its local list wholesale. The subscription is released when the
// client disconnects.
func (h *Handler) StreamFeed(c *gin.Context) {
	flusher, ok := sseSetup(c)
	if !ok {
		return
	}

	sub, err := h.sub.Posts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "failed to subscribe to feed"})
		return
	}
	defer sub.Stop()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case d, open := <-sub.C:
			if !open {
				return
			}
			if d.Err != nil {
				sseEvent(c, flusher, "error", gin.H{"error": "feed subscription failed, reload to retry"})
				return
			}
			sseEvent(c, flusher, "feed", gin.H{"posts": d.Posts})
		}
	}
}

// StreamComments streams one post's comment list.
func (h *Handler) StreamComments(c *gin.Context) {
	postID := c.Param("id")
	if postID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "post id is required"})
		return
	}

	flusher, ok := sseSetup(c)
	if !ok {
		return
	}

	sub, err := h.sub.Comments(c.Request.Context(), postID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "failed to subscribe to comments"})
		return
	}
	defer sub.Stop()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case d, open := <-sub.C:
			if !open {
				return
			}
			if d.Err != nil {
				sseEvent(c, flusher, "error", gin.H{"error": "comment subscription failed, reload to retry"})
				return
			}
			sseEvent(c, flusher, "comments", gin.H{"comments": d.Comments})
		}
	}
}

// StreamLikes streams one post's like entries. Runs independently of
// the feed stream, so counts may transiently disagree between the two.
func (h *Handler) StreamLikes(c *gin.Context) {
	postID := c.Param("id")
	if postID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "post id is required"})
		return
	}

	flusher, ok := sseSetup(c)
	if !ok {
		return
	}

	sub, err := h.sub.Likes(c.Request.Context(), postID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "failed to subscribe to likes"})
		return
	}
	defer sub.Stop()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case d, open := <-sub.C:
			if !open {
				return
			}
			if d.Err != nil {
				sseEvent(c, flusher, "error", gin.H{"error": "like subscription failed, reload to retry"})
				return
			}
			sseEvent(c, flusher, "likes", gin.H{"likes": d.Likes, "count": len(d.Likes)})
		}
	}
}

func sseSetup(c *gin.Context) (http.Flusher, bool) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "streaming unsupported"})
		return nil, false
	}
	return flusher, true
}

func sseEvent(c *gin.Context, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
