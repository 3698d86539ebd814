package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewPushKey generates a store-assigned child key. Keys sort
// lexicographically in creation order (millisecond prefix), which the
// projection relies on as the tie-break for identical timestamps.
func NewPushKey(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return fmt.Sprintf("%013d-%s", now.UnixMilli(), suffix)
}
