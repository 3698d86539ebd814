// Package upload delegates image bytes to an external hosting API and
// hands back the public URL used as a field value in post mutations.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/socialclone/go-social-backend/internal/platform/logging"
)

var (
	// ErrMisconfigured means the hosting credential is unset. Treated
	// as a hard configuration error, never a silent no-op.
	ErrMisconfigured = errors.New("upload: hosting API key is not configured")
	// ErrTooLarge rejects files over the size limit before any network call.
	ErrTooLarge = errors.New("upload: file exceeds the maximum size")
	// ErrUnsupportedType rejects MIME types outside the allow-list
	// before any network call.
	ErrUnsupportedType = errors.New("upload: unsupported file type")
	// ErrUploadFailed wraps a rejected or failed hosting call. Not
	// retried automatically.
	ErrUploadFailed = errors.New("upload: image host rejected the upload")
)

const uploadTimeout = 30 * time.Second

// allowedTypes is the image MIME allow-list, matching what the feed
// can render.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Gateway is the ImgBB-shaped hosting client: one multipart POST, a
// JSON response with a success flag and a nested URL.
type Gateway struct {
	apiKey     string
	endpoint   string
	maxBytes   int64
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewGateway(apiKey, endpoint string, maxSizeMB, ratePerMin int) *Gateway {
	if maxSizeMB <= 0 {
		maxSizeMB = 5
	}
	if ratePerMin <= 0 {
		ratePerMin = 30
	}
	return &Gateway{
		apiKey:   apiKey,
		endpoint: endpoint,
		maxBytes: int64(maxSizeMB) * 1024 * 1024,
		httpClient: &http.Client{
			Timeout: uploadTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMin)), ratePerMin),
	}
}

// MaxBytes is the local size limit, exposed so the HTTP layer can cap
// its multipart reader at the same bound.
func (g *Gateway) MaxBytes() int64 { return g.maxBytes }

// Upload validates locally, then transmits the image and returns its
// public URL. Validation failures never reach the network.
func (g *Gateway) Upload(ctx context.Context, filename, declaredType string, data []byte) (string, error) {
	if g.apiKey == "" {
		return "", ErrMisconfigured
	}
	if int64(len(data)) > g.maxBytes {
		return "", fmt.Errorf("%w (%d bytes, limit %d)", ErrTooLarge, len(data), g.maxBytes)
	}

	contentType := declaredType
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !allowedTypes[contentType] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}

	reqURL := g.endpoint + "?key=" + url.QueryEscape(g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	logger := logging.NewLogger(ctx)
	resp, err := g.httpClient.Do(req)
	if err != nil {
		logger.LogError("upload_image", err)
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	var parsed struct {
		Success bool `json:"success"`
		Data    struct {
			URL string `json:"url"`
		} `json:"data"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		logger.LogWarnf("upload_image", "host returned status %d with unreadable body", resp.StatusCode)
		return "", fmt.Errorf("%w: status %d", ErrUploadFailed, resp.StatusCode)
	}

	if resp.StatusCode >= 400 || !parsed.Success || parsed.Data.URL == "" {
		msg := parsed.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		logger.LogWarnf("upload_image", "host rejected upload: %s", msg)
		return "", fmt.Errorf("%w: %s", ErrUploadFailed, msg)
	}

	return parsed.Data.URL, nil
}
