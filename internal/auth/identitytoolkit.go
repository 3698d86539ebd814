package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/socialclone/go-social-backend/internal/auth/domain"
	"github.com/socialclone/go-social-backend/internal/platform/logging"
)

const (
	defaultIdentityBaseURL = "https://identitytoolkit.googleapis.com/v1"
	defaultTokenBaseURL    = "https://securetoken.googleapis.com/v1"

	identityCallTimeout = 10 * time.Second
)

// IdentityClient talks to the provider's password-auth REST surface.
// The Admin SDK cannot verify passwords, so sign-in, sign-up, token
// refresh and profile updates go through these endpoints.
type IdentityClient struct {
	apiKey     string
	baseURL    string
	tokenURL   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewIdentityClient(apiKey string) *IdentityClient {
	return &IdentityClient{
		apiKey:   apiKey,
		baseURL:  defaultIdentityBaseURL,
		tokenURL: defaultTokenBaseURL,
		httpClient: &http.Client{
			Timeout: identityCallTimeout,
		},
		// The provider throttles credential endpoints aggressively;
		// staying under it locally avoids surfacing rate_limited to
		// users for our own bursts.
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// NewIdentityClientForBase is used by tests to point at a stub server.
func NewIdentityClientForBase(apiKey, baseURL, tokenURL string) *IdentityClient {
	c := NewIdentityClient(apiKey)
	c.baseURL = baseURL
	c.tokenURL = tokenURL
	return c
}

// TokenResult is the provider's token grant for one account.
type TokenResult struct {
	UID          string
	Email        string
	DisplayName  string
	PhotoURL     string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

type identityResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// SignUp registers a new email/password account.
func (c *IdentityClient) SignUp(ctx context.Context, email, password string) (*TokenResult, error) {
	body := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	var resp identityResponse
	if err := c.post(ctx, "sign_up", c.baseURL+"/accounts:signUp", body, &resp); err != nil {
		return nil, err
	}
	return resp.toResult(time.Now()), nil
}

// SignIn verifies an email/password pair.
func (c *IdentityClient) SignIn(ctx context.Context, email, password string) (*TokenResult, error) {
	body := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	var resp identityResponse
	if err := c.post(ctx, "sign_in", c.baseURL+"/accounts:signInWithPassword", body, &resp); err != nil {
		return nil, err
	}
	return resp.toResult(time.Now()), nil
}

// UpdateProfile sets display name and/or photo URL on the account the
// ID token belongs to. Empty fields are left untouched.
func (c *IdentityClient) UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (*TokenResult, error) {
	body := map[string]any{
		"idToken":           idToken,
		"returnSecureToken": false,
	}
	if displayName != "" {
		body["displayName"] = displayName
	}
	if photoURL != "" {
		body["photoUrl"] = photoURL
	}
	var resp identityResponse
	if err := c.post(ctx, "update_profile", c.baseURL+"/accounts:update", body, &resp); err != nil {
		return nil, err
	}
	return resp.toResult(time.Now()), nil
}

// Lookup fetches the account record for an ID token.
func (c *IdentityClient) Lookup(ctx context.Context, idToken string) (*domain.User, error) {
	body := map[string]any{"idToken": idToken}
	var resp struct {
		Users []struct {
			LocalID     string `json:"localId"`
			Email       string `json:"email"`
			DisplayName string `json:"displayName"`
			PhotoURL    string `json:"photoUrl"`
			CreatedAt   string `json:"createdAt"` // unix ms, as string
		} `json:"users"`
	}
	if err := c.post(ctx, "lookup", c.baseURL+"/accounts:lookup", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, &domain.ProviderError{Kind: domain.KindInvalidCredentials, Code: "USER_NOT_FOUND"}
	}
	u := resp.Users[0]
	user := &domain.User{
		UID:         u.LocalID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
	}
	if ms, err := strconv.ParseInt(u.CreatedAt, 10, 64); err == nil {
		user.CreatedAt = time.UnixMilli(ms)
	}
	return user, nil
}

// Refresh exchanges a refresh token for a fresh ID token.
func (c *IdentityClient) Refresh(ctx context.Context, refreshToken string) (*TokenResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	reqURL := c.tokenURL + "/token?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		logging.NewLogger(ctx).LogError("refresh_token", err)
		return nil, fmt.Errorf("token endpoint: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 400 {
		return nil, decodeProviderError(httpResp)
	}

	var resp struct {
		UserID       string `json:"user_id"`
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	result := &TokenResult{
		UID:          resp.UserID,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}
	if secs, err := strconv.Atoi(resp.ExpiresIn); err == nil {
		result.ExpiresAt = time.Now().Add(time.Duration(secs) * time.Second)
	}
	return result, nil
}

func (c *IdentityClient) post(ctx context.Context, operation, endpoint string, body any, out any) error {
	logger := logging.NewLogger(ctx)

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	reqURL := endpoint + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.LogError(operation, err)
		return fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		perr := decodeProviderError(resp)
		logger.LogWarnf(operation, "provider returned %v", perr)
		return perr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (r *identityResponse) toResult(now time.Time) *TokenResult {
	result := &TokenResult{
		UID:          r.LocalID,
		Email:        r.Email,
		DisplayName:  r.DisplayName,
		PhotoURL:     r.PhotoURL,
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
	}
	if secs, err := strconv.Atoi(r.ExpiresIn); err == nil {
		result.ExpiresAt = now.Add(time.Duration(secs) * time.Second)
	}
	return result
}

// decodeProviderError maps the provider's error codes onto the
// user-facing taxonomy. Codes sometimes arrive with a trailing
// explanation ("WEAK_PASSWORD : ..."), so match on the prefix.
func decodeProviderError(resp *http.Response) error {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	code := strings.TrimSpace(body.Error.Message)
	if code == "" {
		code = fmt.Sprintf("HTTP_%d", resp.StatusCode)
	}

	kind := domain.KindProviderFailure
	switch {
	case hasCode(code, "EMAIL_NOT_FOUND"), hasCode(code, "INVALID_PASSWORD"), hasCode(code, "INVALID_LOGIN_CREDENTIALS"):
		kind = domain.KindInvalidCredentials
	case hasCode(code, "USER_DISABLED"):
		kind = domain.KindAccountDisabled
	case hasCode(code, "TOO_MANY_ATTEMPTS_TRY_LATER"):
		kind = domain.KindRateLimited
	case hasCode(code, "EMAIL_EXISTS"):
		kind = domain.KindEmailExists
	case hasCode(code, "WEAK_PASSWORD"):
		kind = domain.KindWeakPassword
	case hasCode(code, "INVALID_EMAIL"), hasCode(code, "MISSING_EMAIL"):
		kind = domain.KindInvalidEmail
	}
	return &domain.ProviderError{Kind: kind, Code: code}
}

func hasCode(message, code string) bool {
	return message == code || strings.HasPrefix(message, code+" ") || strings.HasPrefix(message, code+":")
}
