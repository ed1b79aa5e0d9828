// Package dropbox manages the short-lived Dropbox access token used
// by the image storage backend. Dropbox tokens expire after a few
// hours; the manager refreshes lazily with a safety margin and
// collapses concurrent refresh attempts into one in-flight call.
package dropbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	defaultTokenURL = "https://api.dropboxapi.com/oauth2/token"

	// expiryMargin refreshes tokens that expire within the window, so a
	// token never dies mid-upload.
	expiryMargin = 5 * time.Minute
)

var ErrNoRefreshToken = errors.New("access token expired and no refresh token available")

// TokenManager holds the current access token and refreshes it on
// demand. Safe for concurrent use.
type TokenManager struct {
	appKey    string
	appSecret string
	tokenURL  string
	client    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiry       time.Time

	group singleflight.Group
	now   func() time.Time
}

func NewTokenManager(appKey, appSecret, accessToken, refreshToken string) *TokenManager {
	return &TokenManager{
		appKey:       appKey,
		appSecret:    appSecret,
		tokenURL:     defaultTokenURL,
		client:       &http.Client{Timeout: 15 * time.Second},
		accessToken:  accessToken,
		refreshToken: refreshToken,
		now:          time.Now,
	}
}

// SetTokenEndpoint overrides the OAuth token endpoint. Tests point it
// at a stub server.
func (m *TokenManager) SetTokenEndpoint(url string) { m.tokenURL = url }

// Configured reports whether uploads can even be attempted.
func (m *TokenManager) Configured() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessToken != "" && m.appKey != "" && m.appSecret != ""
}

// AccessToken returns a valid access token, refreshing first when the
// current one is expired or expiring soon. Concurrent callers during a
// refresh all wait on the same in-flight exchange.
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	token := m.accessToken
	needsRefresh := m.expiringSoonLocked()
	canRefresh := m.refreshToken != ""
	m.mu.Unlock()

	if !needsRefresh {
		return token, nil
	}
	if !canRefresh {
		return "", ErrNoRefreshToken
	}

	v, err, _ := m.group.Do("refresh", func() (any, error) {
		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// expiringSoonLocked treats an unknown expiry as expired: the token
// may have been minted long before this process started.
func (m *TokenManager) expiringSoonLocked() bool {
	if m.expiry.IsZero() {
		return true
	}
	return !m.expiry.After(m.now().Add(expiryMargin))
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func (m *TokenManager) refresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {m.refreshToken},
		"client_id":     {m.appKey},
		"client_secret": {m.appSecret},
	}
	m.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token refresh request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token refresh failed: status %d: %s", resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("token refresh: invalid JSON response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", errors.New("token refresh: no access token in response")
	}

	m.mu.Lock()
	m.accessToken = tr.AccessToken
	if tr.RefreshToken != "" {
		m.refreshToken = tr.RefreshToken
	}
	m.expiry = m.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	m.mu.Unlock()

	return tr.AccessToken, nil
}

// Info is the diagnostic snapshot served by the status endpoint.
type Info struct {
	HasAccessToken  bool   `json:"hasAccessToken"`
	HasRefreshToken bool   `json:"hasRefreshToken"`
	Configured      bool   `json:"configured"`
	Expired         bool   `json:"expired"`
	ExpiryTime      string `json:"expiryTime,omitempty"`
}

func (m *TokenManager) Info() Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	info := Info{
		HasAccessToken:  m.accessToken != "",
		HasRefreshToken: m.refreshToken != "",
		Configured:      m.accessToken != "" && m.appKey != "" && m.appSecret != "",
		Expired:         m.expiringSoonLocked(),
	}
	if !m.expiry.IsZero() {
		info.ExpiryTime = m.expiry.UTC().Format(time.RFC3339)
	}
	return info
}
