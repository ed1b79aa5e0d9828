package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tripdesk/tripdesk-go/internal/dropbox"
)

const (
	defaultContentURL = "https://content.dropboxapi.com"
	defaultAPIURL     = "https://api.dropboxapi.com"
)

// Dropbox stores images in a Dropbox app folder and exposes them
// through shared links rewritten to direct-access form.
type Dropbox struct {
	tokens     *dropbox.TokenManager
	client     *http.Client
	contentURL string
	apiURL     string
}

func NewDropbox(tokens *dropbox.TokenManager) *Dropbox {
	return &Dropbox{
		tokens:     tokens,
		client:     &http.Client{Timeout: 30 * time.Second},
		contentURL: defaultContentURL,
		apiURL:     defaultAPIURL,
	}
}

func (d *Dropbox) Upload(ctx context.Context, data []byte, filename string) (UploadResult, error) {
	token, err := d.tokens.AccessToken(ctx)
	if err != nil {
		return UploadResult{}, err
	}

	publicID := newPublicID()
	path := fmt.Sprintf("/%s/%s%s", Folder, publicID, extension(filename))

	if err := d.uploadFile(ctx, token, path, data); err != nil {
		return UploadResult{}, err
	}
	link, err := d.sharedLink(ctx, token, path)
	if err != nil {
		return UploadResult{}, err
	}

	return UploadResult{
		ImageURL: directURL(link),
		PublicID: publicID,
		Provider: "dropbox",
	}, nil
}

func (d *Dropbox) uploadFile(ctx context.Context, token, path string, data []byte) error {
	arg, _ := json.Marshal(map[string]any{
		"path":       path,
		"mode":       "add",
		"autorename": true,
		"mute":       true,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.contentURL+"/2/files/upload", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Dropbox-API-Arg", string(arg))
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("dropbox upload failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("dropbox upload failed: status %d: %s", resp.StatusCode, body)
	}
	return nil
}

func (d *Dropbox) sharedLink(ctx context.Context, token, path string) (string, error) {
	body, _ := json.Marshal(map[string]any{"path": path})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.apiURL+"/2/sharing/create_shared_link_with_settings", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("dropbox shared link failed: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("dropbox shared link failed: status %d: %s", resp.StatusCode, raw)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("dropbox shared link: invalid JSON: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("dropbox shared link: empty url in response")
	}
	return out.URL, nil
}

// directURL rewrites a Dropbox share link into a form browsers can
// embed: dl=0 becomes raw=1 so the image is served, not previewed.
func directURL(link string) string {
	if strings.Contains(link, "?dl=0") {
		return strings.Replace(link, "?dl=0", "?raw=1", 1)
	}
	if strings.Contains(link, "?") {
		return link + "&raw=1"
	}
	return link + "?raw=1"
}

// Delete acknowledges without deleting; see Cloudinary.Delete.
func (d *Dropbox) Delete(_ context.Context, publicID string) error {
	slog.Warn("image delete is a no-op", "provider", "dropbox", "publicId", publicID)
	return nil
}
