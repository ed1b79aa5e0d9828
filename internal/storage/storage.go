// Package storage uploads activity images to an external host and
// hands back public direct-access URLs.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Folder groups all trip uploads on the remote host.
const Folder = "trip-images"

// UploadResult is the public result of a successful image upload.
type UploadResult struct {
	ImageURL     string `json:"imageUrl"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	PublicID     string `json:"publicId"`
	Provider     string `json:"storageType"`
}

// ImageStore is a provider-neutral handle to an image host.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, filename string) (UploadResult, error)

	// Delete removes a previously uploaded image. Both current backends
	// acknowledge without deleting; see the provider implementations.
	Delete(ctx context.Context, publicID string) error
}

// newPublicID generates a collision-free ID in the upload folder,
// keeping the original's <timestamp>_<random> shape.
func newPublicID() string {
	return fmt.Sprintf("%d_%s", time.Now().Unix(), uuid.NewString()[:13])
}

func extension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return ext
}
