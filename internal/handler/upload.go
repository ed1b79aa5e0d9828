package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tripdesk/tripdesk-go/internal/storage"
)

const maxImageBytes = 10 << 20 // 10MB

// UploadHandler handles image upload and deletion.
type UploadHandler struct {
	store storage.ImageStore
}

func NewUploadHandler(store storage.ImageStore) *UploadHandler {
	return &UploadHandler{store: store}
}

// HandleUpload handles POST /api/upload-image: multipart form with an
// "image" part, image/* only, capped at 10MB.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("image storage not configured"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+(1<<20))
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid multipart form or file too large"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("image file is required"))
		return
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		writeJSON(w, http.StatusBadRequest, errorResponse("image exceeds 10MB limit"))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("failed to read upload"))
		return
	}
	if len(data) > maxImageBytes {
		writeJSON(w, http.StatusBadRequest, errorResponse("image exceeds 10MB limit"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		writeJSON(w, http.StatusBadRequest, errorResponse("only image uploads are allowed"))
		return
	}

	res, err := h.store.Upload(r.Context(), data, header.Filename)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"imageUrl":     res.ImageURL,
		"thumbnailUrl": res.ThumbnailURL,
		"publicId":     res.PublicID,
		"storageType":  res.Provider,
	})
}

// HandleDelete handles DELETE /api/upload-image/{public_id}. Both
// backends acknowledge without deleting; the response still reports
// success so the frontend flow is unchanged.
func (h *UploadHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("image storage not configured"))
		return
	}

	publicID := chi.URLParam(r, "public_id")
	if publicID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("public id is required"))
		return
	}

	if err := h.store.Delete(r.Context(), publicID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "publicId": publicID})
}
