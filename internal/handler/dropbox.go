package handler

import (
	"net/http"

	"github.com/tripdesk/tripdesk-go/internal/dropbox"
)

// DropboxHandler serves the token diagnostics endpoint.
type DropboxHandler struct {
	tokens *dropbox.TokenManager
}

func NewDropboxHandler(tokens *dropbox.TokenManager) *DropboxHandler {
	return &DropboxHandler{tokens: tokens}
}

// HandleStatus handles GET /api/dropbox/status.
func (h *DropboxHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if h.tokens == nil {
		writeJSON(w, http.StatusOK, dropbox.Info{})
		return
	}
	writeJSON(w, http.StatusOK, h.tokens.Info())
}
