package handler

import (
	"errors"
	"net/http"

	"github.com/tripdesk/tripdesk-go/internal/flight"
)

// FlightHandler handles GET /api/flight-status.
type FlightHandler struct {
	client *flight.Client
}

func NewFlightHandler(client *flight.Client) *FlightHandler {
	return &FlightHandler{client: client}
}

func (h *FlightHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	flightNumber := r.URL.Query().Get("flightNumber")
	if flightNumber == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("flightNumber is required"))
		return
	}
	date := r.URL.Query().Get("date")

	flights, err := h.client.Status(r.Context(), flightNumber, date)
	if err != nil {
		if errors.Is(err, flight.ErrNotConfigured) {
			writeJSON(w, http.StatusInternalServerError, errorResponse(err.Error()))
			return
		}
		var uerr *flight.UpstreamError
		if errors.As(err, &uerr) {
			writeJSON(w, http.StatusInternalServerError, errorResponse(uerr.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"flights": flights})
}
