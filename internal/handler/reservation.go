package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tripdesk/tripdesk-go/internal/model"
	"github.com/tripdesk/tripdesk-go/internal/reservation"
)

// ReservationHandler handles the /api/reservations endpoints.
type ReservationHandler struct {
	service *reservation.Service
}

func NewReservationHandler(svc *reservation.Service) *ReservationHandler {
	return &ReservationHandler{service: svc}
}

// HandleList handles GET /api/reservations with optional date, range,
// or venue filters.
func (h *ReservationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.service.List(r.Context(), q.Get("date"), q.Get("start"), q.Get("end"), q.Get("venue"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": list})
}

// HandleCreate handles POST /api/reservations.
func (h *ReservationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req model.Reservation
	if !decodeBody(w, r, 1<<20, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeReservationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleUpdate handles PUT /api/reservations/{id}.
func (h *ReservationHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := reservationID(w, r)
	if !ok {
		return
	}
	var req model.Reservation
	if !decodeBody(w, r, 1<<20, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeReservationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /api/reservations/{id}.
func (h *ReservationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := reservationID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeReservationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStats handles GET /api/reservations/stats.
func (h *ReservationHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func reservationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid reservation id"))
		return 0, false
	}
	return id, true
}

func writeReservationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reservation.ErrDateRequired),
		errors.Is(err, reservation.ErrTimeRequired),
		errors.Is(err, reservation.ErrActivityRequired):
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, reservation.ErrReservationNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
	}
}
