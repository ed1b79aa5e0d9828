package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tripdesk/tripdesk-go/internal/itinerary"
	"github.com/tripdesk/tripdesk-go/internal/middleware"
	"github.com/tripdesk/tripdesk-go/internal/model"
	"github.com/tripdesk/tripdesk-go/internal/retry"
)

// ItineraryService is the engine surface the handlers consume.
type ItineraryService interface {
	List(ctx context.Context, includeHidden bool) ([]model.DayListing, error)
	Insert(ctx context.Context, day int, a model.Activity) (itinerary.InsertResult, error)
	Update(ctx context.Context, day int, key model.MatchKey, updated model.Activity) error
	SetVisibility(ctx context.Context, day int, key model.MatchKey, visible bool) error
	Delete(ctx context.Context, day int, key model.MatchKey) (itinerary.DeleteResult, error)
	Move(ctx context.Context, srcDay, dstDay int, key model.MatchKey, fields model.Activity) error
}

// ItineraryHandler handles the /api/itinerary endpoints.
type ItineraryHandler struct {
	service ItineraryService
}

func NewItineraryHandler(svc ItineraryService) *ItineraryHandler {
	return &ItineraryHandler{service: svc}
}

// HandleList handles GET /api/itinerary. Roles without edit permission
// never see rows whose visibility flag is off.
func (h *ItineraryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	role, _ := middleware.RoleFromContext(r.Context())
	includeHidden := middleware.HasPermission(role, "edit")

	days, err := h.service.List(r.Context(), includeHidden)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

// HandleAdd handles POST /api/itinerary/add.
func (h *ItineraryHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req model.AddActivityRequest
	if !decodeBody(w, r, 1<<20, &req) {
		return
	}
	if missing := requireFields(map[string]string{"time": req.Time, "activity": req.Activity}); missing != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse(missing+" is required"))
		return
	}

	res, err := h.service.Insert(r.Context(), req.Day, model.Activity{
		Time:     req.Time,
		Activity: req.Activity,
		Notes:    req.Notes,
		Cost:     req.Cost,
		Link:     req.Link,
		ImageURL: req.Image,
		Visible:  true,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	resp := map[string]any{
		"success":  true,
		"message":  "activity added",
		"day":      req.Day,
		"time":     req.Time,
		"activity": req.Activity,
		"range":    res.Range,
	}
	if res.Appended {
		resp["message"] = "activity added (appended unsorted: positioned insert failed)"
		resp["appended"] = true
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleUpdate handles PUT /api/itinerary/update.
func (h *ItineraryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateActivityRequest
	if !decodeBody(w, r, 1<<20, &req) {
		return
	}
	if missing := requireFields(map[string]string{
		"originalTime":     req.OriginalTime,
		"originalActivity": req.OriginalActivity,
		"time":             req.Time,
		"activity":         req.Activity,
	}); missing != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse(missing+" is required"))
		return
	}

	err := h.service.Update(r.Context(), req.Day,
		model.MatchKey{Time: req.OriginalTime, Activity: req.OriginalActivity},
		model.Activity{
			Time:     req.Time,
			Activity: req.Activity,
			Notes:    req.Notes,
			Cost:     req.Cost,
			Link:     req.Link,
			ImageURL: req.Image,
		})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "activity updated",
		"day":      req.Day,
		"time":     req.Time,
		"activity": req.Activity,
	})
}

// HandleVisibility handles PUT /api/itinerary/visibility.
func (h *ItineraryHandler) HandleVisibility(w http.ResponseWriter, r *http.Request) {
	var req model.VisibilityRequest
	if !decodeBody(w, r, 1<<20, &req) {
		return
	}
	if missing := requireFields(map[string]string{"time": req.Time, "activity": req.Activity}); missing != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse(missing+" is required"))
		return
	}

	err := h.service.SetVisibility(r.Context(), req.Day,
		model.MatchKey{Time: req.Time, Activity: req.Activity}, req.Visible)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "visibility updated",
		"day":      req.Day,
		"time":     req.Time,
		"activity": req.Activity,
		"visible":  req.Visible,
	})
}

// HandleDelete handles DELETE /api/itinerary/delete. A degraded delete
// (row blanked in place because the hard delete failed) still reports
// success, with a note.
func (h *ItineraryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	var req model.DeleteActivityRequest
	if !decodeBody(w, r, 1<<20, &req) {
		return
	}
	if missing := requireFields(map[string]string{"time": req.Time, "activity": req.Activity}); missing != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse(missing+" is required"))
		return
	}

	res, err := h.service.Delete(r.Context(), req.Day,
		model.MatchKey{Time: req.Time, Activity: req.Activity})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	resp := map[string]any{
		"success":  true,
		"message":  "activity deleted",
		"day":      req.Day,
		"time":     req.Time,
		"activity": req.Activity,
	}
	if res.Cleared {
		resp["message"] = "activity cleared in place: hard delete failed, row left blank"
		resp["cleared"] = true
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleMove handles POST /api/itinerary/move.
func (h *ItineraryHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	var req model.MoveActivityRequest
	if !decodeBody(w, r, 1<<20, &req) {
		return
	}
	if missing := requireFields(map[string]string{"time": req.Time, "activity": req.Activity}); missing != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse(missing+" is required"))
		return
	}

	err := h.service.Move(r.Context(), req.SourceDay, req.TargetDay,
		model.MatchKey{Time: req.Time, Activity: req.Activity},
		model.Activity{Notes: req.Notes, Cost: req.Cost, Link: req.Link})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "activity moved",
		"sourceDay":  req.SourceDay,
		"targetDay":  req.TargetDay,
		"targetDate": req.TargetDate,
		"time":       req.Time,
		"activity":   req.Activity,
	})
}

// writeEngineError maps engine failures onto the HTTP surface:
// validation 400, unmatched rows 404, exhausted quota retries 429,
// partial moves and everything else 500 (partial moves with a
// distinct payload, since they leave duplicated data behind).
func writeEngineError(w http.ResponseWriter, err error) {
	var verr *itinerary.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse(verr.Error()))
		return
	}
	if errors.Is(err, itinerary.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
		return
	}
	var pmerr *itinerary.PartialMoveError
	if errors.As(err, &pmerr) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":      pmerr.Error(),
			"duplicated": true,
			"sourceDay":  pmerr.SourceDay,
			"targetDay":  pmerr.TargetDay,
		})
		return
	}
	if errors.Is(err, retry.ErrRateLimited) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse("spreadsheet quota exceeded, retry later"))
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse(err.Error()))
}

func requireFields(fields map[string]string) string {
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			return name
		}
	}
	return ""
}
