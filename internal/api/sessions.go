package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
	"github.com/robert-malhotra/scene-browser/internal/mapview"
	"github.com/robert-malhotra/scene-browser/internal/roi"
	"github.com/robert-malhotra/scene-browser/internal/session"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// SessionResponse is returned by every session endpoint that changes state.
type SessionResponse struct {
	ID       string           `json:"id"`
	Viewport roi.Viewport     `json:"viewport"`
	State    session.Snapshot `json:"state"`
}

type pageRequest struct {
	Page int `json:"page"`
}

type sceneRequest struct {
	SceneUID string `json:"scene_uid"`
}

type roiRequest struct {
	ROI    *catalog.BBox `json:"roi_bbox"`
	Origin string        `json:"origin"`
}

type editModeRequest struct {
	Enabled bool `json:"enabled"`
}

// CreateSession starts a session and runs its initial search.
// POST /api/sessions
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Create(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to create session",
			slog.String("request_id", GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, "failed to create session")
		return
	}

	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	WriteJSON(w, http.StatusCreated, sessionResponse(sess, sess.Controller.Snapshot()))
}

// GetSession returns the current state of a session.
// GET /api/sessions/{sessionId}
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, sessionResponse(sess, sess.Controller.Snapshot()))
}

// DeleteSession closes a session.
// DELETE /api/sessions/{sessionId}
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "sessionId")); err != nil {
		writeSessionLookupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetFilters merges a filter patch into the session query. It does not search.
// PATCH /api/sessions/{sessionId}/filters
func (h *Handlers) SetFilters(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var patch session.FilterPatch
	if err := decodeBody(w, r, &patch); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, sessionResponse(sess, sess.Controller.SetFilters(patch)))
}

// RunSearch searches page 1 with the session filters.
// POST /api/sessions/{sessionId}/search
func (h *Handlers) RunSearch(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	snap, err := sess.Controller.RunSearch(r.Context())
	h.writeSearchOutcome(w, r, sess, snap, err)
}

// ChangePage fetches another page of the session query.
// POST /api/sessions/{sessionId}/page
func (h *Handlers) ChangePage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req pageRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if req.Page < 1 {
		WriteInvalidParameter(w, "page must be a positive integer")
		return
	}

	snap, err := sess.Controller.ChangePage(r.Context(), req.Page)
	h.writeSearchOutcome(w, r, sess, snap, err)
}

// Select sets the selected scene. An empty uid clears the selection.
// POST /api/sessions/{sessionId}/select
func (h *Handlers) Select(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req sceneRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, sessionResponse(sess, sess.Controller.Select(req.SceneUID)))
}

// Hover sets the hovered scene. An empty uid clears the hover.
// POST /api/sessions/{sessionId}/hover
func (h *Handlers) Hover(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req sceneRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, sessionResponse(sess, sess.Controller.Hover(req.SceneUID)))
}

// SetRoi replaces the session ROI.
// PUT /api/sessions/{sessionId}/roi
func (h *Handlers) SetRoi(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req roiRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if req.ROI == nil {
		WriteInvalidParameter(w, "roi_bbox is required")
		return
	}

	var origin session.Origin
	switch req.Origin {
	case "", "manual":
		origin = session.OriginManual
	case "drag":
		origin = session.OriginDrag
	default:
		WriteInvalidParameter(w, fmt.Sprintf("unknown origin %q, expected manual or drag", req.Origin))
		return
	}

	snap, err := sess.Controller.SetRoiBBox(r.Context(), *req.ROI, origin)
	h.writeSearchOutcome(w, r, sess, snap, err)
}

// ResetRoi restores the default ROI.
// POST /api/sessions/{sessionId}/roi/reset
func (h *Handlers) ResetRoi(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, sessionResponse(sess, sess.Controller.ResetRoi()))
}

// SetRoiEditMode enters or leaves ROI edit mode.
// PUT /api/sessions/{sessionId}/roi/edit-mode
func (h *Handlers) SetRoiEditMode(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req editModeRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, sessionResponse(sess, sess.Controller.SetRoiEditMode(req.Enabled)))
}

// ToggleRoiEditMode flips ROI edit mode.
// POST /api/sessions/{sessionId}/roi/edit-mode/toggle
func (h *Handlers) ToggleRoiEditMode(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, sessionResponse(sess, sess.Controller.ToggleRoiEditMode()))
}

// SetViewport replaces the map viewport used to unproject drags.
// PUT /api/sessions/{sessionId}/viewport
func (h *Handlers) SetViewport(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var vp roi.Viewport
	if err := decodeBody(w, r, &vp); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if err := sess.SetViewport(vp); err != nil {
		WriteInvalidParameter(w, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, sessionResponse(sess, sess.Controller.Snapshot()))
}

// Pointer feeds one map pointer event through the ROI drag gesture.
// POST /api/sessions/{sessionId}/roi/pointer
func (h *Handlers) Pointer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var ev session.PointerEvent
	if err := decodeBody(w, r, &ev); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	res, err := sess.HandlePointer(r.Context(), ev)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrSuperseded):
		WriteConflict(w, err.Error())
		return
	case res.ROI == nil:
		// Nothing was applied, so the event itself was rejected.
		WriteInvalidParameter(w, err.Error())
		return
	default:
		h.logSearchFailure(r, sess, err)
	}

	WriteJSON(w, http.StatusOK, res)
}

// MapView returns the layers the map must draw for the session state.
// GET /api/sessions/{sessionId}/map
func (h *Handlers) MapView(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	opacity := h.cfg.Session.Opacity
	if v := r.URL.Query().Get("opacity"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			WriteInvalidParameter(w, "opacity must be a number")
			return
		}
		opacity = parsed
	}

	WriteJSON(w, http.StatusOK, mapview.Build(sess.Controller.Snapshot(), opacity))
}

// session resolves the session named in the URL, writing the error response
// when it does not exist.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := h.sessions.Get(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeSessionLookupError(w, err)
		return nil, false
	}
	return sess, true
}

// writeSearchOutcome writes the state after a search. A failed search is
// recorded in the state and still answered with 200; only a superseded one
// is a conflict, because its result was discarded.
func (h *Handlers) writeSearchOutcome(w http.ResponseWriter, r *http.Request, sess *session.Session, snap session.Snapshot, err error) {
	if errors.Is(err, session.ErrSuperseded) {
		WriteConflict(w, err.Error())
		return
	}
	if err != nil {
		h.logSearchFailure(r, sess, err)
	}
	WriteJSON(w, http.StatusOK, sessionResponse(sess, snap))
}

func (h *Handlers) logSearchFailure(r *http.Request, sess *session.Session, err error) {
	h.logger.WarnContext(r.Context(), "session search failed",
		slog.String("request_id", GetRequestID(r.Context())),
		slog.String("session_id", sess.ID),
		slog.String("error", err.Error()),
	)
}

func writeSessionLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionExpired):
		WriteGone(w, err.Error())
	case errors.Is(err, session.ErrSessionNotFound):
		WriteNotFound(w, err.Error())
	default:
		WriteInternalError(w, err.Error())
	}
}

func sessionResponse(sess *session.Session, snap session.Snapshot) SessionResponse {
	return SessionResponse{
		ID:       sess.ID,
		Viewport: sess.Viewport(),
		State:    snap,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
