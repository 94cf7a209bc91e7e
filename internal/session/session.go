package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
	"github.com/robert-malhotra/scene-browser/internal/roi"
)

// Pointer event types accepted by HandlePointer.
const (
	PointerDown   = "down"
	PointerMove   = "move"
	PointerUp     = "up"
	PointerCancel = "cancel"
)

// PointerEvent is a raw pointer event from the map view, in map pixels.
type PointerEvent struct {
	Type   string     `json:"type"`
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
	Button roi.Button `json:"button"`
	// Viewport, when set, replaces the session viewport before the event is
	// handled so the drag is unprojected against what the user sees.
	Viewport *roi.Viewport `json:"viewport,omitempty"`
}

// SurfaceState is what the map view must show while a gesture runs.
type SurfaceState struct {
	PanEnabled bool      `json:"pan_enabled"`
	Box        *roi.Rect `json:"box,omitempty"`
}

// PointerResult reports the outcome of one pointer event.
type PointerResult struct {
	// Consumed is true when the map must not apply its own handling.
	Consumed bool         `json:"consumed"`
	Gesture  string       `json:"gesture"`
	Surface  SurfaceState `json:"surface"`
	// ROI is set when the event completed a drag.
	ROI      *catalog.BBox `json:"roi_bbox,omitempty"`
	Snapshot Snapshot      `json:"state"`
}

// Session bundles one controller with the ROI gesture and viewport of the
// map that drives it. Sessions are never shared between clients.
type Session struct {
	ID         string
	Controller *Controller
	CreatedAt  time.Time

	gesture     *roi.Gesture
	surface     *surface
	unsubscribe func()

	mu       sync.Mutex
	viewport roi.Viewport

	// editMu orders edit mode updates to the gesture by snapshot version,
	// since subscribers can be notified out of order.
	editMu      sync.Mutex
	editVersion uint64
}

// New creates a session. The gesture follows the controller's ROI edit mode
// for the lifetime of the session.
func New(id string, c catalog.Catalog, opts Options, viewport roi.Viewport) *Session {
	ctrl := NewController(c, opts)
	surf := &surface{panEnabled: true}
	g := roi.NewGesture(viewport, surf)

	s := &Session{
		ID:         id,
		Controller: ctrl,
		CreatedAt:  time.Now(),
		gesture:    g,
		surface:    surf,
		viewport:   viewport,
	}
	s.unsubscribe = ctrl.Subscribe(s.syncEditMode)
	s.syncEditMode(ctrl.Snapshot())
	return s
}

// syncEditMode applies the snapshot's ROI edit mode to the gesture unless a
// newer snapshot has already been applied.
func (s *Session) syncEditMode(snap Snapshot) {
	s.editMu.Lock()
	defer s.editMu.Unlock()
	if snap.Version < s.editVersion {
		return
	}
	s.editVersion = snap.Version
	if s.gesture.EditMode() != snap.RoiEditMode {
		s.gesture.SetEditMode(snap.RoiEditMode)
	}
}

// Close detaches the gesture from the controller.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.gesture.Cancel()
}

// Viewport returns the current map viewport.
func (s *Session) Viewport() roi.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// SetViewport replaces the map viewport used to unproject drags.
func (s *Session) SetViewport(v roi.Viewport) error {
	if err := v.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.viewport = v
	s.mu.Unlock()
	s.gesture.SetProjector(v)
	return nil
}

// Gesture returns the state of the ROI drag gesture.
func (s *Session) Gesture() roi.State {
	return s.gesture.State()
}

// HandlePointer feeds one pointer event through the ROI gesture. A completed
// drag is applied with SetRoiBBox as a map-drag edit.
func (s *Session) HandlePointer(ctx context.Context, ev PointerEvent) (PointerResult, error) {
	if ev.Viewport != nil {
		if err := s.SetViewport(*ev.Viewport); err != nil {
			return PointerResult{}, fmt.Errorf("invalid viewport: %w", err)
		}
	}

	p := roi.Point{X: ev.X, Y: ev.Y}
	var (
		res PointerResult
		err error
	)

	switch ev.Type {
	case PointerDown:
		s.syncEditMode(s.Controller.Snapshot())
		res.Consumed = s.gesture.PointerDown(p, ev.Button)
	case PointerMove:
		res.Consumed = s.gesture.State() == roi.Dragging
		s.gesture.PointerMove(p)
	case PointerUp:
		res.Consumed = s.gesture.State() == roi.Dragging
		if bbox, ok := s.gesture.PointerUp(p); ok {
			res.ROI = &bbox
			res.Snapshot, err = s.Controller.SetRoiBBox(ctx, bbox, OriginDrag)
		}
	case PointerCancel:
		s.gesture.Cancel()
	default:
		return PointerResult{}, fmt.Errorf("unknown pointer event type %q", ev.Type)
	}

	res.Gesture = s.gesture.State().String()
	res.Surface = s.surface.state()
	if res.ROI == nil {
		res.Snapshot = s.Controller.Snapshot()
	}
	return res, err
}

// surface records what the gesture asks of the map view so it can be
// returned to the client with each pointer result.
type surface struct {
	mu         sync.Mutex
	panEnabled bool
	box        *roi.Rect
}

func (s *surface) SetPanEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panEnabled = enabled
}

func (s *surface) ShowBox(r roi.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.box = &r
}

func (s *surface) HideBox() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.box = nil
}

func (s *surface) state() SurfaceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := SurfaceState{PanEnabled: s.panEnabled}
	if s.box != nil {
		b := *s.box
		st.Box = &b
	}
	return st
}
