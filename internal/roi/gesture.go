// Package roi implements the drag-to-rectangle protocol used to draw a region
// of interest on the map, and the pixel projection it relies on.
package roi

import (
	"math"
	"sync"

	"github.com/paulmach/orb"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
)

// DeadZone is the minimum drag extent, in pixels on each axis, for a gesture
// to count as a rectangle rather than a click.
const DeadZone = 5.0

// Button identifies a pointer button. Only ButtonPrimary starts a drag.
type Button int

const (
	ButtonPrimary   Button = 0
	ButtonMiddle    Button = 1
	ButtonSecondary Button = 2
)

// Point is a position in map pixel space, origin at the top-left corner.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned pixel rectangle.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// RectBetween returns the rectangle spanned by two arbitrary corners.
func RectBetween(a, b Point) Rect {
	return Rect{
		Min: Point{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)},
		Max: Point{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)},
	}
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Projector converts map pixels to geographic coordinates (lon, lat).
type Projector interface {
	Unproject(p Point) orb.Point
}

// Surface is the part of the map view the gesture drives: native panning and
// the visual feedback rectangle.
type Surface interface {
	SetPanEnabled(enabled bool)
	ShowBox(r Rect)
	HideBox()
}

// State is the gesture state.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Gesture is the Idle -> Dragging -> Idle state machine. It is only armed
// while ROI edit mode is on, and it owns its drag state privately; the only
// output is the rectangle returned by PointerUp.
type Gesture struct {
	mu       sync.Mutex
	proj     Projector
	surface  Surface
	editMode bool
	state    State
	start    Point
	current  Point
}

// NewGesture creates an idle gesture. A nil surface disables visual feedback.
func NewGesture(proj Projector, surface Surface) *Gesture {
	if surface == nil {
		surface = nopSurface{}
	}
	return &Gesture{
		proj:    proj,
		surface: surface,
	}
}

// SetProjector replaces the projector, e.g. after the viewport moved.
func (g *Gesture) SetProjector(proj Projector) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.proj = proj
}

// SetEditMode arms or disarms the gesture. Leaving edit mode while dragging
// cancels the drag without emitting a rectangle, and panning is always
// re-enabled on exit.
func (g *Gesture) SetEditMode(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.editMode = on
	if on {
		return
	}
	if g.state == Dragging {
		g.resetLocked()
		return
	}
	g.surface.SetPanEnabled(true)
}

// EditMode reports whether the gesture is armed.
func (g *Gesture) EditMode() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.editMode
}

// State returns the current gesture state.
func (g *Gesture) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// PointerDown starts a drag on a primary-button press while edit mode is on.
// It reports whether the event was consumed; a consumed press must not reach
// the map's own drag handling.
func (g *Gesture) PointerDown(p Point, button Button) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.editMode || button != ButtonPrimary {
		return false
	}

	g.state = Dragging
	g.start = p
	g.current = p
	g.surface.ShowBox(Rect{Min: p, Max: p})
	g.surface.SetPanEnabled(false)
	return true
}

// PointerMove updates the feedback rectangle during a drag.
func (g *Gesture) PointerMove(p Point) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Dragging {
		return
	}
	g.current = p
	g.surface.ShowBox(RectBetween(g.start, p))
}

// PointerUp ends a drag. It returns the geographic rectangle spanned by the
// drag, rounded to 6 decimals, and true; or false when no drag was in
// progress or the drag was smaller than DeadZone on either axis.
func (g *Gesture) PointerUp(p Point) (catalog.BBox, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Dragging {
		return catalog.BBox{}, false
	}

	start := g.start
	g.resetLocked()

	if math.Abs(p.X-start.X) < DeadZone || math.Abs(p.Y-start.Y) < DeadZone {
		return catalog.BBox{}, false
	}
	if g.proj == nil {
		return catalog.BBox{}, false
	}

	r := RectBetween(start, p)
	sw := g.proj.Unproject(Point{X: r.Min.X, Y: r.Max.Y})
	ne := g.proj.Unproject(Point{X: r.Max.X, Y: r.Min.Y})

	return catalog.NewBBox(
		Round6(sw.Lon()),
		Round6(sw.Lat()),
		Round6(ne.Lon()),
		Round6(ne.Lat()),
	), true
}

// Cancel abandons an in-progress drag without emitting a rectangle.
func (g *Gesture) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Dragging {
		g.resetLocked()
	}
}

// Box returns the feedback rectangle of the current drag.
func (g *Gesture) Box() (Rect, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Dragging {
		return Rect{}, false
	}
	return RectBetween(g.start, g.current), true
}

func (g *Gesture) resetLocked() {
	g.state = Idle
	g.start = Point{}
	g.current = Point{}
	g.surface.HideBox()
	g.surface.SetPanEnabled(true)
}

// Round6 rounds a coordinate to 6 decimal places.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

type nopSurface struct{}

func (nopSurface) SetPanEnabled(bool) {}
func (nopSurface) ShowBox(Rect)       {}
func (nopSurface) HideBox()           {}
