package roi

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
)

// linearProjector maps pixels to degrees: lon = x/100, lat = 40 - y/100.
type linearProjector struct{}

func (linearProjector) Unproject(p Point) orb.Point {
	return orb.Point{p.X / 100, 40 - p.Y/100}
}

type recordingSurface struct {
	panEnabled bool
	boxVisible bool
	lastBox    Rect
	shows      int
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{panEnabled: true}
}

func (s *recordingSurface) SetPanEnabled(enabled bool) { s.panEnabled = enabled }
func (s *recordingSurface) ShowBox(r Rect) {
	s.boxVisible = true
	s.lastBox = r
	s.shows++
}
func (s *recordingSurface) HideBox() { s.boxVisible = false }

func armedGesture() (*Gesture, *recordingSurface) {
	surface := newRecordingSurface()
	g := NewGesture(linearProjector{}, surface)
	g.SetEditMode(true)
	return g, surface
}

func TestGesture_DragEmitsRectangle(t *testing.T) {
	g, surface := armedGesture()

	if !g.PointerDown(Point{X: 300, Y: 200}, ButtonPrimary) {
		t.Fatal("expected primary press to be consumed")
	}
	if g.State() != Dragging {
		t.Fatalf("expected dragging, got %s", g.State())
	}
	if surface.panEnabled {
		t.Error("expected panning to be disabled during drag")
	}

	g.PointerMove(Point{X: 150, Y: 260})
	if !surface.boxVisible || surface.lastBox != (Rect{Min: Point{150, 200}, Max: Point{300, 260}}) {
		t.Errorf("unexpected feedback box: visible=%v box=%+v", surface.boxVisible, surface.lastBox)
	}

	bbox, ok := g.PointerUp(Point{X: 100, Y: 300})
	if !ok {
		t.Fatal("expected a rectangle to be emitted")
	}

	// SW = (minX, maxY) = (100, 300), NE = (maxX, minY) = (300, 200)
	want := catalog.NewBBox(1, 37, 3, 38)
	if bbox != want {
		t.Errorf("expected %v, got %v", want, bbox)
	}
	if g.State() != Idle {
		t.Errorf("expected idle after release, got %s", g.State())
	}
	if !surface.panEnabled || surface.boxVisible {
		t.Errorf("expected panning restored and box hidden, got pan=%v box=%v", surface.panEnabled, surface.boxVisible)
	}
}

func TestGesture_DeadZone(t *testing.T) {
	tests := []struct {
		name string
		from Point
		to   Point
	}{
		{"small in both axes", Point{100, 100}, Point{102, 101}},
		{"small in x only", Point{100, 100}, Point{102, 300}},
		{"small in y only", Point{100, 100}, Point{300, 104.9}},
		{"click", Point{100, 100}, Point{100, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, surface := armedGesture()
			g.PointerDown(tt.from, ButtonPrimary)

			if bbox, ok := g.PointerUp(tt.to); ok {
				t.Errorf("expected no rectangle, got %v", bbox)
			}
			if g.State() != Idle || !surface.panEnabled || surface.boxVisible {
				t.Errorf("expected gesture reset, got state=%s pan=%v box=%v", g.State(), surface.panEnabled, surface.boxVisible)
			}
		})
	}

	g, _ := armedGesture()
	g.PointerDown(Point{100, 100}, ButtonPrimary)
	if _, ok := g.PointerUp(Point{105, 105}); !ok {
		t.Error("expected a drag of exactly 5px on both axes to emit")
	}
}

func TestGesture_IgnoredWithoutEditMode(t *testing.T) {
	surface := newRecordingSurface()
	g := NewGesture(linearProjector{}, surface)

	if g.PointerDown(Point{0, 0}, ButtonPrimary) {
		t.Error("expected press to be ignored outside edit mode")
	}
	if _, ok := g.PointerUp(Point{200, 200}); ok {
		t.Error("expected no rectangle outside edit mode")
	}
	if surface.shows != 0 {
		t.Errorf("expected no feedback box, got %d shows", surface.shows)
	}
}

func TestGesture_IgnoresNonPrimaryButton(t *testing.T) {
	g, _ := armedGesture()

	if g.PointerDown(Point{0, 0}, ButtonSecondary) {
		t.Error("expected secondary press to be ignored")
	}
	if g.State() != Idle {
		t.Errorf("expected idle, got %s", g.State())
	}
}

func TestGesture_ExitEditModeCancelsDrag(t *testing.T) {
	g, surface := armedGesture()
	g.PointerDown(Point{10, 10}, ButtonPrimary)
	g.PointerMove(Point{200, 200})

	g.SetEditMode(false)

	if g.State() != Idle {
		t.Errorf("expected idle after leaving edit mode, got %s", g.State())
	}
	if !surface.panEnabled || surface.boxVisible {
		t.Errorf("expected panning restored and box hidden, got pan=%v box=%v", surface.panEnabled, surface.boxVisible)
	}
	if _, ok := g.PointerUp(Point{300, 300}); ok {
		t.Error("expected release after cancel to emit nothing")
	}
	if _, ok := g.Box(); ok {
		t.Error("expected no box after cancel")
	}
}

func TestGesture_RoundsToSixDecimals(t *testing.T) {
	g := NewGesture(projectorFunc(func(p Point) orb.Point {
		return orb.Point{p.X / 3, p.Y / 7}
	}), nil)
	g.SetEditMode(true)
	g.PointerDown(Point{10, 10}, ButtonPrimary)

	bbox, ok := g.PointerUp(Point{20, 20})
	if !ok {
		t.Fatal("expected rectangle")
	}
	want := catalog.NewBBox(3.333333, 2.857143, 6.666667, 1.428571)
	if bbox != want {
		t.Errorf("expected %v, got %v", want, bbox)
	}
}

func TestRound6(t *testing.T) {
	tests := map[float64]float64{
		127.12345649: 127.123456,
		127.1234567:  127.123457,
		-36.0000004:  -36.0,
		0:            0,
	}
	for in, want := range tests {
		if got := Round6(in); got != want {
			t.Errorf("Round6(%v) = %v, want %v", in, got, want)
		}
	}
}

type projectorFunc func(Point) orb.Point

func (f projectorFunc) Unproject(p Point) orb.Point { return f(p) }
