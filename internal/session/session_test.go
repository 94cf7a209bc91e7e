package session

import (
	"context"
	"sync"
	"testing"

	"github.com/paulmach/orb"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
	"github.com/robert-malhotra/scene-browser/internal/roi"
)

func newTestSession(t *testing.T, policy AutoSearchPolicy) *Session {
	t.Helper()
	s := New("test", newTestCatalog(t, 5), Options{
		DefaultROI:   defaultROI,
		DefaultLimit: 2,
		AutoSearch:   policy,
		Logger:       testLogger(),
	}, roi.DefaultViewport())
	t.Cleanup(s.Close)
	return s
}

func TestSession_GestureFollowsEditMode(t *testing.T) {
	s := newTestSession(t, AutoSearchNever)
	ctx := context.Background()

	res, err := s.HandlePointer(ctx, PointerEvent{Type: PointerDown, X: 100, Y: 100})
	if err != nil {
		t.Fatalf("HandlePointer failed: %v", err)
	}
	if res.Consumed {
		t.Error("expected press outside edit mode not to be consumed")
	}

	s.Controller.SetRoiEditMode(true)
	res, _ = s.HandlePointer(ctx, PointerEvent{Type: PointerDown, X: 100, Y: 100})
	if !res.Consumed || res.Gesture != "dragging" {
		t.Fatalf("expected drag to start, got %+v", res)
	}
	if res.Surface.PanEnabled {
		t.Error("expected panning disabled during drag")
	}

	res, _ = s.HandlePointer(ctx, PointerEvent{Type: PointerMove, X: 180, Y: 150})
	if res.Surface.Box == nil || *res.Surface.Box != (roi.Rect{Min: roi.Point{X: 100, Y: 100}, Max: roi.Point{X: 180, Y: 150}}) {
		t.Errorf("unexpected feedback box %+v", res.Surface.Box)
	}

	s.Controller.SetRoiEditMode(false)
	if s.Gesture() != roi.Idle {
		t.Errorf("expected leaving edit mode to cancel the drag, got %s", s.Gesture())
	}

	res, _ = s.HandlePointer(ctx, PointerEvent{Type: PointerUp, X: 300, Y: 300})
	if res.ROI != nil {
		t.Errorf("expected no ROI after cancel, got %v", *res.ROI)
	}
	if got := *res.Snapshot.Query.ROI; got != defaultROI {
		t.Errorf("expected ROI unchanged, got %v", got)
	}
}

func TestSession_EditModeIgnoresStaleSnapshots(t *testing.T) {
	s := newTestSession(t, AutoSearchNever)

	on := s.Controller.SetRoiEditMode(true)
	off := s.Controller.SetRoiEditMode(false)

	// Deliver the newer snapshot first, then the older one.
	s.syncEditMode(off)
	s.syncEditMode(on)

	if s.gesture.EditMode() {
		t.Error("expected an older snapshot not to re-arm the gesture")
	}
	res, _ := s.HandlePointer(context.Background(), PointerEvent{Type: PointerDown, X: 100, Y: 100})
	if res.Consumed {
		t.Error("expected press outside edit mode not to start a drag")
	}
}

func TestSession_ConcurrentToggles(t *testing.T) {
	for trial := 0; trial < 200; trial++ {
		s := newTestSession(t, AutoSearchNever)

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 25; j++ {
					s.Controller.ToggleRoiEditMode()
				}
			}()
		}
		wg.Wait()

		if got, want := s.gesture.EditMode(), s.Controller.Snapshot().RoiEditMode; got != want {
			t.Fatalf("trial %d: gesture edit mode %v, controller %v", trial, got, want)
		}
	}
}

func TestSession_DragSetsRoi(t *testing.T) {
	s := newTestSession(t, AutoSearchNever)
	ctx := context.Background()
	vp := roi.Viewport{Center: orb.Point{127.0, 36.5}, Zoom: 8, Width: 800, Height: 600}

	s.Controller.SetRoiEditMode(true)
	if _, err := s.HandlePointer(ctx, PointerEvent{Type: PointerDown, X: 200, Y: 150, Viewport: &vp}); err != nil {
		t.Fatalf("HandlePointer failed: %v", err)
	}
	res, err := s.HandlePointer(ctx, PointerEvent{Type: PointerUp, X: 600, Y: 450})
	if err != nil {
		t.Fatalf("HandlePointer failed: %v", err)
	}

	if res.ROI == nil {
		t.Fatal("expected ROI from completed drag")
	}
	want := catalog.NewBBox(
		roi.Round6(vp.Unproject(roi.Point{X: 200, Y: 450}).Lon()),
		roi.Round6(vp.Unproject(roi.Point{X: 200, Y: 450}).Lat()),
		roi.Round6(vp.Unproject(roi.Point{X: 600, Y: 150}).Lon()),
		roi.Round6(vp.Unproject(roi.Point{X: 600, Y: 150}).Lat()),
	)
	if *res.ROI != want {
		t.Errorf("expected ROI %v, got %v", want, *res.ROI)
	}
	if got := *res.Snapshot.Query.ROI; got != want {
		t.Errorf("expected controller ROI %v, got %v", want, got)
	}
	if !res.Snapshot.RoiEditMode {
		t.Error("expected edit mode to stay on without auto search")
	}
	if !res.Surface.PanEnabled || res.Surface.Box != nil {
		t.Errorf("expected surface reset after drag, got %+v", res.Surface)
	}
	if s.Viewport() != vp {
		t.Errorf("expected viewport from event to be kept, got %+v", s.Viewport())
	}
}

func TestSession_DragDeadZone(t *testing.T) {
	s := newTestSession(t, AutoSearchAlways)
	ctx := context.Background()
	s.Controller.SetRoiEditMode(true)
	before := s.Controller.Snapshot()

	s.HandlePointer(ctx, PointerEvent{Type: PointerDown, X: 100, Y: 100})
	res, err := s.HandlePointer(ctx, PointerEvent{Type: PointerUp, X: 102, Y: 101})
	if err != nil {
		t.Fatalf("HandlePointer failed: %v", err)
	}

	if res.ROI != nil {
		t.Errorf("expected tiny drag to be discarded, got %v", *res.ROI)
	}
	if res.Snapshot.Result != before.Result || *res.Snapshot.Query.ROI != defaultROI {
		t.Error("expected no ROI change and no search")
	}
}

func TestSession_DragWithAutoSearch(t *testing.T) {
	s := newTestSession(t, AutoSearchDrag)
	ctx := context.Background()
	s.Controller.SetRoiEditMode(true)
	before := s.Controller.Snapshot()

	s.HandlePointer(ctx, PointerEvent{Type: PointerDown, X: 100, Y: 100})
	res, err := s.HandlePointer(ctx, PointerEvent{Type: PointerUp, X: 900, Y: 700})
	if err != nil {
		t.Fatalf("HandlePointer failed: %v", err)
	}

	if res.Snapshot.Result == before.Result {
		t.Error("expected drag to trigger a search")
	}
	if res.Snapshot.RoiEditMode {
		t.Error("expected search to exit edit mode")
	}
}

func TestSession_PointerErrors(t *testing.T) {
	s := newTestSession(t, AutoSearchNever)
	ctx := context.Background()

	if _, err := s.HandlePointer(ctx, PointerEvent{Type: "wheel"}); err == nil {
		t.Error("expected error for unknown event type")
	}
	if _, err := s.HandlePointer(ctx, PointerEvent{Type: PointerMove, Viewport: &roi.Viewport{}}); err == nil {
		t.Error("expected error for invalid viewport")
	}
}
