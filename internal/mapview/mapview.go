// Package mapview turns session state into what the map renderer consumes:
// GeoJSON sources for the ROI and scene footprints, highlight filters for
// hover and selection, and the raster preview of the selected scene.
package mapview

import (
	"math"

	"github.com/paulmach/orb/geojson"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
	"github.com/robert-malhotra/scene-browser/internal/session"
)

// NoneUID matches no feature; highlight filters use it when nothing is
// hovered or selected.
const NoneUID = "__none__"

// PreviewTileSize is the tile size of preview rasters.
const PreviewTileSize = 256

// DefaultOpacity is the preview raster opacity when none is requested.
const DefaultOpacity = 0.7

// Cursor styles for the map canvas.
const (
	CursorDefault   = ""
	CursorCrosshair = "crosshair"
)

// Filter is a style filter expression selecting features by property.
type Filter []any

// HighlightFilter returns ["==", ["get", "scene_uid"], uid], matching no
// feature when uid is empty.
func HighlightFilter(uid string) Filter {
	if uid == "" {
		uid = NoneUID
	}
	return Filter{"==", []any{"get", "scene_uid"}, uid}
}

// RasterOverlay is a tiled raster source drawn beneath the footprints.
type RasterOverlay struct {
	SceneUID string   `json:"scene_uid"`
	Tiles    []string `json:"tiles"`
	TileSize int      `json:"tile_size"`
	Opacity  float64  `json:"opacity"`
}

// View is the complete map state for one session snapshot.
type View struct {
	ROI             *geojson.FeatureCollection `json:"roi"`
	Footprints      *geojson.FeatureCollection `json:"footprints"`
	HoverFilter     Filter                     `json:"hover_filter"`
	SelectionFilter Filter                     `json:"selection_filter"`
	Preview         *RasterOverlay             `json:"preview,omitempty"`
	RoiEditMode     bool                       `json:"roi_edit_mode"`
	Cursor          string                     `json:"cursor"`
}

// Build derives the map view from a snapshot.
func Build(snap session.Snapshot, opacity float64) View {
	var items []catalog.Scene
	if snap.Result != nil {
		items = snap.Result.Items
	}

	v := View{
		ROI:             ROICollection(snap.Query.ROI),
		Footprints:      FootprintCollection(items),
		HoverFilter:     HighlightFilter(snap.HoveredUID),
		SelectionFilter: HighlightFilter(snap.SelectedUID),
		Preview:         PreviewOverlay(snap.SelectedScene(), opacity),
		RoiEditMode:     snap.RoiEditMode,
		Cursor:          CursorDefault,
	}
	if snap.RoiEditMode {
		v.Cursor = CursorCrosshair
	}
	return v
}

// ROICollection returns a collection holding the ROI rectangle, or an empty
// collection when there is no ROI.
func ROICollection(roi *catalog.BBox) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if roi == nil {
		return fc
	}
	fc.Append(geojson.NewFeature(roi.Polygon()))
	return fc
}

// FootprintCollection returns one feature per scene, tagged with its
// scene_uid, in result order.
func FootprintCollection(scenes []catalog.Scene) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range scenes {
		s := &scenes[i]
		f := geojson.NewFeature(s.Geometry())
		f.ID = s.SceneUID
		f.Properties["scene_uid"] = s.SceneUID
		f.Properties["product_id"] = s.ProductID
		f.Properties["title"] = s.Title
		fc.Append(f)
	}
	return fc
}

// PreviewOverlay returns the raster preview of scene, or nil when there is
// no scene or it has no preview tiles.
func PreviewOverlay(scene *catalog.Scene, opacity float64) *RasterOverlay {
	if scene == nil || scene.Assets.PreviewTiles == "" {
		return nil
	}
	return &RasterOverlay{
		SceneUID: scene.SceneUID,
		Tiles:    []string{scene.Assets.PreviewTiles},
		TileSize: PreviewTileSize,
		Opacity:  ClampOpacity(opacity),
	}
}

// ClampOpacity limits opacity to [0, 1]; NaN becomes DefaultOpacity.
func ClampOpacity(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultOpacity
	}
	return math.Max(0, math.Min(1, v))
}
