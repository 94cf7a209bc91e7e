// Package catalog provides the scene catalog data model and the pure query
// engine that filters, sorts, and paginates scenes.
package catalog

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ProductKind classifies how a product's raster values are interpreted.
type ProductKind string

const (
	KindContinuous     ProductKind = "continuous"
	KindClassification ProductKind = "classification"
	KindOther          ProductKind = "other"
)

// Valid reports whether k is one of the known product kinds.
func (k ProductKind) Valid() bool {
	switch k {
	case KindContinuous, KindClassification, KindOther:
		return true
	}
	return false
}

// Product describes a data layer offered by the catalog.
type Product struct {
	ProductID string      `json:"product_id"`
	Name      string      `json:"name"`
	LegendURL string      `json:"legend_url,omitempty"`
	Kind      ProductKind `json:"type"`
}

// Assets holds the preview references of a scene.
type Assets struct {
	// Quicklook is a small thumbnail image.
	Quicklook string `json:"quicklook,omitempty"`
	// PreviewTiles is an XYZ tile template, e.g. /tiles/s2/{z}/{x}/{y}.png
	PreviewTiles string `json:"preview_tiles"`
}

// Scene is one observation record issued by the catalog. Scenes are
// immutable once loaded.
type Scene struct {
	SceneUID    string            `json:"scene_uid"`
	ProductID   string            `json:"product_id"`
	Title       string            `json:"title"`
	TimeStart   string            `json:"datetime_start"`
	TimeEnd     string            `json:"datetime_end"`
	Sensors     []string          `json:"sensors"`
	ResolutionM *float64          `json:"resolution_m,omitempty"`
	BBox        BBox              `json:"bbox"`
	Footprint   *geojson.Geometry `json:"footprint,omitempty"`
	Assets      Assets            `json:"assets"`
}

// Geometry returns the coverage of the scene: the footprint polygon when
// one is present, otherwise the bbox as a closed rectangle.
func (s *Scene) Geometry() orb.Geometry {
	if s.Footprint != nil && s.Footprint.Coordinates != nil {
		return s.Footprint.Coordinates
	}
	return s.BBox.Polygon()
}

// Validate checks the rules a scene must satisfy to enter a catalog.
func (s *Scene) Validate() error {
	if s.SceneUID == "" {
		return fmt.Errorf("scene_uid is required")
	}
	if s.ProductID == "" {
		return fmt.Errorf("scene %q: product_id is required", s.SceneUID)
	}

	start, err := ParseTimestamp(s.TimeStart)
	if err != nil {
		return fmt.Errorf("scene %q: invalid datetime_start: %w", s.SceneUID, err)
	}
	end, err := ParseTimestamp(s.TimeEnd)
	if err != nil {
		return fmt.Errorf("scene %q: invalid datetime_end: %w", s.SceneUID, err)
	}
	if start.After(end) {
		return fmt.Errorf("scene %q: datetime_start (%s) is after datetime_end (%s)", s.SceneUID, s.TimeStart, s.TimeEnd)
	}

	if err := s.BBox.Validate(); err != nil {
		return fmt.Errorf("scene %q: invalid bbox: %w", s.SceneUID, err)
	}

	if s.ResolutionM != nil && *s.ResolutionM <= 0 {
		return fmt.Errorf("scene %q: resolution_m must be positive, got %g", s.SceneUID, *s.ResolutionM)
	}

	if s.Footprint != nil {
		if _, ok := s.Footprint.Coordinates.(orb.Polygon); !ok {
			return fmt.Errorf("scene %q: footprint must be a Polygon", s.SceneUID)
		}
	}

	if s.Assets.PreviewTiles == "" {
		return fmt.Errorf("scene %q: assets.preview_tiles is required", s.SceneUID)
	}

	return nil
}
