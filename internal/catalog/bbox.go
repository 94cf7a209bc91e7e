package catalog

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// BBox is an axis-aligned rectangle [min_lon, min_lat, max_lon, max_lat].
// It is a value type: edits replace the whole rectangle.
type BBox [4]float64

// NewBBox builds a BBox from its four edges.
func NewBBox(minLon, minLat, maxLon, maxLat float64) BBox {
	return BBox{minLon, minLat, maxLon, maxLat}
}

func (b BBox) MinLon() float64 { return b[0] }
func (b BBox) MinLat() float64 { return b[1] }
func (b BBox) MaxLon() float64 { return b[2] }
func (b BBox) MaxLat() float64 { return b[3] }

// Bound converts the rectangle to an orb.Bound.
func (b BBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b[0], b[1]},
		Max: orb.Point{b[2], b[3]},
	}
}

// Intersects reports whether the two rectangles overlap on both axes.
// Touching edges and corners count as intersecting.
func (b BBox) Intersects(other BBox) bool {
	return b.Bound().Intersects(other.Bound())
}

// Polygon returns the rectangle as a closed, counter-clockwise ring.
func (b BBox) Polygon() orb.Polygon {
	return b.Bound().ToPolygon()
}

// Normalize returns the rectangle with its corners reordered so that
// min <= max on both axes.
func (b BBox) Normalize() BBox {
	return BBox{
		math.Min(b[0], b[2]),
		math.Min(b[1], b[3]),
		math.Max(b[0], b[2]),
		math.Max(b[1], b[3]),
	}
}

// Validate checks that all coordinates are finite and ordered.
func (b BBox) Validate() error {
	for i, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("coordinate %d is not finite", i)
		}
	}
	if b[0] > b[2] {
		return fmt.Errorf("min_lon (%f) must be less than or equal to max_lon (%f)", b[0], b[2])
	}
	if b[1] > b[3] {
		return fmt.Errorf("min_lat (%f) must be less than or equal to max_lat (%f)", b[1], b[3])
	}
	return nil
}

// UnmarshalJSON requires exactly four numbers.
func (b *BBox) UnmarshalJSON(data []byte) error {
	var coords []float64
	if err := json.Unmarshal(data, &coords); err != nil {
		return fmt.Errorf("bbox must be an array of numbers: %w", err)
	}
	if len(coords) != 4 {
		return fmt.Errorf("bbox must have 4 coordinates, got %d", len(coords))
	}
	copy(b[:], coords)
	return nil
}
