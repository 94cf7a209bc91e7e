package roi

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// TileSize is the pixel size of one web map tile at zoom 0.
const TileSize = 512

// MaxZoom bounds the zoom levels a viewport accepts.
const MaxZoom = 24

// Viewport describes what the map currently shows: a Web Mercator view of
// Width x Height pixels centred on Center at Zoom. It implements Projector.
type Viewport struct {
	Center orb.Point `json:"center"`
	Zoom   float64   `json:"zoom"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
}

// DefaultViewport is the initial map view.
func DefaultViewport() Viewport {
	return Viewport{
		Center: orb.Point{127.0, 36.5},
		Zoom:   7,
		Width:  1024,
		Height: 768,
	}
}

// Validate checks that the viewport can be projected.
func (v Viewport) Validate() error {
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("viewport size must be positive, got %gx%g", v.Width, v.Height)
	}
	if v.Zoom < 0 || v.Zoom > MaxZoom {
		return fmt.Errorf("viewport zoom must be between 0 and %d, got %g", MaxZoom, v.Zoom)
	}
	if v.Center.Lon() < -180 || v.Center.Lon() > 180 {
		return fmt.Errorf("viewport center longitude out of range: %g", v.Center.Lon())
	}
	if v.Center.Lat() < -85.06 || v.Center.Lat() > 85.06 {
		return fmt.Errorf("viewport center latitude out of range: %g", v.Center.Lat())
	}
	return nil
}

// metersPerPixel returns the ground resolution at the viewport's zoom.
func (v Viewport) metersPerPixel() float64 {
	worldSize := TileSize * math.Pow(2, v.Zoom)
	return 2 * math.Pi * orb.EarthRadius / worldSize
}

// Unproject converts a pixel inside the viewport to lon/lat.
func (v Viewport) Unproject(p Point) orb.Point {
	c := project.WGS84.ToMercator(v.Center)
	mpp := v.metersPerPixel()

	m := orb.Point{
		c.X() + (p.X-v.Width/2)*mpp,
		c.Y() - (p.Y-v.Height/2)*mpp,
	}
	return project.Mercator.ToWGS84(m)
}

// Project converts lon/lat to a pixel position in the viewport.
func (v Viewport) Project(ll orb.Point) Point {
	c := project.WGS84.ToMercator(v.Center)
	m := project.WGS84.ToMercator(ll)
	mpp := v.metersPerPixel()

	return Point{
		X: v.Width/2 + (m.X()-c.X())/mpp,
		Y: v.Height/2 - (m.Y()-c.Y())/mpp,
	}
}

// Bound returns the geographic extent of the viewport.
func (v Viewport) Bound() orb.Bound {
	sw := v.Unproject(Point{X: 0, Y: v.Height})
	ne := v.Unproject(Point{X: v.Width, Y: 0})
	return orb.Bound{Min: sw, Max: ne}
}
