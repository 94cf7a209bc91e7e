package store

import (
	"slices"

	"github.com/paulmach/orb/geojson"
	"github.com/uptrace/bun"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
)

type productRow struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ProductID string `bun:"product_id,pk"`
	Seq       int    `bun:"seq,notnull"`
	Name      string `bun:"name,notnull"`
	LegendURL string `bun:"legend_url"`
	Kind      string `bun:"kind,notnull"`
}

// sceneRow stores timestamps as the original ISO strings; ordering and date
// filters compare those strings exactly like the in-memory engine. Seq is
// the catalog order used to break sort ties.
type sceneRow struct {
	bun.BaseModel `bun:"table:scenes,alias:s"`

	SceneUID     string            `bun:"scene_uid,pk"`
	Seq          int               `bun:"seq,notnull"`
	ProductID    string            `bun:"product_id,notnull"`
	Title        string            `bun:"title"`
	TimeStart    string            `bun:"time_start,notnull"`
	TimeEnd      string            `bun:"time_end,notnull"`
	Sensors      []string          `bun:"sensors,array"`
	ResolutionM  *float64          `bun:"resolution_m"`
	MinLon       float64           `bun:"min_lon,notnull"`
	MinLat       float64           `bun:"min_lat,notnull"`
	MaxLon       float64           `bun:"max_lon,notnull"`
	MaxLat       float64           `bun:"max_lat,notnull"`
	Footprint    *geojson.Geometry `bun:"footprint,type:jsonb"`
	Quicklook    string            `bun:"quicklook"`
	PreviewTiles string            `bun:"preview_tiles,notnull"`
}

func productToRow(p catalog.Product, seq int) productRow {
	return productRow{
		ProductID: p.ProductID,
		Seq:       seq,
		Name:      p.Name,
		LegendURL: p.LegendURL,
		Kind:      string(p.Kind),
	}
}

func (r *productRow) toProduct() catalog.Product {
	return catalog.Product{
		ProductID: r.ProductID,
		Name:      r.Name,
		LegendURL: r.LegendURL,
		Kind:      catalog.ProductKind(r.Kind),
	}
}

func sceneToRow(s catalog.Scene, seq int) sceneRow {
	return sceneRow{
		SceneUID:     s.SceneUID,
		Seq:          seq,
		ProductID:    s.ProductID,
		Title:        s.Title,
		TimeStart:    s.TimeStart,
		TimeEnd:      s.TimeEnd,
		Sensors:      slices.Clone(s.Sensors),
		ResolutionM:  s.ResolutionM,
		MinLon:       s.BBox.MinLon(),
		MinLat:       s.BBox.MinLat(),
		MaxLon:       s.BBox.MaxLon(),
		MaxLat:       s.BBox.MaxLat(),
		Footprint:    s.Footprint,
		Quicklook:    s.Assets.Quicklook,
		PreviewTiles: s.Assets.PreviewTiles,
	}
}

func (r *sceneRow) toScene() catalog.Scene {
	return catalog.Scene{
		SceneUID:    r.SceneUID,
		ProductID:   r.ProductID,
		Title:       r.Title,
		TimeStart:   r.TimeStart,
		TimeEnd:     r.TimeEnd,
		Sensors:     r.Sensors,
		ResolutionM: r.ResolutionM,
		BBox:        catalog.NewBBox(r.MinLon, r.MinLat, r.MaxLon, r.MaxLat),
		Footprint:   r.Footprint,
		Assets: catalog.Assets{
			Quicklook:    r.Quicklook,
			PreviewTiles: r.PreviewTiles,
		},
	}
}
