package translate

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/planetlabs/go-stac"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
)

// ProductToCollection converts a product to a STAC Collection. The extent
// covers the given scenes; with no scenes it is the whole world and an open
// interval.
func ProductToCollection(p *catalog.Product, scenes []catalog.Scene, rootURL, stacVersion string) *stac.Collection {
	collection := &stac.Collection{
		Version:     stacVersion,
		Id:          p.ProductID,
		Title:       p.Name,
		Description: fmt.Sprintf("%s scenes", p.Name),
		License:     "proprietary",
		Extent:      CollectionExtent(scenes),
		Links:       make([]*stac.Link, 0),
		Assets:      make(map[string]*stac.Asset),
		Summaries:   make(map[string]any),
	}

	if p.Kind != "" {
		collection.Summaries["product:type"] = []string{string(p.Kind)}
	}

	if p.LegendURL != "" {
		collection.Assets["legend"] = &stac.Asset{
			Href:  p.LegendURL,
			Title: "Legend",
			Type:  getMediaTypeFromURL(p.LegendURL),
			Roles: []string{"metadata"},
		}
	}

	if rootURL != "" {
		selfURL := fmt.Sprintf("%s/collections/%s", rootURL, p.ProductID)
		collection.Links = append(collection.Links,
			&stac.Link{Rel: "self", Href: selfURL, Type: "application/json"},
			&stac.Link{Rel: "root", Href: rootURL, Type: "application/json"},
			&stac.Link{Rel: "parent", Href: rootURL, Type: "application/json"},
			&stac.Link{Rel: "items", Href: rootURL + "/search?collections=" + p.ProductID, Type: "application/geo+json"},
		)
	}

	return collection
}

// CollectionExtent computes the spatial and temporal extent of scenes.
// Scenes with unparseable timestamps do not widen the temporal extent.
func CollectionExtent(scenes []catalog.Scene) *stac.Extent {
	if len(scenes) == 0 {
		return &stac.Extent{
			Spatial:  &stac.SpatialExtent{Bbox: [][]float64{{-180, -90, 180, 90}}},
			Temporal: &stac.TemporalExtent{Interval: [][]any{{nil, nil}}},
		}
	}

	bound := scenes[0].BBox.Bound()
	var first, last time.Time
	for i := range scenes {
		bound = bound.Union(scenes[i].BBox.Bound())

		if start, err := catalog.ParseTimestamp(scenes[i].TimeStart); err == nil {
			if first.IsZero() || start.Before(first) {
				first = start
			}
		}
		if end, err := catalog.ParseTimestamp(scenes[i].TimeEnd); err == nil {
			if last.IsZero() || end.After(last) {
				last = end
			}
		}
	}

	interval := []any{nil, nil}
	if !first.IsZero() {
		interval[0] = first.Format(time.RFC3339)
	}
	if !last.IsZero() {
		interval[1] = last.Format(time.RFC3339)
	}

	return &stac.Extent{
		Spatial:  &stac.SpatialExtent{Bbox: [][]float64{boundToBBox(bound)}},
		Temporal: &stac.TemporalExtent{Interval: [][]any{interval}},
	}
}

func boundToBBox(b orb.Bound) []float64 {
	return []float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}
}
