// Package translate converts catalog scenes and products to STAC items and
// collections.
package translate

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/planetlabs/go-stac"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
)

// SceneToItem converts a scene to a STAC Item. rootURL is the STAC root
// (e.g. https://host/stac); links are omitted when it is empty.
func SceneToItem(scene *catalog.Scene, rootURL, stacVersion string) (*stac.Item, error) {
	if scene == nil {
		return nil, fmt.Errorf("scene is nil")
	}
	if scene.SceneUID == "" {
		return nil, fmt.Errorf("scene has no scene_uid")
	}

	item := &stac.Item{
		Version:    stacVersion,
		Id:         scene.SceneUID,
		Collection: scene.ProductID,
		Geometry:   geojson.NewGeometry(scene.Geometry()),
		Bbox:       scene.BBox[:],
		Properties: make(map[string]any),
		Assets:     make(map[string]*stac.Asset),
		Links:      make([]*stac.Link, 0),
	}

	start, err := catalog.ParseTimestamp(scene.TimeStart)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start time: %w", err)
	}
	end, err := catalog.ParseTimestamp(scene.TimeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to parse end time: %w", err)
	}

	// Scenes cover a time range, so datetime is null and the range is explicit.
	item.Properties["datetime"] = nil
	item.Properties["start_datetime"] = start
	item.Properties["end_datetime"] = end

	if scene.Title != "" {
		item.Properties["title"] = scene.Title
	}

	if len(scene.Sensors) > 0 {
		instruments := make([]string, len(scene.Sensors))
		for i, s := range scene.Sensors {
			instruments[i] = strings.ToLower(s)
		}
		item.Properties["instruments"] = instruments
	}

	if scene.ResolutionM != nil {
		item.Properties["gsd"] = *scene.ResolutionM
	}

	addAssets(item, &scene.Assets)
	addLinks(item, scene.ProductID, rootURL)

	return item, nil
}

// ScenesToItems converts a page of scenes, preserving order.
func ScenesToItems(scenes []catalog.Scene, rootURL, stacVersion string) ([]*stac.Item, error) {
	items := make([]*stac.Item, 0, len(scenes))
	for i := range scenes {
		item, err := SceneToItem(&scenes[i], rootURL, stacVersion)
		if err != nil {
			return nil, fmt.Errorf("scene %q: %w", scenes[i].SceneUID, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// addAssets adds the thumbnail and preview tile assets to the STAC item
func addAssets(item *stac.Item, assets *catalog.Assets) {
	if assets.Quicklook != "" {
		item.Assets["thumbnail"] = &stac.Asset{
			Href:  assets.Quicklook,
			Title: "Quicklook",
			Type:  getMediaTypeFromURL(assets.Quicklook),
			Roles: []string{"thumbnail"},
		}
	}

	if assets.PreviewTiles != "" {
		item.Assets["tiles"] = &stac.Asset{
			Href:  assets.PreviewTiles,
			Title: "Preview tiles (XYZ template)",
			Type:  getMediaTypeFromURL(assets.PreviewTiles),
			Roles: []string{"overview"},
		}
	}
}

// getMediaTypeFromURL attempts to determine MIME type from URL
func getMediaTypeFromURL(url string) string {
	url = strings.ToLower(url)
	switch {
	case strings.HasSuffix(url, ".tif"), strings.HasSuffix(url, ".tiff"):
		return "image/tiff; application=geotiff"
	case strings.HasSuffix(url, ".jpg"), strings.HasSuffix(url, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(url, ".png"):
		return "image/png"
	case strings.HasSuffix(url, ".webp"):
		return "image/webp"
	case strings.HasSuffix(url, ".json"):
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// addLinks adds STAC links (parent, collection, root) to the item
func addLinks(item *stac.Item, collectionID, rootURL string) {
	if rootURL == "" {
		return
	}

	collectionURL := fmt.Sprintf("%s/collections/%s", rootURL, collectionID)

	item.Links = append(item.Links,
		&stac.Link{Rel: "parent", Href: collectionURL, Type: "application/json"},
		&stac.Link{Rel: "collection", Href: collectionURL, Type: "application/json"},
		&stac.Link{Rel: "root", Href: rootURL, Type: "application/json"},
	)
}
