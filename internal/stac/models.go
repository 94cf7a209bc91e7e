// Package stac provides STAC API response types for the catalog export,
// wrapping planetlabs/go-stac for core types.
package stac

import (
	gostac "github.com/planetlabs/go-stac"
)

// Re-export core types from planetlabs/go-stac for convenience
type (
	Item           = gostac.Item
	Collection     = gostac.Collection
	Asset          = gostac.Asset
	Link           = gostac.Link
	Extent         = gostac.Extent
	SpatialExtent  = gostac.SpatialExtent
	TemporalExtent = gostac.TemporalExtent
)

// Media types used in links.
const (
	MediaTypeJSON    = "application/json"
	MediaTypeGeoJSON = "application/geo+json"
)

// ItemCollection represents a STAC ItemCollection (GeoJSON FeatureCollection)
// with the page metadata of the search that produced it.
type ItemCollection struct {
	Type           string         `json:"type"` // "FeatureCollection"
	Features       []*gostac.Item `json:"features"`
	Links          []*gostac.Link `json:"links"`
	NumberMatched  int            `json:"numberMatched"`
	NumberReturned int            `json:"numberReturned"`
	Context        *Context       `json:"context,omitempty"`
}

// Context provides additional metadata about the response (STAC Context extension)
type Context struct {
	Page     int `json:"page"`
	Limit    int `json:"limit"`
	Returned int `json:"returned"`
	Matched  int `json:"matched"`
}

// NewItemCollection creates a new ItemCollection for one page of results.
func NewItemCollection(items []*gostac.Item, page, limit, matched int) *ItemCollection {
	if items == nil {
		items = []*gostac.Item{}
	}
	return &ItemCollection{
		Type:           "FeatureCollection",
		Features:       items,
		Links:          make([]*gostac.Link, 0),
		NumberMatched:  matched,
		NumberReturned: len(items),
		Context: &Context{
			Page:     page,
			Limit:    limit,
			Returned: len(items),
			Matched:  matched,
		},
	}
}

// AddLink adds a link to the ItemCollection.
func (ic *ItemCollection) AddLink(rel, href, mediaType string) {
	ic.Links = append(ic.Links, &gostac.Link{
		Rel:  rel,
		Href: href,
		Type: mediaType,
	})
}

// CollectionsList represents a list of collections response.
type CollectionsList struct {
	Collections []*gostac.Collection `json:"collections"`
	Links       []*gostac.Link       `json:"links"`
}

// NewCollectionsList creates a new CollectionsList.
func NewCollectionsList(collections []*gostac.Collection) *CollectionsList {
	if collections == nil {
		collections = []*gostac.Collection{}
	}
	return &CollectionsList{
		Collections: collections,
		Links:       make([]*gostac.Link, 0),
	}
}

// AddLink adds a link to the collections list.
func (cl *CollectionsList) AddLink(rel, href, mediaType string) {
	cl.Links = append(cl.Links, &gostac.Link{
		Rel:  rel,
		Href: href,
		Type: mediaType,
	})
}

// LandingPage represents the STAC API landing page response.
type LandingPage struct {
	Type        string         `json:"type"` // "Catalog"
	Id          string         `json:"id"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description"`
	StacVersion string         `json:"stac_version"`
	ConformsTo  []string       `json:"conformsTo,omitempty"`
	Links       []*gostac.Link `json:"links"`
}

// NewLandingPage creates a new landing page response.
func NewLandingPage(id, title, description, version string, conformsTo []string) *LandingPage {
	return &LandingPage{
		Type:        "Catalog",
		Id:          id,
		Title:       title,
		Description: description,
		StacVersion: version,
		ConformsTo:  conformsTo,
		Links:       make([]*gostac.Link, 0),
	}
}

// AddLink adds a link to the landing page.
func (lp *LandingPage) AddLink(rel, href, mediaType string) {
	lp.Links = append(lp.Links, &gostac.Link{
		Rel:  rel,
		Href: href,
		Type: mediaType,
	})
}

// Standard STAC conformance URIs
const (
	ConformanceCore           = "https://api.stacspec.org/v1.0.0/core"
	ConformanceCollections    = "https://api.stacspec.org/v1.0.0/collections"
	ConformanceItemSearch     = "https://api.stacspec.org/v1.0.0/item-search"
	ConformanceOGCFeatCore    = "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/core"
	ConformanceOGCFeatGeoJSON = "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/geojson"
)

// DefaultConformance returns the conformance classes of the export.
func DefaultConformance() []string {
	return []string{
		ConformanceCore,
		ConformanceCollections,
		ConformanceItemSearch,
		ConformanceOGCFeatCore,
		ConformanceOGCFeatGeoJSON,
	}
}
