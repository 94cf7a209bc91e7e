package stac

import (
	"net/url"
	"strconv"
)

// PaginationInfo holds information needed to generate pagination links
type PaginationInfo struct {
	BaseURL     string
	CurrentPage int
	Limit       int
	TotalCount  int
	QueryParams url.Values // Original query parameters
}

// TotalPages returns the number of pages needed for TotalCount items.
func (info PaginationInfo) TotalPages() int {
	if info.Limit <= 0 {
		return 0
	}
	return (info.TotalCount + info.Limit - 1) / info.Limit
}

// BuildPaginationLinks generates self, prev and next links for a page of
// results. prev is omitted on the first page and next on the last one; a
// page past the end links back to the last page.
func BuildPaginationLinks(info PaginationInfo) []*Link {
	links := make([]*Link, 0, 3)

	links = append(links, &Link{
		Rel:  "self",
		Href: buildPageURL(info.BaseURL, info.QueryParams, info.CurrentPage),
		Type: MediaTypeGeoJSON,
	})

	totalPages := info.TotalPages()

	if info.CurrentPage > 1 && totalPages > 0 {
		prev := min(info.CurrentPage-1, totalPages)
		links = append(links, &Link{
			Rel:  "prev",
			Href: buildPageURL(info.BaseURL, info.QueryParams, prev),
			Type: MediaTypeGeoJSON,
		})
	}

	if info.CurrentPage < totalPages {
		links = append(links, &Link{
			Rel:  "next",
			Href: buildPageURL(info.BaseURL, info.QueryParams, info.CurrentPage+1),
			Type: MediaTypeGeoJSON,
		})
	}

	return links
}

// buildPageURL constructs a URL with the given page number
func buildPageURL(baseURL string, params url.Values, page int) string {
	// Clone the params to avoid modifying the original
	newParams := url.Values{}
	for key, values := range params {
		for _, value := range values {
			newParams.Add(key, value)
		}
	}

	newParams.Set("page", strconv.Itoa(page))

	return baseURL + "?" + newParams.Encode()
}
