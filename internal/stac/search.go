package stac

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
)

// SearchRequest represents a STAC item search over the scene catalog.
type SearchRequest struct {
	Collection string
	BBox       *catalog.BBox
	DateStart  string // YYYY-MM-DD
	DateEnd    string // YYYY-MM-DD
	Page       int
	Limit      int
}

// ParseSearchRequest parses a STAC search request from GET query parameters.
//
// Unlike the browser search endpoint this parser is strict: a malformed
// bbox, datetime or paging value is an error. The collection may be given
// as "collections" (first entry used) or "product"; dates as date_start and
// date_end or as a STAC datetime interval.
func ParseSearchRequest(r *http.Request) (*SearchRequest, error) {
	query := r.URL.Query()
	req := &SearchRequest{
		Page:  catalog.DefaultPage,
		Limit: catalog.DefaultLimit,
	}

	if product := strings.TrimSpace(query.Get("product")); product != "" {
		req.Collection = product
	} else if collections := query.Get("collections"); collections != "" {
		req.Collection = strings.TrimSpace(strings.Split(collections, ",")[0])
	}

	if bboxStr := query.Get("bbox"); bboxStr != "" {
		bboxParts := strings.Split(bboxStr, ",")
		if len(bboxParts) != 4 {
			return nil, fmt.Errorf("bbox must have 4 coordinates, got %d", len(bboxParts))
		}

		var bbox catalog.BBox
		for i, part := range bboxParts {
			val, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid bbox coordinate at position %d: %w", i, err)
			}
			bbox[i] = val
		}
		if err := ValidateBBox(bbox); err != nil {
			return nil, fmt.Errorf("invalid bbox: %w", err)
		}
		req.BBox = &bbox
	}

	if datetime := query.Get("datetime"); datetime != "" {
		start, end, err := ParseDatetimeInterval(datetime)
		if err != nil {
			return nil, fmt.Errorf("invalid datetime: %w", err)
		}
		req.DateStart, req.DateEnd = start, end
	}

	for param, dest := range map[string]*string{"date_start": &req.DateStart, "date_end": &req.DateEnd} {
		v := query.Get(param)
		if v == "" {
			continue
		}
		day, ok := catalog.NormalizeDate(v)
		if !ok {
			return nil, fmt.Errorf("invalid %s %q, expected YYYY-MM-DD", param, v)
		}
		*dest = day
	}

	if req.DateStart != "" && req.DateEnd != "" && req.DateStart > req.DateEnd {
		return nil, fmt.Errorf("date_start (%s) must be before or equal to date_end (%s)", req.DateStart, req.DateEnd)
	}

	if pageStr := query.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			return nil, fmt.Errorf("invalid page parameter: %w", err)
		}
		if page < 1 {
			return nil, fmt.Errorf("page must be at least 1, got %d", page)
		}
		req.Page = page
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, fmt.Errorf("invalid limit parameter: %w", err)
		}
		if limit < 1 || limit > catalog.MaxLimit {
			return nil, fmt.Errorf("limit must be between 1 and %d, got %d", catalog.MaxLimit, limit)
		}
		req.Limit = limit
	}

	return req, nil
}

// Query converts the request to a catalog query.
func (req *SearchRequest) Query() catalog.Query {
	return catalog.Query{
		ProductID: req.Collection,
		DateStart: req.DateStart,
		DateEnd:   req.DateEnd,
		ROI:       req.BBox,
		Page:      req.Page,
		Limit:     req.Limit,
	}
}
