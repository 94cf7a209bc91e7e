package catalog

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"
)

// Pagination defaults applied when a query carries an unusable page or limit.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 200

	// MaxPage bounds page numbers so the page offset fits in an int. Larger
	// pages clamp to it and, like any page past the last, return no items.
	MaxPage = math.MaxInt / MaxLimit
)

// Query is a scene search request. It is passed by value; ROI is never
// mutated in place, only replaced.
type Query struct {
	ProductID string `json:"product_id,omitempty"`
	DateStart string `json:"date_start,omitempty"` // YYYY-MM-DD
	DateEnd   string `json:"date_end,omitempty"`   // YYYY-MM-DD
	ROI       *BBox  `json:"roi_bbox,omitempty"`
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
}

// Normalize clamps page and limit to their valid ranges.
func (q Query) Normalize() Query {
	q.Page = normalizePage(float64(q.Page))
	q.Limit = normalizeLimit(float64(q.Limit))
	return q
}

// Offset returns the index of the first item on the query's page. It
// saturates at math.MaxInt instead of overflowing.
func (q Query) Offset() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

func normalizePage(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 1 {
		return DefaultPage
	}
	if v >= MaxPage {
		return MaxPage
	}
	return min(int(math.Trunc(v)), MaxPage)
}

func normalizeLimit(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 1 || v > MaxLimit {
		return DefaultLimit
	}
	return int(math.Trunc(v))
}

// SearchResult is one page of a filtered, sorted scene list.
type SearchResult struct {
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
	Items []Scene `json:"items"`
}

// ParseSearchRequest decodes a search request body. Malformed input never
// fails the request: an unreadable body behaves like an empty one, bad
// page/limit values fall back to defaults, and unusable filters are dropped.
// The returned query is normalized.
func ParseSearchRequest(body io.Reader) Query {
	fields := map[string]json.RawMessage{}
	if body != nil {
		if data, err := io.ReadAll(body); err == nil && len(bytes.TrimSpace(data)) > 0 {
			if err := json.Unmarshal(data, &fields); err != nil {
				fields = map[string]json.RawMessage{}
			}
		}
	}

	q := Query{
		ProductID: stringField(fields["product_id"]),
		Page:      normalizePage(numberField(fields["page"], DefaultPage)),
		Limit:     normalizeLimit(numberField(fields["limit"], DefaultLimit)),
	}

	if d, ok := NormalizeDate(stringField(fields["date_start"])); ok {
		q.DateStart = d
	}
	if d, ok := NormalizeDate(stringField(fields["date_end"])); ok {
		q.DateEnd = d
	}

	if roi, ok := bboxField(fields["roi_bbox"]); ok {
		q.ROI = &roi
	}

	return q
}

// numberField coerces a JSON value the way a loose client would: numbers and
// numeric strings are accepted, a missing or null value yields def, and
// anything else is NaN.
func numberField(raw json.RawMessage, def float64) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return def
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if f, err := n.Float64(); err == nil {
			return f
		}
		return math.NaN()
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}

	return math.NaN()
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func bboxField(raw json.RawMessage) (BBox, bool) {
	if len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return BBox{}, false
	}
	var b BBox
	if err := json.Unmarshal(raw, &b); err != nil {
		return BBox{}, false
	}
	if err := b.Normalize().Validate(); err != nil {
		return BBox{}, false
	}
	return b.Normalize(), true
}
