package catalog

import (
	"slices"
	"strings"
)

// Search filters, sorts, and paginates scenes. It is pure: the input slice
// is not modified and the same inputs always yield the same result.
//
// Filter stages, in order: product, date_start against the day of
// datetime_end, date_end against the day of datetime_start, bbox
// intersection with the ROI. Matches are sorted by datetime_start
// descending (ISO strings compare chronologically); ties keep catalog
// order. q must be normalized.
func Search(scenes []Scene, q Query) SearchResult {
	filtered := make([]Scene, 0, len(scenes))
	for i := range scenes {
		if Matches(&scenes[i], q) {
			filtered = append(filtered, scenes[i])
		}
	}

	slices.SortStableFunc(filtered, func(a, b Scene) int {
		return strings.Compare(b.TimeStart, a.TimeStart)
	})

	total := len(filtered)
	items := []Scene{}
	if start := q.Offset(); start >= 0 && start < total {
		end := min(start+q.Limit, total)
		items = filtered[start:end]
	}

	return SearchResult{
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
		Items: items,
	}
}

// Matches reports whether a scene passes every filter stage of q.
func Matches(s *Scene, q Query) bool {
	if q.ProductID != "" && s.ProductID != q.ProductID {
		return false
	}
	if q.DateStart != "" && DayOf(s.TimeEnd) < q.DateStart {
		return false
	}
	if q.DateEnd != "" && DayOf(s.TimeStart) > q.DateEnd {
		return false
	}
	if q.ROI != nil && !s.BBox.Intersects(*q.ROI) {
		return false
	}
	return true
}
