package catalog

import (
	"fmt"
	"math"
	"reflect"
	"testing"
)

func newTestScene(uid, productID, start, end string, bbox BBox) Scene {
	return Scene{
		SceneUID:  uid,
		ProductID: productID,
		Title:     "Scene " + uid,
		TimeStart: start,
		TimeEnd:   end,
		Sensors:   []string{"MSI"},
		BBox:      bbox,
		Assets: Assets{
			PreviewTiles: "/tiles/" + uid + "/{z}/{x}/{y}.png",
		},
	}
}

func sceneUIDs(scenes []Scene) []string {
	uids := make([]string, len(scenes))
	for i, s := range scenes {
		uids[i] = s.SceneUID
	}
	return uids
}

func testScenes() []Scene {
	return []Scene{
		newTestScene("a", "ndvi", "2024-01-01T01:00:00Z", "2024-01-01T02:00:00Z", NewBBox(126.0, 36.0, 126.5, 36.5)),
		newTestScene("b", "ndvi", "2024-01-05T01:00:00Z", "2024-01-06T02:00:00Z", NewBBox(127.0, 37.0, 127.5, 37.5)),
		newTestScene("c", "landcover", "2024-01-10T01:00:00Z", "2024-01-10T02:00:00Z", NewBBox(128.0, 35.0, 128.5, 35.5)),
		newTestScene("d", "ndvi", "2024-01-05T01:00:00Z", "2024-01-05T03:00:00Z", NewBBox(126.9, 36.9, 127.1, 37.1)),
	}
}

func TestSearch_SortsDescendingAndPaginates(t *testing.T) {
	scenes := []Scene{
		newTestScene("s1", "p", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z", NewBBox(0, 0, 1, 1)),
		newTestScene("s2", "p", "2024-01-05T00:00:00Z", "2024-01-05T00:00:00Z", NewBBox(0, 0, 1, 1)),
		newTestScene("s3", "p", "2024-01-10T00:00:00Z", "2024-01-10T00:00:00Z", NewBBox(0, 0, 1, 1)),
	}

	result := Search(scenes, Query{Page: 1, Limit: 2})

	if result.Total != 3 {
		t.Errorf("Expected total 3, got %d", result.Total)
	}
	if got, want := sceneUIDs(result.Items), []string{"s3", "s2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Expected items %v, got %v", want, got)
	}
	if result.Page != 1 || result.Limit != 2 {
		t.Errorf("Expected page 1 limit 2, got page %d limit %d", result.Page, result.Limit)
	}

	page2 := Search(scenes, Query{Page: 2, Limit: 2})
	if got, want := sceneUIDs(page2.Items), []string{"s1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Expected page 2 items %v, got %v", want, got)
	}
}

func TestSearch_Filters(t *testing.T) {
	roi := NewBBox(126.9, 36.9, 127.1, 37.1)

	tests := []struct {
		name      string
		query     Query
		wantUIDs  []string
		wantTotal int
	}{
		{
			name:      "no filters",
			query:     Query{Page: 1, Limit: 20},
			wantUIDs:  []string{"c", "b", "d", "a"},
			wantTotal: 4,
		},
		{
			name:      "product filter",
			query:     Query{ProductID: "ndvi", Page: 1, Limit: 20},
			wantUIDs:  []string{"b", "d", "a"},
			wantTotal: 3,
		},
		{
			name:      "date_start compares against end day",
			query:     Query{DateStart: "2024-01-06", Page: 1, Limit: 20},
			wantUIDs:  []string{"c", "b"},
			wantTotal: 2,
		},
		{
			name:      "date_end compares against start day",
			query:     Query{DateEnd: "2024-01-05", Page: 1, Limit: 20},
			wantUIDs:  []string{"b", "d", "a"},
			wantTotal: 3,
		},
		{
			name:      "date range inclusive on both ends",
			query:     Query{DateStart: "2024-01-05", DateEnd: "2024-01-05", Page: 1, Limit: 20},
			wantUIDs:  []string{"b", "d"},
			wantTotal: 2,
		},
		{
			name:      "roi filter",
			query:     Query{ROI: &roi, Page: 1, Limit: 20},
			wantUIDs:  []string{"b", "d"},
			wantTotal: 2,
		},
		{
			name:      "all filters combined",
			query:     Query{ProductID: "ndvi", DateStart: "2024-01-01", DateEnd: "2024-01-31", ROI: &roi, Page: 1, Limit: 1},
			wantUIDs:  []string{"b"},
			wantTotal: 2,
		},
		{
			name:      "unknown product",
			query:     Query{ProductID: "missing", Page: 1, Limit: 20},
			wantUIDs:  []string{},
			wantTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Search(testScenes(), tt.query)
			if result.Total != tt.wantTotal {
				t.Errorf("Expected total %d, got %d", tt.wantTotal, result.Total)
			}
			if got := sceneUIDs(result.Items); !reflect.DeepEqual(got, tt.wantUIDs) {
				t.Errorf("Expected items %v, got %v", tt.wantUIDs, got)
			}
		})
	}
}

func TestSearch_MembershipMatchesFilterAndRank(t *testing.T) {
	scenes := testScenes()
	for _, q := range []Query{
		{Page: 1, Limit: 1},
		{Page: 2, Limit: 1},
		{Page: 2, Limit: 3},
		{ProductID: "ndvi", Page: 2, Limit: 2},
	} {
		all := Search(scenes, Query{ProductID: q.ProductID, Page: 1, Limit: MaxLimit})
		page := Search(scenes, q)

		start := q.Offset()
		end := min(start+q.Limit, len(all.Items))
		var want []string
		if start < len(all.Items) {
			want = sceneUIDs(all.Items[start:end])
		}
		got := sceneUIDs(page.Items)
		if len(want) == 0 && len(got) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("query %+v: expected %v, got %v", q, want, got)
		}
		if page.Total != all.Total {
			t.Errorf("query %+v: total %d should not depend on paging (want %d)", q, page.Total, all.Total)
		}
	}
}

func TestSearch_StableForEqualStartTimes(t *testing.T) {
	scenes := []Scene{
		newTestScene("first", "p", "2024-03-01T00:00:00Z", "2024-03-01T00:00:00Z", NewBBox(0, 0, 1, 1)),
		newTestScene("newer", "p", "2024-03-02T00:00:00Z", "2024-03-02T00:00:00Z", NewBBox(0, 0, 1, 1)),
		newTestScene("second", "p", "2024-03-01T00:00:00Z", "2024-03-01T00:00:00Z", NewBBox(0, 0, 1, 1)),
		newTestScene("third", "p", "2024-03-01T00:00:00Z", "2024-03-01T00:00:00Z", NewBBox(0, 0, 1, 1)),
	}

	result := Search(scenes, Query{Page: 1, Limit: 10})

	want := []string{"newer", "first", "second", "third"}
	if got := sceneUIDs(result.Items); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestSearch_TouchingEdgesIntersect(t *testing.T) {
	tests := []struct {
		name  string
		scene BBox
		roi   BBox
	}{
		{"corner touch", NewBBox(0, 0, 1, 1), NewBBox(1, 1, 2, 2)},
		{"degenerate point inside roi", NewBBox(127.0, 37.0, 127.0, 37.0), NewBBox(126.9, 36.9, 127.1, 37.1)},
		{"shared edge", NewBBox(0, 0, 1, 1), NewBBox(1, 0, 2, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenes := []Scene{newTestScene("x", "p", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z", tt.scene)}
			roi := tt.roi
			result := Search(scenes, Query{ROI: &roi, Page: 1, Limit: 20})
			if result.Total != 1 {
				t.Errorf("Expected scene %v to intersect roi %v", tt.scene, tt.roi)
			}
		})
	}

	scenes := []Scene{newTestScene("x", "p", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z", NewBBox(0, 0, 1, 1))}
	roi := NewBBox(1.000001, 0, 2, 1)
	if result := Search(scenes, Query{ROI: &roi, Page: 1, Limit: 20}); result.Total != 0 {
		t.Errorf("Expected disjoint bbox to be excluded, got total %d", result.Total)
	}
}

func TestSearch_OutOfRangePage(t *testing.T) {
	result := Search(testScenes()[:3], Query{Page: 5, Limit: 20})

	if result.Total != 3 {
		t.Errorf("Expected total 3, got %d", result.Total)
	}
	if result.Items == nil || len(result.Items) != 0 {
		t.Errorf("Expected empty non-nil items, got %v", result.Items)
	}
	if result.Page != 5 {
		t.Errorf("Expected page to echo 5, got %d", result.Page)
	}
}

func TestSearch_HugePage(t *testing.T) {
	scenes := make([]Scene, 5000)
	for i := range scenes {
		scenes[i] = newTestScene(fmt.Sprintf("s%04d", i), "p", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z", NewBBox(0, 0, 1, 1))
	}

	for _, page := range []int{4611686018427388928, math.MaxInt} {
		q := Query{Page: page, Limit: 4}.Normalize()
		result := Search(scenes, q)

		if result.Page < 1 {
			t.Errorf("Expected a positive page for %d, got %d", page, result.Page)
		}
		if result.Total != 5000 || len(result.Items) != 0 {
			t.Errorf("Expected no items of 5000 for page %d, got %d of %d", page, len(result.Items), result.Total)
		}
	}

	if result := Search(scenes, Query{Page: math.MaxInt, Limit: 4}); len(result.Items) != 0 {
		t.Errorf("Expected no items for an unnormalized huge page, got %d", len(result.Items))
	}
}

func TestSearch_EmptyCatalog(t *testing.T) {
	result := Search(nil, Query{Page: 1, Limit: 20})
	if result.Total != 0 || len(result.Items) != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
}

func TestSearch_Idempotent(t *testing.T) {
	scenes := testScenes()
	before := sceneUIDs(scenes)
	roi := NewBBox(120, 30, 130, 40)
	q := Query{ProductID: "ndvi", ROI: &roi, Page: 1, Limit: 2}

	first := Search(scenes, q)
	second := Search(scenes, q)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical results, got %+v and %+v", first, second)
	}
	if after := sceneUIDs(scenes); !reflect.DeepEqual(before, after) {
		t.Errorf("Search reordered the catalog: before %v, after %v", before, after)
	}
}
