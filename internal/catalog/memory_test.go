package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/paulmach/orb"
)

func testProducts() []Product {
	return []Product{
		{ProductID: "ndvi", Name: "NDVI", Kind: KindContinuous, LegendURL: "/legends/ndvi.png"},
		{ProductID: "landcover", Name: "Land Cover", Kind: KindClassification},
	}
}

func TestNewMemoryCatalog(t *testing.T) {
	c, err := NewMemoryCatalog(testProducts(), testScenes())
	if err != nil {
		t.Fatalf("NewMemoryCatalog failed: %v", err)
	}

	products, scenes := c.Count()
	if products != 2 || scenes != 4 {
		t.Errorf("Expected 2 products and 4 scenes, got %d and %d", products, scenes)
	}
	if c.Name() != "memory" {
		t.Errorf("Expected name memory, got %s", c.Name())
	}

	p, err := c.Product("landcover")
	if err != nil || p.Name != "Land Cover" {
		t.Errorf("Expected landcover product, got %+v (%v)", p, err)
	}
	if _, err := c.Product("nope"); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got %v", err)
	}
	if _, err := c.Scene("nope"); !errors.Is(err, ErrSceneNotFound) {
		t.Errorf("Expected ErrSceneNotFound, got %v", err)
	}
}

func TestNewMemoryCatalog_Rejects(t *testing.T) {
	badTimes := newTestScene("bad", "ndvi", "2024-01-02T00:00:00Z", "2024-01-01T00:00:00Z", NewBBox(0, 0, 1, 1))
	badBBox := newTestScene("bad", "ndvi", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z", NewBBox(2, 0, 1, 1))
	orphan := newTestScene("orphan", "missing", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z", NewBBox(0, 0, 1, 1))
	zeroRes := newTestScene("res", "ndvi", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z", NewBBox(0, 0, 1, 1))
	zero := 0.0
	zeroRes.ResolutionM = &zero
	noTiles := newTestScene("tiles", "ndvi", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z", NewBBox(0, 0, 1, 1))
	noTiles.Assets.PreviewTiles = ""

	tests := []struct {
		name     string
		products []Product
		scenes   []Scene
		wantErr  string
	}{
		{"start after end", testProducts(), []Scene{badTimes}, "after datetime_end"},
		{"inverted bbox", testProducts(), []Scene{badBBox}, "invalid bbox"},
		{"unknown product", testProducts(), []Scene{orphan}, "unknown product"},
		{"non positive resolution", testProducts(), []Scene{zeroRes}, "resolution_m"},
		{"missing preview tiles", testProducts(), []Scene{noTiles}, "preview_tiles"},
		{"duplicate scene", testProducts(), []Scene{testScenes()[0], testScenes()[0]}, "already exists"},
		{"duplicate product", append(testProducts(), testProducts()[0]), nil, "already exists"},
		{"unknown product type", []Product{{ProductID: "x", Kind: "raster"}}, nil, "unknown type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMemoryCatalog(tt.products, tt.scenes)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMemoryCatalog_SearchNormalizes(t *testing.T) {
	c, err := NewMemoryCatalog(testProducts(), testScenes())
	if err != nil {
		t.Fatalf("NewMemoryCatalog failed: %v", err)
	}

	result, err := c.Search(context.Background(), Query{Page: -1, Limit: 9999})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Page != 1 || result.Limit != 20 {
		t.Errorf("Expected normalized page 1 limit 20, got %d %d", result.Page, result.Limit)
	}
	if result.Total != 4 {
		t.Errorf("Expected total 4, got %d", result.Total)
	}
}

func TestMemoryCatalog_CanceledContext(t *testing.T) {
	c, _ := NewMemoryCatalog(testProducts(), testScenes())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Search(ctx, Query{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if _, err := c.ListProducts(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestFindProduct(t *testing.T) {
	c, _ := NewMemoryCatalog(testProducts(), testScenes())

	p, err := FindProduct(context.Background(), c, "ndvi")
	if err != nil || p.ProductID != "ndvi" {
		t.Errorf("Expected ndvi, got %+v (%v)", p, err)
	}
	if _, err := FindProduct(context.Background(), c, "x"); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got %v", err)
	}
}

func TestScene_Geometry(t *testing.T) {
	s := newTestScene("g", "ndvi", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z", NewBBox(1, 2, 3, 4))

	poly, ok := s.Geometry().(orb.Polygon)
	if !ok {
		t.Fatalf("Expected bbox fallback to be a polygon, got %T", s.Geometry())
	}
	want := orb.Ring{{1, 2}, {3, 2}, {3, 4}, {1, 4}, {1, 2}}
	if !poly[0].Equal(want) {
		t.Errorf("Expected ring %v, got %v", want, poly[0])
	}

	var withFootprint Scene
	data := `{"scene_uid":"f","product_id":"ndvi","title":"f","datetime_start":"2024-01-01T00:00:00Z",
		"datetime_end":"2024-01-01T00:00:00Z","sensors":[],"bbox":[0,0,2,2],
		"footprint":{"type":"Polygon","coordinates":[[[0,0],[2,1],[1,2],[0,0]]]},
		"assets":{"preview_tiles":"/t/{z}/{x}/{y}.png"}}`
	if err := json.Unmarshal([]byte(data), &withFootprint); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if err := withFootprint.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	fp, ok := withFootprint.Geometry().(orb.Polygon)
	if !ok || len(fp[0]) != 4 {
		t.Errorf("Expected footprint polygon with 4 points, got %v", withFootprint.Geometry())
	}
}

func TestBBox_UnmarshalRequiresFourValues(t *testing.T) {
	var b BBox
	if err := json.Unmarshal([]byte(`[1,2,3]`), &b); err == nil {
		t.Error("Expected error for 3-value bbox")
	}
	if err := json.Unmarshal([]byte(`[1,2,3,4]`), &b); err != nil || b != NewBBox(1, 2, 3, 4) {
		t.Errorf("Expected [1 2 3 4], got %v (%v)", b, err)
	}
}

func TestBBox_Normalize(t *testing.T) {
	got := NewBBox(3, 4, 1, 2).Normalize()
	if got != NewBBox(1, 2, 3, 4) {
		t.Errorf("Expected [1 2 3 4], got %v", got)
	}
}
