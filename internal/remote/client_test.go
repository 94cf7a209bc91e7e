package remote

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
)

func TestClient_ListProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET request, got %s", r.Method)
		}
		if r.URL.Path != "/api/products" {
			t.Errorf("Expected path /api/products, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"products":[{"product_id":"ndvi","name":"NDVI","type":"continuous"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", 5*time.Second)

	products, err := client.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(products) != 1 || products[0].ProductID != "ndvi" || products[0].Kind != catalog.KindContinuous {
		t.Errorf("unexpected products %+v", products)
	}
}

func TestClient_Search(t *testing.T) {
	var captured map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if r.URL.Path != "/api/scenes-search" {
			t.Errorf("Expected path /api/scenes-search, got %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %s", ct)
		}
		json.NewDecoder(r.Body).Decode(&captured)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"total":41,"page":3,"limit":20,"items":[{
			"scene_uid":"s1","product_id":"ndvi","title":"S1",
			"datetime_start":"2024-01-05T00:00:00Z","datetime_end":"2024-01-05T00:10:00Z",
			"sensors":["MSI"],"bbox":[126,35,127,36],
			"assets":{"preview_tiles":"/tiles/s1/{z}/{x}/{y}.png"}}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second).WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	roi := catalog.NewBBox(126.5, 36, 127.5, 37)
	result, err := client.Search(context.Background(), catalog.Query{
		ProductID: "ndvi",
		DateStart: "2024-01-01",
		ROI:       &roi,
		Page:      3,
		Limit:     500,
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if captured["product_id"] != "ndvi" || captured["date_start"] != "2024-01-01" {
		t.Errorf("unexpected request filters %v", captured)
	}
	if captured["limit"] != float64(catalog.DefaultLimit) {
		t.Errorf("expected normalized limit in request, got %v", captured["limit"])
	}
	if _, ok := captured["date_end"]; ok {
		t.Error("expected unset date_end to be omitted")
	}
	if bbox, ok := captured["roi_bbox"].([]any); !ok || len(bbox) != 4 {
		t.Errorf("expected roi_bbox array, got %v", captured["roi_bbox"])
	}

	if result.Total != 41 || result.Page != 3 || len(result.Items) != 1 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Items[0].BBox != catalog.NewBBox(126, 35, 127, 36) {
		t.Errorf("unexpected bbox %v", result.Items[0].BBox)
	}
}

func TestClient_EmptyItemsNeverNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"total":0,"page":1,"limit":20}`)
	}))
	defer server.Close()

	result, err := NewClient(server.URL, 5*time.Second).Search(context.Background(), catalog.Query{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Items == nil {
		t.Error("expected empty, non-nil items")
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantSubstr string
	}{
		{"server error", http.StatusInternalServerError, "boom", "status 500"},
		{"bad gateway", http.StatusBadGateway, `{"code":"UpstreamServiceError"}`, "status 502"},
		{"malformed body", http.StatusOK, "not json", "failed to decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, err := NewClient(server.URL, 5*time.Second).ListProducts(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSubstr) {
				t.Errorf("expected error containing %q, got %v", tt.wantSubstr, err)
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, 20*time.Millisecond).ListProducts(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestClient_Name(t *testing.T) {
	if got := NewClient("http://example.com", time.Second).Name(); got != "remote" {
		t.Errorf("expected remote, got %s", got)
	}
}
