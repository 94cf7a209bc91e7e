package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
)

// Handler provides the dependencies needed by tool handlers.
type Handler struct {
	Catalog catalog.Catalog
	Logger  *slog.Logger
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(c catalog.Catalog, logger *slog.Logger) *Handler {
	return &Handler{
		Catalog: c,
		Logger:  logger,
	}
}

// ListProductsInput is empty; the tool takes no arguments.
type ListProductsInput struct{}

// ListProductsOutput defines the output for the list_products tool.
type ListProductsOutput struct {
	Products []catalog.Product `json:"products"`
	Count    int               `json:"count"`
}

// ListProductsTool returns the tool definition for list_products.
func ListProductsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_products",
		Description: "List the imagery products in the catalog. Returns product_id, name, type (continuous, classification, other) and legend_url for each product.",
	}
}

// HandleListProducts handles the list_products tool call.
func (h *Handler) HandleListProducts(ctx context.Context, req *mcp.CallToolRequest, input ListProductsInput) (*mcp.CallToolResult, ListProductsOutput, error) {
	products, err := h.Catalog.ListProducts(ctx)
	if err != nil {
		h.Logger.Error("list_products failed", "error", err)
		return nil, ListProductsOutput{}, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []catalog.Product{}
	}

	return nil, ListProductsOutput{Products: products, Count: len(products)}, nil
}

// SearchScenesInput defines the input for the search_scenes tool.
type SearchScenesInput struct {
	ProductID string    `json:"product_id,omitempty" jsonschema:"Only return scenes of this product"`
	DateStart string    `json:"date_start,omitempty" jsonschema:"Earliest acquisition day, YYYY-MM-DD"`
	DateEnd   string    `json:"date_end,omitempty" jsonschema:"Latest acquisition day, YYYY-MM-DD"`
	ROIBBox   []float64 `json:"roi_bbox,omitempty" jsonschema:"Region of interest as [min_lon, min_lat, max_lon, max_lat]"`
	Page      int       `json:"page,omitempty" jsonschema:"Result page, starting at 1 (default 1)"`
	Limit     int       `json:"limit,omitempty" jsonschema:"Scenes per page, 1 to 200 (default 20)"`
}

// SearchScenesOutput defines the output for the search_scenes tool.
type SearchScenesOutput struct {
	Total  int            `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
	Scenes []SceneSummary `json:"scenes"`
}

// SceneSummary is the part of a scene an agent needs to pick one.
type SceneSummary struct {
	SceneUID    string    `json:"scene_uid"`
	ProductID   string    `json:"product_id"`
	Title       string    `json:"title,omitempty"`
	TimeStart   string    `json:"datetime_start"`
	TimeEnd     string    `json:"datetime_end"`
	Sensors     []string  `json:"sensors,omitempty"`
	ResolutionM *float64  `json:"resolution_m,omitempty"`
	BBox        []float64 `json:"bbox"`
	Quicklook   string    `json:"quicklook,omitempty"`
}

// SearchScenesTool returns the tool definition for search_scenes.
func SearchScenesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_scenes",
		Description: "Search catalog scenes by product_id, acquisition days date_start/date_end (YYYY-MM-DD, inclusive) and roi_bbox. Results are newest first and paged with page and limit. Returns total, page, limit and scenes with scene_uid, product_id, title, datetime_start, datetime_end, sensors, resolution_m, bbox and quicklook.",
	}
}

// HandleSearchScenes handles the search_scenes tool call.
func (h *Handler) HandleSearchScenes(ctx context.Context, req *mcp.CallToolRequest, input SearchScenesInput) (*mcp.CallToolResult, SearchScenesOutput, error) {
	q, err := input.query()
	if err != nil {
		return nil, SearchScenesOutput{}, err
	}

	h.Logger.Info("search_scenes", "product_id", q.ProductID, "page", q.Page, "limit", q.Limit)

	result, err := h.Catalog.Search(ctx, q)
	if err != nil {
		h.Logger.Error("search_scenes failed", "error", err)
		return nil, SearchScenesOutput{}, fmt.Errorf("search failed: %w", err)
	}

	output := SearchScenesOutput{
		Total:  result.Total,
		Page:   result.Page,
		Limit:  result.Limit,
		Scenes: make([]SceneSummary, len(result.Items)),
	}
	for i, s := range result.Items {
		output.Scenes[i] = SceneSummary{
			SceneUID:    s.SceneUID,
			ProductID:   s.ProductID,
			Title:       s.Title,
			TimeStart:   s.TimeStart,
			TimeEnd:     s.TimeEnd,
			Sensors:     s.Sensors,
			ResolutionM: s.ResolutionM,
			BBox:        s.BBox[:],
			Quicklook:   s.Assets.Quicklook,
		}
	}

	h.Logger.Info("search_scenes complete", "total", output.Total, "returned", len(output.Scenes))
	return nil, output, nil
}

// query converts the tool input into a catalog query. Unlike the lenient
// browser endpoint, bad filters are reported back so the caller can fix them.
func (in SearchScenesInput) query() (catalog.Query, error) {
	q := catalog.Query{
		ProductID: in.ProductID,
		Page:      in.Page,
		Limit:     in.Limit,
	}

	for _, d := range []struct {
		name  string
		value string
		dest  *string
	}{
		{"date_start", in.DateStart, &q.DateStart},
		{"date_end", in.DateEnd, &q.DateEnd},
	} {
		if d.value == "" {
			continue
		}
		day, ok := catalog.NormalizeDate(d.value)
		if !ok {
			return catalog.Query{}, fmt.Errorf("invalid %s %q, expected YYYY-MM-DD", d.name, d.value)
		}
		*d.dest = day
	}

	if in.ROIBBox != nil {
		if len(in.ROIBBox) != 4 {
			return catalog.Query{}, fmt.Errorf("roi_bbox must have 4 coordinates, got %d", len(in.ROIBBox))
		}
		roi := catalog.NewBBox(in.ROIBBox[0], in.ROIBBox[1], in.ROIBBox[2], in.ROIBBox[3]).Normalize()
		if err := roi.Validate(); err != nil {
			return catalog.Query{}, fmt.Errorf("invalid roi_bbox: %w", err)
		}
		q.ROI = &roi
	}

	return q.Normalize(), nil
}
