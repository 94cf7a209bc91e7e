package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/planetlabs/go-stac"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
	intstac "github.com/robert-malhotra/scene-browser/internal/stac"
	"github.com/robert-malhotra/scene-browser/internal/translate"
)

// STACPrefix is where the STAC export is mounted.
const STACPrefix = "/stac"

// ConformanceResponse is the body of GET /stac/conformance.
type ConformanceResponse struct {
	ConformsTo []string `json:"conformsTo"`
}

func (h *Handlers) stacRoot() string {
	return strings.TrimRight(h.cfg.STAC.BaseURL, "/") + STACPrefix
}

// STACLandingPage returns the STAC root catalog.
// GET /stac
func (h *Handlers) STACLandingPage(w http.ResponseWriter, r *http.Request) {
	root := h.stacRoot()

	landing := intstac.NewLandingPage(
		"scene-browser",
		h.cfg.STAC.Title,
		h.cfg.STAC.Description,
		h.cfg.STAC.Version,
		intstac.DefaultConformance(),
	)

	landing.AddLink("self", root, intstac.MediaTypeJSON)
	landing.AddLink("root", root, intstac.MediaTypeJSON)
	landing.AddLink("conformance", root+"/conformance", intstac.MediaTypeJSON)
	landing.AddLink("data", root+"/collections", intstac.MediaTypeJSON)
	landing.Links = append(landing.Links, &stac.Link{
		Rel:    "search",
		Href:   root + "/search",
		Type:   intstac.MediaTypeGeoJSON,
		Method: http.MethodGet,
	})

	WriteJSON(w, http.StatusOK, landing)
}

// STACConformance returns the conformance classes of the export.
// GET /stac/conformance
func (h *Handlers) STACConformance(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, ConformanceResponse{ConformsTo: intstac.DefaultConformance()})
}

// STACCollections returns one collection per product.
// GET /stac/collections
func (h *Handlers) STACCollections(w http.ResponseWriter, r *http.Request) {
	root := h.stacRoot()

	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list products",
			slog.String("request_id", GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
		WriteUpstreamError(w, "failed to list collections")
		return
	}

	collections := make([]*stac.Collection, 0, len(products))
	for i := range products {
		scenes, err := h.productScenes(r.Context(), products[i].ProductID)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "failed to compute collection extent",
				slog.String("request_id", GetRequestID(r.Context())),
				slog.String("product_id", products[i].ProductID),
				slog.String("error", err.Error()),
			)
			WriteUpstreamError(w, "failed to list collections")
			return
		}
		collections = append(collections, translate.ProductToCollection(&products[i], scenes, root, h.cfg.STAC.Version))
	}

	response := intstac.NewCollectionsList(collections)
	response.AddLink("self", root+"/collections", intstac.MediaTypeJSON)
	response.AddLink("root", root, intstac.MediaTypeJSON)

	WriteJSON(w, http.StatusOK, response)
}

// STACCollection returns the collection of one product.
// GET /stac/collections/{productId}
func (h *Handlers) STACCollection(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	product, err := catalog.FindProduct(r.Context(), h.catalog, productID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		WriteNotFound(w, "collection not found: "+productID)
		return
	}
	if err != nil {
		WriteUpstreamError(w, "failed to load collection")
		return
	}

	scenes, err := h.productScenes(r.Context(), productID)
	if err != nil {
		WriteUpstreamError(w, "failed to load collection")
		return
	}

	WriteJSON(w, http.StatusOK, translate.ProductToCollection(product, scenes, h.stacRoot(), h.cfg.STAC.Version))
}

// STACItems returns a page of one product's scenes as STAC items.
// GET /stac/collections/{productId}/items
func (h *Handlers) STACItems(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	if _, err := catalog.FindProduct(r.Context(), h.catalog, productID); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			WriteNotFound(w, "collection not found: "+productID)
			return
		}
		WriteUpstreamError(w, "failed to load collection")
		return
	}

	req, err := intstac.ParseSearchRequest(r)
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return
	}
	req.Collection = productID

	h.writeItemCollection(w, r, req, h.stacRoot()+"/collections/"+productID+"/items")
}

// STACSearch searches scenes with STAC query parameters.
// GET /stac/search
func (h *Handlers) STACSearch(w http.ResponseWriter, r *http.Request) {
	req, err := intstac.ParseSearchRequest(r)
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return
	}

	h.writeItemCollection(w, r, req, h.stacRoot()+"/search")
}

func (h *Handlers) writeItemCollection(w http.ResponseWriter, r *http.Request, req *intstac.SearchRequest, selfURL string) {
	root := h.stacRoot()

	result, err := h.catalog.Search(r.Context(), req.Query())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "stac search failed",
			slog.String("request_id", GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
		WriteUpstreamError(w, "search failed")
		return
	}

	items, err := translate.ScenesToItems(result.Items, root, h.cfg.STAC.Version)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to translate scenes",
			slog.String("request_id", GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
		WriteInternalErrorWithRequestID(w, "failed to translate scenes", GetRequestID(r.Context()))
		return
	}

	ic := intstac.NewItemCollection(items, result.Page, result.Limit, result.Total)
	ic.Links = append(ic.Links, intstac.BuildPaginationLinks(intstac.PaginationInfo{
		BaseURL:     selfURL,
		CurrentPage: result.Page,
		Limit:       result.Limit,
		TotalCount:  result.Total,
		QueryParams: r.URL.Query(),
	})...)
	ic.AddLink("root", root, intstac.MediaTypeJSON)

	WriteGeoJSON(w, http.StatusOK, ic)
}

// productScenes pages through every scene of a product.
func (h *Handlers) productScenes(ctx context.Context, productID string) ([]catalog.Scene, error) {
	var scenes []catalog.Scene
	q := catalog.Query{ProductID: productID, Page: 1, Limit: catalog.MaxLimit}
	for {
		result, err := h.catalog.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, result.Items...)
		if len(result.Items) == 0 || len(scenes) >= result.Total {
			return scenes, nil
		}
		q.Page++
	}
}
