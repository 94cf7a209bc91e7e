package catalog

import (
	"context"
	"errors"
)

// Catalog is the read-only scene catalog consumed by the search controller
// and the HTTP API. Every implementation must preserve the filter, sort,
// and pagination semantics of Search.
type Catalog interface {
	// ListProducts returns all products in catalog order.
	ListProducts(ctx context.Context) ([]Product, error)

	// Search runs a query and returns one page of results.
	Search(ctx context.Context, q Query) (*SearchResult, error)

	// Name identifies the implementation in logs (e.g. "memory", "postgres").
	Name() string
}

var (
	// ErrProductNotFound is returned when a product id is not in the catalog.
	ErrProductNotFound = errors.New("product not found")

	// ErrSceneNotFound is returned when a scene uid is not in the catalog.
	ErrSceneNotFound = errors.New("scene not found")
)

// FindProduct looks up a product by id through ListProducts.
func FindProduct(ctx context.Context, c Catalog, productID string) (*Product, error) {
	products, err := c.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ProductID == productID {
			return &products[i], nil
		}
	}
	return nil, ErrProductNotFound
}
