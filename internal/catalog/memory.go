package catalog

import (
	"context"
	"fmt"
	"slices"
)

// MemoryCatalog is an immutable, validated in-memory catalog. It is safe
// for concurrent use.
type MemoryCatalog struct {
	products []Product
	scenes   []Scene
	byProd   map[string]int
	byScene  map[string]int
}

// NewMemoryCatalog validates products and scenes and builds a catalog.
// Catalog order (used for sort ties) is the order of the scenes slice.
func NewMemoryCatalog(products []Product, scenes []Scene) (*MemoryCatalog, error) {
	c := &MemoryCatalog{
		products: slices.Clone(products),
		scenes:   slices.Clone(scenes),
		byProd:   make(map[string]int, len(products)),
		byScene:  make(map[string]int, len(scenes)),
	}

	for i, p := range c.products {
		if p.ProductID == "" {
			return nil, fmt.Errorf("product at index %d has no product_id", i)
		}
		if p.Kind != "" && !p.Kind.Valid() {
			return nil, fmt.Errorf("product %q has unknown type %q", p.ProductID, p.Kind)
		}
		if _, exists := c.byProd[p.ProductID]; exists {
			return nil, fmt.Errorf("product with ID %q already exists", p.ProductID)
		}
		c.byProd[p.ProductID] = i
	}

	for i := range c.scenes {
		s := &c.scenes[i]
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, ok := c.byProd[s.ProductID]; !ok {
			return nil, fmt.Errorf("scene %q references unknown product %q", s.SceneUID, s.ProductID)
		}
		if _, exists := c.byScene[s.SceneUID]; exists {
			return nil, fmt.Errorf("scene with UID %q already exists", s.SceneUID)
		}
		c.byScene[s.SceneUID] = i
	}

	return c, nil
}

// Name implements Catalog.
func (c *MemoryCatalog) Name() string {
	return "memory"
}

// ListProducts implements Catalog.
func (c *MemoryCatalog) ListProducts(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(c.products), nil
}

// Search implements Catalog. The query is normalized before evaluation.
func (c *MemoryCatalog) Search(ctx context.Context, q Query) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := Search(c.scenes, q.Normalize())
	return &result, nil
}

// Product returns the product with the given id.
func (c *MemoryCatalog) Product(id string) (*Product, error) {
	i, ok := c.byProd[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	p := c.products[i]
	return &p, nil
}

// Scene returns the scene with the given uid.
func (c *MemoryCatalog) Scene(uid string) (*Scene, error) {
	i, ok := c.byScene[uid]
	if !ok {
		return nil, ErrSceneNotFound
	}
	s := c.scenes[i]
	return &s, nil
}

// Count returns the number of products and scenes.
func (c *MemoryCatalog) Count() (products, scenes int) {
	return len(c.products), len(c.scenes)
}
