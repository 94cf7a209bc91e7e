package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
)

// Catalog is a catalog.Catalog backed by Postgres. Filters, ordering, and
// pagination are pushed into SQL and match catalog.Search exactly.
type Catalog struct {
	db     *bun.DB
	logger *slog.Logger
}

// New creates a Postgres catalog on an open database handle.
func New(db *bun.DB, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		db:     db,
		logger: logger.With("component", "postgres-catalog"),
	}
}

// Name implements catalog.Catalog.
func (c *Catalog) Name() string {
	return "postgres"
}

// ListProducts implements catalog.Catalog.
func (c *Catalog) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var rows []productRow
	if err := c.db.NewSelect().Model(&rows).OrderExpr("p.seq ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]catalog.Product, 0, len(rows))
	for i := range rows {
		products = append(products, rows[i].toProduct())
	}
	return products, nil
}

// Search implements catalog.Catalog. The query is normalized before use.
func (c *Catalog) Search(ctx context.Context, q catalog.Query) (*catalog.SearchResult, error) {
	q = q.Normalize()

	var rows []sceneRow
	total, err := c.searchQuery(q, &rows).ScanAndCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search scenes: %w", err)
	}

	c.logger.DebugContext(ctx, "scene search",
		"product_id", q.ProductID,
		"page", q.Page,
		"limit", q.Limit,
		"total", total,
	)

	items := make([]catalog.Scene, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].toScene())
	}

	return &catalog.SearchResult{
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
		Items: items,
	}, nil
}

// searchQuery builds the filtered, ordered, paginated select for q.
// Timestamps sort with the C collation so ordering is bytewise, like the
// string comparison of the in-memory engine.
func (c *Catalog) searchQuery(q catalog.Query, dest *[]sceneRow) *bun.SelectQuery {
	sq := c.db.NewSelect().Model(dest)

	if q.ProductID != "" {
		sq = sq.Where("s.product_id = ?", q.ProductID)
	}
	if q.DateStart != "" {
		sq = sq.Where("left(s.time_end, 10) >= ?", q.DateStart)
	}
	if q.DateEnd != "" {
		sq = sq.Where("left(s.time_start, 10) <= ?", q.DateEnd)
	}
	if q.ROI != nil {
		roi := *q.ROI
		sq = sq.
			Where("s.min_lon <= ?", roi.MaxLon()).
			Where("s.max_lon >= ?", roi.MinLon()).
			Where("s.min_lat <= ?", roi.MaxLat()).
			Where("s.max_lat >= ?", roi.MinLat())
	}

	return sq.
		OrderExpr(`s.time_start COLLATE "C" DESC`).
		OrderExpr("s.seq ASC").
		Limit(q.Limit).
		Offset(q.Offset())
}

// CreateSchema creates the catalog tables and indexes if they do not exist.
func (c *Catalog) CreateSchema(ctx context.Context) error {
	if _, err := c.db.NewCreateTable().
		Model((*productRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create products table: %w", err)
	}

	if _, err := c.db.NewCreateTable().
		Model((*sceneRow)(nil)).
		IfNotExists().
		ForeignKey(`("product_id") REFERENCES "products" ("product_id")`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create scenes table: %w", err)
	}

	indexes := map[string]string{
		"scenes_product_id_idx": "product_id",
		"scenes_time_start_idx": "time_start",
	}
	for name, column := range indexes {
		if _, err := c.db.NewCreateIndex().
			Model((*sceneRow)(nil)).
			Index(name).
			Column(column).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create index %s: %w", name, err)
		}
	}

	return nil
}

// IsEmpty reports whether the catalog has no products.
func (c *Catalog) IsEmpty(ctx context.Context) (bool, error) {
	exists, err := c.db.NewSelect().Model((*productRow)(nil)).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check catalog contents: %w", err)
	}
	return !exists, nil
}

// Seed replaces the catalog contents with products and scenes in one
// transaction. The input is validated the same way as an in-memory catalog
// and slice order becomes catalog order.
func (c *Catalog) Seed(ctx context.Context, products []catalog.Product, scenes []catalog.Scene) error {
	if _, err := catalog.NewMemoryCatalog(products, scenes); err != nil {
		return fmt.Errorf("invalid seed data: %w", err)
	}

	productRows := make([]productRow, 0, len(products))
	for i, p := range products {
		productRows = append(productRows, productToRow(p, i))
	}
	sceneRows := make([]sceneRow, 0, len(scenes))
	for i, s := range scenes {
		sceneRows = append(sceneRows, sceneToRow(s, i))
	}

	err := c.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewTruncateTable().Model((*sceneRow)(nil)).Exec(ctx); err != nil {
			return fmt.Errorf("failed to truncate scenes: %w", err)
		}
		if _, err := tx.NewTruncateTable().Model((*productRow)(nil)).Cascade().Exec(ctx); err != nil {
			return fmt.Errorf("failed to truncate products: %w", err)
		}

		if len(productRows) > 0 {
			if _, err := tx.NewInsert().Model(&productRows).Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert products: %w", err)
			}
		}
		if len(sceneRows) > 0 {
			if _, err := tx.NewInsert().Model(&sceneRows).Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert scenes: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "catalog seeded",
		"products", len(products),
		"scenes", len(scenes),
	)
	return nil
}
