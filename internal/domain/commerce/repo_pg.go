package commerce

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// catalogRepoPG is the Postgres-backed catalog used when a DATABASE_URL is
// configured. Purchases stay in memory either way; only the catalog is
// durable.
type catalogRepoPG struct{ pool *pgxpool.Pool }

func NewCatalogRepoPG(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepoPG{pool: pool}
}

func (r *catalogRepoPG) Products(ctx context.Context) ([]*Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT sku, name, description, active, features FROM products ORDER BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.SKU, &p.Name, &p.Description, &p.Active, &p.Features); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *catalogRepoPG) ProductBySKU(ctx context.Context, sku string) (*Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx,
		`SELECT sku, name, description, active, features FROM products WHERE sku = $1`, sku).
		Scan(&p.SKU, &p.Name, &p.Description, &p.Active, &p.Features)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *catalogRepoPG) Prices(ctx context.Context) ([]*Price, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_sku, stripe_price_id, currency, unit_amount, COALESCE(interval, '') FROM prices ORDER BY product_sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Price
	for rows.Next() {
		var p Price
		if err := rows.Scan(&p.ProductSKU, &p.StripePriceID, &p.Currency, &p.UnitAmount, &p.Interval); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *catalogRepoPG) PriceForSKU(ctx context.Context, sku string) (*Price, error) {
	var p Price
	err := r.pool.QueryRow(ctx,
		`SELECT product_sku, stripe_price_id, currency, unit_amount, COALESCE(interval, '') FROM prices WHERE product_sku = $1`, sku).
		Scan(&p.ProductSKU, &p.StripePriceID, &p.Currency, &p.UnitAmount, &p.Interval)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPriceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *catalogRepoPG) Courses(ctx context.Context) ([]*Course, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT slug, title, summary, COALESCE(requires_product_sku, ''), is_free FROM courses ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.Slug, &c.Title, &c.Summary, &c.RequiresProductSKU, &c.IsFree); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *catalogRepoPG) CourseBySlug(ctx context.Context, slug string) (*Course, error) {
	var c Course
	err := r.pool.QueryRow(ctx,
		`SELECT slug, title, summary, COALESCE(requires_product_sku, ''), is_free FROM courses WHERE slug = $1`, slug).
		Scan(&c.Slug, &c.Title, &c.Summary, &c.RequiresProductSKU, &c.IsFree)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *catalogRepoPG) UpsertProduct(ctx context.Context, p *Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (sku, name, description, active, features)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (sku) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			active = EXCLUDED.active,
			features = EXCLUDED.features`,
		p.SKU, p.Name, p.Description, p.Active, p.Features)
	return err
}

func (r *catalogRepoPG) UpsertPrice(ctx context.Context, p *Price) error {
	interval := &p.Interval
	if p.Interval == "" {
		interval = nil
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO prices (product_sku, stripe_price_id, currency, unit_amount, interval)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (stripe_price_id) DO UPDATE SET
			product_sku = EXCLUDED.product_sku,
			currency = EXCLUDED.currency,
			unit_amount = EXCLUDED.unit_amount,
			interval = EXCLUDED.interval`,
		p.ProductSKU, p.StripePriceID, p.Currency, p.UnitAmount, interval)
	return err
}

func (r *catalogRepoPG) UpsertCourse(ctx context.Context, c *Course) error {
	required := &c.RequiresProductSKU
	if c.RequiresProductSKU == "" {
		required = nil
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO courses (slug, title, summary, requires_product_sku, is_free)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			requires_product_sku = EXCLUDED.requires_product_sku,
			is_free = EXCLUDED.is_free`,
		c.Slug, c.Title, c.Summary, required, c.IsFree)
	return err
}
