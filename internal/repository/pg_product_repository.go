package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitecraft/backend/internal/model"
)

const productCols = `id, name, slug, description, COALESCE(category, ''), COALESCE(image_url, ''),
	price_cents, featured, display_order, is_active, created_at, updated_at`

func scanProduct(scan func(...any) error) (*model.Product, error) {
	var p model.Product
	if err := scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Category, &p.ImageURL,
		&p.PriceCents, &p.Featured, &p.DisplayOrder, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// PgProductRepository は products テーブルの PostgreSQL 実装
type PgProductRepository struct {
	contentTable[model.Product]
}

// NewPgProductRepository は PgProductRepository を生成する
func NewPgProductRepository(pool *pgxpool.Pool) *PgProductRepository {
	return &PgProductRepository{contentTable[model.Product]{pool: pool, table: "products", cols: productCols, scan: scanProduct}}
}

var (
	_ ContentRepository[model.Product] = (*PgProductRepository)(nil)
	_ SlugFinder[model.Product]        = (*PgProductRepository)(nil)
)

func (r *PgProductRepository) List(ctx context.Context, opts model.ContentListOptions) ([]*model.Product, error) {
	return r.list(ctx, opts)
}

func (r *PgProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	return r.getBy(ctx, "id", id)
}

// GetBySlug returns an active product by slug.
func (r *PgProductRepository) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	p, err := r.getBy(ctx, "slug", slug)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrNotFound
	}
	return p, nil
}

func (r *PgProductRepository) Create(ctx context.Context, p *model.Product) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (name, slug, description, category, image_url, price_cents, featured, display_order, is_active)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		p.Name, p.Slug, p.Description, p.Category, p.ImageURL, p.PriceCents, p.Featured, p.DisplayOrder, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapError(err)
}

func (r *PgProductRepository) Update(ctx context.Context, p *model.Product) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE products SET name = $1, slug = $2, description = $3, category = NULLIF($4, ''),
		   image_url = NULLIF($5, ''), price_cents = $6, featured = $7, display_order = $8, is_active = $9,
		   updated_at = NOW()
		 WHERE id = $10
		 RETURNING created_at, updated_at`,
		p.Name, p.Slug, p.Description, p.Category, p.ImageURL, p.PriceCents, p.Featured, p.DisplayOrder, p.IsActive, p.ID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapError(err)
}

func (r *PgProductRepository) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, id)
}

func (r *PgProductRepository) Reorder(ctx context.Context, ids []string) error {
	return r.reorder(ctx, ids)
}
