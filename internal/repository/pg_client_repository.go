package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitecraft/backend/internal/model"
)

const clientCols = `id, name, COALESCE(logo_url, ''), COALESCE(website_url, ''), COALESCE(category, ''),
	display_order, is_active, created_at, updated_at`

func scanClient(scan func(...any) error) (*model.Client, error) {
	var c model.Client
	if err := scan(&c.ID, &c.Name, &c.LogoURL, &c.WebsiteURL, &c.Category,
		&c.DisplayOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// PgClientRepository は clients テーブルの PostgreSQL 実装
type PgClientRepository struct {
	contentTable[model.Client]
}

// NewPgClientRepository は PgClientRepository を生成する
func NewPgClientRepository(pool *pgxpool.Pool) *PgClientRepository {
	return &PgClientRepository{contentTable[model.Client]{pool: pool, table: "clients", cols: clientCols, scan: scanClient}}
}

var _ ContentRepository[model.Client] = (*PgClientRepository)(nil)

func (r *PgClientRepository) List(ctx context.Context, opts model.ContentListOptions) ([]*model.Client, error) {
	return r.list(ctx, opts)
}

func (r *PgClientRepository) GetByID(ctx context.Context, id string) (*model.Client, error) {
	return r.getBy(ctx, "id", id)
}

func (r *PgClientRepository) Create(ctx context.Context, c *model.Client) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO clients (name, logo_url, website_url, category, display_order, is_active)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, $6)
		 RETURNING id, created_at, updated_at`,
		c.Name, c.LogoURL, c.WebsiteURL, c.Category, c.DisplayOrder, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapError(err)
}

func (r *PgClientRepository) Update(ctx context.Context, c *model.Client) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE clients SET name = $1, logo_url = NULLIF($2, ''), website_url = NULLIF($3, ''),
		   category = NULLIF($4, ''), display_order = $5, is_active = $6, updated_at = NOW()
		 WHERE id = $7
		 RETURNING created_at, updated_at`,
		c.Name, c.LogoURL, c.WebsiteURL, c.Category, c.DisplayOrder, c.IsActive, c.ID,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return mapError(err)
}

func (r *PgClientRepository) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, id)
}

func (r *PgClientRepository) Reorder(ctx context.Context, ids []string) error {
	return r.reorder(ctx, ids)
}
