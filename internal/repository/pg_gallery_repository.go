package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitecraft/backend/internal/model"
)

const galleryCols = `id, title, image_url, COALESCE(category, ''), COALESCE(caption, ''),
	display_order, is_active, created_at, updated_at`

func scanGalleryItem(scan func(...any) error) (*model.GalleryItem, error) {
	var g model.GalleryItem
	if err := scan(&g.ID, &g.Title, &g.ImageURL, &g.Category, &g.Caption,
		&g.DisplayOrder, &g.IsActive, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

// PgGalleryRepository は gallery_items テーブルの PostgreSQL 実装
type PgGalleryRepository struct {
	contentTable[model.GalleryItem]
}

// NewPgGalleryRepository は PgGalleryRepository を生成する
func NewPgGalleryRepository(pool *pgxpool.Pool) *PgGalleryRepository {
	return &PgGalleryRepository{contentTable[model.GalleryItem]{pool: pool, table: "gallery_items", cols: galleryCols, scan: scanGalleryItem}}
}

var _ ContentRepository[model.GalleryItem] = (*PgGalleryRepository)(nil)

func (r *PgGalleryRepository) List(ctx context.Context, opts model.ContentListOptions) ([]*model.GalleryItem, error) {
	return r.list(ctx, opts)
}

func (r *PgGalleryRepository) GetByID(ctx context.Context, id string) (*model.GalleryItem, error) {
	return r.getBy(ctx, "id", id)
}

func (r *PgGalleryRepository) Create(ctx context.Context, g *model.GalleryItem) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO gallery_items (title, image_url, category, caption, display_order, is_active)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6)
		 RETURNING id, created_at, updated_at`,
		g.Title, g.ImageURL, g.Category, g.Caption, g.DisplayOrder, g.IsActive,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	return mapError(err)
}

func (r *PgGalleryRepository) Update(ctx context.Context, g *model.GalleryItem) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE gallery_items SET title = $1, image_url = $2, category = NULLIF($3, ''), caption = NULLIF($4, ''),
		   display_order = $5, is_active = $6, updated_at = NOW()
		 WHERE id = $7
		 RETURNING created_at, updated_at`,
		g.Title, g.ImageURL, g.Category, g.Caption, g.DisplayOrder, g.IsActive, g.ID,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
	return mapError(err)
}

func (r *PgGalleryRepository) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, id)
}

func (r *PgGalleryRepository) Reorder(ctx context.Context, ids []string) error {
	return r.reorder(ctx, ids)
}
