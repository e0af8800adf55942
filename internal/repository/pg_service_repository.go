package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitecraft/backend/internal/model"
)

const serviceCols = `id, title, slug, summary, description, COALESCE(icon, ''), COALESCE(category, ''),
	display_order, is_active, created_at, updated_at`

func scanService(scan func(...any) error) (*model.Service, error) {
	var s model.Service
	if err := scan(&s.ID, &s.Title, &s.Slug, &s.Summary, &s.Description, &s.Icon, &s.Category,
		&s.DisplayOrder, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// PgServiceRepository は services テーブルの PostgreSQL 実装
type PgServiceRepository struct {
	contentTable[model.Service]
}

// NewPgServiceRepository は PgServiceRepository を生成する
func NewPgServiceRepository(pool *pgxpool.Pool) *PgServiceRepository {
	return &PgServiceRepository{contentTable[model.Service]{pool: pool, table: "services", cols: serviceCols, scan: scanService}}
}

var (
	_ ContentRepository[model.Service] = (*PgServiceRepository)(nil)
	_ SlugFinder[model.Service]        = (*PgServiceRepository)(nil)
)

func (r *PgServiceRepository) List(ctx context.Context, opts model.ContentListOptions) ([]*model.Service, error) {
	return r.list(ctx, opts)
}

func (r *PgServiceRepository) GetByID(ctx context.Context, id string) (*model.Service, error) {
	return r.getBy(ctx, "id", id)
}

// GetBySlug returns an active service by slug.
func (r *PgServiceRepository) GetBySlug(ctx context.Context, slug string) (*model.Service, error) {
	s, err := r.getBy(ctx, "slug", slug)
	if err != nil {
		return nil, err
	}
	if !s.IsActive {
		return nil, ErrNotFound
	}
	return s, nil
}

func (r *PgServiceRepository) Create(ctx context.Context, s *model.Service) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO services (title, slug, summary, description, icon, category, display_order, is_active)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8)
		 RETURNING id, created_at, updated_at`,
		s.Title, s.Slug, s.Summary, s.Description, s.Icon, s.Category, s.DisplayOrder, s.IsActive,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return mapError(err)
}

func (r *PgServiceRepository) Update(ctx context.Context, s *model.Service) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE services SET title = $1, slug = $2, summary = $3, description = $4,
		   icon = NULLIF($5, ''), category = NULLIF($6, ''), display_order = $7, is_active = $8, updated_at = NOW()
		 WHERE id = $9
		 RETURNING created_at, updated_at`,
		s.Title, s.Slug, s.Summary, s.Description, s.Icon, s.Category, s.DisplayOrder, s.IsActive, s.ID,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return mapError(err)
}

func (r *PgServiceRepository) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, id)
}

func (r *PgServiceRepository) Reorder(ctx context.Context, ids []string) error {
	return r.reorder(ctx, ids)
}
