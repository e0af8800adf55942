package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitecraft/backend/internal/model"
)

const projectCols = `id, title, COALESCE(client_name, ''), COALESCE(category, ''), description,
	COALESCE(image_url, ''), COALESCE(location, ''), completed_on, featured, display_order, is_active,
	created_at, updated_at`

func scanProject(scan func(...any) error) (*model.Project, error) {
	var p model.Project
	if err := scan(&p.ID, &p.Title, &p.ClientName, &p.Category, &p.Description,
		&p.ImageURL, &p.Location, &p.CompletedOn, &p.Featured, &p.DisplayOrder, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// PgProjectRepository は projects（施工実績）テーブルの PostgreSQL 実装
type PgProjectRepository struct {
	contentTable[model.Project]
}

// NewPgProjectRepository は PgProjectRepository を生成する
func NewPgProjectRepository(pool *pgxpool.Pool) *PgProjectRepository {
	return &PgProjectRepository{contentTable[model.Project]{pool: pool, table: "projects", cols: projectCols, scan: scanProject}}
}

var _ ContentRepository[model.Project] = (*PgProjectRepository)(nil)

// List はプロジェクト一覧を取得する
func (r *PgProjectRepository) List(ctx context.Context, opts model.ContentListOptions) ([]*model.Project, error) {
	return r.list(ctx, opts)
}

// GetByID は ID でプロジェクトを取得する
func (r *PgProjectRepository) GetByID(ctx context.Context, id string) (*model.Project, error) {
	return r.getBy(ctx, "id", id)
}

// Create はプロジェクトを作成する
func (r *PgProjectRepository) Create(ctx context.Context, p *model.Project) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO projects (title, client_name, category, description, image_url, location, completed_on,
		   featured, display_order, is_active)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		p.Title, p.ClientName, p.Category, p.Description, p.ImageURL, p.Location, p.CompletedOn,
		p.Featured, p.DisplayOrder, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapError(err)
}

// Update はプロジェクトを更新する。対象が存在しない場合は ErrNotFound を返す
func (r *PgProjectRepository) Update(ctx context.Context, p *model.Project) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE projects SET title = $1, client_name = NULLIF($2, ''), category = NULLIF($3, ''), description = $4,
		   image_url = NULLIF($5, ''), location = NULLIF($6, ''), completed_on = $7, featured = $8,
		   display_order = $9, is_active = $10, updated_at = NOW()
		 WHERE id = $11
		 RETURNING created_at, updated_at`,
		p.Title, p.ClientName, p.Category, p.Description, p.ImageURL, p.Location, p.CompletedOn,
		p.Featured, p.DisplayOrder, p.IsActive, p.ID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapError(err)
}

// Delete はプロジェクトを削除する。対象が存在しない場合は ErrNotFound を返す
func (r *PgProjectRepository) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, id)
}

// Reorder は ids の順序で display_order を更新する
func (r *PgProjectRepository) Reorder(ctx context.Context, ids []string) error {
	return r.reorder(ctx, ids)
}
