package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitecraft/backend/internal/model"
)

// PgAdminUserRepository は AdminUserRepository の PostgreSQL 実装
type PgAdminUserRepository struct {
	pool *pgxpool.Pool
}

// NewPgAdminUserRepository は PgAdminUserRepository を生成する
func NewPgAdminUserRepository(pool *pgxpool.Pool) *PgAdminUserRepository {
	return &PgAdminUserRepository{pool: pool}
}

var _ AdminUserRepository = (*PgAdminUserRepository)(nil)

const adminUserCols = `id, email, name, password_hash, last_login_at, created_at`

func scanAdminUser(scan func(...any) error) (*model.AdminUser, error) {
	var u model.AdminUser
	if err := scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.LastLoginAt, &u.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// FindByID は ID で管理者を取得する
func (r *PgAdminUserRepository) FindByID(ctx context.Context, id string) (*model.AdminUser, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+adminUserCols+` FROM admin_users WHERE id = $1`, id)
	return scanAdminUser(row.Scan)
}

// FindByEmail はメールアドレス（大文字小文字を区別しない）で管理者を取得する
func (r *PgAdminUserRepository) FindByEmail(ctx context.Context, email string) (*model.AdminUser, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+adminUserCols+` FROM admin_users WHERE lower(email) = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	return scanAdminUser(row.Scan)
}

// Create は管理者を作成する。email が重複する場合は ErrConflict を返す
func (r *PgAdminUserRepository) Create(ctx context.Context, user *model.AdminUser) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO admin_users (email, name, password_hash) VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		strings.ToLower(strings.TrimSpace(user.Email)), user.Name, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt)
	return mapError(err)
}

// UpdatePassword はパスワードハッシュを差し替える
func (r *PgAdminUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE admin_users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLogin は最終ログイン日時を記録する
func (r *PgAdminUserRepository) TouchLogin(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE admin_users SET last_login_at = NOW() WHERE id = $1`, id)
	return mapError(err)
}
