package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitecraft/backend/internal/model"
)

// PgSettingRepository は site_settings の PostgreSQL 実装
type PgSettingRepository struct {
	pool *pgxpool.Pool
}

// NewPgSettingRepository は PgSettingRepository を生成する
func NewPgSettingRepository(pool *pgxpool.Pool) *PgSettingRepository {
	return &PgSettingRepository{pool: pool}
}

var _ SettingRepository = (*PgSettingRepository)(nil)

// All は全設定を返す
func (r *PgSettingRepository) All(ctx context.Context) (model.Settings, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM site_settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := model.Settings{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// Upsert は values の全キーを 1 トランザクションで保存する
func (r *PgSettingRepository) Upsert(ctx context.Context, values model.Settings) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for k, v := range values {
		if _, err := tx.Exec(ctx,
			`INSERT INTO site_settings (key, value) VALUES ($1, $2)
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
			k, v,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
