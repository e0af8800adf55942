package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitecraft/backend/internal/model"
)

// contentTable holds the queries every catalog table shares. scan reads one
// row in the order of cols.
type contentTable[T any] struct {
	pool  *pgxpool.Pool
	table string
	cols  string
	scan  func(scan func(...any) error) (*T, error)
}

// list returns rows ordered by display_order. Inactive rows are skipped
// unless opts.IncludeInactive is set.
func (t contentTable[T]) list(ctx context.Context, opts model.ContentListOptions) ([]*T, error) {
	var conditions []string
	var args []any

	if !opts.IncludeInactive {
		conditions = append(conditions, "is_active")
	}
	if c := strings.TrimSpace(opts.Category); c != "" {
		args = append(args, c)
		conditions = append(conditions, "category = $"+strconv.Itoa(len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := t.pool.Query(ctx,
		`SELECT `+t.cols+` FROM `+t.table+where+` ORDER BY display_order, created_at`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*T{}
	for rows.Next() {
		item, err := t.scan(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// getBy returns the single row where column = value.
func (t contentTable[T]) getBy(ctx context.Context, column string, value any) (*T, error) {
	row := t.pool.QueryRow(ctx,
		`SELECT `+t.cols+` FROM `+t.table+` WHERE `+column+` = $1`, value)
	item, err := t.scan(row.Scan)
	if err != nil {
		return nil, mapError(err)
	}
	return item, nil
}

func (t contentTable[T]) delete(ctx context.Context, id string) error {
	tag, err := t.pool.Exec(ctx, `DELETE FROM `+t.table+` WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// reorder は ids の順序で display_order を更新する。存在しない id があれば全体をロールバックする
func (t contentTable[T]) reorder(ctx context.Context, ids []string) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, id := range ids {
		tag, err := tx.Exec(ctx,
			`UPDATE `+t.table+` SET display_order = $1, updated_at = NOW() WHERE id = $2`,
			i, id,
		)
		if err != nil {
			return mapError(err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
	}
	return tx.Commit(ctx)
}
