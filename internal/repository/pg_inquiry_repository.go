package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitecraft/backend/internal/model"
)

// PgInquiryRepository is the PostgreSQL implementation of InquiryRepository.
type PgInquiryRepository struct {
	pool *pgxpool.Pool
}

// NewPgInquiryRepository creates a PgInquiryRepository backed by the given pool.
func NewPgInquiryRepository(pool *pgxpool.Pool) *PgInquiryRepository {
	return &PgInquiryRepository{pool: pool}
}

// Ensure PgInquiryRepository implements InquiryRepository at compile time.
var _ InquiryRepository = (*PgInquiryRepository)(nil)

// Ping checks the connection (DB interface).
func (r *PgInquiryRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

const inquiryCols = `id, name, email, COALESCE(phone, ''), subject, message, status, created_at, updated_at`

func scanInquiry(scan func(...any) error) (*model.Inquiry, error) {
	var q model.Inquiry
	if err := scan(&q.ID, &q.Name, &q.Email, &q.Phone, &q.Subject, &q.Message, &q.Status, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	return &q, nil
}

// Save inserts a new inquiries row and populates inq.ID and timestamps
// from the database RETURNING clause.
func (r *PgInquiryRepository) Save(ctx context.Context, inq *model.Inquiry) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO inquiries (name, email, phone, subject, message, status)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		inq.Name, inq.Email, inq.Phone, inq.Subject, inq.Message, inq.Status,
	).Scan(&inq.ID, &inq.CreatedAt, &inq.UpdatedAt)
}

// GetByID returns one inquiry without its replies.
func (r *PgInquiryRepository) GetByID(ctx context.Context, id string) (*model.Inquiry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+inquiryCols+` FROM inquiries WHERE id = $1`, id)
	inq, err := scanInquiry(row.Scan)
	if err != nil {
		return nil, mapError(err)
	}
	return inq, nil
}

// List returns inquiries filtered by status and paginated by limit/offset,
// newest first. Status "" or "all" returns every inquiry.
func (r *PgInquiryRepository) List(ctx context.Context, opts model.InquiryListOptions) ([]*model.Inquiry, error) {
	var conditions []string
	var args []any

	status := strings.TrimSpace(opts.Status)
	if status != "" && status != "all" {
		args = append(args, status)
		conditions = append(conditions, "status = $1")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	limitArg := strconv.Itoa(len(args) + 1)
	offsetArg := strconv.Itoa(len(args) + 2)
	args = append(args, opts.Limit, opts.Offset)

	query := `SELECT ` + inquiryCols + ` FROM inquiries ` + where +
		` ORDER BY created_at DESC LIMIT $` + limitArg + ` OFFSET $` + offsetArg

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inquiries := []*model.Inquiry{}
	for rows.Next() {
		q, err := scanInquiry(rows.Scan)
		if err != nil {
			return nil, err
		}
		inquiries = append(inquiries, q)
	}
	return inquiries, rows.Err()
}

// UpdateStatus changes the status of an inquiry. The message is never touched.
func (r *PgInquiryRepository) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE inquiries SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an inquiry; its replies go with it (ON DELETE CASCADE).
func (r *PgInquiryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM inquiries WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Counts returns the number of inquiries per status.
func (r *PgInquiryRepository) Counts(ctx context.Context) (*model.InquiryCounts, error) {
	var c model.InquiryCounts
	err := r.pool.QueryRow(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE status = 'new'),
		   COUNT(*) FILTER (WHERE status = 'read'),
		   COUNT(*) FILTER (WHERE status = 'replied'),
		   COUNT(*) FILTER (WHERE status = 'archived'),
		   COUNT(*)
		 FROM inquiries`,
	).Scan(&c.New, &c.Read, &c.Replied, &c.Archived, &c.Total)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
