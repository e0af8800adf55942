package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitecraft/backend/internal/model"
)

// PgReplyRepository is the PostgreSQL implementation of ReplyRepository.
type PgReplyRepository struct {
	pool *pgxpool.Pool
}

// NewPgReplyRepository creates a PgReplyRepository backed by the given pool.
func NewPgReplyRepository(pool *pgxpool.Pool) *PgReplyRepository {
	return &PgReplyRepository{pool: pool}
}

var _ ReplyRepository = (*PgReplyRepository)(nil)

// Create inserts the reply and marks its inquiry replied in one transaction.
// A missing inquiry yields ErrNotFound and nothing is written.
func (r *PgReplyRepository) Create(ctx context.Context, reply *model.Reply) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE inquiries SET status = $1, updated_at = NOW() WHERE id = $2`,
		model.InquiryStatusReplied, reply.InquiryID,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO inquiry_replies (inquiry_id, body, sent_by, attachment_path, attachment_name, attachment_size)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6::bigint, 0))
		 RETURNING id, sent_at`,
		reply.InquiryID, reply.Body, reply.SentBy, reply.AttachmentPath, reply.AttachmentName, reply.AttachmentSize,
	).Scan(&reply.ID, &reply.SentAt)
	if err != nil {
		return mapError(err)
	}
	return tx.Commit(ctx)
}

// ListByInquiry returns the replies to one inquiry, oldest first.
func (r *PgReplyRepository) ListByInquiry(ctx context.Context, inquiryID string) ([]*model.Reply, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, inquiry_id, body, sent_by, COALESCE(attachment_path, ''), COALESCE(attachment_name, ''),
		        COALESCE(attachment_size, 0), sent_at
		 FROM inquiry_replies WHERE inquiry_id = $1 ORDER BY sent_at`,
		inquiryID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	replies := []*model.Reply{}
	for rows.Next() {
		var rp model.Reply
		if err := rows.Scan(&rp.ID, &rp.InquiryID, &rp.Body, &rp.SentBy, &rp.AttachmentPath, &rp.AttachmentName,
			&rp.AttachmentSize, &rp.SentAt); err != nil {
			return nil, err
		}
		replies = append(replies, &rp)
	}
	return replies, rows.Err()
}
