package service

import (
	"context"
	"io"

	"github.com/sitecraft/backend/internal/model"
)

// Notifier delivers inquiry mail. *mailer.Mailer satisfies it.
type Notifier interface {
	NotifyAdmin(ctx context.Context, inq *model.Inquiry) error
	SendReply(ctx context.Context, toAddress, toName, subject, replyBody string, original *model.Inquiry) error
}

// Attachment is a file uploaded with an admin reply.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// ReplyInput is an admin reply to one inquiry.
type ReplyInput struct {
	InquiryID  string
	Body       string
	SentBy     string
	Attachment *Attachment
}

// InquiryService defines the business logic for the contact form and the admin inbox.
type InquiryService interface {
	// Submit validates and stores a contact form submission, then notifies the
	// admin. A delivery failure is logged and reported as notified=false; it
	// never fails the submission.
	Submit(ctx context.Context, inq *model.Inquiry) (notified bool, err error)

	List(ctx context.Context, opts model.InquiryListOptions) ([]*model.Inquiry, error)

	// Get returns the inquiry with its replies. Opening a new inquiry marks it read.
	Get(ctx context.Context, id string) (*model.Inquiry, error)

	UpdateStatus(ctx context.Context, id, status string) error

	// Reply mails the reply first and persists it only after the relay accepted it.
	Reply(ctx context.Context, in ReplyInput) (*model.Reply, error)

	Delete(ctx context.Context, id string) error
	Counts(ctx context.Context) (*model.InquiryCounts, error)
}
