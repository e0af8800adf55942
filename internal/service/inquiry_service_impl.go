package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sitecraft/backend/internal/metrics"
	"github.com/sitecraft/backend/internal/model"
	"github.com/sitecraft/backend/internal/repository"
	"github.com/sitecraft/backend/internal/storage"
)

const (
	// DefaultInquirySubject is used when the form leaves the subject blank.
	DefaultInquirySubject = "Website inquiry"

	maxNameLength    = 200
	maxSubjectLength = 200
	maxMessageLength = 5000
	maxPhoneLength   = 40
	maxReplyLength   = 20000

	defaultListLimit = 20
	maxListLimit     = 100

	// MaxAttachmentBytes caps a reply attachment.
	MaxAttachmentBytes = 5 << 20
)

// inquiryServiceImpl is the production implementation of InquiryService.
type inquiryServiceImpl struct {
	inquiries repository.InquiryRepository
	replies   repository.ReplyRepository
	notifier  Notifier
	files     storage.Storage
}

// NewInquiryService creates an InquiryService. notifier may be nil when mail
// is not configured; files may be nil when attachments are not accepted.
func NewInquiryService(inquiries repository.InquiryRepository, replies repository.ReplyRepository, notifier Notifier, files storage.Storage) InquiryService {
	return &inquiryServiceImpl{inquiries: inquiries, replies: replies, notifier: notifier, files: files}
}

// Submit stores a new inquiry with status "new" and timestamps set, then
// notifies the admin.
func (s *inquiryServiceImpl) Submit(ctx context.Context, inq *model.Inquiry) (bool, error) {
	if err := normalizeInquiry(inq); err != nil {
		return false, err
	}

	now := time.Now().UTC()
	inq.Status = model.InquiryStatusNew
	inq.CreatedAt = now
	inq.UpdatedAt = now
	if err := s.inquiries.Save(ctx, inq); err != nil {
		return false, fmt.Errorf("save inquiry: %w", err)
	}
	metrics.IncrementInquirySubmitted()

	if s.notifier == nil {
		slog.Warn("inquiry stored without notification: mail disabled", "inquiry_id", inq.ID)
		return false, nil
	}
	if err := s.notifier.NotifyAdmin(ctx, inq); err != nil {
		slog.Error("inquiry notification failed", "inquiry_id", inq.ID, "error", err)
		return false, nil
	}
	return true, nil
}

func normalizeInquiry(inq *model.Inquiry) error {
	inq.Name = strings.TrimSpace(inq.Name)
	inq.Email = strings.TrimSpace(inq.Email)
	inq.Phone = strings.TrimSpace(inq.Phone)
	inq.Subject = strings.TrimSpace(inq.Subject)
	inq.Message = strings.TrimSpace(inq.Message)

	switch {
	case inq.Name == "":
		return invalid("name", "required")
	case utf8.RuneCountInString(inq.Name) > maxNameLength:
		return invalid("name", "too_long")
	case inq.Email == "":
		return invalid("email", "required")
	case !validEmail(inq.Email):
		return invalid("email", "invalid")
	case inq.Message == "":
		return invalid("message", "required")
	case utf8.RuneCountInString(inq.Message) > maxMessageLength:
		return invalid("message", "too_long")
	case utf8.RuneCountInString(inq.Subject) > maxSubjectLength:
		return invalid("subject", "too_long")
	case inq.Phone != "" && !validPhone(inq.Phone):
		return invalid("phone", "invalid")
	}
	if inq.Subject == "" {
		inq.Subject = DefaultInquirySubject
	}
	return nil
}

// validEmail accepts a bare addr-spec only; display-name forms are rejected.
func validEmail(s string) bool {
	if strings.ContainsAny(s, "\r\n<> ") {
		return false
	}
	a, err := mail.ParseAddress(s)
	if err != nil || a.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}

func validPhone(s string) bool {
	if len(s) > maxPhoneLength {
		return false
	}
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune(" +-().", r):
		default:
			return false
		}
	}
	return digits >= 5
}

// List returns inquiries according to the given filter/pagination options.
func (s *inquiryServiceImpl) List(ctx context.Context, opts model.InquiryListOptions) ([]*model.Inquiry, error) {
	if opts.Status == "all" {
		opts.Status = ""
	}
	if opts.Status != "" && !model.ValidInquiryStatus(opts.Status) {
		return nil, invalid("status", "invalid")
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	if opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	list, err := s.inquiries.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*model.Inquiry{}
	}
	return list, nil
}

func (s *inquiryServiceImpl) Get(ctx context.Context, id string) (*model.Inquiry, error) {
	inq, err := s.inquiries.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if inq.Status == model.InquiryStatusNew {
		if err := s.inquiries.UpdateStatus(ctx, id, model.InquiryStatusRead); err != nil {
			slog.Warn("mark inquiry read failed", "inquiry_id", id, "error", err)
		} else {
			inq.Status = model.InquiryStatusRead
		}
	}
	replies, err := s.replies.ListByInquiry(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	if replies == nil {
		replies = []*model.Reply{}
	}
	inq.Replies = replies
	return inq, nil
}

func (s *inquiryServiceImpl) UpdateStatus(ctx context.Context, id, status string) error {
	if !model.ValidInquiryStatus(status) {
		return invalid("status", "invalid")
	}
	return mapRepoErr(s.inquiries.UpdateStatus(ctx, id, status))
}

func (s *inquiryServiceImpl) Reply(ctx context.Context, in ReplyInput) (*model.Reply, error) {
	body := strings.TrimSpace(in.Body)
	switch {
	case body == "":
		return nil, invalid("body", "required")
	case utf8.RuneCountInString(body) > maxReplyLength:
		return nil, invalid("body", "too_long")
	}
	if in.Attachment != nil {
		if s.files == nil {
			return nil, invalid("attachment", "unsupported")
		}
		if in.Attachment.Size > MaxAttachmentBytes {
			return nil, invalid("attachment", "too_large")
		}
	}

	inq, err := s.inquiries.GetByID(ctx, in.InquiryID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if s.notifier == nil {
		return nil, fmt.Errorf("%w: mail is not configured", ErrMailFailed)
	}

	if err := s.notifier.SendReply(ctx, inq.Email, inq.Name, inq.Subject, body, inq); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMailFailed, err)
	}

	reply := &model.Reply{
		InquiryID: inq.ID,
		Body:      body,
		SentBy:    strings.TrimSpace(in.SentBy),
	}
	if reply.SentBy == "" {
		reply.SentBy = "admin"
	}

	var key string
	if a := in.Attachment; a != nil {
		key = storage.NewKey(path.Join("replies", inq.ID), a.Filename)
		if _, err := s.files.Save(ctx, key, a.Data, a.ContentType); err != nil {
			// the mail is already out; keep the record without the file
			slog.Error("store reply attachment failed", "inquiry_id", inq.ID, "error", err)
			key = ""
		} else {
			reply.AttachmentPath = key
			reply.AttachmentName = path.Base(strings.ReplaceAll(a.Filename, `\`, "/"))
			reply.AttachmentSize = a.Size
		}
	}

	if err := s.replies.Create(ctx, reply); err != nil {
		if key != "" {
			_ = s.files.Delete(ctx, key)
		}
		slog.Error("reply sent but not recorded", "inquiry_id", inq.ID, "error", err)
		return nil, mapRepoErr(err)
	}
	return reply, nil
}

func (s *inquiryServiceImpl) Delete(ctx context.Context, id string) error {
	return mapRepoErr(s.inquiries.Delete(ctx, id))
}

func (s *inquiryServiceImpl) Counts(ctx context.Context) (*model.InquiryCounts, error) {
	return s.inquiries.Counts(ctx)
}

// IsMailFailure reports whether err came from reply delivery.
func IsMailFailure(err error) bool {
	return errors.Is(err, ErrMailFailed)
}
