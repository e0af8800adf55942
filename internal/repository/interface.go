package repository

import (
	"context"

	"github.com/sitecraft/backend/internal/model"
)

// DB は DB 接続の生存確認を行うインターフェース
type DB interface {
	Ping(ctx context.Context) error
}

// InquiryRepository persists contact form submissions.
type InquiryRepository interface {
	Save(ctx context.Context, inq *model.Inquiry) error
	GetByID(ctx context.Context, id string) (*model.Inquiry, error)
	List(ctx context.Context, opts model.InquiryListOptions) ([]*model.Inquiry, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
	Counts(ctx context.Context) (*model.InquiryCounts, error)
}

// ReplyRepository persists admin replies to inquiries.
type ReplyRepository interface {
	// Create stores the reply and moves the inquiry to "replied" in one transaction.
	Create(ctx context.Context, reply *model.Reply) error
	ListByInquiry(ctx context.Context, inquiryID string) ([]*model.Reply, error)
}

// ContentRepository is the CRUD surface shared by the catalog tables.
type ContentRepository[T any] interface {
	List(ctx context.Context, opts model.ContentListOptions) ([]*T, error)
	GetByID(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, item *T) error
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, id string) error
	// Reorder sets display_order to each id's index in ids.
	Reorder(ctx context.Context, ids []string) error
}

// SlugFinder is implemented by catalog tables addressed publicly by slug.
type SlugFinder[T any] interface {
	GetBySlug(ctx context.Context, slug string) (*T, error)
}

// SettingRepository persists site_settings.
type SettingRepository interface {
	All(ctx context.Context) (model.Settings, error)
	Upsert(ctx context.Context, values model.Settings) error
}

// AdminUserRepository persists admin panel accounts.
type AdminUserRepository interface {
	FindByID(ctx context.Context, id string) (*model.AdminUser, error)
	FindByEmail(ctx context.Context, email string) (*model.AdminUser, error)
	Create(ctx context.Context, user *model.AdminUser) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	TouchLogin(ctx context.Context, id string) error
}
