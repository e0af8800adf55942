package service

import (
	"context"
	"io"

	"github.com/sitecraft/backend/internal/model"
)

// ---------------------------------------------------------------------------
// mockInquiryRepository is an in-memory stub
// ---------------------------------------------------------------------------

type mockInquiryRepository struct {
	saveFunc         func(ctx context.Context, inq *model.Inquiry) error
	getByIDFunc      func(ctx context.Context, id string) (*model.Inquiry, error)
	listFunc         func(ctx context.Context, opts model.InquiryListOptions) ([]*model.Inquiry, error)
	updateStatusFunc func(ctx context.Context, id, status string) error
	deleteFunc       func(ctx context.Context, id string) error
	countsFunc       func(ctx context.Context) (*model.InquiryCounts, error)
}

func (m *mockInquiryRepository) Save(ctx context.Context, inq *model.Inquiry) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, inq)
	}
	inq.ID = "inq-1"
	return nil
}

func (m *mockInquiryRepository) GetByID(ctx context.Context, id string) (*model.Inquiry, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockInquiryRepository) List(ctx context.Context, opts model.InquiryListOptions) ([]*model.Inquiry, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, opts)
	}
	return nil, nil
}

func (m *mockInquiryRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockInquiryRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockInquiryRepository) Counts(ctx context.Context) (*model.InquiryCounts, error) {
	if m.countsFunc != nil {
		return m.countsFunc(ctx)
	}
	return &model.InquiryCounts{}, nil
}

// ---------------------------------------------------------------------------
// mockReplyRepository
// ---------------------------------------------------------------------------

type mockReplyRepository struct {
	createFunc        func(ctx context.Context, reply *model.Reply) error
	listByInquiryFunc func(ctx context.Context, inquiryID string) ([]*model.Reply, error)
}

func (m *mockReplyRepository) Create(ctx context.Context, reply *model.Reply) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, reply)
	}
	reply.ID = "reply-1"
	return nil
}

func (m *mockReplyRepository) ListByInquiry(ctx context.Context, inquiryID string) ([]*model.Reply, error) {
	if m.listByInquiryFunc != nil {
		return m.listByInquiryFunc(ctx, inquiryID)
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// mockNotifier
// ---------------------------------------------------------------------------

type mockNotifier struct {
	notifyAdminFunc func(ctx context.Context, inq *model.Inquiry) error
	sendReplyFunc   func(ctx context.Context, toAddress, toName, subject, replyBody string, original *model.Inquiry) error
}

func (m *mockNotifier) NotifyAdmin(ctx context.Context, inq *model.Inquiry) error {
	if m.notifyAdminFunc != nil {
		return m.notifyAdminFunc(ctx, inq)
	}
	return nil
}

func (m *mockNotifier) SendReply(ctx context.Context, toAddress, toName, subject, replyBody string, original *model.Inquiry) error {
	if m.sendReplyFunc != nil {
		return m.sendReplyFunc(ctx, toAddress, toName, subject, replyBody, original)
	}
	return nil
}

// ---------------------------------------------------------------------------
// mockStorage
// ---------------------------------------------------------------------------

type mockStorage struct {
	saveFunc   func(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	deleteFunc func(ctx context.Context, key string) error
}

func (m *mockStorage) Save(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, key, data, contentType)
	}
	return "/uploads/" + key, nil
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, key)
	}
	return nil
}

// ---------------------------------------------------------------------------
// mockContentRepository
// ---------------------------------------------------------------------------

type mockContentRepository[T any] struct {
	listFunc    func(ctx context.Context, opts model.ContentListOptions) ([]*T, error)
	getByIDFunc func(ctx context.Context, id string) (*T, error)
	createFunc  func(ctx context.Context, item *T) error
	updateFunc  func(ctx context.Context, item *T) error
	deleteFunc  func(ctx context.Context, id string) error
	reorderFunc func(ctx context.Context, ids []string) error
}

func (m *mockContentRepository[T]) List(ctx context.Context, opts model.ContentListOptions) ([]*T, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, opts)
	}
	return nil, nil
}

func (m *mockContentRepository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockContentRepository[T]) Create(ctx context.Context, item *T) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, item)
	}
	return nil
}

func (m *mockContentRepository[T]) Update(ctx context.Context, item *T) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, item)
	}
	return nil
}

func (m *mockContentRepository[T]) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockContentRepository[T]) Reorder(ctx context.Context, ids []string) error {
	if m.reorderFunc != nil {
		return m.reorderFunc(ctx, ids)
	}
	return nil
}

// mockSlugRepository adds GetBySlug to mockContentRepository.
type mockSlugRepository[T any] struct {
	mockContentRepository[T]
	getBySlugFunc func(ctx context.Context, slug string) (*T, error)
}

func (m *mockSlugRepository[T]) GetBySlug(ctx context.Context, slug string) (*T, error) {
	if m.getBySlugFunc != nil {
		return m.getBySlugFunc(ctx, slug)
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// mockSettingRepository
// ---------------------------------------------------------------------------

type mockSettingRepository struct {
	allFunc    func(ctx context.Context) (model.Settings, error)
	upsertFunc func(ctx context.Context, values model.Settings) error
}

func (m *mockSettingRepository) All(ctx context.Context) (model.Settings, error) {
	if m.allFunc != nil {
		return m.allFunc(ctx)
	}
	return nil, nil
}

func (m *mockSettingRepository) Upsert(ctx context.Context, values model.Settings) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, values)
	}
	return nil
}

// ---------------------------------------------------------------------------
// mockAdminUserRepository
// ---------------------------------------------------------------------------

type mockAdminUserRepository struct {
	findByIDFunc       func(ctx context.Context, id string) (*model.AdminUser, error)
	findByEmailFunc    func(ctx context.Context, email string) (*model.AdminUser, error)
	createFunc         func(ctx context.Context, user *model.AdminUser) error
	updatePasswordFunc func(ctx context.Context, id, passwordHash string) error
	touchLoginFunc     func(ctx context.Context, id string) error
}

func (m *mockAdminUserRepository) FindByID(ctx context.Context, id string) (*model.AdminUser, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockAdminUserRepository) FindByEmail(ctx context.Context, email string) (*model.AdminUser, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockAdminUserRepository) Create(ctx context.Context, user *model.AdminUser) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	user.ID = "admin-1"
	return nil
}

func (m *mockAdminUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.updatePasswordFunc != nil {
		return m.updatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *mockAdminUserRepository) TouchLogin(ctx context.Context, id string) error {
	if m.touchLoginFunc != nil {
		return m.touchLoginFunc(ctx, id)
	}
	return nil
}
