package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sitecraft/backend/internal/model"
	"github.com/sitecraft/backend/internal/repository"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Roof Repair":             "roof-repair",
		"  Kitchen & Bath  ":      "kitchen-bath",
		"2024 -- New!! Products":  "2024-new-products",
		"Café Déco":               "caf-d-co",
		"日本語":                     "",
		"already-a-slug":          "already-a-slug",
		"Trailing punctuation...": "trailing-punctuation",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContentService_Create_DerivesSlug(t *testing.T) {
	var created *model.Service
	repo := &mockContentRepository[model.Service]{
		createFunc: func(ctx context.Context, item *model.Service) error {
			created = item
			return nil
		},
	}
	svc := NewContentService[model.Service](repo, ServiceRules)

	if err := svc.Create(context.Background(), &model.Service{Title: " Roof Repair "}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Slug != "roof-repair" || created.Title != "Roof Repair" {
		t.Errorf("created = %+v", created)
	}
}

func TestContentService_Create_Validation(t *testing.T) {
	repo := &mockContentRepository[model.Service]{
		createFunc: func(ctx context.Context, item *model.Service) error {
			t.Error("Create should not be called")
			return nil
		},
	}
	svc := NewContentService[model.Service](repo, ServiceRules)

	tests := []struct {
		item *model.Service
		code string
	}{
		{&model.Service{Title: ""}, "title_required"},
		{&model.Service{Title: "日本語"}, "slug_invalid"},
		{&model.Service{Title: "ok", Slug: "Not A Slug"}, "slug_invalid"},
		{&model.Service{Title: "ok", DisplayOrder: -1}, "display_order_invalid"},
	}
	for _, tt := range tests {
		err := svc.Create(context.Background(), tt.item)
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Code != tt.code {
			t.Errorf("Create(%+v) err = %v, want %s", tt.item, err, tt.code)
		}
	}
}

func TestContentService_Create_ConflictMapped(t *testing.T) {
	repo := &mockContentRepository[model.Product]{
		createFunc: func(ctx context.Context, item *model.Product) error {
			return repository.ErrConflict
		},
	}
	svc := NewContentService[model.Product](repo, ProductRules)
	err := svc.Create(context.Background(), &model.Product{Name: "Widget"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestContentService_Update_SetsPathID(t *testing.T) {
	var updated *model.Client
	repo := &mockContentRepository[model.Client]{
		updateFunc: func(ctx context.Context, item *model.Client) error {
			updated = item
			return nil
		},
	}
	svc := NewContentService[model.Client](repo, ClientRules)

	if err := svc.Update(context.Background(), "c-7", &model.Client{ID: "other", Name: "Acme"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ID != "c-7" {
		t.Errorf("ID = %q, want path id c-7", updated.ID)
	}
}

func TestContentService_URLValidation(t *testing.T) {
	svc := NewContentService[model.GalleryItem](&mockContentRepository[model.GalleryItem]{}, GalleryRules)

	if err := svc.Create(context.Background(), &model.GalleryItem{Title: "Deck"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing image: %v", err)
	}
	if err := svc.Create(context.Background(), &model.GalleryItem{Title: "Deck", ImageURL: "javascript:alert(1)"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("script url: %v", err)
	}
	for _, u := range []string{"/uploads/gallery/a.jpg", "https://cdn.example.com/a.jpg"} {
		if err := svc.Create(context.Background(), &model.GalleryItem{Title: "Deck", ImageURL: u}); err != nil {
			t.Errorf("%s: %v", u, err)
		}
	}
}

func TestContentService_List_NonNil(t *testing.T) {
	var got model.ContentListOptions
	repo := &mockContentRepository[model.Project]{
		listFunc: func(ctx context.Context, opts model.ContentListOptions) ([]*model.Project, error) {
			got = opts
			return nil, nil
		},
	}
	svc := NewContentService[model.Project](repo, ProjectRules)
	list, err := svc.List(context.Background(), model.ContentListOptions{Category: " decks "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list == nil {
		t.Error("expected empty slice")
	}
	if got.Category != "decks" {
		t.Errorf("category = %q", got.Category)
	}
}

func TestContentService_GetPublic_HidesInactive(t *testing.T) {
	repo := &mockContentRepository[model.Project]{
		getByIDFunc: func(ctx context.Context, id string) (*model.Project, error) {
			return &model.Project{ID: id, IsActive: false}, nil
		},
	}
	svc := NewContentService[model.Project](repo, ProjectRules)

	if _, err := svc.GetPublic(context.Background(), "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "p1"); err != nil {
		t.Errorf("admin Get should see inactive items: %v", err)
	}
}

func TestContentService_GetBySlug(t *testing.T) {
	repo := &mockSlugRepository[model.Service]{
		getBySlugFunc: func(ctx context.Context, slug string) (*model.Service, error) {
			if slug != "roof-repair" {
				return nil, repository.ErrNotFound
			}
			return &model.Service{Slug: slug}, nil
		},
	}
	svc := NewContentService[model.Service](repo, ServiceRules)

	s, err := svc.GetBySlug(context.Background(), " Roof-Repair ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Slug != "roof-repair" {
		t.Errorf("slug = %q", s.Slug)
	}
	if _, err := svc.GetBySlug(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestContentService_GetBySlug_Unsupported(t *testing.T) {
	svc := NewContentService[model.Client](&mockContentRepository[model.Client]{}, ClientRules)
	if _, err := svc.GetBySlug(context.Background(), "acme"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestContentService_Reorder(t *testing.T) {
	var got []string
	repo := &mockContentRepository[model.GalleryItem]{
		reorderFunc: func(ctx context.Context, ids []string) error {
			got = ids
			return nil
		},
	}
	svc := NewContentService[model.GalleryItem](repo, GalleryRules)

	if err := svc.Reorder(context.Background(), []string{"b", "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "b" {
		t.Errorf("ids = %v", got)
	}
	for _, ids := range [][]string{nil, {"a", "a"}, {"a", ""}} {
		if err := svc.Reorder(context.Background(), ids); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Reorder(%v) err = %v, want ErrInvalidInput", ids, err)
		}
	}
}

func TestContentService_Reorder_UnknownID(t *testing.T) {
	repo := &mockContentRepository[model.GalleryItem]{
		reorderFunc: func(ctx context.Context, ids []string) error {
			return repository.ErrNotFound
		},
	}
	svc := NewContentService[model.GalleryItem](repo, GalleryRules)
	if err := svc.Reorder(context.Background(), []string{"x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProductRules_NegativePrice(t *testing.T) {
	price := int64(-1)
	err := ProductRules.Prepare(&model.Product{Name: "Widget", PriceCents: &price})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Code != "price_cents_invalid" {
		t.Errorf("err = %v", err)
	}
}
