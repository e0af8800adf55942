package service

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sitecraft/backend/internal/model"
	"github.com/sitecraft/backend/internal/repository"
)

// ContentService is the catalog logic shared by services, products, clients,
// projects and the gallery.
type ContentService[T any] interface {
	// List returns active items for public pages, or every item when
	// opts.IncludeInactive is set.
	List(ctx context.Context, opts model.ContentListOptions) ([]*T, error)
	// Get returns an item by id regardless of visibility (admin).
	Get(ctx context.Context, id string) (*T, error)
	// GetPublic returns an active item by id.
	GetPublic(ctx context.Context, id string) (*T, error)
	// GetBySlug returns an active item by slug. Types without slugs report ErrNotFound.
	GetBySlug(ctx context.Context, slug string) (*T, error)
	Create(ctx context.Context, item *T) error
	// Update replaces the item stored under id.
	Update(ctx context.Context, id string, item *T) error
	Delete(ctx context.Context, id string) error
	// Reorder sets display_order to each id's position in ids.
	Reorder(ctx context.Context, ids []string) error
}

// ContentRules adapts ContentService to one catalog type.
type ContentRules[T any] struct {
	// Prepare trims and validates an item before it is written.
	Prepare func(item *T) error
	// IsActive reports whether the item is visible publicly.
	IsActive func(item *T) bool
	// SetID assigns the path id to an item on update.
	SetID func(item *T, id string)
}

type contentServiceImpl[T any] struct {
	repo  repository.ContentRepository[T]
	rules ContentRules[T]
}

// NewContentService creates a ContentService over repo.
func NewContentService[T any](repo repository.ContentRepository[T], rules ContentRules[T]) ContentService[T] {
	return &contentServiceImpl[T]{repo: repo, rules: rules}
}

func (s *contentServiceImpl[T]) List(ctx context.Context, opts model.ContentListOptions) ([]*T, error) {
	opts.Category = strings.TrimSpace(opts.Category)
	items, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*T{}
	}
	return items, nil
}

func (s *contentServiceImpl[T]) Get(ctx context.Context, id string) (*T, error) {
	item, err := s.repo.GetByID(ctx, id)
	return item, mapRepoErr(err)
}

func (s *contentServiceImpl[T]) GetPublic(ctx context.Context, id string) (*T, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if s.rules.IsActive != nil && !s.rules.IsActive(item) {
		return nil, ErrNotFound
	}
	return item, nil
}

func (s *contentServiceImpl[T]) GetBySlug(ctx context.Context, slug string) (*T, error) {
	finder, ok := s.repo.(repository.SlugFinder[T])
	if !ok {
		return nil, ErrNotFound
	}
	item, err := finder.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	return item, mapRepoErr(err)
}

func (s *contentServiceImpl[T]) Create(ctx context.Context, item *T) error {
	if err := s.prepare(item); err != nil {
		return err
	}
	return mapRepoErr(s.repo.Create(ctx, item))
}

func (s *contentServiceImpl[T]) Update(ctx context.Context, id string, item *T) error {
	if err := s.prepare(item); err != nil {
		return err
	}
	if s.rules.SetID != nil {
		s.rules.SetID(item, id)
	}
	return mapRepoErr(s.repo.Update(ctx, item))
}

func (s *contentServiceImpl[T]) Delete(ctx context.Context, id string) error {
	return mapRepoErr(s.repo.Delete(ctx, id))
}

func (s *contentServiceImpl[T]) Reorder(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return invalid("ids", "required")
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return invalid("ids", "invalid")
		}
		if _, dup := seen[id]; dup {
			return invalid("ids", "duplicate")
		}
		seen[id] = struct{}{}
	}
	return mapRepoErr(s.repo.Reorder(ctx, ids))
}

func (s *contentServiceImpl[T]) prepare(item *T) error {
	if item == nil {
		return invalid("body", "required")
	}
	if s.rules.Prepare == nil {
		return nil
	}
	return s.rules.Prepare(item)
}

// ---------------------------------------------------------------------------
// per-type rules
// ---------------------------------------------------------------------------

const maxTitleLength = 200

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Slugify lowercases s and joins its ASCII letters and digits with single dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	out := b.String()
	if len(out) > 100 {
		out = strings.TrimRight(out[:100], "-")
	}
	return out
}

// resolveSlug derives a slug from title when slug is blank and validates the result.
func resolveSlug(slug, title string) (string, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" || !slugPattern.MatchString(slug) {
		return "", invalid("slug", "invalid")
	}
	return slug, nil
}

func requireTitle(field, v string) error {
	switch {
	case v == "":
		return invalid(field, "required")
	case utf8.RuneCountInString(v) > maxTitleLength:
		return invalid(field, "too_long")
	}
	return nil
}

// validURL accepts an absolute http(s) URL or a site-relative path such as /uploads/x.jpg.
func validURL(field, v string) error {
	if v == "" {
		return nil
	}
	if strings.HasPrefix(v, "/") && !strings.HasPrefix(v, "//") {
		return nil
	}
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid(field, "invalid")
	}
	return nil
}

func nonNegativeOrder(v int) error {
	if v < 0 {
		return invalid("display_order", "invalid")
	}
	return nil
}

// ServiceRules validates model.Service.
var ServiceRules = ContentRules[model.Service]{
	Prepare: func(s *model.Service) error {
		s.Title = strings.TrimSpace(s.Title)
		s.Summary = strings.TrimSpace(s.Summary)
		s.Category = strings.TrimSpace(s.Category)
		if err := requireTitle("title", s.Title); err != nil {
			return err
		}
		slug, err := resolveSlug(s.Slug, s.Title)
		if err != nil {
			return err
		}
		s.Slug = slug
		return nonNegativeOrder(s.DisplayOrder)
	},
	IsActive: func(s *model.Service) bool { return s.IsActive },
	SetID:    func(s *model.Service, id string) { s.ID = id },
}

// ProductRules validates model.Product.
var ProductRules = ContentRules[model.Product]{
	Prepare: func(p *model.Product) error {
		p.Name = strings.TrimSpace(p.Name)
		p.Category = strings.TrimSpace(p.Category)
		p.ImageURL = strings.TrimSpace(p.ImageURL)
		if err := requireTitle("name", p.Name); err != nil {
			return err
		}
		slug, err := resolveSlug(p.Slug, p.Name)
		if err != nil {
			return err
		}
		p.Slug = slug
		if p.PriceCents != nil && *p.PriceCents < 0 {
			return invalid("price_cents", "invalid")
		}
		if err := validURL("image_url", p.ImageURL); err != nil {
			return err
		}
		return nonNegativeOrder(p.DisplayOrder)
	},
	IsActive: func(p *model.Product) bool { return p.IsActive },
	SetID:    func(p *model.Product, id string) { p.ID = id },
}

// ClientRules validates model.Client.
var ClientRules = ContentRules[model.Client]{
	Prepare: func(c *model.Client) error {
		c.Name = strings.TrimSpace(c.Name)
		c.LogoURL = strings.TrimSpace(c.LogoURL)
		c.WebsiteURL = strings.TrimSpace(c.WebsiteURL)
		c.Category = strings.TrimSpace(c.Category)
		if err := requireTitle("name", c.Name); err != nil {
			return err
		}
		if err := validURL("logo_url", c.LogoURL); err != nil {
			return err
		}
		if err := validURL("website_url", c.WebsiteURL); err != nil {
			return err
		}
		return nonNegativeOrder(c.DisplayOrder)
	},
	IsActive: func(c *model.Client) bool { return c.IsActive },
	SetID:    func(c *model.Client, id string) { c.ID = id },
}

// ProjectRules validates model.Project.
var ProjectRules = ContentRules[model.Project]{
	Prepare: func(p *model.Project) error {
		p.Title = strings.TrimSpace(p.Title)
		p.ClientName = strings.TrimSpace(p.ClientName)
		p.Category = strings.TrimSpace(p.Category)
		p.ImageURL = strings.TrimSpace(p.ImageURL)
		p.Location = strings.TrimSpace(p.Location)
		if err := requireTitle("title", p.Title); err != nil {
			return err
		}
		if err := validURL("image_url", p.ImageURL); err != nil {
			return err
		}
		return nonNegativeOrder(p.DisplayOrder)
	},
	IsActive: func(p *model.Project) bool { return p.IsActive },
	SetID:    func(p *model.Project, id string) { p.ID = id },
}

// GalleryRules validates model.GalleryItem. Every item needs an image.
var GalleryRules = ContentRules[model.GalleryItem]{
	Prepare: func(g *model.GalleryItem) error {
		g.Title = strings.TrimSpace(g.Title)
		g.ImageURL = strings.TrimSpace(g.ImageURL)
		g.Category = strings.TrimSpace(g.Category)
		g.Caption = strings.TrimSpace(g.Caption)
		if err := requireTitle("title", g.Title); err != nil {
			return err
		}
		if g.ImageURL == "" {
			return invalid("image_url", "required")
		}
		if err := validURL("image_url", g.ImageURL); err != nil {
			return err
		}
		return nonNegativeOrder(g.DisplayOrder)
	},
	IsActive: func(g *model.GalleryItem) bool { return g.IsActive },
	SetID:    func(g *model.GalleryItem, id string) { g.ID = id },
}
