package model

import "time"

// ContentListOptions filters catalog listings. Public pages list only
// active records; the admin panel passes IncludeInactive.
type ContentListOptions struct {
	Category        string
	IncludeInactive bool
}

// Service is an offered service, addressed publicly by its slug.
type Service struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Summary      string    `json:"summary"`
	Description  string    `json:"description"`
	Icon         string    `json:"icon,omitempty"`
	Category     string    `json:"category,omitempty"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Product is a catalog product. PriceCents is nil for "price on request".
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Category     string    `json:"category,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	PriceCents   *int64    `json:"price_cents,omitempty"`
	Featured     bool      `json:"featured"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Client is a customer logo shown on the home page.
type Client struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LogoURL      string    `json:"logo_url,omitempty"`
	WebsiteURL   string    `json:"website_url,omitempty"`
	Category     string    `json:"category,omitempty"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GalleryItem is one image in the public gallery.
type GalleryItem struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ImageURL     string    `json:"image_url"`
	Category     string    `json:"category,omitempty"`
	Caption      string    `json:"caption,omitempty"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
