package model

import "time"

// Project is a completed job shown in the portfolio.
type Project struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	ClientName   string     `json:"client_name,omitempty"`
	Category     string     `json:"category,omitempty"`
	Description  string     `json:"description"`
	ImageURL     string     `json:"image_url,omitempty"`
	Location     string     `json:"location,omitempty"`
	CompletedOn  *time.Time `json:"completed_on,omitempty"`
	Featured     bool       `json:"featured"`
	DisplayOrder int        `json:"display_order"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
