package model

import "time"

// Inquiry statuses.
const (
	InquiryStatusNew      = "new"
	InquiryStatusRead     = "read"
	InquiryStatusReplied  = "replied"
	InquiryStatusArchived = "archived"
)

// ValidInquiryStatus reports whether s is one of the four inquiry statuses.
func ValidInquiryStatus(s string) bool {
	switch s {
	case InquiryStatusNew, InquiryStatusRead, InquiryStatusReplied, InquiryStatusArchived:
		return true
	}
	return false
}

// Inquiry represents a message submitted via the contact form.
// Message is never modified after creation; only Status changes.
type Inquiry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Replies []*Reply `json:"replies,omitempty"`
}

// InquiryListOptions carries filter and pagination parameters for listing inquiries.
type InquiryListOptions struct {
	// Status filters by inquiry status. Empty string and "all" return every inquiry.
	Status string
	Limit  int
	Offset int
}

// InquiryCounts is the number of inquiries per status, for the admin dashboard.
type InquiryCounts struct {
	New      int `json:"new"`
	Read     int `json:"read"`
	Replied  int `json:"replied"`
	Archived int `json:"archived"`
	Total    int `json:"total"`
}

// Reply is an admin response to an Inquiry. Deleting the inquiry deletes its replies.
type Reply struct {
	ID             string    `json:"id"`
	InquiryID      string    `json:"inquiry_id"`
	Body           string    `json:"body"`
	SentBy         string    `json:"sent_by"`
	AttachmentPath string    `json:"attachment_path,omitempty"`
	AttachmentName string    `json:"attachment_name,omitempty"`
	AttachmentSize int64     `json:"attachment_size,omitempty"`
	SentAt         time.Time `json:"sent_at"`
}

// HasAttachment reports whether a file was stored with the reply.
func (r *Reply) HasAttachment() bool {
	return r.AttachmentPath != ""
}
