package domain

import (
	"time"
)

// Tag represents one locale-specific row of a tag. Like services, tag rows
// sharing a DocumentID are locale variants of the same logical tag, so all
// tag matching happens on DocumentID rather than row id.
type Tag struct {
	ID          int64      `json:"id"`
	DocumentID  string     `json:"document_id"`
	Name        string     `json:"name"`
	Locale      string     `json:"locale"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsPublished reports whether the tag row is published.
func (t *Tag) IsPublished() bool {
	return t.PublishedAt != nil
}

// TagWithCount pairs a tag with the number of distinct published services
// carrying it.
type TagWithCount struct {
	Tag
	ServiceCount int `json:"count"`
}
