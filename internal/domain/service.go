package domain

import (
	"time"
)

// Service represents one locale-specific row of a catalog service.
// Rows sharing a DocumentID are locale variants of the same logical service.
type Service struct {
	ID            int64      `json:"id"`
	DocumentID    string     `json:"document_id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Locale        string     `json:"locale"`
	ReviewCount   int        `json:"review_count"`
	AverageRating float64    `json:"average_rating"`
	PublishedAt   *time.Time `json:"published_at"`
	Tags          []Tag      `json:"tags,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsPublished reports whether the service row is published (draft rows have
// a null published_at).
func (s *Service) IsPublished() bool {
	return s.PublishedAt != nil
}

// ServiceAggregate holds the derived review statistics that are denormalized
// onto every locale variant of a service.
type ServiceAggregate struct {
	ReviewCount   int     `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
}
