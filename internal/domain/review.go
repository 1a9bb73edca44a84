package domain

import (
	"time"
)

// Review text and voting bounds enforced on create and update.
const (
	ReviewTextMinLen = 10
	ReviewTextMaxLen = 2000
	VotingMin        = 1
	VotingMax        = 5
)

// Review represents a member's review of a service. At most one review
// exists per (member, service) pair; the member owning a review never
// changes after creation.
type Review struct {
	ID           int64      `json:"id"`
	ReviewText   string     `json:"reviewtext"`
	Voting       int        `json:"voting"`
	MemberID     int64      `json:"member_id"`
	ServiceID    int64      `json:"service_id"`
	IsPublished  bool       `json:"is_published"`
	PublishedAt  *time.Time `json:"published_at"`
	HelpfulCount int        `json:"helpful_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Member is populated on list queries so clients can render the author
	// without a second round-trip.
	Member *MemberSummary `json:"member,omitempty"`
}

// RatingSummary contains the derived review statistics for a service,
// computed from the authoritative set of published reviews.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
