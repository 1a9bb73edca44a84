package domain

import (
	"time"
)

// Member represents a registered member. OAuth account linking and token
// issuance live upstream; the backend only sees resolved member ids.
type Member struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
	Bio         *string    `json:"bio,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// MemberSummary is the subset of member fields embedded in review listings.
type MemberSummary struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// MemberStatistics aggregates a member's activity counters.
type MemberStatistics struct {
	ReviewCount   int        `json:"review_count"`
	FavoriteCount int        `json:"favorite_count"`
	MemberSince   time.Time  `json:"member_since"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
}
