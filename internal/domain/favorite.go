package domain

import (
	"time"
)

// Favorite represents a service saved in a member's favorites. The set is
// unordered and carries no duplicates.
type Favorite struct {
	MemberID  int64     `json:"member_id"`
	ServiceID int64     `json:"service_id"`
	CreatedAt time.Time `json:"created_at"`
}
