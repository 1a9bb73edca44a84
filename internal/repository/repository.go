package repository

import (
	"context"

	"github.com/meimberg-io/awesomeapps/internal/domain"
)

// SortField is a single ordering term applied to a service listing.
type SortField struct {
	Field string
	Desc  bool
}

// ReviewListOptions defines pagination and ordering for review listings.
type ReviewListOptions struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ServiceRepository defines the interface for service persistence operations.
type ServiceRepository interface {
	// GetByID retrieves a service row by its storage-local id.
	GetByID(ctx context.Context, id int64) (*domain.Service, error)

	// GetByDocumentID retrieves one service row sharing the given documentId.
	GetByDocumentID(ctx context.Context, documentID string) (*domain.Service, error)

	// ListIDs returns the ids of every service row, locale variants included.
	ListIDs(ctx context.Context) ([]int64, error)

	// UpdateAggregates writes the denormalized review statistics to a single
	// service row.
	UpdateAggregates(ctx context.Context, id int64, agg domain.ServiceAggregate) error

	// UpdateAggregatesByDocumentID writes the denormalized review statistics
	// to every service row sharing the given documentId. Returns the number
	// of rows written.
	UpdateAggregatesByDocumentID(ctx context.Context, documentID string, agg domain.ServiceAggregate) (int64, error)

	// ListByTags returns published services whose deduplicated tag
	// documentId set contains every id in tagDocumentIDs. An empty list
	// returns all published services. Sort terms outside the sortable
	// whitelist are ignored.
	ListByTags(ctx context.Context, tagDocumentIDs []string, sort []SortField) ([]domain.Service, error)
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review and fills in its generated id and timestamps.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by id.
	GetByID(ctx context.Context, id int64) (*domain.Review, error)

	// ExistsForMemberAndService reports whether the member already reviewed
	// the service.
	ExistsForMemberAndService(ctx context.Context, memberID, serviceID int64) (bool, error)

	// Update persists changed text/voting fields of an existing review.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes a review by id.
	Delete(ctx context.Context, id int64) error

	// IncrementHelpful atomically increments the helpful counter and returns
	// the updated review.
	IncrementHelpful(ctx context.Context, id int64) (*domain.Review, error)

	// AggregateForService returns the count and unrounded mean voting of the
	// published reviews attached to the service. The mean is 0 when no
	// published reviews exist.
	AggregateForService(ctx context.Context, serviceID int64) (domain.RatingSummary, error)

	// ListByService returns published reviews for a service with their
	// authors populated, plus the total count for pagination.
	ListByService(ctx context.Context, serviceID int64, opts ReviewListOptions) ([]domain.Review, int, error)

	// ListByMember returns all reviews written by a member, newest first.
	ListByMember(ctx context.Context, memberID int64) ([]domain.Review, error)

	// CountByMember returns the number of reviews written by a member.
	CountByMember(ctx context.Context, memberID int64) (int, error)
}

// MemberRepository defines the interface for member persistence operations.
type MemberRepository interface {
	// GetByID retrieves a member by id.
	GetByID(ctx context.Context, id int64) (*domain.Member, error)

	// UsernameTaken reports whether another member already uses the username.
	UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error)

	// UpdateProfile persists the non-nil profile fields and returns the
	// updated member.
	UpdateProfile(ctx context.Context, id int64, username, displayName, bio *string) (*domain.Member, error)
}

// FavoriteRepository defines the interface for favorite-set persistence.
type FavoriteRepository interface {
	// Add inserts the service into the member's favorite set. Returns false
	// without error when the service was already favorited.
	Add(ctx context.Context, memberID, serviceID int64) (bool, error)

	// Remove deletes the service from the member's favorite set. Returns
	// false without error when nothing was removed.
	Remove(ctx context.Context, memberID, serviceID int64) (bool, error)

	// Exists reports whether the service is in the member's favorite set.
	Exists(ctx context.Context, memberID, serviceID int64) (bool, error)

	// ListByMember returns the member's favorited services, newest first,
	// plus the total count.
	ListByMember(ctx context.Context, memberID int64, page, perPage int) ([]domain.Service, int, error)

	// CountByMember returns the size of the member's favorite set.
	CountByMember(ctx context.Context, memberID int64) (int, error)
}

// TagRepository defines the interface for tag persistence operations.
type TagRepository interface {
	// GetByDocumentID retrieves one tag row sharing the given documentId.
	GetByDocumentID(ctx context.Context, documentID string) (*domain.Tag, error)

	// CountServicesWithTags returns the number of distinct published
	// services (deduplicated by documentId) whose published tag set contains
	// every documentId in tagDocumentIDs.
	CountServicesWithTags(ctx context.Context, tagDocumentIDs []string) (int, error)

	// ListWithCounts returns all published tags together with the number of
	// distinct published services carrying each.
	ListWithCounts(ctx context.Context) ([]domain.TagWithCount, error)
}
