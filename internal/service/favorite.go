package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/meimberg-io/awesomeapps/internal/domain"
	"github.com/meimberg-io/awesomeapps/internal/repository"
	apperrors "github.com/meimberg-io/awesomeapps/pkg/errors"
)

// AddFavoriteResult reports whether the service was newly added to the set.
type AddFavoriteResult struct {
	Added bool `json:"added"`
}

// RemoveFavoriteResult reports the outcome of a favorite removal.
type RemoveFavoriteResult struct {
	Removed bool `json:"removed"`
}

// FavoriteListResult contains a page of favorited services.
type FavoriteListResult struct {
	Services   []domain.Service `json:"data"`
	TotalCount int              `json:"total"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
}

// FavoriteService maintains each member's set of favorited services.
type FavoriteService struct {
	favorites repository.FavoriteRepository
	members   repository.MemberRepository
	services  repository.ServiceRepository
	logger    *slog.Logger
}

// NewFavoriteService creates a new favorite service.
func NewFavoriteService(
	favorites repository.FavoriteRepository,
	members repository.MemberRepository,
	services repository.ServiceRepository,
	logger *slog.Logger,
) *FavoriteService {
	return &FavoriteService{
		favorites: favorites,
		members:   members,
		services:  services,
		logger:    logger,
	}
}

// Add puts the service into the member's favorite set. Adding a service that
// is already favorited is not an error; the result reports Added=false.
func (s *FavoriteService) Add(ctx context.Context, memberID, serviceID int64) (*AddFavoriteResult, error) {
	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		return nil, err
	}
	if _, err := s.services.GetByID(ctx, serviceID); err != nil {
		return nil, err
	}

	added, err := s.favorites.Add(ctx, memberID, serviceID)
	if err != nil {
		return nil, fmt.Errorf("add favorite: %w", err)
	}

	if added {
		s.logger.InfoContext(ctx, "favorite added",
			slog.Int64("member_id", memberID),
			slog.Int64("service_id", serviceID),
		)
	}

	return &AddFavoriteResult{Added: added}, nil
}

// Remove deletes the service from the member's favorite set. Removing an
// absent favorite succeeds silently and still reports Removed=true, matching
// the observed upstream contract.
func (s *FavoriteService) Remove(ctx context.Context, memberID, serviceID int64) (*RemoveFavoriteResult, error) {
	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		return nil, err
	}

	removed, err := s.favorites.Remove(ctx, memberID, serviceID)
	if err != nil {
		return nil, fmt.Errorf("remove favorite: %w", err)
	}

	if !removed {
		s.logger.DebugContext(ctx, "remove favorite was a no-op",
			slog.Int64("member_id", memberID),
			slog.Int64("service_id", serviceID),
		)
	}

	return &RemoveFavoriteResult{Removed: true}, nil
}

// IsFavorite reports whether the service is in the member's favorite set. An
// absent member yields false rather than an error.
func (s *FavoriteService) IsFavorite(ctx context.Context, memberID, serviceID int64) (bool, error) {
	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	return s.favorites.Exists(ctx, memberID, serviceID)
}

// List returns a page of the member's favorited services.
func (s *FavoriteService) List(ctx context.Context, memberID int64, page, perPage int) (*FavoriteListResult, error) {
	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		return nil, err
	}

	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	services, total, err := s.favorites.ListByMember(ctx, memberID, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	return &FavoriteListResult{
		Services:   services,
		TotalCount: total,
		Page:       page,
		PerPage:    perPage,
	}, nil
}
