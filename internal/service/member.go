package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meimberg-io/awesomeapps/internal/domain"
	"github.com/meimberg-io/awesomeapps/internal/repository"
	apperrors "github.com/meimberg-io/awesomeapps/pkg/errors"
)

// UpdateProfileInput holds the optional profile fields of a member update.
type UpdateProfileInput struct {
	Username    *string
	DisplayName *string
	Bio         *string
}

// MemberService exposes member profile and statistics operations. Account
// creation and OAuth linking happen upstream; this service only works with
// members that already exist.
type MemberService struct {
	members   repository.MemberRepository
	reviews   repository.ReviewRepository
	favorites repository.FavoriteRepository
	logger    *slog.Logger
}

// NewMemberService creates a new member service.
func NewMemberService(
	members repository.MemberRepository,
	reviews repository.ReviewRepository,
	favorites repository.FavoriteRepository,
	logger *slog.Logger,
) *MemberService {
	return &MemberService{
		members:   members,
		reviews:   reviews,
		favorites: favorites,
		logger:    logger,
	}
}

// GetProfile retrieves a member by id.
func (s *MemberService) GetProfile(ctx context.Context, memberID int64) (*domain.Member, error) {
	return s.members.GetByID(ctx, memberID)
}

// UpdateProfile applies the supplied profile fields. Changing the username
// requires it to be unused by any other member.
func (s *MemberService) UpdateProfile(ctx context.Context, memberID int64, input *UpdateProfileInput) (*domain.Member, error) {
	if input.Username != nil {
		taken, err := s.members.UsernameTaken(ctx, *input.Username, memberID)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken {
			return nil, apperrors.AlreadyExists("member", "username", *input.Username)
		}
	}

	member, err := s.members.UpdateProfile(ctx, memberID, input.Username, input.DisplayName, input.Bio)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "member profile updated",
		slog.Int64("member_id", memberID),
	)

	return member, nil
}

// GetStatistics aggregates a member's activity counters.
func (s *MemberService) GetStatistics(ctx context.Context, memberID int64) (*domain.MemberStatistics, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	reviewCount, err := s.reviews.CountByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("count member reviews: %w", err)
	}

	favoriteCount, err := s.favorites.CountByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("count member favorites: %w", err)
	}

	return &domain.MemberStatistics{
		ReviewCount:   reviewCount,
		FavoriteCount: favoriteCount,
		MemberSince:   member.CreatedAt,
		LastLogin:     member.LastLogin,
	}, nil
}
