package service

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/meimberg-io/awesomeapps/internal/domain"
	"github.com/meimberg-io/awesomeapps/internal/repository"
	apperrors "github.com/meimberg-io/awesomeapps/pkg/errors"
)

// ReviewEventPublisher publishes review domain events. Publishing is
// best-effort: the review service logs failures and never propagates them.
type ReviewEventPublisher interface {
	PublishReviewCreated(ctx context.Context, review *domain.Review) error
	PublishReviewUpdated(ctx context.Context, review *domain.Review) error
	PublishReviewDeleted(ctx context.Context, reviewID, serviceID int64) error
}

// CreateReviewInput holds the parameters for creating a review. The target
// service may be addressed by numeric id or by documentId; when both are set
// the numeric id wins.
type CreateReviewInput struct {
	MemberID          int64
	ServiceID         int64
	ServiceDocumentID string
	ReviewText        string
	Voting            int
}

// UpdateReviewInput holds the optional fields of a review update. Nil fields
// are left unchanged.
type UpdateReviewInput struct {
	ReviewText *string
	Voting     *int
}

// ReviewListResult contains a page of reviews plus pagination totals.
type ReviewListResult struct {
	Reviews    []domain.Review `json:"data"`
	TotalCount int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	PageCount  int             `json:"page_count"`
}

// ReviewService guards the review lifecycle: it validates input, enforces
// the one-review-per-member-per-service and ownership rules, and triggers
// the aggregate refresh after every successful mutation.
type ReviewService struct {
	reviews    repository.ReviewRepository
	members    repository.MemberRepository
	services   repository.ServiceRepository
	aggregates *AggregateUpdater
	events     ReviewEventPublisher
	logger     *slog.Logger
}

// NewReviewService creates a new review service. events may be nil when no
// broker is configured.
func NewReviewService(
	reviews repository.ReviewRepository,
	members repository.MemberRepository,
	services repository.ServiceRepository,
	aggregates *AggregateUpdater,
	events ReviewEventPublisher,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:    reviews,
		members:    members,
		services:   services,
		aggregates: aggregates,
		events:     events,
		logger:     logger,
	}
}

// validateReviewText bounds by characters, not bytes, matching the
// char_length CHECK on the reviews table.
func validateReviewText(text string) error {
	if n := utf8.RuneCountInString(text); n < domain.ReviewTextMinLen || n > domain.ReviewTextMaxLen {
		return apperrors.InvalidInput(fmt.Sprintf(
			"review text must be between %d and %d characters",
			domain.ReviewTextMinLen, domain.ReviewTextMaxLen,
		))
	}
	return nil
}

func validateVoting(voting int) error {
	if voting < domain.VotingMin || voting > domain.VotingMax {
		return apperrors.InvalidInput(fmt.Sprintf(
			"voting must be between %d and %d",
			domain.VotingMin, domain.VotingMax,
		))
	}
	return nil
}

// Create validates and persists a new review, then synchronously refreshes
// the target service's aggregates before returning.
func (s *ReviewService) Create(ctx context.Context, input *CreateReviewInput) (*domain.Review, error) {
	if err := validateReviewText(input.ReviewText); err != nil {
		return nil, err
	}
	if err := validateVoting(input.Voting); err != nil {
		return nil, err
	}

	if _, err := s.members.GetByID(ctx, input.MemberID); err != nil {
		return nil, err
	}

	serviceID := input.ServiceID
	if serviceID == 0 {
		if input.ServiceDocumentID == "" {
			return nil, apperrors.InvalidInput("service id or document id is required")
		}
		svc, err := s.services.GetByDocumentID(ctx, input.ServiceDocumentID)
		if err != nil {
			return nil, err
		}
		serviceID = svc.ID
	} else if _, err := s.services.GetByID(ctx, serviceID); err != nil {
		return nil, err
	}

	exists, err := s.reviews.ExistsForMemberAndService(ctx, input.MemberID, serviceID)
	if err != nil {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return nil, apperrors.DuplicateReview()
	}

	review := &domain.Review{
		ReviewText:   input.ReviewText,
		Voting:       input.Voting,
		MemberID:     input.MemberID,
		ServiceID:    serviceID,
		IsPublished:  true,
		HelpfulCount: 0,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.Int64("review_id", review.ID),
		slog.Int64("service_id", review.ServiceID),
		slog.Int64("member_id", review.MemberID),
		slog.Int("voting", review.Voting),
	)

	s.refreshAggregates(ctx, serviceID)

	if s.events != nil {
		if err := s.events.PublishReviewCreated(ctx, review); err != nil {
			s.logger.WarnContext(ctx, "publish review.created failed",
				slog.Int64("review_id", review.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return review, nil
}

// Update applies the supplied fields to an existing review after checking
// ownership, then refreshes the service's aggregates.
func (s *ReviewService) Update(ctx context.Context, reviewID, memberID int64, input *UpdateReviewInput) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if review.MemberID != memberID {
		return nil, apperrors.Forbidden("you can only update your own reviews")
	}

	if input.ReviewText != nil {
		if err := validateReviewText(*input.ReviewText); err != nil {
			return nil, err
		}
		review.ReviewText = *input.ReviewText
	}
	if input.Voting != nil {
		if err := validateVoting(*input.Voting); err != nil {
			return nil, err
		}
		review.Voting = *input.Voting
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.logger.InfoContext(ctx, "review updated",
		slog.Int64("review_id", review.ID),
		slog.Int64("service_id", review.ServiceID),
	)

	s.refreshAggregates(ctx, review.ServiceID)

	if s.events != nil {
		if err := s.events.PublishReviewUpdated(ctx, review); err != nil {
			s.logger.WarnContext(ctx, "publish review.updated failed",
				slog.Int64("review_id", review.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return review, nil
}

// Delete removes a review after checking ownership. The service id is taken
// from the review before deletion, since the relation is gone afterwards.
func (s *ReviewService) Delete(ctx context.Context, reviewID, memberID int64) error {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}

	if review.MemberID != memberID {
		return apperrors.Forbidden("you can only delete your own reviews")
	}

	serviceID := review.ServiceID

	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.Int64("review_id", reviewID),
		slog.Int64("service_id", serviceID),
	)

	s.refreshAggregates(ctx, serviceID)

	if s.events != nil {
		if err := s.events.PublishReviewDeleted(ctx, reviewID, serviceID); err != nil {
			s.logger.WarnContext(ctx, "publish review.deleted failed",
				slog.Int64("review_id", reviewID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// IncrementHelpful bumps a review's helpful counter. Any caller may mark a
// review helpful; repeated calls keep incrementing. Rate limiting is an
// upstream concern.
func (s *ReviewService) IncrementHelpful(ctx context.Context, reviewID int64) (*domain.Review, error) {
	return s.reviews.IncrementHelpful(ctx, reviewID)
}

// GetServiceReviews returns a page of published reviews for a service.
func (s *ReviewService) GetServiceReviews(ctx context.Context, serviceID int64, opts repository.ReviewListOptions) (*ReviewListResult, error) {
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.PageSize > 100 {
		opts.PageSize = 100
	}
	if opts.SortOrder != "asc" {
		opts.SortOrder = "desc"
	}

	reviews, total, err := s.reviews.ListByService(ctx, serviceID, opts)
	if err != nil {
		return nil, fmt.Errorf("list service reviews: %w", err)
	}

	pageCount := total / opts.PageSize
	if total%opts.PageSize > 0 {
		pageCount++
	}

	return &ReviewListResult{
		Reviews:    reviews,
		TotalCount: total,
		Page:       opts.Page,
		PageSize:   opts.PageSize,
		PageCount:  pageCount,
	}, nil
}

// GetMemberReviews returns all reviews written by a member, newest first.
func (s *ReviewService) GetMemberReviews(ctx context.Context, memberID int64) ([]domain.Review, error) {
	reviews, err := s.reviews.ListByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("list member reviews: %w", err)
	}
	return reviews, nil
}

// GetServiceAverageRating computes the live count and rounded mean voting of
// a service's published reviews, without touching the cached fields.
func (s *ReviewService) GetServiceAverageRating(ctx context.Context, serviceID int64) (*domain.RatingSummary, error) {
	summary, err := s.reviews.AggregateForService(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("get service average rating: %w", err)
	}

	if summary.Count == 0 {
		summary.Average = 0
	} else {
		summary.Average = roundRating(summary.Average)
	}

	return &summary, nil
}

// refreshAggregates runs the aggregate updater and deliberately discards its
// error: a failed refresh must never fail the review mutation that triggered
// it. Drift is corrected by the next successful trigger or a batch run.
func (s *ReviewService) refreshAggregates(ctx context.Context, serviceID int64) {
	if err := s.aggregates.Refresh(ctx, serviceID); err != nil {
		s.logger.ErrorContext(ctx, "review aggregate refresh failed",
			slog.Int64("service_id", serviceID),
			slog.String("error", err.Error()),
		)
	}
}
