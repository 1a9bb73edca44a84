package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meimberg-io/awesomeapps/internal/domain"
	"github.com/meimberg-io/awesomeapps/internal/repository"
	"github.com/meimberg-io/awesomeapps/pkg/database"
	apperrors "github.com/meimberg-io/awesomeapps/pkg/errors"
)

// ReviewRepository implements review persistence operations using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review. The generated id and timestamps are written
// back into the given review.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (reviewtext, voting, member_id, service_id, is_published, published_at, helpful_count)
		VALUES ($1, $2, $3, $4, $5, NOW(), $6)
		RETURNING id, published_at, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		review.ReviewText,
		review.Voting,
		review.MemberID,
		review.ServiceID,
		review.IsPublished,
		review.HelpfulCount,
	).Scan(&review.ID, &review.PublishedAt, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		// A concurrent create for the same member/service pair can slip past
		// the existence check and land on uq_reviews_member_service.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.DuplicateReview()
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by id.
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	query := `
		SELECT id, reviewtext, voting, member_id, service_id, is_published,
		       published_at, helpful_count, created_at, updated_at
		FROM reviews
		WHERE id = $1`

	var rv domain.Review
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rv.ID,
		&rv.ReviewText,
		&rv.Voting,
		&rv.MemberID,
		&rv.ServiceID,
		&rv.IsPublished,
		&rv.PublishedAt,
		&rv.HelpfulCount,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("get review by id: %w", err)
	}

	return &rv, nil
}

// ExistsForMemberAndService reports whether the member already reviewed the service.
func (r *ReviewRepository) ExistsForMemberAndService(ctx context.Context, memberID, serviceID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM reviews WHERE member_id = $1 AND service_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, memberID, serviceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check review exists: %w", err)
	}

	return exists, nil
}

// Update persists the text and voting of an existing review.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	query := `
		UPDATE reviews
		SET reviewtext = $2, voting = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query, review.ID, review.ReviewText, review.Voting).Scan(&review.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("review", strconv.FormatInt(review.ID, 10))
		}
		return fmt.Errorf("update review: %w", err)
	}

	return nil
}

// Delete removes a review by id.
func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", strconv.FormatInt(id, 10))
	}

	return nil
}

// IncrementHelpful atomically increments the helpful counter.
func (r *ReviewRepository) IncrementHelpful(ctx context.Context, id int64) (*domain.Review, error) {
	query := `
		UPDATE reviews
		SET helpful_count = helpful_count + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING id, reviewtext, voting, member_id, service_id, is_published,
		          published_at, helpful_count, created_at, updated_at`

	var rv domain.Review
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rv.ID,
		&rv.ReviewText,
		&rv.Voting,
		&rv.MemberID,
		&rv.ServiceID,
		&rv.IsPublished,
		&rv.PublishedAt,
		&rv.HelpfulCount,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("increment helpful count: %w", err)
	}

	return &rv, nil
}

// AggregateForService returns the count and unrounded mean voting of the
// published reviews attached to the service.
func (r *ReviewRepository) AggregateForService(ctx context.Context, serviceID int64) (domain.RatingSummary, error) {
	query := `
		SELECT COUNT(*), COALESCE(AVG(voting), 0)
		FROM reviews
		WHERE service_id = $1 AND is_published = TRUE`

	var summary domain.RatingSummary
	err := r.pool.QueryRow(ctx, query, serviceID).Scan(&summary.Count, &summary.Average)
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("aggregate reviews for service: %w", err)
	}

	return summary, nil
}

// Columns reviews can be sorted by on listing. Anything else falls back to
// created_at.
var reviewSortColumns = map[string]string{
	"createdAt":    "r.created_at",
	"voting":       "r.voting",
	"helpfulCount": "r.helpful_count",
}

// ListByService returns published reviews for a service with authors
// populated, plus the total count.
func (r *ReviewRepository) ListByService(ctx context.Context, serviceID int64, opts repository.ReviewListOptions) ([]domain.Review, int, error) {
	limit := opts.PageSize
	if limit <= 0 {
		limit = 10
	}
	offset := 0
	if opts.Page > 1 {
		offset = (opts.Page - 1) * limit
	}

	column, ok := reviewSortColumns[opts.SortBy]
	if !ok {
		column = "r.created_at"
	}
	direction := "DESC"
	if opts.SortOrder == "asc" {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT r.id, r.reviewtext, r.voting, r.member_id, r.service_id, r.is_published,
		       r.published_at, r.helpful_count, r.created_at, r.updated_at,
		       m.username, m.display_name, m.avatar_url,
		       count(*) OVER() AS total_count
		FROM reviews r
		JOIN members m ON m.id = r.member_id
		WHERE r.service_id = $1 AND r.is_published = TRUE
		ORDER BY %s %s
		LIMIT $2 OFFSET $3`, column, direction)

	rows, err := r.pool.Query(ctx, query, serviceID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews    []domain.Review
		totalCount int
	)

	for rows.Next() {
		var (
			rv     domain.Review
			member domain.MemberSummary
		)

		if err := rows.Scan(
			&rv.ID,
			&rv.ReviewText,
			&rv.Voting,
			&rv.MemberID,
			&rv.ServiceID,
			&rv.IsPublished,
			&rv.PublishedAt,
			&rv.HelpfulCount,
			&rv.CreatedAt,
			&rv.UpdatedAt,
			&member.Username,
			&member.DisplayName,
			&member.AvatarURL,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}

		member.ID = rv.MemberID
		rv.Member = &member
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, totalCount, nil
}

// ListByMember returns all reviews written by a member, newest first.
func (r *ReviewRepository) ListByMember(ctx context.Context, memberID int64) ([]domain.Review, error) {
	query := `
		SELECT id, reviewtext, voting, member_id, service_id, is_published,
		       published_at, helpful_count, created_at, updated_at
		FROM reviews
		WHERE member_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("list member reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.ReviewText,
			&rv.Voting,
			&rv.MemberID,
			&rv.ServiceID,
			&rv.IsPublished,
			&rv.PublishedAt,
			&rv.HelpfulCount,
			&rv.CreatedAt,
			&rv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, nil
}

// CountByMember returns the number of reviews written by a member.
func (r *ReviewRepository) CountByMember(ctx context.Context, memberID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE member_id = $1`, memberID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count member reviews: %w", err)
	}

	return count, nil
}
