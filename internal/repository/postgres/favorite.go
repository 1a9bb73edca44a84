package postgres

import (
	"context"
	"fmt"

	"github.com/meimberg-io/awesomeapps/internal/domain"
	"github.com/meimberg-io/awesomeapps/pkg/database"
)

// FavoriteRepository implements favorite-set persistence using PostgreSQL.
type FavoriteRepository struct {
	pool database.DBTX
}

// NewFavoriteRepository creates a new PostgreSQL-backed favorite repository.
func NewFavoriteRepository(pool database.DBTX) *FavoriteRepository {
	return &FavoriteRepository{pool: pool}
}

// Add inserts the service into the member's favorite set. ON CONFLICT DO
// NOTHING keeps the set duplicate-free; the returned bool reports whether a
// row was actually inserted.
func (r *FavoriteRepository) Add(ctx context.Context, memberID, serviceID int64) (bool, error) {
	query := `
		INSERT INTO member_favorites (member_id, service_id)
		VALUES ($1, $2)
		ON CONFLICT (member_id, service_id) DO NOTHING`

	ct, err := r.pool.Exec(ctx, query, memberID, serviceID)
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// Remove deletes the service from the member's favorite set. Returns whether
// a row was actually removed.
func (r *FavoriteRepository) Remove(ctx context.Context, memberID, serviceID int64) (bool, error) {
	query := `DELETE FROM member_favorites WHERE member_id = $1 AND service_id = $2`

	ct, err := r.pool.Exec(ctx, query, memberID, serviceID)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// Exists reports whether the service is in the member's favorite set.
func (r *FavoriteRepository) Exists(ctx context.Context, memberID, serviceID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM member_favorites WHERE member_id = $1 AND service_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, memberID, serviceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check favorite exists: %w", err)
	}

	return exists, nil
}

// ListByMember returns the member's favorited services, newest first, plus
// the total count.
func (r *FavoriteRepository) ListByMember(ctx context.Context, memberID int64, page, perPage int) ([]domain.Service, int, error) {
	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	query := `
		SELECT s.id, s.document_id, s.name, s.slug, s.locale, s.review_count,
		       s.average_rating, s.published_at, s.created_at, s.updated_at,
		       count(*) OVER() AS total_count
		FROM member_favorites f
		JOIN services s ON s.id = f.service_id
		WHERE f.member_id = $1
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, memberID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var (
		services   []domain.Service
		totalCount int
	)

	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(
			&s.ID,
			&s.DocumentID,
			&s.Name,
			&s.Slug,
			&s.Locale,
			&s.ReviewCount,
			&s.AverageRating,
			&s.PublishedAt,
			&s.CreatedAt,
			&s.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan favorite row: %w", err)
		}
		services = append(services, s)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate favorite rows: %w", err)
	}

	if services == nil {
		services = []domain.Service{}
	}

	return services, totalCount, nil
}

// CountByMember returns the size of the member's favorite set.
func (r *FavoriteRepository) CountByMember(ctx context.Context, memberID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM member_favorites WHERE member_id = $1`, memberID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count favorites: %w", err)
	}

	return count, nil
}
