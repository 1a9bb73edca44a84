package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meimberg-io/awesomeapps/internal/domain"
	"github.com/meimberg-io/awesomeapps/pkg/database"
	apperrors "github.com/meimberg-io/awesomeapps/pkg/errors"
)

// TagRepository implements tag persistence operations using PostgreSQL.
type TagRepository struct {
	pool database.DBTX
}

// NewTagRepository creates a new PostgreSQL-backed tag repository.
func NewTagRepository(pool database.DBTX) *TagRepository {
	return &TagRepository{pool: pool}
}

// GetByDocumentID retrieves one tag row sharing the given documentId.
func (r *TagRepository) GetByDocumentID(ctx context.Context, documentID string) (*domain.Tag, error) {
	query := `
		SELECT id, document_id, name, locale, published_at, created_at, updated_at
		FROM tags
		WHERE document_id = $1
		ORDER BY id
		LIMIT 1`

	var t domain.Tag
	err := r.pool.QueryRow(ctx, query, documentID).Scan(
		&t.ID,
		&t.DocumentID,
		&t.Name,
		&t.Locale,
		&t.PublishedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("tag", documentID)
		}
		return nil, fmt.Errorf("get tag by document id: %w", err)
	}

	return &t, nil
}

// CountServicesWithTags counts distinct published services whose published
// tag set contains every documentId in tagDocumentIDs. Services and tags are
// both deduplicated by documentId so a request made through one locale's row
// id matches services tagged through another locale.
func (r *TagRepository) CountServicesWithTags(ctx context.Context, tagDocumentIDs []string) (int, error) {
	if len(tagDocumentIDs) == 0 {
		return 0, nil
	}

	query := `
		SELECT COUNT(*)
		FROM (
			SELECT s.document_id
			FROM services s
			JOIN services_tags st ON st.service_id = s.id
			JOIN tags t ON t.id = st.tag_id
			WHERE s.published_at IS NOT NULL
			  AND t.published_at IS NOT NULL
			  AND t.document_id = ANY($1)
			GROUP BY s.document_id
			HAVING COUNT(DISTINCT t.document_id) = $2
		) matched`

	var count int
	err := r.pool.QueryRow(ctx, query, tagDocumentIDs, len(tagDocumentIDs)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count services with tags: %w", err)
	}

	return count, nil
}

// ListWithCounts returns all published tags with the number of distinct
// published services carrying each.
func (r *TagRepository) ListWithCounts(ctx context.Context) ([]domain.TagWithCount, error) {
	query := `
		SELECT t.id, t.document_id, t.name, t.locale, t.published_at, t.created_at, t.updated_at,
		       COUNT(DISTINCT s.document_id) AS service_count
		FROM tags t
		LEFT JOIN services_tags st ON st.tag_id = t.id
		LEFT JOIN services s ON s.id = st.service_id AND s.published_at IS NOT NULL
		WHERE t.published_at IS NOT NULL
		GROUP BY t.id, t.document_id, t.name, t.locale, t.published_at, t.created_at, t.updated_at
		ORDER BY t.name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tags with counts: %w", err)
	}
	defer rows.Close()

	var tags []domain.TagWithCount
	for rows.Next() {
		var t domain.TagWithCount
		if err := rows.Scan(
			&t.ID,
			&t.DocumentID,
			&t.Name,
			&t.Locale,
			&t.PublishedAt,
			&t.CreatedAt,
			&t.UpdatedAt,
			&t.ServiceCount,
		); err != nil {
			return nil, fmt.Errorf("scan tag row: %w", err)
		}
		tags = append(tags, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tag rows: %w", err)
	}

	if tags == nil {
		tags = []domain.TagWithCount{}
	}

	return tags, nil
}
