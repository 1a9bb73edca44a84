package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/meimberg-io/awesomeapps/internal/domain"
	"github.com/meimberg-io/awesomeapps/internal/repository"
	"github.com/meimberg-io/awesomeapps/pkg/database"
	apperrors "github.com/meimberg-io/awesomeapps/pkg/errors"
)

// ServiceRepository implements service persistence operations using PostgreSQL.
type ServiceRepository struct {
	pool database.DBTX
}

// NewServiceRepository creates a new PostgreSQL-backed service repository.
func NewServiceRepository(pool database.DBTX) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

const serviceColumns = `id, document_id, name, slug, locale, review_count, average_rating, published_at, created_at, updated_at`

func scanService(row pgx.Row) (*domain.Service, error) {
	var s domain.Service
	err := row.Scan(
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
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID retrieves a service row by its storage-local id.
func (r *ServiceRepository) GetByID(ctx context.Context, id int64) (*domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	s, err := scanService(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("service", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("get service by id: %w", err)
	}

	return s, nil
}

// GetByDocumentID retrieves one service row sharing the given documentId.
// When several locale variants exist, the oldest row wins.
func (r *ServiceRepository) GetByDocumentID(ctx context.Context, documentID string) (*domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE document_id = $1 ORDER BY id LIMIT 1`

	s, err := scanService(r.pool.QueryRow(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("service", documentID)
		}
		return nil, fmt.Errorf("get service by document id: %w", err)
	}

	return s, nil
}

// ListIDs returns the ids of every service row, locale variants included.
func (r *ServiceRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM services ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list service ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan service id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate service id rows: %w", err)
	}

	return ids, nil
}

// UpdateAggregates writes the denormalized review statistics to one service row.
func (r *ServiceRepository) UpdateAggregates(ctx context.Context, id int64, agg domain.ServiceAggregate) error {
	query := `
		UPDATE services
		SET review_count = $2, average_rating = $3, updated_at = NOW()
		WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id, agg.ReviewCount, agg.AverageRating)
	if err != nil {
		return fmt.Errorf("update service aggregates: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("service", strconv.FormatInt(id, 10))
	}

	return nil
}

// UpdateAggregatesByDocumentID writes the denormalized review statistics to
// every locale variant sharing the given documentId.
func (r *ServiceRepository) UpdateAggregatesByDocumentID(ctx context.Context, documentID string, agg domain.ServiceAggregate) (int64, error) {
	query := `
		UPDATE services
		SET review_count = $2, average_rating = $3, updated_at = NOW()
		WHERE document_id = $1`

	ct, err := r.pool.Exec(ctx, query, documentID, agg.ReviewCount, agg.AverageRating)
	if err != nil {
		return 0, fmt.Errorf("update service aggregates by document id: %w", err)
	}

	return ct.RowsAffected(), nil
}

// Columns services can be sorted by in tag-filtered listings. Anything else
// is ignored.
var serviceSortColumns = map[string]string{
	"name":          "s.name",
	"reviewCount":   "s.review_count",
	"averageRating": "s.average_rating",
	"createdAt":     "s.created_at",
	"updatedAt":     "s.updated_at",
	"publishedAt":   "s.published_at",
}

// ListByTags returns published services whose deduplicated tag documentId set
// contains every id in tagDocumentIDs. Matching happens in SQL: a service row
// qualifies when the number of distinct requested tag documentIds attached to
// its documentId equals the size of the requested set. Extra tags on the
// service are irrelevant.
func (r *ServiceRepository) ListByTags(ctx context.Context, tagDocumentIDs []string, sort []repository.SortField) ([]domain.Service, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + serviceColumns + ` FROM services s WHERE s.published_at IS NOT NULL`)

	var args []any
	if len(tagDocumentIDs) > 0 {
		args = append(args, tagDocumentIDs, len(tagDocumentIDs))
		sb.WriteString(`
		AND s.document_id IN (
			SELECT sv.document_id
			FROM services sv
			JOIN services_tags st ON st.service_id = sv.id
			JOIN tags t ON t.id = st.tag_id
			WHERE sv.published_at IS NOT NULL
			  AND t.published_at IS NOT NULL
			  AND t.document_id = ANY($1)
			GROUP BY sv.document_id
			HAVING COUNT(DISTINCT t.document_id) = $2
		)`)
	}

	sb.WriteString(" ORDER BY ")
	var orderTerms []string
	for _, sf := range sort {
		column, ok := serviceSortColumns[sf.Field]
		if !ok {
			continue
		}
		direction := "ASC"
		if sf.Desc {
			direction = "DESC"
		}
		orderTerms = append(orderTerms, column+" "+direction)
	}
	if len(orderTerms) == 0 {
		orderTerms = []string{"s.id ASC"}
	}
	sb.WriteString(strings.Join(orderTerms, ", "))

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list services by tags: %w", err)
	}
	defer rows.Close()

	var services []domain.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service row: %w", err)
		}
		services = append(services, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate service rows: %w", err)
	}

	if services == nil {
		services = []domain.Service{}
	}

	return services, nil
}
