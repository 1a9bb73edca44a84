package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meimberg-io/awesomeapps/internal/domain"
	"github.com/meimberg-io/awesomeapps/internal/repository"
)

// tagCountCacheTTL bounds how stale a cached intersection count may get.
const tagCountCacheTTL = 60 * time.Second

// TagService answers tag-intersection queries: how many published services
// carry a given set of tags, and which ones. All matching happens on tag
// documentIds, never on locale-specific row ids.
type TagService struct {
	tags     repository.TagRepository
	services repository.ServiceRepository
	cache    *redis.Client
	logger   *slog.Logger
}

// NewTagService creates a new tag service. cache may be nil; counts are then
// computed on every call.
func NewTagService(
	tags repository.TagRepository,
	services repository.ServiceRepository,
	cache *redis.Client,
	logger *slog.Logger,
) *TagService {
	return &TagService{
		tags:     tags,
		services: services,
		cache:    cache,
		logger:   logger,
	}
}

// dedupeDocumentIDs removes duplicates while preserving first-seen order.
func dedupeDocumentIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// CountServices counts the distinct published services whose tag set is a
// superset of {selfDocumentID} ∪ additionalTags.
func (s *TagService) CountServices(ctx context.Context, selfDocumentID string, additionalTags []string) (int, error) {
	tagIDs := dedupeDocumentIDs(append([]string{selfDocumentID}, additionalTags...))
	if len(tagIDs) == 0 {
		return 0, nil
	}

	key := tagCountCacheKey(tagIDs)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			if count, convErr := strconv.Atoi(cached); convErr == nil {
				return count, nil
			}
		} else if err != redis.Nil {
			s.logger.WarnContext(ctx, "tag count cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	count, err := s.tags.CountServicesWithTags(ctx, tagIDs)
	if err != nil {
		return 0, fmt.Errorf("count services with tags: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, strconv.Itoa(count), tagCountCacheTTL).Err(); err != nil {
			s.logger.WarnContext(ctx, "tag count cache write failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	return count, nil
}

// tagCountCacheKey builds a canonical cache key: sorted so the same set of
// tags hits the same entry regardless of request order.
func tagCountCacheKey(tagIDs []string) string {
	sorted := make([]string, len(tagIDs))
	copy(sorted, tagIDs)
	sort.Strings(sorted)
	return "tags:count:" + strings.Join(sorted, ",")
}

// ServicesByTags returns the published services whose deduplicated tag
// documentId set contains every requested tag. An empty tag list returns all
// published services. sortExpr is a comma-separated list of field:direction
// pairs; directions other than "desc" sort ascending.
func (s *TagService) ServicesByTags(ctx context.Context, tags []string, sortExpr string) ([]domain.Service, error) {
	services, err := s.services.ListByTags(ctx, dedupeDocumentIDs(tags), parseSort(sortExpr))
	if err != nil {
		return nil, fmt.Errorf("services by tags: %w", err)
	}
	return services, nil
}

// parseSort parses "field:direction,field:direction" into sort terms. A
// missing or unrecognized direction means ascending.
func parseSort(expr string) []repository.SortField {
	if expr == "" {
		return nil
	}

	var fields []repository.SortField
	for _, term := range strings.Split(expr, ",") {
		parts := strings.SplitN(strings.TrimSpace(term), ":", 2)
		if parts[0] == "" {
			continue
		}
		fields = append(fields, repository.SortField{
			Field: parts[0],
			Desc:  len(parts) == 2 && strings.TrimSpace(parts[1]) == "desc",
		})
	}
	return fields
}

// GetTag retrieves one tag row by documentId.
func (s *TagService) GetTag(ctx context.Context, documentID string) (*domain.Tag, error) {
	return s.tags.GetByDocumentID(ctx, documentID)
}

// ListTags returns all published tags with their attached service counts.
func (s *TagService) ListTags(ctx context.Context) ([]domain.TagWithCount, error) {
	tags, err := s.tags.ListWithCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}
