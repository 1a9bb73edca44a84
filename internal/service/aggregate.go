package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/meimberg-io/awesomeapps/internal/domain"
	"github.com/meimberg-io/awesomeapps/internal/repository"
)

// AggregateUpdater recomputes the denormalized reviewCount/averageRating of
// a service from its authoritative set of published reviews and replicates
// the values to every locale variant sharing the service's documentId.
//
// It always recomputes from scratch rather than applying +1/-1 deltas, so a
// missed trigger or partial failure cannot leave permanent drift: the next
// successful refresh converges regardless of history.
type AggregateUpdater struct {
	services repository.ServiceRepository
	reviews  repository.ReviewRepository
	logger   *slog.Logger
}

// NewAggregateUpdater creates a new aggregate updater.
func NewAggregateUpdater(
	services repository.ServiceRepository,
	reviews repository.ReviewRepository,
	logger *slog.Logger,
) *AggregateUpdater {
	return &AggregateUpdater{
		services: services,
		reviews:  reviews,
		logger:   logger,
	}
}

// roundRating rounds a mean voting to one decimal place.
func roundRating(mean float64) float64 {
	return math.Round(mean*10) / 10
}

// Refresh recomputes the review aggregates for the service with the given id
// and writes them to all of its locale variants.
//
// The returned error exists so callers can decide what a failed refresh
// means: review mutations deliberately log and discard it (a failed refresh
// must never fail the mutation that triggered it), while the batch
// recalculator propagates it.
func (u *AggregateUpdater) Refresh(ctx context.Context, serviceID int64) error {
	svc, err := u.services.GetByID(ctx, serviceID)
	if err != nil {
		return fmt.Errorf("resolve service %d: %w", serviceID, err)
	}

	agg, err := u.computeForService(ctx, serviceID)
	if err != nil {
		return err
	}

	rows, err := u.services.UpdateAggregatesByDocumentID(ctx, svc.DocumentID, agg)
	if err != nil {
		return fmt.Errorf("write aggregates for document %s: %w", svc.DocumentID, err)
	}

	u.logger.InfoContext(ctx, "updated review aggregates",
		slog.Int64("service_id", serviceID),
		slog.String("document_id", svc.DocumentID),
		slog.Int("review_count", agg.ReviewCount),
		slog.Float64("average_rating", agg.AverageRating),
		slog.Int64("locale_rows", rows),
	)

	return nil
}

// computeForService computes the aggregate values for a single service id
// without writing anything.
func (u *AggregateUpdater) computeForService(ctx context.Context, serviceID int64) (domain.ServiceAggregate, error) {
	summary, err := u.reviews.AggregateForService(ctx, serviceID)
	if err != nil {
		return domain.ServiceAggregate{}, fmt.Errorf("aggregate reviews for service %d: %w", serviceID, err)
	}

	agg := domain.ServiceAggregate{ReviewCount: summary.Count}
	if summary.Count > 0 {
		agg.AverageRating = roundRating(summary.Average)
	}

	return agg, nil
}
