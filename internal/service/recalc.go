package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/meimberg-io/awesomeapps/internal/repository"
)

// RecalcResult summarizes a batch recalculation run.
type RecalcResult struct {
	TotalServices int `json:"total_services"`
	Updated       int `json:"updated"`
	Failed        int `json:"failed"`
}

// Recalculator recomputes review aggregates for every service row. It is
// used for the initial backfill after introducing the cached fields and for
// administrative drift correction. Running it twice over an unchanged review
// set produces identical results.
type Recalculator struct {
	services repository.ServiceRepository
	reviews  repository.ReviewRepository
	updater  *AggregateUpdater
	logger   *slog.Logger
}

// NewRecalculator creates a new batch recalculator.
func NewRecalculator(
	services repository.ServiceRepository,
	reviews repository.ReviewRepository,
	logger *slog.Logger,
) *Recalculator {
	return &Recalculator{
		services: services,
		reviews:  reviews,
		updater:  NewAggregateUpdater(services, reviews, logger),
		logger:   logger,
	}
}

// Run iterates every service row, locale variants included, recomputes its
// aggregates and writes them to that row directly. No locale fan-out is
// needed because every row is visited individually. A failure on one service
// does not stop the pass; all failures are joined into the returned error.
func (r *Recalculator) Run(ctx context.Context) (*RecalcResult, error) {
	ids, err := r.services.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	r.logger.InfoContext(ctx, "starting review aggregate recalculation",
		slog.Int("services", len(ids)),
	)

	result := &RecalcResult{TotalServices: len(ids)}
	var errs []error

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		agg, err := r.updater.computeForService(ctx, id)
		if err != nil {
			result.Failed++
			errs = append(errs, err)
			r.logger.ErrorContext(ctx, "recalculation failed for service",
				slog.Int64("service_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}

		if err := r.services.UpdateAggregates(ctx, id, agg); err != nil {
			result.Failed++
			errs = append(errs, err)
			r.logger.ErrorContext(ctx, "aggregate write failed for service",
				slog.Int64("service_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}

		result.Updated++
		r.logger.DebugContext(ctx, "recalculated service aggregates",
			slog.Int64("service_id", id),
			slog.Int("review_count", agg.ReviewCount),
			slog.Float64("average_rating", agg.AverageRating),
		)
	}

	r.logger.InfoContext(ctx, "review aggregate recalculation complete",
		slog.Int("total", result.TotalServices),
		slog.Int("updated", result.Updated),
		slog.Int("failed", result.Failed),
	)

	return result, errors.Join(errs...)
}
