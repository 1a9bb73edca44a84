// Package worker consumes review events and refreshes the denormalized
// review aggregates of the affected service. The HTTP backend already
// refreshes aggregates synchronously on writes; the worker is a backstop
// that repairs rows when a synchronous refresh was lost (crash between the
// review write and the aggregate write, or events produced by imports).
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/meimberg-io/awesomeapps/internal/service"
	apperrors "github.com/meimberg-io/awesomeapps/pkg/errors"
	pkgkafka "github.com/meimberg-io/awesomeapps/pkg/kafka"
)

// reviewEventData is the subset of the review event payload the worker
// needs: only the affected service row.
type reviewEventData struct {
	ServiceID int64 `json:"service_id"`
}

// AggregateListener handles review events by recomputing the aggregates of
// the reviewed service.
type AggregateListener struct {
	updater *service.AggregateUpdater
	logger  *slog.Logger
}

// NewAggregateListener creates a listener over the given aggregate updater.
func NewAggregateListener(updater *service.AggregateUpdater, logger *slog.Logger) *AggregateListener {
	return &AggregateListener{
		updater: updater,
		logger:  logger,
	}
}

// Handle processes one review event. Events whose service no longer exists
// are skipped, not retried.
func (l *AggregateListener) Handle(ctx context.Context, event *pkgkafka.Event) error {
	var data reviewEventData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", event.EventType, err)
	}
	if data.ServiceID == 0 {
		return fmt.Errorf("event %s has no service_id", event.EventID)
	}

	if err := l.updater.Refresh(ctx, data.ServiceID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			l.logger.WarnContext(ctx, "skipping event for deleted service",
				slog.String("event_type", event.EventType),
				slog.Int64("service_id", data.ServiceID),
			)
			return nil
		}
		return fmt.Errorf("refresh aggregates for service %d: %w", data.ServiceID, err)
	}

	l.logger.DebugContext(ctx, "aggregates refreshed",
		slog.String("event_type", event.EventType),
		slog.Int64("service_id", data.ServiceID),
	)
	return nil
}
