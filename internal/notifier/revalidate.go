package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/meimberg-io/awesomeapps/internal/domain"
	"github.com/meimberg-io/awesomeapps/internal/repository"
	apperrors "github.com/meimberg-io/awesomeapps/pkg/errors"
	"github.com/meimberg-io/awesomeapps/pkg/httpclient"
)

// secretHeader carries the shared secret the frontend checks before
// accepting a revalidation request.
const secretHeader = "X-Revalidate-Secret"

// revalidateRequest is the payload posted to the frontend webhook.
type revalidateRequest struct {
	DocumentID string `json:"document_id"`
}

// Revalidator asks the frontend to re-render the page of a service whose
// review aggregates changed. It implements the review event publisher
// interface so it composes with the Kafka producer.
//
// The frontend is protected by a circuit breaker: when it is down or slow,
// revalidation requests are rejected locally instead of piling up.
type Revalidator struct {
	client   *httpclient.CircuitBreakerClient
	services repository.ServiceRepository
	url      string
	secret   string
	logger   *slog.Logger
}

// NewRevalidator creates a revalidator posting to the given webhook URL.
// secret may be empty, in which case no secret header is sent.
func NewRevalidator(
	client *httpclient.CircuitBreakerClient,
	services repository.ServiceRepository,
	url string,
	secret string,
	logger *slog.Logger,
) *Revalidator {
	return &Revalidator{
		client:   client,
		services: services,
		url:      url,
		secret:   secret,
		logger:   logger,
	}
}

// PublishReviewCreated revalidates the page of the reviewed service.
func (r *Revalidator) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	return r.revalidate(ctx, review.ServiceID)
}

// PublishReviewUpdated revalidates the page of the reviewed service.
func (r *Revalidator) PublishReviewUpdated(ctx context.Context, review *domain.Review) error {
	return r.revalidate(ctx, review.ServiceID)
}

// PublishReviewDeleted revalidates the page of the service the review
// belonged to.
func (r *Revalidator) PublishReviewDeleted(ctx context.Context, reviewID, serviceID int64) error {
	return r.revalidate(ctx, serviceID)
}

func (r *Revalidator) revalidate(ctx context.Context, serviceID int64) error {
	svc, err := r.services.GetByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// The service row is gone; there is no page to revalidate.
			return nil
		}
		return fmt.Errorf("resolve service %d: %w", serviceID, err)
	}

	body, err := json.Marshal(revalidateRequest{DocumentID: svc.DocumentID})
	if err != nil {
		return fmt.Errorf("marshal revalidation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create revalidation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.secret != "" {
		req.Header.Set(secretHeader, r.secret)
	}

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("revalidate %s: %w", svc.DocumentID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpclient.ParseResponseError(resp, "frontend")
	}

	r.logger.DebugContext(ctx, "frontend revalidated",
		slog.String("document_id", svc.DocumentID),
	)
	return nil
}
