package service

import (
	"context"
	"errors"

	"github.com/meimberg-io/awesomeapps/internal/domain"
)

// MultiPublisher fans each review event out to every configured publisher.
// All publishers are invoked even when earlier ones fail; the errors are
// joined.
type MultiPublisher []ReviewEventPublisher

// PublishReviewCreated publishes to all publishers.
func (m MultiPublisher) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishReviewCreated(ctx, review); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishReviewUpdated publishes to all publishers.
func (m MultiPublisher) PublishReviewUpdated(ctx context.Context, review *domain.Review) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishReviewUpdated(ctx, review); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishReviewDeleted publishes to all publishers.
func (m MultiPublisher) PublishReviewDeleted(ctx context.Context, reviewID, serviceID int64) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishReviewDeleted(ctx, reviewID, serviceID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
