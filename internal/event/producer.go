package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/meimberg-io/awesomeapps/internal/domain"
	pkgkafka "github.com/meimberg-io/awesomeapps/pkg/kafka"
)

// Kafka topics for review domain events.
var (
	TopicReviewCreated = pkgkafka.Topic("review", "created")
	TopicReviewUpdated = pkgkafka.Topic("review", "updated")
	TopicReviewDeleted = pkgkafka.Topic("review", "deleted")
)

// Aggregate type constant.
const AggregateTypeReview = "review"

// Source identifier for events originating from this backend.
const SourceBackend = "awesomeapps-backend"

// ReviewEventData is the payload carried by review.created and
// review.updated events.
type ReviewEventData struct {
	ID           int64  `json:"id"`
	ServiceID    int64  `json:"service_id"`
	MemberID     int64  `json:"member_id"`
	Voting       int    `json:"voting"`
	ReviewText   string `json:"reviewtext"`
	IsPublished  bool   `json:"is_published"`
	HelpfulCount int    `json:"helpful_count"`
}

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ID        int64 `json:"id"`
	ServiceID int64 `json:"service_id"`
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func reviewData(review *domain.Review) ReviewEventData {
	return ReviewEventData{
		ID:           review.ID,
		ServiceID:    review.ServiceID,
		MemberID:     review.MemberID,
		Voting:       review.Voting,
		ReviewText:   review.ReviewText,
		IsPublished:  review.IsPublished,
		HelpfulCount: review.HelpfulCount,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewCreated, review.ID, reviewData(review))
}

// PublishReviewUpdated publishes a review.updated event.
func (p *Producer) PublishReviewUpdated(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewUpdated, review.ID, reviewData(review))
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, reviewID, serviceID int64) error {
	return p.publish(ctx, TopicReviewDeleted, reviewID, ReviewDeletedData{ID: reviewID, ServiceID: serviceID})
}

func (p *Producer) publish(ctx context.Context, topic string, reviewID int64, data any) error {
	event, err := pkgkafka.NewEvent(topic, strconv.FormatInt(reviewID, 10), AggregateTypeReview, SourceBackend, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published review event",
		slog.String("topic", topic),
		slog.Int64("review_id", reviewID),
	)

	return nil
}
