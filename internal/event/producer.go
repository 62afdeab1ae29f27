package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/ClientReviews/internal/domain"
	pkgkafka "github.com/utafrali/ClientReviews/pkg/kafka"
	"github.com/utafrali/ClientReviews/pkg/logger"
)

// Kafka topic constants for review domain events.
const (
	TopicReviewSubmitted     = "reviews.review.submitted"
	TopicReviewStatusChanged = "reviews.review.status_changed"
)

// AggregateTypeReview is the aggregate type of every review event.
const AggregateTypeReview = "review"

// SourceReviewsService identifies events originating from this service.
const SourceReviewsService = "reviews-service"

// ReviewSubmittedData is the payload for a review.submitted event. It never
// carries the reviewer's email.
type ReviewSubmittedData struct {
	ID           string    `json:"id"`
	ReviewerName string    `json:"reviewer_name"`
	OriginPageID string    `json:"origin_page_id,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// ReviewStatusChangedData is the payload for a review.status_changed event.
type ReviewStatusChangedData struct {
	ID        string    `json:"id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ChangedBy string    `json:"changed_by,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// publisher is the subset of *pkgkafka.Producer used here.
type publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the reviews service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewSubmitted publishes a review.submitted event.
func (p *Producer) PublishReviewSubmitted(ctx context.Context, review *domain.Review) error {
	data := ReviewSubmittedData{
		ID:           review.ID,
		ReviewerName: review.ReviewerName(),
		OriginPageID: review.Meta[domain.MetaOriginPageID],
		Status:       review.Status,
		CreatedAt:    review.CreatedAt,
	}

	if err := p.publish(ctx, TopicReviewSubmitted, review.ID, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published review.submitted event",
		slog.String("review_id", review.ID),
	)
	return nil
}

// PublishReviewStatusChanged publishes a review.status_changed event.
func (p *Producer) PublishReviewStatusChanged(ctx context.Context, review *domain.Review, oldStatus, changedBy string) error {
	data := ReviewStatusChangedData{
		ID:        review.ID,
		OldStatus: oldStatus,
		NewStatus: review.Status,
		ChangedBy: changedBy,
		ChangedAt: review.UpdatedAt,
	}

	if err := p.publish(ctx, TopicReviewStatusChanged, review.ID, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published review.status_changed event",
		slog.String("review_id", review.ID),
		slog.String("old_status", oldStatus),
		slog.String("new_status", review.Status),
	)
	return nil
}

func (p *Producer) publish(ctx context.Context, topic, id string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, id, AggregateTypeReview, SourceReviewsService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// Noop discards every event. It is used when no brokers are configured.
type Noop struct{}

func (Noop) PublishReviewSubmitted(context.Context, *domain.Review) error { return nil }

func (Noop) PublishReviewStatusChanged(context.Context, *domain.Review, string, string) error {
	return nil
}
