package service

import (
	"context"

	"github.com/utafrali/ClientReviews/internal/domain"
	"github.com/utafrali/ClientReviews/internal/notify"
)

// TokenVerifier checks an anti-forgery token for a session and action.
type TokenVerifier interface {
	Verify(ctx context.Context, token, sessionID, action string) error
}

// Notifier hands a message off for background delivery.
type Notifier interface {
	Dispatch(ctx context.Context, msg notify.Message)
}

// EventPublisher publishes review domain events.
type EventPublisher interface {
	PublishReviewSubmitted(ctx context.Context, review *domain.Review) error
	PublishReviewStatusChanged(ctx context.Context, review *domain.Review, oldStatus, changedBy string) error
}
