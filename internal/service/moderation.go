package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/ClientReviews/internal/domain"
	"github.com/utafrali/ClientReviews/internal/repository"
	apperrors "github.com/utafrali/ClientReviews/pkg/errors"
	"github.com/utafrali/ClientReviews/pkg/logger"
)

// StatusAll lists reviews of every status.
const StatusAll = "all"

// ListInput selects one page of reviews for moderation. An empty Status
// means pending.
type ListInput struct {
	Status  string
	Limit   int
	Offset  int
	OrderBy string
	Order   string
}

// ModerationService implements the authenticated moderation operations.
type ModerationService struct {
	repo   repository.ReviewRepository
	events EventPublisher
	logger *slog.Logger
}

// NewModerationService creates a new moderation service.
func NewModerationService(repo repository.ReviewRepository, events EventPublisher, logger *slog.Logger) *ModerationService {
	return &ModerationService{repo: repo, events: events, logger: logger}
}

// List returns one page of reviews and the total number matching.
func (s *ModerationService) List(ctx context.Context, in ListInput) ([]domain.Review, int, error) {
	status := in.Status
	switch {
	case status == "":
		status = domain.StatusPending
	case status == StatusAll:
		status = ""
	case !domain.IsValidStatus(status):
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown status %q", in.Status))
	}

	reviews, total, err := s.repo.Query(ctx, repository.ReviewFilter{
		Status:  status,
		OrderBy: in.OrderBy,
		Order:   in.Order,
		Limit:   in.Limit,
		Offset:  in.Offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}

// Get returns one review with all of its metadata.
func (s *ModerationService) Get(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return review, nil
}

// ChangeStatus moves a review to status. Setting the current status again is
// a no-op and publishes no event.
func (s *ModerationService) ChangeStatus(ctx context.Context, id, status, changedBy string) (*domain.Review, error) {
	if !domain.IsValidStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown status %q", status))
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("update review status: %w", err)
	}
	statusChangesTotal.WithLabelValues(status).Inc()

	log := logger.WithContext(ctx, s.logger)
	log.Info("review status changed",
		slog.String("review_id", id),
		slog.String("old_status", current.Status),
		slog.String("new_status", status),
		slog.String("changed_by", changedBy),
	)

	if err := s.events.PublishReviewStatusChanged(ctx, updated, current.Status, changedBy); err != nil {
		log.Error("failed to publish review.status_changed event",
			slog.String("review_id", id),
			slog.String("error", err.Error()),
		)
	}
	return updated, nil
}

// Delete permanently removes a review and its metadata.
func (s *ModerationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.WithContext(ctx, s.logger).Info("review deleted", slog.String("review_id", id))
	return nil
}
