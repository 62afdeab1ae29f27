package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/ClientReviews/internal/antiforgery"
	"github.com/utafrali/ClientReviews/internal/domain"
	"github.com/utafrali/ClientReviews/internal/notify"
	"github.com/utafrali/ClientReviews/internal/repository"
	apperrors "github.com/utafrali/ClientReviews/pkg/errors"
	"github.com/utafrali/ClientReviews/pkg/logger"
	"github.com/utafrali/ClientReviews/pkg/validator"
)

// NoticeSubmitted is shown after a successful submission.
const NoticeSubmitted = "Thank you! Your review is submitted and awaiting approval."

// Notice kinds.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// Notice is the message rendered above the review form.
type Notice struct {
	Kind string
	Text string
}

// SuccessNotice is shown on the GET that follows a successful submission.
func SuccessNotice() *Notice {
	return &Notice{Kind: NoticeSuccess, Text: NoticeSubmitted}
}

// ErrorNotice builds the inline notice for a failed submission. Only the
// user-safe message of an AppError is exposed.
func ErrorNotice(err error) *Notice {
	if appErr, ok := apperrors.As(err); ok {
		return &Notice{Kind: NoticeError, Text: appErr.Message}
	}
	return &Notice{Kind: NoticeError, Text: apperrors.PersistenceFailed(nil).Message}
}

// SubmitInput is one form post, as read from the request.
type SubmitInput struct {
	Name         string
	Email        string
	Message      string
	OriginPageID string
	Token        string
	SessionID    string
}

// reviewForm carries the sanitized values through validation.
type reviewForm struct {
	Name    string `form:"name" validate:"required,maxrunes=200"`
	Email   string `form:"email" validate:"required,max=254,email"`
	Message string `form:"message" validate:"required,maxrunes=5000"`
}

// SubmissionConfig holds the notification settings of a SubmissionService.
type SubmissionConfig struct {
	// NotifyTo is the operator address notified of every new review.
	NotifyTo string
	// AdminBaseURL prefixes the moderation link in the notification.
	AdminBaseURL string
}

// SubmissionService turns form posts into pending reviews.
type SubmissionService struct {
	repo     repository.ReviewRepository
	tokens   TokenVerifier
	notifier Notifier
	events   EventPublisher
	cfg      SubmissionConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewSubmissionService creates a new submission service.
func NewSubmissionService(
	repo repository.ReviewRepository,
	tokens TokenVerifier,
	notifier Notifier,
	events EventPublisher,
	cfg SubmissionConfig,
	logger *slog.Logger,
) *SubmissionService {
	return &SubmissionService{
		repo:     repo,
		tokens:   tokens,
		notifier: notifier,
		events:   events,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit verifies, sanitizes, validates and stores one review as pending,
// then notifies the operator. The returned error is always an *AppError:
// SecurityCheckFailed, ValidationFailed or PersistenceFailed. Nothing is
// stored when an error is returned.
func (s *SubmissionService) Submit(ctx context.Context, in SubmitInput) (*Notice, error) {
	log := logger.WithContext(ctx, s.logger)

	if err := s.tokens.Verify(ctx, in.Token, in.SessionID, antiforgery.ActionSubmitReview); err != nil {
		submissionsTotal.WithLabelValues(outcomeSecurityCheck).Inc()
		log.Warn("review submission rejected by security check", slog.String("reason", err.Error()))
		return nil, apperrors.SecurityCheckFailed(err)
	}

	form := reviewForm{
		Name:    SanitizeName(in.Name),
		Email:   SanitizeEmail(in.Email),
		Message: SanitizeMessage(in.Message),
	}
	if err := validator.Validate(form); err != nil {
		submissionsTotal.WithLabelValues(outcomeInvalid).Inc()
		var vErr *validator.ValidationError
		if errors.As(err, &vErr) {
			return nil, apperrors.ValidationFailed(vErr.Fields())
		}
		return nil, apperrors.ValidationFailed(nil)
	}

	now := s.now().UTC()
	review := &domain.Review{
		ID:     uuid.New().String(),
		Title:  domain.TrimWords(form.Name, domain.TitleWordLimit),
		Body:   form.Message,
		Status: domain.StatusPending,
		Meta: map[string]string{
			domain.MetaReviewerName:  form.Name,
			domain.MetaReviewerEmail: form.Email,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pageID, ok := parsePageID(in.OriginPageID); ok {
		review.Meta[domain.MetaOriginPageID] = strconv.Itoa(pageID)
	}

	if err := s.repo.Create(ctx, review); err != nil {
		submissionsTotal.WithLabelValues(outcomeStoreError).Inc()
		log.Error("failed to store review", slog.String("error", err.Error()))
		return nil, apperrors.PersistenceFailed(err)
	}
	submissionsTotal.WithLabelValues(outcomeAccepted).Inc()

	log.Info("review submitted",
		slog.String("review_id", review.ID),
		slog.String("origin_page_id", review.Meta[domain.MetaOriginPageID]),
	)

	s.notifier.Dispatch(ctx, notify.ReviewSubmitted(
		s.cfg.NotifyTo, form.Name, form.Email, form.Message, s.ModerationLink(review.ID),
	))

	if err := s.events.PublishReviewSubmitted(ctx, review); err != nil {
		log.Error("failed to publish review.submitted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	return SuccessNotice(), nil
}

// ModerationLink returns the admin API URL of review id.
func (s *SubmissionService) ModerationLink(id string) string {
	return fmt.Sprintf("%s/api/v1/admin/reviews/%s", strings.TrimRight(s.cfg.AdminBaseURL, "/"), id)
}

// parsePageID accepts a positive decimal integer.
func parsePageID(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
