package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ClientReviews/internal/domain"
	"github.com/utafrali/ClientReviews/internal/repository"
	apperrors "github.com/utafrali/ClientReviews/pkg/errors"
)

func newTestModerationService() (*ModerationService, *mockReviewRepository, *mockEventPublisher) {
	repo := new(mockReviewRepository)
	events := new(mockEventPublisher)
	return NewModerationService(repo, events, newTestLogger()), repo, events
}

func pendingReview() *domain.Review {
	return &domain.Review{
		ID:        "rev-1",
		Title:     "Ann",
		Body:      "Great.",
		Status:    domain.StatusPending,
		Meta:      map[string]string{domain.MetaReviewerName: "Ann", domain.MetaReviewerEmail: "ann@example.com"},
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
}

// ─── List ───────────────────────────────────────────────────────────────────

func TestList_DefaultsToPending(t *testing.T) {
	svc, repo, _ := newTestModerationService()
	repo.On("Query", mock.Anything, repository.ReviewFilter{Status: domain.StatusPending, Limit: 20}).
		Return([]domain.Review{*pendingReview()}, 1, nil)

	reviews, total, err := svc.List(context.Background(), ListInput{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, reviews, 1)
	repo.AssertExpectations(t)
}

func TestList_AllStatuses(t *testing.T) {
	svc, repo, _ := newTestModerationService()
	repo.On("Query", mock.Anything, repository.ReviewFilter{Status: "", Limit: 20, Offset: 20}).
		Return([]domain.Review{}, 25, nil)

	_, total, err := svc.List(context.Background(), ListInput{Status: StatusAll, Limit: 20, Offset: 20})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	repo.AssertExpectations(t)
}

func TestList_UnknownStatus(t *testing.T) {
	svc, repo, _ := newTestModerationService()

	_, _, err := svc.List(context.Background(), ListInput{Status: "approved"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
}

func TestList_StoreError(t *testing.T) {
	svc, repo, _ := newTestModerationService()
	repo.On("Query", mock.Anything, mock.Anything).Return(nil, 0, errors.New("db down"))

	_, _, err := svc.List(context.Background(), ListInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list reviews")
}

// ─── Get ────────────────────────────────────────────────────────────────────

func TestGet_NotFound(t *testing.T) {
	svc, repo, _ := newTestModerationService()
	repo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NotFound("review", "missing"))

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// ─── ChangeStatus ───────────────────────────────────────────────────────────

func TestChangeStatus_Publish(t *testing.T) {
	svc, repo, events := newTestModerationService()

	published := pendingReview()
	published.Status = domain.StatusPublished

	repo.On("GetByID", mock.Anything, "rev-1").Return(pendingReview(), nil)
	repo.On("UpdateStatus", mock.Anything, "rev-1", domain.StatusPublished).Return(published, nil)
	events.On("PublishReviewStatusChanged", mock.Anything, published, domain.StatusPending, "admin-1").Return(nil)

	got, err := svc.ChangeStatus(context.Background(), "rev-1", domain.StatusPublished, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, got.Status)

	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestChangeStatus_SameStatusIsNoop(t *testing.T) {
	svc, repo, events := newTestModerationService()
	repo.On("GetByID", mock.Anything, "rev-1").Return(pendingReview(), nil)

	got, err := svc.ChangeStatus(context.Background(), "rev-1", domain.StatusPending, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)

	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	events.AssertNotCalled(t, "PublishReviewStatusChanged", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChangeStatus_InvalidStatus(t *testing.T) {
	svc, repo, _ := newTestModerationService()

	_, err := svc.ChangeStatus(context.Background(), "rev-1", "approved", "admin-1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestChangeStatus_NotFound(t *testing.T) {
	svc, repo, _ := newTestModerationService()
	repo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NotFound("review", "missing"))

	_, err := svc.ChangeStatus(context.Background(), "missing", domain.StatusPublished, "admin-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestChangeStatus_EventFailureIsIgnored(t *testing.T) {
	svc, repo, events := newTestModerationService()

	published := pendingReview()
	published.Status = domain.StatusPublished
	repo.On("GetByID", mock.Anything, "rev-1").Return(pendingReview(), nil)
	repo.On("UpdateStatus", mock.Anything, "rev-1", domain.StatusPublished).Return(published, nil)
	events.On("PublishReviewStatusChanged", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("broker down"))

	got, err := svc.ChangeStatus(context.Background(), "rev-1", domain.StatusPublished, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, got.Status)
}

// ─── Delete ─────────────────────────────────────────────────────────────────

func TestDelete(t *testing.T) {
	svc, repo, _ := newTestModerationService()
	repo.On("Delete", mock.Anything, "rev-1").Return(nil)
	repo.On("Delete", mock.Anything, "missing").Return(apperrors.NotFound("review", "missing"))

	assert.NoError(t, svc.Delete(context.Background(), "rev-1"))
	assert.ErrorIs(t, svc.Delete(context.Background(), "missing"), apperrors.ErrNotFound)
}
