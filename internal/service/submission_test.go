package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ClientReviews/internal/antiforgery"
	"github.com/utafrali/ClientReviews/internal/domain"
	"github.com/utafrali/ClientReviews/internal/notify"
	"github.com/utafrali/ClientReviews/internal/repository"
	"github.com/utafrali/ClientReviews/internal/repository/memory"
	apperrors "github.com/utafrali/ClientReviews/pkg/errors"
)

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

type submissionDeps struct {
	repo     *mockReviewRepository
	verifier *fakeVerifier
	notifier *fakeNotifier
	events   *mockEventPublisher
}

func newTestSubmissionService(t *testing.T) (*SubmissionService, *submissionDeps) {
	t.Helper()
	deps := &submissionDeps{
		repo:     new(mockReviewRepository),
		verifier: &fakeVerifier{},
		notifier: &fakeNotifier{},
		events:   new(mockEventPublisher),
	}
	svc := NewSubmissionService(deps.repo, deps.verifier, deps.notifier, deps.events, SubmissionConfig{
		NotifyTo:     "ops@example.com",
		AdminBaseURL: "https://reviews.example.com/",
	}, newTestLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc, deps
}

func validInput() SubmitInput {
	return SubmitInput{
		Name:         "Ann Lee",
		Email:        "ann@example.com",
		Message:      "Great work.",
		OriginPageID: "42",
		Token:        "token",
		SessionID:    "session",
	}
}

// ─── Submit ─────────────────────────────────────────────────────────────────

func TestSubmit_Success(t *testing.T) {
	svc, deps := newTestSubmissionService(t)

	var stored *domain.Review
	deps.repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.Review) }).
		Return(nil)
	deps.events.On("PublishReviewSubmitted", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)

	notice, err := svc.Submit(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, SuccessNotice(), notice)

	require.NotNil(t, stored)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Equal(t, "Ann Lee", stored.Title)
	assert.Equal(t, "Great work.", stored.Body)
	assert.Equal(t, fixedNow, stored.CreatedAt)
	assert.Equal(t, "Ann Lee", stored.Meta[domain.MetaReviewerName])
	assert.Equal(t, "ann@example.com", stored.Meta[domain.MetaReviewerEmail])
	assert.Equal(t, "42", stored.Meta[domain.MetaOriginPageID])

	sent := deps.notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ops@example.com", sent[0].To)
	assert.Equal(t, notify.SubjectReviewSubmitted, sent[0].Subject)
	assert.Contains(t, sent[0].Body, "Ann Lee")
	assert.Contains(t, sent[0].Body, "ann@example.com")
	assert.Contains(t, sent[0].Body, "Great work.")
	assert.Contains(t, sent[0].Body, "https://reviews.example.com/api/v1/admin/reviews/"+stored.ID)

	deps.repo.AssertExpectations(t)
	deps.events.AssertExpectations(t)
}

func TestSubmit_SecurityCheckFailed(t *testing.T) {
	svc, deps := newTestSubmissionService(t)
	deps.verifier.err = antiforgery.ErrReplayed

	notice, err := svc.Submit(context.Background(), validInput())
	require.Error(t, err)
	assert.Nil(t, notice)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "SECURITY_CHECK_FAILED", appErr.Code)
	assert.Equal(t, "Security check failed. Please try again.", appErr.Message)
	assert.ErrorIs(t, err, apperrors.ErrSecurityCheck)

	deps.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, deps.notifier.sent())
}

func TestSubmit_ValidationFailed(t *testing.T) {
	tests := []struct {
		name  string
		input func(*SubmitInput)
		field string
	}{
		{"missing name", func(in *SubmitInput) { in.Name = "" }, "name"},
		{"markup-only name", func(in *SubmitInput) { in.Name = "<b></b>" }, "name"},
		{"whitespace message", func(in *SubmitInput) { in.Message = "  \n\t " }, "message"},
		{"missing email", func(in *SubmitInput) { in.Email = "" }, "email"},
		{"invalid email", func(in *SubmitInput) { in.Email = "not-an-email" }, "email"},
		{"name too long", func(in *SubmitInput) { in.Name = strings.Repeat("a", 201) }, "name"},
		{"message too long", func(in *SubmitInput) { in.Message = strings.Repeat("é", 5001) }, "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := newTestSubmissionService(t)
			in := validInput()
			tt.input(&in)

			_, err := svc.Submit(context.Background(), in)
			require.Error(t, err)

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, "VALIDATION_FAILED", appErr.Code)
			assert.Equal(t, "Please fill all required fields.", appErr.Message)
			assert.Contains(t, appErr.Fields, tt.field)

			deps.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			assert.Empty(t, deps.notifier.sent())
		})
	}
}

func TestSubmit_PersistenceFailed(t *testing.T) {
	svc, deps := newTestSubmissionService(t)
	deps.repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	_, err := svc.Submit(context.Background(), validInput())
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "PERSISTENCE_FAILED", appErr.Code)
	assert.Equal(t, "There was an error. Try again later.", appErr.Message)
	assert.NotContains(t, appErr.Message, "connection refused")

	assert.Empty(t, deps.notifier.sent())
	deps.events.AssertNotCalled(t, "PublishReviewSubmitted", mock.Anything, mock.Anything)
}

func TestSubmit_EventFailureIsIgnored(t *testing.T) {
	svc, deps := newTestSubmissionService(t)
	deps.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	deps.events.On("PublishReviewSubmitted", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	notice, err := svc.Submit(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, NoticeSubmitted, notice.Text)
}

func TestSubmit_SanitizesBeforeStoring(t *testing.T) {
	svc, deps := newTestSubmissionService(t)

	var stored *domain.Review
	deps.repo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.Review) }).
		Return(nil)
	deps.events.On("PublishReviewSubmitted", mock.Anything, mock.Anything).Return(nil)

	in := validInput()
	in.Name = "  <b>Ann</b>\n  Lee "
	in.Email = " ann@exa mple.com "
	in.Message = "<p>Line one</p>\r\nLine <script>alert(1)</script>two"
	in.OriginPageID = "-3"

	_, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "Ann Lee", stored.ReviewerName())
	assert.Equal(t, "ann@example.com", stored.ReviewerEmail())
	assert.Equal(t, "Line one\nLine two", stored.Body)
	assert.NotContains(t, stored.Meta, domain.MetaOriginPageID)
}

func TestSubmit_TitleTrimmedToTenWords(t *testing.T) {
	svc, deps := newTestSubmissionService(t)

	var stored *domain.Review
	deps.repo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.Review) }).
		Return(nil)
	deps.events.On("PublishReviewSubmitted", mock.Anything, mock.Anything).Return(nil)

	in := validInput()
	in.Name = "one two three four five six seven eight nine ten eleven"
	_, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "one two three four five six seven eight nine ten", stored.Title)
	assert.Equal(t, in.Name, stored.ReviewerName())
}

func TestSubmit_DuplicateSubmissionsCreateTwoRecords(t *testing.T) {
	repo := memory.NewReviewRepository()
	events := new(mockEventPublisher)
	events.On("PublishReviewSubmitted", mock.Anything, mock.Anything).Return(nil)
	svc := NewSubmissionService(repo, &fakeVerifier{}, &fakeNotifier{}, events, SubmissionConfig{
		NotifyTo:     "ops@example.com",
		AdminBaseURL: "http://localhost:8080",
	}, newTestLogger())

	_, err := svc.Submit(context.Background(), validInput())
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), validInput())
	require.NoError(t, err)

	reviews, total, err := repo.Query(context.Background(), repository.ReviewFilter{Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.NotEqual(t, reviews[0].ID, reviews[1].ID)

	published, _, err := repo.Query(context.Background(), repository.ReviewFilter{Status: domain.StatusPublished})
	require.NoError(t, err)
	assert.Empty(t, published)
}

// ─── Notices ────────────────────────────────────────────────────────────────

func TestErrorNotice(t *testing.T) {
	assert.Equal(t, &Notice{Kind: NoticeError, Text: "Please fill all required fields."},
		ErrorNotice(apperrors.ValidationFailed(nil)))
	assert.Equal(t, &Notice{Kind: NoticeError, Text: "There was an error. Try again later."},
		ErrorNotice(errors.New("raw driver error")))
}

func TestModerationLink(t *testing.T) {
	svc, _ := newTestSubmissionService(t)
	assert.Equal(t, "https://reviews.example.com/api/v1/admin/reviews/abc", svc.ModerationLink("abc"))
}
