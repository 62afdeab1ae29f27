package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/ClientReviews/internal/domain"
	"github.com/utafrali/ClientReviews/internal/notify"
	"github.com/utafrali/ClientReviews/internal/repository"
)

// --- Mock Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, r *domain.Review) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockReviewRepository) SetMetadata(ctx context.Context, id, key, value string) error {
	args := m.Called(ctx, id, key, value)
	return args.Error(0)
}

func (m *mockReviewRepository) GetMetadata(ctx context.Context, id, key string) (string, error) {
	args := m.Called(ctx, id, key)
	return args.String(0), args.Error(1)
}

func (m *mockReviewRepository) Query(ctx context.Context, f repository.ReviewFilter) ([]domain.Review, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) UpdateStatus(ctx context.Context, id, status string) (*domain.Review, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReviewRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- Mock Event Publisher ---

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishReviewSubmitted(ctx context.Context, r *domain.Review) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishReviewStatusChanged(ctx context.Context, r *domain.Review, oldStatus, changedBy string) error {
	args := m.Called(ctx, r, oldStatus, changedBy)
	return args.Error(0)
}

// --- Fakes ---

type fakeVerifier struct {
	err error
}

func (f *fakeVerifier) Verify(context.Context, string, string, string) error {
	return f.err
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (f *fakeNotifier) Dispatch(_ context.Context, msg notify.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
}

func (f *fakeNotifier) sent() []notify.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Message(nil), f.messages...)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
