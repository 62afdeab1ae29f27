package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/utafrali/ClientReviews/internal/domain"
	"github.com/utafrali/ClientReviews/internal/repository"
	apperrors "github.com/utafrali/ClientReviews/pkg/errors"
)

// ReviewRepository is an in-process repository.ReviewRepository. Reviews are
// copied on the way in and out so callers never share maps with the store.
type ReviewRepository struct {
	mu      sync.RWMutex
	reviews map[string]*domain.Review
	now     func() time.Time
}

func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{
		reviews: make(map[string]*domain.Review),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *ReviewRepository) Create(_ context.Context, rv *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reviews[rv.ID]; exists {
		return fmt.Errorf("insert review: duplicate id %s", rv.ID)
	}
	r.reviews[rv.ID] = clone(rv)
	return nil
}

func (r *ReviewRepository) SetMetadata(_ context.Context, id, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rv, ok := r.reviews[id]
	if !ok {
		return apperrors.NotFound("review", id)
	}
	rv.Meta[key] = value
	return nil
}

func (r *ReviewRepository) GetMetadata(_ context.Context, id, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rv, ok := r.reviews[id]; ok {
		return rv.Meta[key], nil
	}
	return "", nil
}

func (r *ReviewRepository) Query(_ context.Context, f repository.ReviewFilter) ([]domain.Review, int, error) {
	f = f.Normalize()

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.Review, 0, len(r.reviews))
	for _, rv := range r.reviews {
		if f.Status == "" || rv.Status == f.Status {
			matched = append(matched, rv)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		c := compare(a, b, f.OrderBy)
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if f.Order == repository.OrderAsc {
			return c < 0
		}
		return c > 0
	})

	total := len(matched)
	start := min(f.Offset, total)
	end := min(start+f.Limit, total)

	out := make([]domain.Review, 0, end-start)
	for _, rv := range matched[start:end] {
		out = append(out, *clone(rv))
	}
	return out, total, nil
}

func (r *ReviewRepository) GetByID(_ context.Context, id string) (*domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rv, ok := r.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	return clone(rv), nil
}

func (r *ReviewRepository) UpdateStatus(_ context.Context, id, status string) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rv, ok := r.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	rv.Status = status
	rv.UpdatedAt = r.now()
	return clone(rv), nil
}

func (r *ReviewRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reviews[id]; !ok {
		return apperrors.NotFound("review", id)
	}
	delete(r.reviews, id)
	return nil
}

func (r *ReviewRepository) Ping(context.Context) error {
	return nil
}

func compare(a, b *domain.Review, orderBy string) int {
	switch orderBy {
	case repository.OrderByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case repository.OrderByTitle:
		return strings.Compare(a.Title, b.Title)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func clone(rv *domain.Review) *domain.Review {
	c := *rv
	c.Meta = make(map[string]string, len(rv.Meta))
	maps.Copy(c.Meta, rv.Meta)
	return &c
}
