package repository

import (
	"context"

	"github.com/utafrali/ClientReviews/internal/domain"
)

// Sort orders accepted by ReviewFilter.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Sortable columns accepted by ReviewFilter.OrderBy.
const (
	OrderByCreatedAt = "created_at"
	OrderByUpdatedAt = "updated_at"
	OrderByTitle     = "title"
)

// MaxQueryLimit bounds a single Query call.
const MaxQueryLimit = 1000

// ReviewFilter selects and orders reviews. Empty Status matches every status.
// OrderBy defaults to created_at and Order to desc.
type ReviewFilter struct {
	Status  string
	OrderBy string
	Order   string
	Limit   int
	Offset  int
}

// Normalize fills defaults and clamps Limit and Offset.
func (f ReviewFilter) Normalize() ReviewFilter {
	switch f.OrderBy {
	case OrderByCreatedAt, OrderByUpdatedAt, OrderByTitle:
	default:
		f.OrderBy = OrderByCreatedAt
	}
	if f.Order != OrderAsc {
		f.Order = OrderDesc
	}
	if f.Limit <= 0 || f.Limit > MaxQueryLimit {
		f.Limit = MaxQueryLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ReviewRepository is the moderation store.
type ReviewRepository interface {
	// Create persists r and every entry of r.Meta atomically. Nothing is
	// stored when it fails.
	Create(ctx context.Context, r *domain.Review) error

	// SetMetadata inserts or replaces one metadata value.
	SetMetadata(ctx context.Context, id, key, value string) error

	// GetMetadata returns the value for key, or "" when it is not set.
	GetMetadata(ctx context.Context, id, key string) (string, error)

	// Query returns one page of reviews matching f and the total match count.
	Query(ctx context.Context, f ReviewFilter) ([]domain.Review, int, error)

	GetByID(ctx context.Context, id string) (*domain.Review, error)

	UpdateStatus(ctx context.Context, id, status string) (*domain.Review, error)

	Delete(ctx context.Context, id string) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
