package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/utafrali/ClientReviews/internal/domain"
	"github.com/utafrali/ClientReviews/internal/repository"
	"github.com/utafrali/ClientReviews/pkg/database"
	apperrors "github.com/utafrali/ClientReviews/pkg/errors"
)

const foreignKeyViolation = "23503"

// selectReview aggregates review_meta into a JSON object per review.
const selectReview = `
	SELECT r.id, r.title, r.body, r.status, r.created_at, r.updated_at,
	       COALESCE(jsonb_object_agg(m.meta_key, m.meta_value) FILTER (WHERE m.meta_key IS NOT NULL), '{}'::jsonb) AS meta`

var orderColumns = map[string]string{
	repository.OrderByCreatedAt: "r.created_at",
	repository.OrderByUpdatedAt: "r.updated_at",
	repository.OrderByTitle:     "r.title",
}

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts the review and its metadata in one transaction.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateReview", "INSERT INTO reviews")
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create review: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO reviews (id, title, body, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rv.ID, rv.Title, rv.Body, rv.Status, rv.CreatedAt, rv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	keys := make([]string, 0, len(rv.Meta))
	for k := range rv.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		_, err = tx.Exec(ctx, `
			INSERT INTO review_meta (review_id, meta_key, meta_value)
			VALUES ($1, $2, $3)`,
			rv.ID, k, rv.Meta[k],
		)
		if err != nil {
			return fmt.Errorf("insert review meta %s: %w", k, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create review: %w", err)
	}
	return nil
}

// SetMetadata upserts one metadata value.
func (r *ReviewRepository) SetMetadata(ctx context.Context, id, key, value string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO review_meta (review_id, meta_key, meta_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (review_id, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value`,
		id, key, value,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return apperrors.NotFound("review", id)
		}
		return fmt.Errorf("set review meta: %w", err)
	}
	return nil
}

// GetMetadata returns "" for a missing key.
func (r *ReviewRepository) GetMetadata(ctx context.Context, id, key string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx, `
		SELECT meta_value FROM review_meta
		WHERE review_id = $1 AND meta_key = $2`,
		id, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get review meta: %w", err)
	}
	return value, nil
}

// Query lists reviews with their metadata; the total is the number of
// matching reviews ignoring Limit and Offset.
func (r *ReviewRepository) Query(ctx context.Context, f repository.ReviewFilter) (reviews []domain.Review, total int, err error) {
	f = f.Normalize()

	query := selectReview + `,
	       count(*) OVER() AS total_count
	FROM reviews r
	LEFT JOIN review_meta m ON m.review_id = r.id
	WHERE ($1 = '' OR r.status = $1)
	GROUP BY r.id
	ORDER BY ` + orderColumns[f.OrderBy] + ` ` + f.Order + `, r.id ` + f.Order + `
	LIMIT $2 OFFSET $3`

	ctx, end := database.TraceQuery(ctx, "QueryReviews", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, f.Status, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	reviews = make([]domain.Review, 0)
	for rows.Next() {
		var (
			rv       domain.Review
			metaJSON []byte
		)
		if err := rows.Scan(&rv.ID, &rv.Title, &rv.Body, &rv.Status, &rv.CreatedAt, &rv.UpdatedAt, &metaJSON, &total); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		if err := decodeMeta(metaJSON, &rv); err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, total, nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	var (
		rv       domain.Review
		metaJSON []byte
	)
	err := r.pool.QueryRow(ctx, selectReview+`
	FROM reviews r
	LEFT JOIN review_meta m ON m.review_id = r.id
	WHERE r.id = $1
	GROUP BY r.id`, id).
		Scan(&rv.ID, &rv.Title, &rv.Body, &rv.Status, &rv.CreatedAt, &rv.UpdatedAt, &metaJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	if err := decodeMeta(metaJSON, &rv); err != nil {
		return nil, err
	}
	return &rv, nil
}

// UpdateStatus changes the status and returns the updated review.
func (r *ReviewRepository) UpdateStatus(ctx context.Context, id, status string) (*domain.Review, error) {
	ct, err := r.pool.Exec(ctx, `
		UPDATE reviews SET status = $1, updated_at = $2
		WHERE id = $3`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update review status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, apperrors.NotFound("review", id)
	}
	return r.GetByID(ctx, id)
}

// Delete removes the review; its metadata cascades.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}
	return nil
}

func (r *ReviewRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func decodeMeta(raw []byte, rv *domain.Review) error {
	rv.Meta = make(map[string]string)
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &rv.Meta); err != nil {
		return fmt.Errorf("unmarshal review meta: %w", err)
	}
	return nil
}
