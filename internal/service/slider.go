package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/utafrali/ClientReviews/internal/domain"
	"github.com/utafrali/ClientReviews/internal/repository"
)

// Slider defaults and limits.
const (
	DefaultSliderCount   = 10
	MaxSliderCount       = 50
	DefaultExcerptLength = 200
)

const ellipsis = "…"

// SliderOptions controls one slider rendering.
type SliderOptions struct {
	Count         int
	ExcerptLength int
}

// ParseSliderOptions reads marker attributes. "posts" is accepted as an
// alias of "count". Missing, non-numeric, zero or negative values fall back
// to the defaults, and count is capped at MaxSliderCount.
func ParseSliderOptions(attrs map[string]string) SliderOptions {
	count := attrs["count"]
	if count == "" {
		count = attrs["posts"]
	}
	return SliderOptions{
		Count:         positiveOr(count, DefaultSliderCount),
		ExcerptLength: positiveOr(attrs["excerpt_len"], DefaultExcerptLength),
	}.normalize()
}

func (o SliderOptions) normalize() SliderOptions {
	if o.Count <= 0 {
		o.Count = DefaultSliderCount
	}
	if o.Count > MaxSliderCount {
		o.Count = MaxSliderCount
	}
	if o.ExcerptLength <= 0 {
		o.ExcerptLength = DefaultExcerptLength
	}
	return o
}

func positiveOr(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Card is one published review as shown in the slider.
type Card struct {
	ID        string
	Excerpt   string
	Author    string
	CreatedAt time.Time
}

// Slider is the view model of the review carousel.
type Slider struct {
	Empty bool
	Cards []Card
}

// SliderService reads published reviews for public display. It never writes.
type SliderService struct {
	repo   repository.ReviewRepository
	logger *slog.Logger
}

// NewSliderService creates a new slider service.
func NewSliderService(repo repository.ReviewRepository, logger *slog.Logger) *SliderService {
	return &SliderService{repo: repo, logger: logger}
}

// RenderSlider returns up to opts.Count published reviews, newest first.
func (s *SliderService) RenderSlider(ctx context.Context, opts SliderOptions) (*Slider, error) {
	opts = opts.normalize()

	reviews, _, err := s.repo.Query(ctx, repository.ReviewFilter{
		Status:  domain.StatusPublished,
		OrderBy: repository.OrderByCreatedAt,
		Order:   repository.OrderDesc,
		Limit:   opts.Count,
	})
	if err != nil {
		return nil, fmt.Errorf("query published reviews: %w", err)
	}

	if len(reviews) == 0 {
		return &Slider{Empty: true}, nil
	}

	cards := make([]Card, 0, len(reviews))
	for i := range reviews {
		r := &reviews[i]
		cards = append(cards, Card{
			ID:        r.ID,
			Excerpt:   Excerpt(r.Body, opts.ExcerptLength),
			Author:    r.Author(),
			CreatedAt: r.CreatedAt,
		})
	}
	return &Slider{Cards: cards}, nil
}

// Excerpt shortens s to at most n characters plus an ellipsis, cutting at the
// last word boundary when there is one.
func Excerpt(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}

	cut := runes[:n]
	if !unicode.IsSpace(runes[n]) {
		for i := len(cut) - 1; i > 0; i-- {
			if unicode.IsSpace(cut[i]) {
				cut = cut[:i]
				break
			}
		}
	}
	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + ellipsis
}
