package domain

import (
	"slices"
	"strings"
	"time"
)

// Review status constants. Only StatusPublished is publicly visible.
const (
	StatusPending   = "pending"
	StatusPublished = "published"
	StatusDraft     = "draft"
	StatusTrash     = "trash"
)

// Metadata keys stored alongside a review.
const (
	MetaReviewerName  = "reviewer_name"
	MetaReviewerEmail = "reviewer_email"
	MetaOriginPageID  = "origin_page_id"
)

// TitleWordLimit is the number of words of the reviewer name kept as title.
const TitleWordLimit = 10

// Review is a single submitted review and its moderation state.
type Review struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Status    string            `json:"status"`
	Meta      map[string]string `json:"meta"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ReviewerName returns the reviewer_name metadata, or "" when absent.
func (r *Review) ReviewerName() string {
	return r.Meta[MetaReviewerName]
}

// ReviewerEmail returns the reviewer_email metadata, or "" when absent.
func (r *Review) ReviewerEmail() string {
	return r.Meta[MetaReviewerEmail]
}

// Author is the public display name: the reviewer name, else the title.
func (r *Review) Author() string {
	if name := r.ReviewerName(); name != "" {
		return name
	}
	return r.Title
}

// ValidStatuses returns every status a review may hold.
func ValidStatuses() []string {
	return []string{StatusPending, StatusPublished, StatusDraft, StatusTrash}
}

// IsValidStatus reports whether s is a known review status.
func IsValidStatus(s string) bool {
	return slices.Contains(ValidStatuses(), s)
}

// TrimWords keeps the first n whitespace-separated words of s, joined by
// single spaces.
func TrimWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
