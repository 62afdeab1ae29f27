package main

import (
	"bytes"
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/ClientReviews/internal/domain"
	"github.com/utafrali/ClientReviews/internal/repository"
	"github.com/utafrali/ClientReviews/internal/repository/memory"
	"github.com/utafrali/ClientReviews/pkg/middleware"
)

func TestAdminTokenCommand(t *testing.T) {
	secret := "cli-test-secret-with-at-least-32-characters"
	t.Setenv("ADMIN_JWT_SECRET", secret)

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"admin-token", "--subject", "ops", "--ttl", "5m"})
	require.NoError(t, cmd.Execute())

	claims, err := middleware.HS256Validator([]byte(secret))(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}

func TestAdminTokenCommand_EmptySubject(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"admin-token", "--subject", ""})
	assert.Error(t, cmd.Execute())
}

func TestRootCommand_Subcommands(t *testing.T) {
	var names []string
	for _, c := range newRootCommand().Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "migrate", "seed", "admin-token", "hash-password"})
}

func TestSeedReviews(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewReviewRepository()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	created, err := seedReviews(ctx, repo, 5, true, rand.New(rand.NewPCG(1, 2)), now)
	require.NoError(t, err)
	assert.Equal(t, 5, created)

	reviews, total, err := repo.Query(ctx, repository.ReviewFilter{Status: domain.StatusPublished})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	for i := 1; i < len(reviews); i++ {
		assert.True(t, reviews[i-1].CreatedAt.After(reviews[i].CreatedAt), "newest first")
	}
	for _, rv := range reviews {
		assert.NotEmpty(t, rv.Author())
		assert.Contains(t, rv.ReviewerEmail(), "@example.com")
	}
}

func TestSeedReviews_Pending(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewReviewRepository()

	_, err := seedReviews(ctx, repo, 3, false, rand.New(rand.NewPCG(3, 4)), time.Now())
	require.NoError(t, err)

	_, published, err := repo.Query(ctx, repository.ReviewFilter{Status: domain.StatusPublished})
	require.NoError(t, err)
	_, pending, err := repo.Query(ctx, repository.ReviewFilter{Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, 0, published)
	assert.Equal(t, 3, pending)
}

func TestSeedEmail(t *testing.T) {
	assert.Equal(t, "jordan.1@example.com", seedEmail("Jordan Miles", 0))
	assert.Equal(t, "ayedemir.3@example.com", seedEmail("AyşeDemir", 2))
	assert.Equal(t, "client.2@example.com", seedEmail("Şü", 1))
}

func TestHashPasswordCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("a long enough passphrase\n"))
	cmd.SetArgs([]string{"hash-password"})
	require.NoError(t, cmd.Execute())

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("a long enough passphrase")))
}
