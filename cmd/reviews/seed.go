package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/utafrali/ClientReviews/internal/app"
	"github.com/utafrali/ClientReviews/internal/domain"
	"github.com/utafrali/ClientReviews/internal/repository"
	"github.com/utafrali/ClientReviews/internal/repository/postgres"
)

// --------------------------------------------------------------------------
// Seed data definitions
// --------------------------------------------------------------------------

var seedNames = []string{
	"Ayşe Demir", "Mehmet Kaya", "Elif Şahin", "Can Yılmaz", "Zeynep Arslan",
	"Jordan Miles", "Priya Nair", "Tomás Ortega", "Hana Sato", "Lena Vogel",
}

var seedMessages = []string{
	"Clear communication from start to finish. The project landed a week early.",
	"They listened to what we actually needed instead of selling us a package.",
	"Our checkout conversion went up after the redesign. Would hire again.",
	"Friendly, fast and honest about trade-offs. Exactly what a small team needs.",
	"The migration was painless and they documented everything they touched.",
	"Great attention to detail on mobile. Customers noticed the difference.",
	"Responsive support even after launch. Small fixes were turned around the same day.",
	"We came in with a rough idea and left with a product our staff enjoys using.",
}

// seedReviews creates n reviews spread over the past n days. Every review goes
// through the pending state; with publish set it is then published.
func seedReviews(ctx context.Context, repo repository.ReviewRepository, n int, publish bool, rng *rand.Rand, now time.Time) (int, error) {
	for i := range n {
		name := seedNames[rng.IntN(len(seedNames))]
		created := now.Add(-time.Duration(i) * 24 * time.Hour).Add(-time.Duration(rng.IntN(3600)) * time.Second)

		review := &domain.Review{
			ID:     uuid.New().String(),
			Title:  domain.TrimWords(name, domain.TitleWordLimit),
			Body:   seedMessages[rng.IntN(len(seedMessages))],
			Status: domain.StatusPending,
			Meta: map[string]string{
				domain.MetaReviewerName:  name,
				domain.MetaReviewerEmail: seedEmail(name, i),
			},
			CreatedAt: created.UTC(),
			UpdatedAt: created.UTC(),
		}
		if err := repo.Create(ctx, review); err != nil {
			return i, fmt.Errorf("create review %d: %w", i+1, err)
		}
		if publish {
			if _, err := repo.UpdateStatus(ctx, review.ID, domain.StatusPublished); err != nil {
				return i, fmt.Errorf("publish review %d: %w", i+1, err)
			}
		}
	}
	return n, nil
}

func seedEmail(name string, i int) string {
	local := strings.ToLower(strings.Fields(name)[0])
	local = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, local)
	if local == "" {
		local = "client"
	}
	return fmt.Sprintf("%s.%d@example.com", local, i+1)
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var (
		count   int
		pending bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo reviews into the PostgreSQL store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be positive")
			}
			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}

			pool, err := app.OpenPostgres(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)) // #nosec G404 -- demo data
			created, err := seedReviews(cmd.Context(), postgres.NewReviewRepository(pool), count, !pending, rng, time.Now())
			if err != nil {
				log.Error("seed failed", slog.Int("created", created), slog.String("error", err.Error()))
				return err
			}
			log.Info("seed complete", slog.Int("reviews", created), slog.Bool("published", !pending))
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 12, "Number of reviews to create")
	cmd.Flags().BoolVar(&pending, "pending", false, "Leave the reviews pending instead of publishing them")
	return cmd
}
