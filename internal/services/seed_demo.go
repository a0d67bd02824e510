package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/tbourn/go-suggestion-box/internal/aggregate"
	"github.com/tbourn/go-suggestion-box/internal/domain"
	"github.com/tbourn/go-suggestion-box/internal/repo"
	"github.com/tbourn/go-suggestion-box/internal/sentiment"
)

// Categories is the category list offered by the submission form.
var Categories = []string{
	"Process Improvement",
	"Technology",
	"Customer Experience",
	"Cost Reduction",
	"Safety",
	"Environment",
	"Communication",
	"Training",
	"Other",
}

var (
	demoStatuses = []domain.Status{
		domain.StatusPending,
		domain.StatusReviewPending,
		domain.StatusApproved,
		domain.StatusImplemented,
		domain.StatusRejected,
	}
	demoAuthors = []string{"Aarav Sharma", "Priya Patel", "Rohan Gupta", "Neha Verma", "Vikram Singh"}
)

// DefaultDemoCount is used when SeedDemo is asked for zero suggestions.
const DefaultDemoCount = 60

// SeedDemo appends n generated suggestions spread over the last 90 days
// and reports how many were added. Departments, categories, statuses and
// authors rotate with the index; ages, votes and comment counts come from
// the service's random source.
func (s *SuggestionService) SeedDemo(ctx context.Context, n int) (int, error) {
	ctx, span := otel.Tracer(tracerSuggestions).Start(ctx, "SeedDemo")
	defer span.End()

	if n <= 0 {
		n = DefaultDemoCount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.Store.Suggestions.Mutate(ctx, func(items []domain.Suggestion, now time.Time) ([]domain.Suggestion, bool, error) {
		existing := len(items)
		for i := 0; i < n; i++ {
			items = append(items, s.demoSuggestion(existing+i+1, i, now))
		}
		return items, true, nil
	})
	if err != nil {
		return 0, err
	}
	log.Info().Int("count", n).Msg("demo suggestions seeded")
	return n, nil
}

func (s *SuggestionService) demoSuggestion(number, i int, now time.Time) domain.Suggestion {
	dept := aggregate.Departments[i%len(aggregate.Departments)]
	cat := Categories[i%len(Categories)]

	problem := "Opportunity to improve efficiency and reduce cost with better workflow."
	if i%5 == 0 {
		problem = "Process is slow and causes delay and waste. Worst cases seen in peak hours."
	}
	solution := "Introduce checklists and training to improve quality and reduce errors."
	if i%3 == 0 {
		solution = "Implement automation to streamline steps and reduce wait time."
	}
	benefit := "Better customer experience with faster response."
	if i%2 == 0 {
		benefit = "Expect to save 10% time and improve quality."
	}

	s.rndMu.Lock()
	daysAgo := s.rnd.Intn(90)
	votes := s.rnd.Intn(25)
	comments := s.rnd.Intn(6)
	s.rndMu.Unlock()

	created := now.Add(-time.Duration(daysAgo) * 24 * time.Hour)
	return domain.Suggestion{
		ID:       repo.NewID(repo.PrefixSuggestion),
		Title:    fmt.Sprintf("Demo Suggestion #%d", number),
		Problem:  problem,
		Solution: solution,
		Benefit:  benefit,
		Author: domain.Author{
			Name:       demoAuthors[i%len(demoAuthors)],
			Email:      fmt.Sprintf("user%d@company.com", i%7),
			Department: dept,
		},
		Status:    demoStatuses[i%len(demoStatuses)],
		Category:  cat,
		Sentiment: sentiment.Classify(problem, solution, benefit),
		Votes:     votes,
		VotedBy:   []string{},
		Comments:  comments,
		CreatedAt: created,
		UpdatedAt: created,
		Tags:      []string{"demo", firstWordLower(dept), firstWordLower(cat)},
		Language:  "en",
	}
}

func firstWordLower(s string) string {
	s = strings.ToLower(s)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}
