package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/tbourn/go-suggestion-box/internal/domain"
)

// Window is an analytics time range.
type Window string

const (
	Window7Days  Window = "7days"
	Window30Days Window = "30days"
	Window90Days Window = "90days"
	Window1Year  Window = "1year"
	// WindowAll disables the time cut-off. Analytics never uses it.
	WindowAll Window = "all"
)

// Days is the window length. Unknown windows fall back to 30 days.
func (w Window) Days() int {
	switch w {
	case Window7Days:
		return 7
	case Window30Days:
		return 30
	case Window90Days:
		return 90
	case Window1Year:
		return 365
	case WindowAll:
		return 0
	}
	return 30
}

// Filter selects a subset of suggestions. Empty fields (or "all") match
// everything.
type Filter struct {
	Window     Window
	Category   string
	Status     string
	Department string
	// Query is a case-insensitive substring over title, problem and solution.
	Query string
}

func isAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "all")
}

// Apply returns the suggestions matching f, in input order.
func Apply(suggestions []domain.Suggestion, f Filter, now time.Time) []domain.Suggestion {
	var cutoff time.Time
	if days := f.Window.Days(); days > 0 {
		cutoff = now.Add(-time.Duration(days) * 24 * time.Hour)
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]domain.Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if !cutoff.IsZero() && s.CreatedAt.Before(cutoff) {
			continue
		}
		if !isAll(f.Category) && s.Category != f.Category {
			continue
		}
		if !isAll(f.Status) && string(s.Status) != f.Status {
			continue
		}
		if !isAll(f.Department) && s.Author.Department != f.Department {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(s.Title), q) &&
			!strings.Contains(strings.ToLower(s.Problem), q) &&
			!strings.Contains(strings.ToLower(s.Solution), q) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Sort orders for suggestion lists.
const (
	SortRecent    = "recent"
	SortPopular   = "popular"
	SortCommented = "commented"
	// SortRelevant ranks by word overlap with Filter.Query, ties by recency.
	SortRelevant = "relevant"
)

// SortSuggestions sorts in place: recent by createdAt desc, popular by
// votes desc, commented by comments desc. Unknown orders leave input order.
func SortSuggestions(items []domain.Suggestion, order string) {
	switch order {
	case SortRecent, SortRelevant, "":
		sort.SliceStable(items, func(a, b int) bool { return items[a].CreatedAt.After(items[b].CreatedAt) })
	case SortPopular:
		sort.SliceStable(items, func(a, b int) bool { return items[a].Votes > items[b].Votes })
	case SortCommented:
		sort.SliceStable(items, func(a, b int) bool { return items[a].Comments > items[b].Comments })
	}
}
