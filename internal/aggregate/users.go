// Package aggregate derives rankings, points and analytics from the raw
// suggestion list. Every function here is pure: it reads its inputs, never
// mutates them, and yields the same output for the same input.
package aggregate

import (
	"sort"

	"github.com/tbourn/go-suggestion-box/internal/domain"
)

// Departments is the fixed department list used for engagement reporting.
var Departments = []string{
	"Quality Control",
	"Sales & Client Relations",
	"Logistics",
	"Marketing",
	"Manufacturing",
}

// EffectiveUsers merges stored users with users inferred from suggestion
// authorship, keyed by email. Stored records take precedence; every
// suggestion then credits its author:
//
//	suggestionsCount += 1
//	implemented: implementationsCount += 1, points += 60
//	approved:    points += 30
//	points += votes * 5
//
// The result is sorted by points descending; ties keep first-seen order.
func EffectiveUsers(stored []domain.User, suggestions []domain.Suggestion) []domain.User {
	out := make([]domain.User, 0, len(stored)+len(suggestions))
	index := make(map[string]int, len(stored)+len(suggestions))

	for _, u := range stored {
		if i, ok := index[u.Email]; ok {
			// later duplicates overwrite, first position is kept
			out[i] = u
			continue
		}
		index[u.Email] = len(out)
		out = append(out, u)
	}

	for _, s := range suggestions {
		key := s.Author.Email
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, domain.User{
				ID:         key,
				Name:       s.Author.Name,
				Email:      s.Author.Email,
				Avatar:     s.Author.Avatar,
				Department: s.Author.Department,
				Role:       domain.RoleUser,
			})
		}
		u := &out[i]
		u.SuggestionsCount++
		if s.Status == domain.StatusImplemented {
			u.ImplementationsCount++
		}
		u.Points += s.Status.Points()
		u.Points += s.Votes * domain.PointsPerVote
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Points > out[b].Points })
	return out
}
