package aggregate

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/tbourn/go-suggestion-box/internal/domain"
)

// Badge names.
const (
	BadgeInnovationExpert = "Innovation Expert"
	BadgeTopContributor   = "Top Contributor"
	BadgeProblemSolver    = "Problem Solver"
	BadgeEfficiencyMaster = "Efficiency Master"
	BadgeTeamPlayer       = "Team Player"
)

// Badges returns the badges earned for the given totals, in display order.
func Badges(points, suggestions, implementations int) []string {
	out := []string{}
	if implementations >= 5 {
		out = append(out, BadgeInnovationExpert)
	}
	if suggestions >= 10 {
		out = append(out, BadgeTopContributor)
	}
	if points >= 1000 {
		out = append(out, BadgeProblemSolver)
	}
	if implementations >= 3 {
		out = append(out, BadgeEfficiencyMaster)
	}
	if suggestions >= 5 {
		out = append(out, BadgeTeamPlayer)
	}
	return out
}

// Entry is one leaderboard row. Rank is the position in the points
// ranking and does not change with filtering or sorting.
type Entry struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Avatar          string   `json:"avatar,omitempty"`
	Department      string   `json:"department"`
	Points          int      `json:"points"`
	Suggestions     int      `json:"suggestions"`
	Implementations int      `json:"implementations"`
	Rank            int      `json:"rank"`
	Badges          []string `json:"badges"`
}

// DepartmentStat totals points per department.
type DepartmentStat struct {
	Department   string `json:"department"`
	Points       int    `json:"points"`
	Contributors int    `json:"contributors"`
}

// Achievement is progress (0..100) toward a personal goal.
type Achievement struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Progress    float64 `json:"progress"`
}

// Leaderboard is the ranking page.
type Leaderboard struct {
	Entries      []Entry          `json:"entries"`
	Departments  []DepartmentStat `json:"departments"`
	Achievements []Achievement    `json:"achievements"`
}

// Leaderboard sort keys.
const (
	SortByRank        = "rank"
	SortByIdeas       = "ideas"
	SortByImplemented = "implemented"
	SortByPoints      = "points"
	SortByName        = "name"
)

// LeaderboardOptions filters and orders entries.
type LeaderboardOptions struct {
	Department string
	Query      string // case-insensitive name substring
	SortBy     string
	Desc       bool
}

// BuildLeaderboard ranks users (already sorted by points descending).
// current is the session user, or nil when logged out; achievements are
// computed from the session snapshot and the votes on their suggestions.
func BuildLeaderboard(users []domain.User, suggestions []domain.Suggestion, current *domain.User, opts LeaderboardOptions) Leaderboard {
	lb := Leaderboard{
		Departments:  DepartmentStats(users),
		Achievements: Achievements(current, suggestions),
	}

	entries := make([]Entry, 0, len(users))
	q := strings.ToLower(strings.TrimSpace(opts.Query))
	for i, u := range users {
		if !isAll(opts.Department) && u.Department != opts.Department {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(u.Name), q) {
			continue
		}
		entries = append(entries, Entry{
			ID:              u.ID,
			Name:            u.Name,
			Avatar:          u.Avatar,
			Department:      u.Department,
			Points:          u.Points,
			Suggestions:     u.SuggestionsCount,
			Implementations: u.ImplementationsCount,
			Rank:            i + 1,
			Badges:          Badges(u.Points, u.SuggestionsCount, u.ImplementationsCount),
		})
	}
	sortEntries(entries, opts.SortBy, opts.Desc)
	lb.Entries = entries
	return lb
}

func sortEntries(entries []Entry, by string, desc bool) {
	dir := 1
	if desc {
		dir = -1
	}
	var cmp func(a, b Entry) int
	switch by {
	case SortByIdeas:
		cmp = func(a, b Entry) int { return a.Suggestions - b.Suggestions }
	case SortByImplemented:
		cmp = func(a, b Entry) int { return a.Implementations - b.Implementations }
	case SortByPoints:
		cmp = func(a, b Entry) int { return a.Points - b.Points }
	case SortByName:
		col := collate.New(language.English)
		cmp = func(a, b Entry) int { return col.CompareString(a.Name, b.Name) }
	default:
		cmp = func(a, b Entry) int { return a.Rank - b.Rank }
	}
	sort.SliceStable(entries, func(i, j int) bool { return dir*cmp(entries[i], entries[j]) < 0 })
}

// DepartmentStats sums points and counts contributors per department,
// sorted by points descending.
func DepartmentStats(users []domain.User) []DepartmentStat {
	idx := map[string]int{}
	out := []DepartmentStat{}
	for _, u := range users {
		i, ok := idx[u.Department]
		if !ok {
			i = len(out)
			idx[u.Department] = i
			out = append(out, DepartmentStat{Department: u.Department})
		}
		out[i].Points += u.Points
		out[i].Contributors++
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Points > out[b].Points })
	return out
}

// Achievements computes goal progress for the session user.
func Achievements(current *domain.User, suggestions []domain.Suggestion) []Achievement {
	first := Achievement{Title: "First Suggestion", Description: "Submit your first idea"}
	team := Achievement{Title: "Team Player", Description: "Get 10 votes on your suggestions"}
	champ := Achievement{Title: "Innovation Champion", Description: "Have 5 suggestions implemented"}

	if current != nil {
		votes := 0
		for _, s := range suggestions {
			if s.Author.Email == current.Email {
				votes += s.Votes
			}
		}
		if current.SuggestionsCount > 0 {
			first.Progress = 100
		}
		team.Progress = math.Min(float64(votes)/10*100, 100)
		champ.Progress = math.Min(float64(current.ImplementationsCount)/5*100, 100)
	}
	return []Achievement{first, team, champ}
}
