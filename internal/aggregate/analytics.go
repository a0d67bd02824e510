package aggregate

import (
	"sort"
	"strconv"
	"time"

	"github.com/tbourn/go-suggestion-box/internal/domain"
)

// SentimentBreakdown holds percentages of each sentiment.
type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// CategoryShare is one row of the category distribution.
type CategoryShare struct {
	Category   string `json:"category"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// DayCount is submissions on one calendar day (YYYY-MM-DD).
type DayCount struct {
	Date        string `json:"date"`
	Submissions int    `json:"submissions"`
}

// FunnelStage is one step of the status funnel.
type FunnelStage struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// TagCount is a tag and how many suggestions carry it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TopContributor summarizes a leading user.
type TopContributor struct {
	Name        string `json:"name"`
	Department  string `json:"department"`
	Submissions int    `json:"submissions"`
	Score       int    `json:"score"`
}

// DepartmentEngagement is participation for one department: the share of
// the department's users who submitted at least one suggestion.
type DepartmentEngagement struct {
	Department    string `json:"department"`
	Participation int    `json:"participation"`
	Submissions   int    `json:"submissions"`
}

// Analytics is the dashboard report over a filtered suggestion set.
type Analytics struct {
	TotalSuggestions     int                    `json:"totalSuggestions"`
	ActiveUsers          int                    `json:"activeUsers"`
	ImplementationRate   int                    `json:"implementationRate"`
	AvgResponseDays      float64                `json:"avgResponseDays"`
	AvgResponseTime      string                 `json:"avgResponseTime"`
	Sentiment            SentimentBreakdown     `json:"sentimentBreakdown"`
	CategoryDistribution []CategoryShare        `json:"categoryDistribution"`
	Series               []DayCount             `json:"series"`
	Funnel               []FunnelStage          `json:"funnel"`
	TopTags              []TagCount             `json:"topTags"`
	TopContributors      []TopContributor       `json:"topContributors"`
	Departments          []DepartmentEngagement `json:"departments"`
}

const (
	maxTopTags         = 8
	maxTopContributors = 3
)

// ComputeAnalytics builds the report. filtered is the already-filtered
// suggestion set; users is the effective user list (points descending).
func ComputeAnalytics(filtered []domain.Suggestion, users []domain.User, now time.Time) Analytics {
	total := len(filtered)
	a := Analytics{
		TotalSuggestions: total,
		ActiveUsers:      len(users),
	}

	var (
		implemented, reviewed       int
		positive, neutral, negative int
		pendingCount                int
		pendingAge                  float64
	)
	catCount := map[string]int{}
	var catOrder []string
	dayCount := map[string]int{}
	tagCount := map[string]int{}
	var tagOrder []string
	deptSubmitters := map[string]map[string]struct{}{}
	deptSubmissions := map[string]int{}

	for _, s := range filtered {
		if s.Status == domain.StatusImplemented {
			implemented++
		}
		if s.Status.Reviewed() {
			reviewed++
		}
		switch s.Sentiment {
		case domain.SentimentPositive:
			positive++
		case domain.SentimentNeutral:
			neutral++
		case domain.SentimentNegative:
			negative++
		}

		if _, ok := catCount[s.Category]; !ok {
			catOrder = append(catOrder, s.Category)
		}
		catCount[s.Category]++

		dayCount[s.CreatedAt.UTC().Format("2006-01-02")]++

		for _, t := range s.Tags {
			if _, ok := tagCount[t]; !ok {
				tagOrder = append(tagOrder, t)
			}
			tagCount[t]++
		}

		if s.Status == domain.StatusPending {
			pendingCount++
			pendingAge += now.Sub(s.CreatedAt).Hours() / 24
		}

		dep := s.Author.Department
		if deptSubmitters[dep] == nil {
			deptSubmitters[dep] = map[string]struct{}{}
		}
		deptSubmitters[dep][s.Author.Email] = struct{}{}
		deptSubmissions[dep]++
	}

	a.ImplementationRate = percent(implemented, total)
	a.Sentiment = SentimentBreakdown{
		Positive: percent(positive, total),
		Neutral:  percent(neutral, total),
		Negative: percent(negative, total),
	}

	a.CategoryDistribution = make([]CategoryShare, 0, len(catOrder))
	for _, c := range catOrder {
		a.CategoryDistribution = append(a.CategoryDistribution, CategoryShare{
			Category:   c,
			Count:      catCount[c],
			Percentage: percent(catCount[c], total),
		})
	}
	sort.SliceStable(a.CategoryDistribution, func(i, j int) bool {
		return a.CategoryDistribution[i].Count > a.CategoryDistribution[j].Count
	})

	a.Series = make([]DayCount, 0, len(dayCount))
	for d, n := range dayCount {
		a.Series = append(a.Series, DayCount{Date: d, Submissions: n})
	}
	sort.Slice(a.Series, func(i, j int) bool { return a.Series[i].Date < a.Series[j].Date })

	a.Funnel = []FunnelStage{
		{Stage: "Submitted", Count: total},
		{Stage: "Reviewed", Count: reviewed},
		{Stage: "Implemented", Count: implemented},
	}

	tags := make([]TagCount, 0, len(tagOrder))
	for _, t := range tagOrder {
		tags = append(tags, TagCount{Tag: t, Count: tagCount[t]})
	}
	sort.SliceStable(tags, func(i, j int) bool { return tags[i].Count > tags[j].Count })
	if len(tags) > maxTopTags {
		tags = tags[:maxTopTags]
	}
	a.TopTags = tags

	n := len(users)
	if n > maxTopContributors {
		n = maxTopContributors
	}
	a.TopContributors = make([]TopContributor, 0, n)
	for _, u := range users[:n] {
		score := 0
		if u.ImplementationsCount > 0 {
			score = percent(u.ImplementationsCount, u.SuggestionsCount)
		}
		a.TopContributors = append(a.TopContributors, TopContributor{
			Name:        u.Name,
			Department:  u.Department,
			Submissions: u.SuggestionsCount,
			Score:       score,
		})
	}

	if pendingCount > 0 {
		a.AvgResponseDays = pendingAge / float64(pendingCount)
	}
	a.AvgResponseTime = strconv.FormatFloat(a.AvgResponseDays, 'f', 1, 64) + " days"

	deptUsers := map[string]int{}
	for _, u := range users {
		deptUsers[u.Department]++
	}
	a.Departments = make([]DepartmentEngagement, 0, len(Departments))
	for _, dep := range Departments {
		a.Departments = append(a.Departments, DepartmentEngagement{
			Department:    dep,
			Participation: percent(len(deptSubmitters[dep]), deptUsers[dep]),
			Submissions:   deptSubmissions[dep],
		})
	}
	return a
}
