package aggregate

import (
	"time"

	"github.com/tbourn/go-suggestion-box/internal/domain"
)

// AdminKPIs are the review-queue indicators.
type AdminKPIs struct {
	ReviewPendingCount   int `json:"reviewPendingCount"`
	ApprovedThisWeek     int `json:"approvedThisWeek"`
	ImplementedThisMonth int `json:"implementedThisMonth"`
	AvgPendingAgeDays    int `json:"avgPendingAgeDays"`
}

// ComputeAdminKPIs scans every suggestion. Week and month cut-offs are
// measured on createdAt, in now's location.
func ComputeAdminKPIs(suggestions []domain.Suggestion, now time.Time) AdminKPIs {
	weekStart := now.AddDate(0, 0, -7)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var k AdminKPIs
	var pendings int
	var ageSum float64
	for _, s := range suggestions {
		switch s.Status {
		case domain.StatusReviewPending:
			k.ReviewPendingCount++
		case domain.StatusApproved:
			if !s.CreatedAt.Before(weekStart) {
				k.ApprovedThisWeek++
			}
		case domain.StatusImplemented:
			if !s.CreatedAt.Before(monthStart) {
				k.ImplementedThisMonth++
			}
		}
		if s.Status == domain.StatusPending || s.Status == domain.StatusReviewPending {
			pendings++
			ageSum += now.Sub(s.CreatedAt).Hours() / 24
		}
	}
	if pendings > 0 {
		k.AvgPendingAgeDays = round(ageSum / float64(pendings))
	}
	return k
}

// DashboardStats are the headline counters.
type DashboardStats struct {
	TotalSuggestions   int `json:"totalSuggestions"`
	ActiveContributors int `json:"activeContributors"`
	ImplementationRate int `json:"implementationRate"`
	PointsEarned       int `json:"pointsEarned"`
}

// ComputeDashboard uses every suggestion and the effective user count.
// PointsEarned is the session user's own balance, 0 when logged out.
func ComputeDashboard(suggestions []domain.Suggestion, users []domain.User, current *domain.User) DashboardStats {
	implemented := 0
	for _, s := range suggestions {
		if s.Status == domain.StatusImplemented {
			implemented++
		}
	}
	d := DashboardStats{
		TotalSuggestions:   len(suggestions),
		ActiveContributors: len(users),
		ImplementationRate: percent(implemented, len(suggestions)),
	}
	if current != nil {
		d.PointsEarned = current.Points
	}
	return d
}
