package repo

import (
	"time"

	"github.com/tbourn/go-suggestion-box/internal/domain"
)

const day = 24 * time.Hour

// DefaultSuggestions returns the three sample suggestions written on first
// start, dated relative to now.
func DefaultSuggestions(now time.Time) []domain.Suggestion {
	ago := func(d int) time.Time { return now.Add(-time.Duration(d) * day) }
	return []domain.Suggestion{
		{
			ID:       "1",
			Title:    "Automated Customer Feedback System",
			Problem:  "Customer feedback is currently collected manually through forms, leading to delays and inconsistent data collection.",
			Solution: "Implement an AI-powered chatbot that can collect, categorize, and analyze customer feedback in real-time.",
			Author: domain.Author{
				Name:       "Aarav Sharma",
				Avatar:     "/placeholder-avatar-1.jpg",
				Department: "Sales & Client Relations",
				Email:      "aarav@company.com",
			},
			Status:    domain.StatusApproved,
			Category:  "Customer Experience",
			Sentiment: domain.SentimentPositive,
			Votes:     24,
			VotedBy:   []string{},
			Comments:  8,
			CreatedAt: ago(2),
			UpdatedAt: ago(2),
			Tags:      []string{"AI", "Automation", "Customer Service"},
			Language:  "en",
		},
		{
			ID:       "2",
			Title:    "Green Office Initiative",
			Problem:  "High energy consumption and waste in office operations are increasing operational costs and environmental impact.",
			Solution: "Introduce smart lighting systems, paperless workflows, and recycling programs to reduce our carbon footprint.",
			Author: domain.Author{
				Name:       "Priya Patel",
				Avatar:     "/placeholder-avatar-2.jpg",
				Department: "Manufacturing",
				Email:      "priya@company.com",
			},
			Status:    domain.StatusPending,
			Category:  "Environment",
			Sentiment: domain.SentimentPositive,
			Votes:     18,
			VotedBy:   []string{},
			Comments:  5,
			CreatedAt: ago(1),
			UpdatedAt: ago(1),
			Tags:      []string{"Sustainability", "Cost Reduction", "Environment"},
			Language:  "en",
		},
		{
			ID:       "3",
			Title:    "Remote Work Productivity Tools",
			Problem:  "Remote team members struggle with collaboration and maintaining productivity without proper digital tools.",
			Solution: "Deploy integrated project management and communication platforms with AI-powered productivity insights.",
			Author: domain.Author{
				Name:       "Rohan Gupta",
				Avatar:     "/placeholder-avatar-3.jpg",
				Department: "Quality Control",
				Email:      "rohan@company.com",
			},
			Status:    domain.StatusImplemented,
			Category:  "Technology",
			Sentiment: domain.SentimentPositive,
			Votes:     32,
			VotedBy:   []string{},
			Comments:  12,
			CreatedAt: ago(7),
			UpdatedAt: ago(7),
			Tags:      []string{"Remote Work", "Productivity", "Communication"},
			Language:  "en",
		},
	}
}

// DefaultUsers returns the built-in admin and demo accounts.
func DefaultUsers() []domain.User {
	return []domain.User{
		{
			ID:         "admin_1",
			Name:       "Admin User",
			Email:      "admin@company.com",
			Department: "Manufacturing",
			Role:       domain.RoleAdmin,
			Password:   "admin123",
		},
		{
			ID:         "user_1",
			Name:       "John Doe",
			Email:      "john.doe@company.com",
			Department: "Quality Control",
			Role:       domain.RoleUser,
			Password:   "user123",
		},
	}
}
