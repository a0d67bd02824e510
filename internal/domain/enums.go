package domain

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a suggestion.
type Status string

const (
	StatusPending       Status = "pending"
	StatusReviewPending Status = "review_pending"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
	StatusImplemented   Status = "implemented"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusReviewPending,
	StatusApproved,
	StatusRejected,
	StatusImplemented,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReviewPending, StatusApproved, StatusRejected, StatusImplemented:
		return true
	}
	return false
}

// Points is the author reward attached to a status.
func (s Status) Points() int {
	switch s {
	case StatusImplemented:
		return PointsImplemented
	case StatusApproved:
		return PointsApproved
	case StatusPending, StatusReviewPending, StatusRejected:
		return 0
	}
	return 0
}

// Reviewed reports whether an admin has acted on the suggestion.
func (s Status) Reviewed() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusImplemented, StatusReviewPending:
		return true
	case StatusPending:
		return false
	}
	return false
}

// Label renders the status for notification text ("review_pending" → "review pending").
func (s Status) Label() string {
	return strings.Replace(string(s), "_", " ", 1)
}

// ParseStatus converts a raw string into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// Point rewards.
const (
	PointsImplemented = 60
	PointsApproved    = 30
	PointsPerVote     = 5
)

// StatusDelta is the point change on an author's stored record when an
// admin moves a suggestion from old to next.
func StatusDelta(old, next Status) int {
	return next.Points() - old.Points()
}

// Sentiment is the heuristic tone of a submission.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Valid reports whether s is a known sentiment.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Role is a user's permission level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// ParseRole converts a raw string into a Role. Empty defaults to RoleUser.
func ParseRole(raw string) (Role, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return RoleUser, nil
	}
	r := Role(raw)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return r, nil
}

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationStatusChange NotificationType = "status_change"
	NotificationComment      NotificationType = "comment"
	NotificationVote         NotificationType = "vote"
	NotificationMention      NotificationType = "mention"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationStatusChange, NotificationComment, NotificationVote, NotificationMention:
		return true
	}
	return false
}

// Theme is the UI color scheme preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}
