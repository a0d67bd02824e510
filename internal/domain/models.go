// Package domain defines the persisted entities of the suggestion box:
// suggestions, users, comments, notifications, settings, and the current
// session snapshot. These types are serialized as JSON documents (one
// document per collection) and their field names are the wire contract
// shared with seeding and export tooling.
package domain

import "time"

// Author is the denormalized snapshot of a user taken when a suggestion or
// comment is written. It is never refreshed from the user registry.
type Author struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Avatar     string `json:"avatar,omitempty"`
	Department string `json:"department"`
}

// Suggestion is a submitted improvement idea.
//
// Invariants maintained by the services package:
//   - Votes == len(VotedBy), voter identities are unique.
//   - Comments == number of Comment records whose SuggestionID is ID.
//   - UpdatedAt >= CreatedAt.
type Suggestion struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Problem     string    `json:"problem"`
	Cause       string    `json:"cause,omitempty"`
	Solution    string    `json:"solution"`
	Benefit     string    `json:"benefit,omitempty"`
	Author      Author    `json:"author"`
	Status      Status    `json:"status"`
	Category    string    `json:"category"`
	Sentiment   Sentiment `json:"sentiment"`
	Votes       int       `json:"votes"`
	VotedBy     []string  `json:"votedBy"`
	Comments    int       `json:"comments"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Tags        []string  `json:"tags"`
	Language    string    `json:"language"`
	AdminRemark string    `json:"adminRemark,omitempty"`
}

// GetID implements the repo keyed-entity contract.
func (s Suggestion) GetID() string { return s.ID }

// HasVoted reports whether voter is already in VotedBy.
func (s Suggestion) HasVoted(voter string) bool {
	for _, v := range s.VotedBy {
		if v == voter {
			return true
		}
	}
	return false
}

// User is a registered account or a user inferred from suggestion authorship.
// Email is the identity key across the system.
type User struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Avatar               string `json:"avatar,omitempty"`
	Department           string `json:"department"`
	Points               int    `json:"points"`
	SuggestionsCount     int    `json:"suggestionsCount"`
	ImplementationsCount int    `json:"implementationsCount"`
	Role                 Role   `json:"role,omitempty"`
	Password             string `json:"password,omitempty"`
}

// GetID implements the repo keyed-entity contract.
func (u User) GetID() string { return u.ID }

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// WithoutPassword returns a copy with the password stripped, as stored in
// the current session.
func (u User) WithoutPassword() User {
	u.Password = ""
	return u
}

// AuthorSnapshot builds the denormalized author block for new records.
func (u User) AuthorSnapshot() Author {
	return Author{
		Name:       u.Name,
		Email:      u.Email,
		Avatar:     u.Avatar,
		Department: u.Department,
	}
}

// Comment is a remark left on a suggestion.
type Comment struct {
	ID           string    `json:"id"`
	SuggestionID string    `json:"suggestionId"`
	Author       Author    `json:"author"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
}

// GetID implements the repo keyed-entity contract.
func (c Comment) GetID() string { return c.ID }

// Notification is an append-only per-user event. UserID holds the
// recipient's email.
type Notification struct {
	ID           string           `json:"id"`
	UserID       string           `json:"userId"`
	Type         NotificationType `json:"type"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	SuggestionID string           `json:"suggestionId,omitempty"`
	Read         bool             `json:"read"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// GetID implements the repo keyed-entity contract.
func (n Notification) GetID() string { return n.ID }

// Settings is the per-profile preferences singleton.
type Settings struct {
	Theme              Theme  `json:"theme"`
	Notifications      bool   `json:"notifications"`
	EmailNotifications bool   `json:"emailNotifications"`
	Language           string `json:"language"`
}

// DefaultSettings returns the settings used when none are stored.
func DefaultSettings() Settings {
	return Settings{
		Theme:              ThemeSystem,
		Notifications:      true,
		EmailNotifications: true,
		Language:           "en",
	}
}
