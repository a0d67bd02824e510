package domain

import "time"

// Idempotency records the outcome of a submission made with an
// Idempotency-Key header, keyed by (user_email, key). A replay within the
// TTL returns the original suggestion instead of creating a duplicate.
type Idempotency struct {
	ID           string    `json:"id"`
	UserEmail    string    `json:"userEmail"`
	Key          string    `json:"key"`
	SuggestionID string    `json:"suggestionId"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// GetID implements the repo keyed-entity contract.
func (i Idempotency) GetID() string { return i.ID }

// Expired reports whether the record is no longer valid at now.
func (i Idempotency) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}
