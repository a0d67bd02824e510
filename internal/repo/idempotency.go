package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tbourn/go-suggestion-box/internal/domain"
)

// ErrDuplicate indicates that an idempotency record already exists for the
// given (user_email, key) pair.
var ErrDuplicate = errors.New("duplicate")

// GetIdempotency returns the non-expired record for (userEmail, key).
func (st *Store) GetIdempotency(ctx context.Context, userEmail, key string, now time.Time) (domain.Idempotency, bool, error) {
	if strings.TrimSpace(key) == "" {
		return domain.Idempotency{}, false, nil
	}
	return st.Idempotency.Find(ctx, func(r domain.Idempotency) bool {
		return r.UserEmail == userEmail && r.Key == key && !r.Expired(now)
	})
}

// CreateIdempotency records that key produced suggestionID. It returns
// ErrDuplicate if a live record for the same pair exists.
func (st *Store) CreateIdempotency(ctx context.Context, userEmail, key, suggestionID string, ttl time.Duration) (domain.Idempotency, error) {
	var created domain.Idempotency
	err := st.Idempotency.Mutate(ctx, func(items []domain.Idempotency, now time.Time) ([]domain.Idempotency, bool, error) {
		for _, r := range items {
			if r.UserEmail == userEmail && r.Key == key && !r.Expired(now) {
				return nil, false, ErrDuplicate
			}
		}
		created = domain.Idempotency{
			ID:           NewID(PrefixIdem),
			UserEmail:    userEmail,
			Key:          key,
			SuggestionID: suggestionID,
			CreatedAt:    now,
			ExpiresAt:    now.Add(ttl),
		}
		return append(items, created), true, nil
	})
	if err != nil {
		return domain.Idempotency{}, err
	}
	return created, nil
}

// PurgeExpiredIdempotency drops expired records and reports how many were
// removed.
func (st *Store) PurgeExpiredIdempotency(ctx context.Context) (int, error) {
	removed := 0
	err := st.Idempotency.Mutate(ctx, func(items []domain.Idempotency, now time.Time) ([]domain.Idempotency, bool, error) {
		kept := make([]domain.Idempotency, 0, len(items))
		for _, r := range items {
			if r.Expired(now) {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		return kept, removed > 0, nil
	})
	return removed, err
}
