package repo

import (
	"context"
	"time"
)

// SuggestionsStats returns the number of suggestions and the greatest
// UpdatedAt among them, for conditional responses in the HTTP layer.
// maxUpdatedAt is nil when the collection is empty.
func (st *Store) SuggestionsStats(ctx context.Context) (count int, maxUpdatedAt *time.Time, err error) {
	items, err := st.Suggestions.GetAll(ctx)
	if err != nil {
		return 0, nil, err
	}
	if len(items) == 0 {
		return 0, nil, nil
	}
	latest := items[0].UpdatedAt
	for _, s := range items[1:] {
		if s.UpdatedAt.After(latest) {
			latest = s.UpdatedAt
		}
	}
	return len(items), &latest, nil
}
