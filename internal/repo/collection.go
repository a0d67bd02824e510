// Package repo implements the record store: typed collections and
// singletons persisted as whole JSON documents in a store.KV.
//
// Every write is a read-modify-write of the entire document: the
// collection is loaded, changed in memory, and written back in a single
// Set. Within one process the Store mutex serializes those cycles, so no
// partial write is observable. Across processes sharing a backend there is
// no versioning and the last writer wins.
//
// Error semantics:
//   - A missing record is not an error. Lookups return found=false,
//     Update returns (zero, false, nil), Delete returns false.
//   - Backend failures and undecodable documents are returned wrapped.
//
// Usage:
//
//	st := repo.New(kv)
//	s, ok, err := st.Suggestions.Update(ctx, id, func(s *domain.Suggestion) {
//	    s.Status = domain.StatusApproved
//	})
//	if err != nil {
//	    // storage failure
//	} else if !ok {
//	    // handle missing
//	}
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tbourn/go-suggestion-box/internal/live"
)

// Entity is a record addressable by ID.
type Entity interface {
	GetID() string
}

// Collection is a list-valued document of T.
type Collection[T Entity] struct {
	st     *Store
	key    string
	prefix string
	// stamp assigns identity and timestamps on Create.
	stamp func(item *T, id string, now time.Time)
	// touch runs after every Update mutation.
	touch func(item *T, now time.Time)
}

func newCollection[T Entity](st *Store, key, prefix string, stamp func(*T, string, time.Time), touch func(*T, time.Time)) *Collection[T] {
	return &Collection[T]{st: st, key: key, prefix: prefix, stamp: stamp, touch: touch}
}

// Key is the document key backing the collection.
func (c *Collection[T]) Key() string { return c.key }

func (c *Collection[T]) load(ctx context.Context) ([]T, error) {
	raw, ok, err := c.st.kv.Get(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.key, err)
	}
	if !ok || len(raw) == 0 {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *Collection[T]) save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.st.kv.Set(ctx, c.key, raw); err != nil {
		return fmt.Errorf("write %s: %w", c.key, err)
	}
	return nil
}

// GetAll returns every record in stored order.
func (c *Collection[T]) GetAll(ctx context.Context) ([]T, error) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	return c.load(ctx)
}

// GetByID returns the first record with the given id.
func (c *Collection[T]) GetByID(ctx context.Context, id string) (T, bool, error) {
	var zero T
	items, err := c.GetAll(ctx)
	if err != nil {
		return zero, false, err
	}
	for _, it := range items {
		if it.GetID() == id {
			return it, true, nil
		}
	}
	return zero, false, nil
}

// Find returns the first record matching pred.
func (c *Collection[T]) Find(ctx context.Context, pred func(T) bool) (T, bool, error) {
	var zero T
	items, err := c.GetAll(ctx)
	if err != nil {
		return zero, false, err
	}
	for _, it := range items {
		if pred(it) {
			return it, true, nil
		}
	}
	return zero, false, nil
}

// Create appends item after assigning a fresh id and creation timestamps.
func (c *Collection[T]) Create(ctx context.Context, item T) (T, error) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	items, err := c.load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if c.stamp != nil {
		c.stamp(&item, NewID(c.prefix), c.st.now())
	}
	items = append(items, item)
	if err := c.save(ctx, items); err != nil {
		var zero T
		return zero, err
	}
	c.st.publish(c.key, live.ActionCreate, item.GetID())
	return item, nil
}

// Update applies mutate to the record with the given id and persists it.
func (c *Collection[T]) Update(ctx context.Context, id string, mutate func(*T)) (T, bool, error) {
	var zero T
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	items, err := c.load(ctx)
	if err != nil {
		return zero, false, err
	}
	idx := -1
	for i := range items {
		if items[i].GetID() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return zero, false, nil
	}
	mutate(&items[idx])
	if c.touch != nil {
		c.touch(&items[idx], c.st.now())
	}
	if err := c.save(ctx, items); err != nil {
		return zero, false, err
	}
	c.st.publish(c.key, live.ActionUpdate, id)
	return items[idx], true, nil
}

// Delete removes every record with the given id.
func (c *Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	items, err := c.load(ctx)
	if err != nil {
		return false, err
	}
	kept := items[:0]
	for _, it := range items {
		if it.GetID() != id {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return false, nil
	}
	if err := c.save(ctx, kept); err != nil {
		return false, err
	}
	c.st.publish(c.key, live.ActionDelete, id)
	return true, nil
}

// Mutate loads the list, hands it to fn, and writes back whatever fn
// returns. Returning changed=false skips the write.
func (c *Collection[T]) Mutate(ctx context.Context, fn func(items []T, now time.Time) ([]T, bool, error)) error {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	items, err := c.load(ctx)
	if err != nil {
		return err
	}
	next, changed, err := fn(items, c.st.now())
	if err != nil || !changed {
		return err
	}
	if err := c.save(ctx, next); err != nil {
		return err
	}
	c.st.publish(c.key, live.ActionReplace, "")
	return nil
}

// ReplaceAll overwrites the collection.
func (c *Collection[T]) ReplaceAll(ctx context.Context, items []T) error {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	if err := c.save(ctx, items); err != nil {
		return err
	}
	c.st.publish(c.key, live.ActionReplace, "")
	return nil
}

// DeleteAll empties the collection and reports how many records it held.
func (c *Collection[T]) DeleteAll(ctx context.Context) (int, error) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	items, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.save(ctx, nil); err != nil {
		return 0, err
	}
	c.st.publish(c.key, live.ActionDelete, "")
	return len(items), nil
}
