package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tbourn/go-suggestion-box/internal/domain"
	"github.com/tbourn/go-suggestion-box/internal/live"
	"github.com/tbourn/go-suggestion-box/internal/store"
)

// Store bundles every collection and singleton over one KV backend.
type Store struct {
	kv      store.KV
	mu      sync.Mutex
	now     func() time.Time
	onWrite []func(live.Event)

	Suggestions   *Collection[domain.Suggestion]
	Users         *Collection[domain.User]
	Comments      *Collection[domain.Comment]
	Notifications *Collection[domain.Notification]
	Idempotency   *Collection[domain.Idempotency]

	Settings *SettingsDoc
	Session  *SessionDoc
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now for timestamps and ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithWriteHook registers a callback invoked after every committed write.
func WithWriteHook(fn func(live.Event)) Option {
	return func(s *Store) { s.OnWrite(fn) }
}

// WithBroker publishes every committed write to b.
func WithBroker(b *live.Broker) Option {
	return WithWriteHook(b.Publish)
}

// New wires the collections over kv.
func New(kv store.KV, opts ...Option) *Store {
	st := &Store{
		kv:  kv,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(st)
	}

	st.Suggestions = newCollection(st, store.KeySuggestions, PrefixSuggestion,
		func(s *domain.Suggestion, id string, now time.Time) {
			s.ID = id
			s.CreatedAt = now
			s.UpdatedAt = now
			if s.VotedBy == nil {
				s.VotedBy = []string{}
			}
			if s.Tags == nil {
				s.Tags = []string{}
			}
		},
		func(s *domain.Suggestion, now time.Time) {
			if now.Before(s.CreatedAt) {
				now = s.CreatedAt
			}
			s.UpdatedAt = now
		})
	st.Users = newCollection(st, store.KeyUsers, PrefixUser,
		func(u *domain.User, id string, _ time.Time) {
			if u.ID == "" {
				u.ID = id
			}
		}, nil)
	st.Comments = newCollection(st, store.KeyComments, PrefixComment,
		func(c *domain.Comment, id string, now time.Time) {
			c.ID = id
			c.CreatedAt = now
		}, nil)
	st.Notifications = newCollection(st, store.KeyNotifications, PrefixNotif,
		func(n *domain.Notification, id string, now time.Time) {
			n.ID = id
			n.CreatedAt = now
		}, nil)
	st.Idempotency = newCollection(st, store.KeyIdempotency, PrefixIdem,
		func(r *domain.Idempotency, id string, now time.Time) {
			r.ID = id
			if r.CreatedAt.IsZero() {
				r.CreatedAt = now
			}
		}, nil)

	st.Settings = &SettingsDoc{st: st, key: store.KeySettings}
	st.Session = &SessionDoc{st: st, key: store.KeyCurrentUser}
	return st
}

// Now is the store clock.
func (st *Store) Now() time.Time { return st.now() }

// OnWrite adds a hook invoked after every committed write. Hooks run while
// the store lock is held and must not call back into the store. Register
// hooks before the store is shared between goroutines.
func (st *Store) OnWrite(fn func(live.Event)) {
	if fn != nil {
		st.onWrite = append(st.onWrite, fn)
	}
}

func (st *Store) publish(collection, action, id string) {
	if len(st.onWrite) == 0 {
		return
	}
	ev := live.Event{Collection: collection, Action: action, ID: id, At: st.now()}
	for _, fn := range st.onWrite {
		fn(ev)
	}
}

// Initialize writes the default documents for every key that is absent.
// Existing documents are left untouched.
func (st *Store) Initialize(ctx context.Context) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	defaults := []struct {
		key   string
		value any
	}{
		{store.KeySuggestions, DefaultSuggestions(now)},
		{store.KeyUsers, DefaultUsers()},
		{store.KeyComments, []domain.Comment{}},
		{store.KeyNotifications, []domain.Notification{}},
		{store.KeySettings, domain.DefaultSettings()},
	}
	for _, d := range defaults {
		_, ok, err := st.kv.Get(ctx, d.key)
		if err != nil {
			return fmt.Errorf("read %s: %w", d.key, err)
		}
		if ok {
			continue
		}
		if err := st.setJSON(ctx, d.key, d.value); err != nil {
			return err
		}
		st.publish(d.key, live.ActionCreate, "")
	}
	return nil
}

// FullReset removes every document a reset covers, including the session.
func (st *Store) FullReset(ctx context.Context) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := st.kv.Delete(ctx, store.ResetKeys...); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	st.publish("*", live.ActionReset, "")
	return nil
}

// Close releases the backend.
func (st *Store) Close() error { return st.kv.Close() }
