package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tbourn/go-suggestion-box/internal/domain"
	"github.com/tbourn/go-suggestion-box/internal/live"
)

// ErrNoCurrentUser is returned when a session update is attempted while
// logged out.
var ErrNoCurrentUser = errors.New("no current user")

func (st *Store) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := st.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (st *Store) setJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := st.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// SettingsDoc is the preferences singleton.
type SettingsDoc struct {
	st  *Store
	key string
}

// Get returns the stored settings, or the defaults when none are stored.
func (d *SettingsDoc) Get(ctx context.Context) (domain.Settings, error) {
	d.st.mu.Lock()
	defer d.st.mu.Unlock()
	return d.load(ctx)
}

func (d *SettingsDoc) load(ctx context.Context) (domain.Settings, error) {
	s := domain.DefaultSettings()
	if _, err := d.st.getJSON(ctx, d.key, &s); err != nil {
		return domain.Settings{}, err
	}
	return s, nil
}

// Update applies mutate over the current settings and stores the result.
func (d *SettingsDoc) Update(ctx context.Context, mutate func(*domain.Settings)) (domain.Settings, error) {
	d.st.mu.Lock()
	defer d.st.mu.Unlock()
	s, err := d.load(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	mutate(&s)
	if err := d.st.setJSON(ctx, d.key, s); err != nil {
		return domain.Settings{}, err
	}
	d.st.publish(d.key, live.ActionUpdate, "")
	return s, nil
}

// SessionDoc holds the logged-in user snapshot. The stored snapshot never
// carries a password.
type SessionDoc struct {
	st  *Store
	key string
}

// Get returns the current user, if any.
func (d *SessionDoc) Get(ctx context.Context) (domain.User, bool, error) {
	d.st.mu.Lock()
	defer d.st.mu.Unlock()
	var u domain.User
	ok, err := d.st.getJSON(ctx, d.key, &u)
	return u, ok, err
}

// Set replaces the current user.
func (d *SessionDoc) Set(ctx context.Context, u domain.User) error {
	d.st.mu.Lock()
	defer d.st.mu.Unlock()
	if err := d.st.setJSON(ctx, d.key, u.WithoutPassword()); err != nil {
		return err
	}
	d.st.publish(d.key, live.ActionUpdate, u.ID)
	return nil
}

// Update applies mutate to the current user. It fails with ErrNoCurrentUser
// when logged out.
func (d *SessionDoc) Update(ctx context.Context, mutate func(*domain.User)) (domain.User, error) {
	d.st.mu.Lock()
	defer d.st.mu.Unlock()
	var u domain.User
	ok, err := d.st.getJSON(ctx, d.key, &u)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, ErrNoCurrentUser
	}
	mutate(&u)
	u = u.WithoutPassword()
	if err := d.st.setJSON(ctx, d.key, u); err != nil {
		return domain.User{}, err
	}
	d.st.publish(d.key, live.ActionUpdate, u.ID)
	return u, nil
}

// Clear logs out.
func (d *SessionDoc) Clear(ctx context.Context) error {
	d.st.mu.Lock()
	defer d.st.mu.Unlock()
	if err := d.st.kv.Delete(ctx, d.key); err != nil {
		return fmt.Errorf("delete %s: %w", d.key, err)
	}
	d.st.publish(d.key, live.ActionDelete, "")
	return nil
}
