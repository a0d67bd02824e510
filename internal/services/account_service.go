package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/tbourn/go-suggestion-box/internal/aggregate"
	"github.com/tbourn/go-suggestion-box/internal/domain"
	"github.com/tbourn/go-suggestion-box/internal/repo"
	"github.com/tbourn/go-suggestion-box/internal/sentiment"
)

const minPasswordLen = 6

// RegisterInput carries the sign-up form.
type RegisterInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
	Department      string `json:"department"`
	Avatar          string `json:"avatar,omitempty"`
	Role            string `json:"role,omitempty"`
}

// ProfilePatch is a partial update of the session user. Nil fields are
// left as is.
type ProfilePatch struct {
	Name       *string `json:"name,omitempty"`
	Avatar     *string `json:"avatar,omitempty"`
	Department *string `json:"department,omitempty"`
}

// AccountService manages registration, login and the current session.
//
// Passwords are stored and compared as plain text and there are no tokens:
// whoever holds the process holds the session.
type AccountService struct {
	Store  *repo.Store
	Engine *aggregate.Engine

	mu *sync.Mutex
}

// Register stores a new user and logs them in. The returned user has no
// password.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	ctx, span := otel.Tracer("services/AccountService").Start(ctx, "Register")
	defer span.End()

	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" {
		return domain.User{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if email == "" {
		return domain.User{}, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if sentiment.UTF16Len(in.Password) < minPasswordLen {
		return domain.User{}, ErrPasswordTooShort
	}
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.Password {
		return domain.User{}, ErrPasswordMismatch
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrInvalidRole, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var created domain.User
	err = s.Store.Users.Mutate(ctx, func(items []domain.User, _ time.Time) ([]domain.User, bool, error) {
		for _, u := range items {
			if strings.EqualFold(u.Email, email) {
				return nil, false, ErrUserExists
			}
		}
		created = domain.User{
			ID:         repo.NewID(repo.PrefixUser),
			Name:       name,
			Email:      email,
			Avatar:     strings.TrimSpace(in.Avatar),
			Department: strings.TrimSpace(in.Department),
			Role:       role,
			Password:   in.Password,
		}
		return append(items, created), true, nil
	})
	if err != nil {
		return domain.User{}, err
	}
	if err := s.Store.Session.Set(ctx, created); err != nil {
		return domain.User{}, err
	}
	log.Info().Str("user_id", created.ID).Str("role", string(role)).Msg("user registered")
	return created.WithoutPassword(), nil
}

// Login matches email and password exactly against the effective users and
// stores the match, without its password, as the session.
func (s *AccountService) Login(ctx context.Context, email, password string) (domain.User, error) {
	ctx, span := otel.Tracer("services/AccountService").Start(ctx, "Login")
	defer span.End()

	// implicit users carry no password and can never log in
	if password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	users, err := s.Engine.Users(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.Email == email && u.Password == password {
			u = u.WithoutPassword()
			if err := s.Store.Session.Set(ctx, u); err != nil {
				return domain.User{}, err
			}
			return u, nil
		}
	}
	return domain.User{}, ErrInvalidCredentials
}

// Logout clears the session.
func (s *AccountService) Logout(ctx context.Context) error {
	return s.Store.Session.Clear(ctx)
}

// Current returns the session user, if any.
func (s *AccountService) Current(ctx context.Context) (domain.User, bool, error) {
	return s.Store.Session.Get(ctx)
}

// UpdateCurrent applies p to the session user only; the stored record is
// untouched.
func (s *AccountService) UpdateCurrent(ctx context.Context, p ProfilePatch) (domain.User, error) {
	return s.Store.Session.Update(ctx, func(u *domain.User) {
		if p.Name != nil {
			if v := strings.TrimSpace(*p.Name); v != "" {
				u.Name = v
			}
		}
		if p.Avatar != nil {
			u.Avatar = strings.TrimSpace(*p.Avatar)
		}
		if p.Department != nil {
			u.Department = strings.TrimSpace(*p.Department)
		}
	})
}

// SetRole changes the role of a stored user. Implicit users cannot be
// promoted. The session is refreshed when it belongs to the same email.
func (s *AccountService) SetRole(ctx context.Context, email, rawRole string) (domain.User, error) {
	role, err := domain.ParseRole(rawRole)
	if err != nil || strings.TrimSpace(rawRole) == "" {
		return domain.User{}, fmt.Errorf("%w %q", ErrInvalidRole, rawRole)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var updated domain.User
	err = s.Store.Users.Mutate(ctx, func(items []domain.User, _ time.Time) ([]domain.User, bool, error) {
		for i := range items {
			if items[i].Email == email {
				items[i].Role = role
				updated = items[i]
				return items, true, nil
			}
		}
		return nil, false, ErrUserNotFound
	})
	if err != nil {
		return domain.User{}, err
	}
	if cur, ok, err := s.Store.Session.Get(ctx); err == nil && ok && cur.Email == email {
		if _, err := s.Store.Session.Update(ctx, func(u *domain.User) { u.Role = role }); err != nil && !errors.Is(err, ErrNoCurrentUser) {
			return domain.User{}, err
		}
	}
	return updated.WithoutPassword(), nil
}

// DeleteAllUsers empties the user registry, logs out and reports how many
// stored users were removed. Implicit users reappear from suggestions.
func (s *AccountService) DeleteAllUsers(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.Store.Users.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.Store.Session.Clear(ctx); err != nil {
		return 0, err
	}
	log.Info().Int("count", n).Msg("all users deleted")
	return n, nil
}

// Users returns the effective users without passwords.
func (s *AccountService) Users(ctx context.Context) ([]domain.User, error) {
	users, err := s.Engine.Users(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = users[i].WithoutPassword()
	}
	return users, nil
}
