package services

import (
	"math/rand"
	"sync"
	"time"

	"github.com/tbourn/go-suggestion-box/internal/aggregate"
	"github.com/tbourn/go-suggestion-box/internal/repo"
)

// Options tunes the service bundle.
type Options struct {
	// IdempotencyTTL is how long a submission Idempotency-Key replays.
	// Zero defaults to 24h.
	IdempotencyTTL time.Duration
	// Rand drives demo seeding. Nil uses a time-seeded source.
	Rand *rand.Rand
}

// Services bundles every service over one record store. Operations that
// touch more than one collection share a single lock so that each one
// applies as a unit inside the process.
type Services struct {
	Suggestions   *SuggestionService
	Accounts      *AccountService
	Notifications *NotificationService
	Settings      *SettingsService
}

// New wires the services over st and eng.
func New(st *repo.Store, eng *aggregate.Engine, opts Options) *Services {
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	mu := &sync.Mutex{}

	notif := &NotificationService{Store: st}
	return &Services{
		Suggestions: &SuggestionService{
			Store:          st,
			Engine:         eng,
			Notifications:  notif,
			IdempotencyTTL: opts.IdempotencyTTL,
			rnd:            opts.Rand,
			mu:             mu,
		},
		Accounts: &AccountService{
			Store:  st,
			Engine: eng,
			mu:     mu,
		},
		Notifications: notif,
		Settings:      &SettingsService{Store: st},
	}
}
