package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-suggestion-box/internal/repo"
)

// Janitor periodically purges expired submission replay records.
type Janitor struct {
	Store *repo.Store
	Every time.Duration
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	every := j.Every
	if every <= 0 {
		every = time.Hour
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	j.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	n, err := j.Store.PurgeExpiredIdempotency(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("idempotency purge failed")
		return
	}
	if n > 0 {
		log.Debug().Int("removed", n).Msg("idempotency records purged")
	}
}
