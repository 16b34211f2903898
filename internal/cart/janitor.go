package cart

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Janitor collects expired guest carts in the background.
type Janitor struct {
	repo     Repository
	interval time.Duration
}

func NewJanitor(repo Repository, interval time.Duration) *Janitor {
	return &Janitor{repo: repo, interval: interval}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := j.repo.DeleteExpired(ctx, time.Now())
			if err != nil {
				log.Error().Err(err).Msg("guest cart sweep failed")
				continue
			}
			if n > 0 {
				log.Info().Int64("carts", n).Msg("expired guest carts removed")
			}
		}
	}
}
