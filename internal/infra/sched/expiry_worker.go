package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"saju-content-payments/internal/usecase"
)

// ExpiryWorker periodically deactivates purchases whose access window
// has closed.
type ExpiryWorker struct {
	interval time.Duration
	ents     usecase.EntitlementUseCase
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, ents usecase.EntitlementUseCase, logger *zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	l := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{interval: interval, ents: ents, log: &l}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.ents.DeactivateExpiredPurchases(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("expiry sweep error")
				continue
			}
			if n > 0 {
				w.log.Info().Int64("count", n).Msg("expired purchases deactivated")
			}
		}
	}
}
