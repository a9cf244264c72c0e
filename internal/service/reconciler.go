package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Reconciler periodically removes shipped orders from the dispatch queue.
type Reconciler struct {
	dispatch *DispatchService
	interval time.Duration
}

func NewReconciler(dispatch *DispatchService, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Reconciler{dispatch: dispatch, interval: interval}
}

// Run reconciles on every tick until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", r.interval).Msg("reconciler: started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("reconciler: stopped")
			return nil
		case <-ticker.C:
			r.dispatch.Reconcile(ctx)
		}
	}
}
