package worker

// heartbeat_cron.go
// Background goroutine that periodically flips terminals offline when their
// last heartbeat is older than the configured cutoff. Keeps the terminal
// status views honest without requiring explicit disconnect calls.

import (
	"context"
	"time"

	"github.com/silaschege/salescompass-sub004/internal/service"

	"github.com/rs/zerolog/log"
)

const heartbeatTickInterval = 60 * time.Second

// StartHeartbeatCron launches a background goroutine that ticks every minute
// and marks terminals with stale heartbeats offline. It respects the context
// for graceful shutdown.
func StartHeartbeatCron(ctx context.Context, terminals service.TerminalService, cutoff time.Duration) {
	go func() {
		ticker := time.NewTicker(heartbeatTickInterval)
		defer ticker.Stop()

		log.Info().Dur("cutoff", cutoff).Msg("heartbeat_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("heartbeat_cron: shutting down")
				return
			case <-ticker.C:
				n, err := terminals.MarkStale(ctx, cutoff)
				if err != nil {
					log.Error().Err(err).Msg("heartbeat_cron: failed to mark stale terminals")
					continue
				}
				if n > 0 {
					log.Warn().Int("count", n).Msg("heartbeat_cron: terminals marked offline")
				}
			}
		}
	}()
}
