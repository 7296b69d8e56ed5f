// Package worker contains background workers that maintain derived and
// expiring state.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/adminforge/adminforge/internal/editorwire"
)

// SessionCleanupWorker periodically evicts expired and idle editor
// sessions.
type SessionCleanupWorker struct {
	sessions *editorwire.Manager
	interval time.Duration
}

// NewSessionCleanupWorker creates a cleanup worker; a zero interval means
// every 5 minutes.
func NewSessionCleanupWorker(sessions *editorwire.Manager, interval time.Duration) *SessionCleanupWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SessionCleanupWorker{sessions: sessions, interval: interval}
}

// Run blocks until ctx is cancelled, cleaning up on each tick.
func (w *SessionCleanupWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sessions.Cleanup()
		case <-ctx.Done():
			log.Debug().Msg("worker: session cleanup stopped")
			return
		}
	}
}
