package worker

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
)

// DraftSweepWorker periodically deletes expired draft rows. Reads already
// treat expired drafts as absent; the sweep just keeps the table from
// accumulating rows nobody will load again.
type DraftSweepWorker struct {
	db       *sql.DB
	ttl      time.Duration
	interval time.Duration
}

// NewDraftSweepWorker creates a sweep worker; a zero interval means hourly.
func NewDraftSweepWorker(db *sql.DB, ttl, interval time.Duration) *DraftSweepWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &DraftSweepWorker{db: db, ttl: ttl, interval: interval}
}

// Run blocks until ctx is cancelled, sweeping on each tick.
func (w *DraftSweepWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep(ctx)
		case <-ctx.Done():
			log.Debug().Msg("worker: draft sweep stopped")
			return
		}
	}
}

func (w *DraftSweepWorker) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.ttl).UnixMilli()
	res, err := w.db.ExecContext(ctx, "DELETE FROM drafts WHERE saved_at_ms < ?", cutoff)
	if err != nil {
		log.Error().Err(err).Msg("worker: draft sweep failed")
		return
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		log.Info().Int64("swept", n).Msg("worker: expired drafts removed")
	}
}
