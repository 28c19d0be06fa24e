package monitoring

import (
	"database/sql"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// TokenSweeper periodically deletes token rows that are past their
// lifetime. The codec already rejects expired tokens on presentation, so
// the sweeper only keeps the tokens table from growing without bound.
type TokenSweeper struct {
	db       *sql.DB
	schedule cron.Schedule
	maxAge   time.Duration
	done     chan bool
}

// NewTokenSweeper creates a sweeper from a standard cron expression and
// the configured token lifetime.
func NewTokenSweeper(db *sql.DB, scheduleSpec string, maxAge time.Duration) (*TokenSweeper, error) {
	schedule, err := cron.ParseStandard(scheduleSpec)
	if err != nil {
		return nil, err
	}
	return &TokenSweeper{
		db:       db,
		schedule: schedule,
		maxAge:   maxAge,
		done:     make(chan bool),
	}, nil
}

// Run starts the sweeper's loop. It blocks until Stop is called.
func (s *TokenSweeper) Run() {
	log.Info().Msg("Starting token sweeper")
	for {
		timer := time.NewTimer(time.Until(s.schedule.Next(time.Now())))
		select {
		case <-s.done:
			timer.Stop()
			log.Info().Msg("Stopping token sweeper")
			return
		case <-timer.C:
			s.Sweep()
		}
	}
}

// Stop halts the sweeper.
func (s *TokenSweeper) Stop() {
	s.done <- true
}

// Sweep deletes every token row older than the token lifetime.
func (s *TokenSweeper) Sweep() {
	cutoff := time.Now().Add(-s.maxAge).UnixMilli()
	res, err := s.db.Exec("DELETE FROM tokens WHERE created_at < ?", cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sweep expired tokens")
		return
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		log.Info().Int64("count", n).Msg("Swept expired tokens")
	}
}
