// Package scheduler runs the recurring maintenance jobs: token list
// pruning, login history pruning, daily emotion statistics and database
// backups.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/emolog/emolog/internal/analytics"
	"github.com/emolog/emolog/internal/auth"
	"github.com/emolog/emolog/internal/backup"
	"github.com/emolog/emolog/internal/config"
)

// loginHistoryRetention is how long login records are kept.
const loginHistoryRetention = 180 * 24 * time.Hour

// Scheduler owns the cron instance and its jobs.
type Scheduler struct {
	cron      *cron.Cron
	cfg       *config.Config
	authz     *auth.Service
	analytics *analytics.Service
	backups   *backup.Runner
}

// New creates a scheduler with all jobs registered but not yet running.
func New(cfg *config.Config, authz *auth.Service, stats *analytics.Service, backups *backup.Runner) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(),
		cfg:       cfg,
		authz:     authz,
		analytics: stats,
		backups:   backups,
	}

	jobs := []struct {
		spec string
		name string
		run  func()
	}{
		{"0 */2 * * *", "prune-revoked-tokens", s.pruneRevoked},
		{"15 0 * * *", "prune-login-history", s.pruneLoginHistory},
		{"30 0 * * *", "daily-emotion-statistics", s.computeStatistics},
	}

	if cfg.Backup.Enabled {
		jobs = append(jobs, struct {
			spec string
			name string
			run  func()
		}{"0 0 * * *", "database-backup", s.runBackup})
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			return nil, err
		}

		log.Debug().Str("job", job.name).Str("spec", job.spec).Msg("registered cron job")
	}

	return s, nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) pruneRevoked() {
	removed, err := s.authz.PruneRevoked(time.Now())
	if err != nil {
		log.Error().Err(err).Msg("pruning revoked tokens")

		return
	}

	log.Info().Int64("removed", removed).Msg("pruned revoked tokens")
}

func (s *Scheduler) pruneLoginHistory() {
	cutoff := time.Now().Add(-loginHistoryRetention)

	removed, err := s.authz.PruneLoginHistory(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("pruning login history")

		return
	}

	log.Info().Int64("removed", removed).Msg("pruned login history")
}

func (s *Scheduler) computeStatistics() {
	// Aggregate yesterday; today is still being written.
	yesterday := time.Now().AddDate(0, 0, -1)

	if err := s.analytics.ComputeDailyStatistics(yesterday); err != nil {
		log.Error().Err(err).Msg("computing daily emotion statistics")

		return
	}

	log.Info().Str("day", yesterday.Format("2006-01-02")).Msg("daily emotion statistics computed")
}

func (s *Scheduler) runBackup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	name, err := s.backups.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("running database backup")

		return
	}

	log.Info().Str("file", name).Msg("database backup completed")
}
