// Package daemon wires the configuration, database, scheduler and web
// server together and owns the process lifecycle.
package daemon

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/emolog/emolog/internal/analytics"
	"github.com/emolog/emolog/internal/auth"
	"github.com/emolog/emolog/internal/backup"
	"github.com/emolog/emolog/internal/config"
	"github.com/emolog/emolog/internal/db/dsn"
	"github.com/emolog/emolog/internal/scheduler"
	"github.com/emolog/emolog/internal/units"
	"github.com/emolog/emolog/internal/web"
)

// Daemon is the running application.
type Daemon struct {
	cfg       *config.Config
	db        *gorm.DB
	web       *web.Server
	scheduler *scheduler.Scheduler
}

// New creates a daemon for the given configuration.
func New(cfg *config.Config) *Daemon {
	return &Daemon{cfg: cfg}
}

// Start opens the database, migrates and seeds it, starts the scheduler
// and serves HTTP until SIGINT or SIGTERM.
func (d *Daemon) Start() error {
	db, err := gorm.Open(mysql.Open(dsn.Create(d.cfg)), &gorm.Config{})
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	d.db = db

	if err := Migrate(db); err != nil {
		return err
	}

	if err := Seed(db); err != nil {
		return err
	}

	tokens := auth.NewTokenIssuer(
		d.cfg.Auth.JWTSecret,
		d.cfg.Auth.AccessTokenTTL,
		d.cfg.Auth.RefreshTokenTTL,
	)
	authz := auth.NewService(db, tokens)
	unitSvc := units.NewService(db)
	stats := analytics.NewService(db)
	backups := backup.NewRunner(d.cfg)

	d.scheduler, err = scheduler.New(d.cfg, authz, stats, backups)
	if err != nil {
		return errors.Wrap(err, "creating scheduler")
	}
	d.scheduler.Start()

	d.web = web.New(d.cfg, db, authz, unitSvc, stats, backups)

	errc := make(chan error, 1)

	go func() {
		errc <- d.web.Listen()
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		d.scheduler.Stop()

		return errors.Wrap(err, "web server")
	case sig := <-sigc:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return d.Stop()
}

// Stop shuts the scheduler and web server down gracefully.
func (d *Daemon) Stop() error {
	d.scheduler.Stop()

	timeout := time.Duration(d.cfg.Webserver.ShutDownTime) * time.Second
	if err := d.web.ShutdownWithTimeout(timeout); err != nil {
		return errors.Wrap(err, "shutting down web server")
	}

	return nil
}
