// Package web assembles the HTTP API.
package web

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/emolog/emolog/internal/analytics"
	"github.com/emolog/emolog/internal/auth"
	"github.com/emolog/emolog/internal/backup"
	"github.com/emolog/emolog/internal/config"
	fiberlogger "github.com/emolog/emolog/internal/logger/adapter/fiber"
	"github.com/emolog/emolog/internal/signs"
	"github.com/emolog/emolog/internal/units"
	"github.com/emolog/emolog/internal/web/handler/authn"
	"github.com/emolog/emolog/internal/web/handler/backups"
	"github.com/emolog/emolog/internal/web/handler/dashboard"
	"github.com/emolog/emolog/internal/web/handler/diary"
	"github.com/emolog/emolog/internal/web/handler/exports"
	"github.com/emolog/emolog/internal/web/handler/files"
	"github.com/emolog/emolog/internal/web/handler/loginhistory"
	"github.com/emolog/emolog/internal/web/handler/roles"
	"github.com/emolog/emolog/internal/web/handler/support"
	"github.com/emolog/emolog/internal/web/handler/unit"
	"github.com/emolog/emolog/internal/web/handler/users"
	"github.com/emolog/emolog/internal/web/handler/worknote"
)

// publicPaths pass the global authentication guard unauthenticated.
var publicPaths = []string{
	"/checkalive",
	"/auth/signup",
	"/auth/login",
	"/auth/refresh-token",
	"/files/download",
}

// Server is the HTTP server.
type Server struct {
	app  *fiber.App
	cfg  *config.Config
	addr string
}

// New builds the fiber application with all middleware and routes.
func New(cfg *config.Config, db *gorm.DB, authz *auth.Service, unitSvc *units.Service, stats *analytics.Service, backupRunner *backup.Runner) *Server {
	app := fiber.New(fiber.Config{
		AppName:      cfg.Title,
		ErrorHandler: errorHandler,
	})

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: "/checkalive",
	}))
	app.Use(authz.Authenticate(publicPaths...))

	app.Get("/checkalive", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	signer := signs.NewSigner(cfg.Auth.JWTSecret)

	authn.Init(app, authz)
	users.Init(app, db, authz)
	roles.Init(app, db, authz)
	unit.Init(app, authz, unitSvc)
	diary.Init(app, db, authz)
	dashboard.Init(app, authz, unitSvc, stats)
	support.Init(app, db, authz)
	worknote.Init(app, db, authz, unitSvc)
	loginhistory.Init(app, db, authz)
	exports.Init(app, db, authz, unitSvc, stats)
	files.Init(app, cfg, authz, signer)
	backups.Init(app, authz, backupRunner)

	return &Server{app: app, cfg: cfg, addr: fmt.Sprintf(":%d", cfg.Webserver.Port)}
}

// Listen serves HTTP until the server is shut down.
func (s *Server) Listen() error {
	log.Info().Str("addr", s.addr).Msg("web server listening")

	return s.app.Listen(s.addr)
}

// ShutdownWithTimeout stops the server, waiting up to the timeout for
// in-flight requests.
func (s *Server) ShutdownWithTimeout(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

// App exposes the fiber application for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}
