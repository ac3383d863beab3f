// Package backups serves the /backups endpoints for running, listing
// and restoring database dumps.
package backups

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/emolog/emolog/internal/auth"
	"github.com/emolog/emolog/internal/backup"
	"github.com/emolog/emolog/internal/web/handler"
)

// Service holds the handler dependencies.
type Service struct {
	authz  *auth.Service
	runner *backup.Runner
}

// Handler is the package handler instance.
var Handler = Service{}

// Init registers the /backups routes.
func Init(app *fiber.App, authz *auth.Service, runner *backup.Runner) {
	Handler = Service{authz: authz, runner: runner}

	g := app.Group("/backups", authz.RequirePermissions(auth.PermRunBackup))
	g.Get("/", Handler.list)
	g.Post("/", Handler.run)
	g.Post("/restore", Handler.restore)
}

func (s Service) list(c *fiber.Ctx) error {
	infos, err := s.runner.List()
	if err != nil {
		return err
	}

	return c.JSON(infos)
}

func (s Service) run(c *fiber.Ctx) error {
	name, err := s.runner.Run(c.Context())
	if errors.Is(err, backup.ErrBackupDisabled) {
		return fiber.NewError(fiber.StatusConflict, "backups are disabled")
	}
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"name": name})
}

type restoreRequest struct {
	Name string `json:"name" validate:"required"`
}

func (s Service) restore(c *fiber.Ctx) error {
	var req restoreRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	err := s.runner.Restore(c.Context(), req.Name)

	switch {
	case errors.Is(err, backup.ErrBackupDisabled):
		return fiber.NewError(fiber.StatusConflict, "backups are disabled")
	case errors.Is(err, backup.ErrBackupNotFound):
		return fiber.NewError(fiber.StatusNotFound, "backup not found")
	case err != nil:
		return err
	}

	return c.JSON(fiber.Map{"message": "restored"})
}
