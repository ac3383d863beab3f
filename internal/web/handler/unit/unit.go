// Package unit serves the /units endpoints: hierarchy management, the
// tree listing and the Excel import.
package unit

import (
	"bytes"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/emolog/emolog/internal/auth"
	"github.com/emolog/emolog/internal/units"
	"github.com/emolog/emolog/internal/web/handler"
)

// Service holds the handler dependencies.
type Service struct {
	authz *auth.Service
	units *units.Service
}

// Handler is the package handler instance.
var Handler = Service{}

// Init registers the /units routes.
func Init(app *fiber.App, authz *auth.Service, unitSvc *units.Service) {
	Handler = Service{authz: authz, units: unitSvc}

	g := app.Group("/units")
	g.Get("/", authz.RequirePermissions(auth.PermViewUnit), Handler.list)
	g.Get("/tree", authz.RequirePermissions(auth.PermViewUnit), Handler.tree)
	g.Post("/", authz.RequirePermissions(auth.PermCreateUnit), Handler.create)
	g.Post("/import", authz.RequirePermissions(auth.PermImportUnit), Handler.importExcel)
	g.Get("/:id", authz.RequirePermissions(auth.PermViewUnit), Handler.get)
	g.Put("/:id", authz.RequirePermissions(auth.PermUpdateUnit), Handler.update)
	g.Delete("/:id", authz.RequirePermissions(auth.PermDeleteUnit), Handler.remove)
}

func (s Service) list(c *fiber.Ctx) error {
	list, err := s.units.List()
	if err != nil {
		return err
	}

	return c.JSON(list)
}

func (s Service) tree(c *fiber.Ctx) error {
	roots, err := s.units.Tree()
	if err != nil {
		return err
	}

	return c.JSON(roots)
}

func (s Service) create(c *fiber.Ctx) error {
	var req units.CreateInput
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	unit, err := s.units.Create(req)
	if err != nil {
		return mapUnitError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(unit)
}

func (s Service) get(c *fiber.Ctx) error {
	id, err := handler.UintParam(c, "id")
	if err != nil {
		return err
	}

	unit, err := s.units.Get(id)
	if err != nil {
		return mapUnitError(err)
	}

	return c.JSON(unit)
}

func (s Service) update(c *fiber.Ctx) error {
	id, err := handler.UintParam(c, "id")
	if err != nil {
		return err
	}

	var req units.CreateInput
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	unit, err := s.units.Update(id, req)
	if err != nil {
		return mapUnitError(err)
	}

	return c.JSON(unit)
}

func (s Service) remove(c *fiber.Ctx) error {
	id, err := handler.UintParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.units.Delete(id); err != nil {
		return mapUnitError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s Service) importExcel(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing file upload")
	}

	f, err := file.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable file upload")
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable file upload")
	}

	result, err := s.units.ImportExcel(&buf)
	if err != nil {
		return mapUnitError(err)
	}

	return c.JSON(result)
}

func mapUnitError(err error) error {
	switch {
	case errors.Is(err, units.ErrUnitNotFound):
		return fiber.NewError(fiber.StatusNotFound, "unit not found")
	case errors.Is(err, units.ErrUnitExists):
		return fiber.NewError(fiber.StatusConflict, "unit code already exists")
	case errors.Is(err, units.ErrUnitHasChildren):
		return fiber.NewError(fiber.StatusBadRequest, "unit has child units")
	case errors.Is(err, units.ErrParentNotFound):
		return fiber.NewError(fiber.StatusBadRequest, "parent unit not found")
	case errors.Is(err, units.ErrImportBadHeader):
		return fiber.NewError(fiber.StatusBadRequest, "import sheet has an unexpected header")
	default:
		return err
	}
}
