// Package roles serves the /roles and /permissions management
// endpoints.
package roles

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/emolog/emolog/internal/auth"
	"github.com/emolog/emolog/internal/db/models"
	"github.com/emolog/emolog/internal/web/handler"
)

// Service holds the handler dependencies.
type Service struct {
	db    *gorm.DB
	authz *auth.Service
}

// Handler is the package handler instance.
var Handler = Service{}

// Init registers the /roles and /permissions routes.
func Init(app *fiber.App, db *gorm.DB, authz *auth.Service) {
	Handler = Service{db: db, authz: authz}

	g := app.Group("/roles")
	g.Get("/", authz.RequirePermissions(auth.PermViewRole), Handler.list)
	g.Post("/", authz.RequirePermissions(auth.PermCreateRole), Handler.create)
	g.Get("/:id", authz.RequirePermissions(auth.PermViewRole), Handler.get)
	g.Put("/:id", authz.RequirePermissions(auth.PermUpdateRole), Handler.update)
	g.Delete("/:id", authz.RequirePermissions(auth.PermDeleteRole), Handler.remove)

	p := app.Group("/permissions")
	p.Get("/", authz.RequirePermissions(auth.PermViewPermission), Handler.listPermissions)
	p.Post("/", authz.RequirePermissions(auth.PermCreatePermission), Handler.createPermission)
}

type roleRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	Description   string `json:"description" validate:"max=512"`
	PermissionIDs []uint `json:"permissionIds"`
}

func (s Service) list(c *fiber.Ctx) error {
	var list []models.Role

	if err := s.db.Preload("Permissions").Order("name").Find(&list).Error; err != nil {
		return errors.Wrap(err, "listing roles")
	}

	return c.JSON(list)
}

func (s Service) create(c *fiber.Ctx) error {
	var req roleRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Role{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
		return errors.Wrap(err, "checking role name")
	}
	if count > 0 {
		return fiber.NewError(fiber.StatusConflict, "role name already taken")
	}

	perms, err := s.loadPermissions(req.PermissionIDs)
	if err != nil {
		return err
	}

	role := models.Role{
		Name:        req.Name,
		Description: req.Description,
		Permissions: perms,
	}
	if err := s.db.Create(&role).Error; err != nil {
		return errors.Wrap(err, "creating role")
	}

	return c.Status(fiber.StatusCreated).JSON(role)
}

func (s Service) loadRole(c *fiber.Ctx) (*models.Role, error) {
	id, err := handler.UintParam(c, "id")
	if err != nil {
		return nil, err
	}

	var role models.Role

	err = s.db.Preload("Permissions").First(&role, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "role not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading role")
	}

	return &role, nil
}

func (s Service) get(c *fiber.Ctx) error {
	role, err := s.loadRole(c)
	if err != nil {
		return err
	}

	return c.JSON(role)
}

func (s Service) update(c *fiber.Ctx) error {
	role, err := s.loadRole(c)
	if err != nil {
		return err
	}

	// The seeded roles anchor the guard semantics; renaming ADMIN would
	// silently drop the bypass.
	if role.Name == auth.RoleAdmin || role.Name == auth.RoleUser {
		return fiber.NewError(fiber.StatusBadRequest, "built-in roles cannot be modified")
	}

	var req roleRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	perms, err := s.loadPermissions(req.PermissionIDs)
	if err != nil {
		return err
	}

	role.Name = req.Name
	role.Description = req.Description

	if err := s.db.Save(role).Error; err != nil {
		return errors.Wrap(err, "updating role")
	}

	if err := s.db.Model(role).Association("Permissions").Replace(perms); err != nil {
		return errors.Wrap(err, "updating role permissions")
	}

	role.Permissions = perms

	return c.JSON(role)
}

func (s Service) remove(c *fiber.Ctx) error {
	role, err := s.loadRole(c)
	if err != nil {
		return err
	}

	if role.Name == auth.RoleAdmin || role.Name == auth.RoleUser {
		return fiber.NewError(fiber.StatusBadRequest, "built-in roles cannot be deleted")
	}

	if err := s.db.Select("Permissions").Delete(role).Error; err != nil {
		return errors.Wrap(err, "deleting role")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s Service) loadPermissions(ids []uint) ([]models.Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var perms []models.Permission
	if err := s.db.Find(&perms, ids).Error; err != nil {
		return nil, errors.Wrap(err, "loading permissions")
	}
	if len(perms) != len(ids) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "unknown permission")
	}

	return perms, nil
}

func (s Service) listPermissions(c *fiber.Ctx) error {
	var list []models.Permission

	if err := s.db.Order("name").Find(&list).Error; err != nil {
		return errors.Wrap(err, "listing permissions")
	}

	return c.JSON(list)
}

type permissionRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=512"`
}

func (s Service) createPermission(c *fiber.Ctx) error {
	var req permissionRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Permission{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
		return errors.Wrap(err, "checking permission name")
	}
	if count > 0 {
		return fiber.NewError(fiber.StatusConflict, "permission name already taken")
	}

	perm := models.Permission{Name: req.Name, Description: req.Description}
	if err := s.db.Create(&perm).Error; err != nil {
		return errors.Wrap(err, "creating permission")
	}

	return c.Status(fiber.StatusCreated).JSON(perm)
}
