// Package users serves the /users management endpoints.
package users

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

// Init registers the /users routes.
func Init(app *fiber.App, db *gorm.DB, authz *auth.Service) {
	Handler = Service{db: db, authz: authz}

	g := app.Group("/users")
	g.Get("/", authz.RequirePermissions(auth.PermViewUser), Handler.list)
	g.Post("/", authz.RequirePermissions(auth.PermCreateUser), Handler.create)
	g.Get("/:id", authz.RequirePermissions(auth.PermViewUser), Handler.get)
	g.Put("/:id", authz.RequirePermissions(auth.PermUpdateUser), Handler.update)
	g.Delete("/:id", authz.RequirePermissions(auth.PermDeleteUser), Handler.remove)
	g.Post("/:id/block", authz.RequirePermissions(auth.PermBlockUser), Handler.setBlocked(true))
	g.Post("/:id/unblock", authz.RequirePermissions(auth.PermBlockUser), Handler.setBlocked(false))
	g.Put("/:id/roles", authz.RequirePermissions(auth.PermAssignRole), Handler.assignRoles)
	g.Put("/:id/password", authz.RequirePermissions(auth.PermUpdateUser), Handler.setPassword)
}

type userResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	PhoneNumber string   `json:"phoneNumber"`
	Blocked     bool     `json:"blocked"`
	UnitID      *uint    `json:"unitId"`
	Roles       []string `json:"roles"`
}

func toResponse(u *models.User) userResponse {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, r.Name)
	}

	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		Blocked:     u.Blocked,
		UnitID:      u.UnitID,
		Roles:       roles,
	}
}

func (s Service) list(c *fiber.Ctx) error {
	page := handler.Paginate(c)

	q := s.db.Model(&models.User{}).Preload("Roles")

	if unitID, err := handler.UintQuery(c, "unitId"); err != nil {
		return err
	} else if unitID != nil {
		q = q.Where("unit_id = ?", *unitID)
	}

	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		q = q.Where("email LIKE ? OR first_name LIKE ? OR last_name LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return errors.Wrap(err, "counting users")
	}

	var list []models.User
	if err := q.Order("email").Offset(page.Offset).Limit(page.Limit).Find(&list).Error; err != nil {
		return errors.Wrap(err, "listing users")
	}

	items := make([]userResponse, 0, len(list))
	for i := range list {
		items = append(items, toResponse(&list[i]))
	}

	return c.JSON(fiber.Map{"items": items, "total": total})
}

type createRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	PhoneNumber string `json:"phoneNumber"`
	UnitID      *uint  `json:"unitId"`
	RoleIDs     []uint `json:"roleIds"`
}

func (s Service) create(c *fiber.Ctx) error {
	var req createRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return errors.Wrap(err, "checking email")
	}
	if count > 0 {
		return fiber.NewError(fiber.StatusConflict, "email already taken")
	}

	user := models.User{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		UnitID:      req.UnitID,
	}
	if err := user.HashPassword(req.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}

	if len(req.RoleIDs) > 0 {
		var roles []models.Role
		if err := s.db.Find(&roles, req.RoleIDs).Error; err != nil {
			return errors.Wrap(err, "loading roles")
		}
		if len(roles) != len(req.RoleIDs) {
			return fiber.NewError(fiber.StatusBadRequest, "unknown role")
		}

		user.Roles = roles
	}

	if err := s.db.Create(&user).Error; err != nil {
		return errors.Wrap(err, "creating user")
	}

	resp := toResponse(&user)

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (s Service) loadUser(c *fiber.Ctx) (*models.User, error) {
	var user models.User

	err := s.db.Preload("Roles").First(&user, "id = ?", c.Params("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "user not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading user")
	}

	return &user, nil
}

func (s Service) get(c *fiber.Ctx) error {
	user, err := s.loadUser(c)
	if err != nil {
		return err
	}

	return c.JSON(toResponse(user))
}

type updateRequest struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	PhoneNumber string `json:"phoneNumber"`
	UnitID      *uint  `json:"unitId"`
}

func (s Service) update(c *fiber.Ctx) error {
	user, err := s.loadUser(c)
	if err != nil {
		return err
	}

	var req updateRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.PhoneNumber = req.PhoneNumber
	user.UnitID = req.UnitID

	if err := s.db.Save(user).Error; err != nil {
		return errors.Wrap(err, "updating user")
	}

	return c.JSON(toResponse(user))
}

func (s Service) remove(c *fiber.Ctx) error {
	user, err := s.loadUser(c)
	if err != nil {
		return err
	}

	principal := auth.PrincipalFromCtx(c)
	if principal != nil && principal.User.ID == user.ID {
		return fiber.NewError(fiber.StatusBadRequest, "cannot delete yourself")
	}

	if err := s.db.Delete(user).Error; err != nil {
		return errors.Wrap(err, "deleting user")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s Service) setBlocked(blocked bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.loadUser(c)
		if err != nil {
			return err
		}

		principal := auth.PrincipalFromCtx(c)
		if blocked && principal != nil && principal.User.ID == user.ID {
			return fiber.NewError(fiber.StatusBadRequest, "cannot block yourself")
		}

		updates := map[string]interface{}{"blocked": blocked}
		if blocked {
			// A blocked user must not keep a usable session.
			updates["refresh_token"] = nil
		}

		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return errors.Wrap(err, "updating user")
		}

		user.Blocked = blocked

		return c.JSON(toResponse(user))
	}
}

type setPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// setPassword resets a user's password administratively. The stored
// refresh token is cleared so existing sessions cannot refresh.
func (s Service) setPassword(c *fiber.Ctx) error {
	user, err := s.loadUser(c)
	if err != nil {
		return err
	}

	var req setPasswordRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	if err := user.HashPassword(req.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}

	err = s.db.Model(user).Updates(map[string]interface{}{
		"password":      user.Password,
		"refresh_token": nil,
	}).Error
	if err != nil {
		return errors.Wrap(err, "storing password")
	}

	return c.JSON(fiber.Map{"message": "password updated"})
}

type assignRolesRequest struct {
	RoleIDs []uint `json:"roleIds" validate:"required"`
}

func (s Service) assignRoles(c *fiber.Ctx) error {
	user, err := s.loadUser(c)
	if err != nil {
		return err
	}

	var req assignRolesRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	var roles []models.Role
	if len(req.RoleIDs) > 0 {
		if err := s.db.Find(&roles, req.RoleIDs).Error; err != nil {
			return errors.Wrap(err, "loading roles")
		}
		if len(roles) != len(req.RoleIDs) {
			return fiber.NewError(fiber.StatusBadRequest, "unknown role")
		}
	}

	if err := s.db.Model(user).Association("Roles").Replace(roles); err != nil {
		return errors.Wrap(err, "assigning roles")
	}

	user.Roles = roles

	return c.JSON(toResponse(user))
}
