// Package loginhistory serves the /login-histories endpoints. Users see
// their own history; VIEW_LOGIN_HISTORY unlocks everyone's.
package loginhistory

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

// Init registers the /login-histories routes.
func Init(app *fiber.App, db *gorm.DB, authz *auth.Service) {
	Handler = Service{db: db, authz: authz}

	g := app.Group("/login-histories")
	g.Get("/me", Handler.mine)
	g.Get("/", authz.RequirePermissions(auth.PermViewLoginHistory), Handler.list)
}

type historyResponse struct {
	ID        uint   `json:"id"`
	UserID    string `json:"userId"`
	Email     string `json:"email,omitempty"`
	IPAddress string `json:"ipAddress"`
	UserAgent string `json:"userAgent"`
	Device    string `json:"device"`
	CreatedAt string `json:"createdAt"`
}

func toResponse(h *models.LoginHistory, email string) historyResponse {
	return historyResponse{
		ID:        h.ID,
		UserID:    h.UserID,
		Email:     email,
		IPAddress: h.IPAddress,
		UserAgent: h.UserAgent,
		Device:    h.Device,
		CreatedAt: h.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s Service) mine(c *fiber.Ctx) error {
	principal := auth.PrincipalFromCtx(c)
	if principal == nil {
		return fiber.ErrUnauthorized
	}

	page := handler.Paginate(c)

	var list []models.LoginHistory
	err := s.db.Where("user_id = ?", principal.User.ID).
		Order("created_at DESC").
		Offset(page.Offset).Limit(page.Limit).
		Find(&list).Error
	if err != nil {
		return errors.Wrap(err, "listing login history")
	}

	items := make([]historyResponse, 0, len(list))
	for i := range list {
		items = append(items, toResponse(&list[i], ""))
	}

	return c.JSON(items)
}

func (s Service) list(c *fiber.Ctx) error {
	page := handler.Paginate(c)

	q := s.db.Model(&models.LoginHistory{}).Preload("User")

	if userID := c.Query("userId"); userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return errors.Wrap(err, "counting login history")
	}

	var list []models.LoginHistory
	if err := q.Order("created_at DESC").Offset(page.Offset).Limit(page.Limit).Find(&list).Error; err != nil {
		return errors.Wrap(err, "listing login history")
	}

	items := make([]historyResponse, 0, len(list))
	for i := range list {
		items = append(items, toResponse(&list[i], list[i].User.Email))
	}

	return c.JSON(fiber.Map{"items": items, "total": total})
}
