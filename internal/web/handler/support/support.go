// Package support serves the /support-contents endpoints. Regular users
// see published content; management requires the content permissions.
package support

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

// Init registers the /support-contents routes.
func Init(app *fiber.App, db *gorm.DB, authz *auth.Service) {
	Handler = Service{db: db, authz: authz}

	g := app.Group("/support-contents")
	g.Get("/", Handler.list)
	g.Get("/stats", authz.RequirePermissions(auth.PermUpdateSupportContent), Handler.stats)
	g.Get("/:id", Handler.get)
	g.Post("/", authz.RequirePermissions(auth.PermCreateSupportContent), Handler.create)
	g.Put("/:id", authz.RequirePermissions(auth.PermUpdateSupportContent), Handler.update)
	g.Delete("/:id", authz.RequirePermissions(auth.PermDeleteSupportContent), Handler.remove)
}

// canManage reports whether the principal may see unpublished content.
func (s Service) canManage(principal *auth.Principal) (bool, error) {
	if principal.IsAdmin() {
		return true, nil
	}

	return s.authz.HasAnyPermission(principal.User.ID,
		auth.PermCreateSupportContent,
		auth.PermUpdateSupportContent,
		auth.PermDeleteSupportContent,
	)
}

func (s Service) list(c *fiber.Ctx) error {
	principal := auth.PrincipalFromCtx(c)
	if principal == nil {
		return fiber.ErrUnauthorized
	}

	page := handler.Paginate(c)

	q := s.db.Model(&models.SupportContent{})

	manage, err := s.canManage(principal)
	if err != nil {
		return err
	}
	if !manage {
		q = q.Where("published = ?", true)
	}

	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if contentType := c.Query("type"); contentType != "" {
		q = q.Where("type = ?", contentType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return errors.Wrap(err, "counting support contents")
	}

	var list []models.SupportContent
	if err := q.Order("created_at DESC").Offset(page.Offset).Limit(page.Limit).Find(&list).Error; err != nil {
		return errors.Wrap(err, "listing support contents")
	}

	return c.JSON(fiber.Map{"items": list, "total": total})
}

// stats reports content counts by type and publication state for the
// management view.
func (s Service) stats(c *fiber.Ctx) error {
	var rows []struct {
		Type      string
		Published bool
		Count     int64
	}

	err := s.db.Model(&models.SupportContent{}).
		Select("type, published, COUNT(*) AS count").
		Group("type, published").
		Scan(&rows).Error
	if err != nil {
		return errors.Wrap(err, "counting support contents")
	}

	byType := map[string]int64{}
	var total, published int64

	for _, row := range rows {
		byType[row.Type] += row.Count
		total += row.Count
		if row.Published {
			published += row.Count
		}
	}

	return c.JSON(fiber.Map{
		"total":       total,
		"published":   published,
		"unpublished": total - published,
		"byType":      byType,
	})
}

func (s Service) get(c *fiber.Ctx) error {
	principal := auth.PrincipalFromCtx(c)
	if principal == nil {
		return fiber.ErrUnauthorized
	}

	var content models.SupportContent

	err := s.db.First(&content, "id = ?", c.Params("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "support content not found")
	}
	if err != nil {
		return errors.Wrap(err, "loading support content")
	}

	if !content.Published {
		manage, err := s.canManage(principal)
		if err != nil {
			return err
		}
		if !manage {
			return fiber.NewError(fiber.StatusNotFound, "support content not found")
		}
	}

	return c.JSON(content)
}

type contentRequest struct {
	Type      string `json:"type" validate:"required,oneof=ARTICLE EXERCISE VIDEO CONTACT"`
	Title     string `json:"title" validate:"required,max=255"`
	Content   string `json:"content" validate:"max=50000"`
	Category  string `json:"category" validate:"max=50"`
	Published bool   `json:"published"`
}

func (s Service) create(c *fiber.Ctx) error {
	principal := auth.PrincipalFromCtx(c)
	if principal == nil {
		return fiber.ErrUnauthorized
	}

	var req contentRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	content := models.SupportContent{
		Type:      req.Type,
		Title:     req.Title,
		Content:   req.Content,
		Category:  req.Category,
		Published: req.Published,
		AuthorID:  principal.User.ID,
	}
	if err := s.db.Create(&content).Error; err != nil {
		return errors.Wrap(err, "creating support content")
	}

	return c.Status(fiber.StatusCreated).JSON(content)
}

func (s Service) update(c *fiber.Ctx) error {
	var content models.SupportContent

	err := s.db.First(&content, "id = ?", c.Params("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "support content not found")
	}
	if err != nil {
		return errors.Wrap(err, "loading support content")
	}

	var req contentRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	content.Type = req.Type
	content.Title = req.Title
	content.Content = req.Content
	content.Category = req.Category
	content.Published = req.Published

	if err := s.db.Save(&content).Error; err != nil {
		return errors.Wrap(err, "updating support content")
	}

	return c.JSON(content)
}

func (s Service) remove(c *fiber.Ctx) error {
	res := s.db.Where("id = ?", c.Params("id")).Delete(&models.SupportContent{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "deleting support content")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "support content not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
