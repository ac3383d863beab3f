// Package worknote serves the /work-notes endpoints. Notes are scoped
// to units; a manager only ever sees notes of units within their
// analytics scope.
package worknote

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/emolog/emolog/internal/auth"
	"github.com/emolog/emolog/internal/db/models"
	"github.com/emolog/emolog/internal/units"
	"github.com/emolog/emolog/internal/web/handler"
)

// Service holds the handler dependencies.
type Service struct {
	db    *gorm.DB
	authz *auth.Service
	units *units.Service
}

// Handler is the package handler instance.
var Handler = Service{}

// Init registers the /work-notes routes.
func Init(app *fiber.App, db *gorm.DB, authz *auth.Service, unitSvc *units.Service) {
	Handler = Service{db: db, authz: authz, units: unitSvc}

	g := app.Group("/work-notes")
	g.Get("/", authz.RequirePermissions(auth.PermViewWorkNote), Handler.list)
	g.Post("/", authz.RequirePermissions(auth.PermCreateWorkNote), Handler.create)
	g.Get("/stats", authz.RequirePermissions(auth.PermViewWorkNote), Handler.stats)
	g.Get("/:id", authz.RequirePermissions(auth.PermViewWorkNote), Handler.get)
	g.Put("/:id", authz.RequirePermissions(auth.PermUpdateWorkNote), Handler.update)
	g.Delete("/:id", authz.RequirePermissions(auth.PermDeleteWorkNote), Handler.remove)
}

// allowedUnits resolves the unit scope; an empty slice means
// unrestricted.
func (s Service) allowedUnits(c *fiber.Ctx) (*auth.Principal, []uint, error) {
	principal := auth.PrincipalFromCtx(c)
	if principal == nil {
		return nil, nil, fiber.ErrUnauthorized
	}

	allowed, err := s.units.ResolveAllowedUnits(s.authz, principal, nil)
	if errors.Is(err, auth.ErrUnitAccessDenied) {
		return nil, nil, fiber.NewError(fiber.StatusForbidden, "unit access denied")
	}
	if err != nil {
		return nil, nil, err
	}

	return principal, allowed, nil
}

func unitInScope(allowed []uint, unitID uint) bool {
	if len(allowed) == 0 {
		return true
	}

	for _, id := range allowed {
		if id == unitID {
			return true
		}
	}

	return false
}

func (s Service) list(c *fiber.Ctx) error {
	_, allowed, err := s.allowedUnits(c)
	if err != nil {
		return err
	}

	page := handler.Paginate(c)

	q := s.db.Model(&models.WorkNote{}).Preload("Unit")
	if len(allowed) > 0 {
		q = q.Where("unit_id IN ?", allowed)
	}

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if unitID, err := handler.UintQuery(c, "unitId"); err != nil {
		return err
	} else if unitID != nil {
		if !unitInScope(allowed, *unitID) {
			return fiber.NewError(fiber.StatusForbidden, "unit access denied")
		}
		q = q.Where("unit_id = ?", *unitID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return errors.Wrap(err, "counting work notes")
	}

	var list []models.WorkNote
	if err := q.Order("created_at DESC").Offset(page.Offset).Limit(page.Limit).Find(&list).Error; err != nil {
		return errors.Wrap(err, "listing work notes")
	}

	return c.JSON(fiber.Map{"items": list, "total": total})
}

// stats reports note counts by status and type within the caller's unit
// scope.
func (s Service) stats(c *fiber.Ctx) error {
	_, allowed, err := s.allowedUnits(c)
	if err != nil {
		return err
	}

	q := s.db.Model(&models.WorkNote{})
	if len(allowed) > 0 {
		q = q.Where("unit_id IN ?", allowed)
	}

	var rows []struct {
		Status   string
		NoteType string
		Count    int64
	}
	if err := q.Select("status, note_type, COUNT(*) AS count").
		Group("status, note_type").
		Scan(&rows).Error; err != nil {
		return errors.Wrap(err, "counting work notes")
	}

	byStatus := map[string]int64{}
	byType := map[string]int64{}
	var total int64

	for _, row := range rows {
		byStatus[row.Status] += row.Count
		byType[row.NoteType] += row.Count
		total += row.Count
	}

	return c.JSON(fiber.Map{
		"total":    total,
		"byStatus": byStatus,
		"byType":   byType,
	})
}

type noteRequest struct {
	SubjectUserID *string `json:"subjectUserId"`
	UnitID        uint    `json:"unitId" validate:"required"`
	Title         string  `json:"title" validate:"required,max=255"`
	Content       string  `json:"content" validate:"max=20000"`
	NoteType      string  `json:"noteType" validate:"omitempty,oneof=OBSERVATION CONVERSATION FOLLOW_UP"`
	Status        string  `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS CLOSED"`
}

func (s Service) create(c *fiber.Ctx) error {
	principal, allowed, err := s.allowedUnits(c)
	if err != nil {
		return err
	}

	var req noteRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	if !unitInScope(allowed, req.UnitID) {
		return fiber.NewError(fiber.StatusForbidden, "unit access denied")
	}
	if _, err := s.units.Get(req.UnitID); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unit not found")
	}

	note := models.WorkNote{
		ManagerID:     principal.User.ID,
		SubjectUserID: req.SubjectUserID,
		UnitID:        req.UnitID,
		Title:         req.Title,
		Content:       req.Content,
		NoteType:      req.NoteType,
		Status:        "OPEN",
	}
	if req.Status != "" {
		note.Status = req.Status
	}

	if err := s.db.Create(&note).Error; err != nil {
		return errors.Wrap(err, "creating work note")
	}

	return c.Status(fiber.StatusCreated).JSON(note)
}

func (s Service) load(c *fiber.Ctx, allowed []uint) (*models.WorkNote, error) {
	var note models.WorkNote

	err := s.db.Preload("Unit").First(&note, "id = ?", c.Params("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "work note not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading work note")
	}

	if !unitInScope(allowed, note.UnitID) {
		// Hide out-of-scope notes entirely.
		return nil, fiber.NewError(fiber.StatusNotFound, "work note not found")
	}

	return &note, nil
}

func (s Service) get(c *fiber.Ctx) error {
	_, allowed, err := s.allowedUnits(c)
	if err != nil {
		return err
	}

	note, err := s.load(c, allowed)
	if err != nil {
		return err
	}

	return c.JSON(note)
}

func (s Service) update(c *fiber.Ctx) error {
	_, allowed, err := s.allowedUnits(c)
	if err != nil {
		return err
	}

	note, err := s.load(c, allowed)
	if err != nil {
		return err
	}

	var req noteRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	if !unitInScope(allowed, req.UnitID) {
		return fiber.NewError(fiber.StatusForbidden, "unit access denied")
	}

	note.SubjectUserID = req.SubjectUserID
	note.UnitID = req.UnitID
	note.Title = req.Title
	note.Content = req.Content
	note.NoteType = req.NoteType
	if req.Status != "" {
		note.Status = req.Status
	}

	if err := s.db.Save(note).Error; err != nil {
		return errors.Wrap(err, "updating work note")
	}

	return c.JSON(note)
}

func (s Service) remove(c *fiber.Ctx) error {
	_, allowed, err := s.allowedUnits(c)
	if err != nil {
		return err
	}

	note, err := s.load(c, allowed)
	if err != nil {
		return err
	}

	if err := s.db.Delete(note).Error; err != nil {
		return errors.Wrap(err, "deleting work note")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
