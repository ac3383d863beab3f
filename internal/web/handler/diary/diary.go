// Package diary serves the /diaries endpoints: the personal diary, the
// anonymous shared feed, reactions, comments and personal statistics.
//
// Diary endpoints carry no permission requirements; any authenticated
// user manages their own entries, and ownership is enforced here.
package diary

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

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

// Init registers the /diaries routes.
func Init(app *fiber.App, db *gorm.DB, authz *auth.Service) {
	Handler = Service{db: db, authz: authz}

	g := app.Group("/diaries")
	g.Get("/", Handler.list)
	g.Post("/", Handler.create)
	g.Get("/feed", Handler.feed)
	g.Get("/stats", Handler.stats)
	g.Get("/timeline", Handler.timeline)
	g.Get("/prompts", Handler.prompts)
	g.Get("/:id", Handler.get)
	g.Put("/:id", Handler.update)
	g.Delete("/:id", Handler.remove)
	g.Put("/:id/reaction", Handler.react)
	g.Delete("/:id/reaction", Handler.unreact)
	g.Get("/:id/comments", Handler.listComments)
	g.Post("/:id/comments", Handler.addComment)
}

type diaryRequest struct {
	Date          string   `json:"date" validate:"required,datetime=2006-01-02"`
	Content       string   `json:"content" validate:"max=10000"`
	EmotionStatus string   `json:"emotionStatus" validate:"required,oneof=VERY_HAPPY HAPPY EXCITED NORMAL TIRED WORRIED STRESSED ANXIOUS SAD ANGRY"`
	PrivacyLevel  string   `json:"privacyLevel" validate:"omitempty,oneof=PRIVATE ANONYMOUS_SHARE STATISTICS_ONLY"`
	Hashtags      []string `json:"hashtags" validate:"max=10,dive,max=50"`
}

type diaryResponse struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"`
	Content       string          `json:"content"`
	EmotionStatus string          `json:"emotionStatus"`
	PrivacyLevel  string          `json:"privacyLevel"`
	Hashtags      models.Hashtags `json:"hashtags"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func toResponse(d *models.Diary) diaryResponse {
	hashtags := d.Hashtags
	if hashtags == nil {
		hashtags = models.Hashtags{}
	}

	return diaryResponse{
		ID:            d.ID,
		Date:          d.Date.Format("2006-01-02"),
		Content:       d.Content,
		EmotionStatus: string(d.EmotionStatus),
		PrivacyLevel:  string(d.PrivacyLevel),
		Hashtags:      hashtags,
		CreatedAt:     d.CreatedAt,
	}
}

func principalOr401(c *fiber.Ctx) (*auth.Principal, error) {
	principal := auth.PrincipalFromCtx(c)
	if principal == nil {
		return nil, fiber.ErrUnauthorized
	}

	return principal, nil
}

func (s Service) create(c *fiber.Ctx) error {
	principal, err := principalOr401(c)
	if err != nil {
		return err
	}

	var req diaryRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	date, _ := time.Parse("2006-01-02", req.Date)

	var count int64
	err = s.db.Model(&models.Diary{}).
		Where("user_id = ? AND date = ?", principal.User.ID, date).
		Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "checking existing entry")
	}
	if count > 0 {
		return fiber.NewError(fiber.StatusConflict, "an entry for this day already exists")
	}

	diary := models.Diary{
		UserID:        principal.User.ID,
		Date:          date,
		Content:       req.Content,
		EmotionStatus: models.EmotionStatus(req.EmotionStatus),
		PrivacyLevel:  models.PrivacyPrivate,
		Hashtags:      req.Hashtags,
	}
	if req.PrivacyLevel != "" {
		diary.PrivacyLevel = models.PrivacyLevel(req.PrivacyLevel)
	}

	if err := s.db.Create(&diary).Error; err != nil {
		return errors.Wrap(err, "creating diary entry")
	}

	return c.Status(fiber.StatusCreated).JSON(toResponse(&diary))
}

func (s Service) list(c *fiber.Ctx) error {
	principal, err := principalOr401(c)
	if err != nil {
		return err
	}

	page := handler.Paginate(c)

	q := s.db.Model(&models.Diary{}).Where("user_id = ?", principal.User.ID)

	if from := c.Query("from"); from != "" {
		d, err := time.Parse("2006-01-02", from)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid from date")
		}
		q = q.Where("date >= ?", d)
	}
	if to := c.Query("to"); to != "" {
		d, err := time.Parse("2006-01-02", to)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid to date")
		}
		q = q.Where("date <= ?", d)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return errors.Wrap(err, "counting entries")
	}

	var list []models.Diary
	if err := q.Order("date DESC").Offset(page.Offset).Limit(page.Limit).Find(&list).Error; err != nil {
		return errors.Wrap(err, "listing entries")
	}

	items := make([]diaryResponse, 0, len(list))
	for i := range list {
		items = append(items, toResponse(&list[i]))
	}

	return c.JSON(fiber.Map{"items": items, "total": total})
}

// loadOwn loads an entry and enforces that the principal wrote it.
func (s Service) loadOwn(c *fiber.Ctx, principal *auth.Principal) (*models.Diary, error) {
	var diary models.Diary

	err := s.db.First(&diary, "id = ?", c.Params("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "diary entry not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading diary entry")
	}

	if diary.UserID != principal.User.ID {
		// Hide the entry's existence from non-owners.
		return nil, fiber.NewError(fiber.StatusNotFound, "diary entry not found")
	}

	return &diary, nil
}

// loadShared loads an entry that is either the principal's own or
// anonymously shared.
func (s Service) loadShared(c *fiber.Ctx, principal *auth.Principal) (*models.Diary, error) {
	var diary models.Diary

	err := s.db.First(&diary, "id = ?", c.Params("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "diary entry not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading diary entry")
	}

	if diary.UserID != principal.User.ID && diary.PrivacyLevel != models.PrivacyAnonymousShare {
		return nil, fiber.NewError(fiber.StatusNotFound, "diary entry not found")
	}

	return &diary, nil
}

func (s Service) get(c *fiber.Ctx) error {
	principal, err := principalOr401(c)
	if err != nil {
		return err
	}

	diary, err := s.loadShared(c, principal)
	if err != nil {
		return err
	}

	return c.JSON(toResponse(diary))
}

func (s Service) update(c *fiber.Ctx) error {
	principal, err := principalOr401(c)
	if err != nil {
		return err
	}

	diary, err := s.loadOwn(c, principal)
	if err != nil {
		return err
	}

	var req diaryRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	date, _ := time.Parse("2006-01-02", req.Date)
	if !date.Equal(diary.Date) {
		return fiber.NewError(fiber.StatusBadRequest, "the entry date cannot be changed")
	}

	diary.Content = req.Content
	diary.EmotionStatus = models.EmotionStatus(req.EmotionStatus)
	diary.Hashtags = req.Hashtags
	if req.PrivacyLevel != "" {
		diary.PrivacyLevel = models.PrivacyLevel(req.PrivacyLevel)
	}

	if err := s.db.Save(diary).Error; err != nil {
		return errors.Wrap(err, "updating diary entry")
	}

	return c.JSON(toResponse(diary))
}

func (s Service) remove(c *fiber.Ctx) error {
	principal, err := principalOr401(c)
	if err != nil {
		return err
	}

	diary, err := s.loadOwn(c, principal)
	if err != nil {
		return err
	}

	if err := s.db.Delete(diary).Error; err != nil {
		return errors.Wrap(err, "deleting diary entry")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type reactionRequest struct {
	ReactionType string `json:"reactionType" validate:"required,oneof=LIKE HEART HUG CHEER"`
}

func (s Service) react(c *fiber.Ctx) error {
	principal, err := principalOr401(c)
	if err != nil {
		return err
	}

	diary, err := s.loadShared(c, principal)
	if err != nil {
		return err
	}

	if diary.PrivacyLevel != models.PrivacyAnonymousShare {
		return fiber.NewError(fiber.StatusBadRequest, "only shared entries accept reactions")
	}

	var req reactionRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	reaction := models.DiaryReaction{
		DiaryID:      diary.ID,
		UserID:       principal.User.ID,
		ReactionType: req.ReactionType,
	}

	// One reaction per user and entry; re-reacting replaces the type.
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "diary_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"reaction_type"}),
	}).Create(&reaction).Error
	if err != nil {
		return errors.Wrap(err, "saving reaction")
	}

	return c.JSON(fiber.Map{"reactionType": req.ReactionType})
}

func (s Service) unreact(c *fiber.Ctx) error {
	principal, err := principalOr401(c)
	if err != nil {
		return err
	}

	diary, err := s.loadShared(c, principal)
	if err != nil {
		return err
	}

	err = s.db.Where("diary_id = ? AND user_id = ?", diary.ID, principal.User.ID).
		Delete(&models.DiaryReaction{}).Error
	if err != nil {
		return errors.Wrap(err, "removing reaction")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
