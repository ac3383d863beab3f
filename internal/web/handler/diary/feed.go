package diary

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/emolog/emolog/internal/db/models"
	"github.com/emolog/emolog/internal/web/handler"
)

// feedEntry is a shared diary entry with the author hidden.
type feedEntry struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"`
	Content       string          `json:"content"`
	EmotionStatus string          `json:"emotionStatus"`
	Hashtags      models.Hashtags `json:"hashtags"`
	Reactions     map[string]int  `json:"reactions"`
	CommentCount  int             `json:"commentCount"`
	MyReaction    string          `json:"myReaction,omitempty"`
	Mine          bool            `json:"mine"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// feed lists anonymously shared entries, newest first. Author identity
// never leaves this handler; only "mine" marks the caller's own posts.
func (s Service) feed(c *fiber.Ctx) error {
	principal, err := principalOr401(c)
	if err != nil {
		return err
	}

	page := handler.Paginate(c)

	q := s.db.Model(&models.Diary{}).
		Where("privacy_level = ?", models.PrivacyAnonymousShare)

	if tag := c.Query("hashtag"); tag != "" {
		q = q.Where("hashtags LIKE ?", "%\""+tag+"\"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return errors.Wrap(err, "counting feed entries")
	}

	var list []models.Diary
	if err := q.Order("created_at DESC").Offset(page.Offset).Limit(page.Limit).Find(&list).Error; err != nil {
		return errors.Wrap(err, "listing feed entries")
	}

	items := make([]feedEntry, 0, len(list))

	for i := range list {
		d := &list[i]

		entry := feedEntry{
			ID:            d.ID,
			Date:          d.Date.Format("2006-01-02"),
			Content:       d.Content,
			EmotionStatus: string(d.EmotionStatus),
			Hashtags:      d.Hashtags,
			Reactions:     map[string]int{},
			Mine:          d.UserID == principal.User.ID,
			CreatedAt:     d.CreatedAt,
		}
		if entry.Hashtags == nil {
			entry.Hashtags = models.Hashtags{}
		}

		var reactions []models.DiaryReaction
		if err := s.db.Where("diary_id = ?", d.ID).Find(&reactions).Error; err != nil {
			return errors.Wrap(err, "loading reactions")
		}

		for _, r := range reactions {
			entry.Reactions[r.ReactionType]++
			if r.UserID == principal.User.ID {
				entry.MyReaction = r.ReactionType
			}
		}

		var comments int64
		if err := s.db.Model(&models.DiaryComment{}).Where("diary_id = ?", d.ID).Count(&comments).Error; err != nil {
			return errors.Wrap(err, "counting comments")
		}
		entry.CommentCount = int(comments)

		items = append(items, entry)
	}

	return c.JSON(fiber.Map{"items": items, "total": total})
}

type commentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// commentResponse hides the author identity; commenters stay anonymous
// like the feed itself.
type commentResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Mine      bool      `json:"mine"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s Service) listComments(c *fiber.Ctx) error {
	principal, err := principalOr401(c)
	if err != nil {
		return err
	}

	diary, err := s.loadShared(c, principal)
	if err != nil {
		return err
	}

	var comments []models.DiaryComment
	if err := s.db.Where("diary_id = ?", diary.ID).Order("created_at").Find(&comments).Error; err != nil {
		return errors.Wrap(err, "listing comments")
	}

	items := make([]commentResponse, 0, len(comments))
	for _, comment := range comments {
		items = append(items, commentResponse{
			ID:        comment.ID,
			Content:   comment.Content,
			Mine:      comment.UserID == principal.User.ID,
			CreatedAt: comment.CreatedAt,
		})
	}

	return c.JSON(items)
}

func (s Service) addComment(c *fiber.Ctx) error {
	principal, err := principalOr401(c)
	if err != nil {
		return err
	}

	diary, err := s.loadShared(c, principal)
	if err != nil {
		return err
	}

	if diary.PrivacyLevel != models.PrivacyAnonymousShare {
		return fiber.NewError(fiber.StatusBadRequest, "only shared entries accept comments")
	}

	var req commentRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	comment := models.DiaryComment{
		DiaryID: diary.ID,
		UserID:  principal.User.ID,
		Content: req.Content,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return errors.Wrap(err, "creating comment")
	}

	return c.Status(fiber.StatusCreated).JSON(commentResponse{
		ID:        comment.ID,
		Content:   comment.Content,
		Mine:      true,
		CreatedAt: comment.CreatedAt,
	})
}
