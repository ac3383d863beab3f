package diary

import (
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/emolog/emolog/internal/db/models"
)

// personalStats is the caller's own diary statistics.
type personalStats struct {
	TotalEntries  int            `json:"totalEntries"`
	CurrentStreak int            `json:"currentStreak"`
	LongestStreak int            `json:"longestStreak"`
	AvgScore      float64        `json:"avgScore"`
	Distribution  map[string]int `json:"distribution"`
	TopHashtags   []string       `json:"topHashtags"`
}

func (s Service) stats(c *fiber.Ctx) error {
	principal, err := principalOr401(c)
	if err != nil {
		return err
	}

	var list []models.Diary
	err = s.db.Where("user_id = ?", principal.User.ID).Order("date").Find(&list).Error
	if err != nil {
		return errors.Wrap(err, "loading entries")
	}

	result := personalStats{
		TotalEntries: len(list),
		Distribution: map[string]int{},
		TopHashtags:  []string{},
	}

	score := 0
	tags := map[string]int{}

	for i := range list {
		d := &list[i]

		score += models.EmotionScore(d.EmotionStatus)
		result.Distribution[string(d.EmotionStatus)]++

		for _, tag := range d.Hashtags {
			tags[tag]++
		}
	}

	if len(list) > 0 {
		result.AvgScore = float64(score) / float64(len(list))
	}

	result.CurrentStreak, result.LongestStreak = streaks(list, time.Now())

	type tagCount struct {
		tag   string
		count int
	}

	counts := make([]tagCount, 0, len(tags))
	for tag, count := range tags {
		counts = append(counts, tagCount{tag, count})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}

		return counts[i].tag < counts[j].tag
	})

	for i := 0; i < len(counts) && i < 5; i++ {
		result.TopHashtags = append(result.TopHashtags, counts[i].tag)
	}

	return c.JSON(result)
}

// streaks computes the current and longest run of consecutive days with
// entries. The current streak counts back from today or yesterday, so a
// not-yet-written today does not break it. Entries must be sorted by
// date ascending.
func streaks(list []models.Diary, now time.Time) (current, longest int) {
	if len(list) == 0 {
		return 0, 0
	}

	run := 1
	longest = 1

	for i := 1; i < len(list); i++ {
		gap := dayDiff(list[i-1].Date, list[i].Date)

		if gap == 1 {
			run++
		} else {
			run = 1
		}

		if run > longest {
			longest = run
		}
	}

	last := list[len(list)-1].Date
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch dayDiff(last, today) {
	case 0, 1:
		current = run
	default:
		current = 0
	}

	return current, longest
}

func dayDiff(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)

	return int(bd.Sub(ad).Hours() / 24)
}

type timelinePoint struct {
	Date          string               `json:"date"`
	EmotionStatus models.EmotionStatus `json:"emotionStatus"`
	Score         int                  `json:"score"`
}

// timeline returns the caller's own per-day emotion series, oldest
// first. Defaults to the last 30 days.
func (s Service) timeline(c *fiber.Ctx) error {
	principal, err := principalOr401(c)
	if err != nil {
		return err
	}

	now := time.Now()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -30)

	if raw := c.Query("from"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid from date")
		}
		from = d
	}
	if raw := c.Query("to"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid to date")
		}
		to = d.AddDate(0, 0, 1)
	}

	var list []models.Diary
	err = s.db.Where("user_id = ? AND date >= ? AND date < ?", principal.User.ID, from, to).
		Order("date").Find(&list).Error
	if err != nil {
		return errors.Wrap(err, "loading entries")
	}

	points := make([]timelinePoint, 0, len(list))
	for i := range list {
		d := &list[i]
		points = append(points, timelinePoint{
			Date:          d.Date.Format("2006-01-02"),
			EmotionStatus: d.EmotionStatus,
			Score:         models.EmotionScore(d.EmotionStatus),
		})
	}

	return c.JSON(points)
}

// writingPrompts rotate by day of year so everyone sees the same prompt
// on the same day.
var writingPrompts = []string{
	"What gave you energy today?",
	"Describe one moment you want to remember from today.",
	"What was the hardest part of your day, and how did you handle it?",
	"Who made a difference for you today?",
	"What would you do differently if today started over?",
	"Name three small things you are grateful for.",
	"What are you looking forward to tomorrow?",
}

func (s Service) prompts(c *fiber.Ctx) error {
	day := time.Now().YearDay()

	return c.JSON(fiber.Map{
		"prompt": writingPrompts[day%len(writingPrompts)],
	})
}
