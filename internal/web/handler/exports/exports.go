// Package exports serves the /exports endpoints: Excel downloads of
// users, login history, emotion statistics and alerts.
package exports

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/emolog/emolog/internal/analytics"
	"github.com/emolog/emolog/internal/auth"
	"github.com/emolog/emolog/internal/db/models"
	"github.com/emolog/emolog/internal/exporter"
	"github.com/emolog/emolog/internal/units"
	"github.com/emolog/emolog/internal/web/handler"
)

const contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Service holds the handler dependencies.
type Service struct {
	db        *gorm.DB
	authz     *auth.Service
	units     *units.Service
	analytics *analytics.Service
}

// Handler is the package handler instance.
var Handler = Service{}

// Init registers the /exports routes.
func Init(app *fiber.App, db *gorm.DB, authz *auth.Service, unitSvc *units.Service, stats *analytics.Service) {
	Handler = Service{db: db, authz: authz, units: unitSvc, analytics: stats}

	g := app.Group("/exports", authz.RequirePermissions(auth.PermExportData))
	g.Get("/users", Handler.users)
	g.Get("/login-histories", Handler.loginHistories)
	g.Get("/emotion-statistics", Handler.emotionStatistics)
	g.Get("/emotion-alerts", Handler.emotionAlerts)
}

// scope resolves the allowed unit set for the request, honoring the
// optional unitId query parameter.
func (s Service) scope(c *fiber.Ctx) ([]uint, error) {
	principal := auth.PrincipalFromCtx(c)
	if principal == nil {
		return nil, fiber.ErrUnauthorized
	}

	requested, err := handler.UintQuery(c, "unitId")
	if err != nil {
		return nil, err
	}

	allowed, err := s.units.ResolveAllowedUnits(s.authz, principal, requested)
	if errors.Is(err, auth.ErrUnitAccessDenied) {
		return nil, fiber.NewError(fiber.StatusForbidden, "unit access denied")
	}
	if err != nil {
		return nil, err
	}

	return allowed, nil
}

func sendWorkbook(c *fiber.Ctx, name string, sheets ...exporter.Sheet) error {
	var buf bytes.Buffer
	if err := exporter.Write(&buf, sheets...); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, contentTypeXLSX)
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s-%s.xlsx"`, name, time.Now().Format("20060102")))

	return c.Send(buf.Bytes())
}

func (s Service) users(c *fiber.Ctx) error {
	var list []models.User
	if err := s.db.Preload("Roles").Preload("Unit").Order("email").Find(&list).Error; err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(list))

	for i := range list {
		u := &list[i]

		roles := ""
		for j, r := range u.Roles {
			if j > 0 {
				roles += ", "
			}
			roles += r.Name
		}

		unit := ""
		if u.Unit != nil {
			unit = u.Unit.Code
		}

		rows = append(rows, []interface{}{
			u.Email, u.FirstName, u.LastName, u.PhoneNumber, unit, roles, u.Blocked,
		})
	}

	return sendWorkbook(c, "users", exporter.Sheet{
		Name:   "Users",
		Header: []string{"Email", "First Name", "Last Name", "Phone", "Unit", "Roles", "Blocked"},
		Rows:   rows,
	})
}

func (s Service) loginHistories(c *fiber.Ctx) error {
	var list []models.LoginHistory
	if err := s.db.Preload("User").Order("created_at DESC").Limit(10000).Find(&list).Error; err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(list))
	for i := range list {
		h := &list[i]
		rows = append(rows, []interface{}{
			h.User.Email, h.IPAddress, h.Device, h.UserAgent,
			h.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return sendWorkbook(c, "login-histories", exporter.Sheet{
		Name:   "Logins",
		Header: []string{"Email", "IP", "Device", "User Agent", "Time"},
		Rows:   rows,
	})
}

func (s Service) emotionStatistics(c *fiber.Ctx) error {
	allowed, err := s.scope(c)
	if err != nil {
		return err
	}

	q := s.db.Model(&models.EmotionStatistic{}).Preload("Unit").Order("date DESC")
	if len(allowed) > 0 {
		q = q.Where("unit_id IN ?", allowed)
	}

	var list []models.EmotionStatistic
	if err := q.Limit(10000).Find(&list).Error; err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(list))
	for i := range list {
		st := &list[i]
		rows = append(rows, []interface{}{
			st.Unit.Code, st.Date.Format("2006-01-02"), st.TotalDiaries, st.ActiveUsers,
			st.AvgScore, st.PositiveCount, st.NeutralCount, st.NegativeCount,
		})
	}

	return sendWorkbook(c, "emotion-statistics", exporter.Sheet{
		Name: "Statistics",
		Header: []string{
			"Unit", "Date", "Diaries", "Active Users", "Avg Score",
			"Positive", "Neutral", "Negative",
		},
		Rows: rows,
	})
}

func (s Service) emotionAlerts(c *fiber.Ctx) error {
	allowed, err := s.scope(c)
	if err != nil {
		return err
	}

	q := s.db.Model(&models.EmotionAlert{}).Preload("Unit").Order("created_at DESC")
	if len(allowed) > 0 {
		q = q.Where("unit_id IN ?", allowed)
	}

	var list []models.EmotionAlert
	if err := q.Limit(10000).Find(&list).Error; err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(list))
	for i := range list {
		a := &list[i]

		resolved := ""
		if a.ResolvedAt != nil {
			resolved = a.ResolvedAt.Format("2006-01-02 15:04:05")
		}

		rows = append(rows, []interface{}{
			a.Unit.Code, a.AlertLevel, a.Message, a.IsResolved,
			a.CreatedAt.Format("2006-01-02 15:04:05"), resolved,
		})
	}

	return sendWorkbook(c, "emotion-alerts", exporter.Sheet{
		Name:   "Alerts",
		Header: []string{"Unit", "Level", "Message", "Resolved", "Raised", "Resolved At"},
		Rows:   rows,
	})
}
