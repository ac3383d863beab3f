// Package dashboard serves the emotion dashboard and analytics
// endpoints. Unit scoping is resolved per request; callers only ever see
// units their permissions allow.
package dashboard

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/emolog/emolog/internal/analytics"
	"github.com/emolog/emolog/internal/auth"
	"github.com/emolog/emolog/internal/units"
	"github.com/emolog/emolog/internal/web/handler"
)

// Service holds the handler dependencies.
type Service struct {
	authz     *auth.Service
	units     *units.Service
	analytics *analytics.Service
}

// Handler is the package handler instance.
var Handler = Service{}

// Init registers the /dashboard and /analytics routes.
func Init(app *fiber.App, authz *auth.Service, unitSvc *units.Service, stats *analytics.Service) {
	Handler = Service{authz: authz, units: unitSvc, analytics: stats}

	app.Get("/dashboard", Handler.summary)

	g := app.Group("/analytics")
	g.Get("/trend", Handler.trend)
	g.Get("/hashtags", Handler.hashtags)
	g.Get("/alerts", authz.RequirePermissions(auth.PermViewEmotionAlerts), Handler.alerts)
	g.Post("/alerts/:id/resolve", authz.RequirePermissions(auth.PermResolveEmotionAlerts), Handler.resolveAlert)
}

// scope resolves the allowed unit set for the request, honoring the
// optional unitId query parameter.
func (s Service) scope(c *fiber.Ctx) (*auth.Principal, []uint, error) {
	principal := auth.PrincipalFromCtx(c)
	if principal == nil {
		return nil, nil, fiber.ErrUnauthorized
	}

	requested, err := handler.UintQuery(c, "unitId")
	if err != nil {
		return nil, nil, err
	}

	allowed, err := s.units.ResolveAllowedUnits(s.authz, principal, requested)
	if errors.Is(err, auth.ErrUnitAccessDenied) {
		return nil, nil, fiber.NewError(fiber.StatusForbidden, "unit access denied")
	}
	if err != nil {
		return nil, nil, err
	}

	return principal, allowed, nil
}

// dateRange reads the from/to query parameters, defaulting to the last
// 30 days. The upper bound is exclusive.
func dateRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	now := time.Now()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -30)

	if raw := c.Query("from"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid from date")
		}
		from = d
	}
	if raw := c.Query("to"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid to date")
		}
		to = d.AddDate(0, 0, 1)
	}

	if !from.Before(to) {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "from must precede to")
	}

	return from, to, nil
}

func (s Service) summary(c *fiber.Ctx) error {
	_, allowed, err := s.scope(c)
	if err != nil {
		return err
	}

	from, to, err := dateRange(c)
	if err != nil {
		return err
	}

	summary, err := s.analytics.Summarize(allowed, from, to)
	if err != nil {
		return err
	}

	return c.JSON(summary)
}

func (s Service) trend(c *fiber.Ctx) error {
	_, allowed, err := s.scope(c)
	if err != nil {
		return err
	}

	from, to, err := dateRange(c)
	if err != nil {
		return err
	}

	points, err := s.analytics.Trend(allowed, from, to)
	if err != nil {
		return err
	}

	return c.JSON(points)
}

func (s Service) hashtags(c *fiber.Ctx) error {
	_, allowed, err := s.scope(c)
	if err != nil {
		return err
	}

	from, to, err := dateRange(c)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", 10)

	tags, err := s.analytics.TopHashtags(allowed, from, to, limit)
	if err != nil {
		return err
	}

	return c.JSON(tags)
}

func (s Service) alerts(c *fiber.Ctx) error {
	_, allowed, err := s.scope(c)
	if err != nil {
		return err
	}

	onlyOpen := c.QueryBool("open", true)

	list, err := s.analytics.ListAlerts(allowed, onlyOpen)
	if err != nil {
		return err
	}

	return c.JSON(list)
}

func (s Service) resolveAlert(c *fiber.Ctx) error {
	principal := auth.PrincipalFromCtx(c)
	if principal == nil {
		return fiber.ErrUnauthorized
	}

	id, err := handler.UintParam(c, "id")
	if err != nil {
		return err
	}

	alert, err := s.analytics.ResolveAlert(id, principal.User.ID)

	switch {
	case errors.Is(err, analytics.ErrAlertNotFound):
		return fiber.NewError(fiber.StatusNotFound, "alert not found")
	case errors.Is(err, analytics.ErrAlertAlreadyResolved):
		return fiber.NewError(fiber.StatusConflict, "alert already resolved")
	case err != nil:
		return err
	}

	return c.JSON(alert)
}
