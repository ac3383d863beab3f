// Package authn serves the /auth endpoints: login, token refresh,
// logout and account self-service.
package authn

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/emolog/emolog/internal/auth"
	"github.com/emolog/emolog/internal/web/handler"
)

// Service holds the handler dependencies.
type Service struct {
	authz *auth.Service
}

// Handler is the package handler instance.
var Handler = Service{}

// Init registers the /auth routes.
func Init(app *fiber.App, authz *auth.Service) {
	Handler = Service{authz: authz}

	g := app.Group("/auth")
	g.Post("/signup", Handler.signup)
	g.Post("/login", Handler.login)
	g.Post("/refresh-token", Handler.refresh)
	g.Post("/logout", Handler.logout)
	g.Get("/me", Handler.me)
	g.Put("/change-password", Handler.changePassword)
}

type signupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	PhoneNumber string `json:"phoneNumber"`
}

func (s Service) signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	user, err := s.authz.Signup(auth.SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})

	switch {
	case errors.Is(err, auth.ErrUserExists):
		return fiber.NewError(fiber.StatusConflict, "email already taken")
	case err != nil:
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":        user.ID,
		"email":     user.Email,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s Service) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	user, pair, err := s.authz.Login(req.Email, req.Password, auth.LoginMeta{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})

	switch {
	// Blocked accounts fail exactly like bad credentials so callers
	// cannot probe account state.
	case errors.Is(err, auth.ErrInvalidPassword), errors.Is(err, auth.ErrUserBlocked):
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	case err != nil:
		return err
	}

	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, r.Name)
	}

	return c.JSON(fiber.Map{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"user": fiber.Map{
			"id":        user.ID,
			"email":     user.Email,
			"firstName": user.FirstName,
			"lastName":  user.LastName,
			"roles":     roles,
		},
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func (s Service) refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	access, err := s.authz.Refresh(req.RefreshToken)

	switch {
	case errors.Is(err, auth.ErrInvalidRefreshToken), errors.Is(err, auth.ErrUserBlocked):
		return fiber.NewError(fiber.StatusUnauthorized, "invalid refresh token")
	case err != nil:
		return err
	}

	return c.JSON(fiber.Map{"accessToken": access})
}

func (s Service) logout(c *fiber.Ctx) error {
	principal := auth.PrincipalFromCtx(c)
	if principal == nil {
		return fiber.ErrUnauthorized
	}

	claims, err := s.authz.Tokens().VerifyAccess(bearerToken(c))
	if err != nil {
		return fiber.ErrUnauthorized
	}

	if err := s.authz.Logout(principal, claims.ExpiresAt.Unix()); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "logged out"})
}

func (s Service) me(c *fiber.Ctx) error {
	principal := auth.PrincipalFromCtx(c)
	if principal == nil {
		return fiber.ErrUnauthorized
	}

	user := principal.User

	return c.JSON(fiber.Map{
		"id":          user.ID,
		"email":       user.Email,
		"firstName":   user.FirstName,
		"lastName":    user.LastName,
		"phoneNumber": user.PhoneNumber,
		"avatarUrl":   user.AvatarURL,
		"unitId":      user.UnitID,
		"roles":       principal.Roles,
		"permissions": principal.Permissions,
	})
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func (s Service) changePassword(c *fiber.Ctx) error {
	principal := auth.PrincipalFromCtx(c)
	if principal == nil {
		return fiber.ErrUnauthorized
	}

	var req changePasswordRequest
	if err := handler.Body(c, &req); err != nil {
		return err
	}

	err := s.authz.ChangePassword(principal.User.ID, req.OldPassword, req.NewPassword)

	switch {
	case errors.Is(err, auth.ErrInvalidOldPassword):
		return fiber.NewError(fiber.StatusBadRequest, "old password does not match")
	case err != nil:
		return err
	}

	return c.JSON(fiber.Map{"message": "password changed"})
}

func bearerToken(c *fiber.Ctx) string {
	const prefix = "Bearer "

	header := c.Get(fiber.HeaderAuthorization)
	if len(header) <= len(prefix) {
		return ""
	}

	return header[len(prefix):]
}
