package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// principalKey is the locals key the Principal is stored under.
const principalKey = "principal"

// PrincipalFromCtx returns the authenticated principal attached by
// Authenticate, or nil when the request is unauthenticated.
func PrincipalFromCtx(c *fiber.Ctx) *Principal {
	p, _ := c.Locals(principalKey).(*Principal)

	return p
}

// Authenticate is the global guard. It verifies the bearer token, checks
// the revocation list, loads the user and attaches the Principal to the
// request. Paths listed in skip pass through unauthenticated.
func (s *Service) Authenticate(skip ...string) fiber.Handler {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		if _, ok := skipped[c.Path()]; ok {
			return c.Next()
		}

		token := bearerToken(c)
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := s.tokens.VerifyAccess(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		revoked, err := s.IsRevoked(claims.ID)
		if err != nil {
			log.Error().Err(err).Msg("checking token revocation")

			return fiber.ErrInternalServerError
		}
		if revoked {
			return fiber.NewError(fiber.StatusUnauthorized, "token has been revoked")
		}

		user, err := s.GetUser(claims.Subject)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unknown user")
		}

		if user.Blocked {
			return fiber.NewError(fiber.StatusForbidden, "user is blocked")
		}

		permissions, err := s.GetUserPermissions(user.ID)
		if err != nil {
			log.Error().Err(err).Msg("loading user permissions")

			return fiber.ErrInternalServerError
		}

		roles := make([]string, 0, len(user.Roles))
		for _, r := range user.Roles {
			roles = append(roles, r.Name)
		}

		c.Locals(principalKey, &Principal{
			User:        user,
			Roles:       roles,
			Permissions: permissions,
			TokenID:     claims.ID,
		})

		return c.Next()
	}
}

// RequirePermissions allows the request only when the principal's
// effective permission set holds ALL of the given permissions. Admins
// bypass the check; an empty requirement always passes.
func (s *Service) RequirePermissions(permissions ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := PrincipalFromCtx(c)
		if principal == nil {
			return fiber.ErrUnauthorized
		}

		if principal.IsAdmin() {
			return c.Next()
		}

		for _, perm := range permissions {
			if !principal.HasPermission(perm) {
				return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
			}
		}

		return c.Next()
	}
}

// RequireRoles allows the request when the principal holds ANY of the
// given roles. Admins bypass the check.
func (s *Service) RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := PrincipalFromCtx(c)
		if principal == nil {
			return fiber.ErrUnauthorized
		}

		if principal.IsAdmin() {
			return c.Next()
		}

		for _, r := range roles {
			if principal.HasRole(r) {
				return c.Next()
			}
		}

		return fiber.NewError(fiber.StatusForbidden, "insufficient role")
	}
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}

	return strings.TrimPrefix(header, "Bearer ")
}
