// Package files serves stored files: avatar uploads and expiring signed
// download links. The download endpoint is public; possession of a valid
// signature is the authorization.
package files

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/emolog/emolog/internal/auth"
	"github.com/emolog/emolog/internal/config"
	"github.com/emolog/emolog/internal/db/models"
	"github.com/emolog/emolog/internal/signs"
)

// downloadTTL is how long a signed download link stays valid.
const downloadTTL = time.Hour

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// Service holds the handler dependencies.
type Service struct {
	cfg    *config.Config
	authz  *auth.Service
	signer *signs.Signer
}

// Handler is the package handler instance.
var Handler = Service{}

// Init registers the /files routes.
func Init(app *fiber.App, cfg *config.Config, authz *auth.Service, signer *signs.Signer) {
	Handler = Service{cfg: cfg, authz: authz, signer: signer}

	g := app.Group("/files")
	g.Post("/avatar", Handler.uploadAvatar)
	g.Get("/sign", Handler.sign)
	g.Get("/download", Handler.download)
}

func (s Service) uploadAvatar(c *fiber.Ctx) error {
	principal := auth.PrincipalFromCtx(c)
	if principal == nil {
		return fiber.ErrUnauthorized
	}

	file, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing file upload")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return fiber.NewError(fiber.StatusBadRequest, "unsupported file type")
	}

	name := fmt.Sprintf("%s%s", uuid.NewString(), ext)
	relative := filepath.Join("avatars", name)

	if err := c.SaveFile(file, filepath.Join(s.cfg.Storage.AvatarDir, name)); err != nil {
		return err
	}

	err = s.authz.DB().Model(&models.User{}).
		Where("id = ?", principal.User.ID).
		Update("avatar_url", relative).Error
	if err != nil {
		return err
	}

	sig := s.signer.Sign(relative, downloadTTL)

	return c.Status(fiber.StatusCreated).JSON(sig)
}

// sign issues a fresh download signature for a stored file path.
func (s Service) sign(c *fiber.Ctx) error {
	principal := auth.PrincipalFromCtx(c)
	if principal == nil {
		return fiber.ErrUnauthorized
	}

	path := c.Query("path")
	if path == "" || path != filepath.Clean(path) || strings.HasPrefix(path, "..") {
		return fiber.NewError(fiber.StatusBadRequest, "invalid path")
	}

	// Only the avatar area is servable for now.
	if !strings.HasPrefix(path, "avatars"+string(filepath.Separator)) && !strings.HasPrefix(path, "avatars/") {
		return fiber.NewError(fiber.StatusBadRequest, "invalid path")
	}

	return c.JSON(s.signer.Sign(path, downloadTTL))
}

func (s Service) download(c *fiber.Ctx) error {
	path := c.Query("path")
	token := c.Query("token")

	expires, err := strconv.ParseInt(c.Query("expiresAt"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid expiresAt")
	}

	if err := s.signer.Verify(path, expires, token); err != nil {
		switch {
		case errors.Is(err, signs.ErrSignatureExpired):
			return fiber.NewError(fiber.StatusForbidden, "link expired")
		default:
			return fiber.NewError(fiber.StatusForbidden, "invalid signature")
		}
	}

	if path != filepath.Clean(path) || strings.HasPrefix(path, "..") {
		return fiber.NewError(fiber.StatusBadRequest, "invalid path")
	}

	name := filepath.Base(path)

	return c.SendFile(filepath.Join(s.cfg.Storage.AvatarDir, name))
}
