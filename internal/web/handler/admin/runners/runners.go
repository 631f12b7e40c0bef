// Package runners shows the runner registration token.
package runners

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/gitforge-admin/gitforge-admin/internal/auth"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler"
	"github.com/gitforge-admin/gitforge-admin/internal/web/navigation"
)

const (
	// Path is the runners page.
	Path = "/admin/runners"

	// TemplateName is the runners template.
	TemplateName = "admin/runners"

	// ResetPath resets the registration token.
	ResetPath = "/admin/application_settings/reset_registration_token"
)

// Service is the runners handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the runners handler.
var Handler = Service{}

// Init registers the runners page, it requires admin.runners.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Get(Path, auth.RequirePermission(deps.Auth, auth.PermAdminRunners), s.Get)

	return nil
}

// Get renders the registration token.
func (s *Service) Get(c *fiber.Ctx) error {
	settings, err := s.deps.Settings.Current(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("failed to load application settings")
		return fiber.ErrInternalServerError
	}

	return handler.Render(c, TemplateName, fiber.Map{
		"Navigation":           navigation.Admin("Runners", "runners", Path),
		"RegistrationToken":    settings.RunnersRegistrationToken,
		"SharedRunnersEnabled": settings.SharedRunnersEnabled,
		"SharedRunnersText":    settings.SharedRunnersText,
		"ResetPath":            ResetPath,
	})
}
