// Package login signs users in with their local username and password.
package login

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/gitforge-admin/gitforge-admin/internal/auth"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler"
	"github.com/gitforge-admin/gitforge-admin/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = "/login"

	// TemplateName is the login template, it is rendered without the base layout.
	TemplateName = "login"

	msgAccountDisabled = "Your account is disabled"
)

// Form is the submitted login form.
type Form struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	deps  *handler.Deps
	local *auth.LocalProvider
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.deps = deps
	s.local = auth.NewLocalProvider(deps.DB)

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath, s.Get)
		router.Post(handler.RootPath, s.Post)
	})

	return nil
}

// Get renders the login page, signed in users go straight home.
func (s *Service) Get(c *fiber.Ctx) error {
	if _, err := session.Current(c); err == nil {
		return c.Redirect(handler.HomePath)
	}

	return s.render(c, "", "")
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(Form)
	if err := c.BodyParser(form); err != nil {
		log.Debug().Err(err).Msg("failed to parse login form")
		return s.render(c, "", ErrInvalidFormData.Error())
	}

	form.Username = strings.TrimSpace(form.Username)

	user, err := s.local.Authenticate(form.Username, form.Password)
	if err != nil {
		log.Info().Err(err).Str("username", form.Username).Msg("login failed")

		switch {
		case errors.Is(err, auth.ErrUserAccountDisabled):
			return s.render(c, form.Username, msgAccountDisabled)
		case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidPassword):
			return s.render(c, form.Username, "Invalid username or password")
		}

		return s.render(c, form.Username, "Internal server error")
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")
		return s.render(c, form.Username, "Internal server error")
	}

	expiry := s.deps.Cfg.Webserver.Session.ExpiryTime

	if err = (&session.Data{User: *user}).Write(sessionID, expiry); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return s.render(c, form.Username, "Internal server error")
	}

	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		MaxAge:   int(expiry.Seconds()),
		Secure:   !s.deps.Cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	log.Info().Str("username", user.Username).Msg("user signed in")

	return c.Redirect(handler.HomePath)
}

func (s *Service) render(c *fiber.Ctx, username, message string) error {
	if message != "" {
		c.Status(fiber.StatusUnauthorized)
	}

	return c.Render(TemplateName, fiber.Map{
		"Title":    s.deps.Cfg.Title,
		"Username": username,
		"error":    message,
	})
}
