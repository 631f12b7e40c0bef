// Package appsettings serves the admin area pages of the application settings.
package appsettings

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/gitforge-admin/gitforge-admin/internal/auth"
	"github.com/gitforge-admin/gitforge-admin/internal/db/controller/appsetting"
	"github.com/gitforge-admin/gitforge-admin/internal/integrations"
	"github.com/gitforge-admin/gitforge-admin/internal/integrations/eks"
	"github.com/gitforge-admin/gitforge-admin/internal/letsencrypt"
	"github.com/gitforge-admin/gitforge-admin/internal/usage"
	"github.com/gitforge-admin/gitforge-admin/internal/web/form"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler/admin/runners"
	"github.com/gitforge-admin/gitforge-admin/internal/web/navigation"
	"github.com/gitforge-admin/gitforge-admin/internal/web/session"
)

const (
	// Path is the root of the application settings pages.
	Path = "/admin/application_settings"

	// TemplateName is the template of every settings panel.
	TemplateName = "admin/application_settings/panel"

	// Scope is the form scope of the settings attributes.
	Scope = "application_setting"

	// DefaultPanel is shown after updates without a settings page referer.
	DefaultPanel = "general"

	integrationsPanel  = "integrations"
	defaultTestTimeout = 10 * time.Second

	// MsgSaved is flashed after a successful update.
	MsgSaved = "Application settings saved successfully"
	// MsgTokenReset is flashed after the runner registration token was replaced.
	MsgTokenReset = "New runners registration token has been generated!"
)

// Service is the application settings handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the application settings handler.
var Handler = Service{}

// Init registers the routes. Every route requires admin.settings.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.RequirePermission(deps.Auth, auth.PermAdminSettings))

		router.Get(handler.RootPath, s.Index)
		router.Get("/usage_data", s.UsageData)
		router.Get("/usage_data.json", s.UsageData)
		router.Get("/lets_encrypt_terms_of_service", s.LetsEncryptTerms)
		router.Add(fiber.MethodPut, "/reset_registration_token", s.ResetRegistrationToken)
		router.Post("/reset_registration_token", s.ResetRegistrationToken)
		router.Post("/integrations/eks_test", s.EKSTest)
		router.Get("/:panel", s.Show)

		for _, method := range []string{fiber.MethodPut, fiber.MethodPatch, fiber.MethodPost} {
			router.Add(method, handler.RootPath, s.Update)
			router.Add(method, "/:panel", s.Update)
		}
	}, "admin.application_settings")

	return nil
}

// Index redirects to the default panel.
func (s *Service) Index(c *fiber.Ctx) error {
	return c.Redirect(Path + "/" + DefaultPanel)
}

// Show renders a settings panel.
func (s *Service) Show(c *fiber.Ctx) error {
	panel, ok := findPanel(c.Params("panel"))
	if !ok {
		return fiber.ErrNotFound
	}

	settings, err := s.deps.Settings.Current(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("failed to load application settings")
		return fiber.ErrInternalServerError
	}

	return s.render(c, panel, settings, nil, nil)
}

// Update applies the submitted attributes. Invalid submissions re-render the
// panel they came from with the errors and nothing is stored.
func (s *Service) Update(c *fiber.Ctx) error {
	name := c.Params("panel", DefaultPanel)

	panel, ok := findPanel(name)
	if !ok {
		return fiber.ErrNotFound
	}

	params, err := form.Params(c, Scope)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	settings, errs, err := s.deps.Settings.Update(c.UserContext(), params)
	if err != nil {
		log.Error().Err(err).Msg("failed to update application settings")
		return fiber.ErrInternalServerError
	}

	if handler.WantsJSON(c) {
		if errs.Any() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": errs})
		}

		return c.JSON(settings.Redacted())
	}

	if errs.Any() {
		log.Info().Strs("attributes", errs.Full()).Str("panel", panel.Name).Msg("application settings rejected")
		c.Status(fiber.StatusBadRequest)

		return s.render(c, panel, settings, errs, nil)
	}

	log.Info().Int("attributes", len(params)).Str("panel", panel.Name).Msg("application settings saved")
	handler.Flash(c, session.FlashNotice, MsgSaved)

	return c.Redirect(redirectTarget(c.Get(fiber.HeaderReferer)))
}

// redirectTarget is the settings page named by referer, the default panel otherwise.
func redirectTarget(referer string) string {
	fallback := Path + "/" + DefaultPanel

	u, err := url.Parse(referer)
	if err != nil || referer == "" {
		return fallback
	}

	name, ok := strings.CutPrefix(u.Path, Path+"/")
	if !ok {
		return fallback
	}

	if _, ok = findPanel(name); !ok {
		return fallback
	}

	return Path + "/" + name
}

// UsageData shows the usage report as highlighted HTML or as JSON.
func (s *Service) UsageData(c *fiber.Ctx) error {
	if s.deps.Usage == nil {
		return fiber.ErrNotFound
	}

	payload, err := s.deps.Usage.Collect(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("failed to collect usage data")
		return fiber.ErrInternalServerError
	}

	if handler.WantsJSON(c) {
		return c.JSON(payload)
	}

	markup, err := usage.HTML(payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to highlight usage data")
		return fiber.ErrInternalServerError
	}

	c.Type("html")

	return c.SendString(markup)
}

// ResetRegistrationToken replaces the runner registration token.
func (s *Service) ResetRegistrationToken(c *fiber.Ctx) error {
	if _, err := s.deps.Settings.ResetRunnersRegistrationToken(c.UserContext()); err != nil {
		log.Error().Err(err).Msg("failed to reset runners registration token")
		return fiber.ErrInternalServerError
	}

	handler.Flash(c, session.FlashNotice, MsgTokenReset)

	return c.Redirect(runners.Path)
}

// LetsEncryptTerms redirects to the terms of service of the configured ACME directory.
func (s *Service) LetsEncryptTerms(c *fiber.Ctx) error {
	terms, err := letsencrypt.TermsOfService(c.UserContext(), s.deps.Cfg.LetsEncrypt.DirectoryURL)
	if err != nil {
		log.Error().Err(err).Msg("failed to look up the Let's Encrypt terms of service")
		return fiber.NewError(fiber.StatusBadGateway, "Let's Encrypt terms of service are not available")
	}

	return c.Redirect(terms)
}

// EKSTest checks the stored EKS credentials and shows the result on the integrations panel.
func (s *Service) EKSTest(c *fiber.Ctx) error {
	panel, _ := findPanel(integrationsPanel)

	settings, err := s.deps.Settings.Current(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("failed to load application settings")
		return fiber.ErrInternalServerError
	}

	result := s.checkEKS(c.UserContext(), settings)

	if handler.WantsJSON(c) {
		return c.JSON(result)
	}

	return s.render(c, panel, settings, nil, result)
}

func (s *Service) checkEKS(ctx context.Context, settings *appsetting.Settings) *integrations.Result {
	if s.deps.EKS == nil {
		return &integrations.Result{Error: true, Message: "Test failed: Amazon EKS check is not configured"}
	}

	timeout := s.deps.Cfg.Integrations.TestTimeout
	if timeout <= 0 {
		timeout = defaultTestTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	id, err := s.deps.EKS.Check(ctx, eks.Credentials{
		AccountID:       settings.EKSAccountID,
		AccessKeyID:     settings.EKSAccessKeyID,
		SecretAccessKey: settings.EKSSecretAccessKey,
	})
	if err != nil {
		log.Warn().Err(err).Msg("amazon eks credential check failed")

		reason := strings.TrimPrefix(err.Error(), integrations.ErrTestFailed.Error()+": ")
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "no response within " + timeout.String()
		}

		return &integrations.Result{Error: true, Message: "Test failed: " + reason}
	}

	return &integrations.Result{Message: "Amazon EKS credentials are valid.", ServiceResponse: id.ARN}
}

func (s *Service) render(c *fiber.Ctx, panel Panel, settings *appsetting.Settings, errs appsetting.Errors,
	eksResult *integrations.Result,
) error {
	values, lists := formValues(settings.Redacted())

	return handler.Render(c, TemplateName, fiber.Map{
		"Navigation": navigation.Admin(panel.Title, panel.Name, Path+"/"+panel.Name),
		"Panel":      panel,
		"Panels":     panels,
		"Action":     Path + "/" + panel.Name,
		"Scope":      Scope,
		"Values":     values,
		"Lists":      lists,
		"Errors":     errs,
		"EKSResult":  eksResult,
	})
}

// formValues flattens settings into input values; list attributes go to lists.
func formValues(settings *appsetting.Settings) (values map[string]string, lists map[string][]string) {
	values = make(map[string]string)
	lists = make(map[string][]string)

	raw, err := json.Marshal(settings)
	if err != nil {
		return values, lists
	}

	var attrs map[string]any
	if err = json.Unmarshal(raw, &attrs); err != nil {
		return values, lists
	}

	for name, v := range attrs {
		if _, ok := v.([]any); ok {
			lists[name] = cast.ToStringSlice(v)
			continue
		}

		values[name] = cast.ToString(v)
	}

	return values, lists
}
