// Package integration serves the per-project third-party integration pages.
package integration

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/gitforge-admin/gitforge-admin/internal/auth"
	"github.com/gitforge-admin/gitforge-admin/internal/db/controller/project"
	"github.com/gitforge-admin/gitforge-admin/internal/db/models"
	"github.com/gitforge-admin/gitforge-admin/internal/integrations"
	"github.com/gitforge-admin/gitforge-admin/internal/web/form"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler"
	"github.com/gitforge-admin/gitforge-admin/internal/web/navigation"
	"github.com/gitforge-admin/gitforge-admin/internal/web/session"
)

const (
	// Path is the integrations root of a project.
	Path = "/projects/:project_id/integrations"

	// IndexTemplate lists the providers of a project.
	IndexTemplate = "project/integrations/index"
	// EditTemplate is the credentials form of one provider.
	EditTemplate = "project/integrations/edit"

	// Scope is the form scope of the submitted properties.
	Scope = "integration"

	activeParam = "active"
	projectKey  = "project"
)

// Service is the project integrations handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the project integrations handler.
var Handler = Service{}

// Init registers the routes. They require maintainer access to the project.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() || deps.Integrations == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.RequireProjectMaintainer(deps.Auth, "project_id"), s.loadProject)

		router.Get(handler.RootPath, s.List)
		router.Get("/:type/edit", s.Edit)

		for _, method := range []string{fiber.MethodPut, fiber.MethodPatch, fiber.MethodPost} {
			router.Add(method, "/:type/test", s.Test)
			router.Add(method, "/:type", s.Update)
		}
	}, "project.integrations")

	return nil
}

// URL returns the integrations page of a project.
func URL(projectID uint64) string {
	return "/projects/" + strconv.FormatUint(projectID, 10) + "/integrations"
}

// EditURL returns the edit page of one integration.
func EditURL(projectID uint64, typ string) string {
	return URL(projectID) + "/" + typ + "/edit"
}

func (s *Service) loadProject(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("project_id"), 10, 64)
	if err != nil {
		return fiber.ErrNotFound
	}

	p, err := project.Get(s.deps.DB.WithContext(c.UserContext()), id)
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			return fiber.ErrNotFound
		}

		log.Error().Err(err).Uint64("project_id", id).Msg("failed to load project")

		return fiber.ErrInternalServerError
	}

	c.Locals(projectKey, p)

	return c.Next()
}

func currentProject(c *fiber.Ctx) *models.Project {
	p, _ := c.Locals(projectKey).(*models.Project)

	return p
}

// List renders every provider with its state for the project.
func (s *Service) List(c *fiber.Ctx) error {
	p := currentProject(c)

	statuses, err := s.deps.Integrations.List(c.UserContext(), p.ID)
	if err != nil {
		log.Error().Err(err).Uint64("project_id", p.ID).Msg("failed to list integrations")
		return fiber.ErrInternalServerError
	}

	if handler.WantsJSON(c) {
		out := make([]fiber.Map, 0, len(statuses))
		for _, st := range statuses {
			out = append(out, fiber.Map{
				"type":       st.Provider.Type(),
				"title":      st.Provider.Title(),
				"active":     st.Active,
				"configured": st.Configured,
			})
		}

		return c.JSON(out)
	}

	return handler.Render(c, IndexTemplate, fiber.Map{
		"Navigation":   navigation.Project(p.ID, p.Name, "Integrations", "integrations"),
		"Project":      p,
		"Integrations": statuses,
		"BaseURL":      URL(p.ID),
	})
}

// Edit renders the credentials form. Secret values are never sent back.
func (s *Service) Edit(c *fiber.Ctx) error {
	p := currentProject(c)

	provider, rec, err := s.find(c, p.ID)
	if err != nil {
		return err
	}

	return s.renderEdit(c, p, provider, rec, nil, nil)
}

// Update stores the submitted properties without testing them.
func (s *Service) Update(c *fiber.Ctx) error {
	p := currentProject(c)

	provider, _, err := s.find(c, p.ID)
	if err != nil {
		return err
	}

	props, active, err := submitted(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	result, errs, err := s.deps.Integrations.Save(c.UserContext(), p.ID, provider.Type(), props, active)
	if err != nil {
		log.Error().Err(err).Uint64("project_id", p.ID).Str("type", provider.Type()).Msg("failed to save integration")
		return fiber.ErrInternalServerError
	}

	return s.respond(c, p, provider, result, errs, fiber.StatusBadRequest)
}

// Test runs the test call with the submitted properties and activates the
// integration when it succeeds. A failed test stores nothing.
func (s *Service) Test(c *fiber.Ctx) error {
	p := currentProject(c)

	provider, _, err := s.find(c, p.ID)
	if err != nil {
		return err
	}

	props, _, err := submitted(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	result, errs, err := s.deps.Integrations.TestAndActivate(c.UserContext(), p.ID, provider.Type(), props)
	if err != nil {
		log.Error().Err(err).Uint64("project_id", p.ID).Str("type", provider.Type()).Msg("failed to test integration")
		return fiber.ErrInternalServerError
	}

	return s.respond(c, p, provider, result, errs, fiber.StatusOK)
}

// respond answers a save or test. Validation errors use status 422 for JSON and
// failStatus for the re-rendered form; failed tests are shown inline.
func (s *Service) respond(c *fiber.Ctx, p *models.Project, provider integrations.Provider,
	result *integrations.Result, errs integrations.Errors, failStatus int,
) error {
	if handler.WantsJSON(c) {
		if len(errs) > 0 {
			c.Status(fiber.StatusUnprocessableEntity)
		}

		return c.JSON(result)
	}

	if !result.Error {
		handler.Flash(c, session.FlashNotice, result.Message)
		return c.Redirect(EditURL(p.ID, provider.Type()))
	}

	// reload, the failed submission was not stored
	_, rec, err := s.deps.Integrations.Find(c.UserContext(), p.ID, provider.Type())
	if err != nil {
		log.Error().Err(err).Uint64("project_id", p.ID).Str("type", provider.Type()).Msg("failed to load integration")
		return fiber.ErrInternalServerError
	}

	if len(errs) > 0 {
		c.Status(failStatus)
	}

	return s.renderEdit(c, p, provider, rec, result, errs)
}

func (s *Service) find(c *fiber.Ctx, projectID uint64) (integrations.Provider, *models.Integration, error) {
	provider, rec, err := s.deps.Integrations.Find(c.UserContext(), projectID, c.Params("type"))
	if err != nil {
		if errors.Is(err, integrations.ErrUnknownType) {
			return nil, nil, fiber.ErrNotFound
		}

		log.Error().Err(err).Uint64("project_id", projectID).Str("type", c.Params("type")).
			Msg("failed to load integration")

		return nil, nil, fiber.ErrInternalServerError
	}

	return provider, rec, nil
}

func (s *Service) renderEdit(c *fiber.Ctx, p *models.Project, provider integrations.Provider, rec *models.Integration,
	result *integrations.Result, errs integrations.Errors,
) error {
	values, err := integrations.PublicProperties(provider, rec)
	if err != nil {
		log.Error().Err(err).Uint64("project_id", p.ID).Str("type", provider.Type()).Msg("failed to decode integration")
		return fiber.ErrInternalServerError
	}

	base := URL(p.ID) + "/" + provider.Type()

	return handler.Render(c, EditTemplate, fiber.Map{
		"Navigation": navigation.Project(p.ID, p.Name, provider.Title(), "integrations"),
		"Project":    p,
		"Provider":   provider,
		"Fields":     provider.Fields(),
		"Values":     values,
		"Active":     rec.Active,
		"Configured": rec.ID != 0,
		"Scope":      Scope,
		"Action":     base,
		"TestAction": base + "/test",
		"BaseURL":    URL(p.ID),
		"Result":     result,
		"Errors":     errs,
	})
}

// submitted returns the posted properties and the active flag.
func submitted(c *fiber.Ctx) (map[string]string, bool, error) {
	params, err := form.Params(c, Scope)
	if err != nil {
		return nil, false, err
	}

	active := cast.ToBool(params[activeParam])
	delete(params, activeParam)

	return form.Strings(params), active, nil
}
