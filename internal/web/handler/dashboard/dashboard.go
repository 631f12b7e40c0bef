// Package dashboard lists the projects of the signed in user.
package dashboard

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/gitforge-admin/gitforge-admin/internal/auth"
	"github.com/gitforge-admin/gitforge-admin/internal/db/controller/project"
	"github.com/gitforge-admin/gitforge-admin/internal/db/models"
	"github.com/gitforge-admin/gitforge-admin/internal/visibility"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler"
	"github.com/gitforge-admin/gitforge-admin/internal/web/navigation"
	"github.com/gitforge-admin/gitforge-admin/internal/web/session"
)

const (
	// Path is the path to the dashboard page.
	Path = handler.HomePath

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard/dashboard"

	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 25
	maxPageSize     = 100

	desc = "desc"
)

// QueryParams holds the query and pagination parameters.
type QueryParams struct {
	Page        int
	PageSize    int
	SearchQuery string
	Visibility  string
	SortField   string
	SortOrder   string
}

// Data is the dashboard page.
type Data struct {
	Projects    []models.Project
	CurrentPage int
	PageSize    int
	TotalItems  int
	TotalPages  int
	HasPrevPage bool
	HasNextPage bool
	PrevPage    int
	NextPage    int
	Params      QueryParams
	Levels      []visibility.Level
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Get(Path, auth.RequirePermission(deps.Auth, auth.PermDashboardView), s.Get)

	return nil
}

// Get handles the dashboard page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	sess, err := session.Current(c)
	if err != nil {
		return fiber.ErrNotFound
	}

	params := QueryParams{
		Page:        c.QueryInt("page", 1),
		PageSize:    c.QueryInt("pageSize", DefaultPageSize),
		SearchQuery: c.Query("search"),
		Visibility:  c.Query("visibility"),
		SortField:   c.Query("sort", "name"),
		SortOrder:   c.Query("order", "asc"),
	}

	if params.PageSize < 1 || params.PageSize > maxPageSize {
		params.PageSize = DefaultPageSize
	}

	var level *visibility.Level

	if params.Visibility != "" {
		l, errParse := visibility.Parse(params.Visibility)
		if errParse != nil {
			params.Visibility = ""
		} else {
			level = &l
		}
	}

	admin, err := s.deps.Auth.HasPermission(sess.User.ID, auth.PermAdminProjects)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", sess.User.ID).Msg("failed to check permission")
		return fiber.ErrInternalServerError
	}

	projects, err := project.ListForUser(s.deps.DB.WithContext(c.UserContext()), sess.User.ID, admin)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", sess.User.ID).Msg("failed to list projects")
		return fiber.ErrInternalServerError
	}

	projects = project.Filter(projects, params.SearchQuery, level)
	project.Sort(projects, params.SortField, params.SortOrder == desc)

	page, totalPages, actualPage := project.Paginate(projects, params.Page, params.PageSize)
	params.Page = actualPage

	data := Data{
		Projects:    page,
		CurrentPage: actualPage,
		PageSize:    params.PageSize,
		TotalItems:  len(projects),
		TotalPages:  totalPages,
		HasPrevPage: actualPage > 1,
		HasNextPage: actualPage < totalPages,
		PrevPage:    actualPage - 1,
		NextPage:    actualPage + 1,
		Params:      params,
		Levels:      visibility.Levels(),
	}

	log.Debug().
		Int("projects", len(projects)).
		Int("page", params.Page).
		Int("page_size", params.PageSize).
		Str("search", params.SearchQuery).
		Str("sort_field", params.SortField).
		Msg("dashboard projects retrieved")

	return handler.Render(c, TemplateName, fiber.Map{
		"Navigation": navigation.Dashboard(),
		"Data":       data,
	})
}
