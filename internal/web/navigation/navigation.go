// Package navigation builds the page title, active menu entry and breadcrumbs of a page.
package navigation

import "strconv"

// Menu sections.
const (
	SectionDashboard = "dashboard"
	SectionAdmin     = "admin"
	SectionProject   = "project"
)

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string
	URL    string
	Active bool
}

// Context represents the navigation context for a page.
type Context struct {
	ActiveSection string
	ActivePage    string
	Breadcrumbs   []BreadcrumbItem
	PageTitle     string
}

// NewContext creates a new navigation context.
func NewContext(pageTitle, activeSection, activePage string) *Context {
	return &Context{
		PageTitle:     pageTitle,
		ActiveSection: activeSection,
		ActivePage:    activePage,
		Breadcrumbs:   make([]BreadcrumbItem, 0),
	}
}

// Dashboard is the context of the start page.
func Dashboard() *Context {
	return NewContext("Dashboard", SectionDashboard, SectionDashboard).
		AddBreadcrumb("Dashboard", "/dashboard", true)
}

// Admin is the context of an admin area page reachable at url.
func Admin(pageTitle, page, url string) *Context {
	return NewContext(pageTitle, SectionAdmin, page).
		AddBreadcrumb("Dashboard", "/dashboard", false).
		AddBreadcrumb("Admin Area", "/admin/application_settings", false).
		AddBreadcrumb(pageTitle, url, true)
}

// Project is the context of a page below a project.
func Project(projectID uint64, projectName, pageTitle, page string) *Context {
	base := "/projects/" + strconv.FormatUint(projectID, 10)

	return NewContext(pageTitle, SectionProject, page).
		AddBreadcrumb("Dashboard", "/dashboard", false).
		AddBreadcrumb(projectName, base+"/integrations", false).
		AddBreadcrumb(pageTitle, "", true)
}

// AddBreadcrumb adds a breadcrumb item to the context.
func (c *Context) AddBreadcrumb(title, url string, active bool) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{
		Title:  title,
		URL:    url,
		Active: active,
	})

	return c
}

// IsActive checks if the given section and page match the current context.
func (c *Context) IsActive(section, page string) bool {
	return c.ActiveSection == section && c.ActivePage == page
}

// IsSectionActive checks if the given section is active.
func (c *Context) IsSectionActive(section string) bool {
	return c.ActiveSection == section
}
