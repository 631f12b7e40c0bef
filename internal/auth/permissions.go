package auth

// Permission constants define the available permissions in the system.
const (
	// PermDashboardView allows viewing the project dashboard.
	PermDashboardView = "dashboard.view"

	// PermAdminSettings allows managing application-wide settings and reading usage data.
	PermAdminSettings = "admin.settings"
	// PermAdminRunners allows viewing runners and the registration token.
	PermAdminRunners = "admin.runners"
	// PermAdminProjects allows maintaining every project, including its integrations.
	PermAdminProjects = "admin.projects"
)

// Role names seeded by EnsureDefaultRoles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// permissionDef describes a seeded permission.
type permissionDef struct {
	name, resource, action, description string
}

var permissionDefs = []permissionDef{ //nolint:gochecknoglobals
	{PermDashboardView, "dashboard", "view", "View the project dashboard"},
	{PermAdminSettings, "admin", "settings", "Manage application settings"},
	{PermAdminRunners, "admin", "runners", "Manage runners and the registration token"},
	{PermAdminProjects, "admin", "projects", "Maintain every project"},
}

// rolePermissions maps seeded roles to their permissions.
var rolePermissions = map[string][]string{ //nolint:gochecknoglobals
	RoleAdmin: {PermDashboardView, PermAdminSettings, PermAdminRunners, PermAdminProjects},
	RoleUser:  {PermDashboardView},
}
