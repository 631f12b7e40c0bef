// Package auth provides authentication and authorization for the admin console.
//
// Users authenticate against the local database (argon2id hashes). Every user
// has one role and roles carry permissions in resource.action format.
//
// # Permission Checking
//
// The Service type answers permission questions:
//   - HasPermission: Check if user has a specific permission
//   - HasAnyPermission: Check if user has at least one permission from a list
//   - GetUserPermissions: Retrieve all permissions for a user
//   - CanMaintainProject: Check maintainer access to a project
//
// # Middleware
//
// Routes are protected with fiber middleware. Requests failing a check get
// 404 Not Found, so the existence of admin pages is not revealed:
//   - RequirePermission: Protect routes requiring a specific permission
//   - RequireProjectMaintainer: Protect project routes
//   - AddPermissionsToLocals: Add user permissions to template context
//
// Example usage:
//
//	authService := auth.NewService(db)
//
//	app.Get("/admin/runners",
//	    auth.RequirePermission(authService, auth.PermAdminRunners),
//	    handler,
//	)
package auth
