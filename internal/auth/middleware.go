package auth

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/gitforge-admin/gitforge-admin/internal/web/session"
)

// RequirePermission creates Fiber middleware that requires a specific permission.
// Requests without session or permission get 404 so admin routes stay hidden.
func RequirePermission(authService *Service, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionData, err := session.Current(c)
		if err != nil {
			return fiber.ErrNotFound
		}

		hasPermission, err := authService.HasPermission(sessionData.User.ID, permission)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", sessionData.User.ID).Str("permission", permission).
				Msg("Failed to check permission")

			return fiber.ErrInternalServerError
		}

		if !hasPermission {
			log.Warn().Uint64("user_id", sessionData.User.ID).Str("permission", permission).
				Msg("User lacks required permission")

			return fiber.ErrNotFound
		}

		return c.Next()
	}
}

// RequireProjectMaintainer creates Fiber middleware that requires maintainer access
// to the project named by the route parameter param.
func RequireProjectMaintainer(authService *Service, param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionData, err := session.Current(c)
		if err != nil {
			return fiber.ErrNotFound
		}

		projectID, err := strconv.ParseUint(c.Params(param), 10, 64)
		if err != nil {
			return fiber.ErrNotFound
		}

		ok, err := authService.CanMaintainProject(sessionData.User.ID, projectID)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", sessionData.User.ID).Uint64("project_id", projectID).
				Msg("Failed to check project access")

			return fiber.ErrInternalServerError
		}

		if !ok {
			log.Warn().Uint64("user_id", sessionData.User.ID).Uint64("project_id", projectID).
				Msg("User is no project maintainer")

			return fiber.ErrNotFound
		}

		return c.Next()
	}
}

// AddPermissionsToLocals is a Fiber middleware that adds user permissions to fiber.Locals.
// This allows templates to access permissions for conditional rendering.
func AddPermissionsToLocals(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionData, err := session.Current(c)
		if err != nil {
			return c.Next()
		}

		permissions, err := authService.GetUserPermissions(sessionData.User.ID)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", sessionData.User.ID).
				Msg("Failed to get user permissions")

			return c.Next()
		}

		set := make(map[string]bool, len(permissions))
		for _, p := range permissions {
			set[p] = true
		}

		c.Locals("permissions", permissions)
		c.Locals("hasPermission", func(perm string) bool { return set[perm] })

		return c.Next()
	}
}
