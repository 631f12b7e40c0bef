package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	fiberlogger "github.com/gitforge-admin/gitforge-admin/internal/logger/adapter/fiber"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler/login"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler/logout"
	"github.com/gitforge-admin/gitforge-admin/internal/web/session"
)

// LocalsCurrentUser is the fiber.Locals key of the signed in user.
const LocalsCurrentUser = "CurrentUser"

// MetricsPath is served without a session.
const MetricsPath = "/metrics"

// hidden areas answer 404 through their own permission checks.
var hiddenPrefixes = []string{"/admin", "/projects"} //nolint:gochecknoglobals

// Middleware is a Fiber middleware that checks for user authentication.
func Middleware(c *fiber.Ctx) error {
	p := strings.ToLower(c.Path())

	if strings.HasPrefix(p, "/static") || IsLogoutPage(c) || p == MetricsPath {
		return c.Next()
	}

	sessData, err := session.Current(c)
	if err != nil {
		if IsLoginPage(c) || isHidden(p) {
			return c.Next()
		}

		return c.Redirect(login.Path)
	}

	c.Locals(LocalsCurrentUser, sessData.User)
	c.Locals(fiberlogger.LocalsUsername, sessData.User.Username)

	if IsLoginPage(c) {
		return c.Redirect(handler.HomePath)
	}

	return c.Next()
}

func isHidden(p string) bool {
	for _, prefix := range hiddenPrefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}

	return false
}

// IsLoginPage checks if the current request is for the login page.
func IsLoginPage(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Path()), login.Path)
}

// IsLogoutPage checks if the current request is for the logout page.
func IsLogoutPage(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Path()), logout.Path)
}
