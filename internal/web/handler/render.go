package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gitforge-admin/gitforge-admin/internal/web/session"
)

// Render renders name inside the base layout. It adds the signed in user, the
// permission helpers and the pending flash messages to bind.
func Render(c *fiber.Ctx, name string, bind fiber.Map) error {
	if bind == nil {
		bind = fiber.Map{}
	}

	if data, err := session.Current(c); err == nil {
		bind["CurrentUser"] = data.User
	}

	if perms := c.Locals("permissions"); perms != nil {
		bind["Permissions"] = perms
	}

	bind["Flashes"] = session.PopFlashes(c)

	return c.Render(name, bind, BaseLayout)
}

// WantsJSON reports whether the client asked for JSON through the format query,
// a .json path suffix, the Accept header or a JSON request body.
func WantsJSON(c *fiber.Ctx) bool {
	switch strings.ToLower(c.Query("format")) {
	case "json":
		return true
	case "html":
		return false
	}

	if strings.HasSuffix(c.Path(), ".json") {
		return true
	}

	if c.Get(fiber.HeaderAccept) != "" &&
		c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON {
		return true
	}

	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) &&
		c.Get(fiber.HeaderAccept) == ""
}

// Flash queues a message for the next page, failures are ignored.
func Flash(c *fiber.Ctx, kind, message string) {
	_ = session.AddFlash(c, kind, message) //nolint:errcheck // no session means no page to show it on
}
