// Package auth provides the session middleware of the web application.
//
// Unauthenticated requests are redirected to the login page, except for static
// files, the login and logout pages, the metrics endpoint and the admin and project
// areas. Those areas answer 404 on their own so their existence is not revealed.
// Signed in users get the current user in fiber.Locals for templates and the
// access log.
//
// Usage:
//
//	app.Use(authmiddleware.Middleware)
package auth
