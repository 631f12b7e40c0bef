// Package webtest builds fiber apps with test dependencies for handler tests.
package webtest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gitforge-admin/gitforge-admin/internal/auth"
	"github.com/gitforge-admin/gitforge-admin/internal/cache"
	"github.com/gitforge-admin/gitforge-admin/internal/config"
	"github.com/gitforge-admin/gitforge-admin/internal/db/controller/appsetting"
	"github.com/gitforge-admin/gitforge-admin/internal/integrations"
	"github.com/gitforge-admin/gitforge-admin/internal/testutil"
	"github.com/gitforge-admin/gitforge-admin/internal/usage"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler"
	"github.com/gitforge-admin/gitforge-admin/internal/web/session"
)

// Config returns a configuration suitable for handler tests.
func Config() *config.Config {
	return &config.Config{
		Webserver: config.Webserver{
			URL:     "http://localhost",
			Port:    3000,
			Session: config.Session{ExpiryTime: time.Hour},
		},
		Integrations: config.Integrations{TestTimeout: 5 * time.Second},
	}
}

// Deps returns handler dependencies on db with the given project providers.
// The global session store falls back to fiber's memory storage.
func Deps(t *testing.T, db *gorm.DB, providers ...integrations.Provider) *handler.Deps {
	t.Helper()

	if session.Store == nil {
		session.Init(nil, time.Hour)
	}

	registry := integrations.NewRegistry(providers...)
	settings := appsetting.New(db, cache.NewMemory(4, 0)) //nolint:mnd

	return &handler.Deps{
		Cfg:          Config(),
		DB:           db,
		Auth:         auth.NewService(db),
		Settings:     settings,
		Integrations: integrations.NewService(db, registry, 5*time.Second, //nolint:mnd
			integrations.WithAllowlist(settings.OutboundAllowlist)),
		Usage:        usage.NewCollector(db, settings, registry, ""),
	}
}

// App returns a fiber app rendering into views with the permission locals installed.
func App(deps *handler.Deps, views *testutil.Views) *fiber.App {
	app := fiber.New(fiber.Config{Views: views})
	app.Use(auth.AddPermissionsToLocals(deps.Auth))

	return app
}

// Request describes one test request.
type Request struct {
	Method      string
	Path        string
	Body        string
	ContentType string
	Accept      string
	Referer     string
	Cookie      *http.Cookie
}

// Do sends r to app and returns the response and its body.
func Do(t *testing.T, app *fiber.App, r Request) (*http.Response, string) {
	t.Helper()

	if r.Method == "" {
		r.Method = http.MethodGet
	}

	req := httptest.NewRequest(r.Method, r.Path, strings.NewReader(r.Body))

	if r.ContentType != "" {
		req.Header.Set(fiber.HeaderContentType, r.ContentType)
	} else if r.Body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}

	if r.Accept != "" {
		req.Header.Set(fiber.HeaderAccept, r.Accept)
	}

	if r.Referer != "" {
		req.Header.Set(fiber.HeaderReferer, r.Referer)
	}

	if r.Cookie != nil {
		req.AddCookie(r.Cookie)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, string(body)
}
