package web_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitforge-admin/gitforge-admin/internal/testutil"
	"github.com/gitforge-admin/gitforge-admin/internal/web"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler"
	"github.com/gitforge-admin/gitforge-admin/internal/web/webtest"
)

func TestNew(t *testing.T) {
	db := testutil.NewDB(t)
	deps := webtest.Deps(t, db, &testutil.FakeProvider{Name: "fake"})

	svc, err := web.New(deps, &testutil.Views{})
	require.NoError(t, err)

	admin := testutil.SignIn(t, testutil.CreateUser(t, db, "admin", testutil.RoleAdmin))

	testCases := []struct {
		name     string
		req      webtest.Request
		status   int
		location string
		contains string
	}{
		{name: "root", req: webtest.Request{Path: "/", Cookie: admin}, status: fiber.StatusFound, location: handler.HomePath},
		{name: "anonymous dashboard", req: webtest.Request{Path: "/dashboard"}, status: fiber.StatusFound, location: "/login"},
		{name: "anonymous admin", req: webtest.Request{Path: "/admin/application_settings/general"}, status: fiber.StatusNotFound},
		{name: "anonymous project", req: webtest.Request{Path: "/projects/1/integrations"}, status: fiber.StatusNotFound},
		{name: "admin settings", req: webtest.Request{Path: "/admin/application_settings/general", Cookie: admin}, status: fiber.StatusOK},
		{name: "runners", req: webtest.Request{Path: "/admin/runners", Cookie: admin}, status: fiber.StatusOK},
		{name: "login", req: webtest.Request{Path: "/login"}, status: fiber.StatusOK},
		{name: "checkalive", req: webtest.Request{Path: web.CheckAlivePath}, status: fiber.StatusOK, contains: "OK"},
		{name: "metrics", req: webtest.Request{Path: "/metrics"}, status: fiber.StatusOK, contains: "go_goroutines"},
		{name: "highlight css", req: webtest.Request{Path: web.HighlightCSSPath}, status: fiber.StatusOK, contains: ".chroma"},
		{name: "static css", req: webtest.Request{Path: "/static/css/app.css"}, status: fiber.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := webtest.Do(t, svc.App, tc.req)
			require.Equal(t, tc.status, resp.StatusCode)

			if tc.location != "" {
				assert.Equal(t, tc.location, resp.Header.Get(fiber.HeaderLocation))
			}

			if tc.contains != "" {
				assert.Contains(t, body, tc.contains)
			}
		})
	}
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := web.New(nil, nil)
	require.ErrorIs(t, err, handler.ErrNilDeps)
}
