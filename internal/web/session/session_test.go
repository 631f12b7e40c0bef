package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitforge-admin/gitforge-admin/internal/db/models"
	"github.com/gitforge-admin/gitforge-admin/internal/web/session"
)

func TestFlashRoundTrip(t *testing.T) {
	session.Init(nil, time.Minute)

	id, err := session.GenerateSessionID()
	require.NoError(t, err)
	assert.Len(t, id, 64)

	data := &session.Data{User: models.User{ID: 7, Username: "root"}}
	require.NoError(t, data.Write(id, time.Minute))

	app := fiber.New()
	app.Post("/flash", func(c *fiber.Ctx) error {
		if err := session.AddFlash(c, session.FlashNotice, "saved"); err != nil {
			return err
		}

		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/flash", func(c *fiber.Ctx) error {
		flashes := session.PopFlashes(c)
		if len(flashes) == 0 {
			return c.SendString("none")
		}

		return c.SendString(flashes[0].Kind + ":" + flashes[0].Message)
	})

	do := func(method string) string {
		req := httptest.NewRequest(method, "/flash", nil)
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: id})

		resp, errTest := app.Test(req, -1)
		require.NoError(t, errTest)
		defer func() { _ = resp.Body.Close() }()

		buf := make([]byte, 64)
		n, _ := resp.Body.Read(buf)

		return string(buf[:n])
	}

	do(http.MethodPost)
	assert.Equal(t, "notice:saved", do(http.MethodGet))
	assert.Equal(t, "none", do(http.MethodGet))
}

func TestCurrentWithoutCookie(t *testing.T) {
	session.Init(nil, time.Minute)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		_, err := session.Current(c)
		require.ErrorIs(t, err, session.ErrNoSession)

		return session.AddFlash(c, session.FlashAlert, "x")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
