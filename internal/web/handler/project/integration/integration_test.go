package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gitforge-admin/gitforge-admin/internal/db/controller/project"
	"github.com/gitforge-admin/gitforge-admin/internal/db/models"
	"github.com/gitforge-admin/gitforge-admin/internal/integrations"
	"github.com/gitforge-admin/gitforge-admin/internal/testutil"
	"github.com/gitforge-admin/gitforge-admin/internal/web/handler/project/integration"
	"github.com/gitforge-admin/gitforge-admin/internal/web/session"
	"github.com/gitforge-admin/gitforge-admin/internal/web/webtest"
)

type env struct {
	app       *fiber.App
	db        *gorm.DB
	views     *testutil.Views
	svc       *integrations.Service
	good, bad *testutil.FakeProvider
	project   *models.Project
	owner     *http.Cookie
	developer *http.Cookie
	outsider  *http.Cookie
	admin     *http.Cookie
}

func setup(t *testing.T) *env {
	t.Helper()

	db := testutil.NewDB(t)
	good := &testutil.FakeProvider{Name: "good"}
	bad := &testutil.FakeProvider{Name: "bad", Err: fmt.Errorf("%w: invalid token", integrations.ErrTestFailed)}

	deps := webtest.Deps(t, db, good, bad)
	views := &testutil.Views{}
	app := webtest.App(deps, views)
	require.NoError(t, (&integration.Service{}).Init(app, deps))

	owner := testutil.CreateUser(t, db, "owner", testutil.RoleUser)
	developer := testutil.CreateUser(t, db, "developer", testutil.RoleUser)

	p := &models.Project{Name: "Alpha", Path: "alpha", CreatorID: owner.ID}
	require.NoError(t, project.Create(db, p))
	require.NoError(t, project.AddMember(db, p.ID, developer.ID, models.AccessDeveloper))

	return &env{
		app:       app,
		db:        db,
		views:     views,
		svc:       deps.Integrations,
		good:      good,
		bad:       bad,
		project:   p,
		owner:     testutil.SignIn(t, owner),
		developer: testutil.SignIn(t, developer),
		outsider:  testutil.SignIn(t, testutil.CreateUser(t, db, "outsider", testutil.RoleUser)),
		admin:     testutil.SignIn(t, testutil.CreateUser(t, db, "admin", testutil.RoleAdmin)),
	}
}

func (e *env) url(suffix string) string {
	return integration.URL(e.project.ID) + suffix
}

func (e *env) record(t *testing.T, typ string) *models.Integration {
	t.Helper()

	_, rec, err := e.svc.Find(context.Background(), e.project.ID, typ)
	require.NoError(t, err)

	return rec
}

func TestAccess(t *testing.T) {
	e := setup(t)

	for _, cookie := range []*http.Cookie{nil, e.developer, e.outsider} {
		for _, r := range []webtest.Request{
			{Path: e.url("")},
			{Path: e.url("/good/edit")},
			{Method: http.MethodPut, Path: e.url("/good/test"), Body: "integration%5Btoken%5D=t"},
			{Method: http.MethodPut, Path: e.url("/good"), Body: "integration%5Btoken%5D=t"},
		} {
			r.Cookie = cookie

			resp, _ := webtest.Do(t, e.app, r)
			assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, "%s %s", r.Method, r.Path)
		}
	}

	assert.Empty(t, e.good.Calls())
	assert.Zero(t, e.record(t, "good").ID)

	for _, cookie := range []*http.Cookie{e.owner, e.admin} {
		resp, _ := webtest.Do(t, e.app, webtest.Request{Path: e.url(""), Cookie: cookie})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, _ := webtest.Do(t, e.app, webtest.Request{Path: integration.URL(e.project.ID+100), Cookie: e.admin})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = webtest.Do(t, e.app, webtest.Request{Path: e.url("/unknown/edit"), Cookie: e.owner})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestList(t *testing.T) {
	e := setup(t)

	_, _, err := e.svc.Save(context.Background(), e.project.ID, "good", map[string]string{"token": "t"}, true)
	require.NoError(t, err)

	resp, _ := webtest.Do(t, e.app, webtest.Request{Path: e.url(""), Cookie: e.owner})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	r, ok := e.views.Last()
	require.True(t, ok)
	assert.Equal(t, integration.IndexTemplate, r.Name)

	statuses := r.Binding["Integrations"].([]integrations.Status)
	require.Len(t, statuses, 2)
	assert.Equal(t, "Fakebad", statuses[0].Provider.Title())
	assert.False(t, statuses[0].Configured)
	assert.Equal(t, "Fakegood", statuses[1].Provider.Title())
	assert.True(t, statuses[1].Active)

	resp, body := webtest.Do(t, e.app, webtest.Request{Path: e.url("?format=json"), Cookie: e.owner})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "good", list[1]["type"])
	assert.Equal(t, true, list[1]["active"])
}

func TestEditNeverShowsSecrets(t *testing.T) {
	e := setup(t)

	_, _, err := e.svc.Save(context.Background(), e.project.ID, "good",
		map[string]string{"token": "top-secret", "url": "https://example.com"}, true)
	require.NoError(t, err)

	resp, body := webtest.Do(t, e.app, webtest.Request{Path: e.url("/good/edit"), Cookie: e.owner})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "top-secret")

	r, _ := e.views.Last()
	assert.Equal(t, integration.EditTemplate, r.Name)
	assert.Equal(t, map[string]string{"url": "https://example.com"}, r.Binding["Values"])
	assert.Equal(t, true, r.Binding["Active"])
}

func TestTestAndActivate(t *testing.T) {
	e := setup(t)

	resp, _ := webtest.Do(t, e.app, webtest.Request{
		Method: http.MethodPut,
		Path:   e.url("/good/test"),
		Body:   url.Values{"integration[token]": {"secret"}, "integration[url]": {"https://example.com"}}.Encode(),
		Cookie: e.owner,
	})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, integration.EditURL(e.project.ID, "good"), resp.Header.Get(fiber.HeaderLocation))
	assert.Contains(t, testutil.Flashes(t, e.owner),
		session.Flash{Kind: session.FlashNotice, Message: "Fakegood activated."})

	rec := e.record(t, "good")
	assert.True(t, rec.Active)

	props, err := integrations.Properties(rec)
	require.NoError(t, err)
	assert.Equal(t, "secret", props["token"])

	require.Len(t, e.good.Calls(), 1)
}

func TestTestFailureStoresNothing(t *testing.T) {
	e := setup(t)

	resp, _ := webtest.Do(t, e.app, webtest.Request{
		Method: http.MethodPost,
		Path:   e.url("/bad/test"),
		Body:   url.Values{"integration[token]": {"wrong"}, "integration[url]": {"https://example.com"}}.Encode(),
		Cookie: e.owner,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	r, ok := e.views.Last()
	require.True(t, ok)
	assert.Equal(t, integration.EditTemplate, r.Name)

	result := r.Binding["Result"].(*integrations.Result)
	assert.True(t, result.Error)
	assert.Equal(t, "Test failed: invalid token", result.Message)
	assert.Empty(t, r.Binding["Values"], "unsaved credentials are discarded")

	assert.Zero(t, e.record(t, "bad").ID)
	assert.Empty(t, testutil.Flashes(t, e.owner))
}

func TestTestJSON(t *testing.T) {
	e := setup(t)

	resp, body := webtest.Do(t, e.app, webtest.Request{
		Method:      http.MethodPut,
		Path:        e.url("/bad/test"),
		Body:        `{"integration":{"token":"wrong"}}`,
		ContentType: fiber.MIMEApplicationJSON,
		Cookie:      e.owner,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result integrations.Result
	require.NoError(t, json.Unmarshal([]byte(body), &result))
	assert.True(t, result.Error)
	assert.Equal(t, "Test failed: invalid token", result.Message)
	assert.Equal(t, "rejected", result.ServiceResponse)

	resp, body = webtest.Do(t, e.app, webtest.Request{
		Method:      http.MethodPut,
		Path:        e.url("/good/test"),
		Body:        `{"integration":{"url":"not a url"}}`,
		ContentType: fiber.MIMEApplicationJSON,
		Cookie:      e.owner,
	})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	require.NoError(t, json.Unmarshal([]byte(body), &result))
	assert.Equal(t, "Validations failed.", result.Message)
	assert.Equal(t, "token can't be blank, url is invalid", result.ServiceResponse)
	assert.Empty(t, e.good.Calls())

	resp, body = webtest.Do(t, e.app, webtest.Request{
		Method:      http.MethodPut,
		Path:        e.url("/good/test"),
		Body:        `{"integration":{"token":"secret"}}`,
		ContentType: fiber.MIMEApplicationJSON,
		Cookie:      e.owner,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal([]byte(body), &result))
	assert.False(t, result.Error)
	assert.Equal(t, "Fakegood activated.", result.Message)
	assert.Equal(t, "ok", result.ServiceResponse)
}

func TestUpdate(t *testing.T) {
	e := setup(t)

	resp, _ := webtest.Do(t, e.app, webtest.Request{
		Method: http.MethodPut,
		Path:   e.url("/good"),
		Body:   url.Values{"integration[url]": {"https://example.com"}, "integration[active]": {"0"}}.Encode(),
		Cookie: e.owner,
	})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Contains(t, testutil.Flashes(t, e.owner),
		session.Flash{Kind: session.FlashNotice, Message: "Fakegood settings saved, but not activated."})
	assert.False(t, e.record(t, "good").Active)

	resp, _ = webtest.Do(t, e.app, webtest.Request{
		Method: http.MethodPut,
		Path:   e.url("/good"),
		Body:   url.Values{"integration[active]": {"0", "1"}}.Encode(),
		Cookie: e.owner,
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	r, _ := e.views.Last()
	assert.Equal(t, integrations.Errors{"token": {"can't be blank"}}, r.Binding["Errors"])
	assert.False(t, e.record(t, "good").Active)

	resp, _ = webtest.Do(t, e.app, webtest.Request{
		Method: http.MethodPut,
		Path:   e.url("/good"),
		Body:   url.Values{"integration[token]": {"secret"}, "integration[active]": {"0", "1"}}.Encode(),
		Cookie: e.owner,
	})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Contains(t, testutil.Flashes(t, e.owner),
		session.Flash{Kind: session.FlashNotice, Message: "Fakegood settings saved and active."})
	assert.True(t, e.record(t, "good").Active)
	assert.Empty(t, e.good.Calls(), "saving never calls the provider")
}
