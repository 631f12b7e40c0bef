package auth_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitforge-admin/gitforge-admin/internal/auth"
	"github.com/gitforge-admin/gitforge-admin/internal/db/controller/project"
	"github.com/gitforge-admin/gitforge-admin/internal/db/models"
	"github.com/gitforge-admin/gitforge-admin/internal/testutil"
)

func TestEnsureDefaultRolesIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)

	require.NoError(t, auth.EnsureDefaultRoles(db))
	require.NoError(t, auth.EnsureDefaultRoles(db))

	var roles, perms, links int64
	require.NoError(t, db.Model(&models.Role{}).Count(&roles).Error)
	require.NoError(t, db.Model(&models.Permission{}).Count(&perms).Error)
	require.NoError(t, db.Model(&models.RolePermission{}).Count(&links).Error)

	assert.Equal(t, int64(2), roles)
	assert.Equal(t, int64(4), perms)
	assert.Equal(t, int64(5), links)

	_, err := auth.RoleByName(db, "nobody")
	require.ErrorIs(t, err, auth.ErrRoleNotFound)
}

func TestPermissions(t *testing.T) {
	db := testutil.NewDB(t)
	admin := testutil.CreateUser(t, db, "root", testutil.RoleAdmin)
	user := testutil.CreateUser(t, db, "alice", testutil.RoleUser)
	svc := auth.NewService(db)

	ok, err := svc.HasPermission(admin.ID, auth.PermAdminSettings)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasPermission(user.ID, auth.PermAdminSettings)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.HasAnyPermission(user.ID, []string{auth.PermAdminRunners, auth.PermDashboardView})
	require.NoError(t, err)
	assert.True(t, ok)

	perms, err := svc.GetUserPermissions(user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{auth.PermDashboardView}, perms)

	// inactive users lose every permission
	require.NoError(t, db.Model(admin).Update("active", false).Error)

	ok, err = svc.HasPermission(admin.ID, auth.PermAdminSettings)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanMaintainProject(t *testing.T) {
	db := testutil.NewDB(t)
	admin := testutil.CreateUser(t, db, "root", testutil.RoleAdmin)
	owner := testutil.CreateUser(t, db, "alice", testutil.RoleUser)
	dev := testutil.CreateUser(t, db, "bob", testutil.RoleUser)
	svc := auth.NewService(db)

	p := &models.Project{Name: "Alpha", Path: "alpha", CreatorID: owner.ID}
	require.NoError(t, project.Create(db, p))
	require.NoError(t, project.AddMember(db, p.ID, dev.ID, models.AccessDeveloper))

	for _, tc := range []struct {
		user *models.User
		want bool
	}{
		{admin, true},
		{owner, true},
		{dev, false},
	} {
		ok, err := svc.CanMaintainProject(tc.user.ID, p.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, tc.user.Username)
	}

	require.NoError(t, project.AddMember(db, p.ID, dev.ID, models.AccessMaintainer))

	ok, err := svc.CanMaintainProject(dev.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalProvider(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "alice", testutil.RoleUser)
	lp := auth.NewLocalProvider(db)

	got, err := lp.Authenticate("alice", testutil.Password)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotNil(t, got.LastSignInAt)

	_, err = lp.Authenticate("alice", "wrong")
	require.ErrorIs(t, err, auth.ErrInvalidPassword)

	_, err = lp.Authenticate("nobody", "x")
	require.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = lp.CreateUser("alice", "other@example.com", "x", "", user.RoleID)
	require.ErrorIs(t, err, auth.ErrUserNameOrEmailExists)

	require.NoError(t, lp.ResetPassword("alice", "new-secret"))
	_, err = lp.Authenticate("alice", "new-secret")
	require.NoError(t, err)
	require.ErrorIs(t, lp.ResetPassword("nobody", "x"), auth.ErrUserNotFound)

	require.NoError(t, db.Model(user).Update("active", false).Error)
	_, err = lp.Authenticate("alice", "new-secret")
	require.ErrorIs(t, err, auth.ErrUserAccountDisabled)
}

func TestMiddlewareHidesRoutes(t *testing.T) {
	db := testutil.NewDB(t)
	admin := testutil.CreateUser(t, db, "root", testutil.RoleAdmin)
	user := testutil.CreateUser(t, db, "alice", testutil.RoleUser)
	svc := auth.NewService(db)

	p := &models.Project{Name: "Alpha", Path: "alpha", CreatorID: user.ID}
	require.NoError(t, project.Create(db, p))

	app := fiber.New()
	app.Use(auth.AddPermissionsToLocals(svc))
	app.Get("/admin", auth.RequirePermission(svc, auth.PermAdminSettings), func(c *fiber.Ctx) error {
		perms, _ := c.Locals("permissions").([]string)
		return c.SendString(strconv.Itoa(len(perms)))
	})
	app.Get("/projects/:project_id", auth.RequireProjectMaintainer(svc, "project_id"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	do := func(path string, cookie *http.Cookie) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		return resp.StatusCode
	}

	adminCookie := testutil.SignIn(t, admin)
	userCookie := testutil.SignIn(t, user)
	projectPath := "/projects/" + strconv.FormatUint(p.ID, 10)

	assert.Equal(t, fiber.StatusNotFound, do("/admin", nil))
	assert.Equal(t, fiber.StatusNotFound, do("/admin", userCookie))
	assert.Equal(t, fiber.StatusOK, do("/admin", adminCookie))

	assert.Equal(t, fiber.StatusNotFound, do(projectPath, nil))
	assert.Equal(t, fiber.StatusOK, do(projectPath, userCookie))
	assert.Equal(t, fiber.StatusOK, do(projectPath, adminCookie))
	assert.Equal(t, fiber.StatusNotFound, do("/projects/abc", adminCookie))
}
