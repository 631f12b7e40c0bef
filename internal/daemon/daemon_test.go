package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitforge-admin/gitforge-admin/internal/auth"
	"github.com/gitforge-admin/gitforge-admin/internal/cache"
	"github.com/gitforge-admin/gitforge-admin/internal/config"
	"github.com/gitforge-admin/gitforge-admin/internal/db/models"
	"github.com/gitforge-admin/gitforge-admin/internal/testutil"
)

func TestSeed(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, auth.EnsureDefaultRoles(db))

	require.NoError(t, seed(db))
	require.NoError(t, seed(db))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, defaultAdminUser, users[0].Username)

	user, err := auth.NewLocalProvider(db).Authenticate(defaultAdminUser, defaultAdminPassword)
	require.NoError(t, err)

	ok, err := auth.NewService(db).HasPermission(user.ID, auth.PermAdminSettings)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeps(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := &config.Config{Integrations: config.Integrations{TestTimeout: time.Second}}

	deps, err := Deps(context.Background(), cfg, db, cache.None{})
	require.NoError(t, err)
	assert.True(t, deps.Valid())
	assert.NotNil(t, deps.EKS)
	assert.Equal(t, []string{"datadog", "pivotaltracker", "powerdns"}, deps.Integrations.Registry().Types())

	s, err := deps.Settings.Current(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, s.UUID)
}

func TestSessionStorage(t *testing.T) {
	assert.Nil(t, sessionStorage(&config.Config{DB: config.DB{GormEngine: config.EngineSQLite}}))
}
