package testutil

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gitforge-admin/gitforge-admin/internal/auth"
	"github.com/gitforge-admin/gitforge-admin/internal/db/models"
	"github.com/gitforge-admin/gitforge-admin/internal/web/session"
)

const (
	// RoleAdmin is the seeded admin role.
	RoleAdmin = auth.RoleAdmin
	// RoleUser is the seeded regular user role.
	RoleUser = auth.RoleUser

	// Password of every user created by CreateUser.
	Password = "password123"
)

// CreateUser seeds the default roles and creates an active user with role roleName.
func CreateUser(t *testing.T, db *gorm.DB, username, roleName string) *models.User {
	t.Helper()

	require.NoError(t, auth.EnsureDefaultRoles(db))

	role, err := auth.RoleByName(db, roleName)
	require.NoError(t, err)

	user, err := auth.NewLocalProvider(db).CreateUser(username, username+"@example.com", Password, username, role.ID)
	require.NoError(t, err)

	return user
}

// SignIn stores a session for user in the global session store and returns its cookie.
// The store is initialised with fiber's memory storage when needed.
func SignIn(t *testing.T, user *models.User) *http.Cookie {
	t.Helper()

	if session.Store == nil {
		session.Init(nil, time.Hour)
	}

	id, err := session.GenerateSessionID()
	require.NoError(t, err)

	require.NoError(t, (&session.Data{User: *user}).Write(id, time.Hour))

	return &http.Cookie{Name: session.CookieName, Value: id}
}

// Flashes returns the queued flash messages of the session behind cookie.
func Flashes(t *testing.T, cookie *http.Cookie) []session.Flash {
	t.Helper()

	data := new(session.Data)
	require.NoError(t, data.Read(cookie.Value))

	return data.Flashes
}
