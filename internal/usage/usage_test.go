package usage

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gitforge-admin/gitforge-admin/internal/db/controller/appsetting"
	"github.com/gitforge-admin/gitforge-admin/internal/db/controller/project"
	"github.com/gitforge-admin/gitforge-admin/internal/db/models"
	"github.com/gitforge-admin/gitforge-admin/internal/integrations"
	"github.com/gitforge-admin/gitforge-admin/internal/testutil"
	"github.com/gitforge-admin/gitforge-admin/internal/version"
	"github.com/gitforge-admin/gitforge-admin/internal/visibility"
)

func seed(t *testing.T) (*gorm.DB, *Collector, *appsetting.Controller) {
	t.Helper()

	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "alice", testutil.RoleAdmin)
	bob := testutil.CreateUser(t, db, "bob", testutil.RoleUser)
	require.NoError(t, db.Model(bob).Update("active", false).Error)

	for i, l := range []visibility.Level{visibility.Public, visibility.Public, visibility.Private} {
		p := &models.Project{Name: "p", Path: "group/p" + string(rune('a'+i)), Visibility: l}
		require.NoError(t, project.Create(db, p))

		if i == 0 {
			require.NoError(t, db.Create(&models.Integration{ProjectID: p.ID, Type: "fake", Active: true}).Error)
		}
	}

	settings := appsetting.New(db, nil)
	registry := integrations.NewRegistry(&testutil.FakeProvider{Name: "fake"})

	c := NewCollector(db, settings, registry, "")
	c.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	return db, c, settings
}

func TestCollect(t *testing.T) {
	_, c, settings := seed(t)

	p, err := c.Collect(context.Background())
	require.NoError(t, err)

	s, err := settings.Current(context.Background())
	require.NoError(t, err)

	assert.Equal(t, s.UUID, p.UUID)
	assert.Equal(t, version.Version, p.Version)
	assert.Equal(t, DefaultEdition, p.InstallationType)
	assert.Equal(t, int64(1), p.ActiveUserCount)
	assert.Equal(t, "2026-01-02T03:04:05Z", p.RecordedAt.Format(time.RFC3339))

	assert.Equal(t, map[string]int64{
		"users":                2,
		"active_users":         1,
		"projects":             3,
		"projects_private":     1,
		"projects_internal":    0,
		"projects_public":      2,
		"integrations":         1,
		"active_integrations":  1,
		"projects_fake_active": 1,
	}, p.Counts)

	assert.Equal(t, "private", p.Settings["default_project_visibility"])
}

func TestJSONAndHTML(t *testing.T) {
	_, c, _ := seed(t)

	p, err := c.Collect(context.Background())
	require.NoError(t, err)

	raw, err := JSON(p)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "version")
	assert.Contains(t, decoded, "counts")

	out, err := HTML(p)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<span"), out[:20])
	assert.NotContains(t, out, "<pre")
	assert.Contains(t, out, "active_user_count")

	css, err := CSS()
	require.NoError(t, err)
	assert.NotEmpty(t, css)
}

func TestPing(t *testing.T) {
	_, c, settings := seed(t)
	reg := prometheus.NewRegistry()

	p, err := NewPinger(c, settings, reg)
	require.NoError(t, err)

	sent, err := p.Ping(context.Background())
	require.NoError(t, err)
	assert.True(t, sent)
	assert.InDelta(t, 3.0, promtestutil.ToFloat64(p.counts.WithLabelValues("projects")), 0)
	assert.InDelta(t, float64(c.now().Unix()), promtestutil.ToFloat64(p.lastPing), 0)

	_, errs, err := settings.Update(context.Background(), map[string]any{"usage_ping_enabled": "0"})
	require.NoError(t, err)
	require.Empty(t, errs)

	sent, err = p.Ping(context.Background())
	require.NoError(t, err)
	assert.False(t, sent)

	_, err = NewPinger(c, settings, reg)
	require.Error(t, err, "gauges can only be registered once")
}

func TestPingerStart(t *testing.T) {
	_, c, settings := seed(t)

	p, err := NewPinger(c, settings, prometheus.NewRegistry())
	require.NoError(t, err)

	require.Error(t, p.Start("not a schedule"))
	require.NoError(t, p.Start("@every 1h"))
	p.Stop()
}
