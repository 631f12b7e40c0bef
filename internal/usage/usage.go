// Package usage builds the usage data report and sends the periodic usage ping.
package usage

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/gitforge-admin/gitforge-admin/internal/db/controller/appsetting"
	"github.com/gitforge-admin/gitforge-admin/internal/db/controller/project"
	"github.com/gitforge-admin/gitforge-admin/internal/db/models"
	"github.com/gitforge-admin/gitforge-admin/internal/integrations"
	"github.com/gitforge-admin/gitforge-admin/internal/version"
	"github.com/gitforge-admin/gitforge-admin/internal/visibility"
)

// DefaultEdition is reported when no installation type is configured.
const DefaultEdition = "gitforge-admin"

// Payload is the usage data report.
type Payload struct {
	UUID             string           `json:"uuid"`
	Hostname         string           `json:"hostname"`
	Version          string           `json:"version"`
	InstallationType string           `json:"installation_type"`
	ActiveUserCount  int64            `json:"active_user_count"`
	RecordedAt       time.Time        `json:"recorded_at"`
	Counts           map[string]int64 `json:"counts"`
	Settings         map[string]any   `json:"settings"`
}

// Collector reads the report data from the database.
type Collector struct {
	db       *gorm.DB
	settings *appsetting.Controller
	registry *integrations.Registry
	edition  string
	hostname string
	now      func() time.Time
}

// NewCollector creates a collector. An empty edition selects DefaultEdition.
func NewCollector(db *gorm.DB, settings *appsetting.Controller, registry *integrations.Registry,
	edition string,
) *Collector {
	if edition == "" {
		edition = DefaultEdition
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return &Collector{
		db:       db,
		settings: settings,
		registry: registry,
		edition:  edition,
		hostname: hostname,
		now:      time.Now,
	}
}

// Collect builds the report.
func (c *Collector) Collect(ctx context.Context) (*Payload, error) {
	s, err := c.settings.Current(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := c.counts(ctx)
	if err != nil {
		return nil, err
	}

	return &Payload{
		UUID:             s.UUID,
		Hostname:         c.hostname,
		Version:          version.Version,
		InstallationType: c.edition,
		ActiveUserCount:  counts["active_users"],
		RecordedAt:       c.now().UTC(),
		Counts:           counts,
		Settings: map[string]any{
			"signup_enabled":               s.SignupEnabled,
			"password_authentication":      s.PasswordAuthenticationEnabledForWeb,
			"usage_ping_enabled":           s.UsagePingEnabled,
			"version_check_enabled":        s.VersionCheckEnabled,
			"auto_devops_enabled":          s.AutoDevopsEnabled,
			"shared_runners_enabled":       s.SharedRunnersEnabled,
			"default_project_visibility":   s.DefaultProjectVisibility.String(),
			"restricted_visibility_levels": levelNames(s.RestrictedVisibilityLevels),
			"external_authorization":       s.ExternalAuthorizationServiceEnabled,
			"eks_integration_enabled":      s.EKSIntegrationEnabled,
			"metrics_enabled":              s.MetricsEnabled,
		},
	}, nil
}

func (c *Collector) counts(ctx context.Context) (map[string]int64, error) {
	db := c.db.WithContext(ctx)
	counts := make(map[string]int64)

	for name, q := range map[string]*gorm.DB{
		"users":               db.Model(&models.User{}),
		"active_users":        db.Model(&models.User{}).Where("active = ?", true),
		"projects":            db.Model(&models.Project{}),
		"integrations":        db.Model(&models.Integration{}),
		"active_integrations": db.Model(&models.Integration{}).Where("active = ?", true),
	} {
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", name, err)
		}

		counts[name] = n
	}

	byLevel, err := project.CountByVisibility(db)
	if err != nil {
		return nil, err
	}

	for _, l := range visibility.Levels() {
		counts["projects_"+l.String()] = byLevel[l]
	}

	for _, t := range c.registry.Types() {
		var n int64
		if err = db.Model(&models.Integration{}).Where("type = ? AND active = ?", t, true).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s integrations: %w", t, err)
		}

		counts["projects_"+t+"_active"] = n
	}

	return counts, nil
}

func levelNames(levels []visibility.Level) []string {
	out := make([]string, 0, len(levels))
	for _, l := range levels {
		out = append(out, l.String())
	}

	return out
}
