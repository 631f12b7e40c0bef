// Package providers assembles the project integration registry from the configuration.
package providers

import (
	"github.com/gitforge-admin/gitforge-admin/internal/config"
	"github.com/gitforge-admin/gitforge-admin/internal/integrations"
	"github.com/gitforge-admin/gitforge-admin/internal/integrations/datadog"
	"github.com/gitforge-admin/gitforge-admin/internal/integrations/pivotaltracker"
	"github.com/gitforge-admin/gitforge-admin/internal/integrations/powerdns"
)

// Registry returns every project level provider.
func Registry(cfg config.Integrations) *integrations.Registry {
	return integrations.NewRegistry(
		pivotaltracker.New(cfg.PivotalTrackerURL),
		datadog.New(""),
		powerdns.New(),
	)
}
