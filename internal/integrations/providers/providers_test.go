package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gitforge-admin/gitforge-admin/internal/config"
)

func TestRegistry(t *testing.T) {
	r := Registry(config.Integrations{})

	assert.Equal(t, []string{"datadog", "pivotaltracker", "powerdns"}, r.Types())

	titles := make([]string, 0, 3)
	for _, p := range r.All() {
		titles = append(titles, p.Title())
	}

	assert.Equal(t, []string{"Datadog", "PivotalTracker", "PowerDNS"}, titles)
}
