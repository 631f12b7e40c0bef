// Package powerdns manages review app DNS records on a PowerDNS authoritative server.
package powerdns

import (
	"context"
	"fmt"
	"net/http"

	"github.com/joeig/go-powerdns/v3"

	"github.com/gitforge-admin/gitforge-admin/internal/integrations"
)

const (
	// Type is the registry key.
	Type = "powerdns"

	// DefaultServerID is the virtual host of a stock PowerDNS server.
	DefaultServerID = "localhost"
)

// Provider lists the zones of the configured server.
type Provider struct{}

// New creates the provider.
func New() *Provider {
	return &Provider{}
}

// Type implements integrations.Provider.
func (p *Provider) Type() string { return Type }

// Title implements integrations.Provider.
func (p *Provider) Title() string { return "PowerDNS" }

// Description implements integrations.Provider.
func (p *Provider) Description() string {
	return "Publish review app DNS records through the PowerDNS HTTP API."
}

// Fields implements integrations.Provider.
func (p *Provider) Fields() []integrations.Field {
	return []integrations.Field{
		{
			Name:        "api_url",
			Title:       "API URL",
			Help:        "Base URL of the PowerDNS HTTP API.",
			Placeholder: "http://pdns.example.com:8081",
			Required:    true,
			Validate:    "url",
		},
		{
			Name:     "api_key",
			Title:    "API key",
			Help:     "Value of the api-key setting of the PowerDNS server.",
			Secret:   true,
			Required: true,
		},
		{
			Name:        "server_id",
			Title:       "Server ID",
			Help:        "Virtual host of the server, " + DefaultServerID + " when blank.",
			Placeholder: DefaultServerID,
		},
	}
}

// Endpoint implements integrations.Endpointer.
func (p *Provider) Endpoint(props map[string]string) string {
	return props["api_url"]
}

// Client returns a go-powerdns client for props.
func Client(props map[string]string) *powerdns.Client {
	vhost := props["server_id"]
	if vhost == "" {
		vhost = DefaultServerID
	}

	return powerdns.New(props["api_url"], vhost,
		powerdns.WithAPIKey(props["api_key"]),
		powerdns.WithHTTPClient(&http.Client{}),
	)
}

// Test implements integrations.Provider.
func (p *Provider) Test(ctx context.Context, props map[string]string) (string, error) {
	zones, err := Client(props).Zones.List(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", integrations.ErrTestFailed, err)
	}

	return fmt.Sprintf("%d zones", len(zones)), nil
}
