// Package datadog sends pipeline events to Datadog.
package datadog

import (
	"context"
	"fmt"
	"net/http"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV1"

	"github.com/gitforge-admin/gitforge-admin/internal/integrations"
)

const (
	// Type is the registry key.
	Type = "datadog"

	// DefaultSite is used when no site is configured.
	DefaultSite = "datadoghq.com"
)

// Provider validates the API key against the Datadog API.
type Provider struct {
	// serverURL replaces the site based API URL when set.
	serverURL string
}

// New creates the provider. serverURL overrides the site based API URL and is meant for tests.
func New(serverURL string) *Provider {
	return &Provider{serverURL: serverURL}
}

// Type implements integrations.Provider.
func (p *Provider) Type() string { return Type }

// Title implements integrations.Provider.
func (p *Provider) Title() string { return "Datadog" }

// Description implements integrations.Provider.
func (p *Provider) Description() string {
	return "Trace your pipelines with Datadog."
}

// Fields implements integrations.Provider.
func (p *Provider) Fields() []integrations.Field {
	return []integrations.Field{
		{
			Name:     "api_key",
			Title:    "API key",
			Help:     "API key used for authentication with Datadog.",
			Secret:   true,
			Required: true,
		},
		{
			Name:        "datadog_site",
			Title:       "Datadog site",
			Help:        "The Datadog site to send data to, " + DefaultSite + " when blank.",
			Placeholder: "datadoghq.eu",
			Validate:    "hostname",
		},
	}
}

// Endpoint implements integrations.Endpointer.
func (p *Provider) Endpoint(props map[string]string) string {
	if p.serverURL != "" {
		return p.serverURL
	}

	return "https://api." + site(props)
}

func site(props map[string]string) string {
	if s := props["datadog_site"]; s != "" {
		return s
	}

	return DefaultSite
}

// Test implements integrations.Provider.
func (p *Provider) Test(ctx context.Context, props map[string]string) (string, error) {
	cfg := datadog.NewConfiguration()
	cfg.HTTPClient = &http.Client{}

	if p.serverURL != "" {
		cfg.Servers = datadog.ServerConfigurations{{URL: p.serverURL, Description: "override"}}
	}

	ctx = context.WithValue(ctx, datadog.ContextAPIKeys, map[string]datadog.APIKey{
		"apiKeyAuth": {Key: props["api_key"]},
	})
	ctx = context.WithValue(ctx, datadog.ContextServerVariables, map[string]string{"site": site(props)})

	resp, httpResp, err := datadogV1.NewAuthenticationApi(datadog.NewAPIClient(cfg)).Validate(ctx)
	if httpResp != nil && httpResp.Body != nil {
		_ = httpResp.Body.Close()
	}

	if err != nil {
		return "", fmt.Errorf("%w: %w", integrations.ErrTestFailed, err)
	}

	if !resp.GetValid() {
		return "", fmt.Errorf("%w: API key is not valid", integrations.ErrTestFailed)
	}

	return "API key is valid", nil
}
