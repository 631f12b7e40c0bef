// Package pivotaltracker links commits to PivotalTracker stories.
package pivotaltracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gitforge-admin/gitforge-admin/internal/integrations"
)

const (
	// Type is the registry key.
	Type = "pivotaltracker"

	// DefaultURL is the public PivotalTracker API.
	DefaultURL = "https://www.pivotaltracker.com"

	sourceCommitsPath = "/services/v5/source_commits"
	tokenHeader       = "X-TrackerToken"
)

// Provider posts a test source commit with the project token.
type Provider struct {
	baseURL string
}

// New creates the provider for the API at baseURL, DefaultURL when empty.
func New(baseURL string) *Provider {
	if baseURL == "" {
		baseURL = DefaultURL
	}

	return &Provider{baseURL: strings.TrimRight(baseURL, "/")}
}

// Type implements integrations.Provider.
func (p *Provider) Type() string { return Type }

// Title implements integrations.Provider.
func (p *Provider) Title() string { return "PivotalTracker" }

// Description implements integrations.Provider.
func (p *Provider) Description() string {
	return "Add commit messages as comments to PivotalTracker stories."
}

// Fields implements integrations.Provider.
func (p *Provider) Fields() []integrations.Field {
	return []integrations.Field{
		{
			Name:     "token",
			Title:    "Token",
			Help:     "The PivotalTracker API token of the user posting the comments.",
			Secret:   true,
			Required: true,
		},
		{
			Name:        "restrict_to_branch",
			Title:       "Restrict to branch",
			Help:        "Comma separated branch names. Leave blank to include all branches.",
			Placeholder: "main, release",
		},
	}
}

type sourceCommit struct {
	CommitID string `json:"commit_id"`
	Message  string `json:"message"`
	Author   string `json:"author"`
	URL      string `json:"url"`
}

// Test implements integrations.Provider.
func (p *Provider) Test(ctx context.Context, props map[string]string) (string, error) {
	agent := fiber.Post(p.baseURL + sourceCommitsPath)
	agent.Set(tokenHeader, props["token"])
	agent.JSON(map[string]sourceCommit{
		"source_commit": {
			CommitID: "0000000000000000000000000000000000000000",
			Message:  "Test from GitForge-Admin",
			Author:   "GitForge-Admin",
		},
	})

	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	}

	if err := agent.Parse(); err != nil {
		return "", fmt.Errorf("%w: %w", integrations.ErrTestFailed, err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("%w: %w", integrations.ErrTestFailed, errs[0])
	}

	response := fmt.Sprintf("HTTP %d", code)
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return strings.TrimSpace(string(body)), fmt.Errorf("%w: %s", integrations.ErrTestFailed, response)
	}

	return response, nil
}
