package testutil

import (
	"context"
	"sync"

	"github.com/gitforge-admin/gitforge-admin/internal/integrations"
)

// FakeProvider is an integrations.Provider whose test outcome is set by the test.
type FakeProvider struct {
	Name string
	Err  error

	mu    sync.Mutex
	calls []map[string]string
}

// Type implements integrations.Provider.
func (f *FakeProvider) Type() string { return f.Name }

// Title implements integrations.Provider.
func (f *FakeProvider) Title() string { return "Fake" + f.Name }

// Description implements integrations.Provider.
func (f *FakeProvider) Description() string { return "fake provider" }

// Fields implements integrations.Provider.
func (f *FakeProvider) Fields() []integrations.Field {
	return []integrations.Field{
		{Name: "token", Title: "Token", Secret: true, Required: true},
		{Name: "url", Title: "URL", Validate: "url"},
	}
}

// Test implements integrations.Provider and records props.
func (f *FakeProvider) Test(_ context.Context, props map[string]string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, props)
	f.mu.Unlock()

	if f.Err != nil {
		return "rejected", f.Err
	}

	return "ok", nil
}

// Calls returns the props of every test call.
func (f *FakeProvider) Calls() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]map[string]string(nil), f.calls...)
}
