package integrations_test

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitforge-admin/gitforge-admin/internal/db/controller/project"
	"github.com/gitforge-admin/gitforge-admin/internal/db/models"
	"github.com/gitforge-admin/gitforge-admin/internal/integrations"
	"github.com/gitforge-admin/gitforge-admin/internal/testutil"
)

// endpointProvider calls the URL submitted in its url property.
type endpointProvider struct {
	*testutil.FakeProvider
}

func (p endpointProvider) Endpoint(props map[string]string) string { return props["url"] }

type staticResolver map[string][]netip.Addr

func (r staticResolver) LookupNetIP(_ context.Context, _, host string) ([]netip.Addr, error) {
	addrs, ok := r[host]
	if !ok {
		return nil, fmt.Errorf("no such host %s", host)
	}

	return addrs, nil
}

func TestTestAndActivateRefusesLocalEndpoints(t *testing.T) {
	resolver := staticResolver{
		"pdns.internal":   {netip.MustParseAddr("192.168.1.10")},
		"dns.example.com": {netip.MustParseAddr("203.0.113.5")},
	}

	testCases := []struct {
		name    string
		url     string
		allow   []string
		refused bool
	}{
		{name: "loopback", url: "http://127.0.0.1:8081", refused: true},
		{name: "ipv6 loopback", url: "http://[::1]:8081", refused: true},
		{name: "private network", url: "http://10.1.2.3", refused: true},
		{name: "link local", url: "http://169.254.169.254/latest", refused: true},
		{name: "host resolving to private address", url: "http://pdns.internal:8081", refused: true},
		{name: "public address", url: "https://dns.example.com"},
		{name: "allowlisted address", url: "http://127.0.0.1:8081", allow: []string{"127.0.0.1"}},
		{name: "allowlisted range", url: "http://10.1.2.3", allow: []string{"10.0.0.0/8"}},
		{name: "allowlisted host", url: "http://pdns.internal:8081", allow: []string{"pdns.internal"}},
		{name: "allowlisted wildcard", url: "http://pdns.internal:8081", allow: []string{"*.internal"}},
		{name: "other entries do not match", url: "http://10.1.2.3", allow: []string{"192.168.0.0/16"}, refused: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db := testutil.NewDB(t)

			p := &models.Project{Name: "Flight", Path: "acme/flight"}
			require.NoError(t, project.Create(db, p))

			fake := &testutil.FakeProvider{Name: "fake"}
			svc := integrations.NewService(db, integrations.NewRegistry(endpointProvider{fake}), time.Second,
				integrations.WithResolver(resolver),
				integrations.WithAllowlist(func(context.Context) ([]string, error) { return tc.allow, nil }),
			)

			res, errs, err := svc.TestAndActivate(context.Background(), p.ID, "fake",
				map[string]string{"token": "secret", "url": tc.url})
			require.NoError(t, err)
			require.Empty(t, errs)

			if !tc.refused {
				assert.False(t, res.Error, res.Message)
				assert.Len(t, fake.Calls(), 1)

				return
			}

			assert.True(t, res.Error)
			assert.Contains(t, res.Message, "Test failed: requests to the local network are not allowed")
			assert.Empty(t, fake.Calls(), "no call may reach the endpoint")

			rec, _ := stored(t, db, p.ID)
			assert.Nil(t, rec, "nothing may be persisted")
		})
	}
}

func TestProvidersWithoutEndpointAreNotChecked(t *testing.T) {
	svc, fake, _, projectID := setup(t, nil)

	res, _, err := svc.TestAndActivate(context.Background(), projectID, "fake",
		map[string]string{"token": "secret", "url": "http://127.0.0.1"})
	require.NoError(t, err)
	assert.False(t, res.Error)
	assert.Len(t, fake.Calls(), 1)
}

// barrierProvider holds every test call until two of them arrived.
type barrierProvider struct {
	*testutil.FakeProvider

	arrived sync.WaitGroup
}

func (p *barrierProvider) Test(ctx context.Context, props map[string]string) (string, error) {
	p.arrived.Done()
	p.arrived.Wait()

	return p.FakeProvider.Test(ctx, props)
}

func TestConcurrentFirstActivationStoresOneRecord(t *testing.T) {
	db := testutil.NewDB(t)

	p := &models.Project{Name: "Flight", Path: "acme/flight"}
	require.NoError(t, project.Create(db, p))

	provider := &barrierProvider{FakeProvider: &testutil.FakeProvider{Name: "fake"}}
	provider.arrived.Add(2)

	svc := integrations.NewService(db, integrations.NewRegistry(provider), 5*time.Second)

	var wg sync.WaitGroup

	results := make([]*integrations.Result, 2)
	failures := make([]error, 2)

	for i, tok := range []string{"first", "second"} {
		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i], _, failures[i] = svc.TestAndActivate(context.Background(), p.ID, "fake",
				map[string]string{"token": tok})
		}()
	}

	wg.Wait()

	for i := range results {
		require.NoError(t, failures[i])
		assert.False(t, results[i].Error)
	}

	var count int64
	require.NoError(t, db.Model(&models.Integration{}).Where("project_id = ?", p.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	rec, props := stored(t, db, p.ID)
	require.NotNil(t, rec)
	assert.True(t, rec.Active)
	assert.Contains(t, []string{"first", "second"}, props["token"])
}
