package datadog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitforge-admin/gitforge-admin/internal/integrations"
)

func TestProviderTest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Path != "/api/v1/validate" || r.Header.Get("DD-API-KEY") != "good" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors":["Forbidden"]}`))

			return
		}

		_, _ = w.Write([]byte(`{"valid":true}`))
	}))
	defer srv.Close()

	p := New(srv.URL)

	resp, err := p.Test(context.Background(), map[string]string{"api_key": "good"})
	require.NoError(t, err)
	assert.Equal(t, "API key is valid", resp)

	_, err = p.Test(context.Background(), map[string]string{"api_key": "bad"})
	require.ErrorIs(t, err, integrations.ErrTestFailed)
}

func TestProviderFields(t *testing.T) {
	p := New("")
	assert.Equal(t, Type, p.Type())
	assert.Equal(t, "Datadog", p.Title())
	require.Len(t, p.Fields(), 2)
	assert.True(t, p.Fields()[0].Required)
}

func TestEndpoint(t *testing.T) {
	var _ integrations.Endpointer = New("")

	assert.Equal(t, "https://api.datadoghq.com", New("").Endpoint(map[string]string{}))
	assert.Equal(t, "https://api.datadoghq.eu", New("").Endpoint(map[string]string{"datadog_site": "datadoghq.eu"}))
	assert.Equal(t, "http://127.0.0.1:9000", New("http://127.0.0.1:9000").Endpoint(map[string]string{}))
}
