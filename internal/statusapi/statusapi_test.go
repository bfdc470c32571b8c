package statusapi_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	modbus "github.com/modbus-tcp/server"
	"github.com/modbus-tcp/server/internal/statusapi"
)

type fakeSource struct {
	running bool
	stats   modbus.Stats
}

func (f *fakeSource) IsRunning() bool     { return f.running }
func (f *fakeSource) Stats() modbus.Stats { return f.stats }

func TestHealthzReflectsRunningState(t *testing.T) {
	src := &fakeSource{running: true}
	api := statusapi.New(src, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, err := api.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	src.running = false
	resp, err = api.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStatsEndpointReturnsSnapshot(t *testing.T) {
	src := &fakeSource{running: true, stats: modbus.Stats{TotalConns: 3, TotalRequests: 42}}
	api := statusapi.New(src, nil)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	resp, err := api.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHubPublishAndClientCount(t *testing.T) {
	hub := statusapi.NewHub()
	assert.Equal(t, 0, hub.ClientCount())
	hub.Publish(statusapi.Event{Kind: statusapi.EventConnected, ConnID: "abc"})
}

func TestConnEventAdapterDoesNotBlockWithoutHubLoop(t *testing.T) {
	hub := statusapi.NewHub()
	adapt := statusapi.ConnEventAdapter(hub)
	// The adapter must not panic or block even with no hub goroutine running
	// (Publish drops on a full/undrained channel rather than blocking).
	adapt(modbus.ConnEvent{ID: "c1", Remote: "127.0.0.1:1234", Kind: "connected"})
}
