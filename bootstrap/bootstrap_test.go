package bootstrap_test

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Point72/chatom/bootstrap"
	"github.com/Point72/chatom/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)
	cfg.Server.Host = "127.0.0.1"
	return cfg
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)
	cfg.Registry.Mode = config.RegistryEager

	a, err := bootstrap.New(cfg, bootstrap.Options{Version: "test", LogOutput: io.Discard})
	require.NoError(t, err)

	assert.NotNil(t, a.Catalog)
	assert.NotNil(t, a.Registry)
	assert.NotNil(t, a.Convert)
	assert.NotNil(t, a.HTTPServer)
	require.NotNil(t, a.Metrics)
	assert.Greater(t, testutil.ToFloat64(a.Metrics.RegisteredVariants), 0.0)

	rec := httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.JSONEq(t, `{"service":"chatom","version":"test"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chatom_registered_variants")
}

func TestNew_SelectedBackends(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backends = []string{"slack"}

	a, err := bootstrap.New(cfg, bootstrap.Options{LogOutput: io.Discard})
	require.NoError(t, err)

	backends, err := a.Types.Backends("User")
	require.NoError(t, err)
	assert.Equal(t, []string{"slack"}, backends)

	_, ok := a.Catalog.Get("DiscordUser")
	assert.False(t, ok)
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backends = []string{"teams"}

	_, err := bootstrap.New(cfg, bootstrap.Options{LogOutput: io.Discard})
	assert.Error(t, err)
}

func TestNew_TypesDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme.yaml"), []byte(`
types:
  - type: AcmeUser
    family: user
    extends: [User]
    fields:
      - { name: badge, type: string, default: "" }
`), 0o644))

	cfg := testConfig(t)
	cfg.Types.Dir = dir

	a, err := bootstrap.New(cfg, bootstrap.Options{LogOutput: io.Discard})
	require.NoError(t, err)

	_, ok := a.Catalog.Get("AcmeUser")
	assert.True(t, ok)
}

func TestNew_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = false

	a, err := bootstrap.New(cfg, bootstrap.Options{LogOutput: io.Discard})
	require.NoError(t, err)
	assert.Nil(t, a.Metrics)

	rec := httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe(t *testing.T) {
	a, err := bootstrap.New(testConfig(t), bootstrap.Options{LogOutput: io.Discard})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	body := strings.NewReader(`{"type":"User","fields":{"id":"U1","name":"Ann"}}`)
	resp, err := http.Post("http://"+ln.Addr().String()+"/promote/slack", "application/json", body)
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"type":"SlackUser"`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := bootstrap.NewLogger(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
}
