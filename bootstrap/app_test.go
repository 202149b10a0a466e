package bootstrap

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"backend/config"
	"backend/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// unreachableMongoURI points at a port nothing listens on.
const unreachableMongoURI = "mongodb://127.0.0.1:1/mydatabase"

// loadTestConfig resolves config through the real loader with the given env.
func loadTestConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, key := range []string{"PORT", "MONGO_URI", "MONGO_DATABASE", "MONGO_CONNECT_TIMEOUT", "ADMIN_PORT", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	t.Setenv("MONGO_CONNECT_TIMEOUT", "300ms")
	t.Setenv("MONGO_URI", unreachableMongoURI)
	t.Setenv("API_SHUTDOWN_TIMEOUT", "2s")
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	return cfg
}

func startTestApp(t *testing.T, cfg *config.Config) (*App, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	app := NewAppWithConfig(cfg, zap.New(core))
	t.Cleanup(app.Shutdown)

	require.NoError(t, app.Start(context.Background()))
	return app, logs
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

// baseURL addresses a listener bound on all interfaces through loopback.
func baseURL(addr net.Addr) string {
	return "http://127.0.0.1:" + strconv.Itoa(addr.(*net.TCPAddr).Port)
}

// freePort finds a port that is free right now. Another process could grab it
// before the app binds, which is acceptable for tests.
func freePort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return strconv.Itoa(port)
}

func TestApp_ServesRootWithDatabaseDown(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{"PORT": "0"})
	app, logs := startTestApp(t, cfg)

	code, body := get(t, baseURL(app.ListenAddr())+"/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "API is running", body)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	assert.Error(t, app.DB.Wait(ctx))
	assert.Equal(t, storage.StateFailed, app.DB.State())
	assert.Equal(t, 1, logs.FilterMessage("MongoDB connection failed").Len())
	assert.Zero(t, logs.FilterMessage("MongoDB connected").Len())

	// Still serving after the failure settled.
	code, body = get(t, baseURL(app.ListenAddr())+"/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "API is running", body)
}

func TestApp_UnknownPathIs404(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{"PORT": "0"})
	app, _ := startTestApp(t, cfg)

	code, _ := get(t, baseURL(app.ListenAddr())+"/missing")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestApp_ListensOnConfiguredPort(t *testing.T) {
	port := freePort(t)
	cfg := loadTestConfig(t, map[string]string{"PORT": port})
	app, logs := startTestApp(t, cfg)

	assert.Equal(t, port, strconv.Itoa(app.ListenAddr().(*net.TCPAddr).Port))
	assert.Equal(t, 1, logs.FilterMessage("Server running on port "+port).Len())

	code, _ := get(t, "http://127.0.0.1:"+port+"/")
	assert.Equal(t, http.StatusOK, code)
}

func TestApp_DefaultPortIs3000(t *testing.T) {
	cfg := loadTestConfig(t, nil)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
}

func TestApp_StartFailsWhenPortTaken(t *testing.T) {
	taken, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer taken.Close()
	port := strconv.Itoa(taken.Addr().(*net.TCPAddr).Port)

	cfg := loadTestConfig(t, map[string]string{"PORT": port})
	core, logs := observer.New(zapcore.DebugLevel)
	app := NewAppWithConfig(cfg, zap.New(core))
	defer app.Shutdown()

	err = app.Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen on port "+port)
	assert.Zero(t, logs.FilterMessageSnippet("Server running on port").Len())
}

func TestApp_AdminHealthReflectsDatabase(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{"PORT": "0"})
	cfg.Admin.Port = "0"
	app, _ := startTestApp(t, cfg)
	require.NotNil(t, app.AdminListenAddr())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.DB.Wait(ctx)

	code, body := get(t, baseURL(app.AdminListenAddr())+"/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	var health map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "degraded", health["status"])
	assert.Equal(t, "failed", health["database"])

	code, _ = get(t, baseURL(app.AdminListenAddr())+"/metrics")
	assert.Equal(t, http.StatusOK, code)

	// The application listener does not expose the admin routes.
	code, _ = get(t, baseURL(app.ListenAddr())+"/health")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestApp_AdminDisabledByDefault(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{"PORT": "0"})
	app, _ := startTestApp(t, cfg)

	assert.Nil(t, app.AdminServer)
	assert.Nil(t, app.AdminListenAddr())
}

func TestApp_ShutdownStopsServingAndIsIdempotent(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{"PORT": "0"})
	core, logs := observer.New(zapcore.DebugLevel)
	app := NewAppWithConfig(cfg, zap.New(core))
	require.NoError(t, app.Start(context.Background()))
	url := baseURL(app.ListenAddr())

	app.Shutdown()
	app.Shutdown()

	_, err := (&http.Client{Timeout: time.Second}).Get(url + "/")
	assert.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("Shutdown complete").Len())
	assert.NotEqual(t, storage.StatePending, app.DB.State())

	var phases []string
	for _, entry := range logs.FilterMessageSnippet("Phase ").All() {
		phases = append(phases, entry.Message[:len("Phase N")])
	}
	assert.Equal(t, []string{"Phase 1", "Phase 2", "Phase 3", "Phase 4"}, phases)
}

func TestApp_ShutdownWithoutStart(t *testing.T) {
	cfg := loadTestConfig(t, nil)
	app := NewAppWithConfig(cfg, zap.NewNop())

	assert.NotPanics(t, app.Shutdown)
	assert.Nil(t, app.ListenAddr())
}

func TestNewApp_InvalidConfig(t *testing.T) {
	loadTestConfig(t, nil)
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := NewApp(context.Background(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestNewApp_MissingConfigFile(t *testing.T) {
	loadTestConfig(t, nil)

	_, err := NewApp(context.Background(), "does-not-exist.yaml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestInitConfig_ReturnsErrorWithoutPrinting(t *testing.T) {
	loadTestConfig(t, nil)
	t.Setenv("LOG_LEVEL", "chatty")

	r, w, err := os.Pipe()
	require.NoError(t, err)
	stderr := os.Stderr
	os.Stderr = w
	t.Cleanup(func() { os.Stderr = stderr })

	_, err = InitConfig("")

	os.Stderr = stderr
	require.NoError(t, w.Close())
	printed, readErr := io.ReadAll(r)
	require.NoError(t, readErr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
	assert.Empty(t, string(printed))
}

func TestNewApp_FromEnvironment(t *testing.T) {
	loadTestConfig(t, map[string]string{"PORT": "8080", "LOG_LEVEL": "warn"})

	app, err := NewApp(context.Background(), "")

	require.NoError(t, err)
	defer app.Shutdown()
	assert.Equal(t, "8080", app.Config.Port)
	assert.Equal(t, unreachableMongoURI, app.Config.MongoDB.URI)
}
