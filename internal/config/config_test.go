package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"CATALOG_SERVER__HTTP_PORT":                  "server.http_port",
		"CATALOG_CATALOG__RECENTLY_VISITED_CAPACITY": "catalog.recently_visited_capacity",
		"CATALOG_RATE_LIMIT__ENABLED":                "rate_limit.enabled",
		"MOVIE_SERVICE_DATABASE_URL":                 "database.url",
		"JWT_SECRET_KEY":                             "auth.jwt_secret",
		"HOME":                                       "",
		"USER_SERVICE_DATABASE_URL":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, envTransformFunc(in), in)
	}
}

func TestLoadDefaultsWithSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET_KEY", testSecret)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Server.HTTPPort)
	assert.Equal(t, 9092, cfg.Server.GRPCPort)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 15, cfg.Catalog.RecentlyVisitedCapacity)
	assert.Equal(t, 30*24*time.Hour, cfg.Catalog.TrendingWindow)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)

	svc := cfg.CatalogService()
	assert.Equal(t, 100, svc.MaxLimit)
	assert.InDelta(t, 0.6, svc.Trending.LikeWeight, 1e-9)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := `
server:
  http_port: 9000
database:
  driver: memory
catalog:
  recently_visited_capacity: 10
  trending_window: 72h
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("JWT_SECRET_KEY", testSecret)
	t.Setenv("CATALOG_SERVER__HTTP_PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.HTTPPort)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Catalog.RecentlyVisitedCapacity)
	assert.Equal(t, 72*time.Hour, cfg.Catalog.TrendingWindow)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret")
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	cfg.Auth.JWTSecret = testSecret
	require.NoError(t, cfg.Validate())

	bad := *cfg
	bad.Database.Driver = "mongo"
	bad.Catalog.DefaultLimit = 500
	bad.Logging.Format = "xml"
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver")
	assert.Contains(t, err.Error(), "default_limit")
	assert.Contains(t, err.Error(), "logging.format")
}
