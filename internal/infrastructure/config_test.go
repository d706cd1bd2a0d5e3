package infra

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args ...string) (*AppConfig, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return LoadConfig(viper.New(), fs)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := load(t, "--database.driver=memory", "--security.jwt_secret=s3cret")
	require.NoError(t, err)

	assert.Equal(t, "academy-progress", cfg.AppID)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "HS256", cfg.Security.JWTMethod)
	assert.Equal(t, "academy_token", cfg.Security.TokenName)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)
	assert.Equal(t, 6379, cfg.KVStore.Port)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("ACADEMY_SECURITY_JWT_SECRET", "from-env")
	t.Setenv("ACADEMY_DATABASE_DRIVER", "memory")
	t.Setenv("ACADEMY_CATALOG_CACHE_TTL", "0s")

	cfg, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Security.JWTSecret)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Zero(t, cfg.Catalog.CacheTTL)
}

func TestLoadConfig_SQLDriverNeedsConnection(t *testing.T) {
	_, err := load(t, "--security.jwt_secret=s3cret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.schema is required")
	assert.Contains(t, err.Error(), "database.username is required")

	_, err = load(t, "--security.jwt_secret=s3cret", "--database.schema=academy",
		"--database.username=app", "--database.password=pw")
	assert.NoError(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := load(t, "--database.driver=memory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "security.jwt_secret is required")

	_, err = load(t, "--database.driver=sqlite", "--security.jwt_secret=s", "--env=staging")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver must be one of (postgres mysql memory)")
	assert.Contains(t, err.Error(), "env must be one of (development production)")

	_, err = load(t, "--database.driver=memory", "--security.jwt_secret=s", "--security.id_length=4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "security.id_length must be at least 8")
}
