package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
server:
  port: 8080
database:
  host: localhost
  user: rcca
  database: rcca
jwt:
  secret: 0123456789abcdef0123456789abcdef
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, cfg.GracePeriod())
	assert.True(t, cfg.CountResubmittedAsPending())
	assert.Len(t, cfg.Workflow.Categories, 16)
	assert.Equal(t, []string{"DPL 1", "DPL 2", "URIL"}, cfg.Workflow.Factories)
	assert.Equal(t, "DPL 1", cfg.Workflow.DefaultFactory)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, "0 */5 * * * *", cfg.Scheduler.SyncLocalDrafts)
	assert.Equal(t, "0 * * * * *", cfg.Scheduler.RefreshStatusMetrics)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL())
	assert.Equal(t, ":8080", cfg.GetServerAddress())
}

func TestParse_Explicit(t *testing.T) {
	cfg, err := Parse([]byte(minimal + `
workflow:
  grace_period_hours: 48
  resubmitted_as_pending: false
  factories: [URIL]
cache:
  backend: Redis
  redis_addr: localhost:6379
`))
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, cfg.GracePeriod())
	assert.False(t, cfg.CountResubmittedAsPending())
	assert.Equal(t, "URIL", cfg.Workflow.DefaultFactory)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"short secret":     "server: {port: 8080}\ndatabase: {host: h, user: u, database: d}\njwt: {secret: short}\n",
		"no port":          "database: {host: h, user: u, database: d}\njwt: {secret: 0123456789abcdef0123456789abcdef}\n",
		"redis no address": minimal + "cache: {backend: redis}\n",
		"file no dir":      minimal + "cache: {backend: file}\n",
		"unknown backend":  minimal + "cache: {backend: memcached}\n",
		"negative grace":   minimal + "workflow: {grace_period_hours: -1}\n",
		"sendgrid no from": minimal + "sendgrid: {api_key: SG.x}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o600))
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestGetSecurityLevel(t *testing.T) {
	assert.Equal(t, SecurityPublic, GetSecurityLevel("get", "/healthz"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("POST", "/api/v1/rcca/{id}/submit"))
	assert.Equal(t, SecurityAdmin, GetSecurityLevel("PUT", "/api/v1/rcca/{id}/approve"))
	assert.Equal(t, SecurityAdmin, GetSecurityLevel("GET", "/api/v1/unknown"))
}
