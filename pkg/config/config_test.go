package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `port: ${TEST_CHAT_PORT}
store: postgres
pg:
  host: db
  port: 5432
redis:
  redis_db: 2
events:
  driver: kafka
  brokers:
    - broker:9092
  topic: booking-events
ping_interval: 10s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_service.yaml"), []byte(yaml), 0o644))
	t.Setenv("TEST_CHAT_PORT", "9999")

	cfg, err := LoadConfig[Chat]("chat_service", dir)
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "postgres", cfg.Store)
	assert.Equal(t, "db", cfg.PostgreSQL.Host)
	assert.Equal(t, 5432, cfg.PostgreSQL.Port)
	assert.Equal(t, 2, cfg.Redis.RedisDB)
	assert.Equal(t, []string{"broker:9092"}, cfg.Events.Brokers)
	assert.Equal(t, 10*time.Second, cfg.PingInterval)
}

func TestChat_ApplyDefaults(t *testing.T) {
	cfg := Chat{Store: "memory"}
	cfg.ApplyDefaults()

	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, "redis", cfg.PubSub)
	assert.Equal(t, "none", cfg.Events.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.PingInterval)
	assert.Equal(t, "UTC", cfg.Timezone)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig[Chat]("chat_service", t.TempDir())
	assert.Error(t, err)
}

func TestRedisSentinel(t *testing.T) {
	t.Setenv("REDIS_MASTER_NAME", "chat-master")
	t.Setenv("REDIS_SENTINEL91_IP", "10.0.0.1")
	t.Setenv("REDIS_SENTINEL91_PORT", "26379")
	t.Setenv("REDIS_SENTINEL92_IP", "10.0.0.2")
	t.Setenv("REDIS_SENTINEL92_PORT", "26380")
	t.Setenv("REDIS_SENTINEL93_IP", "10.0.0.3")

	master, addrs := RedisSentinel()
	assert.Equal(t, "chat-master", master)
	assert.Subset(t, addrs, []string{"10.0.0.1:26379", "10.0.0.2:26380"})
	for _, addr := range addrs {
		assert.NotContains(t, addr, "10.0.0.3")
	}
}

func TestGetPath(t *testing.T) {
	_, err := GetPath("definitely-not-here.txt", 2)
	assert.Error(t, err)
}
