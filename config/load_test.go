package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default().Reputation.MaxConflictRetries, cfg.Reputation.MaxConflictRetries)
	require.Equal(t, 200, cfg.Reputation.LeaderboardMaxLimit)
	require.Equal(t, 10, cfg.Reputation.ActivityPoints["COMMIT_PUSH"])
	require.Equal(t, "activity_events", cfg.Kafka.ActivityTopic)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
env = "production"

[database]
type = "sqlite"
file = "test.db"

[reputation]
snowflake_node = 7
collab_daily_cap = 80
recalculate_delay = "30s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("REPUTATION_API_SERVER_PORT", "9000")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "production", cfg.Env)
	require.Equal(t, "sqlite", cfg.Database.Type)
	require.Equal(t, "test.db", cfg.Database.ConnectionString())
	require.Equal(t, int64(7), cfg.Reputation.SnowflakeNode)
	require.Equal(t, 80, cfg.Reputation.CollabDailyCap)
	require.Equal(t, 30*time.Second, cfg.Reputation.RecalculateDelay)
	require.Equal(t, "9000", cfg.ApiServer.Port)

	// Untouched keys keep their defaults.
	require.Equal(t, 3, cfg.Reputation.MaxConflictRetries)
}

func TestLoad_SnowflakeNode(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "local", cfg.Env)
	require.Equal(t, int64(os.Getpid()%1024), cfg.Reputation.SnowflakeNode)

	t.Setenv("REPUTATION_ENV", "production")
	_, err = Load("")
	require.ErrorIs(t, err, ErrSnowflakeNodeUnset)

	t.Setenv("REPUTATION_REPUTATION_SNOWFLAKE_NODE", "12")
	cfg, err = Load("")
	require.NoError(t, err)
	require.Equal(t, int64(12), cfg.Reputation.SnowflakeNode)
}

func TestConfigs_resolveSnowflakeNode(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.resolveSnowflakeNode(5000))
	require.Equal(t, int64(5000%1024), cfg.Reputation.SnowflakeNode)

	cfg = Default()
	cfg.Env = "test"
	require.NoError(t, cfg.resolveSnowflakeNode(3))
	require.Equal(t, int64(3), cfg.Reputation.SnowflakeNode)

	// Node 0 is a valid explicit choice.
	cfg = Default()
	cfg.Env = "staging"
	cfg.Reputation.SnowflakeNode = 0
	require.NoError(t, cfg.resolveSnowflakeNode(3))
	require.Zero(t, cfg.Reputation.SnowflakeNode)

	cfg.Reputation.SnowflakeNode = UnsetSnowflakeNode
	require.ErrorIs(t, cfg.resolveSnowflakeNode(3), ErrSnowflakeNodeUnset)
}

func TestDatabaseConfigs_ConnectionString(t *testing.T) {
	d := DatabaseConfigs{
		Type: "postgres", Host: "db", Port: "5432", User: "u", Password: "p",
		Database: "rep", SSLMode: "disable",
	}
	require.Equal(t, "host=db port=5432 user=u password=p dbname=rep sslmode=disable", d.ConnectionString())

	d.Type = "mysql"
	d.Port = "3306"
	require.Equal(t, "u:p@tcp(db:3306)/rep?charset=utf8mb4&parseTime=True&loc=UTC", d.ConnectionString())
}
