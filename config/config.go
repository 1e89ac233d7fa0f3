package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`

	Database   DatabaseConfigs   `mapstructure:"database"`
	ApiServer  APIServerConfigs  `mapstructure:"api_server"`
	Redis      RedisConfigs      `mapstructure:"redis"`
	Kafka      KafkaConfigs      `mapstructure:"kafka"`
	Reputation ReputationConfigs `mapstructure:"reputation"`
	Cron       CronConfigs       `mapstructure:"cron"`
}

type DatabaseConfigs struct {
	Type     string `mapstructure:"type"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`

	// File is only used by the sqlite type.
	File string `mapstructure:"file"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfigs) ConnectionString() string {
	switch d.Type {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
	case "sqlite":
		return d.File
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User,
			d.Password,
			d.Host,
			d.Port,
			d.Database,
		)
	}
}

type APIServerConfigs struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`

	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxLimit       int      `mapstructure:"max_limit"`
	DefaultLimit   int      `mapstructure:"default_limit"`
}

func (s APIServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type RedisConfigs struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfigs struct {
	Addrs            []string `mapstructure:"addrs"`
	ClientID         string   `mapstructure:"client_id"`
	ConsumerGroup    string   `mapstructure:"consumer_group"`
	ActivityTopic    string   `mapstructure:"activity_topic"`
	ProgressionTopic string   `mapstructure:"progression_topic"`
}

const UnsetSnowflakeNode = -1

type ReputationConfigs struct {
	// SnowflakeNode must be unique per running process, it is part of every
	// activity event id. UnsetSnowflakeNode is only accepted in local and test
	// environments, where Load derives a node from the process id.
	SnowflakeNode int64 `mapstructure:"snowflake_node"`

	MaxConflictRetries  int `mapstructure:"max_conflict_retries"`
	LeaderboardMaxLimit int `mapstructure:"leaderboard_max_limit"`

	// CollabDailyCap caps the xp a user can earn from PR reviews in one UTC
	// day. Zero disables the cap.
	CollabDailyCap int `mapstructure:"collab_daily_cap"`

	// AsyncRecalculation defers radar recalculation to the asynq worker.
	AsyncRecalculation bool          `mapstructure:"async_recalculation"`
	RecalculateDelay   time.Duration `mapstructure:"recalculate_delay"`

	ActivityPoints map[string]int `mapstructure:"activity_points"`
}

type CronConfigs struct {
	LeaderboardWarmInterval time.Duration `mapstructure:"leaderboard_warm_interval"`
	LeaderboardWarmSize     int           `mapstructure:"leaderboard_warm_size"`
}

// Default returns the configuration used when a key is absent from every
// source.
func Default() Configs {
	return Configs{
		Env:      "local",
		LogLevel: "info",
		Database: DatabaseConfigs{
			Type:         "mysql",
			Host:         "localhost",
			Port:         "3306",
			Database:     "reputation",
			SSLMode:      "disable",
			File:         "reputation.db",
			MaxOpenConns: 20,
			MaxIdleConns: 5,
		},
		ApiServer: APIServerConfigs{
			Host:           "",
			Port:           "8080",
			AllowedOrigins: []string{"*"},
			MaxLimit:       200,
			DefaultLimit:   20,
		},
		Redis: RedisConfigs{Addr: "localhost:6379"},
		Kafka: KafkaConfigs{
			Addrs:            []string{"localhost:9092"},
			ClientID:         "reputation",
			ConsumerGroup:    "reputation-ingestion",
			ActivityTopic:    "activity_events",
			ProgressionTopic: "progression_events",
		},
		Reputation: ReputationConfigs{
			SnowflakeNode:       UnsetSnowflakeNode,
			MaxConflictRetries:  3,
			LeaderboardMaxLimit: 200,
			CollabDailyCap:      50,
			RecalculateDelay:    5 * time.Second,
			ActivityPoints: map[string]int{
				"COMMIT_PUSH":    10,
				"PR_MERGED":      50,
				"BUG_FIXED":      30,
				"SECURITY_FIX":   100,
				"PR_REVIEW":      20,
				"COMMUNITY_STAR": 5,
				"REPO_CREATED":   15,
			},
		},
		Cron: CronConfigs{
			LeaderboardWarmInterval: 10 * time.Minute,
			LeaderboardWarmSize:     200,
		},
	}
}
