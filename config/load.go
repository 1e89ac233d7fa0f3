package config

import (
	"errors"
	"os"
	"strings"

	"github.com/fatih/structs"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix = "REPUTATION"

	// maxSnowflakeNode is the largest node of the default 10 node bits.
	maxSnowflakeNode = 1023
)

var ErrSnowflakeNodeUnset = errors.New("reputation.snowflake_node must be set outside local and test environments")

// Load reads the configuration from path (toml), then applies environment
// overrides such as REPUTATION_DATABASE_HOST. A .env file in the working
// directory is loaded first if it exists. An empty path means defaults plus
// environment only.
func Load(path string) (Configs, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Configs{}, err
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := structs.New(Default())
	defaults.TagName = "mapstructure"
	setDefaults(v, "", defaults.Map())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Configs{}, err
		}
	}

	cfg := Configs{}
	if err := v.Unmarshal(&cfg); err != nil {
		return Configs{}, err
	}

	if err := cfg.resolveSnowflakeNode(os.Getpid()); err != nil {
		return Configs{}, err
	}

	return cfg, nil
}

// resolveSnowflakeNode keeps a configured node. Processes started on a
// developer machine or by tests share no config file, so they derive their
// node from pid instead.
func (c *Configs) resolveSnowflakeNode(pid int) error {
	if c.Reputation.SnowflakeNode != UnsetSnowflakeNode {
		return nil
	}

	if c.Env != "local" && c.Env != "test" {
		return ErrSnowflakeNodeUnset
	}

	c.Reputation.SnowflakeNode = int64(pid % (maxSnowflakeNode + 1))
	return nil
}

// setDefaults registers every leaf key, AutomaticEnv only resolves keys viper
// already knows about.
func setDefaults(v *viper.Viper, prefix string, values map[string]any) {
	for key, value := range values {
		if prefix != "" {
			key = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			setDefaults(v, key, nested)
			continue
		}

		v.SetDefault(key, value)
	}
}
