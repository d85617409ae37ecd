// Package config loads server configuration with viper: defaults first,
// optionally overridden by a JSON config file and HEXFRONT_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load sets defaults and reads the optional config file from configDir.
// A missing file is not an error; defaults and environment apply.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.adminKey", "")

	viper.SetDefault("db.path", "data/hexfront.db")

	viper.SetDefault("map.width", 24)
	viper.SetDefault("map.height", 18)
	viper.SetDefault("map.seed", 0)

	viper.SetDefault("idempotency.ttlMinutes", 60)

	viper.SetDefault("ratelimit.actionsPerMinute", 120)

	viper.SetEnvPrefix("hexfront")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("hexfront.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetInt64 returns an int64 config value.
func GetInt64(key string) int64 {
	return viper.GetInt64(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
