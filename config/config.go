// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"fmt"
	"strings"

	"github.com/peyitv/peyitv/constant"
	"github.com/peyitv/peyitv/filesystem"
	"github.com/peyitv/peyitv/key"
	"github.com/peyitv/peyitv/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer is a strings.Replacer used to normalize configuration keys into environment variable naming conventions.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup initializes the global configuration state: defaults, environment bindings and the optional
// peyitv.toml file from the config directory.
func Setup() error {
	viper.SetConfigName(constant.App)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.App)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	return Validate()
}

// Validate rejects values that would make the player or the probe unusable.
// Buffer thresholds are checked by the buffer package, which owns their invariant.
func Validate() error {
	positive := []string{
		key.NetworkTimeoutSecs,
		key.ProbeConcurrency,
		key.ProbeRate,
	}

	for _, k := range positive {
		if viper.GetInt(k) <= 0 {
			return fmt.Errorf("config %s must be positive, got %d", k, viper.GetInt(k))
		}
	}

	switch p := viper.GetString(key.Player); p {
	case "mpv", "iina":
	default:
		return fmt.Errorf("config %s: unknown player %q", key.Player, p)
	}

	return nil
}
