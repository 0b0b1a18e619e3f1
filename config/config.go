// Package config manages application settings: the registry of defaults, the viper engine,
// and the typed snapshot handed to the playback controller.
package config

import (
	"strings"

	"github.com/sceneplay/sceneplay/constant"
	"github.com/sceneplay/sceneplay/filesystem"
	"github.com/sceneplay/sceneplay/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer maps configuration keys onto environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup registers defaults and env bindings, then reads sceneplay.toml if it exists.
func Setup() error {
	viper.SetConfigName(constant.Sceneplay)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Sceneplay)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}

	return nil
}
