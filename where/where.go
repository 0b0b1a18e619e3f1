// Package where resolves application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/sceneplay/sceneplay/constant"
	"github.com/sceneplay/sceneplay/filesystem"
)

// EnvConfigPath overrides the configuration directory.
const EnvConfigPath = "SCENEPLAY_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the configuration directory, honouring SCENEPLAY_CONFIG_PATH first.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Sceneplay))
}

// Cache resolves the cache directory, falling back to ./cache when the platform has none.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Sceneplay))
}

// Logs resolves the directory holding dated log files.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// History resolves the local activity store used when activity.backend is "local".
func History() string {
	return filepath.Join(Config(), "history.json")
}

// FailedSyncs resolves the queue of activity writes that Stash rejected or never received.
func FailedSyncs() string {
	return filepath.Join(Config(), "failed_syncs.jsonl")
}

// Recent resolves the ranked list of recently played scene arguments.
func Recent() string {
	return filepath.Join(Cache(), "recent.json")
}

// Temp resolves a volatile directory for mpv IPC sockets.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Sceneplay))
}
