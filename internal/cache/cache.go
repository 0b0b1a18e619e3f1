// Package cache prunes stale files left behind by earlier sessions: old log files and
// mpv sockets of players that were killed.
package cache

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sceneplay/sceneplay/filesystem"
	"github.com/sceneplay/sceneplay/log"
	"github.com/sceneplay/sceneplay/where"
	"github.com/spf13/afero"
)

// TTL is how long log files are kept.
const TTL = 7 * 24 * time.Hour

// socketTTL is generous: a live mpv socket is touched at start-up and never again.
const socketTTL = 2 * 24 * time.Hour

// Prune removes regular files under dir that are older than ttl and accepted by match,
// or all of them when match is nil. It returns the number of files removed.
func Prune(dir string, ttl time.Duration, match func(name string) bool, now time.Time) int {
	fs := filesystem.API()

	var removed int
	_ = afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if match != nil && !match(info.Name()) {
			return nil
		}
		if now.Sub(info.ModTime()) <= ttl {
			return nil
		}

		if err := fs.Remove(path); err != nil {
			log.Warnf("prune %s: %v", path, err)
			return nil
		}
		removed++
		return nil
	})
	return removed
}

// CollectGarbage prunes expired logs and abandoned mpv sockets.
func CollectGarbage() {
	now := time.Now()

	logs := Prune(where.Logs(), TTL, func(name string) bool {
		return filepath.Ext(name) == ".log"
	}, now)

	sockets := Prune(where.Temp(), socketTTL, func(name string) bool {
		return strings.HasPrefix(name, "mpv-") && strings.HasSuffix(name, ".sock")
	}, now)

	if logs+sockets > 0 {
		log.Infof("pruned %d log files and %d stale sockets", logs, sockets)
	}
}
