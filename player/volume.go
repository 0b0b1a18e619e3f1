package player

import (
	"path/filepath"

	"github.com/metafates/gache"
	"github.com/sceneplay/sceneplay/filesystem"
	"github.com/sceneplay/sceneplay/log"
)

// VolumeLevel is the persisted output level.
type VolumeLevel struct {
	Level float64 `json:"level"`
	Muted bool    `json:"muted"`
}

// VolumeStore keeps the user's volume across sessions.
type VolumeStore interface {
	Get() (VolumeLevel, bool)
	Set(VolumeLevel) error
}

type volumeCache interface {
	Get() (VolumeLevel, bool, error)
	Set(VolumeLevel) error
}

type gacheVolumeStore struct {
	cache volumeCache
}

// NewVolumeStore persists the volume as JSON in dir.
func NewVolumeStore(dir string) VolumeStore {
	return &gacheVolumeStore{
		cache: gache.New[VolumeLevel](&gache.Options{
			Path:       filepath.Join(dir, "volume.json"),
			FileSystem: &filesystem.GacheFs{},
		}),
	}
}

func (s *gacheVolumeStore) Get() (VolumeLevel, bool) {
	v, expired, err := s.cache.Get()
	if err != nil || expired {
		return VolumeLevel{}, false
	}
	return v, true
}

func (s *gacheVolumeStore) Set(v VolumeLevel) error {
	return s.cache.Set(v)
}

// persistVolume saves the cached level while persistence is enabled.
func (m *MPV) persistVolume() {
	m.mu.Lock()
	enabled := m.persistVol
	level := VolumeLevel{Level: m.state.volume, Muted: m.state.muted}
	m.mu.Unlock()

	if !enabled || m.volumes == nil {
		return
	}
	if err := m.volumes.Set(level); err != nil {
		log.Warnf("persist volume: %v", err)
	}
}

func (m *MPV) restoreVolume() {
	if m.volumes == nil {
		return
	}
	level, ok := m.volumes.Get()
	if !ok {
		return
	}
	if err := m.SetVolume(level.Level); err != nil {
		log.Warnf("restore volume: %v", err)
	}
	if err := m.SetMuted(level.Muted); err != nil {
		log.Warnf("restore mute: %v", err)
	}
}
