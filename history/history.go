// Package history keeps scene activity on disk for servers that do not track it.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/samber/mo"
	"github.com/sceneplay/sceneplay/filesystem"
	"github.com/sceneplay/sceneplay/log"
	"github.com/sceneplay/sceneplay/where"
)

// Record is the activity saved for one scene.
type Record struct {
	ResumeTime   float64   `json:"resume_time"`
	PlayDuration float64   `json:"play_duration"`
	PlayCount    int       `json:"play_count"`
	LastPlayed   time.Time `json:"last_played"`
}

type recordCache interface {
	Get() (map[string]*Record, bool, error)
	Set(map[string]*Record) error
}

// Store is a JSON file of records keyed by scene ID.
type Store struct {
	mu    sync.Mutex
	cache recordCache
	now   func() time.Time
}

// New opens the store at path. The file is created on the first write.
func New(path string) *Store {
	return &Store{
		cache: gache.New[map[string]*Record](&gache.Options{
			Path:       path,
			FileSystem: &filesystem.GacheFs{},
		}),
		now: time.Now,
	}
}

// Default opens the store in the configuration directory.
func Default() *Store {
	return New(where.History())
}

func (s *Store) load() (map[string]*Record, error) {
	cached, expired, err := s.cache.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Record), nil
	}
	return cached, nil
}

func (s *Store) update(id string, fn func(*Record)) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return Record{}, err
	}

	record, ok := records[id]
	if !ok {
		record = &Record{}
		records[id] = record
	}
	fn(record)
	record.LastPlayed = s.now()

	return *record, s.cache.Set(records)
}

// SaveActivity stores the resume point and adds played seconds to the total.
func (s *Store) SaveActivity(_ context.Context, id string, resume, played float64) error {
	_, err := s.update(id, func(r *Record) {
		r.ResumeTime = resume
		r.PlayDuration += played
	})
	if err != nil {
		log.Scene(id).Errorf("save local activity: %v", err)
	}
	return err
}

// IncrementPlayCount bumps the play counter and returns the new value.
func (s *Store) IncrementPlayCount(_ context.Context, id string) (int, error) {
	record, err := s.update(id, func(r *Record) {
		r.PlayCount++
	})
	if err != nil {
		log.Scene(id).Errorf("increment local play count: %v", err)
	}
	return record.PlayCount, err
}

// Get returns the record for id, if any.
func (s *Store) Get(id string) (mo.Option[Record], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return mo.None[Record](), err
	}
	if record, ok := records[id]; ok {
		return mo.Some(*record), nil
	}
	return mo.None[Record](), nil
}

// Remove deletes the record for id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	delete(records, id)
	return s.cache.Set(records)
}
