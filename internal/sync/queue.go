// Package sync keeps activity writes that could not reach Stash and replays them later.
package sync

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sceneplay/sceneplay/filesystem"
	"github.com/sceneplay/sceneplay/log"
)

// Actions recorded in the queue.
const (
	ActionSaveActivity       = "save_activity"
	ActionIncrementPlayCount = "increment_play_count"
)

// Persistence is the activity sink the queue wraps and replays into.
type Persistence interface {
	SaveActivity(ctx context.Context, id string, resume, played float64) error
	IncrementPlayCount(ctx context.Context, id string) (int, error)
}

// Mutation is a single activity write waiting to be replayed.
type Mutation struct {
	Timestamp int64   `json:"timestamp"`
	SceneID   string  `json:"scene_id"`
	Action    string  `json:"action"`
	Resume    float64 `json:"resume,omitempty"`
	Played    float64 `json:"played,omitempty"`
}

// Queue forwards writes to its target and records the ones that fail in a JSON-lines file.
type Queue struct {
	mu     sync.Mutex
	path   string
	target Persistence
	now    func() time.Time
	delay  func(attempt int) time.Duration
}

// NewQueue wraps target, recording failures at path.
func NewQueue(target Persistence, path string) *Queue {
	return &Queue{
		path:   path,
		target: target,
		now:    time.Now,
		delay:  backoff,
	}
}

// backoff grows with the attempt and carries jitter to avoid hammering the server.
func backoff(attempt int) time.Duration {
	base := time.Duration(1<<min(attempt, 6)) * 100 * time.Millisecond
	return base + time.Duration(rand.Intn(100))*time.Millisecond
}

func (q *Queue) SaveActivity(ctx context.Context, id string, resume, played float64) error {
	err := q.target.SaveActivity(ctx, id, resume, played)
	if err != nil {
		q.record(err, Mutation{SceneID: id, Action: ActionSaveActivity, Resume: resume, Played: played})
	}
	return err
}

func (q *Queue) IncrementPlayCount(ctx context.Context, id string) (int, error) {
	count, err := q.target.IncrementPlayCount(ctx, id)
	if err != nil {
		q.record(err, Mutation{SceneID: id, Action: ActionIncrementPlayCount})
	}
	return count, err
}

func (q *Queue) record(cause error, m Mutation) {
	// Cancelled writes belong to a session that is shutting down on purpose.
	if errors.Is(cause, context.Canceled) {
		return
	}

	m.Timestamp = q.now().Unix()
	if err := q.append(m); err != nil {
		log.Scene(m.SceneID).Warnf("queue failed %s: %v", m.Action, err)
	}
}

func (q *Queue) append(m Mutation) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	fs := filesystem.API()
	if err := fs.MkdirAll(filepath.Dir(q.path), os.ModePerm); err != nil {
		return err
	}

	f, err := fs.OpenFile(q.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(m)
}

// Pending returns the queued mutations in the order they failed.
func (q *Queue) Pending() ([]Mutation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.read()
}

func (q *Queue) read() ([]Mutation, error) {
	content, err := filesystem.API().ReadFile(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var mutations []Mutation
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var m Mutation
		if err := json.Unmarshal(line, &m); err != nil {
			log.Warnf("skipping malformed queued mutation: %v", err)
			continue
		}
		mutations = append(mutations, m)
	}
	return mutations, scanner.Err()
}

func (q *Queue) write(mutations []Mutation) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, m := range mutations {
		if err := encoder.Encode(m); err != nil {
			return err
		}
	}
	return filesystem.API().WriteFile(q.path, buf.Bytes(), 0o644)
}

// Reconcile replays queued mutations into the target. Mutations that fail again stay
// queued, as do any recorded while the replay was running. It returns the number
// replayed successfully.
func (q *Queue) Reconcile(ctx context.Context) (int, error) {
	mutations, err := q.Pending()
	if err != nil || len(mutations) == 0 {
		return 0, err
	}

	var (
		failed   []Mutation
		replayed int
	)
	for i, m := range mutations {
		if ctx.Err() != nil {
			failed = append(failed, mutations[i:]...)
			break
		}

		if i > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(q.delay(i)):
			}
		}

		if err := q.apply(ctx, m); err != nil {
			log.Scene(m.SceneID).Warnf("replay %s: %v", m.Action, err)
			failed = append(failed, m)
			continue
		}
		replayed++
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	current, err := q.read()
	if err != nil {
		return 0, err
	}
	if len(current) >= len(mutations) {
		failed = append(failed, current[len(mutations):]...)
	}

	if err := q.write(failed); err != nil {
		return 0, err
	}
	return replayed, nil
}

func (q *Queue) apply(ctx context.Context, m Mutation) error {
	switch m.Action {
	case ActionSaveActivity:
		return q.target.SaveActivity(ctx, m.SceneID, m.Resume, m.Played)
	case ActionIncrementPlayCount:
		_, err := q.target.IncrementPlayCount(ctx, m.SceneID)
		return err
	default:
		return fmt.Errorf("unknown action %q", m.Action)
	}
}
