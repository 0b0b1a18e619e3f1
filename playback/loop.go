package playback

import "sync"

// Dispatcher runs posted functions one at a time, in post order.
type Dispatcher interface {
	Post(fn func())
}

// Spawner starts work that may block. Completions must be posted back to the Dispatcher.
type Spawner func(fn func())

func goSpawner(fn func()) { go fn() }

const loopQueueSize = 256

// Loop is a Dispatcher backed by a single goroutine.
type Loop struct {
	queue     chan func()
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewLoop starts the loop goroutine.
func NewLoop() *Loop {
	l := &Loop{
		queue: make(chan func(), loopQueueSize),
		done:  make(chan struct{}),
	}

	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.done:
			return
		case fn := <-l.queue:
			fn()
		}
	}
}

// Post queues fn. Functions posted after Close are dropped.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.done:
		return
	default:
	}

	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Close stops the loop and waits for the running function to return.
// It must not be called from inside a posted function.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
	l.wg.Wait()
}
