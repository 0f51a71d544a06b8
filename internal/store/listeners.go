package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

var nowFunc = func() time.Time { return time.Now().UTC() }

type subscriber[T any] struct {
	onData  func(T)
	onError func(error)
}

// listeners fans snapshots out to subscribers. Callbacks run on the
// writer's goroutine, outside mu but inside push, so they must not write
// to the store.
type listeners[T any] struct {
	mu   sync.RWMutex
	subs map[string]subscriber[T]

	// push orders load and delivery across writers: every snapshot a
	// subscriber sees is at least as new as the one before it.
	push sync.Mutex
}

func newListeners[T any]() *listeners[T] {
	return &listeners[T]{subs: make(map[string]subscriber[T])}
}

func (l *listeners[T]) add(onData func(T), onError func(error)) func() {
	id := uuid.NewString()
	l.mu.Lock()
	l.subs[id] = subscriber[T]{onData: onData, onError: onError}
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
		})
	}
}

func (l *listeners[T]) snapshot() []subscriber[T] {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]subscriber[T], 0, len(l.subs))
	for _, s := range l.subs {
		out = append(out, s)
	}
	return out
}

func (l *listeners[T]) notify(v T) {
	for _, s := range l.snapshot() {
		if s.onData != nil {
			s.onData(v)
		}
	}
}

func (l *listeners[T]) fail(err error) {
	for _, s := range l.snapshot() {
		if s.onError != nil {
			s.onError(err)
		}
	}
}

func (l *listeners[T]) count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs)
}

// subscribe registers a subscriber and delivers load's result to it alone.
func subscribe[T any](l *listeners[T], load func() (T, error), onData func(T), onError func(error)) func() {
	l.push.Lock()
	defer l.push.Unlock()
	unsubscribe := l.add(onData, onError)
	v, err := load()
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return unsubscribe
	}
	if onData != nil {
		onData(v)
	}
	return unsubscribe
}

// broadcast reloads and pushes the snapshot to every subscriber.
func broadcast[T any](l *listeners[T], load func() (T, error)) {
	if l.count() == 0 {
		return
	}
	l.push.Lock()
	defer l.push.Unlock()
	v, err := load()
	if err != nil {
		l.fail(err)
		return
	}
	l.notify(v)
}
