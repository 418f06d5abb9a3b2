// Package notify carries "collection changed" signals from the write path
// to the realtime broker, either in process or over NATS.
package notify

import (
	"context"
	"sync"
)

// Notifier publishes and delivers change signals. Handlers must not block.
type Notifier interface {
	Publish(ctx context.Context, collection string) error
	Subscribe(fn func(collection string)) (unsubscribe func(), err error)
	Close() error
}

// Local delivers signals synchronously within the process.
type Local struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]func(string)
}

func NewLocal() *Local {
	return &Local{handlers: make(map[int]func(string))}
}

func (l *Local) Publish(_ context.Context, collection string) error {
	l.mu.RLock()
	fns := make([]func(string), 0, len(l.handlers))
	for _, fn := range l.handlers {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()

	for _, fn := range fns {
		fn(collection)
	}
	return nil
}

func (l *Local) Subscribe(fn func(collection string)) (func(), error) {
	l.mu.Lock()
	id := l.next
	l.next++
	l.handlers[id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.handlers, id)
			l.mu.Unlock()
		})
	}, nil
}

func (l *Local) Close() error {
	l.mu.Lock()
	l.handlers = make(map[int]func(string))
	l.mu.Unlock()
	return nil
}
