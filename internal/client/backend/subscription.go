package backend

import (
	"context"
	"sync"
	"sync/atomic"
)

// Listener is the Subscription shared by the implementations. It owns the
// context of one delivery goroutine.
type Listener struct {
	cancel  context.CancelFunc
	once    sync.Once
	stopped atomic.Bool
	done    chan struct{}
}

// NewListener derives the delivery context from parent.
func NewListener(parent context.Context) (*Listener, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	return &Listener{cancel: cancel, done: make(chan struct{})}, ctx
}

func (l *Listener) Cancel() {
	l.once.Do(func() {
		l.stopped.Store(true)
		l.cancel()
	})
}

// Active reports whether callbacks may still be made.
func (l *Listener) Active() bool {
	return !l.stopped.Load()
}

// Finish marks the delivery goroutine as exited. When err is not nil and
// the listener was not cancelled, onError receives it.
func (l *Listener) Finish(err error, onError func(error)) {
	defer close(l.done)
	if err != nil && l.Active() && onError != nil {
		l.stopped.Store(true)
		onError(err)
	}
	l.cancel()
}

// Done is closed once the delivery goroutine has exited.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}
