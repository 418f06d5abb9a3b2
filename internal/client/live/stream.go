// Package live turns a store subscription into a pull-based stream owned by
// the screen that opened it.
package live

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/chirper/internal/client/backend"
	"github.com/dmitrijs2005/chirper/internal/models"
)

// ErrStreamClosed is returned by Next after Cancel, or after the
// subscription error has been delivered.
var ErrStreamClosed = errors.New("stream closed")

// Snapshot is one complete, ordered result set.
type Snapshot[T any] struct {
	Items []T
	// Seq counts snapshots received by the stream, including ones that
	// were coalesced away.
	Seq uint64
}

// Stream buffers only the latest snapshot: an unread snapshot is replaced
// by the next one.
type Stream[T any] struct {
	sub    backend.Subscription
	decode func(*models.Document) T

	mu       sync.Mutex
	latest   *Snapshot[T]
	seq      uint64
	err      error
	errTaken bool
	closed   bool
	signal   chan struct{}
}

// Subscribe opens a live query on store. decode converts each document of
// a snapshot.
func Subscribe[T any](ctx context.Context, store backend.Store, q models.Query, decode func(*models.Document) T) (*Stream[T], error) {
	s := &Stream[T]{decode: decode, signal: make(chan struct{}, 1)}

	sub, err := store.SubscribeQuery(ctx, q, s.onSnapshot, s.onError)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sub = sub
	closed := s.closed
	s.mu.Unlock()
	if closed {
		sub.Cancel()
	}
	return s, nil
}

func (s *Stream[T]) notify() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Stream[T]) onSnapshot(docs []*models.Document) {
	items := make([]T, 0, len(docs))
	for _, d := range docs {
		items = append(items, s.decode(d))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.err != nil {
		return
	}
	s.seq++
	s.latest = &Snapshot[T]{Items: items, Seq: s.seq}
	s.notify()
}

func (s *Stream[T]) onError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.err != nil {
		return
	}
	s.err = err
	s.notify()
}

// Next blocks until a snapshot newer than the last one returned is
// available. A pending snapshot is returned before a pending error.
func (s *Stream[T]) Next(ctx context.Context) (Snapshot[T], error) {
	for {
		s.mu.Lock()
		switch {
		case s.closed:
			s.mu.Unlock()
			return Snapshot[T]{}, ErrStreamClosed
		case s.latest != nil:
			snap := *s.latest
			s.latest = nil
			s.mu.Unlock()
			return snap, nil
		case s.err != nil && !s.errTaken:
			s.errTaken = true
			err := s.err
			s.mu.Unlock()
			return Snapshot[T]{}, err
		case s.errTaken:
			s.mu.Unlock()
			return Snapshot[T]{}, ErrStreamClosed
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return Snapshot[T]{}, ctx.Err()
		case <-s.signal:
		}
	}
}

// Cancel releases the subscription and wakes a blocked Next. It may be
// called any number of times.
func (s *Stream[T]) Cancel() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.latest = nil
	sub := s.sub
	s.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	s.notify()
}
