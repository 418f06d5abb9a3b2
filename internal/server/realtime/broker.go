// Package realtime runs live queries: each listener receives the full
// ordered result of its query first on open and again whenever a change to
// the queried collection alters that result.
package realtime

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/dmitrijs2005/chirper/internal/logging"
	"github.com/dmitrijs2005/chirper/internal/models"
	"github.com/dmitrijs2005/chirper/internal/server/metrics"
)

// Source evaluates a query against storage.
type Source interface {
	Query(ctx context.Context, q models.Query) ([]*models.Document, error)
}

// SendFunc delivers one snapshot to a listener.
type SendFunc func(docs []*models.Document) error

type listener struct {
	query models.Query
	dirty chan struct{}
}

type Broker struct {
	source  Source
	logger  logging.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	listeners map[string]map[*listener]struct{}
}

func NewBroker(source Source, logger logging.Logger, m *metrics.Metrics) *Broker {
	return &Broker{
		source:    source,
		logger:    logger.With("module", "realtime"),
		metrics:   m,
		listeners: make(map[string]map[*listener]struct{}),
	}
}

// Changed marks every listener on collection for re-evaluation. It never
// blocks: pending signals for a listener are coalesced into one.
func (b *Broker) Changed(collection string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for l := range b.listeners[collection] {
		select {
		case l.dirty <- struct{}{}:
		default:
		}
	}
}

// Listen blocks until ctx is done, send fails or the query fails. The first
// snapshot is sent immediately. A query error ends the listener and is
// returned once; there is no retry.
func (b *Broker) Listen(ctx context.Context, q models.Query, send SendFunc) error {
	l := &listener{query: q, dirty: make(chan struct{}, 1)}
	b.add(l)
	defer b.remove(l)

	b.metrics.SubscriptionOpened()
	defer b.metrics.SubscriptionClosed()

	var last []*models.Document
	first := true
	for {
		docs, err := b.source.Query(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Warn(ctx, "live query failed", "collection", q.Collection, "error", err)
			return fmt.Errorf("live query: %w", err)
		}

		if first || !sameSnapshot(last, docs) {
			if err := send(docs); err != nil {
				return err
			}
			b.metrics.ObserveSnapshot(q.Collection)
			last = docs
			first = false
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.dirty:
		}
	}
}

// Count reports the open listeners on collection.
func (b *Broker) Count(collection string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[collection])
}

func (b *Broker) add(l *listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.listeners[l.query.Collection]
	if !ok {
		set = make(map[*listener]struct{})
		b.listeners[l.query.Collection] = set
	}
	set[l] = struct{}{}
}

func (b *Broker) remove(l *listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set := b.listeners[l.query.Collection]
	delete(set, l)
	if len(set) == 0 {
		delete(b.listeners, l.query.Collection)
	}
}

func sameSnapshot(a, b []*models.Document) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID ||
			!a[i].CreateTime.Equal(b[i].CreateTime) ||
			!a[i].UpdateTime.Equal(b[i].UpdateTime) ||
			!reflect.DeepEqual(a[i].Fields, b[i].Fields) {
			return false
		}
	}
	return true
}
