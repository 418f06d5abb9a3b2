package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/chirper/internal/logging"
	"github.com/dmitrijs2005/chirper/internal/models"
	"github.com/dmitrijs2005/chirper/internal/server/metrics"
	"github.com/dmitrijs2005/chirper/internal/server/notify"
	"github.com/dmitrijs2005/chirper/internal/server/realtime"
	"github.com/dmitrijs2005/chirper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chirper/internal/server/rules"
	"github.com/google/uuid"
)

type DocumentService struct {
	repomanager repomanager.RepositoryManager
	notifier    notify.Notifier
	broker      *realtime.Broker
	logger      logging.Logger
	metrics     *metrics.Metrics

	clockMu sync.Mutex
	now     func() time.Time
	last    time.Time
}

func NewDocumentService(m repomanager.RepositoryManager, n notify.Notifier, b *realtime.Broker,
	logger logging.Logger, mt *metrics.Metrics) *DocumentService {
	return &DocumentService{
		repomanager: m,
		notifier:    n,
		broker:      b,
		logger:      logger.With("module", "documents"),
		metrics:     mt,
		now:         time.Now,
	}
}

// stamp returns the next write time. Values never go backwards, so create
// times follow insert order. Precision matches PostgreSQL timestamptz.
func (s *DocumentService) stamp() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	t := s.now().UTC().Truncate(time.Microsecond)
	if t.Before(s.last) {
		t = s.last
	}
	s.last = t
	return t
}

// Create stores a new document. An empty id is replaced by a generated one.
func (s *DocumentService) Create(ctx context.Context, caller string, collection, id string, fields map[string]any) (*models.Document, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if fields == nil {
		fields = map[string]any{}
	}
	t := s.stamp()
	doc := &models.Document{Collection: collection, ID: id, Fields: fields, CreateTime: t, UpdateTime: t}

	if err := rules.CanCreate(rules.Caller(caller), doc); err != nil {
		return nil, err
	}

	created, err := s.repomanager.Documents().Create(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, collection, "create")
	return created, nil
}

func (s *DocumentService) Get(ctx context.Context, caller string, collection, id string) (*models.Document, error) {
	if err := rules.CanRead(rules.Caller(caller), collection); err != nil {
		return nil, err
	}
	return s.repomanager.Documents().Get(ctx, collection, id)
}

// Update merges fields into an existing document.
func (s *DocumentService) Update(ctx context.Context, caller string, collection, id string, fields map[string]any) (*models.Document, error) {
	var updated *models.Document
	err := s.repomanager.WithTx(ctx, func(tx repomanager.RepositoryManager) error {
		existing, err := tx.Documents().Get(ctx, collection, id)
		if err != nil {
			return err
		}
		if err := rules.CanUpdate(rules.Caller(caller), existing, fields); err != nil {
			return err
		}
		updated, err = tx.Documents().Update(ctx, collection, id, fields, s.stamp())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, collection, "update")
	return updated, nil
}

func (s *DocumentService) Delete(ctx context.Context, caller string, collection, id string) error {
	err := s.repomanager.WithTx(ctx, func(tx repomanager.RepositoryManager) error {
		existing, err := tx.Documents().Get(ctx, collection, id)
		if err != nil {
			return err
		}
		if err := rules.CanDelete(rules.Caller(caller), existing); err != nil {
			return err
		}
		return tx.Documents().Delete(ctx, collection, id)
	})
	if err != nil {
		return err
	}
	s.changed(ctx, collection, "delete")
	return nil
}

func (s *DocumentService) Query(ctx context.Context, caller string, q models.Query) ([]*models.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := rules.CanRead(rules.Caller(caller), q.Collection); err != nil {
		return nil, err
	}
	return s.repomanager.Documents().Query(ctx, q)
}

// Listen runs a live query until ctx is done; see realtime.Broker.Listen.
func (s *DocumentService) Listen(ctx context.Context, caller string, q models.Query, send realtime.SendFunc) error {
	if err := q.Validate(); err != nil {
		return err
	}
	if err := rules.CanRead(rules.Caller(caller), q.Collection); err != nil {
		return err
	}
	return s.broker.Listen(ctx, q, send)
}

// changed is called after a committed write. A failed notification only
// delays live queries until the next change, so it is logged, not returned.
func (s *DocumentService) changed(ctx context.Context, collection, op string) {
	s.metrics.ObserveWrite(collection, op)
	if err := s.notifier.Publish(ctx, collection); err != nil {
		s.logger.Warn(ctx, "change notification failed", "collection", collection, "error", err)
	}
}
