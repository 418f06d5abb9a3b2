package documents

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/chirper/internal/common"
	"github.com/dmitrijs2005/chirper/internal/models"
)

type key struct {
	collection, id string
}

// MemoryRepository keeps documents in a map and evaluates queries with
// models.Query.Apply.
type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[key]*models.Document
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[key]*models.Document)}
}

func (r *MemoryRepository) Create(_ context.Context, doc *models.Document) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{doc.Collection, doc.ID}
	if _, ok := r.docs[k]; ok {
		return nil, common.ErrAlreadyExists
	}
	r.docs[k] = doc.Clone()
	return doc.Clone(), nil
}

func (r *MemoryRepository) Get(_ context.Context, collection, id string) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.docs[key{collection, id}]
	if !ok {
		return nil, common.ErrNotFound
	}
	return d.Clone(), nil
}

func (r *MemoryRepository) Update(_ context.Context, collection, id string, fields map[string]any, updateTime time.Time) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.docs[key{collection, id}]
	if !ok {
		return nil, common.ErrNotFound
	}
	updated := d.Clone()
	for k, v := range fields {
		updated.Fields[k] = v
	}
	updated.UpdateTime = updateTime
	r.docs[key{collection, id}] = updated
	return updated.Clone(), nil
}

func (r *MemoryRepository) Delete(_ context.Context, collection, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{collection, id}
	if _, ok := r.docs[k]; !ok {
		return common.ErrNotFound
	}
	delete(r.docs, k)
	return nil
}

func (r *MemoryRepository) Query(_ context.Context, q models.Query) ([]*models.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	all := make([]*models.Document, 0, len(r.docs))
	for k, d := range r.docs {
		if k.collection == q.Collection {
			all = append(all, d.Clone())
		}
	}
	r.mu.RUnlock()

	return q.Apply(all), nil
}
