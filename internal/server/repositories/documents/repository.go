// Package documents stores the hub's collection documents.
package documents

import (
	"context"
	"time"

	"github.com/dmitrijs2005/chirper/internal/models"
)

// Repository persists documents. Timestamps are assigned by the caller.
//
// Create fails with common.ErrAlreadyExists when the id is taken. Get,
// Update and Delete fail with common.ErrNotFound for a missing document.
// Query fails with common.ErrInvalidQuery for filters it cannot evaluate.
type Repository interface {
	Create(ctx context.Context, doc *models.Document) (*models.Document, error)
	Get(ctx context.Context, collection, id string) (*models.Document, error)
	Update(ctx context.Context, collection, id string, fields map[string]any, updateTime time.Time) (*models.Document, error)
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, q models.Query) ([]*models.Document, error)
}
