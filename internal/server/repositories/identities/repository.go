// Package identities stores hub credentials.
package identities

import (
	"context"

	"github.com/dmitrijs2005/chirper/internal/server/models"
)

// Repository persists identities. Create fails with common.ErrEmailInUse for
// a duplicate email; lookups fail with common.ErrIdentityNotFound.
type Repository interface {
	Create(ctx context.Context, identity *models.Identity) (*models.Identity, error)
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
	GetByID(ctx context.Context, id string) (*models.Identity, error)
}
