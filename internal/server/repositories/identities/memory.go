package identities

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/chirper/internal/common"
	"github.com/dmitrijs2005/chirper/internal/server/models"
	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.Identity
	byEmail map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.Identity),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(_ context.Context, identity *models.Identity) (*models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[identity.Email]; ok {
		return nil, common.ErrEmailInUse
	}

	identity.ID = uuid.NewString()
	identity.CreatedAt = time.Now().UTC()

	stored := *identity
	r.byID[stored.ID] = &stored
	r.byEmail[stored.Email] = stored.ID
	return identity, nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return nil, common.ErrIdentityNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.byID[id]
	if !ok {
		return nil, common.ErrIdentityNotFound
	}
	c := *identity
	return &c, nil
}
