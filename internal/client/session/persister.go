package session

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/chirper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/chirper/internal/common"
	"github.com/dmitrijs2005/chirper/internal/dbx"
	"github.com/dmitrijs2005/chirper/internal/models"
)

// Persister keeps the signed-in identity across restarts.
type Persister interface {
	// Load returns nil when nothing is stored.
	Load(ctx context.Context) (*models.Identity, error)
	Save(ctx context.Context, id *models.Identity) error
	Clear(ctx context.Context) error
}

// SQLitePersister stores the identity in the metadata table.
type SQLitePersister struct {
	db *sql.DB
}

func NewSQLitePersister(db *sql.DB) *SQLitePersister {
	return &SQLitePersister{db: db}
}

func (p *SQLitePersister) Load(ctx context.Context) (*models.Identity, error) {
	r := metadata.NewSQLiteRepository(p.db)

	id := &models.Identity{}
	for _, f := range []struct {
		key string
		dst *string
	}{
		{common.MetaSessionUID, &id.ID},
		{common.MetaSessionEmail, &id.Email},
		{common.MetaSessionToken, &id.Token},
	} {
		v, _, err := r.Get(ctx, f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	if id.ID == "" || id.Token == "" {
		return nil, nil
	}
	return id, nil
}

// Save writes all three keys in one transaction.
func (p *SQLitePersister) Save(ctx context.Context, id *models.Identity) error {
	return dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := metadata.NewSQLiteRepository(tx)
		if err := r.Set(ctx, common.MetaSessionUID, id.ID); err != nil {
			return err
		}
		if err := r.Set(ctx, common.MetaSessionEmail, id.Email); err != nil {
			return err
		}
		return r.Set(ctx, common.MetaSessionToken, id.Token)
	})
}

func (p *SQLitePersister) Clear(ctx context.Context) error {
	return metadata.NewSQLiteRepository(p.db).Delete(ctx, common.MetaSessionUID, common.MetaSessionEmail, common.MetaSessionToken)
}

// MemoryPersister forgets everything when the process exits.
type MemoryPersister struct {
	mu sync.Mutex
	id *models.Identity
}

func (m *MemoryPersister) Load(context.Context) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id, nil
}

func (m *MemoryPersister) Save(_ context.Context, id *models.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *id
	m.id = &c
	return nil
}

func (m *MemoryPersister) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = nil
	return nil
}
