package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/chirper/internal/server/repositories/documents"
	"github.com/dmitrijs2005/chirper/internal/server/repositories/identities"
)

// MemoryRepositoryManager keeps everything in process. WithTx serialises
// transactions against each other but does not isolate them from
// non-transactional calls, and nothing is rolled back on error.
type MemoryRepositoryManager struct {
	txMu       *sync.Mutex
	identities *identities.MemoryRepository
	documents  *documents.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		txMu:       &sync.Mutex{},
		identities: identities.NewMemoryRepository(),
		documents:  documents.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Identities() identities.Repository {
	return m.identities
}

func (m *MemoryRepositoryManager) Documents() documents.Repository {
	return m.documents
}

func (m *MemoryRepositoryManager) WithTx(_ context.Context, fn func(tx RepositoryManager) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

func (m *MemoryRepositoryManager) Close() error {
	return nil
}
