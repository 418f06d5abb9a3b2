// Package repomanager vends the hub's repositories, either backed by
// PostgreSQL or held in memory, behind one interface.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/chirper/internal/server/repositories/documents"
	"github.com/dmitrijs2005/chirper/internal/server/repositories/identities"
)

// RepositoryManager gives access to the repositories. WithTx runs fn with a
// manager whose repositories share one transaction.
type RepositoryManager interface {
	Identities() identities.Repository
	Documents() documents.Repository
	WithTx(ctx context.Context, fn func(tx RepositoryManager) error) error
	Close() error
}
