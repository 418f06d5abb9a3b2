// Package backend defines what the client needs from the managed backend:
// an identity provider and a document store with live queries.
//
// Two implementations exist: remote talks to a hub over gRPC, local runs
// a hub in process.
package backend

import (
	"context"

	"github.com/dmitrijs2005/chirper/internal/models"
)

// Auth issues and verifies identities. The identity it holds is the one
// every Store call is made on behalf of.
type Auth interface {
	CreateIdentity(ctx context.Context, email, password string) (*models.Identity, error)
	VerifyIdentity(ctx context.Context, email, password string) (*models.Identity, error)
	// Resume signs in again with a previously issued token.
	Resume(ctx context.Context, token string) (*models.Identity, error)
	SignOut(ctx context.Context) error
	Current() *models.Identity
	// OnIdentityChange calls fn after every sign-in and sign-out, with nil
	// for the latter.
	OnIdentityChange(fn func(*models.Identity)) (unsubscribe func())
}

// Store is a collection-scoped document database.
type Store interface {
	// CreateDocument stores fields under id, or under a generated id when
	// id is empty, and returns the id.
	CreateDocument(ctx context.Context, collection, id string, fields map[string]any) (string, error)
	GetDocument(ctx context.Context, collection, id string) (*models.Document, error)
	// UpdateDocument merges partial into the stored fields.
	UpdateDocument(ctx context.Context, collection, id string, partial map[string]any) error
	DeleteDocument(ctx context.Context, collection, id string) error
	Query(ctx context.Context, q models.Query) ([]*models.Document, error)
	// SubscribeQuery delivers the full result of q now and after every
	// change to it. onError is called at most once, after which nothing
	// more is delivered.
	SubscribeQuery(ctx context.Context, q models.Query, onSnapshot func([]*models.Document), onError func(error)) (Subscription, error)
}

// Backend is both halves of the managed backend.
type Backend interface {
	Auth
	Store
	Close() error
}

type Subscription interface {
	// Cancel stops delivery. It may be called any number of times.
	Cancel()
}
