// Package local runs a complete hub inside the client process, backed by
// in-memory repositories. It serves offline use and tests.
package local

import (
	"context"
	"time"

	"github.com/dmitrijs2005/chirper/internal/client/backend"
	"github.com/dmitrijs2005/chirper/internal/logging"
	"github.com/dmitrijs2005/chirper/internal/models"
	"github.com/dmitrijs2005/chirper/internal/server/config"
	"github.com/dmitrijs2005/chirper/internal/server/notify"
	"github.com/dmitrijs2005/chirper/internal/server/realtime"
	"github.com/dmitrijs2005/chirper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chirper/internal/server/services"
)

const tokenValidity = 24 * time.Hour

type Backend struct {
	backend.IdentityState

	repomanager repomanager.RepositoryManager
	notifier    notify.Notifier
	unsubscribe func()
	identities  *services.IdentityService
	documents   *services.DocumentService
	logger      logging.Logger
}

var _ backend.Backend = (*Backend)(nil)

func New(logger logging.Logger) (*Backend, error) {
	logger = logger.With("module", "local_backend")

	rm := repomanager.NewMemoryRepositoryManager()
	n := notify.NewLocal()
	broker := realtime.NewBroker(rm.Documents(), logger, nil)
	unsubscribe, err := n.Subscribe(broker.Changed)
	if err != nil {
		return nil, err
	}

	cfg := &config.Config{SecretKey: "local", TokenValidityDuration: tokenValidity}
	return &Backend{
		repomanager: rm,
		notifier:    n,
		unsubscribe: unsubscribe,
		identities:  services.NewIdentityService(rm, cfg),
		documents:   services.NewDocumentService(rm, n, broker, logger, nil),
		logger:      logger,
	}, nil
}

func (b *Backend) caller() string {
	if id := b.Current(); id != nil {
		return id.ID
	}
	return ""
}

func (b *Backend) CreateIdentity(ctx context.Context, email, password string) (*models.Identity, error) {
	id, err := b.identities.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	b.Set(id)
	return id, nil
}

func (b *Backend) VerifyIdentity(ctx context.Context, email, password string) (*models.Identity, error) {
	id, err := b.identities.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	b.Set(id)
	return id, nil
}

func (b *Backend) Resume(ctx context.Context, token string) (*models.Identity, error) {
	id, err := b.identities.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	b.Set(id)
	return id, nil
}

func (b *Backend) SignOut(_ context.Context) error {
	b.Set(nil)
	return nil
}

func (b *Backend) OnIdentityChange(fn func(*models.Identity)) func() {
	return b.OnChange(fn)
}

func (b *Backend) CreateDocument(ctx context.Context, collection, id string, fields map[string]any) (string, error) {
	doc, err := b.documents.Create(ctx, b.caller(), collection, id, fields)
	if err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (b *Backend) GetDocument(ctx context.Context, collection, id string) (*models.Document, error) {
	return b.documents.Get(ctx, b.caller(), collection, id)
}

func (b *Backend) UpdateDocument(ctx context.Context, collection, id string, partial map[string]any) error {
	_, err := b.documents.Update(ctx, b.caller(), collection, id, partial)
	return err
}

func (b *Backend) DeleteDocument(ctx context.Context, collection, id string) error {
	return b.documents.Delete(ctx, b.caller(), collection, id)
}

func (b *Backend) Query(ctx context.Context, q models.Query) ([]*models.Document, error) {
	return b.documents.Query(ctx, b.caller(), q)
}

// SubscribeQuery runs the live query on its own goroutine. The caller is
// fixed when the subscription opens.
func (b *Backend) SubscribeQuery(ctx context.Context, q models.Query,
	onSnapshot func([]*models.Document), onError func(error)) (backend.Subscription, error) {

	caller := b.caller()
	l, lctx := backend.NewListener(ctx)

	go func() {
		err := b.documents.Listen(lctx, caller, q, func(docs []*models.Document) error {
			if !l.Active() {
				return context.Canceled
			}
			onSnapshot(docs)
			return nil
		})
		if lctx.Err() != nil {
			err = nil
		}
		l.Finish(err, onError)
	}()

	return l, nil
}

func (b *Backend) Close() error {
	b.unsubscribe()
	if err := b.notifier.Close(); err != nil {
		return err
	}
	return b.repomanager.Close()
}
