package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/chirper/internal/client/backend"
	"github.com/dmitrijs2005/chirper/internal/common"
	"github.com/dmitrijs2005/chirper/internal/logging"
	"github.com/dmitrijs2005/chirper/internal/models"
)

// AnonymousHandle is shown for authors whose account cannot be read.
const AnonymousHandle = "Anonymous"

// CurrentIdentity is satisfied by session.Session and backend.Auth.
type CurrentIdentity interface {
	Current() *models.Identity
}

// PostService writes posts on behalf of the signed-in identity and
// resolves author handles for display.
type PostService interface {
	Compose(ctx context.Context, body string) (string, error)
	// CanEdit gates both the edit and the delete control.
	CanEdit(post models.Post) bool
	Edit(ctx context.Context, post models.Post, body string) error
	Delete(ctx context.Context, post models.Post) error
	Handle(ctx context.Context, authorID string) string
}

type postService struct {
	store    backend.Store
	identity CurrentIdentity
	logger   logging.Logger

	mu      sync.Mutex
	handles map[string]string
}

func NewPostService(store backend.Store, identity CurrentIdentity, logger logging.Logger) PostService {
	return &postService{
		store:    store,
		identity: identity,
		logger:   logger.With("module", "post_service"),
		handles:  make(map[string]string),
	}
}

func (s *postService) Compose(ctx context.Context, body string) (string, error) {
	body, err := models.NormalizeBody(body)
	if err != nil {
		return "", err
	}
	me := s.identity.Current()
	if me == nil {
		return "", common.ErrUnauthenticated
	}

	return s.store.CreateDocument(ctx, common.CollectionPosts, "", map[string]any{
		common.FieldAuthorID:  me.ID,
		common.FieldBody:      body,
		common.FieldCreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *postService) CanEdit(post models.Post) bool {
	me := s.identity.Current()
	return me != nil && post.OwnedBy(me.ID)
}

func (s *postService) Edit(ctx context.Context, post models.Post, body string) error {
	body, err := models.NormalizeBody(body)
	if err != nil {
		return err
	}
	if !s.CanEdit(post) {
		return common.ErrNotOwner
	}
	return s.store.UpdateDocument(ctx, common.CollectionPosts, post.ID, map[string]any{
		common.FieldBody:      body,
		common.FieldUpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *postService) Delete(ctx context.Context, post models.Post) error {
	if !s.CanEdit(post) {
		return common.ErrNotOwner
	}
	return s.store.DeleteDocument(ctx, common.CollectionPosts, post.ID)
}

// Handle returns the author's handle. Found handles are cached for the
// life of the service; failures are retried on the next call.
func (s *postService) Handle(ctx context.Context, authorID string) string {
	s.mu.Lock()
	h, ok := s.handles[authorID]
	s.mu.Unlock()
	if ok {
		return h
	}

	doc, err := s.store.GetDocument(ctx, common.CollectionAccounts, authorID)
	if err != nil {
		s.logger.Debug(ctx, "handle lookup failed", "uid", authorID, "error", err)
		return AnonymousHandle
	}
	h = doc.String(common.FieldHandle)
	if h == "" {
		return AnonymousHandle
	}

	s.mu.Lock()
	s.handles[authorID] = h
	s.mu.Unlock()
	return h
}
