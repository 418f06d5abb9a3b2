package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/chirper/internal/client/backend"
	"github.com/dmitrijs2005/chirper/internal/client/live"
	"github.com/dmitrijs2005/chirper/internal/common"
	"github.com/dmitrijs2005/chirper/internal/models"
)

// SearchLimit caps the suggestions of a handle search.
const SearchLimit = 20

// prefixEnd closes the handle range of a prefix search.
const prefixEnd = "\uf8ff"

type UserService interface {
	// Search follows the accounts whose handle starts with prefix.
	Search(ctx context.Context, prefix string) (*live.Stream[models.Account], error)
	ByHandle(ctx context.Context, handle string) (models.Account, error)
	ByID(ctx context.Context, uid string) (models.Account, error)
}

type userService struct {
	store backend.Store
}

func NewUserService(store backend.Store) UserService {
	return &userService{store: store}
}

func prefixQuery(prefix string) models.Query {
	q := models.Query{Collection: common.CollectionAccounts}.
		Where(common.FieldHandle, models.OpGreaterOrEqual, prefix).
		Where(common.FieldHandle, models.OpLessOrEqual, prefix+prefixEnd).
		OrderBy(common.FieldHandle, false)
	q.Limit = SearchLimit
	return q
}

func (s *userService) Search(ctx context.Context, prefix string) (*live.Stream[models.Account], error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, common.ErrEmptySearch
	}
	return live.Subscribe(ctx, s.store, prefixQuery(prefix), models.AccountFromDocument)
}

func (s *userService) ByHandle(ctx context.Context, handle string) (models.Account, error) {
	docs, err := s.store.Query(ctx, handleQuery(strings.TrimSpace(handle)))
	if err != nil {
		return models.Account{}, err
	}
	if len(docs) == 0 {
		return models.Account{}, common.ErrHandleNotFound
	}
	return models.AccountFromDocument(docs[0]), nil
}

func (s *userService) ByID(ctx context.Context, uid string) (models.Account, error) {
	doc, err := s.store.GetDocument(ctx, common.CollectionAccounts, uid)
	if err != nil {
		return models.Account{}, err
	}
	return models.AccountFromDocument(doc), nil
}
