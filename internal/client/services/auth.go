// Package services contains the application services behind the client's
// screens. This file defines the authentication service: sign-in by email
// or handle, sign-up with a handle, and sign-out.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/chirper/internal/client/backend"
	"github.com/dmitrijs2005/chirper/internal/common"
	"github.com/dmitrijs2005/chirper/internal/logging"
	"github.com/dmitrijs2005/chirper/internal/models"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - ResolveEmail: turn what the user typed at login into an email.
//   - Login: validate locally, resolve, then verify the credentials.
//   - Signup: validate locally, check the handle, create the identity and
//     its public account.
//   - SignOut: end the session.
//
// Passwords are taken as byte slices so callers can wipe them afterwards.
type AuthService interface {
	ResolveEmail(ctx context.Context, identifier string) (string, error)
	Login(ctx context.Context, identifier string, password []byte) (*models.Identity, error)
	Signup(ctx context.Context, email string, password []byte, handle string) (*models.Identity, error)
	SignOut(ctx context.Context) error
}

type authService struct {
	auth   backend.Auth
	store  backend.Store
	logger logging.Logger
}

func NewAuthService(auth backend.Auth, store backend.Store, logger logging.Logger) AuthService {
	return &authService{auth: auth, store: store, logger: logger.With("module", "auth_service")}
}

// handleQuery is the exact-match lookup of an account by handle.
func handleQuery(handle string) models.Query {
	return models.Query{Collection: common.CollectionAccounts}.
		Where(common.FieldHandle, models.OpEqual, handle)
}

// ResolveEmail returns email-shaped input unchanged. Anything else is taken
// as a handle; handles are not guaranteed unique, so the first match wins.
func (a *authService) ResolveEmail(ctx context.Context, identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if models.IsEmailShaped(identifier) {
		return identifier, nil
	}

	docs, err := a.store.Query(ctx, handleQuery(identifier))
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", common.ErrHandleNotFound
	}
	return docs[0].String(common.FieldEmail), nil
}

func (a *authService) Login(ctx context.Context, identifier string, password []byte) (*models.Identity, error) {
	if strings.TrimSpace(identifier) == "" {
		return nil, common.ErrEmptyIdentifier
	}
	if err := models.ValidatePassword(password); err != nil {
		return nil, err
	}

	email, err := a.ResolveEmail(ctx, identifier)
	if err != nil {
		return nil, err
	}

	id, err := a.auth.VerifyIdentity(ctx, email, string(password))
	if err != nil {
		return nil, err
	}
	a.logger.Info(ctx, "Signed in", "uid", id.ID)
	return id, nil
}

// Signup checks the handle with a read before creating anything. The check
// and the account write are separate calls, so two sign-ups racing for the
// same handle can both succeed.
func (a *authService) Signup(ctx context.Context, email string, password []byte, handle string) (*models.Identity, error) {
	email = strings.TrimSpace(email)
	if err := models.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := models.ValidatePassword(password); err != nil {
		return nil, err
	}
	handle, err := models.NormalizeHandle(handle)
	if err != nil {
		return nil, err
	}

	q := handleQuery(handle)
	q.Limit = 1
	taken, err := a.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(taken) > 0 {
		return nil, common.ErrHandleTaken
	}

	id, err := a.auth.CreateIdentity(ctx, email, string(password))
	if err != nil {
		return nil, err
	}

	account := map[string]any{
		common.FieldAuthorID:  id.ID,
		common.FieldHandle:    handle,
		common.FieldEmail:     id.Email,
		common.FieldCreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := a.store.CreateDocument(ctx, common.CollectionAccounts, id.ID, account); err != nil {
		a.logger.Error(ctx, "identity created without account", "uid", id.ID, "error", err)
		return nil, err
	}

	a.logger.Info(ctx, "Signed up", "uid", id.ID, "handle", handle)
	return id, nil
}

func (a *authService) SignOut(ctx context.Context) error {
	return a.auth.SignOut(ctx)
}
