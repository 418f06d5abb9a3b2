// Package services contains the hub's business logic. IdentityService
// issues and verifies identities; DocumentService applies the permission
// rules to document reads, writes and live queries.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/chirper/internal/common"
	"github.com/dmitrijs2005/chirper/internal/models"
	"github.com/dmitrijs2005/chirper/internal/server/auth"
	"github.com/dmitrijs2005/chirper/internal/server/config"
	servermodels "github.com/dmitrijs2005/chirper/internal/server/models"
	"github.com/dmitrijs2005/chirper/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

type IdentityService struct {
	repomanager           repomanager.RepositoryManager
	jwtSecret             []byte
	tokenValidityDuration time.Duration
	cost                  int
}

func NewIdentityService(m repomanager.RepositoryManager, cfg *config.Config) *IdentityService {
	return &IdentityService{
		repomanager:           m,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
		cost:                  bcrypt.DefaultCost,
	}
}

// SignUp creates an identity and signs it in.
func (s *IdentityService) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	email = strings.TrimSpace(email)
	if !models.IsEmailShaped(email) {
		return nil, common.ErrInvalidEmail
	}
	if utf8.RuneCountInString(password) < models.MinPasswordLength {
		return nil, common.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repomanager.Identities().Create(ctx, &servermodels.Identity{Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrEmailInUse) {
			return nil, common.ErrEmailInUse
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return s.issue(created)
}

// SignIn verifies a password and returns the identity with a fresh token.
func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	email = strings.TrimSpace(email)
	if !models.IsEmailShaped(email) {
		return nil, common.ErrInvalidEmail
	}

	stored, err := s.repomanager.Identities().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrIdentityNotFound) {
			return nil, common.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrWrongCredential
	}
	return s.issue(stored)
}

// Authenticate resolves an access token to a still existing identity.
func (s *IdentityService) Authenticate(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	stored, err := s.repomanager.Identities().GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrIdentityNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return &models.Identity{ID: stored.ID, Email: stored.Email, Token: token}, nil
}

func (s *IdentityService) issue(stored *servermodels.Identity) (*models.Identity, error) {
	token, err := auth.GenerateToken(stored.ID, stored.Email, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return nil, err
	}
	return &models.Identity{ID: stored.ID, Email: stored.Email, Token: token}, nil
}
