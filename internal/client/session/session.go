// Package session holds the process-wide signed-in identity. It is set up
// once with Init, read through Current and observed through Watch.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/chirper/internal/client/backend"
	"github.com/dmitrijs2005/chirper/internal/common"
	"github.com/dmitrijs2005/chirper/internal/logging"
	"github.com/dmitrijs2005/chirper/internal/models"
)

type Session struct {
	auth      backend.Auth
	persister Persister
	logger    logging.Logger

	mu          sync.Mutex
	current     *models.Identity
	watchers    map[int]chan *models.Identity
	nextWatcher int
	unsubscribe func()
	closed      bool
}

func New(auth backend.Auth, persister Persister, logger logging.Logger) *Session {
	return &Session{
		auth:      auth,
		persister: persister,
		logger:    logger.With("module", "session"),
		watchers:  make(map[int]chan *models.Identity),
	}
}

// Init resumes the persisted session, if any, and starts following
// identity changes. A rejected token is forgotten; an unreachable backend
// leaves it stored for the next start.
func (s *Session) Init(ctx context.Context) error {
	stored, err := s.persister.Load(ctx)
	if err != nil {
		return err
	}

	if stored != nil {
		if _, err := s.auth.Resume(ctx, stored.Token); err != nil {
			if errors.Is(err, common.ErrUnavailable) {
				s.logger.Warn(ctx, "Backend unavailable, session not resumed", "error", err)
			} else {
				s.logger.Info(ctx, "Stored session rejected", "error", err)
				if err := s.persister.Clear(ctx); err != nil {
					return err
				}
			}
		}
	}

	s.mu.Lock()
	s.current = s.auth.Current()
	s.unsubscribe = s.auth.OnIdentityChange(s.changed)
	s.mu.Unlock()
	return nil
}

func (s *Session) changed(id *models.Identity) {
	ctx := context.Background()
	if id != nil {
		if err := s.persister.Save(ctx, id); err != nil {
			s.logger.Warn(ctx, "session not persisted", "error", err)
		}
	} else {
		if err := s.persister.Clear(ctx); err != nil {
			s.logger.Warn(ctx, "session not cleared", "error", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.current = id
	for _, ch := range s.watchers {
		offer(ch, id)
	}
}

// offer replaces any unread value in ch with id.
func offer(ch chan *models.Identity, id *models.Identity) {
	select {
	case <-ch:
	default:
	}
	ch <- id
}

// Current returns the signed-in identity, or nil.
func (s *Session) Current() *models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Watch returns a channel receiving the identity after each change, nil
// meaning signed out. Only the latest unread change is kept. The channel is
// closed by cancel or Close.
func (s *Session) Watch() (<-chan *models.Identity, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan *models.Identity, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	key := s.nextWatcher
	s.nextWatcher++
	s.watchers[key] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.watchers[key]; ok {
			delete(s.watchers, key)
			close(c)
		}
	}
}

// Close stops following identity changes and closes every watcher.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	for key, ch := range s.watchers {
		delete(s.watchers, key)
		close(ch)
	}
}
