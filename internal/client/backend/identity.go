package backend

import (
	"sync"

	"github.com/dmitrijs2005/chirper/internal/models"
)

// IdentityState holds the signed-in identity of a backend and notifies
// listeners when it changes.
type IdentityState struct {
	mu        sync.Mutex
	current   *models.Identity
	listeners map[int]func(*models.Identity)
	next      int
}

func (s *IdentityState) Current() *models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Token returns the access token of the current identity, or "".
func (s *IdentityState) Token() string {
	if id := s.Current(); id != nil {
		return id.Token
	}
	return ""
}

// Set replaces the current identity and calls every listener, outside the
// lock, in registration order.
func (s *IdentityState) Set(id *models.Identity) {
	s.mu.Lock()
	s.current = id
	fns := make([]func(*models.Identity), 0, len(s.listeners))
	for i := 0; i < s.next; i++ {
		if fn, ok := s.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}

func (s *IdentityState) OnChange(fn func(*models.Identity)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listeners == nil {
		s.listeners = make(map[int]func(*models.Identity))
	}
	key := s.next
	s.next++
	s.listeners[key] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, key)
		})
	}
}
