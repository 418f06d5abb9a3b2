// Package router decides which group of screens the user may see: the
// sign-in screens while signed out and the main screens while signed in.
package router

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/chirper/internal/logging"
	"github.com/dmitrijs2005/chirper/internal/models"
)

type Stack int

const (
	StackAuth Stack = iota
	StackMain
)

func (s Stack) String() string {
	if s == StackMain {
		return "main"
	}
	return "auth"
}

type Screen string

const (
	ScreenLogin    Screen = "login"
	ScreenSignup   Screen = "signup"
	ScreenFeed     Screen = "feed"
	ScreenProfile  Screen = "profile"
	ScreenUser     Screen = "user"
	ScreenSearch   Screen = "search"
	ScreenSettings Screen = "settings"
)

var screens = map[Stack][]Screen{
	StackAuth: {ScreenLogin, ScreenSignup},
	StackMain: {ScreenFeed, ScreenProfile, ScreenUser, ScreenSearch, ScreenSettings},
}

// Screens lists the screens of s; the first one is shown on entry.
func (s Stack) Screens() []Screen {
	return slices.Clone(screens[s])
}

func StackFor(id *models.Identity) Stack {
	if id == nil {
		return StackAuth
	}
	return StackMain
}

func Allowed(stack Stack, screen Screen) bool {
	return slices.Contains(screens[stack], screen)
}

// SessionSource is satisfied by session.Session.
type SessionSource interface {
	Current() *models.Identity
	Watch() (<-chan *models.Identity, func())
}

type Router struct {
	session SessionSource
	logger  logging.Logger
}

func New(session SessionSource, logger logging.Logger) *Router {
	return &Router{session: session, logger: logger.With("module", "router")}
}

func (r *Router) Stack() Stack {
	return StackFor(r.session.Current())
}

func (r *Router) Allowed(screen Screen) bool {
	return Allowed(r.Stack(), screen)
}

// Run mounts the stack of the current session and mounts the other stack
// whenever the session crosses between signed in and signed out. The
// previous mount's context is cancelled, and Run waits for it to return,
// before the next one starts. Run returns when ctx is done or the session
// is closed.
func (r *Router) Run(ctx context.Context, mount func(ctx context.Context, stack Stack)) error {
	changes, stopWatching := r.session.Watch()
	defer stopWatching()

	current := r.Stack()
	unmount := r.mount(ctx, current, mount)
	defer func() { unmount() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case id, ok := <-changes:
			if !ok {
				return nil
			}
			next := StackFor(id)
			if next == current {
				continue
			}
			unmount()
			r.logger.Debug(ctx, "switching stack", "from", current.String(), "to", next.String())
			current = next
			unmount = r.mount(ctx, current, mount)
		}
	}
}

func (r *Router) mount(ctx context.Context, stack Stack, mount func(ctx context.Context, stack Stack)) func() {
	mctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		mount(mctx, stack)
	}()
	return func() {
		cancel()
		<-done
	}
}
