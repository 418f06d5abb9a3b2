package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/chirper/internal/client/backend"
	"github.com/dmitrijs2005/chirper/internal/client/backend/local"
	"github.com/dmitrijs2005/chirper/internal/client/backend/remote"
	"github.com/dmitrijs2005/chirper/internal/client/config"
	"github.com/dmitrijs2005/chirper/internal/client/messages"
	"github.com/dmitrijs2005/chirper/internal/client/router"
	"github.com/dmitrijs2005/chirper/internal/client/services"
	"github.com/dmitrijs2005/chirper/internal/client/session"
	"github.com/dmitrijs2005/chirper/internal/client/storage"
	"github.com/dmitrijs2005/chirper/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
	ModeLocal   Mode = "local"
)

// pinger is implemented by backends that can lose their connection.
type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	backend backend.Backend
	db      *sql.DB
	session *session.Session
	router  *router.Router

	authService services.AuthService
	postService services.PostService
	userService services.UserService

	reader *bufio.Reader
	out    io.Writer

	mu       sync.Mutex
	mode     Mode
	mountCtx context.Context
	view     *view
}

// NewApp connects to the hub named in c, or starts an in-process one in
// local mode. The stored session is resumed by Run.
func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()
	logger := logging.NewText(os.Stderr, slog.LevelWarn)

	if c.LocalMode {
		b, err := local.New(logger)
		if err != nil {
			return nil, err
		}
		// the in-process hub forgets everything on exit, so does its session
		a := newApp(c, logger, b, &session.MemoryPersister{}, nil)
		a.mode = ModeLocal
		return a, nil
	}

	db, err := storage.OpenDatabase(ctx, c.SessionDBPath)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}

	b, err := remote.NewGRPCClient(c.ServerEndpointAddr, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	return newApp(c, logger, b, session.NewSQLitePersister(db), db), nil
}

func newApp(c *config.Config, logger logging.Logger, b backend.Backend, p session.Persister, db *sql.DB) *App {
	s := session.New(b, p, logger)
	return &App{
		config:      c,
		logger:      logger,
		backend:     b,
		db:          db,
		session:     s,
		router:      router.New(s, logger),
		authService: services.NewAuthService(b, b, logger),
		postService: services.NewPostService(b, s, logger),
		userService: services.NewUserService(b),
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}
}

// Run resumes the stored session, mounts the screens that fit it and reads
// commands until the user leaves or ctx is done.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	if err := a.session.Init(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if p, ok := a.backend.(pinger); ok {
		go a.StartOnlineStatusWatcher(ctx, p, a.config.OnlineCheckInterval)
	}

	routed := make(chan struct{})
	go func() {
		defer close(routed)
		if err := a.router.Run(ctx, a.mount); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error(ctx, "router stopped", "error", err)
		}
	}()

	printlnFn("Welcome to chirper (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))

	cancel()
	<-routed
	return nil
}

// Close releases the open screen, the session and the backend.
func (a *App) Close() {
	a.closeView()
	a.session.Close()
	if err := a.backend.Close(); err != nil {
		a.logger.Warn(context.Background(), "closing backend", "error", err)
	}
	if a.db != nil {
		a.db.Close()
	}
}

// mount is called by the router for each stack it shows. It lasts until
// ctx is done and takes the open screen down with it.
func (a *App) mount(ctx context.Context, stack router.Stack) {
	a.mu.Lock()
	a.mountCtx = ctx
	a.mu.Unlock()

	switch stack {
	case router.StackMain:
		if me := a.session.Current(); me != nil {
			printlnFn("Signed in as", me.Email)
		}
		if err := a.Feed(ctx); err != nil {
			printlnFn("Error:", messages.For(err))
		}
	default:
		printlnFn("Signed out. Type 'login' or 'signup'.")
	}

	<-ctx.Done()
	a.closeView()
}

// screenContext is the context screens live in: the current mount, or the
// background before the router has mounted anything.
func (a *App) screenContext() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mountCtx != nil {
		return a.mountCtx
	}
	return context.Background()
}

// requestContext bounds a single command's backend calls.
func (a *App) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config == nil || a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		printlnFn(fmt.Sprintf("Switched to %s mode", mode))
	}
}

// getStatus shows who is signed in, the connection mode and the open screen.
func (a *App) getStatus() string {
	var parts []string
	if me := a.session.Current(); me != nil {
		parts = append(parts, me.Email)
	}
	a.mu.Lock()
	if a.mode != "" {
		parts = append(parts, string(a.mode))
	}
	if a.view != nil {
		parts = append(parts, string(a.view.screen))
	}
	a.mu.Unlock()
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}

func (a *App) isLoggedIn() bool {
	return a.session.Current() != nil
}

func (a *App) allowed(screen router.Screen) bool {
	return a.router.Allowed(screen)
}

// StartOnlineStatusWatcher pings the hub every interval and switches the
// prompt between online and offline. Live lists do not reconnect on their
// own; reopen the screen once the hub is back.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, p pinger, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := p.Ping(pctx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
