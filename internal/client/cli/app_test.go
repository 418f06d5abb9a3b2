package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/chirper/internal/client/backend/local"
	"github.com/dmitrijs2005/chirper/internal/client/config"
	"github.com/dmitrijs2005/chirper/internal/client/router"
	"github.com/dmitrijs2005/chirper/internal/client/session"
	"github.com/dmitrijs2005/chirper/internal/common"
	"github.com/dmitrijs2005/chirper/internal/logging"
	"github.com/dmitrijs2005/chirper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// screenOutput collects everything printed, including from render goroutines.
type screenOutput struct {
	mu sync.Mutex
	b  strings.Builder
}

func (o *screenOutput) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.b.String()
}

func captureOutput(t *testing.T) *screenOutput {
	t.Helper()
	o := &screenOutput{}
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		o.mu.Lock()
		defer o.mu.Unlock()
		return fmt.Fprintln(&o.b, a...)
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return o
}

// answer feeds the text prompts in order.
func answer(t *testing.T, lines ...string) {
	t.Helper()
	origText, origMulti := getSimpleText, getMultiline
	next := func(*bufio.Reader, string, io.Writer) (string, error) {
		if len(lines) == 0 {
			return "", io.EOF
		}
		s := lines[0]
		lines = lines[1:]
		return s, nil
	}
	getSimpleText = next
	getMultiline = next
	t.Cleanup(func() {
		getSimpleText = origText
		getMultiline = origMulti
	})
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(io.Writer, string) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = orig })
}

// newTestApp must be called after captureOutput so that its screens are
// closed before the output seam is restored.
func newTestApp(t *testing.T) (*App, *local.Backend) {
	t.Helper()
	b, err := local.New(logging.Discard())
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	a := newApp(cfg, logging.Discard(), b, &session.MemoryPersister{}, nil)
	a.mode = ModeLocal
	require.NoError(t, a.session.Init(context.Background()))
	t.Cleanup(a.Close)
	return a, b
}

func signupAs(t *testing.T, a *App, email, handle string) {
	t.Helper()
	answer(t, email, handle)
	stubPassword(t, "secret")
	require.NoError(t, a.Signup(context.Background()))
}

func eventuallyShows(t *testing.T, out *screenOutput, text string) {
	t.Helper()
	require.Eventually(t, func() bool { return strings.Contains(out.String(), text) },
		3*time.Second, 10*time.Millisecond, "output never showed %q:\n%s", text, out)
}

func TestApp_StatusFollowsSession(t *testing.T) {
	captureOutput(t)
	a, _ := newTestApp(t)

	assert.Equal(t, "(local)", a.getStatus())
	assert.False(t, a.isLoggedIn())
	assert.True(t, a.allowed(router.ScreenLogin))
	assert.False(t, a.allowed(router.ScreenFeed))

	signupAs(t, a, "a@b.com", "alice")

	assert.Equal(t, "(a@b.com local)", a.getStatus())
	assert.True(t, a.isLoggedIn())
	assert.True(t, a.allowed(router.ScreenFeed))

	require.NoError(t, a.Logout(context.Background()))
	assert.False(t, a.isLoggedIn())
}

func TestApp_Login(t *testing.T) {
	captureOutput(t)
	a, _ := newTestApp(t)
	ctx := context.Background()

	signupAs(t, a, "a@b.com", "alice")
	require.NoError(t, a.Logout(ctx))

	answer(t, "alice")
	stubPassword(t, "wrong!")
	assert.ErrorIs(t, a.Login(ctx), common.ErrWrongCredential)
	assert.False(t, a.isLoggedIn())

	answer(t, "alice")
	stubPassword(t, "secret")
	require.NoError(t, a.Login(ctx))
	assert.Equal(t, "a@b.com", a.session.Current().Email)
}

func TestApp_InputErrorsStopTheCommand(t *testing.T) {
	captureOutput(t)
	a, _ := newTestApp(t)

	answer(t)
	assert.ErrorIs(t, a.Login(context.Background()), io.EOF)

	orig := getPassword
	getPassword = func(io.Writer, string) ([]byte, error) { return nil, errors.New("no tty") }
	t.Cleanup(func() { getPassword = orig })
	answer(t, "a@b.com", "alice")
	assert.Error(t, a.Signup(context.Background()))
	assert.False(t, a.isLoggedIn())
}

func TestApp_PostShowsUpOnOpenFeed(t *testing.T) {
	out := captureOutput(t)
	a, _ := newTestApp(t)
	ctx := context.Background()

	signupAs(t, a, "a@b.com", "alice")
	require.NoError(t, a.Feed(ctx))
	eventuallyShows(t, out, "No posts yet.")

	answer(t, "hello world")
	require.NoError(t, a.Post(ctx))

	eventuallyShows(t, out, "@alice")
	eventuallyShows(t, out, "    hello world")
}

func TestApp_EditAndDeleteOnOpenList(t *testing.T) {
	out := captureOutput(t)
	a, b := newTestApp(t)
	ctx := context.Background()

	signupAs(t, a, "a@b.com", "alice")

	assert.ErrorIs(t, a.Delete(ctx, "x"), errNoList)

	answer(t, "first")
	require.NoError(t, a.Post(ctx))
	docs, err := b.Query(ctx, models.PostsByAuthor(""))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	id := docs[0].ID

	require.NoError(t, a.Profile(ctx))
	eventuallyShows(t, out, "* "+id)

	answer(t, "first, edited")
	require.NoError(t, a.Edit(ctx, id))
	eventuallyShows(t, out, "(edited)")
	eventuallyShows(t, out, "first, edited")

	answer(t, "   ")
	assert.ErrorIs(t, a.Edit(ctx, id), common.ErrEmptyBody)

	assert.ErrorIs(t, a.Delete(ctx, "missing"), common.ErrNotFound)
	require.NoError(t, a.Delete(ctx, id))
	require.Eventually(t, func() bool {
		docs, err := b.Query(ctx, models.PostsByAuthor(""))
		return err == nil && len(docs) == 0
	}, 3*time.Second, 10*time.Millisecond)
}

func TestApp_OtherUsersPostsAreNotEditable(t *testing.T) {
	out := captureOutput(t)
	a, _ := newTestApp(t)
	ctx := context.Background()

	signupAs(t, a, "b@b.com", "bob")
	answer(t, "from bob")
	require.NoError(t, a.Post(ctx))
	require.NoError(t, a.Logout(ctx))

	signupAs(t, a, "a@b.com", "alice")
	assert.ErrorIs(t, a.User(ctx, "nobody"), common.ErrHandleNotFound)
	require.NoError(t, a.User(ctx, "bob"))
	eventuallyShows(t, out, "== @bob ==")
	eventuallyShows(t, out, "from bob")
	assert.NotContains(t, out.String(), "* ")

	f := a.currentFeed()
	require.NotNil(t, f)
	posts := f.View()
	require.Len(t, posts, 1)

	answer(t, "hijacked")
	assert.ErrorIs(t, a.Edit(ctx, posts[0].ID), common.ErrNotOwner)
}

func TestApp_OpeningAScreenClosesThePrevious(t *testing.T) {
	captureOutput(t)
	a, _ := newTestApp(t)
	ctx := context.Background()

	signupAs(t, a, "a@b.com", "alice")
	require.NoError(t, a.Feed(ctx))
	first := a.currentFeed()
	require.NotNil(t, first)

	require.NoError(t, a.Profile(ctx))
	assert.NotSame(t, first, a.currentFeed())
	assert.Equal(t, "(a@b.com local profile)", a.getStatus())

	require.NoError(t, a.Search(ctx, "al"))
	assert.Nil(t, a.currentFeed())

	require.NoError(t, a.Settings(ctx))
	a.mu.Lock()
	assert.Nil(t, a.view)
	a.mu.Unlock()
}

func TestApp_SearchIsLive(t *testing.T) {
	out := captureOutput(t)
	a, _ := newTestApp(t)
	ctx := context.Background()

	signupAs(t, a, "b@b.com", "bob")
	assert.ErrorIs(t, a.Search(ctx, " "), common.ErrEmptySearch)

	require.NoError(t, a.Search(ctx, "al"))
	eventuallyShows(t, out, "No users found.")

	require.NoError(t, a.Logout(ctx))
	signupAs(t, a, "a@b.com", "alice")
	eventuallyShows(t, out, "  @alice")
}

func TestApp_Settings(t *testing.T) {
	out := captureOutput(t)
	a, _ := newTestApp(t)
	ctx := context.Background()

	assert.ErrorIs(t, a.Settings(ctx), common.ErrUnauthenticated)

	signupAs(t, a, "a@b.com", "alice")
	require.NoError(t, a.Settings(ctx))
	assert.Contains(t, out.String(), "Email: a@b.com")
	assert.Contains(t, out.String(), "Username: @alice")
}

func TestApp_MountFollowsStack(t *testing.T) {
	out := captureOutput(t)
	a, _ := newTestApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.mount(ctx, router.StackAuth)
	}()
	eventuallyShows(t, out, "Signed out.")
	cancel()
	<-done

	signupAs(t, a, "a@b.com", "alice")

	ctx, cancel = context.WithCancel(context.Background())
	done = make(chan struct{})
	go func() {
		defer close(done)
		a.mount(ctx, router.StackMain)
	}()
	eventuallyShows(t, out, "Signed in as a@b.com")
	require.Eventually(t, func() bool { return a.currentFeed() != nil }, 3*time.Second, 10*time.Millisecond)

	cancel()
	<-done
	assert.Nil(t, a.currentFeed())
}

type fakePinger struct {
	mu  sync.Mutex
	err error
}

func (p *fakePinger) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakePinger) set(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func TestStartOnlineStatusWatcher(t *testing.T) {
	out := captureOutput(t)
	a, _ := newTestApp(t)
	a.mode = ""

	p := &fakePinger{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.StartOnlineStatusWatcher(ctx, p, 5*time.Millisecond)
	}()

	eventuallyShows(t, out, "Switched to online mode")
	p.set(common.ErrUnavailable)
	eventuallyShows(t, out, "Switched to offline mode")
	assert.Equal(t, "(offline)", a.getStatus())

	cancel()
	<-done

	// a zero interval never starts
	a.StartOnlineStatusWatcher(context.Background(), p, 0)
}
