package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/chirper/internal/client/feed"
	"github.com/dmitrijs2005/chirper/internal/client/live"
	"github.com/dmitrijs2005/chirper/internal/client/messages"
	"github.com/dmitrijs2005/chirper/internal/client/router"
	"github.com/dmitrijs2005/chirper/internal/common"
	"github.com/dmitrijs2005/chirper/internal/models"
)

var errNoList = errors.New("open feed, profile or user first")

const timeLayout = "2006-01-02 15:04"

// view is the open screen. It owns the screen's subscription and the
// goroutine that re-renders it.
type view struct {
	screen router.Screen
	feed   *feed.Feed
	cancel context.CancelFunc
	done   chan struct{}
}

func (v *view) close() {
	v.cancel()
	<-v.done
	if v.feed != nil {
		v.feed.Close()
	}
}

func (a *App) closeView() {
	a.mu.Lock()
	v := a.view
	a.view = nil
	a.mu.Unlock()
	if v != nil {
		v.close()
	}
}

func (a *App) setView(v *view) {
	a.mu.Lock()
	old := a.view
	a.view = v
	a.mu.Unlock()
	if old != nil {
		old.close()
	}
}

func (a *App) currentFeed() *feed.Feed {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.view == nil {
		return nil
	}
	return a.view.feed
}

// openList replaces the open screen with a live list of posts by authorID,
// or by everyone when authorID is empty.
func (a *App) openList(screen router.Screen, title, authorID string) error {
	a.closeView()

	ctx, cancel := context.WithCancel(a.screenContext())
	f, err := feed.Open(ctx, a.backend, authorID, a.logger)
	if err != nil {
		cancel()
		return err
	}

	v := &view{screen: screen, feed: f, cancel: cancel, done: make(chan struct{})}
	a.setView(v)

	go func() {
		defer close(v.done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-f.Updates():
				a.renderPosts(ctx, title, f)
				if f.Err() != nil {
					return
				}
			}
		}
	}()
	return nil
}

func (a *App) renderPosts(ctx context.Context, title string, f *feed.Feed) {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", title)

	if err := f.Err(); err != nil {
		fmt.Fprintf(&b, "Error: %s\n", messages.For(err))
	}

	posts := f.View()
	if len(posts) == 0 {
		b.WriteString("No posts yet.\n")
	}
	for _, p := range posts {
		mark := " "
		if a.postService.CanEdit(p) {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %s  @%s  %s", mark, p.ID, a.postService.Handle(ctx, p.AuthorID), p.CreatedAt.Local().Format(timeLayout))
		if p.UpdatedAt.After(p.CreatedAt) {
			b.WriteString("  (edited)")
		}
		fmt.Fprintf(&b, "\n    %s\n", strings.ReplaceAll(p.Body, "\n", "\n    "))
	}

	printlnFn(strings.TrimRight(b.String(), "\n"))
}

// Feed shows everyone's posts, newest first.
func (a *App) Feed(_ context.Context) error {
	return a.openList(router.ScreenFeed, "Feed", "")
}

// Profile shows the signed-in user's own posts.
func (a *App) Profile(_ context.Context) error {
	me := a.session.Current()
	if me == nil {
		return common.ErrUnauthenticated
	}
	return a.openList(router.ScreenProfile, "Your posts", me.ID)
}

// User shows the posts of the account with the given handle.
func (a *App) User(ctx context.Context, handle string) error {
	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	acc, err := a.userService.ByHandle(rctx, handle)
	if err != nil {
		return err
	}
	return a.openList(router.ScreenUser, "@"+acc.Handle, acc.ID)
}

// Search shows the accounts whose username starts with prefix and keeps the
// result live.
func (a *App) Search(_ context.Context, prefix string) error {
	a.closeView()

	ctx, cancel := context.WithCancel(a.screenContext())
	s, err := a.userService.Search(ctx, prefix)
	if err != nil {
		cancel()
		return err
	}

	v := &view{screen: router.ScreenSearch, cancel: cancel, done: make(chan struct{})}
	a.setView(v)

	go func() {
		defer close(v.done)
		defer s.Cancel()
		for {
			snap, err := s.Next(ctx)
			if err != nil {
				if !errors.Is(err, live.ErrStreamClosed) && ctx.Err() == nil {
					printlnFn("Error:", messages.For(err))
				}
				return
			}
			renderAccounts(prefix, snap.Items)
		}
	}()
	return nil
}

func renderAccounts(prefix string, accounts []models.Account) {
	var b strings.Builder
	fmt.Fprintf(&b, "== Search: %s ==\n", prefix)
	if len(accounts) == 0 {
		b.WriteString("No users found.\n")
	}
	for _, acc := range accounts {
		fmt.Fprintf(&b, "  @%s\n", acc.Handle)
	}
	printlnFn(strings.TrimRight(b.String(), "\n"))
}

// Post asks for a body and publishes it. Open lists pick it up from their
// next snapshot.
func (a *App) Post(ctx context.Context) error {
	body, err := getMultiline(a.reader, fmt.Sprintf("What's happening? (up to %d characters)", models.MaxBodyLength), a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	id, err := a.postService.Compose(ctx, body)
	if err != nil {
		return err
	}
	printlnFn("Posted", id)
	return nil
}

// Edit changes the text of one of the user's posts on the open list.
func (a *App) Edit(ctx context.Context, postID string) error {
	f := a.currentFeed()
	if f == nil {
		return errNoList
	}

	body, err := getSimpleText(a.reader, "New text", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.requestContext(ctx)
	defer cancel()
	return f.Edit(ctx, a.postService, postID, body)
}

// Delete removes one of the user's posts on the open list.
func (a *App) Delete(ctx context.Context, postID string) error {
	f := a.currentFeed()
	if f == nil {
		return errNoList
	}

	ctx, cancel := a.requestContext(ctx)
	defer cancel()
	return f.Delete(ctx, a.postService, postID)
}

// Settings shows the account of the signed-in user.
func (a *App) Settings(ctx context.Context) error {
	a.closeView()

	me := a.session.Current()
	if me == nil {
		return common.ErrUnauthenticated
	}

	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	lines := []string{"== Settings ==", "Email: " + me.Email}
	acc, err := a.userService.ByID(ctx, me.ID)
	if err != nil {
		a.logger.Warn(ctx, "account not loaded", "error", err)
	} else {
		lines = append(lines, "Username: @"+acc.Handle)
		if !acc.CreatedAt.IsZero() {
			lines = append(lines, "Joined: "+acc.CreatedAt.Local().Format(timeLayout))
		}
	}
	lines = append(lines, "Type 'logout' to sign out.")
	printlnFn(strings.Join(lines, "\n"))
	return nil
}
