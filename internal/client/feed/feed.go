package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/chirper/internal/client/backend"
	"github.com/dmitrijs2005/chirper/internal/client/live"
	"github.com/dmitrijs2005/chirper/internal/common"
	"github.com/dmitrijs2005/chirper/internal/logging"
	"github.com/dmitrijs2005/chirper/internal/models"
)

// Writer performs the remote half of an edit or delete.
type Writer interface {
	CanEdit(post models.Post) bool
	Edit(ctx context.Context, post models.Post, body string) error
	Delete(ctx context.Context, post models.Post) error
}

// Feed is the controller behind a list screen: the main feed or a profile.
// It owns one live subscription from Open until Close.
type Feed struct {
	projection *Projection
	stream     *live.Stream[models.Post]
	logger     logging.Logger

	updates chan struct{}
	done    chan struct{}

	mu     sync.Mutex
	loaded bool
	err    error
}

// Open subscribes to the posts of authorID, newest first. An empty
// authorID selects every post.
func Open(ctx context.Context, store backend.Store, authorID string, logger logging.Logger) (*Feed, error) {
	stream, err := live.Subscribe(ctx, store, models.PostsByAuthor(authorID), models.PostFromDocument)
	if err != nil {
		return nil, err
	}

	f := &Feed{
		projection: NewProjection(),
		stream:     stream,
		logger:     logger.With("module", "feed", "author", authorID),
		updates:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	go f.pump(ctx)
	return f, nil
}

func (f *Feed) pump(ctx context.Context) {
	defer close(f.done)
	defer f.stream.Cancel()

	for {
		snap, err := f.stream.Next(ctx)
		if err != nil {
			if !errors.Is(err, live.ErrStreamClosed) && ctx.Err() == nil {
				f.logger.Warn(ctx, "feed subscription failed", "error", err)
				f.mu.Lock()
				f.err = err
				f.mu.Unlock()
				f.notify()
			}
			return
		}

		f.projection.ApplySnapshot(snap.Items)
		f.mu.Lock()
		f.loaded = true
		f.mu.Unlock()
		f.notify()
	}
}

func (f *Feed) notify() {
	select {
	case f.updates <- struct{}{}:
	default:
	}
}

// Updates signals every change of View or Err. Signals are coalesced.
func (f *Feed) Updates() <-chan struct{} {
	return f.updates
}

func (f *Feed) View() []models.Post {
	return f.projection.View()
}

// Loaded reports whether the first snapshot has arrived.
func (f *Feed) Loaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

// Err returns the subscription error. Once set, the feed no longer
// changes; the screen decides whether to open a new one.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *Feed) find(postID string) (models.Post, bool) {
	for _, p := range f.projection.View() {
		if p.ID == postID {
			return p, true
		}
	}
	return models.Post{}, false
}

// Edit shows the new text at once and then writes it. A failed write
// withdraws the new text before the error is returned.
func (f *Feed) Edit(ctx context.Context, w Writer, postID, body string) error {
	body, err := models.NormalizeBody(body)
	if err != nil {
		return err
	}
	post, ok := f.find(postID)
	if !ok {
		return common.ErrNotFound
	}
	if !w.CanEdit(post) {
		return common.ErrNotOwner
	}

	op := f.projection.ApplyOptimisticUpdate(postID, body)
	f.notify()

	if err := w.Edit(ctx, post, body); err != nil {
		f.projection.Revert(op)
		f.notify()
		return err
	}
	return nil
}

// Delete hides the post at once and then deletes it. The post stays hidden
// until the next snapshot whatever the outcome.
func (f *Feed) Delete(ctx context.Context, w Writer, postID string) error {
	post, ok := f.find(postID)
	if !ok {
		return common.ErrNotFound
	}
	if !w.CanEdit(post) {
		return common.ErrNotOwner
	}

	f.projection.ApplyOptimisticDelete(postID)
	f.notify()

	return w.Delete(ctx, post)
}

// Close releases the subscription and waits for the feed to stop.
func (f *Feed) Close() {
	f.stream.Cancel()
	<-f.done
}
