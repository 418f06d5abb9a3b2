package live

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/chirper/internal/client/backend"
	"github.com/dmitrijs2005/chirper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSub struct{ cancels int }

func (f *fakeSub) Cancel() { f.cancels++ }

// fakeStore captures the callbacks of the last subscription.
type fakeStore struct {
	backend.Store
	sub        *fakeSub
	onSnapshot func([]*models.Document)
	onError    func(error)
	err        error
}

func (f *fakeStore) SubscribeQuery(_ context.Context, _ models.Query, onSnapshot func([]*models.Document), onError func(error)) (backend.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sub = &fakeSub{}
	f.onSnapshot, f.onError = onSnapshot, onError
	return f.sub, nil
}

func docs(ids ...string) []*models.Document {
	out := make([]*models.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, &models.Document{ID: id})
	}
	return out
}

func id(d *models.Document) string { return d.ID }

func subscribe(t *testing.T, store *fakeStore) *Stream[string] {
	t.Helper()
	s, err := Subscribe(context.Background(), store, models.PostsByAuthor(""), id)
	require.NoError(t, err)
	return s
}

func TestStream_DeliversLatestSnapshotOnly(t *testing.T) {
	store := &fakeStore{}
	s := subscribe(t, store)

	store.onSnapshot(docs("a"))
	store.onSnapshot(docs("a", "b"))

	snap, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, snap.Items)
	assert.Equal(t, uint64(2), snap.Seq)
}

func TestStream_NextBlocksUntilSnapshot(t *testing.T) {
	store := &fakeStore{}
	s := subscribe(t, store)

	got := make(chan Snapshot[string], 1)
	go func() {
		snap, err := s.Next(context.Background())
		if err == nil {
			got <- snap
		}
	}()

	store.onSnapshot(docs("x"))
	select {
	case snap := <-got:
		assert.Equal(t, []string{"x"}, snap.Items)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return")
	}
}

func TestStream_NextHonoursContext(t *testing.T) {
	s := subscribe(t, &fakeStore{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStream_ErrorDeliveredOnce(t *testing.T) {
	store := &fakeStore{}
	s := subscribe(t, store)
	ctx := context.Background()

	boom := errors.New("permission denied")
	store.onSnapshot(docs("a"))
	store.onError(boom)
	store.onError(errors.New("second"))
	store.onSnapshot(docs("ignored"))

	snap, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, snap.Items)

	_, err = s.Next(ctx)
	assert.Equal(t, boom, err)

	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestStream_CancelIsIdempotentAndWakesNext(t *testing.T) {
	store := &fakeStore{}
	s := subscribe(t, store)

	done := make(chan error, 1)
	go func() {
		_, err := s.Next(context.Background())
		done <- err
	}()

	s.Cancel()
	s.Cancel()
	assert.Equal(t, 1, store.sub.cancels)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStreamClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Next not woken by Cancel")
	}

	store.onSnapshot(docs("late"))
	_, err := s.Next(context.Background())
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestSubscribe_Error(t *testing.T) {
	boom := errors.New("unavailable")
	_, err := Subscribe(context.Background(), &fakeStore{err: boom}, models.PostsByAuthor(""), id)
	assert.Equal(t, boom, err)
}
