package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/chirper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityState_SetNotifiesInOrder(t *testing.T) {
	var s IdentityState
	var got []string

	s.OnChange(func(id *models.Identity) { got = append(got, "first") })
	unsubscribe := s.OnChange(func(id *models.Identity) { got = append(got, "second") })

	s.Set(&models.Identity{ID: "u1", Token: "tok"})
	assert.Equal(t, []string{"first", "second"}, got)
	assert.Equal(t, "u1", s.Current().ID)
	assert.Equal(t, "tok", s.Token())

	unsubscribe()
	unsubscribe()
	s.Set(nil)
	assert.Equal(t, []string{"first", "second", "first"}, got)
	assert.Nil(t, s.Current())
	assert.Empty(t, s.Token())
}

func TestIdentityState_ListenerMayReadState(t *testing.T) {
	var s IdentityState
	var seen *models.Identity
	s.OnChange(func(*models.Identity) { seen = s.Current() })

	s.Set(&models.Identity{ID: "u1"})
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.ID)
}

func TestListener_CancelIsIdempotent(t *testing.T) {
	l, ctx := NewListener(context.Background())
	assert.True(t, l.Active())

	l.Cancel()
	l.Cancel()
	assert.False(t, l.Active())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	called := false
	l.Finish(errors.New("late"), func(error) { called = true })
	assert.False(t, called)
	<-l.Done()
}

func TestListener_FinishReportsOnce(t *testing.T) {
	l, ctx := NewListener(context.Background())
	var got []error

	boom := errors.New("boom")
	l.Finish(boom, func(err error) { got = append(got, err) })

	assert.Equal(t, []error{boom}, got)
	assert.False(t, l.Active())
	assert.Error(t, ctx.Err())
	<-l.Done()
}

func TestListener_FinishWithoutError(t *testing.T) {
	l, _ := NewListener(context.Background())
	l.Finish(nil, func(error) { t.Fatal("unexpected error callback") })
	<-l.Done()
}
