package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/chirper/internal/server/repositories/documents"
	"github.com/dmitrijs2005/chirper/internal/server/repositories/identities"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestPostgresRepositoryManager_Factories(t *testing.T) {
	db, _ := newDB(t)
	var m RepositoryManager = NewPostgresRepositoryManager(db)

	assert.IsType(t, &identities.PostgresRepository{}, m.Identities())
	assert.IsType(t, &documents.PostgresRepository{}, m.Documents())
}

func TestPostgresRepositoryManager_WithTx(t *testing.T) {
	db, mock := newDB(t)
	m := NewPostgresRepositoryManager(db)

	mock.ExpectBegin()
	mock.ExpectCommit()
	err := m.WithTx(context.Background(), func(tx RepositoryManager) error {
		assert.NotEqual(t, m, tx)
		return nil
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()
	err = m.WithTx(context.Background(), func(RepositoryManager) error { return errors.New("abort") })
	assert.EqualError(t, err, "abort")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations(t *testing.T) {
	db, _ := newDB(t)
	m := NewPostgresRepositoryManager(db)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	gooseUpContext = func(ctx context.Context, got *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		assert.Same(t, db, got)
		assert.Equal(t, ".", dir)
		return nil
	}
	require.NoError(t, m.RunMigrations(context.Background()))

	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	assert.EqualError(t, m.RunMigrations(context.Background()), "boom")
}

func TestMemoryRepositoryManager(t *testing.T) {
	m := NewMemoryRepositoryManager()
	assert.Same(t, m.Identities(), m.Identities())

	var inside RepositoryManager
	require.NoError(t, m.WithTx(context.Background(), func(tx RepositoryManager) error {
		inside = tx
		return nil
	}))
	assert.Same(t, m.Documents(), inside.Documents())
	assert.NoError(t, m.Close())
}
