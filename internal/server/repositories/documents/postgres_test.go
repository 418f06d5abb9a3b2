package documents

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/chirper/internal/common"
	"github.com/dmitrijs2005/chirper/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgres_Create(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()
	doc := &models.Document{Collection: "tweets", ID: "p1", CreateTime: now, UpdateTime: now,
		Fields: map[string]any{"content": "hi"}}

	mock.ExpectExec(`INSERT\s+INTO\s+documents`).
		WithArgs("tweets", "p1", []byte(`{"content":"hi"}`), now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+documents`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	got, err := repo.Create(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)

	_, err = repo.Create(context.Background(), doc)
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Get(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT\s+data,\s*create_time,\s*update_time\s+FROM\s+documents`).
		WithArgs("users", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"data", "create_time", "update_time"}).
			AddRow([]byte(`{"username":"alice"}`), now, now))
	mock.ExpectQuery(`SELECT\s+data`).
		WithArgs("users", "u2").
		WillReturnError(sql.ErrNoRows)

	d, err := repo.Get(context.Background(), "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", d.String("username"))
	assert.Equal(t, "u1", d.ID)

	_, err = repo.Get(context.Background(), "users", "u2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPostgres_Update(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`UPDATE\s+documents\s+SET\s+data\s*=\s*data\s*\|\|\s*\$3::jsonb`).
		WithArgs("tweets", "p1", []byte(`{"content":"edited"}`), now).
		WillReturnRows(sqlmock.NewRows([]string{"data", "create_time", "update_time"}).
			AddRow([]byte(`{"content":"edited","userId":"u1"}`), now.Add(-time.Hour), now))

	d, err := repo.Update(context.Background(), "tweets", "p1", map[string]any{"content": "edited"}, now)
	require.NoError(t, err)
	assert.Equal(t, "edited", d.String("content"))
	assert.Equal(t, "u1", d.String("userId"))
	assert.Equal(t, now, d.UpdateTime)
}

func TestPostgres_Delete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`DELETE\s+FROM\s+documents`).WithArgs("tweets", "p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE\s+FROM\s+documents`).WithArgs("tweets", "p2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE\s+FROM\s+documents`).WithArgs("tweets", "p3").WillReturnError(errors.New("boom"))

	require.NoError(t, repo.Delete(context.Background(), "tweets", "p1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "tweets", "p2"), common.ErrNotFound)
	assert.ErrorContains(t, repo.Delete(context.Background(), "tweets", "p3"), "db error: boom")
}

func TestPostgres_Query(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT\s+id,\s*data`).
		WithArgs("tweets", "userId", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "data", "create_time", "update_time"}).
			AddRow("p2", []byte(`{"userId":"u1","content":"b"}`), now, now).
			AddRow("p1", []byte(`{"userId":"u1","content":"a"}`), now.Add(-time.Minute), now.Add(-time.Minute)))

	docs, err := repo.Query(context.Background(), models.PostsByAuthor("u1"))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "p2", docs[0].ID)
	assert.Equal(t, "tweets", docs[0].Collection)
	assert.Equal(t, "a", docs[1].String("content"))
}

func TestBuildQuery(t *testing.T) {
	t0 := time.Now()
	tests := []struct {
		name  string
		q     models.Query
		sql   string
		args  []any
		isErr bool
	}{
		{
			name: "feed",
			q:    models.PostsByAuthor(""),
			sql:  `SELECT id, data, create_time, update_time FROM documents WHERE collection = $1 ORDER BY create_time DESC, id COLLATE "C"`,
			args: []any{"tweets"},
		},
		{
			name: "prefix search",
			q: models.Query{Collection: "users", Limit: 10}.
				Where("username", models.OpGreaterOrEqual, "al").
				Where("username", models.OpLessOrEqual, "al\uf8ff").
				OrderBy("username", false),
			sql: `SELECT id, data, create_time, update_time FROM documents WHERE collection = $1` +
				` AND jsonb_typeof(data->$2) = 'string' AND (data->>$2) COLLATE "C" >= $3` +
				` AND jsonb_typeof(data->$4) = 'string' AND (data->>$4) COLLATE "C" <= $5` +
				` ORDER BY (data->>$6) COLLATE "C" ASC, id COLLATE "C" LIMIT $7`,
			args: []any{"users", "username", "al", "username", "al\uf8ff", "username", 10},
		},
		{
			name: "create time and number",
			q: models.Query{Collection: "tweets"}.
				Where(models.FieldCreateTime, models.OpGreaterOrEqual, t0).
				Where("likes", models.OpEqual, 2.0),
			sql: `SELECT id, data, create_time, update_time FROM documents WHERE collection = $1` +
				` AND create_time >= $2` +
				` AND jsonb_typeof(data->$3) = 'number' AND (data->>$3)::float8 = $4 ORDER BY id COLLATE "C"`,
			args: []any{"tweets", t0, "likes", 2.0},
		},
		{name: "bad create time", q: models.Query{Collection: "tweets"}.Where(models.FieldCreateTime, models.OpEqual, "x"), isErr: true},
		{name: "nil value", q: models.Query{Collection: "tweets"}.Where("a", models.OpEqual, nil), isErr: true},
		{name: "invalid", q: models.Query{}, isErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := buildQuery(tt.q)
			if tt.isErr {
				assert.ErrorIs(t, err, common.ErrInvalidQuery)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.args, args)
		})
	}
}
