package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/chirper/internal/common"
	"github.com/dmitrijs2005/chirper/internal/dbx"
	"github.com/dmitrijs2005/chirper/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PostgresRepository stores fields as JSONB. String comparisons use the "C"
// collation so that range filters order by code point, like the in-memory
// store does.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	data, err := json.Marshal(doc.Fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}

	query :=
		`INSERT INTO documents (collection, id, data, create_time, update_time)
		 VALUES ($1, $2, $3, $4, $5)`

	_, err = r.db.ExecContext(ctx, query, doc.Collection, doc.ID, data, doc.CreateTime, doc.UpdateTime)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.Clone(), nil
}

func (r *PostgresRepository) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	query :=
		`SELECT data, create_time, update_time FROM documents
		 WHERE collection = $1 AND id = $2`

	return r.scanOne(r.db.QueryRowContext(ctx, query, collection, id), collection, id)
}

func (r *PostgresRepository) Update(ctx context.Context, collection, id string, fields map[string]any, updateTime time.Time) (*models.Document, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}

	query :=
		`UPDATE documents SET data = data || $3::jsonb, update_time = $4
		 WHERE collection = $1 AND id = $2
		 RETURNING data, create_time, update_time`

	return r.scanOne(r.db.QueryRowContext(ctx, query, collection, id, data, updateTime), collection, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`

	res, err := r.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Query(ctx context.Context, q models.Query) ([]*models.Document, error) {
	query, args, err := buildQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		d := &models.Document{Collection: q.Collection}
		var data []byte
		if err := rows.Scan(&d.ID, &data, &d.CreateTime, &d.UpdateTime); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if err := decodeFields(data, d); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return docs, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row, collection, id string) (*models.Document, error) {
	d := &models.Document{Collection: collection, ID: id}
	var data []byte
	if err := row.Scan(&data, &d.CreateTime, &d.UpdateTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := decodeFields(data, d); err != nil {
		return nil, err
	}
	return d, nil
}

func decodeFields(data []byte, d *models.Document) error {
	d.Fields = map[string]any{}
	if err := json.Unmarshal(data, &d.Fields); err != nil {
		return fmt.Errorf("decode fields of %s/%s: %w", d.Collection, d.ID, err)
	}
	return nil
}

// buildQuery translates q into SQL. Field names are always bound as
// parameters.
func buildQuery(q models.Query) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	args := []any{q.Collection}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString("SELECT id, data, create_time, update_time FROM documents WHERE collection = $1")

	for _, f := range q.Filters {
		if f.Field == models.FieldCreateTime {
			t, ok := f.Value.(time.Time)
			if !ok {
				return "", nil, fmt.Errorf("%w: %s needs a time value", common.ErrInvalidQuery, f.Field)
			}
			fmt.Fprintf(&sb, " AND create_time %s %s", sqlOp(f.Op), arg(t))
			continue
		}

		field := arg(f.Field)
		switch v := f.Value.(type) {
		case string:
			fmt.Fprintf(&sb, " AND jsonb_typeof(data->%s) = 'string' AND (data->>%s) COLLATE \"C\" %s %s", field, field, sqlOp(f.Op), arg(v))
		case bool:
			fmt.Fprintf(&sb, " AND jsonb_typeof(data->%s) = 'boolean' AND (data->>%s)::boolean %s %s", field, field, sqlOp(f.Op), arg(v))
		case float64, float32, int, int32, int64:
			fmt.Fprintf(&sb, " AND jsonb_typeof(data->%s) = 'number' AND (data->>%s)::float8 %s %s", field, field, sqlOp(f.Op), arg(v))
		default:
			return "", nil, fmt.Errorf("%w: unsupported value %T for %s", common.ErrInvalidQuery, f.Value, f.Field)
		}
	}

	sb.WriteString(" ORDER BY ")
	if q.Order != nil {
		dir := "ASC"
		if q.Order.Descending {
			dir = "DESC"
		}
		if q.Order.Field == models.FieldCreateTime {
			fmt.Fprintf(&sb, "create_time %s, ", dir)
		} else {
			fmt.Fprintf(&sb, "(data->>%s) COLLATE \"C\" %s, ", arg(q.Order.Field), dir)
		}
	}
	sb.WriteString(`id COLLATE "C"`)

	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %s", arg(q.Limit))
	}
	return sb.String(), args, nil
}

func sqlOp(op models.Op) string {
	if op == models.OpEqual {
		return "="
	}
	return string(op)
}
