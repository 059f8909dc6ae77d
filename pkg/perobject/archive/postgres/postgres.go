package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/per-object-storage/pkg/perobject"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// DefaultSchema is used when no schema is configured.
const DefaultSchema = "perobject"

// Backend implements perobject.Archive on a single key/blob table
type Backend struct {
	db    DBTX
	table string
}

// New creates a new PostgreSQL archive in schema. An empty schema selects
// DefaultSchema.
func New(db DBTX, schema string) perobject.Archive {
	if schema == "" {
		schema = DefaultSchema
	}
	return &Backend{
		db:    db,
		table: pgx.Identifier{schema, "archive"}.Sanitize(),
	}
}

// NewWithPool creates a new PostgreSQL archive with connection pool
func NewWithPool(pool *pgxpool.Pool, schema string) perobject.Archive {
	return New(pool, schema)
}

// Migrate creates the schema and table if they do not exist.
func Migrate(ctx context.Context, db DBTX, schema string) error {
	if schema == "" {
		schema = DefaultSchema
	}
	stmts := []string{
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pgx.Identifier{schema}.Sanitize()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			data       BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, pgx.Identifier{schema, "archive"}.Sanitize()),
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return handlePostgresError("migrate", err)
		}
	}
	return nil
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Put upserts the reader's content under key
func (b *Backend) Put(ctx context.Context, key string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (key, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`, b.table)

	if _, err := b.db.Exec(ctx, query, key, data); err != nil {
		return handlePostgresError("put", err)
	}
	return nil
}

// Get reads the blob stored under key
func (b *Backend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	query := fmt.Sprintf(`SELECT data FROM %s WHERE key = $1`, b.table)

	var data []byte
	if err := b.db.QueryRow(ctx, query, key).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", perobject.ErrArchiveKeyNotFound, key)
		}
		return nil, handlePostgresError("get", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes key
func (b *Backend) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, b.table)

	tag, err := b.db.Exec(ctx, query, key)
	if err != nil {
		return handlePostgresError("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", perobject.ErrArchiveKeyNotFound, key)
	}
	return nil
}

// List returns keys under prefix in order
func (b *Backend) List(ctx context.Context, prefix string) ([]string, error) {
	query := fmt.Sprintf(`SELECT key FROM %s WHERE key LIKE $1 ESCAPE '\' ORDER BY key COLLATE "C"`, b.table)

	rows, err := b.db.Query(ctx, query, likePrefix(prefix))
	if err != nil {
		return nil, handlePostgresError("list", err)
	}

	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, handlePostgresError("list", err)
	}
	return keys, nil
}

// likePrefix escapes LIKE wildcards so prefix matches literally.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
