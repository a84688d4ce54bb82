// Package schema reads destination form columns from the database backing
// the forms, so mapping documents can be checked against it.
package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // postgres driver

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/mapping"
)

// Defaults of PostgresColumns.
const (
	DefaultSchema      = "public"
	DefaultTablePrefix = "app_fd_"
)

// ErrTableNotFound is returned when a form has no table.
var ErrTableNotFound = errors.New("form table not found")

const columnsQuery = `SELECT column_name
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`

// PostgresColumns lists form columns from information_schema.
type PostgresColumns struct {
	db          *sql.DB
	schema      string
	tablePrefix string
}

var _ mapping.ColumnSource = (*PostgresColumns)(nil)

// Option configures PostgresColumns.
type Option func(*PostgresColumns)

// WithSchema sets the database schema. Defaults to "public".
func WithSchema(schema string) Option {
	return func(p *PostgresColumns) { p.schema = schema }
}

// WithTablePrefix sets the prefix of form tables. Defaults to "app_fd_".
func WithTablePrefix(prefix string) Option {
	return func(p *PostgresColumns) { p.tablePrefix = prefix }
}

// Open opens a PostgreSQL database. It does not connect.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}

// NewPostgresColumns creates a column source on db.
func NewPostgresColumns(db *sql.DB, opts ...Option) *PostgresColumns {
	p := &PostgresColumns{
		db:          db,
		schema:      DefaultSchema,
		tablePrefix: DefaultTablePrefix,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// TableName returns the table holding formID.
func (p *PostgresColumns) TableName(formID string) string {
	return p.tablePrefix + formID
}

// Columns implements mapping.ColumnSource.
func (p *PostgresColumns) Columns(ctx context.Context, formID string) ([]string, error) {
	table := p.TableName(formID)

	rows, err := p.db.QueryContext(ctx, columnsQuery, p.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}

		cols = append(cols, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s.%s", ErrTableNotFound, p.schema, table)
	}

	return cols, nil
}
