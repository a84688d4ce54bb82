// Package store persists mapped registration records and grid rows.
//
// Two backends are provided: MemoryStore for tests and single process use,
// and RedisStore, which keeps msgpack encoded records in Redis.
package store

import (
	"context"
	"errors"
	"maps"

	"github.com/google/uuid"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/grid"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/mapper"
)

const component = "store"

// RowIDField is the row identifier assigned by ReplaceGridRows.
const RowIDField = "id"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Submitter receives mapped records.
type Submitter interface {
	// SaveRecord creates or replaces the record id of form formID.
	SaveRecord(ctx context.Context, formID, id string, record mapper.Record) error
	// ReplaceGridRows deletes the rows of dest belonging to parentID and
	// stores rows in their place. Every row gets a new id and the parent field.
	ReplaceGridRows(ctx context.Context, dest grid.Destination, parentID string, rows []mapper.Record) error
}

// Store is a Submitter that can also read records back.
type Store interface {
	Submitter
	// Record returns the record id of form formID, or ErrNotFound.
	Record(ctx context.Context, formID, id string) (mapper.Record, error)
	// GridRows returns the rows of dest belonging to parentID in insertion order.
	GridRows(ctx context.Context, dest grid.Destination, parentID string) ([]mapper.Record, error)
}

type config struct {
	newID  func() string
	prefix string
}

// Option configures a store.
type Option func(*config)

// WithIDGenerator sets the row id generator. Defaults to random UUIDs.
func WithIDGenerator(fn func() string) Option {
	return func(c *config) { c.newID = fn }
}

// WithKeyPrefix sets the Redis key prefix. Defaults to "govstack".
func WithKeyPrefix(prefix string) Option {
	return func(c *config) { c.prefix = prefix }
}

func newConfig(opts []Option) config {
	c := config{newID: uuid.NewString, prefix: "govstack"}
	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// stampRows copies rows, assigning row ids and the parent field.
func stampRows(rows []mapper.Record, dest grid.Destination, parentID string, newID func() string) []mapper.Record {
	out := make([]mapper.Record, 0, len(rows))

	for _, row := range rows {
		r := maps.Clone(row)
		if r == nil {
			r = make(mapper.Record)
		}

		r[RowIDField] = newID()
		r[dest.ParentField] = parentID
		out = append(out, r)
	}

	return out
}
