package store

import (
	"context"
	"maps"
	"sync"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/grid"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/mapper"
)

// MemoryStore keeps records in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	cfg   config
	forms map[string]map[string]mapper.Record
	// grids indexes grid row ids by form and parent.
	grids map[gridKey][]string
}

type gridKey struct {
	formID   string
	parentID string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		cfg:   newConfig(opts),
		forms: make(map[string]map[string]mapper.Record),
		grids: make(map[gridKey][]string),
	}
}

// SaveRecord implements Submitter.
func (s *MemoryStore) SaveRecord(ctx context.Context, formID, id string, record mapper.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(formID, id, maps.Clone(record))

	return nil
}

func (s *MemoryStore) put(formID, id string, record mapper.Record) {
	form := s.forms[formID]
	if form == nil {
		form = make(map[string]mapper.Record)
		s.forms[formID] = form
	}

	form[id] = record
}

// ReplaceGridRows implements Submitter.
func (s *MemoryStore) ReplaceGridRows(ctx context.Context, dest grid.Destination, parentID string, rows []mapper.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stamped := stampRows(rows, dest, parentID, s.cfg.newID)

	s.mu.Lock()
	defer s.mu.Unlock()

	key := gridKey{formID: dest.FormID, parentID: parentID}
	for _, id := range s.grids[key] {
		delete(s.forms[dest.FormID], id)
	}

	ids := make([]string, 0, len(stamped))
	for _, row := range stamped {
		id := row[RowIDField]
		s.put(dest.FormID, id, row)
		ids = append(ids, id)
	}

	s.grids[key] = ids

	return nil
}

// Record implements Store.
func (s *MemoryStore) Record(ctx context.Context, formID, id string) (mapper.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.forms[formID][id]
	if !ok {
		return nil, ErrNotFound
	}

	return maps.Clone(record), nil
}

// GridRows implements Store.
func (s *MemoryStore) GridRows(ctx context.Context, dest grid.Destination, parentID string) ([]mapper.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.grids[gridKey{formID: dest.FormID, parentID: parentID}]
	out := make([]mapper.Record, 0, len(ids))

	for _, id := range ids {
		out = append(out, maps.Clone(s.forms[dest.FormID][id]))
	}

	return out, nil
}

// Len returns the number of records of formID.
func (s *MemoryStore) Len(formID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.forms[formID])
}
