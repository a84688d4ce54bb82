// Package mapper flattens registration documents into destination records
// as described by a mapping specification.
//
// A Mapper is safe for concurrent use. Every call to Map allocates its own
// Result; the specification is only read.
package mapper

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/common"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/errors"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/jsonpath"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/mapping"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/metrics"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/normalize"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/transform"
)

const component = "mapper"

const (
	// DefaultIDPath is the document path the primary key is adopted from.
	DefaultIDPath = "id"
	// DefaultParentField is stamped with the primary key on every bucket.
	DefaultParentField = "parent_id"
	// ParentIDField is the primary key field of the parent record.
	ParentIDField = "id"
)

// Mapper maps documents according to one specification.
type Mapper struct {
	spec        *mapping.Specification
	normalizer  *normalize.Normalizer
	transforms  *transform.Registry
	logger      *slog.Logger
	metrics     *metrics.Metrics
	newID       func() string
	idPath      string
	parentField string
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Mapper) { m.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Mapper) { m.metrics = mt }
}

// WithTransforms sets the transform registry. Defaults to the builtins.
func WithTransforms(r *transform.Registry) Option {
	return func(m *Mapper) { m.transforms = r }
}

// WithNormalizer replaces the normalizer built from the specification metadata.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(m *Mapper) { m.normalizer = n }
}

// WithIDGenerator sets the primary key generator. Defaults to random UUIDs.
func WithIDGenerator(fn func() string) Option {
	return func(m *Mapper) { m.newID = fn }
}

// WithIDPath sets the document path the primary key is adopted from.
func WithIDPath(path string) Option {
	return func(m *Mapper) { m.idPath = path }
}

// WithParentField sets the bucket field stamped with the primary key.
func WithParentField(field string) Option {
	return func(m *Mapper) { m.parentField = field }
}

// New creates a Mapper for spec.
func New(spec *mapping.Specification, opts ...Option) *Mapper {
	m := &Mapper{
		spec:        spec,
		transforms:  transform.Builtins(),
		newID:       uuid.NewString,
		idPath:      DefaultIDPath,
		parentField: DefaultParentField,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.normalizer == nil {
		m.normalizer = spec.NewNormalizer()
	}

	if m.logger == nil {
		m.logger = slog.Default()
	}

	m.logger = m.logger.With(slog.String("component", component), slog.String("service", spec.Service.ID))

	return m
}

// Specification returns the specification the mapper was built with.
func (m *Mapper) Specification() *mapping.Specification {
	return m.spec
}

// MapJSON decodes data and maps it. data must hold a JSON object.
func (m *Mapper) MapJSON(data []byte) (*Result, error) {
	doc, err := jsonpath.DecodeObject(data)
	if err != nil {
		return nil, errors.InvalidRequest(err, component, "MapJSON", "invalid document: %v", err)
	}

	return m.Map(doc)
}

// Map maps a decoded document. Fields and array sections that fail are
// skipped; only a document that is not a JSON object is an error.
func (m *Mapper) Map(doc any) (*Result, error) {
	root, ok := jsonpath.Object(doc)
	if !ok {
		return nil, errors.InvalidRequest(errors.ErrNotJSONObject, component, "Map",
			"document must be a JSON object, got %T", doc)
	}

	start := time.Now()
	multi := m.spec.IsMultiDestination()

	res := &Result{
		Main:       make(Record),
		PrimaryKey: m.primaryKey(root),
	}

	if multi {
		res.Buckets = make(map[string]Record)
	}

	for _, sec := range m.spec.Sections {
		switch s := sec.(type) {
		case *mapping.ScalarGroup:
			m.mapScalarGroup(root, s, res)
		case *mapping.ArraySection:
			if rec, ok := m.mapArraySection(root, s); ok {
				res.Arrays = append(res.Arrays, rec)
				m.metrics.RecordArrayRows(rec.Destination, len(rec.Rows))
			}
		}
	}

	if multi {
		m.stampBuckets(res)
	}

	m.metrics.RecordDocumentMapped(multi, time.Since(start))
	m.logger.Debug("Document mapped",
		slog.String("primary_key", res.PrimaryKey),
		slog.Int("fields", len(res.Main)),
		slog.Int("arrays", len(res.Arrays)),
		slog.Int("rows", res.RowCount()))

	return res, nil
}

func (m *Mapper) primaryKey(root map[string]any) string {
	if id, ok := jsonpath.Extract(root, m.idPath); ok && !common.IsBlank(id) {
		return id
	}

	return m.newID()
}

func (m *Mapper) mapScalarGroup(root map[string]any, g *mapping.ScalarGroup, res *Result) {
	dest := m.spec.Service.FormID
	if res.Buckets != nil {
		dest = m.spec.DestinationFor(g.Name)
	}

	written := 0

	for _, f := range g.Fields {
		value, ok := m.mapField(root, g.Name, f)
		if !ok {
			continue
		}

		res.Main[f.Destination] = value

		if res.Buckets != nil {
			bucket := res.Buckets[dest]
			if bucket == nil {
				bucket = make(Record)
				res.Buckets[dest] = bucket
			}

			bucket[f.Destination] = value
		}

		written++
	}

	m.metrics.RecordFields(dest, written)
}

func (m *Mapper) mapArraySection(root map[string]any, s *mapping.ArraySection) (rec ArrayRecord, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Debug("Array section failed, skipping",
				slog.String("section", s.Name), slog.String("panic", fmt.Sprint(r)))
			m.metrics.RecordFieldFailure(s.Name)

			rec, ok = ArrayRecord{}, false
		}
	}()

	if !s.IsComplete() {
		m.logger.Debug("Array section incomplete, skipping", slog.String("section", s.Name))
		return ArrayRecord{}, false
	}

	if s.Gate != nil && !m.gateOpen(root, s.Gate) {
		m.logger.Debug("Array section gate closed, skipping",
			slog.String("section", s.Name), slog.String("control_field", s.Gate.ControlField))

		return ArrayRecord{}, false
	}

	node, found := jsonpath.Lookup(root, s.SourcePath)
	if !found {
		m.logger.Debug("Array section source not found", slog.String("section", s.Name), slog.String("path", s.SourcePath))
		return ArrayRecord{}, false
	}

	elems, isArray := jsonpath.Collection(node)
	if !isArray {
		m.logger.Debug("Array section source is not a collection",
			slog.String("section", s.Name), slog.String("type", fmt.Sprintf("%T", node)))

		return ArrayRecord{}, false
	}

	rec = ArrayRecord{Section: s.Name, Destination: s.Destination}

	for _, elem := range elems {
		row := make(Record)

		for _, f := range s.Fields {
			if value, ok := m.mapField(elem, s.Name, f); ok {
				row[f.Destination] = value
			}
		}

		if len(row) > 0 {
			rec.Rows = append(rec.Rows, row)
		}
	}

	if len(rec.Rows) == 0 {
		return ArrayRecord{}, false
	}

	return rec, true
}

// gateOpen evaluates the gate against the document root. A "yes" control
// value accepts every positive form (true, 1, "yes"); any other value must
// match the control field text, ignoring case.
func (m *Mapper) gateOpen(root map[string]any, gate *mapping.Gate) bool {
	node, ok := jsonpath.Lookup(root, gate.ControlField)
	if !ok || node == nil {
		return false
	}

	if normalize.IsPositive(gate.ControlValue) {
		return normalize.IsPositive(node)
	}

	return common.EqualFoldAny(jsonpath.Project(node), gate.ControlValue)
}

// mapField extracts one field from scope. It never panics; a failing field
// produces no value.
func (m *Mapper) mapField(scope any, section string, f mapping.FieldMapping) (value string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Debug("Field mapping failed, skipping",
				slog.String("section", section),
				slog.String("field", f.Destination),
				slog.String("panic", fmt.Sprint(r)))
			m.metrics.RecordFieldFailure(section)

			value, ok = "", false
		}
	}()

	if f.IsInert() {
		return "", false
	}

	node, found := resolve(scope, f)
	if !found {
		return "", false
	}

	if m.normalizer.IsPassThrough(f.Destination) {
		value = jsonpath.Project(node)
		return value, value != ""
	}

	value = jsonpath.Project(node)

	if len(f.ValueMapping) > 0 {
		value = transform.ApplyValueMapping(value, f.ValueMapping)
	}

	if f.Transform != "" {
		value = m.transforms.Apply(value, f.Transform)
	}

	if m.normalizer.HasFieldConfig(f.Destination) {
		if normalized, ok := m.normalizer.Normalize(value, f.Destination); ok {
			value = normalized
		}
	}

	return value, value != ""
}

func (m *Mapper) stampBuckets(res *Result) {
	for _, bucket := range res.Buckets {
		bucket[m.parentField] = res.PrimaryKey
	}

	cfg := m.spec.Service.Config
	if cfg.ParentFormID == "" {
		return
	}

	res.ParentFormID = cfg.ParentFormID
	res.Parent = Record{ParentIDField: res.PrimaryKey}

	for _, field := range cfg.ParentReferenceFields {
		res.Parent[field] = res.PrimaryKey
	}
}
