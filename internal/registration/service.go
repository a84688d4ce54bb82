// Package registration processes registration requests for one configured
// service: it decodes the request, maps and validates the document and hands
// the records to a store.
package registration

import (
	"bytes"
	"cmp"
	"context"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/hashicorp/go-version"
	"golang.org/x/sync/errgroup"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/common"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/errors"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/grid"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/jsonpath"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/mapper"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/mapping"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/metrics"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/store"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/validation"
)

const component = "registration"

// Request members with a special meaning.
const (
	// TestDataKey wraps the document in test harness requests.
	TestDataKey = "testData"
	// MetadataVersionKey carries the mapping version the client was built against.
	MetadataVersionKey = "metadataVersion"
)

// Registration outcomes recorded in metrics.
const (
	outcomeSubmitted        = "submitted"
	outcomeValidationFailed = "validation_failed"
	outcomeError            = "error"
)

// Service processes registrations for one mapping specification.
// It is safe for concurrent use.
type Service struct {
	spec      *mapping.Specification
	mapper    *mapper.Mapper
	validator *validation.DataQualityValidator
	grids     map[string]grid.Destination
	store     store.Submitter
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	mapperOpts []mapper.Option
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock sets the time source of response timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMapperOptions passes options to the mapper.
func WithMapperOptions(opts ...mapper.Option) Option {
	return func(s *Service) { s.mapperOpts = append(s.mapperOpts, opts...) }
}

// New creates a service. Every grid of spec must resolve to a destination.
// A nil rules value disables validation.
func New(spec *mapping.Specification, rules *validation.Rules, sub store.Submitter, opts ...Option) (*Service, error) {
	s := &Service{
		spec:   spec,
		store:  sub,
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	grids, err := grid.NewResolver(spec).ResolveAll(spec)
	if err != nil {
		return nil, err
	}

	s.grids = grids
	s.logger = s.logger.With(slog.String("component", component), slog.String("service", spec.Service.ID))

	mapperOpts := append([]mapper.Option{mapper.WithLogger(s.logger), mapper.WithMetrics(s.metrics)}, s.mapperOpts...)
	s.mapper = mapper.New(spec, mapperOpts...)

	if rules != nil {
		s.validator = validation.NewValidator(rules,
			validation.WithLogger(s.logger),
			validation.WithMetrics(s.metrics),
			validation.WithClock(s.now))
	}

	return s, nil
}

// Load reads the mapping document and, when rulesPath is not empty, the
// rule document, and creates a service for serviceID.
func Load(mappingPath, rulesPath, serviceID string, sub store.Submitter, opts ...Option) (*Service, error) {
	spec, err := mapping.LoadFile(mappingPath, serviceID)
	if err != nil {
		return nil, err
	}

	var rules *validation.Rules
	if rulesPath != "" {
		if rules, err = validation.LoadRulesFile(rulesPath); err != nil {
			return nil, err
		}
	}

	return New(spec, rules, sub, opts...)
}

// ID returns the service identifier.
func (s *Service) ID() string {
	return s.spec.Service.ID
}

// Specification returns the mapping specification.
func (s *Service) Specification() *mapping.Specification {
	return s.spec
}

// Process handles one registration request. Failures are reported in the
// response; the status code follows the failure kind.
func (s *Service) Process(ctx context.Context, body []byte) *Response {
	start := s.now()

	resp, err := s.process(ctx, body)

	outcome := outcomeSubmitted

	switch {
	case err != nil:
		s.logger.Error("Registration failed",
			slog.String("kind", errors.KindOf(err).String()),
			slog.String("error", err.Error()))

		resp = NewErrorResponse(err, s.now())
		outcome = outcomeError
	case !resp.Success:
		outcome = outcomeValidationFailed
	}

	s.metrics.RecordRegistration(s.ID(), outcome, s.now().Sub(start))

	return resp
}

func (s *Service) process(ctx context.Context, body []byte) (*Response, error) {
	doc, err := DecodeRequest(body)
	if err != nil {
		return nil, err
	}

	s.checkVersion(doc)

	var (
		mapped *mapper.Result
		result *validation.Result
	)

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		mapped, err = s.mapper.Map(doc)

		return err
	})

	if s.validator != nil {
		g.Go(func() error {
			result = s.validator.Validate(doc)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if result != nil && !result.Valid() {
		s.logger.Warn("Data validation failed",
			slog.Int("errors", result.ErrorCount()),
			slog.String("summary", result.Summary()))

		return NewValidationResponse(result, s.now()), nil
	}

	if err := s.persist(ctx, mapped); err != nil {
		return nil, err
	}

	s.logger.Info("Registration submitted",
		slog.String("application_id", mapped.PrimaryKey),
		slog.Int("fields", len(mapped.Main)),
		slog.Int("rows", mapped.RowCount()))

	return NewSuccessResponse(s.ID(), mapped.PrimaryKey, s.now()), nil
}

// DecodeRequest decodes a request body into a document. A `testData`
// wrapper holding an object, or a non-empty array starting with one, is
// unwrapped. Any other `testData` value leaves the root document in place.
func DecodeRequest(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.InvalidRequest(errors.ErrEmptyRequest, component, "DecodeRequest",
			"request body cannot be empty")
	}

	v, err := jsonpath.Decode(body)
	if err != nil {
		return nil, errors.InvalidRequest(err, component, "DecodeRequest", "invalid JSON: %v", err)
	}

	root, ok := jsonpath.Object(v)
	if !ok {
		return nil, errors.InvalidRequest(errors.ErrNotJSONObject, component, "DecodeRequest",
			"invalid JSON format: request must be a JSON object")
	}

	wrapped, ok := root[TestDataKey]
	if !ok {
		return root, nil
	}

	if items, ok := jsonpath.Collection(wrapped); ok {
		first, ok := common.First(items)
		if !ok {
			return root, nil
		}
		wrapped = first
	}

	if inner, ok := jsonpath.Object(wrapped); ok {
		return inner, nil
	}

	return root, nil
}

// checkVersion warns when the client metadata version is not compatible
// with the specification. Versions are compatible when they are equal or
// share major and minor.
func (s *Service) checkVersion(doc map[string]any) {
	client, ok := jsonpath.Extract(doc, MetadataVersionKey)
	if !ok {
		return
	}

	server := s.spec.MetadataVersion()
	if server == "" || CompatibleVersions(client, server) {
		return
	}

	s.logger.Warn("Metadata version mismatch",
		slog.String("client_version", client),
		slog.String("server_version", server))
}

// CompatibleVersions reports whether two metadata versions are compatible.
func CompatibleVersions(a, b string) bool {
	if a == b {
		return true
	}

	va, err := version.NewVersion(a)
	if err != nil {
		return false
	}

	vb, err := version.NewVersion(b)
	if err != nil {
		return false
	}

	if va.Equal(vb) {
		return true
	}

	sa, sb := va.Segments(), vb.Segments()

	return len(sa) >= 2 && len(sb) >= 2 && sa[0] == sb[0] && sa[1] == sb[1]
}

// persist saves the parent record, the main record or its buckets and the
// grid rows. Parent and grid failures are logged; the registration fails
// when no destination form could be saved.
func (s *Service) persist(ctx context.Context, res *mapper.Result) error {
	pk := res.PrimaryKey

	if res.Parent != nil {
		if err := s.store.SaveRecord(ctx, res.ParentFormID, pk, res.Parent); err != nil {
			s.logger.Warn("Failed to create parent record",
				slog.String("form", res.ParentFormID), slog.String("error", err.Error()))
		}
	}

	if res.Buckets == nil {
		if err := s.store.SaveRecord(ctx, s.spec.Service.FormID, pk, res.Main); err != nil {
			return submissionError(err, "save "+s.spec.Service.FormID)
		}
	} else {
		var firstErr error

		saved := 0

		for _, formID := range slices.Sorted(maps.Keys(res.Buckets)) {
			if err := s.store.SaveRecord(ctx, formID, pk, res.Buckets[formID]); err != nil {
				s.logger.Warn("Failed to save form", slog.String("form", formID), slog.String("error", err.Error()))
				firstErr = cmp.Or(firstErr, err)

				continue
			}

			saved++
		}

		if saved == 0 && firstErr != nil {
			return submissionError(firstErr, "save to any form")
		}
	}

	for _, arr := range res.Arrays {
		dest, ok := s.grids[arr.Destination]
		if !ok {
			s.logger.Warn("No destination for grid", slog.String("grid", arr.Destination))
			continue
		}

		if err := s.store.ReplaceGridRows(ctx, dest, pk, arr.Rows); err != nil {
			s.logger.Warn("Failed to save grid rows",
				slog.String("grid", arr.Destination), slog.String("error", err.Error()))
		}
	}

	return nil
}

func submissionError(err error, action string) error {
	if errors.KindOf(err) == errors.KindFormSubmission {
		return err
	}

	return errors.WrapKind(errors.KindFormSubmission, err, component, "persist", action)
}
