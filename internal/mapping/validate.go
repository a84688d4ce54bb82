package mapping

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/diagnostic"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/jsonpath"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/match"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/transform"
)

// ColumnPrefix is prepended to a field name to form its destination column.
const ColumnPrefix = "c_"

// TransformSet reports whether a named transform exists. A set that also
// has a `Names() []string` method gets spelling suggestions.
type TransformSet interface {
	Has(name string) bool
}

// GridValidator validates that an array section destination can be resolved.
type GridValidator interface {
	Validate(grid string) error
}

// ColumnSource lists the columns of a destination form.
type ColumnSource interface {
	Columns(ctx context.Context, formID string) ([]string, error)
}

// CheckOption configures Check.
type CheckOption func(*checker)

// WithTransforms sets the transforms used to check transform names.
// Defaults to the builtin transforms.
func WithTransforms(ts TransformSet) CheckOption {
	return func(c *checker) { c.transforms = ts }
}

// WithGrids enables the grid destination check.
func WithGrids(g GridValidator) CheckOption {
	return func(c *checker) { c.grids = g }
}

// WithColumns enables the destination column check.
func WithColumns(src ColumnSource) CheckOption {
	return func(c *checker) { c.columns = src }
}

type checker struct {
	transforms   TransformSet
	grids        GridValidator
	columns      ColumnSource
	gridMappings map[string]GridMapping
	res          *diagnostic.Diagnostics
}

// Check validates a loaded specification. Parse already rejects documents
// that cannot be used at all; Check reports everything else.
func Check(ctx context.Context, spec *Specification, opts ...CheckOption) *diagnostic.Diagnostics {
	c := &checker{
		transforms: transform.Builtins(),
		res:        &diagnostic.Diagnostics{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if spec == nil {
		c.res.AddError("spec_is_nil", "mapping specification is nil", "", "")
		return c.res
	}

	c.gridMappings = spec.Service.Config.GridMappings

	for _, sec := range spec.Sections {
		switch s := sec.(type) {
		case *ScalarGroup:
			c.checkFields(s.Name, s.Fields)
		case *ArraySection:
			c.checkArray(s)
		}
	}

	c.checkDuplicates(spec)

	if c.columns != nil {
		c.checkColumns(ctx, spec)
	}

	return c.res
}

func (c *checker) checkArray(s *ArraySection) {
	if !s.IsComplete() {
		c.res.AddWarning("incomplete_array_section",
			"array section needs govstack, jogetGrid and fields; it will produce no rows", s.Name, "")

		return
	}

	c.checkPath(s.Name, s.SourcePath, "govstack")

	if s.Gate != nil {
		c.checkPath(s.Name, s.Gate.ControlField, "controlField")
	}

	c.checkFields(s.Name, s.Fields)

	if c.grids != nil {
		if err := c.grids.Validate(s.Destination); err != nil {
			suggestion := fmt.Sprintf("add serviceConfig.gridMappings.%s", s.Destination)
			if name, ok := match.Closest(s.Destination, slices.Sorted(maps.Keys(c.gridMappings))); ok {
				suggestion += fmt.Sprintf(" or use the configured grid %q", name)
			}

			c.res.Add(diagnostic.Diagnostic{
				Severity:   diagnostic.SeverityError,
				Code:       "unresolved_grid",
				Message:    err.Error(),
				Section:    s.Name,
				FieldPath:  s.Destination,
				Suggestion: suggestion,
			})
		}
	}
}

func (c *checker) checkFields(section string, fields []FieldMapping) {
	for i, f := range fields {
		if f.IsInert() {
			c.res.AddWarning("inert_field",
				fmt.Sprintf("field #%d has no %s and is ignored", i+1, missingKey(f)),
				section, f.Destination)

			continue
		}

		c.checkPath(section, f.Source, f.Destination)

		if f.AlternateSource != "" {
			c.checkPath(section, f.AlternateSource, f.Destination)
		}

		if f.Discriminator != nil {
			c.checkPath(section, f.Discriminator.Path, f.Destination)
		}

		if f.Transform != "" && !c.transforms.Has(f.Transform) {
			c.res.Add(diagnostic.Diagnostic{
				Severity:   diagnostic.SeverityWarning,
				Code:       "unknown_transform",
				Message:    fmt.Sprintf("unknown transform %q; value is passed unchanged", f.Transform),
				Section:    section,
				FieldPath:  f.Destination,
				Suggestion: c.transformSuggestion(f.Transform),
			})
		}
	}
}

func (c *checker) transformSuggestion(name string) string {
	named, ok := c.transforms.(interface{ Names() []string })
	if !ok {
		return "use one of the registered transforms"
	}

	if closest, ok := match.Closest(name, named.Names()); ok {
		return fmt.Sprintf("did you mean %q?", closest)
	}

	return "use one of: " + strings.Join(named.Names(), ", ")
}

func (c *checker) checkPath(section, path, fieldPath string) {
	if _, err := jsonpath.Parse(path); err != nil {
		c.res.AddWarning("invalid_path", err.Error(), section, fieldPath)
	}
}

// checkDuplicates warns when two scalar fields write the same destination field.
func (c *checker) checkDuplicates(spec *Specification) {
	seen := make(map[string]string)

	for _, g := range spec.ScalarGroups() {
		dest := spec.DestinationFor(g.Name)

		for _, f := range g.Fields {
			if f.IsInert() {
				continue
			}

			key := dest + "." + f.Destination
			if prev, ok := seen[key]; ok && prev != g.Name {
				c.res.AddWarning("duplicate_destination",
					fmt.Sprintf("field %q is also mapped by section %q; the later value wins", f.Destination, prev),
					g.Name, f.Destination)

				continue
			}

			seen[key] = g.Name
		}
	}
}

func (c *checker) checkColumns(ctx context.Context, spec *Specification) {
	cache := make(map[string]map[string]struct{})

	lookup := func(formID string) (map[string]struct{}, bool) {
		if cols, ok := cache[formID]; ok {
			return cols, cols != nil
		}

		names, err := c.columns.Columns(ctx, formID)
		if err != nil {
			c.res.AddWarning("column_lookup_failed", err.Error(), "", formID)
			cache[formID] = nil

			return nil, false
		}

		cols := make(map[string]struct{}, len(names))
		for _, n := range names {
			cols[n] = struct{}{}
		}

		cache[formID] = cols

		return cols, true
	}

	for _, sec := range spec.Sections {
		formID := spec.DestinationFor(sec.SectionName())
		if a, ok := sec.(*ArraySection); ok {
			formID = a.Destination
			if gm, ok := spec.Service.Config.GridMappings[a.Destination]; ok && gm.FormID != "" {
				formID = gm.FormID
			}
		}

		cols, ok := lookup(formID)
		if !ok {
			continue
		}

		for _, f := range sec.FieldMappings() {
			if f.IsInert() {
				continue
			}

			if _, ok := cols[ColumnPrefix+f.Destination]; !ok {
				c.res.AddWarning("missing_column",
					fmt.Sprintf("column %s%s not found in form %s", ColumnPrefix, f.Destination, formID),
					sec.SectionName(), f.Destination)
			}
		}
	}
}

func missingKey(f FieldMapping) string {
	if f.Destination == "" {
		return "'joget' property"
	}

	return "'govstack' property"
}
