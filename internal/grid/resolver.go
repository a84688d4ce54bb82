// Package grid resolves the storage destination of array sections.
//
// Every array section names a grid. The grid's form id and parent
// correlation field come from serviceConfig.gridMappings, falling back to
// serviceConfig.defaults. A grid that cannot be resolved is a configuration
// error; there are no built-in destinations.
package grid

import (
	"fmt"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/common"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/errors"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/mapping"
)

const component = "grid"

// Destination is the resolved storage target of one grid.
type Destination struct {
	// Grid is the grid name used by the array section.
	Grid string
	// FormID is the destination form of the grid rows.
	FormID string
	// ParentField is the row field holding the parent primary key.
	ParentField string
	// ParentColumn is the storage column behind ParentField.
	ParentColumn string
}

// Resolver resolves grid destinations from a service configuration.
type Resolver struct {
	config mapping.ServiceConfig
}

// NewResolver creates a resolver for the given specification.
func NewResolver(spec *mapping.Specification) *Resolver {
	return &Resolver{config: spec.Service.Config}
}

// Resolve returns the destination of the named grid.
func (r *Resolver) Resolve(grid string) (Destination, error) {
	gm := r.config.GridMappings[grid]

	if common.IsBlank(gm.FormID) {
		return Destination{}, errors.Configuration(errors.ErrMissingGridConfig, component, "Resolve",
			"grid form mapping not found for grid %s; add serviceConfig.gridMappings.%s.formId to the service YAML file",
			grid, grid)
	}

	parentField := common.FirstNonEmpty(gm.ParentField, r.config.Defaults.GridParentField)
	if parentField == "" {
		return Destination{}, errors.Configuration(errors.ErrMissingGridConfig, component, "Resolve",
			"missing parentField configuration for grid %q; set serviceConfig.gridMappings.%s.parentField "+
				"or serviceConfig.defaults.gridParentField", grid, grid)
	}

	parentColumn := common.FirstNonEmpty(
		gm.ParentColumn, r.config.Defaults.GridParentColumn, mapping.ColumnPrefix+parentField)

	return Destination{
		Grid:         grid,
		FormID:       gm.FormID,
		ParentField:  parentField,
		ParentColumn: parentColumn,
	}, nil
}

// Validate implements mapping.GridValidator.
func (r *Resolver) Validate(grid string) error {
	_, err := r.Resolve(grid)
	return err
}

// ResolveAll resolves the destination of every array section in spec.
// The first unresolvable grid is returned as an error.
func (r *Resolver) ResolveAll(spec *mapping.Specification) (map[string]Destination, error) {
	out := make(map[string]Destination)

	for _, sec := range spec.ArraySections() {
		if !sec.IsComplete() {
			continue
		}

		dest, err := r.Resolve(sec.Destination)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", sec.Name, err)
		}

		out[sec.Destination] = dest
	}

	return out, nil
}
