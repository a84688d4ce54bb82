package mapping

import (
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/common"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/normalize"
)

// Specification is a loaded mapping document. It is read-only after Parse
// returns and may be shared across goroutines.
type Specification struct {
	// Service identifies the service and its destination configuration.
	Service Service `yaml:"service"`

	// Sections lists the form mappings in document order.
	Sections Sections `yaml:"formMappings"`

	// Metadata holds pass-through fields and normalization groups.
	Metadata Metadata `yaml:"metadata,omitempty"`
}

// Service is the `service` block of a mapping document.
type Service struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name,omitempty"`
	Version string `yaml:"version,omitempty"`

	// FormID is the default destination of scalar fields. Defaults to ID.
	FormID string `yaml:"formId,omitempty"`

	Config ServiceConfig `yaml:"serviceConfig,omitempty"`
}

// ServiceConfig holds destination settings for multi-destination storage.
type ServiceConfig struct {
	// ParentFormID receives the parent record linking all destinations.
	ParentFormID string `yaml:"parentFormId,omitempty"`

	// DestinationMap maps scalar section names to destination form ids.
	// When non-empty the mapper runs in multi-destination mode.
	DestinationMap map[string]string `yaml:"destinationMap,omitempty"`

	// SectionToFormMap is the legacy spelling of DestinationMap. Merged into it on load.
	SectionToFormMap map[string]string `yaml:"sectionToFormMap,omitempty"`

	// ParentReferenceFields are parent record fields set to the primary key.
	ParentReferenceFields []string `yaml:"parentReferenceFields,omitempty"`

	// GridMappings configures the destination of each array section, keyed by grid name.
	GridMappings map[string]GridMapping `yaml:"gridMappings,omitempty"`

	Defaults Defaults `yaml:"defaults,omitempty"`
}

// GridMapping is the destination of one array section.
type GridMapping struct {
	FormID       string `yaml:"formId,omitempty"`
	ParentField  string `yaml:"parentField,omitempty"`
	ParentColumn string `yaml:"parentColumn,omitempty"`
}

// Defaults are service-wide fallbacks for grid destinations.
type Defaults struct {
	GridParentField  string `yaml:"gridParentField,omitempty"`
	GridParentColumn string `yaml:"gridParentColumn,omitempty"`
}

// Metadata is the `metadata` block of a mapping document.
type Metadata struct {
	// Version is compared against the metadataVersion sent by clients.
	Version string `yaml:"version,omitempty"`

	// MasterDataFields are destination fields holding externally governed codes.
	// They are never transformed or normalized.
	MasterDataFields []string `yaml:"masterDataFields,omitempty"`

	// FieldNormalization assigns canonical pairs to destination fields, keyed by group name.
	FieldNormalization NormalizationGroups `yaml:"fieldNormalization,omitempty"`
}

// NormalizationGroup assigns one canonical pair to a list of fields.
type NormalizationGroup struct {
	Name           string
	Pair           normalize.Pair
	Fields         []string
	CustomMappings map[string]string
}

// NormalizationGroups is an ordered list of normalization groups.
type NormalizationGroups []NormalizationGroup

// SectionKind discriminates the Section variants.
type SectionKind int

const (
	// KindScalar is a group of fields written to the main record.
	KindScalar SectionKind = iota
	// KindArray is a repeating group written as rows of a grid.
	KindArray
)

// String returns the YAML spelling of the kind.
func (k SectionKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	default:
		return common.UnknownStr
	}
}

// Section is one entry of formMappings: either a *ScalarGroup or an *ArraySection.
type Section interface {
	// SectionName returns the key of the section in formMappings.
	SectionName() string
	// Kind returns the variant of the section.
	Kind() SectionKind
	// FieldMappings returns the configured fields.
	FieldMappings() []FieldMapping
}

// Sections is the ordered list of sections of a document.
type Sections []Section

// ScalarGroup is a group of fields extracted from the document root.
type ScalarGroup struct {
	Name   string
	Fields []FieldMapping
}

// SectionName implements Section.
func (s *ScalarGroup) SectionName() string { return s.Name }

// Kind implements Section.
func (s *ScalarGroup) Kind() SectionKind { return KindScalar }

// FieldMappings implements Section.
func (s *ScalarGroup) FieldMappings() []FieldMapping { return s.Fields }

// ArraySection is a repeating group. Every element of the collection at
// SourcePath becomes one row of the grid named Destination.
type ArraySection struct {
	Name        string
	SourcePath  string
	Destination string
	Fields      []FieldMapping

	// Gate, when set, must pass for the section to produce rows.
	Gate *Gate
}

// SectionName implements Section.
func (s *ArraySection) SectionName() string { return s.Name }

// Kind implements Section.
func (s *ArraySection) Kind() SectionKind { return KindArray }

// FieldMappings implements Section.
func (s *ArraySection) FieldMappings() []FieldMapping { return s.Fields }

// IsComplete returns true if the section has a source path, a destination and fields.
// Incomplete sections produce no rows.
func (s *ArraySection) IsComplete() bool {
	return s.SourcePath != "" && s.Destination != "" && len(s.Fields) > 0
}

// Gate is the control condition of an array section. ControlField is a path
// in the source document; the section runs only when its value matches ControlValue.
type Gate struct {
	ControlField string `yaml:"controlField"`
	ControlValue string `yaml:"controlValue"`
}

// FieldMapping describes how one destination field is filled.
type FieldMapping struct {
	// Destination is the destination field name (`joget`).
	Destination string
	// Source is the primary source path (`govstack`).
	Source string
	// AlternateSource is tried when Source yields nothing (`jsonPath`).
	AlternateSource string
	// Transform is the name of a named transform (`transform` or `transformation`).
	Transform string
	// ValueMapping is a static substitution table applied before Transform.
	ValueMapping map[string]string
	// Discriminator, when set, must match for the field to produce a value.
	Discriminator *Discriminator
	// Required is informational. Mandatory checks live in the rule document.
	Required bool
	// Label is a human-readable name.
	Label string
}

// Discriminator selects one element of a tagged upstream array: the value at
// Path must equal Expected.
type Discriminator struct {
	Path     string
	Expected string
}

// IsInert returns true if the mapping cannot produce output.
func (f FieldMapping) IsInert() bool {
	return f.Destination == "" || f.Source == ""
}

// ScalarGroups returns the scalar sections in document order.
func (s *Specification) ScalarGroups() []*ScalarGroup {
	var out []*ScalarGroup

	for _, sec := range s.Sections {
		if g, ok := sec.(*ScalarGroup); ok {
			out = append(out, g)
		}
	}

	return out
}

// ArraySections returns the array sections in document order.
func (s *Specification) ArraySections() []*ArraySection {
	var out []*ArraySection

	for _, sec := range s.Sections {
		if a, ok := sec.(*ArraySection); ok {
			out = append(out, a)
		}
	}

	return out
}

// Section returns the section named name.
func (s *Specification) Section(name string) (Section, bool) {
	for _, sec := range s.Sections {
		if sec.SectionName() == name {
			return sec, true
		}
	}

	return nil, false
}

// IsMultiDestination returns true when scalar sections are bucketed per destination.
func (s *Specification) IsMultiDestination() bool {
	return len(s.Service.Config.DestinationMap) > 0
}

// DestinationFor returns the destination form of a scalar section.
// Sections missing from the destination map use the service form.
func (s *Specification) DestinationFor(section string) string {
	if formID, ok := s.Service.Config.DestinationMap[section]; ok && formID != "" {
		return formID
	}

	return s.Service.FormID
}

// MetadataVersion returns the version clients are checked against.
func (s *Specification) MetadataVersion() string {
	return common.FirstNonEmpty(s.Metadata.Version, s.Service.Version)
}

// NewNormalizer builds the value normalizer configured by the metadata block.
func (s *Specification) NewNormalizer() *normalize.Normalizer {
	opts := []normalize.Option{normalize.WithPassThrough(s.Metadata.MasterDataFields...)}

	for _, g := range s.Metadata.FieldNormalization {
		for _, f := range g.Fields {
			opts = append(opts, normalize.WithField(f, normalize.FieldConfig{
				Pair:           g.Pair,
				CustomMappings: g.CustomMappings,
			}))
		}
	}

	return normalize.New(opts...)
}
