package normalize

import (
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/common"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/jsonpath"
)

// Pair is the canonical positive/negative encoding of a boolean-like field.
type Pair struct {
	Positive string `yaml:"positive"`
	Negative string `yaml:"negative"`
}

// Canonical pairs of the built-in normalization groups.
var (
	PairYesNo  = Pair{Positive: "yes", Negative: "no"}
	PairOneTwo = Pair{Positive: "1", Negative: "2"}
)

// Built-in normalization group names.
const (
	GroupYesNo  = "yesNo"
	GroupOneTwo = "oneTwo"
)

// LookupGroup returns the canonical pair of a built-in normalization group.
func LookupGroup(name string) (Pair, bool) {
	switch name {
	case GroupYesNo:
		return PairYesNo, true
	case GroupOneTwo:
		return PairOneTwo, true
	default:
		return Pair{}, false
	}
}

// FieldConfig is the normalization policy of a single field.
type FieldConfig struct {
	Pair
	// CustomMappings maps custom (non boolean-like) values to replacements.
	CustomMappings map[string]string
}

// Normalizer maps boolean-like values onto per-field canonical encodings.
// It is safe for concurrent use once constructed.
type Normalizer struct {
	passThrough common.Set
	fields      map[string]FieldConfig
	fallback    FieldConfig
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithPassThrough marks fields whose values are externally governed codes and
// are returned as their raw string projection.
func WithPassThrough(fields ...string) Option {
	return func(n *Normalizer) {
		for _, f := range fields {
			if !common.IsBlank(f) {
				n.passThrough[f] = struct{}{}
			}
		}
	}
}

// WithGroup assigns pair to every listed field.
func WithGroup(pair Pair, fields ...string) Option {
	return func(n *Normalizer) {
		for _, f := range fields {
			n.fields[f] = FieldConfig{Pair: pair}
		}
	}
}

// WithField sets the full configuration of one field.
func WithField(field string, cfg FieldConfig) Option {
	return func(n *Normalizer) {
		n.fields[field] = cfg
	}
}

// WithDefault sets the pair used for fields without configuration.
func WithDefault(pair Pair) Option {
	return func(n *Normalizer) {
		n.fallback = FieldConfig{Pair: pair}
	}
}

// New creates a Normalizer. Fields without configuration use the 1/2 pair.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		passThrough: common.Set{},
		fields:      map[string]FieldConfig{},
		fallback:    FieldConfig{Pair: PairOneTwo},
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// IsPassThrough returns true if field is never normalized.
func (n *Normalizer) IsPassThrough(field string) bool {
	return n.passThrough.Has(field)
}

// HasFieldConfig returns true if field has its own configuration.
func (n *Normalizer) HasFieldConfig(field string) bool {
	_, ok := n.fields[field]
	return ok
}

// FieldConfig returns the configuration applied to field.
func (n *Normalizer) FieldConfig(field string) FieldConfig {
	if cfg, ok := n.fields[field]; ok {
		return cfg
	}

	return n.fallback
}

// Normalize maps value onto the canonical encoding of field.
// It returns false when value is null.
func (n *Normalizer) Normalize(value any, field string) (string, bool) {
	if value == nil {
		return "", false
	}

	if n.IsPassThrough(field) {
		return jsonpath.Project(value), true
	}

	cfg := n.FieldConfig(field)

	switch Detect(value) {
	case FormatBoolean, FormatBooleanString, FormatListValueNumeric, FormatListValueText:
		if IsPositive(value) {
			return cfg.Positive, true
		}

		return cfg.Negative, true
	case FormatCustom:
		raw := jsonpath.Project(value)
		if mapped, ok := cfg.CustomMappings[raw]; ok {
			return mapped, true
		}

		return raw, true
	default:
		return "", false
	}
}
