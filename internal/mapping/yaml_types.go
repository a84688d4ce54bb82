package mapping

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/errors"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/normalize"
)

// defaultControlValue is used when a gate names a control field but no value.
const defaultControlValue = "yes"

// --- Sections YAML methods ---

type sectionYAML struct {
	Type         string         `yaml:"type,omitempty"`
	GovStack     string         `yaml:"govstack,omitempty"`
	JogetGrid    string         `yaml:"jogetGrid,omitempty"`
	ControlField string         `yaml:"controlField,omitempty"`
	ControlValue string         `yaml:"controlValue,omitempty"`
	Fields       []FieldMapping `yaml:"fields,omitempty"`
}

// UnmarshalYAML decodes formMappings, keeping document order and resolving
// each entry to a *ScalarGroup or *ArraySection by its `type` key.
func (s *Sections) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: formMappings must be a mapping, got %s", node.Line, kindName(node.Kind))
	}

	out := make(Sections, 0, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value

		sec, err := decodeSection(name, node.Content[i+1])
		if err != nil {
			return err
		}

		out = append(out, sec)
	}

	*s = out

	return nil
}

func decodeSection(name string, node *yaml.Node) (Section, error) {
	var raw sectionYAML
	if err := node.Decode(&raw); err != nil {
		return nil, fmt.Errorf("section %q: %w", name, err)
	}

	switch strings.ToLower(strings.TrimSpace(raw.Type)) {
	case "", "scalar", "form":
		return &ScalarGroup{Name: name, Fields: raw.Fields}, nil
	case "array", "grid":
		sec := &ArraySection{
			Name:        name,
			SourcePath:  raw.GovStack,
			Destination: raw.JogetGrid,
			Fields:      raw.Fields,
		}

		if raw.ControlField != "" {
			value := raw.ControlValue
			if value == "" {
				value = defaultControlValue
			}

			sec.Gate = &Gate{ControlField: raw.ControlField, ControlValue: value}
		}

		return sec, nil
	default:
		return nil, fmt.Errorf("section %q (line %d): unknown type %q, expected \"array\" or no type", name, node.Line, raw.Type)
	}
}

// MarshalYAML encodes the sections back to a formMappings mapping.
func (s Sections) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}

	for _, sec := range s {
		raw := sectionYAML{Fields: sec.FieldMappings()}

		if a, ok := sec.(*ArraySection); ok {
			raw.Type = KindArray.String()
			raw.GovStack = a.SourcePath
			raw.JogetGrid = a.Destination

			if a.Gate != nil {
				raw.ControlField = a.Gate.ControlField
				raw.ControlValue = a.Gate.ControlValue
			}
		}

		var value yaml.Node
		if err := value.Encode(raw); err != nil {
			return nil, err
		}

		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: sec.SectionName()}, &value)
	}

	return node, nil
}

// --- FieldMapping YAML methods ---

type fieldMappingYAML struct {
	Joget          string            `yaml:"joget,omitempty"`
	GovStack       string            `yaml:"govstack,omitempty"`
	JSONPath       string            `yaml:"jsonPath,omitempty"`
	Transform      string            `yaml:"transform,omitempty"`
	Transformation string            `yaml:"transformation,omitempty"`
	ValueMapping   map[string]string `yaml:"valueMapping,omitempty"`
	GovStackType   string            `yaml:"govstackType,omitempty"`
	TypeValue      string            `yaml:"typeValue,omitempty"`
	Required       bool              `yaml:"required,omitempty"`
	Label          string            `yaml:"label,omitempty"`
}

// UnmarshalYAML decodes a field entry, accepting `transformation` as an alias
// of `transform` and `govstackType`/`typeValue` as the discriminator.
func (f *FieldMapping) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: field mapping must be a mapping, got %s", node.Line, kindName(node.Kind))
	}

	var raw fieldMappingYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}

	*f = FieldMapping{
		Destination:     strings.TrimSpace(raw.Joget),
		Source:          strings.TrimSpace(raw.GovStack),
		AlternateSource: strings.TrimSpace(raw.JSONPath),
		Transform:       strings.TrimSpace(raw.Transform),
		ValueMapping:    raw.ValueMapping,
		Required:        raw.Required,
		Label:           raw.Label,
	}

	if f.Transform == "" {
		f.Transform = strings.TrimSpace(raw.Transformation)
	}

	if raw.GovStackType != "" && raw.TypeValue != "" {
		f.Discriminator = &Discriminator{Path: raw.GovStackType, Expected: raw.TypeValue}
	}

	return nil
}

// MarshalYAML encodes the field using its document keys.
func (f FieldMapping) MarshalYAML() (any, error) {
	raw := fieldMappingYAML{
		Joget:        f.Destination,
		GovStack:     f.Source,
		JSONPath:     f.AlternateSource,
		Transform:    f.Transform,
		ValueMapping: f.ValueMapping,
		Required:     f.Required,
		Label:        f.Label,
	}

	if f.Discriminator != nil {
		raw.GovStackType = f.Discriminator.Path
		raw.TypeValue = f.Discriminator.Expected
	}

	return raw, nil
}

// --- NormalizationGroups YAML methods ---

type normalizationGroupYAML struct {
	Positive       string            `yaml:"positive"`
	Negative       string            `yaml:"negative"`
	Fields         []string          `yaml:"fields"`
	CustomMappings map[string]string `yaml:"customMappings,omitempty"`
}

// UnmarshalYAML decodes fieldNormalization. A built-in group name maps to a
// list of fields; any other group declares its own positive/negative pair.
//
//	fieldNormalization:
//	  yesNo: [hasLivestock, cropProduction]
//	  oneTwo: [canReadWrite]
//	  consent:
//	    positive: "Y"
//	    negative: "N"
//	    fields: [dataSharing]
func (g *NormalizationGroups) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: fieldNormalization must be a mapping, got %s", node.Line, kindName(node.Kind))
	}

	out := make(NormalizationGroups, 0, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		value := node.Content[i+1]

		group, err := decodeNormalizationGroup(name, value)
		if err != nil {
			return err
		}

		out = append(out, group)
	}

	*g = out

	return nil
}

func decodeNormalizationGroup(name string, node *yaml.Node) (NormalizationGroup, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		pair, ok := normalize.LookupGroup(name)
		if !ok {
			return NormalizationGroup{}, fmt.Errorf(
				"fieldNormalization.%s: %w; use %s or %s, or declare positive and negative values",
				name, errors.ErrUnknownNormalization, normalize.GroupYesNo, normalize.GroupOneTwo)
		}

		var fields []string
		if err := node.Decode(&fields); err != nil {
			return NormalizationGroup{}, fmt.Errorf("fieldNormalization.%s: %w", name, err)
		}

		return NormalizationGroup{Name: name, Pair: pair, Fields: fields}, nil

	case yaml.MappingNode:
		var raw normalizationGroupYAML
		if err := node.Decode(&raw); err != nil {
			return NormalizationGroup{}, fmt.Errorf("fieldNormalization.%s: %w", name, err)
		}

		if raw.Positive == "" || raw.Negative == "" {
			return NormalizationGroup{}, fmt.Errorf(
				"fieldNormalization.%s: %w; both positive and negative are required", name, errors.ErrUnknownNormalization)
		}

		return NormalizationGroup{
			Name:           name,
			Pair:           normalize.Pair{Positive: raw.Positive, Negative: raw.Negative},
			Fields:         raw.Fields,
			CustomMappings: raw.CustomMappings,
		}, nil

	default:
		return NormalizationGroup{}, fmt.Errorf("fieldNormalization.%s: expected list or mapping, got %s", name, kindName(node.Kind))
	}
}

// MarshalYAML encodes the groups back to a fieldNormalization mapping.
func (g NormalizationGroups) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}

	for _, group := range g {
		var value yaml.Node

		var err error
		if builtin, ok := normalize.LookupGroup(group.Name); ok && builtin == group.Pair && len(group.CustomMappings) == 0 {
			err = value.Encode(group.Fields)
		} else {
			err = value.Encode(normalizationGroupYAML{
				Positive:       group.Pair.Positive,
				Negative:       group.Pair.Negative,
				Fields:         group.Fields,
				CustomMappings: group.CustomMappings,
			})
		}

		if err != nil {
			return nil, err
		}

		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: group.Name}, &value)
	}

	return node, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
