package validation

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/common"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/errors"
)

const component = "validation"

// Defaults of the fixed checks.
const (
	DefaultIdentifierType = "NationalId"

	DefaultConsentForm     = "farmerDeclaration"
	DefaultConsentField    = "declarationConsent"
	DefaultFullNameField   = "declarationFullName"
	DefaultDeclarationDate = "field13"

	DefaultHouseholdSource = "relatedPerson"
	DefaultHouseholdForm   = "farmerHousehold"
	DefaultHouseholdGrid   = "householdMembers"
)

// DefaultConsentTokens must all be present in the consent checkbox group.
var DefaultConsentTokens = []string{"agree_declaration", "agree_terms", "consent_verification", "consent_data_use"}

// Rules is a loaded rule document. It is read-only after ParseRules returns.
type Rules struct {
	Core         CoreRequirements
	Forms        []FormRules
	Numeric      []NumericRule
	Grids        []GridRule
	Conditionals []ConditionalRule
	Consent      ConsentRule
	Household    HouseholdRule
}

// CoreRequirements lists the exchange schema fields every document must carry.
type CoreRequirements map[string]CoreField

// CoreField describes one core requirement.
type CoreField struct {
	Description  string `yaml:"description,omitempty"`
	RequiredType string `yaml:"required_type,omitempty"`
}

// IdentifierType returns the identifier kind at least one identifier must have.
func (c CoreRequirements) IdentifierType() string {
	return common.FirstNonEmpty(c["identifiers"].RequiredType, DefaultIdentifierType)
}

// FormRules holds the mandatory fields of one destination form.
type FormRules struct {
	Name        string
	FormID      string
	Critical    []MandatoryField
	Conditional []MandatoryField
}

// MandatoryField is a field that must resolve to a non-empty value.
type MandatoryField struct {
	Key       string `yaml:"-"`
	FieldID   string `yaml:"field_id"`
	Label     string `yaml:"label,omitempty"`
	Type      string `yaml:"type,omitempty"`
	Validator string `yaml:"validator,omitempty"`
	// Level is 1 for unconditional fields and 2 for fields only required
	// through a conditional rule.
	Level int `yaml:"-"`
}

// DisplayName returns the label, or the field id when there is none.
func (f MandatoryField) DisplayName() string {
	return common.FirstNonEmpty(f.Label, f.FieldID)
}

// NumericRule bounds a numeric field.
type NumericRule struct {
	Field string   `yaml:"field"`
	Type  string   `yaml:"type,omitempty"`
	Min   *float64 `yaml:"min,omitempty"`
	Max   *float64 `yaml:"max,omitempty"`
}

// GridRule bounds the row count of a grid.
type GridRule struct {
	Grid        string `yaml:"grid"`
	Description string `yaml:"description,omitempty"`
	MinRows     *int   `yaml:"min_rows,omitempty"`
	MaxRows     *int   `yaml:"max_rows,omitempty"`
}

// ConditionalRule requires fields and grids when its condition holds.
type ConditionalRule struct {
	Condition      *Condition
	RequiredFields []string
	RequiredGrids  []string
	MinEntries     int
}

// ConsentRule configures the declaration consent check.
type ConsentRule struct {
	FormID         string     `yaml:"form_id,omitempty"`
	Field          string     `yaml:"field,omitempty"`
	RequiredValues StringList `yaml:"required_values,omitempty"`
	FullNameField  string     `yaml:"full_name_field,omitempty"`
	DateField      string     `yaml:"date_field,omitempty"`
}

// HouseholdRule configures the related-person check. It cannot be disabled.
type HouseholdRule struct {
	Source string `yaml:"source,omitempty"`
	FormID string `yaml:"form_id,omitempty"`
	Grid   string `yaml:"grid,omitempty"`
}

// StringList accepts a YAML sequence or a comma separated string.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = common.SplitList(node.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}

		*l = items

		return nil
	default:
		return fmt.Errorf("line %d: expected list or comma separated string", node.Line)
	}
}

type rulesYAML struct {
	GovStack struct {
		Core CoreRequirements `yaml:"core_mandatory_fields"`
	} `yaml:"govstack_api_requirements"`

	Forms formRulesList `yaml:"joget_form_mandatory_fields"`

	Rules struct {
		Numeric      []NumericRule     `yaml:"numeric_validations"`
		Grids        []GridRule        `yaml:"grid_validations"`
		Conditionals []ConditionalRule `yaml:"conditional_validations"`
		Consent      ConsentRule       `yaml:"consent_validation"`
		Household    HouseholdRule     `yaml:"household_validation"`
	} `yaml:"validation_rules"`
}

type formRulesList []FormRules

type formRulesYAML struct {
	FormID      string    `yaml:"form_id"`
	Critical    yaml.Node `yaml:"level_1_critical"`
	Conditional yaml.Node `yaml:"level_2_conditional"`
}

// UnmarshalYAML keeps the document order of the forms and their fields.
func (l *formRulesList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: joget_form_mandatory_fields must be a mapping", node.Line)
	}

	out := make(formRulesList, 0, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value

		var raw formRulesYAML
		if err := node.Content[i+1].Decode(&raw); err != nil {
			return fmt.Errorf("joget_form_mandatory_fields.%s: %w", name, err)
		}

		critical, err := decodeMandatory(&raw.Critical, 1)
		if err != nil {
			return fmt.Errorf("joget_form_mandatory_fields.%s.level_1_critical: %w", name, err)
		}

		conditional, err := decodeMandatory(&raw.Conditional, 2)
		if err != nil {
			return fmt.Errorf("joget_form_mandatory_fields.%s.level_2_conditional: %w", name, err)
		}

		out = append(out, FormRules{
			Name:        name,
			FormID:      common.FirstNonEmpty(raw.FormID, name),
			Critical:    critical,
			Conditional: conditional,
		})
	}

	*l = out

	return nil
}

func decodeMandatory(node *yaml.Node, level int) ([]MandatoryField, error) {
	if node.Kind == 0 {
		return nil, nil
	}

	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of fields", node.Line)
	}

	out := make([]MandatoryField, 0, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value

		var f MandatoryField
		if err := node.Content[i+1].Decode(&f); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}

		f.Key = key
		f.FieldID = common.FirstNonEmpty(f.FieldID, key)
		f.Level = level
		out = append(out, f)
	}

	return out, nil
}

type conditionalRuleYAML struct {
	Condition      string     `yaml:"condition"`
	RequiredFields StringList `yaml:"required_fields,omitempty"`
	RequiredGrids  StringList `yaml:"required_grids,omitempty"`
	MinEntries     int        `yaml:"min_entries,omitempty"`
}

// UnmarshalYAML compiles the condition expression.
func (r *ConditionalRule) UnmarshalYAML(node *yaml.Node) error {
	var raw conditionalRuleYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}

	cond, err := ParseCondition(raw.Condition)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}

	*r = ConditionalRule{
		Condition:      cond,
		RequiredFields: raw.RequiredFields,
		RequiredGrids:  raw.RequiredGrids,
		MinEntries:     raw.MinEntries,
	}

	return nil
}

// LoadRulesFile loads and parses a rule document from the given path.
func LoadRulesFile(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Configuration(err, component, "LoadRulesFile",
			"failed to read validation rules %s: %v", path, err)
	}

	return ParseRules(data)
}

// ParseRules parses a rule document. Every failure is a configuration error.
func ParseRules(data []byte) (*Rules, error) {
	var raw rulesYAML

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Configuration(err, component, "ParseRules",
			"failed to parse validation rules: %v", err)
	}

	rules := &Rules{
		Core:         raw.GovStack.Core,
		Forms:        raw.Forms,
		Numeric:      raw.Rules.Numeric,
		Grids:        raw.Rules.Grids,
		Conditionals: raw.Rules.Conditionals,
		Consent:      raw.Rules.Consent,
		Household:    raw.Rules.Household,
	}

	if err := rules.check(); err != nil {
		return nil, errors.Configuration(err, component, "ParseRules", "invalid validation rules: %v", err)
	}

	rules.applyDefaults()

	return rules, nil
}

func (r *Rules) check() error {
	var problems []string

	for i, n := range r.Numeric {
		if common.IsBlank(n.Field) {
			problems = append(problems, fmt.Sprintf("numeric_validations[%d]: field is required", i))
		}

		if n.Min != nil && n.Max != nil && *n.Min > *n.Max {
			problems = append(problems, fmt.Sprintf("numeric_validations[%d]: min is greater than max", i))
		}
	}

	for i, g := range r.Grids {
		if common.IsBlank(g.Grid) {
			problems = append(problems, fmt.Sprintf("grid_validations[%d]: grid is required", i))
		}

		if g.MinRows != nil && g.MaxRows != nil && *g.MinRows > *g.MaxRows {
			problems = append(problems, fmt.Sprintf("grid_validations[%d]: min_rows is greater than max_rows", i))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}

	return nil
}

func (r *Rules) applyDefaults() {
	c := &r.Consent
	c.FormID = common.FirstNonEmpty(c.FormID, DefaultConsentForm)
	c.Field = common.FirstNonEmpty(c.Field, DefaultConsentField)
	c.FullNameField = common.FirstNonEmpty(c.FullNameField, DefaultFullNameField)
	c.DateField = common.FirstNonEmpty(c.DateField, DefaultDeclarationDate)

	if len(c.RequiredValues) == 0 {
		c.RequiredValues = append(StringList(nil), DefaultConsentTokens...)
	}

	h := &r.Household
	h.Source = common.FirstNonEmpty(h.Source, DefaultHouseholdSource)
	h.FormID = common.FirstNonEmpty(h.FormID, DefaultHouseholdForm)
	h.Grid = common.FirstNonEmpty(h.Grid, DefaultHouseholdGrid)
}

// CriticalFields returns every level-1 field with its form.
func (r *Rules) CriticalFields() []FormField {
	var out []FormField

	for _, form := range r.Forms {
		for _, f := range form.Critical {
			out = append(out, FormField{FormID: form.FormID, MandatoryField: f})
		}
	}

	return out
}

// ConditionalField returns the level-2 definition of fieldID, if any.
func (r *Rules) ConditionalField(fieldID string) (FormField, bool) {
	for _, form := range r.Forms {
		for _, f := range form.Conditional {
			if f.FieldID == fieldID {
				return FormField{FormID: form.FormID, MandatoryField: f}, true
			}
		}
	}

	return FormField{}, false
}

// FormField is a mandatory field and the form it belongs to.
type FormField struct {
	FormID string
	MandatoryField
}
