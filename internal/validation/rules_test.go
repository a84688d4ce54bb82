package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/errors"
)

const rulesFile = "../../testdata/farmers-validation.yml"

func TestLoadRulesFile(t *testing.T) {
	rules, err := LoadRulesFile(rulesFile)
	require.NoError(t, err)

	assert.Equal(t, "NationalId", rules.Core.IdentifierType())
	assert.Len(t, rules.Core, 4)

	require.Len(t, rules.Forms, 5)
	assert.Equal(t, "farmerBasicInfo", rules.Forms[0].FormID)
	assert.Equal(t, "farmerDeclaration", rules.Forms[4].Name)

	critical := rules.CriticalFields()
	require.Len(t, critical, 8)
	assert.Equal(t, FormField{
		FormID: "farmerBasicInfo",
		MandatoryField: MandatoryField{
			Key:     "date_of_birth",
			FieldID: "birthDate",
			Label:   "Date of Birth",
			Type:    "date",
			Level:   1,
		},
	}, critical[0])

	f, ok := rules.ConditionalField("agriculturalData.cooperativeName")
	require.True(t, ok)
	assert.Equal(t, "farmerAgriculture", f.FormID)
	assert.Equal(t, 2, f.Level)

	require.Len(t, rules.Numeric, 3)
	assert.Equal(t, 50.0, *rules.Numeric[0].Max)
	require.Len(t, rules.Grids, 2)
	assert.Equal(t, 1, *rules.Grids[0].MinRows)

	require.Len(t, rules.Conditionals, 3)
	assert.Equal(t, []string{"agriculturalData.livestock"}, rules.Conditionals[0].RequiredGrids)
	assert.Equal(t, []string{"agriculturalData.cooperativeName"}, rules.Conditionals[1].RequiredFields)
	assert.Equal(t, "household.receivesSocialGrant == 'yes' || household.receivesSocialGrant == '1'",
		rules.Conditionals[2].Condition.String())

	assert.Equal(t, "declarationDate", rules.Consent.DateField)
	assert.Equal(t, DefaultConsentTokens, []string(rules.Consent.RequiredValues))
	assert.Equal(t, HouseholdRule{Source: "relatedPerson", FormID: "farmerHousehold", Grid: "householdMembers"}, rules.Household)
}

func TestParseRulesDefaults(t *testing.T) {
	rules, err := ParseRules([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, DefaultIdentifierType, rules.Core.IdentifierType())
	assert.Empty(t, rules.CriticalFields())
	assert.Equal(t, ConsentRule{
		FormID:         DefaultConsentForm,
		Field:          DefaultConsentField,
		RequiredValues: DefaultConsentTokens,
		FullNameField:  DefaultFullNameField,
		DateField:      DefaultDeclarationDate,
	}, rules.Consent)
}

func TestParseRulesErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "malformed", yaml: "validation_rules: ["},
		{name: "forms not a mapping", yaml: "joget_form_mandatory_fields: [a, b]"},
		{name: "fields not a mapping", yaml: "joget_form_mandatory_fields:\n  f:\n    level_1_critical: [a]\n"},
		{name: "bad condition", yaml: "validation_rules:\n  conditional_validations:\n    - condition: (a == 'b')\n"},
		{name: "empty condition", yaml: "validation_rules:\n  conditional_validations:\n    - required_fields: a\n"},
		{name: "numeric without field", yaml: "validation_rules:\n  numeric_validations:\n    - min: 1\n"},
		{name: "inverted bounds", yaml: "validation_rules:\n  grid_validations:\n    - grid: g\n      min_rows: 5\n      max_rows: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.IsConfiguration(err), "got %v", err)
		})
	}
}

func TestLoadRulesFileMissing(t *testing.T) {
	_, err := LoadRulesFile("testdata/does-not-exist.yml")
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestStringList(t *testing.T) {
	rules, err := ParseRules([]byte(`
validation_rules:
  conditional_validations:
    - condition: a == 'yes'
      required_fields: "b, c"
      required_grids: [g1, g2]
`))
	require.NoError(t, err)

	r := rules.Conditionals[0]
	assert.Equal(t, []string{"b", "c"}, r.RequiredFields)
	assert.Equal(t, []string{"g1", "g2"}, r.RequiredGrids)
}
