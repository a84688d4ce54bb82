package mapper

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/errors"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/jsonpath"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/mapping"
)

const (
	servicesFile = "../../testdata/farmers-services.yml"
	sampleFile   = "../../testdata/farmers-sample.json"
)

func loadFarmers(t *testing.T) (*Mapper, []byte) {
	t.Helper()

	spec, err := mapping.LoadFile(servicesFile, "farmers_registry")
	require.NoError(t, err)

	data, err := os.ReadFile(sampleFile)
	require.NoError(t, err)

	return New(spec), data
}

func parseSpec(t *testing.T, doc string) *mapping.Specification {
	t.Helper()

	spec, err := mapping.Parse([]byte(doc), "test")
	require.NoError(t, err)

	return spec
}

func decode(t *testing.T, doc string) map[string]any {
	t.Helper()

	root, err := jsonpath.DecodeObject([]byte(doc))
	require.NoError(t, err)

	return root
}

func TestMapFarmersSample(t *testing.T) {
	m, data := loadFarmers(t)

	res, err := m.MapJSON(data)
	require.NoError(t, err)

	assert.Len(t, res.Main, 69)
	require.Len(t, res.Arrays, 3)
	assert.Equal(t, "farmer-001", res.PrimaryKey)

	var grids []string
	for _, a := range res.Arrays {
		grids = append(grids, a.Destination)
	}

	assert.Equal(t, []string{"householdMembers", "cropDetails", "livestockDetails"}, grids)
	assert.Equal(t, 13, res.RowCount())

	want := Record{
		"national_id":        "0301199500123",
		"passport_number":    "RA1234567",
		"first_name":         "Thabo",
		"middle_name":        "Lebohang",
		"last_name":          "Mokoena",
		"gender":             "M",
		"date_of_birth":      "1985-03-15",
		"marital_status":     "married",
		"preferred_language": "st",
		"mobile_number":      "+26658123456",
		"email_address":      "thabo.mokoena@example.org",
		"residency_type":     "permanent",
		"parent_id":          "farmer-001",
	}
	if diff := cmp.Diff(want, res.Buckets["farmerBasicInfo"]); diff != "" {
		t.Errorf("farmerBasicInfo bucket mismatch (-want +got):\n%s", diff)
	}

	values := map[string]string{
		"gps_latitude":            "-29.3151",
		"distance_to_market":      "12",
		"electricity_access":      "yes",
		"nearest_town":            "Maseru",
		"female_headed_household": "no",
		"disabled_members":        "0",
		"receives_social_grant":   "2",
		"household_savings":       "1",
		"total_land_area":         "5.5",
		"main_crops":              "maize;beans",
		"farm_equipment":          "plough;hoe",
		"uses_fertilizer":         "yes",
		"uses_pesticides":         "no",
		"cooperative_member":      "1",
		"registration_date":       "2025-01-20",
		"declaration_consent":     "agree_declaration;agree_terms;consent_verification;consent_data_use",
		"field13":                 "2025-01-20",
		"data_sharing_consent":    "yes",
	}
	for field, value := range values {
		assert.Equal(t, value, res.Main[field], field)
	}

	members, ok := res.Array("householdMembers")
	require.True(t, ok)
	require.Len(t, members.Rows, 5)

	if diff := cmp.Diff(Record{
		"memberName":        "Mokoena, Thabo",
		"relationship":      "head",
		"sex":               "M",
		"memberDateOfBirth": "1985-03-15",
		"disability":        "no",
	}, members.Rows[0]); diff != "" {
		t.Errorf("first household member mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "1988-07-02", members.Rows[1]["memberDateOfBirth"])
	assert.Equal(t, []string{"no", "no", "no", "no", "yes"}, column(members.Rows, "disability"))

	crops, ok := res.Array("cropDetails")
	require.True(t, ok)
	assert.Equal(t, []string{"2.5", "1", "0.5", "0.5"}, column(crops.Rows, "areaPlanted"))

	livestock, ok := res.Array("livestockDetails")
	require.True(t, ok)
	assert.Equal(t, []string{"cattle", "sheep", "goats", "chickens"}, column(livestock.Rows, "livestockType"))
}

func column(rows []Record, field string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r[field]
	}

	return out
}

func TestMapBuckets(t *testing.T) {
	m, data := loadFarmers(t)

	res, err := m.MapJSON(data)
	require.NoError(t, err)

	sizes := make(map[string]int)
	for dest, bucket := range res.Buckets {
		sizes[dest] = len(bucket)
		assert.Equal(t, res.PrimaryKey, bucket[DefaultParentField], dest)
	}

	assert.Equal(t, map[string]int{
		"farmerBasicInfo":   13,
		"farmerLocation":    20,
		"farmerHousehold":   13,
		"farmerAgriculture": 19,
		"farmerDeclaration": 9,
	}, sizes)

	assert.NotContains(t, res.Main, DefaultParentField)

	assert.Equal(t, "farmerRegistrationForm", res.ParentFormID)
	assert.Equal(t, Record{
		"id":               "farmer-001",
		"basic_data":       "farmer-001",
		"location_data":    "farmer-001",
		"household_data":   "farmer-001",
		"agriculture_data": "farmer-001",
		"declaration_data": "farmer-001",
	}, res.Parent)
}

func TestMapSingleDestination(t *testing.T) {
	spec := parseSpec(t, `
service:
  id: test
formMappings:
  basic:
    fields:
      - joget: first_name
        govstack: name.given[0]
`)

	res, err := New(spec).Map(decode(t, `{"id": "p-1", "name": {"given": ["Thabo"]}}`))
	require.NoError(t, err)

	assert.Equal(t, Record{"first_name": "Thabo"}, res.Main)
	assert.Nil(t, res.Buckets)
	assert.Nil(t, res.Parent)
	assert.Empty(t, res.ParentFormID)
}

const gatedSpec = `
service:
  id: test
formMappings:
  livestock:
    type: grid
    govstack: livestock
    jogetGrid: livestockDetails
    controlField: hasLivestock
    fields:
      - joget: animal
        govstack: type
`

func TestMapGate(t *testing.T) {
	tests := []struct {
		name    string
		control any
		rows    bool
	}{
		{name: "yes", control: "yes", rows: true},
		{name: "upper case", control: "YES", rows: true},
		{name: "true", control: true, rows: true},
		{name: "string one", control: "1", rows: true},
		{name: "number one", control: json.Number("1"), rows: true},
		{name: "no", control: "no"},
		{name: "false", control: false},
		{name: "two", control: "2"},
		{name: "null", control: nil},
		{name: "other text", control: "sometimes"},
	}

	m := New(parseSpec(t, gatedSpec))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := map[string]any{
				"hasLivestock": tt.control,
				"livestock":    []any{map[string]any{"type": "cattle"}},
			}

			res, err := m.Map(doc)
			require.NoError(t, err)

			_, ok := res.Array("livestockDetails")
			assert.Equal(t, tt.rows, ok)
		})
	}

	t.Run("absent", func(t *testing.T) {
		res, err := m.Map(map[string]any{"livestock": []any{map[string]any{"type": "cattle"}}})
		require.NoError(t, err)
		assert.Empty(t, res.Arrays)
	})
}

func TestMapGateCustomValue(t *testing.T) {
	spec := parseSpec(t, `
service:
  id: test
formMappings:
  plots:
    type: array
    govstack: plots
    jogetGrid: plotDetails
    controlField: farmingType
    controlValue: Commercial
    fields:
      - joget: plotName
        govstack: name
`)
	m := New(spec)

	res, err := m.Map(decode(t, `{"farmingType": "commercial", "plots": [{"name": "north"}]}`))
	require.NoError(t, err)
	assert.Len(t, res.Arrays, 1)

	res, err = m.Map(decode(t, `{"farmingType": "subsistence", "plots": [{"name": "north"}]}`))
	require.NoError(t, err)
	assert.Empty(t, res.Arrays)
}

func TestMapArraySkips(t *testing.T) {
	spec := parseSpec(t, `
service:
  id: test
formMappings:
  members:
    type: array
    govstack: members
    jogetGrid: memberGrid
    fields:
      - joget: memberName
        govstack: name
      - joget: age
        govstack: age
  incomplete:
    type: array
    govstack: members
    fields:
      - joget: memberName
        govstack: name
`)
	m := New(spec)

	tests := []struct {
		name string
		doc  string
		rows []Record
	}{
		{name: "missing source", doc: `{}`},
		{name: "not a collection", doc: `{"members": {"name": "a"}}`},
		{name: "scalar source", doc: `{"members": "a,b"}`},
		{name: "all rows empty", doc: `{"members": [{}, {"other": 1}, {"name": ""}]}`},
		{
			name: "empty rows dropped",
			doc:  `{"members": [{"name": "Thabo", "age": 40}, {}, {"age": 7}, "text"]}`,
			rows: []Record{{"memberName": "Thabo", "age": "40"}, {"age": "7"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := m.Map(decode(t, tt.doc))
			require.NoError(t, err)

			if tt.rows == nil {
				assert.Empty(t, res.Arrays)
				return
			}

			require.Len(t, res.Arrays, 1)
			assert.Equal(t, "members", res.Arrays[0].Section)
			assert.Equal(t, tt.rows, res.Arrays[0].Rows)
		})
	}
}

func TestMapFieldResolution(t *testing.T) {
	spec := parseSpec(t, `
service:
  id: test
formMappings:
  basic:
    fields:
      - joget: national_id
        govstack: identifiers.value
        govstackType: identifiers.type
        typeValue: NationalId
      - joget: birth_certificate
        govstack: identifiers.value
        govstackType: identifiers.type
        typeValue: BirthCertificate
      - joget: phone
        govstack: telecom[0].value
        jsonPath: phone
      - joget: org_code
        govstack: organization.code
        govstackType: organization.kind
        typeValue: cooperative
      - joget: no_source
      - govstack: name.family
      - joget: status
        govstack: status
        valueMapping:
          "true": active
          "false": inactive
      - joget: bad_path
        govstack: items[x]
`)

	doc := decode(t, `{
		"identifiers": [
			{"type": "Passport", "value": "RA1"},
			{"type": "NationalId", "value": "0301"}
		],
		"phone": "+266 5812",
		"organization": {"kind": "association", "code": "A-1"},
		"name": {"family": "Mokoena"},
		"status": true,
		"items": ["a"]
	}`)

	res, err := New(spec).Map(doc)
	require.NoError(t, err)

	assert.Equal(t, Record{
		"national_id": "0301",
		"phone":       "+266 5812",
		"status":      "active",
	}, res.Main)
}

func TestMapNormalization(t *testing.T) {
	spec := parseSpec(t, `
service:
  id: test
formMappings:
  basic:
    fields:
      - joget: district
        govstack: district
        transform: numeric
      - joget: has_livestock
        govstack: hasLivestock
      - joget: receives_grant
        govstack: receivesGrant
      - joget: consent
        govstack: consent
      - joget: comment
        govstack: comment
metadata:
  masterDataFields: [district]
  fieldNormalization:
    yesNo: [has_livestock]
    oneTwo: [receives_grant]
    consent:
      positive: "Y"
      negative: "N"
      fields: [consent]
      customMappings:
        maybe: "N"
`)

	res, err := New(spec).Map(decode(t, `{
		"district": "MSU-01",
		"hasLivestock": 1,
		"receivesGrant": "yes",
		"consent": "maybe",
		"comment": "true"
	}`))
	require.NoError(t, err)

	assert.Equal(t, Record{
		"district":       "MSU-01",
		"has_livestock":  "yes",
		"receives_grant": "1",
		"consent":        "N",
		"comment":        "true",
	}, res.Main)
}

func TestPrimaryKey(t *testing.T) {
	spec := parseSpec(t, `
service:
  id: test
  serviceConfig:
    destinationMap:
      basic: basicForm
formMappings:
  basic:
    fields:
      - joget: first_name
        govstack: name
`)

	m := New(spec, WithIDGenerator(func() string { return "generated-1" }))

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "adopted", doc: `{"id": "farmer-7", "name": "Thabo"}`, want: "farmer-7"},
		{name: "numeric id", doc: `{"id": 42, "name": "Thabo"}`, want: "42"},
		{name: "numeric id beyond int64", doc: `{"id": 12345678901234567890, "name": "Thabo"}`, want: "12345678901234567890"},
		{name: "decimal id", doc: `{"id": 12345678901234567891.5, "name": "Thabo"}`, want: "12345678901234567891.5"},
		{name: "blank id", doc: `{"id": "  ", "name": "Thabo"}`, want: "generated-1"},
		{name: "missing id", doc: `{"name": "Thabo"}`, want: "generated-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := m.Map(decode(t, tt.doc))
			require.NoError(t, err)

			assert.Equal(t, tt.want, res.PrimaryKey)
			assert.Equal(t, tt.want, res.Buckets["basicForm"][DefaultParentField])
		})
	}

	t.Run("custom path and parent field", func(t *testing.T) {
		m := New(spec, WithIDPath("meta.registrationId"), WithParentField("farmer_id"))

		res, err := m.Map(decode(t, `{"meta": {"registrationId": "r-9"}, "name": "Thabo"}`))
		require.NoError(t, err)

		assert.Equal(t, Record{"first_name": "Thabo", "farmer_id": "r-9"}, res.Buckets["basicForm"])
	})

	t.Run("generated by default", func(t *testing.T) {
		res, err := New(spec).Map(decode(t, `{"name": "Thabo"}`))
		require.NoError(t, err)
		assert.Len(t, res.PrimaryKey, 36)
	})
}

func TestMapInvalidDocument(t *testing.T) {
	m := New(parseSpec(t, gatedSpec))

	_, err := m.Map([]any{"a"})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequest(err))
	assert.ErrorIs(t, err, errors.ErrNotJSONObject)

	_, err = m.MapJSON([]byte(`not json`))
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequest(err))
}

func TestMapDoesNotMutate(t *testing.T) {
	m, data := loadFarmers(t)

	doc, err := jsonpath.DecodeObject(data)
	require.NoError(t, err)

	before, err := jsonpath.Marshal(doc)
	require.NoError(t, err)

	_, err = m.Map(doc)
	require.NoError(t, err)

	after, err := jsonpath.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}
