package validation

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/errors"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/jsonpath"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/metrics"
)

// DataQualityValidator checks documents against a rule document.
// It is safe for concurrent use.
type DataQualityValidator struct {
	rules   *Rules
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a DataQualityValidator.
type Option func(*DataQualityValidator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(v *DataQualityValidator) { v.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *DataQualityValidator) { v.metrics = m }
}

// WithClock sets the time source of the timestamp metadata.
func WithClock(now func() time.Time) Option {
	return func(v *DataQualityValidator) { v.now = now }
}

// NewValidator creates a validator. A nil rules value only runs the fixed checks.
func NewValidator(rules *Rules, opts ...Option) *DataQualityValidator {
	if rules == nil {
		rules = &Rules{}
		rules.applyDefaults()
	}

	v := &DataQualityValidator{
		rules:  rules,
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(v)
	}

	v.logger = v.logger.With("component", component)

	return v
}

// Rules returns the rule document.
func (v *DataQualityValidator) Rules() *Rules {
	return v.rules
}

// ValidateJSON decodes data and validates it.
func (v *DataQualityValidator) ValidateJSON(data []byte) (*Result, error) {
	doc, err := jsonpath.DecodeObject(data)
	if err != nil {
		return nil, errors.InvalidRequest(err, component, "ValidateJSON", "invalid document: %v", err)
	}

	return v.Validate(doc), nil
}

// Validate runs every check and collects all violations. doc is not modified.
func (v *DataQualityValidator) Validate(doc Document) (result *Result) {
	result = NewResult()

	if len(doc) == 0 {
		result.Add(&Error{Field: "data", Message: "No data provided for validation", Kind: KindRequired})
		v.record(result)

		return result
	}

	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("validation panicked", "panic", r)
			result.Add(&Error{Field: "system", Message: fmt.Sprintf("Validation error: %v", r), Kind: KindSystem})
			v.record(result)
		}
	}()

	v.checkCore(doc, result)
	v.checkCritical(doc, result)
	v.checkNumeric(doc, result)
	v.checkGrids(doc, result)
	v.checkConditionals(doc, result)
	v.checkConsent(doc, result)

	result.Metadata[MetaTotalFieldsValidated] = len(v.rules.CriticalFields()) + len(v.rules.Numeric) + len(v.rules.Grids)
	result.Metadata[MetaTimestamp] = v.now().UnixMilli()

	v.record(result)

	return result
}

func (v *DataQualityValidator) record(result *Result) {
	v.metrics.RecordValidation(result.Valid(), result.CountByKind())
	v.logger.Debug("document validated", "valid", result.Valid(), "errors", result.ErrorCount())
}

func required(field, message string) *Error {
	return &Error{Field: field, Message: message, Kind: KindRequired}
}

func (v *DataQualityValidator) checkCore(doc Document, result *Result) {
	idType := v.rules.Core.IdentifierType()

	if ids, ok := jsonpath.Collection(doc["identifiers"]); !ok || len(ids) == 0 {
		result.Add(required("identifiers", fmt.Sprintf("At least one identifier (%s) is required", idType)))
	} else if !hasIdentifier(ids, idType) {
		result.Add(required("identifiers", idType+" identifier is required"))
	}

	if name, ok := jsonpath.Object(doc["name"]); !ok {
		result.Add(required("name", "Name object is required"))
	} else if jsonpath.IsEmpty(name["given"]) || jsonpath.IsEmpty(name["family"]) {
		result.Add(required("name", "Both given and family names are required"))
	}

	if jsonpath.IsEmpty(doc["gender"]) {
		result.Add(required("gender", "Gender is required"))
	}

	addresses, ok := jsonpath.Collection(doc["address"])
	if !ok || len(addresses) == 0 {
		result.Add(required("address", "At least one address is required"))
		return
	}

	first, _ := jsonpath.Object(addresses[0])
	if jsonpath.IsEmpty(first["district"]) || jsonpath.IsEmpty(first["city"]) {
		result.Add(required("address", "District and city/village are required in address"))
	}
}

func hasIdentifier(ids []any, idType string) bool {
	for _, id := range ids {
		obj, ok := jsonpath.Object(id)
		if !ok {
			continue
		}

		if strings.EqualFold(jsonpath.Project(obj["type"]), idType) && !jsonpath.IsEmpty(obj["value"]) {
			return true
		}
	}

	return false
}

func (v *DataQualityValidator) checkCritical(doc Document, result *Result) {
	for _, f := range v.rules.CriticalFields() {
		value, ok := doc.Field(f.FieldID)
		if !ok || jsonpath.IsEmpty(value) {
			result.Add(&Error{
				FormID:  f.FormID,
				Field:   f.FieldID,
				Message: f.DisplayName() + " is required",
				Kind:    KindRequired,
			})

			continue
		}

		kind := f.Validator
		if kind == "" {
			kind = f.Type
		}

		for _, e := range ValidateField(f.FieldID, value, FieldRules{Type: kind}, f.FormID) {
			result.Add(&e)
		}
	}
}

func (v *DataQualityValidator) checkNumeric(doc Document, result *Result) {
	for _, rule := range v.rules.Numeric {
		value, ok := doc.Field(rule.Field)
		if !ok {
			continue
		}

		result.Add(ValidateNumeric(rule.Field, value, rule.Min, rule.Max, ""))
	}
}

func (v *DataQualityValidator) checkGrids(doc Document, result *Result) {
	for _, rule := range v.rules.Grids {
		result.Add(ValidateGrid(rule.Grid, doc.Rows(rule.Grid), rule.MinRows, rule.MaxRows, ""))
	}

	h := v.rules.Household
	if len(doc.Rows(h.Source)) == 0 {
		result.Add(&Error{
			FormID:  h.FormID,
			Field:   h.Grid,
			Message: "At least one household member is required",
			Kind:    KindGridMin,
		})
	}
}

func (v *DataQualityValidator) checkConditionals(doc Document, result *Result) {
	for _, rule := range v.rules.Conditionals {
		for _, e := range rule.Evaluate(doc) {
			if f, ok := v.rules.ConditionalField(e.Field); ok {
				e.FormID = f.FormID
			}

			result.Add(e)
		}
	}
}

func (v *DataQualityValidator) checkConsent(doc Document, result *Result) {
	c := v.rules.Consent

	consent, _ := doc.Field(c.Field)
	result.Add(ValidateCheckbox(c.Field, consent, c.RequiredValues, c.FormID))

	if name, ok := doc.Field(c.FullNameField); !ok || jsonpath.IsEmpty(name) {
		result.Add(&Error{
			FormID:  c.FormID,
			Field:   c.FullNameField,
			Message: "Full name is required for declaration",
			Kind:    KindRequired,
		})
	}

	if date, ok := doc.Field(c.DateField); !ok || jsonpath.IsEmpty(date) {
		result.Add(&Error{
			FormID:  c.FormID,
			Field:   c.DateField,
			Message: "Date is required for declaration",
			Kind:    KindRequired,
		})
	}
}
