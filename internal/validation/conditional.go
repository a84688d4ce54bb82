package validation

import (
	"fmt"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/jsonpath"
)

// Evaluate checks the rule against doc. It returns nothing when the
// condition does not hold.
func (r ConditionalRule) Evaluate(doc Document) []*Error {
	if r.Condition == nil || !r.Condition.Eval(doc) {
		return nil
	}

	var out []*Error

	for _, field := range r.RequiredFields {
		if v, ok := doc.Field(field); ok && !jsonpath.IsEmpty(v) {
			continue
		}

		out = append(out, &Error{
			Field:   field,
			Kind:    KindConditional,
			Message: fmt.Sprintf("%s is required when %s", field, r.Condition),
		})
	}

	minEntries := r.MinEntries
	if minEntries <= 0 {
		minEntries = 1
	}

	for _, grid := range r.RequiredGrids {
		n := len(doc.Rows(grid))
		if n >= minEntries {
			continue
		}

		out = append(out, &Error{
			Field: grid,
			Kind:  KindConditional,
			Message: fmt.Sprintf("%s requires at least %d entry(ies) when %s, but has %d",
				grid, minEntries, r.Condition, n),
		})
	}

	return out
}
