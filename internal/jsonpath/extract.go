package jsonpath

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

var api = sonic.Config{UseNumber: true, SortMapKeys: true}.Froze()

// Lookup parses path and resolves it against root. A path that does not parse
// resolves to "not found".
func Lookup(root any, path string) (any, bool) {
	p, err := Parse(path)
	if err != nil {
		return nil, false
	}

	return p.Lookup(root)
}

// Extract resolves path against root and returns the string projection of the
// located node. JSON null counts as not found.
func Extract(root any, path string) (string, bool) {
	node, ok := Lookup(root, path)
	if !ok || node == nil {
		return "", false
	}

	return Project(node), true
}

// Project renders a JSON node as a string: text as itself, numbers in canonical
// form, booleans as "true"/"false", arrays as comma joined element projections
// and objects as their serialized JSON.
func Project(node any) string {
	switch v := node.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return canonicalNumber(v.String())
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []any:
		parts := make([]string, len(v))
		for i, elem := range v {
			parts[i] = Project(elem)
		}

		return strings.Join(parts, ",")
	default:
		data, err := api.Marshal(v)
		if err != nil {
			return ""
		}

		return string(data)
	}
}

// maxExponent bounds the exponents expanded into plain decimal text. Larger
// ones keep their source form.
const maxExponent = 1024

// canonicalNumber renders a JSON number as plain decimal text without losing
// digits: "2.50" becomes "2.5", "1e3" becomes "1000".
func canonicalNumber(s string) string {
	if isPlainInteger(s) {
		return s
	}

	if i := strings.IndexAny(s, "eE"); i >= 0 {
		exp, err := strconv.Atoi(s[i+1:])
		if err != nil || exp > maxExponent || exp < -maxExponent {
			return s
		}
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return s
	}

	if r.IsInt() {
		return r.Num().String()
	}

	return r.FloatString(decimalPlaces(r.Denom()))
}

func isPlainInteger(s string) bool {
	digits := strings.TrimPrefix(s, "-")
	if digits == "" {
		return false
	}

	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}

// decimalPlaces returns the number of fraction digits needed to print a
// fraction with denominator d exactly. d is a product of 2s and 5s.
func decimalPlaces(d *big.Int) int {
	twos := int(d.TrailingZeroBits())

	five := big.NewInt(5)
	rest := new(big.Int).Rsh(d, uint(twos))
	mod := new(big.Int)
	fives := 0
	for rest.Cmp(big.NewInt(1)) > 0 {
		q, m := new(big.Int).QuoRem(rest, five, mod)
		if m.Sign() != 0 {
			break
		}
		rest = q
		fives++
	}

	return max(twos, fives)
}

// Collection returns node as a slice when it is a JSON array.
func Collection(node any) ([]any, bool) {
	arr, ok := node.([]any)
	return arr, ok
}

// Object returns node as a map when it is a JSON object.
func Object(node any) (map[string]any, bool) {
	obj, ok := node.(map[string]any)
	return obj, ok
}

// IsEmpty returns true for nodes that carry no value: null, blank text,
// empty arrays and empty objects.
func IsEmpty(node any) bool {
	switch v := node.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}
