// Package jsonpath resolves simple paths against decoded JSON documents.
//
// A path is a dot separated list of member names. A member may carry a single fixed
// array index:
//
//	name.given[0]
//	extension.agriculturalData.crops
//	identifiers[1].value
//
// Lookups never fail on absence: a missing member, an index on a non-array, a
// non-numeric index or an index out of range all resolve to "not found".
//
// Documents are decoded with sonic using json.Number for numbers, so numeric
// projections keep the canonical text of the source value.
package jsonpath
