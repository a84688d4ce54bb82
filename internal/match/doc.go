// Package match finds configuration names close to a misspelled one.
//
// Names are compared after normalization, so `yes_no`, `yesNo` and `YesNo`
// are the same name. Closeness is the Levenshtein similarity of the
// normalized names.
package match
