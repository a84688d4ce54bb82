// Package diagnostic collects findings of configuration checks.
//
// A check never stops at the first problem: every finding is recorded with a
// severity, so a single run reports every inert mapping, unknown transform and
// unresolvable grid destination at once. Errors make the configuration unusable;
// warnings describe entries that load but produce no output.
package diagnostic
