// Package validation checks registration documents against a declarative
// rule document and reports every violation it finds.
//
// A DataQualityValidator runs six passes in order and never stops early:
//
//  1. core exchange schema checks (identifier, name, gender, address)
//  2. level-1 mandatory fields per destination form
//  3. numeric ranges
//  4. grid row counts, plus the household member check
//  5. conditional rules
//  6. declaration consent
//
// Rule field names are resolved against the document root first and then
// inside the extension object, so `agriculturalData.hasLivestock` finds
// `extension.agriculturalData.hasLivestock`.
//
// # Conditions
//
// Conditional rules use a small expression language:
//
//	agriculturalData.hasLivestock == 'yes'
//	household.receivesSocialGrant != 'no' && household.socialGrantType == 'old_age'
//
// && and || bind equally and are evaluated left to right. Parentheses are
// rejected when the rule document is loaded.
package validation
