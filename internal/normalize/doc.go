// Package normalize canonicalizes raw company names into comparable keys.
//
// Pipeline (applied until the result stops changing):
//   - Fold diacritics ("Nestlé" -> "Nestle")
//   - Strip a trailing "New" qualifier
//   - Remove legal-entity, share-class and instrument boilerplate
//   - Strip everything outside A-Z, a-z, 0-9 and whitespace
//   - Collapse whitespace and uppercase
//
// Boilerplate is removed before punctuation so "S.A." and "Co." are still
// recognised as whole words.
package normalize
