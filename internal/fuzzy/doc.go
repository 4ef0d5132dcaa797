// Package fuzzy implements the string-similarity scores used to match free
// text against normalized company names.
//
// All scores are on a 0-100 scale:
//   - Ratio: normalized InDel similarity (2*LCS / total length)
//   - PartialRatio: best Ratio of the shorter string against windows of the longer
//   - TokenSortRatio: Ratio of whitespace tokens after sorting
//   - PartialTokenSetRatio: 100 on any shared token, else PartialRatio of the differences
//   - FuzzyScore: fzf's FuzzyMatchV2 score relative to a perfect match
//
// Composite blends them with configurable weights; Matcher finds the best
// scoring choice across a large name universe in parallel.
package fuzzy
