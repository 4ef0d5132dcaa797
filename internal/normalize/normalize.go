package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Name is a normalized company name: uppercase letters, digits and single spaces.
type Name string

// String returns the name as a plain string.
func (n Name) String() string {
	return string(n)
}

// boilerplate is the vocabulary of legal-entity, share-class and instrument
// phrases removed from company names. Matched case-insensitively as whole words.
var boilerplate = []string{
	// Share classes and instrument types
	`american depositary shares?`,
	`american depository shares?`,
	`american depositary receipts?`,
	`depositary shares?`,
	`depository shares?`,
	`depositary receipts?`,
	`ordinary shares?`,
	`common shares?`,
	`common stock`,
	`capital stock`,
	`preferred shares?`,
	`preferred stock`,
	`class [a-z]`,
	`series [a-z0-9]+`,
	`units?`,
	`warrants?`,
	`rights?`,
	`exchange traded funds?`,
	`etf`,
	`etn`,
	`ads`,
	`adr`,

	// Legal entities
	`corporation`,
	`corp\.?`,
	`incorporated`,
	`inc\.?`,
	`limited`,
	`ltd\.?`,
	`l\.?l\.?c\.?`,
	`l\.?p\.?`,
	`p\.?l\.?c\.?`,
	`holdings?`,
	`group`,
	`company`,
}

// shortLegal are legal-form abbreviations short enough to collide with the
// start of a hyphenated name ("Co-Diagnostics"). A hyphen does not count as a
// boundary for them.
var shortLegal = []string{
	`co\.?`,
	`s\.?a\.?`,
	`n\.?v\.?`,
	`a\.?g\.?`,
	`s\.?e\.?`,
}

var (
	// boilerplateRe matches one boilerplate phrase with its surrounding boundaries.
	// Boundaries are captured so they can be put back; Go regexp has no lookaround.
	boilerplateRe = compileBoilerplate(boilerplate, `[^\p{L}\p{N}]`)
	shortLegalRe  = compileBoilerplate(shortLegal, `[^\p{L}\p{N}-]`)

	trailingNewRe = regexp.MustCompile(`(?i)^(.*[^\s])\s+new[^\p{L}\p{N}]*$`)
	disallowedRe  = regexp.MustCompile(`[^A-Za-z0-9\s]+`)
)

func compileBoilerplate(phrases []string, boundary string) *regexp.Regexp {
	sorted := append([]string(nil), phrases...)
	// Longer phrases first so "corporation" wins over "corp" at the same offset.
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})
	return regexp.MustCompile(`(?i)(^|` + boundary + `)(?:` + strings.Join(sorted, "|") + `)(` + boundary + `|$)`)
}

// Normalize canonicalizes a raw company name. It never fails; input that is
// entirely boilerplate or punctuation normalizes to "".
//
// Normalize is idempotent: Normalize(string(Normalize(x))) == Normalize(x).
func Normalize(raw string) Name {
	s := foldDiacritics(raw)

	// Every pass only removes text, so this converges well before the bound.
	for i := 0; i <= len(s); i++ {
		next := pass(s)
		if next == s {
			break
		}
		s = next
	}
	return Name(s)
}

// pass runs the pipeline once.
func pass(s string) string {
	s = stripTrailingNew(s)
	s = stripBoilerplate(s)
	s = disallowedRe.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToUpper(s)
}

// stripTrailingNew removes a trailing "New" qualifier (e.g., "Foo Corp New").
// A name that is only "New" is left alone.
func stripTrailingNew(s string) string {
	return trailingNewRe.ReplaceAllString(s, "$1")
}

// stripBoilerplate removes vocabulary phrases, repeating until none remain.
// Repetition is needed because adjacent phrases share a boundary character.
func stripBoilerplate(s string) string {
	for {
		next := boilerplateRe.ReplaceAllString(s, "${1} ${2}")
		next = shortLegalRe.ReplaceAllString(next, "${1} ${2}")
		if next == s {
			return s
		}
		s = next
	}
}

// foldDiacritics maps accented letters to their base letters.
func foldDiacritics(s string) string {
	// A transform chain keeps internal buffers, so it is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
