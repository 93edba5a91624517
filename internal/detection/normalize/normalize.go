// Package normalize canonicalizes free-text company names so postings from
// the same employer group under one key.
package normalize

import (
	"strings"
	"unicode"
)

const punctuation = `.,;:!?'"()[]{}`

var corporateSuffixes = map[string]struct{}{
	"inc":  {},
	"corp": {},
	"llc":  {},
	"ltd":  {},
}

// CompanyName lower-cases raw, deletes punctuation, collapses whitespace and
// drops trailing corporate suffixes. Tokens with no letter or digit, such as a
// lone "-" or "&", are dropped. A name made only of a suffix is kept.
func CompanyName(raw string) string {
	lowered := strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, strings.ToLower(raw))

	tokens := strings.Fields(lowered)
	kept := tokens[:0]
	for _, tok := range tokens {
		if strings.IndexFunc(tok, isWordRune) >= 0 {
			kept = append(kept, tok)
		}
	}
	tokens = kept
	for len(tokens) > 1 {
		if _, ok := corporateSuffixes[tokens[len(tokens)-1]]; !ok {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}

	return strings.Join(tokens, " ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Equal reports whether two raw names normalize to the same key.
func Equal(a, b string) bool {
	return CompanyName(a) == CompanyName(b)
}
