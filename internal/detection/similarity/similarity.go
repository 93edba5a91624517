// Package similarity scores how alike two job descriptions are.
//
// Compare is the Sørensen–Dice coefficient over character bigrams of the
// case-folded, whitespace-collapsed texts. It is symmetric and returns exactly
// 1 for texts that are equal after folding. Thresholds belong to the caller.
package similarity

import (
	"sort"
	"strings"
	"unicode"
)

// Compare returns a similarity score in [0,1].
func Compare(a, b string) float64 {
	ra, rb := fold(a), fold(b)
	if string(ra) == string(rb) {
		return 1
	}
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	counts := make(map[[2]rune]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		counts[[2]rune{ra[i], ra[i+1]}]++
	}

	shared := 0
	for i := 0; i < len(rb)-1; i++ {
		bg := [2]rune{rb[i], rb[i+1]}
		if counts[bg] > 0 {
			counts[bg]--
			shared++
		}
	}

	total := (len(ra) - 1) + (len(rb) - 1)
	return 2 * float64(shared) / float64(total)
}

// Percent converts a score to an integer percentage, rounding half up.
func Percent(score float64) int {
	return int(score*100 + 0.5)
}

func fold(s string) []rune {
	return []rune(strings.Join(strings.Fields(strings.ToLower(s)), " "))
}

// stopWords filters common English words that add noise to keyword overlap.
var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "they": true,
	"about": true, "which": true, "what": true, "who": true, "how": true,
	"can": true, "not": true, "but": true, "all": true, "also": true,
	"more": true, "than": true, "into": true, "has": true, "its": true,
	"was": true, "were": true, "been": true, "each": true,
}

// Tokens returns the sorted keyword set of text: lower-cased words of at
// least three runes, stop words removed. '+', '#' and '.' count as word
// characters so "c++" and "node.js" survive.
func Tokens(text string) []string {
	set := tokenSet(text)
	out := make([]string, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Jaccard returns the keyword-set overlap of a and b in [0,1]. Two texts
// without keywords score 0 unless they fold to the same string.
func Jaccard(a, b string) float64 {
	if string(fold(a)) == string(fold(b)) {
		return 1
	}
	ka, kb := tokenSet(a), tokenSet(b)
	inter := 0
	for w := range ka {
		if kb[w] {
			inter++
		}
	}
	union := len(ka) + len(kb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenSet(text string) map[string]bool {
	kw := make(map[string]bool)
	var word strings.Builder
	flush := func() {
		w := strings.TrimRight(word.String(), ".")
		word.Reset()
		if len([]rune(w)) >= 3 && !stopWords[w] {
			kw[w] = true
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return kw
}
