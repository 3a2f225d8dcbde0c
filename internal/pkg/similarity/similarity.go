// Package similarity scores how alike two short strings are.
package similarity

import "unicode"

// Dice returns the Sørensen–Dice coefficient of the character bigrams of a and b,
// in [0, 1]. Whitespace is ignored. Identical inputs score 1, including two empty
// strings; an input shorter than two characters scores 0 against anything else.
// The comparison is case-sensitive.
func Dice(a, b string) float64 {
	ra := stripSpace(a)
	rb := stripSpace(b)

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

	intersection := 0
	for i := 0; i < len(rb)-1; i++ {
		bg := [2]rune{rb[i], rb[i+1]}
		if counts[bg] > 0 {
			counts[bg]--
			intersection++
		}
	}

	return 2 * float64(intersection) / float64(len(ra)+len(rb)-2)
}

func stripSpace(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			out = append(out, r)
		}
	}
	return out
}
