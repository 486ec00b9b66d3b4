package record

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// isLineBoundary matches the characters that end a line in JoinLines.
func isLineBoundary(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// SplitLines splits text at line boundaries. "\r\n" counts as one boundary and
// a trailing boundary does not produce an empty final line.
func SplitLines(text string) []string {
	var lines []string
	start := 0
	rs := []rune(text)
	for i := 0; i < len(rs); i++ {
		if !isLineBoundary(rs[i]) {
			continue
		}
		lines = append(lines, string(rs[start:i]))
		if rs[i] == '\r' && i+1 < len(rs) && rs[i+1] == '\n' {
			i++
		}
		start = i + 1
	}
	if start < len(rs) {
		lines = append(lines, string(rs[start:]))
	}
	return lines
}

// JoinLines replaces every line break in text with a single space.
func JoinLines(text string) string {
	return strings.Join(SplitLines(text), " ")
}

// transliterations covers letters with no canonical decomposition.
var transliterations = strings.NewReplacer(
	"ß", "ss", "ẞ", "SS",
	"ø", "o", "Ø", "O",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"đ", "d", "Đ", "D",
	"ð", "d", "Ð", "D",
	"ł", "l", "Ł", "L",
	"þ", "th", "Þ", "TH",
	"ħ", "h", "Ħ", "H",
	"ı", "i",
)

// FoldAccents strips combining marks and transliterates the remaining Latin
// letters, so "Côte" becomes "Cote" and "Øst" becomes "Ost".
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return transliterations.Replace(folded)
}

// Slugify lowercases s, folds accented letters to ASCII and joins the
// remaining alphanumeric runs with hyphens. Quotes separate words like any
// other punctuation.
func Slugify(s string) string {
	folded := strings.ToLower(FoldAccents(s))

	var b strings.Builder
	pendingDash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
