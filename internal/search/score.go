package search

import (
	"strings"
	"unicode"
)

const (
	upperBonus       = 20
	separatorBonus   = 20
	consecutiveBonus = 5
	skipPenalty      = 1
	leadingPenalty   = 3
	maxLeadingCost   = 9
	// leadingWindow is how many pattern characters count as "leading".
	leadingWindow = 3
)

// Score rates how well pattern matches s. ok is false when pattern is not a
// case-insensitive subsequence of s.
func Score(pattern, s string) (score int, ok bool) {
	p, str := []rune(pattern), []rune(s)
	prev := false
	leading := 0
	pi, si := 0, 0
	for pi < len(p) && si < len(str) {
		if unicode.ToLower(p[pi]) == unicode.ToLower(str[si]) {
			if unicode.IsUpper(p[pi]) {
				score += upperBonus
			}
			if p[pi] == '.' || p[pi] == '/' {
				score += separatorBonus
			}
			if prev {
				score += consecutiveBonus
			}
			prev = true
			pi++
		} else {
			score -= skipPenalty
			if pi < leadingWindow && leading < maxLeadingCost {
				leading += leadingPenalty
			}
			prev = false
		}
		si++
	}
	if pi != len(p) {
		return 0, false
	}
	score -= (len(str) - si) * skipPenalty
	score -= leading
	return score, true
}

// Highlight wraps every character of s that Score matched against pattern
// with mark.
func Highlight(pattern, s string, mark func(string) string) string {
	p := []rune(pattern)
	var b strings.Builder
	pi := 0
	for _, r := range s {
		if pi < len(p) && unicode.ToLower(p[pi]) == unicode.ToLower(r) {
			b.WriteString(mark(string(r)))
			pi++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
