package editor

import (
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Match is a half-open rune range [Start, End) found by a search.
type Match struct {
	Start int
	End   int
}

func (m Match) Len() int { return m.End - m.Start }

// FindAll returns every non-overlapping occurrence of needle in haystack,
// scanning left to right and resuming after the end of each match. Results
// are in ascending Start order and use rune offsets into haystack.
//
// When caseSensitive is false both sides are compared after Unicode case
// folding. Offsets still refer to the unfolded haystack; a folded match that
// would begin or end inside the expansion of a single rune (ß folds to ss) is
// skipped. The scan is linear in len(haystack)+len(needle).
func FindAll(haystack, needle string, caseSensitive bool) []Match {
	if needle == "" || haystack == "" {
		return nil
	}
	if caseSensitive {
		return scan([]rune(haystack), nil, []rune(needle))
	}
	f := newFolder()
	hay, origin := f.foldWithOrigin(haystack)
	pat, _ := f.foldWithOrigin(needle)
	return scan(hay, origin, pat)
}

// scan runs a prefix-function search of pat over hay. origin maps each rune of
// hay to the offset of the source rune it came from; nil means identity.
func scan(hay []rune, origin []int, pat []rune) []Match {
	if len(pat) == 0 || len(pat) > len(hay) {
		return nil
	}
	pi := prefixFunction(pat)
	var out []Match
	k := 0
	for i := 0; i < len(hay); i++ {
		for k > 0 && hay[i] != pat[k] {
			k = pi[k-1]
		}
		if hay[i] == pat[k] {
			k++
		}
		if k < len(pat) {
			continue
		}
		start, end := i+1-len(pat), i+1
		if origin == nil {
			out = append(out, Match{Start: start, End: end})
			k = 0
			continue
		}
		if isFoldBoundary(origin, start) && isFoldBoundary(origin, end) {
			out = append(out, Match{Start: origin[start], End: origin[end-1] + 1})
			k = 0
			continue
		}
		k = pi[k-1]
	}
	return out
}

func prefixFunction(pat []rune) []int {
	pi := make([]int, len(pat))
	k := 0
	for i := 1; i < len(pat); i++ {
		for k > 0 && pat[i] != pat[k] {
			k = pi[k-1]
		}
		if pat[i] == pat[k] {
			k++
		}
		pi[i] = k
	}
	return pi
}

func isFoldBoundary(origin []int, i int) bool {
	return i == 0 || i == len(origin) || origin[i] != origin[i-1]
}

type folder struct {
	caser cases.Caser
}

func newFolder() *folder {
	return &folder{caser: cases.Fold()}
}

// foldWithOrigin case-folds s one rune at a time, returning the folded runes
// and, for each of them, the rune offset in s it was produced from.
func (f *folder) foldWithOrigin(s string) ([]rune, []int) {
	n := utf8.RuneCountInString(s)
	out := make([]rune, 0, n)
	origin := make([]int, 0, n)
	i := 0
	for _, r := range s {
		if r < utf8.RuneSelf {
			if 'A' <= r && r <= 'Z' {
				r += 'a' - 'A'
			}
			out = append(out, r)
			origin = append(origin, i)
		} else {
			for _, fr := range f.caser.String(string(r)) {
				out = append(out, fr)
				origin = append(origin, i)
			}
		}
		i++
	}
	return out, origin
}
