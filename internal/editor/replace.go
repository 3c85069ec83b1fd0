package editor

import "strings"

// Replacement describes the edits made by ReplaceAll. Ops are already applied
// to the buffer, in order, and belong to a single undo step.
type Replacement struct {
	Ops   []Operation
	Count int
}

// ReplaceAll replaces every occurrence of needle in b with replacement.
//
// The two modes produce different operations:
//
//   - case-insensitive: the matches are substituted into a copy of the
//     original text and the whole buffer is swapped in as one Operation whose
//     OldText and NewText are the full before/after contents.
//   - case-sensitive: one Operation per match, in left-to-right order. Each
//     is expressed against the text left by the ones before it, so later
//     offsets are shifted by the length change so far. The whole run is
//     applied to the buffer in a single rebuild.
//
// An empty needle or no matches returns the zero Replacement.
func ReplaceAll(b *Buffer, needle, replacement string, caseSensitive bool) (Replacement, error) {
	if needle == "" {
		return Replacement{}, nil
	}
	original := b.Snapshot()
	matches := FindAll(original, needle, caseSensitive)
	if len(matches) == 0 {
		return Replacement{}, nil
	}
	if !caseSensitive {
		op, err := b.ReplaceRange(0, b.Len(), substitute(original, matches, replacement))
		if err != nil {
			return Replacement{}, err
		}
		return Replacement{Ops: []Operation{op}, Count: len(matches)}, nil
	}

	runes := []rune(original)
	ops := make([]Operation, 0, len(matches))
	shift := 0
	for _, m := range matches {
		op := Operation{
			Start:   m.Start + shift,
			End:     m.End + shift,
			OldText: string(runes[m.Start:m.End]),
			NewText: replacement,
		}
		ops = append(ops, op)
		shift += op.Delta()
	}
	if err := b.ApplyAll(ops); err != nil {
		return Replacement{}, err
	}
	return Replacement{Ops: ops, Count: len(matches)}, nil
}

// FindAndHighlight returns the matches of needle in b without changing it.
func FindAndHighlight(b *Buffer, needle string, caseSensitive bool) []Match {
	return FindAll(b.Snapshot(), needle, caseSensitive)
}

// substitute builds text with every match replaced by replacement. matches
// must be ascending and non-overlapping rune ranges of text.
func substitute(text string, matches []Match, replacement string) string {
	runes := []rune(text)
	var sb strings.Builder
	sb.Grow(len(text))
	last := 0
	for _, m := range matches {
		sb.WriteString(string(runes[last:m.Start]))
		sb.WriteString(replacement)
		last = m.End
	}
	sb.WriteString(string(runes[last:]))
	return sb.String()
}
