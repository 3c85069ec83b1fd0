package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestReplaceAllCaseInsensitiveIsOneWholeBufferOperation(t *testing.T) {
	b := NewBuffer("Apple apple APPLE")
	res, err := ReplaceAll(b, "apple", "pear", false)
	require.NoError(t, err)

	assert.Equal(t, "pear pear pear", b.Snapshot())
	assert.Equal(t, 3, res.Count)
	require.Len(t, res.Ops, 1)
	assert.Equal(t, Operation{Start: 0, End: 17, OldText: "Apple apple APPLE", NewText: "pear pear pear"}, res.Ops[0])
}

func TestReplaceAllCaseSensitiveShiftsOffsets(t *testing.T) {
	b := NewBuffer("aXaXa")
	res, err := ReplaceAll(b, "a", "bb", true)
	require.NoError(t, err)

	assert.Equal(t, "bbXbbXbb", b.Snapshot())
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, []Operation{
		{Start: 0, End: 1, OldText: "a", NewText: "bb"},
		{Start: 3, End: 4, OldText: "a", NewText: "bb"},
		{Start: 6, End: 7, OldText: "a", NewText: "bb"},
	}, res.Ops)
}

func TestReplaceAllCaseSensitiveShrinking(t *testing.T) {
	b := NewBuffer("hello hello hello")
	_, err := ReplaceAll(b, "hello", "hi", true)
	require.NoError(t, err)
	assert.Equal(t, "hi hi hi", b.Snapshot())
}

func TestReplaceAllCaseSensitiveLeavesOtherCases(t *testing.T) {
	b := NewBuffer("Apple apple APPLE")
	res, err := ReplaceAll(b, "apple", "pear", true)
	require.NoError(t, err)
	assert.Equal(t, "Apple pear APPLE", b.Snapshot())
	assert.Equal(t, 1, res.Count)
}

func TestReplaceAllReplacementContainingNeedle(t *testing.T) {
	b := NewBuffer("a-a")
	_, err := ReplaceAll(b, "a", "aa", true)
	require.NoError(t, err)
	assert.Equal(t, "aa-aa", b.Snapshot())
}

func TestReplaceAllEmptyNeedleOrNoMatch(t *testing.T) {
	b := NewBuffer("unchanged")
	res, err := ReplaceAll(b, "", "x", true)
	require.NoError(t, err)
	assert.Zero(t, res.Count)
	assert.Empty(t, res.Ops)

	res, err = ReplaceAll(b, "zzz", "x", false)
	require.NoError(t, err)
	assert.Zero(t, res.Count)
	assert.Equal(t, "unchanged", b.Snapshot())
	assert.False(t, b.Dirty())
}

func TestFindAndHighlightDoesNotMutate(t *testing.T) {
	b := NewBuffer("The cat sat")
	got := FindAndHighlight(b, "AT", false)
	assert.Equal(t, []Match{{5, 7}, {9, 11}}, got)
	assert.Equal(t, "The cat sat", b.Snapshot())
	assert.False(t, b.Dirty())
}

func TestReplaceAllOpsInvertToOriginal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[abAB xy]{0,30}`).Draw(t, "text")
		needle := rapid.StringMatching(`[abAB]{1,3}`).Draw(t, "needle")
		repl := rapid.StringMatching(`[a-z]{0,4}`).Draw(t, "replacement")
		caseSensitive := rapid.Bool().Draw(t, "caseSensitive")

		b := NewBuffer(text)
		res, err := ReplaceAll(b, needle, repl, caseSensitive)
		if err != nil {
			t.Fatalf("replace: %v", err)
		}
		for i := len(res.Ops) - 1; i >= 0; i-- {
			if err := b.Apply(res.Ops[i].Inverse()); err != nil {
				t.Fatalf("inverse %d: %v", i, err)
			}
		}
		if got := b.Snapshot(); got != text {
			t.Fatalf("inverse replay mismatch: got %q want %q", got, text)
		}
	})
}
