package editor

import (
	"errors"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestReplaceRangeInsertAndDelete(t *testing.T) {
	b := NewBuffer("abcd")
	op, err := b.ReplaceRange(2, 2, "X")
	if err != nil {
		t.Fatal(err)
	}
	if got := b.Snapshot(); got != "abXcd" {
		t.Fatalf("unexpected insert result: %q", got)
	}
	if op.Start != 2 || op.End != 2 || op.OldText != "" || op.NewText != "X" {
		t.Fatalf("unexpected operation: %#v", op)
	}
	if !b.Dirty() {
		t.Fatalf("expected buffer to be dirty after insert")
	}

	if _, err := b.ReplaceRange(3, 4, ""); err != nil {
		t.Fatal(err)
	}
	if got := b.Snapshot(); got != "abXd" {
		t.Fatalf("unexpected delete result: %q", got)
	}
}

func TestReplaceRangeCountsRunesNotBytes(t *testing.T) {
	b := NewBuffer("привіт")
	op, err := b.ReplaceRange(1, 3, "РИ")
	if err != nil {
		t.Fatal(err)
	}
	if got := b.Snapshot(); got != "пРИвіт" {
		t.Fatalf("unexpected text: %q", got)
	}
	if op.OldText != "ри" {
		t.Fatalf("unexpected old text: %q", op.OldText)
	}
	if b.Len() != 6 {
		t.Fatalf("expected 6 runes, got %d", b.Len())
	}
}

func TestReplaceRangeRejectsInvalidOffsets(t *testing.T) {
	cases := []struct{ start, end int }{
		{-1, 0},
		{2, 1},
		{0, 4},
		{4, 4},
	}
	for _, tc := range cases {
		b := NewBuffer("abc")
		_, err := b.ReplaceRange(tc.start, tc.end, "z")
		if !errors.Is(err, ErrRange) {
			t.Fatalf("[%d,%d): expected ErrRange, got %v", tc.start, tc.end, err)
		}
		var rerr *RangeError
		if !errors.As(err, &rerr) || rerr.Len != 3 {
			t.Fatalf("[%d,%d): expected *RangeError with Len 3, got %#v", tc.start, tc.end, err)
		}
		if b.Snapshot() != "abc" || b.Dirty() {
			t.Fatalf("[%d,%d): buffer changed on error", tc.start, tc.end)
		}
	}
}

func TestDirtyTracksCleanSnapshot(t *testing.T) {
	b := NewBuffer("hello")
	if b.Dirty() {
		t.Fatalf("new buffer must be clean")
	}
	if _, err := b.ReplaceRange(5, 5, "!"); err != nil {
		t.Fatal(err)
	}
	if !b.Dirty() {
		t.Fatalf("expected dirty after edit")
	}
	if _, err := b.ReplaceRange(5, 6, ""); err != nil {
		t.Fatal(err)
	}
	if b.Dirty() {
		t.Fatalf("content equals the clean snapshot again, expected clean")
	}

	if _, err := b.ReplaceRange(0, 1, "j"); err != nil {
		t.Fatal(err)
	}
	b.MarkClean()
	if b.Dirty() || b.CleanSnapshot() != "jello" {
		t.Fatalf("MarkClean did not take a snapshot: dirty=%v clean=%q", b.Dirty(), b.CleanSnapshot())
	}
}

func TestReplaceRangeWithSameTextIsNoop(t *testing.T) {
	b := NewBuffer("same")
	op, err := b.ReplaceRange(0, 4, "same")
	if err != nil {
		t.Fatal(err)
	}
	if !op.IsNoop() || b.Dirty() {
		t.Fatalf("expected no-op operation and clean buffer, got %#v dirty=%v", op, b.Dirty())
	}
}

func TestApplyRejectsMismatchedOldText(t *testing.T) {
	b := NewBuffer("abc")
	err := b.Apply(Operation{Start: 0, End: 1, OldText: "z", NewText: "y"})
	if !errors.Is(err, ErrRange) {
		t.Fatalf("expected ErrRange, got %v", err)
	}
	if b.Snapshot() != "abc" {
		t.Fatalf("buffer changed: %q", b.Snapshot())
	}
}

func TestSliceBounds(t *testing.T) {
	b := NewBuffer("héllo")
	got, err := b.Slice(1, 3)
	if err != nil || got != "él" {
		t.Fatalf("unexpected slice: %q, %v", got, err)
	}
	if _, err := b.Slice(3, 9); !errors.Is(err, ErrRange) {
		t.Fatalf("expected ErrRange, got %v", err)
	}
}

func TestReplaceRangeInverseRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")
		b := NewBuffer(text)
		start := rapid.IntRange(0, b.Len()).Draw(t, "start")
		end := rapid.IntRange(start, b.Len()).Draw(t, "end")
		insert := rapid.String().Draw(t, "insert")

		op, err := b.ReplaceRange(start, end, insert)
		if err != nil {
			t.Fatalf("replace: %v", err)
		}
		if err := b.Apply(op.Inverse()); err != nil {
			t.Fatalf("apply inverse: %v", err)
		}
		if got := b.Snapshot(); got != text {
			t.Fatalf("round trip mismatch: got %q want %q", got, text)
		}
		if b.Dirty() {
			t.Fatalf("restored buffer must be clean")
		}
	})
}

func TestDirtyClearsWhenSeparateEditsAreReverted(t *testing.T) {
	b := NewBuffer("alpha beta gamma")
	if _, err := b.ReplaceRange(0, 1, "A"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.ReplaceRange(11, 12, "G"); err != nil {
		t.Fatal(err)
	}
	if !b.Dirty() {
		t.Fatalf("expected dirty after two edits")
	}
	if _, err := b.ReplaceRange(11, 12, "g"); err != nil {
		t.Fatal(err)
	}
	if !b.Dirty() {
		t.Fatalf("first edit is still in place, expected dirty")
	}
	if _, err := b.ReplaceRange(0, 1, "a"); err != nil {
		t.Fatal(err)
	}
	if b.Dirty() {
		t.Fatalf("content equals the clean snapshot again, expected clean: %q", b.Snapshot())
	}
}

func TestApplyAllReplaysAscendingRunInOnePass(t *testing.T) {
	b := NewBuffer("aXaXa")
	ops := []Operation{
		{Start: 0, End: 1, OldText: "a", NewText: "bb"},
		{Start: 3, End: 4, OldText: "a", NewText: "bb"},
		{Start: 6, End: 7, OldText: "a", NewText: "bb"},
	}
	if err := b.ApplyAll(ops); err != nil {
		t.Fatal(err)
	}
	if got := b.Snapshot(); got != "bbXbbXbb" {
		t.Fatalf("unexpected text: %q", got)
	}
	inv := Step{Ops: ops}.inverse()
	if err := b.ApplyAll(inv); err != nil {
		t.Fatal(err)
	}
	if got := b.Snapshot(); got != "aXaXa" || b.Dirty() {
		t.Fatalf("unexpected text after inverse: %q dirty=%v", got, b.Dirty())
	}
}

func TestApplyAllIsAtomic(t *testing.T) {
	cases := map[string][]Operation{
		"ascending with stale text": {
			{Start: 0, End: 1, OldText: "a", NewText: "A"},
			{Start: 2, End: 3, OldText: "z", NewText: "Z"},
		},
		"descending with stale text": {
			{Start: 3, End: 4, OldText: "d", NewText: "D"},
			{Start: 0, End: 1, OldText: "z", NewText: ""},
		},
		"out of range after a valid edit": {
			{Start: 3, End: 4, OldText: "d", NewText: "D"},
			{Start: 0, End: 9, OldText: "abc", NewText: ""},
		},
		"unordered with stale text": {
			{Start: 2, End: 3, OldText: "c", NewText: "C"},
			{Start: 0, End: 1, OldText: "a", NewText: "A"},
			{Start: 3, End: 4, OldText: "q", NewText: "Q"},
		},
	}
	for name, ops := range cases {
		b := NewBuffer("abcd")
		err := b.ApplyAll(ops)
		if !errors.Is(err, ErrRange) {
			t.Fatalf("%s: expected ErrRange, got %v", name, err)
		}
		if b.Snapshot() != "abcd" || b.Dirty() {
			t.Fatalf("%s: buffer changed on failure: %q dirty=%v", name, b.Snapshot(), b.Dirty())
		}
	}
}

func TestApplyAllEqualsSequentialReplay(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := rapid.StringMatching(`[a-cé ]{0,20}`).Draw(t, "initial")
		scratch := NewBuffer(initial)
		var ops []Operation
		n := rapid.IntRange(1, 8).Draw(t, "ops")
		for i := 0; i < n; i++ {
			start := rapid.IntRange(0, scratch.Len()).Draw(t, "start")
			end := rapid.IntRange(start, scratch.Len()).Draw(t, "end")
			text := rapid.StringMatching(`[a-cX]{0,3}`).Draw(t, "text")
			op, err := scratch.ReplaceRange(start, end, text)
			if err != nil {
				t.Fatalf("edit %d: %v", i, err)
			}
			ops = append(ops, op)
			if got, want := scratch.Dirty(), scratch.Snapshot() != initial; got != want {
				t.Fatalf("dirty=%v but content differs=%v", got, want)
			}
		}

		b := NewBuffer(initial)
		if err := b.ApplyAll(ops); err != nil {
			t.Fatalf("apply all: %v", err)
		}
		if got, want := b.Snapshot(), scratch.Snapshot(); got != want {
			t.Fatalf("apply all mismatch: got %q want %q", got, want)
		}
		if got, want := b.Dirty(), b.Snapshot() != initial; got != want {
			t.Fatalf("dirty=%v but content differs=%v", got, want)
		}
		if err := b.ApplyAll(Step{Ops: ops}.inverse()); err != nil {
			t.Fatalf("inverse: %v", err)
		}
		if b.Snapshot() != initial || b.Dirty() {
			t.Fatalf("inverse mismatch: got %q dirty=%v", b.Snapshot(), b.Dirty())
		}
	})
}

func TestSameLengthEditsStayCheapOnLargeBuffers(t *testing.T) {
	b := NewBuffer(strings.Repeat("0123456789", 50_000))
	mid := b.Len() / 2
	began := time.Now()
	for i := 0; i < 20_000; i++ {
		r := string(rune('a' + i%26))
		if _, err := b.ReplaceRange(mid, mid+1, r); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(began); elapsed > time.Second {
		t.Fatalf("20k overwrites on a 500k rune buffer took %v", elapsed)
	}
	if !b.Dirty() {
		t.Fatalf("expected dirty")
	}
}
