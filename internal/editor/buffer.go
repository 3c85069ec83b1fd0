package editor

import (
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"
)

// Buffer holds the document text as runes together with the snapshot taken at
// the last load or save. Offsets used by every method count runes.
type Buffer struct {
	content []rune
	clean   []rune
	dirty   bool

	// content[:head] equals clean[:head] and the last tail runes of content
	// equal the last tail runes of clean. Only the window between them can
	// differ from the snapshot.
	head int
	tail int
}

func NewBuffer(text string) *Buffer {
	b := &Buffer{}
	b.Reset(text)
	return b
}

// Reset replaces the whole content and marks the buffer clean.
func (b *Buffer) Reset(text string) {
	b.content = []rune(text)
	b.MarkClean()
}

func (b *Buffer) Len() int { return len(b.content) }

func (b *Buffer) Snapshot() string { return string(b.content) }

func (b *Buffer) Dirty() bool { return b.dirty }

// CleanSnapshot returns the content as of the last load or save.
func (b *Buffer) CleanSnapshot() string { return string(b.clean) }

func (b *Buffer) MarkClean() {
	b.clean = append(b.clean[:0], b.content...)
	b.head, b.tail = len(b.content), len(b.content)
	b.dirty = false
}

func (b *Buffer) Slice(start, end int) (string, error) {
	if err := b.checkRange(start, end); err != nil {
		return "", err
	}
	return string(b.content[start:end]), nil
}

// ReplaceRange replaces content[start:end] with text and returns the
// operation describing the change.
func (b *Buffer) ReplaceRange(start, end int, text string) (Operation, error) {
	if err := b.checkRange(start, end); err != nil {
		return Operation{}, err
	}
	op := Operation{
		Start:   start,
		End:     end,
		OldText: string(b.content[start:end]),
		NewText: text,
	}
	if op.IsNoop() {
		return op, nil
	}

	oldLen := len(b.content)
	ins := []rune(text)
	if len(ins) == end-start {
		copy(b.content[start:end], ins)
	} else {
		b.content = slices.Replace(b.content, start, end, ins...)
	}
	b.touched(start, end, oldLen)
	return op, nil
}

// Apply replays a recorded operation. The text currently at [op.Start, op.End)
// must equal op.OldText.
func (b *Buffer) Apply(op Operation) error {
	cur, err := b.Slice(op.Start, op.End)
	if err != nil {
		return err
	}
	if cur != op.OldText {
		return mismatch(op.Start, op.End, op.OldText, cur)
	}
	_, err = b.ReplaceRange(op.Start, op.End, op.NewText)
	return err
}

// ApplyAll replays ops in order as one change. Either every operation is
// applied or the buffer is left as it was.
//
// Runs that move strictly left to right, or strictly right to left, which is
// what ReplaceAll and its undo produce, are checked up front and rebuilt in
// a single pass. Any other order is applied one operation at a time.
func (b *Buffer) ApplyAll(ops []Operation) error {
	switch len(ops) {
	case 0:
		return nil
	case 1:
		return b.Apply(ops[0])
	}
	if spans, ok := flatten(ops); ok {
		return b.splice(spans)
	}
	for i, op := range ops {
		if err := b.Apply(op); err != nil {
			if rerr := b.revert(ops[:i]); rerr != nil {
				return errors.Join(err, rerr)
			}
			return err
		}
	}
	return nil
}

// span is an operation rebased onto the content before a whole run.
type span struct {
	start, end int
	oldText    string
	newText    string
}

// flatten rebases a monotonic run of operations onto the content they start
// from and returns the spans in ascending order.
func flatten(ops []Operation) ([]span, bool) {
	spans := make([]span, len(ops))
	ascending := true
	shift := 0
	for i, op := range ops {
		if i > 0 && op.Start < ops[i-1].Start+utf8.RuneCountInString(ops[i-1].NewText) {
			ascending = false
			break
		}
		spans[i] = span{start: op.Start - shift, end: op.End - shift, oldText: op.OldText, newText: op.NewText}
		shift += op.Delta()
	}
	if ascending {
		return spans, true
	}

	last := len(ops) - 1
	for i, op := range ops {
		if i > 0 && op.End > ops[i-1].Start {
			return nil, false
		}
		spans[last-i] = span{start: op.Start, end: op.End, oldText: op.OldText, newText: op.NewText}
	}
	return spans, true
}

// splice validates every span against the current content, then builds the
// new content in one pass.
func (b *Buffer) splice(spans []span) error {
	oldLen := len(b.content)
	size := oldLen
	prev := 0
	for _, s := range spans {
		if s.start < prev || s.start > s.end || s.end > oldLen {
			return &RangeError{Start: s.start, End: s.end, Len: oldLen}
		}
		if cur := string(b.content[s.start:s.end]); cur != s.oldText {
			return mismatch(s.start, s.end, s.oldText, cur)
		}
		size += utf8.RuneCountInString(s.newText) - (s.end - s.start)
		prev = s.end
	}

	out := make([]rune, 0, size)
	prev = 0
	for _, s := range spans {
		out = append(out, b.content[prev:s.start]...)
		for _, r := range s.newText {
			out = append(out, r)
		}
		prev = s.end
	}
	out = append(out, b.content[prev:]...)
	b.content = out
	b.touched(spans[0].start, spans[len(spans)-1].end, oldLen)
	return nil
}

func (b *Buffer) revert(ops []Operation) error {
	for i := len(ops) - 1; i >= 0; i-- {
		if err := b.Apply(ops[i].Inverse()); err != nil {
			return fmt.Errorf("editor: restore after failed replay: %w", err)
		}
	}
	return nil
}

// touched records that old content [start, end) was rewritten and refreshes
// the dirty flag. Only the window that may differ from the snapshot is
// compared, and only when the lengths agree.
func (b *Buffer) touched(start, end, oldLen int) {
	b.head = min(b.head, start)
	b.tail = min(b.tail, oldLen-end)

	n := len(b.content)
	if n != len(b.clean) {
		b.dirty = true
		return
	}
	for b.head < n-b.tail && b.content[b.head] == b.clean[b.head] {
		b.head++
	}
	for b.head < n-b.tail && b.content[n-b.tail-1] == b.clean[n-b.tail-1] {
		b.tail++
	}
	b.dirty = b.head+b.tail < n
}

func (b *Buffer) checkRange(start, end int) error {
	if start < 0 || start > end || end > len(b.content) {
		return &RangeError{Start: start, End: end, Len: len(b.content)}
	}
	return nil
}

func mismatch(start, end int, want, got string) error {
	return fmt.Errorf("%w: expected %q at [%d, %d), found %q", ErrRange, want, start, end, got)
}
