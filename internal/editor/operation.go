package editor

import "unicode/utf8"

// Operation is one range replacement: the text in [Start, End) of the buffer
// as it was before the change was OldText and became NewText.
// Offsets count runes.
type Operation struct {
	Start   int
	End     int
	OldText string
	NewText string
}

// Inverse returns the operation that undoes op once op has been applied.
func (op Operation) Inverse() Operation {
	return Operation{
		Start:   op.Start,
		End:     op.Start + utf8.RuneCountInString(op.NewText),
		OldText: op.NewText,
		NewText: op.OldText,
	}
}

// IsNoop reports whether applying op leaves the buffer unchanged.
func (op Operation) IsNoop() bool {
	return op.OldText == op.NewText
}

// Delta is the change in buffer length caused by op.
func (op Operation) Delta() int {
	return utf8.RuneCountInString(op.NewText) - (op.End - op.Start)
}

// Step is a single undo unit. Ops are applied in order; undo applies their
// inverses in reverse order.
type Step struct {
	Label string
	Ops   []Operation
}

// inverse returns the operations that revert s, in the order to apply them.
func (s Step) inverse() []Operation {
	out := make([]Operation, len(s.Ops))
	for i, op := range s.Ops {
		out[len(s.Ops)-1-i] = op.Inverse()
	}
	return out
}

func (s Step) IsNoop() bool {
	for _, op := range s.Ops {
		if !op.IsNoop() {
			return false
		}
	}
	return true
}
