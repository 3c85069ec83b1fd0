package editor

const DefaultHistoryLimit = 1000

// History is a linear undo/redo log. Steps before the cursor are undoable,
// steps at or after it are redoable. Recording a new step discards the redo
// tail.
type History struct {
	steps  []Step
	cursor int
	limit  int
}

// NewHistory returns an empty history keeping at most limit steps. A limit of
// zero or less selects DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{steps: make([]Step, 0, 64), limit: limit}
}

func (h *History) Record(step Step) {
	if len(step.Ops) == 0 || step.IsNoop() {
		return
	}
	h.steps = append(h.steps[:h.cursor], step)
	h.cursor++
	if over := len(h.steps) - h.limit; over > 0 {
		h.steps = append(h.steps[:0], h.steps[over:]...)
		h.cursor -= over
	}
}

// Undo reverts the step before the cursor. It reports false when there is
// nothing to undo. If replay fails the buffer and the cursor are unchanged.
func (h *History) Undo(b *Buffer) (bool, error) {
	if h.cursor == 0 {
		return false, nil
	}
	if err := b.ApplyAll(h.steps[h.cursor-1].inverse()); err != nil {
		return false, err
	}
	h.cursor--
	return true, nil
}

// Redo re-applies the step at the cursor. It reports false when there is
// nothing to redo.
func (h *History) Redo(b *Buffer) (bool, error) {
	if h.cursor == len(h.steps) {
		return false, nil
	}
	if err := b.ApplyAll(h.steps[h.cursor].Ops); err != nil {
		return false, err
	}
	h.cursor++
	return true, nil
}

func (h *History) CanUndo() bool { return h.cursor > 0 }

func (h *History) CanRedo() bool { return h.cursor < len(h.steps) }

func (h *History) Len() int { return len(h.steps) }

func (h *History) Cursor() int { return h.cursor }

func (h *History) Clear() {
	h.steps = h.steps[:0]
	h.cursor = 0
}

// UndoLabel returns the label of the step Undo would revert.
func (h *History) UndoLabel() string {
	if h.cursor == 0 {
		return ""
	}
	return h.steps[h.cursor-1].Label
}

// RedoLabel returns the label of the step Redo would re-apply.
func (h *History) RedoLabel() string {
	if h.cursor == len(h.steps) {
		return ""
	}
	return h.steps[h.cursor].Label
}
