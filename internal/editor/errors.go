package editor

import (
	"errors"
	"fmt"
)

var (
	ErrRange     = errors.New("editor: invalid range")
	ErrIO        = errors.New("editor: i/o failure")
	ErrEncoding  = errors.New("editor: content is not valid text")
	ErrNoPath    = errors.New("editor: document has no storage path")
	ErrClipboard = errors.New("editor: clipboard unavailable")
)

// RangeError reports offsets that fall outside 0 <= Start <= End <= Len.
type RangeError struct {
	Start int
	End   int
	Len   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("editor: invalid range [%d, %d) for length %d", e.Start, e.End, e.Len)
}

func (e *RangeError) Is(target error) bool { return target == ErrRange }
