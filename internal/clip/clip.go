// Package clip provides clipboard backends for editor.Document.
package clip

import (
	"errors"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
	nativeclip "golang.design/x/clipboard"

	"notepad/internal/editor"
)

const (
	BackendSystem = "system"
	BackendNative = "native"
	BackendMemory = "memory"
)

var ErrUnknownBackend = errors.New("clip: unknown backend")

// New returns the backend registered under name. An empty name selects the
// system backend.
func New(name string) (editor.Clipboard, error) {
	switch name {
	case "", BackendSystem:
		return System{}, nil
	case BackendNative:
		return &Native{}, nil
	case BackendMemory:
		return &Memory{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// System shells out to the platform clipboard tools (xclip, xsel, pbcopy,
// the Windows API).
type System struct{}

func (System) ReadText() (string, error) { return clipboard.ReadAll() }

func (System) WriteText(s string) error { return clipboard.WriteAll(s) }

// Native talks to the window system directly. It is initialized on first use.
type Native struct {
	once sync.Once
	err  error
}

func (n *Native) init() error {
	n.once.Do(func() {
		n.err = nativeclip.Init()
	})
	return n.err
}

func (n *Native) ReadText() (string, error) {
	if err := n.init(); err != nil {
		return "", err
	}
	return string(nativeclip.Read(nativeclip.FmtText)), nil
}

func (n *Native) WriteText(s string) error {
	if err := n.init(); err != nil {
		return err
	}
	nativeclip.Write(nativeclip.FmtText, []byte(s))
	return nil
}

// Memory is a process-local clipboard.
type Memory struct {
	mu   sync.Mutex
	text string
}

func (m *Memory) ReadText() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *Memory) WriteText(s string) error {
	m.mu.Lock()
	m.text = s
	m.mu.Unlock()
	return nil
}
