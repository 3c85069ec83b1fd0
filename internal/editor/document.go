package editor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"path/filepath"
	"strings"

	"notepad/pkg/textfile"
)

const (
	appTitle     = "Notepad"
	untitledName = "Untitled"
)

// Clipboard is the system clipboard as seen by the document.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(s string) error
}

type Options struct {
	// HistoryLimit caps the number of undo steps; zero selects
	// DefaultHistoryLimit.
	HistoryLimit int
	// Storage is applied to saves of new documents. Loading a sealed file
	// switches the document to the file's envelope settings.
	Storage textfile.SaveOptions
	// Password opens encrypted files.
	Password        string
	DisableWordWrap bool
	Clipboard       Clipboard
	Logger          *log.Logger
}

// Document is one open text document: its buffer, undo history, storage path
// and the most recent search results. A Document is not safe for concurrent
// use.
type Document struct {
	opts    Options
	buf     *Buffer
	hist    *History
	path    string
	storage textfile.SaveOptions
	matches []Match
	wrap    bool
	status  string
	log     *log.Logger
}

func NewDocument(opts Options) *Document {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Document{
		opts:    opts,
		buf:     NewBuffer(""),
		hist:    NewHistory(opts.HistoryLimit),
		storage: opts.Storage,
		wrap:    !opts.DisableWordWrap,
		status:  "New document",
		log:     logger,
	}
}

// Open creates a document and loads path into it.
func Open(path string, opts Options) (*Document, error) {
	d := NewDocument(opts)
	if err := d.Load(path); err != nil {
		return nil, err
	}
	return d, nil
}

// New discards the current content, history and storage path.
func (d *Document) New() {
	d.buf.Reset("")
	d.hist.Clear()
	d.path = ""
	d.storage = d.opts.Storage
	d.matches = nil
	d.status = "New document"
	d.log.Printf("new document")
}

// Load replaces the document with the content of path. On failure the
// document is left exactly as it was.
func (d *Document) Load(path string) error {
	path = filepath.Clean(path)
	text, info, err := textfile.ReadFile(path, textfile.LoadOptions{Password: d.opts.Password})
	if err != nil {
		return d.fail("Open", classifyLoadError(path, err))
	}

	d.buf.Reset(text)
	d.hist.Clear()
	d.path = path
	d.matches = nil
	d.storage = textfile.SaveOptions{
		Compression: info.Compressed,
		Encryption:  textfile.EncryptionOptions{Enabled: info.Encrypted, Password: d.opts.Password},
	}
	d.status = "Opened " + filepath.Base(path)
	d.log.Printf("opened %s (%d runes, sealed=%v)", path, d.buf.Len(), info.Sealed)
	return nil
}

// Save writes the document to its storage path. Without a path it returns
// ErrNoPath and the caller is expected to ask for one and use SaveAs.
func (d *Document) Save() error {
	if d.path == "" {
		d.status = "Choose a file name to save"
		return ErrNoPath
	}
	return d.writeTo(d.path)
}

func (d *Document) SaveAs(path string) error {
	if strings.TrimSpace(path) == "" {
		d.status = "Choose a file name to save"
		return ErrNoPath
	}
	return d.writeTo(filepath.Clean(path))
}

func (d *Document) writeTo(path string) error {
	if err := textfile.SaveWithOptions(path, d.buf.Snapshot(), d.storage); err != nil {
		return d.fail("Save", fmt.Errorf("%w: write %s: %w", ErrIO, path, err))
	}
	d.path = path
	d.buf.MarkClean()
	d.status = "Saved " + filepath.Base(path)
	d.log.Printf("saved %s (%d runes)", path, d.buf.Len())
	return nil
}

// ApplyEdit replaces the runes in [start, end) with text and records the
// change as one undo step. Every mutation of the document goes through here
// or through ReplaceAll.
func (d *Document) ApplyEdit(start, end int, text string) error {
	return d.edit(editLabel(start, end, text), start, end, text)
}

func (d *Document) Insert(at int, text string) error {
	return d.edit("Typing", at, at, text)
}

func (d *Document) Delete(start, end int) error {
	return d.edit("Delete", start, end, "")
}

func (d *Document) edit(label string, start, end int, text string) error {
	op, err := d.buf.ReplaceRange(start, end, text)
	if err != nil {
		return err
	}
	if op.IsNoop() {
		return nil
	}
	d.hist.Record(Step{Label: label, Ops: []Operation{op}})
	d.matches = nil
	return nil
}

func (d *Document) Undo() (bool, error) {
	label := d.hist.UndoLabel()
	ok, err := d.hist.Undo(d.buf)
	if err != nil {
		return false, d.fail("Undo", err)
	}
	if !ok {
		d.status = "Nothing to undo"
		return false, nil
	}
	d.matches = nil
	d.status = "Undid " + label
	return true, nil
}

func (d *Document) Redo() (bool, error) {
	label := d.hist.RedoLabel()
	ok, err := d.hist.Redo(d.buf)
	if err != nil {
		return false, d.fail("Redo", err)
	}
	if !ok {
		d.status = "Nothing to redo"
		return false, nil
	}
	d.matches = nil
	d.status = "Redid " + label
	return true, nil
}

// Find searches the document and keeps the result as the current highlight
// set returned by Matches.
func (d *Document) Find(needle string, caseSensitive bool) []Match {
	d.matches = FindAndHighlight(d.buf, needle, caseSensitive)
	switch n := len(d.matches); {
	case needle == "":
		d.status = "Nothing to find"
	case n == 0:
		d.status = fmt.Sprintf("No matches for %q", needle)
	default:
		d.status = fmt.Sprintf("Found %d occurrence(s)", n)
	}
	return d.matches
}

// Matches returns the result of the last Find. Any edit clears it.
func (d *Document) Matches() []Match { return d.matches }

// ReplaceAll replaces every occurrence of needle and records the whole pass
// as a single undo step. It returns the number of occurrences replaced.
func (d *Document) ReplaceAll(needle, replacement string, caseSensitive bool) (int, error) {
	res, err := ReplaceAll(d.buf, needle, replacement, caseSensitive)
	if err != nil {
		return 0, d.fail("Replace", err)
	}
	if res.Count == 0 {
		d.status = fmt.Sprintf("No matches for %q", needle)
		return 0, nil
	}
	d.hist.Record(Step{Label: "Replace All", Ops: res.Ops})
	d.matches = nil
	d.status = fmt.Sprintf("Replaced %d occurrence(s)", res.Count)
	d.log.Printf("replaced %d occurrence(s) of %q (case-sensitive=%v)", res.Count, needle, caseSensitive)
	return res.Count, nil
}

// Copy puts the runes in [start, end) on the clipboard.
func (d *Document) Copy(start, end int) error {
	if d.opts.Clipboard == nil {
		return ErrClipboard
	}
	text, err := d.buf.Slice(start, end)
	if err != nil {
		return err
	}
	if err := d.opts.Clipboard.WriteText(text); err != nil {
		return d.fail("Copy", fmt.Errorf("%w: %w", ErrClipboard, err))
	}
	d.status = "Copied"
	return nil
}

// Cut copies [start, end) to the clipboard and deletes it as one undo step.
// Nothing is deleted when the clipboard write fails.
func (d *Document) Cut(start, end int) error {
	if err := d.Copy(start, end); err != nil {
		return err
	}
	if err := d.edit("Cut", start, end, ""); err != nil {
		return err
	}
	d.status = "Cut"
	return nil
}

// Paste inserts the clipboard text at the given offset.
func (d *Document) Paste(at int) error {
	if d.opts.Clipboard == nil {
		return ErrClipboard
	}
	text, err := d.opts.Clipboard.ReadText()
	if err != nil {
		return d.fail("Paste", fmt.Errorf("%w: %w", ErrClipboard, err))
	}
	if err := d.edit("Paste", at, at, text); err != nil {
		return err
	}
	d.status = "Pasted"
	return nil
}

func (d *Document) Text() string { return d.buf.Snapshot() }

func (d *Document) Len() int { return d.buf.Len() }

func (d *Document) Dirty() bool { return d.buf.Dirty() }

// Path returns the storage path, or "" when the document was never saved.
func (d *Document) Path() string { return d.path }

func (d *Document) Status() string { return d.status }

func (d *Document) CanUndo() bool { return d.hist.CanUndo() }

func (d *Document) CanRedo() bool { return d.hist.CanRedo() }

func (d *Document) UndoLabel() string { return d.hist.UndoLabel() }

func (d *Document) RedoLabel() string { return d.hist.RedoLabel() }

// StorageOptions returns the envelope settings used by the next save.
func (d *Document) StorageOptions() textfile.SaveOptions { return d.storage }

// SetStorageOptions changes the envelope settings used by the next save. It
// does not mark the document dirty.
func (d *Document) SetStorageOptions(opts textfile.SaveOptions) { d.storage = opts }

func (d *Document) WordWrap() bool { return d.wrap }

func (d *Document) SetWordWrap(on bool) { d.wrap = on }

func (d *Document) ToggleWordWrap() bool {
	d.wrap = !d.wrap
	return d.wrap
}

// DisplayName is the base name of the storage path, or "Untitled".
func (d *Document) DisplayName() string {
	if d.path == "" {
		return untitledName
	}
	return filepath.Base(d.path)
}

// Title is the window title for the document, marked with '*' when there are
// unsaved changes.
func (d *Document) Title() string {
	title := d.DisplayName() + " - " + appTitle
	if d.Dirty() {
		return "*" + title
	}
	return title
}

// NeedsSaveConfirmation reports whether closing or replacing the document
// would lose changes worth asking about: it is dirty and not blank.
func (d *Document) NeedsSaveConfirmation() bool {
	return d.Dirty() && strings.TrimSpace(d.buf.Snapshot()) != ""
}

func (d *Document) fail(action string, err error) error {
	d.status = action + " failed: " + err.Error()
	d.log.Printf("%s: %v", strings.ToLower(action), err)
	return err
}

func classifyLoadError(path string, err error) error {
	var pathErr *fs.PathError
	switch {
	case errors.As(err, &pathErr):
		return fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	case errors.Is(err, textfile.ErrPasswordRequired), errors.Is(err, textfile.ErrInvalidPassword):
		return fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	default:
		return fmt.Errorf("%w: %s: %w", ErrEncoding, path, err)
	}
}

func editLabel(start, end int, text string) string {
	switch {
	case start == end:
		return "Typing"
	case text == "":
		return "Delete"
	default:
		return "Replace"
	}
}
