// Package intent models the requests a presentation layer sends to a
// document, and parses them from a one-line-per-intent script form.
package intent

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"notepad/internal/editor"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindType
	KindReplace
	KindDelete
	KindLoad
	KindSave
	KindSaveAs
	KindFind
	KindReplaceAll
	KindUndo
	KindRedo
	KindNew
	KindCut
	KindCopy
	KindPaste
	KindWrap
)

var kindNames = map[Kind]string{
	KindType:       "type",
	KindReplace:    "replace",
	KindDelete:     "delete",
	KindLoad:       "load",
	KindSave:       "save",
	KindSaveAs:     "save_as",
	KindFind:       "find",
	KindReplaceAll: "replace_all",
	KindUndo:       "undo",
	KindRedo:       "redo",
	KindNew:        "new",
	KindCut:        "cut",
	KindCopy:       "copy",
	KindPaste:      "paste",
	KindWrap:       "wrap",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Intent is one user request. Only the fields relevant to Kind are set.
type Intent struct {
	Kind          Kind
	Start         int
	End           int
	Text          string
	With          string
	Path          string
	CaseSensitive bool
}

// Result is the state a presentation layer refreshes after an intent.
type Result struct {
	Matches []editor.Match
	Count   int
	Changed bool
	Status  string
}

var (
	ErrSyntax      = errors.New("intent: syntax error")
	ErrUnknownKind = errors.New("intent: unknown intent")
)

// Parse reads one script line such as
//
//	type 0 hello world
//	replace_all -case "a b" c
//	save_as notes.txt
//
// Free text arguments run to the end of the line unless double-quoted, in
// which case Go escape sequences are honored.
func Parse(line string) (Intent, error) {
	name, rest := cutWord(line)
	if name == "" {
		return Intent{}, fmt.Errorf("%w: empty line", ErrSyntax)
	}
	kind := lookup(name)
	in := Intent{Kind: kind}

	var err error
	switch kind {
	case KindType, KindPaste:
		if in.Start, rest, err = intArg(rest); err != nil {
			break
		}
		in.End = in.Start
		if kind == KindType {
			in.Text, err = textArg(rest)
		} else {
			err = noMore(rest)
		}
	case KindReplace:
		if in.Start, rest, err = intArg(rest); err != nil {
			break
		}
		if in.End, rest, err = intArg(rest); err != nil {
			break
		}
		in.Text, err = textArg(rest)
	case KindDelete, KindCut, KindCopy:
		if in.Start, rest, err = intArg(rest); err != nil {
			break
		}
		if in.End, rest, err = intArg(rest); err != nil {
			break
		}
		err = noMore(rest)
	case KindLoad, KindSaveAs:
		in.Path, err = textArg(strings.TrimSpace(rest))
		if err == nil && in.Path == "" {
			err = fmt.Errorf("%w: %s needs a path", ErrSyntax, name)
		}
	case KindFind:
		in.CaseSensitive, rest = caseFlag(rest)
		in.Text, err = textArg(rest)
	case KindReplaceAll:
		in.CaseSensitive, rest = caseFlag(rest)
		if in.Text, rest, err = token(rest); err != nil {
			break
		}
		if in.With, rest, err = token(rest); err != nil {
			break
		}
		err = noMore(rest)
	case KindSave, KindUndo, KindRedo, KindNew, KindWrap:
		err = noMore(rest)
	default:
		return Intent{}, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
	if err != nil {
		return Intent{}, fmt.Errorf("%s: %w", name, err)
	}
	return in, nil
}

// Apply dispatches in to doc.
func Apply(doc *editor.Document, in Intent) (Result, error) {
	before := doc.Text()
	var res Result
	var err error

	switch in.Kind {
	case KindType:
		err = doc.Insert(in.Start, in.Text)
	case KindReplace:
		err = doc.ApplyEdit(in.Start, in.End, in.Text)
	case KindDelete:
		err = doc.Delete(in.Start, in.End)
	case KindLoad:
		err = doc.Load(in.Path)
	case KindSave:
		err = doc.Save()
	case KindSaveAs:
		err = doc.SaveAs(in.Path)
	case KindFind:
		res.Matches = doc.Find(in.Text, in.CaseSensitive)
		res.Count = len(res.Matches)
	case KindReplaceAll:
		res.Count, err = doc.ReplaceAll(in.Text, in.With, in.CaseSensitive)
	case KindUndo:
		_, err = doc.Undo()
	case KindRedo:
		_, err = doc.Redo()
	case KindNew:
		doc.New()
	case KindCut:
		err = doc.Cut(in.Start, in.End)
	case KindCopy:
		err = doc.Copy(in.Start, in.End)
	case KindPaste:
		err = doc.Paste(in.Start)
	case KindWrap:
		doc.ToggleWordWrap()
	default:
		return Result{}, fmt.Errorf("%w: %v", ErrUnknownKind, in.Kind)
	}
	res.Status = doc.Status()
	if err != nil {
		return res, err
	}
	res.Changed = doc.Text() != before
	return res, nil
}

func lookup(name string) Kind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindUnknown
}

func cutWord(s string) (word, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

func intArg(s string) (int, string, error) {
	word, rest := cutWord(s)
	if word == "" {
		return 0, rest, fmt.Errorf("%w: missing offset", ErrSyntax)
	}
	n, err := strconv.Atoi(word)
	if err != nil {
		return 0, rest, fmt.Errorf("%w: bad offset %q", ErrSyntax, word)
	}
	return n, rest, nil
}

// token reads one argument: a quoted string or a run of non-space runes.
func token(s string) (string, string, error) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	if s == "" {
		return "", "", fmt.Errorf("%w: missing argument", ErrSyntax)
	}
	if s[0] == '"' {
		q, err := strconv.QuotedPrefix(s)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		v, err := strconv.Unquote(q)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return v, s[len(q):], nil
	}
	word, rest := cutWord(s)
	return word, rest, nil
}

// textArg returns the rest of the line, unquoting it when it is one quoted
// string. A single separating space has already been consumed.
func textArg(s string) (string, error) {
	if strings.HasPrefix(strings.TrimLeftFunc(s, unicode.IsSpace), `"`) {
		v, rest, err := token(s)
		if err != nil {
			return "", err
		}
		if err := noMore(rest); err != nil {
			return "", err
		}
		return v, nil
	}
	return s, nil
}

func caseFlag(s string) (bool, string) {
	word, rest := cutWord(s)
	if word == "-case" {
		return true, rest
	}
	return false, s
}

func noMore(s string) error {
	if strings.TrimSpace(s) != "" {
		return fmt.Errorf("%w: unexpected %q", ErrSyntax, strings.TrimSpace(s))
	}
	return nil
}
