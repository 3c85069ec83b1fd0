package app

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"notepad/internal/clip"
	"notepad/internal/config"
	"notepad/internal/editor"
	"notepad/internal/intent"
	"notepad/pkg/textfile"
)

type options struct {
	find       string
	replace    string
	with       string
	caseSens   bool
	script     string
	output     string
	writeBack  bool
	diff       bool
	stats      bool
	password   string
	compress   bool
	configPath string
	verbose    bool
	clipboard  string
}

// App runs intents against one document without a window.
type App struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	doc    *editor.Document
	log    *log.Logger
	status string
}

func New(stdin io.Reader, stdout, stderr io.Writer) *App {
	return &App{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		log:    log.New(io.Discard, "", 0),
		status: "Untitled document",
	}
}

// Document returns the document of the last Run.
func (a *App) Document() *editor.Document { return a.doc }

func (a *App) Status() string { return a.status }

func (a *App) Run(args []string) error {
	opts, file, err := a.parseFlags(args)
	if err != nil {
		return err
	}
	if opts.verbose {
		a.log = log.New(a.stderr, "notepad: ", log.Ltime)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	docOpts, err := a.documentOptions(cfg, opts)
	if err != nil {
		return err
	}

	a.doc = editor.NewDocument(docOpts)
	if file != "" {
		if err := a.doc.Load(file); err != nil {
			return err
		}
		a.applyStorageFlags(opts)
	}
	a.status = a.doc.Status()

	if opts.script != "" {
		if err := a.runScript(opts.script); err != nil {
			return err
		}
	}
	if opts.find != "" {
		a.invokeAction(intent.Intent{Kind: intent.KindFind, Text: opts.find, CaseSensitive: opts.caseSens})
		for _, m := range a.doc.Matches() {
			fmt.Fprintf(a.stdout, "%d-%d\n", m.Start, m.End)
		}
	}
	if opts.replace != "" {
		in := intent.Intent{Kind: intent.KindReplaceAll, Text: opts.replace, With: opts.with, CaseSensitive: opts.caseSens}
		if _, err := a.invokeAction(in); err != nil {
			return err
		}
	}
	if opts.stats {
		st := a.doc.Stats()
		fmt.Fprintf(a.stdout, "runes %d\ngraphemes %d\nwords %d\nlines %d\nwidth %d\n", st.Runes, st.Graphemes, st.Words, st.Lines, st.MaxWidth)
	}
	if opts.diff {
		writeDiff(a.stdout, a.doc.Changes())
	}

	switch {
	case opts.output != "":
		_, err = a.invokeAction(intent.Intent{Kind: intent.KindSaveAs, Path: opts.output})
	case opts.writeBack:
		_, err = a.invokeAction(intent.Intent{Kind: intent.KindSave})
	case opts.find == "" && !opts.diff && !opts.stats:
		_, err = io.WriteString(a.stdout, a.doc.Text())
	}
	if err != nil {
		return err
	}
	a.log.Printf("%s", a.status)
	return nil
}

func (a *App) parseFlags(args []string) (options, string, error) {
	var opts options
	fs := flag.NewFlagSet("notepad", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: notepad [flags] [FILE]\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.find, "find", "", "print the rune offsets of every match")
	fs.StringVar(&opts.replace, "replace", "", "replace every occurrence of this text")
	fs.StringVar(&opts.with, "with", "", "replacement text for -replace")
	fs.BoolVar(&opts.caseSens, "case", false, "case-sensitive -find and -replace")
	fs.StringVar(&opts.script, "script", "", "run intents from a file, one per line (- for stdin)")
	fs.StringVar(&opts.output, "o", "", "save the result to this path")
	fs.BoolVar(&opts.writeBack, "w", false, "save the result back to FILE")
	fs.BoolVar(&opts.diff, "diff", false, "print changes against the loaded file")
	fs.BoolVar(&opts.stats, "stats", false, "print document statistics")
	fs.StringVar(&opts.password, "password", "", "password for encrypted files; also encrypts new files")
	fs.BoolVar(&opts.compress, "compress", false, "compress saved files")
	fs.StringVar(&opts.configPath, "config", "", "config file (default: user config dir)")
	fs.BoolVar(&opts.verbose, "v", false, "log to stderr")
	fs.StringVar(&opts.clipboard, "clipboard", "", "clipboard backend: system, native or memory")
	if err := fs.Parse(args); err != nil {
		return options{}, "", err
	}
	switch fs.NArg() {
	case 0:
		return opts, "", nil
	case 1:
		return opts, fs.Arg(0), nil
	default:
		return options{}, "", fmt.Errorf("expected at most one file, got %d", fs.NArg())
	}
}

func (a *App) documentOptions(cfg *config.Config, opts options) (editor.Options, error) {
	docOpts := cfg.EditorOptions()
	docOpts.Logger = a.log
	if opts.compress {
		docOpts.Storage.Compression = true
	}
	if opts.password != "" {
		docOpts.Password = opts.password
		docOpts.Storage.Encryption.Enabled = true
		docOpts.Storage.Encryption.Password = opts.password
	}

	backend := cfg.Clipboard
	if opts.clipboard != "" {
		backend = opts.clipboard
	}
	cb, err := clip.New(backend)
	if err != nil {
		return editor.Options{}, err
	}
	docOpts.Clipboard = cb
	return docOpts, nil
}

// applyStorageFlags lets -compress and -password override the envelope the
// loaded file was stored in.
func (a *App) applyStorageFlags(opts options) {
	st := a.doc.StorageOptions()
	if opts.compress {
		st.Compression = true
	}
	if opts.password != "" {
		st.Encryption = textfile.EncryptionOptions{Enabled: true, Password: opts.password}
	}
	a.doc.SetStorageOptions(st)
}

func (a *App) runScript(path string) error {
	var r io.Reader = a.stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		r = f
	}

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if trimmed := strings.TrimSpace(line); trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		in, err := intent.Parse(line)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		res, err := a.invokeAction(in)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		if in.Kind == intent.KindFind {
			for _, m := range res.Matches {
				fmt.Fprintf(a.stdout, "%d-%d\n", m.Start, m.End)
			}
		}
	}
	return sc.Err()
}

func (a *App) invokeAction(in intent.Intent) (intent.Result, error) {
	res, err := intent.Apply(a.doc, in)
	a.status = res.Status
	if err != nil {
		if errors.Is(err, editor.ErrNoPath) {
			a.status = "Save failed: no file name; use -o or save_as"
		}
		return res, err
	}
	a.log.Printf("%s: %s", in.Kind, a.status)
	return res, nil
}

func writeDiff(w io.Writer, diffs []diffmatchpatch.Diff) {
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			fmt.Fprintf(w, "-%q\n", d.Text)
		case diffmatchpatch.DiffInsert:
			fmt.Fprintf(w, "+%q\n", d.Text)
		}
	}
}
