package lsp

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dhamidi/eslif/ebnf"
	"github.com/dhamidi/eslif/grammar"
)

// Workspace holds the grammar documents open in the editor.
type Workspace struct {
	mu   sync.RWMutex
	ebnf ebnf.Options
	docs map[string]*Document
}

// Document is one grammar source. Grammar is the last version that
// compiled, so completion keeps working while the user types.
type Document struct {
	Path    string
	Content string
	Grammar *grammar.Grammar
	Errors  []error
}

func NewWorkspace(opts ebnf.Options) *Workspace {
	return &Workspace{
		ebnf: opts,
		docs: make(map[string]*Document),
	}
}

// Update compiles new content for path and returns the document.
func (w *Workspace) Update(path, content string) *Document {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc, ok := w.docs[path]
	if !ok {
		doc = &Document{Path: path}
		w.docs[path] = doc
	}
	doc.Content = content
	g, errs := w.compile(path, content)
	doc.Errors = errs
	if g != nil {
		doc.Grammar = g
	}
	return doc
}

func (w *Workspace) Remove(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.docs, path)
}

func (w *Workspace) Get(path string) *Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.docs[path]
}

func (w *Workspace) compile(path, content string) (*grammar.Grammar, []error) {
	var def *grammar.Definition
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ebnf":
		def, err = ebnf.Parse(path, strings.NewReader(content), w.ebnf)
		if err != nil {
			return nil, ebnf.Errors(err)
		}
	case ".yaml", ".yml":
		def, err = grammar.ParseYAML(path, strings.NewReader(content))
	default:
		def, err = grammar.Parse(path, strings.NewReader(content))
	}
	if err != nil {
		return nil, []error{err}
	}
	g, err := grammar.Build(def)
	if err != nil {
		return nil, []error{err}
	}
	return g, nil
}

var (
	positioned = regexp.MustCompile(`^(?:.*?):(\d+):(\d+): (.*)$`)
	yamlLine   = regexp.MustCompile(`line (\d+)`)
)

// locate finds the 1-based line and column an error refers to. Errors
// without a position are reported on the first line.
func locate(err error) (line, column int, message string) {
	var cerr *grammar.CompileError
	if errors.As(err, &cerr) && cerr.Location.Line > 0 {
		return cerr.Location.Line, cerr.Location.Column, fmt.Sprintf("%s: %s", cerr.Kind, cerr.Message)
	}
	msg := err.Error()
	if cerr != nil {
		msg = cerr.Message
	}
	if m := positioned.FindStringSubmatch(msg); m != nil {
		line, _ = strconv.Atoi(m[1])
		column, _ = strconv.Atoi(m[2])
		return line, column, m[3]
	}
	if m := yamlLine.FindStringSubmatch(msg); m != nil {
		line, _ = strconv.Atoi(m[1])
		return line, 1, msg
	}
	return 1, 1, msg
}

// Diagnostics converts the document's errors. Each range covers the word at
// the error position.
func (d *Document) Diagnostics() []protocol.Diagnostic {
	lines := strings.Split(d.Content, "\n")
	severity := protocol.DiagnosticSeverityError
	source := lsName
	diags := make([]protocol.Diagnostic, 0, len(d.Errors))
	for _, err := range d.Errors {
		line, column, msg := locate(err)
		if line < 1 {
			line = 1
		}
		if column < 1 {
			column = 1
		}
		end := column
		if line <= len(lines) {
			end = wordEnd(lines[line-1], column-1) + 1
		}
		if end <= column {
			end = column + 1
		}
		diags = append(diags, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: protocol.UInteger(line - 1), Character: protocol.UInteger(column - 1)},
				End:   protocol.Position{Line: protocol.UInteger(line - 1), Character: protocol.UInteger(end - 1)},
			},
			Severity: &severity,
			Source:   &source,
			Message:  msg,
		})
	}
	return diags
}

func isWordChar(r rune) bool {
	return r == '_' || r == ':' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func wordEnd(line string, from int) int {
	runes := []rune(line)
	i := from
	for i >= 0 && i < len(runes) && isWordChar(runes[i]) {
		i++
	}
	return i
}

// WordAt returns the word ending at or containing the 0-based position.
func (d *Document) WordAt(line, character int) (word string, start int) {
	lines := strings.Split(d.Content, "\n")
	if line < 0 || line >= len(lines) {
		return "", character
	}
	runes := []rune(lines[line])
	if character > len(runes) {
		character = len(runes)
	}
	start = character
	for start > 0 && isWordChar(runes[start-1]) {
		start--
	}
	end := character
	for end < len(runes) && isWordChar(runes[end]) {
		end++
	}
	return string(runes[start:end]), start
}

// Completion is a symbol name offered at a position.
type Completion struct {
	Label  string
	Detail string
	Lexeme bool
}

var pseudoSymbols = []string{":start", ":desc", ":discard"}

// Completions lists the symbols of the document's grammar that start with
// the word before the 0-based position.
func (d *Document) Completions(line, character int) []Completion {
	word, start := d.WordAt(line, character)
	prefix := word
	if n := character - start; n < len([]rune(word)) {
		prefix = string([]rune(word)[:n])
	}

	seen := make(map[string]bool)
	var out []Completion
	add := func(c Completion) {
		if seen[c.Label] || !strings.HasPrefix(c.Label, prefix) {
			return
		}
		seen[c.Label] = true
		out = append(out, c)
	}
	if d.Grammar != nil {
		for i := 0; i < d.Grammar.LevelCount(); i++ {
			syms, _ := d.Grammar.SymbolsAt(i)
			for _, s := range syms {
				if s.IsTerminal() || s.IsDiscard() {
					continue
				}
				add(Completion{
					Label:  s.Name,
					Detail: fmt.Sprintf("level %d %s", i, s.Kind),
					Lexeme: s.Lexeme,
				})
			}
		}
	}
	for _, name := range pseudoSymbols {
		add(Completion{Label: name, Detail: "pseudo rule"})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Hover shows the rules of the symbol under the 0-based position, level by
// level.
func (d *Document) Hover(line, character int) string {
	word, _ := d.WordAt(line, character)
	if word == "" || d.Grammar == nil {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < d.Grammar.LevelCount(); i++ {
		l, _ := d.Grammar.Level(i)
		sym, ok := l.Symbol(word)
		if !ok {
			continue
		}
		for _, r := range l.RulesFor(sym) {
			sb.WriteString(r.Show())
			sb.WriteByte('\n')
		}
		if sym.Lexeme {
			fmt.Fprintf(&sb, "%s is a lexeme matched at level %d\n", sym.Display(), i+1)
		}
	}
	return sb.String()
}
