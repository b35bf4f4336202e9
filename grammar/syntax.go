package grammar

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokName
	tokPseudo
	tokOp
	tokBar
	tokBarBar
	tokQuant
	tokArrow
	tokSemi
	tokTerminal
	tokInt
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokName:
		return "symbol name"
	case tokPseudo:
		return "pseudo symbol"
	case tokOp:
		return "rule operator"
	case tokBar:
		return "'|'"
	case tokBarBar:
		return "'||'"
	case tokQuant:
		return "quantifier"
	case tokArrow:
		return "'=>'"
	case tokSemi:
		return "';'"
	case tokTerminal:
		return "terminal"
	case tokInt:
		return "integer"
	default:
		return "token"
	}
}

type token struct {
	kind    tokenKind
	text    string
	level   int
	pattern *Pattern
	loc     Location
}

// scanner splits grammar source into tokens.
type scanner struct {
	filename string
	src      string
	pos      int
	line     int
	column   int
}

func (s *scanner) location() Location {
	return Location{Filename: s.filename, Line: s.line, Column: s.column}
}

func (s *scanner) peek() rune {
	if s.pos >= len(s.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(s.src[s.pos:])
	return r
}

func (s *scanner) peekAt(n int) byte {
	if s.pos+n >= len(s.src) {
		return 0
	}
	return s.src[s.pos+n]
}

func (s *scanner) advance() rune {
	if s.pos >= len(s.src) {
		return -1
	}
	r, size := utf8.DecodeRuneInString(s.src[s.pos:])
	s.pos += size
	if r == '\n' {
		s.line++
		s.column = 1
	} else {
		s.column++
	}
	return r
}

func (s *scanner) skipSpace() {
	for {
		r := s.peek()
		switch {
		case r == '#':
			for r := s.peek(); r != -1 && r != '\n'; r = s.peek() {
				s.advance()
			}
		case r != -1 && unicode.IsSpace(r):
			s.advance()
		default:
			return
		}
	}
}

func (s *scanner) next() (token, error) {
	s.skipSpace()
	loc := s.location()
	r := s.peek()
	switch {
	case r == -1:
		return token{kind: tokEOF, loc: loc}, nil
	case r == '|' && s.peekAt(1) == '|':
		s.advance()
		s.advance()
		return token{kind: tokBarBar, text: "||", loc: loc}, nil
	case r == '|':
		s.advance()
		return token{kind: tokBar, text: "|", loc: loc}, nil
	case r == '+' || r == '*':
		s.advance()
		return token{kind: tokQuant, text: string(r), loc: loc}, nil
	case r == ';':
		s.advance()
		return token{kind: tokSemi, text: ";", loc: loc}, nil
	case r == '~':
		s.advance()
		return token{kind: tokOp, text: "~", level: 1, loc: loc}, nil
	case r == '=' && s.peekAt(1) == '>':
		s.advance()
		s.advance()
		return token{kind: tokArrow, text: "=>", loc: loc}, nil
	case r == ':':
		return s.colon(loc)
	case r == '<':
		return s.bracketName(loc)
	case r == '\'' || r == '"':
		return s.str(loc)
	case r == '[':
		return s.class(loc)
	case r == '/':
		return s.regex(loc)
	case r == '-' || unicode.IsDigit(r):
		start := s.pos
		s.advance()
		for unicode.IsDigit(s.peek()) {
			s.advance()
		}
		text := s.src[start:s.pos]
		if text == "-" {
			return token{}, errorf(SyntaxError, loc, "expected digits after '-'")
		}
		return token{kind: tokInt, text: text, loc: loc}, nil
	case r == '_' || unicode.IsLetter(r):
		name := s.ident()
		if name == "null" && strings.HasPrefix(s.src[s.pos:], "-ranking") {
			for i := 0; i < len("-ranking"); i++ {
				s.advance()
			}
			name = "null-ranking"
		}
		return token{kind: tokName, text: name, loc: loc}, nil
	}
	return token{}, errorf(SyntaxError, loc, "unexpected character %q", r)
}

func (s *scanner) ident() string {
	start := s.pos
	for r := s.peek(); r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r); r = s.peek() {
		s.advance()
	}
	return s.src[start:s.pos]
}

func (s *scanner) colon(loc Location) (token, error) {
	rest := s.src[s.pos:]
	switch {
	case strings.HasPrefix(rest, "::="):
		s.advance()
		s.advance()
		s.advance()
		return token{kind: tokOp, text: "::=", level: 0, loc: loc}, nil
	case strings.HasPrefix(rest, ":["):
		end := strings.Index(rest, "]:=")
		if end < 0 {
			return token{}, errorf(SyntaxError, loc, "unterminated level operator")
		}
		level, err := strconv.Atoi(rest[2:end])
		if err != nil || level < 0 {
			return token{}, errorf(SyntaxError, loc, "invalid level in %q", rest[:end+3])
		}
		for i := 0; i < end+3; i++ {
			s.advance()
		}
		return token{kind: tokOp, text: rest[:end+3], level: level, loc: loc}, nil
	}
	s.advance()
	r := s.peek()
	if r != '_' && !unicode.IsLetter(r) {
		return token{}, errorf(SyntaxError, loc, "expected name after ':'")
	}
	return token{kind: tokPseudo, text: ":" + s.ident(), loc: loc}, nil
}

func (s *scanner) bracketName(loc Location) (token, error) {
	s.advance()
	start := s.pos
	for r := s.peek(); r != '>'; r = s.peek() {
		if r == -1 || r == '\n' {
			return token{}, errorf(SyntaxError, loc, "unterminated <name>")
		}
		s.advance()
	}
	name := strings.Join(strings.Fields(s.src[start:s.pos]), " ")
	s.advance()
	if name == "" {
		return token{}, errorf(SyntaxError, loc, "empty <name>")
	}
	return token{kind: tokName, text: name, loc: loc}, nil
}

// fold consumes an optional ":i" suffix.
func (s *scanner) fold() string {
	if s.peekAt(0) == ':' && s.peekAt(1) == 'i' {
		next := s.pos + 2
		if next >= len(s.src) || !isIdentByte(s.src[next]) {
			s.advance()
			s.advance()
			return "i"
		}
	}
	return ""
}

func isIdentByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func (s *scanner) str(loc Location) (token, error) {
	quote := s.advance()
	var sb strings.Builder
	for {
		r := s.advance()
		switch r {
		case -1, '\n':
			return token{}, errorf(SyntaxError, loc, "unterminated string")
		case quote:
			p := &Pattern{Kind: StringPattern, Literal: sb.String(), Flags: s.fold()}
			return token{kind: tokTerminal, pattern: p, loc: loc}, nil
		case '\\':
			e := s.advance()
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 'x':
				hex := string([]rune{s.advance(), s.advance()})
				v, err := strconv.ParseUint(hex, 16, 8)
				if err != nil {
					return token{}, errorf(SyntaxError, loc, "invalid escape \\x%s", hex)
				}
				sb.WriteByte(byte(v))
			case -1:
				return token{}, errorf(SyntaxError, loc, "unterminated string")
			default:
				sb.WriteRune(e)
			}
		default:
			sb.WriteRune(r)
		}
	}
}

func (s *scanner) class(loc Location) (token, error) {
	body, err := s.delimited(loc, ']', "character class")
	if err != nil {
		return token{}, err
	}
	p := &Pattern{Kind: ClassPattern, Literal: body, Flags: s.fold()}
	return token{kind: tokTerminal, pattern: p, loc: loc}, nil
}

func (s *scanner) regex(loc Location) (token, error) {
	body, err := s.delimited(loc, '/', "regular expression")
	if err != nil {
		return token{}, err
	}
	start := s.pos
	for r := s.peek(); r != -1 && unicode.IsLetter(r); r = s.peek() {
		s.advance()
	}
	p := &Pattern{Kind: RegexPattern, Literal: body, Flags: s.src[start:s.pos]}
	return token{kind: tokTerminal, pattern: p, loc: loc}, nil
}

// delimited returns the raw text up to the unescaped closing delimiter.
// Escapes are kept, the regexp compiler interprets them.
func (s *scanner) delimited(loc Location, closing rune, what string) (string, error) {
	s.advance()
	start := s.pos
	for {
		r := s.peek()
		switch r {
		case -1, '\n':
			return "", errorf(SyntaxError, loc, "unterminated %s", what)
		case '\\':
			s.advance()
			if s.peek() == -1 {
				return "", errorf(SyntaxError, loc, "unterminated %s", what)
			}
		case closing:
			body := s.src[start:s.pos]
			s.advance()
			if body == "" {
				return "", errorf(SyntaxError, loc, "empty %s", what)
			}
			return body, nil
		}
		s.advance()
	}
}

// Parse reads a grammar in the native syntax.
func Parse(filename string, r io.Reader) (*Definition, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read grammar: %w", err)
	}
	return ParseString(filename, string(src))
}

// ParseString is Parse for in-memory sources.
func ParseString(filename, src string) (*Definition, error) {
	tokens, err := tokenize(filename, src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, def: &Definition{Filename: filename}}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.def, nil
}

func tokenize(filename, src string) ([]token, error) {
	s := &scanner{filename: filename, src: src, line: 1, column: 1}
	var tokens []token
	for {
		tok, err := s.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokEOF {
			return tokens, nil
		}
	}
}

type parser struct {
	tokens []token
	pos    int
	def    *Definition
}

func (p *parser) peek(n int) token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *parser) next() token {
	tok := p.peek(0)
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.next()
	if tok.kind != kind {
		return tok, errorf(SyntaxError, tok.loc, "expected %s, found %s", kind, describe(tok))
	}
	return tok, nil
}

func describe(tok token) string {
	switch tok.kind {
	case tokName, tokPseudo, tokOp, tokInt, tokQuant:
		return fmt.Sprintf("%s %q", tok.kind, tok.text)
	case tokTerminal:
		return "terminal " + tok.pattern.Source()
	}
	return tok.kind.String()
}

// ruleStart reports whether the tokens at the cursor begin a new rule.
func (p *parser) ruleStart() bool {
	first := p.peek(0).kind
	return (first == tokName || first == tokPseudo) && p.peek(1).kind == tokOp
}

func (p *parser) parse() error {
	for p.peek(0).kind != tokEOF {
		if err := p.rule(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) rule() error {
	lhs := p.next()
	if lhs.kind != tokName && lhs.kind != tokPseudo {
		return errorf(SyntaxError, lhs.loc, "expected rule, found %s", describe(lhs))
	}
	op, err := p.expect(tokOp)
	if err != nil {
		return err
	}
	alternatives, err := p.alternatives()
	if err != nil {
		return err
	}
	if p.peek(0).kind == tokSemi {
		p.next()
	}

	switch lhs.text {
	case ":start":
		if len(alternatives) != 1 || len(alternatives[0].RHS) != 1 || alternatives[0].RHS[0].Name == "" {
			return errorf(SyntaxError, lhs.loc, ":start takes exactly one symbol")
		}
		p.def.Starts = append(p.def.Starts, StartDefinition{Name: alternatives[0].RHS[0].Name, Location: lhs.loc})
		return nil
	case ":desc":
		if len(alternatives) != 1 || len(alternatives[0].RHS) != 1 || alternatives[0].RHS[0].Pattern == nil ||
			alternatives[0].RHS[0].Pattern.Kind != StringPattern {
			return errorf(SyntaxError, lhs.loc, ":desc takes exactly one string")
		}
		p.def.Descriptions = append(p.def.Descriptions, DescriptionDefinition{
			Level:    op.level,
			Text:     alternatives[0].RHS[0].Pattern.Literal,
			Location: lhs.loc,
		})
		return nil
	case DiscardName:
	default:
		if lhs.kind == tokPseudo {
			return errorf(SyntaxError, lhs.loc, "unknown pseudo rule %s", lhs.text)
		}
	}

	for _, alt := range alternatives {
		alt.Level = op.level
		alt.LHS = lhs.text
		if alt.Location.Line == 0 {
			alt.Location = lhs.loc
		}
		p.def.Rules = append(p.def.Rules, alt)
	}
	return nil
}

func (p *parser) alternatives() ([]RuleDefinition, error) {
	var out []RuleDefinition
	priority := 0
	for {
		loc := p.peek(0).loc
		alt, err := p.alternative()
		if err != nil {
			return nil, err
		}
		alt.Location = loc
		alt.Priority = priority
		if len(alt.RHS) == 0 {
			alt.Location = Location{}
		}
		out = append(out, alt)
		switch p.peek(0).kind {
		case tokBar:
		case tokBarBar:
			priority++
		default:
			return out, nil
		}
		p.next()
	}
}

// alternative reads the terms and adverbs of one alternative.
func (p *parser) alternative() (RuleDefinition, error) {
	var alt RuleDefinition
	for {
		tok := p.peek(0)
		switch {
		case tok.kind == tokEOF, tok.kind == tokBar, tok.kind == tokBarBar, tok.kind == tokSemi, p.ruleStart():
			return alt, nil
		case tok.kind == tokName && p.peek(1).kind == tokArrow:
			p.next()
			p.next()
			if err := p.adverb(&alt, tok); err != nil {
				return alt, err
			}
		case tok.kind == tokQuant:
			p.next()
			if len(alt.RHS) != 1 || alt.Quantifier != NoQuantifier {
				return alt, errorf(SyntaxError, tok.loc, "quantifier %s must follow the only symbol of a sequence rule", tok.text)
			}
			alt.Quantifier = Plus
			if tok.text == "*" {
				alt.Quantifier = Star
			}
		case tok.kind == tokName || tok.kind == tokPseudo || tok.kind == tokTerminal:
			p.next()
			if alt.Quantifier != NoQuantifier {
				return alt, errorf(SyntaxError, tok.loc, "a sequence rule has exactly one item symbol")
			}
			alt.RHS = append(alt.RHS, p.term(tok))
		default:
			return alt, errorf(SyntaxError, tok.loc, "unexpected %s", describe(tok))
		}
	}
}

func (p *parser) term(tok token) TermDefinition {
	if tok.kind == tokTerminal {
		return TermDefinition{Pattern: tok.pattern, Location: tok.loc}
	}
	return TermDefinition{Name: tok.text, Location: tok.loc}
}

// adverb reads the value of `name => value` into alt.
func (p *parser) adverb(alt *RuleDefinition, name token) error {
	value := p.next()
	word := func(choices ...string) (string, error) {
		if value.kind == tokName {
			for _, c := range choices {
				if value.text == c {
					return c, nil
				}
			}
		}
		return "", errorf(SyntaxError, value.loc, "%s takes one of %s, found %s",
			name.text, strings.Join(choices, ", "), describe(value))
	}
	switch name.text {
	case "rank":
		if value.kind != tokInt {
			return errorf(SyntaxError, value.loc, "expected %s, found %s", tokInt, describe(value))
		}
		rank, err := strconv.Atoi(value.text)
		if err != nil {
			return errorf(SyntaxError, value.loc, "invalid rank %q", value.text)
		}
		alt.Rank = rank
	case "proper":
		if value.kind != tokInt || (value.text != "0" && value.text != "1") {
			return errorf(SyntaxError, value.loc, "proper takes 0 or 1, found %s", describe(value))
		}
		alt.Proper = value.text == "1"
	case "separator":
		if value.kind != tokName && value.kind != tokTerminal {
			return errorf(SyntaxError, value.loc, "separator takes a symbol, found %s", describe(value))
		}
		sep := p.term(value)
		alt.Separator = &sep
	case "null-ranking":
		w, err := word("low", "high")
		if err != nil {
			return err
		}
		alt.NullRanking = NullRanksLow
		if w == "high" {
			alt.NullRanking = NullRanksHigh
		}
	case "assoc":
		w, err := word("left", "right", "group")
		if err != nil {
			return err
		}
		alt.Assoc = map[string]Assoc{"left": AssocLeft, "right": AssocRight, "group": AssocGroup}[w]
	default:
		return errorf(SyntaxError, name.loc, "unknown adverb %s", name.text)
	}
	return nil
}

// ParseTerms reads a whitespace separated RHS written in the native syntax.
// It is used by front ends that carry RHS strings, such as YAML grammars.
func ParseTerms(filename string, line int, src string) ([]TermDefinition, error) {
	tokens, err := tokenize(filename, src)
	if err != nil {
		return nil, relocate(err, line)
	}
	p := &parser{tokens: tokens}
	alt, err := p.alternative()
	if err != nil {
		return nil, relocate(err, line)
	}
	plain := alt.Rank == 0 && alt.Quantifier == NoQuantifier && alt.Separator == nil && !alt.Proper &&
		alt.NullRanking == NullRanksLow && alt.Assoc == AssocLeft
	if tok := p.peek(0); tok.kind != tokEOF || !plain {
		return nil, relocate(errorf(SyntaxError, tok.loc, "unexpected %s in right-hand side", describe(tok)), line)
	}
	rhs := alt.RHS
	for i := range rhs {
		if line > 0 {
			rhs[i].Location.Line = line
		}
	}
	return rhs, nil
}

func relocate(err error, line int) error {
	if ce, ok := err.(*CompileError); ok && line > 0 {
		ce.Location.Line = line
	}
	return err
}
