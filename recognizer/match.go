package recognizer

import (
	"bytes"
	"unicode/utf8"

	"github.com/dhamidi/eslif/grammar"
)

type matchResult int

const (
	matchFailure matchResult = iota
	matchOK
	// matchAgain asks for more input before the result can be decided.
	matchAgain
)

func (m matchResult) String() string {
	switch m {
	case matchOK:
		return "ok"
	case matchAgain:
		return "again"
	default:
		return "failure"
	}
}

// matchPattern matches p at the start of data. more reports whether the
// reader can still deliver input that would extend data.
func matchPattern(p *grammar.Pattern, data []byte, more bool) (int, matchResult) {
	switch p.Kind {
	case grammar.StringPattern:
		return matchString(p, data, more)
	case grammar.ClassPattern:
		if more && (len(data) == 0 || !utf8.FullRune(data)) {
			return 0, matchAgain
		}
		return matchRegexp(p, data, false)
	default:
		return matchRegexp(p, data, more)
	}
}

func matchString(p *grammar.Pattern, data []byte, more bool) (int, matchResult) {
	lit := []byte(p.Literal)
	equal := bytes.Equal
	if p.Fold() {
		equal = bytes.EqualFold
	}
	if len(data) >= len(lit) {
		if equal(data[:len(lit)], lit) {
			return len(lit), matchOK
		}
		return 0, matchFailure
	}
	if more && equal(data, lit[:len(data)]) {
		return 0, matchAgain
	}
	return 0, matchFailure
}

// matchRegexp asks for more input while some match could still extend
// past data, so the result does not depend on how input is chunked.
func matchRegexp(p *grammar.Pattern, data []byte, more bool) (int, matchResult) {
	if more && p.Extendable(data) {
		return 0, matchAgain
	}
	loc := p.Regexp().FindIndex(data)
	if loc != nil && loc[1] > 0 {
		return loc[1], matchOK
	}
	return 0, matchFailure
}
