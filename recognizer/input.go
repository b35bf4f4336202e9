package recognizer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// DefaultThreshold bounds how far a terminal match may read ahead before the
// recognizer settles for the match it has.
const DefaultThreshold = 64 * 1024

// input accumulates the units pulled from a Reader. Character streams are
// converted to UTF-8 so that matching always happens on UTF-8 text.
type input struct {
	reader  Reader
	buf     []byte
	eof     bool
	decoder transform.Transformer
	pending []byte
	pulls   int
}

func newInput(r Reader) (*input, error) {
	in := &input{reader: r}
	if !r.CharacterStream() {
		return in, nil
	}
	enc, err := lookupEncoding(r.Encoding())
	if err != nil {
		return nil, err
	}
	if enc != nil {
		in.decoder = enc.NewDecoder()
	}
	return in, nil
}

// lookupEncoding resolves an encoding name. UTF-8 (and the empty name) need
// no conversion and yield nil.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "")) {
	case "", "utf8":
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err == nil && enc != nil {
		return enc, nil
	}
	enc, err = htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}
	return enc, nil
}

func (in *input) pull() error {
	if err := in.reader.Read(); err != nil {
		return &ReadError{Offset: len(in.buf), Err: errors.WithStack(err)}
	}
	in.pulls++
	in.eof = in.reader.EOF()
	data := in.reader.Data()
	if in.decoder == nil {
		in.buf = append(in.buf, data...)
		return nil
	}
	if err := in.decode(data); err != nil {
		return &ReadError{Offset: len(in.buf), Err: errors.Wrap(err, "decode input")}
	}
	return nil
}

func (in *input) decode(data []byte) error {
	src := append(in.pending, data...)
	in.pending = nil
	dst := make([]byte, 2*len(src)+utf8.UTFMax)
	for {
		nDst, nSrc, err := in.decoder.Transform(dst, src, in.eof)
		in.buf = append(in.buf, dst[:nDst]...)
		src = src[nSrc:]
		switch err {
		case nil:
			return nil
		case transform.ErrShortDst:
			if nDst == 0 {
				dst = make([]byte, 2*len(dst))
			}
		case transform.ErrShortSrc:
			if in.eof {
				return fmt.Errorf("truncated input: %d trailing bytes", len(src))
			}
			in.pending = append([]byte(nil), src...)
			return nil
		default:
			return err
		}
	}
}

// Position is a location in the input. Line and Column are 1-based and only
// tracked when the reader asks for newline counting.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	if p.Line == 0 {
		return fmt.Sprintf("offset %d", p.Offset)
	}
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// lineCounter tracks newlines incrementally as the recognizer advances.
type lineCounter struct {
	enabled   bool
	character bool
	offset    int
	line      int
	lineStart int
}

func (c *lineCounter) position(buf []byte, offset int) Position {
	if !c.enabled {
		return Position{Offset: offset}
	}
	if offset < c.offset {
		c.offset, c.line, c.lineStart = 0, 1, 0
	}
	for ; c.offset < offset; c.offset++ {
		if buf[c.offset] == '\n' {
			c.line++
			c.lineStart = c.offset + 1
		}
	}
	column := offset - c.lineStart + 1
	if c.character {
		column = utf8.RuneCount(buf[c.lineStart:offset]) + 1
	}
	return Position{Offset: offset, Line: c.line, Column: column}
}
