package recognizer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoParse is matched by every error that means the input has no complete
// derivation of the start symbol.
var ErrNoParse = errors.New("no parse")

// ReadError wraps a failure of the Reader.
type ReadError struct {
	Offset int
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read input at offset %d: %v", e.Offset, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ParseError reports where recognition stopped without a parse.
type ParseError struct {
	Position Position
	Level    int
	// Expected lists the symbols that could have been scanned.
	Expected []string
	// Found is a short excerpt of the offending input; empty at end of input.
	Found string
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "parse error at %s: ", e.Position)
	if e.Found == "" {
		sb.WriteString("unexpected end of input")
	} else {
		fmt.Fprintf(&sb, "unexpected %q", e.Found)
	}
	if len(e.Expected) > 0 {
		fmt.Fprintf(&sb, ", expected %s", strings.Join(e.Expected, " or "))
	}
	return sb.String()
}

func (e *ParseError) Unwrap() error { return ErrNoParse }

// Exhaustion describes where a recognizer with exhaustion detection stopped
// because no rule could consume more input.
type Exhaustion struct {
	Position Position
	Expected []string
	// Complete reports whether a prefix of the input was recognized.
	Complete bool
}

func (e *Exhaustion) String() string {
	return fmt.Sprintf("exhausted at %s", e.Position)
}
