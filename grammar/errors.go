package grammar

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedLevel is returned when a level outside [0, LevelCount) is requested.
	ErrUnsupportedLevel = errors.New("unsupported grammar level")
	// ErrUnknownRule is returned when a rule id does not exist at the requested level.
	ErrUnknownRule = errors.New("unknown rule")
)

// ErrorKind classifies compile errors.
type ErrorKind int

const (
	SyntaxError ErrorKind = iota
	UndefinedSymbol
	AmbiguousStart
	CycleWithoutBase
	MissingLevel
	DuplicateRule
)

func (k ErrorKind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case UndefinedSymbol:
		return "undefined symbol"
	case AmbiguousStart:
		return "ambiguous start"
	case CycleWithoutBase:
		return "cycle without base"
	case MissingLevel:
		return "missing level"
	case DuplicateRule:
		return "duplicate rule"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Location is a position in a grammar source.
type Location struct {
	Filename string
	Line     int
	Column   int
}

func (l Location) String() string {
	name := l.Filename
	if name == "" {
		name = "<input>"
	}
	if l.Line == 0 {
		return name
	}
	return fmt.Sprintf("%s:%d:%d", name, l.Line, l.Column)
}

// CompileError describes why a grammar description was rejected.
type CompileError struct {
	Kind     ErrorKind
	Location Location
	Message  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Location, e.Kind, e.Message)
}

func errorf(kind ErrorKind, loc Location, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, Location: loc, Message: fmt.Sprintf(format, args...)}
}
