package recognizer

import (
	"bufio"
	"io"
	"strings"
)

// Reader supplies input to a Recognizer one unit at a time. After each
// successful Read, Data returns the new unit and EOF reports whether it was
// the last one.
type Reader interface {
	Read() error
	EOF() bool
	// CharacterStream reports whether Data is text in Encoding. Binary
	// streams are matched byte for byte.
	CharacterStream() bool
	Encoding() string
	Data() []byte
	WithDisableThreshold() bool
	WithExhaustion() bool
	WithNewline() bool
}

// ReaderConfig holds the flags a StreamReader reports to the recognizer.
type ReaderConfig struct {
	Binary           bool
	Encoding         string
	DisableThreshold bool
	Exhaustion       bool
	Newline          bool
	// ChunkSize is the unit size of binary streams.
	ChunkSize int
}

const defaultChunkSize = 4096

// StreamReader adapts an io.Reader. Character streams are delivered line by
// line, binary streams in chunks.
type StreamReader struct {
	cfg  ReaderConfig
	r    *bufio.Reader
	data []byte
	eof  bool
}

func NewStreamReader(r io.Reader, cfg ReaderConfig) *StreamReader {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	return &StreamReader{cfg: cfg, r: bufio.NewReader(r)}
}

// NewStringReader returns a character stream over s.
func NewStringReader(s string, cfg ReaderConfig) *StreamReader {
	return NewStreamReader(strings.NewReader(s), cfg)
}

func (s *StreamReader) Read() error {
	if s.eof {
		s.data = nil
		return nil
	}
	var err error
	if s.cfg.Binary {
		buf := make([]byte, s.cfg.ChunkSize)
		var n int
		n, err = io.ReadFull(s.r, buf)
		s.data = buf[:n]
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
	} else {
		s.data, err = s.r.ReadBytes('\n')
	}
	if err == io.EOF {
		s.eof = true
		return nil
	}
	return err
}

func (s *StreamReader) EOF() bool { return s.eof }
func (s *StreamReader) CharacterStream() bool { return !s.cfg.Binary }
func (s *StreamReader) Encoding() string { return s.cfg.Encoding }
func (s *StreamReader) Data() []byte { return s.data }
func (s *StreamReader) WithDisableThreshold() bool { return s.cfg.DisableThreshold }
func (s *StreamReader) WithExhaustion() bool { return s.cfg.Exhaustion }
func (s *StreamReader) WithNewline() bool { return s.cfg.Newline }
