package cargoline

import (
	"io"
)

// Source is a positioned character source for one transcoding call.
//
// The engine pulls one byte at a time and may rewind to a previously
// observed offset; the JSON attributes-first protocol depends on the
// rewind. Buffering, decoding from non-UTF-8 encodings, and any blocking
// behavior belong to the collaborator behind this interface.
type Source interface {
	// ReadByte returns the next byte, or io.EOF after the last one.
	ReadByte() (byte, error)
	// Offset reports the number of bytes consumed so far.
	Offset() int
	// Rewind repositions the source at a previously returned offset.
	Rewind(offset int) error
}

// bytesSource serves a fully-buffered document.
type bytesSource struct {
	data []byte
	pos  int
}

// NewBytesSource returns a Source reading from data.
func NewBytesSource(data []byte) Source {
	return &bytesSource{data: data}
}

// ReadAll drains r and returns a rewindable Source over its contents.
func ReadAll(r io.Reader) (Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &bytesSource{data: data}, nil
}

func (s *bytesSource) ReadByte() (byte, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}

func (s *bytesSource) Offset() int {
	return s.pos
}

func (s *bytesSource) Rewind(offset int) error {
	if offset < 0 || offset > len(s.data) {
		return io.ErrUnexpectedEOF
	}
	s.pos = offset
	return nil
}
