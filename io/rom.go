// Package io provides persistence for the UVM tools: program images,
// memory dumps, and machine snapshots.
package io

import (
	"io"
)

// Rom is a program image. It has no header: the first byte is the start
// of the first instruction.
type Rom struct {
	Data []byte
}

var _ io.ReaderFrom = (*Rom)(nil)
var _ io.WriterTo = (*Rom)(nil)

// ReadFrom replaces the image with the whole content of the reader.
func (rc *Rom) ReadFrom(r io.Reader) (n int64, err error) {
	data, err := io.ReadAll(r)
	n = int64(len(data))
	if err != nil {
		return
	}

	rc.Data = data
	return
}

// WriteTo writes the image.
func (rc *Rom) WriteTo(w io.Writer) (n int64, err error) {
	written, err := w.Write(rc.Data)
	n = int64(written)
	return
}

// Empty returns true if the image holds no instructions.
func (rc *Rom) Empty() bool {
	return len(rc.Data) == 0
}
