package io

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode is canonical, so equal machine states encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("io: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Snapshot is the complete machine state at the end of a run.
type Snapshot struct {
	Ip        int      `cbor:"ip"`
	Ticks     int      `cbor:"ticks"`
	Registers []uint32 `cbor:"registers"`
	Memory    []uint32 `cbor:"memory"`
	Fault     string   `cbor:"fault,omitempty"`
}

// snapshot has the fields of Snapshot without its methods, so the CBOR
// codec does not call back into MarshalBinary or UnmarshalBinary.
type snapshot Snapshot

var _ io.ReaderFrom = (*Snapshot)(nil)
var _ io.WriterTo = (*Snapshot)(nil)

// MarshalBinary serializes the snapshot to CBOR.
func (snap *Snapshot) MarshalBinary() ([]byte, error) {
	return cborEncMode.Marshal((*snapshot)(snap))
}

// UnmarshalBinary deserializes the snapshot from CBOR.
func (snap *Snapshot) UnmarshalBinary(data []byte) error {
	if err := cbor.Unmarshal(data, (*snapshot)(snap)); err != nil {
		return fmt.Errorf("io: unmarshal snapshot: %w", err)
	}
	return nil
}

// WriteTo writes the CBOR encoding of the snapshot.
func (snap *Snapshot) WriteTo(w io.Writer) (n int64, err error) {
	data, err := snap.MarshalBinary()
	if err != nil {
		return
	}

	written, err := w.Write(data)
	n = int64(written)
	return
}

// ReadFrom reads a CBOR encoded snapshot.
func (snap *Snapshot) ReadFrom(r io.Reader) (n int64, err error) {
	data, err := io.ReadAll(r)
	n = int64(len(data))
	if err != nil {
		return
	}

	err = snap.UnmarshalBinary(data)
	return
}
