package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"slices"
	"strconv"
)

// DumpFormat selects the encoding of a memory dump.
type DumpFormat int

const (
	DUMP_JSON = DumpFormat(0) // json
	DUMP_TEXT = DumpFormat(1) // text
)

var dumpFormatMap = map[string]DumpFormat{
	"json": DUMP_JSON,
	"text": DUMP_TEXT,
}

// ParseDumpFormat returns the dump format for a name.
func ParseDumpFormat(name string) (format DumpFormat, err error) {
	format, ok := dumpFormatMap[name]
	if !ok {
		err = ErrDumpFormat(name)
	}
	return
}

func (df DumpFormat) String() string {
	for name, format := range dumpFormatMap {
		if format == df {
			return name
		}
	}
	return fmt.Sprintf("DumpFormat(%d)", int(df))
}

// Cell is a single data memory cell.
type Cell struct {
	Addr  int
	Value uint32
}

// Dump is a snapshot of a range of data memory, in ascending address order.
type Dump struct {
	Format DumpFormat
	Cells  []Cell
}

var _ io.WriterTo = (*Dump)(nil)

// NewDump collects memory cells into a dump.
func NewDump(cells iter.Seq2[int, uint32]) (dump *Dump) {
	dump = &Dump{}
	for addr, value := range cells {
		dump.Cells = append(dump.Cells, Cell{Addr: addr, Value: value})
	}

	return
}

// MarshalJSON encodes the dump as an object of decimal addresses to values,
// keeping address order.
func (dump *Dump) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')
	for n, cell := range dump.Cells {
		if n > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, `"%d":%d`, cell.Addr, cell.Value)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of decimal addresses to values.
func (dump *Dump) UnmarshalJSON(data []byte) (err error) {
	var values map[string]uint32
	err = json.Unmarshal(data, &values)
	if err != nil {
		return
	}

	cells := make([]Cell, 0, len(values))
	for key, value := range values {
		var addr int
		addr, err = strconv.Atoi(key)
		if err != nil {
			return
		}
		cells = append(cells, Cell{Addr: addr, Value: value})
	}
	slices.SortFunc(cells, func(a, b Cell) int { return a.Addr - b.Addr })

	dump.Cells = cells
	return
}

// WriteTo writes the dump in its format.
// JSON is indented by four spaces; text is one 'addr: value' line per cell.
func (dump *Dump) WriteTo(w io.Writer) (n int64, err error) {
	var buf bytes.Buffer

	switch dump.Format {
	case DUMP_JSON:
		var data []byte
		data, err = dump.MarshalJSON()
		if err != nil {
			return
		}
		err = json.Indent(&buf, data, "", "    ")
		if err != nil {
			return
		}
	case DUMP_TEXT:
		for _, cell := range dump.Cells {
			fmt.Fprintf(&buf, "%d: %d\n", cell.Addr, cell.Value)
		}
	default:
		err = ErrDumpFormat(dump.Format.String())
		return
	}

	return buf.WriteTo(w)
}
