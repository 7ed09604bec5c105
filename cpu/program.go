package cpu

import (
	"fmt"
	"iter"
	"strings"
)

// Opcode represents a line of assembled code with its source location and
// its byte offset in the program image.
type Opcode struct {
	LineNo int
	Ip     int
	Words  []string
	Code   Code
}

type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Index int // Byte index into the opcode's encoding.
}

// Debug returns the opcode whose encoding covers byte offset ip.
func (prog *Program) Debug(ip int) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if ip >= op.Ip && ip < op.Ip+op.Code.Size() {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  ip - op.Ip,
			}
			break
		}
	}

	return
}

// Size returns the size of the program image in bytes.
func (prog *Program) Size() (size int) {
	for _, op := range prog.Opcodes {
		size += op.Code.Size()
	}

	return
}

// Binary returns the program image.
// An opcode that is not part of the instruction set, or whose operands do
// not fit their fields, fails with an ErrFault at its offset in the image.
func (prog *Program) Binary() (bins []byte, err error) {
	bins = make([]byte, 0, prog.Size())
	for _, code := range prog.Codes() {
		err = code.Check()
		if err != nil {
			return nil, ErrFault{Ip: len(bins), Code: code, Err: err}
		}
		// Check has already rejected unknown opcodes.
		bins, _ = code.AppendBinary(bins)
	}

	return
}

// Codes iterates over the instructions of the program, with their byte offsets.
func (prog *Program) Codes() iter.Seq2[int, Code] {
	return func(yield func(ip int, code Code) bool) {
		for _, op := range prog.Opcodes {
			if !yield(op.Ip, op.Code) {
				return
			}
		}
	}
}

// Disassemble decodes a program image.
// On a decode error, the program decoded so far is returned with the error.
func Disassemble(buf []byte) (prog *Program, err error) {
	prog = &Program{}

	for ip := 0; ip < len(buf); {
		var code Code
		var next int
		code, next, err = Decode(buf, ip)
		if err != nil {
			return
		}

		prog.Opcodes = append(prog.Opcodes, Opcode{
			Ip:    ip,
			Words: strings.Fields(strings.ReplaceAll(code.String(), ",", "")),
			Code:  code,
		})
		ip = next
	}

	return
}

// Listing returns the program as assembly text, one instruction per line,
// each commented with its offset and encoding.
func (prog *Program) Listing() string {
	var text strings.Builder

	for _, op := range prog.Opcodes {
		bin, _ := op.Code.MarshalBinary()
		fmt.Fprintf(&text, "%v ; %04X: % X\n", op.Code, op.Ip, bin)
	}

	return text.String()
}
