package cpu

import (
	"fmt"
	"strings"
)

// CodeOp is the 4-bit opcode held in the low nibble of an instruction's
// first byte.
type CodeOp uint8

const (
	OP_BITREVERSE = CodeOp(1)  // BITREVERSE
	OP_WRITE_MEM  = CodeOp(7)  // WRITE_MEM
	OP_READ_MEM   = CodeOp(10) // READ_MEM
	OP_LOAD_CONST = CodeOp(12) // LOAD_CONST
)

const (
	OP_MASK  = 0xf // Mask of the opcode nibble.
	OP_WIDTH = 4   // Width of the opcode nibble.
)

// CodeInfo describes the fixed encoding of an opcode.
type CodeInfo struct {
	Mnemonic string // Upper case assembler mnemonic.
	Size     int    // Instruction size, in bytes.
	WidthB   uint   // Width of operand B, in bits.
	WidthC   uint   // Width of operand C, in bits.
}

// ShiftB returns the bit position of operand B.
func (ci CodeInfo) ShiftB() uint {
	return OP_WIDTH
}

// ShiftC returns the bit position of operand C.
func (ci CodeInfo) ShiftC() uint {
	return OP_WIDTH + ci.WidthB
}

// MaskB returns the unshifted mask of operand B.
func (ci CodeInfo) MaskB() uint32 {
	return (1 << ci.WidthB) - 1
}

// MaskC returns the unshifted mask of operand C.
func (ci CodeInfo) MaskC() uint32 {
	return (1 << ci.WidthC) - 1
}

// codeTable is the instruction catalog, indexed by opcode nibble.
// Entries with a zero Size are not instructions.
var codeTable = [OP_MASK + 1]CodeInfo{
	OP_LOAD_CONST: {Mnemonic: "LOAD_CONST", Size: 4, WidthB: 22, WidthC: 5},
	OP_READ_MEM:   {Mnemonic: "READ_MEM", Size: 4, WidthB: 17, WidthC: 5},
	OP_WRITE_MEM:  {Mnemonic: "WRITE_MEM", Size: 2, WidthB: 5, WidthC: 5},
	OP_BITREVERSE: {Mnemonic: "BITREVERSE", Size: 2, WidthB: 5, WidthC: 5},
}

// mnemonicMap maps assembler mnemonics to opcodes.
var mnemonicMap = func() map[string]CodeOp {
	mnemonics := map[string]CodeOp{}
	for op, info := range codeTable {
		if info.Size != 0 {
			mnemonics[info.Mnemonic] = CodeOp(op)
		}
	}
	return mnemonics
}()

// Valid returns true if the opcode is part of the instruction set.
func (op CodeOp) Valid() bool {
	return int(op) < len(codeTable) && codeTable[op].Size != 0
}

// Info returns the encoding of the opcode.
func (op CodeOp) Info() (info CodeInfo, ok bool) {
	if !op.Valid() {
		return
	}

	return codeTable[op], true
}

// Size returns the instruction size in bytes, or 0 for an unknown opcode.
func (op CodeOp) Size() int {
	info, _ := op.Info()
	return info.Size
}

func (op CodeOp) String() string {
	info, ok := op.Info()
	if !ok {
		return fmt.Sprintf("CodeOp(%d)", uint8(op))
	}
	return info.Mnemonic
}

// LookupMnemonic returns the opcode for a mnemonic, ignoring case.
func LookupMnemonic(mnemonic string) (op CodeOp, ok bool) {
	op, ok = mnemonicMap[strings.ToUpper(mnemonic)]
	return
}

// Opcodes returns the opcodes of the instruction set, in ascending order.
func Opcodes() (ops []CodeOp) {
	for op := range codeTable {
		if CodeOp(op).Valid() {
			ops = append(ops, CodeOp(op))
		}
	}
	return
}

// Code is a single decoded instruction.
type Code struct {
	Op CodeOp // Opcode.
	B  uint32 // Operand B.
	C  uint32 // Operand C.
}

// MakeCode creates an instruction, masking the operands to their field widths.
func MakeCode(op CodeOp, b, c uint32) Code {
	info, _ := op.Info()
	return Code{Op: op, B: b & info.MaskB(), C: c & info.MaskC()}
}

// Encode resolves a mnemonic and encodes its operands.
// Operands wider than their fields are silently truncated.
func Encode(mnemonic string, b, c uint32) (data []byte, err error) {
	op, ok := LookupMnemonic(mnemonic)
	if !ok {
		err = ErrMnemonicUnknown
		return
	}

	return Code{Op: op, B: b, C: c}.MarshalBinary()
}

// Size returns the encoded size of the instruction in bytes.
func (code Code) Size() int {
	return code.Op.Size()
}

// Check verifies that the operands fit their fields.
func (code Code) Check() (err error) {
	info, ok := code.Op.Info()
	if !ok {
		return ErrOpcodeUnknown
	}

	if code.B&^info.MaskB() != 0 || code.C&^info.MaskC() != 0 {
		return ErrOperandOverflow
	}

	return
}

// Word returns the packed instruction value, operands masked to their fields.
func (code Code) Word() (word uint32) {
	info, ok := code.Op.Info()
	if !ok {
		return
	}

	word = uint32(code.Op) & OP_MASK
	word |= (code.B & info.MaskB()) << info.ShiftB()
	word |= (code.C & info.MaskC()) << info.ShiftC()

	return
}

// AppendBinary appends the little endian encoding of the instruction.
func (code Code) AppendBinary(data []byte) ([]byte, error) {
	size := code.Size()
	if size == 0 {
		return data, ErrOpcodeUnknown
	}

	word := code.Word()
	for n := range size {
		data = append(data, byte(word>>(8*n)))
	}

	return data, nil
}

// MarshalBinary returns the little endian encoding of the instruction.
func (code Code) MarshalBinary() ([]byte, error) {
	return code.AppendBinary(make([]byte, 0, code.Size()))
}

// Decode decodes the instruction at byte offset ip of buf, and returns it
// along with the offset of the following instruction.
func Decode(buf []byte, ip int) (code Code, next int, err error) {
	defer func() {
		if err != nil {
			err = ErrDecode{Ip: ip, Err: err}
		}
	}()

	if ip < 0 || ip >= len(buf) {
		err = ErrInstructionTruncated
		return
	}

	op := CodeOp(buf[ip] & OP_MASK)
	info, ok := op.Info()
	if !ok {
		err = ErrOpcodeUnknown
		return
	}

	if len(buf)-ip < info.Size {
		err = ErrInstructionTruncated
		return
	}

	var word uint32
	for n := range info.Size {
		word |= uint32(buf[ip+n]) << (8 * n)
	}

	code = Code{
		Op: op,
		B:  (word >> info.ShiftB()) & info.MaskB(),
		C:  (word >> info.ShiftC()) & info.MaskC(),
	}
	next = ip + info.Size

	return
}

// String returns the assembly language representation of this instruction.
func (code Code) String() string {
	return fmt.Sprintf("%v %d, %d", code.Op, code.B, code.C)
}
