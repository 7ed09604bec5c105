package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOp(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		op       CodeOp
		mnemonic string
		size     int
		widthB   uint
		widthC   uint
	}){
		{OP_LOAD_CONST, "LOAD_CONST", 4, 22, 5},
		{OP_READ_MEM, "READ_MEM", 4, 17, 5},
		{OP_WRITE_MEM, "WRITE_MEM", 2, 5, 5},
		{OP_BITREVERSE, "BITREVERSE", 2, 5, 5},
	}

	for _, entry := range table {
		info, ok := entry.op.Info()
		assert.True(ok, entry.mnemonic)
		assert.Equal(entry.mnemonic, entry.op.String())
		assert.Equal(entry.size, entry.op.Size(), entry.mnemonic)
		assert.Equal(entry.widthB, info.WidthB, entry.mnemonic)
		assert.Equal(entry.widthC, info.WidthC, entry.mnemonic)
		assert.Equal(uint(4), info.ShiftB(), entry.mnemonic)
		assert.Equal(4+entry.widthB, info.ShiftC(), entry.mnemonic)

		op, ok := LookupMnemonic(entry.mnemonic)
		assert.True(ok)
		assert.Equal(entry.op, op)
	}

	assert.Equal([]CodeOp{OP_BITREVERSE, OP_WRITE_MEM, OP_READ_MEM, OP_LOAD_CONST}, Opcodes())

	op, ok := LookupMnemonic("load_const")
	assert.True(ok)
	assert.Equal(OP_LOAD_CONST, op)

	_, ok = LookupMnemonic("JUMP")
	assert.False(ok)

	for _, op := range []CodeOp{0, 2, 3, 4, 5, 6, 8, 9, 11, 13, 14, 15, 16} {
		assert.False(op.Valid(), op.String())
		assert.Equal(0, op.Size())
	}
	assert.Equal("CodeOp(3)", CodeOp(3).String())
}

func TestEncodeLoadConst(t *testing.T) {
	assert := assert.New(t)

	data, err := Encode("LOAD_CONST", 5, 0)
	assert.NoError(err)
	assert.Equal([]byte{0x5c, 0x00, 0x00, 0x00}, data)

	word := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
	assert.Equal(uint32(0xc), word&0xf)
	assert.Equal(uint32(5), (word>>4)&0x3fffff)
	assert.Equal(uint32(0), (word>>26)&0x1f)

	code, next, err := Decode(data, 0)
	assert.NoError(err)
	assert.Equal(4, next)
	assert.Equal(Code{Op: OP_LOAD_CONST, B: 5, C: 0}, code)
}

func TestEncode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		mnemonic string
		b, c     uint32
		data     []byte
	}){
		{"LOAD_CONST", 100, 1, []byte{0x4c, 0x06, 0x00, 0x04}},
		{"LOAD_CONST", 0x3fffff, 0x1f, []byte{0xfc, 0xff, 0xff, 0x7f}},
		{"READ_MEM", 5, 2, []byte{0x5a, 0x00, 0x40, 0x00}},
		{"READ_MEM", 0x1ffff, 0x1f, []byte{0xfa, 0xff, 0xff, 0x03}},
		{"WRITE_MEM", 1, 5, []byte{0x17, 0x0a}},
		{"WRITE_MEM", 0x1f, 0x1f, []byte{0xf7, 0x3f}},
		{"BITREVERSE", 2, 3, []byte{0x21, 0x06}},
	}

	for _, entry := range table {
		data, err := Encode(entry.mnemonic, entry.b, entry.c)
		assert.NoError(err, entry.mnemonic)
		assert.Equal(entry.data, data, entry.mnemonic)
	}

	_, err := Encode("HALT", 0, 0)
	assert.ErrorIs(err, ErrMnemonicUnknown)
}

func TestEncodeTruncates(t *testing.T) {
	assert := assert.New(t)

	// Operands are masked to their field widths.
	data, err := Encode("WRITE_MEM", 0x21, 0x40)
	assert.NoError(err)
	code, _, err := Decode(data, 0)
	assert.NoError(err)
	assert.Equal(Code{Op: OP_WRITE_MEM, B: 1, C: 0}, code)

	data, err = Encode("LOAD_CONST", 0x400005, 0x20)
	assert.NoError(err)
	code, _, err = Decode(data, 0)
	assert.NoError(err)
	assert.Equal(Code{Op: OP_LOAD_CONST, B: 5, C: 0}, code)

	// Overflowing C must not leak into the bit above the field.
	assert.Equal(byte(0), data[3]&0x80)

	assert.Equal(Code{Op: OP_READ_MEM, B: 1, C: 2}, MakeCode(OP_READ_MEM, 0x20001, 0x22))
}

func TestCodeCheck(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(Code{Op: OP_LOAD_CONST, B: 0x3fffff, C: 31}.Check())
	assert.ErrorIs(Code{Op: OP_LOAD_CONST, B: 0x400000}.Check(), ErrOperandOverflow)
	assert.ErrorIs(Code{Op: OP_READ_MEM, B: 0x20000}.Check(), ErrOperandOverflow)
	assert.ErrorIs(Code{Op: OP_WRITE_MEM, C: 32}.Check(), ErrOperandOverflow)
	assert.ErrorIs(Code{Op: OP_BITREVERSE, B: 32}.Check(), ErrOperandOverflow)
	assert.ErrorIs(Code{Op: CodeOp(3)}.Check(), ErrOpcodeUnknown)

	_, err := Code{Op: CodeOp(3)}.MarshalBinary()
	assert.ErrorIs(err, ErrOpcodeUnknown)
}

func TestDecodeSize(t *testing.T) {
	assert := assert.New(t)

	for _, op := range Opcodes() {
		for _, operands := range [][2]uint32{{0, 0}, {1, 1}, {0xffffffff, 0xffffffff}} {
			data, err := MakeCode(op, operands[0], operands[1]).MarshalBinary()
			assert.NoError(err)
			_, next, err := Decode(data, 0)
			assert.NoError(err)
			switch op {
			case OP_LOAD_CONST, OP_READ_MEM:
				assert.Equal(4, next, op.String())
			case OP_WRITE_MEM, OP_BITREVERSE:
				assert.Equal(2, next, op.String())
			}
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	assert := assert.New(t)

	// Unknown opcode, at the offset of the offending byte.
	buf := []byte{0x17, 0x0a, 0x53, 0x00}
	_, _, err := Decode(buf, 2)
	assert.ErrorIs(err, ErrOpcodeUnknown)
	var decode ErrDecode
	assert.True(errors.As(err, &decode))
	assert.Equal(2, decode.Ip)

	// A 4-byte opcode with only 2 bytes left.
	buf = []byte{0x17, 0x0a, 0x4c, 0x06}
	_, _, err = Decode(buf, 2)
	assert.ErrorIs(err, ErrInstructionTruncated)
	assert.True(errors.As(err, &decode))
	assert.Equal(2, decode.Ip)

	// A 2-byte opcode with only 1 byte left.
	_, _, err = Decode([]byte{0x21}, 0)
	assert.ErrorIs(err, ErrInstructionTruncated)

	_, _, err = Decode(nil, 0)
	assert.ErrorIs(err, ErrInstructionTruncated)

	// Only the low nibble selects the opcode.
	code, next, err := Decode([]byte{0xf1, 0x3f}, 0)
	assert.NoError(err)
	assert.Equal(2, next)
	assert.Equal(Code{Op: OP_BITREVERSE, B: 0x1f, C: 0x1f}, code)
}

func TestCodeString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("LOAD_CONST 100, 1", Code{Op: OP_LOAD_CONST, B: 100, C: 1}.String())
	assert.Equal("BITREVERSE 2, 3", Code{Op: OP_BITREVERSE, B: 2, C: 3}.String())
}
