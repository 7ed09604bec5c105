package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testProgram() *Program {
	return &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Ip: 0, Words: []string{"LOAD_CONST", "100", "1"},
				Code: Code{OP_LOAD_CONST, 100, 1}},
			{LineNo: 2, Ip: 4, Words: []string{"WRITE_MEM", "1", "5"},
				Code: Code{OP_WRITE_MEM, 1, 5}},
			{LineNo: 4, Ip: 6, Words: []string{"READ_MEM", "5", "2"},
				Code: Code{OP_READ_MEM, 5, 2}},
			{LineNo: 5, Ip: 10, Words: []string{"BITREVERSE", "2", "3"},
				Code: Code{OP_BITREVERSE, 2, 3}},
		},
	}
}

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	dbg := prog.Debug(0)
	assert.NotNil(dbg.Opcode)
	assert.Equal(1, dbg.Opcode.LineNo)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(3)
	assert.NotNil(dbg.Opcode)
	assert.Equal(1, dbg.Opcode.LineNo)
	assert.Equal(3, dbg.Index)

	dbg = prog.Debug(5)
	assert.NotNil(dbg.Opcode)
	assert.Equal(2, dbg.Opcode.LineNo)
	assert.Equal(1, dbg.Index)

	dbg = prog.Debug(10)
	assert.NotNil(dbg.Opcode)
	assert.Equal(5, dbg.Opcode.LineNo)
	assert.Equal(0, dbg.Index)
}

func TestProgram_Debug_NotFound(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	dbg := prog.Debug(12)
	assert.Nil(dbg.Opcode)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(-1)
	assert.Nil(dbg.Opcode)
}

func TestProgram_Binary(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	assert.Equal(12, prog.Size())
	bin, err := prog.Binary()
	assert.NoError(err)
	assert.Equal([]byte{
		0x4c, 0x06, 0x00, 0x04,
		0x17, 0x0a,
		0x5a, 0x00, 0x40, 0x00,
		0x21, 0x06,
	}, bin)

	bin, err = (&Program{}).Binary()
	assert.NoError(err)
	assert.Equal([]byte{}, bin)
}

func TestProgram_BinaryInvalid(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		code Code
		err  error
	}){
		{"opcode", Code{Op: CodeOp(3)}, ErrOpcodeUnknown},
		{"overflow_b", Code{OP_WRITE_MEM, 32, 0}, ErrOperandOverflow},
		{"overflow_c", Code{OP_LOAD_CONST, 0, 32}, ErrOperandOverflow},
	}

	for _, entry := range table {
		prog := testProgram()
		prog.Opcodes[1].Code = entry.code

		_, err := prog.Binary()
		assert.ErrorIs(err, entry.err, entry.name)

		var fault ErrFault
		if assert.True(errors.As(err, &fault), entry.name) {
			assert.Equal(4, fault.Ip, entry.name)
			assert.Equal(entry.code, fault.Code, entry.name)
		}
	}
}

func TestProgram_Codes(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	var ips []int
	var codes []Code
	for ip, code := range prog.Codes() {
		ips = append(ips, ip)
		codes = append(codes, code)
		if len(ips) == 3 {
			break
		}
	}

	assert.Equal([]int{0, 4, 6}, ips)
	assert.Equal(OP_READ_MEM, codes[2].Op)
}

func TestDisassemble(t *testing.T) {
	assert := assert.New(t)

	bin, err := testProgram().Binary()
	assert.NoError(err)

	prog, err := Disassemble(bin)
	assert.NoError(err)
	assert.Equal(4, len(prog.Opcodes))

	for n, op := range testProgram().Opcodes {
		assert.Equal(op.Ip, prog.Opcodes[n].Ip)
		assert.Equal(op.Code, prog.Opcodes[n].Code)
		assert.Equal(op.Words, prog.Opcodes[n].Words)
		assert.Equal(0, prog.Opcodes[n].LineNo)
	}

	// Partial program up to the failing offset.
	prog, err = Disassemble(append(bin, 0x03))
	assert.ErrorIs(err, ErrOpcodeUnknown)
	assert.Equal(4, len(prog.Opcodes))
}

func TestProgram_Listing(t *testing.T) {
	assert := assert.New(t)

	expected := "" +
		"LOAD_CONST 100, 1 ; 0000: 4C 06 00 04\n" +
		"WRITE_MEM 1, 5 ; 0004: 17 0A\n" +
		"READ_MEM 5, 2 ; 0006: 5A 00 40 00\n" +
		"BITREVERSE 2, 3 ; 000A: 21 06\n"

	assert.Equal(expected, testProgram().Listing())
}
