package cpu

import (
	"errors"
	"strconv"

	"github.com/ezrec/uvm/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalted       = errors.New(f("halted"))
	ErrAddressRange = errors.New(f("address out of range"))

	// Instruction decode errors
	ErrOpcodeUnknown        = errors.New(f("opcode unknown"))
	ErrInstructionTruncated = errors.New(f("instruction truncated"))

	// Assembler errors
	ErrMnemonicUnknown = errors.New(f("mnemonic unknown"))
	ErrOperandCount    = errors.New(f("expected two operands"))
	ErrOperandOverflow = errors.New(f("operand overflows its field"))
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrMacroSyntax     = errors.New(f(".macro syntax"))
	ErrMacroNesting    = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate  = errors.New(f(".macro duplicated"))
	ErrMacroLonely     = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm = errors.New(f(".endm without .macro"))
	ErrMacroRecursion  = errors.New(f(".macro expands itself"))
)

// ErrDecode locates an instruction decode failure in a program image.
type ErrDecode struct {
	Ip  int
	Err error
}

func (err ErrDecode) Error() string {
	return f("decode at offset %v: %v", strconv.Itoa(err.Ip), err.Err)
}

func (err ErrDecode) Unwrap() error {
	return err.Err
}

// ErrFault locates an execution failure of a decoded instruction.
type ErrFault struct {
	Ip   int
	Code Code
	Err  error
}

func (err ErrFault) Error() string {
	return f("fault at offset %v '%v': %v", strconv.Itoa(err.Ip), err.Code, err.Err)
}

func (err ErrFault) Unwrap() error {
	return err.Err
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %v '%v' %v", strconv.Itoa(err.LineNo), err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrMacro locates an error in the body of an expanded macro.
type ErrMacro struct {
	Macro  string
	LineNo int
	Err    error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, strconv.Itoa(err.LineNo), err.Err)
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
