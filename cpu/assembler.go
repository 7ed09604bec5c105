// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"go.uber.org/zap"

	"github.com/ezrec/uvm/internal"
)

// Macro is a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the first line of the macro body.
	Args   []string // Argument names of the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":         "0",
	"REGISTER_COUNT": fmt.Sprintf("%v", REGISTER_COUNT),
	"MEMORY_SIZE":    fmt.Sprintf("%v", MEMORY_SIZE),
}

var parenRegexp = regexp.MustCompile(`\$\([^\$]*\)`)

// Assembler is a single pass macro assembler for the UVM instruction set.
type Assembler struct {
	Verbose  bool     // If set, verbosely logs the assembler actions.
	Truncate bool     // If set, oversized operands are masked instead of rejected.
	Opcode   []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	expanding map[string]bool // Macros being expanded.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	value, err = strconv.ParseInt(word, 0, 64)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	return
}

// operandOf converts a word to an operand of the given field mask.
func (asm *Assembler) operandOf(word string, mask uint32) (value uint32, err error) {
	v64, err := asm.valueOf(word)
	if err != nil {
		return
	}

	if asm.Truncate {
		value = uint32(v64) & mask
		return
	}

	if v64 < 0 || v64 > int64(mask) {
		err = ErrOperandOverflow
		return
	}

	value = uint32(v64)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v64 int64
		v64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// splitWords splits a line on whitespace and commas.
func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// parseLine parses a single line into words, expanding expressions and
// equates, and handling .equ definitions.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do $() evaluations
	line = parenRegexp.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil && err == nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	words = splitWords(line)
	if len(words) == 0 {
		return
	}

	for n, word := range words {
		// The directive and its new name are never substituted.
		if words[0] == ".equ" && n < 2 {
			continue
		}
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	// Macro invocation
	macro, ok := asm.Macro[words[0]]
	if ok {
		err = asm.expand(words[0], macro, words[1:])
		words = nil
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	return
}

// expand assembles the body of a macro, with its arguments bound as equates.
func (asm *Assembler) expand(name string, macro *Macro, args []string) (err error) {
	if len(args) != len(macro.Args) {
		err = ErrMacroSyntax
		return
	}

	if asm.expanding[name] {
		err = ErrMacroRecursion
		return
	}
	asm.expanding[name] = true
	defer delete(asm.expanding, name)

	old_equate := maps.Clone(asm.Equate)
	defer func() { asm.Equate = old_equate }()
	for n, arg := range macro.Args {
		asm.Equate[arg] = args[n]
	}

	for n, line := range macro.Lines {
		lineno := macro.LineNo + n

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err == nil {
			err = asm.parseWords(words, lineno)
		}
		if err != nil {
			err = ErrMacro{Macro: name, LineNo: lineno, Err: err}
			return
		}
	}

	return
}

// defineMacro handles the .macro and .endm directives, and collects the
// lines of a macro body. It returns true if the line was consumed.
func (asm *Assembler) defineMacro(macro **Macro, line string, lineno int) (done bool, err error) {
	words := splitWords(line)

	switch {
	case len(words) > 0 && words[0] == ".macro":
		if *macro != nil {
			err = ErrMacroNesting
			return
		}
		if len(words) < 2 {
			err = ErrMacroSyntax
			return
		}
		name := words[1]
		_, is_macro := asm.Macro[name]
		_, is_op := LookupMnemonic(name)
		if is_macro || is_op {
			err = ErrMacroDuplicate
			return
		}
		*macro = &Macro{
			LineNo: lineno + 1,
			Args:   slices.Clone(words[2:]),
		}
		asm.Macro[name] = *macro
		done = true
	case len(words) > 0 && words[0] == ".endm":
		if *macro == nil {
			err = ErrMacroLonelyEndm
			return
		}
		*macro = nil
		done = true
	case *macro != nil:
		(*macro).Lines = append((*macro).Lines, line)
		done = true
	}

	return
}

// currentIp gets the byte offset of the next instruction.
func (asm *Assembler) currentIp() int {
	if len(asm.Opcode) == 0 {
		return 0
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Ip + last.Code.Size()
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Opcode = asm.Opcode[:0]
	asm.Macro = map[string](*Macro){}
	asm.expanding = map[string]bool{}
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			internal.Logger().Debug("asm: line", zap.Int("lineno", lineno), zap.String("text", text))
		}

		text_comment := strings.SplitN(text, ";", 2)
		line = strings.TrimSpace(text_comment[0])

		var done bool
		done, err = asm.defineMacro(&macro, line, lineno)
		if err != nil {
			return
		}
		if done {
			continue
		}

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	op, ok := LookupMnemonic(words[0])
	if !ok {
		err = ErrMnemonicUnknown
		return
	}

	if len(words) != 3 {
		err = ErrOperandCount
		return
	}

	info, _ := op.Info()

	code := Code{Op: op}
	code.B, err = asm.operandOf(words[1], info.MaskB())
	if err != nil {
		return
	}
	code.C, err = asm.operandOf(words[2], info.MaskC())
	if err != nil {
		return
	}

	opcode := Opcode{LineNo: lineno, Ip: asm.currentIp(), Words: words, Code: code}
	asm.Opcode = append(asm.Opcode, opcode)

	if asm.Verbose {
		internal.Logger().Debug("asm: code", zap.Int("ip", opcode.Ip), zap.Stringer("code", code))
	}

	return
}
