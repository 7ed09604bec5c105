package cpu

import (
	"errors"
	"fmt"
	"math/bits"

	"go.uber.org/zap"

	"github.com/ezrec/uvm/internal"
)

// Cpu is the simulation context for the UVM processor.
// A Cpu is not safe for concurrent use.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Rom []byte // Program image being executed.

	Ip       int                    // Byte offset of the next instruction in Rom.
	Register [REGISTER_COUNT]uint32 // Register bank.
	Memory   Memory                 // Data memory.

	Ticks int // Executed instructions counter.
}

// NewCpu creates a new CPU with an empty program.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}

	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text = fmt.Sprintf("%5s: %04X\n", "ip", cpu.Ip)
	for n, val := range cpu.Register {
		if val == 0 {
			continue
		}
		text += fmt.Sprintf("%5s: %04X_%04X\n", fmt.Sprintf("r%d", n), val>>16, val&0xffff)
	}
	text += fmt.Sprintf("%5s: %d\n", "ticks", cpu.Ticks)

	return
}

// Reset the CPU state.
// - Clears the registers and the data memory.
// - Zeros the tick counter.
// - Loads the program image, and sets IP to its start.
func (cpu *Cpu) Reset(rom []byte) {
	if cpu.Verbose {
		internal.Logger().Debug("cpu: reset", zap.Int("rom", len(rom)))
	}

	clear(cpu.Register[:])
	clear(cpu.Memory[:])
	cpu.Rom = rom
	cpu.Ip = 0
	cpu.Ticks = 0
}

// Halted returns true once IP has run off the end of the program image.
func (cpu *Cpu) Halted() bool {
	return cpu.Ip >= len(cpu.Rom)
}

// Fetch decodes the instruction at IP.
func (cpu *Cpu) Fetch() (code Code, next int, err error) {
	if cpu.Halted() {
		err = ErrHalted
		return
	}

	return Decode(cpu.Rom, cpu.Ip)
}

// Tick decodes and executes a single instruction.
// Returns ErrHalted when the program image is exhausted.
// On any other error IP is left at the failing instruction.
func (cpu *Cpu) Tick() (err error) {
	code, next, err := cpu.Fetch()
	if err != nil {
		return
	}

	err = cpu.Execute(code)
	if err != nil {
		err = ErrFault{Ip: cpu.Ip, Code: code, Err: err}
		return
	}

	cpu.Ip = next
	cpu.Ticks++

	return
}

// Run ticks until the program image is exhausted, or an instruction fails.
func (cpu *Cpu) Run() (err error) {
	for {
		err = cpu.Tick()
		if errors.Is(err, ErrHalted) {
			return nil
		}
		if err != nil {
			return
		}
	}
}

// Execute a decoded instruction against the registers and data memory.
func (cpu *Cpu) Execute(code Code) (err error) {
	if cpu.Verbose {
		defer func() {
			internal.Logger().Debug("cpu: execute",
				zap.Int("ip", cpu.Ip),
				zap.Stringer("code", code),
				zap.Error(err))
		}()
	}

	// Register indices and WRITE_MEM addresses are 5-bit fields, so once
	// the operands fit their fields only READ_MEM can leave the memory.
	err = code.Check()
	if err != nil {
		return
	}

	switch code.Op {
	case OP_LOAD_CONST:
		cpu.Register[code.C] = code.B
	case OP_READ_MEM:
		var value uint32
		value, err = cpu.Memory.Read(code.B)
		if err != nil {
			return
		}
		cpu.Register[code.C] = value
	case OP_WRITE_MEM:
		err = cpu.Memory.Write(code.C, cpu.Register[code.B])
	case OP_BITREVERSE:
		cpu.Register[code.C] = bits.Reverse32(cpu.Register[code.B])
	}

	return
}
