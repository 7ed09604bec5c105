package cpu

import (
	"iter"
)

const (
	REGISTER_COUNT = 32   // Number of registers.
	MEMORY_SIZE    = 1024 // Number of data memory cells.
)

// Memory is the data memory of the machine.
type Memory [MEMORY_SIZE]uint32

// Read returns the cell at addr.
func (mem *Memory) Read(addr uint32) (value uint32, err error) {
	if addr >= MEMORY_SIZE {
		err = ErrAddressRange
		return
	}

	value = mem[addr]
	return
}

// Write sets the cell at addr.
func (mem *Memory) Write(addr uint32, value uint32) (err error) {
	if addr >= MEMORY_SIZE {
		err = ErrAddressRange
		return
	}

	mem[addr] = value
	return
}

// Cells iterates over the half open address range [start, end), clamped
// to the size of the memory.
func (mem *Memory) Cells(start, end int) iter.Seq2[int, uint32] {
	start = max(start, 0)
	end = min(end, MEMORY_SIZE)

	return func(yield func(addr int, value uint32) bool) {
		for addr := start; addr < end; addr++ {
			if !yield(addr, mem[addr]) {
				return
			}
		}
	}
}
