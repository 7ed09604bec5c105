// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ezrec/uvm/cpu"
	"github.com/ezrec/uvm/internal"
	"github.com/ezrec/uvm/io"
)

// Emulator state. CPU + program image + optional source listing.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Source listing of the program, if assembled.

	Rom io.Rom // Program image.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu: cpu.NewCpu(),
	}

	return
}

// Reset the emulator state.
// If a Program is set, the program image is rebuilt from it.
func (emu *Emulator) Reset() (err error) {
	if emu.Program != nil {
		emu.Rom.Data, err = emu.Program.Binary()
		if err != nil {
			return
		}
	}

	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset(emu.Rom.Data)

	if emu.Verbose {
		internal.Logger().Debug("emulator: reset",
			zap.Int("size", len(emu.Rom.Data)),
			zap.Bool("listing", emu.Program != nil))
	}

	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Ip returns current instruction pointer.
func (emu *Emulator) Ip() int {
	return emu.Cpu.Ip
}

// LineNo returns the source line number of the instruction at IP,
// or 0 without a source listing.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.Cpu.Ip)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	emu.Cpu.Verbose = emu.Verbose

	ip := emu.Cpu.Ip
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Ip: ip, LineNo: lineno, Err: err}
		}
	}()

	err = emu.Cpu.Tick()
	if errors.Is(err, cpu.ErrHalted) {
		err = nil
		done = true
		return
	}

	return
}

// Run ticks the emulator until the program image is exhausted, or an
// instruction fails.
func (emu *Emulator) Run() (err error) {
	var done bool
	for !done {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	return
}

// Snapshot captures the machine state, and the run error if any.
func (emu *Emulator) Snapshot(fault error) (snap *io.Snapshot) {
	snap = &io.Snapshot{
		Ip:        emu.Cpu.Ip,
		Ticks:     emu.Cpu.Ticks,
		Registers: append([]uint32(nil), emu.Cpu.Register[:]...),
		Memory:    append([]uint32(nil), emu.Cpu.Memory[:]...),
	}
	if fault != nil {
		snap.Fault = fault.Error()
	}

	return
}

// Dump collects data memory cells in [start, end), clamped to the memory size.
func (emu *Emulator) Dump(start, end int) *io.Dump {
	return io.NewDump(emu.Cpu.Memory.Cells(start, end))
}

// RunBatch runs independent program images, at most limit at a time, each
// on its own emulator. The returned emulators hold the final state of each
// image, in order. The returned error joins the failures of all images.
// Cancelling ctx stops images that have not started yet.
func RunBatch(ctx context.Context, images [][]byte, limit int) (emus []*Emulator, err error) {
	emus = make([]*Emulator, len(images))
	errs := make([]error, len(images))

	group, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}

	for n, image := range images {
		emu := NewEmulator()
		emu.Rom.Data = image
		emus[n] = emu

		group.Go(func() error {
			err := ctx.Err()
			if err == nil {
				err = emu.Reset()
			}
			if err == nil {
				err = emu.Run()
			}
			if err != nil {
				errs[n] = &ErrBatch{Index: n, Err: err}
			}
			return nil
		})
	}

	_ = group.Wait()

	err = errors.Join(errs...)
	return
}
