// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ezrec/uvm/config"
	"github.com/ezrec/uvm/cpu"
	"github.com/ezrec/uvm/emulator"
	"github.com/ezrec/uvm/internal"
	uvmio "github.com/ezrec/uvm/io"
)

var logger *zap.Logger

func main() {
	var configFile string
	var compile string
	var output string
	var test bool
	var listing bool
	var binary string
	var dump string
	var start int
	var end int
	var format string
	var snapshot string
	var truncate bool
	var verbose bool

	flag.StringVar(&configFile, "config", "", "uvm.toml configuration (default: search upwards from the current directory)")
	flag.StringVar(&compile, "c", "", ".asm file to compile")
	flag.StringVar(&output, "o", "", "Binary file to write the compiled program to, do not execute it")
	flag.BoolVar(&test, "t", false, "Test mode: print the internal representation and machine code")
	flag.BoolVar(&listing, "l", false, "Print the disassembly listing of the program")
	flag.StringVar(&binary, "b", "", "Binary file to execute; further arguments are run as a batch")
	flag.StringVar(&dump, "d", "-", "Memory dump output")
	flag.IntVar(&start, "start", 0, "Start address for the memory dump")
	flag.IntVar(&end, "end", 64, "End address (exclusive) for the memory dump")
	flag.StringVar(&format, "format", "json", "Memory dump format (json, text)")
	flag.StringVar(&snapshot, "snapshot", "", "CBOR machine snapshot output, written even on failure")
	flag.BoolVar(&truncate, "truncate", false, "Mask oversized operands instead of rejecting them")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	var cfg *config.Config
	var err error
	if len(configFile) != 0 {
		cfg, err = config.Load(configFile)
	} else {
		cfg, err = config.FindAndLoad(".")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v: %v\n", os.Args[0], err)
		os.Exit(1)
	}

	// Flags given on the command line override the configuration.
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "start":
			cfg.Dump.Start = start
		case "end":
			cfg.Dump.End = end
		case "format":
			cfg.Dump.Format = format
		case "truncate":
			cfg.Assembler.Truncate = truncate
		case "v":
			cfg.Verbose = verbose
		}
	})

	if cfg.Verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v: %v\n", os.Args[0], err)
		os.Exit(1)
	}
	defer logger.Sync()
	internal.SetLogger(logger)

	dumpFormat, err := uvmio.ParseDumpFormat(cfg.Dump.Format)
	if err != nil {
		logger.Fatal("dump format", zap.Error(err))
	}

	if len(compile) == 0 && len(binary) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	err = checkFlags(compile, output, binary, snapshot, listing, flag.Args())
	if err != nil {
		logger.Fatal("arguments", zap.Error(err))
	}

	var prog *cpu.Program

	// Compile a new instruction stream.
	if len(compile) != 0 {
		prog = assemble(cfg, compile, test)

		if len(output) != 0 {
			bin := &uvmio.Rom{}
			bin.Data, err = prog.Binary()
			if err != nil {
				logger.Fatal("assemble", zap.String("path", compile), zap.Error(err))
			}
			err = writeFile(output, bin)
			if err != nil {
				logger.Fatal("write binary", zap.String("path", output), zap.Error(err))
			}
			fmt.Printf("Binary file '%v' generated, size: %d bytes\n", output, len(bin.Data))
			if test {
				fmt.Println("=== Machine Code Bytes ===")
				fmt.Printf("% X\n", bin.Data)
			}
		}

		if listing {
			fmt.Print(prog.Listing())
		}

		// A saved program only runs when -b names an image to run.
		if len(output) != 0 && len(binary) == 0 {
			return
		}
	}

	if len(binary) != 0 {
		images := append([]string{binary}, flag.Args()...)
		if len(images) > 1 {
			runBatch(cfg, images, dump, dumpFormat)
			return
		}

		rom := &uvmio.Rom{}
		err = readFile(binary, rom)
		if err != nil {
			logger.Fatal("read binary", zap.String("path", binary), zap.Error(err))
		}

		if listing {
			dis, _err := cpu.Disassemble(rom.Data)
			fmt.Print(dis.Listing())
			if _err != nil {
				fmt.Printf("; %v\n", _err)
			}
		}

		run(cfg, nil, rom, dump, dumpFormat, snapshot)
		return
	}

	run(cfg, prog, nil, dump, dumpFormat, snapshot)
}

// Invalid flag combinations.
var (
	errArguments    = errors.New("unknown arguments")
	errCompileBoth  = errors.New("-c runs its own program; use -o to compile and -b to run another image")
	errBatchOptions = errors.New("-snapshot and -l take a single image")
)

// checkFlags rejects flag combinations that would otherwise be ignored.
func checkFlags(compile, output, binary, snapshot string, listing bool, args []string) error {
	if len(args) != 0 && len(binary) == 0 {
		return fmt.Errorf("%w: %v", errArguments, args)
	}

	if len(compile) != 0 && len(output) == 0 && len(binary) != 0 {
		return errCompileBoth
	}

	if len(args) != 0 && (len(snapshot) != 0 || listing) {
		return errBatchOptions
	}

	return nil
}

// assemble compiles a source file, exiting on failure.
func assemble(cfg *config.Config, path string, test bool) (prog *cpu.Program) {
	inf, err := os.Open(path)
	if err != nil {
		logger.Fatal("open source", zap.String("path", path), zap.Error(err))
	}
	defer inf.Close()

	asm := &cpu.Assembler{
		Verbose:  cfg.Verbose,
		Truncate: cfg.Assembler.Truncate,
	}
	for equ, value := range cfg.Assembler.Equates {
		asm.Predefine(equ, value)
	}

	prog, err = asm.Parse(inf)
	if err != nil {
		logger.Fatal("assemble", zap.String("path", path), zap.Error(err))
	}

	if test {
		fmt.Println("=== Internal Representation ===")
		for n, op := range prog.Opcodes {
			info, _ := op.Code.Op.Info()
			fmt.Printf("%d: {mnemonic: %v, args: [%d, %d], A: %d, size: %d}\n",
				n, info.Mnemonic, op.Code.B, op.Code.C, uint8(op.Code.Op), info.Size)
		}
	}

	return
}

// run executes a single program, then writes its memory dump and snapshot.
func run(cfg *config.Config, prog *cpu.Program, rom *uvmio.Rom, dump string, dumpFormat uvmio.DumpFormat, snapshot string) {
	emu := emulator.NewEmulator()
	emu.Verbose = cfg.Verbose
	emu.Program = prog
	if rom != nil {
		emu.Rom = *rom
	}

	err := emu.Reset()
	if err == nil {
		err = emu.Run()
	}

	if len(snapshot) != 0 {
		_err := writeFile(snapshot, emu.Snapshot(err))
		if _err != nil {
			logger.Error("write snapshot", zap.String("path", snapshot), zap.Error(_err))
		}
	}

	if err != nil {
		if cfg.Verbose {
			fmt.Fprint(os.Stderr, emu.Cpu.String())
		}
		logger.Fatal("run", zap.Error(err))
	}

	writeDump(emu, cfg, dump, dumpFormat)
}

// runBatch executes independent program images in parallel, and writes a
// memory dump for each.
func runBatch(cfg *config.Config, paths []string, dump string, dumpFormat uvmio.DumpFormat) {
	images := make([][]byte, len(paths))
	for n, path := range paths {
		rom := &uvmio.Rom{}
		err := readFile(path, rom)
		if err != nil {
			logger.Fatal("read binary", zap.String("path", path), zap.Error(err))
		}
		images[n] = rom.Data
	}

	emus, err := emulator.RunBatch(context.Background(), images, cfg.Batch.Parallel)

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, each := range joined.Unwrap() {
			var batchErr *emulator.ErrBatch
			if errors.As(each, &batchErr) {
				logger.Error("run", zap.String("path", paths[batchErr.Index]), zap.Error(batchErr.Err))
			}
		}
	}

	for n, emu := range emus {
		target := dump
		if target == "-" {
			fmt.Printf("== %v ==\n", paths[n])
		} else {
			ext := filepath.Ext(target)
			target = fmt.Sprintf("%v.%d%v", strings.TrimSuffix(target, ext), n, ext)
		}
		writeDump(emu, cfg, target, dumpFormat)
	}

	if err != nil {
		logger.Fatal("batch", zap.Error(err))
	}
}

// writeDump writes the configured range of data memory.
func writeDump(emu *emulator.Emulator, cfg *config.Config, path string, dumpFormat uvmio.DumpFormat) {
	mem := emu.Dump(cfg.Dump.Start, cfg.Dump.End)
	mem.Format = dumpFormat

	err := writeFile(path, mem)
	if err != nil {
		logger.Fatal("write dump", zap.String("path", path), zap.Error(err))
	}

	if path == "-" {
		fmt.Println()
	} else {
		fmt.Printf("Memory dump saved to %v\n", path)
	}
}

// writeFile writes to a file, or to stdout for "-".
func writeFile(path string, wt io.WriterTo) (err error) {
	if path == "-" {
		_, err = wt.WriteTo(os.Stdout)
		return
	}

	ouf, err := os.Create(path)
	if err != nil {
		return
	}

	_, err = wt.WriteTo(ouf)
	if err != nil {
		ouf.Close()
		return
	}

	return ouf.Close()
}

// readFile reads a file, or stdin for "-".
func readFile(path string, rf io.ReaderFrom) (err error) {
	if path == "-" {
		_, err = rf.ReadFrom(os.Stdin)
		return
	}

	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	_, err = rf.ReadFrom(inf)
	return
}
