// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"

	"github.com/ezrec/pep9/emulator"
	"github.com/ezrec/pep9/microcode"
)

func open(path string, stdio *os.File) (file *os.File) {
	if path == "-" {
		return stdio
	}
	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}
	return
}

func create(path string, stdio *os.File) (file *os.File) {
	if path == "-" {
		return stdio
	}
	file, err := os.Create(path)
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}
	return
}

func main() {
	var osFile string
	var burn string
	var program string
	var micro string
	var bus int
	var input string
	var output string
	var traceFile string
	var memSize string
	var verbose bool

	flag.StringVar(&osFile, "os", "", "Operating system object code")
	flag.StringVar(&burn, "burn", "0xFFFF", "Burn address of the operating system")
	flag.StringVar(&program, "p", "", "Program object code to run")
	flag.StringVar(&micro, "m", "", "Microcode file to run")
	flag.IntVar(&bus, "bus", 1, "Data bus width in bytes of the microcode CPU (1 or 2)")
	flag.StringVar(&input, "i", "-", "Character input")
	flag.StringVar(&output, "o", "-", "Character output")
	flag.StringVar(&traceFile, "trace", "", "Instruction trace and statistics")
	flag.StringVar(&memSize, "mem", "0x10000", "Memory size in bytes")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(program) == 0 && len(micro) == 0 {
		log.Fatalf("%v: one of -p or -m is required", os.Args[0])
	}

	burnAddress, err := strconv.ParseUint(burn, 0, 16)
	if err != nil {
		log.Fatalf("-burn: %v", err)
	}

	size, err := strconv.ParseUint(memSize, 0, 32)
	if err != nil {
		log.Fatalf("-mem: %v", err)
	}

	var busType microcode.Type
	switch bus {
	case 1:
		busType = microcode.ONE_BYTE
	case 2:
		busType = microcode.TWO_BYTE
	default:
		log.Fatalf("-bus: must be 1 or 2, not %v", bus)
	}

	inf := open(input, os.Stdin)
	defer inf.Close()

	ouf := create(output, os.Stdout)
	defer ouf.Close()

	var trace io.Writer
	if len(traceFile) != 0 {
		tf := create(traceFile, os.Stderr)
		defer tf.Close()
		trace = tf
	}

	session, err := emulator.NewSession(emulator.Config{
		Verbose:    verbose,
		MemorySize: int(size),
		Burn:       uint16(burnAddress),
		Bus:        busType,
		Input:      inf,
		Output:     ouf,
		Trace:      trace,
	})
	if err != nil {
		log.Fatalf("-mem: %v", err)
	}

	if len(osFile) != 0 {
		osf := open(osFile, os.Stdin)
		err = session.LoadOS(osf)
		osf.Close()
		if err != nil {
			log.Fatalf("%v: %v", osFile, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if len(micro) != 0 {
		mf := open(micro, os.Stdin)
		ps := &microcode.Parser{Type: busType, Verbose: verbose}
		prog, err := ps.Parse(mf)
		mf.Close()
		if err != nil {
			log.Fatalf("%v: %v", micro, err)
		}

		err = session.RunMicrocode(ctx, prog)
		if err != nil {
			log.Fatalf("%v: %v", micro, err)
		}
	}

	if len(program) != 0 {
		pf := open(program, os.Stdin)
		err = session.LoadProgram(pf)
		pf.Close()
		if err != nil {
			log.Fatalf("%v: %v", program, err)
		}

		err = session.Run(ctx)
		if trace != nil {
			session.Recorder.Report(trace)
		}
		if err != nil {
			log.Fatalf("%v: %v", program, err)
		}
	}

	if err = session.Output(); err != nil {
		log.Fatalf("%v: %v", output, err)
	}
}
