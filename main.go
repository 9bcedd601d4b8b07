// Command ch8 runs CHIP-8 programs.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"

	"github.com/nf/ch8/cosmac"
)

func main() {
	log.SetPrefix("ch8: ")
	log.SetFlags(0)

	cfg := cosmac.DefaultConfig()
	var (
		cliFlag   = flag.Bool("cli", false, "run in the terminal instead of a window")
		devFlag   = flag.Bool("dev", false, "enable developer mode (reload the ROM when it changes)")
		debugFlag = flag.Bool("debug", false, "enable debugger (implies -dev)")

		cpuProfileFlag = flag.String("cpu_profile", "", "write CPU profile to `file`")
	)
	flag.IntVar(&cfg.IPS, "ips", cfg.IPS, "instructions executed per second")
	flag.BoolVar(&cfg.ShiftQuirk, "shift-quirk", false, "8xy6 and 8xyE shift VX in place, ignoring VY")
	flag.BoolVar(&cfg.LoadStoreQuirk, "load-store-quirk", false, "Fx55 and Fx65 advance I past the registers")
	flag.Var(&cfg.Edge, "edge", "sprite edge `policy`: wrap or clip")
	flag.Var(&cfg.Waveform, "waveform", "beep `shape`: triangle, sawtooth, sine or square")
	flag.IntVar(&cfg.Scale, "scale", cfg.Scale, "window pixels per CHIP-8 pixel")
	flag.BoolVar(&cfg.Ghosting, "ghosting", cfg.Ghosting, "blend each frame with the previous one to reduce flicker")
	flag.BoolVar(&cfg.Mute, "mute", false, "disable sound")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <program.ch8>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	front := cosmac.GUI
	if *cliFlag {
		front = cosmac.Terminal
	}

	if *devFlag || *debugFlag {
		if *debugFlag && *cliFlag {
			log.Fatal("-debug needs the terminal and cannot be used with -cli")
		}
		if err := devMode(cfg, front, *debugFlag, flag.Arg(0)); err != nil {
			log.Fatal(err)
		}
		return
	}

	var cpuProfile io.Closer
	if prof := *cpuProfileFlag; prof != "" {
		f, err := os.Create(prof)
		if err != nil {
			log.Fatalf("creating CPU profile file: %v", err)
		}
		pprof.StartCPUProfile(f)
		cpuProfile = f
	}

	err := run(cfg, front, flag.Arg(0))

	if f := cpuProfile; f != nil {
		pprof.StopCPUProfile()
		f.Close()
	}

	if err != nil {
		log.Fatal(err)
	}
}

func run(cfg cosmac.Config, front cosmac.Frontend, romFile string) error {
	rom, err := os.ReadFile(romFile)
	if err != nil {
		return err
	}
	return cosmac.NewRunner(cfg, front, false, nil).Run(rom)
}
