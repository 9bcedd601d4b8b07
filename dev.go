package main

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"

	"github.com/nf/ch8/cosmac"
)

// devMode runs romFile and reloads it into a fresh machine whenever the
// file changes. If debug is set the terminal shows the debugger.
func devMode(cfg cosmac.Config, front cosmac.Frontend, debug bool, romFile string) error {
	romFile = filepath.Clean(romFile)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Watch(filepath.Dir(romFile)); err != nil {
		return err
	}
	rom, err := os.ReadFile(romFile)
	if err != nil {
		return err
	}

	var (
		d         *debugger
		stateFunc cosmac.StateFunc
	)
	if debug {
		d = newDebugger()
		stateFunc = d.StateFunc
	}
	runner := cosmac.NewRunner(cfg, front, true, stateFunc)
	if d != nil {
		d.run = runner
		log.SetPrefix("")
		log.SetOutput(d.log)
		reloadSymbols(d, romFile)
		go func() {
			if err := d.Run(); err != nil {
				log.Fatalf("debug: %v", err)
			}
			log.SetOutput(os.Stderr)
			log.SetPrefix("ch8: ")
			runner.Debug("exit", 0)
		}()
	}

	go func() {
		var reload <-chan time.Time
		for {
			select {
			case <-reload:
				reload = nil
				rom, err := os.ReadFile(romFile)
				if err != nil {
					log.Printf("dev: %v", err)
					break
				}
				if d != nil {
					reloadSymbols(d, romFile)
				}
				log.Printf("dev: reload %s", filepath.Base(romFile))
				if err := runner.Swap(rom); err != nil {
					log.Printf("dev: %v", err)
				}
			case ev := <-watcher.Event:
				name := filepath.Clean(ev.Name)
				if (name == romFile || name == romFile+".sym") && !ev.IsAttrib() {
					reload = time.After(100 * time.Millisecond)
				}
			case err := <-watcher.Error:
				log.Printf("dev: watcher: %v", err)
			}
		}
	}()
	log.Printf("dev: start %s", filepath.Base(romFile))
	return runner.Run(rom)
}

func reloadSymbols(d *debugger, romFile string) {
	syms, err := loadSymbols(romFile)
	if err != nil {
		log.Printf("dev: reading symbols: %v", err)
		return
	}
	d.setSymbols(syms)
}
