// Package cosmac runs CHIP-8 programs on the host computer: it paces the
// machine, composes its frames, plays its beep and connects it to a window
// or terminal.
package cosmac

import (
	"log"
	"time"

	"github.com/nf/ch8/chip8"
)

// Frontend selects how a Runner presents the machine.
type Frontend int

const (
	GUI      Frontend = iota // shiny window
	Terminal                 // tcell terminal
	Headless                 // no display or input
)

// StateKind describes why a StateFunc is being called.
type StateKind int

const (
	ClearState StateKind = iota // running normally
	BreakState                  // stopped at a breakpoint
	PauseState                  // paused by the debugger
	HaltState                   // halted by a fault
	QuietState                  // periodic refresh while running
)

// StateFunc is called from the machine goroutine to report the machine's
// state. It must not retain m.
type StateFunc func(m *chip8.Machine, k StateKind)

type Runner struct {
	cfg   Config
	front Frontend
	dev   bool
	state StateFunc

	swap     chan *chip8.Machine
	swapDone chan bool
	debug    chan debugCmd
	keys     chan keyEdge
	frames   chan Frame
	done     chan bool // closed when the machine goroutine exits
}

type debugCmd struct {
	cmd  string
	addr uint16
}

type keyEdge struct {
	key  byte
	down bool
}

// NewRunner returns a Runner that presents machines using front. In dev
// mode a fault does not stop the Runner and Swap may be used to replace
// the running program. stateFunc may be nil.
func NewRunner(cfg Config, front Frontend, devMode bool, stateFunc StateFunc) *Runner {
	return &Runner{
		cfg:      cfg,
		front:    front,
		dev:      devMode,
		state:    stateFunc,
		swap:     make(chan *chip8.Machine),
		swapDone: make(chan bool),
		debug:    make(chan debugCmd),
		keys:     make(chan keyEdge, 16),
		frames:   make(chan Frame, 1),
		done:     make(chan bool),
	}
}

// Swap replaces the running program with rom, on a freshly reset machine.
func (r *Runner) Swap(rom []byte) error {
	if !r.dev {
		panic("Swap called while not running in dev mode")
	}
	m, err := chip8.New(rom, r.cfg.Options)
	if err != nil {
		return err
	}
	select {
	case r.swap <- m:
		<-r.swapDone
	case <-r.done:
	}
	return nil
}

// Debug sends a debugger command to the machine goroutine. The commands are
// "break" (stop when PC reaches addr), "clear", "pause", "step",
// "continue" and "exit".
func (r *Runner) Debug(cmd string, addr uint16) {
	select {
	case r.debug <- debugCmd{cmd, addr}:
	case <-r.done:
	}
}

// Key reports that keypad key k went down or up.
func (r *Runner) Key(k byte, down bool) {
	select {
	case r.keys <- keyEdge{k, down}:
	case <-r.done:
	}
}

// Run runs rom until the machine faults or the user quits. It returns the
// fault, or nil if the user quit.
func (r *Runner) Run(rom []byte) error {
	if err := r.cfg.Validate(); err != nil {
		return err
	}
	m, err := chip8.New(rom, r.cfg.Options)
	if err != nil {
		return err
	}
	beep := r.newBeeper()
	defer beep.Close()

	var (
		exit = make(chan bool)
		halt = make(chan error, 1)
	)
	go func() {
		halt <- r.loop(m, beep, exit)
		close(r.done)
	}()

	switch r.front {
	case GUI:
		err = newGUI(r).Run(r.done)
	case Terminal:
		err = newTerm(r).Run(r.done)
	default:
		<-r.done
	}
	close(exit)
	if herr := <-halt; err == nil {
		err = herr
	}
	return err
}

func (r *Runner) newBeeper() Beeper {
	if r.cfg.Mute || r.front == Headless {
		return nopBeeper{}
	}
	b, err := newSDLBeeper(r.cfg.Waveform)
	if err != nil {
		log.Printf("audio disabled: %v", err)
		return nopBeeper{}
	}
	return b
}

// loop drives m until exit is closed, the debugger exits, or (outside dev
// mode) m faults.
func (r *Runner) loop(m *chip8.Machine, beep Beeper, exit <-chan bool) error {
	var (
		s    = newSession(m, r.cfg, r.state)
		t    = time.NewTicker(chip8.TimerPeriod)
		last = time.Now()
	)
	defer t.Stop()
	for {
		select {
		case now := <-t.C:
			err := s.advance(now.Sub(last))
			last = now
			beep.SetBeep(s.m.Timers.Beeping())
			r.publish(s.frame())
			if err != nil && !r.dev {
				return err
			}
		case e := <-r.keys:
			s.m.Keypad.Set(e.key, e.down)
		case c := <-r.debug:
			if c.cmd == "exit" {
				return nil
			}
			if err := s.command(c); err != nil && !r.dev {
				return err
			}
		case nm := <-r.swap:
			s.reset(nm)
			last = time.Now()
			r.swapDone <- true
		case <-exit:
			return nil
		}
	}
}

// publish offers f to the front end, replacing any frame it has not
// collected yet.
func (r *Runner) publish(f Frame) {
	select {
	case <-r.frames:
	default:
	}
	r.frames <- f
}

type backlog struct {
	entries []logEntry
	n       int
}

type logEntry struct {
	format string
	args   []any
}

const maxBacklog = 32

func (b *backlog) LazyPrintf(format string, args ...any) {
	if b.n < len(b.entries) {
		b.entries[b.n] = logEntry{format, args}
	} else {
		b.entries = append(b.entries, logEntry{format, args})
	}
	b.n = (b.n + 1) % maxBacklog
}

func (b *backlog) Emit() {
	if len(b.entries) == 0 {
		return
	}
	for i := b.n; ; i++ {
		i %= len(b.entries)
		log.Printf(b.entries[i].format, b.entries[i].args...)
		if (i+1)%len(b.entries) == b.n%len(b.entries) {
			break
		}
	}
}

func (b *backlog) Reset() {
	b.entries = b.entries[:0]
	b.n = 0
}
