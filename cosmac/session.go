package cosmac

import (
	"log"
	"time"

	"github.com/nf/ch8/chip8"
)

// quietEvery is how many frames pass between QuietState reports.
const quietEvery = 6

// session is the state of the machine goroutine.
type session struct {
	m     *chip8.Machine
	cfg   Config
	state StateFunc
	pace  *Pacer
	ghost ghost
	log   backlog

	paused  bool
	brk     uint16
	hasBrk  bool
	skipBrk bool // PC is at brk but execution was resumed there
	frames  int
}

func newSession(m *chip8.Machine, cfg Config, state StateFunc) *session {
	s := &session{cfg: cfg, state: state, pace: NewPacer(cfg.IPS)}
	s.reset(m)
	return s
}

// reset installs a new machine, keeping the breakpoint.
func (s *session) reset(m *chip8.Machine) {
	s.m = m
	s.m.Trace = s.trace
	s.pace.Reset()
	s.ghost.reset()
	s.log.Reset()
	s.paused, s.skipBrk = false, false
	s.notify(ClearState)
}

func (s *session) trace(addr uint16, in chip8.Instruction) {
	s.log.LazyPrintf("%.3x %.4x %v", addr, in.Word(), in)
}

func (s *session) notify(k StateKind) {
	if s.state != nil {
		s.state(s.m, k)
	}
}

// advance runs the machine for elapsed wall time. It returns a non-nil
// error only when the machine faults during this call.
func (s *session) advance(elapsed time.Duration) error {
	if s.paused || s.m.State() == chip8.Halted {
		return nil
	}
	steps, ticks := s.pace.Advance(elapsed)
	var err error
	if s.hasBrk {
		err = s.runToBreak(steps)
	} else {
		err = s.m.Run(steps)
	}
	if err != nil {
		s.halted(err)
		return err
	}
	for i := 0; i < ticks; i++ {
		s.m.Timers.Tick()
	}
	if s.frames++; s.frames%quietEvery == 0 && !s.paused {
		s.notify(QuietState)
	}
	return nil
}

func (s *session) runToBreak(steps int) error {
	m := s.m
	for i := 0; i < steps; i++ {
		if m.PC == s.brk && !s.skipBrk {
			s.paused = true
			log.Printf("break at %.3x", m.PC)
			s.notify(BreakState)
			return nil
		}
		s.skipBrk = false
		if err := m.Step(); err != nil {
			return err
		}
		if m.State() == chip8.AwaitingKey {
			break
		}
	}
	return nil
}

func (s *session) halted(err error) {
	s.log.Emit()
	log.Printf("halt: %v", err)
	s.notify(HaltState)
}

func (s *session) command(c debugCmd) error {
	switch c.cmd {
	case "break":
		s.brk, s.hasBrk = c.addr&chip8.AddrMask, true
		s.skipBrk = false
	case "clear":
		s.hasBrk = false
	case "pause":
		s.paused = true
		s.notify(PauseState)
	case "continue":
		s.paused = false
		s.skipBrk = true
		s.notify(ClearState)
	case "step":
		if !s.paused {
			s.paused = true
			s.notify(PauseState)
			return nil
		}
		if s.m.State() == chip8.Halted {
			return nil
		}
		if err := s.m.Step(); err != nil {
			s.halted(err)
			return err
		}
		s.notify(PauseState)
	default:
		log.Printf("unknown debug command %q", c.cmd)
	}
	return nil
}

// frame returns the picture to present for the machine's current display.
func (s *session) frame() Frame {
	px := s.m.Display.Snapshot()
	if s.cfg.Ghosting {
		px = s.ghost.blend(px)
	}
	return Frame{Pixels: px, Beep: s.m.Timers.Beeping()}
}
