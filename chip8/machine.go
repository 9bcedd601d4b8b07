// Package chip8 provides an implementation of the CHIP-8 virtual machine,
// called Machine, that can be used to execute CHIP-8 programs.
package chip8

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Memory layout.
const (
	MemSize      = 0x1000
	AddrMask     = MemSize - 1
	FontAddr     = 0x050
	ProgramStart = 0x200
	MaxROMSize   = MemSize - ProgramStart
)

// Options configure a Machine. They are fixed for the life of the machine.
type Options struct {
	// ShiftQuirk makes 8xy6 and 8xyE shift VX in place instead of
	// shifting VY into VX.
	ShiftQuirk bool
	// LoadStoreQuirk makes Fx55 and Fx65 leave I pointing just past the
	// last register stored or loaded. Otherwise I is left unchanged.
	LoadStoreQuirk bool
	// Edge is the display's policy for sprites drawn across an edge.
	Edge Edge
}

// State describes whether the Machine is able to make progress.
type State byte

const (
	Running     State = iota
	AwaitingKey       // suspended by Fx0A until a key is pressed
	Halted            // stopped by a fault
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case AwaitingKey:
		return "awaiting key"
	case Halted:
		return "halted"
	}
	return fmt.Sprintf("State(%d)", byte(s))
}

// Machine is an implementation of the CHIP-8 virtual machine.
type Machine struct {
	Mem   [MemSize]byte
	V     [16]byte
	I     uint16
	PC    uint16
	Stack Stack

	Display Display
	Keypad  Keypad
	Timers  Timers

	// Trace, if non-nil, is called with each instruction
	// and its address before it is executed.
	Trace func(addr uint16, in Instruction)

	opts    Options
	state   State
	waitReg byte
	fault   error
	rnd     *rand.Rand
}

// ErrROMTooLarge is returned by New if the ROM does not fit in memory.
var ErrROMTooLarge = errors.New("rom too large")

// New returns a Machine with the font installed at FontAddr and the given
// rom loaded at ProgramStart, ready to execute it.
func New(rom []byte, opts Options) (*Machine, error) {
	if len(rom) > MaxROMSize {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", ErrROMTooLarge, len(rom), MaxROMSize)
	}
	m := &Machine{
		PC:   ProgramStart,
		opts: opts,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	m.Display.Edge = opts.Edge
	copy(m.Mem[FontAddr:], font[:])
	copy(m.Mem[ProgramStart:], rom)
	return m, nil
}

// Options returns the options the machine was created with.
func (m *Machine) Options() Options { return m.opts }

// State reports whether the machine is running, waiting for a key, or halted.
func (m *Machine) State() State { return m.state }

// Err returns the fault that halted the machine, or nil.
func (m *Machine) Err() error { return m.fault }

// Fetch returns the instruction word at addr.
func (m *Machine) Fetch(addr uint16) uint16 {
	addr &= AddrMask
	return uint16(m.Mem[addr])<<8 | uint16(m.Mem[(addr+1)&AddrMask])
}

// Step executes the instruction at m.PC. If the machine is waiting for a
// key, Step instead completes the wait if a key has been pressed, and
// otherwise does nothing. Step only returns a non-nil error if the machine
// is halted, and that error is a FaultError.
func (m *Machine) Step() (err error) {
	switch m.state {
	case Halted:
		return m.fault
	case AwaitingKey:
		if k, ok := m.Keypad.LastPressed(); ok {
			m.V[m.waitReg] = k
			m.Keypad.forget()
			m.state = Running
		}
		return nil
	}

	var (
		addr = m.PC & AddrMask
		w    = m.Fetch(addr)
	)
	defer func() {
		if e := recover(); e != nil {
			f, ok := e.(Fault)
			if !ok {
				panic(e)
			}
			m.PC = addr
			m.state = Halted
			m.fault = FaultError{Fault: f, Word: w, Addr: addr}
			err = m.fault
		}
	}()

	in, ok := Decode(w)
	if !ok {
		panic(UnknownOpcode)
	}
	if m.Trace != nil {
		m.Trace(addr, in)
	}
	m.PC = addr + 2
	m.exec(in)
	return nil
}

// Run executes up to n instructions. It stops early if the machine halts or
// begins waiting for a key.
func (m *Machine) Run(n int) error {
	for i := 0; i < n; i++ {
		if err := m.Step(); err != nil {
			return err
		}
		if m.state == AwaitingKey {
			break
		}
	}
	return nil
}

// Frame executes one frame's worth of instructions, n, and then ticks the
// timers once. Call it TimerRate times per second.
func (m *Machine) Frame(n int) error {
	err := m.Run(n)
	m.Timers.Tick()
	return err
}

func (m *Machine) exec(in Instruction) {
	var (
		v  = &m.V
		vx = v[in.X]
		vy = v[in.Y]
	)
	switch in.Op {
	case CLS:
		m.Display.Clear()
	case RET:
		m.PC = m.Stack.pop()
	case JP:
		m.PC = in.NNN
	case CALL:
		m.Stack.push(m.PC)
		m.PC = in.NNN
	case SEK:
		m.skipIf(vx == in.KK)
	case SNEK:
		m.skipIf(vx != in.KK)
	case SEV:
		m.skipIf(vx == vy)
	case SNEV:
		m.skipIf(vx != vy)
	case LDK:
		v[in.X] = in.KK
	case ADDK:
		v[in.X] = vx + in.KK
	case LDV:
		v[in.X] = vy
	case OR:
		v[in.X] = vx | vy
	case AND:
		v[in.X] = vx & vy
	case XOR:
		v[in.X] = vx ^ vy
	case ADD:
		v[in.X] = vx + vy
		v[0xf] = flag(int(vx)+int(vy) > 0xff)
	case SUB:
		v[in.X] = vx - vy
		v[0xf] = flag(vx >= vy)
	case SUBN:
		v[in.X] = vy - vx
		v[0xf] = flag(vy >= vx)
	case SHR:
		src := vy
		if m.opts.ShiftQuirk {
			src = vx
		}
		v[in.X] = src >> 1
		v[0xf] = src & 0x01
	case SHL:
		src := vy
		if m.opts.ShiftQuirk {
			src = vx
		}
		v[in.X] = src << 1
		v[0xf] = src >> 7
	case LDI:
		m.I = in.NNN
	case JPV0:
		m.PC = in.NNN + uint16(v[0])
	case RND:
		v[in.X] = byte(m.rnd.Intn(0x100)) & in.KK
	case DRW:
		rows := make([]byte, in.N)
		for j := range rows {
			rows[j] = m.Mem[(m.I+uint16(j))&AddrMask]
		}
		v[0xf] = flag(m.Display.Draw(int(vx), int(vy), rows))
	case SKP:
		m.skipIf(m.Keypad.IsDown(vx & 0xf))
	case SKNP:
		m.skipIf(!m.Keypad.IsDown(vx & 0xf))
	case LDVDT:
		v[in.X] = m.Timers.Delay()
	case LDKEY:
		m.Keypad.forget()
		m.waitReg = in.X
		m.state = AwaitingKey
	case LDDTV:
		m.Timers.SetDelay(vx)
	case LDSTV:
		m.Timers.SetSound(vx)
	case ADDI:
		m.I += uint16(vx)
	case LDF:
		m.I = FontAddr + uint16(vx&0xf)*glyphSize
	case LDB:
		m.Mem[m.I&AddrMask] = vx / 100
		m.Mem[(m.I+1)&AddrMask] = vx / 10 % 10
		m.Mem[(m.I+2)&AddrMask] = vx % 10
	case LDIV:
		for r := uint16(0); r <= uint16(in.X); r++ {
			m.Mem[(m.I+r)&AddrMask] = v[r]
		}
		if m.opts.LoadStoreQuirk {
			m.I += uint16(in.X) + 1
		}
	case LDVI:
		for r := uint16(0); r <= uint16(in.X); r++ {
			v[r] = m.Mem[(m.I+r)&AddrMask]
		}
		if m.opts.LoadStoreQuirk {
			m.I += uint16(in.X) + 1
		}
	default:
		panic(fmt.Errorf("internal error: %v not implemented", in.Op))
	}
}

func (m *Machine) skipIf(cond bool) {
	if cond {
		m.PC += 2
	}
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// FaultError is returned by Step when a fault halts the machine.
type FaultError struct {
	Fault
	Word uint16 // the instruction word being executed
	Addr uint16 // the address of the instruction
}

func (e FaultError) Error() string {
	return fmt.Sprintf("%s executing %.4x at %.3x", e.Fault, e.Word, e.Addr)
}

// Fault signifies the type of condition that halted execution.
type Fault byte

const (
	UnknownOpcode  Fault = 0x01
	StackOverflow  Fault = 0x02
	StackUnderflow Fault = 0x03
)

func (f Fault) String() string {
	if s, ok := map[Fault]string{
		UnknownOpcode:  "unknown opcode",
		StackOverflow:  "stack overflow",
		StackUnderflow: "stack underflow",
	}[f]; ok {
		return s
	}
	return fmt.Sprintf("unknown (%.2x)", byte(f))
}
