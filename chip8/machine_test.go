package chip8

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	for _, c := range []struct {
		romSize int
		err     bool
	}{
		{0, false},
		{1, false},
		{0x100, false},
		{MaxROMSize, false},
		{MaxROMSize + 1, true},
		{0x2000, true},
	} {
		t.Run(fmt.Sprintf("%.4x", c.romSize), func(t *testing.T) {
			m, err := New(bytes.Repeat([]byte{1}, c.romSize), Options{})
			if c.err {
				if !errors.Is(err, ErrROMTooLarge) {
					t.Fatalf("got error %v, want ErrROMTooLarge", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			for i := range m.Mem {
				w := byte(0)
				switch {
				case i >= FontAddr && i < FontAddr+len(font):
					w = font[i-FontAddr]
				case i >= ProgramStart && i < ProgramStart+c.romSize:
					w = 1
				}
				if g := m.Mem[i]; g != w {
					t.Errorf("Mem[%.3x] == %.2x, want %.2x", i, g, w)
				}
			}
			if m.PC != ProgramStart {
				t.Errorf("PC = %.3x, want %.3x", m.PC, ProgramStart)
			}
			if m.I != 0 || m.V != [16]byte{} || m.Stack.Len() != 0 {
				t.Errorf("registers not zeroed: I=%.3x V=%v stack=%v", m.I, m.V, m.Stack)
			}
			if m.Timers.Delay() != 0 || m.Timers.Sound() != 0 {
				t.Errorf("timers not zeroed")
			}
			if f := m.Display.Snapshot(); f != (Frame{}) {
				t.Errorf("display not clear")
			}
			if _, ok := m.Keypad.LastPressed(); ok {
				t.Errorf("keypad reports a pressed key")
			}
			if s := m.State(); s != Running {
				t.Errorf("State() = %v, want %v", s, Running)
			}
		})
	}
}

func TestStep(t *testing.T) {
	c := newExecTestCase
	shiftQuirk := Options{ShiftQuirk: true}
	loadStoreQuirk := Options{LoadStoreQuirk: true}
	for i, c := range []*execTestCase{
		c(0x00e0).draw(3, 4, 0xff).want(),
		c(0x00ee).stack(0x300).want().pc(0x300),
		c(0x1234).want().pc(0x234),
		c(0x2345).want().stack(0x202).pc(0x345),
		c(0x2345).stack(0x400, 0x500).want().stack(0x400, 0x500, 0x202).pc(0x345),

		c(0x3a2b).v(0xa, 0x2b).want().pc(0x204),
		c(0x3a2b).v(0xa, 0x2c),
		c(0x4a2b).v(0xa, 0x2b),
		c(0x4a2b).v(0xa, 0x2c).want().pc(0x204),
		c(0x5ab0).v(0xa, 7).v(0xb, 7).want().pc(0x204),
		c(0x5ab0).v(0xa, 7).v(0xb, 8),
		c(0x9ab0).v(0xa, 7).v(0xb, 7),
		c(0x9ab0).v(0xa, 7).v(0xb, 8).want().pc(0x204),

		c(0x632a).want().v(3, 0x2a),
		c(0x7301).v(3, 0x41).want().v(3, 0x42),
		c(0x7302).v(3, 0xff).v(0xf, 0x7).want().v(3, 0x01),

		c(0x8120).v(2, 9).want().v(1, 9),
		c(0x8121).v(1, 0x36).v(2, 0x63).want().v(1, 0x77),
		c(0x8122).v(1, 0x99).v(2, 0xb8).want().v(1, 0x98),
		c(0x8123).v(1, 0x31).v(2, 0x13).want().v(1, 0x22),
		c(0x8124).v(1, 0xf0).v(2, 0x20).want().v(1, 0x10).v(0xf, 1),
		c(0x8124).v(1, 0x10).v(2, 0x20).v(0xf, 1).want().v(1, 0x30).v(0xf, 0),
		c(0x8125).v(1, 0x30).v(2, 0x20).want().v(1, 0x10).v(0xf, 1),
		c(0x8125).v(1, 0x20).v(2, 0x20).want().v(1, 0x00).v(0xf, 1),
		c(0x8125).v(1, 0x10).v(2, 0x20).want().v(1, 0xf0).v(0xf, 0),
		c(0x8127).v(1, 0x10).v(2, 0x30).want().v(1, 0x20).v(0xf, 1),
		c(0x8127).v(1, 0x30).v(2, 0x10).want().v(1, 0xe0).v(0xf, 0),
		c(0x8f24).v(0xf, 0xff).v(2, 0x01).want().v(0xf, 1),

		c(0x8126).v(1, 0x00).v(2, 0x03).want().v(1, 0x01).v(2, 0x03).v(0xf, 1),
		c(0x8126).v(1, 0xff).v(2, 0x02).want().v(1, 0x01).v(2, 0x02).v(0xf, 0),
		c(0x8126).opts(shiftQuirk).v(1, 0x03).v(2, 0xaa).want().v(1, 0x01).v(2, 0xaa).v(0xf, 1),
		c(0x812e).v(1, 0x00).v(2, 0x81).want().v(1, 0x02).v(2, 0x81).v(0xf, 1),
		c(0x812e).v(1, 0x80).v(2, 0x41).want().v(1, 0x82).v(2, 0x41).v(0xf, 0),
		c(0x812e).opts(shiftQuirk).v(1, 0xc0).v(2, 0x01).want().v(1, 0x80).v(2, 0x01).v(0xf, 1),

		c(0xa123).want().i(0x123),
		c(0xb300).v(0, 0x10).want().pc(0x310),
		c(0xc300).v(3, 0x55).want().v(3, 0),

		c(0xe39e).v(3, 5).key(5).want().pc(0x204),
		c(0xe39e).v(3, 5).key(6),
		c(0xe3a1).v(3, 5).key(5),
		c(0xe3a1).v(3, 5).key(6).want().pc(0x204),

		c(0xf307).delay(42).want().v(3, 42),
		c(0xf315).v(3, 42).want().delay(42),
		c(0xf318).v(3, 42).want().sound(42),
		c(0xf31e).v(3, 0x10).i(0x2f8).want().i(0x308),
		c(0xf31e).v(3, 0x02).i(0xffff).v(0xf, 0).want().i(0x0001),
		c(0xf329).v(3, 0x0a).want().i(FontAddr+0x0a*5),
		c(0xf329).v(3, 0xf2).want().i(FontAddr+0x02*5),
		c(0xf333).v(3, 156).i(0x300).want().mem(0x300, 1, 5, 6),
		c(0xf333).v(3, 7).i(0x300).want().mem(0x300, 0, 0, 7),

		c(0xf255).v(0, 1).v(1, 2).v(2, 3).v(3, 4).i(0x300).want().mem(0x300, 1, 2, 3),
		c(0xf255).opts(loadStoreQuirk).v(0, 1).v(1, 2).v(2, 3).i(0x300).want().mem(0x300, 1, 2, 3).i(0x303),
		c(0xf265).mem(0x300, 7, 8, 9, 10).i(0x300).want().v(0, 7).v(1, 8).v(2, 9),
		c(0xf265).opts(loadStoreQuirk).mem(0x300, 7, 8, 9).i(0x300).want().v(0, 7).v(1, 8).v(2, 9).i(0x303),
		c(0xf155).v(0, 0xaa).v(1, 0xbb).i(0xfff).want().mem(0xfff, 0xaa).mem(0x000, 0xbb),

		c(0x00ee).want().pc(0x200).state(Halted).
			error(FaultError{Fault: StackUnderflow, Word: 0x00ee, Addr: 0x200}),
		c(0x2345).stack(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16).want().pc(0x200).state(Halted).
			error(FaultError{Fault: StackOverflow, Word: 0x2345, Addr: 0x200}),
		c(0x0123).want().pc(0x200).state(Halted).
			error(FaultError{Fault: UnknownOpcode, Word: 0x0123, Addr: 0x200}),
		c(0xf30a).want().state(AwaitingKey),
	} {
		t.Run(fmt.Sprintf("%.4x_%d", c.m.Fetch(ProgramStart), i), func(t *testing.T) {
			if err := c.m.Step(); err != c.err {
				t.Fatalf("got error %v, want %v", err, c.err)
			}
			c.check(t)
		})
	}
}

func TestStepHalted(t *testing.T) {
	m := newMachine(t, Options{}, 0x0000, 0x00e0)
	err := m.Step()
	var f FaultError
	if !errors.As(err, &f) || f.Fault != UnknownOpcode {
		t.Fatalf("got error %v, want unknown opcode fault", err)
	}
	if err2 := m.Step(); err2 != err {
		t.Errorf("Step after halt returned %v, want %v", err2, err)
	}
	if m.PC != ProgramStart {
		t.Errorf("PC moved to %.3x after halt", m.PC)
	}
	if g, w := err.Error(), "unknown opcode executing 0000 at 200"; g != w {
		t.Errorf("Error() = %q, want %q", g, w)
	}
}

func TestAddFlags(t *testing.T) {
	m := newMachine(t, Options{}, 0x8124)
	for x := 0; x < 0x100; x++ {
		for y := 0; y < 0x100; y++ {
			m.PC = ProgramStart
			m.V[1], m.V[2] = byte(x), byte(y)
			if err := m.Step(); err != nil {
				t.Fatal(err)
			}
			if g, w := m.V[1], byte(x+y); g != w {
				t.Fatalf("%.2x+%.2x = %.2x, want %.2x", x, y, g, w)
			}
			if g, w := m.V[0xf], flag(x+y >= 0x100); g != w {
				t.Fatalf("%.2x+%.2x: VF = %d, want %d", x, y, g, w)
			}
		}
	}
}

func TestSubFlags(t *testing.T) {
	m := newMachine(t, Options{}, 0x8125)
	for x := 0; x < 0x100; x++ {
		for y := 0; y < 0x100; y++ {
			m.PC = ProgramStart
			m.V[1], m.V[2] = byte(x), byte(y)
			if err := m.Step(); err != nil {
				t.Fatal(err)
			}
			if g, w := m.V[1], byte(x-y); g != w {
				t.Fatalf("%.2x-%.2x = %.2x, want %.2x", x, y, g, w)
			}
			if g, w := m.V[0xf], flag(x >= y); g != w {
				t.Fatalf("%.2x-%.2x: VF = %d, want %d", x, y, g, w)
			}
		}
	}
}

func TestRandomMask(t *testing.T) {
	m := newMachine(t, Options{}, 0xc30f)
	var seen [16]bool
	for i := 0; i < 2000; i++ {
		m.PC = ProgramStart
		if err := m.Step(); err != nil {
			t.Fatal(err)
		}
		if m.V[3]&^0x0f != 0 {
			t.Fatalf("random byte %.2x not masked by 0f", m.V[3])
		}
		seen[m.V[3]] = true
	}
	for v, ok := range seen {
		if !ok {
			t.Errorf("value %x never produced in 2000 draws", v)
		}
	}
}

func TestDraw(t *testing.T) {
	// LD I, font 0; DRW V0, V1, 5; DRW V0, V1, 5
	m := newMachine(t, Options{}, 0xa000|FontAddr, 0xd015, 0xd015)
	m.V[0], m.V[1] = 10, 20
	if err := m.Run(2); err != nil {
		t.Fatal(err)
	}
	if m.V[0xf] != 0 {
		t.Errorf("VF = %d after first draw, want 0", m.V[0xf])
	}
	for j, row := range font[:5] {
		for i := 0; i < 8; i++ {
			if g, w := m.Display.Pixel(10+i, 20+j), row&(0x80>>i) != 0; g != w {
				t.Errorf("pixel (%d, %d) = %v, want %v", 10+i, 20+j, g, w)
			}
		}
	}
	if err := m.Step(); err != nil {
		t.Fatal(err)
	}
	if m.V[0xf] != 1 {
		t.Errorf("VF = %d after second draw, want 1", m.V[0xf])
	}
	if f := m.Display.Snapshot(); f != (Frame{}) {
		t.Errorf("display not restored by second draw:\n%v", &f)
	}
}

func TestDrawWrapsOrigin(t *testing.T) {
	m := newMachine(t, Options{}, 0xa000|FontAddr+5, 0xd011)
	m.V[0], m.V[1] = Width+1, Height+2
	if err := m.Step(); err != nil {
		t.Fatal(err)
	}
	if err := m.Step(); err != nil {
		t.Fatal(err)
	}
	// The first row of glyph 1 is 0x20: a single pixel at column 2.
	if !m.Display.Pixel(3, 2) {
		f := m.Display.Snapshot()
		t.Errorf("sprite not drawn at wrapped origin:\n%v", &f)
	}
}

func TestStackDiscipline(t *testing.T) {
	// Each instruction calls the next one, 17 in total.
	var prog []uint16
	for i := 0; i < StackDepth+1; i++ {
		prog = append(prog, 0x2000|uint16(ProgramStart+2*(i+1)))
	}
	m := newMachine(t, Options{}, prog...)
	if err := m.Run(StackDepth); err != nil {
		t.Fatalf("%d nested calls: %v", StackDepth, err)
	}
	if n := m.Stack.Len(); n != StackDepth {
		t.Fatalf("stack depth %d, want %d", n, StackDepth)
	}
	err := m.Step()
	var f FaultError
	if !errors.As(err, &f) || f.Fault != StackOverflow {
		t.Fatalf("call %d: got %v, want stack overflow", StackDepth+1, err)
	}
}

func TestAwaitKey(t *testing.T) {
	// LD V5, K; LD V6, 0x01
	m := newMachine(t, Options{}, 0xf50a, 0x6601)
	m.Keypad.Set(3, true) // pressed before the wait; must not satisfy it
	if err := m.Step(); err != nil {
		t.Fatal(err)
	}
	if s := m.State(); s != AwaitingKey {
		t.Fatalf("State() = %v, want %v", s, AwaitingKey)
	}
	for i := 0; i < 10; i++ {
		if err := m.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if m.State() != AwaitingKey || m.PC != ProgramStart+2 || m.V[6] != 0 {
		t.Fatalf("machine advanced while waiting: state %v, PC %.3x", m.State(), m.PC)
	}
	m.Keypad.Set(3, false)
	m.Keypad.Set(0xb, true)
	if err := m.Step(); err != nil {
		t.Fatal(err)
	}
	if m.State() != Running || m.V[5] != 0xb {
		t.Fatalf("after key press: state %v, V5 = %x, want running with V5 = b", m.State(), m.V[5])
	}
	if m.V[6] != 0 {
		t.Fatalf("resolving the wait also executed the next instruction")
	}
	if err := m.Step(); err != nil {
		t.Fatal(err)
	}
	if m.V[6] != 1 {
		t.Errorf("next instruction not executed after wait")
	}
}

func TestRunStopsWhenAwaitingKey(t *testing.T) {
	m := newMachine(t, Options{}, 0xf00a, 0x6001)
	if err := m.Run(100); err != nil {
		t.Fatal(err)
	}
	if m.State() != AwaitingKey || m.PC != ProgramStart+2 {
		t.Errorf("state %v PC %.3x, want awaiting key at %.3x", m.State(), m.PC, ProgramStart+2)
	}
}

func TestFrameTicksTimers(t *testing.T) {
	m := newMachine(t, Options{}, 0x1200)
	m.Timers.SetDelay(2)
	m.Timers.SetSound(1)
	if err := m.Frame(10); err != nil {
		t.Fatal(err)
	}
	if d, s := m.Timers.Delay(), m.Timers.Sound(); d != 1 || s != 0 {
		t.Errorf("after one frame delay=%d sound=%d, want 1 and 0", d, s)
	}
}

func TestJumpToSelf(t *testing.T) {
	m := newMachine(t, Options{}, 0x00e0, 0x1202)
	want := *m
	for i := 0; i < 100; i++ {
		if err := m.Frame(11); err != nil {
			t.Fatal(err)
		}
	}
	if m.V != want.V || m.I != want.I || m.Stack != want.Stack || m.Mem != want.Mem {
		t.Errorf("registers or memory changed")
	}
	if m.PC != ProgramStart+2 {
		t.Errorf("PC = %.3x, want %.3x", m.PC, ProgramStart+2)
	}
	if f := m.Display.Snapshot(); f != (Frame{}) {
		t.Errorf("display not clear")
	}
}

func TestTrace(t *testing.T) {
	m := newMachine(t, Options{}, 0x6001, 0x7001)
	var got []string
	m.Trace = func(addr uint16, in Instruction) {
		got = append(got, fmt.Sprintf("%.3x %v", addr, in))
	}
	if err := m.Run(2); err != nil {
		t.Fatal(err)
	}
	want := []string{"200 LD  V0, 0x01", "202 ADD V0, 0x01"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("trace %q, want %q", got, want)
	}
}

func newMachine(t *testing.T, opts Options, prog ...uint16) *Machine {
	t.Helper()
	m, err := New(assemble(prog...), opts)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func assemble(words ...uint16) []byte {
	b := make([]byte, 0, 2*len(words))
	for _, w := range words {
		b = append(b, byte(w>>8), byte(w))
	}
	return b
}

type execTestCase struct {
	m, w  *Machine
	err   error
	set   *Machine
	wantS State
}

func newExecTestCase(w uint16) *execTestCase {
	c := &execTestCase{}
	c.m, _ = New(assemble(w), Options{})
	c.w, _ = New(assemble(w), Options{})
	c.w.PC += 2
	c.set = c.m
	return c
}

// both applies f to the machine under test and, while setting up the
// initial state, to the expected machine too.
func (c *execTestCase) both(f func(m *Machine)) *execTestCase {
	f(c.set)
	if c.set == c.m {
		f(c.w)
	}
	return c
}

func (c *execTestCase) opts(o Options) *execTestCase {
	return c.both(func(m *Machine) { m.opts = o; m.Display.Edge = o.Edge })
}

func (c *execTestCase) v(r, val byte) *execTestCase {
	return c.both(func(m *Machine) { m.V[r] = val })
}

func (c *execTestCase) i(addr uint16) *execTestCase {
	return c.both(func(m *Machine) { m.I = addr })
}

func (c *execTestCase) mem(addr uint16, bytes ...byte) *execTestCase {
	return c.both(func(m *Machine) { copy(m.Mem[addr:], bytes) })
}

func (c *execTestCase) stack(addrs ...uint16) *execTestCase {
	return c.both(func(m *Machine) {
		m.Stack = Stack{}
		for _, a := range addrs {
			m.Stack.push(a)
		}
	})
}

func (c *execTestCase) delay(v byte) *execTestCase {
	return c.both(func(m *Machine) { m.Timers.SetDelay(v) })
}

func (c *execTestCase) sound(v byte) *execTestCase {
	return c.both(func(m *Machine) { m.Timers.SetSound(v) })
}

func (c *execTestCase) key(k byte) *execTestCase {
	return c.both(func(m *Machine) { m.Keypad.Set(k, true) })
}

// draw draws onto the machine under test only.
func (c *execTestCase) draw(x, y int, rows ...byte) *execTestCase {
	c.set.Display.Draw(x, y, rows)
	return c
}

func (c *execTestCase) pc(addr uint16) *execTestCase {
	c.set.PC = addr
	return c
}

func (c *execTestCase) state(s State) *execTestCase {
	c.wantS = s
	return c
}

func (c *execTestCase) want() *execTestCase {
	c.set = c.w
	return c
}

func (c *execTestCase) error(err error) *execTestCase {
	c.err = err
	return c
}

func (c *execTestCase) check(t *testing.T) {
	t.Helper()
	if g, w := c.m.V, c.w.V; g != w {
		t.Errorf("V is\n\t%x\nwant\n\t%x", g, w)
	}
	if g, w := c.m.I, c.w.I; g != w {
		t.Errorf("I is %.3x, want %.3x", g, w)
	}
	if g, w := c.m.PC, c.w.PC; g != w {
		t.Errorf("PC is %.3x, want %.3x", g, w)
	}
	if g, w := c.m.Stack, c.w.Stack; g != w {
		t.Errorf("stack is %v, want %v", g, w)
	}
	if g, w := c.m.Mem, c.w.Mem; g != w {
		for i := range g {
			if g[i] != w[i] {
				t.Errorf("memory[%.3x] = %.2x, want %.2x", i, g[i], w[i])
			}
		}
	}
	if g, w := c.m.Timers, c.w.Timers; g != w {
		t.Errorf("timers are %+v, want %+v", g, w)
	}
	if g, w := c.m.Display.Snapshot(), c.w.Display.Snapshot(); g != w {
		t.Errorf("display is\n%v\nwant\n%v", &g, &w)
	}
	if g, w := c.m.State(), c.wantS; g != w {
		t.Errorf("state is %v, want %v", g, w)
	}
}
