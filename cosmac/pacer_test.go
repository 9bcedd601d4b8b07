package cosmac

import (
	"testing"
	"time"

	"github.com/nf/ch8/chip8"
)

func TestPacerOneSecond(t *testing.T) {
	for _, ips := range []int{60, 500, 700, 1000} {
		p := NewPacer(ips)
		var steps, ticks int
		// One second in uneven slices.
		for _, d := range []time.Duration{1, 3, 7, 11, 13} {
			for i := 0; i < 10; i++ {
				s, k := p.Advance(d * time.Second / 350)
				steps += s
				ticks += k
			}
		}
		// 350 slices of 1/350s in total is one second.
		if steps < ips-1 || steps > ips {
			t.Errorf("ips %d: %d steps in one second", ips, steps)
		}
		if ticks < chip8.TimerRate-1 || ticks > chip8.TimerRate {
			t.Errorf("ips %d: %d timer ticks in one second", ips, ticks)
		}
	}
}

func TestPacerTicksIndependentOfIPS(t *testing.T) {
	slow, fast := NewPacer(1), NewPacer(5000)
	for i := 0; i < 120; i++ {
		_, a := slow.Advance(chip8.TimerPeriod)
		_, b := fast.Advance(chip8.TimerPeriod)
		if a != 1 || b != 1 {
			t.Fatalf("frame %d: ticks %d and %d, want 1 and 1", i, a, b)
		}
	}
}

func TestPacerClampsLag(t *testing.T) {
	p := NewPacer(1000)
	steps, ticks := p.Advance(10 * time.Second)
	if steps != int(maxLag/time.Millisecond) {
		t.Errorf("steps = %d after a stall, want %d", steps, maxLag/time.Millisecond)
	}
	if ticks > int(maxLag/chip8.TimerPeriod) {
		t.Errorf("ticks = %d after a stall", ticks)
	}
	p.Reset()
	if s, k := p.Advance(time.Microsecond); s != 0 || k != 0 {
		t.Errorf("lag survived Reset: %d steps %d ticks", s, k)
	}
}
