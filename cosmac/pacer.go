package cosmac

import (
	"math"
	"time"

	"github.com/nf/ch8/chip8"
)

// maxLag bounds how much wall time a Pacer will try to catch up on,
// so that a stalled host does not make the machine race afterwards.
const maxLag = 250 * time.Millisecond

// Pacer converts elapsed wall time into instruction steps and timer ticks.
// Timer ticks are due at chip8.TimerRate regardless of the instruction rate.
type Pacer struct {
	cycle    time.Duration // time per instruction
	cpuLag   time.Duration
	timerLag time.Duration
}

// NewPacer returns a Pacer for ips instructions per second.
func NewPacer(ips int) *Pacer {
	return &Pacer{cycle: time.Duration(math.Round(1e9 / float64(ips)))}
}

// Advance accounts for elapsed time and returns the number of instructions
// and timer ticks that have fallen due.
func (p *Pacer) Advance(elapsed time.Duration) (steps, ticks int) {
	if elapsed > maxLag {
		elapsed = maxLag
	}
	p.timerLag += elapsed
	for p.timerLag >= chip8.TimerPeriod {
		p.timerLag -= chip8.TimerPeriod
		ticks++
	}
	p.cpuLag += elapsed
	steps = int(p.cpuLag / p.cycle)
	p.cpuLag -= time.Duration(steps) * p.cycle
	return steps, ticks
}

// Reset discards any accumulated lag.
func (p *Pacer) Reset() { p.cpuLag, p.timerLag = 0, 0 }
