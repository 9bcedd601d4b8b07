package chip8

import "time"

// TimerRate is the frequency, in Hz, at which the delay and sound timers
// count down.
const TimerRate = 60

// TimerPeriod is the duration of one timer tick.
const TimerPeriod = 16_666_667 * time.Nanosecond

// Timers holds the delay and sound timers.
type Timers struct {
	delay, sound byte
}

// Tick decrements each nonzero timer by one.
func (t *Timers) Tick() {
	if t.delay > 0 {
		t.delay--
	}
	if t.sound > 0 {
		t.sound--
	}
}

func (t *Timers) Delay() byte     { return t.delay }
func (t *Timers) SetDelay(v byte) { t.delay = v }
func (t *Timers) Sound() byte     { return t.sound }
func (t *Timers) SetSound(v byte) { t.sound = v }

// Beeping reports whether the sound timer is running,
// which is when the beep should be audible.
func (t *Timers) Beeping() bool { return t.sound > 0 }
