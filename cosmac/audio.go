package cosmac

import (
	"fmt"
	"math"
	"strings"
)

const (
	sampleRate = 22050
	beepFreq   = 440
	beepVolume = 0.25
)

// Waveform is the shape of the tone played while the sound timer is
// non-zero. It implements flag.Value.
type Waveform byte

const (
	Triangle Waveform = iota
	Sawtooth
	Sine
	Square
	numWaveforms
)

var waveformStrings = strings.Fields("triangle sawtooth sine square")

func (w Waveform) String() string {
	if w < numWaveforms {
		return waveformStrings[w]
	}
	return fmt.Sprintf("Waveform(%d)", w)
}

func (w *Waveform) Set(s string) error {
	for i, name := range waveformStrings {
		if strings.EqualFold(s, name) {
			*w = Waveform(i)
			return nil
		}
	}
	return fmt.Errorf("unknown waveform %q (want one of %s)", s, strings.Join(waveformStrings, ", "))
}

// Sample returns the amplitude, in [-1, 1], at phase p in [0, 1).
func (w Waveform) Sample(p float32) float32 {
	switch w {
	case Sawtooth:
		if p < 0.5 {
			return 2 * p
		}
		return 2*p - 2
	case Sine:
		return float32(math.Sin(2 * math.Pi * float64(p)))
	case Square:
		if p < 0.5 {
			return 1
		}
		return -1
	default:
		if p < 0.5 {
			return 4*p - 1
		}
		return 3 - 4*p
	}
}

// tone generates a continuous beep, carrying its phase across buffers.
type tone struct {
	wave  Waveform
	phase float32
	step  float32
}

func newTone(w Waveform, rate int) tone {
	return tone{wave: w, step: beepFreq / float32(rate)}
}

func (t *tone) fill(buf []float32) {
	for i := range buf {
		buf[i] = t.wave.Sample(t.phase) * beepVolume
		t.phase += t.step
		if t.phase >= 1 {
			t.phase--
		}
	}
}

// Beeper plays the machine's tone while it is switched on.
// SetBeep is called once per timer tick.
type Beeper interface {
	SetBeep(on bool)
	Close() error
}

type nopBeeper struct{}

func (nopBeeper) SetBeep(bool) {}
func (nopBeeper) Close() error { return nil }
