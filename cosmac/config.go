package cosmac

import (
	"fmt"

	"github.com/nf/ch8/chip8"
)

// Config holds the settings for a Runner.
type Config struct {
	chip8.Options

	IPS      int      // instructions executed per second
	Waveform Waveform // shape of the beep
	Scale    int      // window pixels per CHIP-8 pixel
	Ghosting bool     // blend each frame with the previous one
	Mute     bool     // disable audio output
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	return Config{
		IPS:      700,
		Waveform: Triangle,
		Scale:    10,
		Ghosting: true,
	}
}

// Validate reports whether c can be used to run a machine.
func (c Config) Validate() error {
	if c.IPS <= 0 {
		return fmt.Errorf("instructions per second must be positive, got %d", c.IPS)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %d", c.Scale)
	}
	if c.Waveform >= numWaveforms {
		return fmt.Errorf("unknown waveform %v", c.Waveform)
	}
	return nil
}
