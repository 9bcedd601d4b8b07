package cosmac

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/veandco/go-sdl2/sdl"
)

// queueTarget is how many samples the beeper keeps queued while on,
// enough to cover a few ticks of scheduling jitter.
const queueTarget = sampleRate / 60 * 3

type sdlBeeper struct {
	dev     sdl.AudioDeviceID
	tone    tone
	on      bool
	samples []float32
	buf     []byte
}

func newSDLBeeper(w Waveform) (*sdlBeeper, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("initializing audio: %w", err)
	}
	want := sdl.AudioSpec{
		Freq:     sampleRate,
		Format:   sdl.AUDIO_F32LSB,
		Channels: 1,
		Samples:  512,
	}
	dev, err := sdl.OpenAudioDevice("", false, &want, nil, 0)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	return &sdlBeeper{
		dev:     dev,
		tone:    newTone(w, sampleRate),
		samples: make([]float32, queueTarget),
		buf:     make([]byte, 4*queueTarget),
	}, nil
}

func (b *sdlBeeper) SetBeep(on bool) {
	if !on {
		if b.on {
			sdl.PauseAudioDevice(b.dev, true)
			sdl.ClearQueuedAudio(b.dev)
			b.on = false
		}
		return
	}
	queued := int(sdl.GetQueuedAudioSize(b.dev)) / 4
	if n := queueTarget - queued; n > 0 {
		b.tone.fill(b.samples[:n])
		for i, s := range b.samples[:n] {
			binary.LittleEndian.PutUint32(b.buf[4*i:], math.Float32bits(s))
		}
		if err := sdl.QueueAudio(b.dev, b.buf[:4*n]); err != nil {
			return
		}
	}
	if !b.on {
		sdl.PauseAudioDevice(b.dev, false)
		b.on = true
	}
}

func (b *sdlBeeper) Close() error {
	sdl.CloseAudioDevice(b.dev)
	sdl.QuitSubSystem(sdl.INIT_AUDIO)
	return nil
}
