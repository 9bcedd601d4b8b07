package cosmac

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/nf/ch8/chip8"
)

// Terminals report key presses and repeats but never releases, so a key is
// considered released once it has not repeated for keyHold.
const keyHold = 150 * time.Millisecond

type term struct {
	r *Runner

	held  map[byte]time.Time
	last  chip8.Frame
	drawn bool
	beep  bool
}

func newTerm(r *Runner) *term {
	return &term{r: r, held: make(map[byte]time.Time)}
}

// Run drives the terminal until the user quits or exit is closed.
func (t *term) Run(exit <-chan bool) error {
	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	defer s.Fini()
	s.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack))
	s.HideCursor()
	s.Clear()

	var (
		events = make(chan tcell.Event)
		stop   = make(chan bool)
	)
	defer close(stop)
	go func() {
		for {
			ev := s.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-stop:
				return
			}
		}
	}()

	tick := time.NewTicker(time.Second / 60)
	defer tick.Stop()
	for {
		select {
		case <-exit:
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				s.Sync()
				t.drawn = false
			case *tcell.EventKey:
				switch ev.Key() {
				case tcell.KeyEscape, tcell.KeyCtrlC:
					return nil
				case tcell.KeyRune:
					t.press(ev.Rune(), time.Now())
				}
			}
		case now := <-tick.C:
			t.releaseStale(now)
			select {
			case f := <-t.r.frames:
				t.draw(s, f)
			default:
			}
		}
	}
}

func (t *term) press(r rune, now time.Time) {
	k, ok := KeyForRune(r)
	if !ok {
		return
	}
	if _, down := t.held[k]; !down {
		t.r.Key(k, true)
	}
	t.held[k] = now
}

func (t *term) releaseStale(now time.Time) {
	for k, at := range t.held {
		if now.Sub(at) >= keyHold {
			delete(t.held, k)
			t.r.Key(k, false)
		}
	}
}

// draw renders f using one half block per pair of vertically adjacent
// pixels.
func (t *term) draw(s tcell.Screen, f Frame) {
	if f.Beep && !t.beep {
		s.Beep()
	}
	t.beep = f.Beep
	if t.drawn && f.Pixels == t.last {
		return
	}
	for y := 0; y < chip8.Height; y += 2 {
		for x := 0; x < chip8.Width; x++ {
			st := tcell.StyleDefault.
				Foreground(pixelColor(f.Pixels[y][x])).
				Background(pixelColor(f.Pixels[y+1][x]))
			s.SetContent(x, y/2, '▀', nil, st)
		}
	}
	s.Show()
	t.last = f.Pixels
	t.drawn = true
}

func pixelColor(on bool) tcell.Color {
	if on {
		return tcell.ColorWhite
	}
	return tcell.ColorBlack
}
