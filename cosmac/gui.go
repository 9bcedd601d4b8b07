package cosmac

import (
	"image"
	"image/draw"
	"log"
	"time"

	xdraw "golang.org/x/image/draw"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/nf/ch8/chip8"
)

type gui struct {
	r *Runner

	size  image.Point
	buf   screen.Buffer
	tex   screen.Texture
	last  chip8.Frame
	drawn bool
	dirty bool
}

func newGUI(r *Runner) *gui {
	return &gui{
		r:    r,
		size: image.Pt(chip8.Width*r.cfg.Scale, chip8.Height*r.cfg.Scale),
	}
}

// Run drives the window until the user closes it or exit is closed.
// It must be called from the main goroutine.
func (g *gui) Run(exit <-chan bool) error {
	var runErr error
	driver.Main(func(s screen.Screen) {
		w, err := s.NewWindow(&screen.NewWindowOptions{
			Title:  "ch8",
			Width:  g.size.X,
			Height: g.size.Y,
		})
		if err != nil {
			runErr = err
			return
		}
		defer w.Release()

		if err := g.alloc(s); err != nil {
			runErr = err
			return
		}
		defer g.release()

		type update struct{}
		stop := make(chan bool)
		defer close(stop)
		go func() {
			t := time.NewTicker(time.Second / 60)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					w.Send(update{})
				case <-stop:
					return
				}
			}
		}()

		var sz size.Event
		for {
			e := w.NextEvent()

			select {
			case <-exit:
				return
			default:
			}

			switch e := e.(type) {
			case size.Event:
				sz = e
				if sz.WidthPx+sz.HeightPx == 0 {
					return
				}
				g.dirty = true

			case lifecycle.Event:
				if e.To == lifecycle.StageDead {
					return
				}

			case key.Event:
				if e.Code == key.CodeEscape {
					return
				}
				if k, ok := KeyForCode(e.Code); ok {
					switch e.Direction {
					case key.DirPress:
						g.r.Key(k, true)
					case key.DirRelease:
						g.r.Key(k, false)
					}
				}

			case paint.Event:
				g.dirty = true

			case update:
				select {
				case f := <-g.r.frames:
					g.update(f)
				default:
				}
				if g.dirty && g.drawn {
					w.Scale(sz.Bounds(), g.tex, g.tex.Bounds(), draw.Src, nil)
					w.Publish()
					g.dirty = false
				}

			case error:
				log.Print(e)
			}
		}
	})
	return runErr
}

func (g *gui) alloc(s screen.Screen) (err error) {
	g.buf, err = s.NewBuffer(g.size)
	if err != nil {
		return
	}
	g.tex, err = s.NewTexture(g.size)
	return
}

// update uploads f to the texture if it differs from what is on screen.
func (g *gui) update(f Frame) {
	if g.drawn && f.Pixels == g.last {
		return
	}
	src := f.Gray()
	dst := g.buf.RGBA()
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	g.tex.Upload(image.Point{}, g.buf, g.buf.Bounds())
	g.last = f.Pixels
	g.drawn = true
	g.dirty = true
}

func (g *gui) release() {
	if g.tex != nil {
		g.tex.Release()
	}
	if g.buf != nil {
		g.buf.Release()
	}
}
