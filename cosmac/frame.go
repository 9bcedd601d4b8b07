package cosmac

import (
	"image"
	"image/color"

	"github.com/nf/ch8/chip8"
)

var (
	pixelOn  = color.Gray{0xe8}
	pixelOff = color.Gray{0x10}
)

// Frame is one picture published by a Runner to its front end.
type Frame struct {
	Pixels chip8.Frame
	Beep   bool
}

// Gray renders the frame at one image pixel per CHIP-8 pixel.
func (f *Frame) Gray() *image.Gray {
	m := image.NewGray(image.Rect(0, 0, chip8.Width, chip8.Height))
	for y := range f.Pixels {
		for x, on := range f.Pixels[y] {
			c := pixelOff
			if on {
				c = pixelOn
			}
			m.SetGray(x, y, c)
		}
	}
	return m
}

// ghost reduces the flicker of games that erase and redraw sprites on
// alternate frames by showing a pixel lit in either of the last two frames.
type ghost struct {
	prev chip8.Frame
}

func (g *ghost) blend(cur chip8.Frame) chip8.Frame {
	out := cur
	for y := range out {
		for x := range out[y] {
			out[y][x] = out[y][x] || g.prev[y][x]
		}
	}
	g.prev = cur
	return out
}

func (g *ghost) reset() { g.prev = chip8.Frame{} }
