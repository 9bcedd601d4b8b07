package chip8

import (
	"fmt"
	"strings"
)

// Display dimensions in pixels.
const (
	Width  = 64
	Height = 32
)

// Edge selects what happens to sprite pixels that fall off the display.
type Edge byte

const (
	// Wrap draws pixels past an edge on the opposite side.
	Wrap Edge = iota
	// Clip discards pixels past the right and bottom edges.
	Clip
)

func (e Edge) String() string {
	switch e {
	case Wrap:
		return "wrap"
	case Clip:
		return "clip"
	}
	return fmt.Sprintf("Edge(%d)", byte(e))
}

// Set implements flag.Value.
func (e *Edge) Set(s string) error {
	switch strings.ToLower(s) {
	case "wrap":
		*e = Wrap
	case "clip":
		*e = Clip
	default:
		return fmt.Errorf("unknown edge mode %q (want wrap or clip)", s)
	}
	return nil
}

// Frame is a point-in-time copy of the display contents,
// indexed by row then column.
type Frame [Height][Width]bool

func (f *Frame) String() string {
	var b strings.Builder
	for y := range f {
		for _, on := range f[y] {
			if on {
				b.WriteByte('O')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Display is the monochrome CHIP-8 screen.
type Display struct {
	Edge Edge

	px      Frame
	changed bool
	ops     int // count of operations that changed a pixel
}

// Clear turns off every pixel.
func (d *Display) Clear() {
	d.changed = d.px != Frame{}
	if d.changed {
		d.px = Frame{}
		d.ops++
	}
}

// Draw XORs the sprite rows onto the display with its top-left corner at
// (x, y), taken modulo the display size. Each row is eight pixels wide, most
// significant bit leftmost. It reports whether any pixel was turned off.
func (d *Display) Draw(x, y int, rows []byte) (collision bool) {
	x, y = mod(x, Width), mod(y, Height)
	d.changed = false
	for j, row := range rows {
		py := y + j
		if py >= Height {
			if d.Edge == Clip {
				break
			}
			py %= Height
		}
		for i := 0; i < 8; i++ {
			if row&(0x80>>i) == 0 {
				continue
			}
			px := x + i
			if px >= Width {
				if d.Edge == Clip {
					break
				}
				px %= Width
			}
			if d.px[py][px] {
				collision = true
			}
			d.px[py][px] = !d.px[py][px]
			d.changed = true
		}
	}
	if d.changed {
		d.ops++
	}
	return collision
}

// Pixel reports whether the pixel at (x, y) is on.
// Coordinates outside the display report false.
func (d *Display) Pixel(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	return d.px[y][x]
}

// Snapshot returns a copy of the display contents.
func (d *Display) Snapshot() Frame { return d.px }

// Changed reports whether the last Clear or Draw changed any pixel.
func (d *Display) Changed() bool { return d.changed }

// Ops returns the number of Clear and Draw calls that changed any pixel.
func (d *Display) Ops() int { return d.ops }

func mod(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
