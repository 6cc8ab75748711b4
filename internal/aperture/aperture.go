package aperture

import (
	"fmt"
	"image"
)

// Aperture is a crop rectangle in frame pixels, stored the way the site file
// lists it: [top bottom left right].
type Aperture struct {
	Top, Bottom, Left, Right int
}

// Command nudges an aperture by one step.
type Command string

const (
	Up      Command = "up"
	Down    Command = "down"
	Left    Command = "left"
	Right   Command = "right"
	Bigger  Command = "b"
	Smaller Command = "s"
)

// direction of each edge for a command, in [top bottom left right] order
var directions = map[Command][4]int{
	Up:      {-1, -1, 0, 0},
	Down:    {1, 1, 0, 0},
	Left:    {0, 0, -1, -1},
	Right:   {0, 0, 1, 1},
	Bigger:  {-1, 1, -1, 1},
	Smaller: {1, -1, 1, -1},
}

// FromSlice converts the config representation.
func FromSlice(v []int) (Aperture, error) {
	if len(v) != 4 {
		return Aperture{}, fmt.Errorf("aperture needs 4 values, got %d", len(v))
	}
	return Aperture{Top: v[0], Bottom: v[1], Left: v[2], Right: v[3]}, nil
}

func (a Aperture) Slice() []int {
	return []int{a.Top, a.Bottom, a.Left, a.Right}
}

func (a Aperture) Height() int { return a.Bottom - a.Top }
func (a Aperture) Width() int  { return a.Right - a.Left }

// Rect returns the aperture as an image rectangle (x = columns, y = rows).
func (a Aperture) Rect() image.Rectangle {
	return image.Rect(a.Left, a.Top, a.Right, a.Bottom)
}

func (a Aperture) String() string {
	return fmt.Sprintf("[%d %d %d %d]", a.Top, a.Bottom, a.Left, a.Right)
}

// Legal reports whether the aperture can be used on a frameH x frameW frame.
func (a Aperture) Legal(frameH, frameW int) bool {
	return a.Top >= 0 && a.Left >= 0 &&
		a.Bottom <= frameH && a.Right <= frameW &&
		a.Height() > 0 && a.Width() > 0 &&
		a.Height()%2 == 0 && a.Width()%2 == 0
}

func (a Aperture) shift(cmd Command, n int) Aperture {
	d, ok := directions[cmd]
	if !ok {
		return a
	}
	return Aperture{
		Top:    a.Top + n*d[0],
		Bottom: a.Bottom + n*d[1],
		Left:   a.Left + n*d[2],
		Right:  a.Right + n*d[3],
	}
}

// Nudge applies one calibration command. Moves use shift pixels, resizes use
// scale pixels per side. The result is passed through ClosestLegal.
func (a Aperture) Nudge(cmd Command, shift, scale, frameH, frameW int) Aperture {
	n := shift
	if cmd == Bigger || cmd == Smaller {
		n = scale
	}
	return ClosestLegal(a.shift(cmd, n), frameH, frameW)
}

// Default is a centered crop covering 20% of each frame dimension.
func Default(frameH, frameW int) Aperture {
	a := Aperture{
		Top:    frameH/2 - frameH/10,
		Bottom: frameH/2 + frameH/10,
		Left:   frameW/2 - frameW/10,
		Right:  frameW/2 + frameW/10,
	}
	return ClosestLegal(a, frameH, frameW)
}

// ClosestLegal returns the closest aperture of even width and height that
// lies fully inside a frameH x frameW frame.
func ClosestLegal(a Aperture, frameH, frameW int) Aperture {
	// odd spans grow by one pixel
	if a.Height()%2 != 0 {
		a.Bottom++
	}
	if a.Width()%2 != 0 {
		a.Right++
	}

	// degenerate rectangles get the smallest even size
	if a.Height() <= 0 {
		a.Bottom = a.Top + 2
	}
	if a.Width() <= 0 {
		a.Right = a.Left + 2
	}

	// too large: shrink symmetrically; an odd overshoot rounds up so the
	// span stays even
	if over := a.Height() - evenFloor(frameH); over > 0 {
		k := over/2 + over%2
		a.Top += k
		a.Bottom -= k
	}
	if over := a.Width() - evenFloor(frameW); over > 0 {
		k := over/2 + over%2
		a.Left += k
		a.Right -= k
	}

	// off the frame: translate back on
	if a.Top < 0 {
		a = a.shift(Down, -a.Top)
	}
	if a.Left < 0 {
		a = a.shift(Right, -a.Left)
	}
	if a.Bottom > frameH {
		a = a.shift(Up, a.Bottom-frameH)
	}
	if a.Right > frameW {
		a = a.shift(Left, a.Right-frameW)
	}
	return a
}

func evenFloor(n int) int {
	if n < 0 {
		return 0
	}
	return n - n%2
}
