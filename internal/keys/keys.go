// Package keys gives keyboard input from the different windowing backends a
// common vocabulary: lower-case names such as "escape", "space", "up" or "5".
package keys

import "strings"

const (
	Escape = "escape"
	Space  = "space"
	Return = "return"
	Up     = "up"
	Down   = "down"
	Left   = "left"
	Right  = "right"
)

// Source is polled for keys pressed since the previous call.
type Source interface {
	PollKeys() []string
}

// SourceFunc adapts a function to Source.
type SourceFunc func() []string

func (f SourceFunc) PollKeys() []string { return f() }

var aliases = map[string]string{
	"esc":        Escape,
	" ":          Space,
	"enter":      Return,
	"arrowup":    Up,
	"arrowdown":  Down,
	"arrowleft":  Left,
	"arrowright": Right,
	"keypad 5":   "5",
	"kp_5":       "5",
}

// Normalize maps a backend key name to the shared vocabulary.
func Normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if name == " " {
		n = " "
	}
	if a, ok := aliases[n]; ok {
		return a
	}
	return n
}

// highgui key codes; GTK builds report the full keysym, others the low byte
var highGUI = map[int]string{
	27:      Escape,
	32:      Space,
	13:      Return,
	10:      Return,
	65361:   Left,
	65362:   Up,
	65363:   Right,
	65364:   Down,
	2424832: Left,
	2490368: Up,
	2555904: Right,
	2621440: Down,
	63234:   Left,
	63232:   Up,
	63235:   Right,
	63233:   Down,
}

// FromHighGUI translates a code returned by OpenCV's waitKey. Negative codes
// mean no key.
func FromHighGUI(code int) (string, bool) {
	if code < 0 {
		return "", false
	}
	if name, ok := highGUI[code]; ok {
		return name, true
	}
	if code > 0xff {
		code &= 0xff
	}
	if code >= 33 && code < 127 {
		return Normalize(string(rune(code))), true
	}
	return "", false
}

// Contains reports whether name is among pressed.
func Contains(pressed []string, name string) bool {
	for _, k := range pressed {
		if k == name {
			return true
		}
	}
	return false
}
