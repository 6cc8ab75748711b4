package display

import (
	"fmt"
	"log"

	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/Zyko0/go-sdl3/ttf"
	"github.com/ivlev/eyecam/internal/config"
	"github.com/ivlev/eyecam/internal/keys"
)

const (
	crossSize = 20
	blankLine = 24
)

var (
	black = sdl.Color{R: 0, G: 0, B: 0, A: 255}
	white = sdl.Color{R: 255, G: 255, B: 255, A: 255}
)

// Screen is one SDL window with its renderer.
type Screen struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	w, h     int
}

func openScreen(title string, w, h int, fullscreen bool) (*Screen, error) {
	flags := sdl.WINDOW_RESIZABLE
	if fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN
	}
	window, renderer, err := sdl.CreateWindowAndRenderer(title, w, h, flags)
	if err != nil {
		return nil, fmt.Errorf("create window %q: %w", title, err)
	}
	return &Screen{window: window, renderer: renderer, w: w, h: h}, nil
}

func (s *Screen) clear() {
	s.renderer.SetDrawColor(black.R, black.G, black.B, black.A)
	s.renderer.Clear()
}

func (s *Screen) cross(size float32, c sdl.Color) {
	s.renderer.SetDrawColor(c.R, c.G, c.B, c.A)
	mx, my := float32(s.w)/2, float32(s.h)/2
	s.renderer.RenderLine(mx-size, my, mx+size, my)
	s.renderer.RenderLine(mx, my-size, mx, my+size)
}

// text draws lines centered horizontally, starting at y.
func (s *Screen) text(font *ttf.Font, lines []string, y float32, c sdl.Color) float32 {
	if font == nil {
		return y
	}
	for _, line := range lines {
		if line == "" {
			y += blankLine
			continue
		}
		surf, err := font.RenderTextBlended(line, c)
		if err != nil || surf == nil {
			continue
		}
		tex, err := s.renderer.CreateTextureFromSurface(surf)
		if err == nil {
			dst := sdl.FRect{
				X: (float32(s.w) - float32(surf.W)) / 2,
				Y: y,
				W: float32(surf.W),
				H: float32(surf.H),
			}
			s.renderer.RenderTexture(tex, nil, &dst)
			tex.Destroy()
		}
		y += float32(surf.H)
		surf.Destroy()
	}
	return y
}

func (s *Screen) close() {
	s.renderer.Destroy()
	s.window.Destroy()
}

// Display owns the participant screen (fixation, countdown) and the RA
// screen (instructions, status). SDL must be initialized on the main thread
// before Open.
type Display struct {
	participant *Screen
	ra          *Screen

	title  *ttf.Font
	body   *ttf.Font
	fix    *ttf.Font
	fixPx  float32
	verbal sdl.Color
	wrap   int

	pending []string
}

// Open creates both windows from the site config.
func Open(cfg config.Config) (*Display, error) {
	w, h := 1920, 1080
	if len(cfg.Monitor.Resolution) == 2 {
		w, h = cfg.Monitor.Resolution[0], cfg.Monitor.Resolution[1]
	}
	if cfg.Monitor.Screen != 0 {
		log.Printf("[!] Participant screen %d requested; place the window on that display", cfg.Monitor.Screen)
	}

	d := &Display{verbal: sdl.Color{R: 62, G: 180, B: 240, A: 255}}
	if c, err := ParseHex(cfg.Style.VerbalColor); err == nil {
		d.verbal = sdl.Color{R: c.R, G: c.G, B: c.B, A: 255}
	}

	var err error
	d.participant, err = openScreen("Participant", w, h, cfg.Monitor.Screen != 0)
	if err != nil {
		return nil, err
	}
	d.ra, err = openScreen("RA", 1100, 675, false)
	if err != nil {
		d.participant.close()
		return nil, err
	}

	px := func(deg float64) float32 {
		return letterPixels(deg, cfg.Monitor.Width, cfg.Monitor.Distance, w)
	}
	textDeg := cfg.Style.TextLetterSize * 0.8
	if textDeg > 0 {
		d.wrap = int(cfg.Style.WrapWidth / (textDeg * 0.5))
	}

	if path := FontPath(cfg.Style.FontFile); path != "" {
		d.title, _ = ttf.OpenFont(path, px(cfg.Style.TitleLetterSize)/2)
		d.body, _ = ttf.OpenFont(path, px(textDeg)/2)
		d.fixPx = px(cfg.Style.FixLetterSize)
		d.fix, _ = ttf.OpenFont(path, d.fixPx)
	}
	if d.body == nil {
		log.Printf("[!] No usable font found; screens will show shapes only")
	}
	return d, nil
}

// Fixation shows the white cross on the participant screen.
func (d *Display) Fixation() error {
	d.participant.clear()
	d.participant.cross(crossSize, white)
	return d.participant.renderer.Present()
}

// Countdown shows n on the participant screen.
func (d *Display) Countdown(n int) error {
	d.participant.clear()
	if d.fix != nil {
		d.participant.text(d.fix, []string{fmt.Sprint(n)}, float32(d.participant.h)/2-d.fixPx/2, white)
	}
	return d.participant.renderer.Present()
}

// Instructions shows the scan title, the verbal script and a prompt on the
// RA screen.
func (d *Display) Instructions(title, verbal, prompt string) error {
	s := d.ra
	s.clear()
	y := s.text(d.title, []string{title}, 40, white)
	y = s.text(d.body, Wrap(verbal, d.wrap), y+30, d.verbal)
	s.text(d.body, Wrap(prompt, d.wrap), y+30, white)
	return s.renderer.Present()
}

// Status replaces the RA screen with a single message.
func (d *Display) Status(msg string) error {
	s := d.ra
	s.clear()
	s.text(d.body, Wrap(msg, d.wrap), float32(s.h)/2, white)
	return s.renderer.Present()
}

// PollKeys drains the SDL event queue. Closing a window counts as the
// escape key.
func (d *Display) PollKeys() []string {
	for {
		var ev sdl.Event
		if !sdl.PollEvent(&ev) {
			break
		}
		switch ev.Type {
		case sdl.EVENT_QUIT:
			d.pending = append(d.pending, keys.Escape)
		case sdl.EVENT_KEY_DOWN:
			d.pending = append(d.pending, keys.Normalize(ev.KeyboardEvent().Key.KeyName()))
		}
	}
	out := d.pending
	d.pending = nil
	return out
}

func (d *Display) Close() {
	for _, f := range []*ttf.Font{d.title, d.body, d.fix} {
		if f != nil {
			f.Close()
		}
	}
	d.ra.close()
	d.participant.close()
}
