package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/eyecam/internal/keys"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the scan and calibration tools look for site settings.
const DefaultPath = "siteConfig.yaml"

var ErrNotFound = errors.New("site configuration not found")

// Config holds the site-specific settings shared by every session.
// It is loaded once and passed by value to the components that need it.
type Config struct {
	Trigger       string            `yaml:"trigger"`
	AbortKey      string            `yaml:"abort_key,omitempty"`
	Monitor       MonitorConfig     `yaml:"monitor"`
	Style         StyleConfig       `yaml:"style"`
	Record        Switch            `yaml:"record"`
	UseAperture   Switch            `yaml:"use_aperture"`
	Aperture      []int             `yaml:"aperture,omitempty"`
	DualCam       Switch            `yaml:"dualCam"`
	Camera        CameraConfig      `yaml:"camera,omitempty"`
	SerialTrigger SerialConfig      `yaml:"serial_trigger,omitempty"`
	Output        OutputConfig      `yaml:"output,omitempty"`
	QueueCapacity int               `yaml:"queue_capacity,omitempty"`
	Calibration   CalibrationConfig `yaml:"calibration,omitempty"`
}

// MonitorConfig describes the participant screen.
type MonitorConfig struct {
	Screen     int     `yaml:"screen"`
	Width      float64 `yaml:"width"`    // cm
	Distance   float64 `yaml:"distance"` // cm
	Resolution []int   `yaml:"resolution,omitempty"`
}

type StyleConfig struct {
	TitleLetterSize    float64 `yaml:"titleLetterSize"`
	TextLetterSize     float64 `yaml:"textLetterSize"`
	FixLetterSize      float64 `yaml:"fixLetterSize"`
	WrapWidth          float64 `yaml:"wrapWidth"`
	SubtitleLetterSize float64 `yaml:"subtitleLetterSize"`
	VerbalColor        string  `yaml:"verbalColor"`
	FontFile           string  `yaml:"fontFile,omitempty"`
}

type CameraConfig struct {
	// Index overrides the dualCam heuristic when >= 0.
	Index int     `yaml:"index"`
	FPS   float64 `yaml:"fps"`
}

// SerialConfig enables a trigger box that forwards scanner pulses as bytes.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

type OutputConfig struct {
	DataDir  string `yaml:"data_dir"`
	VideoExt string `yaml:"video_ext"`
	Encoder  string `yaml:"encoder"`
	Quality  int    `yaml:"quality"`
}

type CalibrationConfig struct {
	Shift int `yaml:"shift"`
	Scale int `yaml:"scale"`
}

// Switch is a boolean that also accepts the yes/no spelling used by older
// site files.
type Switch bool

func (s *Switch) UnmarshalYAML(node *yaml.Node) error {
	switch strings.ToLower(strings.TrimSpace(node.Value)) {
	case "yes", "y", "true", "on", "1":
		*s = true
	case "no", "n", "false", "off", "0", "":
		*s = false
	default:
		return fmt.Errorf("line %d: %q is not a yes/no value", node.Line, node.Value)
	}
	return nil
}

func (s Switch) MarshalYAML() (interface{}, error) {
	if s {
		return "yes", nil
	}
	return "no", nil
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() Config {
	return Config{
		Trigger:  "5",
		AbortKey: "escape",
		Monitor: MonitorConfig{
			Screen:     0,
			Width:      53,
			Distance:   120,
			Resolution: []int{1920, 1080},
		},
		Style: StyleConfig{
			TitleLetterSize:    3,
			TextLetterSize:     1.5,
			FixLetterSize:      2.5,
			WrapWidth:          30,
			SubtitleLetterSize: 1,
			VerbalColor:        "#3EB4F0",
		},
		Record: true,
		Camera: CameraConfig{Index: -1, FPS: 30},
		SerialTrigger: SerialConfig{
			Baud: 115200,
		},
		Output: OutputConfig{
			DataDir:  "data",
			VideoExt: ".mp4",
			Quality:  23,
		},
		QueueCapacity: 256,
		Calibration:   CalibrationConfig{Shift: 30, Scale: 15},
	}
}

// Validate fills missing values with defaults and rejects settings that
// cannot be used.
func (c *Config) Validate() error {
	def := DefaultConfig()
	if strings.TrimSpace(c.Trigger) == "" {
		return errors.New("trigger key is not set")
	}
	if c.AbortKey == "" {
		c.AbortKey = def.AbortKey
	}
	if keys.Normalize(c.AbortKey) == keys.Normalize(c.Trigger) {
		return fmt.Errorf("trigger and abort key are both %q", keys.Normalize(c.Trigger))
	}
	if c.Monitor.Screen < 0 {
		c.Monitor.Screen = 0
	}
	if len(c.Monitor.Resolution) != 2 || c.Monitor.Resolution[0] <= 0 || c.Monitor.Resolution[1] <= 0 {
		c.Monitor.Resolution = def.Monitor.Resolution
	}
	if c.Style.TitleLetterSize <= 0 {
		c.Style.TitleLetterSize = def.Style.TitleLetterSize
	}
	if c.Style.TextLetterSize <= 0 {
		c.Style.TextLetterSize = def.Style.TextLetterSize
	}
	if c.Style.FixLetterSize <= 0 {
		c.Style.FixLetterSize = def.Style.FixLetterSize
	}
	if c.Style.WrapWidth <= 0 {
		c.Style.WrapWidth = def.Style.WrapWidth
	}
	if c.Style.VerbalColor == "" {
		c.Style.VerbalColor = def.Style.VerbalColor
	}
	if c.Camera.FPS <= 0 {
		c.Camera.FPS = def.Camera.FPS
	}
	if c.SerialTrigger.Baud <= 0 {
		c.SerialTrigger.Baud = def.SerialTrigger.Baud
	}
	if c.Output.DataDir == "" {
		c.Output.DataDir = def.Output.DataDir
	}
	if c.Output.VideoExt == "" {
		c.Output.VideoExt = def.Output.VideoExt
	}
	if !strings.HasPrefix(c.Output.VideoExt, ".") {
		c.Output.VideoExt = "." + c.Output.VideoExt
	}
	if c.Output.Quality <= 0 {
		c.Output.Quality = def.Output.Quality
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = def.QueueCapacity
	}
	if c.Calibration.Shift <= 0 {
		c.Calibration.Shift = def.Calibration.Shift
	}
	if c.Calibration.Scale <= 0 {
		c.Calibration.Scale = def.Calibration.Scale
	}
	if c.Aperture != nil {
		if len(c.Aperture) != 4 {
			return fmt.Errorf("aperture must have 4 values [top bottom left right], got %d", len(c.Aperture))
		}
		if c.Aperture[0] >= c.Aperture[1] || c.Aperture[2] >= c.Aperture[3] {
			return fmt.Errorf("aperture %v is empty", c.Aperture)
		}
	}
	if c.UseAperture && c.Aperture == nil {
		return errors.New("use_aperture is on but no aperture is stored; run the calibrator first")
	}
	return nil
}

// CameraIndex picks the eye camera. Laptops with a built-in camera expose the
// frame grabber as device 1.
func (c Config) CameraIndex(testMode bool) int {
	if c.Camera.Index >= 0 {
		return c.Camera.Index
	}
	if bool(c.DualCam) && !testMode {
		return 1
	}
	return 0
}

// Load reads and validates the configuration at path. A missing file is an
// error: every site has to provide its own trigger settings.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			base := filepath.Base(path)
			return Config{}, fmt.Errorf("%w: please copy configuration text file %q to %q and edit it with your trigger and buttons",
				ErrNotFound, base+".example", base)
		}
		return Config{}, err
	}

	// trigger and record must come from the site file
	cfg := DefaultConfig()
	cfg.Trigger = ""
	cfg.Record = false
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path in YAML format.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
