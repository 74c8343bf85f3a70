package config

import (
	"fmt"
	"math"
	"os"

	"github.com/caarlos0/env"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/arcaluminis-ws2812/internal/animation"
	"github.com/coreman2200/arcaluminis-ws2812/internal/led"
	"github.com/coreman2200/arcaluminis-ws2812/internal/pattern"
)

// Outputs a frame can be sent to.
const (
	OutputSPI     = "spi"     // WS2812 symbols over spidev at 6.5 MHz
	OutputNRZ     = "nrzled"  // periph nrzled encoder
	OutputConsole = "console" // terminal preview
)

type Pattern struct {
	Name      string  `yaml:"name"`
	Color     []int   `yaml:"color,flow"` // R, G, B
	Hz        float64 `yaml:"hz"`
	Clockwise bool    `yaml:"clockwise"`
}

type Monitor struct {
	Enabled bool    `yaml:"enabled"`
	Addr    string  `yaml:"addr"`    // e.g. :8080
	MaxFPS  float64 `yaml:"max_fps"` // broadcast throttle
}

type Schedule struct {
	Spec    string  `yaml:"spec"` // cron expression
	Pattern Pattern `yaml:"pattern"`
}

type Config struct {
	Device   string `yaml:"device" env:"WS2812_DEVICE"`     // e.g. /dev/spidev1.0
	NumLEDs  int    `yaml:"num_leds" env:"WS2812_NUM_LEDS"` // > 0
	FPS      int    `yaml:"fps" env:"WS2812_FPS"`
	Output   string `yaml:"output" env:"WS2812_OUTPUT"` // "spi" | "nrzled" | "console"
	LogLevel string `yaml:"log_level" env:"WS2812_LOG_LEVEL"`

	Pattern   Pattern    `yaml:"pattern,omitempty"`
	Monitor   Monitor    `yaml:"monitor,omitempty"`
	Schedules []Schedule `yaml:"schedules,omitempty"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", led.ErrInvalidConfiguration, path, err)
	}
	c.setDefaults()
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// ApplyEnv overrides scalar settings from WS2812_* environment variables.
func ApplyEnv(c *Config) error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("%w: environment: %v", led.ErrInvalidConfiguration, err)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Device == "" {
		c.Device = "/dev/spidev0.0"
	}
	if c.FPS == 0 {
		c.FPS = animation.DefaultFPS
	}
	if c.Output == "" {
		c.Output = OutputSPI
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Monitor.Addr == "" {
		c.Monitor.Addr = ":8080"
	}
	if c.Monitor.MaxFPS == 0 {
		c.Monitor.MaxFPS = 20
	}
}

// Validate checks everything that can be checked without touching hardware.
func (c *Config) Validate() error {
	if c.NumLEDs <= 0 {
		return fmt.Errorf("%w: num_leds must be > 0, got %d", led.ErrInvalidConfiguration, c.NumLEDs)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be > 0, got %d", led.ErrInvalidConfiguration, c.FPS)
	}
	switch c.Output {
	case OutputSPI, OutputNRZ:
		if _, _, err := ParseDevice(c.Device); err != nil {
			return err
		}
	case OutputConsole:
	default:
		return fmt.Errorf("%w: unknown output %q", led.ErrInvalidConfiguration, c.Output)
	}
	if c.Pattern.Name != "" {
		if _, err := c.Pattern.Spec(); err != nil {
			return err
		}
	}
	for i, s := range c.Schedules {
		if s.Spec == "" {
			return fmt.Errorf("%w: schedule %d has no cron spec", led.ErrInvalidConfiguration, i)
		}
		if _, err := s.Pattern.Spec(); err != nil {
			return fmt.Errorf("schedule %d: %w", i, err)
		}
	}
	return nil
}

// Spec converts the file form of a pattern, reordering its R,G,B color.
func (p Pattern) Spec() (pattern.Spec, error) {
	if len(p.Color) != 3 {
		return pattern.Spec{}, fmt.Errorf("%w: pattern color needs 3 values (R, G, B), got %d",
			led.ErrInvalidConfiguration, len(p.Color))
	}
	switch p.Name {
	case pattern.Solid, pattern.Breathe, pattern.Chase, pattern.Channels:
	default:
		return pattern.Spec{}, fmt.Errorf("%w: unknown pattern %q", led.ErrInvalidConfiguration, p.Name)
	}
	if p.Hz < 0 || math.IsNaN(p.Hz) || math.IsInf(p.Hz, 0) {
		return pattern.Spec{}, fmt.Errorf("%w: pattern hz must be a finite value >= 0, got %v",
			led.ErrInvalidConfiguration, p.Hz)
	}
	hz := p.Hz
	if hz == 0 {
		hz = 1
	}
	return pattern.Spec{
		Name:      p.Name,
		Color:     led.RGB(p.Color[0], p.Color[1], p.Color[2]),
		Hz:        hz,
		Clockwise: p.Clockwise,
	}, nil
}
