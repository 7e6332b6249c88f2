// Package config provides configuration loading and access for the flowing text simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Text      TextConfig      `yaml:"text"`
	Tunables  Tunables        `yaml:"tunables"`
	Autoscale AutoscaleConfig `yaml:"autoscale"`
	Noise     NoiseConfig     `yaml:"noise"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Bookmarks BookmarksConfig `yaml:"bookmarks"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"` // Canvas height; the original stage is 450 tall
	TargetFPS int `yaml:"target_fps"`
}

// TextConfig holds the initial text and how large it is rendered.
type TextConfig struct {
	Initial string  `yaml:"initial"`
	Size    float64 `yaml:"size"`   // Target glyph size in canvas units before fitting
	Margin  int     `yaml:"margin"` // Horizontal padding kept free when fitting text to the canvas
	Ratio   float64 `yaml:"ratio"`  // Model units per device pixel (1 = no HiDPI)
}

// Tunables holds the live physics and sampling parameters.
// Every field applies on the next tick; density and radius also require a resample.
type Tunables struct {
	MouseForce       float64 `yaml:"mouse_force"`        // Inverse-distance repulsion constant
	MouseRange       float64 `yaml:"mouse_range"`        // Repulsion cut-off distance
	MouseDampen      float64 `yaml:"mouse_dampen"`       // Velocity divisor applied on entry to pointer control
	AnchorSmoothMult float64 `yaml:"anchor_smooth_mult"` // Anchor-return spring constant
	MaxSwitchAccel   float64 `yaml:"max_switch_accel"`   // Max velocity change per tick under anchor return
	NoiseMult        float64 `yaml:"noise_mult"`         // Anchor displacement as a fraction of resolution
	Density          float64 `yaml:"density"`            // Sampling resolution in canvas units
	Radius           float64 `yaml:"radius"`             // Particle radius
	Mass             float64 `yaml:"mass"`               // Particle mass
	IdleEpsilon      float64 `yaml:"idle_epsilon"`       // Per-axis speed below which a particle counts as settled
}

// AutoscaleConfig controls scaling density and radius with the rendered text size.
// Tunable density and radius are taken to be correct at text.size; when the
// text is fitted smaller they shrink by rendered/text.size.
type AutoscaleConfig struct {
	Mode string `yaml:"mode"` // off, freeze or always
}

// Autoscale modes.
const (
	AutoscaleOff    = "off"
	AutoscaleFreeze = "freeze"
	AutoscaleAlways = "always"
)

// NoiseConfig holds noise field parameters for anchor displacement.
type NoiseConfig struct {
	Kind  string  `yaml:"kind"`  // simplex or perlin
	Seed  int64   `yaml:"seed"`  // Noise seed
	Scale float64 `yaml:"scale"` // Multiplier applied to grid coordinates before evaluation
}

// Noise backends.
const (
	NoiseSimplex = "simplex"
	NoisePerlin  = "perlin"
)

// PhysicsConfig holds integration scheduling parameters.
type PhysicsConfig struct {
	ParallelThreshold int `yaml:"parallel_threshold"` // Pool size at which integration fans out to workers (0 = never)
	Workers           int `yaml:"workers"`            // Worker count (0 = GOMAXPROCS)
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"` // Ticks per stats window
	BookmarkHistorySize int `yaml:"bookmark_history_size"`
	PerfCollectorWindow int `yaml:"perf_collector_window"`
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	DisturbanceFraction float64 `yaml:"disturbance_fraction"` // Fraction of particles under pointer control that marks a disturbance
	DisturbanceMin      int     `yaml:"disturbance_min"`      // Minimum controlled particles for a disturbance
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	CanvasW32 float32 // Screen.Width as float32
	CanvasH32 float32 // Screen.Height as float32
	FrameSec  float64 // Seconds per frame at TargetFPS
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects configurations that would feed invalid values into the simulation.
func (c *Config) Validate() error {
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("screen size must be positive, got %dx%d", c.Screen.Width, c.Screen.Height)
	}
	if err := c.Tunables.Validate(); err != nil {
		return fmt.Errorf("tunables: %w", err)
	}
	switch c.Autoscale.Mode {
	case AutoscaleOff, AutoscaleFreeze, AutoscaleAlways:
	default:
		return fmt.Errorf("autoscale.mode %q: want %s, %s or %s", c.Autoscale.Mode, AutoscaleOff, AutoscaleFreeze, AutoscaleAlways)
	}
	switch c.Noise.Kind {
	case NoiseSimplex, NoisePerlin:
	default:
		return fmt.Errorf("noise.kind %q: want %s or %s", c.Noise.Kind, NoiseSimplex, NoisePerlin)
	}
	if c.Text.Size <= 0 {
		return fmt.Errorf("text.size must be positive, got %v", c.Text.Size)
	}
	if c.Text.Ratio <= 0 {
		return fmt.Errorf("text.ratio must be positive, got %v", c.Text.Ratio)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.CanvasW32 = float32(c.Screen.Width)
	c.Derived.CanvasH32 = float32(c.Screen.Height)
	if c.Screen.TargetFPS > 0 {
		c.Derived.FrameSec = 1.0 / float64(c.Screen.TargetFPS)
	} else {
		c.Derived.FrameSec = 1.0 / 60.0
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
