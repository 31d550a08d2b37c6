// Package config provides configuration loading and access for the engine.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all engine configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Engine    EngineConfig    `yaml:"engine"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Theme     string          `yaml:"theme"` // active theme name
	Themes    []ThemeConfig   `yaml:"themes"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the windowed host.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// EngineConfig holds frame loop parameters.
type EngineConfig struct {
	DT           float64 `yaml:"dt"`            // simulation increment per frame (1 = one tick)
	TimeStep     float64 `yaml:"time_step"`     // render clock advance per frame, seconds
	SeedAttempts int     `yaml:"seed_attempts"` // resample budget for invalid seeded values
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // frames per stats window
	PerfWindow  int `yaml:"perf_window"`  // frames in the rolling perf window
}

// ThemeConfig is one visual preset. Every historical variant of the
// background is expressed as a theme rather than a separate code path.
type ThemeConfig struct {
	Name       string           `yaml:"name"`
	Palette    []Color          `yaml:"palette"`
	Background BackgroundConfig `yaml:"background"`
	Grid       GridConfig       `yaml:"grid"`
	Outline    OutlineConfig    `yaml:"outline"`
	Kinds      []KindConfig     `yaml:"kinds"`
	Topology   TopologyConfig   `yaml:"topology"`
	Packets    PacketConfig     `yaml:"packets"`
	Labels     LabelConfig      `yaml:"labels"`
}

// BackgroundConfig describes the full-surface wash.
type BackgroundConfig struct {
	Stops []GradientStop `yaml:"stops"`
}

// GradientStop is one color stop of the diagonal background gradient.
type GradientStop struct {
	Offset  float64 `yaml:"offset"`
	Color   Color   `yaml:"color"`
	Opacity float64 `yaml:"opacity"`
}

// GridConfig describes the static structural grid.
type GridConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Columns      int     `yaml:"columns"`
	Rows         int     `yaml:"rows"`
	MajorColumns int     `yaml:"major_columns"` // every Nth column is major
	MajorRows    int     `yaml:"major_rows"`    // every Nth row is major
	MajorColor   Color   `yaml:"major_color"`
	MinorColor   Color   `yaml:"minor_color"`
	MajorOpacity float64 `yaml:"major_opacity"`
	MinorOpacity float64 `yaml:"minor_opacity"`
	MajorWidth   float64 `yaml:"major_width"`
	MinorWidth   float64 `yaml:"minor_width"`
}

// OutlineConfig describes static polylines in normalized [0,1] surface
// coordinates (the map outline of the world-map theme).
type OutlineConfig struct {
	Color   Color         `yaml:"color"`
	Opacity float64       `yaml:"opacity"`
	Width   float64       `yaml:"width"`
	Paths   [][][]float64 `yaml:"paths"`
}

// KindConfig configures one entity kind within a theme.
type KindConfig struct {
	Kind        string            `yaml:"kind"` // star | flow_node | signal_wave | flow_point | glyph | typed_line
	Count       int               `yaml:"count"`
	Boundary    string            `yaml:"boundary"` // wrap | bounce
	Margin      float64           `yaml:"margin"`
	Size        Range             `yaml:"size"`
	Opacity     Range             `yaml:"opacity"`
	VelocityX   Range             `yaml:"velocity_x"`
	VelocityY   Range             `yaml:"velocity_y"`
	PulseSpeed  Range             `yaml:"pulse_speed"`
	PulseAmount float64           `yaml:"pulse_amount"` // fraction of size modulated by the pulse
	Glow        float64           `yaml:"glow"`
	Core        bool              `yaml:"core"` // draw a bright inner core
	Colors      []Color           `yaml:"colors"`
	TrailLength int               `yaml:"trail_length"`
	MaxSpeed    float64           `yaml:"max_speed"`
	Drag        float64           `yaml:"drag"`
	LinkPull    float64           `yaml:"link_pull"` // attraction along topology edges
	Graph       bool              `yaml:"graph"`     // participates in the topology
	Drift       DriftConfig       `yaml:"drift"`
	Interaction InteractionConfig `yaml:"interaction"`
	Wave        WaveConfig        `yaml:"wave"`
	Glyph       GlyphConfig       `yaml:"glyph"`
	Typing      TypingConfig      `yaml:"typing"`
	Labels      []string          `yaml:"labels"` // labels revealed on highlight
}

// DriftConfig configures the cosmetic oscillation added to motion.
type DriftConfig struct {
	Mode      string  `yaml:"mode"` // none | sine | noise
	Amplitude float64 `yaml:"amplitude"`
	Scale     float64 `yaml:"scale"` // noise spatial frequency
	Speed     float64 `yaml:"speed"` // noise time speed
}

// InteractionConfig configures the pointer influence on a kind.
type InteractionConfig struct {
	Mode      string  `yaml:"mode"` // none | attract | repel
	Radius    float64 `yaml:"radius"`
	Strength  float64 `yaml:"strength"`
	Highlight bool    `yaml:"highlight"`
}

// WaveConfig configures signal waves.
type WaveConfig struct {
	Amplitude   Range   `yaml:"amplitude"`
	Frequency   Range   `yaml:"frequency"`
	Speed       Range   `yaml:"speed"`
	Thickness   Range   `yaml:"thickness"`
	SparkChance float64 `yaml:"spark_chance"`
}

// GlyphConfig configures floating glyphs.
type GlyphConfig struct {
	Symbols   []string `yaml:"symbols"`
	Spin      Range    `yaml:"spin"`
	Color     Color    `yaml:"color"`
	Reshuffle float64  `yaml:"reshuffle"` // per-step chance a glyph changes symbol
}

// TypingConfig configures typed-text lines.
type TypingConfig struct {
	Lines             []string `yaml:"lines"`
	TicksPerChar      int      `yaml:"ticks_per_char"`
	HoldTicks         int      `yaml:"hold_ticks"`
	EraseTicksPerChar int      `yaml:"erase_ticks_per_char"`
	Color             Color    `yaml:"color"`
}

// TopologyConfig configures the connection graph.
type TopologyConfig struct {
	Strategy  string  `yaml:"strategy"` // none | proximity | fixed_degree
	Cutoff    float64 `yaml:"cutoff"`
	Neighbors int     `yaml:"neighbors"`
	LongRange int     `yaml:"long_range"`
	Opacity   float64 `yaml:"opacity"`
	Width     float64 `yaml:"width"`
}

// PacketConfig configures data packets travelling along connections.
type PacketConfig struct {
	Max         int     `yaml:"max"`
	SpawnChance float64 `yaml:"spawn_chance"`
	Speed       Range   `yaml:"speed"`
	Size        float64 `yaml:"size"`
	Color       Color   `yaml:"color"`
}

// LabelConfig configures the probabilistic floating data labels.
type LabelConfig struct {
	Chance  float64  `yaml:"chance"`
	Texts   []string `yaml:"texts"`
	Color   Color    `yaml:"color"`
	Opacity float64  `yaml:"opacity"`
	Size    float64  `yaml:"size"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ThemeIndex map[string]int // name -> index into Themes
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

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived fills defaults and builds lookup tables.
func (c *Config) computeDerived() error {
	if c.Engine.DT <= 0 {
		c.Engine.DT = 1
	}
	if c.Engine.TimeStep <= 0 {
		c.Engine.TimeStep = 0.016
	}
	if c.Engine.SeedAttempts < 1 {
		c.Engine.SeedAttempts = 8
	}
	if c.Telemetry.StatsWindow < 1 {
		c.Telemetry.StatsWindow = 600
	}

	c.Derived.ThemeIndex = make(map[string]int, len(c.Themes))
	for i := range c.Themes {
		th := &c.Themes[i]
		if th.Name == "" {
			return fmt.Errorf("theme %d: missing name", i)
		}
		if _, dup := c.Derived.ThemeIndex[th.Name]; dup {
			return fmt.Errorf("theme %q: defined twice", th.Name)
		}
		c.Derived.ThemeIndex[th.Name] = i
		for j := range th.Kinds {
			if err := th.Kinds[j].validate(); err != nil {
				return fmt.Errorf("theme %q: kind %d: %w", th.Name, j, err)
			}
		}
	}

	if c.Theme == "" && len(c.Themes) > 0 {
		c.Theme = c.Themes[0].Name
	}
	if _, ok := c.Derived.ThemeIndex[c.Theme]; !ok {
		return fmt.Errorf("active theme %q not defined", c.Theme)
	}
	return nil
}

func (k *KindConfig) validate() error {
	switch k.Kind {
	case "star", "flow_node", "signal_wave", "flow_point", "glyph", "typed_line":
	default:
		return fmt.Errorf("unknown kind %q", k.Kind)
	}
	switch k.Boundary {
	case "":
		k.Boundary = "wrap"
	case "wrap", "bounce":
	default:
		return fmt.Errorf("%s: unknown boundary %q", k.Kind, k.Boundary)
	}
	if k.Count < 0 {
		return fmt.Errorf("%s: negative count %d", k.Kind, k.Count)
	}
	if k.Margin < 0 {
		return fmt.Errorf("%s: negative margin", k.Kind)
	}
	if k.Size.Max <= 0 && k.Kind != "signal_wave" {
		return fmt.Errorf("%s: size range must allow positive values", k.Kind)
	}
	return nil
}

// ThemeByName returns the named theme.
func (c *Config) ThemeByName(name string) (*ThemeConfig, error) {
	i, ok := c.Derived.ThemeIndex[name]
	if !ok {
		return nil, fmt.Errorf("unknown theme %q", name)
	}
	return &c.Themes[i], nil
}

// ActiveTheme returns the theme selected by the theme key.
func (c *Config) ActiveTheme() *ThemeConfig {
	th, err := c.ThemeByName(c.Theme)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return th
}

// Runes returns the distinct non-ASCII runes the theme can draw as text,
// in first-seen order. Font atlases need them loaded up front.
func (t *ThemeConfig) Runes() []rune {
	seen := make(map[rune]bool)
	var out []rune
	add := func(s string) {
		for _, r := range s {
			if r < 127 || seen[r] {
				continue
			}
			seen[r] = true
			out = append(out, r)
		}
	}
	for i := range t.Kinds {
		k := &t.Kinds[i]
		for _, s := range k.Glyph.Symbols {
			add(s)
		}
		for _, s := range k.Labels {
			add(s)
		}
		for _, s := range k.Typing.Lines {
			add(s)
		}
	}
	for _, s := range t.Labels.Texts {
		add(s)
	}
	return out
}

// ThemeNames returns theme names in declaration order.
func (c *Config) ThemeNames() []string {
	names := make([]string, len(c.Themes))
	for i := range c.Themes {
		names[i] = c.Themes[i].Name
	}
	return names
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
