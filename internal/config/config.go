package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ProjectFile is the per-directory override, found by walking up from the
// working directory.
const ProjectFile = ".mentorgraph.toml"

// Config holds mentorgraph configuration.
type Config struct {
	Data        DataConfig        `toml:"data"`
	Simulation  SimulationConfig  `toml:"simulation"`
	View        ViewConfig        `toml:"view"`
	Arrange     ArrangeConfig     `toml:"arrange"`
	Export      ExportConfig      `toml:"export"`
	Interaction InteractionConfig `toml:"interaction"`
	Log         LogConfig         `toml:"log"`
	Serve       ServeConfig       `toml:"serve"`
}

// DataConfig says where students and tutoring come from. Files win over
// the API when both are set.
type DataConfig struct {
	APIURL       string `toml:"api_url"`
	StudentsFile string `toml:"students_file"`
	TutoringFile string `toml:"tutoring_file"`
	Timeout      int    `toml:"timeout"` // seconds
}

// SimulationConfig tunes the force layout.
type SimulationConfig struct {
	ForceStrength     float64 `toml:"force_strength"`
	AlphaDecay        float64 `toml:"alpha_decay"`
	AlphaMin          float64 `toml:"alpha_min"`
	VelocityDecay     float64 `toml:"velocity_decay"`
	LinkDistance      float64 `toml:"link_distance"`
	ChargeDistanceMax float64 `toml:"charge_distance_max"`
	CollisionMargin   float64 `toml:"collision_margin"`
	Seed              int64   `toml:"seed"` // 0 = time based
}

// ViewConfig controls the canvas and its animations.
type ViewConfig struct {
	Width           float64 `toml:"width"`
	Height          float64 `toml:"height"`
	ZoomPadding     float64 `toml:"zoom_padding"`
	FitDurationMS   int     `toml:"fit_duration_ms"`
	FitEpsilon      float64 `toml:"fit_epsilon"`
	FrameMS         int     `toml:"frame_ms"`
	DragAlphaTarget float64 `toml:"drag_alpha_target"`
}

// ArrangeConfig controls promotion bands.
type ArrangeConfig struct {
	SpacingFactor  float64 `toml:"spacing_factor"`
	ReleaseDelayMS int     `toml:"release_delay_ms"`
}

// ExportConfig controls snapshots.
type ExportConfig struct {
	PaddingRatio float64 `toml:"padding_ratio"`
	Background   string  `toml:"background"`
	Filename     string  `toml:"filename"`
}

// InteractionConfig controls hit testing.
type InteractionConfig struct {
	HitWidth      float64 `toml:"hit_width"`
	LinkWidth     float64 `toml:"link_width"`
	ClickDistance float64 `toml:"click_distance"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "text", "json"
}

// ServeConfig controls the live view host.
type ServeConfig struct {
	Addr  string `toml:"addr"`
	Watch bool   `toml:"watch"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Data: DataConfig{APIURL: "http://localhost:3000", Timeout: 10},
		Simulation: SimulationConfig{
			ForceStrength:     100,
			AlphaDecay:        0.05,
			AlphaMin:          0.001,
			VelocityDecay:     0.4,
			LinkDistance:      30,
			ChargeDistanceMax: 500,
			CollisionMargin:   50,
		},
		View: ViewConfig{
			Width:           800,
			Height:          600,
			ZoomPadding:     100,
			FitDurationMS:   500,
			FitEpsilon:      0.01,
			FrameMS:         16,
			DragAlphaTarget: 0.3,
		},
		Arrange:     ArrangeConfig{SpacingFactor: 3, ReleaseDelayMS: 10},
		Export:      ExportConfig{PaddingRatio: 0.1, Background: "#f0f0f0", Filename: "parainage-telecom.svg"},
		Interaction: InteractionConfig{HitWidth: 20, LinkWidth: 2, ClickDistance: 3},
		Log:         LogConfig{Level: "info", Format: "text"},
		Serve:       ServeConfig{Addr: ":8080"},
	}
}

// TimeoutDuration is the data request timeout.
func (d DataConfig) TimeoutDuration() time.Duration {
	return time.Duration(d.Timeout) * time.Second
}

// FitDuration is the fit animation length.
func (v ViewConfig) FitDuration() time.Duration {
	return time.Duration(v.FitDurationMS) * time.Millisecond
}

// Frame is the animation frame interval.
func (v ViewConfig) Frame() time.Duration {
	return time.Duration(v.FrameMS) * time.Millisecond
}

// ReleaseDelay is how long band pins are held.
func (a ArrangeConfig) ReleaseDelay() time.Duration {
	return time.Duration(a.ReleaseDelayMS) * time.Millisecond
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []string
	if c.View.Width <= 0 || c.View.Height <= 0 {
		errs = append(errs, "view width and height must be positive")
	}
	if c.View.FrameMS <= 0 {
		errs = append(errs, "view.frame_ms must be positive")
	}
	if c.Simulation.AlphaDecay <= 0 || c.Simulation.AlphaDecay >= 1 {
		errs = append(errs, "simulation.alpha_decay must be in (0, 1)")
	}
	if c.Simulation.ForceStrength < 0 {
		errs = append(errs, "simulation.force_strength must not be negative")
	}
	if c.Interaction.HitWidth <= c.Interaction.LinkWidth {
		errs = append(errs, "interaction.hit_width must be wider than interaction.link_width")
	}
	if c.Export.PaddingRatio < 0 {
		errs = append(errs, "export.padding_ratio must not be negative")
	}
	if c.Arrange.SpacingFactor <= 0 {
		errs = append(errs, "arrange.spacing_factor must be positive")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ConfigDir returns the mentorgraph config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "mentorgraph")
}

// Path is the user config file.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// ThemePath is the optional user theme override.
func ThemePath() string {
	return filepath.Join(ConfigDir(), "theme.toml")
}

// findProjectConfig walks up from the working directory looking for
// ProjectFile.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		p := filepath.Join(dir, ProjectFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads the user config, then the project config on top of it.
// Missing or unreadable files leave the defaults in place.
func Load() *Config {
	cfg := Default()
	for _, path := range []string{Path(), findProjectConfig()} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		_ = toml.Unmarshal(data, cfg)
	}
	return cfg
}

// LoadFile reads one config file over the defaults, reporting errors.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil // already exists
	}
	return Save(Default())
}
