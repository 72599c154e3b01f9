package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/san-kum/linkage/internal/engine"
	"github.com/san-kum/linkage/internal/scenario"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeStep       = 1.0 / 120
	DefaultTickMillis     = 8
	DefaultTicks          = 1200
	DefaultSnapshotBuffer = 8
	DefaultDataDir        = "runs"
)

type Config struct {
	Scenario   string  `yaml:"scenario"`
	Solver     string  `yaml:"solver"`
	TimeStep   float64 `yaml:"time_step"`
	TickMillis int     `yaml:"tick_millis"`
	Ticks      int     `yaml:"ticks"`

	// Gravity overrides the scenario's own gravity when set.
	Gravity *[2]float64 `yaml:"gravity,omitempty"`

	CG             CGConfig `yaml:"cg"`
	SnapshotBuffer int      `yaml:"snapshot_buffer"`
	DataDir        string   `yaml:"data_dir"`
}

type CGConfig struct {
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario:   scenario.Double.String(),
		Solver:     engine.HybridV3.String(),
		TimeStep:   DefaultTimeStep,
		TickMillis: DefaultTickMillis,
		Ticks:      DefaultTicks,
		CG: CGConfig{
			Tolerance:     engine.DefaultTolerance,
			MaxIterations: engine.DefaultMaxIterations,
		},
		SnapshotBuffer: DefaultSnapshotBuffer,
		DataDir:        DefaultDataDir,
	}
}

// Load reads a YAML file over the defaults, so missing keys keep their
// default values.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML file over a copy of base.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	if base.Gravity != nil {
		g := *base.Gravity
		cfg.Gravity = &g
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if _, err := scenario.Parse(c.Scenario); err != nil {
		return err
	}
	if _, err := engine.ParseVariant(c.Solver); err != nil {
		return err
	}
	if c.TimeStep <= 0 {
		return fmt.Errorf("time_step must be positive, got %f", c.TimeStep)
	}
	if c.TickMillis < 0 {
		return fmt.Errorf("tick_millis must not be negative, got %d", c.TickMillis)
	}
	if c.Ticks < 0 {
		return fmt.Errorf("ticks must not be negative, got %d", c.Ticks)
	}
	if c.CG.Tolerance <= 0 {
		return fmt.Errorf("cg.tolerance must be positive, got %g", c.CG.Tolerance)
	}
	if c.CG.MaxIterations <= 0 {
		return fmt.Errorf("cg.max_iterations must be positive, got %d", c.CG.MaxIterations)
	}
	if c.SnapshotBuffer <= 0 {
		return fmt.Errorf("snapshot_buffer must be positive, got %d", c.SnapshotBuffer)
	}
	return nil
}

func (c *Config) ScenarioName() (scenario.Name, error) { return scenario.Parse(c.Scenario) }
func (c *Config) Variant() (engine.Variant, error)     { return engine.ParseVariant(c.Solver) }

func (c *Config) Interval() time.Duration {
	return time.Duration(c.TickMillis) * time.Millisecond
}

// NewEngine validates the config and returns an engine with the scenario
// already built.
func (c *Config) NewEngine(logger *slog.Logger) (*engine.Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	name, _ := c.ScenarioName()
	variant, _ := c.Variant()

	eng := engine.New(c.TimeStep,
		engine.WithLogger(logger),
		engine.WithVariant(variant),
		engine.WithCG(c.CG.Tolerance, c.CG.MaxIterations),
	)
	if err := scenario.Build(eng, name); err != nil {
		return nil, err
	}
	c.applyGravity(eng)
	return eng, nil
}

// Rebuild switches eng to another scenario while keeping the gravity
// override in force.
func (c *Config) Rebuild(eng *engine.Engine, name scenario.Name) error {
	if err := scenario.Build(eng, name); err != nil {
		return err
	}
	c.applyGravity(eng)
	return nil
}

func (c *Config) applyGravity(eng *engine.Engine) {
	if c.Gravity != nil {
		eng.SetGravity(r2.Vec{X: c.Gravity[0], Y: c.Gravity[1]})
	}
}
