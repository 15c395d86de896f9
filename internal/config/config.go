package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/gatesim/internal/circuit"
	"github.com/san-kum/gatesim/internal/history"
	"github.com/san-kum/gatesim/internal/sim"
)

const (
	DefaultDt        = 0.1
	DefaultSteps     = 100
	DefaultMaxPasses = 64
	DefaultFPS       = 20
	DefaultDataDir   = ".gatesim"
)

type Config struct {
	Circuit      string           `yaml:"circuit" toml:"circuit"`
	Dt           float64          `yaml:"dt" toml:"dt"`
	Steps        int              `yaml:"steps" toml:"steps"`
	MaxPasses    int              `yaml:"max_passes" toml:"max_passes"`
	Probes       []string         `yaml:"probes,omitempty" toml:"probes"`
	Stimulus     []StimulusConfig `yaml:"stimulus,omitempty" toml:"stimulus"`
	HistoryDepth int              `yaml:"history_depth" toml:"history_depth"`
	DataDir      string           `yaml:"data_dir" toml:"data_dir"`
	FPS          int              `yaml:"fps" toml:"fps"`
}

type StimulusConfig struct {
	Step  int    `yaml:"step" toml:"step"`
	Input string `yaml:"input" toml:"input"`
	Level int    `yaml:"level" toml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		Circuit:      "half_adder",
		Dt:           DefaultDt,
		Steps:        DefaultSteps,
		MaxPasses:    DefaultMaxPasses,
		HistoryDepth: history.DefaultDepth,
		DataDir:      DefaultDataDir,
		FPS:          DefaultFPS,
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads a config over the defaults. Files ending in .toml are read
// as TOML, anything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var data []byte
	if isTOML(path) {
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
			return err
		}
		data = []byte(sb.String())
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt < 0 {
		return fmt.Errorf("dt must not be negative, got %f", c.Dt)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", c.Steps)
	}
	if c.MaxPasses <= 0 {
		return fmt.Errorf("max_passes must be positive, got %d", c.MaxPasses)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	for i, st := range c.Stimulus {
		if st.Input == "" {
			return fmt.Errorf("stimulus %d has no input", i)
		}
		if st.Level != 0 && st.Level != 1 {
			return fmt.Errorf("stimulus %d: level must be 0 or 1, got %d", i, st.Level)
		}
	}
	return nil
}

// SimConfig converts the run settings for the simulator.
func (c *Config) SimConfig() sim.Config {
	cfg := sim.Config{
		Dt:          c.Dt,
		Steps:       c.Steps,
		Probes:      c.Probes,
		SettleFirst: c.MaxPasses,
	}
	for _, st := range c.Stimulus {
		cfg.Stimuli = append(cfg.Stimuli, sim.Stimulus{
			Step:  st.Step,
			Input: st.Input,
			Level: circuit.FromBool(st.Level != 0),
		})
	}
	return cfg
}
