package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/gatesim/internal/circuit"
	"github.com/san-kum/gatesim/internal/config"
	"github.com/san-kum/gatesim/internal/netlist"
	"github.com/san-kum/gatesim/internal/sim"
	"github.com/san-kum/gatesim/internal/storage"
)

// loadCircuit resolves ref as, in order, a circuit file (.json snapshot,
// .yaml/.yml/.toml netlist), a built-in preset, or a stored circuit.
// It returns the circuit and a name usable for recorded runs.
func loadCircuit(ctx context.Context, st *storage.Store, ref string) (*circuit.Circuit, string, error) {
	logger := loggerFromContext(ctx)
	opt := circuit.WithLogger(logger)

	if _, err := os.Stat(ref); err == nil {
		c, err := loadCircuitFile(ref, opt)
		if err != nil {
			return nil, "", err
		}
		logger.Debug("loaded circuit file", "path", ref, "components", len(c.Components()))
		return c, runName(strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref))), nil
	}

	if n := netlist.GetPreset(ref); n != nil {
		c, err := n.Circuit(opt)
		return c, ref, err
	}

	if st.HasCircuit(ref) {
		snap, err := st.GetCircuit(ref)
		if err != nil {
			return nil, "", err
		}
		c, err := circuit.FromSnapshot(snap, opt)
		return c, ref, err
	}

	return nil, "", fmt.Errorf("unknown circuit %q (presets: %s)", ref, strings.Join(netlist.ListPresets(), ", "))
}

func loadCircuitFile(path string, opts ...circuit.Option) (*circuit.Circuit, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		snap, err := circuit.LoadFile(path)
		if err != nil {
			return nil, err
		}
		return circuit.FromSnapshot(snap, opts...)
	}
	n, err := netlist.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return n.Circuit(opts...)
}

// runName maps a file name onto the characters the store accepts.
func runName(s string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			return r
		}
		return '_'
	}, s)
	name = strings.TrimLeft(name, "._-")
	if name == "" {
		return "circuit"
	}
	return name
}

// parseStimulus reads "STEP:INPUT=LEVEL", e.g. "10:A=1".
func parseStimulus(s string) (config.StimulusConfig, error) {
	stepStr, rest, ok := strings.Cut(s, ":")
	if !ok {
		return config.StimulusConfig{}, fmt.Errorf("stimulus %q: want STEP:INPUT=LEVEL", s)
	}
	input, levelStr, ok := strings.Cut(rest, "=")
	if !ok || input == "" {
		return config.StimulusConfig{}, fmt.Errorf("stimulus %q: want STEP:INPUT=LEVEL", s)
	}
	step, err := strconv.Atoi(stepStr)
	if err != nil {
		return config.StimulusConfig{}, fmt.Errorf("stimulus %q: bad step: %w", s, err)
	}
	level, err := strconv.Atoi(levelStr)
	if err != nil || (level != 0 && level != 1) {
		return config.StimulusConfig{}, fmt.Errorf("stimulus %q: level must be 0 or 1", s)
	}
	return config.StimulusConfig{Step: step, Input: input, Level: level}, nil
}

// resolveConfig layers defaults, the config file, the circuit argument,
// a run preset, then any flags the user set explicitly.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if len(args) > 0 {
		cfg.Circuit = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Circuit, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Circuit))
		}
		p.DataDir = cfg.DataDir
		p.HistoryDepth = cfg.HistoryDepth
		p.FPS = cfg.FPS
		cfg = p
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("max-passes") {
		cfg.MaxPasses = maxPasses
	}
	if flags.Changed("probe") {
		cfg.Probes = probes
	}
	if flags.Changed("stim") {
		cfg.Stimulus = cfg.Stimulus[:0]
		for _, s := range stimuli {
			st, err := parseStimulus(s)
			if err != nil {
				return nil, err
			}
			cfg.Stimulus = append(cfg.Stimulus, st)
		}
	}
	if flags.Changed("fps") {
		cfg.FPS = frameRate
	}
	if flags.Changed("history") {
		cfg.HistoryDepth = historyDepth
	}
	if flags.Changed("data") || configFile == "" {
		cfg.DataDir = dataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func storeFor(cfg *config.Config) *storage.Store {
	if cfg != nil && cfg.DataDir != "" {
		return storage.New(cfg.DataDir)
	}
	return storage.New(dataDir)
}

func probeValues(c *circuit.Circuit, names []string) []string {
	if len(names) == 0 {
		names = sim.DefaultProbes(c)
	}
	out := make([]string, 0, len(names))
	for _, p := range names {
		v, err := c.Probe(p)
		if err != nil {
			out = append(out, p+"=?")
			continue
		}
		out = append(out, p+"="+v.String())
	}
	return out
}

var errTestsFailed = errors.New("scenario failed")
