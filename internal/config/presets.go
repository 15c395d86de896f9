package config

import "sort"

// Presets are named run settings for the built-in circuits.
var Presets = map[string]map[string]*Config{
	"half_adder": {
		"sweep": {
			Circuit: "half_adder", Dt: 0, Steps: 16, MaxPasses: 16,
			Stimulus: []StimulusConfig{
				{Step: 4, Input: "A", Level: 1},
				{Step: 8, Input: "B", Level: 1},
				{Step: 12, Input: "A", Level: 0},
			},
		},
	},
	"sr_latch": {
		"set_reset": {
			Circuit: "sr_latch", Dt: 0, Steps: 24, MaxPasses: 16,
			Stimulus: []StimulusConfig{
				{Step: 2, Input: "R", Level: 0},
				{Step: 6, Input: "S", Level: 1},
				{Step: 10, Input: "S", Level: 0},
				{Step: 14, Input: "R", Level: 1},
				{Step: 18, Input: "R", Level: 0},
			},
		},
	},
	"d_latch_clocked": {
		"sample": {
			Circuit: "d_latch_clocked", Dt: 0.25, Steps: 48, MaxPasses: 16,
			Stimulus: []StimulusConfig{
				{Step: 5, Input: "D", Level: 1},
				{Step: 21, Input: "D", Level: 0},
			},
		},
	},
	"counter2": {
		"count": {
			Circuit: "counter2", Dt: 0.25, Steps: 40, MaxPasses: 16,
			Probes: []string{"CLK", "Q1", "Q0"},
		},
		"slow": {
			Circuit: "counter2", Dt: 0.05, Steps: 200, MaxPasses: 16,
			Probes: []string{"Q1", "Q0"},
		},
	},
	"blinker": {
		"blink": {
			Circuit: "blinker", Dt: 0.1, Steps: 50, MaxPasses: 16,
		},
	},
	"mux2": {
		"select": {
			Circuit: "mux2", Dt: 0, Steps: 24, MaxPasses: 16,
			Stimulus: []StimulusConfig{
				{Step: 2, Input: "A", Level: 1},
				{Step: 8, Input: "S", Level: 1},
				{Step: 14, Input: "B", Level: 1},
				{Step: 20, Input: "S", Level: 0},
			},
		},
	},
}

// GetPreset returns a copy of a preset filled in with defaults, or nil.
func GetPreset(circuitName, preset string) *Config {
	set, ok := Presets[circuitName]
	if !ok {
		return nil
	}
	p, ok := set[preset]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Circuit = p.Circuit
	cfg.Dt = p.Dt
	cfg.Steps = p.Steps
	cfg.MaxPasses = p.MaxPasses
	cfg.Probes = append([]string(nil), p.Probes...)
	cfg.Stimulus = append([]StimulusConfig(nil), p.Stimulus...)
	return cfg
}

func ListPresets(circuitName string) []string {
	set, ok := Presets[circuitName]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
