package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/gatesim/internal/circuit"
)

// Scenario is a scripted testbench: set inputs, run passes, check probes.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Circuit     string         `yaml:"circuit"`
	Dt          float64        `yaml:"dt"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep applies Set and Toggle, then either settles or runs Passes
// passes of Dt, then compares Expect against the probes.
type ScenarioStep struct {
	Name   string         `yaml:"name"`
	Set    map[string]int `yaml:"set"`
	Toggle []string       `yaml:"toggle"`
	Passes int            `yaml:"passes"`
	Dt     *float64       `yaml:"dt"`
	Expect map[string]int `yaml:"expect"`
}

type Mismatch struct {
	Probe string
	Want  circuit.Level
	Got   circuit.Level
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: want %s, got %s", m.Probe, m.Want, m.Got)
}

type StepResult struct {
	Index      int
	Name       string
	Time       float64
	Passes     int
	Stable     bool
	Mismatches []Mismatch
}

func (r StepResult) Passed() bool {
	return r.Stable && len(r.Mismatches) == 0
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

// Run executes the scenario against c. A step with no pass count settles
// within maxPasses; a step that fails to settle is reported as unstable
// rather than aborting the run. Unknown inputs or probes abort.
func Run(ctx context.Context, scenario *Scenario, c *circuit.Circuit, maxPasses int) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		c.Logger().Debug("scenario step", "scenario", scenario.Name, "step", i+1, "name", step.Name)

		for _, name := range sortedKeys(step.Set) {
			if err := c.SetInput(name, circuit.FromBool(step.Set[name] != 0)); err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		for _, name := range step.Toggle {
			if err := c.Toggle(name); err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		}

		res := StepResult{Index: i, Name: step.Name, Stable: true}
		if step.Passes > 0 {
			dt := scenario.Dt
			if step.Dt != nil {
				dt = *step.Dt
			}
			for p := 0; p < step.Passes; p++ {
				c.Step(dt)
			}
			res.Passes = step.Passes
		} else {
			passes, err := c.Settle(maxPasses)
			res.Passes = passes
			res.Stable = err == nil
		}
		res.Time = c.Time()

		for _, probe := range sortedKeys(step.Expect) {
			got, err := c.Probe(probe)
			if err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
			want := circuit.FromBool(step.Expect[probe] != 0)
			if got != want {
				res.Mismatches = append(res.Mismatches, Mismatch{Probe: probe, Want: want, Got: got})
			}
		}
		results = append(results, res)
	}

	return results, nil
}

// Summary counts passed and failed steps.
func Summary(results []StepResult) (passed int, failed int) {
	for _, r := range results {
		if r.Passed() {
			passed++
		} else {
			failed++
		}
	}
	return
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RandomConfig drives random input vectors through fresh copies of a
// circuit to find combinations that never settle.
type RandomConfig struct {
	NumTrials int
	MaxPasses int
	Seed      int64
}

type TrialResult struct {
	TrialID int
	Inputs  map[string]circuit.Level
	Passes  int
	Stable  bool
}

// RunRandom restores snap for every trial, drives each input to a random
// level and settles.
func RunRandom(ctx context.Context, snap circuit.Snapshot, cfg RandomConfig, opts ...circuit.Option) ([]TrialResult, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	results := make([]TrialResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		c, err := circuit.FromSnapshot(snap, opts...)
		if err != nil {
			return nil, err
		}

		inputs := make(map[string]circuit.Level)
		for _, comp := range c.Inputs() {
			l := circuit.FromBool(rng.Intn(2) == 1)
			if err := c.SetInput(comp.ID, l); err != nil {
				return nil, err
			}
			inputs[comp.Name()] = l
		}

		passes, err := c.Settle(cfg.MaxPasses)
		results = append(results, TrialResult{
			TrialID: trial,
			Inputs:  inputs,
			Passes:  passes,
			Stable:  err == nil,
		})

		if (trial+1)%100 == 0 {
			c.Logger().Debug("random trials", "done", trial+1, "total", cfg.NumTrials)
		}
	}

	return results, nil
}

// TrialStats counts settled and oscillating trials.
func TrialStats(results []TrialResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
