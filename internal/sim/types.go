package sim

import (
	"fmt"

	"github.com/san-kum/gatesim/internal/circuit"
)

// Sample is what one propagation pass produced for the probed components.
type Sample struct {
	Step    int
	Time    float64
	Values  []circuit.Level
	Changed int
	Pins    int
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(c *circuit.Circuit, s Sample)
}

// Stimulus sets an input to a level just before the given step runs.
type Stimulus struct {
	Step  int
	Input string
	Level circuit.Level
}

type Config struct {
	Dt      float64
	Steps   int
	Probes  []string
	Stimuli []Stimulus
	// SettleFirst runs up to this many zero-time passes before the
	// first recorded step. Zero disables it.
	SettleFirst int
}

func DefaultConfig() Config {
	return Config{
		Dt:    0.1,
		Steps: 100,
	}
}

type Result struct {
	Probes     []string
	Times      []float64
	Trace      [][]circuit.Level
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// Column returns the trace of one probe.
func (r *Result) Column(probe string) ([]circuit.Level, bool) {
	idx := -1
	for i, p := range r.Probes {
		if p == probe {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	col := make([]circuit.Level, len(r.Trace))
	for i, row := range r.Trace {
		col[i] = row[idx]
	}
	return col, true
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
