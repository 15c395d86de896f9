package sim

import (
	"context"
	"fmt"
	"sort"

	"github.com/san-kum/gatesim/internal/circuit"
)

type Simulator struct {
	c         *circuit.Circuit
	metrics   []Metric
	observers []Observer
}

func New(c *circuit.Circuit) *Simulator {
	return &Simulator{
		c:         c,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) Circuit() *circuit.Circuit { return s.c }

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// DefaultProbes returns the labels of every LED, or of every labelled
// component when the circuit has no LEDs.
func DefaultProbes(c *circuit.Circuit) []string {
	var probes []string
	for _, comp := range c.LEDs() {
		probes = append(probes, comp.Name())
	}
	if len(probes) > 0 {
		return probes
	}
	for _, comp := range c.Components() {
		if comp.Label != "" && len(comp.Outputs) > 0 {
			probes = append(probes, comp.Label)
		}
	}
	return probes
}

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if len(cfg.Probes) == 0 {
		cfg.Probes = DefaultProbes(s.c)
	}
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Probes:  cfg.Probes,
		Times:   make([]float64, 0, cfg.Steps+1),
		Trace:   make([][]circuit.Level, 0, cfg.Steps+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	if cfg.SettleFirst > 0 {
		if _, err := s.c.Settle(cfg.SettleFirst); err != nil {
			result.Errors = append(result.Errors, SimError{Time: s.c.Time(), Step: 0, Message: err.Error()})
		}
	}

	stimuli := schedule(cfg.Stimuli)
	pins := s.c.PinCount()

	result.Times = append(result.Times, s.c.Time())
	result.Trace = append(result.Trace, s.sample(cfg.Probes))

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for _, st := range stimuli[i] {
			if err := s.c.SetInput(st.Input, st.Level); err != nil {
				result.Errors = append(result.Errors, SimError{Time: s.c.Time(), Step: i, Message: err.Error()})
			}
		}

		changed := s.c.Step(cfg.Dt)
		values := s.sample(cfg.Probes)
		smp := Sample{Step: i, Time: s.c.Time(), Values: values, Changed: changed, Pins: pins}

		for _, m := range s.metrics {
			m.Observe(smp)
		}
		for _, obs := range s.observers {
			obs.OnStep(s.c, smp)
		}

		result.StepsTaken++
		result.Times = append(result.Times, smp.Time)
		result.Trace = append(result.Trace, values)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt < 0 {
		return fmt.Errorf("dt must not be negative, got %f", cfg.Dt)
	}
	if cfg.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", cfg.Steps)
	}
	for _, p := range cfg.Probes {
		if _, err := s.c.Probe(p); err != nil {
			return fmt.Errorf("probe %q: %w", p, err)
		}
	}
	for _, st := range cfg.Stimuli {
		if st.Step < 0 || st.Step >= cfg.Steps {
			return fmt.Errorf("stimulus for %q at step %d outside run of %d steps", st.Input, st.Step, cfg.Steps)
		}
		if _, err := s.c.Find(st.Input); err != nil {
			return fmt.Errorf("stimulus: %w", err)
		}
	}
	return nil
}

func (s *Simulator) sample(probes []string) []circuit.Level {
	values := make([]circuit.Level, len(probes))
	for i, p := range probes {
		values[i], _ = s.c.Probe(p)
	}
	return values
}

func schedule(stimuli []Stimulus) map[int][]Stimulus {
	sorted := make([]Stimulus, len(stimuli))
	copy(sorted, stimuli)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Step < sorted[j].Step })

	byStep := make(map[int][]Stimulus)
	for _, st := range sorted {
		byStep[st.Step] = append(byStep[st.Step], st)
	}
	return byStep
}

// RunWithCallback steps the circuit until the callback returns false or
// the context ends. Steps <= 0 means no limit.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(Sample) bool) error {
	if cfg.Dt < 0 {
		return fmt.Errorf("dt must not be negative, got %f", cfg.Dt)
	}
	if len(cfg.Probes) == 0 {
		cfg.Probes = DefaultProbes(s.c)
	}
	pins := s.c.PinCount()

	for i := 0; cfg.Steps <= 0 || i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		changed := s.c.Step(cfg.Dt)
		smp := Sample{Step: i, Time: s.c.Time(), Values: s.sample(cfg.Probes), Changed: changed, Pins: pins}
		if !callback(smp) {
			return nil
		}
	}
	return nil
}
