package sim

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/san-kum/gatesim/internal/circuit"
)

func buildInverter(t *testing.T) *circuit.Circuit {
	t.Helper()
	c := circuit.New(circuit.WithLogger(log.New(io.Discard)))
	a, err := c.Add(circuit.KindSwitch, circuit.Point{}, circuit.WithLabel("A"))
	if err != nil {
		t.Fatal(err)
	}
	n, _ := c.Add(circuit.KindNot, circuit.Point{X: 100})
	y, _ := c.Add(circuit.KindLED, circuit.Point{X: 200}, circuit.WithLabel("Y"))
	if _, err := c.Connect(a.Out(0), n.In(0)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Connect(n.Out(0), y.In(0)); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSimulatorRun(t *testing.T) {
	c := buildInverter(t)
	s := New(c)

	cfg := Config{
		Dt:    0.1,
		Steps: 10,
		Stimuli: []Stimulus{
			{Step: 5, Input: "A", Level: circuit.High},
		},
	}
	result, err := s.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Trace) != 11 {
		t.Errorf("expected 11 samples, got %d", len(result.Trace))
	}
	if len(result.Times) != 11 {
		t.Errorf("expected 11 times, got %d", len(result.Times))
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}
	if len(result.Probes) != 1 || result.Probes[0] != "Y" {
		t.Errorf("default probes = %v, want [Y]", result.Probes)
	}

	y, ok := result.Column("Y")
	if !ok {
		t.Fatal("missing Y column")
	}
	// Y goes high on the first pass (the not starts high), then low
	// three passes after the switch flips at step 5.
	if y[3] != circuit.High {
		t.Errorf("Y should be high before stimulus, trace %v", y)
	}
	if y[len(y)-1] != circuit.Low {
		t.Errorf("Y should be low at the end, trace %v", y)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	c := buildInverter(t)
	s := New(c)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero steps", Config{Dt: 0.1, Steps: 0}},
		{"negative dt", Config{Dt: -0.1, Steps: 10}},
		{"unknown probe", Config{Dt: 0.1, Steps: 10, Probes: []string{"Z"}}},
		{"unknown stimulus", Config{Dt: 0.1, Steps: 10, Stimuli: []Stimulus{{Step: 1, Input: "Q"}}}},
		{"late stimulus", Config{Dt: 0.1, Steps: 10, Stimuli: []Stimulus{{Step: 10, Input: "A"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Run(context.Background(), tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSimulatorStimulusErrorsAreCollected(t *testing.T) {
	c := buildInverter(t)
	s := New(c)

	// The LED exists, so validation passes, but it cannot be set.
	cfg := Config{Dt: 0.1, Steps: 3, Stimuli: []Stimulus{{Step: 1, Input: "Y", Level: circuit.High}}}
	result, err := s.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 collected error, got %v", result.Errors)
	}
	if _, ok := result.Errors[0].(SimError); !ok {
		t.Errorf("expected SimError, got %T", result.Errors[0])
	}
}

type countMetric struct {
	count   int
	changed int
}

func (m *countMetric) Name() string { return "count" }
func (m *countMetric) Observe(s Sample) {
	m.count++
	m.changed += s.Changed
}
func (m *countMetric) Value() float64 { return float64(m.count) }
func (m *countMetric) Reset()         { m.count, m.changed = 0, 0 }

func TestSimulatorMetrics(t *testing.T) {
	s := New(buildInverter(t))
	m := &countMetric{}
	s.AddMetric(m)

	result, err := s.Run(context.Background(), Config{Dt: 0, Steps: 7})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Metrics["count"] != 7 {
		t.Errorf("expected 7 observations, got %v", result.Metrics["count"])
	}
	if m.changed == 0 {
		t.Error("expected pin changes to be reported")
	}
}

func TestSimulatorCancel(t *testing.T) {
	s := New(buildInverter(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Run(ctx, Config{Dt: 0.1, Steps: 10})
	if err == nil {
		t.Fatal("expected context error")
	}
	if result == nil || result.StepsTaken != 0 {
		t.Errorf("expected partial result with no steps, got %+v", result)
	}
}

func TestRunWithCallback(t *testing.T) {
	s := New(buildInverter(t))
	calls := 0
	err := s.RunWithCallback(context.Background(), Config{Dt: 0.5}, func(smp Sample) bool {
		calls++
		return calls < 4
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 4 {
		t.Errorf("expected 4 callbacks, got %d", calls)
	}
	if s.Circuit().Time() != 2.0 {
		t.Errorf("expected time 2.0, got %v", s.Circuit().Time())
	}
}

func TestSimError(t *testing.T) {
	err := SimError{Time: 1.5, Step: 150, Message: "test error"}
	expected := "step 150 (t=1.5000): test error"
	if err.Error() != expected {
		t.Errorf("SimError.Error() = %q, want %q", err.Error(), expected)
	}
}
