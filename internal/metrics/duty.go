package metrics

import (
	"github.com/san-kum/gatesim/internal/circuit"
	"github.com/san-kum/gatesim/internal/sim"
)

// Duty is the fraction of samples in which one probe was high.
type Duty struct {
	name    string
	index   int
	high    int
	samples int
}

func NewDuty(probe string, index int) *Duty {
	return &Duty{name: "duty_" + probe, index: index}
}

func (m *Duty) Name() string {
	return m.name
}

func (m *Duty) Observe(s sim.Sample) {
	if m.index >= len(s.Values) {
		return
	}
	m.samples++
	if s.Values[m.index] == circuit.High {
		m.high++
	}
}

func (m *Duty) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return float64(m.high) / float64(m.samples)
}

func (m *Duty) Reset() {
	m.high = 0
	m.samples = 0
}

// Defaults returns the standard metric set for a run over probes.
func Defaults(probes []string) []sim.Metric {
	ms := []sim.Metric{NewToggles(), NewActivity()}
	for i, p := range probes {
		ms = append(ms, NewDuty(p, i))
	}
	return ms
}
