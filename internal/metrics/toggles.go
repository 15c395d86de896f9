package metrics

import (
	"github.com/san-kum/gatesim/internal/circuit"
	"github.com/san-kum/gatesim/internal/sim"
)

// Toggles counts level transitions across all probed values.
type Toggles struct {
	name  string
	last  []circuit.Level
	count int
}

func NewToggles() *Toggles {
	return &Toggles{name: "toggles"}
}

func (m *Toggles) Name() string {
	return m.name
}

func (m *Toggles) Observe(s sim.Sample) {
	if m.last != nil {
		for i, v := range s.Values {
			if i < len(m.last) && m.last[i] != v {
				m.count++
			}
		}
	}
	m.last = append(m.last[:0], s.Values...)
}

func (m *Toggles) Value() float64 {
	return float64(m.count)
}

func (m *Toggles) Reset() {
	m.last = nil
	m.count = 0
}
