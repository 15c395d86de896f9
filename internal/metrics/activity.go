package metrics

import "github.com/san-kum/gatesim/internal/sim"

// Activity is the mean fraction of pins that changed per pass. A
// settled circuit drives it towards zero.
type Activity struct {
	name    string
	sum     float64
	samples int
}

func NewActivity() *Activity {
	return &Activity{name: "activity"}
}

func (m *Activity) Name() string {
	return m.name
}

func (m *Activity) Observe(s sim.Sample) {
	m.samples++
	if s.Pins > 0 {
		m.sum += float64(s.Changed) / float64(s.Pins)
	}
}

func (m *Activity) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *Activity) Reset() {
	m.sum = 0
	m.samples = 0
}
