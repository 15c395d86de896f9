package circuit

import "fmt"

// FlipFlop is an edge-triggered storage element. The clock is always
// input 1; outputs are Q and its complement.
//
//	sr: s, clk, r    d: d, clk    jk: j, clk, k    t: t, clk
type FlipFlop struct {
	kind      Kind
	q         Level
	lastClock Level
}

func (f *FlipFlop) Kind() Kind { return f.kind }

func (f *FlipFlop) Q() Level { return f.q }

func (f *FlipFlop) Eval(in, out []Level, t float64) {
	clk := in[1]
	rising := clk == High && f.lastClock == Low
	f.lastClock = clk

	if rising {
		switch f.kind {
		case KindSR:
			s, r := in[0], in[2]
			if s == High && r == Low {
				f.q = High
			} else if r == High && s == Low {
				f.q = Low
			}
		case KindD:
			f.q = in[0]
		case KindJK:
			j, k := in[0], in[2]
			switch {
			case j == High && k == High:
				f.q = f.q.Not()
			case j == High:
				f.q = High
			case k == High:
				f.q = Low
			}
		case KindT:
			if in[0] == High {
				f.q = f.q.Not()
			}
		}
	}

	out[0] = f.q
	out[1] = f.q.Not()
}

func (f *FlipFlop) Hold(out []Level) {
	out[0] = f.q
	out[1] = f.q.Not()
}

func (f *FlipFlop) GetParams() map[string]float64 {
	return map[string]float64{
		"q":   float64(f.q),
		"clk": float64(f.lastClock),
	}
}

func (f *FlipFlop) SetParam(name string, value float64) error {
	switch name {
	case "q":
		f.q = FromBool(value != 0)
	case "clk":
		f.lastClock = FromBool(value != 0)
	default:
		return fmt.Errorf("%w: %s.%s", ErrUnknownParam, f.kind, name)
	}
	return nil
}
