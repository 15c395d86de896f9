package circuit

import (
	"fmt"
	"sort"
)

type Kind string

const (
	KindAnd    Kind = "and"
	KindOr     Kind = "or"
	KindNot    Kind = "not"
	KindBuffer Kind = "buffer"
	KindXor    Kind = "xor"
	KindNand   Kind = "nand"
	KindNor    Kind = "nor"
	KindXnor   Kind = "xnor"
	KindSwitch Kind = "switch"
	KindButton Kind = "button"
	KindConst  Kind = "const"
	KindClock  Kind = "clock"
	KindLED    Kind = "led"
	KindSR     Kind = "sr"
	KindD      Kind = "d"
	KindJK     Kind = "jk"
	KindT      Kind = "t"
)

// Behavior computes a component's outputs from its current inputs. It
// is called once per propagation pass with the simulated time t.
type Behavior interface {
	Kind() Kind
	Eval(in, out []Level, t float64)
}

// Configurable behaviors carry parameters or internal state that must
// survive a snapshot round trip.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Holder behaviors keep state between passes. Hold writes the outputs
// that state implies without sampling inputs or advancing time.
type Holder interface {
	Hold(out []Level)
}

// Settable behaviors are driven from outside the circuit.
type Settable interface {
	Set(l Level)
	Get() Level
}

type KindInfo struct {
	Kind          Kind
	MinInputs     int
	MaxInputs     int
	DefaultInputs int
	Outputs       int
	InputNames    []string
	OutputNames   []string
	New           func(inputs int) Behavior
}

const maxGateInputs = 8

var registry = map[Kind]KindInfo{}

func Register(info KindInfo) {
	registry[info.Kind] = info
}

func Lookup(kind Kind) (KindInfo, error) {
	info, ok := registry[kind]
	if !ok {
		return KindInfo{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return info, nil
}

func Kinds() []Kind {
	kinds := make([]Kind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// PinIndex resolves a pin name such as "clk" or "q" for the kind.
func (k KindInfo) PinIndex(dir Dir, name string) (int, bool) {
	names := k.InputNames
	if dir == Out {
		names = k.OutputNames
	}
	for i, n := range names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

func init() {
	for _, g := range []struct {
		kind  Kind
		fixed bool
	}{
		{KindAnd, false}, {KindOr, false}, {KindXor, false},
		{KindNand, false}, {KindNor, false}, {KindXnor, false},
		{KindNot, true}, {KindBuffer, true},
	} {
		kind := g.kind
		info := KindInfo{
			Kind:          kind,
			MinInputs:     1,
			MaxInputs:     maxGateInputs,
			DefaultInputs: 2,
			Outputs:       1,
			OutputNames:   []string{"out"},
			New:           func(int) Behavior { return newGate(kind) },
		}
		if g.fixed {
			info.MaxInputs = 1
			info.DefaultInputs = 1
		}
		Register(info)
	}

	Register(KindInfo{Kind: KindSwitch, Outputs: 1, OutputNames: []string{"out"},
		New: func(int) Behavior { return &Switch{} }})
	Register(KindInfo{Kind: KindButton, Outputs: 1, OutputNames: []string{"out"},
		New: func(int) Behavior { return &Button{} }})
	Register(KindInfo{Kind: KindConst, Outputs: 1, OutputNames: []string{"out"},
		New: func(int) Behavior { return &Const{Value: High} }})
	Register(KindInfo{Kind: KindClock, Outputs: 1, OutputNames: []string{"out"},
		New: func(int) Behavior { return NewClock(DefaultClockPeriod) }})
	Register(KindInfo{Kind: KindLED, MinInputs: 1, MaxInputs: 1, DefaultInputs: 1,
		InputNames: []string{"in"},
		New:        func(int) Behavior { return &LED{} }})

	ffOut := []string{"q", "nq"}
	Register(KindInfo{Kind: KindSR, MinInputs: 3, MaxInputs: 3, DefaultInputs: 3, Outputs: 2,
		InputNames: []string{"s", "clk", "r"}, OutputNames: ffOut,
		New: func(int) Behavior { return &FlipFlop{kind: KindSR} }})
	Register(KindInfo{Kind: KindD, MinInputs: 2, MaxInputs: 2, DefaultInputs: 2, Outputs: 2,
		InputNames: []string{"d", "clk"}, OutputNames: ffOut,
		New: func(int) Behavior { return &FlipFlop{kind: KindD} }})
	Register(KindInfo{Kind: KindJK, MinInputs: 3, MaxInputs: 3, DefaultInputs: 3, Outputs: 2,
		InputNames: []string{"j", "clk", "k"}, OutputNames: ffOut,
		New: func(int) Behavior { return &FlipFlop{kind: KindJK} }})
	Register(KindInfo{Kind: KindT, MinInputs: 2, MaxInputs: 2, DefaultInputs: 2, Outputs: 2,
		InputNames: []string{"t", "clk"}, OutputNames: ffOut,
		New: func(int) Behavior { return &FlipFlop{kind: KindT} }})
}
