package netlist

import "sort"

var Presets = map[string]*Netlist{
	"half_adder": {
		Name:        "half_adder",
		Description: "sum and carry of two bits",
		Components: []ComponentSpec{
			{Label: "A", Kind: "switch", X: at(0), Y: at(40)},
			{Label: "B", Kind: "switch", X: at(0), Y: at(140)},
			{Label: "X", Kind: "xor", X: at(120), Y: at(40)},
			{Label: "N", Kind: "and", X: at(120), Y: at(140)},
			{Label: "SUM", Kind: "led", X: at(240), Y: at(40)},
			{Label: "CARRY", Kind: "led", X: at(240), Y: at(140)},
		},
		Wires: []string{
			"A -> X.in0", "B -> X.in1",
			"A -> N.in0", "B -> N.in1",
			"X -> SUM", "N -> CARRY",
		},
	},
	"full_adder": {
		Name:        "full_adder",
		Description: "sum and carry of two bits plus carry in",
		Components: []ComponentSpec{
			{Label: "A", Kind: "switch", X: at(0), Y: at(40)},
			{Label: "B", Kind: "switch", X: at(0), Y: at(120)},
			{Label: "CIN", Kind: "switch", X: at(0), Y: at(200)},
			{Label: "X1", Kind: "xor", X: at(120), Y: at(60)},
			{Label: "X2", Kind: "xor", X: at(240), Y: at(100)},
			{Label: "A1", Kind: "and", X: at(120), Y: at(180)},
			{Label: "A2", Kind: "and", X: at(240), Y: at(200)},
			{Label: "O", Kind: "or", X: at(360), Y: at(190)},
			{Label: "SUM", Kind: "led", X: at(480), Y: at(100)},
			{Label: "COUT", Kind: "led", X: at(480), Y: at(190)},
		},
		Wires: []string{
			"A -> X1.in0", "B -> X1.in1",
			"X1 -> X2.in0", "CIN -> X2.in1",
			"A -> A1.in0", "B -> A1.in1",
			"X1 -> A2.in0", "CIN -> A2.in1",
			"A1 -> O.in0", "A2 -> O.in1",
			"X2 -> SUM", "O -> COUT",
		},
	},
	"sr_latch": {
		Name:        "sr_latch",
		Description: "cross-coupled NOR latch, starts reset",
		Components: []ComponentSpec{
			{Label: "S", Kind: "switch", X: at(0), Y: at(40)},
			// R starts high so the latch leaves the symmetric state
			// that would otherwise oscillate pass after pass.
			{Label: "R", Kind: "switch", X: at(0), Y: at(160), Params: map[string]float64{"value": 1}},
			{Label: "N1", Kind: "nor", X: at(120), Y: at(40)},
			{Label: "N2", Kind: "nor", X: at(120), Y: at(160)},
			{Label: "Q", Kind: "led", X: at(240), Y: at(40)},
			{Label: "NQ", Kind: "led", X: at(240), Y: at(160)},
		},
		Wires: []string{
			"R -> N1.in0", "N2 -> N1.in1",
			"S -> N2.in0", "N1 -> N2.in1",
			"N1 -> Q", "N2 -> NQ",
		},
	},
	"d_latch_clocked": {
		Name:        "d_latch_clocked",
		Description: "D flip-flop sampling a switch on each clock edge",
		Components: []ComponentSpec{
			{Label: "D", Kind: "switch", X: at(0), Y: at(40)},
			{Label: "CLK", Kind: "clock", X: at(0), Y: at(140), Params: map[string]float64{"period": 2}},
			{Label: "FF", Kind: "d", X: at(120), Y: at(80)},
			{Label: "Q", Kind: "led", X: at(240), Y: at(80)},
		},
		Wires: []string{
			"D -> FF.d", "CLK -> FF.clk", "FF.q -> Q",
		},
	},
	"counter2": {
		Name:        "counter2",
		Description: "two-bit ripple counter from T flip-flops",
		Components: []ComponentSpec{
			{Label: "CLK", Kind: "clock", X: at(0), Y: at(80), Params: map[string]float64{"period": 1}},
			{Label: "ONE", Kind: "const", X: at(0), Y: at(0)},
			{Label: "T0", Kind: "t", X: at(120), Y: at(40)},
			// T1 is clocked by T0.nq, which starts high.
			{Label: "T1", Kind: "t", X: at(240), Y: at(40), Params: map[string]float64{"clk": 1}},
			{Label: "Q0", Kind: "led", X: at(360), Y: at(0)},
			{Label: "Q1", Kind: "led", X: at(360), Y: at(80)},
		},
		Wires: []string{
			"ONE -> T0.t", "CLK -> T0.clk",
			"ONE -> T1.t", "T0.nq -> T1.clk",
			"T0.q -> Q0", "T1.q -> Q1",
		},
	},
	"blinker": {
		Name:        "blinker",
		Description: "clock driving an LED",
		Components: []ComponentSpec{
			{Label: "CLK", Kind: "clock", X: at(0), Y: at(40), Params: map[string]float64{"period": 1}},
			{Label: "LED", Kind: "led", X: at(120), Y: at(40)},
		},
		Wires: []string{"CLK -> LED"},
	},
	"mux2": {
		Name:        "mux2",
		Description: "two-input multiplexer, S selects B",
		Components: []ComponentSpec{
			{Label: "A", Kind: "switch", X: at(0), Y: at(0)},
			{Label: "B", Kind: "switch", X: at(0), Y: at(80)},
			{Label: "S", Kind: "switch", X: at(0), Y: at(160)},
			{Label: "NS", Kind: "not", X: at(120), Y: at(160)},
			{Label: "G1", Kind: "and", X: at(240), Y: at(20)},
			{Label: "G2", Kind: "and", X: at(240), Y: at(100)},
			{Label: "O", Kind: "or", X: at(360), Y: at(60)},
			{Label: "OUT", Kind: "led", X: at(480), Y: at(60)},
		},
		Wires: []string{
			"S -> NS",
			"A -> G1.in0", "NS -> G1.in1",
			"B -> G2.in0", "S -> G2.in1",
			"G1 -> O.in0", "G2 -> O.in1",
			"O -> OUT",
		},
	},
}

func GetPreset(name string) *Netlist {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
