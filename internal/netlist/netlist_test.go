package netlist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/san-kum/gatesim/internal/circuit"
	"github.com/san-kum/gatesim/internal/sim"
)

var quiet = circuit.WithLogger(log.New(io.Discard))

const yamlNetlist = `
name: inverter
components:
  - {label: A, kind: switch}
  - {label: G, kind: not}
  - {label: Y, kind: led}
wires:
  - A -> G.in0
  - G.out -> Y
`

const tomlNetlist = `
name = "and3"
wires = ["A -> G.in0", "B -> G.in1", "B -> G.in2", "G -> Y.in"]

[[components]]
label = "A"
kind = "switch"

[[components]]
label = "B"
kind = "switch"
params = { value = 1.0 }

[[components]]
label = "G"
kind = "and"
inputs = 3

[[components]]
label = "Y"
kind = "led"
`

func TestParseYAML(t *testing.T) {
	n, err := Parse([]byte(yamlNetlist), YAML)
	if err != nil {
		t.Fatal(err)
	}
	c, err := n.Circuit(quiet)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Components()) != 3 || len(c.Wires()) != 2 {
		t.Fatalf("got %d components, %d wires", len(c.Components()), len(c.Wires()))
	}
	if _, err := c.Settle(10); err != nil {
		t.Fatal(err)
	}
	if y, _ := c.Probe("Y"); y != circuit.High {
		t.Error("inverter of low switch should be high")
	}
}

func TestParseTOML(t *testing.T) {
	n, err := Parse([]byte(tomlNetlist), TOML)
	if err != nil {
		t.Fatal(err)
	}
	if n.Name != "and3" {
		t.Errorf("name = %q", n.Name)
	}
	c, err := n.Circuit(quiet)
	if err != nil {
		t.Fatal(err)
	}
	g, _ := c.Find("G")
	if len(g.Inputs) != 3 {
		t.Errorf("expected 3 inputs, got %d", len(g.Inputs))
	}
	c.Settle(10)
	if y, _ := c.Probe("Y"); y != circuit.Low {
		t.Error("A is low, output should be low")
	}
	c.Toggle("A")
	c.Settle(10)
	if y, _ := c.Probe("Y"); y != circuit.High {
		t.Error("all inputs high, output should be high")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		n    Netlist
	}{
		{"missing label", Netlist{Components: []ComponentSpec{{Kind: "and"}}}},
		{"duplicate label", Netlist{Components: []ComponentSpec{{Label: "A", Kind: "and"}, {Label: "A", Kind: "or"}}}},
		{"unknown kind", Netlist{Components: []ComponentSpec{{Label: "A", Kind: "flux"}}}},
		{"bad arrow", Netlist{Components: []ComponentSpec{{Label: "A", Kind: "switch"}}, Wires: []string{"A B"}}},
		{"unknown endpoint", Netlist{Components: []ComponentSpec{{Label: "A", Kind: "switch"}}, Wires: []string{"A -> Z"}}},
		{"unknown pin", Netlist{
			Components: []ComponentSpec{{Label: "A", Kind: "switch"}, {Label: "F", Kind: "d"}},
			Wires:      []string{"A -> F.j"},
		}},
		{"fan-in", Netlist{
			Components: []ComponentSpec{{Label: "A", Kind: "switch"}, {Label: "B", Kind: "switch"}, {Label: "Y", Kind: "led"}},
			Wires:      []string{"A -> Y", "B -> Y"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.n.Circuit(quiet); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFanInErrorIsTyped(t *testing.T) {
	n := Netlist{
		Components: []ComponentSpec{{Label: "A", Kind: "switch"}, {Label: "B", Kind: "switch"}, {Label: "Y", Kind: "led"}},
		Wires:      []string{"A -> Y", "B -> Y"},
	}
	_, err := n.Circuit(quiet)
	if !errors.Is(err, circuit.ErrFanIn) {
		t.Errorf("expected ErrFanIn, got %v", err)
	}
}

func TestNamedPins(t *testing.T) {
	n := GetPreset("counter2")
	c, err := n.Circuit(quiet)
	if err != nil {
		t.Fatal(err)
	}
	t1, _ := c.Find("T1")
	wires := c.WiresOf(t1.ID)
	var clk *circuit.Wire
	for _, w := range wires {
		if w.To.Component == t1.ID && w.To.Index == 1 {
			clk = w
		}
	}
	if clk == nil {
		t.Fatal("T1 clock not wired")
	}
	if clk.From.Index != 1 {
		t.Errorf("T1 clock should come from T0.nq (out1), got out%d", clk.From.Index)
	}
}

func TestPresetsBuild(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			if _, err := GetPreset(name).Circuit(quiet); err != nil {
				t.Fatalf("preset %s: %v", name, err)
			}
		})
	}
}

func TestFullAdderPreset(t *testing.T) {
	c, err := GetPreset("full_adder").Circuit(quiet)
	if err != nil {
		t.Fatal(err)
	}
	table, err := sim.TruthTable(context.Background(), c.Snapshot(), nil, nil, 32)
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range table.Rows {
		ones := 0
		for _, v := range row.Inputs {
			ones += int(v)
		}
		sum, cout := circuit.Level(ones%2), circuit.Level(ones/2)
		if row.Outputs[0] != sum || row.Outputs[1] != cout {
			t.Errorf("row %d %v: got %v, want [%v %v]", i, row.Inputs, row.Outputs, sum, cout)
		}
	}
}

func TestCounterPreset(t *testing.T) {
	for _, settle := range []int{0, 16} {
		t.Run(fmt.Sprintf("settle=%d", settle), func(t *testing.T) {
			c, err := GetPreset("counter2").Circuit(quiet)
			if err != nil {
				t.Fatal(err)
			}
			s := sim.New(c)
			result, err := s.Run(context.Background(), sim.Config{
				Dt:          0.25,
				Steps:       40,
				Probes:      []string{"Q1", "Q0"},
				SettleFirst: settle,
			})
			if err != nil {
				t.Fatal(err)
			}

			count := func(i int) int {
				row := result.Trace[i]
				return int(row[0])<<1 | int(row[1])
			}
			if count(0) != 0 {
				t.Errorf("counter starts at %d, want 0", count(0))
			}
			// The clock rises every fourth step; both bits are stable
			// three passes after each edge.
			want := []int{0, 1, 2, 3, 0, 1, 2, 3, 0}
			for k, w := range want {
				if v := count(1 + 4*k); v != w {
					t.Errorf("count at step %d = %d, want %d", 1+4*k, v, w)
				}
			}
		})
	}
}

func TestRoundTripFromCircuit(t *testing.T) {
	c, err := GetPreset("mux2").Circuit(quiet)
	if err != nil {
		t.Fatal(err)
	}
	n := FromCircuit("mux2", c)

	for _, format := range []Format{YAML, TOML} {
		data, err := n.Marshal(format)
		if err != nil {
			t.Fatalf("%s marshal: %v", format, err)
		}
		back, err := Parse(data, format)
		if err != nil {
			t.Fatalf("%s parse: %v", format, err)
		}
		rebuilt, err := back.Circuit(quiet)
		if err != nil {
			t.Fatalf("%s build: %v", format, err)
		}
		if len(rebuilt.Wires()) != len(c.Wires()) {
			t.Errorf("%s: %d wires, want %d", format, len(rebuilt.Wires()), len(c.Wires()))
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inv.yml")
	if err := os.WriteFile(path, []byte(yamlNetlist), 0644); err != nil {
		t.Fatal(err)
	}
	n, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n.Name != "inverter" {
		t.Errorf("name = %q", n.Name)
	}

	if _, err := LoadFile(filepath.Join(dir, "x.txt")); err == nil {
		t.Error("expected error for unknown extension")
	}
}

func TestPositionAtOriginSurvives(t *testing.T) {
	c := circuit.New(quiet)
	if _, err := c.Add(circuit.KindSwitch, circuit.Point{}, circuit.WithLabel("A")); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Add(circuit.KindLED, circuit.Point{X: 7, Y: 9}, circuit.WithLabel("Y")); err != nil {
		t.Fatal(err)
	}

	for _, format := range []Format{YAML, TOML} {
		data, err := FromCircuit("origin", c).Marshal(format)
		if err != nil {
			t.Fatalf("%s marshal: %v", format, err)
		}
		back, err := Parse(data, format)
		if err != nil {
			t.Fatalf("%s parse: %v", format, err)
		}
		rebuilt, err := back.Circuit(quiet)
		if err != nil {
			t.Fatalf("%s build: %v", format, err)
		}
		a, _ := rebuilt.Find("A")
		y, _ := rebuilt.Find("Y")
		if a.Pos != (circuit.Point{}) || y.Pos != (circuit.Point{X: 7, Y: 9}) {
			t.Errorf("%s: positions %+v %+v, want origin and {7 9}", format, a.Pos, y.Pos)
		}
	}

	n, err := Parse([]byte("name: grid\ncomponents:\n  - {label: A, kind: switch, x: 0, y: 0}\n  - {label: B, kind: switch}\n"), YAML)
	if err != nil {
		t.Fatal(err)
	}
	laid, err := n.Circuit(quiet)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := laid.Find("B")
	if b.Pos != (circuit.Point{X: gridX}) {
		t.Errorf("unplaced component at %+v, want grid slot {%d 0}", b.Pos, gridX)
	}
}
