// Package netlist describes circuits as text: labelled components and
// wires written as "A.out -> G1.in1". Netlists are read from YAML or
// TOML and built into a [circuit.Circuit].
package netlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/gatesim/internal/circuit"
)

var ErrSyntax = errors.New("netlist: syntax error")

type Netlist struct {
	Name        string          `yaml:"name" toml:"name"`
	Description string          `yaml:"description,omitempty" toml:"description"`
	Components  []ComponentSpec `yaml:"components" toml:"components"`
	Wires       []string        `yaml:"wires" toml:"wires"`
}

type ComponentSpec struct {
	Label  string             `yaml:"label" toml:"label"`
	Kind   string             `yaml:"kind" toml:"kind"`
	Inputs int                `yaml:"inputs,omitempty" toml:"inputs"`
	X      *int               `yaml:"x,omitempty" toml:"x"`
	Y      *int               `yaml:"y,omitempty" toml:"y"`
	Params map[string]float64 `yaml:"params,omitempty" toml:"params"`
}

type Format string

const (
	YAML Format = "yaml"
	TOML Format = "toml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, true
	case ".toml":
		return TOML, true
	}
	return "", false
}

func Parse(data []byte, format Format) (*Netlist, error) {
	var n Netlist
	switch format {
	case YAML:
		if err := yaml.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("parse yaml netlist: %w", err)
		}
	case TOML:
		if _, err := toml.Decode(string(data), &n); err != nil {
			return nil, fmt.Errorf("parse toml netlist: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown netlist format %q", format)
	}
	return &n, nil
}

func LoadFile(path string) (*Netlist, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, fmt.Errorf("netlist %s: unsupported extension", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	n, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	if n.Name == "" {
		n.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return n, nil
}

// Marshal renders the netlist in the given format.
func (n *Netlist) Marshal(format Format) ([]byte, error) {
	switch format {
	case YAML:
		return yaml.Marshal(n)
	case TOML:
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(n); err != nil {
			return nil, err
		}
		return []byte(sb.String()), nil
	}
	return nil, fmt.Errorf("unknown netlist format %q", format)
}

const (
	gridCols = 6
	gridX    = 100
	gridY    = 80
)

// Build places the netlist's components and wires into c. Components
// without a position are laid out on a grid in declaration order.
func (n *Netlist) Build(c *circuit.Circuit) error {
	for i, spec := range n.Components {
		if spec.Label == "" {
			return fmt.Errorf("%w: component %d has no label", ErrSyntax, i)
		}
		if _, err := c.Find(spec.Label); err == nil {
			return fmt.Errorf("%w: duplicate label %q", ErrSyntax, spec.Label)
		}
		pos := circuit.Point{X: (i % gridCols) * gridX, Y: (i / gridCols) * gridY}
		if spec.X != nil || spec.Y != nil {
			pos = circuit.Point{X: deref(spec.X), Y: deref(spec.Y)}
		}
		opts := []circuit.AddOption{circuit.WithLabel(spec.Label), circuit.WithInputs(spec.Inputs)}
		for name, v := range spec.Params {
			opts = append(opts, circuit.WithParam(name, v))
		}
		if _, err := c.Add(circuit.Kind(spec.Kind), pos, opts...); err != nil {
			return fmt.Errorf("component %s: %w", spec.Label, err)
		}
	}

	for _, line := range n.Wires {
		from, to, err := n.parseWire(c, line)
		if err != nil {
			return err
		}
		if _, err := c.Connect(from, to); err != nil {
			return fmt.Errorf("wire %q: %w", line, err)
		}
	}
	return nil
}

func at(v int) *int { return &v }

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// Circuit builds the netlist into a fresh circuit.
func (n *Netlist) Circuit(opts ...circuit.Option) (*circuit.Circuit, error) {
	c := circuit.New(opts...)
	if err := n.Build(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (n *Netlist) parseWire(c *circuit.Circuit, line string) (circuit.PinRef, circuit.PinRef, error) {
	parts := strings.Split(line, "->")
	if len(parts) != 2 {
		return circuit.PinRef{}, circuit.PinRef{}, fmt.Errorf("%w: wire %q needs exactly one ->", ErrSyntax, line)
	}
	from, err := resolve(c, strings.TrimSpace(parts[0]), circuit.Out)
	if err != nil {
		return circuit.PinRef{}, circuit.PinRef{}, fmt.Errorf("wire %q: %w", line, err)
	}
	to, err := resolve(c, strings.TrimSpace(parts[1]), circuit.In)
	if err != nil {
		return circuit.PinRef{}, circuit.PinRef{}, fmt.Errorf("wire %q: %w", line, err)
	}
	return from, to, nil
}

// resolve turns "LABEL", "LABEL.pin", "LABEL.in2" or "LABEL.out1" into a
// pin reference. A bare label means pin 0 in the default direction.
func resolve(c *circuit.Circuit, endpoint string, def circuit.Dir) (circuit.PinRef, error) {
	label, pin, hasPin := strings.Cut(endpoint, ".")
	comp, err := c.Find(label)
	if err != nil {
		return circuit.PinRef{}, err
	}
	if !hasPin {
		return circuit.PinRef{Component: comp.ID, Dir: def, Index: 0}, nil
	}

	for _, p := range []struct {
		prefix string
		dir    circuit.Dir
	}{{"out", circuit.Out}, {"in", circuit.In}} {
		rest, ok := strings.CutPrefix(pin, p.prefix)
		if !ok {
			continue
		}
		if rest == "" {
			return circuit.PinRef{Component: comp.ID, Dir: p.dir}, nil
		}
		if idx, err := strconv.Atoi(rest); err == nil {
			return circuit.PinRef{Component: comp.ID, Dir: p.dir, Index: idx}, nil
		}
	}

	info, err := circuit.Lookup(comp.Kind)
	if err != nil {
		return circuit.PinRef{}, err
	}
	if idx, ok := info.PinIndex(def, pin); ok {
		return circuit.PinRef{Component: comp.ID, Dir: def, Index: idx}, nil
	}
	other := circuit.In
	if def == circuit.In {
		other = circuit.Out
	}
	if idx, ok := info.PinIndex(other, pin); ok {
		return circuit.PinRef{Component: comp.ID, Dir: other, Index: idx}, nil
	}
	return circuit.PinRef{}, fmt.Errorf("%w: %s has no pin %q", ErrSyntax, comp.Kind, pin)
}

// FromCircuit describes an existing circuit as a netlist, using labels
// where present and ids otherwise.
func FromCircuit(name string, c *circuit.Circuit) *Netlist {
	n := &Netlist{Name: name}
	for _, comp := range c.Components() {
		spec := ComponentSpec{
			Label: comp.Name(),
			Kind:  string(comp.Kind),
			X:     at(comp.Pos.X),
			Y:     at(comp.Pos.Y),
		}
		if info, err := circuit.Lookup(comp.Kind); err == nil && len(comp.Inputs) != info.DefaultInputs {
			spec.Inputs = len(comp.Inputs)
		}
		if cfg, ok := comp.Behavior().(circuit.Configurable); ok {
			spec.Params = cfg.GetParams()
		}
		n.Components = append(n.Components, spec)
	}
	for _, w := range c.Wires() {
		from, _ := c.Component(w.From.Component)
		to, _ := c.Component(w.To.Component)
		n.Wires = append(n.Wires, fmt.Sprintf("%s.out%d -> %s.in%d", from.Name(), w.From.Index, to.Name(), w.To.Index))
	}
	return n
}
