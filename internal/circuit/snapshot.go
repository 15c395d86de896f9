package circuit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

const SnapshotVersion = 1

// Snapshot is the full serialized state of a circuit: components with
// their behavior state and pin values, wires, and simulated time. It is
// the unit of save/load, clipboard and undo.
type Snapshot struct {
	Version    int              `json:"version"`
	Time       float64          `json:"time"`
	Components []ComponentState `json:"components"`
	Wires      []WireState      `json:"wires"`
}

type ComponentState struct {
	ID       string             `json:"id"`
	Kind     Kind               `json:"kind"`
	Label    string             `json:"label,omitempty"`
	Pos      Point              `json:"pos"`
	Inputs   []Level            `json:"inputs"`
	Outputs  []Level            `json:"outputs"`
	Params   map[string]float64 `json:"params,omitempty"`
	Selected bool               `json:"selected,omitempty"`
}

type WireState struct {
	ID   string `json:"id"`
	From PinRef `json:"from"`
	To   PinRef `json:"to"`
}

func (c *Circuit) Snapshot() Snapshot {
	s := Snapshot{
		Version:    SnapshotVersion,
		Time:       c.time,
		Components: make([]ComponentState, 0, len(c.components)),
		Wires:      make([]WireState, 0, len(c.wires)),
	}
	for _, comp := range c.components {
		s.Components = append(s.Components, captureComponent(comp))
	}
	for _, w := range c.wires {
		s.Wires = append(s.Wires, WireState{ID: w.ID, From: w.From, To: w.To})
	}
	return s
}

func captureComponent(comp *Component) ComponentState {
	cs := ComponentState{
		ID:       comp.ID,
		Kind:     comp.Kind,
		Label:    comp.Label,
		Pos:      comp.Pos,
		Inputs:   make([]Level, len(comp.Inputs)),
		Outputs:  make([]Level, len(comp.Outputs)),
		Selected: comp.Selected,
	}
	for i, p := range comp.Inputs {
		cs.Inputs[i] = p.Value
	}
	for i, p := range comp.Outputs {
		cs.Outputs[i] = p.Value
	}
	if cfg, ok := comp.behavior.(Configurable); ok {
		cs.Params = cfg.GetParams()
	}
	return cs
}

// instantiate builds a detached component from its serialized state.
func instantiate(id string, cs ComponentState) (*Component, error) {
	comp, err := newComponent(id, cs.Kind, len(cs.Inputs))
	if err != nil {
		return nil, err
	}
	if len(cs.Outputs) != len(comp.Outputs) {
		return nil, fmt.Errorf("%w: %s has %d outputs, snapshot has %d",
			ErrBadSnapshot, cs.Kind, len(comp.Outputs), len(cs.Outputs))
	}
	comp.Label = cs.Label
	comp.Pos = cs.Pos
	comp.Selected = cs.Selected
	for i, v := range cs.Inputs {
		comp.Inputs[i].Value = v
	}
	for i, v := range cs.Outputs {
		comp.Outputs[i].Value = v
	}

	names := make([]string, 0, len(cs.Params))
	for name := range cs.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := setParam(comp, name, cs.Params[name]); err != nil {
			return nil, err
		}
	}
	return comp, nil
}

// Restore replaces the whole circuit with the snapshot. On error the
// circuit is left as it was.
func (c *Circuit) Restore(s Snapshot) error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("%w: version %d", ErrBadSnapshot, s.Version)
	}

	next := New(WithLogger(c.logger), WithIDGenerator(c.newID))
	next.time = s.Time
	for _, cs := range s.Components {
		if _, dup := next.byID[cs.ID]; dup || cs.ID == "" {
			return fmt.Errorf("%w: duplicate or empty component id %q", ErrBadSnapshot, cs.ID)
		}
		comp, err := instantiate(cs.ID, cs)
		if err != nil {
			return fmt.Errorf("restore %s: %w", cs.ID, err)
		}
		next.insert(comp)
	}
	for _, ws := range s.Wires {
		if _, err := next.connect(ws.ID, ws.From, ws.To); err != nil {
			return fmt.Errorf("%w: wire %s: %v", ErrBadSnapshot, ws.ID, err)
		}
	}

	c.components = next.components
	c.byID = next.byID
	c.wires = next.wires
	c.wiresByID = next.wiresByID
	c.time = next.time
	c.passes = 0
	c.drag = nil
	return nil
}

// FromSnapshot creates a new circuit holding the snapshot's state.
func FromSnapshot(s Snapshot, opts ...Option) (*Circuit, error) {
	c := New(opts...)
	if err := c.Restore(s); err != nil {
		return nil, err
	}
	return c, nil
}

func (s Snapshot) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func Decode(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

func SaveFile(path string, s Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.Encode(f)
}

func LoadFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()
	return Decode(f)
}
