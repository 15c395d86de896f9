package circuit

import (
	"encoding/json"
	"fmt"
)

type Level uint8

const (
	Low  Level = 0
	High Level = 1
)

func FromBool(b bool) Level {
	if b {
		return High
	}
	return Low
}

func (l Level) Bool() bool { return l != Low }

func (l Level) Not() Level {
	if l == Low {
		return High
	}
	return Low
}

func (l Level) String() string {
	if l == Low {
		return "0"
	}
	return "1"
}

// MarshalJSON keeps []Level encoded as a number array rather than base64.
func (l Level) MarshalJSON() ([]byte, error) {
	if l == Low {
		return []byte("0"), nil
	}
	return []byte("1"), nil
}

func (l *Level) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = FromBool(v != 0)
	return nil
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

type Rect struct {
	Min Point
	Max Point
}

// Canon returns r with Min holding the smaller coordinates, so a box
// dragged in any direction selects the same area.
func (r Rect) Canon() Rect {
	if r.Min.X > r.Max.X {
		r.Min.X, r.Max.X = r.Max.X, r.Min.X
	}
	if r.Min.Y > r.Max.Y {
		r.Min.Y, r.Max.Y = r.Max.Y, r.Min.Y
	}
	return r
}

func (r Rect) Contains(p Point) bool {
	r = r.Canon()
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

func (r Rect) ContainsRect(o Rect) bool {
	o = o.Canon()
	return r.Contains(o.Min) && r.Contains(o.Max)
}

type Dir uint8

const (
	In Dir = iota
	Out
)

func (d Dir) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

func (d Dir) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Dir) UnmarshalText(text []byte) error {
	switch string(text) {
	case "in":
		*d = In
	case "out":
		*d = Out
	default:
		return fmt.Errorf("circuit: unknown pin direction %q", text)
	}
	return nil
}

// PinRef addresses a pin by owning component, direction and index.
type PinRef struct {
	Component string `json:"component"`
	Dir       Dir    `json:"dir"`
	Index     int    `json:"index"`
}

func (r PinRef) String() string {
	return fmt.Sprintf("%s.%s%d", r.Component, r.Dir, r.Index)
}

type Pin struct {
	Owner  string
	Dir    Dir
	Index  int
	Value  Level
	Offset Point
	Wires  []string
}

func (p *Pin) Ref() PinRef { return PinRef{Component: p.Owner, Dir: p.Dir, Index: p.Index} }

func (p *Pin) removeWire(id string) {
	for i, w := range p.Wires {
		if w == id {
			p.Wires = append(p.Wires[:i], p.Wires[i+1:]...)
			return
		}
	}
}

type Wire struct {
	ID   string
	From PinRef
	To   PinRef
}

type Component struct {
	ID       string
	Kind     Kind
	Label    string
	Pos      Point
	Inputs   []*Pin
	Outputs  []*Pin
	Selected bool
	Dragging bool

	behavior Behavior
	in       []Level
	out      []Level
}

// Geometry shared by hit testing and pin layout, in screen pixels.
const (
	ComponentWidth = 60
	PinSpacing     = 20
	PinRadius      = 8
)

func (c *Component) Behavior() Behavior { return c.behavior }

func (c *Component) In(i int) PinRef  { return PinRef{Component: c.ID, Dir: In, Index: i} }
func (c *Component) Out(i int) PinRef { return PinRef{Component: c.ID, Dir: Out, Index: i} }

// Name returns the label when set, otherwise the id.
func (c *Component) Name() string {
	if c.Label != "" {
		return c.Label
	}
	return c.ID
}

func (c *Component) Height() int {
	n := max(len(c.Inputs), len(c.Outputs), 1)
	return (n + 1) * PinSpacing
}

func (c *Component) Bounds() Rect {
	return Rect{Min: c.Pos, Max: Point{c.Pos.X + ComponentWidth, c.Pos.Y + c.Height()}}
}

func (c *Component) pin(dir Dir, idx int) (*Pin, bool) {
	pins := c.Inputs
	if dir == Out {
		pins = c.Outputs
	}
	if idx < 0 || idx >= len(pins) {
		return nil, false
	}
	return pins[idx], true
}

func (c *Component) layoutPins() {
	h := c.Height()
	for i, p := range c.Inputs {
		p.Offset = Point{0, (i + 1) * h / (len(c.Inputs) + 1)}
	}
	for i, p := range c.Outputs {
		p.Offset = Point{ComponentWidth, (i + 1) * h / (len(c.Outputs) + 1)}
	}
}

// prime fills the output pins from the behavior so a new component is
// consistent before its first pass, e.g. a flip-flop starts with nq high.
func (c *Component) prime(t float64) {
	if h, ok := c.behavior.(Holder); ok {
		h.Hold(c.out)
	} else {
		for i, p := range c.Inputs {
			c.in[i] = p.Value
		}
		c.behavior.Eval(c.in, c.out, t)
	}
	for i, p := range c.Outputs {
		p.Value = c.out[i]
	}
}

func (c *Component) evaluate(t float64) int {
	for i, p := range c.Inputs {
		c.in[i] = p.Value
	}
	c.behavior.Eval(c.in, c.out, t)
	changed := 0
	for i, p := range c.Outputs {
		if p.Value != c.out[i] {
			p.Value = c.out[i]
			changed++
		}
	}
	return changed
}
