package circuit

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type Circuit struct {
	components []*Component
	byID       map[string]*Component
	wires      []*Wire
	wiresByID  map[string]*Wire

	time   float64
	passes int

	logger *log.Logger
	newID  func() string
	drag   *dragState
}

type Option func(*Circuit)

func WithLogger(l *log.Logger) Option {
	return func(c *Circuit) { c.logger = l }
}

// WithIDGenerator replaces the uuid generator, mainly so tests get
// predictable ids.
func WithIDGenerator(fn func() string) Option {
	return func(c *Circuit) { c.newID = fn }
}

func New(opts ...Option) *Circuit {
	c := &Circuit{
		byID:      make(map[string]*Component),
		wiresByID: make(map[string]*Wire),
		logger:    log.Default(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Circuit) Logger() *log.Logger { return c.logger }

// Time is the simulated time accumulated by Step.
func (c *Circuit) Time() float64 { return c.time }

// Passes counts propagation passes since creation or the last Restore.
func (c *Circuit) Passes() int { return c.passes }

func (c *Circuit) Components() []*Component { return c.components }

func (c *Circuit) Wires() []*Wire { return c.wires }

func (c *Circuit) Component(id string) (*Component, bool) {
	comp, ok := c.byID[id]
	return comp, ok
}

func (c *Circuit) Wire(id string) (*Wire, bool) {
	w, ok := c.wiresByID[id]
	return w, ok
}

// Find resolves a component by id or, failing that, by label.
func (c *Circuit) Find(ref string) (*Component, error) {
	if comp, ok := c.byID[ref]; ok {
		return comp, nil
	}
	for _, comp := range c.components {
		if comp.Label == ref {
			return comp, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, ref)
}

type addConfig struct {
	label  string
	inputs int
	params map[string]float64
}

type AddOption func(*addConfig)

func WithLabel(label string) AddOption {
	return func(a *addConfig) { a.label = label }
}

func WithInputs(n int) AddOption {
	return func(a *addConfig) { a.inputs = n }
}

func WithParam(name string, value float64) AddOption {
	return func(a *addConfig) {
		if a.params == nil {
			a.params = make(map[string]float64)
		}
		a.params[name] = value
	}
}

// Add places a new component of the given kind at pos.
func (c *Circuit) Add(kind Kind, pos Point, opts ...AddOption) (*Component, error) {
	var cfg addConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	comp, err := newComponent(c.newID(), kind, cfg.inputs)
	if err != nil {
		return nil, err
	}
	comp.Label = cfg.label
	comp.Pos = pos
	for name, v := range cfg.params {
		if err := setParam(comp, name, v); err != nil {
			return nil, err
		}
	}
	comp.prime(c.time)

	c.insert(comp)
	c.logger.Debug("placed component", "kind", kind, "id", comp.ID, "label", comp.Label)
	return comp, nil
}

func newComponent(id string, kind Kind, inputs int) (*Component, error) {
	info, err := Lookup(kind)
	if err != nil {
		return nil, err
	}
	if inputs == 0 {
		inputs = info.DefaultInputs
	}
	if inputs < info.MinInputs || inputs > info.MaxInputs {
		return nil, fmt.Errorf("%w: %s accepts %d..%d, got %d",
			ErrInputCount, kind, info.MinInputs, info.MaxInputs, inputs)
	}

	comp := &Component{
		ID:       id,
		Kind:     kind,
		Inputs:   make([]*Pin, inputs),
		Outputs:  make([]*Pin, info.Outputs),
		behavior: info.New(inputs),
		in:       make([]Level, inputs),
		out:      make([]Level, info.Outputs),
	}
	for i := range comp.Inputs {
		comp.Inputs[i] = &Pin{Owner: id, Dir: In, Index: i}
	}
	for i := range comp.Outputs {
		comp.Outputs[i] = &Pin{Owner: id, Dir: Out, Index: i}
	}
	comp.layoutPins()
	return comp, nil
}

func setParam(comp *Component, name string, v float64) error {
	cfg, ok := comp.behavior.(Configurable)
	if !ok {
		return fmt.Errorf("%w: %s has no parameters", ErrUnknownParam, comp.Kind)
	}
	return cfg.SetParam(name, v)
}

// SetParam changes a parameter such as a clock period on a placed component.
func (c *Circuit) SetParam(ref, name string, v float64) error {
	comp, err := c.Find(ref)
	if err != nil {
		return err
	}
	return setParam(comp, name, v)
}

func (c *Circuit) insert(comp *Component) {
	c.components = append(c.components, comp)
	c.byID[comp.ID] = comp
}

// Remove deletes a component and every wire touching it.
func (c *Circuit) Remove(id string) error {
	comp, ok := c.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	var attached []string
	for _, p := range comp.Inputs {
		attached = append(attached, p.Wires...)
	}
	for _, p := range comp.Outputs {
		attached = append(attached, p.Wires...)
	}
	for _, wid := range attached {
		if err := c.Disconnect(wid); err != nil {
			return err
		}
	}

	for i, cc := range c.components {
		if cc == comp {
			c.components = append(c.components[:i], c.components[i+1:]...)
			break
		}
	}
	delete(c.byID, id)
	c.logger.Debug("removed component", "id", id, "wires", len(attached))
	return nil
}

func (c *Circuit) pin(ref PinRef) (*Pin, error) {
	comp, ok := c.byID[ref.Component]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, ref.Component)
	}
	p, ok := comp.pin(ref.Dir, ref.Index)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPinIndex, ref)
	}
	return p, nil
}

func (c *Circuit) Pin(ref PinRef) (*Pin, error) { return c.pin(ref) }

// Connect wires an output pin to an input pin. The endpoints may be
// given in either order. A rejected wire leaves the circuit unchanged.
func (c *Circuit) Connect(a, b PinRef) (*Wire, error) {
	w, err := c.connect(c.newID(), a, b)
	if err != nil {
		c.logger.Warn("invalid wire", "from", a, "to", b, "err", err)
		return nil, &ConnectError{From: a, To: b, Err: err}
	}
	c.logger.Debug("connected", "from", w.From, "to", w.To)
	return w, nil
}

func (c *Circuit) connect(id string, a, b PinRef) (*Wire, error) {
	pa, err := c.pin(a)
	if err != nil {
		return nil, err
	}
	pb, err := c.pin(b)
	if err != nil {
		return nil, err
	}
	if a.Component == b.Component {
		return nil, ErrSameComponent
	}
	if a.Dir == b.Dir {
		return nil, ErrSameDirection
	}
	if a.Dir == In {
		a, b = b, a
		pa, pb = pb, pa
	}
	if len(pb.Wires) > 0 {
		return nil, ErrFanIn
	}

	w := &Wire{ID: id, From: a, To: b}
	pa.Wires = append(pa.Wires, id)
	pb.Wires = append(pb.Wires, id)
	c.wires = append(c.wires, w)
	c.wiresByID[id] = w
	return w, nil
}

// Disconnect removes a wire and drops its destination input back to Low.
func (c *Circuit) Disconnect(id string) error {
	w, ok := c.wiresByID[id]
	if !ok {
		return fmt.Errorf("%w: wire %q", ErrNotFound, id)
	}
	if p, err := c.pin(w.From); err == nil {
		p.removeWire(id)
	}
	if p, err := c.pin(w.To); err == nil {
		p.removeWire(id)
		p.Value = Low
	}
	for i, ww := range c.wires {
		if ww == w {
			c.wires = append(c.wires[:i], c.wires[i+1:]...)
			break
		}
	}
	delete(c.wiresByID, id)
	return nil
}

// WiresOf returns the wires attached to any pin of the component.
func (c *Circuit) WiresOf(id string) []*Wire {
	var out []*Wire
	for _, w := range c.wires {
		if w.From.Component == id || w.To.Component == id {
			out = append(out, w)
		}
	}
	return out
}

// PinCount is the total number of pins, the denominator for activity.
func (c *Circuit) PinCount() int {
	n := 0
	for _, comp := range c.components {
		n += len(comp.Inputs) + len(comp.Outputs)
	}
	return n
}
