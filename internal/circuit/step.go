package circuit

import "fmt"

// Step runs one propagation pass: simulated time advances by dt, every
// wire copies its source value to its destination, then every component
// recomputes its outputs in insertion order. It returns the number of
// pins whose value changed.
func (c *Circuit) Step(dt float64) int {
	c.time += dt
	c.passes++

	changed := 0
	for _, w := range c.wires {
		src, err := c.pin(w.From)
		if err != nil {
			continue
		}
		dst, err := c.pin(w.To)
		if err != nil {
			continue
		}
		if dst.Value != src.Value {
			dst.Value = src.Value
			changed++
		}
	}
	for _, comp := range c.components {
		changed += comp.evaluate(c.time)
	}
	return changed
}

// Settle runs zero-time passes until one changes nothing. It returns the
// number of passes run, including the final quiet one. Feedback loops
// that oscillate report ErrUnsettled after maxPasses.
func (c *Circuit) Settle(maxPasses int) (int, error) {
	for i := 1; i <= maxPasses; i++ {
		if c.Step(0) == 0 {
			return i, nil
		}
	}
	return maxPasses, fmt.Errorf("%w: %d passes", ErrUnsettled, maxPasses)
}

// SetInput sets the level of a switch or button.
func (c *Circuit) SetInput(ref string, l Level) error {
	comp, err := c.Find(ref)
	if err != nil {
		return err
	}
	s, ok := comp.behavior.(Settable)
	if !ok {
		return fmt.Errorf("%w: %s is %s", ErrNotInput, comp.Name(), comp.Kind)
	}
	s.Set(l)
	return nil
}

func (c *Circuit) Toggle(ref string) error {
	comp, err := c.Find(ref)
	if err != nil {
		return err
	}
	s, ok := comp.behavior.(Settable)
	if !ok {
		return fmt.Errorf("%w: %s is %s", ErrNotInput, comp.Name(), comp.Kind)
	}
	s.Set(s.Get().Not())
	return nil
}

// InputLevel reports the level a switch or button is set to. Its output
// pin follows on the next pass.
func (c *Circuit) InputLevel(ref string) (Level, error) {
	comp, err := c.Find(ref)
	if err != nil {
		return Low, err
	}
	s, ok := comp.behavior.(Settable)
	if !ok {
		return Low, fmt.Errorf("%w: %s is %s", ErrNotInput, comp.Name(), comp.Kind)
	}
	return s.Get(), nil
}

func (c *Circuit) Press(ref string) error   { return c.SetInput(ref, High) }
func (c *Circuit) Release(ref string) error { return c.SetInput(ref, Low) }

// Probe reads a component's observable level: the input of an LED, or
// the first output of anything else.
func (c *Circuit) Probe(ref string) (Level, error) {
	comp, err := c.Find(ref)
	if err != nil {
		return Low, err
	}
	if comp.Kind == KindLED {
		return comp.Inputs[0].Value, nil
	}
	if len(comp.Outputs) == 0 {
		return Low, fmt.Errorf("%w: %s has no outputs", ErrPinIndex, comp.Name())
	}
	return comp.Outputs[0].Value, nil
}

// Inputs lists the user-driven components in insertion order.
func (c *Circuit) Inputs() []*Component {
	var out []*Component
	for _, comp := range c.components {
		if _, ok := comp.behavior.(Settable); ok {
			out = append(out, comp)
		}
	}
	return out
}

func (c *Circuit) LEDs() []*Component {
	var out []*Component
	for _, comp := range c.components {
		if comp.Kind == KindLED {
			out = append(out, comp)
		}
	}
	return out
}
