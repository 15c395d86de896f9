package circuit

import "fmt"

// ComponentAt returns the topmost component whose body contains p.
func (c *Circuit) ComponentAt(p Point) (*Component, bool) {
	for i := len(c.components) - 1; i >= 0; i-- {
		comp := c.components[i]
		if comp.Bounds().Contains(p) {
			return comp, true
		}
	}
	return nil, false
}

// PinAt returns the pin within PinRadius of p, preferring the most
// recently placed component when pins overlap.
func (c *Circuit) PinAt(p Point) (PinRef, bool) {
	for i := len(c.components) - 1; i >= 0; i-- {
		comp := c.components[i]
		for _, pins := range [][]*Pin{comp.Outputs, comp.Inputs} {
			for _, pin := range pins {
				d := comp.Pos.Add(pin.Offset).Sub(p)
				if d.X*d.X+d.Y*d.Y <= PinRadius*PinRadius {
					return pin.Ref(), true
				}
			}
		}
	}
	return PinRef{}, false
}

// Select marks a component as selected. Without additive the previous
// selection is replaced; with additive the component's flag is toggled,
// matching shift-click.
func (c *Circuit) Select(id string, additive bool) error {
	comp, ok := c.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if !additive {
		c.ClearSelection()
		comp.Selected = true
		return nil
	}
	comp.Selected = !comp.Selected
	return nil
}

// SelectBox selects every component whose body lies fully inside r.
func (c *Circuit) SelectBox(r Rect, additive bool) int {
	if !additive {
		c.ClearSelection()
	}
	r = r.Canon()
	n := 0
	for _, comp := range c.components {
		if r.ContainsRect(comp.Bounds()) {
			comp.Selected = true
			n++
		}
	}
	return n
}

func (c *Circuit) ClearSelection() {
	for _, comp := range c.components {
		comp.Selected = false
	}
}

func (c *Circuit) Selected() []*Component {
	var out []*Component
	for _, comp := range c.components {
		if comp.Selected {
			out = append(out, comp)
		}
	}
	return out
}

// DeleteSelected removes all selected components and their wires.
func (c *Circuit) DeleteSelected() int {
	sel := c.Selected()
	for _, comp := range sel {
		_ = c.Remove(comp.ID)
	}
	return len(sel)
}

func (c *Circuit) Move(id string, dx, dy int) error {
	comp, ok := c.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	comp.Pos = comp.Pos.Add(Point{dx, dy})
	return nil
}

func (c *Circuit) MoveSelected(dx, dy int) int {
	sel := c.Selected()
	for _, comp := range sel {
		comp.Pos = comp.Pos.Add(Point{dx, dy})
	}
	return len(sel)
}

type dragState struct {
	last  Point
	moved bool
}

// BeginDrag starts dragging the component under p. Clicking an
// unselected component makes it the only selection first, so dragging
// a selected group moves the whole group.
func (c *Circuit) BeginDrag(p Point) bool {
	comp, ok := c.ComponentAt(p)
	if !ok {
		return false
	}
	if !comp.Selected {
		c.ClearSelection()
		comp.Selected = true
	}
	for _, s := range c.Selected() {
		s.Dragging = true
	}
	c.drag = &dragState{last: p}
	return true
}

func (c *Circuit) DragTo(p Point) {
	if c.drag == nil {
		return
	}
	d := p.Sub(c.drag.last)
	if d == (Point{}) {
		return
	}
	for _, comp := range c.components {
		if comp.Dragging {
			comp.Pos = comp.Pos.Add(d)
		}
	}
	c.drag.last = p
	c.drag.moved = true
}

// EndDrag finishes a drag and reports whether anything moved.
func (c *Circuit) EndDrag() bool {
	if c.drag == nil {
		return false
	}
	moved := c.drag.moved
	for _, comp := range c.components {
		comp.Dragging = false
	}
	c.drag = nil
	return moved
}

func (c *Circuit) Dragging() bool { return c.drag != nil }
