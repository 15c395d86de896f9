package circuit

// Copy captures the selected components and the wires running between
// them. Wires to unselected components are left behind.
func (c *Circuit) Copy() Snapshot {
	clip := Snapshot{Version: SnapshotVersion}
	picked := make(map[string]bool)
	for _, comp := range c.components {
		if comp.Selected {
			picked[comp.ID] = true
			clip.Components = append(clip.Components, captureComponent(comp))
		}
	}
	for _, w := range c.wires {
		if picked[w.From.Component] && picked[w.To.Component] {
			clip.Wires = append(clip.Wires, WireState{ID: w.ID, From: w.From, To: w.To})
		}
	}
	return clip
}

// Paste inserts a clone of clip with fresh ids, shifted by offset. The
// pasted components become the selection. Inputs left without a driver
// start Low. If any wire fails the circuit is left as it was.
func (c *Circuit) Paste(clip Snapshot, offset Point) ([]*Component, error) {
	ids := make(map[string]string, len(clip.Components))
	pasted := make([]*Component, 0, len(clip.Components))
	for _, cs := range clip.Components {
		comp, err := instantiate(c.newID(), cs)
		if err != nil {
			return nil, err
		}
		ids[cs.ID] = comp.ID
		comp.Pos = comp.Pos.Add(offset)
		pasted = append(pasted, comp)
	}

	prev := c.Selected()
	c.ClearSelection()
	for _, comp := range pasted {
		comp.Selected = true
		c.insert(comp)
	}
	for _, ws := range clip.Wires {
		from, to := ws.From, ws.To
		from.Component = ids[from.Component]
		to.Component = ids[to.Component]
		if _, err := c.Connect(from, to); err != nil {
			for _, comp := range pasted {
				c.Remove(comp.ID)
			}
			for _, comp := range prev {
				comp.Selected = true
			}
			return nil, err
		}
	}

	for _, comp := range pasted {
		for _, p := range comp.Inputs {
			if len(p.Wires) == 0 {
				p.Value = Low
			}
		}
	}
	c.logger.Debug("pasted", "components", len(pasted), "wires", len(clip.Wires))
	return pasted, nil
}
