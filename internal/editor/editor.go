// Package editor is the interaction layer over a circuit: placement,
// wiring, selection, dragging and clipboard, each edit recorded so it
// can be undone.
package editor

import (
	"github.com/san-kum/gatesim/internal/circuit"
	"github.com/san-kum/gatesim/internal/history"
)

// PasteOffset shifts pasted components so they do not cover the originals.
var PasteOffset = circuit.Point{X: 20, Y: 20}

type Editor struct {
	c         *circuit.Circuit
	hist      *history.Stack
	clipboard *circuit.Snapshot
	dragStart *circuit.Snapshot
}

func New(c *circuit.Circuit, depth int) *Editor {
	return &Editor{c: c, hist: history.New(depth)}
}

func (e *Editor) Circuit() *circuit.Circuit { return e.c }
func (e *Editor) History() *history.Stack   { return e.hist }

// record snapshots the circuit, runs fn, and keeps the snapshot for undo
// only when fn succeeds.
func (e *Editor) record(fn func() error) error {
	before := e.c.Snapshot()
	if err := fn(); err != nil {
		return err
	}
	e.hist.Push(before)
	return nil
}

func (e *Editor) Place(kind circuit.Kind, pos circuit.Point, opts ...circuit.AddOption) (*circuit.Component, error) {
	var comp *circuit.Component
	err := e.record(func() error {
		var err error
		comp, err = e.c.Add(kind, pos, opts...)
		return err
	})
	return comp, err
}

func (e *Editor) Delete(id string) error {
	return e.record(func() error { return e.c.Remove(id) })
}

func (e *Editor) DeleteSelected() int {
	if len(e.c.Selected()) == 0 {
		return 0
	}
	n := 0
	_ = e.record(func() error {
		n = e.c.DeleteSelected()
		return nil
	})
	return n
}

func (e *Editor) Wire(a, b circuit.PinRef) (*circuit.Wire, error) {
	var w *circuit.Wire
	err := e.record(func() error {
		var err error
		w, err = e.c.Connect(a, b)
		return err
	})
	return w, err
}

// WireAt connects whatever pins lie under the two points, as when a
// wire is dragged from one pin to another.
func (e *Editor) WireAt(from, to circuit.Point) (*circuit.Wire, error) {
	a, ok := e.c.PinAt(from)
	if !ok {
		return nil, circuit.ErrNotFound
	}
	b, ok := e.c.PinAt(to)
	if !ok {
		return nil, circuit.ErrNotFound
	}
	return e.Wire(a, b)
}

func (e *Editor) Unwire(id string) error {
	return e.record(func() error { return e.c.Disconnect(id) })
}

func (e *Editor) Move(id string, dx, dy int) error {
	return e.record(func() error { return e.c.Move(id, dx, dy) })
}

func (e *Editor) Toggle(ref string) error {
	return e.record(func() error { return e.c.Toggle(ref) })
}

func (e *Editor) SetParam(ref, name string, v float64) error {
	return e.record(func() error { return e.c.SetParam(ref, name, v) })
}

// Selection changes are not recorded; they are view state.

func (e *Editor) Select(id string, additive bool) error { return e.c.Select(id, additive) }

func (e *Editor) SelectBox(r circuit.Rect, additive bool) int { return e.c.SelectBox(r, additive) }

func (e *Editor) BeginDrag(p circuit.Point) bool {
	before := e.c.Snapshot()
	if !e.c.BeginDrag(p) {
		return false
	}
	e.dragStart = &before
	return true
}

func (e *Editor) DragTo(p circuit.Point) { e.c.DragTo(p) }

// EndDrag records one undo entry for the whole drag, if anything moved.
func (e *Editor) EndDrag() bool {
	moved := e.c.EndDrag()
	if moved && e.dragStart != nil {
		e.hist.Push(*e.dragStart)
	}
	e.dragStart = nil
	return moved
}

func (e *Editor) Copy() int {
	clip := e.c.Copy()
	e.clipboard = &clip
	return len(clip.Components)
}

func (e *Editor) Cut() int {
	n := e.Copy()
	if n > 0 {
		e.DeleteSelected()
	}
	return n
}

func (e *Editor) Paste() ([]*circuit.Component, error) {
	if e.clipboard == nil || len(e.clipboard.Components) == 0 {
		return nil, nil
	}
	var pasted []*circuit.Component
	err := e.record(func() error {
		var err error
		pasted, err = e.c.Paste(*e.clipboard, PasteOffset)
		return err
	})
	return pasted, err
}

func (e *Editor) Undo() (bool, error) {
	prev, ok := e.hist.Undo(e.c.Snapshot())
	if !ok {
		return false, nil
	}
	return true, e.c.Restore(prev)
}

func (e *Editor) Redo() (bool, error) {
	next, ok := e.hist.Redo(e.c.Snapshot())
	if !ok {
		return false, nil
	}
	return true, e.c.Restore(next)
}

// Load replaces the circuit and starts a fresh history.
func (e *Editor) Load(snap circuit.Snapshot) error {
	if err := e.c.Restore(snap); err != nil {
		return err
	}
	e.hist.Clear()
	return nil
}
