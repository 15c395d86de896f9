// Package history keeps undo and redo stacks of full circuit snapshots.
//
// Each entry is a complete serialized state rather than a delta, so an
// undo restores exactly what was there before the edit.
package history

import "github.com/san-kum/gatesim/internal/circuit"

const DefaultDepth = 100

type Stack struct {
	undo  []circuit.Snapshot
	redo  []circuit.Snapshot
	depth int
}

func New(depth int) *Stack {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Stack{depth: depth}
}

// Push records the state before an edit and invalidates redo.
func (s *Stack) Push(snap circuit.Snapshot) {
	s.undo = append(s.undo, snap)
	if len(s.undo) > s.depth {
		kept := make([]circuit.Snapshot, s.depth, s.depth+1)
		copy(kept, s.undo[len(s.undo)-s.depth:])
		s.undo = kept
	}
	s.redo = nil
}

// Undo returns the state to restore and saves current for Redo.
func (s *Stack) Undo(current circuit.Snapshot) (circuit.Snapshot, bool) {
	if len(s.undo) == 0 {
		return circuit.Snapshot{}, false
	}
	prev := s.undo[len(s.undo)-1]
	s.undo[len(s.undo)-1] = circuit.Snapshot{}
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, current)
	return prev, true
}

func (s *Stack) Redo(current circuit.Snapshot) (circuit.Snapshot, bool) {
	if len(s.redo) == 0 {
		return circuit.Snapshot{}, false
	}
	next := s.redo[len(s.redo)-1]
	s.redo[len(s.redo)-1] = circuit.Snapshot{}
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, current)
	return next, true
}

func (s *Stack) CanUndo() bool { return len(s.undo) > 0 }
func (s *Stack) CanRedo() bool { return len(s.redo) > 0 }
func (s *Stack) Len() int      { return len(s.undo) }

func (s *Stack) Clear() {
	s.undo = nil
	s.redo = nil
}
