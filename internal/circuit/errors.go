package circuit

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("circuit: component or wire not found")

	ErrUnknownKind = errors.New("circuit: unknown component kind")

	// ErrPinIndex indicates a pin index outside the component's pin list.
	ErrPinIndex = errors.New("circuit: pin index out of range")

	// ErrSameComponent rejects a wire from a component to itself.
	ErrSameComponent = errors.New("circuit: cannot wire a component to itself")

	// ErrSameDirection rejects output-output and input-input wires.
	ErrSameDirection = errors.New("circuit: wire must connect an output to an input")

	// ErrFanIn indicates the destination input already has a driver.
	ErrFanIn = errors.New("circuit: input pin already connected")

	ErrInputCount = errors.New("circuit: input count out of range for kind")

	// ErrNotInput indicates a value was set on a component that is not user driven.
	ErrNotInput = errors.New("circuit: component is not a settable input")

	ErrUnknownParam = errors.New("circuit: unknown parameter")

	// ErrUnsettled indicates the circuit was still changing after the pass limit.
	ErrUnsettled = errors.New("circuit: did not settle within pass limit")

	ErrBadSnapshot = errors.New("circuit: invalid snapshot")
)

// ConnectError reports a rejected wire with both endpoints.
type ConnectError struct {
	From PinRef
	To   PinRef
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s -> %s: %v", e.From, e.To, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
