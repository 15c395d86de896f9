// Package circuit provides the digital logic engine: a graph of
// components connected by wires, evaluated one propagation pass at a time.
//
// The package defines the core types:
//
//   - [Level]: binary pin value
//   - [Component]: a placed gate, flip-flop, input or output
//   - [Pin]: an ordered input or output connection point on a component
//   - [Wire]: a directed connection from one output pin to one input pin
//   - [Behavior]: the logic evaluated for a component kind
//   - [Circuit]: owns components and wires and runs propagation passes
//
// # Propagation
//
// A pass copies every wire's source value to its destination and then
// evaluates every component once, in insertion order. There is no
// topological ordering, so a chain of n gates needs n passes to settle:
//
//	c := circuit.New()
//	a, _ := c.Add(circuit.KindSwitch, circuit.Point{}, circuit.WithLabel("A"))
//	led, _ := c.Add(circuit.KindLED, circuit.Point{X: 100})
//	c.Connect(a.Out(0), led.In(0))
//	c.Toggle("A")
//	n, err := c.Settle(16)
//
// # Thread Safety
//
// Circuit instances are NOT thread-safe. Work on independent copies made
// with [Circuit.Snapshot] and [Circuit.Restore] for parallel evaluation.
package circuit
