package circuit_test

import (
	"bytes"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gatesim/internal/circuit"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
}

func mustAdd(c *circuit.Circuit, kind circuit.Kind, pos circuit.Point, opts ...circuit.AddOption) *circuit.Component {
	comp, err := c.Add(kind, pos, opts...)
	Expect(err).NotTo(HaveOccurred())
	return comp
}

func mustConnect(c *circuit.Circuit, a, b circuit.PinRef) *circuit.Wire {
	w, err := c.Connect(a, b)
	Expect(err).NotTo(HaveOccurred())
	return w
}

var _ = Describe("Circuit", func() {
	var c *circuit.Circuit

	BeforeEach(func() {
		c = circuit.New(circuit.WithLogger(quiet), circuit.WithIDGenerator(seqIDs()))
	})

	Describe("AND gate", func() {
		It("outputs high iff both inputs are high", func() {
			a := mustAdd(c, circuit.KindSwitch, circuit.Point{X: 0, Y: 0}, circuit.WithLabel("A"))
			b := mustAdd(c, circuit.KindSwitch, circuit.Point{X: 0, Y: 100}, circuit.WithLabel("B"))
			g := mustAdd(c, circuit.KindAnd, circuit.Point{X: 100, Y: 50})
			led := mustAdd(c, circuit.KindLED, circuit.Point{X: 200, Y: 50}, circuit.WithLabel("Y"))
			mustConnect(c, a.Out(0), g.In(0))
			mustConnect(c, b.Out(0), g.In(1))
			mustConnect(c, g.Out(0), led.In(0))

			for _, tc := range []struct{ a, b, y circuit.Level }{
				{0, 0, 0}, {0, 1, 0}, {1, 0, 0}, {1, 1, 1},
			} {
				Expect(c.SetInput("A", tc.a)).To(Succeed())
				Expect(c.SetInput("B", tc.b)).To(Succeed())
				_, err := c.Settle(16)
				Expect(err).NotTo(HaveOccurred())
				Expect(c.Probe("Y")).To(Equal(tc.y), "A=%v B=%v", tc.a, tc.b)
			}
		})
	})

	Describe("wiring", func() {
		var src1, src2, gate *circuit.Component

		BeforeEach(func() {
			src1 = mustAdd(c, circuit.KindSwitch, circuit.Point{})
			src2 = mustAdd(c, circuit.KindSwitch, circuit.Point{Y: 100})
			gate = mustAdd(c, circuit.KindNot, circuit.Point{X: 100})
		})

		It("accepts at most one wire per input pin", func() {
			mustConnect(c, src1.Out(0), gate.In(0))
			_, err := c.Connect(src2.Out(0), gate.In(0))
			Expect(err).To(MatchError(circuit.ErrFanIn))
			Expect(c.Wires()).To(HaveLen(1))
		})

		It("allows fan-out from one output", func() {
			other := mustAdd(c, circuit.KindBuffer, circuit.Point{X: 100, Y: 100})
			mustConnect(c, src1.Out(0), gate.In(0))
			mustConnect(c, src1.Out(0), other.In(0))
			Expect(src1.Outputs[0].Wires).To(HaveLen(2))
		})

		It("normalises a wire started from the input end", func() {
			w := mustConnect(c, gate.In(0), src1.Out(0))
			Expect(w.From).To(Equal(src1.Out(0)))
			Expect(w.To).To(Equal(gate.In(0)))
		})

		It("rejects output to output", func() {
			_, err := c.Connect(src1.Out(0), src2.Out(0))
			Expect(err).To(MatchError(circuit.ErrSameDirection))
		})

		It("rejects a wire to the same component", func() {
			_, err := c.Connect(gate.Out(0), gate.In(0))
			Expect(err).To(MatchError(circuit.ErrSameComponent))
		})

		It("rejects out of range pins", func() {
			_, err := c.Connect(src1.Out(3), gate.In(0))
			Expect(err).To(MatchError(circuit.ErrPinIndex))
			var ce *circuit.ConnectError
			Expect(err).To(BeAssignableToTypeOf(ce))
		})

		It("drops the destination to low on disconnect", func() {
			w := mustConnect(c, src1.Out(0), gate.In(0))
			Expect(c.Toggle(src1.ID)).To(Succeed())
			c.Step(0)
			c.Step(0)
			Expect(gate.Inputs[0].Value).To(Equal(circuit.High))

			Expect(c.Disconnect(w.ID)).To(Succeed())
			Expect(gate.Inputs[0].Value).To(Equal(circuit.Low))
			Expect(gate.Inputs[0].Wires).To(BeEmpty())
			Expect(src1.Outputs[0].Wires).To(BeEmpty())
		})

		It("cascades wire removal when a component is deleted", func() {
			led := mustAdd(c, circuit.KindLED, circuit.Point{X: 200})
			mustConnect(c, src1.Out(0), gate.In(0))
			mustConnect(c, gate.Out(0), led.In(0))

			Expect(c.Remove(gate.ID)).To(Succeed())
			Expect(c.Wires()).To(BeEmpty())
			Expect(src1.Outputs[0].Wires).To(BeEmpty())
			Expect(led.Inputs[0].Wires).To(BeEmpty())
			_, ok := c.Component(gate.ID)
			Expect(ok).To(BeFalse())
		})

		It("reports missing components", func() {
			Expect(c.Remove("nope")).To(MatchError(circuit.ErrNotFound))
			Expect(c.Disconnect("nope")).To(MatchError(circuit.ErrNotFound))
		})
	})

	Describe("propagation", func() {
		It("starts new components with outputs matching their state", func() {
			ff := mustAdd(c, circuit.KindT, circuit.Point{})
			Expect(ff.Outputs[0].Value).To(Equal(circuit.Low))
			Expect(ff.Outputs[1].Value).To(Equal(circuit.High))

			set := mustAdd(c, circuit.KindD, circuit.Point{X: 100}, circuit.WithParam("q", 1))
			Expect(set.Outputs[0].Value).To(Equal(circuit.High))
			Expect(set.Outputs[1].Value).To(Equal(circuit.Low))

			not := mustAdd(c, circuit.KindNot, circuit.Point{X: 200})
			Expect(not.Outputs[0].Value).To(Equal(circuit.High))
		})

		It("advances one gate level per pass", func() {
			a := mustAdd(c, circuit.KindSwitch, circuit.Point{}, circuit.WithLabel("A"))
			prev := a
			for i := 0; i < 3; i++ {
				b := mustAdd(c, circuit.KindBuffer, circuit.Point{X: 100 * (i + 1)})
				mustConnect(c, prev.Out(0), b.In(0))
				prev = b
			}
			led := mustAdd(c, circuit.KindLED, circuit.Point{X: 400}, circuit.WithLabel("Y"))
			mustConnect(c, prev.Out(0), led.In(0))
			Expect(c.Toggle("A")).To(Succeed())

			for i := 0; i < 4; i++ {
				c.Step(0)
			}
			Expect(c.Probe("Y")).To(Equal(circuit.Low))
			c.Step(0)
			Expect(c.Probe("Y")).To(Equal(circuit.High))
			Expect(c.Passes()).To(Equal(5))
		})

		It("reports an oscillating latch as unsettled", func() {
			s := mustAdd(c, circuit.KindSwitch, circuit.Point{}, circuit.WithLabel("S"))
			r := mustAdd(c, circuit.KindSwitch, circuit.Point{Y: 100}, circuit.WithLabel("R"))
			n1 := mustAdd(c, circuit.KindNor, circuit.Point{X: 100}, circuit.WithLabel("Q"))
			n2 := mustAdd(c, circuit.KindNor, circuit.Point{X: 100, Y: 100}, circuit.WithLabel("NQ"))
			mustConnect(c, r.Out(0), n1.In(0))
			mustConnect(c, n2.Out(0), n1.In(1))
			mustConnect(c, s.Out(0), n2.In(0))
			mustConnect(c, n1.Out(0), n2.In(1))

			_, err := c.Settle(20)
			Expect(err).To(MatchError(circuit.ErrUnsettled))
		})

		It("holds state in a latch once initialised", func() {
			s := mustAdd(c, circuit.KindSwitch, circuit.Point{}, circuit.WithLabel("S"))
			r := mustAdd(c, circuit.KindSwitch, circuit.Point{Y: 100}, circuit.WithLabel("R"),
				circuit.WithParam("value", 1))
			n1 := mustAdd(c, circuit.KindNor, circuit.Point{X: 100}, circuit.WithLabel("Q"))
			n2 := mustAdd(c, circuit.KindNor, circuit.Point{X: 100, Y: 100}, circuit.WithLabel("NQ"))
			mustConnect(c, r.Out(0), n1.In(0))
			mustConnect(c, n2.Out(0), n1.In(1))
			mustConnect(c, s.Out(0), n2.In(0))
			mustConnect(c, n1.Out(0), n2.In(1))

			_, err := c.Settle(20)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Probe("Q")).To(Equal(circuit.Low))

			Expect(c.Release("R")).To(Succeed())
			_, err = c.Settle(20)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Probe("Q")).To(Equal(circuit.Low))

			Expect(c.Press("S")).To(Succeed())
			_, err = c.Settle(20)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Probe("Q")).To(Equal(circuit.High))
			Expect(c.Probe("NQ")).To(Equal(circuit.Low))

			Expect(c.Release("S")).To(Succeed())
			_, err = c.Settle(20)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Probe("Q")).To(Equal(circuit.High))
		})

		It("drives flip-flops from a clock in simulated time", func() {
			clk := mustAdd(c, circuit.KindClock, circuit.Point{}, circuit.WithParam("period", 1))
			one := mustAdd(c, circuit.KindConst, circuit.Point{Y: 100})
			ff := mustAdd(c, circuit.KindT, circuit.Point{X: 100}, circuit.WithLabel("Q0"))
			mustConnect(c, one.Out(0), ff.In(0))
			mustConnect(c, clk.Out(0), ff.In(1))

			var trace []circuit.Level
			for i := 0; i < 12; i++ {
				c.Step(0.25)
				q, err := c.Probe("Q0")
				Expect(err).NotTo(HaveOccurred())
				trace = append(trace, q)
			}
			Expect(c.Time()).To(BeNumerically("~", 3.0, 1e-9))
			// One toggle per clock period.
			toggles := 0
			for i := 1; i < len(trace); i++ {
				if trace[i] != trace[i-1] {
					toggles++
				}
			}
			Expect(toggles).To(Equal(3))
		})

		It("rejects setting a non-input", func() {
			mustAdd(c, circuit.KindAnd, circuit.Point{}, circuit.WithLabel("G"))
			Expect(c.SetInput("G", circuit.High)).To(MatchError(circuit.ErrNotInput))
			Expect(c.Toggle("missing")).To(MatchError(circuit.ErrNotFound))
		})
	})

	Describe("selection and dragging", func() {
		var a, b, far *circuit.Component

		BeforeEach(func() {
			a = mustAdd(c, circuit.KindAnd, circuit.Point{X: 0, Y: 0})
			b = mustAdd(c, circuit.KindOr, circuit.Point{X: 100, Y: 0})
			far = mustAdd(c, circuit.KindNot, circuit.Point{X: 500, Y: 500})
		})

		It("hit-tests component bodies and pins", func() {
			hit, ok := c.ComponentAt(circuit.Point{X: 110, Y: 10})
			Expect(ok).To(BeTrue())
			Expect(hit.ID).To(Equal(b.ID))

			_, ok = c.ComponentAt(circuit.Point{X: 300, Y: 300})
			Expect(ok).To(BeFalse())

			in0 := a.Pos.Add(a.Inputs[0].Offset)
			ref, ok := c.PinAt(in0.Add(circuit.Point{X: 3, Y: 3}))
			Expect(ok).To(BeTrue())
			Expect(ref).To(Equal(a.In(0)))

			_, ok = c.PinAt(in0.Add(circuit.Point{X: circuit.PinRadius + 1}))
			Expect(ok).To(BeFalse())
		})

		It("toggles with shift-click and replaces without it", func() {
			Expect(c.Select(a.ID, false)).To(Succeed())
			Expect(c.Select(b.ID, true)).To(Succeed())
			Expect(c.Selected()).To(HaveLen(2))

			Expect(c.Select(a.ID, true)).To(Succeed())
			Expect(c.Selected()).To(ConsistOf(b))

			Expect(c.Select(far.ID, false)).To(Succeed())
			Expect(c.Selected()).To(ConsistOf(far))
		})

		It("box-selects fully enclosed components", func() {
			n := c.SelectBox(circuit.Rect{Min: circuit.Point{X: 200, Y: 100}, Max: circuit.Point{X: -10, Y: -10}}, false)
			Expect(n).To(Equal(2))
			Expect(c.Selected()).To(ConsistOf(a, b))
		})

		It("deletes the selection", func() {
			mustConnect(c, a.Out(0), b.In(0))
			mustConnect(c, b.Out(0), far.In(0))
			c.SelectBox(circuit.Rect{Min: circuit.Point{X: -10, Y: -10}, Max: circuit.Point{X: 200, Y: 100}}, false)
			Expect(c.DeleteSelected()).To(Equal(2))
			Expect(c.Components()).To(ConsistOf(far))
			Expect(c.Wires()).To(BeEmpty())
		})

		It("drags the whole selection", func() {
			c.SelectBox(circuit.Rect{Min: circuit.Point{X: -10, Y: -10}, Max: circuit.Point{X: 200, Y: 100}}, false)
			Expect(c.BeginDrag(circuit.Point{X: 10, Y: 10})).To(BeTrue())
			c.DragTo(circuit.Point{X: 30, Y: 50})
			Expect(c.EndDrag()).To(BeTrue())

			Expect(a.Pos).To(Equal(circuit.Point{X: 20, Y: 40}))
			Expect(b.Pos).To(Equal(circuit.Point{X: 120, Y: 40}))
			Expect(far.Pos).To(Equal(circuit.Point{X: 500, Y: 500}))
			Expect(a.Dragging).To(BeFalse())
		})

		It("drags only the clicked component when it was not selected", func() {
			Expect(c.Select(a.ID, false)).To(Succeed())
			Expect(c.BeginDrag(circuit.Point{X: 510, Y: 510})).To(BeTrue())
			c.DragTo(circuit.Point{X: 520, Y: 510})
			c.EndDrag()
			Expect(far.Pos).To(Equal(circuit.Point{X: 510, Y: 500}))
			Expect(a.Pos).To(Equal(circuit.Point{}))
		})

		It("does not start a drag on empty space", func() {
			Expect(c.BeginDrag(circuit.Point{X: 300, Y: 300})).To(BeFalse())
			Expect(c.EndDrag()).To(BeFalse())
		})
	})

	Describe("clipboard", func() {
		It("pastes a clone with fresh ids and internal wires only", func() {
			a := mustAdd(c, circuit.KindSwitch, circuit.Point{}, circuit.WithLabel("A"))
			n := mustAdd(c, circuit.KindNot, circuit.Point{X: 100})
			led := mustAdd(c, circuit.KindLED, circuit.Point{X: 200})
			mustConnect(c, a.Out(0), n.In(0))
			mustConnect(c, n.Out(0), led.In(0))

			Expect(c.Select(a.ID, false)).To(Succeed())
			Expect(c.Select(n.ID, true)).To(Succeed())
			clip := c.Copy()
			Expect(clip.Components).To(HaveLen(2))
			Expect(clip.Wires).To(HaveLen(1))

			pasted, err := c.Paste(clip, circuit.Point{X: 0, Y: 200})
			Expect(err).NotTo(HaveOccurred())
			Expect(pasted).To(HaveLen(2))
			Expect(c.Components()).To(HaveLen(5))
			Expect(c.Wires()).To(HaveLen(3))
			Expect(c.Selected()).To(ConsistOf(pasted[0], pasted[1]))

			for _, p := range pasted {
				Expect(p.ID).NotTo(Equal(a.ID))
				Expect(p.ID).NotTo(Equal(n.ID))
			}
			Expect(pasted[0].Pos).To(Equal(circuit.Point{X: 0, Y: 200}))
			Expect(pasted[1].Inputs[0].Wires).To(HaveLen(1))
			Expect(pasted[0].Label).To(Equal("A"))
		})

		It("drops inputs whose driver was left behind to Low", func() {
			a := mustAdd(c, circuit.KindSwitch, circuit.Point{}, circuit.WithLabel("A"))
			n := mustAdd(c, circuit.KindNot, circuit.Point{X: 100})
			mustConnect(c, a.Out(0), n.In(0))
			Expect(c.Toggle("A")).To(Succeed())
			_, err := c.Settle(8)
			Expect(err).NotTo(HaveOccurred())
			Expect(n.Inputs[0].Value).To(Equal(circuit.High))

			Expect(c.Select(n.ID, false)).To(Succeed())
			pasted, err := c.Paste(c.Copy(), circuit.Point{Y: 200})
			Expect(err).NotTo(HaveOccurred())
			Expect(pasted[0].Inputs[0].Wires).To(BeEmpty())
			Expect(pasted[0].Inputs[0].Value).To(Equal(circuit.Low))

			c.Step(0)
			Expect(pasted[0].Outputs[0].Value).To(Equal(circuit.High))
		})

		It("leaves the circuit untouched when a wire cannot be made", func() {
			a := mustAdd(c, circuit.KindSwitch, circuit.Point{}, circuit.WithLabel("A"))
			n := mustAdd(c, circuit.KindNot, circuit.Point{X: 100})
			Expect(c.Select(a.ID, false)).To(Succeed())
			Expect(c.Select(n.ID, true)).To(Succeed())
			clip := c.Copy()
			clip.Wires = append(clip.Wires, circuit.WireState{
				ID:   "w",
				From: circuit.PinRef{Component: "gone", Dir: circuit.Out},
				To:   n.In(0),
			})

			pasted, err := c.Paste(clip, circuit.Point{Y: 200})
			Expect(err).To(MatchError(circuit.ErrNotFound))
			Expect(pasted).To(BeEmpty())
			Expect(c.Components()).To(ConsistOf(a, n))
			Expect(c.Wires()).To(BeEmpty())
			Expect(c.Selected()).To(ConsistOf(a, n))
		})
	})

	Describe("snapshots", func() {
		It("round-trips through JSON", func() {
			a := mustAdd(c, circuit.KindSwitch, circuit.Point{}, circuit.WithLabel("A"))
			clk := mustAdd(c, circuit.KindClock, circuit.Point{Y: 100}, circuit.WithParam("period", 2))
			ff := mustAdd(c, circuit.KindD, circuit.Point{X: 100})
			mustConnect(c, a.Out(0), ff.In(0))
			mustConnect(c, clk.Out(0), ff.In(1))
			Expect(c.Toggle("A")).To(Succeed())
			for i := 0; i < 7; i++ {
				c.Step(0.5)
			}

			before := c.Snapshot()
			var buf bytes.Buffer
			Expect(before.Encode(&buf)).To(Succeed())
			Expect(buf.String()).To(ContainSubstring(`"outputs": [`))

			decoded, err := circuit.Decode(&buf)
			Expect(err).NotTo(HaveOccurred())

			restored, err := circuit.FromSnapshot(decoded, circuit.WithLogger(quiet))
			Expect(err).NotTo(HaveOccurred())
			Expect(restored.Snapshot()).To(Equal(before))

			// Both copies keep simulating identically.
			for i := 0; i < 5; i++ {
				c.Step(0.5)
				restored.Step(0.5)
			}
			Expect(restored.Snapshot()).To(Equal(c.Snapshot()))
		})

		It("leaves the circuit untouched on a bad snapshot", func() {
			mustAdd(c, circuit.KindAnd, circuit.Point{})
			bad := circuit.Snapshot{
				Version: circuit.SnapshotVersion,
				Components: []circuit.ComponentState{
					{ID: "x", Kind: circuit.KindNot, Inputs: []circuit.Level{0}, Outputs: []circuit.Level{0}},
				},
				Wires: []circuit.WireState{
					{ID: "w", From: circuit.PinRef{Component: "x", Dir: circuit.Out}, To: circuit.PinRef{Component: "y"}},
				},
			}
			Expect(c.Restore(bad)).To(MatchError(circuit.ErrBadSnapshot))
			Expect(c.Components()).To(HaveLen(1))

			Expect(c.Restore(circuit.Snapshot{Version: 99})).To(MatchError(circuit.ErrBadSnapshot))
		})
	})
})
