package sim

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/gatesim/internal/circuit"
)

const maxTruthInputs = 16

type Row struct {
	Inputs  []circuit.Level
	Outputs []circuit.Level
	Passes  int
	Stable  bool
}

type Table struct {
	Inputs  []string
	Outputs []string
	Rows    []Row
}

// TruthTable settles the circuit for every combination of the named
// inputs. Each row runs on its own copy restored from snap, so rows are
// evaluated in parallel and do not see each other's sequential state.
// Rows are ordered with the first input as the most significant bit.
func TruthTable(ctx context.Context, snap circuit.Snapshot, inputs, outputs []string, maxPasses int) (*Table, error) {
	proto, err := circuit.FromSnapshot(snap, circuit.WithLogger(log.New(io.Discard)))
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		for _, comp := range proto.Inputs() {
			inputs = append(inputs, comp.Name())
		}
	}
	if len(outputs) == 0 {
		outputs = DefaultProbes(proto)
	}
	if len(inputs) > maxTruthInputs {
		return nil, fmt.Errorf("truth table over %d inputs exceeds limit of %d", len(inputs), maxTruthInputs)
	}
	for _, in := range inputs {
		if err := proto.SetInput(in, circuit.Low); err != nil {
			return nil, err
		}
	}
	for _, out := range outputs {
		if _, err := proto.Probe(out); err != nil {
			return nil, err
		}
	}

	n := 1 << len(inputs)
	table := &Table{Inputs: inputs, Outputs: outputs, Rows: make([]Row, n)}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for row := 0; row < n; row++ {
		row := row
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := evalRow(snap, inputs, outputs, row, maxPasses)
			if err != nil {
				return err
			}
			table.Rows[row] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return table, nil
}

func evalRow(snap circuit.Snapshot, inputs, outputs []string, row, maxPasses int) (Row, error) {
	c, err := circuit.FromSnapshot(snap, circuit.WithLogger(log.New(io.Discard)))
	if err != nil {
		return Row{}, err
	}

	r := Row{
		Inputs:  make([]circuit.Level, len(inputs)),
		Outputs: make([]circuit.Level, len(outputs)),
	}
	for i, in := range inputs {
		bit := len(inputs) - 1 - i
		r.Inputs[i] = circuit.FromBool(row&(1<<bit) != 0)
		if err := c.SetInput(in, r.Inputs[i]); err != nil {
			return Row{}, err
		}
	}

	passes, err := c.Settle(maxPasses)
	r.Passes = passes
	r.Stable = err == nil
	for i, out := range outputs {
		r.Outputs[i], _ = c.Probe(out)
	}
	return r, nil
}
