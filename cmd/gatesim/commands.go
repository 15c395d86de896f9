package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/gatesim/internal/automation"
	"github.com/san-kum/gatesim/internal/circuit"
	"github.com/san-kum/gatesim/internal/config"
	"github.com/san-kum/gatesim/internal/editor"
	"github.com/san-kum/gatesim/internal/export"
	"github.com/san-kum/gatesim/internal/metrics"
	"github.com/san-kum/gatesim/internal/netlist"
	"github.com/san-kum/gatesim/internal/sim"
	"github.com/san-kum/gatesim/internal/storage"
	"github.com/san-kum/gatesim/internal/tui"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

func runCircuit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	out := cmd.OutOrStdout()

	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	st := storeFor(cfg)
	c, name, err := loadCircuit(ctx, st, cfg.Circuit)
	if err != nil {
		return err
	}

	simCfg := cfg.SimConfig()
	if len(simCfg.Probes) == 0 {
		simCfg.Probes = sim.DefaultProbes(c)
	}
	s := sim.New(c)
	for _, m := range metrics.Defaults(simCfg.Probes) {
		s.AddMetric(m)
	}

	logger.Info("running circuit", "circuit", name, "steps", simCfg.Steps, "dt", simCfg.Dt)
	prog := newProgress(logger)

	result, err := s.Run(ctx, simCfg)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Ran %d steps", result.StepsTaken))
	for _, e := range result.Errors {
		logger.Warn("simulation problem", "err", e)
	}

	runID, err := st.SaveRun(name, simCfg, result)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "run id: %s\n", runID)
	fmt.Fprintf(out, "steps: %d  t=%.4f\n", result.StepsTaken, c.Time())
	fmt.Fprintf(out, "final: %s\n", strings.Join(probeValues(c, simCfg.Probes), " "))
	fmt.Fprintln(out, "\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for n := range result.Metrics {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(out, "  %s: %.6f\n", n, result.Metrics[n])
	}
	return nil
}

func settleCircuit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	c, _, err := loadCircuit(ctx, storeFor(cfg), cfg.Circuit)
	if err != nil {
		return err
	}

	passes, err := c.Settle(cfg.MaxPasses)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "settled in %d passes: %s\n", passes, strings.Join(probeValues(c, cfg.Probes), " "))
	return nil
}

func truthTable(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	c, _, err := loadCircuit(ctx, storeFor(cfg), cfg.Circuit)
	if err != nil {
		return err
	}

	table, err := sim.TruthTable(ctx, c.Snapshot(), truthInputs, truthOutputs, cfg.MaxPasses)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t|\t%s\tPASSES\n", strings.Join(table.Inputs, "\t"), strings.Join(table.Outputs, "\t"))
	for _, row := range table.Rows {
		outs := levels(row.Outputs)
		if !row.Stable {
			outs = append(outs[:0:0], "~")
		}
		fmt.Fprintf(w, "%s\t|\t%s\t%d\n", strings.Join(levels(row.Inputs), "\t"), strings.Join(outs, "\t"), row.Passes)
	}
	return w.Flush()
}

func levels(ls []circuit.Level) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.String()
	}
	return out
}

func testScenario(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	ref := sc.Circuit
	if len(args) > 1 {
		ref = args[1]
	}
	if ref == "" {
		return fmt.Errorf("scenario %s names no circuit", args[0])
	}
	if !filepath.IsAbs(ref) && sc.Circuit == ref {
		if rel := filepath.Join(filepath.Dir(args[0]), ref); fileExists(rel) {
			ref = rel
		}
	}

	c, _, err := loadCircuit(ctx, storage.New(dataDir), ref)
	if err != nil {
		return err
	}

	results, err := automation.Run(ctx, sc, c, maxPasses)
	if err != nil {
		return err
	}

	for _, r := range results {
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("step %d", r.Index+1)
		}
		if r.Passed() {
			fmt.Fprintf(out, "%s %s %s\n", passStyle.Render("PASS"), name, dimStyle.Render(fmt.Sprintf("(%d passes)", r.Passes)))
			continue
		}
		fmt.Fprintf(out, "%s %s\n", failStyle.Render("FAIL"), name)
		if !r.Stable {
			fmt.Fprintf(out, "     did not settle in %d passes\n", r.Passes)
		}
		for _, m := range r.Mismatches {
			fmt.Fprintf(out, "     %s\n", m)
		}
	}

	passed, failed := automation.Summary(results)
	fmt.Fprintf(out, "\n%d passed, %d failed\n", passed, failed)
	if failed > 0 {
		return fmt.Errorf("%w: %s", errTestsFailed, sc.Name)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func randomTrials(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	c, _, err := loadCircuit(ctx, storeFor(cfg), cfg.Circuit)
	if err != nil {
		return err
	}

	results, err := automation.RunRandom(ctx, c.Snapshot(), automation.RandomConfig{
		NumTrials: trials,
		MaxPasses: cfg.MaxPasses,
		Seed:      seed,
	}, circuit.WithLogger(loggerFromContext(ctx)))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	stable, unstable := automation.TrialStats(results)
	fmt.Fprintf(out, "%d trials: %d settled, %d oscillated\n", len(results), stable, unstable)
	for _, r := range results {
		if r.Stable {
			continue
		}
		names := make([]string, 0, len(r.Inputs))
		for n := range r.Inputs {
			names = append(names, n)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, n := range names {
			parts[i] = n + "=" + r.Inputs[n].String()
		}
		fmt.Fprintf(out, "  trial %d: %s\n", r.TrialID, strings.Join(parts, " "))
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.ListRuns()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCIRCUIT\tTIME\tSTEPS\tDT\tPROBES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4fs\t%s\n",
			run.ID,
			run.Circuit,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			strings.Join(run.Probes, ","),
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	out := cmd.OutOrStdout()

	meta, result, err := loadRunResult(runID)
	if err != nil {
		return err
	}
	if len(result.Trace) < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "circuit: %s\n", meta.Circuit)
	fmt.Fprintf(out, "samples: %d\n\n", len(result.Trace))

	for _, probe := range result.Probes {
		col, _ := result.Column(probe)
		data := make([]float64, len(col))
		for i, l := range col {
			data[i] = float64(l)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(3),
			asciigraph.Width(80),
			asciigraph.LowerBound(0),
			asciigraph.UpperBound(1),
			asciigraph.Caption(probe),
		)
		fmt.Fprintln(out, graph)
		fmt.Fprintln(out)
	}
	return nil
}

func loadRunResult(runID string) (*storage.RunMetadata, *sim.Result, error) {
	st := storage.New(dataDir)
	meta, err := st.LoadRun(runID)
	if err != nil {
		return nil, nil, err
	}
	result, err := st.LoadTrace(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, result, nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRunResult(args[0])
	if err != nil {
		return err
	}
	if outFile == "" {
		return export.WriteJSON(cmd.OutOrStdout(), meta.Circuit, meta.Dt, result)
	}
	if err := export.ExportJSON(outFile, meta.Circuit, meta.Dt, result); err != nil {
		return err
	}
	loggerFromContext(cmd.Context()).Info("exported", "run", meta.ID, "path", outFile)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRunResult(args[0])
	if err != nil {
		return err
	}
	svg := export.TraceToSVG(result, stepWidth, "#00ff00")
	if outFile == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), svg)
		return err
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	loggerFromContext(cmd.Context()).Info("exported", "run", meta.ID, "path", outFile)
	return nil
}

func printNetlist(cmd *cobra.Command, args []string) error {
	c, name, err := loadCircuit(cmd.Context(), storage.New(dataDir), args[0])
	if err != nil {
		return err
	}
	data, err := netlist.FromCircuit(name, c).Marshal(netlist.Format(format))
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func listPresets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		fmt.Fprintln(out, "circuits:")
		for _, name := range netlist.ListPresets() {
			fmt.Fprintf(out, "  %-16s %s\n", name, dimStyle.Render(netlist.GetPreset(name).Description))
		}
		return nil
	}

	presets := config.ListPresets(args[0])
	if len(presets) == 0 {
		fmt.Fprintf(out, "no presets for circuit: %s\n", args[0])
		return nil
	}
	fmt.Fprintf(out, "presets for %s:\n", args[0])
	for _, p := range presets {
		fmt.Fprintf(out, "  %s\n", p)
	}
	return nil
}

func saveCircuit(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	c, name, err := loadCircuit(cmd.Context(), st, args[0])
	if err != nil {
		return err
	}
	if len(args) > 1 {
		name = args[1]
	}
	if err := st.PutCircuit(name, c.Snapshot()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", name)
	return nil
}

func listCircuits(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	out := cmd.OutOrStdout()

	if deleteArg {
		if len(args) == 0 {
			return fmt.Errorf("--delete needs a circuit name")
		}
		if err := st.DeleteCircuit(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %s\n", args[0])
		return nil
	}

	names, err := st.ListCircuits()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(out, "no stored circuits")
		return nil
	}
	for _, n := range names {
		fmt.Fprintln(out, n)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	c, name, err := loadCircuit(ctx, storeFor(cfg), cfg.Circuit)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := tui.New(editor.New(c, cfg.HistoryDepth), name, cfg.FPS, cfg.MaxPasses)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if watch {
		if !fileExists(cfg.Circuit) {
			return fmt.Errorf("--watch needs a circuit file, got %q", cfg.Circuit)
		}
		stop := startWatch(ctx, cfg.Circuit, p.Send, logger)
		defer stop()
	}

	_, err = p.Run()
	return err
}

// startWatch sends a reload to the live view whenever path changes. The
// returned stop cancels the watcher and waits for it to exit.
func startWatch(ctx context.Context, path string, send func(tea.Msg), logger *log.Logger) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	load := func(path string) (circuit.Snapshot, error) {
		c, err := loadCircuitFile(path, circuit.WithLogger(logger))
		if err != nil {
			return circuit.Snapshot{}, err
		}
		return c.Snapshot(), nil
	}
	go func() {
		defer close(done)
		if err := tui.Watch(ctx, path, load, send, logger); err != nil {
			logger.Error("watch stopped", "err", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
