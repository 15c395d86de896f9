package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	dataDir      string
	verbose      bool
	configFile   string
	preset       string
	dt           float64
	steps        int
	maxPasses    int
	probes       []string
	stimuli      []string
	frameRate    int
	historyDepth int
	// truth table
	truthInputs  []string
	truthOutputs []string
	// random trials
	trials int
	seed   int64
	// output
	outFile   string
	format    string
	stepWidth int
	watch     bool
	deleteArg bool
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gatesim",
		Short:         "digital logic circuit simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gatesim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path (yaml or toml)")
		cmd.Flags().StringVar(&preset, "preset", "", "use run preset")
		cmd.Flags().Float64Var(&dt, "dt", 0.1, "simulated seconds per pass")
		cmd.Flags().IntVar(&maxPasses, "max-passes", 64, "pass limit when settling")
	}

	runCmd := &cobra.Command{
		Use:   "run [circuit]",
		Short: "run circuit and record trace",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCircuit,
	}
	runFlags(runCmd)
	runCmd.Flags().IntVar(&steps, "steps", 100, "passes to run")
	runCmd.Flags().StringSliceVarP(&probes, "probe", "p", nil, "probes to record (default: LEDs)")
	runCmd.Flags().StringArrayVarP(&stimuli, "stim", "s", nil, "input change STEP:INPUT=LEVEL (repeatable)")

	settleCmd := &cobra.Command{
		Use:   "settle [circuit]",
		Short: "settle circuit and print outputs",
		Args:  cobra.MaximumNArgs(1),
		RunE:  settleCircuit,
	}
	runFlags(settleCmd)

	truthCmd := &cobra.Command{
		Use:   "truth [circuit]",
		Short: "print truth table",
		Args:  cobra.MaximumNArgs(1),
		RunE:  truthTable,
	}
	runFlags(truthCmd)
	truthCmd.Flags().StringSliceVar(&truthInputs, "inputs", nil, "inputs to enumerate (default: all switches)")
	truthCmd.Flags().StringSliceVar(&truthOutputs, "outputs", nil, "outputs to show (default: LEDs)")

	testCmd := &cobra.Command{
		Use:   "test [scenario] [circuit]",
		Short: "run testbench scenario",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  testScenario,
	}
	testCmd.Flags().IntVar(&maxPasses, "max-passes", 64, "pass limit when settling")

	randomCmd := &cobra.Command{
		Use:   "random [circuit]",
		Short: "settle random input vectors and report oscillation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  randomTrials,
	}
	runFlags(randomCmd)
	randomCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	randomCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0: time based)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run waveforms",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default: stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export run as SVG timing diagram",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default: stdout)")
	exportSVGCmd.Flags().IntVar(&stepWidth, "step-width", 10, "pixels per sample")

	netlistCmd := &cobra.Command{
		Use:   "netlist [circuit]",
		Short: "print circuit as netlist",
		Args:  cobra.ExactArgs(1),
		RunE:  printNetlist,
	}
	netlistCmd.Flags().StringVar(&format, "format", "yaml", "yaml or toml")

	presetsCmd := &cobra.Command{
		Use:   "presets [circuit]",
		Short: "list built-in circuits, or run presets for one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	saveCmd := &cobra.Command{
		Use:   "save [circuit] [name]",
		Short: "store circuit under name",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  saveCircuit,
	}

	circuitsCmd := &cobra.Command{
		Use:   "circuits [name]",
		Short: "list stored circuits",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listCircuits,
	}
	circuitsCmd.Flags().BoolVar(&deleteArg, "delete", false, "delete the named circuit")

	liveCmd := &cobra.Command{
		Use:   "live [circuit]",
		Short: "run circuit interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	runFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 20, "frame rate")
	liveCmd.Flags().IntVar(&historyDepth, "history", 100, "undo depth")
	liveCmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload when the circuit file changes")

	rootCmd.AddCommand(runCmd, settleCmd, truthCmd, testCmd, randomCmd, listCmd, plotCmd,
		exportJSONCmd, exportSVGCmd, netlistCmd, presetsCmd, saveCmd, circuitsCmd, liveCmd)

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
