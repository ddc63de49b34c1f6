package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/emsim/internal/catalog"
	"github.com/san-kum/emsim/internal/config"
	"github.com/san-kum/emsim/internal/geodesy"
	"github.com/san-kum/emsim/internal/tui"
)

var (
	dataDir     string
	logLevel    string
	catalogFile string
	preset      string
	dt          float64
	duration    float64
	column      string
	outFile     string
	pngFile     string
	csvFile     string
	hann        bool
	profile     bool
	lat, lon    float64
	alt         float64
	sweepComp   string
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepCount  int
	tolParams   []string
	tolerance   float64
	trials      int
	seed        int64

	fromPoint    []float64
	toPoint      []float64
	vincentyIter int

	logger *log.Logger
	cat    *catalog.Catalog
)

// main registers the commands and starts the preset menu when no
// subcommand is given.
func main() {
	rootCmd := &cobra.Command{
		Use:               "emsim",
		Short:             "circuit, thermal and magnetic field simulator",
		PersistentPreRunE: setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := tea.NewProgram(tui.NewApp(cat, logger), tea.WithAltScreen()).Run()
			return err
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".emsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog", "", "catalog override file (yaml)")

	scenarioFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&preset, "preset", "", "use a named preset instead of a scenario file")
		c.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep override")
		c.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration override")
	}

	runCmd := &cobra.Command{
		Use:   "run [scenario.yaml]",
		Short: "run a scenario headless and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	scenarioFlags(runCmd)

	validateCmd := &cobra.Command{
		Use:   "validate [scenario.yaml]",
		Short: "check a circuit without running it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  validateScenario,
	}
	scenarioFlags(validateCmd)

	fieldCmd := &cobra.Command{
		Use:   "field [scenario.yaml]",
		Short: "evaluate the magnetic field at one point",
		Args:  cobra.MaximumNArgs(1),
		RunE:  fieldAt,
	}
	scenarioFlags(fieldCmd)
	fieldCmd.Flags().Float64Var(&lat, "lat", 0, "latitude (°)")
	fieldCmd.Flags().Float64Var(&lon, "lon", 0, "longitude (°)")
	fieldCmd.Flags().Float64Var(&alt, "alt", 0, "altitude (m)")

	gridCmd := &cobra.Command{
		Use:   "grid [scenario.yaml]",
		Short: "sample the magnetic field over the scenario's lat/lon box",
		Args:  cobra.MaximumNArgs(1),
		RunE:  fieldGrid,
	}
	scenarioFlags(gridCmd)
	gridCmd.Flags().StringVar(&csvFile, "csv", "", "write samples to a CSV file")
	gridCmd.Flags().StringVar(&pngFile, "png", "", "write a heatmap image (png, svg or pdf)")
	gridCmd.Flags().BoolVar(&profile, "profile", false, "plot |B| along the middle latitude")

	liveCmd := &cobra.Command{
		Use:   "live [scenario.yaml]",
		Short: "run a scenario in the live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	scenarioFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded column",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "", "column to plot (default: first temperature column)")
	plotCmd.Flags().StringVar(&pngFile, "png", "", "also write a chart image of all temperature columns")

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run_id]",
		Short: "amplitude spectrum of a recorded column",
		Args:  cobra.ExactArgs(1),
		RunE:  spectrumRun,
	}
	spectrumCmd.Flags().StringVar(&column, "column", "", "column to analyze (default: first current column)")
	spectrumCmd.Flags().BoolVar(&hann, "hann", false, "apply a Hann window")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [scenario.yaml]",
		Short: "run a scenario and write the final snapshot as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}
	scenarioFlags(exportJSONCmd)
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario.yaml]",
		Short: "sweep one component property and report heating and failures",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	scenarioFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepComp, "component", "", "component name")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "property name")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0, "last value")
	sweepCmd.Flags().IntVar(&sweepCount, "count", 5, "number of values")
	_ = sweepCmd.MarkFlagRequired("component")
	_ = sweepCmd.MarkFlagRequired("param")

	toleranceCmd := &cobra.Command{
		Use:   "tolerance [scenario.yaml]",
		Short: "Monte Carlo runs with perturbed component values",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTolerance,
	}
	scenarioFlags(toleranceCmd)
	toleranceCmd.Flags().StringSliceVar(&tolParams, "params", []string{"resistance"}, "properties to perturb")
	toleranceCmd.Flags().Float64Var(&tolerance, "tol", 0.05, "relative tolerance")
	toleranceCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	toleranceCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0: clock)")

	verifyCmd := &cobra.Command{
		Use:   "verify [scenario.yaml]",
		Short: "solve one step and check KCL, KVL and a direct solve",
		Args:  cobra.MaximumNArgs(1),
		RunE:  verifyScenario,
	}
	scenarioFlags(verifyCmd)

	distanceCmd := &cobra.Command{
		Use:   "distance --from lat,lon --to lat,lon",
		Short: "great-circle and ellipsoidal distance between two points",
		Args:  cobra.NoArgs,
		RunE:  distance,
	}
	distanceCmd.Flags().Float64SliceVar(&fromPoint, "from", nil, "start point lat,lon (°)")
	distanceCmd.Flags().Float64SliceVar(&toPoint, "to", nil, "end point lat,lon (°)")
	distanceCmd.Flags().IntVar(&vincentyIter, "iterations", geodesy.DefaultVincentyIterations, "Vincenty iteration cap")
	distanceCmd.MarkFlagRequired("from")
	distanceCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(runCmd, validateCmd, fieldCmd, gridCmd, liveCmd, listCmd, plotCmd,
		spectrumCmd, exportJSONCmd, presetsCmd, sweepCmd, toleranceCmd, verifyCmd, distanceCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	logger = log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "emsim",
	})

	if catalogFile == "" {
		cat = catalog.Default()
		return nil
	}
	cat, err = catalog.Load(catalogFile)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	return nil
}

// loadScenario reads args[0] or --preset and applies --dt/--time when given.
func loadScenario(cmd *cobra.Command, args []string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case len(args) == 1:
		cfg, err = config.Load(args[0])
	case preset != "":
		cfg, err = config.GetPreset(preset)
		if err != nil {
			err = fmt.Errorf("%w (available: %v)", err, config.ListPresets())
		}
	default:
		return nil, fmt.Errorf("need a scenario file or --preset (available: %v)", config.ListPresets())
	}
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	return cfg, cfg.Validate()
}
