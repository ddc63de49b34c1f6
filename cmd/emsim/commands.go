package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/emsim/internal/analysis"
	"github.com/san-kum/emsim/internal/automation"
	"github.com/san-kum/emsim/internal/config"
	"github.com/san-kum/emsim/internal/export"
	"github.com/san-kum/emsim/internal/field"
	"github.com/san-kum/emsim/internal/geodesy"
	"github.com/san-kum/emsim/internal/metrics"
	"github.com/san-kum/emsim/internal/sim"
	"github.com/san-kum/emsim/internal/solver"
	"github.com/san-kum/emsim/internal/storage"
	"github.com/san-kum/emsim/internal/tui"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s...\n", cfg.Name)
	start := time.Now()
	ms := metrics.Defaults()
	res, err := automation.RunScenario(ctx, cfg, cat, logger, metrics.Observers(ms)...)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	elapsed := time.Since(start)

	var failed []string
	for _, f := range res.Failures {
		failed = append(failed, fmt.Sprintf("%s:%s@%.2fs", f.Label, f.Kind, f.Time))
	}
	runID, err := st.Save(storage.RunMetadata{
		Name:     cfg.Name,
		Dt:       cfg.Dt,
		Duration: res.State.ElapsedTime,
		Failures: failed,
		Metrics:  metrics.Collect(ms),
	}, res.History)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d  elapsed: %.2fs\n\n", res.State.StepCount, res.State.ElapsedTime)
	if err := printComponents(res.Engine); err != nil {
		return err
	}
	fmt.Println("\nmetrics:")
	for _, m := range ms {
		fmt.Printf("  %s: %.6g\n", m.Name(), m.Value())
	}
	if len(res.Failures) > 0 {
		fmt.Println("\nfailures:")
		for _, f := range res.Failures {
			fmt.Printf("  %s %s at %.2fs\n", f.Label, f.Kind, f.Time)
		}
	}
	return nil
}

func printComponents(e *sim.Engine) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tTYPE\tTEMP(°C)\tCURRENT(A)\tDROP(V)\tPOWER(W)\tWARNING\tFAILED")
	for _, c := range e.Project().Components {
		rt := c.Runtime
		failed := "-"
		if rt.Failed {
			failed = string(rt.FailureKind)
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.4g\t%.4g\t%.4g\t%s\t%s\n",
			c.Label, c.Type, rt.Temperature, rt.Current, rt.VoltageDrop, rt.Power, rt.Warning, failed)
	}
	return w.Flush()
}

func validateScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	e, err := automation.Build(cfg, cat, logger)
	if err != nil {
		return err
	}
	r := e.Validate()
	for _, msg := range r.Errors {
		fmt.Printf("error:   %s\n", msg)
	}
	for _, msg := range r.Warnings {
		fmt.Printf("warning: %s\n", msg)
	}
	if !r.Valid {
		return fmt.Errorf("%s: %d errors", cfg.Name, len(r.Errors))
	}
	fmt.Printf("%s: valid (%d components, %d wires)\n", cfg.Name, len(e.Project().Components), len(e.Project().Wires))
	return nil
}

func fieldScale(cfg *config.Config) float64 {
	if cfg.Field.Scale > 0 {
		return cfg.Field.Scale
	}
	return cfg.Settings.BufferScale
}

func fieldAt(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	if len(cfg.Field.Sources) == 0 {
		return fmt.Errorf("%s has no field sources", cfg.Name)
	}
	e, err := automation.Build(cfg, cat, logger)
	if err != nil {
		return err
	}
	b := e.FieldAt(cfg.Field.Sources, lat, lon, alt, fieldScale(cfg))
	fmt.Printf("B at (%.6f, %.6f, %.1f m):\n", lat, lon, alt)
	fmt.Printf("  x: %.6e T\n  y: %.6e T\n  z: %.6e T\n  |B|: %.6e T\n", b.X, b.Y, b.Z, b.Magnitude())
	if d, ok := field.Diagnose(cfg.Field.Sources, lat, lon, alt, fieldScale(cfg)); ok {
		state := "inactive"
		if d.Triggered {
			state = "active"
		}
		fmt.Printf("buffer: %s, nearest conductor %.4g m, strength %.3f\n", state, d.Raw, d.Strength)
	}
	return nil
}

func fieldGrid(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	if len(cfg.Field.Sources) == 0 {
		return fmt.Errorf("%s has no field sources", cfg.Name)
	}
	e, err := automation.Build(cfg, cat, logger)
	if err != nil {
		return err
	}
	fc := cfg.Field
	samples := e.FieldGrid(fc.Sources, fc.Lat, fc.Lon, fc.Alt, fc.Resolution, fieldScale(cfg))

	if peak, ok := field.Peak(samples); ok {
		fmt.Printf("%d samples, peak |B| %.6e T at (%.6f, %.6f)\n", len(samples), peak.Magnitude, peak.Lat, peak.Lon)
	}
	if n := field.Triggered(samples); n > 0 {
		fmt.Printf("%d samples within the regularization buffer\n", n)
	}
	if csvFile != "" {
		f, err := os.Create(csvFile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := export.WriteGridCSV(f, samples); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", csvFile)
	}
	if pngFile != "" {
		smooth := e.FieldGrid(fc.Sources, fc.Lat, fc.Lon, fc.Alt, fc.Resolution, fieldScale(cfg), field.WithSmoothFalloff())
		if err := export.SaveHeatmap(pngFile, smooth, cfg.Name+" |B|"); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pngFile)
	}
	if profile {
		grid, err := export.NewFieldGrid(samples)
		if err != nil {
			return err
		}
		cols, rows := grid.Dims()
		line := make([]float64, cols)
		for c := range line {
			line[c] = grid.Z(c, rows/2)
		}
		fmt.Println(asciigraph.Plot(line,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("|B| (T) along lat %.5f", grid.Y(rows/2))),
		))
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	e, err := automation.Build(cfg, cat, logger)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(tui.NewModel(e, cfg.Dt, cfg.Duration), tea.WithAltScreen()).Run()
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tDURATION\tDT\tSTEPS\tFAILURES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%d\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Steps,
			len(run.Failures),
		)
	}
	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *sim.History, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	h, err := st.LoadHistory(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, h, nil
}

// defaultColumn returns the first column with the given suffix.
func defaultColumn(h *sim.History, suffix string) (string, error) {
	for _, c := range h.Columns {
		if strings.HasSuffix(c, suffix) {
			return c, nil
		}
	}
	return "", fmt.Errorf("no %s column recorded", suffix)
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, h, err := loadRun(args[0])
	if err != nil {
		return err
	}
	col := column
	if col == "" {
		if col, err = defaultColumn(h, ".temperature"); err != nil {
			return err
		}
	}
	series, ok := h.Series(col)
	if !ok {
		return fmt.Errorf("no column %q (have %s)", col, strings.Join(h.Columns, ", "))
	}
	data := make([]float64, 0, len(series))
	for _, v := range series {
		if !math.IsNaN(v) {
			data = append(data, v)
		}
	}
	if len(data) == 0 {
		return fmt.Errorf("column %q has no readings", col)
	}
	fmt.Println(asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s  %s", meta.ID, col)),
	))

	if pngFile != "" {
		var temps []string
		for _, c := range h.Columns {
			if strings.HasSuffix(c, ".temperature") {
				temps = append(temps, c)
			}
		}
		if err := export.SaveHistoryPlot(pngFile, h, temps, meta.Name+" temperature (°C)"); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pngFile)
	}
	return nil
}

func spectrumRun(cmd *cobra.Command, args []string) error {
	meta, h, err := loadRun(args[0])
	if err != nil {
		return err
	}
	col := column
	if col == "" {
		if col, err = defaultColumn(h, ".current"); err != nil {
			return err
		}
	}
	series, ok := h.Series(col)
	if !ok {
		return fmt.Errorf("no column %q", col)
	}
	spec, err := analysis.PowerSpectrum(series, meta.Dt, hann)
	if err != nil {
		return fmt.Errorf("%s: %w", col, err)
	}

	freq, amp, ok := analysis.DominantFrequency(spec)
	fmt.Printf("%s: %d samples at %.4gs, resolution %.4g Hz\n", col, len(series), meta.Dt, spec.Frequencies[1])
	fmt.Printf("dc: %.6g\n", spec.Amplitudes[0])
	if ok {
		fmt.Printf("dominant: %.4g Hz (amplitude %.6g)\n", freq, amp)
	}
	if len(spec.Amplitudes) > 2 {
		fmt.Println(asciigraph.Plot(spec.Amplitudes[1:],
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption("amplitude spectrum (bins from "+fmt.Sprintf("%.4g", spec.Frequencies[1])+" Hz)"),
		))
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	res, err := automation.RunScenario(ctx, cfg, cat, logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return export.WriteJSON(out, res.Engine.Snapshot())
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range config.ListPresets() {
		cfg, _ := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\n", name, cfg.Description)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	sw := automation.Sweep{Component: sweepComp, Param: sweepParam, Min: sweepMin, Max: sweepMax, Count: sweepCount}
	results, err := automation.RunSweep(ctx, cfg, cat, logger, sw)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s.%s\tPEAK TEMP(°C)\tPEAK CURRENT(A)\tFAILED\n", strings.ToUpper(sweepComp), sweepParam)
	for _, r := range results {
		failed := "-"
		if r.Failed {
			failed = fmt.Sprintf("%s at %.2fs", r.FailureKind, r.FailedAt)
		}
		fmt.Fprintf(w, "%.4g\t%.2f\t%.4g\t%s\n", r.Value, r.PeakTemperature, r.PeakCurrent, failed)
	}
	return w.Flush()
}

func runTolerance(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	mc := automation.MonteCarlo{Params: tolParams, Tolerance: tolerance, Trials: trials, Seed: seed}
	results, err := automation.RunMonteCarlo(ctx, cfg, cat, logger, mc)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	for _, r := range results {
		for _, f := range r.Failures {
			counts[f.Label]++
		}
	}
	survived, failed := automation.MonteCarloStats(results)
	fmt.Printf("%d trials at ±%.1f%%: %d survived, %d with failures\n", len(results), tolerance*100, survived, failed)
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		fmt.Printf("  %s failed in %d trials\n", l, counts[l])
	}
	return nil
}

func verifyScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	e, err := automation.Build(cfg, cat, logger)
	if err != nil {
		return err
	}
	if !e.Start() {
		return fmt.Errorf("%w: %s", automation.ErrInvalidCircuit, strings.Join(e.State().Errors, "; "))
	}
	e.Step(cfg.Dt)
	g := e.Graph()
	st := e.State().LastSolve

	fmt.Printf("nodes: %d  branches: %d\n", len(g.Order), len(g.Branches))
	fmt.Printf("relaxation: converged=%v iterations=%d maxDelta=%.3g\n", st.Converged, st.Iterations, st.MaxDelta)
	fmt.Printf("KCL residual: %.3g A\n", solver.VerifyKCL(g))
	fmt.Printf("KVL residual: %.3g V\n", solver.VerifyKVL(g))
	res, err := solver.Residual(g)
	if err != nil {
		return err
	}
	fmt.Printf("direct solve difference: %.3g V\n", res)
	return nil
}

func parsePoint(name string, v []float64) (geodesy.Geo, error) {
	if len(v) != 2 {
		return geodesy.Geo{}, fmt.Errorf("--%s wants lat,lon, got %d values", name, len(v))
	}
	if math.Abs(v[0]) > 90 || math.Abs(v[1]) > 180 {
		return geodesy.Geo{}, fmt.Errorf("--%s out of range: %v", name, v)
	}
	return geodesy.Geo{Lat: v[0], Lon: v[1]}, nil
}

func distance(cmd *cobra.Command, args []string) error {
	a, err := parsePoint("from", fromPoint)
	if err != nil {
		return err
	}
	b, err := parsePoint("to", toPoint)
	if err != nil {
		return err
	}
	h := geodesy.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
	v := geodesy.Vincenty(a.Lat, a.Lon, b.Lat, b.Lon, vincentyIter)
	fmt.Printf("haversine: %.3f m\n", h)
	if v.Converged {
		fmt.Printf("vincenty:  %.3f m (%d iterations)\n", v.Distance, v.Iterations)
	} else {
		fmt.Printf("vincenty:  %.3f m (no convergence after %d iterations, haversine fallback)\n", v.Distance, v.Iterations)
	}
	return nil
}
