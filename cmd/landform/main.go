package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/terralab/landform/internal/analysis"
	"github.com/terralab/landform/internal/config"
	"github.com/terralab/landform/internal/export"
	"github.com/terralab/landform/internal/grid"
	"github.com/terralab/landform/internal/metrics"
	"github.com/terralab/landform/internal/model"
	"github.com/terralab/landform/internal/server"
	"github.com/terralab/landform/internal/store"
	"github.com/terralab/landform/internal/viz"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string

	// clock
	stop float64
	step float64

	// grid
	rows    int
	cols    int
	spacing float64
	seed    int64
	relief  float64
	demFile string

	// output
	outputDir   string
	outputEvery float64
	gifPath     string
	frameScale  int
	keepOutput  bool

	// analysis
	minArea float64

	// serve
	addr string
)

func main() {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	rootCmd := &cobra.Command{
		Use:   "landform",
		Short: "landscape evolution modeling lab",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(logrus.InfoLevel)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".landform", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run a model to its clock stop time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModel(cmd, args, log)
		},
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().Float64Var(&stop, "stop", 0, "model stop time, years")
	runCmd.Flags().Float64Var(&step, "step", 0, "timestep, years")
	runCmd.Flags().IntVar(&rows, "rows", 0, "grid rows")
	runCmd.Flags().IntVar(&cols, "cols", 0, "grid columns")
	runCmd.Flags().Float64Var(&spacing, "spacing", 0, "node spacing, meters")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed for the initial surface")
	runCmd.Flags().Float64Var(&relief, "relief", 0, "initial random relief, meters")
	runCmd.Flags().StringVar(&demFile, "dem", "", "initial surface from an ESRI ASCII grid")
	runCmd.Flags().StringVar(&outputDir, "output", "", "directory for grid snapshots")
	runCmd.Flags().Float64Var(&outputEvery, "output-every", 0, "output interval, years")
	runCmd.Flags().StringVar(&gifPath, "gif", "", "record an animation to this file")
	runCmd.Flags().IntVar(&frameScale, "frame-scale", 4, "pixels per grid cell in frames")
	runCmd.Flags().BoolVar(&keepOutput, "keep-output", true, "keep snapshot files after the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list available model programs",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range model.ListModels() {
				fmt.Println(name)
			}
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run metric series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	mapCmd := &cobra.Command{
		Use:   "map [run_id]",
		Short: "draw the final surface as a character map",
		Args:  cobra.ExactArgs(1),
		RunE:  mapRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export the final surface and metrics as a JSON dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  exportDataset,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run metric series to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "slope-area and hypsometry of the final surface",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Float64Var(&minArea, "min-area", 0, "minimum drainage area for channel nodes")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "run a model with live terminal visualization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args[0])
			if err != nil {
				return err
			}
			sim, err := newModelWithMetrics(cfg, log)
			if err != nil {
				return err
			}
			if gifPath == "" {
				gifPath = args[0] + ".gif"
			}
			return viz.RunLive(sim, gifPath)
		},
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	liveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	liveCmd.Flags().Float64Var(&stop, "stop", 0, "model stop time, years")
	liveCmd.Flags().Float64Var(&step, "step", 0, "timestep, years")
	liveCmd.Flags().IntVar(&rows, "rows", 0, "grid rows")
	liveCmd.Flags().IntVar(&cols, "cols", 0, "grid columns")
	liveCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	liveCmd.Flags().StringVar(&gifPath, "gif", "", "animation output path for recordings")

	compareCmd := &cobra.Command{
		Use:   "compare [model1] [model2] ...",
		Short: "run several models on the same surface and compare relief",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return compareModels(cmd, args, log)
		},
	}
	compareCmd.Flags().Float64Var(&stop, "stop", 0, "model stop time, years")
	compareCmd.Flags().Float64Var(&step, "step", 0, "timestep, years")
	compareCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve model runs over a websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if configFile != "" {
				loaded, err := config.Load(configFile)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			return server.New(addr, cfg, log).Serve()
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a default config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(args[0], config.DefaultConfig())
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, modelsCmd, presetsCmd, plotCmd, mapCmd,
		exportCmd, exportJSONCmd, exportCSVCmd, analyzeCmd, liveCmd, compareCmd,
		serveCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildConfig resolves run settings: preset, then config file, then flags.
// CLI flags win over the config file; the config file wins over the preset.
func buildConfig(cmd *cobra.Command, modelName string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(modelName, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(modelName))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	cfg.Model = modelName
	if cmd.Flags().Changed("stop") {
		cfg.Clock.Stop = stop
	}
	if cmd.Flags().Changed("step") {
		cfg.Clock.Step = step
	}
	if cmd.Flags().Changed("rows") {
		cfg.Grid.Rows = rows
	}
	if cmd.Flags().Changed("cols") {
		cfg.Grid.Cols = cols
	}
	if cmd.Flags().Changed("spacing") {
		cfg.Grid.Spacing = spacing
	}
	if cmd.Flags().Changed("seed") {
		cfg.Grid.Seed = seed
	}
	if cmd.Flags().Changed("relief") {
		cfg.Grid.InitialRelief = relief
	}
	if cmd.Flags().Changed("dem") {
		cfg.Grid.DEM = demFile
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Dir = outputDir
	}
	if cmd.Flags().Changed("output-every") {
		cfg.Output.Interval = outputEvery
	}
	return cfg, nil
}

// newModelWithMetrics builds the model and attaches the default metric set.
func newModelWithMetrics(cfg *config.Config, log *logrus.Logger) (model.Model, error) {
	sim, err := model.NewFromConfig(cfg, log)
	if err != nil {
		return nil, err
	}
	hasSoil := sim.Base().Grid.HasField(grid.FieldSoilDepth)
	for _, m := range metrics.Defaults(hasSoil) {
		sim.Base().AddMetric(m)
	}
	return sim, nil
}

func runModel(cmd *cobra.Command, args []string, log *logrus.Logger) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	sim, err := newModelWithMetrics(cfg, log)
	if err != nil {
		return err
	}
	em := sim.Base()

	var recorder *export.FrameRecorder
	if gifPath != "" {
		recorder = export.NewFrameRecorder(frameScale)
		em.AddOutputWriter(recorder)
	}
	if cfg.Output.Dir != "" {
		prefix := cfg.Output.Prefix
		if prefix == "" {
			prefix = cfg.Model
		}
		em.AddOutputWriter(export.NewGridSnapshotWriter(cfg.Output.Dir, prefix))
	}

	interval := cfg.Output.Interval
	if interval <= 0 && (gifPath != "" || cfg.Output.Dir != "") {
		interval = config.DefaultOutputEvery
	}

	fmt.Printf("running %s to t=%.0f yr...\n", cfg.Model, cfg.Clock.Stop)
	start := time.Now()
	result, err := model.Run(context.Background(), sim, interval)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg.Model, cfg.Grid.Seed, em.Grid, cfg.Clock.Step, cfg.Clock.Stop, result)
	if err != nil {
		return err
	}

	if recorder != nil && recorder.Frames() > 0 {
		if err := recorder.WriteGIF(gifPath, 10); err != nil {
			return err
		}
		fmt.Printf("animation: %s (%d frames)\n", gifPath, recorder.Frames())
	}
	if !keepOutput {
		if err := export.RemoveOutput(em.OutputFiles()); err != nil {
			return err
		}
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.Steps)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tGRID\tSTOP\tSTEPS\tRELIEF")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%.0f\t%d\t%.2f\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Rows, run.Cols,
			run.Stop,
			run.Steps,
			run.Metrics["relief"],
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	_, series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\nmodel: %s\n\n", meta.ID, meta.Model)

	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Println(viz.SeriesPlot(name, series[name], 80, 10))
		fmt.Println()
	}
	return nil
}

func mapRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	g, err := st.LoadElevation(args[0])
	if err != nil {
		return err
	}
	out, err := viz.ElevationMap(g, grid.FieldElevation)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportDataset(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	g, err := st.LoadElevation(args[0])
	if err != nil {
		return err
	}
	ds := export.BuildDataset(meta.Model, meta.Stop, g, meta.Metrics)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(ds)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	times, series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}

	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()
	if err := w.Write(append([]string{"time"}, names...)); err != nil {
		return err
	}
	for i, t := range times {
		row := []string{strconv.FormatFloat(t, 'f', 2, 64)}
		for _, name := range names {
			row = append(row, strconv.FormatFloat(series[name][i], 'g', 8, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	g, err := st.LoadElevation(args[0])
	if err != nil {
		return err
	}

	// the stored surface has no flow fields; route once to recover them
	sim, err := model.NewFromConfig(&config.Config{
		Model: "basic",
		Clock: config.ClockConfig{Stop: meta.Stop, Step: meta.Step},
		Grid: config.GridConfig{
			Rows: meta.Rows, Cols: meta.Cols, Spacing: meta.Spacing,
			Seed: meta.Seed,
		},
		Params: config.DefaultConfig().Params,
	}, nil)
	if err != nil {
		return err
	}
	em := sim.Base()
	z, _ := em.Grid.Field(grid.FieldElevation)
	stored, _ := g.Field(grid.FieldElevation)
	copy(z, stored)
	if err := em.CreateAndMoveWater(meta.Step); err != nil {
		return err
	}

	if minArea <= 0 {
		minArea = 10 * em.Grid.CellArea()
	}
	fmt.Printf("run: %s\nmodel: %s\n\n", meta.ID, meta.Model)

	fit, err := analysis.FitSlopeArea(em.Grid, minArea)
	if err != nil {
		fmt.Printf("slope-area: %v\n", err)
	} else {
		fmt.Printf("slope-area fit over %d channel nodes:\n", fit.Samples)
		fmt.Printf("  concavity theta: %.3f\n", fit.Theta)
		fmt.Printf("  steepness Ks:    %.4g\n", fit.Ks)
		fmt.Printf("  r-squared:       %.3f\n", fit.R2)
	}

	curve, err := analysis.HypsometricCurve(em.Grid, 40)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(viz.SeriesPlot("fraction of area above relative height", curve, 60, 10))
	return nil
}

func compareModels(cmd *cobra.Command, args []string, log *logrus.Logger) error {
	series := make([][]float64, 0, len(args))
	names := make([]string, 0, len(args))

	for _, name := range args {
		cfg, err := buildConfig(cmd, name)
		if err != nil {
			return err
		}
		sim, err := newModelWithMetrics(cfg, log)
		if err != nil {
			return err
		}
		result, err := model.Run(context.Background(), sim, 0)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		series = append(series, result.Series["relief"])
		names = append(names, name)
		fmt.Printf("%-12s relief %.2f -> %.2f over %d steps\n",
			name,
			result.Series["relief"][0],
			result.Metrics["relief"],
			result.Steps)
	}

	fmt.Println()
	fmt.Println(viz.ComparePlot("relief vs time: "+strings.Join(names, ", "), series, 80, 14))
	return nil
}
