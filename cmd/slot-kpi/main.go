// Command slot-kpi evaluates parking-slot detections in recorded drives
// against annotated ground truth and reports TPR/FPR/FNR.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/parking.report/internal/config"
	"github.com/banshee-data/parking.report/internal/fsutil"
	"github.com/banshee-data/parking.report/internal/monitoring"
	"github.com/banshee-data/parking.report/internal/parking/association"
	"github.com/banshee-data/parking.report/internal/parking/classify"
	"github.com/banshee-data/parking.report/internal/parking/evaluation"
	"github.com/banshee-data/parking.report/internal/parking/report"
	"github.com/banshee-data/parking.report/internal/parking/trigger"
	"github.com/banshee-data/parking.report/internal/version"
)

var (
	configPath   = flag.String("config", "", "KPI config JSON (defaults to built-in thresholds)")
	recordingArg = flag.String("recording", "", "Single recording CSV to evaluate")
	recordingDir = flag.String("recording-dir", "", "Directory of recording CSVs to evaluate")
	annotations  = flag.String("annotations", "", "Directory searched for <recording>.json when none sits beside the recording")
	outputDir    = flag.String("output", "kpi-report", "Directory for report payloads")
	plots        = flag.Bool("plots", false, "Write a slot overlay PNG per evaluated ground-truth id")
	chart        = flag.Bool("chart", true, "Write the HTML rate chart")
	strict       = flag.Bool("strict", false, "Exit with status 2 when the batch misses a rate threshold")
	logOps       = flag.Bool("log-ops", true, "Log actionable warnings and errors")
	logDiag      = flag.Bool("log-diag", false, "Log per-id diagnostics")
	logTrace     = flag.Bool("log-trace", false, "Log per-timestamp trigger telemetry")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

// exitThresholds is the exit status for a completed run that misses a
// rate threshold under -strict.
const exitThresholds = 2

type options struct {
	configPath   string
	recording    string
	recordingDir string
	annotations  string
	output       string
	plots        bool
	chart        bool
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("slot-kpi %s\n", version.String())
		return
	}

	setLogStreams(*logOps, *logDiag, *logTrace)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := options{
		configPath:   *configPath,
		recording:    *recordingArg,
		recordingDir: *recordingDir,
		annotations:  *annotations,
		output:       *outputDir,
		plots:        *plots,
		chart:        *chart,
	}
	b, err := run(ctx, fsutil.OSFileSystem{}, opts, os.Stdout)
	if err != nil {
		log.Fatalf("slot-kpi: %v", err)
	}
	if *strict && !b.Summary.Passed() {
		os.Exit(exitThresholds)
	}
}

// setLogStreams routes the engine packages' log streams through the
// process logger.
func setLogStreams(ops, diag, trace bool) {
	stream := func(on bool, name string) io.Writer {
		if !on {
			return nil
		}
		return monitoring.NewLineWriter(name)
	}
	o, d, t := stream(ops, "ops"), stream(diag, "diag"), stream(trace, "trace")
	trigger.SetLogWriters(o, d, t)
	association.SetLogWriters(o, d, t)
	classify.SetLogWriters(o, d, t)
	evaluation.SetLogWriters(o, d, t)
	report.SetLogWriters(o, d, t)
}

func run(ctx context.Context, fsys fsutil.FileSystem, opts options, stdout io.Writer) (*evaluation.BatchResult, error) {
	cfg := config.DefaultKPIConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.LoadKPIConfigFS(fsys, opts.configPath); err != nil {
			return nil, err
		}
	}
	params, err := evaluation.ParamsFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	paths, err := recordingPaths(fsys, opts)
	if err != nil {
		return nil, err
	}

	runner := evaluation.NewRunner(params, opts.annotations)
	runner.FS = fsys
	b := runner.Run(ctx, paths)

	w := &report.Writer{FS: fsys, Dir: opts.output}
	if _, err := w.WriteBatch(b); err != nil {
		return b, err
	}
	if opts.plots {
		for _, o := range b.Outcomes {
			if o.Result == nil {
				continue
			}
			if _, err := w.WriteOverlays(o.Result); err != nil {
				return b, err
			}
		}
	}
	if opts.chart {
		if _, err := w.WriteRateChart(b); err != nil {
			return b, err
		}
	}

	printSummary(stdout, b)
	return b, nil
}

func recordingPaths(fsys fsutil.FileSystem, opts options) ([]string, error) {
	var paths []string
	if opts.recording != "" {
		paths = append(paths, opts.recording)
	}
	if opts.recordingDir != "" {
		found, err := evaluation.Discover(fsys, opts.recordingDir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		if opts.recording == "" && opts.recordingDir == "" {
			return nil, errors.New("one of -recording or -recording-dir is required")
		}
		return nil, fmt.Errorf("no recordings found in %s", opts.recordingDir)
	}
	return paths, nil
}

func printSummary(w io.Writer, b *evaluation.BatchResult) {
	fmt.Fprintf(w, "run %s (%s)\n", b.RunID, b.Version)
	for _, o := range b.Outcomes {
		if o.Result == nil {
			fmt.Fprintf(w, "  %-32s FAILED  %s\n", o.Recording, o.Error)
			continue
		}
		fmt.Fprintf(w, "  %-32s %s\n", o.Recording, o.Result.Summary)
	}
	fmt.Fprintf(w, "  %-32s %s\n", "all", b.Summary)
	if b.Failed > 0 {
		fmt.Fprintf(w, "%d of %d recordings failed\n", b.Failed, len(b.Outcomes))
	}
}
