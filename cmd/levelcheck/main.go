package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"levelcheck/internal/config"
	"levelcheck/internal/exporter"
	"levelcheck/internal/infrastructure"
	"levelcheck/internal/roster"
	"levelcheck/internal/services"
	"levelcheck/internal/validation"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one report and returns the process exit code. Reports go to
// stdout (or -out), logs and errors to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("levelcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "", "enrollment report workbook (.xlsx)")
	report := fs.String("report", "level-ups", "level-ups | current-levels | assessments-due")
	today := fs.String("today", "", "evaluation date as YYYY-MM-DD (defaults to the current date)")
	format := fs.String("format", "text", "text | csv | json")
	out := fs.String("out", "", "write the report to this file instead of stdout")
	verbose := fs.Bool("v", false, "log progress to stderr")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: levelcheck [flags] [file.xlsx]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if *file == "" && fs.NArg() > 0 {
		*file = fs.Arg(0)
	}
	if *file == "" {
		fmt.Fprintln(stderr, "levelcheck: no file selected")
		fs.Usage()
		return exitUsage
	}

	outFormat, err := exporter.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(stderr, "levelcheck: %v\n", err)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "levelcheck: %v; using defaults\n", err)
		cfg = config.Default()
	}
	if !*verbose {
		cfg.Logging.Level = "warn"
	}

	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "levelcheck: failed to initialize logger: %v\n", err)
		return exitError
	}
	defer infrastructure.CloseLogFile()

	service, shutdown, err := newReportService(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "levelcheck: %v\n", err)
		return exitError
	}
	defer shutdown()

	ctx = infrastructure.EnsureTraceID(ctx)
	result, err := service.GenerateFile(ctx, *report, *file, *today)
	if err != nil {
		infrastructure.WithError(logger, err).DebugContext(ctx, "Report failed", slog.String("file", *file))
		fmt.Fprintf(stderr, "levelcheck: %s\n", describe(err))
		if errors.Is(err, services.ErrUnknownReport) || errors.Is(err, services.ErrInvalidToday) {
			return exitUsage
		}
		return exitError
	}

	writer := exporter.NewCSVWriter(logger)
	switch {
	case *out != "" && outFormat == exporter.FormatCSV:
		err = writer.WriteReportFile(*out, result)
	case *out != "":
		err = writeFile(*out, func(w io.Writer) error { return writer.Write(w, result, outFormat) })
	default:
		err = writer.Write(stdout, result, outFormat)
	}
	if err != nil {
		fmt.Fprintf(stderr, "levelcheck: failed to write report: %v\n", err)
		return exitError
	}

	if result.Skipped > 0 {
		logger.Warn("Rows skipped",
			slog.Int("skipped", result.Skipped),
			slog.Int("rows", result.Rows))
	}
	return exitOK
}

// newReportService builds the same pipeline the web service uses, without a
// size limit and without a metrics endpoint.
func newReportService(cfg *config.Config, logger *slog.Logger) (*services.ReportService, func(), error) {
	columns, err := cfg.Roster.Columns()
	if err != nil {
		return nil, nil, err
	}
	options, err := cfg.Report.Options()
	if err != nil {
		return nil, nil, err
	}
	location, err := cfg.Report.Location()
	if err != nil {
		return nil, nil, err
	}

	otelCfg := infrastructure.OTelConfigFrom(cfg.Telemetry)
	otelCfg.MetricExporter = "none"
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, nil, err
	}
	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, nil, err
	}

	service := services.NewReportService(
		roster.NewReader(columns, logger),
		validation.NewFileValidator(logger, 0),
		options,
		location,
		logger,
	).WithTelemetry(providers.Tracer, metrics)

	shutdown := func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("Failed to flush telemetry", slog.String("error", err.Error()))
		}
	}
	return service, shutdown, nil
}

// describe turns service errors into one line for the terminal.
func describe(err error) string {
	switch {
	case errors.Is(err, services.ErrUnsupportedFile):
		return fmt.Sprintf("only .xlsx workbooks are supported (%v)", err)
	case errors.Is(err, services.ErrUnreadableWorkbook):
		return fmt.Sprintf("the workbook could not be read (%v)", err)
	case errors.Is(err, services.ErrInvalidToday):
		return "-today must be a date in YYYY-MM-DD format"
	default:
		return err.Error()
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
