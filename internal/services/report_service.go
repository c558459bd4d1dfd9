package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"levelcheck/internal/enrollment"
	"levelcheck/internal/infrastructure"
	"levelcheck/internal/roster"
	"levelcheck/internal/validation"
)

// Report sources used in logs and metrics.
const (
	SourceUpload = "upload"
	SourceAPI    = "api"
	SourceCLI    = "cli"
)

// RosterReader parses a roster workbook into student records.
type RosterReader interface {
	Read(ctx context.Context, src io.Reader) ([]enrollment.StudentRecord, error)
}

// ReportInput is one report request.
type ReportInput struct {
	Mode     string
	Today    string // YYYY-MM-DD, empty for the current date
	Filename string
	Size     int64
	Body     io.Reader
	Source   string
}

// ReportService runs reports against uploaded or local roster files.
type ReportService struct {
	reader   RosterReader
	files    *validation.FileValidator
	options  enrollment.Options
	location *time.Location
	now      func() time.Time
	tracer   trace.Tracer
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// NewReportService creates a report service. A nil location means time.Local.
func NewReportService(reader RosterReader, files *validation.FileValidator, options enrollment.Options, location *time.Location, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if location == nil {
		location = time.Local
	}
	if files == nil {
		files = validation.NewFileValidator(logger, 0)
	}

	logger = infrastructure.WithComponent(logger, "report_service")
	logger.Info("ReportService initialized",
		slog.String("rounding", options.Rounding.String()),
		slog.String("timezone", location.String()))

	return &ReportService{
		reader:   reader,
		files:    files,
		options:  options,
		location: location,
		now:      time.Now,
		tracer:   tracenoop.NewTracerProvider().Tracer(infrastructure.MeterName),
		logger:   logger,
	}
}

// WithClock replaces the clock used to derive today's date.
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// WithTelemetry attaches a tracer and report metrics. Either may be nil.
func (s *ReportService) WithTelemetry(tracer trace.Tracer, metrics *infrastructure.BusinessMetrics) *ReportService {
	if tracer != nil {
		s.tracer = tracer
	}
	s.metrics = metrics
	return s
}

// Today returns the current date in the configured timezone.
func (s *ReportService) Today() enrollment.CalendarDate {
	return enrollment.DateOf(s.now().In(s.location))
}

// MaxUploadBytes returns the upload size limit.
func (s *ReportService) MaxUploadBytes() int64 {
	return s.files.MaxBytes()
}

// Generate validates the input, reads the roster and builds the report.
func (s *ReportService) Generate(ctx context.Context, in ReportInput) (report enrollment.Report, err error) {
	start := time.Now()
	modeLabel := "unknown"

	ctx, span := s.tracer.Start(ctx, "report.generate",
		trace.WithAttributes(
			attribute.String("report.source", in.Source),
			attribute.String("report.file", filepath.Base(in.Filename)),
		))
	defer span.End()

	defer func() {
		infrastructure.RecordReportMetrics(ctx, s.metrics, infrastructure.ReportOutcome{
			Mode:     modeLabel,
			Source:   in.Source,
			Duration: time.Since(start),
			Rows:     report.Rows,
			Skipped:  report.Skipped,
			Lines:    len(report.Lines),
			Bytes:    in.Size,
			Err:      err,
		})
		if err != nil {
			infrastructure.RecordError(ctx, err)
			s.logger.WarnContext(ctx, "Report failed",
				slog.String("mode", in.Mode),
				slog.String("source", in.Source),
				slog.String("error", err.Error()))
		}
	}()

	mode, err := enrollment.ParseMode(in.Mode)
	if err != nil {
		return enrollment.Report{}, fmt.Errorf("%w: %q", ErrUnknownReport, in.Mode)
	}
	modeLabel = string(mode)
	span.SetAttributes(attribute.String("report.mode", modeLabel))

	today, err := s.resolveToday(in.Today)
	if err != nil {
		return enrollment.Report{}, err
	}

	if in.Body == nil || in.Filename == "" {
		return enrollment.Report{}, ErrNoFile
	}
	if err := s.files.ValidateUpload(in.Filename, in.Size); err != nil {
		return enrollment.Report{}, classifyFileError(err)
	}

	rows, err := s.reader.Read(ctx, in.Body)
	if err != nil {
		if errors.Is(err, roster.ErrUnreadableWorkbook) || errors.Is(err, roster.ErrNoWorksheet) {
			return enrollment.Report{}, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
		}
		return enrollment.Report{}, fmt.Errorf("failed to read roster: %w", err)
	}

	report = enrollment.Build(mode, rows, today, s.options)

	s.logger.InfoContext(ctx, "Report generated",
		slog.String("mode", modeLabel),
		slog.String("source", in.Source),
		slog.String("today", today.String()),
		slog.Int("rows", report.Rows),
		slog.Int("skipped", report.Skipped),
		slog.Int("lines", len(report.Lines)),
		slog.Duration("duration", time.Since(start)))

	return report, nil
}

// GenerateFile runs a report against a workbook on disk.
func (s *ReportService) GenerateFile(ctx context.Context, mode, path, today string) (enrollment.Report, error) {
	if path == "" {
		return enrollment.Report{}, ErrNoFile
	}
	if err := s.files.ValidateExcelFile(path); err != nil {
		return enrollment.Report{}, classifyFileError(err)
	}

	f, err := os.Open(path)
	if err != nil {
		return enrollment.Report{}, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return enrollment.Report{}, fmt.Errorf("failed to stat roster: %w", err)
	}

	return s.Generate(ctx, ReportInput{
		Mode:     mode,
		Today:    today,
		Filename: path,
		Size:     info.Size(),
		Body:     f,
		Source:   SourceCLI,
	})
}

func (s *ReportService) resolveToday(raw string) (enrollment.CalendarDate, error) {
	if raw == "" {
		return s.Today(), nil
	}
	today, err := enrollment.ParseISODate(raw)
	if err != nil {
		return enrollment.CalendarDate{}, fmt.Errorf("%w: %v", ErrInvalidToday, err)
	}
	return today, nil
}

// classifyFileError maps validation failures onto service errors.
func classifyFileError(err error) error {
	switch {
	case errors.Is(err, validation.ErrTooLarge):
		return fmt.Errorf("%w: %v", ErrFileTooLarge, err)
	case errors.Is(err, validation.ErrNotExcel), errors.Is(err, validation.ErrTemporaryFile):
		return fmt.Errorf("%w: %v", ErrUnsupportedFile, err)
	case errors.Is(err, validation.ErrEmptyFile):
		return fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	default:
		return err
	}
}
