package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"levelcheck/internal/enrollment"
)

// utf8BOM helps Excel recognize UTF-8 when opening the CSV.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReportHeaders are the columns of a report CSV.
var ReportHeaders = []string{"report", "today", "window_start", "window_end", "result"}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes headers and records to dst.
func (w *CSVWriter) WriteCSV(dst io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := dst.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(dst)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteReport writes one row per report line. A report without lines still
// gets its header row.
func (w *CSVWriter) WriteReport(dst io.Writer, report enrollment.Report, bom bool) error {
	records := ReportRecords(report)

	w.logger.Debug("Writing report CSV",
		slog.String("mode", string(report.Mode)),
		slog.Int("record_count", len(records)))

	return w.WriteCSV(dst, WriteOptions{
		Headers:   ReportHeaders,
		Records:   records,
		BOMPrefix: bom,
	})
}

// WriteReportFile writes the report CSV to path, creating parent directories.
func (w *CSVWriter) WriteReportFile(path string, report enrollment.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := w.WriteReport(file, report, true); err != nil {
		file.Close()
		return err
	}

	w.logger.Info("Report CSV written",
		slog.String("file_path", path),
		slog.Int("record_count", len(report.Lines)))

	return file.Close()
}

// ReportRecords flattens a report into CSV rows matching ReportHeaders.
func ReportRecords(report enrollment.Report) [][]string {
	var windowStart, windowEnd string
	if report.Window != nil {
		windowStart = report.Window.Start.String()
		windowEnd = report.Window.End.String()
	}

	records := make([][]string, 0, len(report.Lines))
	for _, line := range report.Lines {
		records = append(records, []string{
			string(report.Mode),
			report.Today.String(),
			windowStart,
			windowEnd,
			line,
		})
	}
	return records
}
