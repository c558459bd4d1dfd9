package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"levelcheck/internal/enrollment"
)

// Format is an output format for a finished report.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts text, csv or json, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, csv or json)", s)
	}
}

// ContentType is the HTTP media type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Filename suggests a download name such as "level-ups-2024-07-20.csv".
func Filename(report enrollment.Report, f Format) string {
	ext := "txt"
	if f != FormatText {
		ext = string(f)
	}
	return fmt.Sprintf("%s-%s.%s", report.Mode, report.Today, ext)
}

// Write renders report to dst in the given format. The text format prints
// one line per result, or the report's empty message when nothing qualified.
func (w *CSVWriter) Write(dst io.Writer, report enrollment.Report, f Format) error {
	switch f {
	case FormatCSV:
		return w.WriteReport(dst, report, false)
	case FormatJSON:
		enc := json.NewEncoder(dst)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	default:
		return WriteText(dst, report)
	}
}

// WriteText prints the report lines, or the empty message.
func WriteText(dst io.Writer, report enrollment.Report) error {
	if len(report.Lines) == 0 {
		_, err := fmt.Fprintln(dst, report.Mode.EmptyMessage())
		return err
	}
	for _, line := range report.Lines {
		if _, err := fmt.Fprintln(dst, line); err != nil {
			return err
		}
	}
	return nil
}
