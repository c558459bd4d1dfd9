// Package exporter writes finished reports as CSV, plain text or JSON.
//
// CSVWriter produces one row per report line with the report name, the
// evaluation date and, for the assessments report, the window bounds. A
// UTF-8 BOM can be prefixed so Excel opens the file with the right encoding.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(logger)
//	err := w.Write(os.Stdout, report, exporter.FormatCSV)
package exporter
