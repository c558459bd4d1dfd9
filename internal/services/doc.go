// Package services holds the application logic between the HTTP and CLI
// front ends and the enrollment rules.
//
// ReportService validates a roster file, reads it with the roster reader and
// builds one of the three reports for a given day. It records a span and
// report metrics for every run, successful or not, and returns sentinel
// errors (ErrNoFile, ErrUnsupportedFile, ErrFileTooLarge,
// ErrUnreadableWorkbook, ErrUnknownReport, ErrInvalidToday) that the
// transport layer maps to responses:
//
//	svc := services.NewReportService(reader, files, opts, loc, logger)
//	report, err := svc.Generate(ctx, services.ReportInput{
//	    Mode:     "level-ups",
//	    Filename: header.Filename,
//	    Size:     header.Size,
//	    Body:     file,
//	    Source:   services.SourceUpload,
//	})
//
// HealthService answers the health, readiness, liveness and version endpoints.
package services
