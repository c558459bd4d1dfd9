package http

import (
	"context"

	"levelcheck/internal/enrollment"
	"levelcheck/internal/services"
)

// ReportServiceInterface defines the report operations used by handlers
type ReportServiceInterface interface {
	Generate(ctx context.Context, in services.ReportInput) (enrollment.Report, error)
	Today() enrollment.CalendarDate
	MaxUploadBytes() int64
}
