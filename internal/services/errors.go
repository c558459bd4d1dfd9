package services

import "errors"

// Report service errors
var (
	// Upload errors
	ErrNoFile          = errors.New("no file selected")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")

	// Workbook errors
	ErrUnreadableWorkbook = errors.New("unreadable workbook")

	// Request errors
	ErrUnknownReport = errors.New("unknown report")
	ErrInvalidToday  = errors.New("invalid today date")
)
