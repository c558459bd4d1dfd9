package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotExcel is returned for files excelize cannot open.
	ErrNotExcel = errors.New("not an Excel workbook")
	// ErrTemporaryFile is returned for Office lock files ("~$roster.xlsx").
	ErrTemporaryFile = errors.New("temporary Excel file")
	// ErrTooLarge is returned when a file exceeds the configured limit.
	ErrTooLarge = errors.New("file too large")
	// ErrEmptyFile is returned for zero-byte uploads.
	ErrEmptyFile = errors.New("file is empty")
)

// excelExtensions lists the OOXML workbook formats excelize reads.
var excelExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// FileValidator checks roster files before they are parsed, for both
// uploads and files given to the CLI.
type FileValidator struct {
	logger   *slog.Logger
	maxBytes int64
}

// NewFileValidator creates a new file validator. maxBytes <= 0 disables the size check.
func NewFileValidator(logger *slog.Logger, maxBytes int64) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger:   logger.With(slog.String("component", "file_validator")),
		maxBytes: maxBytes,
	}
}

// MaxBytes returns the configured size limit.
func (v *FileValidator) MaxBytes() int64 {
	return v.maxBytes
}

// ValidateUpload checks the client-supplied name and size of an upload.
func (v *FileValidator) ValidateUpload(filename string, size int64) error {
	if err := v.checkName(filename); err != nil {
		return err
	}
	return v.checkSize(filename, size)
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return v.checkSize(path, info.Size())
}

// ValidateExcelFile checks that path is a readable workbook within limits.
func (v *FileValidator) ValidateExcelFile(path string) error {
	if err := v.checkName(path); err != nil {
		return err
	}
	return v.ValidateFile(path)
}

func (v *FileValidator) checkName(name string) error {
	base := filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(base))
	if !excelExtensions[ext] {
		v.logger.Warn("File is not an Excel workbook",
			slog.String("file", name),
			slog.String("extension", ext))
		return fmt.Errorf("%w: %s (extension %q)", ErrNotExcel, base, ext)
	}

	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Rejecting temporary Excel file",
			slog.String("file", name))
		return fmt.Errorf("%w: %s", ErrTemporaryFile, base)
	}
	return nil
}

func (v *FileValidator) checkSize(name string, size int64) error {
	if size == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyFile, filepath.Base(name))
	}
	if v.maxBytes > 0 && size > v.maxBytes {
		v.logger.Warn("File exceeds size limit",
			slog.String("file", name),
			slog.Int64("size", size),
			slog.Int64("max_bytes", v.maxBytes))
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, size, v.maxBytes)
	}
	return nil
}
