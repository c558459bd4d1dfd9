package roster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"levelcheck/internal/enrollment"
)

var (
	// ErrUnreadableWorkbook is returned when the upload is not a workbook excelize can open.
	ErrUnreadableWorkbook = errors.New("unreadable workbook")
	// ErrNoWorksheet is returned when the workbook has no sheets.
	ErrNoWorksheet = errors.New("workbook has no worksheet")
)

// cancelCheckEvery controls how often Read looks at ctx while walking rows.
const cancelCheckEvery = 256

// Columns holds 1-based column numbers of the roster export.
type Columns struct {
	FirstName        int
	LastName         int
	EnrollmentStart  int
	LatestAssessment int
}

// DefaultColumns matches the enrollment report export: C, D, K and L.
func DefaultColumns() Columns {
	return Columns{FirstName: 3, LastName: 4, EnrollmentStart: 11, LatestAssessment: 12}
}

// ParseColumns converts column letters ("C", "AA") to Columns.
func ParseColumns(firstName, lastName, enrollmentStart, latestAssessment string) (Columns, error) {
	var cols Columns
	for _, c := range []struct {
		name   string
		letter string
		dst    *int
	}{
		{"first name", firstName, &cols.FirstName},
		{"last name", lastName, &cols.LastName},
		{"enrollment start", enrollmentStart, &cols.EnrollmentStart},
		{"latest assessment", latestAssessment, &cols.LatestAssessment},
	} {
		n, err := excelize.ColumnNameToNumber(strings.TrimSpace(c.letter))
		if err != nil {
			return Columns{}, fmt.Errorf("%s column %q: %w", c.name, c.letter, err)
		}
		*c.dst = n
	}
	return cols, nil
}

// Reader turns the first worksheet of an enrollment export into student records.
type Reader struct {
	columns Columns
	logger  *slog.Logger
}

// NewReader creates a reader for the given column layout.
func NewReader(columns Columns, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		columns: columns,
		logger:  logger.With(slog.String("component", "roster_reader")),
	}
}

// ReadFile opens path and reads it like Read.
func (r *Reader) ReadFile(ctx context.Context, path string) ([]enrollment.StudentRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()
	return r.Read(ctx, f)
}

// Read parses a workbook stream. The first row is a header and is skipped;
// fully blank rows are ignored. Cell-level problems never fail the read: a
// date that cannot be interpreted becomes an empty or text cell and the
// report layer decides what to do with it.
func (r *Reader) Read(ctx context.Context, src io.Reader) ([]enrollment.StudentRecord, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			r.logger.WarnContext(ctx, "Failed to close workbook", slog.String("error", err.Error()))
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoWorksheet
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	r.logger.InfoContext(ctx, "Reading roster",
		slog.String("sheet_name", sheet),
		slog.Int("total_rows", len(rows)))

	records := make([]enrollment.StudentRecord, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if blankRow(row) {
			continue
		}

		rowNum := i + 1
		first := strings.TrimSpace(cellAt(row, r.columns.FirstName))
		last := strings.TrimSpace(cellAt(row, r.columns.LastName))

		records = append(records, enrollment.StudentRecord{
			FullName:         first + " " + last,
			EnrollmentStart:  r.dateCell(ctx, f, sheet, row, r.columns.EnrollmentStart, rowNum),
			LatestAssessment: r.dateCell(ctx, f, sheet, row, r.columns.LatestAssessment, rowNum),
		})
	}

	r.logger.DebugContext(ctx, "Roster parsed",
		slog.String("sheet_name", sheet),
		slog.Int("records", len(records)))

	return records, nil
}

// dateCell classifies a raw cell using its stored type: numbers and numeric
// formula results become serials, typed dates become calendar dates and
// strings stay text.
func (r *Reader) dateCell(ctx context.Context, f *excelize.File, sheet string, row []string, col, rowNum int) enrollment.CellValue {
	raw := cellAt(row, col)
	if strings.TrimSpace(raw) == "" {
		return enrollment.EmptyCell()
	}

	axis, err := excelize.CoordinatesToCellName(col, rowNum)
	if err != nil {
		return enrollment.TextCell(raw)
	}
	cellType, err := f.GetCellType(sheet, axis)
	if err != nil {
		r.logger.DebugContext(ctx, "Cell type lookup failed",
			slog.String("cell", axis),
			slog.String("error", err.Error()))
		return enrollment.TextCell(raw)
	}

	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		return enrollment.TextCell(raw)
	case excelize.CellTypeDate:
		if d, ok := parseISOCell(raw); ok {
			return enrollment.DateCell(d)
		}
		return enrollment.TextCell(raw)
	case excelize.CellTypeBool, excelize.CellTypeError:
		return enrollment.EmptyCell()
	default:
		// Number, formula (cached result), or no explicit type.
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return enrollment.SerialCell(v)
		}
		return enrollment.TextCell(raw)
	}
}

// parseISOCell reads the ISO 8601 payload of a t="d" cell.
func parseISOCell(raw string) (enrollment.CalendarDate, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return enrollment.DateOf(t), true
		}
	}
	return enrollment.CalendarDate{}, false
}

func cellAt(row []string, col int) string {
	if col < 1 || col > len(row) {
		return ""
	}
	return row[col-1]
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
