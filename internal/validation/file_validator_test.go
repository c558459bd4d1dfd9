package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelcheck/internal/shared/testutil"
)

func TestFileValidator_ValidateUpload(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewFileValidator(logger, 1024)

	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  error
	}{
		{name: "xlsx", filename: "roster.xlsx", size: 512},
		{name: "upper case extension", filename: "ROSTER.XLSX", size: 512},
		{name: "macro workbook", filename: "roster.xlsm", size: 512},
		{name: "exactly at limit", filename: "roster.xlsx", size: 1024},
		{name: "legacy xls", filename: "roster.xls", size: 512, wantErr: ErrNotExcel},
		{name: "csv", filename: "roster.csv", size: 512, wantErr: ErrNotExcel},
		{name: "no extension", filename: "roster", size: 512, wantErr: ErrNotExcel},
		{name: "lock file", filename: "~$roster.xlsx", size: 512, wantErr: ErrTemporaryFile},
		{name: "too large", filename: "roster.xlsx", size: 1025, wantErr: ErrTooLarge},
		{name: "empty", filename: "roster.xlsx", size: 0, wantErr: ErrEmptyFile},
		{name: "path in name", filename: `C:\Users\me\roster.xlsx`, size: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpload(tt.filename, tt.size)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFileValidator_NoLimit(t *testing.T) {
	v := NewFileValidator(nil, 0)
	assert.NoError(t, v.ValidateUpload("roster.xlsx", 1<<40))
	assert.Zero(t, v.MaxBytes())
}

func TestFileValidator_ValidateExcelFile(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewFileValidator(logger, 10<<20)

	t.Run("valid workbook", func(t *testing.T) {
		path := testutil.WriteRosterFile(t, testutil.SampleStudents()...)
		assert.NoError(t, v.ValidateExcelFile(path))
	})

	t.Run("missing file", func(t *testing.T) {
		err := v.ValidateExcelFile(filepath.Join(t.TempDir(), "missing.xlsx"))
		assert.ErrorContains(t, err, "does not exist")
	})

	t.Run("directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "folder.xlsx")
		require.NoError(t, os.Mkdir(dir, 0o755))
		assert.ErrorContains(t, v.ValidateExcelFile(dir), "is a directory")
	})

	t.Run("wrong extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "roster.txt")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		assert.ErrorIs(t, v.ValidateExcelFile(path), ErrNotExcel)
	})

	t.Run("over limit", func(t *testing.T) {
		small := NewFileValidator(logger, 10)
		path := testutil.WriteRosterFile(t, testutil.SampleStudents()...)
		assert.ErrorIs(t, small.ValidateExcelFile(path), ErrTooLarge)
	})
}
