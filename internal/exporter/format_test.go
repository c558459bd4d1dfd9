package exporter

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"CSV", FormatCSV, false},
		{" json ", FormatJSON, false},
		{"xml", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_ContentType(t *testing.T) {
	assert.Equal(t, "text/csv; charset=utf-8", FormatCSV.ContentType())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Equal(t, "text/plain; charset=utf-8", FormatText.ContentType())
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "level-ups-2024-07-20.csv", Filename(levelUpReport(), FormatCSV))
	assert.Equal(t, "assessments-due-2024-08-14.txt", Filename(assessmentReport(), FormatText))
}

func TestCSVWriter_Write(t *testing.T) {
	writer := NewCSVWriter(nil)

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writer.Write(&buf, levelUpReport(), FormatText))
		assert.Equal(t, "Ada Lovelace levels up to level 2\nGrace \"Amazing\" Hopper levels up to level 3\n", buf.String())
	})

	t.Run("text empty message", func(t *testing.T) {
		var buf bytes.Buffer
		report := levelUpReport()
		report.Lines = nil
		require.NoError(t, writer.Write(&buf, report, FormatText))
		assert.Equal(t, "No students ready to level up.\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writer.Write(&buf, assessmentReport(), FormatJSON))

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "assessments-due", decoded["mode"])
		assert.Equal(t, "2024-08-14", decoded["today"])
		assert.Equal(t, map[string]interface{}{"start": "2024-06-17", "end": "2024-06-23"}, decoded["window"])
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writer.Write(&buf, levelUpReport(), FormatCSV))
		assert.False(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
		assert.Len(t, readCSV(t, buf.Bytes()), 3)
	})
}
