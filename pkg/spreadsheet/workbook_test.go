package spreadsheet

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "book.xlsx")
	err := Write(path, Sheet{
		Name:    "Student Grades",
		Headers: []string{"Student ID", "Name", "Score"},
		Rows: [][]any{
			{"STU001", "John Smith", 85.5},
			{"STU002", "Emily Johnson", 42.0},
		},
		Widths: map[int]float64{2: 24},
	})
	require.NoError(t, err)

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Student ID", "Name", "Score"}, rows[0])
	assert.Equal(t, "STU001", rows[1][0])
	assert.Equal(t, "85.5", rows[1][2])
	assert.Equal(t, "42", rows[2][2])
}

func TestPreamblePushesHeaderDown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	sheet := Sheet{
		Preamble: [][]any{{"GRADE REPORT"}, {"Total Students", 2}},
		Headers:  []string{"A", "B"},
		Rows:     [][]any{{"x", "y"}},
	}
	assert.Equal(t, 4, sheet.HeaderRow())
	require.NoError(t, Write(path, sheet))

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "GRADE REPORT", rows[0][0])
	assert.Empty(t, rows[2])
	assert.Equal(t, []string{"A", "B"}, rows[3])
}

func TestReadRowsMissingFile(t *testing.T) {
	_, err := ReadRows(filepath.Join(t.TempDir(), "absent.xlsx"))
	require.True(t, errors.Is(err, ErrNotExist))
}

func TestEncodeRequiresHeaders(t *testing.T) {
	_, err := Encode(Sheet{})
	require.Error(t, err)
}

func TestCell(t *testing.T) {
	row := []string{"a", "b"}
	assert.Equal(t, "b", Cell(row, 1))
	assert.Equal(t, "", Cell(row, 5))
	assert.Equal(t, "", Cell(row, -1))
}
