package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scoreme/internal/grading"
	"github.com/noah-isme/scoreme/internal/models"
	"github.com/noah-isme/scoreme/pkg/spreadsheet"
)

func newStudent(t *testing.T, id, name string, scores ...float64) *models.Student {
	t.Helper()
	s, err := models.NewStudent(models.StudentProfile{
		StudentID:   id,
		Name:        name,
		Username:    "user-" + id,
		Password:    "secret-" + id,
		Age:         20,
		Gender:      "Female",
		DateOfBirth: "2004-08-22",
		Email:       "someone@gmail.com",
		Scores:      scores,
	})
	require.NoError(t, err)
	return s
}

func TestStudentHeaders(t *testing.T) {
	headers := StudentHeaders()
	require.Len(t, headers, 6+grading.SubjectCount+5)
	assert.Equal(t, "Student ID", headers[0])
	assert.Equal(t, grading.SubjectNames()[0], headers[6])
	assert.Equal(t, "Last Updated", headers[len(headers)-1])
	assert.NotContains(t, headers, "Username")
	assert.NotContains(t, headers, "Password")
}

func TestStudentRepositoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.xlsx")
	repo := NewStudentRepository(path)
	ctx := context.Background()

	in := []*models.Student{
		newStudent(t, "STU001", "John Smith", 85.5, 78.0, 92.3, 88.7, 76.5, 90.1, 82.8),
		newStudent(t, "STU002", "Emily Johnson", 42, 42, 42, 42, 42, 42, 42),
	}
	require.NoError(t, repo.Save(ctx, in))

	out, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for i := range in {
		assert.Equal(t, in[i].StudentID(), out[i].StudentID())
		assert.Equal(t, in[i].Name(), out[i].Name())
		assert.Equal(t, in[i].Scores(), out[i].Scores())
		assert.Equal(t, in[i].LetterGrade(), out[i].LetterGrade())
		assert.Equal(t, in[i].FormattedTimestamp(), out[i].FormattedTimestamp())
		// the main workbook never carries credentials
		assert.Empty(t, out[i].Username())
		assert.Empty(t, out[i].Password())
	}
	assert.Equal(t, grading.RemarkFail, out[1].Remark())
}

func TestStudentRepositoryLoadMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	_, err := NewStudentRepository(filepath.Join(dir, "absent.xlsx")).Load(ctx)
	assert.True(t, errors.Is(err, ErrSourceMissing))

	emptyPath := filepath.Join(dir, "empty.xlsx")
	require.NoError(t, NewStudentRepository(emptyPath).Save(ctx, nil))
	_, err = NewStudentRepository(emptyPath).Load(ctx)
	assert.True(t, errors.Is(err, ErrSourceEmpty))
}

func TestStudentRepositoryLoadToleratesBadCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "import.xlsx")
	require.NoError(t, spreadsheet.Write(path, spreadsheet.Sheet{
		Headers: StudentHeaders(),
		Rows: [][]any{
			{"STU010", "Short Row", "abc", "Male", "2003-01-20", "x@gmail.com", 90, "n/a"},
		},
	}))

	out, err := NewStudentRepository(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 20, out[0].Age())
	assert.Equal(t, []float64{90, 0, 0, 0, 0, 0, 0}, out[0].Scores())
	assert.InDelta(t, 90.0/7, out[0].Average(), 1e-9)
}

func TestStudentRepositoryLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o644))

	_, err := NewStudentRepository(path).Load(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSourceMissing))
}

func TestValidateStudentFile(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	assert.Equal(t, FormatMissing, ValidateStudentFile(filepath.Join(dir, "none.xlsx")))

	valid := filepath.Join(dir, "valid.xlsx")
	require.NoError(t, NewStudentRepository(valid).Save(ctx, nil))
	assert.Equal(t, FormatValid, ValidateStudentFile(valid))

	other := filepath.Join(dir, "other.xlsx")
	require.NoError(t, spreadsheet.Write(other, spreadsheet.Sheet{Headers: []string{"Device", "Serial"}}))
	assert.Equal(t, FormatMismatch, ValidateStudentFile(other))

	garbage := filepath.Join(dir, "garbage.xlsx")
	require.NoError(t, os.WriteFile(garbage, []byte("zzz"), 0o644))
	assert.Equal(t, FormatMismatch, ValidateStudentFile(garbage))
	assert.Equal(t, "mismatch", FormatMismatch.String())
}
