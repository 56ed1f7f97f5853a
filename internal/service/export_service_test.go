package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/scoreme/internal/models"
	"github.com/noah-isme/scoreme/internal/repository"
	"github.com/noah-isme/scoreme/pkg/export"
	"github.com/noah-isme/scoreme/pkg/spreadsheet"
	"github.com/noah-isme/scoreme/pkg/storage"
)

func newExportServiceForTest(t *testing.T, cfg ExportConfig) (*ExportService, *storage.LocalStorage, *storage.LocalStorage) {
	t.Helper()
	exports, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "exports"))
	require.NoError(t, err)
	backups, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "backups"))
	require.NoError(t, err)
	svc := NewExportService(exports, backups, cfg, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local) }
	return svc, exports, backups
}

func reportStudents(t *testing.T) []*models.Student {
	t.Helper()
	return []*models.Student{
		newTestStudent(t, "STU001", "Alice", 92),
		newTestStudent(t, "STU002", "Bob", 45),
	}
}

func TestExportServiceGradeReport(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t, ExportConfig{})

	report := svc.GradeReport(reportStudents(t))
	require.Len(t, report.Students, 2)
	assert.Equal(t, 2, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.Passing)
	assert.Equal(t, 1, report.Summary.Distribution["A"])
	assert.Equal(t, 1, report.Summary.Distribution["F"])
}

func TestExportServiceExportGradeReportFormats(t *testing.T) {
	for _, format := range []models.ReportFormat{models.ReportFormatXLSX, models.ReportFormatCSV, models.ReportFormatPDF} {
		t.Run(string(format), func(t *testing.T) {
			svc, _, _ := newExportServiceForTest(t, ExportConfig{})
			report := svc.GradeReport(reportStudents(t))

			result, err := svc.ExportGradeReport(context.Background(), report, format)
			require.NoError(t, err)
			assert.Equal(t, format, result.Format)
			assert.Equal(t, 2, result.Rows)
			assert.Equal(t, "grade_report_20240309_140507."+string(format), filepath.Base(result.Path))

			info, err := os.Stat(result.Path)
			require.NoError(t, err)
			assert.Greater(t, info.Size(), int64(0))
		})
	}
}

func TestExportServiceCSVReportContent(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t, ExportConfig{})
	report := svc.GradeReport(reportStudents(t))

	result, err := svc.ExportGradeReport(context.Background(), report, models.ReportFormatCSV)
	require.NoError(t, err)

	raw, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	content := string(raw)
	assert.True(t, strings.HasPrefix(content, "Student Grade Report\n"))
	assert.Contains(t, content, "Pass Rate,50.0%")
	assert.Contains(t, content, "STU001,Alice,92.0")
}

func TestExportServiceXLSXReportLayout(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t, ExportConfig{})
	report := svc.GradeReport(reportStudents(t))

	result, err := svc.ExportGradeReport(context.Background(), report, models.ReportFormatXLSX)
	require.NoError(t, err)

	rows, err := spreadsheet.ReadRows(result.Path)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Student Grade Report", rows[0][0])

	headerIdx := -1
	for i, row := range rows {
		if spreadsheet.Cell(row, 0) == "Student ID" {
			headerIdx = i
			break
		}
	}
	require.GreaterOrEqual(t, headerIdx, 0)
	require.Len(t, rows, headerIdx+3)
	assert.Equal(t, "Bob", rows[headerIdx+2][1])
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t, ExportConfig{})
	_, err := svc.ExportGradeReport(context.Background(), svc.GradeReport(nil), models.ReportFormat("doc"))
	require.Error(t, err)
}

func TestExportServiceBackup(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t, ExportConfig{StudentsFile: "data/students.xlsx", CredentialsFile: "data/persons.xlsx"})
	students := reportStudents(t)
	creds := []models.Credential{{StudentID: "STU001", Name: "Alice", Username: "alice", Password: "pw", CreatedAt: time.Now()}}

	result, err := svc.Backup(context.Background(), students, creds)
	require.NoError(t, err)
	assert.Equal(t, "backup_students_2024-03-09_14-05-07.xlsx", filepath.Base(result.StudentsPath))
	assert.Equal(t, "backup_persons_2024-03-09_14-05-07.xlsx", filepath.Base(result.CredentialsPath))
	assert.Empty(t, result.Removed)

	loaded, err := repository.NewStudentRepository(result.StudentsPath).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	twin, err := repository.NewCredentialRepository(result.CredentialsPath).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", twin["STU001"].Username)

	files, err := svc.RecentBackups()
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestExportServiceBackupRetention(t *testing.T) {
	svc, _, backups := newExportServiceForTest(t, ExportConfig{BackupRetention: time.Hour})

	stale, err := backups.Save("backup_students_2000-01-01_00-00-00.xlsx", []byte("old"))
	require.NoError(t, err)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, past, past))

	result, err := svc.Backup(context.Background(), reportStudents(t), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"backup_students_2000-01-01_00-00-00.xlsx"}, result.Removed)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestExportServiceCreateImportTemplate(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t, ExportConfig{})

	path, err := svc.CreateImportTemplate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, repository.FormatValid, repository.ValidateStudentFile(path))

	rows, err := spreadsheet.ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, repository.StudentHeaders(), rows[0])
}

func TestBackupFilename(t *testing.T) {
	assert.Equal(t, "backup_students_2024-01-02_03-04-05.xlsx", BackupFilename("students.xlsx", "2024-01-02_03-04-05"))
	assert.Equal(t, "backup_persons_x.xlsx", BackupFilename("/var/data/persons.xlsx", "x"))
	assert.Equal(t, "backup_records_x.xlsx", BackupFilename("records", "x"))
}
