package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/scoreme/internal/models"
	"github.com/noah-isme/scoreme/internal/repository"
	appErrors "github.com/noah-isme/scoreme/pkg/errors"
	"github.com/noah-isme/scoreme/pkg/spreadsheet"
)

func adminSessionForTest(t *testing.T) *AdminSession {
	t.Helper()
	auth, _ := newAuthServiceForTest(t, nil)
	session, err := auth.LoginAdmin(models.LoginRequest{Username: testAdmin.Username, Password: testAdmin.Password})
	require.NoError(t, err)
	return session
}

func TestStudentSessionLookup(t *testing.T) {
	auth, _ := newAuthServiceForTest(t, nil)
	session, err := auth.LoginStudent(models.LoginRequest{Username: "alice", Password: "wonderland"})
	require.NoError(t, err)

	byID, err := session.Lookup("STU001")
	require.NoError(t, err)
	assert.Equal(t, "Alice", byID.Name())

	byName, err := session.Lookup("Alice")
	require.NoError(t, err)
	assert.Equal(t, "STU001", byName.StudentID())

	_, err = session.Lookup("STU002")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	_, err = session.Lookup("Bob")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestAdminSessionImportFile(t *testing.T) {
	session := adminSessionForTest(t)
	dir := t.TempDir()

	source := filepath.Join(dir, "import.xlsx")
	imported := []*models.Student{
		newTestStudent(t, "STU008", "Ivy", 91),
		newTestStudent(t, "STU003", "Jon", 30),
		newTestStudent(t, "STU005", "Kim", 66),
	}
	require.NoError(t, repository.NewStudentRepository(source).Save(context.Background(), imported))

	count, err := session.ImportFile(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, []string{"STU003", "STU001", "STU002"}, ids(session.List()))
}

func TestAdminSessionImportFileRejectsBadFiles(t *testing.T) {
	session := adminSessionForTest(t)
	dir := t.TempDir()

	_, err := session.ImportFile(context.Background(), filepath.Join(dir, "missing.xlsx"))
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	wrong := filepath.Join(dir, "wrong.xlsx")
	require.NoError(t, spreadsheet.Write(wrong, spreadsheet.Sheet{Headers: []string{"Name", "Score"}, Rows: [][]any{{"x", 1}}}))
	_, err = session.ImportFile(context.Background(), wrong)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	headersOnly := filepath.Join(dir, "template.xlsx")
	require.NoError(t, spreadsheet.Write(headersOnly, repository.StudentSheet(nil)))
	_, err = session.ImportFile(context.Background(), headersOnly)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	assert.Equal(t, 2, session.Count(), "records untouched after rejected imports")
}

func TestAdminSessionReportAndBackup(t *testing.T) {
	session := adminSessionForTest(t)
	ctx := context.Background()

	report := session.GradeReport()
	assert.Equal(t, 2, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.Failing)

	result, err := session.ExportReport(ctx, models.ReportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)

	backup, err := session.Backup(ctx)
	require.NoError(t, err)
	twin, err := repository.NewCredentialRepository(backup.CredentialsPath).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, twin, 1)

	files, err := session.RecentBackups()
	require.NoError(t, err)
	assert.Len(t, files, 2)

	template, err := session.CreateImportTemplate(ctx)
	require.NoError(t, err)
	assert.Equal(t, repository.FormatValid, repository.ValidateStudentFile(template))
}

func TestAdminSessionExposesRecordOperations(t *testing.T) {
	session := adminSessionForTest(t)

	id, err := session.Add(context.Background(), validAddRequest("Lee"))
	require.NoError(t, err)
	assert.Equal(t, "STU003", id)
	require.NoError(t, session.Delete(context.Background(), "STU001"))
	assert.Equal(t, []string{"STU001", "STU002"}, ids(session.List()))
	assert.Equal(t, []string{"STU001"}, ids(session.FilterFailing()))
}

func TestStudentSessionLoggerCarriesSessionID(t *testing.T) {
	records, _, _ := newLoadedService(t, newTestStudent(t, "STU001", "Alice", 80))
	session := newStudentSession("sess-1", "STU001", records, zap.NewNop())
	assert.Equal(t, "sess-1", session.ID())

	profile, err := session.Profile()
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.Name())
}
