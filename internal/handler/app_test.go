package handler

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scoreme/internal/repository"
	"github.com/noah-isme/scoreme/internal/service"
	"github.com/noah-isme/scoreme/pkg/storage"
)

type stubPicker struct {
	path string
}

func (p stubPicker) PickFile(ctx context.Context, title, fallback string) (string, error) {
	return p.path, nil
}

type testEnv struct {
	dir     string
	records *service.RecordService
	out     *bytes.Buffer
}

func newTestApp(t *testing.T, script string, picker FilePicker) (*App, *testEnv) {
	t.Helper()
	dir := t.TempDir()
	studentsPath := filepath.Join(dir, "students.xlsx")
	records := service.NewRecordService(
		repository.NewStudentRepository(studentsPath),
		repository.NewCredentialRepository(filepath.Join(dir, "persons.xlsx")),
		nil, nil, nil,
	)
	require.NoError(t, records.Load(context.Background()))

	exports, err := storage.NewLocalStorage(filepath.Join(dir, "exports"))
	require.NoError(t, err)
	backups, err := storage.NewLocalStorage(filepath.Join(dir, "backups"))
	require.NoError(t, err)
	exportSvc := service.NewExportService(exports, backups, service.ExportConfig{}, nil, nil, nil)
	auth := service.NewAuthService(records, exportSvc, service.AdminAccount{Username: "scoremepro", Password: "prome123", Name: "Administrator"}, nil, nil, nil)

	out := &bytes.Buffer{}
	console := NewConsole(strings.NewReader(script), out, nil)
	app := NewApp(console, auth, picker, studentsPath, nil)
	return app, &testEnv{dir: dir, records: records, out: out}
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

const adminLogin = "1\nscoremepro\nprome123\n"

func TestAppAddStudent(t *testing.T) {
	script := adminLogin + lines(
		"1", "2", // manage, add
		"", "New Kid", "newkid", "secret",
		"17", "19", // age re-prompt
		"female", "2005-01-02", "new.kid@yahoo.com", "new.kid@gmail.com",
		"80", "80", "80", "80", "80", "80", "101", "80",
		"8", "7", "3",
	)
	app, env := newTestApp(t, script, nil)

	require.NoError(t, app.Run(context.Background()))
	output := env.out.String()
	assert.Contains(t, output, "Student STU011 added successfully!")
	assert.Contains(t, output, "age must be between 18 and 25")
	assert.Contains(t, output, "email must be a gmail.com address")
	assert.Contains(t, output, "score must be between 0 and 100")
	assert.Equal(t, 11, env.records.Count())

	added, err := env.records.FindByID("STU011")
	require.NoError(t, err)
	assert.Equal(t, "Female", added.Gender())
	assert.Equal(t, "newkid", added.Username())

	reloaded, err := repository.NewStudentRepository(filepath.Join(env.dir, "students.xlsx")).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, reloaded, 11)
}

func TestAppAddStudentRejectsDuplicateID(t *testing.T) {
	script := adminLogin + lines("1", "2", "STU001", "8", "7", "3")
	app, env := newTestApp(t, script, nil)

	require.NoError(t, app.Run(context.Background()))
	assert.Contains(t, env.out.String(), "Student ID already exists!")
	assert.Equal(t, 10, env.records.Count())
}

func TestAppDeleteStudent(t *testing.T) {
	script := adminLogin + lines("1", "4", "STU003", "y", "8", "7", "3")
	app, env := newTestApp(t, script, nil)

	require.NoError(t, app.Run(context.Background()))
	assert.Contains(t, env.out.String(), "Student deleted successfully!")
	assert.Equal(t, 9, env.records.Count())
	_, err := env.records.FindByName("Michael Brown")
	assert.Error(t, err)
	last, err := env.records.FindByID("STU009")
	require.NoError(t, err)
	assert.Equal(t, "Jessica Martinez", last.Name())
}

func TestAppEditScores(t *testing.T) {
	script := adminLogin + lines("1", "3", "STU009", "6", "40", "40", "40", "40", "40", "40", "40", "6", "8", "7", "3")
	app, env := newTestApp(t, script, nil)

	require.NoError(t, app.Run(context.Background()))
	output := env.out.String()
	assert.Contains(t, output, "Student information updated successfully!")
	assert.Contains(t, output, "FAILING STUDENTS")
	st, err := env.records.FindByID("STU009")
	require.NoError(t, err)
	assert.Equal(t, "F", string(st.LetterGrade()))
}

func TestAppSortAndSaveOrder(t *testing.T) {
	script := adminLogin + lines("1", "7", "asc", "y", "8", "7", "3")
	app, env := newTestApp(t, script, nil)

	require.NoError(t, app.Run(context.Background()))
	list := env.records.List()
	require.NotEmpty(t, list)
	assert.Equal(t, "Robert Thomas", list[0].Name())
	assert.Contains(t, env.out.String(), "Student IDs will be compacted to STU001..")
	assert.Contains(t, env.out.String(), "Order saved.")
}

func TestAppImportFile(t *testing.T) {
	source := filepath.Join(t.TempDir(), "incoming.xlsx")
	seed := service.SampleStudents()[:2]
	require.NoError(t, repository.NewStudentRepository(source).Save(context.Background(), seed))

	script := adminLogin + lines("2", "y", "7", "3")
	app, env := newTestApp(t, script, stubPicker{path: source})

	require.NoError(t, app.Run(context.Background()))
	assert.Contains(t, env.out.String(), "Imported 2 students")
	assert.Equal(t, 2, env.records.Count())
}

func TestAppExportBackupAndTemplate(t *testing.T) {
	script := adminLogin + lines("3", "csv", "4", "5", "6", "7", "3")
	app, env := newTestApp(t, script, nil)

	require.NoError(t, app.Run(context.Background()))
	output := env.out.String()
	assert.Contains(t, output, "Grade report with 10 students written to")
	assert.Contains(t, output, "Backup created:")
	assert.Contains(t, output, "Total Students")
	assert.Contains(t, output, "Import template created at")
}

func TestAppInvalidAdminLogin(t *testing.T) {
	app, env := newTestApp(t, lines("1", "scoremepro", "wrong", "3"), nil)

	require.NoError(t, app.Run(context.Background()))
	assert.Contains(t, env.out.String(), "Invalid admin credentials!")
}

func TestAppStudentSession(t *testing.T) {
	script := lines("2", "john.smith", "pass123", "1", "STU002", "1", "John Smith", "2", "3", "3")
	app, env := newTestApp(t, script, nil)

	require.NoError(t, app.Run(context.Background()))
	output := env.out.String()
	assert.Contains(t, output, "Welcome, John Smith!")
	assert.Contains(t, output, "You can only view your own data.")
	assert.Contains(t, output, "Computer Science")
}

func TestAppStopsOnClosedInput(t *testing.T) {
	app, _ := newTestApp(t, "1\nscoremepro\n", nil)
	assert.NoError(t, app.Run(context.Background()))
}

func TestAppRejectsOutOfRangeChoice(t *testing.T) {
	app, env := newTestApp(t, lines("9", "abc", "3"), nil)

	require.NoError(t, app.Run(context.Background()))
	output := env.out.String()
	assert.Contains(t, output, "invalid choice, enter a number between 1 and 3")
	assert.Contains(t, output, "please enter a whole number")
}
