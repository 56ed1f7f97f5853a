package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/scoreme/internal/models"
	"github.com/noah-isme/scoreme/internal/repository"
	appErrors "github.com/noah-isme/scoreme/pkg/errors"
	"github.com/noah-isme/scoreme/pkg/storage"
)

// AdminSession grants the full record surface plus file workflows. The
// embedded RecordService supplies Add, Edit, Delete, Search, Sort and the rest.
type AdminSession struct {
	*RecordService

	id       string
	identity models.Identity
	exports  *ExportService
	logger   *zap.Logger
}

func newAdminSession(id string, identity models.Identity, records *RecordService, exports *ExportService, logger *zap.Logger) *AdminSession {
	return &AdminSession{
		RecordService: records,
		id:            id,
		identity:      identity,
		exports:       exports,
		logger:        logger.With(zap.String("session_id", id)),
	}
}

// ID returns the session identifier.
func (s *AdminSession) ID() string { return s.id }

// Identity returns the logged-in administrator.
func (s *AdminSession) Identity() models.Identity { return s.identity }

// ImportFile replaces every record with the contents of a student workbook
// after checking its header layout.
func (s *AdminSession) ImportFile(ctx context.Context, path string) (int, error) {
	switch repository.ValidateStudentFile(path) {
	case repository.FormatMissing:
		return 0, appErrors.Clone(appErrors.ErrNotFound, "import file not found")
	case repository.FormatEmpty:
		return 0, appErrors.Clone(appErrors.ErrValidation, "import file is empty")
	case repository.FormatMismatch:
		return 0, appErrors.Clone(appErrors.ErrValidation, "import file does not match the student format")
	}

	imported, err := repository.NewStudentRepository(path).Load(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, "no valid student data found")
	}
	count, err := s.BulkImport(ctx, imported)
	s.logger.Info("import finished", zap.String("path", path), zap.Int("count", count), zap.Error(err))
	return count, err
}

// GradeReport snapshots the current records with class statistics.
func (s *AdminSession) GradeReport() models.GradeReport {
	return s.exports.GradeReport(s.students)
}

// ExportReport writes the grade report in the requested format.
func (s *AdminSession) ExportReport(ctx context.Context, format models.ReportFormat) (*models.ExportResult, error) {
	return s.exports.ExportGradeReport(ctx, s.GradeReport(), format)
}

// Backup copies both workbooks into the backup directory.
func (s *AdminSession) Backup(ctx context.Context) (*models.BackupResult, error) {
	return s.exports.Backup(ctx, s.students, s.Credentials())
}

// RecentBackups lists backup files newest first.
func (s *AdminSession) RecentBackups() ([]storage.FileInfo, error) {
	return s.exports.RecentBackups()
}

// CreateImportTemplate writes an empty workbook in the student format.
func (s *AdminSession) CreateImportTemplate(ctx context.Context) (string, error) {
	return s.exports.CreateImportTemplate(ctx)
}

// StudentSession is read-only and limited to the logged-in student's record.
type StudentSession struct {
	id        string
	studentID string
	records   *RecordService
	logger    *zap.Logger
}

func newStudentSession(id, studentID string, records *RecordService, logger *zap.Logger) *StudentSession {
	return &StudentSession{
		id:        id,
		studentID: studentID,
		records:   records,
		logger:    logger.With(zap.String("session_id", id)),
	}
}

// ID returns the session identifier.
func (s *StudentSession) ID() string { return s.id }

// Profile returns a copy of the student's own record.
func (s *StudentSession) Profile() (*models.Student, error) {
	return s.records.FindByID(s.studentID)
}

// Lookup returns the student's own record when term is their id or name.
// Any other term is reported as not found.
func (s *StudentSession) Lookup(term string) (*models.Student, error) {
	own, err := s.Profile()
	if err != nil {
		return nil, err
	}
	if term != own.StudentID() && term != own.Name() {
		s.logger.Debug("lookup outside own record", zap.String("term", term))
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return own, nil
}
