package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/scoreme/internal/grading"
	"github.com/noah-isme/scoreme/internal/models"
	"github.com/noah-isme/scoreme/internal/repository"
	"github.com/noah-isme/scoreme/pkg/export"
	"github.com/noah-isme/scoreme/pkg/spreadsheet"
	"github.com/noah-isme/scoreme/pkg/storage"
)

const (
	backupPrefix          = "backup_"
	backupTimestampLayout = "2006-01-02_15-04-05"
	reportTimestampLayout = "20060102_150405"
	importTemplateName    = "student_import_template.xlsx"
	gradeReportTitle      = "Student Grade Report"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	List(prefix string) ([]storage.FileInfo, error)
	CleanupOlderThan(prefix string, ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export and backup behaviour.
type ExportConfig struct {
	// StudentsFile and CredentialsFile name the live workbooks; their base
	// names prefix the backup copies.
	StudentsFile    string
	CredentialsFile string
	// BackupRetention removes older backups after each pass. Zero keeps all.
	BackupRetention time.Duration
}

// ExportService renders grade reports and writes backup copies of both
// workbooks.
type ExportService struct {
	exports fileStorage
	backups fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(exports, backups fileStorage, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StudentsFile == "" {
		cfg.StudentsFile = "students.xlsx"
	}
	if cfg.CredentialsFile == "" {
		cfg.CredentialsFile = "persons.xlsx"
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		exports: exports,
		backups: backups,
		csv:     csv,
		pdf:     pdf,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// GradeReport snapshots the given students with class statistics.
func (s *ExportService) GradeReport(students []*models.Student) models.GradeReport {
	averages := make([]float64, len(students))
	rows := make([]models.Student, len(students))
	for i, st := range students {
		averages[i] = st.Average()
		rows[i] = *st.Clone()
	}
	return models.GradeReport{
		GeneratedAt: s.now(),
		Summary:     grading.Summarize(averages),
		Students:    rows,
	}
}

// ExportGradeReport renders the report in format and stores it in the export
// directory.
func (s *ExportService) ExportGradeReport(ctx context.Context, report models.GradeReport, format models.ReportFormat) (*models.ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dataset := gradeReportDataset(report)

	var (
		payload []byte
		err     error
	)
	switch format {
	case models.ReportFormatXLSX:
		payload, err = spreadsheet.Encode(gradeReportSheet(dataset))
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("grade_report_%s.%s", s.now().Format(reportTimestampLayout), format)
	path, err := s.exports.Save(filename, payload)
	if err != nil {
		return nil, err
	}
	s.logger.Info("grade report exported", zap.String("path", path), zap.String("format", string(format)), zap.Int("rows", len(report.Students)))
	return &models.ExportResult{Path: path, Format: format, Rows: len(report.Students)}, nil
}

// Backup writes timestamped copies of the main and credentials workbooks in
// one pass, then prunes backups past the retention window.
func (s *ExportService) Backup(ctx context.Context, students []*models.Student, credentials []models.Credential) (*models.BackupResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stamp := s.now().Format(backupTimestampLayout)

	studentBytes, err := spreadsheet.Encode(repository.StudentSheet(students))
	if err != nil {
		return nil, fmt.Errorf("encode student backup: %w", err)
	}
	credentialBytes, err := spreadsheet.Encode(repository.CredentialSheet(credentials))
	if err != nil {
		return nil, fmt.Errorf("encode credentials backup: %w", err)
	}

	studentsPath, err := s.backups.Save(BackupFilename(s.cfg.StudentsFile, stamp), studentBytes)
	if err != nil {
		return nil, err
	}
	credentialsPath, err := s.backups.Save(BackupFilename(s.cfg.CredentialsFile, stamp), credentialBytes)
	if err != nil {
		return nil, err
	}
	result := &models.BackupResult{StudentsPath: studentsPath, CredentialsPath: credentialsPath}

	if s.cfg.BackupRetention > 0 {
		removed, err := s.backups.CleanupOlderThan(backupPrefix, s.cfg.BackupRetention)
		if err != nil {
			s.logger.Warn("failed to prune old backups", zap.Error(err))
		}
		result.Removed = removed
	}
	s.logger.Info("backup written", zap.String("students", studentsPath), zap.String("credentials", credentialsPath), zap.Int("pruned", len(result.Removed)))
	return result, nil
}

// RecentBackups lists backup files newest first.
func (s *ExportService) RecentBackups() ([]storage.FileInfo, error) {
	return s.backups.List(backupPrefix)
}

// CreateImportTemplate writes an empty workbook with the main schema headers.
func (s *ExportService) CreateImportTemplate(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	payload, err := spreadsheet.Encode(repository.StudentSheet(nil))
	if err != nil {
		return "", err
	}
	path, err := s.exports.Save(importTemplateName, payload)
	if err != nil {
		return "", err
	}
	s.logger.Info("import template written", zap.String("path", path))
	return path, nil
}

// BackupFilename builds backup_<base>_<stamp>.<ext> from a workbook name.
func BackupFilename(source, stamp string) string {
	name := filepath.Base(source)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if ext == "" {
		ext = ".xlsx"
	}
	return fmt.Sprintf("%s%s_%s%s", backupPrefix, base, stamp, ext)
}

func gradeReportHeaders() []string {
	headers := []string{"Student ID", "Name"}
	headers = append(headers, grading.SubjectNames()...)
	return append(headers, "Average Score", "Letter Grade", "GPA", "Remark")
}

func gradeReportDataset(report models.GradeReport) export.Dataset {
	headers := gradeReportHeaders()
	subjects := grading.SubjectNames()
	rows := make([]map[string]string, 0, len(report.Students))
	for i := range report.Students {
		st := &report.Students[i]
		row := map[string]string{
			"Student ID":    st.StudentID(),
			"Name":          st.Name(),
			"Average Score": fmt.Sprintf("%.2f", st.Average()),
			"Letter Grade":  string(st.LetterGrade()),
			"GPA":           fmt.Sprintf("%.1f", st.GPA()),
			"Remark":        string(st.Remark()),
		}
		for j, score := range st.Scores() {
			row[subjects[j]] = fmt.Sprintf("%.1f", score)
		}
		rows = append(rows, row)
	}

	sum := report.Summary
	summary := [][2]string{
		{"Generated", report.GeneratedAt.Format(models.TimestampLayout)},
		{"Total Students", fmt.Sprintf("%d", sum.Total)},
		{"Passing", fmt.Sprintf("%d", sum.Passing)},
		{"Failing", fmt.Sprintf("%d", sum.Failing)},
		{"Pass Rate", fmt.Sprintf("%.1f%%", sum.PassRate)},
		{"Class Average", fmt.Sprintf("%.2f", sum.ClassAverage)},
	}
	for _, letter := range grading.Letters() {
		summary = append(summary, [2]string{"Grade " + string(letter), fmt.Sprintf("%d", sum.Distribution[letter])})
	}

	return export.Dataset{
		Title:   gradeReportTitle,
		Summary: summary,
		Headers: headers,
		Rows:    rows,
	}
}

func gradeReportSheet(data export.Dataset) spreadsheet.Sheet {
	preamble := make([][]any, 0, len(data.Summary)+1)
	preamble = append(preamble, []any{data.Title})
	for _, pair := range data.Summary {
		preamble = append(preamble, []any{pair[0], pair[1]})
	}
	rows := make([][]any, 0, len(data.Rows))
	for _, record := range data.Records() {
		row := make([]any, len(record))
		for i, v := range record {
			row[i] = v
		}
		rows = append(rows, row)
	}
	return spreadsheet.Sheet{
		Name:     "Grade Report",
		Preamble: preamble,
		Headers:  data.Headers,
		Rows:     rows,
		Widths:   map[int]float64{1: 18, 2: 24},
	}
}
