package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/scoreme/internal/grading"
)

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatPDF  ReportFormat = "pdf"
)

// ParseReportFormat accepts a case-insensitive format name.
func ParseReportFormat(raw string) (ReportFormat, error) {
	switch ReportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case ReportFormatXLSX, "":
		return ReportFormatXLSX, nil
	case ReportFormatCSV:
		return ReportFormatCSV, nil
	case ReportFormatPDF:
		return ReportFormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported report format %q", raw)
	}
}

// SortOrder selects the direction of a sort by average score.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// GradeReport is a class-wide snapshot with statistics.
type GradeReport struct {
	GeneratedAt time.Time
	Summary     grading.Summary
	Students    []Student
}

// BackupResult lists the files a backup pass produced.
type BackupResult struct {
	StudentsPath    string
	CredentialsPath string
	Removed         []string
}

// ExportResult describes a written report file.
type ExportResult struct {
	Path   string
	Format ReportFormat
	Rows   int
}
