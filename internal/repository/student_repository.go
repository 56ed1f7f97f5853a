package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/scoreme/internal/grading"
	"github.com/noah-isme/scoreme/internal/models"
	"github.com/noah-isme/scoreme/pkg/spreadsheet"
)

const (
	studentSheetName = "Student Grades"
	// headerCheckWidth is how many leading header cells decide a format match.
	headerCheckWidth = 10
	defaultAge       = 20
)

var (
	// ErrSourceMissing means the main workbook does not exist yet.
	ErrSourceMissing = errors.New("student workbook not found")
	// ErrSourceEmpty means the workbook exists but holds no student rows.
	ErrSourceEmpty = errors.New("student workbook has no records")
)

// FormatStatus is the outcome of checking a workbook against the student schema.
type FormatStatus int

const (
	FormatValid FormatStatus = iota
	FormatMissing
	FormatEmpty
	FormatMismatch
)

func (s FormatStatus) String() string {
	switch s {
	case FormatValid:
		return "valid"
	case FormatMissing:
		return "missing"
	case FormatEmpty:
		return "empty"
	default:
		return "mismatch"
	}
}

// StudentHeaders returns the main workbook columns in order. Credentials are
// never part of this file.
func StudentHeaders() []string {
	headers := []string{"Student ID", "Name", "Age", "Gender", "Date of Birth", "Email"}
	headers = append(headers, grading.SubjectNames()...)
	return append(headers, "Average Score", "Letter Grade", "GPA", "Remark", "Last Updated")
}

// StudentSheet lays students out in the main workbook schema.
func StudentSheet(students []*models.Student) spreadsheet.Sheet {
	rows := make([][]any, 0, len(students))
	for _, s := range students {
		row := []any{s.StudentID(), s.Name(), s.Age(), s.Gender(), s.DateOfBirth(), s.Email()}
		for _, score := range s.Scores() {
			row = append(row, score)
		}
		row = append(row,
			math.Round(s.Average()*100) / 100,
			string(s.LetterGrade()),
			s.GPA(),
			string(s.Remark()),
			s.FormattedTimestamp(),
		)
		rows = append(rows, row)
	}
	return spreadsheet.Sheet{
		Name:    studentSheetName,
		Headers: StudentHeaders(),
		Rows:    rows,
		Widths:  map[int]float64{2: 22, 5: 14, 6: 30, 18: 20},
	}
}

// StudentRepository persists academic records to an xlsx workbook.
type StudentRepository struct {
	path string
}

// NewStudentRepository constructs a StudentRepository bound to path.
func NewStudentRepository(path string) *StudentRepository {
	return &StudentRepository{path: path}
}

// Path returns the workbook location.
func (r *StudentRepository) Path() string {
	return r.path
}

// Save rewrites the whole workbook.
func (r *StudentRepository) Save(ctx context.Context, students []*models.Student) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := spreadsheet.Write(r.path, StudentSheet(students)); err != nil {
		return fmt.Errorf("save students to %s: %w", r.path, err)
	}
	return nil
}

// Load reads every student row. Rows with unreadable numbers fall back to
// defaults instead of failing the whole file. Derived columns on disk are
// ignored and recomputed from the scores.
func (r *StudentRepository) Load(ctx context.Context) ([]*models.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := spreadsheet.ReadRows(r.path)
	if err != nil {
		if errors.Is(err, spreadsheet.ErrNotExist) {
			return nil, ErrSourceMissing
		}
		return nil, fmt.Errorf("load students from %s: %w", r.path, err)
	}
	if len(rows) <= 1 {
		return nil, ErrSourceEmpty
	}

	students := make([]*models.Student, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		student, err := parseStudentRow(row)
		if err != nil {
			return nil, fmt.Errorf("load students from %s: %w", r.path, err)
		}
		students = append(students, student)
	}
	if len(students) == 0 {
		return nil, ErrSourceEmpty
	}
	return students, nil
}

// ValidateFormat checks the workbook at the repository path.
func (r *StudentRepository) ValidateFormat() FormatStatus {
	return ValidateStudentFile(r.path)
}

// ValidateStudentFile reports whether path looks like a student workbook: the
// first ten header cells must equal StudentHeaders in order.
func ValidateStudentFile(path string) FormatStatus {
	rows, err := spreadsheet.ReadRows(path)
	if err != nil {
		if errors.Is(err, spreadsheet.ErrNotExist) {
			return FormatMissing
		}
		return FormatMismatch
	}
	if len(rows) == 0 || isBlank(rows[0]) {
		return FormatEmpty
	}
	expected := StudentHeaders()
	for i := 0; i < headerCheckWidth && i < len(expected); i++ {
		if strings.TrimSpace(spreadsheet.Cell(rows[0], i)) != expected[i] {
			return FormatMismatch
		}
	}
	return FormatValid
}

func parseStudentRow(row []string) (*models.Student, error) {
	const scoreStart = 6
	age, err := strconv.Atoi(strings.TrimSpace(spreadsheet.Cell(row, 2)))
	if err != nil {
		if f, ferr := strconv.ParseFloat(strings.TrimSpace(spreadsheet.Cell(row, 2)), 64); ferr == nil {
			age = int(f)
		} else {
			age = defaultAge
		}
	}
	scores := make([]float64, grading.SubjectCount)
	for i := range scores {
		scores[i] = parseFloat(spreadsheet.Cell(row, scoreStart+i))
	}
	student, err := models.NewStudent(models.StudentProfile{
		StudentID:   strings.TrimSpace(spreadsheet.Cell(row, 0)),
		Name:        strings.TrimSpace(spreadsheet.Cell(row, 1)),
		Age:         age,
		Gender:      spreadsheet.Cell(row, 3),
		DateOfBirth: spreadsheet.Cell(row, 4),
		Email:       spreadsheet.Cell(row, 5),
		Scores:      scores,
	})
	if err != nil {
		return nil, err
	}
	lastUpdatedCol := scoreStart + grading.SubjectCount + 4
	if ts, err := time.ParseInLocation(models.TimestampLayout, spreadsheet.Cell(row, lastUpdatedCol), time.Local); err == nil {
		student.RestoreTimestamp(ts)
	}
	return student, nil
}

func parseFloat(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
