package handler

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/noah-isme/scoreme/internal/grading"
	"github.com/noah-isme/scoreme/internal/models"
	"github.com/noah-isme/scoreme/pkg/storage"
)

// WriteStudentTable renders one row per student.
func WriteStudentTable(w io.Writer, students []*models.Student) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tName\tAge\tGender\tEmail\tAverage\tGrade\tGPA\tRemark")
	for _, st := range students {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%.2f\t%s\t%.1f\t%s\n",
			st.StudentID(), st.Name(), st.Age(), st.Gender(), st.Email(),
			st.Average(), st.LetterGrade(), st.GPA(), st.Remark())
	}
	return tw.Flush()
}

// WriteStudentDetails renders every field of one student as label/value lines.
func WriteStudentDetails(w io.Writer, st *models.Student) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Field\tValue")
	fmt.Fprintf(tw, "Student ID\t%s\n", st.StudentID())
	fmt.Fprintf(tw, "Name\t%s\n", st.Name())
	fmt.Fprintf(tw, "Age\t%d\n", st.Age())
	fmt.Fprintf(tw, "Gender\t%s\n", st.Gender())
	fmt.Fprintf(tw, "Date of Birth\t%s\n", st.DateOfBirth())
	fmt.Fprintf(tw, "Email\t%s\n", st.Email())
	scores := st.Scores()
	for i, subject := range grading.SubjectNames() {
		fmt.Fprintf(tw, "%s\t%.1f\n", subject, scores[i])
	}
	fmt.Fprintf(tw, "Average Score\t%.2f\n", st.Average())
	fmt.Fprintf(tw, "Letter Grade\t%s\n", st.LetterGrade())
	fmt.Fprintf(tw, "GPA\t%.1f\n", st.GPA())
	fmt.Fprintf(tw, "Remark\t%s\n", st.Remark())
	fmt.Fprintf(tw, "Last Updated\t%s\n", st.FormattedTimestamp())
	return tw.Flush()
}

// WriteSummary renders class statistics.
func WriteSummary(w io.Writer, sum grading.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total Students\t%d\n", sum.Total)
	fmt.Fprintf(tw, "Passing\t%d\n", sum.Passing)
	fmt.Fprintf(tw, "Failing\t%d\n", sum.Failing)
	fmt.Fprintf(tw, "Pass Rate\t%.1f%%\n", sum.PassRate)
	fmt.Fprintf(tw, "Class Average\t%.2f\n", sum.ClassAverage)
	for _, letter := range grading.Letters() {
		fmt.Fprintf(tw, "Grade %s\t%d\n", letter, sum.Distribution[letter])
	}
	return tw.Flush()
}

// WriteBackupList renders stored backup files.
func WriteBackupList(w io.Writer, files []storage.FileInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "File\tSize\tModified")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", f.Name, f.Size, f.ModTime.Format(models.TimestampLayout))
	}
	return tw.Flush()
}
