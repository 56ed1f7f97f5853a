// Package grading turns raw subject scores into the derived academic fields.
// Every function here is pure; callers never re-implement a threshold.
package grading

// SubjectCount is the fixed number of scored subjects per student.
const SubjectCount = 7

// PassMark is the lowest average that still passes.
const PassMark = 50.0

var subjects = [SubjectCount]string{
	"Mathematics",
	"English",
	"Physics",
	"Chemistry",
	"Biology",
	"History",
	"Computer Science",
}

// LetterGrade is the banded classification of an average score.
type LetterGrade string

const (
	GradeA LetterGrade = "A"
	GradeB LetterGrade = "B"
	GradeC LetterGrade = "C"
	GradeD LetterGrade = "D"
	GradeE LetterGrade = "E"
	GradeF LetterGrade = "F"
)

// Remark is the pass/fail verdict.
type Remark string

const (
	RemarkPass Remark = "Pass"
	RemarkFail Remark = "Fail"
)

type band struct {
	min    float64
	letter LetterGrade
	gpa    float64
}

// Highest band first; the first band whose minimum is reached wins.
var bands = []band{
	{min: 90, letter: GradeA, gpa: 4.0},
	{min: 80, letter: GradeB, gpa: 3.0},
	{min: 70, letter: GradeC, gpa: 2.0},
	{min: 60, letter: GradeD, gpa: 1.0},
	{min: PassMark, letter: GradeE, gpa: 0.5},
}

// Letters lists every grade from best to worst.
func Letters() []LetterGrade {
	return []LetterGrade{GradeA, GradeB, GradeC, GradeD, GradeE, GradeF}
}

// SubjectNames returns the subject columns in their fixed order.
func SubjectNames() []string {
	names := make([]string, SubjectCount)
	copy(names, subjects[:])
	return names
}

// Average returns the arithmetic mean, or 0 for no scores.
func Average(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var total float64
	for _, s := range scores {
		total += s
	}
	return total / float64(len(scores))
}

// LetterGradeFor maps an average onto its letter band.
func LetterGradeFor(avg float64) LetterGrade {
	for _, b := range bands {
		if avg >= b.min {
			return b.letter
		}
	}
	return GradeF
}

// GPA maps an average onto a 0-4 scale that steps with the letter bands.
func GPA(avg float64) float64 {
	for _, b := range bands {
		if avg >= b.min {
			return b.gpa
		}
	}
	return 0
}

// IsPassing reports whether avg reaches the pass mark.
func IsPassing(avg float64) bool {
	return avg >= PassMark
}

// RemarkFor returns Pass or Fail for an average.
func RemarkFor(avg float64) Remark {
	if IsPassing(avg) {
		return RemarkPass
	}
	return RemarkFail
}

// IsValidScore reports whether s lies in [0, 100].
func IsValidScore(s float64) bool {
	return s >= 0 && s <= 100
}

// Result bundles every derived field so they are always produced together.
type Result struct {
	Average     float64
	LetterGrade LetterGrade
	GPA         float64
	Remark      Remark
}

// Derive runs the whole pipeline: average, letter, gpa, remark.
func Derive(scores []float64) Result {
	avg := Average(scores)
	return Result{
		Average:     avg,
		LetterGrade: LetterGradeFor(avg),
		GPA:         GPA(avg),
		Remark:      RemarkFor(avg),
	}
}
